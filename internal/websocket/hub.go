package websocket

import (
	"encoding/json"
	"sync"
)

// PropertyUpdate is pushed to subscribed clients whenever a property's token
// supply or status changes (purchase, sell-out, listing).
type PropertyUpdate struct {
	PropertyID      string `json:"property_id"`
	TokensAvailable int64  `json:"tokens_available"`
	TokensSold      int64  `json:"tokens_sold"`
	Status          string `json:"status"`
}

type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[*Client]struct{}),
	}
}

func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[client] = struct{}{}
}

func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, client)
}

func (h *Hub) BroadcastProperty(update PropertyUpdate) {
	payload, _ := json.Marshal(update)
	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients {
		select {
		case client.send <- payload:
		default:
		}
	}
}
