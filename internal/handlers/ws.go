package handlers

import (
	"net/http"

	"proptoken/internal/websocket"
)

// WSProperties streams live token-supply updates for the marketplace view.
// Unauthenticated: the payload only carries public listing data.
func (h *Handler) WSProperties(w http.ResponseWriter, r *http.Request) {
	websocket.ServeWS(w, r, h.hub)
}
