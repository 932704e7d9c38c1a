package handlers

import (
	"encoding/json"
	"net/http"

	"proptoken/internal/middleware"
	"proptoken/internal/models"
	"proptoken/internal/services"

	"github.com/go-chi/chi/v5"
)

type placeOrderRequest struct {
	PropertyID    string `json:"property_id"`
	Side          string `json:"side"`
	TokenAmount   int64  `json:"token_amount"`
	PricePerToken string `json:"price_per_token"`
}

func (h *Handler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req placeOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	order, err := h.market.PlaceOrder(r.Context(), services.OrderRequest{
		UserID:        userID,
		PropertyID:    req.PropertyID,
		Side:          req.Side,
		TokenAmount:   req.TokenAmount,
		PricePerToken: req.PricePerToken,
	})
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, order)
}

func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.market.ListActiveByProperty(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load orders")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"orders": orders})
}

func (h *Handler) MyOrders(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	orders, err := h.market.ListByUser(r.Context(), userID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load orders")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"orders": orders})
}

// GetOrder is visible to the order's owner and to admins; anyone else gets a
// not-found rather than a hint the order exists.
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	order, err := h.market.GetOrder(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	role, _ := middleware.RoleFromContext(r.Context())
	if order.UserID != userID && role != models.RoleAdmin {
		respondError(w, http.StatusNotFound, "order not found")
		return
	}
	respondJSON(w, http.StatusOK, order)
}

func (h *Handler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if err := h.market.CancelOrder(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
}
