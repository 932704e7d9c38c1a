package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"proptoken/internal/models"
	"proptoken/internal/services"
	"proptoken/internal/tokenmath"
)

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondServiceError maps domain errors onto HTTP statuses. Unknown errors
// collapse to a generic 500 so internals never leak outward.
func (h *Handler) respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrPropertyNotFound),
		errors.Is(err, services.ErrOrderNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, services.ErrNotApproved),
		errors.Is(err, services.ErrNotListed),
		errors.Is(err, services.ErrNotTradeable),
		errors.Is(err, models.ErrInvalidTransition):
		respondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, services.ErrBelowMinimum),
		errors.Is(err, services.ErrInvalidWallet),
		errors.Is(err, services.ErrInvalidOrder),
		errors.Is(err, tokenmath.ErrValueTooLow),
		errors.Is(err, tokenmath.ErrSizeTooSmall):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrInsufficientSupply),
		errors.Is(err, services.ErrInsufficientHolding),
		errors.Is(err, services.ErrNoHolders):
		respondError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, services.ErrLedgerUnavailable):
		h.log.WithError(err).Error("ledger call failed")
		respondError(w, http.StatusBadGateway, "ledger unavailable")
	default:
		h.log.WithError(err).Error("request failed")
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}

func parsePagination(r *http.Request) (limit, offset int) {
	limit = 50
	offset = 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 && parsed <= 200 {
			limit = parsed
		}
	}
	if raw := r.URL.Query().Get("offset"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed >= 0 {
			offset = parsed
		}
	}
	return limit, offset
}
