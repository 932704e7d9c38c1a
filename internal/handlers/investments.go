package handlers

import (
	"encoding/json"
	"net/http"

	"proptoken/internal/middleware"
	"proptoken/internal/money"
	"proptoken/internal/services"

	"github.com/go-chi/chi/v5"
)

type purchaseRequest struct {
	TokenAmount   int64  `json:"token_amount"`
	WalletAddress string `json:"wallet_address"`
}

func (h *Handler) Purchase(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req purchaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if req.TokenAmount <= 0 {
		respondError(w, http.StatusBadRequest, "token_amount must be positive")
		return
	}
	result, err := h.tokenization.PurchaseTokens(r.Context(), services.PurchaseRequest{
		UserID:        userID,
		PropertyID:    chi.URLParam(r, "id"),
		TokenAmount:   req.TokenAmount,
		WalletAddress: req.WalletAddress,
	})
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]any{
		"transaction_id":   result.TransactionID,
		"transfer_tx_hash": result.TransferTxHash,
		"total":            money.FormatMinor(result.TotalMinor),
		"tokens_available": result.TokensAvailable,
		"sold_out":         result.SoldOut,
	})
}

func (h *Handler) MyHoldings(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	holdings, err := h.holdings.ListByUser(r.Context(), userID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load holdings")
		return
	}
	views := make([]map[string]any, 0, len(holdings))
	for _, holding := range holdings {
		views = append(views, map[string]any{
			"id":              holding.ID,
			"property_id":     holding.PropertyID,
			"property_name":   holding.PropertyName,
			"property_status": holding.Status,
			"token_amount":    holding.TokenAmount,
			"total_tokens":    holding.TotalTokens,
			"total_invested":  money.FormatMinor(holding.TotalInvestedMinor),
			"average_price":   holding.AveragePrice,
			"token_price":     holding.TokenPrice,
			"updated_at":      holding.UpdatedAt,
		})
	}
	respondJSON(w, http.StatusOK, map[string]any{"holdings": views})
}

func (h *Handler) MyTransactions(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	limit, offset := parsePagination(r)
	transactions, err := h.transactions.ListByUser(r.Context(), userID, r.URL.Query().Get("type"), limit, offset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load transactions")
		return
	}
	views := make([]map[string]any, 0, len(transactions))
	for _, transaction := range transactions {
		views = append(views, map[string]any{
			"id":              transaction.ID,
			"property_id":     transaction.PropertyID,
			"type":            transaction.Type,
			"status":          transaction.Status,
			"token_amount":    transaction.TokenAmount,
			"price_per_token": transaction.PricePerToken,
			"total":           money.FormatMinor(transaction.TotalMinor),
			"ledger_tx_hash":  transaction.LedgerTxHash,
			"created_at":      transaction.CreatedAt,
		})
	}
	respondJSON(w, http.StatusOK, map[string]any{"transactions": views})
}
