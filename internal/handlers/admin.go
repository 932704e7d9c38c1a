package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"

	"proptoken/internal/middleware"
	"proptoken/internal/models"
	"proptoken/internal/money"

	"github.com/go-chi/chi/v5"
	"github.com/jmoiron/sqlx"
)

// AdminListProperties lists properties by status, defaulting to the review
// queue.
func (h *Handler) AdminListProperties(w http.ResponseWriter, r *http.Request) {
	status := models.PropertyStatus(r.URL.Query().Get("status"))
	if status == "" {
		status = models.StatusPendingReview
	}
	if !status.Valid() {
		respondError(w, http.StatusBadRequest, "invalid status")
		return
	}
	limit, offset := parsePagination(r)
	properties, err := h.properties.ListByStatus(r.Context(), status, limit, offset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load properties")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"properties": toPropertyViews(properties)})
}

func (h *Handler) ApproveProperty(w http.ResponseWriter, r *http.Request) {
	adminID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if err := h.tokenization.ApproveProperty(r.Context(), adminID, chi.URLParam(r, "id")); err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": string(models.StatusApproved)})
}

type rejectRequest struct {
	Reason string `json:"reason"`
}

func (h *Handler) RejectProperty(w http.ResponseWriter, r *http.Request) {
	adminID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req rejectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if req.Reason == "" {
		respondError(w, http.StatusBadRequest, "reason is required")
		return
	}
	if err := h.tokenization.RejectProperty(r.Context(), adminID, chi.URLParam(r, "id"), req.Reason); err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": string(models.StatusRejected)})
}

func (h *Handler) TokenizeProperty(w http.ResponseWriter, r *http.Request) {
	adminID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	result, err := h.tokenization.TokenizeProperty(r.Context(), adminID, chi.URLParam(r, "id"))
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

type distributeRequest struct {
	TotalIncome string `json:"total_income"`
}

func (h *Handler) DistributeIncome(w http.ResponseWriter, r *http.Request) {
	adminID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req distributeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	totalIncomeMinor, err := money.ParseMinor(req.TotalIncome)
	if err != nil || totalIncomeMinor <= 0 {
		respondError(w, http.StatusBadRequest, "invalid total_income")
		return
	}
	result, err := h.tokenization.DistributeRentalIncome(r.Context(), adminID, chi.URLParam(r, "id"), totalIncomeMinor)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

func (h *Handler) ListDistributions(w http.ResponseWriter, r *http.Request) {
	distributions, err := h.distributions.ListByProperty(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load distributions")
		return
	}
	views := make([]map[string]any, 0, len(distributions))
	for _, distribution := range distributions {
		views = append(views, distributionView(distribution))
	}
	respondJSON(w, http.StatusOK, map[string]any{"distributions": views})
}

func (h *Handler) GetDistribution(w http.ResponseWriter, r *http.Request) {
	distributionID := chi.URLParam(r, "id")
	distribution, err := h.distributions.GetByID(r.Context(), distributionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			respondError(w, http.StatusNotFound, "distribution not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "unable to load distribution")
		return
	}
	recipients, err := h.distributions.ListRecipients(r.Context(), distributionID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load recipients")
		return
	}
	recipientViews := make([]map[string]any, 0, len(recipients))
	for _, recipient := range recipients {
		recipientViews = append(recipientViews, map[string]any{
			"user_id":        recipient.UserID,
			"token_amount":   recipient.TokenAmount,
			"income":         money.FormatMinor(recipient.IncomeMinor),
			"ledger_tx_hash": recipient.LedgerTxHash,
		})
	}
	view := distributionView(distribution)
	view["recipients"] = recipientViews
	respondJSON(w, http.StatusOK, view)
}

func distributionView(distribution models.IncomeDistribution) map[string]any {
	return map[string]any{
		"id":             distribution.ID,
		"property_id":    distribution.PropertyID,
		"total_income":   money.FormatMinor(distribution.TotalIncomeMinor),
		"per_token":      distribution.PerToken,
		"status":         distribution.Status,
		"created_at":     distribution.CreatedAt,
		"distributed_at": distribution.DistributedAt,
	}
}

func (h *Handler) PropertyTransactions(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r)
	transactions, err := h.transactions.ListByProperty(r.Context(), chi.URLParam(r, "id"), limit, offset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load transactions")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"transactions": transactions})
}

type settleRequest struct {
	LedgerTxHash string `json:"ledger_tx_hash"`
}

// SettleTransaction completes a pending payout after an admin has paid it out
// on the ledger manually, typically one held back because the recipient had no
// wallet at distribution time.
func (h *Handler) SettleTransaction(w http.ResponseWriter, r *http.Request) {
	adminID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req settleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.LedgerTxHash == "" {
		respondError(w, http.StatusBadRequest, "ledger_tx_hash is required")
		return
	}
	transactionID := chi.URLParam(r, "id")
	err := h.txRunner.WithTx(r.Context(), func(tx *sqlx.Tx) error {
		rows, err := h.transactions.UpdateStatus(r.Context(), tx, transactionID, "completed", &req.LedgerTxHash)
		if err != nil {
			return err
		}
		if rows == 0 {
			return sql.ErrNoRows
		}
		data, _ := json.Marshal(map[string]string{"ledger_tx_hash": req.LedgerTxHash})
		return h.audit.Log(r.Context(), tx, adminID, "transaction_settle", "transaction", transactionID, string(data))
	})
	if errors.Is(err, sql.ErrNoRows) {
		respondError(w, http.StatusNotFound, "no pending transaction with that id")
		return
	}
	if err != nil {
		h.log.WithError(err).Error("settle failed")
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "completed"})
}

func (h *Handler) ListAuditLogs(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r)
	logs, err := h.audit.List(r.Context(), limit, offset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load audit logs")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"audit_logs": logs})
}
