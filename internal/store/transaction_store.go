package store

import (
	"context"

	"proptoken/internal/models"
)

type TransactionStore struct {
	db DB
}

func NewTransactionStore(db DB) *TransactionStore {
	return &TransactionStore{db: db}
}

type TransactionInput struct {
	ID            string
	UserID        string
	PropertyID    string
	Type          string
	Status        string
	TokenAmount   int64
	PricePerToken string
	TotalMinor    int64
	LedgerTxHash  *string
}

func (s *TransactionStore) Create(ctx context.Context, tx Execer, input TransactionInput) error {
	query := `
		INSERT INTO transactions (id, user_id, property_id, type, status, token_amount,
		                          price_per_token, total_minor, ledger_tx_hash)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := tx.ExecContext(ctx, query,
		input.ID, input.UserID, input.PropertyID, input.Type, input.Status,
		input.TokenAmount, input.PricePerToken, input.TotalMinor, input.LedgerTxHash,
	)
	return err
}

// UpdateStatus moves a transaction out of pending exactly once.
func (s *TransactionStore) UpdateStatus(ctx context.Context, tx Execer, transactionID, status string, ledgerTxHash *string) (int64, error) {
	res, err := tx.ExecContext(ctx, `
		UPDATE transactions
		SET status = $1, ledger_tx_hash = COALESCE($2, ledger_tx_hash)
		WHERE id = $3 AND status = 'pending'
	`, status, ledgerTxHash, transactionID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *TransactionStore) ListByUser(ctx context.Context, userID, txType string, limit, offset int) ([]models.Transaction, error) {
	var rows []models.Transaction
	query := `
		SELECT id, user_id, property_id, type, status, token_amount, price_per_token,
		       total_minor, ledger_tx_hash, created_at
		FROM transactions
		WHERE user_id = $1
	`
	args := []any{userID}
	if txType != "" {
		query += ` AND type = $2 ORDER BY created_at DESC LIMIT $3 OFFSET $4`
		args = append(args, txType, limit, offset)
	} else {
		query += ` ORDER BY created_at DESC LIMIT $2 OFFSET $3`
		args = append(args, limit, offset)
	}
	err := s.db.SelectContext(ctx, &rows, query, args...)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *TransactionStore) ListByProperty(ctx context.Context, propertyID string, limit, offset int) ([]models.Transaction, error) {
	var rows []models.Transaction
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, user_id, property_id, type, status, token_amount, price_per_token,
		       total_minor, ledger_tx_hash, created_at
		FROM transactions
		WHERE property_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, propertyID, limit, offset)
	if err != nil {
		return nil, err
	}
	return rows, nil
}
