package store

import (
	"context"

	"proptoken/internal/models"
)

type HoldingStore struct {
	db DB
}

func NewHoldingStore(db DB) *HoldingStore {
	return &HoldingStore{db: db}
}

// HoldingWithWallet joins a holding with the holder's wallet address for
// income distribution. WalletAddress is nil for holders who never supplied one.
type HoldingWithWallet struct {
	models.Holding
	WalletAddress *string `db:"wallet_address"`
}

func (s *HoldingStore) Create(ctx context.Context, tx Execer, h models.Holding) error {
	query := `
		INSERT INTO holdings (id, user_id, property_id, token_amount, total_invested_minor, average_price)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := tx.ExecContext(ctx, query,
		h.ID, h.UserID, h.PropertyID, h.TokenAmount, h.TotalInvestedMinor, h.AveragePrice,
	)
	return err
}

func (s *HoldingStore) GetForUpdate(ctx context.Context, tx Getter, userID, propertyID string) (models.Holding, error) {
	var row models.Holding
	err := tx.GetContext(ctx, &row, `
		SELECT id, user_id, property_id, token_amount, total_invested_minor, average_price, updated_at
		FROM holdings
		WHERE user_id = $1 AND property_id = $2
		FOR UPDATE
	`, userID, propertyID)
	if err != nil {
		return models.Holding{}, err
	}
	return row, nil
}

// ApplyPurchase replaces the merged position after a repeat purchase.
func (s *HoldingStore) ApplyPurchase(ctx context.Context, tx Execer, holdingID string, tokenAmount, totalInvestedMinor int64, averagePrice string) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE holdings
		SET token_amount = $1, total_invested_minor = $2, average_price = $3, updated_at = NOW()
		WHERE id = $4
	`, tokenAmount, totalInvestedMinor, averagePrice, holdingID)
	return err
}

// ListByPropertyLocked reads every holding for a property inside the caller's
// transaction, locking the rows so a concurrent purchase cannot change the
// circulation mid-distribution.
func (s *HoldingStore) ListByPropertyLocked(ctx context.Context, tx Selecter, propertyID string) ([]HoldingWithWallet, error) {
	var rows []HoldingWithWallet
	err := tx.SelectContext(ctx, &rows, `
		SELECT h.id, h.user_id, h.property_id, h.token_amount, h.total_invested_minor,
		       h.average_price, h.updated_at, u.wallet_address
		FROM holdings h
		JOIN users u ON u.id = h.user_id
		WHERE h.property_id = $1
		ORDER BY h.token_amount DESC, h.id
		FOR UPDATE OF h
	`, propertyID)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

type HoldingWithProperty struct {
	models.Holding
	PropertyName string                `db:"property_name"`
	TokenPrice   string                `db:"token_price"`
	TotalTokens  int64                 `db:"total_tokens"`
	Status       models.PropertyStatus `db:"property_status"`
}

func (s *HoldingStore) ListByUser(ctx context.Context, userID string) ([]HoldingWithProperty, error) {
	var rows []HoldingWithProperty
	err := s.db.SelectContext(ctx, &rows, `
		SELECT h.id, h.user_id, h.property_id, h.token_amount, h.total_invested_minor,
		       h.average_price, h.updated_at,
		       p.name AS property_name, p.token_price, p.total_tokens, p.status AS property_status
		FROM holdings h
		JOIN properties p ON p.id = h.property_id
		WHERE h.user_id = $1
		ORDER BY h.updated_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	return rows, nil
}
