package store

import (
	"context"

	"proptoken/internal/models"
)

// OrderStore persists secondary-market orders. Orders are stored and listed
// for peer discovery; there is no matching engine behind them.
type OrderStore struct {
	db DB
}

func NewOrderStore(db DB) *OrderStore {
	return &OrderStore{db: db}
}

func (s *OrderStore) Create(ctx context.Context, tx Execer, o models.MarketOrder) error {
	query := `
		INSERT INTO market_orders (id, user_id, property_id, side, token_amount, price_per_token, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := tx.ExecContext(ctx, query,
		o.ID, o.UserID, o.PropertyID, o.Side, o.TokenAmount, o.PricePerToken, o.Status,
	)
	return err
}

func (s *OrderStore) GetByID(ctx context.Context, orderID string) (models.MarketOrder, error) {
	var row models.MarketOrder
	err := s.db.GetContext(ctx, &row, `
		SELECT id, user_id, property_id, side, token_amount, price_per_token, status, created_at
		FROM market_orders
		WHERE id = $1
	`, orderID)
	if err != nil {
		return models.MarketOrder{}, err
	}
	return row, nil
}

func (s *OrderStore) ListActiveByProperty(ctx context.Context, propertyID string) ([]models.MarketOrder, error) {
	var rows []models.MarketOrder
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, user_id, property_id, side, token_amount, price_per_token, status, created_at
		FROM market_orders
		WHERE property_id = $1 AND status = $2
		ORDER BY created_at DESC
	`, propertyID, models.OrderActive)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *OrderStore) ListByUser(ctx context.Context, userID string) ([]models.MarketOrder, error) {
	var rows []models.MarketOrder
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, user_id, property_id, side, token_amount, price_per_token, status, created_at
		FROM market_orders
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// Cancel flips an active order to cancelled; only the owner can cancel.
// Returns the number of rows changed so callers can distinguish "not yours
// or not active" from success.
func (s *OrderStore) Cancel(ctx context.Context, tx Execer, orderID, userID string) (int64, error) {
	res, err := tx.ExecContext(ctx, `
		UPDATE market_orders
		SET status = $1
		WHERE id = $2 AND user_id = $3 AND status = $4
	`, models.OrderCancelled, orderID, userID, models.OrderActive)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
