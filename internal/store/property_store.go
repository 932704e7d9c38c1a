package store

import (
	"context"
	"time"

	"proptoken/internal/models"
)

type PropertyStore struct {
	db DB
}

func NewPropertyStore(db DB) *PropertyStore {
	return &PropertyStore{db: db}
}

const propertyColumns = `
	id, seller_id, name, description, address, property_type, value_minor,
	size_sqm, monthly_rent_minor, occupancy_status, total_tokens, token_price,
	tokens_available, tokens_sold, status, token_symbol, mint_tx_hash,
	rejected_reason, approved_at, listed_at, created_at, updated_at
`

func (s *PropertyStore) Create(ctx context.Context, tx Execer, p models.Property) error {
	query := `
		INSERT INTO properties (id, seller_id, name, description, address, property_type,
		                        value_minor, size_sqm, monthly_rent_minor, occupancy_status, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := tx.ExecContext(ctx, query,
		p.ID, p.SellerID, p.Name, p.Description, p.Address, p.PropertyType,
		p.ValueMinor, p.SizeSqm, p.MonthlyRentMinor, p.OccupancyStatus, p.Status,
	)
	return err
}

func (s *PropertyStore) GetByID(ctx context.Context, propertyID string) (models.Property, error) {
	var row models.Property
	err := s.db.GetContext(ctx, &row, `
		SELECT `+propertyColumns+`
		FROM properties
		WHERE id = $1
	`, propertyID)
	if err != nil {
		return models.Property{}, err
	}
	return row, nil
}

func (s *PropertyStore) GetForUpdate(ctx context.Context, tx Getter, propertyID string) (models.Property, error) {
	var row models.Property
	err := tx.GetContext(ctx, &row, `
		SELECT `+propertyColumns+`
		FROM properties
		WHERE id = $1
		FOR UPDATE
	`, propertyID)
	if err != nil {
		return models.Property{}, err
	}
	return row, nil
}

func (s *PropertyStore) SetStatus(ctx context.Context, tx Execer, propertyID string, status models.PropertyStatus, at time.Time, reason *string) error {
	var err error
	switch status {
	case models.StatusApproved:
		_, err = tx.ExecContext(ctx, `
			UPDATE properties SET status = $1, approved_at = $2, updated_at = NOW() WHERE id = $3
		`, status, at, propertyID)
	case models.StatusRejected:
		_, err = tx.ExecContext(ctx, `
			UPDATE properties SET status = $1, rejected_reason = $2, updated_at = NOW() WHERE id = $3
		`, status, reason, propertyID)
	default:
		_, err = tx.ExecContext(ctx, `
			UPDATE properties SET status = $1, updated_at = NOW() WHERE id = $2
		`, status, propertyID)
	}
	return err
}

// MarkListed freezes the tokenization outcome on the property row.
func (s *PropertyStore) MarkListed(ctx context.Context, tx Execer, propertyID string, totalTokens int64, tokenPrice, symbol, mintTxHash string, listedAt time.Time) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE properties
		SET status = $1, total_tokens = $2, token_price = $3, tokens_available = $2,
		    tokens_sold = 0, token_symbol = $4, mint_tx_hash = $5, listed_at = $6, updated_at = NOW()
		WHERE id = $7
	`, models.StatusListed, totalTokens, tokenPrice, symbol, mintTxHash, listedAt, propertyID)
	return err
}

// ApplySale moves tokenAmount from available to sold and records the
// resulting status (listed, or sold_out on the final sale).
func (s *PropertyStore) ApplySale(ctx context.Context, tx Execer, propertyID string, tokenAmount int64, status models.PropertyStatus) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE properties
		SET tokens_available = tokens_available - $1,
		    tokens_sold = tokens_sold + $1,
		    status = $2,
		    updated_at = NOW()
		WHERE id = $3
	`, tokenAmount, status, propertyID)
	return err
}

func (s *PropertyStore) ListByStatus(ctx context.Context, status models.PropertyStatus, limit, offset int) ([]models.Property, error) {
	var rows []models.Property
	err := s.db.SelectContext(ctx, &rows, `
		SELECT `+propertyColumns+`
		FROM properties
		WHERE status = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, status, limit, offset)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *PropertyStore) ListBySeller(ctx context.Context, sellerID string) ([]models.Property, error) {
	var rows []models.Property
	err := s.db.SelectContext(ctx, &rows, `
		SELECT `+propertyColumns+`
		FROM properties
		WHERE seller_id = $1
		ORDER BY created_at DESC
	`, sellerID)
	if err != nil {
		return nil, err
	}
	return rows, nil
}
