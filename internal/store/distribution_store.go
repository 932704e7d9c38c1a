package store

import (
	"context"
	"time"

	"proptoken/internal/models"
)

type DistributionStore struct {
	db DB
}

func NewDistributionStore(db DB) *DistributionStore {
	return &DistributionStore{db: db}
}

type DistributionInput struct {
	ID               string
	PropertyID       string
	TotalIncomeMinor int64
	PerToken         string
}

type RecipientInput struct {
	ID             string
	DistributionID string
	UserID         string
	TokenAmount    int64
	IncomeMinor    int64
	LedgerTxHash   *string
}

func (s *DistributionStore) Create(ctx context.Context, tx Execer, input DistributionInput) error {
	query := `
		INSERT INTO income_distributions (id, property_id, total_income_minor, per_token, status)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := tx.ExecContext(ctx, query,
		input.ID, input.PropertyID, input.TotalIncomeMinor, input.PerToken, models.DistributionCalculated,
	)
	return err
}

func (s *DistributionStore) InsertRecipients(ctx context.Context, tx Execer, recipients []RecipientInput) error {
	query := `
		INSERT INTO distribution_recipients (id, distribution_id, user_id, token_amount, income_minor, ledger_tx_hash)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	for _, r := range recipients {
		if _, err := tx.ExecContext(ctx, query, r.ID, r.DistributionID, r.UserID, r.TokenAmount, r.IncomeMinor, r.LedgerTxHash); err != nil {
			return err
		}
	}
	return nil
}

func (s *DistributionStore) MarkDistributed(ctx context.Context, tx Execer, distributionID string, at time.Time) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE income_distributions
		SET status = $1, distributed_at = $2
		WHERE id = $3
	`, models.DistributionDistributed, at, distributionID)
	return err
}

func (s *DistributionStore) GetByID(ctx context.Context, distributionID string) (models.IncomeDistribution, error) {
	var row models.IncomeDistribution
	err := s.db.GetContext(ctx, &row, `
		SELECT id, property_id, total_income_minor, per_token, status, created_at, distributed_at
		FROM income_distributions
		WHERE id = $1
	`, distributionID)
	if err != nil {
		return models.IncomeDistribution{}, err
	}
	return row, nil
}

func (s *DistributionStore) ListByProperty(ctx context.Context, propertyID string) ([]models.IncomeDistribution, error) {
	var rows []models.IncomeDistribution
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, property_id, total_income_minor, per_token, status, created_at, distributed_at
		FROM income_distributions
		WHERE property_id = $1
		ORDER BY created_at DESC
	`, propertyID)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *DistributionStore) ListRecipients(ctx context.Context, distributionID string) ([]models.DistributionRecipient, error) {
	var rows []models.DistributionRecipient
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, distribution_id, user_id, token_amount, income_minor, ledger_tx_hash
		FROM distribution_recipients
		WHERE distribution_id = $1
		ORDER BY income_minor DESC, id
	`, distributionID)
	if err != nil {
		return nil, err
	}
	return rows, nil
}
