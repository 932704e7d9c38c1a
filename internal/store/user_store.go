package store

import (
	"context"

	"proptoken/internal/models"
)

type UserStore struct {
	db DB
}

func NewUserStore(db DB) *UserStore {
	return &UserStore{db: db}
}

func (s *UserStore) Create(ctx context.Context, tx Execer, u models.User) error {
	query := `
		INSERT INTO users (id, username, email, password_hash, first_name, last_name, role)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := tx.ExecContext(ctx, query,
		u.ID, u.Username, u.Email, u.PasswordHash, u.FirstName, u.LastName, u.Role,
	)
	return err
}

func (s *UserStore) GetByEmail(ctx context.Context, email string) (models.User, error) {
	var row models.User
	err := s.db.GetContext(ctx, &row, `
		SELECT id, username, email, password_hash, first_name, last_name, role,
		       wallet_address, kyc_verified, created_at
		FROM users
		WHERE email = $1
	`, email)
	if err != nil {
		return models.User{}, err
	}
	return row, nil
}

func (s *UserStore) GetByID(ctx context.Context, userID string) (models.User, error) {
	var row models.User
	err := s.db.GetContext(ctx, &row, `
		SELECT id, username, email, password_hash, first_name, last_name, role,
		       wallet_address, kyc_verified, created_at
		FROM users
		WHERE id = $1
	`, userID)
	if err != nil {
		return models.User{}, err
	}
	return row, nil
}

// SetWalletAddressIfEmpty records the first wallet an investor purchases
// with; later purchases never overwrite it.
func (s *UserStore) SetWalletAddressIfEmpty(ctx context.Context, tx Execer, userID, wallet string) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE users
		SET wallet_address = $1
		WHERE id = $2 AND wallet_address IS NULL
	`, wallet, userID)
	return err
}
