package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/MatheusAFD/mono-repo-auth/internal/identity/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns an account repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// GetByUserAndProvider returns the account for the given user and provider, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByUserAndProvider(ctx context.Context, userID string, provider domain.Provider) (*domain.Account, error) {
	var (
		a        domain.Account
		password sql.NullString
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, provider_id, account_id, password, created_at, updated_at
		 FROM accounts WHERE user_id = $1 AND provider_id = $2`,
		userID, string(provider),
	).Scan(&a.ID, &a.UserID, &a.Provider, &a.AccountID, &password, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	a.PasswordHash = password.String
	return &a, nil
}

// Create persists the account. The account must have ID set.
func (r *PostgresRepository) Create(ctx context.Context, a *domain.Account) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO accounts (id, user_id, provider_id, account_id, password, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		a.ID, a.UserID, string(a.Provider), a.AccountID,
		sql.NullString{String: a.PasswordHash, Valid: a.PasswordHash != ""},
		a.CreatedAt, a.UpdatedAt,
	)
	return err
}
