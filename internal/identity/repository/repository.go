package repository

import (
	"context"

	"github.com/MatheusAFD/mono-repo-auth/internal/identity/domain"
)

// Repository defines persistence for accounts.
type Repository interface {
	// GetByUserAndProvider returns (nil, nil) when the user has no account for provider.
	GetByUserAndProvider(ctx context.Context, userID string, provider domain.Provider) (*domain.Account, error)
	Create(ctx context.Context, a *domain.Account) error
}
