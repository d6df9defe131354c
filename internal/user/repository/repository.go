package repository

import (
	"context"

	"github.com/MatheusAFD/mono-repo-auth/internal/user/domain"
)

// Repository defines persistence for users.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Create(ctx context.Context, u *domain.User) error
	// UpdateRole changes a user's role. No-op if the user does not exist.
	UpdateRole(ctx context.Context, id string, role domain.Role) error
}
