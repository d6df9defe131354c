package repository

import (
	"context"
	"time"

	"github.com/MatheusAFD/mono-repo-auth/internal/session/domain"
)

// Repository defines persistence for sessions.
// Lookups return (nil, nil) when no row matches; deletes report whether a row was removed.
type Repository interface {
	Create(ctx context.Context, s *domain.Session) error
	GetByToken(ctx context.Context, token string) (*domain.Session, error)
	// ListActive returns sessions with expires_at after now, newest first.
	ListActive(ctx context.Context, now time.Time) ([]*domain.Session, error)
	// DeleteByToken removes the session unconditionally (sign-out).
	DeleteByToken(ctx context.Context, token string) (bool, error)
	// DeleteByTokenIfOwnerRole removes the session only while its owner still holds role.
	DeleteByTokenIfOwnerRole(ctx context.Context, token, role string) (bool, error)
	// Extend moves expires_at forward and bumps updated_at.
	Extend(ctx context.Context, token string, expiresAt, updatedAt time.Time) error
	// DeleteExpired removes sessions with expires_at at or before now and returns their tokens.
	DeleteExpired(ctx context.Context, now time.Time) ([]string, error)
}
