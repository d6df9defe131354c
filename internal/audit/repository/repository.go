package repository

import (
	"context"

	"github.com/MatheusAFD/mono-repo-auth/internal/audit/domain"
)

// Repository defines persistence for audit logs.
type Repository interface {
	Create(ctx context.Context, a *domain.AuditLog) error
	// ListRecent returns up to limit entries, newest first, skipping offset.
	ListRecent(ctx context.Context, limit, offset int) ([]*domain.AuditLog, error)
}
