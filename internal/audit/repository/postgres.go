package repository

import (
	"context"
	"database/sql"

	"github.com/MatheusAFD/mono-repo-auth/internal/audit/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns an audit log repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create persists the audit log. The audit log must have ID set.
func (r *PostgresRepository) Create(ctx context.Context, a *domain.AuditLog) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO audit_logs (id, user_id, action, resource, target, ip, metadata, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		a.ID, nullString(a.UserID), a.Action, a.Resource, nullString(a.Target), a.IP, nullString(a.Metadata), a.CreatedAt,
	)
	return err
}

func (r *PostgresRepository) ListRecent(ctx context.Context, limit, offset int) ([]*domain.AuditLog, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, action, resource, target, ip, metadata, created_at
		 FROM audit_logs ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]*domain.AuditLog, 0, limit)
	for rows.Next() {
		var (
			a                    domain.AuditLog
			userID, target, meta sql.NullString
		)
		if err := rows.Scan(&a.ID, &userID, &a.Action, &a.Resource, &target, &a.IP, &meta, &a.CreatedAt); err != nil {
			return nil, err
		}
		a.UserID, a.Target, a.Metadata = userID.String, target.String, meta.String
		out = append(out, &a)
	}
	return out, rows.Err()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
