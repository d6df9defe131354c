package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/MatheusAFD/mono-repo-auth/internal/session/domain"
)

const sessionColumns = `id, token, user_id, expires_at, ip_address, user_agent, created_at, updated_at`

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a session repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create persists the session. ID and Token must be set by the caller.
func (r *PostgresRepository) Create(ctx context.Context, s *domain.Session) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO sessions (`+sessionColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		s.ID, s.Token, s.UserID, s.ExpiresAt,
		nullString(s.IPAddress), nullString(s.UserAgent),
		s.CreatedAt, s.UpdatedAt,
	)
	return err
}

// GetByToken returns the session for token, or nil if not found. Expired rows are returned as-is.
func (r *PostgresRepository) GetByToken(ctx context.Context, token string) (*domain.Session, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE token = $1`, token)
	s, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return s, err
}

// ListActive returns unexpired sessions ordered by created_at descending.
func (r *PostgresRepository) ListActive(ctx context.Context, now time.Time) ([]*domain.Session, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE expires_at > $1 ORDER BY created_at DESC`, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]*domain.Session, 0)
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) DeleteByToken(ctx context.Context, token string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE token = $1`, token)
	return affected(res, err)
}

// DeleteByTokenIfOwnerRole is a single statement so the role check and the delete see the same snapshot.
func (r *PostgresRepository) DeleteByTokenIfOwnerRole(ctx context.Context, token, role string) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM sessions s USING users u
		 WHERE s.token = $1 AND u.id = s.user_id AND u.role = $2`, token, role)
	return affected(res, err)
}

func (r *PostgresRepository) Extend(ctx context.Context, token string, expiresAt, updatedAt time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE sessions SET expires_at = $2, updated_at = $3 WHERE token = $1`, token, expiresAt, updatedAt)
	return err
}

func (r *PostgresRepository) DeleteExpired(ctx context.Context, now time.Time) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `DELETE FROM sessions WHERE expires_at <= $1 RETURNING token`, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var tokens []string
	for rows.Next() {
		var token string
		if err := rows.Scan(&token); err != nil {
			return nil, err
		}
		tokens = append(tokens, token)
	}
	return tokens, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSession(row scanner) (*domain.Session, error) {
	var (
		s         domain.Session
		ip, agent sql.NullString
	)
	if err := row.Scan(&s.ID, &s.Token, &s.UserID, &s.ExpiresAt, &ip, &agent, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, err
	}
	s.IPAddress = ip.String
	s.UserAgent = agent.String
	return &s, nil
}

func affected(res sql.Result, err error) (bool, error) {
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
