// Package service implements administrative session management: listing active sessions and
// revoking them subject to the access policy.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/MatheusAFD/mono-repo-auth/internal/metrics"
	"github.com/MatheusAFD/mono-repo-auth/internal/server/middleware"
	"github.com/MatheusAFD/mono-repo-auth/internal/session/domain"
	"github.com/MatheusAFD/mono-repo-auth/internal/telemetry"
	telemetrydomain "github.com/MatheusAFD/mono-repo-auth/internal/telemetry/domain"
	userdomain "github.com/MatheusAFD/mono-repo-auth/internal/user/domain"
)

// Sentinel errors for the sessions service; the handler maps them to HTTP statuses.
var (
	ErrSessionNotFound  = errors.New("session not found")
	ErrProtectedSession = errors.New("cannot revoke session of another admin")
	// ErrRevokeConflict is returned when the owner's role keeps changing while a revoke is attempted.
	ErrRevokeConflict = errors.New("session owner changed during revocation")
)

// maxRevokeAttempts bounds how often RevokeSession re-reads after the conditional delete matched nothing.
const maxRevokeAttempts = 2

const eventSource = "sessions_service"

// SessionRepo is the minimal session repository needed by the service.
type SessionRepo interface {
	GetByToken(ctx context.Context, token string) (*domain.Session, error)
	ListActive(ctx context.Context, now time.Time) ([]*domain.Session, error)
	DeleteByTokenIfOwnerRole(ctx context.Context, token, role string) (bool, error)
}

// uncachedReader is implemented by caching repositories. Revocation reads through it so a cached row
// the database no longer holds reports ErrSessionNotFound.
type uncachedReader interface {
	GetByTokenNoCache(ctx context.Context, token string) (*domain.Session, error)
}

// UserRepo is the minimal user repository needed by the service.
type UserRepo interface {
	GetByID(ctx context.Context, id string) (*userdomain.User, error)
}

// RevokePolicy decides whether a session owned by a user with the given role may be revoked.
type RevokePolicy interface {
	CanRevoke(ctx context.Context, targetRole userdomain.Role) (bool, error)
}

// RevokeResult is the acknowledgment returned by a successful revoke.
type RevokeResult struct {
	Success bool `json:"success"`
}

// Service lists and revokes sessions.
type Service struct {
	sessions SessionRepo
	users    UserRepo
	policy   RevokePolicy
	events   telemetry.EventEmitter
	now      func() time.Time
}

// NewService returns a Service. events may be nil.
func NewService(sessions SessionRepo, users UserRepo, policy RevokePolicy, events telemetry.EventEmitter) *Service {
	return &Service{
		sessions: sessions,
		users:    users,
		policy:   policy,
		events:   events,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// ListSessions returns every session that has not expired, newest first.
func (s *Service) ListSessions(ctx context.Context) ([]*domain.Session, error) {
	list, err := s.sessions.ListActive(ctx, s.now())
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []*domain.Session{}
	}
	return list, nil
}

// RevokeSession deletes the session identified by token.
//
// The owner's role is checked against the policy and the delete is conditioned on the owner still
// holding that role, so a promotion between the check and the delete cannot slip through. When the
// conditional delete matches nothing the session is re-read: a vanished session is ErrSessionNotFound,
// a changed role is re-evaluated once more before giving up with ErrRevokeConflict.
func (s *Service) RevokeSession(ctx context.Context, token string) (*RevokeResult, error) {
	for attempt := 0; attempt < maxRevokeAttempts; attempt++ {
		sess, err := s.lookup(ctx, token)
		if err != nil {
			return nil, s.fail(err)
		}
		if sess == nil {
			return nil, s.fail(ErrSessionNotFound)
		}
		owner, err := s.users.GetByID(ctx, sess.UserID)
		if err != nil {
			return nil, s.fail(err)
		}
		if owner == nil {
			return nil, s.fail(ErrSessionNotFound)
		}
		allowed, err := s.policy.CanRevoke(ctx, owner.Role)
		if err != nil {
			return nil, s.fail(err)
		}
		if !allowed {
			return nil, s.fail(ErrProtectedSession)
		}
		deleted, err := s.sessions.DeleteByTokenIfOwnerRole(ctx, token, string(owner.Role))
		if err != nil {
			return nil, s.fail(err)
		}
		if deleted {
			metrics.SessionsRevokedTotal.WithLabelValues("success").Inc()
			s.emitRevoked(ctx, sess)
			return &RevokeResult{Success: true}, nil
		}
	}
	return nil, s.fail(ErrRevokeConflict)
}

func (s *Service) lookup(ctx context.Context, token string) (*domain.Session, error) {
	if r, ok := s.sessions.(uncachedReader); ok {
		return r.GetByTokenNoCache(ctx, token)
	}
	return s.sessions.GetByToken(ctx, token)
}

func (s *Service) fail(err error) error {
	result := "error"
	switch {
	case errors.Is(err, ErrSessionNotFound):
		result = "not_found"
	case errors.Is(err, ErrProtectedSession):
		result = "forbidden"
	case errors.Is(err, ErrRevokeConflict):
		result = "conflict"
	}
	metrics.SessionsRevokedTotal.WithLabelValues(result).Inc()
	return err
}

func (s *Service) emitRevoked(ctx context.Context, sess *domain.Session) {
	if s.events == nil {
		return
	}
	actorID, _ := middleware.GetUserID(ctx)
	telemetry.EmitAsync(s.events, ctx, &telemetrydomain.Event{
		ID:        uuid.New().String(),
		Type:      telemetrydomain.EventSessionRevoked,
		SessionID: sess.ID,
		UserID:    sess.UserID,
		ActorID:   actorID,
		Source:    eventSource,
		CreatedAt: s.now(),
	})
}
