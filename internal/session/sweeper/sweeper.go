// Package sweeper periodically deletes expired sessions.
package sweeper

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/MatheusAFD/mono-repo-auth/internal/metrics"
	"github.com/MatheusAFD/mono-repo-auth/internal/telemetry"
	"github.com/MatheusAFD/mono-repo-auth/internal/telemetry/domain"
)

// ExpiredDeleter removes sessions whose expiry is at or before now and returns their tokens.
type ExpiredDeleter interface {
	DeleteExpired(ctx context.Context, now time.Time) ([]string, error)
}

// Sweeper deletes expired sessions on an interval.
type Sweeper struct {
	repo     ExpiredDeleter
	events   telemetry.EventEmitter
	interval time.Duration
	logger   *slog.Logger
	now      func() time.Time
}

// New returns a Sweeper. events may be nil.
func New(repo ExpiredDeleter, events telemetry.EventEmitter, interval time.Duration, logger *slog.Logger) *Sweeper {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sweeper{
		repo:     repo,
		events:   events,
		interval: interval,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

type sweptMetadata struct {
	Count int `json:"count"`
}

// SweepOnce deletes expired sessions and returns how many were removed.
// One session.expired_swept event is emitted per non-empty sweep.
func (s *Sweeper) SweepOnce(ctx context.Context) (int, error) {
	now := s.now()
	tokens, err := s.repo.DeleteExpired(ctx, now)
	if err != nil {
		return 0, err
	}
	n := len(tokens)
	if n == 0 {
		return 0, nil
	}
	metrics.SessionsSweptTotal.Add(float64(n))
	if s.events != nil {
		meta, _ := json.Marshal(sweptMetadata{Count: n})
		ev := &domain.Event{
			ID:        uuid.New().String(),
			Type:      domain.EventSessionExpired,
			Source:    "worker",
			Metadata:  meta,
			CreatedAt: now,
		}
		if err := s.events.Emit(ctx, ev); err != nil {
			s.logger.WarnContext(ctx, "sweeper: emit failed", "error", err)
		}
	}
	return n, nil
}

// Run sweeps immediately and then every interval until ctx is done.
func (s *Sweeper) Run(ctx context.Context) {
	s.sweep(ctx)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	n, err := s.SweepOnce(ctx)
	if err != nil {
		if ctx.Err() == nil {
			s.logger.ErrorContext(ctx, "sweeper: delete expired failed", "error", err)
		}
		return
	}
	if n > 0 {
		s.logger.InfoContext(ctx, "sweeper: deleted expired sessions", "count", n)
	}
}
