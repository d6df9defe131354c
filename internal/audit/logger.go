package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/MatheusAFD/mono-repo-auth/internal/audit/domain"
	auditrepo "github.com/MatheusAFD/mono-repo-auth/internal/audit/repository"
)

// IPExtractor returns the client IP recorded in the request context.
type IPExtractor func(context.Context) string

// Event is a single audit record to write.
type Event struct {
	UserID   string
	Action   string
	Resource string
	Target   string
	Metadata string
}

// AuditLogger writes a single audit event with explicit action/resource. Used by auth and session code paths.
// LogEvent is best-effort: failures are logged and do not affect the caller.
type AuditLogger interface {
	LogEvent(ctx context.Context, ev Event)
}

// Logger implements AuditLogger using the audit repository and an optional IP extractor.
type Logger struct {
	repo        auditrepo.Repository
	ipExtractor IPExtractor
	logger      *slog.Logger
}

// NewLogger returns an AuditLogger that persists to repo and uses ipExtractor for client IP.
// ipExtractor may be nil; then IP is recorded as "unknown".
func NewLogger(repo auditrepo.Repository, ipExtractor IPExtractor, logger *slog.Logger) *Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Logger{repo: repo, ipExtractor: ipExtractor, logger: logger}
}

// LogEvent writes one audit log entry. Best-effort: errors are logged and not returned.
func (l *Logger) LogEvent(ctx context.Context, ev Event) {
	if l == nil || l.repo == nil {
		return
	}
	ip := "unknown"
	if l.ipExtractor != nil {
		if v := l.ipExtractor(ctx); v != "" {
			ip = v
		}
	}
	entry := &domain.AuditLog{
		ID:        uuid.New().String(),
		UserID:    ev.UserID,
		Action:    ev.Action,
		Resource:  ev.Resource,
		Target:    ev.Target,
		IP:        ip,
		Metadata:  ev.Metadata,
		CreatedAt: time.Now().UTC(),
	}
	if err := l.repo.Create(ctx, entry); err != nil {
		l.logger.ErrorContext(ctx, "audit: failed to log event", "action", ev.Action, "resource", ev.Resource, "error", err)
	}
}
