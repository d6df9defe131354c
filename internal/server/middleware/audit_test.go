package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/MatheusAFD/mono-repo-auth/internal/audit"
	"github.com/MatheusAFD/mono-repo-auth/internal/security"
)

type recordingAuditLogger struct {
	events []audit.Event
}

func (l *recordingAuditLogger) LogEvent(ctx context.Context, ev audit.Event) {
	l.events = append(l.events, ev)
}

func withUser(userID string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if userID != "" {
				r = r.WithContext(WithIdentity(r.Context(), Identity{UserID: userID}))
			}
			next.ServeHTTP(w, r)
		})
	}
}

func auditRouter(logger audit.AuditLogger, userID string) http.Handler {
	r := chi.NewRouter()
	r.Use(withUser(userID))
	r.Route("/sessions", func(r chi.Router) {
		r.Use(Audit(logger))
		r.Get("/", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
		r.Delete("/{token}", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusForbidden) })
	})
	return r
}

func TestAudit_RevokeRecordsHashedTarget(t *testing.T) {
	logger := &recordingAuditLogger{}
	h := auditRouter(logger, "admin-1")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/sessions/raw-token", nil))

	if len(logger.events) != 1 {
		t.Fatalf("events = %d, want 1", len(logger.events))
	}
	ev := logger.events[0]
	if ev.UserID != "admin-1" || ev.Action != "revoke" || ev.Resource != "sessions" {
		t.Errorf("event = %+v", ev)
	}
	if ev.Target != security.HashToken("raw-token") {
		t.Errorf("target = %q, want hashed token", ev.Target)
	}
	var meta auditMetadata
	if err := json.Unmarshal([]byte(ev.Metadata), &meta); err != nil {
		t.Fatalf("metadata: %v", err)
	}
	if meta.Status != http.StatusForbidden {
		t.Errorf("status = %d, want 403", meta.Status)
	}
}

func TestAudit_ListAction(t *testing.T) {
	logger := &recordingAuditLogger{}
	h := auditRouter(logger, "admin-1")
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/sessions", nil))

	if len(logger.events) != 1 {
		t.Fatalf("events = %d, want 1", len(logger.events))
	}
	if ev := logger.events[0]; ev.Action != "list" || ev.Target != "" {
		t.Errorf("event = %+v", ev)
	}
}

func TestAudit_AnonymousNotRecorded(t *testing.T) {
	logger := &recordingAuditLogger{}
	h := auditRouter(logger, "")
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/sessions", nil))
	if len(logger.events) != 0 {
		t.Errorf("events = %d, want 0", len(logger.events))
	}
}

func TestAudit_NilLogger(t *testing.T) {
	h := auditRouter(nil, "admin-1")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/sessions", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d", rec.Code)
	}
}
