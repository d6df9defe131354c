package middleware

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/MatheusAFD/mono-repo-auth/internal/audit"
	"github.com/MatheusAFD/mono-repo-auth/internal/security"
)

type auditMetadata struct {
	Status     int    `json:"status"`
	DurationMs int64  `json:"duration_ms"`
	RequestID  string `json:"request_id,omitempty"`
}

// Audit records an audit entry after each authenticated request. Action and resource come from the
// matched chi route. A {token} path parameter is stored hashed. Anonymous requests are not recorded.
func Audit(logger audit.AuditLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			if logger == nil {
				return
			}
			userID, ok := GetUserID(r.Context())
			if !ok {
				return
			}
			pattern := r.URL.Path
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				pattern = rctx.RoutePattern()
			}
			ar := audit.ParseRoute(r.Method, pattern)
			var target string
			if token := chi.URLParam(r, "token"); token != "" {
				target = security.HashToken(token)
			}
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			meta, _ := json.Marshal(auditMetadata{
				Status:     status,
				DurationMs: time.Since(start).Milliseconds(),
				RequestID:  chimiddleware.GetReqID(r.Context()),
			})
			logger.LogEvent(r.Context(), audit.Event{
				UserID:   userID,
				Action:   ar.Action,
				Resource: ar.Resource,
				Target:   target,
				Metadata: string(meta),
			})
		})
	}
}
