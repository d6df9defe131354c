package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/MatheusAFD/mono-repo-auth/internal/server/response"
)

const bearerPrefix = "bearer "

// CookieVerifier checks the signed session credential and returns the session token it carries.
type CookieVerifier interface {
	Verify(value string) (string, error)
}

// SessionResolver looks up the live session for a token. A nil Identity with a nil error means no session.
type SessionResolver interface {
	Resolve(ctx context.Context, token string) (*Identity, error)
}

// Authenticate resolves the caller from the session cookie (or an Authorization: Bearer header carrying
// the same signed value) and stores the Identity in the context. Requests without a valid session pass
// through anonymously; RequireAuth rejects them where needed. Resolver failures return 500.
func Authenticate(verifier CookieVerifier, resolver SessionResolver, cookieName string, logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := credential(r, cookieName)
			if raw == "" {
				next.ServeHTTP(w, r)
				return
			}
			token, err := verifier.Verify(raw)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}
			id, err := resolver.Resolve(r.Context(), token)
			if err != nil {
				logger.ErrorContext(r.Context(), "session resolution failed", "error", err)
				response.Error(w, http.StatusInternalServerError, "")
				return
			}
			if id == nil {
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), *id)))
		})
	}
}

// RequireAuth rejects anonymous requests with 401.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := GetIdentity(r.Context()); !ok {
			response.Error(w, http.StatusUnauthorized, "")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// credential returns the cookie value, falling back to a Bearer header, or "".
func credential(r *http.Request, cookieName string) string {
	if c, err := r.Cookie(cookieName); err == nil && c.Value != "" {
		return c.Value
	}
	v := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(v) < len(bearerPrefix) || !strings.EqualFold(v[:len(bearerPrefix)], bearerPrefix) {
		return ""
	}
	return strings.TrimSpace(v[len(bearerPrefix):])
}
