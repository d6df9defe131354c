// Package rbac enforces role-based access on HTTP routes using the policy engine.
package rbac

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/MatheusAFD/mono-repo-auth/internal/policy/engine"
	"github.com/MatheusAFD/mono-repo-auth/internal/server/middleware"
	"github.com/MatheusAFD/mono-repo-auth/internal/server/response"
)

var (
	// ErrUnauthenticated is returned when no session is attached to the request.
	ErrUnauthenticated = errors.New("authentication required")
	// ErrForbidden is returned when the caller's role is not granted the permission.
	ErrForbidden = errors.New("insufficient role")
)

// RequireAccess ensures the caller is authenticated and its role is granted action on resource.
// Returns the caller identity on success.
func RequireAccess(ctx context.Context, authz engine.Authorizer, resource, action string) (middleware.Identity, error) {
	id, ok := middleware.GetIdentity(ctx)
	if !ok || id.UserID == "" {
		return middleware.Identity{}, ErrUnauthenticated
	}
	allowed, err := authz.Allow(ctx, id.Role, resource, action)
	if err != nil {
		return middleware.Identity{}, err
	}
	if !allowed {
		return middleware.Identity{}, ErrForbidden
	}
	return id, nil
}

// RequireRole is HTTP middleware around RequireAccess: 401 without a session, 403 when the role
// lacks the permission, 500 when the policy cannot be evaluated. Rejected requests never reach next.
func RequireRole(authz engine.Authorizer, resource, action string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, err := RequireAccess(r.Context(), authz, resource, action)
			switch {
			case err == nil:
				next.ServeHTTP(w, r)
			case errors.Is(err, ErrUnauthenticated):
				response.Error(w, http.StatusUnauthorized, "")
			case errors.Is(err, ErrForbidden):
				response.Error(w, http.StatusForbidden, "")
			default:
				slog.Default().ErrorContext(r.Context(), "rbac: policy evaluation failed", "resource", resource, "action", action, "error", err)
				response.Error(w, http.StatusInternalServerError, "")
			}
		})
	}
}
