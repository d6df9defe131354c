// Package handler exposes administrative session management over HTTP.
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MatheusAFD/mono-repo-auth/internal/platform/rbac"
	"github.com/MatheusAFD/mono-repo-auth/internal/policy/engine"
	"github.com/MatheusAFD/mono-repo-auth/internal/server/response"
	"github.com/MatheusAFD/mono-repo-auth/internal/session/domain"
	"github.com/MatheusAFD/mono-repo-auth/internal/session/dto"
	"github.com/MatheusAFD/mono-repo-auth/internal/session/service"
)

// Resource and action a caller must be granted to manage sessions.
const (
	resourceBackoffice = "backoffice"
	actionAccess       = "access"
)

// SessionService is the service the handler delegates to.
type SessionService interface {
	ListSessions(ctx context.Context) ([]*domain.Session, error)
	RevokeSession(ctx context.Context, token string) (*service.RevokeResult, error)
}

// Handler serves GET / and DELETE /{token}.
type Handler struct {
	svc    SessionService
	logger *slog.Logger
}

// NewHandler returns a session handler.
func NewHandler(svc SessionService, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{svc: svc, logger: logger}
}

// Routes returns the session routes guarded by the backoffice permission.
// Extra middlewares run after the guard (e.g. audit).
func (h *Handler) Routes(authz engine.Authorizer, middlewares ...func(http.Handler) http.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(rbac.RequireRole(authz, resourceBackoffice, actionAccess))
	r.Use(middlewares...)
	r.Get("/", h.List)
	r.Delete("/{token}", h.Revoke)
	return r
}

// List writes every active session, newest first.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.ListSessions(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, dto.FromDomainList(list))
}

// Revoke deletes the session named by the token path parameter. The service call is detached from
// the request's cancellation so a client that disconnects does not abort a revoke in progress.
func (h *Handler) Revoke(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	res, err := h.svc.RevokeSession(context.WithoutCancel(r.Context()), token)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, res)
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrSessionNotFound):
		response.Error(w, http.StatusNotFound, "Session not found")
	case errors.Is(err, service.ErrProtectedSession):
		response.Error(w, http.StatusForbidden, "Cannot revoke session of another admin")
	case errors.Is(err, service.ErrRevokeConflict):
		response.Error(w, http.StatusConflict, "Session owner changed, try again")
	default:
		h.logger.ErrorContext(r.Context(), "session request failed", "method", r.Method, "error", err)
		response.Error(w, http.StatusInternalServerError, "")
	}
}
