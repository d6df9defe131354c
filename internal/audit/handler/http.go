// Package handler lists audit log entries for backoffice operators.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/MatheusAFD/mono-repo-auth/internal/audit/domain"
	"github.com/MatheusAFD/mono-repo-auth/internal/platform/rbac"
	"github.com/MatheusAFD/mono-repo-auth/internal/policy/engine"
	"github.com/MatheusAFD/mono-repo-auth/internal/server/response"
)

const (
	defaultLimit = 50
	maxLimit     = 200
)

// Lister reads audit entries newest first.
type Lister interface {
	ListRecent(ctx context.Context, limit, offset int) ([]*domain.AuditLog, error)
}

// Handler serves GET / with limit and offset query parameters.
type Handler struct {
	repo   Lister
	logger *slog.Logger
}

// NewHandler returns an audit log handler.
func NewHandler(repo Lister, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{repo: repo, logger: logger}
}

// Routes returns the audit routes; only backoffice users may read them.
func (h *Handler) Routes(authz engine.Authorizer) http.Handler {
	r := chi.NewRouter()
	r.Use(rbac.RequireRole(authz, "backoffice", "access"))
	r.Get("/", h.List)
	return r
}

type auditLogResponse struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId,omitempty"`
	Action    string    `json:"action"`
	Resource  string    `json:"resource"`
	Target    string    `json:"target,omitempty"`
	IP        string    `json:"ip"`
	Metadata  string    `json:"metadata,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// List writes a page of audit entries.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryInt(r, "limit", defaultLimit)
	if !ok || limit <= 0 {
		response.Error(w, http.StatusBadRequest, "limit must be a positive integer")
		return
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	offset, ok := queryInt(r, "offset", 0)
	if !ok || offset < 0 {
		response.Error(w, http.StatusBadRequest, "offset must be a non-negative integer")
		return
	}
	entries, err := h.repo.ListRecent(r.Context(), limit, offset)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "audit: list failed", "error", err)
		response.Error(w, http.StatusInternalServerError, "")
		return
	}
	out := make([]auditLogResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, auditLogResponse{
			ID:        e.ID,
			UserID:    e.UserID,
			Action:    e.Action,
			Resource:  e.Resource,
			Target:    e.Target,
			IP:        e.IP,
			Metadata:  e.Metadata,
			CreatedAt: e.CreatedAt,
		})
	}
	response.JSON(w, http.StatusOK, out)
}

func queryInt(r *http.Request, key string, def int) (int, bool) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return n, true
}
