// Package sessions wires the sessions client into the backoffice query cache.
package sessions

import (
	"github.com/MatheusAFD/mono-repo-auth/internal/backoffice/query"
	"github.com/MatheusAFD/mono-repo-auth/pkg/sessions"
)

// QueryKey is the cache key of the session list.
const QueryKey = "sessions"

// Hooks exposes the session list query and the revoke mutation.
type Hooks struct {
	list   *query.Query[[]sessions.Session]
	revoke *query.Mutation[string, sessions.RevokeResponse]
}

// NewHooks builds the hooks over svc. The list is refetched on focus; a successful revoke
// invalidates the list so the next read refetches it.
func NewHooks(qc *query.Client, svc sessions.Service) *Hooks {
	list := query.NewQuery(qc, QueryKey, svc.ListSessions)
	list.RefetchOnFocus = true
	return &Hooks{
		list:   list,
		revoke: query.NewMutation(qc, svc.RevokeSession, QueryKey),
	}
}

// Sessions is the cached session list query.
func (h *Hooks) Sessions() *query.Query[[]sessions.Session] { return h.list }

// RevokeSession is the revoke mutation.
func (h *Hooks) RevokeSession() *query.Mutation[string, sessions.RevokeResponse] { return h.revoke }
