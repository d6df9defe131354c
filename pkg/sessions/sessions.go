// Package sessions is the client for the backoffice session management endpoints.
package sessions

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/MatheusAFD/mono-repo-auth/pkg/httpclient"
	"github.com/MatheusAFD/mono-repo-auth/pkg/result"
)

// Session is one session record as returned by GET /sessions.
type Session struct {
	ID        string    `json:"id"`
	Token     string    `json:"token"`
	UserID    string    `json:"userId"`
	ExpiresAt time.Time `json:"expiresAt"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	IPAddress string    `json:"ipAddress,omitempty"`
	UserAgent string    `json:"userAgent,omitempty"`
}

// IsActive reports whether s has not expired at now.
func (s Session) IsActive(now time.Time) bool {
	return s.ExpiresAt.After(now)
}

// RevokeResponse is the body of DELETE /sessions/{token}.
type RevokeResponse struct {
	Success bool `json:"success"`
}

// Service lists and revokes sessions. Failures are returned inside the Result.
type Service interface {
	ListSessions(ctx context.Context) result.Result[[]Session]
	RevokeSession(ctx context.Context, token string) result.Result[RevokeResponse]
}

// Client implements Service over HTTP.
type Client struct {
	http *httpclient.Client
}

// NewClient returns a sessions client sharing c's cookie jar.
func NewClient(c *httpclient.Client) *Client {
	return &Client{http: c}
}

// ListSessions fetches active sessions, newest first. A null body yields an empty list.
func (c *Client) ListSessions(ctx context.Context) result.Result[[]Session] {
	res := httpclient.Do[[]Session](ctx, c.http, httpclient.Request{Method: http.MethodGet, Path: "/sessions"})
	return result.Map(res, func(list []Session) []Session {
		if list == nil {
			return []Session{}
		}
		return list
	})
}

// RevokeSession deletes the session identified by token.
func (c *Client) RevokeSession(ctx context.Context, token string) result.Result[RevokeResponse] {
	return httpclient.Do[RevokeResponse](ctx, c.http, httpclient.Request{
		Method: http.MethodDelete,
		Path:   "/sessions/" + url.PathEscape(token),
	})
}
