// Package middleware holds the HTTP middleware of the API: client info, session resolution, audit and metrics.
package middleware

import (
	"context"

	userdomain "github.com/MatheusAFD/mono-repo-auth/internal/user/domain"
)

type contextKey struct{ name string }

var (
	identityKey  = contextKey{"identity"}
	clientIPKey  = contextKey{"client_ip"}
	userAgentKey = contextKey{"user_agent"}
)

// Identity is the authenticated caller resolved from the session cookie.
type Identity struct {
	UserID       string
	SessionID    string
	SessionToken string
	Role         userdomain.Role
}

// WithIdentity returns a context carrying id.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// GetIdentity returns the caller identity and true if the request is authenticated.
func GetIdentity(ctx context.Context) (Identity, bool) {
	v, ok := ctx.Value(identityKey).(Identity)
	return v, ok
}

// GetUserID returns the user_id from context and true if set; otherwise "", false.
func GetUserID(ctx context.Context) (string, bool) {
	id, ok := GetIdentity(ctx)
	if !ok || id.UserID == "" {
		return "", false
	}
	return id.UserID, true
}

// WithClientInfo stores the normalized client IP and user agent.
func WithClientInfo(ctx context.Context, ip, userAgent string) context.Context {
	ctx = context.WithValue(ctx, clientIPKey, ip)
	return context.WithValue(ctx, userAgentKey, userAgent)
}

// ClientIPFromContext returns the client IP stored by ClientInfo, or "".
func ClientIPFromContext(ctx context.Context) string {
	v, _ := ctx.Value(clientIPKey).(string)
	return v
}

// UserAgentFromContext returns the user agent stored by ClientInfo, or "".
func UserAgentFromContext(ctx context.Context) string {
	v, _ := ctx.Value(userAgentKey).(string)
	return v
}
