package domain

import "time"

// Session is a server-tracked sign-in. Token is the external handle carried by the session cookie.
type Session struct {
	ID        string
	Token     string
	UserID    string
	ExpiresAt time.Time
	IPAddress string // empty when unknown
	UserAgent string // empty when unknown
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsActive reports whether the session is still valid at now. Expiry is exclusive.
func (s *Session) IsActive(now time.Time) bool {
	return s != nil && s.ExpiresAt.After(now)
}

// NeedsRefresh reports whether activity at now should extend the session.
// Sessions are extended once updateAge has passed since the last extension,
// i.e. when less than expiresIn-updateAge of lifetime remains.
func (s *Session) NeedsRefresh(now time.Time, expiresIn, updateAge time.Duration) bool {
	if s == nil || updateAge <= 0 || updateAge >= expiresIn {
		return false
	}
	return s.ExpiresAt.Sub(now) < expiresIn-updateAge
}
