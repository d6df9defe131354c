// Package dto holds the JSON representation of sessions shared by the session and auth endpoints.
package dto

import (
	"time"

	"github.com/MatheusAFD/mono-repo-auth/internal/session/domain"
)

// Session is the wire shape of a session record. Optional fields are omitted when unknown.
type Session struct {
	ID        string    `json:"id"`
	Token     string    `json:"token"`
	UserID    string    `json:"userId"`
	ExpiresAt time.Time `json:"expiresAt"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	IPAddress *string   `json:"ipAddress,omitempty"`
	UserAgent *string   `json:"userAgent,omitempty"`
}

// FromDomain converts s. Returns nil for a nil session.
func FromDomain(s *domain.Session) *Session {
	if s == nil {
		return nil
	}
	return &Session{
		ID:        s.ID,
		Token:     s.Token,
		UserID:    s.UserID,
		ExpiresAt: s.ExpiresAt,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
		IPAddress: optional(s.IPAddress),
		UserAgent: optional(s.UserAgent),
	}
}

// FromDomainList converts list, always returning a non-nil slice.
func FromDomainList(list []*domain.Session) []*Session {
	out := make([]*Session, 0, len(list))
	for _, s := range list {
		out = append(out, FromDomain(s))
	}
	return out
}

func optional(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
