package domain

import "time"

// AuditLog represents an audit event.
type AuditLog struct {
	ID       string
	UserID   string // empty for anonymous events (e.g. failed sign-in)
	Action   string
	Resource string
	// Target identifies the affected object; session tokens are stored hashed.
	Target    string
	IP        string
	Metadata  string
	CreatedAt time.Time
}
