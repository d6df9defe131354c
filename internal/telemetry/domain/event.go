package domain

import (
	"encoding/json"
	"time"
)

// EventType names a session lifecycle event.
type EventType string

const (
	EventSessionCreated   EventType = "session.created"
	EventSessionRevoked   EventType = "session.revoked"
	EventSessionSignedOut EventType = "session.signed_out"
	EventSessionExpired   EventType = "session.expired_swept"
)

// Event is the wire shape published to Kafka and mirrored to OTel logs.
// SessionID is the session row id, never the token.
type Event struct {
	ID        string          `json:"id"`
	Type      EventType       `json:"eventType"`
	SessionID string          `json:"sessionId,omitempty"`
	UserID    string          `json:"userId,omitempty"`
	ActorID   string          `json:"actorId,omitempty"`
	Source    string          `json:"source"`
	Metadata  json.RawMessage `json:"metadata,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
}
