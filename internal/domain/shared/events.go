package shared

import "time"

// DomainEvent represents an event that has occurred in the domain
type DomainEvent interface {
	EventName() string
	OccurredAt() time.Time
}

// Envelope addresses an event to the session that raised it
type Envelope struct {
	SessionID string      `json:"session_id"`
	Name      string      `json:"event"`
	At        time.Time   `json:"at"`
	Payload   DomainEvent `json:"payload"`
}

// Wrap builds the envelope of an event
func Wrap(sessionID string, e DomainEvent) Envelope {
	return Envelope{SessionID: sessionID, Name: e.EventName(), At: e.OccurredAt(), Payload: e}
}
