// Package outbox parks notifications the broker refused and republishes
// them later.
package outbox

import (
	"time"

	"github.com/google/uuid"
)

// Message is an encoded envelope waiting for another publish attempt.
type Message struct {
	ID            int64
	EventID       uuid.UUID
	RoutingKey    string
	Payload       []byte
	Attempts      int
	LastError     string
	CreatedAt     time.Time
	NextAttemptAt time.Time
	DeadAt        *time.Time
}

// NewMessage creates a message due immediately. lastError is the failure
// that caused it to be parked.
func NewMessage(eventID uuid.UUID, routingKey string, payload []byte, lastError string, now time.Time) *Message {
	now = now.UTC().Truncate(time.Second)
	return &Message{
		EventID:       eventID,
		RoutingKey:    routingKey,
		Payload:       payload,
		Attempts:      1,
		LastError:     lastError,
		CreatedAt:     now,
		NextAttemptAt: now,
	}
}

// IsDead reports whether the message was given up on.
func (m *Message) IsDead() bool {
	return m.DeadAt != nil
}

// CanRetry reports whether another attempt is allowed.
func (m *Message) CanRetry(maxAttempts int) bool {
	return m.Attempts < maxAttempts
}
