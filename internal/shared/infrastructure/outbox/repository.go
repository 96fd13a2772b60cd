package outbox

import (
	"context"
	"time"
)

// Repository defines the interface for outbox persistence.
type Repository interface {
	// Save stores a new message and sets its ID. Saving an event that is
	// already parked is a no-op.
	Save(ctx context.Context, msg *Message) error

	// Due returns live messages whose next attempt is at or before now,
	// oldest first.
	Due(ctx context.Context, now time.Time, limit int) ([]*Message, error)

	// Delete removes a message after a successful publish.
	Delete(ctx context.Context, id int64) error

	// MarkFailed records a failed attempt and when to try again.
	MarkFailed(ctx context.Context, id int64, err string, nextAttemptAt time.Time) error

	// MarkDead stops retrying a message.
	MarkDead(ctx context.Context, id int64, reason string, at time.Time) error

	// Pending counts live messages.
	Pending(ctx context.Context) (int, error)
}
