package outbox

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/felixgeelhaar/calltracker/internal/shared/infrastructure/database"
	"github.com/google/uuid"
)

const messageColumns = `id, event_id, routing_key, payload, attempts, last_error,
	created_at, next_attempt_at, dead_at`

// SQLRepository stores messages in the notification_outbox table.
type SQLRepository struct {
	conn database.Connection
}

// NewSQLRepository creates a repository over an already migrated connection.
func NewSQLRepository(conn database.Connection) *SQLRepository {
	return &SQLRepository{conn: conn}
}

func (r *SQLRepository) exec(ctx context.Context) database.Executor {
	return database.ExecutorFromContext(ctx, r.conn)
}

func (r *SQLRepository) bind(query string) string {
	return database.Rebind(r.conn.Driver(), query)
}

func (r *SQLRepository) Save(ctx context.Context, msg *Message) error {
	var id int64
	err := r.exec(ctx).QueryRow(ctx,
		r.bind(`INSERT INTO notification_outbox
			(event_id, routing_key, payload, attempts, last_error, created_at, next_attempt_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (event_id) DO NOTHING
			RETURNING id`),
		msg.EventID.String(),
		msg.RoutingKey,
		msg.Payload,
		msg.Attempts,
		msg.LastError,
		formatTime(msg.CreatedAt),
		formatTime(msg.NextAttemptAt),
	).Scan(&id)
	if database.IsNoRows(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("park notification %s: %w", msg.EventID, err)
	}
	msg.ID = id
	return nil
}

func (r *SQLRepository) Due(ctx context.Context, now time.Time, limit int) ([]*Message, error) {
	rows, err := r.exec(ctx).Query(ctx,
		r.bind(`SELECT `+messageColumns+` FROM notification_outbox
			WHERE dead_at IS NULL AND next_attempt_at <= ?
			ORDER BY next_attempt_at, id
			LIMIT ?`),
		formatTime(now), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list due notifications: %w", err)
	}
	defer rows.Close()

	var msgs []*Message
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, msg)
	}
	return msgs, rows.Err()
}

func (r *SQLRepository) Delete(ctx context.Context, id int64) error {
	_, err := r.exec(ctx).Exec(ctx, r.bind(`DELETE FROM notification_outbox WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("delete notification %d: %w", id, err)
	}
	return nil
}

func (r *SQLRepository) MarkFailed(ctx context.Context, id int64, errMsg string, nextAttemptAt time.Time) error {
	_, err := r.exec(ctx).Exec(ctx,
		r.bind(`UPDATE notification_outbox
			SET attempts = attempts + 1, last_error = ?, next_attempt_at = ?
			WHERE id = ?`),
		errMsg, formatTime(nextAttemptAt), id,
	)
	if err != nil {
		return fmt.Errorf("mark notification %d failed: %w", id, err)
	}
	return nil
}

func (r *SQLRepository) MarkDead(ctx context.Context, id int64, reason string, at time.Time) error {
	_, err := r.exec(ctx).Exec(ctx,
		r.bind(`UPDATE notification_outbox
			SET attempts = attempts + 1, last_error = ?, dead_at = ?
			WHERE id = ?`),
		reason, formatTime(at), id,
	)
	if err != nil {
		return fmt.Errorf("mark notification %d dead: %w", id, err)
	}
	return nil
}

func (r *SQLRepository) Pending(ctx context.Context) (int, error) {
	var n int
	err := r.exec(ctx).
		QueryRow(ctx, `SELECT COUNT(*) FROM notification_outbox WHERE dead_at IS NULL`).
		Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count pending notifications: %w", err)
	}
	return n, nil
}

func scanMessage(row database.Row) (*Message, error) {
	var (
		msg               Message
		eventID           string
		createdAt, nextAt string
		deadAt            sql.NullString
	)
	err := row.Scan(&msg.ID, &eventID, &msg.RoutingKey, &msg.Payload, &msg.Attempts,
		&msg.LastError, &createdAt, &nextAt, &deadAt)
	if err != nil {
		return nil, err
	}

	if msg.EventID, err = uuid.Parse(eventID); err != nil {
		return nil, fmt.Errorf("outbox event_id %q: %w", eventID, err)
	}
	if msg.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return nil, fmt.Errorf("outbox created_at %q: %w", createdAt, err)
	}
	if msg.NextAttemptAt, err = time.Parse(time.RFC3339, nextAt); err != nil {
		return nil, fmt.Errorf("outbox next_attempt_at %q: %w", nextAt, err)
	}
	if deadAt.Valid {
		t, err := time.Parse(time.RFC3339, deadAt.String)
		if err != nil {
			return nil, fmt.Errorf("outbox dead_at %q: %w", deadAt.String, err)
		}
		msg.DeadAt = &t
	}
	return &msg, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
