package kvstore

import (
	"context"
	"fmt"
	"time"

	"github.com/felixgeelhaar/calltracker/internal/shared/infrastructure/database"
)

// SQLStore keeps values in the kv_entries table of the calls database.
type SQLStore struct {
	conn      database.Connection
	namespace string
	now       func() time.Time
}

// NewSQLStore creates a store over an already migrated connection.
func NewSQLStore(conn database.Connection, namespace string) *SQLStore {
	return &SQLStore{conn: conn, namespace: namespace, now: time.Now}
}

func (s *SQLStore) bind(query string) string {
	return database.Rebind(s.conn.Driver(), query)
}

func (s *SQLStore) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := database.ExecutorFromContext(ctx, s.conn).
		QueryRow(ctx, s.bind(`SELECT value FROM kv_entries WHERE namespace = ? AND entry_key = ?`), s.namespace, key).
		Scan(&value)
	if database.IsNoRows(err) {
		return nil, ErrKeyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("kv get %s: %w", key, err)
	}
	return value, nil
}

func (s *SQLStore) Set(ctx context.Context, key string, value []byte) error {
	query := s.bind(`INSERT INTO kv_entries (namespace, entry_key, value, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (namespace, entry_key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at`)

	_, err := database.ExecutorFromContext(ctx, s.conn).
		Exec(ctx, query, s.namespace, key, value, s.now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("kv set %s: %w", key, err)
	}
	return nil
}

func (s *SQLStore) Delete(ctx context.Context, key string) error {
	_, err := database.ExecutorFromContext(ctx, s.conn).
		Exec(ctx, s.bind(`DELETE FROM kv_entries WHERE namespace = ? AND entry_key = ?`), s.namespace, key)
	if err != nil {
		return fmt.Errorf("kv delete %s: %w", key, err)
	}
	return nil
}

// Ping checks the database connection.
func (s *SQLStore) Ping(ctx context.Context) error {
	return s.conn.Ping(ctx)
}
