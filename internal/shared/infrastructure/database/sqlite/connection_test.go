package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/calltracker/internal/shared/infrastructure/database"
)

func openMemory(t *testing.T) database.Connection {
	t.Helper()
	conn, err := NewConnection(context.Background(), database.Config{SQLitePath: database.MemoryPath})
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	_, err = conn.Exec(context.Background(), `CREATE TABLE employees (id TEXT PRIMARY KEY, name TEXT NOT NULL)`)
	require.NoError(t, err)
	return conn
}

func TestNewConnection_File(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "calltracker.db")

	conn, err := NewConnection(ctx, database.Config{SQLitePath: path})
	require.NoError(t, err)
	defer conn.Close()

	assert.NoError(t, conn.Ping(ctx))
	assert.Equal(t, database.DriverSQLite, conn.Driver())
	assert.FileExists(t, path)
}

func TestConnection_ExecAndQuery(t *testing.T) {
	ctx := context.Background()
	conn := openMemory(t)

	result, err := conn.Exec(ctx, `INSERT INTO employees (id, name) VALUES (?, ?)`, "e1", "Giulia Bianchi")
	require.NoError(t, err)
	affected, err := result.RowsAffected()
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)

	_, err = conn.Exec(ctx, `INSERT INTO employees (id, name) VALUES (?, ?)`, "e2", "Marco Rossi")
	require.NoError(t, err)

	var name string
	require.NoError(t, conn.QueryRow(ctx, `SELECT name FROM employees WHERE id = ?`, "e1").Scan(&name))
	assert.Equal(t, "Giulia Bianchi", name)

	rows, err := conn.Query(ctx, `SELECT name FROM employees ORDER BY id`)
	require.NoError(t, err)
	defer rows.Close()

	var names []string
	for rows.Next() {
		var n string
		require.NoError(t, rows.Scan(&n))
		names = append(names, n)
	}
	require.NoError(t, rows.Err())
	assert.Equal(t, []string{"Giulia Bianchi", "Marco Rossi"}, names)
}

func TestConnection_Transaction(t *testing.T) {
	ctx := context.Background()
	conn := openMemory(t)

	tx, err := conn.BeginTx(ctx)
	require.NoError(t, err)
	_, err = tx.Exec(ctx, `INSERT INTO employees (id, name) VALUES (?, ?)`, "e1", "Giulia Bianchi")
	require.NoError(t, err)
	require.NoError(t, tx.Commit(ctx))

	tx, err = conn.BeginTx(ctx)
	require.NoError(t, err)
	_, err = tx.Exec(ctx, `INSERT INTO employees (id, name) VALUES (?, ?)`, "e2", "Marco Rossi")
	require.NoError(t, err)
	require.NoError(t, tx.Rollback(ctx))

	var count int
	require.NoError(t, conn.QueryRow(ctx, `SELECT COUNT(*) FROM employees`).Scan(&count))
	assert.Equal(t, 1, count)
}

func TestConnection_NoRows(t *testing.T) {
	conn := openMemory(t)

	var name string
	err := conn.QueryRow(context.Background(), `SELECT name FROM employees WHERE id = ?`, "missing").Scan(&name)

	assert.True(t, database.IsNoRows(err))
}
