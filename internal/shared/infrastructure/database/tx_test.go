package database_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/calltracker/internal/shared/infrastructure/database"
	"github.com/felixgeelhaar/calltracker/internal/shared/infrastructure/database/sqlite"
)

func openEmployees(t *testing.T) database.Connection {
	t.Helper()
	ctx := context.Background()
	conn, err := database.NewConnection(ctx, database.Config{SQLitePath: database.MemoryPath})
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	_, err = conn.Exec(ctx, `CREATE TABLE employees (id TEXT PRIMARY KEY, name TEXT NOT NULL)`)
	require.NoError(t, err)
	return conn
}

func countEmployees(t *testing.T, conn database.Connection) int {
	t.Helper()
	var n int
	require.NoError(t, conn.QueryRow(context.Background(), `SELECT COUNT(*) FROM employees`).Scan(&n))
	return n
}

func insert(t *testing.T, ctx context.Context, conn database.Connection, id string) {
	t.Helper()
	_, err := database.ExecutorFromContext(ctx, conn).
		Exec(ctx, `INSERT INTO employees (id, name) VALUES (?, ?)`, id, "Laura Verdi")
	require.NoError(t, err)
}

func TestNewConnection_DetectsSQLite(t *testing.T) {
	conn := openEmployees(t)
	_, isSQLite := conn.(*sqlite.Connection)
	assert.True(t, isSQLite)
}

func TestNewConnection_UnknownDriver(t *testing.T) {
	_, err := database.NewConnection(context.Background(), database.Config{Driver: "oracle"})
	assert.Error(t, err)
}

func TestUnitOfWork_CommitAndRollback(t *testing.T) {
	conn := openEmployees(t)
	uow := database.NewUnitOfWork(conn)

	ctx, err := uow.Begin(context.Background())
	require.NoError(t, err)
	insert(t, ctx, conn, "e1")
	require.NoError(t, uow.Commit(ctx))

	ctx, err = uow.Begin(context.Background())
	require.NoError(t, err)
	insert(t, ctx, conn, "e2")
	require.NoError(t, uow.Rollback(ctx))

	assert.Equal(t, 1, countEmployees(t, conn))
}

func TestUnitOfWork_NestedJoinsOuter(t *testing.T) {
	conn := openEmployees(t)
	uow := database.NewUnitOfWork(conn)

	outer, err := uow.Begin(context.Background())
	require.NoError(t, err)
	inner, err := uow.Begin(outer)
	require.NoError(t, err)

	insert(t, inner, conn, "e1")
	// The inner unit does not own the transaction.
	require.NoError(t, uow.Commit(inner))
	require.NoError(t, uow.Rollback(outer))

	assert.Zero(t, countEmployees(t, conn))
}

func TestUnitOfWork_NoTransaction(t *testing.T) {
	uow := database.NewUnitOfWork(openEmployees(t))

	assert.ErrorIs(t, uow.Commit(context.Background()), database.ErrNoTransaction)
	assert.ErrorIs(t, uow.Rollback(context.Background()), database.ErrNoTransaction)
}
