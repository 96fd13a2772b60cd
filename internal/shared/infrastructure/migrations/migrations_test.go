package migrations

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/calltracker/internal/shared/infrastructure/database"
	"github.com/felixgeelhaar/calltracker/internal/shared/infrastructure/database/sqlite"
)

func TestFiles(t *testing.T) {
	for _, driver := range []database.Driver{database.DriverSQLite, database.DriverPostgres} {
		t.Run(driver.String(), func(t *testing.T) {
			files, err := Files(driver)
			require.NoError(t, err)
			assert.Equal(t, []string{"0001_calls.up.sql", "0002_kv_entries.up.sql", "0003_notification_outbox.up.sql"}, files)
		})
	}

	_, err := Files(database.Driver("mysql"))
	assert.Error(t, err)
}

func TestRun_SQLite(t *testing.T) {
	ctx := context.Background()
	conn, err := sqlite.NewConnection(ctx, database.Config{SQLitePath: database.MemoryPath})
	require.NoError(t, err)
	defer conn.Close()

	applied, err := Run(ctx, conn)
	require.NoError(t, err)
	assert.Equal(t, 3, applied)

	for _, table := range []string{"employees", "calls", "kv_entries", "notification_outbox"} {
		var name string
		err := conn.QueryRow(ctx, `SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&name)
		require.NoError(t, err, table)
	}

	t.Run("second run is a no-op", func(t *testing.T) {
		applied, err := Run(ctx, conn)
		require.NoError(t, err)
		assert.Zero(t, applied)
	})
}
