// Package clitest wires a local-mode application for command tests.
package clitest

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/felixgeelhaar/calltracker/adapter/cli"
	internalApp "github.com/felixgeelhaar/calltracker/internal/app"
	"github.com/felixgeelhaar/calltracker/pkg/config"
	"github.com/stretchr/testify/require"
)

// NewApp builds a container on a temporary SQLite database, installs the
// CLI app globally and removes it when the test ends.
func NewApp(t *testing.T) (*cli.App, *internalApp.Container) {
	t.Helper()

	cfg := &config.Config{
		AppEnv:                 "test",
		LogLevel:               "error",
		Timezone:               "UTC",
		SQLitePath:             filepath.Join(t.TempDir(), "test.db"),
		KVBackend:              config.KVBackendSQL,
		RedisNamespace:         "hr",
		ResolveSlotOnAccept:    true,
		SuggestionRetention:    30 * 24 * time.Hour,
		WorkerInterval:         time.Hour,
		NotifyBreakerThreshold: 5,
		NotifyBreakerTimeout:   30 * time.Second,
		NotifyRetryInterval:    time.Minute,
		NotifyMaxAttempts:      6,
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))

	container, err := internalApp.NewContainer(context.Background(), cfg, logger)
	require.NoError(t, err)

	app := cli.NewApp(
		container.SchedulingEngine,
		container.ConflictDetector,
		container.Importer,
		container.EmployeeRepo,
		container.CallRepo,
	)
	app.SetLocation(cfg.Location())
	app.SetSuggestionRetention(cfg.SuggestionRetention)
	app.SetHealth(container.Health)

	cli.SetApp(app)
	t.Cleanup(func() {
		cli.SetApp(nil)
		container.Close()
	})
	return app, container
}

// Seed imports a JSON seed through the container's importer.
func Seed(t *testing.T, container *internalApp.Container, seed string) {
	t.Helper()
	_, err := container.Importer.Import(context.Background(), strings.NewReader(seed))
	require.NoError(t, err)
}
