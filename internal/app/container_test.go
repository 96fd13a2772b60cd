package app

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	schedulingDomain "github.com/felixgeelhaar/calltracker/internal/scheduling/domain"
	"github.com/felixgeelhaar/calltracker/internal/shared/infrastructure/crypto"
	"github.com/felixgeelhaar/calltracker/internal/shared/infrastructure/database"
	"github.com/felixgeelhaar/calltracker/internal/shared/infrastructure/kvstore"
	"github.com/felixgeelhaar/calltracker/pkg/config"
	"github.com/felixgeelhaar/calltracker/pkg/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func localConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		AppEnv:                 "development",
		Timezone:               "UTC",
		SQLitePath:             filepath.Join(t.TempDir(), "calltracker", "test.db"),
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
}

func newLocalContainer(t *testing.T, cfg *config.Config, opts ...Option) *Container {
	t.Helper()
	c, err := NewContainer(context.Background(), cfg, nil, opts...)
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c
}

func TestNewContainer_LocalMode(t *testing.T) {
	c := newLocalContainer(t, localConfig(t))

	assert.Equal(t, database.DriverSQLite, c.DBDriver)
	assert.NotNil(t, c.DBConn)
	assert.Nil(t, c.RedisClient)
	assert.IsType(t, &kvstore.SQLStore{}, c.KVStore)

	assert.NotNil(t, c.EmployeeRepo)
	assert.NotNil(t, c.CallRepo)
	assert.NotNil(t, c.SuggestionRepo)
	assert.NotNil(t, c.SchedulingEngine)
	assert.NotNil(t, c.Importer)
	assert.NotNil(t, c.OutboxProcessor)

	require.NotNil(t, c.Bus, "no broker configured keeps events in process")
	assert.Equal(t, 1, c.Bus.Registry().Count())
	assert.Equal(t, []string{"database"}, c.Health.Names())

	health := c.Health.GetOverallHealth(context.Background())
	assert.Equal(t, observability.HealthStatusHealthy, health.Status)
}

func TestNewContainer_MemoryKVBackend(t *testing.T) {
	cfg := localConfig(t)
	cfg.KVBackend = config.KVBackendMemory

	c := newLocalContainer(t, cfg)
	assert.IsType(t, &kvstore.MemoryStore{}, c.KVStore)
}

func TestNewContainer_RedisFallback(t *testing.T) {
	t.Run("development falls back to SQL store", func(t *testing.T) {
		cfg := localConfig(t)
		cfg.KVBackend = config.KVBackendRedis
		cfg.RedisURL = "http://not-redis"

		c := newLocalContainer(t, cfg)
		assert.Nil(t, c.RedisClient)
		assert.IsType(t, &kvstore.SQLStore{}, c.KVStore)
	})

	t.Run("production fails", func(t *testing.T) {
		cfg := localConfig(t)
		cfg.AppEnv = "production"
		cfg.KVBackend = config.KVBackendRedis
		cfg.RedisURL = "http://not-redis"

		_, err := NewContainer(context.Background(), cfg, nil)
		assert.Error(t, err)
	})
}

const containerSeed = `{
  "employees": [
    {"name": "Laura Verdi", "department": "HR"},
    {"name": "Paolo Costa", "department": "Sales", "active": false}
  ]
}`

func TestContainer_ImportGenerateAccept(t *testing.T) {
	ctx := context.Background()
	metrics := observability.NewInMemoryMetrics()
	c := newLocalContainer(t, localConfig(t), WithMetrics(metrics))

	result, err := c.Importer.Import(ctx, strings.NewReader(containerSeed))
	require.NoError(t, err)
	assert.Equal(t, 2, result.Employees)

	pending, err := c.SchedulingEngine.GenerateSuggestions(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1, "inactive employees are not analysed")
	assert.Equal(t, "Laura Verdi", pending[0].EmployeeName())

	call, err := c.SchedulingEngine.AcceptSuggestion(ctx, pending[0].ID())
	require.NoError(t, err)

	stored, err := c.CallRepo.FindByID(ctx, call.ID())
	require.NoError(t, err)
	assert.True(t, stored.ScheduledAt().Equal(call.ScheduledAt()))

	assert.Equal(t, int64(1), metrics.GetCounter(observability.MetricRemindersScheduled),
		"auto-scheduled call reaches the reminder subscriber through the in-process bus")
	assert.Empty(t, c.SchedulingEngine.PendingSuggestions(ctx))
}

func TestContainer_SuggestionsSurviveRestart(t *testing.T) {
	ctx := context.Background()
	cfg := localConfig(t)

	first, err := NewContainer(ctx, cfg, nil)
	require.NoError(t, err)
	_, err = first.Importer.Import(ctx, strings.NewReader(containerSeed))
	require.NoError(t, err)
	generated, err := first.SchedulingEngine.GenerateSuggestions(ctx)
	require.NoError(t, err)
	require.Len(t, generated, 1)
	first.Close()

	second := newLocalContainer(t, cfg)
	pending := second.SchedulingEngine.PendingSuggestions(ctx)
	require.Len(t, pending, 1)
	assert.Equal(t, generated[0].ID(), pending[0].ID())
}

func TestNewContainer_EncryptedKVStore(t *testing.T) {
	ctx := context.Background()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	cfg := localConfig(t)
	cfg.KVEncryptionKey = key
	c := newLocalContainer(t, cfg)
	assert.IsType(t, &kvstore.EncryptedStore{}, c.KVStore)

	_, err = c.Importer.Import(ctx, strings.NewReader(containerSeed))
	require.NoError(t, err)
	_, err = c.SchedulingEngine.GenerateSuggestions(ctx)
	require.NoError(t, err)

	raw, err := kvstore.NewSQLStore(c.DBConn, cfg.RedisNamespace).Get(ctx, schedulingDomain.KeySchedulingSuggestions)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "Laura Verdi")
	assert.Len(t, c.SchedulingEngine.PendingSuggestions(ctx), 1)
}
