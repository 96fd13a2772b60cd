package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	callServices "github.com/felixgeelhaar/calltracker/internal/calls/application/services"
	callsDomain "github.com/felixgeelhaar/calltracker/internal/calls/domain"
	callPersistence "github.com/felixgeelhaar/calltracker/internal/calls/infrastructure/persistence"
	notifications "github.com/felixgeelhaar/calltracker/internal/notifications/application"
	schedulerServices "github.com/felixgeelhaar/calltracker/internal/scheduling/application/services"
	scheduleSubs "github.com/felixgeelhaar/calltracker/internal/scheduling/application/subscribers"
	schedulingDomain "github.com/felixgeelhaar/calltracker/internal/scheduling/domain"
	schedulePersistence "github.com/felixgeelhaar/calltracker/internal/scheduling/infrastructure/persistence"
	sharedApplication "github.com/felixgeelhaar/calltracker/internal/shared/application"
	"github.com/felixgeelhaar/calltracker/internal/shared/infrastructure/convert"
	"github.com/felixgeelhaar/calltracker/internal/shared/infrastructure/crypto"
	"github.com/felixgeelhaar/calltracker/internal/shared/infrastructure/database"
	_ "github.com/felixgeelhaar/calltracker/internal/shared/infrastructure/database/postgres" // Register PostgreSQL driver
	_ "github.com/felixgeelhaar/calltracker/internal/shared/infrastructure/database/sqlite"   // Register SQLite driver
	"github.com/felixgeelhaar/calltracker/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/calltracker/internal/shared/infrastructure/kvstore"
	"github.com/felixgeelhaar/calltracker/internal/shared/infrastructure/migrations"
	"github.com/felixgeelhaar/calltracker/internal/shared/infrastructure/outbox"
	"github.com/felixgeelhaar/calltracker/pkg/config"
	"github.com/felixgeelhaar/calltracker/pkg/observability"
	"github.com/redis/go-redis/v9"
)

// Container holds all application dependencies.
type Container struct {
	Config  *config.Config
	Logger  *slog.Logger
	Metrics observability.Metrics

	// Database
	DBConn   database.Connection
	DBDriver database.Driver

	// Key-value documents
	RedisClient *redis.Client
	KVStore     kvstore.Store

	// Repositories
	EmployeeRepo   callsDomain.EmployeeRepository
	CallRepo       callsDomain.CallRepository
	SuggestionRepo schedulingDomain.SuggestionRepository
	EventRepo      schedulingDomain.CompanyEventRepository
	RuleRepo       schedulingDomain.RuleRepository

	// Unit of Work
	UnitOfWork sharedApplication.UnitOfWork

	// Notifications. Bus is nil when events go to RabbitMQ.
	EventPublisher     eventbus.Publisher
	Bus                *eventbus.InProcessBus
	Dispatcher         *notifications.BrokerDispatcher
	ReminderSubscriber *scheduleSubs.ReminderSubscriber
	OutboxRepo         outbox.Repository
	OutboxProcessor    *outbox.Processor

	// Services
	ConflictDetector *schedulerServices.ConflictDetector
	SchedulingEngine *schedulerServices.SchedulingEngine
	Importer         *callServices.Importer

	Health *observability.HealthRegistry
}

// Option customizes a container before wiring.
type Option func(*Container)

// WithMetrics replaces the no-op metrics sink.
func WithMetrics(metrics observability.Metrics) Option {
	return func(c *Container) { c.Metrics = metrics }
}

// NewContainer creates and wires all dependencies.
func NewContainer(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts ...Option) (*Container, error) {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Container{
		Config:  cfg,
		Logger:  logger,
		Metrics: observability.NoopMetrics{},
		Health:  observability.NewHealthRegistry(),
	}
	for _, opt := range opts {
		opt(c)
	}

	if err := c.connectDatabase(ctx); err != nil {
		return nil, err
	}
	if err := c.connectKVStore(ctx); err != nil {
		c.Close()
		return nil, err
	}
	if err := c.sealKVStore(); err != nil {
		c.Close()
		return nil, err
	}
	if err := c.connectPublisher(); err != nil {
		c.Close()
		return nil, err
	}

	// Create repositories
	c.EmployeeRepo = callPersistence.NewSQLEmployeeRepository(c.DBConn)
	c.CallRepo = callPersistence.NewSQLCallRepository(c.DBConn)
	c.SuggestionRepo = schedulePersistence.NewKVSuggestionRepository(c.KVStore)
	c.EventRepo = schedulePersistence.NewKVCompanyEventRepository(c.KVStore)
	c.RuleRepo = schedulePersistence.NewKVRuleRepository(c.KVStore)
	c.UnitOfWork = database.NewUnitOfWork(c.DBConn)

	// Create notification path
	c.Dispatcher = notifications.NewBrokerDispatcher(c.EventPublisher, notifications.DispatcherConfig{
		FailureThreshold: convert.IntToUint32Clamped(cfg.NotifyBreakerThreshold),
		Timeout:          cfg.NotifyBreakerTimeout,
	}, logger, c.Metrics)
	c.OutboxRepo = outbox.NewSQLRepository(c.DBConn)
	c.Dispatcher.SetOutbox(c.OutboxRepo)
	outboxCfg := outbox.DefaultProcessorConfig()
	if cfg.NotifyMaxAttempts > 0 {
		outboxCfg.MaxAttempts = cfg.NotifyMaxAttempts
	}
	c.OutboxProcessor = outbox.NewProcessor(c.OutboxRepo, c.Dispatcher, outboxCfg, logger, c.Metrics)
	c.ReminderSubscriber = scheduleSubs.NewReminderSubscriber(
		notifications.NewLogReminderScheduler(logger),
		scheduleSubs.DefaultReminderSubscriberConfig(),
		logger,
		c.Metrics,
	)
	if c.Bus != nil {
		c.Bus.RegisterConsumer(c.ReminderSubscriber)
	}

	// Create scheduling services
	hours := schedulingDomain.DefaultBusinessHours()
	hours.Location = cfg.Location()

	detectorCfg := schedulerServices.DefaultConflictDetectorConfig()
	detectorCfg.Hours = hours
	c.ConflictDetector = schedulerServices.NewConflictDetector(c.CallRepo, detectorCfg, logger, c.Metrics)

	builderCfg := schedulerServices.DefaultSuggestionBuilderConfig()
	builderCfg.Hours = hours

	engineCfg := schedulerServices.DefaultSchedulingEngineConfig()
	engineCfg.ResolveSlotOnAccept = cfg.ResolveSlotOnAccept

	c.SchedulingEngine = schedulerServices.NewSchedulingEngine(schedulerServices.SchedulingEngineDeps{
		Employees:   c.EmployeeRepo,
		Calls:       c.CallRepo,
		Suggestions: c.SuggestionRepo,
		Events:      c.EventRepo,
		Rules:       c.RuleRepo,
		Detector:    c.ConflictDetector,
		Analyzer:    schedulerServices.NewTriggerAnalyzer(schedulerServices.DefaultTriggerAnalyzerConfig()),
		Builder:     schedulerServices.NewSuggestionBuilder(builderCfg),
		Dispatcher:  c.Dispatcher,
		Logger:      logger,
		Metrics:     c.Metrics,
	}, engineCfg)

	c.Importer = callServices.NewImporter(c.UnitOfWork, c.EmployeeRepo, c.CallRepo, nil, logger, c.Metrics)

	c.registerHealthChecks()
	return c, nil
}

func (c *Container) connectDatabase(ctx context.Context) error {
	dbCfg := database.Config{URL: c.Config.DatabaseURL, SQLitePath: c.Config.SQLitePath}
	if c.Config.IsLocalMode() && dbCfg.SQLitePath != database.MemoryPath {
		if err := database.EnsureDirectory(dbCfg.SQLitePath); err != nil {
			return fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	conn, err := database.NewConnection(ctx, dbCfg)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := conn.Ping(ctx); err != nil {
		_ = conn.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	applied, err := migrations.Run(ctx, conn)
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	c.DBConn = conn
	c.DBDriver = conn.Driver()
	c.Logger.Info("connected to database", "driver", c.DBDriver, "migrations_applied", applied)
	return nil
}

// connectKVStore selects the document store. In development an unreachable
// Redis falls back to the SQL store.
func (c *Container) connectKVStore(ctx context.Context) error {
	switch c.Config.KVBackend {
	case config.KVBackendMemory:
		c.KVStore = kvstore.NewMemoryStore()
	case config.KVBackendRedis:
		client, err := c.connectRedis(ctx)
		if err != nil {
			if !c.Config.IsDevelopment() {
				return err
			}
			c.Logger.Warn("Redis not available, using SQL key-value store", "error", err)
			c.KVStore = kvstore.NewSQLStore(c.DBConn, c.Config.RedisNamespace)
			return nil
		}
		c.RedisClient = client
		c.KVStore = kvstore.NewBreakerStore("redis",
			kvstore.NewRedisStore(client, c.Config.RedisNamespace, 0),
			kvstore.DefaultBreakerConfig(),
			c.Logger,
		)
		c.Logger.Info("connected to Redis", "namespace", c.Config.RedisNamespace)
	default:
		c.KVStore = kvstore.NewSQLStore(c.DBConn, c.Config.RedisNamespace)
	}
	return nil
}

// sealKVStore encrypts documents when a key is configured.
func (c *Container) sealKVStore() error {
	if c.Config.KVEncryptionKey == "" {
		return nil
	}
	enc, err := crypto.ParseKey(c.Config.KVEncryptionKey)
	if err != nil {
		return fmt.Errorf("invalid KV encryption key: %w", err)
	}
	c.KVStore = kvstore.NewEncryptedStore(c.KVStore, enc)
	return nil
}

func (c *Container) connectRedis(ctx context.Context) (*redis.Client, error) {
	client, err := kvstore.NewRedisClient(c.Config.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

// connectPublisher uses RabbitMQ when configured. Otherwise, or when the
// broker is down in development, events stay on the in-process bus.
func (c *Container) connectPublisher() error {
	if c.Config.UsesRabbitMQ() {
		publisher, err := eventbus.NewRabbitMQPublisher(c.Config.RabbitMQURL, c.Logger)
		if err == nil {
			c.EventPublisher = publisher
			return nil
		}
		if !c.Config.IsDevelopment() {
			return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
		}
		c.Logger.Warn("RabbitMQ not available, using in-process bus", "error", err)
	}

	c.Bus = eventbus.NewInProcessBus(c.Logger)
	c.EventPublisher = c.Bus
	return nil
}

// Health check component names.
const (
	healthDatabase = "database"
	healthRedis    = "redis"
	healthRabbitMQ = "rabbitmq"
)

func (c *Container) registerHealthChecks() {
	c.Health.Register(healthDatabase, observability.DatabaseHealthChecker(c.DBConn.Ping))
	if c.RedisClient != nil {
		c.Health.Register(healthRedis, observability.RedisHealthChecker(func(ctx context.Context) error {
			return c.RedisClient.Ping(ctx).Err()
		}))
	}
	if p, ok := c.EventPublisher.(*eventbus.RabbitMQPublisher); ok {
		c.Health.Register(healthRabbitMQ, observability.RabbitMQHealthChecker(p.Healthy))
	}
}

// Close releases all connections.
func (c *Container) Close() {
	if c.EventPublisher != nil {
		if err := c.EventPublisher.Close(); err != nil {
			c.Logger.Warn("error closing event publisher", "error", err)
		}
	}
	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			c.Logger.Warn("error closing Redis client", "error", err)
		}
	}
	if c.DBConn != nil {
		if err := c.DBConn.Close(); err != nil {
			c.Logger.Warn("error closing database", "error", err)
		}
	}
}
