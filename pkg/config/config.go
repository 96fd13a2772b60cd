package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/felixgeelhaar/calltracker/internal/shared/infrastructure/crypto"
)

const envPrefix = "CALLTRACKER_"

// KV backends.
const (
	KVBackendMemory = "memory"
	KVBackendRedis  = "redis"
	KVBackendSQL    = "sql"
)

// Config holds application configuration.
type Config struct {
	// Application
	AppEnv   string
	LogLevel string
	Timezone string

	// Database. An empty DatabaseURL selects SQLite at SQLitePath.
	DatabaseURL string
	SQLitePath  string

	// KV documents
	KVBackend      string
	RedisURL       string
	RedisNamespace string
	// KVEncryptionKey is a base64 AES-256 key. When set, documents are
	// sealed before they reach the backend.
	KVEncryptionKey string

	// RabbitMQ. Empty keeps notifications in process.
	RabbitMQURL string

	// Scheduling
	ResolveSlotOnAccept bool
	SuggestionRetention time.Duration

	// Worker
	WorkerInterval time.Duration
	HealthAddr     string

	// Notifications
	NotifyBreakerThreshold int
	NotifyBreakerTimeout   time.Duration
	NotifyRetryInterval    time.Duration
	NotifyMaxAttempts      int
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	cfg := &Config{
		AppEnv:   getEnv("APP_ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		Timezone: getEnv("TIMEZONE", "Europe/Rome"),

		DatabaseURL: getEnv("DATABASE_URL", ""),
		SQLitePath:  getEnv("SQLITE_PATH", defaultSQLitePath()),

		KVBackend:       strings.ToLower(getEnv("KV_BACKEND", KVBackendSQL)),
		RedisURL:        getEnv("REDIS_URL", "redis://localhost:6379/0"),
		RedisNamespace:  getEnv("REDIS_NAMESPACE", "hr"),
		KVEncryptionKey: getEnv("KV_ENCRYPTION_KEY", ""),

		RabbitMQURL: getEnv("RABBITMQ_URL", ""),

		ResolveSlotOnAccept: getBoolEnv("RESOLVE_SLOT_ON_ACCEPT", true),
		SuggestionRetention: getDurationEnv("SUGGESTION_RETENTION", 30*24*time.Hour),

		WorkerInterval: getDurationEnv("WORKER_INTERVAL", time.Hour),
		HealthAddr:     getEnv("HEALTH_ADDR", "0.0.0.0:8081"),

		NotifyBreakerThreshold: getIntEnv("NOTIFY_BREAKER_THRESHOLD", 5),
		NotifyBreakerTimeout:   getDurationEnv("NOTIFY_BREAKER_TIMEOUT", 30*time.Second),
		NotifyRetryInterval:    getDurationEnv("NOTIFY_RETRY_INTERVAL", time.Minute),
		NotifyMaxAttempts:      getIntEnv("NOTIFY_MAX_ATTEMPTS", 6),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports settings that cannot be wired.
func (c *Config) Validate() error {
	switch c.KVBackend {
	case KVBackendMemory, KVBackendRedis, KVBackendSQL:
	default:
		return fmt.Errorf("config: unknown %sKV_BACKEND %q", envPrefix, c.KVBackend)
	}
	if c.KVEncryptionKey != "" {
		if _, err := crypto.ParseKey(c.KVEncryptionKey); err != nil {
			return fmt.Errorf("config: invalid %sKV_ENCRYPTION_KEY: %w", envPrefix, err)
		}
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("config: invalid %sTIMEZONE: %w", envPrefix, err)
	}
	if c.WorkerInterval <= 0 {
		return fmt.Errorf("config: %sWORKER_INTERVAL must be positive", envPrefix)
	}
	if c.NotifyBreakerThreshold < 1 {
		return fmt.Errorf("config: %sNOTIFY_BREAKER_THRESHOLD must be at least 1", envPrefix)
	}
	if c.NotifyRetryInterval <= 0 {
		return fmt.Errorf("config: %sNOTIFY_RETRY_INTERVAL must be positive", envPrefix)
	}
	return nil
}

// Location returns the business-hours time zone. Validate guarantees it loads.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// IsLocalMode reports whether the database is SQLite.
func (c *Config) IsLocalMode() bool {
	return c.DatabaseURL == ""
}

// UsesRabbitMQ reports whether notifications leave the process.
func (c *Config) UsesRabbitMQ() bool {
	return c.RabbitMQURL != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(envPrefix + key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(envPrefix + key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

// getDurationEnv accepts Go durations plus a "d" suffix for whole days.
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(envPrefix + key)
	if value == "" {
		return defaultValue
	}
	if days, ok := strings.CutSuffix(value, "d"); ok {
		if n, err := strconv.Atoi(days); err == nil {
			return time.Duration(n) * 24 * time.Hour
		}
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(envPrefix + key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func defaultSQLitePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".calltracker", "data.db")
	}
	return filepath.Join(home, ".calltracker", "data.db")
}
