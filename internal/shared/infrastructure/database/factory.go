package database

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// Config selects and configures the calls database.
type Config struct {
	// Driver forces a backend. Empty or "auto" detects it from URL.
	Driver Driver
	// URL is the PostgreSQL connection string used by deployed workers.
	URL string
	// SQLitePath is the local database file, or MemoryPath for tests.
	// Defaults to ~/.calltracker/data.db.
	SQLitePath string
	// MaxConns caps the PostgreSQL pool; zero keeps the pgxpool default.
	MaxConns int
}

// Opener opens a connection for one driver. Driver packages register
// theirs from init so this package stays free of driver imports.
type Opener func(ctx context.Context, cfg Config) (Connection, error)

var openers = map[Driver]Opener{}

// Register installs the opener for d. Importing a driver package for side
// effects is enough to make it available to NewConnection.
func Register(d Driver, open Opener) {
	openers[d] = open
}

// NewConnection opens the database selected by cfg.
func NewConnection(ctx context.Context, cfg Config) (Connection, error) {
	driver := cfg.Driver
	if driver == "" || driver == "auto" {
		driver = DetectDriver(cfg.URL)
	}

	open, ok := openers[driver]
	if !ok {
		return nil, fmt.Errorf("unsupported database driver %q (is its package imported?)", driver)
	}
	return open(ctx, cfg)
}

// DefaultSQLitePath returns ~/.calltracker/data.db, falling back to the
// working directory when there is no home directory.
func DefaultSQLitePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".calltracker", "data.db")
}

// EnsureDirectory creates the parent directory of path.
func EnsureDirectory(path string) error {
	return os.MkdirAll(filepath.Dir(path), 0o750)
}
