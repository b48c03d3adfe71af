// Package warehouse opens database/sql connections to the SQL query engine
// used for statistics and usage probes. Engine types register a DSN builder;
// the databricks, postgres, and duckdb builders are provided.
package warehouse

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sort"
	"sync"
)

// Config holds query-engine connection settings. Field relevance depends on
// the engine type; unused fields are ignored by a builder.
type Config struct {
	// Type selects the registered engine: databricks, postgres, duckdb.
	Type string `koanf:"type"`

	// Network engines.
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	User     string `koanf:"user"`
	Password string `koanf:"password"`
	Database string `koanf:"database"`

	// Databricks-specific.
	HTTPPath string `koanf:"http_path"`
	Token    string `koanf:"token"`

	// File-based engines (DuckDB): database file path, empty for in-memory.
	Path string `koanf:"path"`

	// Additional driver-specific options.
	Options map[string]string `koanf:"options"`
}

// Builder turns a Config into a driver name and DSN.
type Builder func(cfg Config) (driver, dsn string, err error)

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Builder)
)

// Register adds an engine builder to the registry. Called by builder files
// in their init() functions.
func Register(name string, b Builder) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = b
}

// ListEngines returns all registered engine names (sorted).
func ListEngines() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsRegistered checks if an engine type is registered.
func IsRegistered(name string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := registry[name]
	return ok
}

// UnknownEngineError is returned when an unregistered engine type is
// requested.
type UnknownEngineError struct {
	Type      string
	Available []string
}

func (e *UnknownEngineError) Error() string {
	return fmt.Sprintf("unknown query engine type %q (available: %v)", e.Type, e.Available)
}

// Open builds the DSN for the configured engine, opens the connection, and
// verifies it with a ping. The returned pool is safe for concurrent use.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (*sql.DB, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if cfg.Type == "" {
		return nil, fmt.Errorf("query engine type not specified")
	}

	registryMu.RLock()
	builder, ok := registry[cfg.Type]
	registryMu.RUnlock()
	if !ok {
		return nil, &UnknownEngineError{Type: cfg.Type, Available: ListEngines()}
	}

	driver, dsn, err := builder(cfg)
	if err != nil {
		return nil, err
	}

	logger.Debug("connecting to query engine", "type", cfg.Type, "host", cfg.Host)

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s connection: %w", cfg.Type, err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping %s: %w", cfg.Type, err)
	}

	return db, nil
}
