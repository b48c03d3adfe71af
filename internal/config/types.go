// Package config loads Lakescan configuration from file, environment
// variables, and CLI flags.
package config

import (
	"time"

	"github.com/lakescan-io/lakescan/internal/export"
	"github.com/lakescan-io/lakescan/pkg/core"
	"github.com/lakescan-io/lakescan/pkg/warehouse"
)

// Default configuration values.
const (
	DefaultOutput          = "table"
	DefaultStateFile       = ".lakescan/state.db"
	DefaultConcurrency     = 4
	DefaultUsageWindowDays = 30
)

// DirectoryConfig holds catalog directory API connection settings.
type DirectoryConfig struct {
	// Host is the workspace base URL.
	Host string `koanf:"host"`
	// Token is the bearer token. Supports ${VAR} expansion.
	Token string `koanf:"token"`
	// Timeout bounds each API request.
	Timeout time.Duration `koanf:"timeout"`
	// MaxRetries bounds retries for transient API failures.
	MaxRetries int `koanf:"max_retries"`
	// PageSize is the listing page size.
	PageSize int `koanf:"page_size"`
}

// Config is the root Lakescan configuration.
type Config struct {
	// Catalog and Schema select the collection scope.
	Catalog string `koanf:"catalog"`
	Schema  string `koanf:"schema"`

	// TableFilter is an optional glob applied to table names.
	TableFilter string `koanf:"table_filter"`

	// IncludeUsage enables access-history enrichment.
	IncludeUsage bool `koanf:"include_usage"`
	// UsageWindowDays is the usage lookback window.
	UsageWindowDays int `koanf:"usage_window_days"`

	// Concurrency bounds simultaneous per-table collection.
	Concurrency int `koanf:"concurrency"`

	// Output is the report format: table, json, csv, parquet.
	Output string `koanf:"output"`
	// OutputFile writes the report to a file instead of stdout.
	OutputFile string `koanf:"output_file"`

	// StatePath is the run history database path.
	StatePath string `koanf:"state_path"`

	// Verbose enables debug logging.
	Verbose bool `koanf:"verbose"`

	// Directory configures the catalog API client.
	Directory DirectoryConfig `koanf:"catalog_api"`

	// Warehouse configures the SQL engine used for statistics and usage.
	Warehouse warehouse.Config `koanf:"warehouse"`
}

// Validate checks settings that must be caught before a run starts.
func (c *Config) Validate() error {
	if err := core.ValidateIdentifier("catalog", c.Catalog); err != nil {
		return err
	}
	if err := core.ValidateIdentifier("schema", c.Schema); err != nil {
		return err
	}
	if c.IncludeUsage && c.UsageWindowDays <= 0 {
		return &core.InvalidArgumentError{Field: "usage_window_days", Reason: "must be positive"}
	}
	if c.Directory.Host == "" {
		return &core.InvalidArgumentError{Field: "catalog_api.host", Reason: "must not be empty"}
	}
	if _, err := export.ParseFormat(c.Output); err != nil {
		return err
	}
	if !warehouse.IsRegistered(c.Warehouse.Type) {
		return &warehouse.UnknownEngineError{Type: c.Warehouse.Type, Available: warehouse.ListEngines()}
	}
	return nil
}
