package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lakescan-io/lakescan/pkg/core"
	"github.com/lakescan-io/lakescan/pkg/warehouse"
)

func warehouseConfig(engine string) warehouse.Config {
	return warehouse.Config{
		Type:     engine,
		Host:     "dbc-123.cloud.example.com",
		HTTPPath: "/sql/1.0/warehouses/abc",
		Token:    "secret",
	}
}

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "lakescan.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, DefaultOutput, cfg.Output)
	assert.Equal(t, DefaultStateFile, cfg.StatePath)
	assert.Equal(t, DefaultConcurrency, cfg.Concurrency)
	assert.Equal(t, DefaultUsageWindowDays, cfg.UsageWindowDays)
	assert.True(t, cfg.IncludeUsage, "usage collection defaults on, disable with include_usage: false")
	assert.Equal(t, "databricks", cfg.Warehouse.Type)
}

func TestLoadFromFile(t *testing.T) {
	path := writeConfigFile(t, `
catalog: main
schema: sales
include_usage: true
usage_window_days: 7
concurrency: 8
output: json
catalog_api:
  host: https://dbc-123.cloud.example.com
  token: secret
  timeout: 10s
warehouse:
  type: databricks
  host: dbc-123.cloud.example.com
  http_path: /sql/1.0/warehouses/abc
  token: secret
`)

	cfg, err := Load(path, nil)
	require.NoError(t, err)

	assert.Equal(t, "main", cfg.Catalog)
	assert.Equal(t, "sales", cfg.Schema)
	assert.True(t, cfg.IncludeUsage)
	assert.Equal(t, 7, cfg.UsageWindowDays)
	assert.Equal(t, 8, cfg.Concurrency)
	assert.Equal(t, "json", cfg.Output)
	assert.Equal(t, "https://dbc-123.cloud.example.com", cfg.Directory.Host)
	assert.Equal(t, 10*time.Second, cfg.Directory.Timeout)
	assert.Equal(t, "/sql/1.0/warehouses/abc", cfg.Warehouse.HTTPPath)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := writeConfigFile(t, "catalog: from_file\nschema: sales\n")

	t.Setenv("LAKESCAN_CATALOG", "from_env")
	t.Setenv("LAKESCAN_CATALOG_API__TOKEN", "env-token")

	cfg, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "from_env", cfg.Catalog)
	assert.Equal(t, "env-token", cfg.Directory.Token)
	assert.Equal(t, "sales", cfg.Schema, "untouched file values survive")
}

func TestLoadFlagsOverrideEverything(t *testing.T) {
	path := writeConfigFile(t, "catalog: from_file\nschema: sales\noutput: json\n")
	t.Setenv("LAKESCAN_CATALOG", "from_env")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("catalog", "", "")
	flags.String("output", "", "")
	flags.String("table-filter", "", "")
	flags.String("host", "", "")
	require.NoError(t, flags.Parse([]string{
		"--catalog", "from_flag",
		"--output", "csv",
		"--table-filter", "orders*",
		"--host", "https://dbc-999.cloud.example.com",
	}))

	cfg, err := Load(path, flags)
	require.NoError(t, err)
	assert.Equal(t, "from_flag", cfg.Catalog)
	assert.Equal(t, "csv", cfg.Output)
	assert.Equal(t, "orders*", cfg.TableFilter, "kebab-case flags map to snake_case keys")
	assert.Equal(t, "https://dbc-999.cloud.example.com", cfg.Directory.Host, "--host maps to catalog_api.host")
}

func TestLoadUnchangedFlagsAreIgnored(t *testing.T) {
	path := writeConfigFile(t, "catalog: from_file\nschema: sales\n")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("catalog", "flag_default", "")
	require.NoError(t, flags.Parse(nil))

	cfg, err := Load(path, flags)
	require.NoError(t, err)
	assert.Equal(t, "from_file", cfg.Catalog, "unset flags must not override the file")
}

func TestLoadExpandsCredentialEnvVars(t *testing.T) {
	path := writeConfigFile(t, `
catalog: main
schema: sales
catalog_api:
  host: https://dbc-123.cloud.example.com
  token: ${LAKESCAN_TEST_SECRET}
warehouse:
  token: ${LAKESCAN_TEST_SECRET}
`)
	t.Setenv("LAKESCAN_TEST_SECRET", "s3cr3t")

	cfg, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "s3cr3t", cfg.Directory.Token)
	assert.Equal(t, "s3cr3t", cfg.Warehouse.Token)
}

func TestConfigValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Catalog: "main",
			Schema:  "sales",
			Output:  "table",
			Directory: DirectoryConfig{
				Host: "https://dbc-123.cloud.example.com",
			},
			Warehouse: warehouseConfig("databricks"),
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "valid",
			mutate: func(c *Config) {},
		},
		{
			name:    "missing catalog",
			mutate:  func(c *Config) { c.Catalog = "" },
			wantErr: "catalog",
		},
		{
			name:    "dotted schema",
			mutate:  func(c *Config) { c.Schema = "a.b" },
			wantErr: "schema",
		},
		{
			name: "zero usage window with usage enabled",
			mutate: func(c *Config) {
				c.IncludeUsage = true
				c.UsageWindowDays = 0
			},
			wantErr: "usage_window_days",
		},
		{
			name:    "missing host",
			mutate:  func(c *Config) { c.Directory.Host = "" },
			wantErr: "catalog_api.host",
		},
		{
			name:    "bad output format",
			mutate:  func(c *Config) { c.Output = "xml" },
			wantErr: "xml",
		},
		{
			name:    "unknown engine",
			mutate:  func(c *Config) { c.Warehouse.Type = "oracle" },
			wantErr: "oracle",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestConfigValidateUsesCoreErrors(t *testing.T) {
	cfg := Config{Schema: "sales"}
	var invalid *core.InvalidArgumentError
	require.ErrorAs(t, cfg.Validate(), &invalid)
	assert.Equal(t, "catalog", invalid.Field)
}
