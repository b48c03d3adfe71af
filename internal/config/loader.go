package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// Config file names searched in the working directory.
const (
	ConfigFileName    = "lakescan.yaml"
	ConfigFileNameAlt = "lakescan.yml"
)

// envPrefix is the environment variable prefix. A double underscore maps to
// a nesting level: LAKESCAN_WAREHOUSE__TOKEN -> warehouse.token.
const envPrefix = "LAKESCAN_"

// findConfigFile resolves the config file to use.
// Priority: explicit path > lakescan.yaml > lakescan.yml
func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	for _, name := range []string{ConfigFileName, ConfigFileNameAlt} {
		if _, err := os.Stat(name); err == nil {
			return name
		}
	}
	return ""
}

// Load builds the configuration.
// Precedence (highest to lowest): flags > env vars > config file > defaults
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(map[string]interface{}{
		"output":            DefaultOutput,
		"state_path":        DefaultStateFile,
		"concurrency":       DefaultConcurrency,
		"usage_window_days": DefaultUsageWindowDays,
		"include_usage":     true,
		"verbose":           false,
		"warehouse.type":    "databricks",
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if used := findConfigFile(cfgFile); used != "" {
		if err := k.Load(file.Provider(used), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", used, err)
		}
	}

	// LAKESCAN_CATALOG -> catalog, LAKESCAN_CATALOG_API__TOKEN -> catalog_api.token
	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, envPrefix))
		return strings.ReplaceAll(key, "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed {
				return "", nil
			}
			// Transform kebab-case flag names to snake_case config keys.
			key := strings.ReplaceAll(f.Name, "-", "_")

			// --host and --token are shorthands for the directory client;
			// --state maps to the state_path config key.
			switch key {
			case "host":
				return "catalog_api.host", posflag.FlagVal(flags, f)
			case "token":
				return "catalog_api.token", posflag.FlagVal(flags, f)
			case "state":
				return "state_path", posflag.FlagVal(flags, f)
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Expand ${VAR} in credential fields so tokens never need to live in the
	// config file.
	cfg.Directory.Token = expandEnvVars(cfg.Directory.Token)
	cfg.Warehouse.Token = expandEnvVars(cfg.Warehouse.Token)
	cfg.Warehouse.Password = expandEnvVars(cfg.Warehouse.Password)
	cfg.Warehouse.User = expandEnvVars(cfg.Warehouse.User)
	cfg.Warehouse.Host = expandEnvVars(cfg.Warehouse.Host)
	cfg.Directory.Host = expandEnvVars(cfg.Directory.Host)

	return &cfg, nil
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars expands ${VAR} patterns with environment variable values.
// Unset variables are left as-is.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		name := match[2 : len(match)-1]
		if val := os.Getenv(name); val != "" {
			return val
		}
		return match
	})
}
