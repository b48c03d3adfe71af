package warehouse

import (
	"fmt"
	"sort"
	"strings"

	_ "github.com/databricks/databricks-sql-go" // databricks driver
)

func init() {
	Register("databricks", buildDatabricksDSN)
}

// buildDatabricksDSN constructs a Databricks SQL warehouse connection string
// of the form token:<token>@<host>:<port>/<http-path>.
func buildDatabricksDSN(cfg Config) (string, string, error) {
	if cfg.Host == "" {
		return "", "", fmt.Errorf("databricks host is required")
	}
	if cfg.Token == "" {
		return "", "", fmt.Errorf("databricks token is required")
	}
	if cfg.HTTPPath == "" {
		return "", "", fmt.Errorf("databricks http_path is required")
	}

	host := strings.TrimPrefix(strings.TrimPrefix(cfg.Host, "https://"), "http://")
	port := cfg.Port
	if port == 0 {
		port = 443
	}

	httpPath := cfg.HTTPPath
	if !strings.HasPrefix(httpPath, "/") {
		httpPath = "/" + httpPath
	}

	dsn := fmt.Sprintf("token:%s@%s:%d%s", cfg.Token, host, port, httpPath)

	keys := make([]string, 0, len(cfg.Options))
	for k := range cfg.Options {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var params []string
	for _, k := range keys {
		params = append(params, fmt.Sprintf("%s=%s", k, cfg.Options[k]))
	}
	if len(params) > 0 {
		dsn += "?" + strings.Join(params, "&")
	}

	return "databricks", dsn, nil
}
