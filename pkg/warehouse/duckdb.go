package warehouse

import (
	_ "github.com/marcboeker/go-duckdb" // duckdb driver
)

func init() {
	Register("duckdb", buildDuckDBDSN)
}

// buildDuckDBDSN uses the database file path directly; empty means an
// in-memory database. Useful for probing local snapshots of a schema.
func buildDuckDBDSN(cfg Config) (string, string, error) {
	return "duckdb", cfg.Path, nil
}
