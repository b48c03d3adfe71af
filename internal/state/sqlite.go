package state

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/lakescan-io/lakescan/pkg/core"
)

// SQLiteStore records run history in a SQLite database. It satisfies the
// coordinator's RunRecorder interface.
type SQLiteStore struct {
	db *sql.DB
}

// Open opens (and if needed creates) the run history database at path and
// brings its schema up to date. Use ":memory:" for an in-memory database.
func Open(path string) (*SQLiteStore, error) {
	dsn := path
	if path != ":memory:" {
		dsn = fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open state database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping state database: %w", err)
	}
	// The modernc driver serializes writes; a single connection avoids
	// SQLITE_BUSY on concurrent run updates.
	db.SetMaxOpenConns(1)

	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// CreateRun records a newly started run.
func (s *SQLiteStore) CreateRun(id, catalog, schema string) error {
	_, err := s.db.Exec(
		`INSERT INTO collection_runs (id, catalog_name, schema_name, status, started_at)
		 VALUES (?, ?, ?, ?, ?)`,
		id, catalog, schema, RunStatusRunning, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to create run: %w", err)
	}
	return nil
}

// CompleteRun records a run's final status and summary counts.
func (s *SQLiteStore) CompleteRun(id, status string, summary core.RunSummary, errMsg string) error {
	res, err := s.db.Exec(
		`UPDATE collection_runs
		 SET status = ?, completed_at = ?, tables_total = ?, tables_succeeded = ?,
		     tables_partial = ?, tables_failed = ?, error = ?
		 WHERE id = ?`,
		status, time.Now().UTC(),
		summary.TotalTables, summary.Succeeded, summary.Partial, summary.Failed,
		nullString(errMsg), id,
	)
	if err != nil {
		return fmt.Errorf("failed to complete run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("run not found: %s", id)
	}
	return nil
}

// GetRun retrieves one run by ID.
func (s *SQLiteStore) GetRun(id string) (*Run, error) {
	row := s.db.QueryRow(
		`SELECT id, catalog_name, schema_name, status, started_at, completed_at,
		        tables_total, tables_succeeded, tables_partial, tables_failed, error
		 FROM collection_runs WHERE id = ?`, id)

	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return run, nil
}

// ListRuns returns the most recent runs, newest first. limit <= 0 means a
// default of 20.
func (s *SQLiteStore) ListRuns(limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(
		`SELECT id, catalog_name, schema_name, status, started_at, completed_at,
		        tables_total, tables_succeeded, tables_partial, tables_failed, error
		 FROM collection_runs ORDER BY started_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*Run, error) {
	run := &Run{}
	var completedAt sql.NullTime
	var errMsg sql.NullString

	err := row.Scan(&run.ID, &run.Catalog, &run.Schema, &run.Status,
		&run.StartedAt, &completedAt,
		&run.TablesTotal, &run.TablesSucceeded, &run.TablesPartial, &run.TablesFailed,
		&errMsg)
	if err != nil {
		return nil, err
	}
	if completedAt.Valid {
		t := completedAt.Time
		run.CompletedAt = &t
	}
	run.Error = errMsg.String
	return run, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
