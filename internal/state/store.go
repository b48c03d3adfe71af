// Package state persists collection run history in a local SQLite database
// with schema migrations.
package state

import "time"

// Run statuses as stored in the run history.
const (
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusTruncated = "truncated"
	RunStatusFailed    = "failed"
)

// Run is one collection run's history entry.
type Run struct {
	ID          string
	Catalog     string
	Schema      string
	Status      string
	StartedAt   time.Time
	CompletedAt *time.Time

	TablesTotal     int
	TablesSucceeded int
	TablesPartial   int
	TablesFailed    int

	// Error holds the abort or truncation reason for unsuccessful runs.
	Error string
}
