package core

import "time"

// StatisticsStatus describes the outcome of a statistics probe.
type StatisticsStatus string

const (
	// StatisticsOK means the probe succeeded. Individual fields may still be
	// nil when the engine does not report them for this object.
	StatisticsOK StatisticsStatus = "ok"
	// StatisticsUnavailable means statistics do not exist for this object
	// (views, permission denials, probe timeouts). Not an error.
	StatisticsUnavailable StatisticsStatus = "unavailable"
)

// TableStatistics holds storage-level figures for one table. Nil fields mean
// the value is unknown; a present zero means the engine reported zero. The
// two states are distinct and must never be conflated.
type TableStatistics struct {
	RowCount     *int64           `json:"row_count"`
	SizeBytes    *int64           `json:"size_bytes"`
	FileCount    *int64           `json:"file_count"`
	LastModified *time.Time       `json:"last_modified"`
	Status       StatisticsStatus `json:"status"`
	StatusReason string           `json:"status_reason,omitempty"`
}

// Unavailable builds an all-nil TableStatistics carrying the reason why no
// figures could be obtained.
func Unavailable(reason string) *TableStatistics {
	return &TableStatistics{Status: StatisticsUnavailable, StatusReason: reason}
}
