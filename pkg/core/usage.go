package core

import "time"

// UsageRecord aggregates access-log activity for one table over a trailing
// window. Usage is best-effort enrichment; a table record is valid without it.
type UsageRecord struct {
	WindowDays    int        `json:"window_days"`
	AccessCount   int64      `json:"access_count"`
	DistinctUsers int64      `json:"distinct_users"`
	LastAccessed  *time.Time `json:"last_accessed"`
	// TopAccessPatterns lists the most frequent access entity kinds in the
	// window (e.g. "NOTEBOOK (12)"), most frequent first. Optional.
	TopAccessPatterns []string `json:"top_access_patterns,omitempty"`
}
