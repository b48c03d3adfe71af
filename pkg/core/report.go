package core

import "time"

// RunParameters echoes the configuration one run was invoked with, so a
// report is self-describing.
type RunParameters struct {
	IncludeUsage    bool   `json:"include_usage"`
	UsageWindowDays int    `json:"usage_window_days"`
	Concurrency     int    `json:"concurrency"`
	TableFilter     string `json:"table_filter,omitempty"`
}

// RunSummary rolls up the per-table outcomes of one run.
type RunSummary struct {
	TotalTables    int            `json:"total_tables"`
	Succeeded      int            `json:"succeeded"`
	Partial        int            `json:"partial"`
	Failed         int            `json:"failed"`
	TablesWithData int            `json:"tables_with_data"`
	TotalRows      int64          `json:"total_rows"`
	TotalSizeBytes int64          `json:"total_size_bytes"`
	TableTypes     map[string]int `json:"table_types,omitempty"`
	Formats        map[string]int `json:"formats,omitempty"`
	LargestTable   string         `json:"largest_table,omitempty"`
	MostRows       string         `json:"most_rows,omitempty"`
}

// CollectionReport is the aggregate result of one run: every table in the
// target schema appears exactly once, in the directory's listing order.
// The report is handed off immutably to the exporter.
type CollectionReport struct {
	RunID       string                `json:"run_id"`
	Catalog     string                `json:"catalog"`
	Schema      string                `json:"schema"`
	Parameters  RunParameters         `json:"parameters"`
	StartedAt   time.Time             `json:"started_at"`
	CompletedAt time.Time             `json:"completed_at"`
	Records     []TableMetadataRecord `json:"tables"`
	Summary     RunSummary            `json:"summary"`
}

// BuildSummary computes the run summary from a record set.
func BuildSummary(records []TableMetadataRecord) RunSummary {
	s := RunSummary{
		TotalTables: len(records),
		TableTypes:  make(map[string]int),
		Formats:     make(map[string]int),
	}

	var largestSize, mostRows int64
	for _, rec := range records {
		switch rec.Status {
		case RecordStatusSuccess:
			s.Succeeded++
		case RecordStatusPartial:
			s.Partial++
		case RecordStatusFailed:
			s.Failed++
		}

		if rec.Descriptor != nil {
			typ := string(rec.Descriptor.Type)
			if typ == "" {
				typ = string(TableTypeUnknown)
			}
			s.TableTypes[typ]++
			if rec.Descriptor.Format != "" {
				s.Formats[rec.Descriptor.Format]++
			}
		}

		if rec.Statistics == nil {
			continue
		}
		if rc := rec.Statistics.RowCount; rc != nil {
			s.TotalRows += *rc
			if *rc > 0 {
				s.TablesWithData++
			}
			if *rc > mostRows {
				mostRows = *rc
				s.MostRows = rec.Ref.Table
			}
		}
		if sb := rec.Statistics.SizeBytes; sb != nil {
			s.TotalSizeBytes += *sb
			if *sb > largestSize {
				largestSize = *sb
				s.LargestTable = rec.Ref.Table
			}
		}
	}

	return s
}
