package export

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/lakescan-io/lakescan/pkg/core"
)

// writeTable renders a human-readable summary view. Unknown values render
// as "-" to stay distinguishable from a reported zero.
func writeTable(w io.Writer, report *core.CollectionReport) error {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)

	header := table.Row{"TABLE", "TYPE", "STATUS", "ROWS", "SIZE", "FILES", "LAST MODIFIED"}
	withUsage := report.Parameters.IncludeUsage
	if withUsage {
		header = append(header, "ACCESSES", "USERS")
	}
	t.AppendHeader(header)

	for _, rec := range report.Records {
		row := table.Row{
			rec.Ref.Table,
			cellTableType(rec.Descriptor),
			string(rec.Status),
			cellInt(statField(rec, func(s *core.TableStatistics) *int64 { return s.RowCount })),
			cellSize(statField(rec, func(s *core.TableStatistics) *int64 { return s.SizeBytes })),
			cellInt(statField(rec, func(s *core.TableStatistics) *int64 { return s.FileCount })),
			cellTime(statTime(rec)),
		}
		if withUsage {
			if rec.Usage != nil {
				row = append(row,
					strconv.FormatInt(rec.Usage.AccessCount, 10),
					strconv.FormatInt(rec.Usage.DistinctUsers, 10))
			} else {
				row = append(row, "-", "-")
			}
		}
		t.AppendRow(row)
	}

	t.Render()

	s := report.Summary
	_, _ = fmt.Fprintf(w, "%d tables: %d succeeded, %d partial, %d failed\n",
		s.TotalTables, s.Succeeded, s.Partial, s.Failed)
	if s.TotalRows > 0 || s.TotalSizeBytes > 0 {
		_, _ = fmt.Fprintf(w, "total: %d rows, %s\n", s.TotalRows, humanSize(s.TotalSizeBytes))
	}
	return nil
}

func statField(rec core.TableMetadataRecord, pick func(*core.TableStatistics) *int64) *int64 {
	if rec.Statistics == nil {
		return nil
	}
	return pick(rec.Statistics)
}

func statTime(rec core.TableMetadataRecord) *time.Time {
	if rec.Statistics == nil {
		return nil
	}
	return rec.Statistics.LastModified
}

func cellTableType(d *core.TableDescriptor) string {
	if d == nil {
		return "-"
	}
	return string(d.Type)
}

func cellInt(v *int64) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatInt(*v, 10)
}

func cellSize(v *int64) string {
	if v == nil {
		return "-"
	}
	return humanSize(*v)
}

func cellTime(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.UTC().Format("2006-01-02 15:04")
}

func humanSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
