package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"
	"time"

	"github.com/lakescan-io/lakescan/pkg/core"
)

// csvHeader is the fixed column set of the CSV export. Column order is part
// of the format and must not change between runs.
var csvHeader = []string{
	"catalog", "schema", "table", "status",
	"table_type", "format", "owner", "storage_location",
	"created_at", "updated_at",
	"row_count", "size_bytes", "file_count", "last_modified",
	"access_count", "distinct_users", "last_accessed",
	"properties", "failure_reason",
}

// writeCSV emits one row per table record. Unknown values render as empty
// cells; known zeroes render as "0".
func writeCSV(w io.Writer, report *core.CollectionReport) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, rec := range report.Records {
		if err := cw.Write(csvRow(rec)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func csvRow(rec core.TableMetadataRecord) []string {
	row := []string{
		rec.Ref.Catalog, rec.Ref.Schema, rec.Ref.Table, string(rec.Status),
	}

	if d := rec.Descriptor; d != nil {
		row = append(row, string(d.Type), d.Format, d.Owner, d.StorageLocation,
			csvTime(d.CreatedAt), csvTime(d.UpdatedAt))
	} else {
		row = append(row, "", "", "", "", "", "")
	}

	if s := rec.Statistics; s != nil {
		row = append(row, csvInt(s.RowCount), csvInt(s.SizeBytes), csvInt(s.FileCount), csvTime(s.LastModified))
	} else {
		row = append(row, "", "", "", "")
	}

	if u := rec.Usage; u != nil {
		row = append(row,
			strconv.FormatInt(u.AccessCount, 10),
			strconv.FormatInt(u.DistinctUsers, 10),
			csvTime(u.LastAccessed))
	} else {
		row = append(row, "", "", "")
	}

	row = append(row, csvProperties(rec.Descriptor), rec.Reason)
	return row
}

func csvInt(v *int64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatInt(*v, 10)
}

func csvTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

// csvProperties packs the property map into one compact JSON cell. Map
// marshalling sorts keys, so the cell is deterministic.
func csvProperties(d *core.TableDescriptor) string {
	if d == nil || len(d.Properties) == 0 {
		return ""
	}
	b, err := json.Marshal(d.Properties)
	if err != nil {
		return ""
	}
	return string(b)
}
