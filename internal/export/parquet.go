package export

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/xitongsys/parquet-go-source/buffer"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"

	"github.com/lakescan-io/lakescan/pkg/core"
)

// parquetRow is the flat per-table schema of the parquet export. Optional
// fields are pointers so unknown values become parquet nulls rather than
// sentinel zeroes.
type parquetRow struct {
	RunID   string `parquet:"name=run_id, type=BYTE_ARRAY, convertedtype=UTF8"`
	Catalog string `parquet:"name=catalog, type=BYTE_ARRAY, convertedtype=UTF8"`
	Schema  string `parquet:"name=schema, type=BYTE_ARRAY, convertedtype=UTF8"`
	Table   string `parquet:"name=table, type=BYTE_ARRAY, convertedtype=UTF8"`
	Status  string `parquet:"name=status, type=BYTE_ARRAY, convertedtype=UTF8"`

	TableType       *string `parquet:"name=table_type, type=BYTE_ARRAY, convertedtype=UTF8"`
	Format          *string `parquet:"name=format, type=BYTE_ARRAY, convertedtype=UTF8"`
	Owner           *string `parquet:"name=owner, type=BYTE_ARRAY, convertedtype=UTF8"`
	StorageLocation *string `parquet:"name=storage_location, type=BYTE_ARRAY, convertedtype=UTF8"`
	CreatedAt       *int64  `parquet:"name=created_at, type=INT64, convertedtype=TIMESTAMP_MILLIS"`
	UpdatedAt       *int64  `parquet:"name=updated_at, type=INT64, convertedtype=TIMESTAMP_MILLIS"`
	Properties      *string `parquet:"name=properties, type=BYTE_ARRAY, convertedtype=UTF8"`

	RowCount     *int64 `parquet:"name=row_count, type=INT64"`
	SizeBytes    *int64 `parquet:"name=size_bytes, type=INT64"`
	FileCount    *int64 `parquet:"name=file_count, type=INT64"`
	LastModified *int64 `parquet:"name=last_modified, type=INT64, convertedtype=TIMESTAMP_MILLIS"`

	AccessCount   *int64 `parquet:"name=access_count, type=INT64"`
	DistinctUsers *int64 `parquet:"name=distinct_users, type=INT64"`
	LastAccessed  *int64 `parquet:"name=last_accessed, type=INT64, convertedtype=TIMESTAMP_MILLIS"`

	FailureReason *string `parquet:"name=failure_reason, type=BYTE_ARRAY, convertedtype=UTF8"`
}

// writeParquet builds the file in memory and copies it to w. Reports are
// bounded by schema size, so buffering the whole file is acceptable.
func writeParquet(w io.Writer, report *core.CollectionReport) error {
	fw := buffer.NewBufferFile()
	pw, err := writer.NewParquetWriter(fw, new(parquetRow), 2)
	if err != nil {
		return fmt.Errorf("create parquet writer: %w", err)
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	for _, rec := range report.Records {
		if err := pw.Write(toParquetRow(report, rec)); err != nil {
			return fmt.Errorf("write record %s: %w", rec.Ref.FullName(), err)
		}
	}
	if err := pw.WriteStop(); err != nil {
		return fmt.Errorf("close parquet writer: %w", err)
	}

	_, err = w.Write(fw.Bytes())
	return err
}

func toParquetRow(report *core.CollectionReport, rec core.TableMetadataRecord) *parquetRow {
	row := &parquetRow{
		RunID:   report.RunID,
		Catalog: rec.Ref.Catalog,
		Schema:  rec.Ref.Schema,
		Table:   rec.Ref.Table,
		Status:  string(rec.Status),
	}

	if d := rec.Descriptor; d != nil {
		row.TableType = strp(string(d.Type))
		row.Format = strp(d.Format)
		row.Owner = strp(d.Owner)
		row.StorageLocation = strp(d.StorageLocation)
		row.CreatedAt = millisP(d.CreatedAt)
		row.UpdatedAt = millisP(d.UpdatedAt)
		if len(d.Properties) > 0 {
			if b, err := json.Marshal(d.Properties); err == nil {
				row.Properties = strp(string(b))
			}
		}
	}

	if s := rec.Statistics; s != nil {
		row.RowCount = s.RowCount
		row.SizeBytes = s.SizeBytes
		row.FileCount = s.FileCount
		row.LastModified = millisP(s.LastModified)
	}

	if u := rec.Usage; u != nil {
		count, users := u.AccessCount, u.DistinctUsers
		row.AccessCount = &count
		row.DistinctUsers = &users
		row.LastAccessed = millisP(u.LastAccessed)
	}

	if rec.Reason != "" {
		row.FailureReason = strp(rec.Reason)
	}
	return row
}

func strp(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func millisP(t *time.Time) *int64 {
	if t == nil {
		return nil
	}
	ms := t.UnixMilli()
	return &ms
}
