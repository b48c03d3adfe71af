// Package stats provides the statistics query client: read-only storage
// figures (row count, size, file count, freshness) for one table, obtained
// through DESCRIBE-style introspection against the query engine. Probes
// never scan primary data.
package stats

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lakescan-io/lakescan/pkg/core"
	"github.com/lakescan-io/lakescan/pkg/warehouse"
)

// Client executes statistics probes. It holds a shared connection pool and
// is safe for concurrent use across table workers.
type Client struct {
	db     *sql.DB
	logger *slog.Logger
}

// New creates a statistics client. If logger is nil, a discard logger is used.
func New(db *sql.DB, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Client{db: db, logger: logger}
}

// GetStatistics probes storage statistics for one table.
//
// Probe failures that are local to the table (views without statistics,
// permission denials, timeouts) return an all-nil TableStatistics with an
// explanatory status; they are a normal outcome, not an error. Only an
// unreachable query engine returns QueryEngineUnavailableError.
func (c *Client) GetStatistics(ctx context.Context, ref core.TableRef) (*core.TableStatistics, error) {
	if err := ref.Validate(); err != nil {
		return nil, err
	}

	detail, err := c.describeDetail(ctx, ref)
	if err != nil {
		if warehouse.IsUnreachable(err) {
			return nil, &core.QueryEngineUnavailableError{Err: err}
		}
		c.logger.Debug("statistics probe failed", "table", ref.FullName(), "error", err)
		return core.Unavailable(probeReason(err)), nil
	}

	st := &core.TableStatistics{
		RowCount:     detail.int64Field("numRows"),
		SizeBytes:    detail.int64Field("sizeInBytes"),
		FileCount:    detail.int64Field("numFiles"),
		LastModified: detail.timeField("lastModified"),
		Status:       core.StatisticsOK,
	}

	// DESCRIBE DETAIL omits row counts for some formats; fall back to the
	// statistics line of the extended description before reporting unknown.
	if st.RowCount == nil {
		if rows, bytes, ok := c.describeExtendedStatistics(ctx, ref); ok {
			st.RowCount = rows
			if st.SizeBytes == nil {
				st.SizeBytes = bytes
			}
		}
	}

	c.logger.Debug("statistics collected", "table", ref.FullName(),
		"has_row_count", st.RowCount != nil, "has_size", st.SizeBytes != nil)
	return st, nil
}

// probeReason renders a probe failure into a status reason, folding timeouts
// into a stable message.
func probeReason(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "statistics probe timed out"
	}
	return err.Error()
}

// detailRow holds one DESCRIBE DETAIL result keyed by column name.
type detailRow map[string]any

// describeDetail runs DESCRIBE DETAIL and maps the single result row by
// column name, since engines differ in column order and presence.
func (c *Client) describeDetail(ctx context.Context, ref core.TableRef) (detailRow, error) {
	rows, err := c.db.QueryContext(ctx, "DESCRIBE DETAIL "+quoteRef(ref))
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("DESCRIBE DETAIL returned no rows for %s", ref.FullName())
	}

	values := make([]any, len(cols))
	valuePtrs := make([]any, len(cols))
	for i := range values {
		valuePtrs[i] = &values[i]
	}
	if err := rows.Scan(valuePtrs...); err != nil {
		return nil, err
	}

	detail := make(detailRow, len(cols))
	for i, col := range cols {
		detail[col] = values[i]
	}
	return detail, rows.Err()
}

func (d detailRow) int64Field(name string) *int64 {
	v, ok := d[name]
	if !ok || v == nil {
		return nil
	}
	switch n := v.(type) {
	case int64:
		return &n
	case int:
		i := int64(n)
		return &i
	case float64:
		i := int64(n)
		return &i
	case []byte:
		return parseInt64(string(n))
	case string:
		return parseInt64(n)
	default:
		return nil
	}
}

func (d detailRow) timeField(name string) *time.Time {
	v, ok := d[name]
	if !ok || v == nil {
		return nil
	}
	switch ts := v.(type) {
	case time.Time:
		u := ts.UTC()
		return &u
	case []byte:
		return parseTime(string(ts))
	case string:
		return parseTime(ts)
	default:
		return nil
	}
}

func parseInt64(s string) *int64 {
	var n int64
	if _, err := fmt.Sscanf(s, "%d", &n); err != nil {
		return nil
	}
	return &n
}

func parseTime(s string) *time.Time {
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05.999999999", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			u := t.UTC()
			return &u
		}
	}
	return nil
}

// quoteRef backtick-quotes each part of the three-level name. Parts are
// already validated to contain no dots or separators.
func quoteRef(ref core.TableRef) string {
	return fmt.Sprintf("`%s`.`%s`.`%s`", ref.Catalog, ref.Schema, ref.Table)
}
