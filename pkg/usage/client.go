// Package usage provides the access-history client: windowed aggregation of
// audit-log records for one table. Usage is best-effort enrichment; when the
// audit source is not enabled the client reports absence, not an error.
package usage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/lakescan-io/lakescan/pkg/core"
	"github.com/lakescan-io/lakescan/pkg/warehouse"
)

// DefaultWindowDays is the default usage lookback window.
const DefaultWindowDays = 30

const accessQuery = `
SELECT
    COUNT(*) AS access_count,
    COUNT(DISTINCT user_identity.email) AS distinct_users,
    MAX(event_time) AS last_accessed
FROM system.access.table_lineage
WHERE target_table_full_name = ?
  AND event_time >= timestampadd(DAY, -?, current_timestamp())`

const patternsQuery = `
SELECT entity_type, COUNT(*) AS cnt
FROM system.access.table_lineage
WHERE target_table_full_name = ?
  AND event_time >= timestampadd(DAY, -?, current_timestamp())
  AND entity_type IS NOT NULL
GROUP BY entity_type
ORDER BY cnt DESC, entity_type
LIMIT 5`

// Client executes usage-history queries. Safe for concurrent use.
type Client struct {
	db     *sql.DB
	logger *slog.Logger
}

// New creates a usage client. If logger is nil, a discard logger is used.
func New(db *sql.DB, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Client{db: db, logger: logger}
}

// GetUsage aggregates access activity for one table over the trailing
// window. A nil record with nil error means the audit source is not enabled
// for this workspace; the table's record remains valid without usage.
func (c *Client) GetUsage(ctx context.Context, ref core.TableRef, windowDays int) (*core.UsageRecord, error) {
	if windowDays <= 0 {
		return nil, &core.InvalidArgumentError{Field: "windowDays", Reason: fmt.Sprintf("must be positive, got %d", windowDays)}
	}
	if err := ref.Validate(); err != nil {
		return nil, err
	}

	var (
		accessCount   int64
		distinctUsers sql.NullInt64
		lastAccessed  sql.NullTime
	)
	row := c.db.QueryRowContext(ctx, accessQuery, ref.FullName(), windowDays)
	if err := row.Scan(&accessCount, &distinctUsers, &lastAccessed); err != nil {
		if warehouse.IsUnreachable(err) {
			return nil, &core.QueryEngineUnavailableError{Err: err}
		}
		if isAuditSourceMissing(err) {
			c.logger.Debug("audit source not enabled", "table", ref.FullName())
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query usage for %s: %w", ref.FullName(), err)
	}

	rec := &core.UsageRecord{
		WindowDays:    windowDays,
		AccessCount:   accessCount,
		DistinctUsers: distinctUsers.Int64,
	}
	if lastAccessed.Valid {
		t := lastAccessed.Time.UTC()
		rec.LastAccessed = &t
	}

	// Top access patterns are optional enrichment; failures leave them nil.
	rec.TopAccessPatterns = c.topAccessPatterns(ctx, ref, windowDays)

	return rec, nil
}

// topAccessPatterns ranks the entity kinds accessing the table in the
// window. Best-effort.
func (c *Client) topAccessPatterns(ctx context.Context, ref core.TableRef, windowDays int) []string {
	rows, err := c.db.QueryContext(ctx, patternsQuery, ref.FullName(), windowDays)
	if err != nil {
		c.logger.Debug("access pattern query failed", "table", ref.FullName(), "error", err)
		return nil
	}
	defer func() { _ = rows.Close() }()

	var patterns []string
	for rows.Next() {
		var entity string
		var count int64
		if err := rows.Scan(&entity, &count); err != nil {
			return nil
		}
		patterns = append(patterns, fmt.Sprintf("%s (%d)", entity, count))
	}
	if err := rows.Err(); err != nil {
		return nil
	}
	return patterns
}

// isAuditSourceMissing detects the error the engine raises when the system
// audit tables do not exist, i.e. audit logging is not enabled.
func isAuditSourceMissing(err error) bool {
	msg := strings.ToUpper(err.Error())
	return strings.Contains(msg, "TABLE_OR_VIEW_NOT_FOUND") ||
		strings.Contains(msg, "SCHEMA_NOT_FOUND") ||
		strings.Contains(msg, "DOES NOT EXIST")
}
