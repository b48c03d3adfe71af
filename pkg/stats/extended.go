package stats

import (
	"context"
	"strings"

	"github.com/lakescan-io/lakescan/pkg/core"
)

// describeExtendedStatistics parses the "Statistics" line of DESCRIBE TABLE
// EXTENDED, which reports figures like "1234 bytes, 56 rows" when the engine
// maintains them. Best-effort: any failure reports no figures.
func (c *Client) describeExtendedStatistics(ctx context.Context, ref core.TableRef) (rowCount, sizeBytes *int64, ok bool) {
	rows, err := c.db.QueryContext(ctx, "DESCRIBE TABLE EXTENDED "+quoteRef(ref))
	if err != nil {
		return nil, nil, false
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var colName, dataType, comment string
		if err := rows.Scan(&colName, &dataType, &comment); err != nil {
			return nil, nil, false
		}
		if strings.TrimSpace(colName) != "Statistics" {
			continue
		}
		rowCount, sizeBytes = parseStatisticsLine(dataType)
		return rowCount, sizeBytes, true
	}
	return nil, nil, false
}

// parseStatisticsLine extracts "<n> bytes" and "<n> rows" figures from a
// statistics string such as "4096 bytes, 120 rows".
func parseStatisticsLine(s string) (rowCount, sizeBytes *int64) {
	fields := strings.Fields(strings.ReplaceAll(s, ",", " "))
	for i := 1; i < len(fields); i++ {
		switch fields[i] {
		case "rows":
			rowCount = parseInt64(fields[i-1])
		case "bytes":
			sizeBytes = parseInt64(fields[i-1])
		}
	}
	return rowCount, sizeBytes
}
