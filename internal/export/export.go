// Package export renders a collection report into its output formats. All
// exporters are pure functions of the report: exporting the same report
// twice produces byte-identical output.
package export

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/lakescan-io/lakescan/pkg/core"
)

// Format selects an output representation.
type Format string

// Supported output formats.
const (
	FormatJSON    Format = "json"
	FormatCSV     Format = "csv"
	FormatTable   Format = "table"
	FormatParquet Format = "parquet"
)

// UnknownFormatError is returned when an output format is not registered.
type UnknownFormatError struct {
	Format string
}

func (e *UnknownFormatError) Error() string {
	return fmt.Sprintf("unknown output format: %q (supported: %s)", e.Format, strings.Join(formatNames(), ", "))
}

// ParseFormat resolves a user-supplied format name.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatJSON:
		return FormatJSON, nil
	case FormatCSV:
		return FormatCSV, nil
	case FormatTable:
		return FormatTable, nil
	case FormatParquet:
		return FormatParquet, nil
	default:
		return "", &UnknownFormatError{Format: s}
	}
}

func formatNames() []string {
	names := []string{string(FormatCSV), string(FormatJSON), string(FormatParquet), string(FormatTable)}
	sort.Strings(names)
	return names
}

// Write renders the report to w in the given format.
func Write(w io.Writer, report *core.CollectionReport, format Format) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, report)
	case FormatCSV:
		return writeCSV(w, report)
	case FormatTable:
		return writeTable(w, report)
	case FormatParquet:
		return writeParquet(w, report)
	default:
		return &UnknownFormatError{Format: string(format)}
	}
}
