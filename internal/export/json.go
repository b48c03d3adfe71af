package export

import (
	"encoding/json"
	"io"

	"github.com/lakescan-io/lakescan/pkg/core"
)

// writeJSON emits the full report verbatim. Unknown values serialize as
// null, known zeroes as 0; consumers must not collapse the two.
func writeJSON(w io.Writer, report *core.CollectionReport) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
