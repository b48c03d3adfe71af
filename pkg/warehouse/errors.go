package warehouse

import (
	"database/sql"
	"database/sql/driver"
	"errors"
	"net"
	"syscall"
)

// IsUnreachable reports whether err indicates the query engine itself cannot
// be reached, as opposed to a single statement failing. Timeouts are not
// unreachability: a slow probe is a per-table outcome, not an engine outage.
func IsUnreachable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) {
		return true
	}
	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.EHOSTUNREACH) || errors.Is(err, syscall.EPIPE) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return !netErr.Timeout()
	}
	return false
}
