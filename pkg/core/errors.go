package core

import "fmt"

// NotFoundError is returned when a catalog, schema, or table does not exist.
type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found", e.Resource)
}

// AuthorizationError is returned when the caller lacks read privilege on the
// requested namespace.
type AuthorizationError struct {
	Resource string
	Reason   string
}

func (e *AuthorizationError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("not authorized to read %s: %s", e.Resource, e.Reason)
	}
	return fmt.Sprintf("not authorized to read %s", e.Resource)
}

// InvalidArgumentError is returned for invalid configuration or call
// arguments. These are caught by validation before any aggregation starts.
type InvalidArgumentError struct {
	Field  string
	Reason string
}

func (e *InvalidArgumentError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// DirectoryUnavailableError means the catalog directory could not be reached
// after bounded retries. Without table identity nothing else can proceed, so
// the coordinator treats this as run-fatal.
type DirectoryUnavailableError struct {
	Err error
}

func (e *DirectoryUnavailableError) Error() string {
	return fmt.Sprintf("catalog directory unavailable: %v", e.Err)
}

func (e *DirectoryUnavailableError) Unwrap() error { return e.Err }

// QueryEngineUnavailableError means the query engine itself is unreachable,
// as opposed to a single probe failing. The aggregator records it per table;
// the coordinator classifies it as a mid-run outage.
type QueryEngineUnavailableError struct {
	Err error
}

func (e *QueryEngineUnavailableError) Error() string {
	return fmt.Sprintf("query engine unavailable: %v", e.Err)
}

func (e *QueryEngineUnavailableError) Unwrap() error { return e.Err }

// RunAbortedError means the run failed before any table could be aggregated.
type RunAbortedError struct {
	Reason string
	Err    error
}

func (e *RunAbortedError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("run aborted: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("run aborted: %s", e.Reason)
}

func (e *RunAbortedError) Unwrap() error { return e.Err }
