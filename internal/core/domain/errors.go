package domain

import "errors"

var (
	// ErrConnectionUnavailable means the database could not be reached; fatal to the request.
	ErrConnectionUnavailable = errors.New("database connection unavailable")
	// ErrCatalogNotReady means no schema extraction has completed yet.
	ErrCatalogNotReady = errors.New("schema catalog not ready")
	// ErrNoRelevantTable means no catalog table matched the question; planning stops.
	ErrNoRelevantTable = errors.New("no relevant table found")
	// ErrUnsafeQuery means the synthesized SQL was rejected by the safety validator
	// and was never executed.
	ErrUnsafeQuery = errors.New("query rejected as unsafe")
	// ErrConcurrencyLimit means the executor was at its ceiling; the caller may retry.
	ErrConcurrencyLimit = errors.New("concurrent query limit reached")
	// ErrStatementTimeout means the database cancelled the statement server-side.
	ErrStatementTimeout = errors.New("statement timed out")
	// ErrExecution wraps any other database-side failure.
	ErrExecution = errors.New("query execution failed")
	// ErrTableNotFound means a named table is not in the current catalog snapshot.
	ErrTableNotFound = errors.New("table not found in catalog")
)

// Retryable reports whether the error is transient and a retry may succeed.
func Retryable(err error) bool {
	return errors.Is(err, ErrConcurrencyLimit)
}
