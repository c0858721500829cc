package port

import "context"

// AuditEntry records one natural-language query event, including rejected
// ones.
type AuditEntry struct {
	QueryID      string
	Tool         string
	Question     string
	SQL          string
	RowsReturned int
	DurationMS   int64
	Fallback     string // name of the fallback used, empty for direct answers
	Rejected     bool   // true when the safety validator refused the SQL
	Err          error
}

// QueryAuditor records query audit events.
type QueryAuditor interface {
	Record(ctx context.Context, entry AuditEntry)
	Close() error
}
