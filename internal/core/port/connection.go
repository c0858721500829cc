package port

import (
	"context"

	"github.com/warequery/warequery/internal/core/domain"
)

// TableRef identifies one table during introspection.
type TableRef struct {
	Schema string
	Name   string
}

// SchemaIntrospector reads table structure from a live database. Extraction
// calls it once per rebuild; the results feed the immutable catalog snapshot.
type SchemaIntrospector interface {
	// ListTables enumerates every table in the non-system schemas.
	ListTables(ctx context.Context) ([]TableRef, error)
	// DescribeTable extracts one table: columns, keys, and indexes. When
	// sampleSize > 0 it also collects an exact row count plus up to
	// sampleSize sample rows. Category and relationships are left for the
	// catalog build.
	DescribeTable(ctx context.Context, ref TableRef, sampleSize int) (*domain.TableSchema, error)
}

// QueryRunner executes already-validated SQL. Implementations enforce the
// concurrency ceiling and the server-side statement timeout, bound the result
// with an outer LIMIT of maxRows when it is positive, and return normalized
// rows.
type QueryRunner interface {
	Run(ctx context.Context, sql string, maxRows int) ([]map[string]any, error)
}
