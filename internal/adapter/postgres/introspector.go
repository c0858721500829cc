package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/warequery/warequery/internal/core/domain"
	"github.com/warequery/warequery/internal/core/port"
)

// Introspector extracts table structure from PostgreSQL system catalogs.
type Introspector struct {
	pool    *pgxpool.Pool
	schemas []string // empty means all non-system schemas
}

func NewIntrospector(pool *pgxpool.Pool, schemas []string) *Introspector {
	return &Introspector{pool: pool, schemas: schemas}
}

func (in *Introspector) ListTables(ctx context.Context) ([]port.TableRef, error) {
	filter, args := schemaFilter(in.schemas, "t.table_schema", 1)
	query := fmt.Sprintf(queryListTables, filter)

	rows, err := in.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing tables: %w", err)
	}
	defer rows.Close()

	var refs []port.TableRef
	for rows.Next() {
		var r port.TableRef
		if err := rows.Scan(&r.Schema, &r.Name); err != nil {
			return nil, fmt.Errorf("scanning table row: %w", err)
		}
		refs = append(refs, r)
	}
	return refs, rows.Err()
}

func (in *Introspector) DescribeTable(ctx context.Context, ref port.TableRef, sampleSize int) (*domain.TableSchema, error) {
	t := &domain.TableSchema{Schema: ref.Schema, Name: ref.Name}

	var err error
	if t.Columns, err = in.fetchColumns(ctx, ref); err != nil {
		return nil, err
	}
	if t.PrimaryKeys, err = in.fetchPrimaryKeys(ctx, ref); err != nil {
		return nil, err
	}
	if t.ForeignKeys, err = in.fetchForeignKeys(ctx, ref); err != nil {
		return nil, err
	}
	if t.Indexes, err = in.fetchIndexes(ctx, ref); err != nil {
		return nil, err
	}

	// Comment is enrichment; ignore failures on exotic relation kinds.
	if comment, err := in.fetchComment(ctx, ref); err == nil {
		t.Comment = comment
	}

	if sampleSize > 0 {
		if t.RowCount, err = in.fetchExactCount(ctx, ref); err != nil {
			return nil, err
		}
		if t.SampleRows, err = in.fetchSampleRows(ctx, ref, sampleSize); err != nil {
			return nil, err
		}
	} else if t.RowCount, err = in.fetchRowEstimate(ctx, ref); err != nil {
		return nil, err
	}

	return t, nil
}

func (in *Introspector) fetchColumns(ctx context.Context, ref port.TableRef) ([]domain.Column, error) {
	rows, err := in.pool.Query(ctx, queryColumns, ref.Schema, ref.Name)
	if err != nil {
		return nil, fmt.Errorf("fetching columns for %s: %w", ref.Name, err)
	}
	defer rows.Close()

	var cols []domain.Column
	for rows.Next() {
		var c domain.Column
		if err := rows.Scan(&c.Name, &c.DataType, &c.Nullable, &c.Default); err != nil {
			return nil, fmt.Errorf("scanning column row: %w", err)
		}
		cols = append(cols, c)
	}
	return cols, rows.Err()
}

func (in *Introspector) fetchPrimaryKeys(ctx context.Context, ref port.TableRef) ([]string, error) {
	rows, err := in.pool.Query(ctx, queryPrimaryKeys, ref.Schema, ref.Name)
	if err != nil {
		return nil, fmt.Errorf("fetching primary keys for %s: %w", ref.Name, err)
	}
	defer rows.Close()

	var pks []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning primary key row: %w", err)
		}
		pks = append(pks, name)
	}
	return pks, rows.Err()
}

func (in *Introspector) fetchForeignKeys(ctx context.Context, ref port.TableRef) ([]domain.ForeignKey, error) {
	rows, err := in.pool.Query(ctx, queryForeignKeys, ref.Schema, ref.Name)
	if err != nil {
		return nil, fmt.Errorf("fetching foreign keys for %s: %w", ref.Name, err)
	}
	defer rows.Close()

	var fks []domain.ForeignKey
	byName := map[string]int{}
	for rows.Next() {
		var name, col, refTable, refCol string
		var ordinal int
		if err := rows.Scan(&name, &col, &refTable, &refCol, &ordinal); err != nil {
			return nil, fmt.Errorf("scanning foreign key row: %w", err)
		}
		i, ok := byName[name]
		if !ok {
			i = len(fks)
			byName[name] = i
			fks = append(fks, domain.ForeignKey{Name: name, ReferencedTable: refTable})
		}
		fks[i].Columns = append(fks[i].Columns, col)
		fks[i].ReferencedColumns = append(fks[i].ReferencedColumns, refCol)
	}
	return fks, rows.Err()
}

func (in *Introspector) fetchIndexes(ctx context.Context, ref port.TableRef) ([]domain.Index, error) {
	rows, err := in.pool.Query(ctx, queryIndexes, ref.Schema, ref.Name)
	if err != nil {
		return nil, fmt.Errorf("fetching indexes for %s: %w", ref.Name, err)
	}
	defer rows.Close()

	var idxs []domain.Index
	byName := map[string]int{}
	for rows.Next() {
		var name, col, def string
		var unique bool
		if err := rows.Scan(&name, &unique, &col, &def); err != nil {
			return nil, fmt.Errorf("scanning index row: %w", err)
		}
		i, ok := byName[name]
		if !ok {
			i = len(idxs)
			byName[name] = i
			idxs = append(idxs, domain.Index{Name: name, Unique: unique, Definition: def})
		}
		idxs[i].Columns = append(idxs[i].Columns, col)
	}
	return idxs, rows.Err()
}

func (in *Introspector) fetchComment(ctx context.Context, ref port.TableRef) (string, error) {
	var comment string
	err := in.pool.QueryRow(ctx, queryTableComment, ref.Schema, ref.Name).Scan(&comment)
	return comment, err
}

func (in *Introspector) fetchRowEstimate(ctx context.Context, ref port.TableRef) (int64, error) {
	var estimate int64
	err := in.pool.QueryRow(ctx, queryRowEstimate, ref.Schema, ref.Name).Scan(&estimate)
	if err != nil {
		return 0, fmt.Errorf("fetching row estimate for %s: %w", ref.Name, err)
	}
	if estimate < 0 {
		estimate = 0
	}
	return estimate, nil
}

func (in *Introspector) fetchExactCount(ctx context.Context, ref port.TableRef) (int64, error) {
	var count int64
	sql := fmt.Sprintf("SELECT count(*) FROM %s.%s", quoteIdent(ref.Schema), quoteIdent(ref.Name))
	if err := in.pool.QueryRow(ctx, sql).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting rows in %s: %w", ref.Name, err)
	}
	return count, nil
}

func (in *Introspector) fetchSampleRows(ctx context.Context, ref port.TableRef, sampleSize int) ([]map[string]any, error) {
	sql := fmt.Sprintf("SELECT * FROM %s.%s LIMIT %d", quoteIdent(ref.Schema), quoteIdent(ref.Name), sampleSize)
	rows, err := in.pool.Query(ctx, sql)
	if err != nil {
		return nil, fmt.Errorf("sampling rows from %s: %w", ref.Name, err)
	}
	defer rows.Close()
	return collectRows(rows, sampleSize)
}

// schemaFilter returns a WHERE fragment and args for filtering by schema.
// When schemas is empty, system schemas are excluded.
func schemaFilter(schemas []string, column string, paramOffset int) (string, []any) {
	if len(schemas) == 0 {
		return fmt.Sprintf("%s NOT IN ('pg_catalog', 'information_schema')", column), nil
	}
	placeholders := make([]string, len(schemas))
	args := make([]any, len(schemas))
	for i, s := range schemas {
		placeholders[i] = fmt.Sprintf("$%d", paramOffset+i)
		args[i] = s
	}
	return fmt.Sprintf("%s IN (%s)", column, strings.Join(placeholders, ", ")), args
}

// quoteIdent quotes a SQL identifier to prevent injection.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
