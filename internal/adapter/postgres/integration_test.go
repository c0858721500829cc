package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/warequery/warequery/internal/adapter/postgres"
	"github.com/warequery/warequery/internal/core/domain"
	"github.com/warequery/warequery/internal/core/port"
)

// testSchemaWMS is a small warehouse schema with a join edge and enough seed
// data to exercise sampling and row caps.
const testSchemaWMS = `
	CREATE TABLE orders (
		id           BIGSERIAL PRIMARY KEY,
		status       TEXT NOT NULL CHECK (status IN ('pending', 'shipped', 'cancelled')),
		customer_ref TEXT,
		created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
	);
	CREATE INDEX idx_orders_status ON orders(status);
	COMMENT ON TABLE orders IS 'Customer orders';

	CREATE TABLE order_lines (
		id       BIGSERIAL PRIMARY KEY,
		order_id BIGINT NOT NULL REFERENCES orders(id),
		item_sku TEXT NOT NULL,
		quantity INTEGER NOT NULL
	);

	INSERT INTO orders (status, customer_ref, created_at)
	SELECT
		CASE (i % 3) WHEN 0 THEN 'pending' WHEN 1 THEN 'shipped' ELSE 'cancelled' END,
		'CUST-' || i,
		now() - (i || ' hours')::interval
	FROM generate_series(1, 30) AS i;

	INSERT INTO order_lines (order_id, item_sku, quantity)
	SELECT (i % 30) + 1, 'SKU-' || (i % 7), (i % 9) + 1
	FROM generate_series(1, 60) AS i;
`

func setupWarehouseDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("testdb"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)
	t.Cleanup(func() { pool.Close() })

	_, err = pool.Exec(ctx, testSchemaWMS)
	require.NoError(t, err)

	_, err = pool.Exec(ctx, "ANALYZE")
	require.NoError(t, err)

	return pool
}

func TestIntrospector_ListTables(t *testing.T) {
	pool := setupWarehouseDB(t)
	intro := postgres.NewIntrospector(pool, nil)

	refs, err := intro.ListTables(context.Background())
	require.NoError(t, err)

	names := map[string]string{}
	for _, r := range refs {
		names[r.Name] = r.Schema
	}
	assert.Equal(t, "public", names["orders"])
	assert.Equal(t, "public", names["order_lines"])
}

func TestIntrospector_ListTables_SchemaFilter(t *testing.T) {
	pool := setupWarehouseDB(t)
	intro := postgres.NewIntrospector(pool, []string{"nonexistent"})

	refs, err := intro.ListTables(context.Background())
	require.NoError(t, err)
	assert.Empty(t, refs)
}

func TestIntrospector_DescribeTable(t *testing.T) {
	pool := setupWarehouseDB(t)
	intro := postgres.NewIntrospector(pool, nil)
	ref := port.TableRef{Schema: "public", Name: "order_lines"}

	table, err := intro.DescribeTable(context.Background(), ref, 0)
	require.NoError(t, err)

	assert.Equal(t, "order_lines", table.Name)
	assert.Equal(t, []string{"id"}, table.PrimaryKeys)

	colNames := map[string]bool{}
	for _, c := range table.Columns {
		colNames[c.Name] = true
	}
	assert.True(t, colNames["order_id"])
	assert.True(t, colNames["quantity"])

	require.Len(t, table.ForeignKeys, 1)
	fk := table.ForeignKeys[0]
	assert.Equal(t, "orders", fk.ReferencedTable)
	assert.Equal(t, []string{"order_id"}, fk.Columns)
	assert.Equal(t, []string{"id"}, fk.ReferencedColumns)

	// sampleSize 0 uses the planner estimate and skips sample rows.
	assert.Empty(t, table.SampleRows)
	assert.GreaterOrEqual(t, table.RowCount, int64(0))
}

func TestIntrospector_DescribeTable_WithSamples(t *testing.T) {
	pool := setupWarehouseDB(t)
	intro := postgres.NewIntrospector(pool, nil)
	ref := port.TableRef{Schema: "public", Name: "orders"}

	table, err := intro.DescribeTable(context.Background(), ref, 3)
	require.NoError(t, err)

	assert.Equal(t, "Customer orders", table.Comment)
	assert.Equal(t, int64(30), table.RowCount, "sampling mode counts exactly")

	require.Len(t, table.SampleRows, 3)
	for _, row := range table.SampleRows {
		assert.Contains(t, row, "id")
		assert.Contains(t, row, "status")
	}

	idxNames := map[string]bool{}
	for _, idx := range table.Indexes {
		idxNames[idx.Name] = true
	}
	assert.True(t, idxNames["orders_pkey"])
	assert.True(t, idxNames["idx_orders_status"])
}

func TestExecutor_Run(t *testing.T) {
	pool := setupWarehouseDB(t)
	executor := postgres.NewExecutor(pool, 10, 10*time.Second)

	rows, err := executor.Run(context.Background(),
		"SELECT COUNT(*) AS total_count FROM orders WHERE orders.status = 'pending'", 100)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(10), rows[0]["total_count"])
}

func TestExecutor_Run_RowCap(t *testing.T) {
	pool := setupWarehouseDB(t)
	executor := postgres.NewExecutor(pool, 10, 10*time.Second)

	rows, err := executor.Run(context.Background(), "SELECT id FROM orders ORDER BY id", 4)
	require.NoError(t, err)
	assert.Len(t, rows, 4, "wrapped LIMIT must cap what the server returns")
}

func TestExecutor_Run_NormalizesValues(t *testing.T) {
	pool := setupWarehouseDB(t)
	executor := postgres.NewExecutor(pool, 10, 10*time.Second)

	rows, err := executor.Run(context.Background(),
		"SELECT id, created_at, customer_ref FROM orders ORDER BY id LIMIT 1", 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	ts, ok := rows[0]["created_at"].(string)
	require.True(t, ok, "timestamps come back as strings")
	_, err = time.Parse(time.RFC3339, ts)
	assert.NoError(t, err)
}

func TestExecutor_Run_StatementTimeout(t *testing.T) {
	pool := setupWarehouseDB(t)
	executor := postgres.NewExecutor(pool, 10, time.Second)

	_, err := executor.Run(context.Background(), "SELECT pg_sleep(10)", 10)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrStatementTimeout)
}

func TestExecutor_Run_ReadOnlyTransaction(t *testing.T) {
	pool := setupWarehouseDB(t)
	executor := postgres.NewExecutor(pool, 10, 10*time.Second)

	// maxRows 0 skips the SELECT wrapper so the statement reaches the
	// read-only transaction as-is.
	_, err := executor.Run(context.Background(), "INSERT INTO orders (status) VALUES ('pending')", 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrExecution)
	assert.Contains(t, err.Error(), "read-only")
}

func TestExecutor_Run_BadSQL(t *testing.T) {
	pool := setupWarehouseDB(t)
	executor := postgres.NewExecutor(pool, 10, 10*time.Second)

	_, err := executor.Run(context.Background(), "SELECT nope FROM missing_table", 10)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrExecution)
	assert.NotErrorIs(t, err, domain.ErrStatementTimeout)
}
