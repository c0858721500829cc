package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// wmsTables builds a small warehouse schema used across the package tests:
// order_lines references orders and items, inventory references items and
// storage_locations, shipments references orders.
func wmsTables() []*TableSchema {
	return []*TableSchema{
		{
			Name: "orders",
			Columns: []Column{
				{Name: "id", DataType: "bigint"},
				{Name: "customer_id", DataType: "bigint"},
				{Name: "status", DataType: "text"},
				{Name: "total_amount", DataType: "numeric"},
				{Name: "created_at", DataType: "timestamp with time zone"},
			},
			PrimaryKeys: []string{"id"},
			RowCount:    50000,
		},
		{
			Name: "order_lines",
			Columns: []Column{
				{Name: "id", DataType: "bigint"},
				{Name: "order_id", DataType: "bigint"},
				{Name: "item_id", DataType: "bigint"},
				{Name: "quantity", DataType: "integer"},
			},
			PrimaryKeys: []string{"id"},
			ForeignKeys: []ForeignKey{
				{Name: "fk_lines_order", Columns: []string{"order_id"}, ReferencedTable: "orders", ReferencedColumns: []string{"id"}},
				{Name: "fk_lines_item", Columns: []string{"item_id"}, ReferencedTable: "items", ReferencedColumns: []string{"id"}},
			},
			RowCount: 200000,
		},
		{
			Name: "items",
			Columns: []Column{
				{Name: "id", DataType: "bigint"},
				{Name: "sku", DataType: "text"},
				{Name: "description", DataType: "text"},
			},
			PrimaryKeys: []string{"id"},
			RowCount:    8000,
		},
		{
			Name: "inventory",
			Columns: []Column{
				{Name: "id", DataType: "bigint"},
				{Name: "item_id", DataType: "bigint"},
				{Name: "location_id", DataType: "bigint"},
				{Name: "quantity", DataType: "integer"},
				{Name: "updated_at", DataType: "timestamp with time zone"},
			},
			PrimaryKeys: []string{"id"},
			ForeignKeys: []ForeignKey{
				{Name: "fk_inv_item", Columns: []string{"item_id"}, ReferencedTable: "items", ReferencedColumns: []string{"id"}},
				{Name: "fk_inv_loc", Columns: []string{"location_id"}, ReferencedTable: "storage_locations", ReferencedColumns: []string{"id"}},
			},
			RowCount: 120000,
		},
		{
			Name: "storage_locations",
			Columns: []Column{
				{Name: "id", DataType: "bigint"},
				{Name: "zone", DataType: "text"},
				{Name: "aisle", DataType: "text"},
			},
			PrimaryKeys: []string{"id"},
			RowCount:    600,
		},
		{
			Name: "shipments",
			Columns: []Column{
				{Name: "id", DataType: "bigint"},
				{Name: "order_id", DataType: "bigint"},
				{Name: "carrier_id", DataType: "bigint"},
				{Name: "status", DataType: "text"},
				{Name: "shipped_at", DataType: "timestamp with time zone"},
			},
			PrimaryKeys: []string{"id"},
			ForeignKeys: []ForeignKey{
				{Name: "fk_ship_order", Columns: []string{"order_id"}, ReferencedTable: "orders", ReferencedColumns: []string{"id"}},
			},
			RowCount: 30000,
		},
	}
}

func wmsCatalog(t *testing.T) *Catalog {
	t.Helper()
	return NewCatalog(wmsTables())
}

func TestNewCatalog_Categorizes(t *testing.T) {
	t.Parallel()
	cat := wmsCatalog(t)

	orders, ok := cat.Table("orders")
	require.True(t, ok)
	assert.Equal(t, CategoryOrders, orders.Category)

	inv, ok := cat.Table("inventory")
	require.True(t, ok)
	assert.Equal(t, CategoryInventory, inv.Category)

	assert.Len(t, cat.TablesByCategory(CategoryOrders), 2) // orders, order_lines
	assert.Equal(t, 6, cat.Len())
}

func TestNewCatalog_SymmetricRelationships(t *testing.T) {
	t.Parallel()
	cat := wmsCatalog(t)

	lines, _ := cat.Table("order_lines")
	orders, _ := cat.Table("orders")

	assert.Contains(t, lines.Relationships, Relationship{
		Kind: RelReferences, Table: "orders", LocalColumn: "order_id", RemoteColumn: "id",
	})
	assert.Contains(t, orders.Relationships, Relationship{
		Kind: RelReferencedBy, Table: "order_lines", LocalColumn: "id", RemoteColumn: "order_id",
	})
}

func TestJoinPath_BothDirections(t *testing.T) {
	t.Parallel()
	cat := wmsCatalog(t)

	edge, ok := cat.JoinPath("order_lines", "orders")
	require.True(t, ok)
	assert.Equal(t, JoinEdge{From: "order_lines", To: "orders", FromColumn: "order_id", ToColumn: "id"}, edge)

	// Reverse edge exists because the graph is symmetric.
	edge, ok = cat.JoinPath("orders", "order_lines")
	require.True(t, ok)
	assert.Equal(t, JoinEdge{From: "orders", To: "order_lines", FromColumn: "id", ToColumn: "order_id"}, edge)

	_, ok = cat.JoinPath("orders", "storage_locations")
	assert.False(t, ok)
}

func TestJoinPathMultiHop(t *testing.T) {
	t.Parallel()
	cat := wmsCatalog(t)

	// orders -> order_lines -> items -> inventory -> storage_locations is 4
	// hops; orders to inventory is 3 and within the bound.
	path, ok := cat.JoinPathMultiHop("orders", "inventory")
	require.True(t, ok)
	assert.Len(t, path, 3)
	assert.Equal(t, "orders", path[0].From)
	assert.Equal(t, "inventory", path[len(path)-1].To)

	_, ok = cat.JoinPathMultiHop("orders", "storage_locations")
	assert.False(t, ok)

	_, ok = cat.JoinPathMultiHop("orders", "no_such_table")
	assert.False(t, ok)
}

func TestTables_DeterministicOrder(t *testing.T) {
	t.Parallel()
	cat := wmsCatalog(t)

	var names []string
	for _, tbl := range cat.Tables() {
		names = append(names, tbl.Name)
	}
	assert.Equal(t, []string{"inventory", "items", "order_lines", "orders", "shipments", "storage_locations"}, names)
}

func TestSQLName(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "orders", (&TableSchema{Schema: "public", Name: "orders"}).SQLName())
	assert.Equal(t, "orders", (&TableSchema{Name: "orders"}).SQLName())
	assert.Equal(t, "wms.orders", (&TableSchema{Schema: "wms", Name: "orders"}).SQLName())
}

func TestFirstDateColumn(t *testing.T) {
	t.Parallel()
	tbl := &TableSchema{Columns: []Column{
		{Name: "id", DataType: "bigint"},
		{Name: "ship_date", DataType: "text"},
		{Name: "created_at", DataType: "timestamp"},
	}}
	col, ok := tbl.FirstDateColumn()
	require.True(t, ok)
	assert.Equal(t, "ship_date", col.Name)

	_, ok = (&TableSchema{Columns: []Column{{Name: "id", DataType: "bigint"}}}).FirstDateColumn()
	assert.False(t, ok)
}

func TestFirstQuantityColumn(t *testing.T) {
	t.Parallel()
	tbl := &TableSchema{Columns: []Column{
		{Name: "id", DataType: "bigint"},
		{Name: "qty_on_hand", DataType: "integer"},
	}}
	col, ok := tbl.FirstQuantityColumn()
	require.True(t, ok)
	assert.Equal(t, "qty_on_hand", col.Name)
}
