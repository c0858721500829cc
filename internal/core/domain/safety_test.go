package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_DenylistRejects(t *testing.T) {
	tests := []struct {
		name string
		sql  string
	}{
		{"drop", "DROP TABLE orders"},
		{"delete", "DELETE FROM orders WHERE id = 1"},
		{"truncate", "TRUNCATE orders"},
		{"update", "UPDATE orders SET status = 'x'"},
		{"insert", "INSERT INTO orders VALUES (1)"},
		{"lowercase", "drop table orders"},
		{"mixed case", "DrOp TaBlE orders"},
		{"inside select", "SELECT * FROM orders; DROP TABLE orders"},
		{"in comment", "SELECT id FROM orders -- drop table orders"},
		{"in string literal", "SELECT id FROM orders WHERE note = 'please delete me'"},
		{"grant", "GRANT ALL ON orders TO intruder"},
		{"exec", "EXEC sp_who"},
		{"xp_cmdshell", "SELECT 1; xp_cmdshell 'dir'"},
	}

	v := NewSafetyValidator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := v.Validate(tt.sql)
			assert.False(t, res.Safe)
			assert.Equal(t, 0.0, res.Score)
			assert.NotEmpty(t, res.Violations)
		})
	}
}

func TestValidate_DenylistWordBoundaries(t *testing.T) {
	t.Parallel()
	v := NewSafetyValidator()

	// Keywords embedded in identifiers must not trip the denylist: the
	// underscore and adjacent letters keep them from matching as words.
	res := v.Validate("SELECT created_at, updated_at FROM bulk_orders WHERE dropped_flag = false")
	assert.True(t, res.Safe, strings.Join(res.Violations, "; "))
}

func TestValidate_OnlySingleSelect(t *testing.T) {
	t.Parallel()
	v := NewSafetyValidator()

	res := v.Validate("SELECT id FROM orders WHERE status = 'open'; SELECT id FROM items")
	assert.False(t, res.Safe)
	assert.Contains(t, res.Violations[0], "multiple statements")

	res = v.Validate("this is not sql at all")
	assert.False(t, res.Safe)

	res = v.Validate("   ")
	assert.False(t, res.Safe)

	res = v.Validate("EXPLAIN SELECT id FROM orders WHERE id = 1")
	assert.True(t, res.Safe)
}

func TestValidate_SoftScoring(t *testing.T) {
	t.Parallel()
	v := NewSafetyValidator()

	// Clean query keeps a perfect score.
	res := v.Validate("SELECT id, status FROM orders WHERE status = 'open'")
	require.True(t, res.Safe)
	assert.Equal(t, 1.0, res.Score)
	assert.Empty(t, res.Warnings)

	// SELECT * costs 0.1.
	res = v.Validate("SELECT * FROM orders WHERE id = 1")
	assert.InDelta(t, 0.9, res.Score, 1e-9)

	// Missing WHERE costs 0.2.
	res = v.Validate("SELECT id FROM orders")
	assert.InDelta(t, 0.8, res.Score, 1e-9)

	// Both accumulate.
	res = v.Validate("SELECT * FROM orders")
	assert.InDelta(t, 0.7, res.Score, 1e-9)
	assert.Len(t, res.Warnings, 2)
}

func TestValidate_CrossJoinWithoutCondition(t *testing.T) {
	t.Parallel()
	v := NewSafetyValidator()

	res := v.Validate("SELECT o.id FROM orders o CROSS JOIN items i WHERE o.id = 1")
	require.True(t, res.Safe)
	assert.InDelta(t, 0.7, res.Score, 1e-9)
	assert.Contains(t, strings.Join(res.Warnings, "; "), "cartesian")

	res = v.Validate("SELECT o.id FROM orders o JOIN items i ON o.item_id = i.id WHERE o.id = 1")
	assert.Equal(t, 1.0, res.Score)
}

func TestValidate_DeepSubqueries(t *testing.T) {
	t.Parallel()
	v := NewSafetyValidator()

	sql := `SELECT id FROM orders WHERE id IN (SELECT order_id FROM order_lines WHERE item_id IN (SELECT id FROM items WHERE sku IN (SELECT sku FROM items WHERE id = 1)))`
	res := v.Validate(sql)
	require.True(t, res.Safe)
	assert.InDelta(t, 0.9, res.Score, 1e-9)
	assert.Contains(t, strings.Join(res.Warnings, "; "), "subqueries")
}

func TestValidate_ScoreFloorsAtZero(t *testing.T) {
	t.Parallel()
	v := NewSafetyValidator()

	// Every soft penalty at once still yields a non-negative, safe result.
	sql := "SELECT * FROM orders o CROSS JOIN items i CROSS JOIN shipments s"
	res := v.Validate(sql)
	require.True(t, res.Safe)
	assert.GreaterOrEqual(t, res.Score, 0.0)
}
