package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyze_Intent(t *testing.T) {
	tests := []struct {
		name string
		text string
		want QueryType
	}{
		{"how many", "how many orders shipped last week", QueryCount},
		{"count", "count of open pick tasks", QueryCount},
		{"show", "show pending orders", QuerySelect},
		{"list", "list all carriers", QuerySelect},
		{"summary", "summary of inventory by zone", QuerySummary},
		{"trend", "order volume trend per day", QueryTrend},
		{"comparison", "compare picking versus packing throughput", QueryComparison},
		{"default", "pending orders", QuerySelect},
		// Count outranks every later intent when phrases overlap.
		{"count beats list", "show me how many orders there are", QueryCount},
		{"list beats summary", "show a summary of shipments", QuerySelect},
	}

	a := NewAnalyzer()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, a.Analyze(tt.text).Intent)
		})
	}
}

func TestAnalyze_Statuses(t *testing.T) {
	t.Parallel()
	a := NewAnalyzer()

	got := a.Analyze("how many pending orders were shipped")
	assert.Equal(t, []string{"pending", "shipped"}, got.Statuses)

	// Substring hits are not statuses: "opened" is not "open".
	got = a.Analyze("orders opened by the system")
	assert.Empty(t, got.Statuses)
}

func TestAnalyze_TimePhrases(t *testing.T) {
	a := NewAnalyzer()

	tests := []struct {
		name          string
		text          string
		wantPhrase    string
		wantReduction float64
	}{
		{"today", "receipts today", "today", 0.01},
		{"yesterday", "receipts yesterday", "yesterday", 0.01},
		{"last week", "orders from last week", "last week", 0.1},
		{"this week", "orders this week", "this week", 0.1},
		{"last month", "shipments last month", "last month", 0.25},
		{"this month", "shipments this month", "this month", 0.25},
		{"last n days short", "orders from the last 5 days", "last 5 days", 0.1},
		{"last n days long", "orders from the last 30 days", "last 30 days", 0.25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := a.Analyze(tt.text)
			require.NotNil(t, got.TimeRange)
			assert.Equal(t, tt.wantPhrase, got.TimeRange.Phrase)
			assert.Equal(t, tt.wantReduction, got.TimeRange.Reduction)
		})
	}

	t.Run("no time phrase", func(t *testing.T) {
		assert.Nil(t, a.Analyze("show all orders").TimeRange)
	})
}

func TestAnalyze_BetweenDates(t *testing.T) {
	t.Parallel()
	a := NewAnalyzer()

	got := a.Analyze("orders between 2026-01-01 and 2026-01-31")
	require.NotNil(t, got.TimeRange)
	assert.Equal(t, "orders.created_at BETWEEN '2026-01-01' AND '2026-01-31'",
		got.TimeRange.Render("orders.created_at"))
	assert.Equal(t, 0.25, got.TimeRange.Reduction)
}

func TestTimeRange_RenderRepeatsColumn(t *testing.T) {
	t.Parallel()
	a := NewAnalyzer()

	got := a.Analyze("orders from last week")
	require.NotNil(t, got.TimeRange)
	rendered := got.TimeRange.Render("orders.created_at")
	assert.Equal(t,
		"orders.created_at >= date_trunc('week', CURRENT_DATE) - INTERVAL '7 days' AND orders.created_at < date_trunc('week', CURRENT_DATE)",
		rendered)
}

func TestAnalyze_IDs(t *testing.T) {
	t.Parallel()
	a := NewAnalyzer()

	got := a.Analyze("find order SO-1042")
	assert.Equal(t, []string{"SO-1042"}, got.IDs)

	got = a.Analyze(`show the shipment 'SHP900'`)
	assert.Contains(t, got.IDs, "SHP900")

	// Quoted status words stay statuses, not IDs.
	got = a.Analyze(`orders with status 'pending'`)
	assert.Empty(t, got.IDs)
	assert.Equal(t, []string{"pending"}, got.Statuses)
}

func TestAnalyze_Aggregates(t *testing.T) {
	a := NewAnalyzer()

	tests := []struct {
		text string
		want string
	}{
		{"sum of quantities picked", "SUM"},
		{"average order value", "AVG"},
		{"highest inventory level", "MAX"},
		{"lowest stock by item", "MIN"},
		{"show pending orders", ""},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, a.Analyze(tt.text).AggFunc)
		})
	}
}

func TestAnalyze_TopBottom(t *testing.T) {
	t.Parallel()
	a := NewAnalyzer()

	got := a.Analyze("top 10 items by quantity")
	assert.True(t, got.WantsTop)
	assert.False(t, got.WantsLow)
	assert.Equal(t, []int{10}, got.Numbers)

	got = a.Analyze("items with the lowest stock")
	assert.True(t, got.WantsLow)
}
