package domain

// Complexity is a coarse classification of a plan's shape.
type Complexity string

const (
	ComplexitySimple   Complexity = "simple"
	ComplexityModerate Complexity = "moderate"
	ComplexityComplex  Complexity = "complex"
	ComplexityAdvanced Complexity = "advanced"
)

// FilterKind tags the origin of a filter predicate.
type FilterKind string

const (
	FilterDate   FilterKind = "date"
	FilterStatus FilterKind = "status"
	FilterID     FilterKind = "id"
)

// Filter is one rendered WHERE predicate with its provenance.
type Filter struct {
	Kind        FilterKind `json:"kind"`
	Column      string     `json:"column"`
	Predicate   string     `json:"predicate"`
	Description string     `json:"description"`
	// Reduction is the selectivity factor this filter contributes to the
	// row estimate.
	Reduction float64 `json:"reduction"`
}

// Join is one rendered join between plan tables.
type Join struct {
	From       string `json:"from"`
	To         string `json:"to"`
	FromColumn string `json:"from_column"`
	ToColumn   string `json:"to_column"`
	Type       string `json:"type"` // "INNER JOIN"
}

// Aggregation is one aggregate expression in the select list.
type Aggregation struct {
	Func   string `json:"func"`
	Column string `json:"column"`
	Alias  string `json:"alias"`
}

// Order is one ORDER BY term.
type Order struct {
	Column string `json:"column"`
	Desc   bool   `json:"desc"`
}

// Plan is a fully resolved query plan. It is built fresh per question,
// immutable once synthesis starts, and used exactly once. Every join target
// appears in Tables; a SafetyScore of 0.0 is terminal.
type Plan struct {
	QueryType     QueryType     `json:"query_type"`
	Complexity    Complexity    `json:"complexity"`
	Tables        []string      `json:"tables"` // primary first
	Columns       []string      `json:"columns"`
	Joins         []Join        `json:"joins,omitempty"`
	Filters       []Filter      `json:"filters,omitempty"`
	Aggregations  []Aggregation `json:"aggregations,omitempty"`
	GroupBy       []string      `json:"group_by,omitempty"`
	OrderBy       []Order       `json:"order_by,omitempty"`
	EstimatedRows int64         `json:"estimated_rows"`
	SafetyScore   float64       `json:"safety_score"`
	Warnings      []string      `json:"warnings,omitempty"`
}

// HasDateFilter reports whether any filter was derived from a time phrase.
func (p *Plan) HasDateFilter() bool {
	for _, f := range p.Filters {
		if f.Kind == FilterDate {
			return true
		}
	}
	return false
}

// classifyComplexity derives the complexity band from fixed thresholds on
// table, join, aggregation, and filter counts.
func classifyComplexity(tables, joins, aggs, filters int) Complexity {
	switch {
	case tables > 3 || joins > 2 || aggs > 2:
		return ComplexityAdvanced
	case tables == 3 || joins == 2 || (aggs >= 1 && joins >= 1):
		return ComplexityComplex
	case tables == 2 || joins == 1 || aggs >= 1 || filters >= 2:
		return ComplexityModerate
	default:
		return ComplexitySimple
	}
}

// defaultRowCount stands in for tables whose extraction did not capture a
// count.
const defaultRowCount = 1000

// estimateRows applies each filter's reduction factor to the primary table's
// row count. The result is a coarse heuristic, never a cost model.
func estimateRows(primaryRows int64, filters []Filter) int64 {
	rows := float64(primaryRows)
	if rows <= 0 {
		rows = defaultRowCount
	}
	for _, f := range filters {
		if f.Reduction > 0 {
			rows *= f.Reduction
		}
	}
	if rows < 1 {
		return 1
	}
	return int64(rows)
}
