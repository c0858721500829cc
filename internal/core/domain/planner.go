package domain

import (
	"fmt"
	"strings"
)

// maxPlanTables bounds how many tables a single plan may touch: the primary
// plus at most two joined tables.
const maxPlanTables = 3

// Planner turns an Analysis and a ranked candidate list into a Plan. It is
// pure computation over the immutable catalog: identical input always yields
// an identical plan.
type Planner struct{}

func NewPlanner() *Planner { return &Planner{} }

// Plan builds a query plan with the top-ranked table as primary. Additional
// candidates are joined only when a relationship edge or a shared column
// justifies it; unjoinable candidates are dropped with a warning.
func (p *Planner) Plan(a Analysis, ranked []RankedTable, cat *Catalog) (*Plan, error) {
	if len(ranked) == 0 {
		return nil, ErrNoRelevantTable
	}

	primary := ranked[0].Table
	plan := &Plan{
		QueryType:   a.Intent,
		Tables:      []string{primary.Name},
		SafetyScore: 1.0,
	}

	planTables := []*TableSchema{primary}
	for _, rt := range ranked[1:] {
		if len(planTables) >= maxPlanTables {
			break
		}
		if join, via, ok := p.joinFor(cat, planTables, rt.Table); ok {
			// Multi-hop paths introduce intermediate tables; every join
			// target must be a plan table.
			for _, t := range via {
				planTables = append(planTables, t)
				plan.Tables = append(plan.Tables, t.Name)
			}
			plan.Joins = append(plan.Joins, join...)
			planTables = append(planTables, rt.Table)
			plan.Tables = append(plan.Tables, rt.Table.Name)
		} else {
			plan.Warnings = append(plan.Warnings,
				fmt.Sprintf("table %s is relevant but has no join path to %s", rt.Table.Name, primary.Name))
		}
	}

	p.selectColumns(plan, a, planTables)
	p.buildFilters(plan, a, planTables)
	p.buildAggregations(plan, a, planTables)
	p.buildOrdering(plan, a, planTables)

	plan.Complexity = classifyComplexity(len(plan.Tables), len(plan.Joins), len(plan.Aggregations), len(plan.Filters))
	plan.EstimatedRows = estimateRows(primary.RowCount, plan.Filters)
	return plan, nil
}

// joinFor finds a join from any already-planned table to the candidate:
// first a direct relationship edge, then a bounded multi-hop path, finally
// the shared-column naming heuristic. Joins default to INNER.
func (p *Planner) joinFor(cat *Catalog, planned []*TableSchema, candidate *TableSchema) ([]Join, []*TableSchema, bool) {
	for _, from := range planned {
		if edge, ok := cat.JoinPath(from.Name, candidate.Name); ok {
			return []Join{innerJoin(edge)}, nil, true
		}
	}

	// Multi-hop only from the primary, and only if the intermediates fit
	// within the table budget.
	if path, ok := cat.JoinPathMultiHop(planned[0].Name, candidate.Name); ok {
		if len(planned)+len(path) <= maxPlanTables {
			joins := make([]Join, 0, len(path))
			var via []*TableSchema
			for i, edge := range path {
				joins = append(joins, innerJoin(edge))
				if i < len(path)-1 {
					if t, found := cat.Table(edge.To); found {
						via = append(via, t)
					}
				}
			}
			return joins, via, true
		}
	}

	for _, from := range planned {
		if col, ok := sharedJoinColumn(from, candidate); ok {
			return []Join{{
				From: from.Name, To: candidate.Name,
				FromColumn: col, ToColumn: col,
				Type: "INNER JOIN",
			}}, nil, true
		}
	}
	return nil, nil, false
}

func innerJoin(e JoinEdge) Join {
	return Join{From: e.From, To: e.To, FromColumn: e.FromColumn, ToColumn: e.ToColumn, Type: "INNER JOIN"}
}

// sharedJoinColumn looks for an identically named column on both tables,
// preferring *_id columns, which conventionally carry keys.
func sharedJoinColumn(a, b *TableSchema) (string, bool) {
	var fallback string
	for _, c := range a.Columns {
		if !b.HasColumn(c.Name) {
			continue
		}
		if strings.HasSuffix(c.Name, "_id") {
			return c.Name, true
		}
		if fallback == "" && c.Name != "id" {
			fallback = c.Name
		}
	}
	if fallback != "" {
		return fallback, true
	}
	return "", false
}

// selectColumns picks the select list. COUNT short-circuits to COUNT(*);
// otherwise primary keys are always included, then columns matched by the
// question text, then intent-specific descriptive or quantity columns as a
// fallback.
func (p *Planner) selectColumns(plan *Plan, a Analysis, tables []*TableSchema) {
	if a.Intent == QueryCount {
		plan.Aggregations = append(plan.Aggregations, Aggregation{Func: "COUNT", Column: "*", Alias: "total_count"})
		return
	}

	primary := tables[0]
	seen := map[string]bool{}
	add := func(t *TableSchema, col string) {
		q := t.Name + "." + col
		if !seen[q] {
			seen[q] = true
			plan.Columns = append(plan.Columns, q)
		}
	}

	for _, pk := range primary.PrimaryKeys {
		add(primary, pk)
	}

	matched := 0
	for _, t := range tables {
		for _, c := range t.Columns {
			if wordMatchesColumn(a.Words, c.Name) {
				add(t, c.Name)
				matched++
			}
		}
	}

	if matched == 0 {
		wantQuantity := a.Intent == QuerySummary || a.AggFunc != ""
		for _, c := range primary.Columns {
			if wantQuantity && isQuantityColumn(c) {
				add(primary, c.Name)
				matched++
			}
			if !wantQuantity && isDescriptiveColumn(c) {
				add(primary, c.Name)
				matched++
			}
		}
	}

	// Last resort: the primary table's leading columns.
	if matched == 0 {
		for i, c := range primary.Columns {
			if i >= 5 {
				break
			}
			add(primary, c.Name)
		}
	}
}

func wordMatchesColumn(words []string, column string) bool {
	col := strings.ToLower(column)
	for _, w := range words {
		if len(w) < 3 {
			continue
		}
		if col == w || strings.Contains(col, w) {
			return true
		}
	}
	return false
}

// buildFilters renders the typed filters. Status and ID entities are applied
// to every matching column across plan tables; this is deliberately
// permissive and documented as such.
func (p *Planner) buildFilters(plan *Plan, a Analysis, tables []*TableSchema) {
	if a.TimeRange != nil {
		for _, t := range tables {
			if col, ok := t.FirstDateColumn(); ok {
				q := t.Name + "." + col.Name
				plan.Filters = append(plan.Filters, Filter{
					Kind:        FilterDate,
					Column:      q,
					Predicate:   a.TimeRange.Render(q),
					Description: "records from " + a.TimeRange.Description,
					Reduction:   a.TimeRange.Reduction,
				})
				break
			}
		}
	}

	for _, status := range a.Statuses {
		for _, t := range tables {
			for _, c := range t.Columns {
				if !strings.Contains(strings.ToLower(c.Name), "status") {
					continue
				}
				q := t.Name + "." + c.Name
				plan.Filters = append(plan.Filters, Filter{
					Kind:        FilterStatus,
					Column:      q,
					Predicate:   fmt.Sprintf("%s = '%s'", q, status),
					Description: "status is " + status,
					Reduction:   0.2,
				})
			}
		}
	}

	for _, id := range a.IDs {
		for _, t := range tables {
			for _, c := range t.Columns {
				if !strings.HasSuffix(strings.ToLower(c.Name), "_id") {
					continue
				}
				q := t.Name + "." + c.Name
				plan.Filters = append(plan.Filters, Filter{
					Kind:        FilterID,
					Column:      q,
					Predicate:   fmt.Sprintf("%s::text = '%s'", q, escapeLiteral(id)),
					Description: "identifier " + id,
					Reduction:   0.001,
				})
			}
		}
	}
}

func escapeLiteral(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

// buildAggregations adds the keyword-triggered aggregate on the first
// quantity-like column and derives grouping from the remaining select list.
func (p *Planner) buildAggregations(plan *Plan, a Analysis, tables []*TableSchema) {
	if a.AggFunc != "" && a.Intent != QueryCount {
		for _, t := range tables {
			if col, ok := t.FirstQuantityColumn(); ok {
				q := t.Name + "." + col.Name
				plan.Aggregations = append(plan.Aggregations, Aggregation{
					Func:   a.AggFunc,
					Column: q,
					Alias:  strings.ToLower(a.AggFunc) + "_" + col.Name,
				})
				break
			}
		}
	}

	if len(plan.Aggregations) == 0 {
		return
	}
	aggCols := map[string]bool{}
	for _, agg := range plan.Aggregations {
		aggCols[agg.Column] = true
	}
	for _, col := range plan.Columns {
		if !aggCols[col] {
			plan.GroupBy = append(plan.GroupBy, col)
		}
	}
}

// buildOrdering orders by the aggregate's quantity column for top/bottom
// language, and by the date column for trends.
func (p *Planner) buildOrdering(plan *Plan, a Analysis, tables []*TableSchema) {
	if a.WantsTop || a.WantsLow {
		for _, agg := range plan.Aggregations {
			if agg.Column == "*" {
				continue
			}
			plan.OrderBy = append(plan.OrderBy, Order{Column: agg.Alias, Desc: a.WantsTop})
			return
		}
		if col, ok := tables[0].FirstQuantityColumn(); ok {
			plan.OrderBy = append(plan.OrderBy, Order{Column: tables[0].Name + "." + col.Name, Desc: a.WantsTop})
		}
		return
	}

	if a.Intent == QueryTrend {
		if col, ok := tables[0].FirstDateColumn(); ok {
			plan.OrderBy = append(plan.OrderBy, Order{Column: tables[0].Name + "." + col.Name, Desc: false})
		}
	}
}
