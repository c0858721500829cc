package domain

import (
	"fmt"
	"regexp"
	"strings"
)

// Synthesizer renders a Plan to SQL. Rendering is deterministic: clauses are
// emitted in fixed SELECT/FROM/JOIN/WHERE/GROUP BY/ORDER BY order and never
// reordered.
type Synthesizer struct {
	maxRows int
}

func NewSynthesizer(maxRows int) *Synthesizer {
	return &Synthesizer{maxRows: maxRows}
}

// Render produces the SQL for a plan together with any safety warnings
// raised during synthesis (currently only the injected row cap).
func (s *Synthesizer) Render(plan *Plan, cat *Catalog) (string, []string) {
	var b strings.Builder

	b.WriteString("SELECT ")
	b.WriteString(strings.Join(s.selectList(plan), ", "))
	b.WriteString("\nFROM ")
	b.WriteString(s.tableName(cat, plan.Tables[0]))

	for _, j := range plan.Joins {
		fmt.Fprintf(&b, "\n%s %s ON %s.%s = %s.%s",
			j.Type, s.tableName(cat, j.To), j.From, j.FromColumn, j.To, j.ToColumn)
	}

	if len(plan.Filters) > 0 {
		preds := make([]string, len(plan.Filters))
		for i, f := range plan.Filters {
			preds[i] = f.Predicate
		}
		b.WriteString("\nWHERE ")
		b.WriteString(strings.Join(preds, " AND "))
	}

	if len(plan.GroupBy) > 0 {
		b.WriteString("\nGROUP BY ")
		b.WriteString(strings.Join(plan.GroupBy, ", "))
	}

	if len(plan.OrderBy) > 0 {
		terms := make([]string, len(plan.OrderBy))
		for i, o := range plan.OrderBy {
			dir := "ASC"
			if o.Desc {
				dir = "DESC"
			}
			terms[i] = o.Column + " " + dir
		}
		b.WriteString("\nORDER BY ")
		b.WriteString(strings.Join(terms, ", "))
	}

	return s.injectRowCap(b.String(), plan)
}

func (s *Synthesizer) selectList(plan *Plan) []string {
	var list []string
	list = append(list, plan.Columns...)
	for _, agg := range plan.Aggregations {
		if agg.Column == "*" {
			list = append(list, fmt.Sprintf("%s(*) AS %s", agg.Func, agg.Alias))
		} else {
			list = append(list, fmt.Sprintf("%s(%s) AS %s", agg.Func, agg.Column, agg.Alias))
		}
	}
	if len(list) == 0 {
		list = append(list, "*")
	}
	return list
}

// tableName resolves the rendered identifier for a plan table, falling back
// to the bare name when the catalog no longer knows it.
func (s *Synthesizer) tableName(cat *Catalog, name string) string {
	if cat != nil {
		if t, ok := cat.Table(name); ok {
			return t.SQLName()
		}
	}
	return name
}

// limitClause matches a trailing LIMIT so a column that merely contains the
// word (limit_qty) cannot suppress the cap.
var limitClause = regexp.MustCompile(`(?i)\bLIMIT\s+\d+\s*$`)

// injectRowCap appends a LIMIT to unbounded queries. The asymmetry is
// intentional: a cap is skipped when one already exists or the query
// aggregates (LIMIT would change its meaning), and injected only when there
// is no WHERE clause and no date predicate to bound the scan.
func (s *Synthesizer) injectRowCap(sql string, plan *Plan) (string, []string) {
	upper := strings.ToUpper(sql)
	switch {
	case limitClause.MatchString(strings.TrimSpace(sql)):
		return sql, nil
	case len(plan.Aggregations) > 0,
		len(plan.GroupBy) > 0,
		strings.Contains(upper, "DISTINCT"),
		strings.Contains(upper, "HAVING"):
		return sql, nil
	}

	if !strings.Contains(upper, "WHERE") && !plan.HasDateFilter() {
		capped := fmt.Sprintf("%s\n-- safety cap: unbounded query\nLIMIT %d", sql, s.maxRows)
		warning := fmt.Sprintf("query lacks filtering; row cap of %d applied", s.maxRows)
		return capped, []string{warning}
	}
	return sql, nil
}
