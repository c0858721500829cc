package domain

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// IndexRecommendation is advisory DDL derived from query shape. It is never
// persisted or executed by the engine.
type IndexRecommendation struct {
	Table            string   `json:"table"`
	Columns          []string `json:"columns"`
	IndexType        string   `json:"index_type"`
	Priority         string   `json:"priority"` // high, medium, low
	Reason           string   `json:"reason"`
	EstimatedBenefit string   `json:"estimated_benefit"`
	DDL              string   `json:"ddl"`
}

// PerformanceReport is the analyzer's read of one SQL statement.
type PerformanceReport struct {
	FunctionalArea      Category              `json:"functional_area"`
	Complexity          Complexity            `json:"complexity"`
	AntiPatterns        []string              `json:"anti_patterns,omitempty"`
	Recommendations     []IndexRecommendation `json:"recommendations,omitempty"`
	ImprovementEstimate string                `json:"improvement_estimate"`
}

var (
	fromTablePattern = regexp.MustCompile(`(?i)\bfrom\s+([a-z_][a-z0-9_.]*)`)
	joinTablePattern = regexp.MustCompile(`(?i)\bjoin\s+([a-z_][a-z0-9_.]*)`)
	whereClause      = regexp.MustCompile(`(?is)\bwhere\b(.*?)(\bgroup by\b|\border by\b|\blimit\b|$)`)
	columnRefPattern = regexp.MustCompile(`([a-z_][a-z0-9_]*)\.([a-z_][a-z0-9_]*)`)
	joinOnClause     = regexp.MustCompile(`(?i)\bon\s+([a-z_][a-z0-9_]*)\.([a-z_][a-z0-9_]*)\s*=\s*([a-z_][a-z0-9_]*)\.([a-z_][a-z0-9_]*)`)
	datePredicate    = regexp.MustCompile(`(?i)(current_date|date_trunc|interval|between\s+'\d{4}|_at\s*[><=]|_date\s*[><=])`)
)

// antiPatternRules collect every match; extend by appending.
var antiPatternRules = []rule[string]{
	{regexMatch(`(?i)select\s+\*`), "SELECT * fetches all columns; project only what you need"},
	{regexMatch(`(?i)like\s+'%`), "leading-wildcard LIKE cannot use an index"},
	{func(s string) bool {
		u := strings.ToUpper(s)
		return strings.Contains(u, "ORDER BY") && !strings.Contains(u, "WHERE") && !strings.Contains(u, "LIMIT")
	}, "ORDER BY on an unfiltered result sorts the whole table"},
	{regexMatch(`(?is)\bwhere\b.*\bor\b`), "OR conditions under WHERE often defeat index usage"},
	{regexMatch(`(?i)(upper|lower|coalesce|cast|substring|date)\s*\(\s*[a-z_][a-z0-9_.]*\s*\)\s*(=|<|>|like)`), "function-wrapped filter columns prevent index scans"},
}

func regexMatch(pattern string) func(string) bool {
	re := regexp.MustCompile(pattern)
	return re.MatchString
}

// knownIndexes is a static list of WMS index shapes that consistently pay
// off, emitted when their table appears in the analyzed query.
var knownIndexes = []IndexRecommendation{
	{Table: "inventory", Columns: []string{"item_id", "location_id"}, IndexType: "btree", Priority: "low", Reason: "inventory is almost always filtered by item and location"},
	{Table: "orders", Columns: []string{"status", "created_at"}, IndexType: "btree", Priority: "low", Reason: "order dashboards filter on status within a time window"},
	{Table: "pick_tasks", Columns: []string{"status", "assigned_to"}, IndexType: "btree", Priority: "low", Reason: "task queues filter on status per operator"},
	{Table: "shipments", Columns: []string{"carrier_id", "shipped_at"}, IndexType: "btree", Priority: "low", Reason: "shipment lookups filter by carrier and ship date"},
}

// PerformanceAnalyzer classifies query shape, flags anti-patterns, and emits
// advisory index recommendations. All estimates are coarse categorical
// heuristics, not a cost model.
type PerformanceAnalyzer struct{}

func NewPerformanceAnalyzer() *PerformanceAnalyzer { return &PerformanceAnalyzer{} }

// Analyze inspects one SQL statement.
func (pa *PerformanceAnalyzer) Analyze(sql string) PerformanceReport {
	tables := referencedTables(sql)

	report := PerformanceReport{
		FunctionalArea: classifyArea(tables),
		Complexity:     classifyShape(sql),
		AntiPatterns:   allMatches(antiPatternRules, sql),
	}
	report.AntiPatterns = append(report.AntiPatterns, domainFindings(sql, report.FunctionalArea)...)
	report.Recommendations = pa.recommend(sql, tables)
	report.ImprovementEstimate = improvementEstimate(report.Recommendations)
	return report
}

func referencedTables(sql string) []string {
	var tables []string
	seen := map[string]bool{}
	for _, re := range []*regexp.Regexp{fromTablePattern, joinTablePattern} {
		for _, m := range re.FindAllStringSubmatch(strings.ToLower(sql), -1) {
			name := m[1]
			if i := strings.LastIndexByte(name, '.'); i >= 0 {
				name = name[i+1:]
			}
			if !seen[name] {
				seen[name] = true
				tables = append(tables, name)
			}
		}
	}
	return tables
}

// classifyArea categorizes the first FROM table; joined tables only break the
// tie when the primary is uncategorized.
func classifyArea(tables []string) Category {
	for _, t := range tables {
		if cat := CategorizeTable(t); cat != CategoryOther {
			return cat
		}
	}
	return CategoryOther
}

func classifyShape(sql string) Complexity {
	upper := strings.ToUpper(sql)
	joins := strings.Count(upper, " JOIN ")
	subqueries := len(subqueryPattern.FindAllString(sql, -1))
	aggregates := 0
	for _, fn := range []string{"COUNT(", "SUM(", "AVG(", "MAX(", "MIN("} {
		aggregates += strings.Count(upper, fn)
	}
	return classifyComplexity(1+joins, joins, aggregates, subqueries)
}

// domainFindings apply WMS-specific rules on top of the generic patterns.
func domainFindings(sql string, area Category) []string {
	var findings []string
	hasDate := datePredicate.MatchString(sql)
	hasStatus := strings.Contains(strings.ToLower(sql), "status")

	if area == CategoryInventory && !hasDate {
		findings = append(findings, "inventory queries without a date filter scan full stock history")
	}
	if (area == CategoryOrders || area == CategoryWork) && !hasStatus {
		findings = append(findings, "order and task queries usually want a status filter")
	}
	return findings
}

// recommend derives index candidates from WHERE and JOIN columns, merges the
// static known-good list for referenced tables, deduplicates, and sorts by
// priority.
func (pa *PerformanceAnalyzer) recommend(sql string, tables []string) []IndexRecommendation {
	var recs []IndexRecommendation

	for _, m := range joinOnClause.FindAllStringSubmatch(strings.ToLower(sql), -1) {
		recs = append(recs,
			newRecommendation(m[1], []string{m[2]}, "high", "join key"),
			newRecommendation(m[3], []string{m[4]}, "high", "join key"),
		)
	}

	if m := whereClause.FindStringSubmatch(strings.ToLower(sql)); m != nil {
		for _, ref := range columnRefPattern.FindAllStringSubmatch(m[1], -1) {
			recs = append(recs, newRecommendation(ref[1], []string{ref[2]}, "medium", "filter column"))
		}
	}

	referenced := map[string]bool{}
	for _, t := range tables {
		referenced[t] = true
	}
	for _, known := range knownIndexes {
		if referenced[known.Table] {
			k := known
			k.EstimatedBenefit = benefitFor(k.Priority)
			k.DDL = renderIndexDDL(k.Table, k.Columns)
			recs = append(recs, k)
		}
	}

	return dedupeAndSort(recs)
}

func newRecommendation(table string, columns []string, priority, role string) IndexRecommendation {
	return IndexRecommendation{
		Table:            table,
		Columns:          columns,
		IndexType:        "btree",
		Priority:         priority,
		Reason:           fmt.Sprintf("%s.%s is used as a %s", table, strings.Join(columns, ", "), role),
		EstimatedBenefit: benefitFor(priority),
		DDL:              renderIndexDDL(table, columns),
	}
}

func renderIndexDDL(table string, columns []string) string {
	return fmt.Sprintf("CREATE INDEX idx_%s_%s ON %s (%s);",
		table, strings.Join(columns, "_"), table, strings.Join(columns, ", "))
}

func benefitFor(priority string) string {
	switch priority {
	case "high":
		return "high (5-50x on matching joins)"
	case "medium":
		return "moderate (2-10x on matching filters)"
	default:
		return "low (incremental)"
	}
}

var priorityRank = map[string]int{"high": 0, "medium": 1, "low": 2}

func dedupeAndSort(recs []IndexRecommendation) []IndexRecommendation {
	seen := map[string]bool{}
	out := recs[:0]
	for _, r := range recs {
		key := r.Table + ":" + strings.Join(r.Columns, ",")
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, r)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if priorityRank[out[i].Priority] != priorityRank[out[j].Priority] {
			return priorityRank[out[i].Priority] < priorityRank[out[j].Priority]
		}
		if out[i].Table != out[j].Table {
			return out[i].Table < out[j].Table
		}
		return strings.Join(out[i].Columns, ",") < strings.Join(out[j].Columns, ",")
	})
	return out
}

func improvementEstimate(recs []IndexRecommendation) string {
	for _, r := range recs {
		if r.Priority == "high" {
			return "high (5-50x)"
		}
	}
	for _, r := range recs {
		if r.Priority == "medium" {
			return "moderate (2-10x)"
		}
	}
	if len(recs) > 0 {
		return "low (<2x)"
	}
	return "none"
}
