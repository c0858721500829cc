package domain

import (
	"sort"
	"strings"
)

// TableHit is a semantic-search hit enriched with its catalog schema.
type TableHit struct {
	Table     *TableSchema
	Certainty float64
}

// RankedTable is a candidate table with its final relevance score.
type RankedTable struct {
	Table   *TableSchema
	Score   float64
	Reasons []string
}

// maxCandidates bounds how many ranked tables a plan may consider.
const maxCandidates = 5

// Resolver ranks candidate tables for a question. Scores start from the
// semantic certainty and are boosted by category and lexical matches, clamped
// to 1.0.
type Resolver struct{}

func NewResolver() *Resolver { return &Resolver{} }

// Rank scores every hit and returns at most maxCandidates tables in
// descending score order. Ties break on table name so identical input always
// ranks identically. An empty result means no table is relevant; callers must
// stop planning rather than guess.
func (r *Resolver) Rank(words []string, category Category, hits []TableHit) []RankedTable {
	ranked := make([]RankedTable, 0, len(hits))
	for _, hit := range hits {
		if hit.Table == nil {
			continue
		}
		rt := RankedTable{Table: hit.Table, Score: hit.Certainty}
		if category != "" && category != CategoryOther && hit.Table.Category == category {
			rt.Score += 0.2
			rt.Reasons = append(rt.Reasons, "category match")
		}
		name := strings.ToLower(hit.Table.Name)
		for _, w := range words {
			if len(w) < 3 {
				continue
			}
			if strings.Contains(name, w) {
				rt.Score += 0.1
				rt.Reasons = append(rt.Reasons, "name matches "+w)
			}
			if columnMatches(hit.Table, w) {
				rt.Score += 0.05
				rt.Reasons = append(rt.Reasons, "column matches "+w)
			}
		}
		if rt.Score > 1.0 {
			rt.Score = 1.0
		}
		if rt.Score > 0 {
			ranked = append(ranked, rt)
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].Table.Name < ranked[j].Table.Name
	})

	if len(ranked) > maxCandidates {
		ranked = ranked[:maxCandidates]
	}
	return ranked
}

func columnMatches(t *TableSchema, word string) bool {
	for _, c := range t.Columns {
		if strings.Contains(strings.ToLower(c.Name), word) {
			return true
		}
	}
	return false
}
