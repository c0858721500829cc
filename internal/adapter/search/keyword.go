// Package search provides the in-tree TableSearcher: keyword overlap between
// the question and table metadata. The durable vector store is an external
// collaborator; this implementation keeps the engine self-contained.
package search

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/warequery/warequery/internal/core/domain"
	"github.com/warequery/warequery/internal/core/port"
)

// CatalogProvider supplies the current catalog snapshot.
type CatalogProvider interface {
	Snapshot() (*domain.Catalog, error)
}

// KeywordSearcher scores tables by word overlap with their name, category,
// columns, and description.
type KeywordSearcher struct {
	catalog CatalogProvider
}

func NewKeywordSearcher(catalog CatalogProvider) *KeywordSearcher {
	return &KeywordSearcher{catalog: catalog}
}

var tokenPattern = regexp.MustCompile(`[a-z0-9_]+`)

// stopwords are question words that carry no table signal.
var stopwords = map[string]bool{
	"the": true, "all": true, "any": true, "are": true, "was": true,
	"for": true, "from": true, "with": true, "and": true, "how": true,
	"many": true, "much": true, "show": true, "list": true, "what": true,
	"which": true, "give": true, "get": true, "records": true, "record": true,
	"this": true, "last": true, "today": true, "week": true, "month": true,
}

// Search ranks every catalog table against the question and returns the top
// hits. Certainty is the fraction of signal words the table matched, weighted
// by where they matched.
func (s *KeywordSearcher) Search(ctx context.Context, text string, limit int) ([]port.SearchHit, error) {
	catalog, err := s.catalog.Snapshot()
	if err != nil {
		return nil, err
	}

	words := signalWords(text)
	if len(words) == 0 {
		return nil, nil
	}

	var hits []port.SearchHit
	for _, t := range catalog.Tables() {
		score := scoreTable(t, words)
		if score <= 0 {
			continue
		}
		hits = append(hits, port.SearchHit{
			Table:       t.Name,
			Certainty:   score,
			Description: describeTable(t),
		})
	}

	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Certainty != hits[j].Certainty {
			return hits[i].Certainty > hits[j].Certainty
		}
		return hits[i].Table < hits[j].Table
	})
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

func signalWords(text string) []string {
	var words []string
	for _, w := range tokenPattern.FindAllString(strings.ToLower(text), -1) {
		if len(w) >= 3 && !stopwords[w] {
			words = append(words, w)
		}
	}
	return words
}

// scoreTable weights name matches over category and column matches, and
// description words lowest. The result is clamped to 1.0 so it behaves like
// a certainty.
func scoreTable(t *domain.TableSchema, words []string) float64 {
	name := strings.ToLower(t.Name)
	desc := strings.ToLower(t.Comment)
	cat := string(t.Category)

	var score float64
	for _, w := range words {
		switch {
		case strings.Contains(name, w) || strings.Contains(w, strings.TrimSuffix(name, "s")):
			score += 1.0
		case strings.Contains(cat, w):
			score += 0.5
		case columnContains(t, w):
			score += 0.5
		case desc != "" && strings.Contains(desc, w):
			score += 0.25
		}
	}
	score /= float64(len(words))
	if score > 1.0 {
		score = 1.0
	}
	return score
}

func columnContains(t *domain.TableSchema, word string) bool {
	for _, c := range t.Columns {
		if strings.Contains(strings.ToLower(c.Name), word) {
			return true
		}
	}
	return false
}

func describeTable(t *domain.TableSchema) string {
	if t.Comment != "" {
		return t.Comment
	}
	return fmt.Sprintf("table %s in the %s area (%d columns)", t.Name, t.Category, len(t.Columns))
}
