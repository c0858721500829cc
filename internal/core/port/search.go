package port

import "context"

// SearchHit is one ranked table returned by semantic search.
type SearchHit struct {
	Table       string  `json:"table"`
	Certainty   float64 `json:"certainty"`
	Description string  `json:"description,omitempty"`
}

// TableSearcher ranks tables by semantic similarity to the question text.
// It is only used to shortlist candidates; a trivial keyword-overlap
// implementation satisfies it.
type TableSearcher interface {
	Search(ctx context.Context, text string, limit int) ([]SearchHit, error)
}
