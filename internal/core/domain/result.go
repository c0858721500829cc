package domain

import "time"

// ExecutionResult is the outcome of one natural-language query. On success,
// RowCount always equals len(Data); on failure Data is nil and Error carries
// the cause.
type ExecutionResult struct {
	Success       bool             `json:"success"`
	Data          []map[string]any `json:"data,omitempty"`
	RowCount      int              `json:"row_count"`
	ExecutionTime time.Duration    `json:"execution_time_ns"`
	QueryUsed     string           `json:"query_used"`
	Warnings      []string         `json:"warnings,omitempty"`
	Metadata      map[string]any   `json:"metadata,omitempty"`
	Error         string           `json:"error,omitempty"`
}

// FailedResult builds the uniform failure shape.
func FailedResult(sql string, took time.Duration, err error) *ExecutionResult {
	return &ExecutionResult{
		QueryUsed:     sql,
		ExecutionTime: took,
		Error:         err.Error(),
	}
}

// AssessQuality bands a successful result as empty, partial, or complete.
// A result that exactly fills the row cap was probably truncated.
func AssessQuality(rowCount, maxRows int) string {
	switch {
	case rowCount == 0:
		return "empty"
	case maxRows > 0 && rowCount >= maxRows:
		return "partial"
	default:
		return "complete"
	}
}

// AssessSizeImpact bands the result size for advisory metadata.
func AssessSizeImpact(rowCount int) string {
	switch {
	case rowCount <= 100:
		return "small"
	case rowCount <= 1000:
		return "medium"
	case rowCount <= 10000:
		return "large"
	default:
		return "very_large"
	}
}
