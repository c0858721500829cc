package port

import "github.com/warequery/warequery/internal/core/domain"

// SafetyValidator scores SQL statements before execution.
type SafetyValidator interface {
	Validate(sql string) domain.SafetyResult
}
