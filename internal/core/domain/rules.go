package domain

// rule pairs a predicate with the value it yields. Rule tables are evaluated
// in declaration order so earlier rules always win; extend behaviour by
// appending rules, not by adding branches.
type rule[T any] struct {
	match  func(string) bool
	result T
}

// firstMatch returns the result of the first rule whose predicate accepts the
// input, or fallback when none does.
func firstMatch[T any](rules []rule[T], input string, fallback T) T {
	for _, r := range rules {
		if r.match(input) {
			return r.result
		}
	}
	return fallback
}

// allMatches collects the result of every rule whose predicate accepts the
// input, preserving declaration order.
func allMatches[T any](rules []rule[T], input string) []T {
	var out []T
	for _, r := range rules {
		if r.match(input) {
			out = append(out, r.result)
		}
	}
	return out
}
