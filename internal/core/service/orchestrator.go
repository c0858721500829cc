package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/warequery/warequery/internal/core/domain"
	"github.com/warequery/warequery/internal/core/port"
)

// Orchestrator composes planning and execution across categories with a
// ranked fallback chain. The core never retries on its own; retry semantics
// live here and only here.
type Orchestrator struct {
	queries *QueryService
	catalog *CatalogService
	logger  *slog.Logger
	inst    port.Instrumentation
}

func NewOrchestrator(queries *QueryService, catalog *CatalogService, logger *slog.Logger, inst port.Instrumentation) *Orchestrator {
	if inst == nil {
		inst = port.NoopInstrumentation{}
	}
	return &Orchestrator{queries: queries, catalog: catalog, logger: logger, inst: inst}
}

// fallbackQuery is one pre-templated substitute question.
type fallbackQuery struct {
	name string
	text func(cat domain.Category) string
}

// fallbackChain is evaluated in order with short-circuit on first success.
// Each entry is independently fault-isolated; adding a fallback means
// appending here.
var fallbackChain = []fallbackQuery{
	{"category summary", func(c domain.Category) string { return fmt.Sprintf("summarize %s records", c) }},
	{"today's records", func(c domain.Category) string { return fmt.Sprintf("show %s records from today", c) }},
	{"record count", func(c domain.Category) string { return fmt.Sprintf("how many records in %s", c) }},
}

// PlanAndExecute answers a question that may span categories. The seed set
// from the category lookups becomes the composed query's candidate pool, in
// primary-first / join-reachable / remaining order. On any failure the canned
// fallbacks run in order scoped to the primary category alone, and the first
// success is returned with a warning naming the fallback used. Exhausting the
// chain yields one aggregate error.
func (o *Orchestrator) PlanAndExecute(ctx context.Context, text string, primary domain.Category, related []domain.Category, maxRows int) (*domain.ExecutionResult, error) {
	seeds, err := o.seedTables(primary, related)
	if err != nil {
		return nil, err
	}
	if len(seeds) == 0 {
		return nil, fmt.Errorf("%w: no tables in category %s", domain.ErrNoRelevantTable, primary)
	}

	result, err := o.attempt(ctx, text, primary, maxRows, seeds)
	if err == nil && result.Success {
		result.Metadata["seed_tables"] = seeds
		return result, nil
	}
	failures := []error{describeFailure("composed query", result, err)}

	for _, fb := range fallbackChain {
		o.logger.InfoContext(ctx, "trying fallback query",
			slog.String("fallback", fb.name),
			slog.String("category", string(primary)),
		)
		result, err := o.attempt(ctx, fb.text(primary), primary, maxRows, nil)
		if err == nil && result.Success {
			o.inst.CountFallback(ctx)
			o.queries.stats.RecordFallback()
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("original query failed; answered with fallback %q", fb.name))
			result.Metadata["fallback"] = fb.name
			return result, nil
		}
		failures = append(failures, describeFailure(fb.name, result, err))
	}

	return nil, fmt.Errorf("all queries failed for %q: %w", text, errors.Join(failures...))
}

// attempt runs one question through the pipeline, converting a panic in any
// stage into an error so a single bad fallback cannot take down the chain.
func (o *Orchestrator) attempt(ctx context.Context, text string, category domain.Category, maxRows int, seeds []string) (result *domain.ExecutionResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = fmt.Errorf("query attempt panicked: %v", r)
		}
	}()
	return o.queries.execute(ctx, text, category, maxRows, seeds)
}

func describeFailure(name string, result *domain.ExecutionResult, err error) error {
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	if result != nil && result.Error != "" {
		return fmt.Errorf("%s: %s", name, result.Error)
	}
	return fmt.Errorf("%s: failed", name)
}

// seedTables orders the candidate tables primary-first, then tables reachable
// from a primary table through the relationship graph, then the remaining
// related-category tables.
func (o *Orchestrator) seedTables(primary domain.Category, related []domain.Category) ([]string, error) {
	catalog, err := o.catalog.Snapshot()
	if err != nil {
		return nil, err
	}

	var seeds []string
	seen := map[string]bool{}
	add := func(names []string) {
		sort.Strings(names)
		for _, n := range names {
			if !seen[n] {
				seen[n] = true
				seeds = append(seeds, n)
			}
		}
	}

	var primaryNames []string
	for _, t := range catalog.TablesByCategory(primary) {
		primaryNames = append(primaryNames, t.Name)
	}
	add(primaryNames)

	var relatedNames []string
	for _, cat := range related {
		for _, t := range catalog.TablesByCategory(cat) {
			relatedNames = append(relatedNames, t.Name)
		}
	}

	var reachable, rest []string
	for _, name := range relatedNames {
		joined := false
		for _, p := range primaryNames {
			if _, ok := catalog.JoinPath(p, name); ok {
				joined = true
				break
			}
		}
		if joined {
			reachable = append(reachable, name)
		} else {
			rest = append(rest, name)
		}
	}
	add(reachable)
	add(rest)
	return seeds, nil
}
