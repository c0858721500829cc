package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/warequery/warequery/internal/core/domain"
	"github.com/warequery/warequery/internal/core/port"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

type toolNameKey struct{}

// WithToolName returns a context carrying the calling tool's name for audit
// logging.
func WithToolName(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, toolNameKey{}, name)
}

func toolNameFromCtx(ctx context.Context) string {
	if v, ok := ctx.Value(toolNameKey{}).(string); ok {
		return v
	}
	return ""
}

// QueryService runs the full natural-language pipeline: analyze, rank, plan,
// synthesize, validate, execute. Planning is synchronous pure computation
// over the catalog snapshot; only the database round trip blocks.
type QueryService struct {
	catalog   *CatalogService
	searcher  port.TableSearcher
	validator port.SafetyValidator
	runner    port.QueryRunner
	auditor   port.QueryAuditor
	logger    *slog.Logger
	tracer    trace.Tracer
	inst      port.Instrumentation
	masks     map[string]domain.MaskType
	stats     *Stats
	maxRows   int

	analyzer    *domain.Analyzer
	resolver    *domain.Resolver
	planner     *domain.Planner
	synthesizer *domain.Synthesizer
	perf        *domain.PerformanceAnalyzer
}

func NewQueryService(
	catalog *CatalogService,
	searcher port.TableSearcher,
	validator port.SafetyValidator,
	runner port.QueryRunner,
	auditor port.QueryAuditor,
	logger *slog.Logger,
	masks map[string]domain.MaskType,
	tracer trace.Tracer,
	inst port.Instrumentation,
	maxRows int,
) *QueryService {
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("noop")
	}
	if inst == nil {
		inst = port.NoopInstrumentation{}
	}
	return &QueryService{
		catalog:     catalog,
		searcher:    searcher,
		validator:   validator,
		runner:      runner,
		auditor:     auditor,
		logger:      logger,
		tracer:      tracer,
		inst:        inst,
		masks:       masks,
		stats:       &Stats{},
		maxRows:     maxRows,
		analyzer:    domain.NewAnalyzer(),
		resolver:    domain.NewResolver(),
		planner:     domain.NewPlanner(),
		synthesizer: domain.NewSynthesizer(maxRows),
		perf:        domain.NewPerformanceAnalyzer(),
	}
}

// Stats exposes the rolling query statistics.
func (s *QueryService) Stats() StatsSnapshot { return s.stats.Snapshot() }

// plannedQuery is the outcome of the planning half of the pipeline.
type plannedQuery struct {
	plan     *domain.Plan
	sql      string
	report   domain.PerformanceReport
	warnings []string
}

// planQuery runs the synchronous planning pipeline. Planning errors are
// request errors; nothing has touched the database yet. A non-empty seed set
// replaces the search results as the candidate pool so the orchestrator's
// table ordering constrains what the plan may touch.
func (s *QueryService) planQuery(ctx context.Context, text string, category domain.Category, seeds []string) (*plannedQuery, error) {
	catalog, err := s.catalog.Snapshot()
	if err != nil {
		return nil, err
	}

	analysis := s.analyzer.Analyze(text)

	hits, err := s.searcher.Search(ctx, text, 2*len(analysis.Words)+5)
	if err != nil {
		return nil, fmt.Errorf("semantic search: %w", err)
	}

	var candidates []domain.TableHit
	if len(seeds) > 0 {
		candidates = seedCandidates(catalog, seeds, hits)
	} else {
		candidates = make([]domain.TableHit, 0, len(hits))
		for _, h := range hits {
			if t, ok := catalog.Table(h.Table); ok {
				candidates = append(candidates, domain.TableHit{Table: t, Certainty: h.Certainty})
			}
		}
	}

	ranked := s.resolver.Rank(analysis.Words, category, candidates)
	if len(ranked) == 0 {
		return nil, fmt.Errorf("%w for %q; known categories: %s",
			domain.ErrNoRelevantTable, text, categorySuggestions(catalog))
	}

	plan, err := s.planner.Plan(analysis, ranked, catalog)
	if err != nil {
		return nil, err
	}

	sql, capWarnings := s.synthesizer.Render(plan, catalog)

	verdict := s.validator.Validate(sql)
	plan.SafetyScore = verdict.Score
	if !verdict.Safe {
		s.inst.CountRejection(ctx)
		s.stats.RecordRejection()
		s.logger.WarnContext(ctx, "unsafe query rejected",
			slog.String("db.statement", sql),
			slog.String("error.type", "unsafe_query"),
			slog.Any("violations", verdict.Violations),
		)
		s.auditor.Record(ctx, port.AuditEntry{
			Tool:     toolNameFromCtx(ctx),
			Question: text,
			SQL:      sql,
			Rejected: true,
			Err:      domain.ErrUnsafeQuery,
		})
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsafeQuery, strings.Join(verdict.Violations, "; "))
	}

	report := s.perf.Analyze(sql)

	pq := &plannedQuery{plan: plan, sql: sql, report: report}
	pq.warnings = append(pq.warnings, plan.Warnings...)
	pq.warnings = append(pq.warnings, capWarnings...)
	pq.warnings = append(pq.warnings, verdict.Warnings...)
	pq.warnings = append(pq.warnings, report.AntiPatterns...)
	return pq, nil
}

// certaintyFloor is the semantic certainty assumed for a seeded table the
// searcher did not surface on its own.
const certaintyFloor = 0.3

// seedOrderBoost spreads a small descending bonus across the seed set so the
// orchestrator's primary-first / join-reachable / remaining ordering survives
// ranking when lexical signals tie.
const seedOrderBoost = 0.1

func seedCandidates(catalog *domain.Catalog, seeds []string, hits []port.SearchHit) []domain.TableHit {
	certainty := make(map[string]float64, len(hits))
	for _, h := range hits {
		certainty[h.Table] = h.Certainty
	}

	pool := make([]domain.TableHit, 0, len(seeds))
	for i, name := range seeds {
		t, ok := catalog.Table(name)
		if !ok {
			continue
		}
		c, found := certainty[name]
		if !found {
			c = certaintyFloor
		}
		c += seedOrderBoost * float64(len(seeds)-i) / float64(len(seeds))
		if c > 1.0 {
			c = 1.0
		}
		pool = append(pool, domain.TableHit{Table: t, Certainty: c})
	}
	return pool
}

// ExecuteNatural answers one plain-language question. Planning failures and
// retryable concurrency rejections return an error; database-side failures
// return a failed ExecutionResult with a nil error, because from the caller's
// view the query ran and did not succeed.
func (s *QueryService) ExecuteNatural(ctx context.Context, text string, category domain.Category, maxRows int) (*domain.ExecutionResult, error) {
	return s.execute(ctx, text, category, maxRows, nil)
}

func (s *QueryService) execute(ctx context.Context, text string, category domain.Category, maxRows int, seeds []string) (*domain.ExecutionResult, error) {
	ctx, span := s.tracer.Start(ctx, "QueryService.ExecuteNatural",
		trace.WithAttributes(
			attribute.String("db.system", "postgresql"),
			attribute.String("query.text", text),
		),
	)
	defer span.End()

	queryID := uuid.NewString()
	if maxRows <= 0 || maxRows > s.maxRows {
		maxRows = s.maxRows
	}

	pq, err := s.planQuery(ctx, text, category, seeds)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.inst.CountQueryFailure(ctx)
		return nil, err
	}
	span.SetAttributes(attribute.String("db.statement", pq.sql))

	start := time.Now()
	rows, err := s.runner.Run(ctx, pq.sql, maxRows)
	took := time.Since(start)

	s.inst.ObserveQueryLatency(ctx, float64(took.Milliseconds()))
	s.stats.Record(took, err != nil)
	s.auditor.Record(ctx, port.AuditEntry{
		QueryID:      queryID,
		Tool:         toolNameFromCtx(ctx),
		Question:     text,
		SQL:          pq.sql,
		RowsReturned: len(rows),
		DurationMS:   took.Milliseconds(),
		Err:          err,
	})

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.inst.CountQueryFailure(ctx)
		if domain.Retryable(err) {
			return nil, err
		}
		// Timeouts and execution errors are a failed result, not a crash.
		result := domain.FailedResult(pq.sql, took, err)
		result.Metadata = s.metadata(queryID, pq, 0, maxRows)
		result.Warnings = pq.warnings
		return result, nil
	}

	s.inst.CountQuery(ctx)
	span.SetAttributes(attribute.Int("db.response.rows", len(rows)))

	domain.MaskRows(rows, s.masks)

	return &domain.ExecutionResult{
		Success:       true,
		Data:          rows,
		RowCount:      len(rows),
		ExecutionTime: took,
		QueryUsed:     pq.sql,
		Warnings:      pq.warnings,
		Metadata:      s.metadata(queryID, pq, len(rows), maxRows),
	}, nil
}

func (s *QueryService) metadata(queryID string, pq *plannedQuery, rowCount, maxRows int) map[string]any {
	return map[string]any{
		"query_id":        queryID,
		"quality":         domain.AssessQuality(rowCount, maxRows),
		"size_impact":     domain.AssessSizeImpact(rowCount),
		"complexity":      pq.plan.Complexity,
		"safety_score":    pq.plan.SafetyScore,
		"estimated_rows":  pq.plan.EstimatedRows,
		"tables":          pq.plan.Tables,
		"functional_area": pq.report.FunctionalArea,
		// The runner wraps the statement in an outer LIMIT of this many
		// rows; QueryUsed carries the pre-wrap SQL.
		"row_cap": maxRows,
	}
}

// IndexAdvice analyzes one SQL statement. When sql is empty it emits the
// recommendations for every table in the catalog instead.
func (s *QueryService) IndexAdvice(sql string) ([]domain.IndexRecommendation, error) {
	if strings.TrimSpace(sql) != "" {
		report := s.perf.Analyze(sql)
		return report.Recommendations, nil
	}

	catalog, err := s.catalog.Snapshot()
	if err != nil {
		return nil, err
	}
	var recs []domain.IndexRecommendation
	for _, t := range catalog.Tables() {
		report := s.perf.Analyze("SELECT 1 FROM " + t.SQLName())
		recs = append(recs, report.Recommendations...)
	}
	return recs, nil
}

func categorySuggestions(catalog *domain.Catalog) string {
	var parts []string
	for _, cat := range domain.Categories {
		if n := len(catalog.TablesByCategory(cat)); n > 0 {
			parts = append(parts, fmt.Sprintf("%s (%d tables)", cat, n))
		}
	}
	return strings.Join(parts, ", ")
}
