package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/warequery/warequery/internal/core/domain"
	"golang.org/x/sync/semaphore"
)

// pgQueryCanceled is the SQLSTATE PostgreSQL raises when statement_timeout
// fires.
const pgQueryCanceled = "57014"

// Executor runs validated SQL under the concurrency ceiling and statement
// timeout. Planning is cheap and unbounded; in-flight database statements are
// the scarce resource this guards.
type Executor struct {
	pool         *pgxpool.Pool
	sem          *semaphore.Weighted
	queryTimeout time.Duration
}

func NewExecutor(pool *pgxpool.Pool, maxConcurrent int64, queryTimeout time.Duration) *Executor {
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	return &Executor{
		pool:         pool,
		sem:          semaphore.NewWeighted(maxConcurrent),
		queryTimeout: queryTimeout,
	}
}

// Run executes one statement. An arrival at the ceiling fails fast with a
// retryable error rather than queueing; the slot is released on every exit
// path.
func (e *Executor) Run(ctx context.Context, sql string, maxRows int) ([]map[string]any, error) {
	if !e.sem.TryAcquire(1) {
		return nil, domain.ErrConcurrencyLimit
	}
	defer e.sem.Release(1)

	return e.run(ctx, sql, maxRows)
}

func (e *Executor) run(ctx context.Context, sql string, maxRows int) ([]map[string]any, error) {
	ctx, cancel := context.WithTimeout(ctx, e.queryTimeout)
	defer cancel()

	tx, err := e.pool.BeginTx(ctx, pgx.TxOptions{AccessMode: pgx.ReadOnly})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrConnectionUnavailable, err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// The timeout is enforced server-side so PostgreSQL cancels the query
	// even if the Go context is cancelled first. SET LOCAL scopes it to this
	// transaction only.
	timeoutMS := e.queryTimeout.Milliseconds()
	if _, err := tx.Exec(ctx, fmt.Sprintf("SET LOCAL statement_timeout = '%d'", timeoutMS)); err != nil {
		return nil, fmt.Errorf("setting statement timeout: %w", err)
	}

	// Hard cap regardless of what the synthesizer injected: the wrapped
	// LIMIT bounds what the server streams back.
	wrapped := sql
	if maxRows > 0 {
		wrapped = fmt.Sprintf("SELECT * FROM (%s) AS _q LIMIT %d", sql, maxRows)
	}

	rows, err := tx.Query(ctx, wrapped)
	if err != nil {
		return nil, classifyError(err)
	}
	defer rows.Close()

	results, err := collectRows(rows, maxRows)
	if err != nil {
		return nil, classifyError(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing transaction: %w", err)
	}
	return results, nil
}

// classifyError maps database failures onto the engine's error taxonomy.
func classifyError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgQueryCanceled {
		return fmt.Errorf("%w: %s", domain.ErrStatementTimeout, pgErr.Message)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", domain.ErrStatementTimeout, err)
	}
	return fmt.Errorf("%w: %w", domain.ErrExecution, err)
}
