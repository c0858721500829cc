package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/warequery/warequery/internal/adapter/mcp"
	"github.com/warequery/warequery/internal/adapter/postgres"
	"github.com/warequery/warequery/internal/adapter/search"
	"github.com/warequery/warequery/internal/audit"
	"github.com/warequery/warequery/internal/config"
	"github.com/warequery/warequery/internal/core/domain"
	"github.com/warequery/warequery/internal/core/port"
	"github.com/warequery/warequery/internal/core/service"
	"github.com/warequery/warequery/internal/dictionary"
	"github.com/warequery/warequery/internal/telemetry"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func parseFlags(args []string) (config.Overrides, error) {
	fs := flag.NewFlagSet("warequery", flag.ContinueOnError)
	databaseURL := fs.String("database-url", "", "PostgreSQL connection string (overrides DATABASE_URL)")
	logLevel := fs.String("log-level", "", "log level: debug, info, warn, error")
	maxRows := fs.Int("max-rows", 0, "maximum rows returned per query")
	queryTimeout := fs.Duration("query-timeout", 0, "server-side statement timeout")
	maxConcurrent := fs.Int("max-concurrent-queries", 0, "ceiling on simultaneous query executions")
	sampleSize := fs.Int("sample-size", -1, "rows sampled per table during schema extraction")
	dictionaryFile := fs.String("dictionary", "", "path to data dictionary YAML")
	otelEnabled := fs.Bool("otel", false, "enable OpenTelemetry tracing and metrics")
	auditLog := fs.String("audit-log", "", "path to NDJSON audit log file")
	poolMaxConns := fs.Int("pool-max-conns", 0, "maximum database connections")
	poolMinConns := fs.Int("pool-min-conns", -1, "minimum idle database connections")
	if err := fs.Parse(args); err != nil {
		return config.Overrides{}, err
	}

	o := config.Overrides{
		OTelEnabled: *otelEnabled,
		AuditLog:    *auditLog,
	}
	if *databaseURL != "" {
		o.DatabaseURL = databaseURL
	}
	if *logLevel != "" {
		o.LogLevel = logLevel
	}
	if *maxRows > 0 {
		o.MaxRows = maxRows
	}
	if *queryTimeout > 0 {
		o.QueryTimeout = queryTimeout
	}
	if *maxConcurrent > 0 {
		o.MaxConcurrentQueries = maxConcurrent
	}
	if *sampleSize >= 0 {
		o.SampleSize = sampleSize
	}
	if *dictionaryFile != "" {
		o.DictionaryFile = dictionaryFile
	}
	if *poolMaxConns > 0 {
		n := int32(*poolMaxConns)
		o.PoolMaxConns = &n
	}
	if *poolMinConns >= 0 {
		n := int32(*poolMinConns)
		o.PoolMinConns = &n
	}
	return o, nil
}

// redactDSN hides the password component of a connection string for logging.
func redactDSN(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil {
		return "***"
	}
	if _, ok := u.User.Password(); ok {
		u.User = url.UserPassword(u.User.Username(), "***")
	}
	return u.String()
}

func run() error {
	overrides, err := parseFlags(os.Args[1:])
	if err != nil {
		return err
	}
	cfg, err := config.Load(overrides)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// Logs go to stderr; stdout is reserved for the MCP stdio transport.
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))

	logger.Info("starting warequery",
		slog.String("version", version),
		slog.String("log_level", cfg.LogLevel.String()),
		slog.Int("max_rows", cfg.MaxRows),
		slog.Int("max_concurrent_queries", cfg.MaxConcurrentQueries),
		slog.String("query_timeout", cfg.QueryTimeout.String()),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	// Observability (optional).
	var tracer trace.Tracer
	var inst port.Instrumentation
	if cfg.OTelEnabled {
		provider, err := telemetry.Init(ctx, "warequery", version)
		if err != nil {
			return fmt.Errorf("initializing telemetry: %w", err)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := provider.Shutdown(shutdownCtx); err != nil {
				logger.Error("telemetry shutdown", slog.String("error.message", err.Error()))
			}
		}()
		tracer = otel.Tracer("github.com/warequery/warequery")
		inst = telemetry.NewInstruments()
		logger.Info("telemetry enabled")
	} else {
		tracer = telemetry.NoopTracer()
		inst = port.NoopInstrumentation{}
	}

	// Audit trail (optional).
	var auditor port.QueryAuditor = audit.NoopAuditor{}
	if cfg.AuditLog != "" {
		fileAuditor, err := audit.NewFileAuditor(cfg.AuditLog)
		if err != nil {
			return fmt.Errorf("opening audit log: %w", err)
		}
		defer fileAuditor.Close()
		auditor = fileAuditor
		logger.Info("audit log enabled", slog.String("file", cfg.AuditLog))
	}

	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL, postgres.PoolSettings{
		MaxConns:        cfg.PoolMaxConns,
		MinConns:        cfg.PoolMinConns,
		MaxConnLifetime: cfg.PoolMaxConnLifetime,
	})
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer pool.Close()

	logger.Info("database pool connected",
		slog.String("db.system", "postgresql"),
		slog.String("dsn", redactDSN(cfg.DatabaseURL)),
	)

	// Data dictionary (optional).
	dict := &dictionary.Dictionary{}
	if cfg.DictionaryFile != "" {
		dict, err = dictionary.Load(cfg.DictionaryFile)
		if err != nil {
			return fmt.Errorf("loading dictionary: %w", err)
		}
		logger.Info("data dictionary loaded",
			slog.String("file", cfg.DictionaryFile),
			slog.Int("tables", len(dict.Tables)),
		)
	}

	// Adapters
	introspector := postgres.NewIntrospector(pool, cfg.Schemas)
	executor := postgres.NewExecutor(pool, int64(cfg.MaxConcurrentQueries), cfg.QueryTimeout)

	// Services
	catalogSvc := service.NewCatalogService(introspector, dict, logger)
	if _, err := catalogSvc.Extract(ctx, cfg.SampleSize > 0, cfg.SampleSize); err != nil {
		return fmt.Errorf("extracting schema: %w", err)
	}

	searcher := search.NewKeywordSearcher(catalogSvc)
	querySvc := service.NewQueryService(
		catalogSvc,
		searcher,
		domain.NewSafetyValidator(),
		executor,
		auditor,
		logger,
		dict.ColumnMasks(),
		tracer,
		inst,
		cfg.MaxRows,
	)
	orchestrator := service.NewOrchestrator(querySvc, catalogSvc, logger, inst)

	// MCP server with tool handlers.
	mcpServer := mcp.NewServer(version, mcp.ToolDeps{
		Catalog:      catalogSvc,
		Queries:      querySvc,
		Orchestrator: orchestrator,
		SampleSize:   cfg.SampleSize,
	}, logger, tracer, inst)

	// Run MCP over stdio (stdin/stdout).
	stdioServer := mcpserver.NewStdioServer(mcpServer)

	logger.Info("serving MCP over stdio")
	if err := stdioServer.Listen(ctx, os.Stdin, os.Stdout); err != nil {
		return fmt.Errorf("stdio server: %w", err)
	}

	logger.Info("shutdown complete")
	return nil
}
