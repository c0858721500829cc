package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Database connection.
	DatabaseURL  string
	MaxRows      int
	QueryTimeout time.Duration

	// Execution limits.
	MaxConcurrentQueries int // fail-fast ceiling on simultaneous executions

	// Schema extraction.
	Schemas        []string // empty means all non-system schemas
	SampleSize     int      // rows sampled per table during extraction (0 disables)
	DictionaryFile string   // optional path to data dictionary YAML

	// Logging.
	LogLevel slog.Level

	// Connection pool.
	PoolMaxConns        int32         // default: 5
	PoolMinConns        int32         // default: 1
	PoolMaxConnLifetime time.Duration // default: 30m

	// Observability.
	OTelEnabled bool // enable OpenTelemetry tracing and metrics

	// CLI-only fields (not settable via env vars).
	AuditLog string // path to NDJSON audit log file
}

// Overrides holds CLI flag values that override environment variables.
// Pointer fields distinguish "not set" from zero values.
type Overrides struct {
	DatabaseURL          *string
	LogLevel             *string
	MaxRows              *int
	QueryTimeout         *time.Duration
	MaxConcurrentQueries *int
	SampleSize           *int
	DictionaryFile       *string
	OTelEnabled          bool
	AuditLog             string

	// Connection pool overrides.
	PoolMaxConns        *int32
	PoolMinConns        *int32
	PoolMaxConnLifetime *time.Duration
}

// Load builds a Config from environment variables, then applies CLI overrides,
// then validates the result.
func Load(overrides Overrides) (*Config, error) {
	cfg := defaults()

	if err := loadEnvVars(cfg); err != nil {
		return nil, err
	}
	if err := applyOverrides(cfg, overrides); err != nil {
		return nil, err
	}
	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func defaults() *Config {
	return &Config{
		DatabaseURL:          os.Getenv("DATABASE_URL"),
		MaxRows:              1000,
		QueryTimeout:         30 * time.Second,
		MaxConcurrentQueries: 10,
		SampleSize:           3,
		PoolMaxConns:         5,
		PoolMinConns:         1,
		PoolMaxConnLifetime:  30 * time.Minute,
	}
}

// envInt parses the named env var as an int and stores it when set. atLeast
// is the lowest accepted value; the error spells out the constraint so
// operators can fix the var without reading code.
func envInt(name string, atLeast int, dst *int) error {
	v := os.Getenv(name)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < atLeast {
		return fmt.Errorf("invalid %s value %q: must be a %s integer", name, v, boundWord(atLeast))
	}
	*dst = n
	return nil
}

func envInt32(name string, atLeast int32, dst *int32) error {
	v := os.Getenv(name)
	if v == "" {
		return nil
	}
	n, err := strconv.ParseInt(v, 10, 32)
	if err != nil || int32(n) < atLeast {
		return fmt.Errorf("invalid %s value %q: must be a %s integer", name, v, boundWord(int(atLeast)))
	}
	*dst = int32(n)
	return nil
}

func envDuration(name string, dst *time.Duration) error {
	v := os.Getenv(name)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("invalid %s value %q: %w", name, v, err)
	}
	*dst = d
	return nil
}

func boundWord(atLeast int) string {
	if atLeast > 0 {
		return "positive"
	}
	return "non-negative"
}

func loadEnvVars(cfg *Config) error {
	if err := envInt("MAX_ROWS", 1, &cfg.MaxRows); err != nil {
		return err
	}
	if err := envDuration("QUERY_TIMEOUT", &cfg.QueryTimeout); err != nil {
		return err
	}
	if err := envInt("MAX_CONCURRENT_QUERIES", 1, &cfg.MaxConcurrentQueries); err != nil {
		return err
	}
	if err := envInt("SAMPLE_SIZE", 0, &cfg.SampleSize); err != nil {
		return err
	}
	if err := envInt32("POOL_MAX_CONNS", 1, &cfg.PoolMaxConns); err != nil {
		return err
	}
	if err := envInt32("POOL_MIN_CONNS", 0, &cfg.PoolMinConns); err != nil {
		return err
	}
	if err := envDuration("POOL_MAX_CONN_LIFETIME", &cfg.PoolMaxConnLifetime); err != nil {
		return err
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		level, err := parseLogLevel(v)
		if err != nil {
			return err
		}
		cfg.LogLevel = level
	}

	cfg.Schemas = splitSchemas(os.Getenv("SCHEMAS"))
	cfg.DictionaryFile = os.Getenv("DICTIONARY_FILE")

	if v := os.Getenv("OTEL_ENABLED"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid OTEL_ENABLED value %q: %w", v, err)
		}
		cfg.OTelEnabled = b
	}

	return nil
}

// splitSchemas turns a comma-separated schema list into trimmed names,
// dropping empty segments.
func splitSchemas(v string) []string {
	if v == "" {
		return nil
	}
	var schemas []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			schemas = append(schemas, s)
		}
	}
	return schemas
}

func applyOverrides(cfg *Config, o Overrides) error {
	if o.DatabaseURL != nil {
		cfg.DatabaseURL = *o.DatabaseURL
	}
	if o.LogLevel != nil {
		level, err := parseLogLevel(*o.LogLevel)
		if err != nil {
			return err
		}
		cfg.LogLevel = level
	}
	if o.MaxRows != nil {
		if *o.MaxRows <= 0 {
			return fmt.Errorf("invalid --max-rows value: must be a positive integer")
		}
		cfg.MaxRows = *o.MaxRows
	}
	if o.QueryTimeout != nil {
		cfg.QueryTimeout = *o.QueryTimeout
	}
	if o.MaxConcurrentQueries != nil {
		if *o.MaxConcurrentQueries <= 0 {
			return fmt.Errorf("invalid --max-concurrent-queries value: must be a positive integer")
		}
		cfg.MaxConcurrentQueries = *o.MaxConcurrentQueries
	}
	if o.SampleSize != nil {
		if *o.SampleSize < 0 {
			return fmt.Errorf("invalid --sample-size value: must be a non-negative integer")
		}
		cfg.SampleSize = *o.SampleSize
	}
	if o.DictionaryFile != nil {
		cfg.DictionaryFile = *o.DictionaryFile
	}
	if o.PoolMaxConns != nil {
		if *o.PoolMaxConns <= 0 {
			return fmt.Errorf("invalid --pool-max-conns value: must be a positive integer")
		}
		cfg.PoolMaxConns = *o.PoolMaxConns
	}
	if o.PoolMinConns != nil {
		if *o.PoolMinConns < 0 {
			return fmt.Errorf("invalid --pool-min-conns value: must be a non-negative integer")
		}
		cfg.PoolMinConns = *o.PoolMinConns
	}
	if o.PoolMaxConnLifetime != nil {
		cfg.PoolMaxConnLifetime = *o.PoolMaxConnLifetime
	}

	cfg.AuditLog = o.AuditLog
	cfg.OTelEnabled = cfg.OTelEnabled || o.OTelEnabled

	return nil
}

func validate(cfg *Config) error {
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required (set via env var or --database-url flag)")
	}
	if cfg.PoolMinConns > cfg.PoolMaxConns {
		return fmt.Errorf("POOL_MIN_CONNS (%d) must not exceed POOL_MAX_CONNS (%d)", cfg.PoolMinConns, cfg.PoolMaxConns)
	}
	return nil
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL value %q: must be debug, info, warn, or error", s)
	}
}
