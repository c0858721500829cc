package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

const meterName = "github.com/warequery/warequery"

// Instruments holds pre-created OTel metric instruments.
type Instruments struct {
	QueryCount       metric.Int64Counter
	QueryDuration    metric.Float64Histogram
	QueryErrors      metric.Int64Counter
	UnsafeRejections metric.Int64Counter
	Fallbacks        metric.Int64Counter
	ToolDuration     metric.Float64Histogram
}

// NewInstruments creates metric instruments from the global MeterProvider.
// Returns nil-safe instruments: if creation fails, noop instruments are used.
func NewInstruments() *Instruments {
	meter := otel.Meter(meterName)
	return newInstrumentsFromMeter(meter)
}

// NoopInstruments returns instruments that record nothing.
func NoopInstruments() *Instruments {
	meter := noop.NewMeterProvider().Meter(meterName)
	return newInstrumentsFromMeter(meter)
}

func newInstrumentsFromMeter(meter metric.Meter) *Instruments {
	// OTel SDK returns noop instruments on error; safe to discard.
	queryCount, _ := meter.Int64Counter("warequery.query.count",
		metric.WithDescription("Total number of natural language queries processed"),
	)
	queryDuration, _ := meter.Float64Histogram("warequery.query.duration",
		metric.WithDescription("End-to-end query execution duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	queryErrors, _ := meter.Int64Counter("warequery.query.errors",
		metric.WithDescription("Total number of failed query executions"),
	)
	unsafeRejections, _ := meter.Int64Counter("warequery.query.unsafe_rejections",
		metric.WithDescription("Total number of queries rejected by the safety validator"),
	)
	fallbacks, _ := meter.Int64Counter("warequery.query.fallbacks",
		metric.WithDescription("Total number of queries answered by a fallback strategy"),
	)
	toolDuration, _ := meter.Float64Histogram("warequery.tool.duration",
		metric.WithDescription("MCP tool call duration in milliseconds"),
		metric.WithUnit("ms"),
	)

	return &Instruments{
		QueryCount:       queryCount,
		QueryDuration:    queryDuration,
		QueryErrors:      queryErrors,
		UnsafeRejections: unsafeRejections,
		Fallbacks:        fallbacks,
		ToolDuration:     toolDuration,
	}
}

func (i *Instruments) ObserveQueryLatency(ctx context.Context, ms float64) {
	i.QueryDuration.Record(ctx, ms)
}

func (i *Instruments) CountQuery(ctx context.Context) {
	i.QueryCount.Add(ctx, 1)
}

func (i *Instruments) CountQueryFailure(ctx context.Context) {
	i.QueryErrors.Add(ctx, 1)
}

func (i *Instruments) CountRejection(ctx context.Context) {
	i.UnsafeRejections.Add(ctx, 1)
}

func (i *Instruments) CountFallback(ctx context.Context) {
	i.Fallbacks.Add(ctx, 1)
}

func (i *Instruments) ObserveToolLatency(ctx context.Context, ms float64) {
	i.ToolDuration.Record(ctx, ms)
}
