package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestNoopTracer(t *testing.T) {
	tracer := NoopTracer()
	assert.NotNil(t, tracer)

	_, span := tracer.Start(context.Background(), "test")
	assert.NotNil(t, span)
	span.End()
}

func TestNoopInstruments(t *testing.T) {
	inst := NoopInstruments()
	assert.NotNil(t, inst)
	assert.NotNil(t, inst.QueryCount)
	assert.NotNil(t, inst.QueryDuration)
	assert.NotNil(t, inst.UnsafeRejections)
	assert.NotNil(t, inst.Fallbacks)

	// Should not panic.
	ctx := context.Background()
	inst.CountQuery(ctx)
	inst.CountQueryFailure(ctx)
	inst.CountRejection(ctx)
	inst.CountFallback(ctx)
	inst.ObserveQueryLatency(ctx, 100.0)
	inst.ObserveToolLatency(ctx, 5.0)
}

func TestProvider_Shutdown_Nil(t *testing.T) {
	var p *Provider
	err := p.Shutdown(context.Background())
	assert.NoError(t, err)
}

func TestSpanRecording(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	defer func() { _ = tp.Shutdown(context.Background()) }()
	tracer := tp.Tracer("test")

	ctx := context.Background()
	_, span := tracer.Start(ctx, "QueryService.ExecuteNatural")
	span.SetAttributes(attribute.String("db.system", "postgresql"))
	span.End()

	require.NoError(t, tp.ForceFlush(ctx))

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "QueryService.ExecuteNatural", spans[0].Name)
}

func TestInstruments_Record(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	inst := newInstrumentsFromMeter(mp.Meter(meterName))

	ctx := context.Background()
	inst.CountQuery(ctx)
	inst.CountQuery(ctx)
	inst.CountFallback(ctx)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))
	require.Len(t, rm.ScopeMetrics, 1)

	byName := map[string]metricdata.Metrics{}
	for _, m := range rm.ScopeMetrics[0].Metrics {
		byName[m.Name] = m
	}

	count, ok := byName["warequery.query.count"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, count.DataPoints, 1)
	assert.Equal(t, int64(2), count.DataPoints[0].Value)

	fallbacks, ok := byName["warequery.query.fallbacks"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	assert.Equal(t, int64(1), fallbacks.DataPoints[0].Value)
}
