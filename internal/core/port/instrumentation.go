package port

import "context"

// Instrumentation records application-level metrics.
type Instrumentation interface {
	ObserveQueryLatency(ctx context.Context, ms float64)
	CountQuery(ctx context.Context)
	CountQueryFailure(ctx context.Context)
	CountRejection(ctx context.Context)
	CountFallback(ctx context.Context)
	ObserveToolLatency(ctx context.Context, ms float64)
}

// NoopInstrumentation discards all metrics.
type NoopInstrumentation struct{}

func (NoopInstrumentation) ObserveQueryLatency(context.Context, float64) {}
func (NoopInstrumentation) CountQuery(context.Context)                   {}
func (NoopInstrumentation) CountQueryFailure(context.Context)            {}
func (NoopInstrumentation) CountRejection(context.Context)               {}
func (NoopInstrumentation) CountFallback(context.Context)                {}
func (NoopInstrumentation) ObserveToolLatency(context.Context, float64)  {}
