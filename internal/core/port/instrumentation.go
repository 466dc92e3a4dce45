package port

import "context"

// Instrumentation records application-level metrics.
type Instrumentation interface {
	RecordRefreshDuration(ctx context.Context, ms float64)
	IncrementRefreshCount(ctx context.Context)
	IncrementShapeRejections(ctx context.Context)
	RecordToolDuration(ctx context.Context, ms float64)
}

// NoopInstrumentation discards all metrics.
type NoopInstrumentation struct{}

func (NoopInstrumentation) RecordRefreshDuration(context.Context, float64) {}
func (NoopInstrumentation) IncrementRefreshCount(context.Context)          {}
func (NoopInstrumentation) IncrementShapeRejections(context.Context)       {}
func (NoopInstrumentation) RecordToolDuration(context.Context, float64)    {}
