package provider

import (
	"context"
	"time"

	"github.com/kbukum/wskit/observability"
)

// WithMetrics records request count, duration and errors. A nil metrics
// value makes the middleware a pass-through.
func WithMetrics[I, O any](metrics *observability.Metrics) Middleware[I, O] {
	return func(inner RequestResponse[I, O]) RequestResponse[I, O] {
		if metrics == nil {
			return inner
		}
		return &metricsRR[I, O]{inner: inner, metrics: metrics}
	}
}

type metricsRR[I, O any] struct {
	inner   RequestResponse[I, O]
	metrics *observability.Metrics
}

func (m *metricsRR[I, O]) Name() string                         { return m.inner.Name() }
func (m *metricsRR[I, O]) IsAvailable(ctx context.Context) bool { return m.inner.IsAvailable(ctx) }

func (m *metricsRR[I, O]) Execute(ctx context.Context, input I) (O, error) {
	call := describe(input)
	m.metrics.RecordRequestStart(ctx)
	start := time.Now()

	output, err := m.inner.Execute(ctx, input)

	status := 0
	if err != nil {
		m.metrics.RecordError(ctx, errorKind(err), call.Host)
	} else {
		status = statusOf(output)
	}
	m.metrics.RecordRequestEnd(ctx, call.Method, call.Host, status, time.Since(start))
	return output, err
}
