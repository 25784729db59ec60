package provider

import (
	"context"

	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/wskit/observability"
)

// WithTracing opens a client span named spanName around each Execute call.
func WithTracing[I, O any](spanName string) Middleware[I, O] {
	return func(inner RequestResponse[I, O]) RequestResponse[I, O] {
		return &tracingRR[I, O]{inner: inner, spanName: spanName}
	}
}

type tracingRR[I, O any] struct {
	inner    RequestResponse[I, O]
	spanName string
}

func (t *tracingRR[I, O]) Name() string                         { return t.inner.Name() }
func (t *tracingRR[I, O]) IsAvailable(ctx context.Context) bool { return t.inner.IsAvailable(ctx) }

func (t *tracingRR[I, O]) Execute(ctx context.Context, input I) (O, error) {
	ctx, span := observability.StartSpan(ctx, t.spanName, trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	call := describe(input)
	observability.SetSpanAttributes(ctx,
		observability.AttrHTTPMethod.String(call.Method),
		observability.AttrURLFull.String(call.URL),
		observability.AttrServerAddress.String(call.Host),
	)
	if call.ExecutionID != "" {
		observability.SetSpanAttributes(ctx, observability.AttrExecutionID.String(call.ExecutionID))
	}

	output, err := t.inner.Execute(ctx, input)
	if err != nil {
		observability.SetSpanError(ctx, err)
		return output, err
	}
	observability.SetSpanAttributes(ctx, observability.AttrHTTPStatusCode.Int(statusOf(output)))
	return output, nil
}
