package provider

import (
	"context"
	"time"

	"github.com/kbukum/wskit/logger"
)

// WithLogging logs every Execute call: debug on success, error on failure.
func WithLogging[I, O any](log *logger.Logger) Middleware[I, O] {
	return func(inner RequestResponse[I, O]) RequestResponse[I, O] {
		return &loggingRR[I, O]{inner: inner, log: log}
	}
}

type loggingRR[I, O any] struct {
	inner RequestResponse[I, O]
	log   *logger.Logger
}

func (l *loggingRR[I, O]) Name() string                         { return l.inner.Name() }
func (l *loggingRR[I, O]) IsAvailable(ctx context.Context) bool { return l.inner.IsAvailable(ctx) }

func (l *loggingRR[I, O]) Execute(ctx context.Context, input I) (O, error) {
	start := time.Now()
	output, err := l.inner.Execute(ctx, input)

	call := describe(input)
	fields := logger.DurationFields(l.inner.Name(), time.Since(start))
	fields[logger.FieldMethod] = call.Method
	fields[logger.FieldURL] = call.URL
	if call.ExecutionID != "" {
		fields[logger.FieldExecutionID] = call.ExecutionID
	}

	if err != nil {
		fields[logger.FieldError] = err.Error()
		l.log.Error("exchange failed", fields)
		return output, err
	}

	fields[logger.FieldStatus] = statusOf(output)
	l.log.Debug("exchange completed", fields)
	return output, nil
}
