package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/wskit/logger"
)

const instrumentationName = "github.com/kbukum/wskit"

// SpanHTTPRequest names the client span around one engine exchange.
const SpanHTTPRequest = "http.request"

// Span attribute keys.
const (
	AttrHTTPMethod     = attribute.Key("http.request.method")
	AttrURLFull        = attribute.Key("url.full")
	AttrServerAddress  = attribute.Key("server.address")
	AttrHTTPStatusCode = attribute.Key("http.response.status_code")
	AttrExecutionID    = attribute.Key("wskit.execution_id")
)

// TracerConfig configures the OTLP trace exporter.
type TracerConfig struct {
	ExportConfig `yaml:",inline" mapstructure:",squash"`
	// SampleRate is the fraction of root spans kept, within [0, 1].
	SampleRate float64 `yaml:"sample_rate" mapstructure:"sample_rate"`
}

// DefaultTracerConfig points at a local collector and keeps every span.
// Export stays disabled.
func DefaultTracerConfig(serviceName string) TracerConfig {
	c := TracerConfig{
		ExportConfig: ExportConfig{ServiceName: serviceName, Insecure: true},
		SampleRate:   1,
	}
	c.ApplyDefaults()
	return c
}

// ApplyDefaults fills unset fields.
func (c *TracerConfig) ApplyDefaults() { c.applyDefaults() }

// Validate checks the config.
func (c *TracerConfig) Validate() error {
	if c.SampleRate < 0 || c.SampleRate > 1 {
		return fmt.Errorf("tracing.sample_rate must be within [0, 1] (got: %v)", c.SampleRate)
	}
	return c.validate("tracing")
}

// InitTracer installs a batching OTLP/HTTP tracer provider and the W3C
// propagators globally. Shut the provider down to flush pending spans.
func InitTracer(ctx context.Context, cfg TracerConfig) (*sdktrace.TracerProvider, error) {
	opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	exporter, err := otlptracehttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("trace exporter: %w", err)
	}
	res, err := cfg.resource()
	if err != nil {
		return nil, fmt.Errorf("trace resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(samplerFor(cfg.SampleRate)),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	logger.WithComponent("observability").Info("tracer initialized", logger.Fields(
		"endpoint", cfg.Endpoint,
		"sample_rate", cfg.SampleRate,
	))
	return tp, nil
}

func samplerFor(rate float64) sdktrace.Sampler {
	if rate >= 1 {
		return sdktrace.AlwaysSample()
	}
	if rate <= 0 {
		return sdktrace.NeverSample()
	}
	return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(rate))
}

// StartSpan starts a span on the global provider's wskit tracer.
func StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return otel.Tracer(instrumentationName).Start(ctx, name, opts...)
}

// SetSpanAttributes is a no-op unless ctx carries a recording span.
func SetSpanAttributes(ctx context.Context, kv ...attribute.KeyValue) {
	if span := trace.SpanFromContext(ctx); span.IsRecording() {
		span.SetAttributes(kv...)
	}
}

// SetSpanError records err as an exception event and fails the span.
func SetSpanError(ctx context.Context, err error) {
	span := trace.SpanFromContext(ctx)
	if err == nil || !span.IsRecording() {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
