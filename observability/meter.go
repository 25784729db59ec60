package observability

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/kbukum/wskit/logger"
)

// MeterConfig configures the OTLP metrics exporter.
type MeterConfig struct {
	ExportConfig `yaml:",inline" mapstructure:",squash"`
	// Interval between pushes. Zero keeps the SDK default.
	Interval time.Duration `yaml:"interval" mapstructure:"interval"`
}

// DefaultMeterConfig returns a disabled config for serviceName with defaults applied.
func DefaultMeterConfig(serviceName string) MeterConfig {
	c := MeterConfig{
		ExportConfig: ExportConfig{ServiceName: serviceName, Insecure: true},
		Interval:     15 * time.Second,
	}
	c.ApplyDefaults()
	return c
}

// ApplyDefaults fills unset fields.
func (c *MeterConfig) ApplyDefaults() { c.applyDefaults() }

// Validate checks the config.
func (c *MeterConfig) Validate() error {
	if c.Interval < 0 {
		return fmt.Errorf("metrics.interval must not be negative (got: %s)", c.Interval)
	}
	return c.validate("metrics")
}

// InitMeter installs a periodic OTLP/HTTP meter provider globally.
func InitMeter(ctx context.Context, cfg MeterConfig) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{otlpmetrichttp.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}
	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("metric exporter: %w", err)
	}
	res, err := cfg.resource()
	if err != nil {
		return nil, fmt.Errorf("metric resource: %w", err)
	}

	var readerOpts []sdkmetric.PeriodicReaderOption
	if cfg.Interval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(cfg.Interval))
	}
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(mp)

	logger.WithComponent("observability").Info("meter initialized", logger.Fields(
		"endpoint", cfg.Endpoint,
		"interval", cfg.Interval.String(),
	))
	return mp, nil
}

// Meter returns the wskit meter of the global provider.
func Meter() metric.Meter {
	return otel.Meter(instrumentationName)
}

// Metrics are the outbound request instruments. Attributes are method,
// host and status_code on completions, host on retries, type and host on
// errors.
type Metrics struct {
	requests metric.Int64Counter
	duration metric.Float64Histogram
	active   metric.Int64UpDownCounter
	retries  metric.Int64Counter
	errors   metric.Int64Counter
}

// NewMetrics creates the HTTP client instruments on meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	var (
		m   Metrics
		err error
	)
	counter := func(name, desc string) metric.Int64Counter {
		if err != nil {
			return nil
		}
		var c metric.Int64Counter
		if c, err = meter.Int64Counter(name, metric.WithDescription(desc)); err != nil {
			err = fmt.Errorf("instrument %s: %w", name, err)
		}
		return c
	}

	m.requests = counter("http.client.request.total", "Completed outbound requests")
	m.retries = counter("http.client.retry.total", "Retried attempts")
	m.errors = counter("http.client.error.total", "Requests that ended without a response, by error type")
	if err != nil {
		return nil, err
	}
	if m.duration, err = meter.Float64Histogram("http.client.request.duration",
		metric.WithDescription("Duration of outbound requests"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, fmt.Errorf("instrument http.client.request.duration: %w", err)
	}
	if m.active, err = meter.Int64UpDownCounter("http.client.active_requests",
		metric.WithDescription("Requests currently executing"),
	); err != nil {
		return nil, fmt.Errorf("instrument http.client.active_requests: %w", err)
	}
	return &m, nil
}

// RecordRequestStart counts a request as in flight.
func (m *Metrics) RecordRequestStart(ctx context.Context) {
	m.active.Add(ctx, 1)
}

// RecordRequestEnd closes a RecordRequestStart. status is 0 when no
// response arrived.
func (m *Metrics) RecordRequestEnd(ctx context.Context, method, host string, status int, elapsed time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("host", host),
		attribute.String("status_code", strconv.Itoa(status)),
	)
	m.active.Add(ctx, -1)
	m.requests.Add(ctx, 1, attrs)
	m.duration.Record(ctx, elapsed.Seconds(), attrs)
}

// RecordRetry counts one retry against host.
func (m *Metrics) RecordRetry(ctx context.Context, host string) {
	m.retries.Add(ctx, 1, metric.WithAttributes(attribute.String("host", host)))
}

// RecordError counts a failed request by error type.
func (m *Metrics) RecordError(ctx context.Context, errType, host string) {
	m.errors.Add(ctx, 1, metric.WithAttributes(
		attribute.String("type", errType),
		attribute.String("host", host),
	))
}
