package httpclient

import (
	"fmt"
	"time"

	"github.com/kbukum/wskit/resilience"
	"github.com/kbukum/wskit/security"
	"github.com/kbukum/wskit/validation"
)

const (
	defaultName          = "httpclient"
	defaultTimeout       = 30 * time.Second
	defaultDialTimeout   = 10 * time.Second
	defaultMaxConcurrent = 64
	defaultMaxRedirects  = 10
	defaultIdleConns     = 100
	defaultIdleTimeout   = 90 * time.Second
)

// TLSConfig is the shared security TLS configuration.
type TLSConfig = security.TLSConfig

// Config configures the engine and its transport.
type Config struct {
	// Name identifies the engine in logs, health output and breaker state.
	Name string `yaml:"name" mapstructure:"name"`

	// BaseURL is prepended to relative request URLs.
	BaseURL string `yaml:"base_url" mapstructure:"base_url" validate:"omitempty,abs_http_url"`

	// Timeout bounds a whole exchange including redirects and retries of the
	// digest handshake. Requests can override it. Defaults to 30s.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout" validate:"gte=0"`

	// DialTimeout bounds establishing a TCP connection. Defaults to 10s.
	DialTimeout time.Duration `yaml:"dial_timeout" mapstructure:"dial_timeout" validate:"gte=0"`

	// MaxConcurrent bounds in-flight asynchronous executions. Defaults to 64.
	MaxConcurrent int `yaml:"max_concurrent" mapstructure:"max_concurrent" validate:"gte=0"`

	// MaxQueueWait is how long an execution waits for a free slot before
	// failing. Zero waits up to the request timeout and a negative value
	// fails immediately when the engine is saturated.
	MaxQueueWait time.Duration `yaml:"max_queue_wait" mapstructure:"max_queue_wait"`

	// MaxRedirects caps followed redirects. Defaults to 10.
	MaxRedirects int `yaml:"max_redirects" mapstructure:"max_redirects" validate:"gte=0,lte=50"`

	// MaxIdleConns sizes the keep-alive pool. Defaults to 100.
	MaxIdleConns int `yaml:"max_idle_conns" mapstructure:"max_idle_conns" validate:"gte=0"`

	// UserAgent replaces the default wskit/<version> header value.
	UserAgent string `yaml:"user_agent" mapstructure:"user_agent"`

	// EnableHTTP2 negotiates HTTP/2 over TLS.
	EnableHTTP2 bool `yaml:"enable_http2" mapstructure:"enable_http2"`

	// CookieJar keeps cookies between requests of this engine.
	CookieJar bool `yaml:"cookie_jar" mapstructure:"cookie_jar"`

	// MaxRetries retries transport failures this many times using the default
	// backoff. Ignored when Retry is set.
	MaxRetries int `yaml:"max_retries" mapstructure:"max_retries" validate:"gte=0,lte=10"`

	// RateLimit caps requests per second. Zero disables limiting. Ignored
	// when RateLimiter is set.
	RateLimit float64 `yaml:"rate_limit" mapstructure:"rate_limit" validate:"gte=0"`

	// Headers are sent with every request unless the request sets them.
	Headers map[string]string `yaml:"headers" mapstructure:"headers"`

	// TLS configures the transport's client TLS settings.
	TLS *TLSConfig `yaml:"tls" mapstructure:"tls"`

	// Auth is the default realm for requests that carry none.
	Auth *AuthConfig `yaml:"-" mapstructure:"-"`

	// Retry configures retry behavior. Nil disables retry unless MaxRetries is set.
	Retry *resilience.RetryConfig `yaml:"-" mapstructure:"-"`

	// CircuitBreaker configures circuit breaker behavior. Nil disables it.
	CircuitBreaker *resilience.CircuitBreakerConfig `yaml:"-" mapstructure:"-"`

	// RateLimiter configures rate limiting. Nil disables it unless RateLimit is set.
	RateLimiter *resilience.RateLimiterConfig `yaml:"-" mapstructure:"-"`
}

// ApplyDefaults fills in zero-value fields.
func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = defaultName
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	if c.DialTimeout <= 0 {
		c.DialTimeout = defaultDialTimeout
	}
	if c.MaxConcurrent <= 0 {
		c.MaxConcurrent = defaultMaxConcurrent
	}
	if c.MaxRedirects <= 0 {
		c.MaxRedirects = defaultMaxRedirects
	}
	if c.MaxIdleConns <= 0 {
		c.MaxIdleConns = defaultIdleConns
	}
	if c.Retry == nil && c.MaxRetries > 0 {
		c.Retry = DefaultRetryConfig()
		c.Retry.MaxAttempts = c.MaxRetries + 1
	}
	if c.RateLimiter == nil && c.RateLimit > 0 {
		c.RateLimiter = &resilience.RateLimiterConfig{Name: c.Name, Rate: c.RateLimit}
	}
}

// Validate checks struct tags, the TLS block and the default realm.
func (c *Config) Validate() error {
	if err := validation.Validate(c); err != nil {
		return fmt.Errorf("httpclient: %w", err)
	}
	if c.TLS != nil {
		if err := c.TLS.Validate(); err != nil {
			return err
		}
	}
	if err := c.Auth.supported(); err != nil {
		return fmt.Errorf("httpclient: %w", err)
	}
	return nil
}

// DefaultRetryConfig retries retryable transport errors with the
// resilience defaults.
func DefaultRetryConfig() *resilience.RetryConfig {
	cfg := resilience.DefaultRetryConfig()
	cfg.RetryIf = IsRetryable
	return &cfg
}

// DefaultCircuitBreakerConfig returns a breaker that only counts transport
// and server failures.
func DefaultCircuitBreakerConfig(name string) *resilience.CircuitBreakerConfig {
	cfg := resilience.DefaultCircuitBreakerConfig(name)
	cfg.IsFailure = func(err error) bool {
		return IsConnection(err) || IsTimeout(err) || IsServerError(err)
	}
	return &cfg
}
