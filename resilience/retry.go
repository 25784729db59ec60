package resilience

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// RetryAfterer is implemented by errors carrying a server supplied delay,
// typically parsed from a Retry-After header.
type RetryAfterer interface {
	RetryAfter() time.Duration
}

// RetryConfig configures Retry. Zero fields take the DefaultRetryConfig
// values.
type RetryConfig struct {
	// MaxAttempts counts the first call.
	MaxAttempts int
	// InitialBackoff is the delay before the second attempt.
	InitialBackoff time.Duration
	// MaxBackoff caps any single delay, Retry-After hints included.
	MaxBackoff    time.Duration
	BackoffFactor float64
	// Jitter randomizes each delay by up to this fraction (0 to 1).
	Jitter  float64
	RetryIf func(error) bool
	// OnRetry runs before waiting for attempt+1.
	OnRetry func(attempt int, err error, backoff time.Duration)
}

// DefaultRetryConfig returns sensible retry defaults.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:    3,
		InitialBackoff: 100 * time.Millisecond,
		MaxBackoff:     10 * time.Second,
		BackoffFactor:  2.0,
		Jitter:         0.1,
		RetryIf:        DefaultRetryIf,
	}
}

// DefaultRetryIf retries everything except context cancellation and expiry.
func DefaultRetryIf(err error) bool {
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

func (c RetryConfig) withDefaults() RetryConfig {
	d := DefaultRetryConfig()
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = d.MaxAttempts
	}
	if c.InitialBackoff <= 0 {
		c.InitialBackoff = d.InitialBackoff
	}
	if c.MaxBackoff <= 0 {
		c.MaxBackoff = d.MaxBackoff
	}
	if c.BackoffFactor <= 0 {
		c.BackoffFactor = d.BackoffFactor
	}
	if c.RetryIf == nil {
		c.RetryIf = d.RetryIf
	}
	return c
}

func (c RetryConfig) backOff() *backoff.ExponentialBackOff {
	return &backoff.ExponentialBackOff{
		InitialInterval:     c.InitialBackoff,
		RandomizationFactor: c.Jitter,
		Multiplier:          c.BackoffFactor,
		MaxInterval:         c.MaxBackoff,
	}
}

// Retry calls fn until it succeeds, fails with an error RetryIf rejects,
// runs out of attempts or ctx ends. fn's last error is returned unchanged;
// when ctx ends during a wait the context error is returned instead.
func Retry[T any](ctx context.Context, cfg RetryConfig, fn func() (T, error)) (T, error) {
	cfg = cfg.withDefaults()
	if err := ctx.Err(); err != nil {
		var zero T
		return zero, err
	}

	attempt := 0
	op := func() (T, error) {
		attempt++
		v, err := fn()
		switch {
		case err == nil:
			return v, nil
		case !cfg.RetryIf(err):
			return v, backoff.Permanent(err)
		}
		var hint RetryAfterer
		if errors.As(err, &hint) && hint.RetryAfter() > 0 {
			return v, &hintedError{err: err, after: &backoff.RetryAfterError{Duration: min(hint.RetryAfter(), cfg.MaxBackoff)}}
		}
		return v, err
	}

	opts := []backoff.RetryOption{
		backoff.WithBackOff(cfg.backOff()),
		backoff.WithMaxTries(uint(cfg.MaxAttempts)),
		backoff.WithMaxElapsedTime(0),
	}
	if cfg.OnRetry != nil {
		opts = append(opts, backoff.WithNotify(func(err error, next time.Duration) {
			cfg.OnRetry(attempt, unwrapRetryError(err), next)
		}))
	}

	v, err := backoff.Retry(ctx, op, opts...)
	if err != nil {
		var zero T
		return zero, unwrapRetryError(err)
	}
	return v, nil
}

// hintedError hands a Retry-After delay to backoff while keeping the
// original error for the caller.
type hintedError struct {
	err   error
	after *backoff.RetryAfterError
}

func (h *hintedError) Error() string   { return h.err.Error() }
func (h *hintedError) Unwrap() []error { return []error{h.err, h.after} }

func unwrapRetryError(err error) error {
	var perm *backoff.PermanentError
	if errors.As(err, &perm) {
		err = perm.Err
	}
	var hinted *hintedError
	if errors.As(err, &hinted) {
		return hinted.err
	}
	return err
}
