package resilience

import (
	"context"

	"golang.org/x/time/rate"
)

// RateLimiterConfig configures a RateLimiter.
type RateLimiterConfig struct {
	Name string
	// Rate is requests per second. Defaults to 10.
	Rate float64
	// Burst defaults to Rate, at least 1.
	Burst int
	// OnLimit runs when a caller has to wait or is refused.
	OnLimit func(name string)
}

// RateLimiter is a token bucket shared by all requests of one engine.
type RateLimiter struct {
	config  RateLimiterConfig
	limiter *rate.Limiter
}

// NewRateLimiter creates a token bucket rate limiter.
func NewRateLimiter(config RateLimiterConfig) *RateLimiter {
	if config.Rate <= 0 {
		config.Rate = 10
	}
	if config.Burst <= 0 {
		config.Burst = max(int(config.Rate), 1)
	}
	return &RateLimiter{
		config:  config,
		limiter: rate.NewLimiter(rate.Limit(config.Rate), config.Burst),
	}
}

// Allow takes a token if one is available without waiting.
func (rl *RateLimiter) Allow() bool {
	if rl.limiter.Allow() {
		return true
	}
	rl.limited()
	return false
}

// Wait blocks until a token is available. It fails without waiting when ctx
// would expire first.
func (rl *RateLimiter) Wait(ctx context.Context) error {
	if rl.limiter.Tokens() < 1 {
		rl.limited()
	}
	return rl.limiter.Wait(ctx)
}

// Tokens is the number of tokens available now.
func (rl *RateLimiter) Tokens() float64 {
	return rl.limiter.Tokens()
}

func (rl *RateLimiter) limited() {
	if rl.config.OnLimit != nil {
		rl.config.OnLimit(rl.config.Name)
	}
}
