package resilience

import (
	"context"
	"testing"
	"time"
)

func TestRateLimiter_BurstThenLimit(t *testing.T) {
	limited := 0
	rl := NewRateLimiter(RateLimiterConfig{
		Name:    "test",
		Rate:    1,
		Burst:   2,
		OnLimit: func(string) { limited++ },
	})

	if !rl.Allow() || !rl.Allow() {
		t.Fatal("expected burst of 2 to be allowed")
	}
	if rl.Allow() {
		t.Error("expected third request to be limited")
	}
	if limited != 1 {
		t.Errorf("expected OnLimit once, got %d", limited)
	}
}

func TestRateLimiter_WaitForToken(t *testing.T) {
	limited := 0
	rl := NewRateLimiter(RateLimiterConfig{Rate: 100, Burst: 1, OnLimit: func(string) { limited++ }})
	rl.Allow()

	start := time.Now()
	if err := rl.Wait(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 5*time.Millisecond {
		t.Errorf("expected to wait for refill, waited %v", elapsed)
	}
	if limited != 1 {
		t.Errorf("expected OnLimit once, got %d", limited)
	}
}

func TestRateLimiter_WaitRespectsContext(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{Rate: 0.1, Burst: 1})
	rl.Allow()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	if err := rl.Wait(ctx); err == nil {
		t.Fatal("expected Wait to fail when the deadline comes first")
	}
	if tokens := rl.Tokens(); tokens < -0.01 {
		t.Errorf("a refused wait must not consume a token, tokens=%v", tokens)
	}
}

func TestRateLimiter_Defaults(t *testing.T) {
	if rl := NewRateLimiter(RateLimiterConfig{Rate: 0.5}); rl.config.Burst != 1 {
		t.Errorf("expected burst 1 for sub-1 rate, got %d", rl.config.Burst)
	}
	if rl := NewRateLimiter(RateLimiterConfig{}); rl.config.Rate != 10 || rl.config.Burst != 10 {
		t.Errorf("unexpected defaults %+v", rl.config)
	}
}
