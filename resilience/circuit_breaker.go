package resilience

import (
	"context"
	"errors"
	"sync"
	"time"
)

// State is a circuit breaker state.
type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

var stateNames = [...]string{StateClosed: "closed", StateOpen: "open", StateHalfOpen: "half-open"}

// String returns the state name.
func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// ErrCircuitOpen is returned without calling through while the circuit is open.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// CircuitBreakerConfig configures a CircuitBreaker.
type CircuitBreakerConfig struct {
	// Name is reported to OnStateChange and in health output.
	Name string
	// MaxFailures is the number of consecutive failures that opens the
	// circuit. Defaults to 5.
	MaxFailures int
	// Timeout is how long the circuit stays open before a trial is let
	// through. Defaults to 30s.
	Timeout time.Duration
	// HalfOpenMaxCalls is both the number of concurrent trials and the
	// number of successes needed to close again. Defaults to 1.
	HalfOpenMaxCalls int
	// IsFailure decides whether an error counts against the upstream.
	// Defaults to every error except caller cancellation.
	IsFailure     func(error) bool
	OnStateChange func(name string, from, to State)
}

// DefaultCircuitBreakerConfig returns sensible defaults for name.
func DefaultCircuitBreakerConfig(name string) CircuitBreakerConfig {
	return CircuitBreakerConfig{
		Name:             name,
		MaxFailures:      5,
		Timeout:          30 * time.Second,
		HalfOpenMaxCalls: 1,
	}
}

// Counts is a snapshot of the breaker.
type Counts struct {
	State State
	// Failures is the current run of consecutive failures.
	Failures int
	// Successes counts successful trials while half-open.
	Successes   int
	LastFailure time.Time
}

// CircuitBreaker fails fast while an upstream keeps failing.
type CircuitBreaker struct {
	config CircuitBreakerConfig

	mu        sync.Mutex
	state     State
	counts    Counts
	openUntil time.Time
	trials    int
}

// NewCircuitBreaker creates a circuit breaker in the closed state.
func NewCircuitBreaker(config CircuitBreakerConfig) *CircuitBreaker {
	d := DefaultCircuitBreakerConfig(config.Name)
	if config.MaxFailures <= 0 {
		config.MaxFailures = d.MaxFailures
	}
	if config.Timeout <= 0 {
		config.Timeout = d.Timeout
	}
	if config.HalfOpenMaxCalls <= 0 {
		config.HalfOpenMaxCalls = d.HalfOpenMaxCalls
	}
	if config.IsFailure == nil {
		config.IsFailure = func(err error) bool { return !errors.Is(err, context.Canceled) }
	}
	return &CircuitBreaker{config: config}
}

// Name returns the breaker name.
func (cb *CircuitBreaker) Name() string {
	return cb.config.Name
}

// Execute runs fn unless the circuit is open, and records its outcome.
func (cb *CircuitBreaker) Execute(fn func() error) error {
	if !cb.admit(time.Now()) {
		return ErrCircuitOpen
	}
	err := fn()
	cb.record(err, time.Now())
	return err
}

// State reports the state as of now. An open circuit whose timeout passed
// reports half-open.
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.stateAt(time.Now())
}

// Counts returns a snapshot of the current counts.
func (cb *CircuitBreaker) Counts() Counts {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	c := cb.counts
	c.State = cb.stateAt(time.Now())
	return c
}

// Reset closes the circuit and clears the counters.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.setState(StateClosed, time.Now())
	cb.counts = Counts{}
}

func (cb *CircuitBreaker) admit(now time.Time) bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.stateAt(now) {
	case StateClosed:
		return true
	case StateHalfOpen:
		if cb.trials < cb.config.HalfOpenMaxCalls {
			cb.trials++
			return true
		}
	}
	return false
}

func (cb *CircuitBreaker) record(err error, now time.Time) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	state := cb.stateAt(now)
	if err != nil && cb.config.IsFailure(err) {
		cb.counts.Failures++
		cb.counts.LastFailure = now
		if state == StateHalfOpen || cb.counts.Failures >= cb.config.MaxFailures {
			cb.setState(StateOpen, now)
		}
		return
	}

	switch state {
	case StateClosed:
		cb.counts.Failures = 0
	case StateHalfOpen:
		cb.counts.Successes++
		if cb.counts.Successes >= cb.config.HalfOpenMaxCalls {
			cb.setState(StateClosed, now)
		}
	}
}

// stateAt must be called with mu held.
func (cb *CircuitBreaker) stateAt(now time.Time) State {
	if cb.state == StateOpen && !now.Before(cb.openUntil) {
		cb.setState(StateHalfOpen, now)
	}
	return cb.state
}

func (cb *CircuitBreaker) setState(to State, now time.Time) {
	from := cb.state
	if from == to {
		return
	}
	cb.state = to
	cb.trials = 0
	cb.counts.Successes = 0
	switch to {
	case StateOpen:
		cb.openUntil = now.Add(cb.config.Timeout)
	case StateClosed:
		cb.counts.Failures = 0
	}
	if cb.config.OnStateChange != nil {
		cb.config.OnStateChange(cb.config.Name, from, to)
	}
}
