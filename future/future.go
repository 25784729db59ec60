package future

import (
	"context"
	"errors"
	"sync"
)

// ErrNilFailure replaces a nil error passed to Promise.Failure so a failed
// future always carries a cause.
var ErrNilFailure = errors.New("future: failed with nil error")

// Future is the read side of a single-resolution result.
type Future[T any] struct {
	mu        sync.Mutex
	done      chan struct{}
	resolved  bool
	value     T
	err       error
	callbacks []func(T, error)
}

// Promise is the write side of a Future. The first Success, Failure or
// Complete wins; later calls are ignored and return false.
type Promise[T any] struct {
	future *Future[T]
}

// NewPromise creates an unresolved promise.
func NewPromise[T any]() *Promise[T] {
	return &Promise[T]{future: &Future[T]{done: make(chan struct{})}}
}

// Future returns the future resolved by p.
func (p *Promise[T]) Future() *Future[T] {
	return p.future
}

// Success resolves with v.
func (p *Promise[T]) Success(v T) bool {
	return p.future.resolve(v, nil)
}

// Failure resolves with err, which is kept as is.
func (p *Promise[T]) Failure(err error) bool {
	if err == nil {
		err = ErrNilFailure
	}
	var zero T
	return p.future.resolve(zero, err)
}

// Complete resolves with v when err is nil, otherwise fails with err.
func (p *Promise[T]) Complete(v T, err error) bool {
	if err != nil {
		return p.Failure(err)
	}
	return p.Success(v)
}

func (f *Future[T]) resolve(v T, err error) bool {
	f.mu.Lock()
	if f.resolved {
		f.mu.Unlock()
		return false
	}
	f.resolved = true
	f.value, f.err = v, err
	callbacks := f.callbacks
	f.callbacks = nil
	close(f.done)
	f.mu.Unlock()

	for _, fn := range callbacks {
		fn(v, err)
	}
	return true
}

// Await blocks until f resolves or ctx is done. A ctx error does not
// resolve the future.
func (f *Future[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Done is closed once f resolves.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Value returns the outcome without blocking. ok is false while f is
// unresolved.
func (f *Future[T]) Value() (v T, err error, ok bool) { //nolint:staticcheck // ok reports readiness, not failure
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.resolved {
		return v, nil, false
	}
	return f.value, f.err, true
}

// OnComplete calls fn once with the outcome, on the resolving goroutine,
// or immediately on the caller's goroutine if f is already resolved.
func (f *Future[T]) OnComplete(fn func(T, error)) {
	f.mu.Lock()
	if !f.resolved {
		f.callbacks = append(f.callbacks, fn)
		f.mu.Unlock()
		return
	}
	v, err := f.value, f.err
	f.mu.Unlock()
	fn(v, err)
}

// Map returns a future resolved with fn applied to f's value. Failures
// pass through unchanged and fn is not called.
func Map[T, U any](f *Future[T], fn func(T) (U, error)) *Future[U] {
	p := NewPromise[U]()
	f.OnComplete(func(v T, err error) {
		if err != nil {
			p.Failure(err)
			return
		}
		p.Complete(fn(v))
	})
	return p.Future()
}

// Completed returns a future already resolved with v.
func Completed[T any](v T) *Future[T] {
	p := NewPromise[T]()
	p.Success(v)
	return p.Future()
}

// Failed returns a future already failed with err.
func Failed[T any](err error) *Future[T] {
	p := NewPromise[T]()
	p.Failure(err)
	return p.Future()
}
