package provider

import "context"

// Provider is anything that can be asked whether it currently accepts work.
type Provider interface {
	Name() string
	// IsAvailable is false while the provider refuses calls, e.g. with an
	// open circuit breaker.
	IsAvailable(ctx context.Context) bool
}

// RequestResponse performs one call per input. The HTTP adapter and the
// middleware wrapping it implement it.
type RequestResponse[I, O any] interface {
	Provider
	Execute(ctx context.Context, input I) (O, error)
}

// Func wraps fn as an always available RequestResponse.
func Func[I, O any](name string, fn func(ctx context.Context, input I) (O, error)) RequestResponse[I, O] {
	return funcProvider[I, O]{name: name, fn: fn}
}

type funcProvider[I, O any] struct {
	name string
	fn   func(ctx context.Context, input I) (O, error)
}

func (f funcProvider[I, O]) Name() string                     { return f.name }
func (f funcProvider[I, O]) IsAvailable(context.Context) bool { return true }

func (f funcProvider[I, O]) Execute(ctx context.Context, input I) (O, error) {
	return f.fn(ctx, input)
}
