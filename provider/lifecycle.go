package provider

import "context"

// Closeable is implemented by providers holding resources that need an
// explicit, context-bounded shutdown.
type Closeable interface {
	Close(ctx context.Context) error
}

// CloseIfCloseable closes v when it implements Closeable.
func CloseIfCloseable(ctx context.Context, v any) error {
	if c, ok := v.(Closeable); ok {
		return c.Close(ctx)
	}
	return nil
}
