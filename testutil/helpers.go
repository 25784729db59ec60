package testutil

import (
	"context"
	"testing"

	"github.com/kbukum/wskit/component"
)

// Resettable is a component that can be shared by several test cases.
type Resettable interface {
	component.Component
	// Reset drops state collected by earlier cases.
	Reset(ctx context.Context) error
}

// Setup starts c and returns its stop function. Use it outside *testing.T
// scopes such as TestMain; tests prefer T(t).Setup.
func Setup(c component.Component) (stop func() error, err error) {
	ctx := context.Background()
	if err := c.Start(ctx); err != nil {
		return nil, err
	}
	return func() error { return c.Stop(ctx) }, nil
}

// THelper binds component lifecycles to a test.
type THelper struct {
	tb testing.TB
}

// T wraps tb.
func T(tb testing.TB) *THelper { return &THelper{tb: tb} }

// Setup starts c and registers its Stop as a test cleanup.
func (h *THelper) Setup(c component.Component) {
	h.tb.Helper()
	stop, err := Setup(c)
	if err != nil {
		h.tb.Fatalf("start %s: %v", c.Name(), err)
	}
	h.tb.Cleanup(func() {
		if err := stop(); err != nil {
			h.tb.Errorf("stop %s: %v", c.Name(), err)
		}
	})
}

// Reset resets c, failing the test on error.
func (h *THelper) Reset(c Resettable) {
	h.tb.Helper()
	if err := c.Reset(context.Background()); err != nil {
		h.tb.Fatalf("reset %s: %v", c.Name(), err)
	}
}
