package httpclient

import (
	"context"
	"fmt"

	"github.com/kbukum/wskit/component"
	"github.com/kbukum/wskit/resilience"
)

// Component wraps an Engine with lifecycle management.
// The engine is created in Start and closed in Stop.
type Component struct {
	engine *Engine
	config Config
	opts   []Option
}

// compile-time assertions
var _ component.Component = (*Component)(nil)
var _ component.Describable = (*Component)(nil)

// NewComponent creates an engine component.
func NewComponent(cfg Config, opts ...Option) *Component {
	return &Component{config: cfg, opts: opts}
}

// Name returns the component name.
func (c *Component) Name() string {
	if c.config.Name == "" {
		return defaultName
	}
	return c.config.Name
}

// Start builds the engine.
func (c *Component) Start(_ context.Context) error {
	e, err := NewEngine(c.config, c.opts...)
	if err != nil {
		return err
	}
	c.engine = e
	c.config = e.Config()
	return nil
}

// Stop closes the engine, waiting for in-flight executions.
func (c *Component) Stop(ctx context.Context) error {
	if c.engine != nil {
		return c.engine.Close(ctx)
	}
	return nil
}

// Health maps the circuit breaker state: open is unhealthy, half-open is
// degraded.
func (c *Component) Health(_ context.Context) component.Health {
	h := component.Health{Name: c.Name(), Status: component.StatusHealthy}
	switch {
	case c.engine == nil:
		h.Status = component.StatusUnhealthy
		h.Message = "not started"
	case c.engine.Closed():
		h.Status = component.StatusUnhealthy
		h.Message = "closed"
	default:
		if cb := c.engine.Adapter().CircuitBreaker(); cb != nil {
			switch cb.State() {
			case resilience.StateOpen:
				h.Status = component.StatusUnhealthy
				h.Message = "circuit breaker open"
			case resilience.StateHalfOpen:
				h.Status = component.StatusDegraded
				h.Message = "circuit breaker half-open"
			}
		}
	}
	return h
}

// Describe returns the component description for startup summaries.
func (c *Component) Describe() component.Description {
	return component.Description{
		Type: "http-engine",
		Details: fmt.Sprintf("timeout=%s max_concurrent=%d http2=%t",
			c.config.Timeout, c.config.MaxConcurrent, c.config.EnableHTTP2),
	}
}

// Engine returns the engine. Must be called after Start.
func (c *Component) Engine() *Engine {
	return c.engine
}
