package component

import "context"

// HealthStatus is the coarse health of a component.
type HealthStatus string

// Health statuses.
const (
	StatusHealthy   HealthStatus = "healthy"
	StatusDegraded  HealthStatus = "degraded"
	StatusUnhealthy HealthStatus = "unhealthy"
)

// Health is the result of a component health check.
type Health struct {
	Name    string       `json:"name"`
	Status  HealthStatus `json:"status"`
	Message string       `json:"message,omitempty"`
}

// Component has a start/stop lifecycle managed by a Registry. Stop should
// wait for in-flight work until ctx ends.
type Component interface {
	Name() string
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Health(ctx context.Context) Health
}

// Description summarises a component for startup logs.
type Description struct {
	Type    string // e.g. "http-engine"
	Details string // e.g. "timeout=30s max_concurrent=64"
}

// Describable is implemented by components that can describe their settings.
type Describable interface {
	Describe() Description
}
