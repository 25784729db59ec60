package component

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/kbukum/wskit/logger"
)

// StopTimeout bounds each component's Stop call inside StopAll.
var StopTimeout = 10 * time.Second

type slot struct {
	Component
	running bool
}

// Registry owns a set of components. They start in registration order and
// stop in reverse, so register dependencies first.
type Registry struct {
	mu    sync.RWMutex
	slots []*slot
	log   *logger.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{log: logger.WithComponent("components")}
}

// Register fails when the name is already taken.
func (r *Registry) Register(c Component) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.find(c.Name()) != nil {
		return fmt.Errorf("component %s already registered", c.Name())
	}
	r.slots = append(r.slots, &slot{Component: c})
	return nil
}

func (r *Registry) find(name string) *slot {
	i := slices.IndexFunc(r.slots, func(s *slot) bool { return s.Name() == name })
	if i < 0 {
		return nil
	}
	return r.slots[i]
}

// StartAll starts what is not yet running and stops at the first error.
// Components started before the failure stay running for StopAll.
func (r *Registry) StartAll(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.slots {
		if s.running {
			continue
		}
		if err := s.Start(ctx); err != nil {
			r.log.WithError(err).Error("component start failed", logger.Fields(logger.FieldComponent, s.Name()))
			return fmt.Errorf("failed to start %s: %w", s.Name(), err)
		}
		s.running = true

		fields := logger.Fields(logger.FieldComponent, s.Name())
		if d, ok := s.Component.(Describable); ok {
			desc := d.Describe()
			fields["type"] = desc.Type
			fields["details"] = desc.Details
		}
		r.log.Debug("component started", fields)
	}
	return nil
}

// StopAll stops running components in reverse order, giving each
// StopTimeout, and joins their errors.
func (r *Registry) StopAll(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	var errs []error
	for _, s := range slices.Backward(r.slots) {
		if !s.running {
			continue
		}
		if err := r.stop(ctx, s); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop %s: %w", s.Name(), err))
		}
		s.running = false
	}
	return errors.Join(errs...)
}

func (r *Registry) stop(ctx context.Context, s *slot) error {
	ctx, cancel := context.WithTimeout(ctx, StopTimeout)
	defer cancel()
	err := s.Stop(ctx)
	if err != nil {
		r.log.WithError(err).Error("component stop failed", logger.Fields(logger.FieldComponent, s.Name()))
	} else {
		r.log.Debug("component stopped", logger.Fields(logger.FieldComponent, s.Name()))
	}
	return err
}

// HealthAll reports every component in registration order.
func (r *Registry) HealthAll(ctx context.Context) []Health {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Health, len(r.slots))
	for i, s := range r.slots {
		out[i] = s.Health(ctx)
	}
	return out
}

// Get returns nil for unknown names.
func (r *Registry) Get(name string) Component {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if s := r.find(name); s != nil {
		return s.Component
	}
	return nil
}
