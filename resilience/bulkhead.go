package resilience

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"
)

var (
	// ErrBulkheadFull is returned when no slot is free and MaxWait is negative.
	ErrBulkheadFull = errors.New("bulkhead is full")
	// ErrBulkheadTimeout is returned when no slot freed up within MaxWait.
	ErrBulkheadTimeout = errors.New("bulkhead wait timeout")
)

// BulkheadConfig configures a Bulkhead.
type BulkheadConfig struct {
	Name string
	// MaxConcurrent defaults to 10.
	MaxConcurrent int
	// MaxWait bounds the wait for a slot. Zero waits until ctx ends and a
	// negative value fails immediately.
	MaxWait time.Duration
	// OnReject runs for every refused Acquire.
	OnReject func(name string)
}

// Bulkhead caps concurrent executions.
type Bulkhead struct {
	config BulkheadConfig
	sem    *semaphore.Weighted
	inUse  atomic.Int64
}

// NewBulkhead creates a bulkhead with config.
func NewBulkhead(config BulkheadConfig) *Bulkhead {
	if config.MaxConcurrent <= 0 {
		config.MaxConcurrent = 10
	}
	return &Bulkhead{
		config: config,
		sem:    semaphore.NewWeighted(int64(config.MaxConcurrent)),
	}
}

// Acquire takes a slot. The returned release func may be called more than
// once; only the first call frees the slot.
func (b *Bulkhead) Acquire(ctx context.Context) (release func(), err error) {
	if err := b.acquire(ctx); err != nil {
		if b.config.OnReject != nil {
			b.config.OnReject(b.config.Name)
		}
		return nil, err
	}
	b.inUse.Add(1)

	var once sync.Once
	return func() {
		once.Do(func() {
			b.inUse.Add(-1)
			b.sem.Release(1)
		})
	}, nil
}

func (b *Bulkhead) acquire(ctx context.Context) error {
	if b.sem.TryAcquire(1) {
		return nil
	}
	switch {
	case b.config.MaxWait < 0:
		return ErrBulkheadFull
	case b.config.MaxWait == 0:
		return b.sem.Acquire(ctx, 1)
	}

	wctx, cancel := context.WithTimeout(ctx, b.config.MaxWait)
	defer cancel()
	if err := b.sem.Acquire(wctx, 1); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return ErrBulkheadTimeout
	}
	return nil
}

// Available is the number of free slots.
func (b *Bulkhead) Available() int {
	return b.config.MaxConcurrent - b.InUse()
}

// InUse is the number of held slots.
func (b *Bulkhead) InUse() int {
	return int(b.inUse.Load())
}
