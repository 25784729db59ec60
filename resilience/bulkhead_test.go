package resilience

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestBulkhead_LimitsConcurrency(t *testing.T) {
	b := NewBulkhead(BulkheadConfig{Name: "test", MaxConcurrent: 2, MaxWait: time.Second})

	var inFlight, peak int32
	var wg sync.WaitGroup
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := b.Acquire(context.Background())
			if err != nil {
				t.Errorf("unexpected error: %v", err)
				return
			}
			defer release()
			n := atomic.AddInt32(&inFlight, 1)
			for {
				p := atomic.LoadInt32(&peak)
				if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			atomic.AddInt32(&inFlight, -1)
		}()
	}
	wg.Wait()

	if peak > 2 {
		t.Errorf("expected at most 2 concurrent, saw %d", peak)
	}
}

func TestBulkhead_RejectsWhenFull(t *testing.T) {
	rejected := 0
	b := NewBulkhead(BulkheadConfig{
		MaxConcurrent: 1,
		MaxWait:       -1,
		OnReject:      func(string) { rejected++ },
	})

	release, err := b.Acquire(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer release()

	if _, err := b.Acquire(context.Background()); !errors.Is(err, ErrBulkheadFull) {
		t.Errorf("expected ErrBulkheadFull, got %v", err)
	}
	if rejected != 1 {
		t.Errorf("expected OnReject once, got %d", rejected)
	}
}

func TestBulkhead_WaitTimeout(t *testing.T) {
	b := NewBulkhead(BulkheadConfig{MaxConcurrent: 1, MaxWait: 10 * time.Millisecond})

	release, _ := b.Acquire(context.Background())
	defer release()

	if _, err := b.Acquire(context.Background()); !errors.Is(err, ErrBulkheadTimeout) {
		t.Errorf("expected ErrBulkheadTimeout, got %v", err)
	}
}

func TestBulkhead_WaitHonoursContext(t *testing.T) {
	b := NewBulkhead(BulkheadConfig{MaxConcurrent: 1, MaxWait: time.Second})

	release, _ := b.Acquire(context.Background())
	defer release()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := b.Acquire(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestBulkhead_WaiterGetsReleasedSlot(t *testing.T) {
	b := NewBulkhead(BulkheadConfig{MaxConcurrent: 1, MaxWait: time.Second})

	release, _ := b.Acquire(context.Background())
	time.AfterFunc(10*time.Millisecond, release)

	next, err := b.Acquire(context.Background())
	if err != nil {
		t.Fatalf("expected the waiter to get the slot, got %v", err)
	}
	next()
	if b.InUse() != 0 {
		t.Errorf("InUse = %d, want 0", b.InUse())
	}
}

func TestBulkhead_ReleaseIsIdempotent(t *testing.T) {
	b := NewBulkhead(BulkheadConfig{MaxConcurrent: 2})

	release, _ := b.Acquire(context.Background())
	other, _ := b.Acquire(context.Background())
	release()
	release()

	if b.InUse() != 1 || b.Available() != 1 {
		t.Errorf("expected 1 in use, got in use=%d available=%d", b.InUse(), b.Available())
	}
	other()
}

func TestBulkhead_ZeroWaitBlocksUntilContextEnds(t *testing.T) {
	b := NewBulkhead(BulkheadConfig{MaxConcurrent: 1})

	release, _ := b.Acquire(context.Background())
	time.AfterFunc(20*time.Millisecond, release)
	next, err := b.Acquire(context.Background())
	if err != nil {
		t.Fatalf("expected to wait for the slot, got %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if _, err := b.Acquire(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected context.DeadlineExceeded, got %v", err)
	}
	next()
}
