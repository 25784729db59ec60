package future

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestPromise_Success(t *testing.T) {
	p := NewPromise[string]()
	f := p.Future()

	if _, _, ok := f.Value(); ok {
		t.Fatal("fresh future should be unresolved")
	}
	if !p.Success("ok") {
		t.Fatal("first Success should win")
	}
	if p.Success("again") || p.Failure(errors.New("late")) {
		t.Error("later resolutions should be ignored")
	}

	v, err := f.Await(context.Background())
	if v != "ok" || err != nil {
		t.Errorf("Await() = %q, %v", v, err)
	}
	select {
	case <-f.Done():
	default:
		t.Error("Done() should be closed")
	}
}

func TestPromise_FailureKeepsCause(t *testing.T) {
	cause := errors.New("boom")
	p := NewPromise[int]()
	p.Failure(cause)

	_, err := p.Future().Await(context.Background())
	if err != cause {
		t.Errorf("err = %v, want the original cause", err)
	}
}

func TestPromise_FailureNil(t *testing.T) {
	p := NewPromise[int]()
	p.Failure(nil)
	if _, err, _ := p.Future().Value(); !errors.Is(err, ErrNilFailure) {
		t.Errorf("err = %v", err)
	}
}

func TestPromise_Complete(t *testing.T) {
	p := NewPromise[int]()
	p.Complete(7, nil)
	if v, err, ok := p.Future().Value(); v != 7 || err != nil || !ok {
		t.Errorf("Value() = %d, %v, %v", v, err, ok)
	}

	p = NewPromise[int]()
	p.Complete(7, errors.New("x"))
	if v, err, _ := p.Future().Value(); v != 0 || err == nil {
		t.Errorf("Value() = %d, %v", v, err)
	}
}

func TestPromise_ConcurrentResolution(t *testing.T) {
	p := NewPromise[int]()
	var wins atomic.Int32
	var wg sync.WaitGroup
	start := make(chan struct{})

	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			var won bool
			if i%2 == 0 {
				won = p.Success(i)
			} else {
				won = p.Failure(errors.New(strconv.Itoa(i)))
			}
			if won {
				wins.Add(1)
			}
		}(i)
	}
	close(start)
	wg.Wait()

	if wins.Load() != 1 {
		t.Errorf("wins = %d, want 1", wins.Load())
	}
	if _, _, ok := p.Future().Value(); !ok {
		t.Error("future should be resolved")
	}
}

func TestFuture_AwaitContext(t *testing.T) {
	p := NewPromise[int]()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	if _, err := p.Future().Await(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("err = %v", err)
	}
	if !p.Success(1) {
		t.Error("a ctx timeout must not resolve the future")
	}
}

func TestFuture_OnComplete(t *testing.T) {
	p := NewPromise[int]()
	var calls atomic.Int32
	p.Future().OnComplete(func(v int, err error) {
		if v == 3 && err == nil {
			calls.Add(1)
		}
	})
	p.Success(3)
	p.Success(4)

	// registered after resolution: runs immediately
	p.Future().OnComplete(func(v int, _ error) {
		if v == 3 {
			calls.Add(1)
		}
	})
	if calls.Load() != 2 {
		t.Errorf("calls = %d, want 2", calls.Load())
	}
}

func TestMap(t *testing.T) {
	p := NewPromise[int]()
	m := Map(p.Future(), func(v int) (string, error) { return strconv.Itoa(v * 2), nil })
	p.Success(21)

	v, err := m.Await(context.Background())
	if v != "42" || err != nil {
		t.Errorf("Map = %q, %v", v, err)
	}

	cause := errors.New("boom")
	called := false
	failed := Map(Failed[int](cause), func(int) (string, error) {
		called = true
		return "", nil
	})
	if _, err := failed.Await(context.Background()); err != cause || called {
		t.Errorf("err = %v, called = %v", err, called)
	}

	mapErr := errors.New("bad value")
	m2 := Map(Completed(1), func(int) (int, error) { return 0, mapErr })
	if _, err := m2.Await(context.Background()); err != mapErr {
		t.Errorf("err = %v", err)
	}
}
