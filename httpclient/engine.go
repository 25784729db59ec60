package httpclient

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kbukum/wskit/errors"
	"github.com/kbukum/wskit/logger"
	"github.com/kbukum/wskit/observability"
	"github.com/kbukum/wskit/provider"
	"github.com/kbukum/wskit/resilience"
	"github.com/kbukum/wskit/validation"
)

// Engine executes requests asynchronously and reports each outcome to a
// CompletionHandler. It is safe for concurrent use.
type Engine struct {
	adapter  *Adapter
	exchange provider.RequestResponse[*Request, *Response]
	bulkhead *resilience.Bulkhead
	log      *logger.Logger

	queueWait time.Duration
	timeout   time.Duration

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// NewEngine creates an engine and its adapter from cfg.
func NewEngine(cfg Config, opts ...Option) (*Engine, error) {
	o := buildOptions(opts)
	adapter, err := New(cfg, opts...)
	if err != nil {
		return nil, err
	}
	cfg = adapter.Config()

	e := &Engine{
		adapter: adapter,
		log:     o.log,
		bulkhead: resilience.NewBulkhead(resilience.BulkheadConfig{
			Name:          cfg.Name,
			MaxConcurrent: cfg.MaxConcurrent,
			MaxWait:       cfg.MaxQueueWait,
		}),
		queueWait: cfg.MaxQueueWait,
		timeout:   cfg.Timeout,
	}
	e.exchange = provider.Chain(
		provider.WithLogging[*Request, *Response](o.log),
		provider.WithTracing[*Request, *Response](observability.SpanHTTPRequest),
		provider.WithMetrics[*Request, *Response](o.metrics),
	)(adapter)
	return e, nil
}

// ExecuteRequest validates req and runs it in the background. A non-nil
// return means the request was rejected and h is never called. Otherwise
// exactly one of h.OnCompleted or h.OnThrowable is called later. Any HTTP
// status is delivered through OnCompleted.
func (e *Engine) ExecuteRequest(ctx context.Context, req *Request, h CompletionHandler) error {
	if h == nil {
		return errors.MissingField("handler")
	}
	if req == nil {
		return errors.MissingField("request")
	}
	if err := e.check(req); err != nil {
		return err
	}

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return errors.ServiceUnavailable(e.Name()).WithDetail("reason", "engine closed")
	}
	e.wg.Add(1)
	e.mu.Unlock()

	// The exchange outlives the submitting call, but keeps its values.
	ctx = context.WithoutCancel(ctx)
	go e.run(ctx, req, h)
	return nil
}

// check performs the synchronous validation of a submission.
func (e *Engine) check(req *Request) error {
	if err := validation.Validate(req); err != nil {
		return err
	}

	v := validation.New()
	if u, err := e.adapter.ResolveURL(req.URL); err != nil {
		v.AddError("url", err.Error())
	} else {
		v.AbsoluteURL("url", u.String())
	}
	v.Headers("header", req.Header)
	if err := v.Err(); err != nil {
		return err
	}
	return req.Auth.supported()
}

func (e *Engine) run(ctx context.Context, req *Request, h CompletionHandler) {
	defer e.wg.Done()

	id := uuid.NewString()
	ctx = logger.ContextWithExecutionID(ctx, id)
	req = req.withExecutionID(id)
	log := e.log.WithContext(ctx)

	var delivered bool
	deliver := func(resp *Response, err error) {
		if delivered {
			return
		}
		delivered = true
		if err != nil {
			h.OnThrowable(err)
			return
		}
		h.OnCompleted(resp)
	}
	defer func() {
		if r := recover(); r != nil {
			log.Error("execution panicked", logger.Fields("panic", fmt.Sprint(r), "stack", string(debug.Stack())))
			// A panicking handler already counts as its delivery.
			deliver(nil, fmt.Errorf("httpclient: execution panicked: %v", r))
		}
	}()

	release, err := e.acquire(ctx, req)
	if err != nil {
		log.Warn("execution rejected", logger.Fields(logger.FieldError, err.Error()))
		deliver(nil, err)
		return
	}
	defer release()

	log.Debug("execution started", logger.RequestFields(req.Method, req.URL))
	resp, err := e.exchange.Execute(ctx, req)
	deliver(resp, err)
}

// acquire takes a bulkhead slot. With no MaxQueueWait the wait is bounded
// by the request timeout.
func (e *Engine) acquire(ctx context.Context, req *Request) (func(), error) {
	if e.queueWait != 0 {
		return e.bulkhead.Acquire(ctx)
	}
	limit := e.timeout
	if req.Timeout > 0 {
		limit = req.Timeout
	}
	wctx, cancel := context.WithTimeout(ctx, limit)
	defer cancel()
	release, err := e.bulkhead.Acquire(wctx)
	if err != nil && ctx.Err() == nil {
		err = resilience.ErrBulkheadTimeout
	}
	return release, err
}

// Close stops accepting submissions, waits for in-flight executions or
// ctx, then closes the adapter. Close is idempotent.
func (e *Engine) Close(ctx context.Context) error {
	e.mu.Lock()
	e.closed = true
	e.mu.Unlock()

	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		return fmt.Errorf("httpclient: close: %w", ctx.Err())
	}
	return provider.CloseIfCloseable(ctx, e.adapter)
}

// Closed reports whether Close has been called.
func (e *Engine) Closed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.closed
}

// Name returns the configured engine name.
func (e *Engine) Name() string {
	return e.adapter.Name()
}

// IsAvailable reports whether the engine accepts work and its breaker is closed.
func (e *Engine) IsAvailable(ctx context.Context) bool {
	return !e.Closed() && e.exchange.IsAvailable(ctx)
}

// InFlight returns the number of executions holding a concurrency slot.
func (e *Engine) InFlight() int {
	return e.bulkhead.InUse()
}

// Adapter returns the synchronous adapter.
func (e *Engine) Adapter() *Adapter {
	return e.adapter
}

// Config returns the effective configuration.
func (e *Engine) Config() Config {
	return e.adapter.Config()
}
