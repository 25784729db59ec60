package httpclient

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	apperrors "github.com/kbukum/wskit/errors"
	"github.com/kbukum/wskit/observability"
	"github.com/kbukum/wskit/resilience"
)

// recorder counts callbacks and exposes the first outcome.
type recorder struct {
	completed atomic.Int32
	throwable atomic.Int32
	done      chan struct{}
	once      sync.Once
	resp      *Response
	err       error
}

func newRecorder() *recorder {
	return &recorder{done: make(chan struct{})}
}

func (r *recorder) OnCompleted(resp *Response) {
	r.completed.Add(1)
	r.once.Do(func() {
		r.resp = resp
		close(r.done)
	})
}

func (r *recorder) OnThrowable(err error) {
	r.throwable.Add(1)
	r.once.Do(func() {
		r.err = err
		close(r.done)
	})
}

func (r *recorder) wait(t *testing.T) {
	t.Helper()
	select {
	case <-r.done:
	case <-time.After(5 * time.Second):
		t.Fatal("no callback within 5s")
	}
}

func (r *recorder) calls() int {
	return int(r.completed.Load() + r.throwable.Load())
}

func newTestEngine(t *testing.T, cfg Config, opts ...Option) *Engine {
	t.Helper()
	e, err := NewEngine(cfg, opts...)
	if err != nil {
		t.Fatalf("NewEngine() error: %v", err)
	}
	t.Cleanup(func() { _ = e.Close(context.Background()) })
	return e
}

func TestEngine_ExecuteRequest_Completed(t *testing.T) {
	echo := startEcho(t)
	e := newTestEngine(t, Config{})

	tests := []struct {
		path   string
		status int
	}{
		{"/echo/ok", http.StatusOK},
		{"/status/404", http.StatusNotFound},
		{"/status/503", http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := newRecorder()
			req := &Request{Method: http.MethodGet, URL: echo.URL() + tt.path}
			if err := e.ExecuteRequest(context.Background(), req, rec); err != nil {
				t.Fatalf("ExecuteRequest() error: %v", err)
			}
			rec.wait(t)
			if rec.resp == nil || rec.resp.StatusCode != tt.status {
				t.Fatalf("resp = %+v, err = %v", rec.resp, rec.err)
			}
			if rec.calls() != 1 {
				t.Errorf("callbacks = %d, want 1", rec.calls())
			}
		})
	}
}

func TestEngine_ExecuteRequest_Throwable(t *testing.T) {
	echo := startEcho(t)
	e := newTestEngine(t, Config{})

	rec := newRecorder()
	req := &Request{Method: http.MethodGet, URL: echo.URL() + "/slow?d=2s", Timeout: 30 * time.Millisecond}
	if err := e.ExecuteRequest(context.Background(), req, rec); err != nil {
		t.Fatalf("ExecuteRequest() error: %v", err)
	}
	rec.wait(t)

	var he *Error
	if !errors.As(rec.err, &he) || he.Code != ErrCodeTimeout {
		t.Errorf("err = %v, want timeout *Error", rec.err)
	}
	if rec.completed.Load() != 0 || rec.throwable.Load() != 1 {
		t.Errorf("completed=%d throwable=%d", rec.completed.Load(), rec.throwable.Load())
	}
}

func TestEngine_ExecuteRequest_SyncFailures(t *testing.T) {
	e := newTestEngine(t, Config{})

	tests := []struct {
		name string
		req  *Request
		h    CompletionHandler
		code apperrors.ErrorCode
	}{
		{"nil request", nil, newRecorder(), apperrors.ErrCodeMissingField},
		{"nil handler", &Request{Method: "GET", URL: "http://x"}, nil, apperrors.ErrCodeMissingField},
		{"empty method", &Request{URL: "http://x"}, newRecorder(), apperrors.ErrCodeInvalidInput},
		{"bad method", &Request{Method: "GE T", URL: "http://x"}, newRecorder(), apperrors.ErrCodeInvalidInput},
		{"relative url", &Request{Method: "GET", URL: "/path"}, newRecorder(), apperrors.ErrCodeInvalidInput},
		{"bad scheme", &Request{Method: "GET", URL: "ftp://x/y"}, newRecorder(), apperrors.ErrCodeInvalidInput},
		{"bad header name", &Request{Method: "GET", URL: "http://x", Header: http.Header{"Bad Name": {"v"}}}, newRecorder(), apperrors.ErrCodeInvalidInput},
		{"bad header value", &Request{Method: "GET", URL: "http://x", Header: http.Header{"X-A": {"a\nb"}}}, newRecorder(), apperrors.ErrCodeInvalidInput},
		{"ntlm realm", &Request{Method: "GET", URL: "http://x", Auth: &AuthConfig{Type: AuthNTLM}}, newRecorder(), apperrors.ErrCodeUnsupported},
		{"kerberos realm", &Request{Method: "GET", URL: "http://x", Auth: &AuthConfig{Type: AuthKerberos}}, newRecorder(), apperrors.ErrCodeUnsupported},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := e.ExecuteRequest(context.Background(), tt.req, tt.h)
			appErr, ok := apperrors.AsAppError(err)
			if !ok || appErr.Code != tt.code {
				t.Fatalf("error = %v, want %s", err, tt.code)
			}
			if rec, ok := tt.h.(*recorder); ok {
				time.Sleep(10 * time.Millisecond)
				if rec.calls() != 0 {
					t.Errorf("handler called %d times after a synchronous failure", rec.calls())
				}
			}
		})
	}
}

func TestEngine_Closed(t *testing.T) {
	echo := startEcho(t)
	e, err := NewEngine(Config{})
	if err != nil {
		t.Fatal(err)
	}

	// Close waits for in-flight work.
	rec := newRecorder()
	if err := e.ExecuteRequest(context.Background(), &Request{Method: "GET", URL: echo.URL() + "/slow?d=50ms"}, rec); err != nil {
		t.Fatalf("ExecuteRequest() error: %v", err)
	}
	if err := e.Close(context.Background()); err != nil {
		t.Fatalf("Close() error: %v", err)
	}
	if rec.calls() != 1 {
		t.Errorf("in-flight execution not finished by Close: %d callbacks", rec.calls())
	}

	err = e.ExecuteRequest(context.Background(), &Request{Method: "GET", URL: echo.URL() + "/echo/x"}, newRecorder())
	appErr, ok := apperrors.AsAppError(err)
	if !ok || appErr.Code != apperrors.ErrCodeServiceUnavailable {
		t.Errorf("error = %v, want service unavailable", err)
	}
	if e.IsAvailable(context.Background()) {
		t.Error("closed engine should not be available")
	}
	if err := e.Close(context.Background()); err != nil {
		t.Errorf("second Close() error: %v", err)
	}
}

func TestEngine_BulkheadFailFast(t *testing.T) {
	echo := startEcho(t)
	e := newTestEngine(t, Config{MaxConcurrent: 1, MaxQueueWait: -1})

	recs := []*recorder{newRecorder(), newRecorder()}
	for _, rec := range recs {
		req := &Request{Method: "GET", URL: echo.URL() + "/slow?d=300ms"}
		if err := e.ExecuteRequest(context.Background(), req, rec); err != nil {
			t.Fatalf("ExecuteRequest() error: %v", err)
		}
	}

	rejected := 0
	for _, rec := range recs {
		rec.wait(t)
		if errors.Is(rec.err, resilience.ErrBulkheadFull) {
			rejected++
		}
	}
	if rejected != 1 {
		t.Errorf("rejected = %d, want 1", rejected)
	}
}

func TestEngine_QueuesBeyondMaxConcurrent(t *testing.T) {
	echo := startEcho(t)
	e := newTestEngine(t, Config{MaxConcurrent: 4})

	recs := make([]*recorder, 20)
	for i := range recs {
		recs[i] = newRecorder()
		req := &Request{Method: "GET", URL: echo.URL() + "/slow?d=50ms"}
		if err := e.ExecuteRequest(context.Background(), req, recs[i]); err != nil {
			t.Fatalf("ExecuteRequest() error: %v", err)
		}
	}
	for i, rec := range recs {
		rec.wait(t)
		if rec.err != nil {
			t.Errorf("request %d failed: %v", i, rec.err)
		}
	}
}

func TestEngine_QueueWaitBoundedByRequestTimeout(t *testing.T) {
	echo := startEcho(t)
	e := newTestEngine(t, Config{MaxConcurrent: 1})

	slow, queued := newRecorder(), newRecorder()
	if err := e.ExecuteRequest(context.Background(), &Request{Method: "GET", URL: echo.URL() + "/slow?d=500ms"}, slow); err != nil {
		t.Fatalf("ExecuteRequest() error: %v", err)
	}
	time.Sleep(20 * time.Millisecond)
	req := &Request{Method: "GET", URL: echo.URL() + "/echo/x", Timeout: 30 * time.Millisecond}
	if err := e.ExecuteRequest(context.Background(), req, queued); err != nil {
		t.Fatalf("ExecuteRequest() error: %v", err)
	}

	queued.wait(t)
	if !errors.Is(queued.err, resilience.ErrBulkheadTimeout) {
		t.Errorf("queued error = %v, want ErrBulkheadTimeout", queued.err)
	}
	slow.wait(t)
	if slow.err != nil {
		t.Errorf("slow request failed: %v", slow.err)
	}
}

func TestEngine_HandlerPanic(t *testing.T) {
	echo := startEcho(t)
	e := newTestEngine(t, Config{})

	var completed, throwable atomic.Int32
	h := CompletionFuncs{
		Completed: func(*Response) {
			completed.Add(1)
			panic("handler bug")
		},
		Throwable: func(error) { throwable.Add(1) },
	}
	if err := e.ExecuteRequest(context.Background(), &Request{Method: "GET", URL: echo.URL() + "/echo/x"}, h); err != nil {
		t.Fatalf("ExecuteRequest() error: %v", err)
	}
	if err := e.Close(context.Background()); err != nil {
		t.Fatalf("Close() error: %v", err)
	}
	if completed.Load() != 1 || throwable.Load() != 0 {
		t.Errorf("completed=%d throwable=%d", completed.Load(), throwable.Load())
	}
}

func TestEngine_CallerCancelDoesNotAbort(t *testing.T) {
	echo := startEcho(t)
	e := newTestEngine(t, Config{})

	ctx, cancel := context.WithCancel(context.Background())
	rec := newRecorder()
	if err := e.ExecuteRequest(ctx, &Request{Method: "GET", URL: echo.URL() + "/slow?d=50ms"}, rec); err != nil {
		t.Fatalf("ExecuteRequest() error: %v", err)
	}
	cancel()
	rec.wait(t)
	if rec.err != nil {
		t.Errorf("err = %v, want completion", rec.err)
	}
}

func TestEngine_SpansAndMetrics(t *testing.T) {
	echo := startEcho(t)

	spans := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(spans))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		_ = tp.Shutdown(context.Background())
		otel.SetTracerProvider(prev)
	})

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer mp.Shutdown(context.Background())
	metrics, err := observability.NewMetrics(mp.Meter("test"))
	if err != nil {
		t.Fatal(err)
	}

	e := newTestEngine(t, Config{}, WithMetrics(metrics))
	rec := newRecorder()
	if err := e.ExecuteRequest(context.Background(), &Request{Method: "GET", URL: echo.URL() + "/echo/x"}, rec); err != nil {
		t.Fatalf("ExecuteRequest() error: %v", err)
	}
	rec.wait(t)
	if err := e.Close(context.Background()); err != nil {
		t.Fatal(err)
	}

	ended := spans.Ended()
	if len(ended) != 1 || ended[0].Name() != observability.SpanHTTPRequest {
		t.Fatalf("spans = %d", len(ended))
	}
	var execID string
	for _, kv := range ended[0].Attributes() {
		if kv.Key == observability.AttrExecutionID {
			execID = kv.Value.AsString()
		}
	}
	if len(execID) != 36 {
		t.Errorf("execution id = %q, want a uuid", execID)
	}

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("collect failed: %v", err)
	}
	found := false
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != "http.client.request.total" {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			if ok && len(sum.DataPoints) == 1 && sum.DataPoints[0].Value == 1 {
				found = true
			}
		}
	}
	if !found {
		t.Error("http.client.request.total not recorded once")
	}
}

func TestEngine_Accessors(t *testing.T) {
	e := newTestEngine(t, Config{Name: "api", MaxConcurrent: 3})
	if e.Name() != "api" || e.Config().MaxConcurrent != 3 || e.Adapter() == nil {
		t.Errorf("accessors: %s %+v", e.Name(), e.Config())
	}
	if !e.IsAvailable(context.Background()) || e.InFlight() != 0 {
		t.Error("fresh engine should be available and idle")
	}
}
