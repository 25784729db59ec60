package ws

import (
	"context"
	"errors"
	"net/http"
	"reflect"
	"sync"
	"testing"
	"time"

	apperrors "github.com/kbukum/wskit/errors"
	"github.com/kbukum/wskit/httpclient"
)

// fakeExecutor records submissions and completes them as configured.
type fakeExecutor struct {
	mu        sync.Mutex
	submitted []*httpclient.Request
	reject    error
	respond   func(*httpclient.Request, httpclient.CompletionHandler)
}

func (f *fakeExecutor) ExecuteRequest(_ context.Context, req *httpclient.Request, h httpclient.CompletionHandler) error {
	if f.reject != nil {
		return f.reject
	}
	f.mu.Lock()
	f.submitted = append(f.submitted, req)
	f.mu.Unlock()
	if f.respond != nil {
		go f.respond(req, h)
	}
	return nil
}

func (f *fakeExecutor) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.submitted)
}

func awaitCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestRequest_Headers(t *testing.T) {
	r := NewRequest(http.MethodPost).
		SetHeader("X-Foo", "a")

	if got := r.Header("x-foo"); !reflect.DeepEqual(got, []string{"a"}) {
		t.Errorf("Header(x-foo) = %v", got)
	}

	r.SetHeader("H", "1").AddHeader("H", "2")
	if got := r.Header("H"); !reflect.DeepEqual(got, []string{"1", "2"}) {
		t.Errorf("Header(H) = %v", got)
	}

	r.AddHeader("N").AddHeader("M", "")
	if got, want := r.Header("N"), r.Header("M"); !reflect.DeepEqual(got, want) {
		t.Errorf("AddHeader(name) = %v, AddHeader(name, \"\") = %v", got, want)
	}

	if got := r.Header("unset"); got == nil || len(got) != 0 {
		t.Errorf("Header(unset) = %#v", got)
	}

	// mirrored onto the builder state
	if got := r.Underlying().Header().Values("H"); !reflect.DeepEqual(got, []string{"1", "2"}) {
		t.Errorf("builder H = %v", got)
	}
}

func TestRequest_SetHeadersReplaces(t *testing.T) {
	r := NewRequest(http.MethodGet).SetHeader("Old", "1")

	h := NewHeaderMap()
	h.Add("New", "x", "y")
	r.SetHeaders(h)
	h.Add("New", "z")

	if len(r.Header("Old")) != 0 {
		t.Error("SetHeaders should drop previous headers")
	}
	if got := r.AllHeaders(); !reflect.DeepEqual(got, map[string][]string{"New": {"x", "y"}}) {
		t.Errorf("AllHeaders() = %v", got)
	}
	if got := r.Underlying().HeaderNames(); !reflect.DeepEqual(got, []string{"New"}) {
		t.Errorf("builder names = %v", got)
	}

	r.SetHeaderValues(map[string][]string{"A": {"1"}})
	if got := r.AllHeaders(); !reflect.DeepEqual(got, map[string][]string{"A": {"1"}}) {
		t.Errorf("after SetHeaderValues: %v", got)
	}
	if got := r.Underlying().Header(); !reflect.DeepEqual(got, http.Header{"A": {"1"}}) {
		t.Errorf("builder header = %v", got)
	}

	r.SetHeaders(nil)
	if len(r.AllHeaders()) != 0 {
		t.Error("SetHeaders(nil) should clear headers")
	}
}

func TestRequest_AllHeadersIsCopy(t *testing.T) {
	r := NewRequest(http.MethodGet).SetHeader("A", "1")
	all := r.AllHeaders()
	all["A"][0] = "mutated"
	all["B"] = []string{"2"}
	if got := r.AllHeaders(); !reflect.DeepEqual(got, map[string][]string{"A": {"1"}}) {
		t.Errorf("AllHeaders() = %v", got)
	}
}

func TestRequest_MethodAndURL(t *testing.T) {
	r := URL("http://example.com/a")
	if r.Method() != http.MethodGet || r.URL() != "http://example.com/a" {
		t.Errorf("URL() shorthand: %s %s", r.Method(), r.URL())
	}

	r = NewRequest(http.MethodDelete).SetURL("http://x/1").SetHeader("A", "1").SetURL("http://x/2").AddHeader("B")
	if r.Method() != http.MethodDelete || r.URL() != "http://x/2" {
		t.Errorf("Method/URL = %s %s", r.Method(), r.URL())
	}
	if r.Underlying().Method() != http.MethodDelete || r.Underlying().URL() != "http://x/2" {
		t.Error("builder not in sync")
	}
}

func TestRequest_Auth(t *testing.T) {
	r := URL("http://x").Auth("user", "pw", AuthSchemeDigest)
	realm := r.Realm()
	if realm == nil || !realm.UsePreemptive || realm.Scheme != AuthSchemeDigest || realm.Principal != "user" {
		t.Fatalf("Realm() = %+v", realm)
	}
	realm.Principal = "changed"
	if r.Realm().Principal != "user" {
		t.Error("Realm() should return a copy")
	}

	exec := &fakeExecutor{}
	r.ExecuteWith(context.Background(), exec)
	auth := exec.submitted[0].Auth
	if auth == nil || auth.Type != httpclient.AuthDigest || !auth.Preemptive || auth.Password != "pw" {
		t.Errorf("submitted realm = %+v", auth)
	}

	if URL("http://x").Realm() != nil {
		t.Error("Realm() should be nil without Auth")
	}
}

func TestRequest_ExecuteCompleted(t *testing.T) {
	raw := &httpclient.Response{StatusCode: 201, StatusText: "Created", Body: []byte("done")}
	exec := &fakeExecutor{respond: func(_ *httpclient.Request, h httpclient.CompletionHandler) {
		h.OnCompleted(raw)
	}}

	resp, err := URL("http://x").ExecuteWith(context.Background(), exec).Await(awaitCtx(t))
	if err != nil {
		t.Fatalf("Await() error: %v", err)
	}
	if resp.Underlying() != raw || resp.Status() != 201 || resp.BodyString() != "done" {
		t.Errorf("resp = %+v", resp.Underlying())
	}
}

func TestRequest_ExecuteThrowable(t *testing.T) {
	cause := httpclient.NewConnectionError(errors.New("refused"))
	exec := &fakeExecutor{respond: func(_ *httpclient.Request, h httpclient.CompletionHandler) {
		h.OnThrowable(cause)
	}}

	_, err := URL("http://x").ExecuteWith(context.Background(), exec).Await(awaitCtx(t))
	if err != cause {
		t.Errorf("err = %v, want the original cause", err)
	}
}

func TestRequest_ExecuteSyncFailure(t *testing.T) {
	cause := errors.New("engine closed")
	exec := &fakeExecutor{reject: cause}

	f := URL("http://x").ExecuteWith(context.Background(), exec)
	v, err, ok := f.Value()
	if !ok {
		t.Fatal("future should already be failed")
	}
	if v != nil || err != cause {
		t.Errorf("Value() = %v, %v", v, err)
	}
	if exec.calls() != 0 {
		t.Error("async path should not run")
	}
}

func TestRequest_ExecuteBuildFailure(t *testing.T) {
	exec := &fakeExecutor{}
	_, err, ok := NewRequest(http.MethodGet).ExecuteWith(context.Background(), exec).Value()
	appErr, isApp := apperrors.AsAppError(err)
	if !ok || !isApp || appErr.Code != apperrors.ErrCodeMissingField {
		t.Errorf("err = %v", err)
	}
	if exec.calls() != 0 {
		t.Error("engine should not be called")
	}
}

func TestRequest_ExecuteSnapshot(t *testing.T) {
	exec := &fakeExecutor{}
	r := NewRequest(http.MethodPut).
		SetURL("http://x/a").
		AddHeader("X-A", "1").
		AddQueryParameter("q", "1").
		SetBodyString("body").
		SetVirtualHost("vh").
		SetFollowRedirects(false).
		SetRequestTimeout(time.Second)
	r.ExecuteWith(context.Background(), exec)

	r.SetURL("http://x/b").AddHeader("X-A", "2").SetBody([]byte("other")).SetQueryParameters(nil)

	got := exec.submitted[0]
	if got.Method != http.MethodPut || got.URL != "http://x/a" || string(got.Body) != "body" {
		t.Errorf("snapshot = %s %s %q", got.Method, got.URL, got.Body)
	}
	if v := got.Header.Values("X-A"); !reflect.DeepEqual(v, []string{"1"}) {
		t.Errorf("snapshot header = %v", v)
	}
	if got.Query.Get("q") != "1" || got.VirtualHost != "vh" || got.Timeout != time.Second {
		t.Errorf("snapshot = %+v", got)
	}
	if got.FollowRedirects == nil || *got.FollowRedirects {
		t.Error("FollowRedirects should be false")
	}
}

func TestRequest_ExecuteUsesClient(t *testing.T) {
	exec := &fakeExecutor{respond: func(_ *httpclient.Request, h httpclient.CompletionHandler) {
		h.OnCompleted(&httpclient.Response{StatusCode: 204})
	}}
	prev := SetClient(exec)
	t.Cleanup(func() { SetClient(prev) })

	resp, err := URL("http://x").Execute(context.Background()).Await(awaitCtx(t))
	if err != nil || resp.Status() != 204 {
		t.Errorf("Execute() = %v, %v", resp, err)
	}
	if exec.calls() != 1 {
		t.Errorf("calls = %d", exec.calls())
	}
}
