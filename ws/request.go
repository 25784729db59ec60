package ws

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/kbukum/wskit/errors"
	"github.com/kbukum/wskit/future"
	"github.com/kbukum/wskit/httpclient"
	"github.com/kbukum/wskit/logger"
)

// Request is a fluent HTTP request. Every change is mirrored onto the
// underlying httpclient.RequestBuilder; Execute hands the engine a snapshot,
// so a Request can be changed or reused once Execute returns.
//
// A Request is not safe for concurrent mutation.
type Request struct {
	method  string
	url     string
	headers *HeaderMap
	realm   *Realm
	builder *httpclient.RequestBuilder
}

// NewRequest creates a request for method.
func NewRequest(method string) *Request {
	return &Request{
		method:  method,
		headers: NewHeaderMap(),
		builder: httpclient.NewRequestBuilder(method),
	}
}

// URL creates a GET request for rawURL.
func URL(rawURL string) *Request {
	return NewRequest(http.MethodGet).SetURL(rawURL)
}

// SetURL sets the target URL.
func (r *Request) SetURL(rawURL string) *Request {
	r.url = rawURL
	r.builder.SetURL(rawURL)
	return r
}

// SetHeader replaces all values of name with value.
func (r *Request) SetHeader(name, value string) *Request {
	r.headers.Set(name, value)
	r.builder.SetHeader(name, value)
	return r
}

// AddHeader appends values to name. With no values it appends "".
func (r *Request) AddHeader(name string, values ...string) *Request {
	if len(values) == 0 {
		values = []string{""}
	}
	r.headers.Add(name, values...)
	for _, v := range values {
		r.builder.AddHeader(name, v)
	}
	return r
}

// SetHeaders replaces every header with a copy of h.
func (r *Request) SetHeaders(h *HeaderMap) *Request {
	if h == nil {
		h = NewHeaderMap()
	}
	r.headers = h.Clone()
	r.syncHeaders()
	return r
}

// SetHeaderValues replaces every header with m.
func (r *Request) SetHeaderValues(m map[string][]string) *Request {
	r.headers = HeaderMapFrom(m)
	r.syncHeaders()
	return r
}

func (r *Request) syncHeaders() {
	r.builder.SetHeaders(nil)
	for _, name := range r.headers.Names() {
		for _, v := range r.headers.Get(name) {
			r.builder.AddHeader(name, v)
		}
	}
}

// AllHeaders returns a copy of every header keyed by display name.
func (r *Request) AllHeaders() map[string][]string {
	return r.headers.All()
}

// Header returns the values of name, or an empty slice.
func (r *Request) Header(name string) []string {
	return r.headers.Get(name)
}

// Method returns the request method.
func (r *Request) Method() string {
	return r.method
}

// URL returns the target URL.
func (r *Request) URL() string {
	return r.url
}

// Auth sets a preemptive realm.
func (r *Request) Auth(username, password string, scheme AuthScheme) *Request {
	realm := Realm{
		Principal:     username,
		Password:      password,
		Scheme:        scheme,
		UsePreemptive: true,
	}
	r.realm = &realm
	r.builder.SetRealm(realm.authConfig())
	return r
}

// Realm returns a copy of the realm, or nil.
func (r *Request) Realm() *Realm {
	if r.realm == nil {
		return nil
	}
	cp := *r.realm
	return &cp
}

// AddQueryParameter appends a query parameter.
func (r *Request) AddQueryParameter(name, value string) *Request {
	r.builder.AddQueryParameter(name, value)
	return r
}

// SetQueryParameters replaces the query parameters.
func (r *Request) SetQueryParameters(q url.Values) *Request {
	r.builder.SetQueryParameters(q)
	return r
}

// SetBody sets the request body.
func (r *Request) SetBody(body []byte) *Request {
	r.builder.SetBody(body)
	return r
}

// SetBodyString sets the request body from a string.
func (r *Request) SetBodyString(body string) *Request {
	return r.SetBody([]byte(body))
}

// SetVirtualHost overrides the Host header.
func (r *Request) SetVirtualHost(host string) *Request {
	r.builder.SetVirtualHost(host)
	return r
}

// SetFollowRedirects controls redirect handling for this request.
func (r *Request) SetFollowRedirects(follow bool) *Request {
	r.builder.SetFollowRedirects(follow)
	return r
}

// SetRequestTimeout bounds this request, overriding the engine timeout.
func (r *Request) SetRequestTimeout(d time.Duration) *Request {
	r.builder.SetRequestTimeout(d)
	return r
}

// Underlying returns the builder state.
func (r *Request) Underlying() *httpclient.RequestBuilder {
	return r.builder
}

// Execute submits the request to the process-wide engine. It never blocks.
func (r *Request) Execute(ctx context.Context) *future.Future[*Response] {
	return r.ExecuteWith(ctx, Client())
}

// ExecuteWith submits the request to exec. The future fails with the
// original error, unwrapped, whether the submission is rejected or the
// exchange fails.
func (r *Request) ExecuteWith(ctx context.Context, exec Executor) *future.Future[*Response] {
	p := future.NewPromise[*Response]()
	if exec == nil {
		p.Failure(errors.MissingField("engine"))
		return p.Future()
	}

	built, err := r.builder.Build()
	if err != nil {
		p.Failure(err)
		return p.Future()
	}

	err = exec.ExecuteRequest(ctx, built, httpclient.CompletionFuncs{
		Completed: func(raw *httpclient.Response) { p.Success(NewResponse(raw)) },
		Throwable: func(err error) { p.Failure(err) },
	})
	if err != nil {
		logger.Get("ws").WithContext(ctx).WithError(err).
			Debug("request rejected", logger.RequestFields(built.Method, built.URL))
		p.Failure(err)
	}
	return p.Future()
}
