package httpclient

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/kbukum/wskit/errors"
)

// RequestBuilder accumulates request state. It is not safe for concurrent
// use; Build takes a deep copy so a built Request is independent of it.
type RequestBuilder struct {
	method          string
	url             string
	header          http.Header
	order           []string
	folded          map[string]string
	query           url.Values
	body            []byte
	virtualHost     string
	followRedirects *bool
	timeout         time.Duration
	auth            *AuthConfig
}

// NewRequestBuilder creates a builder for method.
func NewRequestBuilder(method string) *RequestBuilder {
	return &RequestBuilder{
		method: method,
		header: make(http.Header),
		query:  make(url.Values),
	}
}

// SetMethod sets the request method.
func (b *RequestBuilder) SetMethod(method string) *RequestBuilder {
	b.method = method
	return b
}

// SetURL sets the target URL.
func (b *RequestBuilder) SetURL(rawURL string) *RequestBuilder {
	b.url = rawURL
	return b
}

// SetHeader replaces all values for name.
func (b *RequestBuilder) SetHeader(name, value string) *RequestBuilder {
	key := b.track(name)
	b.header[key] = []string{value}
	return b
}

// AddHeader appends value to name.
func (b *RequestBuilder) AddHeader(name, value string) *RequestBuilder {
	key := b.track(name)
	b.header[key] = append(b.header[key], value)
	return b
}

// SetHeaders replaces the whole header collection.
func (b *RequestBuilder) SetHeaders(h http.Header) *RequestBuilder {
	b.header = make(http.Header, len(h))
	b.order = b.order[:0]
	b.folded = nil
	for name, values := range h {
		key := b.track(name)
		b.header[key] = append([]string{}, values...)
	}
	return b
}

// FoldHeaderName is the case folding under which two header names are the
// same header.
func FoldHeaderName(name string) string {
	return strings.ToLower(name)
}

// track returns the stored key for name, canonicalizing names not seen yet,
// and remembers first-insertion order.
func (b *RequestBuilder) track(name string) string {
	folded := FoldHeaderName(name)
	if key, ok := b.folded[folded]; ok {
		return key
	}
	if b.folded == nil {
		b.folded = make(map[string]string)
	}
	key := http.CanonicalHeaderKey(name)
	b.folded[folded] = key
	b.order = append(b.order, key)
	return key
}

// AddQueryParameter appends a query parameter.
func (b *RequestBuilder) AddQueryParameter(name, value string) *RequestBuilder {
	b.query.Add(name, value)
	return b
}

// SetQueryParameters replaces all query parameters.
func (b *RequestBuilder) SetQueryParameters(q url.Values) *RequestBuilder {
	b.query = make(url.Values, len(q))
	for k, v := range q {
		b.query[k] = append([]string{}, v...)
	}
	return b
}

// SetBody sets the request body.
func (b *RequestBuilder) SetBody(body []byte) *RequestBuilder {
	b.body = body
	return b
}

// SetVirtualHost overrides the Host header.
func (b *RequestBuilder) SetVirtualHost(host string) *RequestBuilder {
	b.virtualHost = host
	return b
}

// SetFollowRedirects overrides whether redirects are followed.
func (b *RequestBuilder) SetFollowRedirects(follow bool) *RequestBuilder {
	b.followRedirects = &follow
	return b
}

// SetRequestTimeout overrides the engine timeout for this request.
func (b *RequestBuilder) SetRequestTimeout(d time.Duration) *RequestBuilder {
	b.timeout = d
	return b
}

// SetRealm sets the authentication realm. Nil clears it.
func (b *RequestBuilder) SetRealm(auth *AuthConfig) *RequestBuilder {
	b.auth = auth.clone()
	return b
}

// Method returns the current method.
func (b *RequestBuilder) Method() string { return b.method }

// URL returns the current URL.
func (b *RequestBuilder) URL() string { return b.url }

// Header returns a copy of the current headers.
func (b *RequestBuilder) Header() http.Header { return b.header.Clone() }

// HeaderNames returns canonical header names in first-insertion order.
func (b *RequestBuilder) HeaderNames() []string {
	names := make([]string, 0, len(b.order))
	for _, n := range b.order {
		if _, ok := b.header[n]; ok {
			names = append(names, n)
		}
	}
	return names
}

// Build produces the request snapshot.
func (b *RequestBuilder) Build() (*Request, error) {
	if strings.TrimSpace(b.method) == "" {
		return nil, errors.MissingField("method")
	}
	if strings.TrimSpace(b.url) == "" {
		return nil, errors.MissingField("url")
	}
	if _, err := url.Parse(b.url); err != nil {
		return nil, errors.InvalidFormat("url", "RFC 3986 URI").WithCause(err)
	}
	if b.timeout < 0 {
		return nil, errors.InvalidInput("timeout", fmt.Sprintf("negative request timeout %s", b.timeout))
	}

	req := &Request{
		Method:      b.method,
		URL:         b.url,
		Header:      b.header.Clone(),
		Query:       make(url.Values, len(b.query)),
		VirtualHost: b.virtualHost,
		Timeout:     b.timeout,
		Auth:        b.auth.clone(),
	}
	if req.Header == nil {
		req.Header = make(http.Header)
	}
	for k, v := range b.query {
		req.Query[k] = append([]string{}, v...)
	}
	if b.body != nil {
		req.Body = append([]byte{}, b.body...)
	}
	if b.followRedirects != nil {
		follow := *b.followRedirects
		req.FollowRedirects = &follow
	}
	return req, nil
}
