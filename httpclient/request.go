package httpclient

import (
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"github.com/kbukum/wskit/provider"
)

// Request is an immutable request snapshot produced by RequestBuilder.Build.
// The engine never sees later builder mutations.
type Request struct {
	// Method is the request method token.
	Method string `json:"method" validate:"required,http_method"`
	// URL is absolute, or relative to Config.BaseURL.
	URL string `json:"url" validate:"required"`
	// Header holds every value in insertion order per name.
	Header http.Header `json:"-"`
	// Query is merged into the URL's own query string.
	Query url.Values `json:"-"`
	// Body is sent as-is. Nil means no body.
	Body []byte `json:"-"`
	// VirtualHost overrides the Host header.
	VirtualHost string `json:"virtual_host"`
	// FollowRedirects overrides the engine default (follow) when set.
	FollowRedirects *bool `json:"-"`
	// Timeout overrides Config.Timeout when positive.
	Timeout time.Duration `json:"timeout" validate:"gte=0"`
	// Auth is the realm. Nil falls back to Config.Auth.
	Auth *AuthConfig `json:"-"`
	// ExecutionID is assigned by the engine when the request is submitted.
	ExecutionID string `json:"-"`
}

// DescribeCall reports the request to provider middleware.
func (r *Request) DescribeCall() provider.Call {
	call := provider.Call{ExecutionID: r.ExecutionID, Method: r.Method, URL: r.URL}
	if u, err := url.Parse(r.URL); err == nil {
		call.Host = u.Host
	}
	return call
}

// withExecutionID returns a shallow copy carrying id.
func (r *Request) withExecutionID(id string) *Request {
	cp := *r
	cp.ExecutionID = id
	return &cp
}

// Response is a fully read HTTP response.
type Response struct {
	// StatusCode is the HTTP status code.
	StatusCode int
	// StatusText is the reason phrase, e.g. "Not Found".
	StatusText string
	// Header holds the response headers.
	Header http.Header
	// Body is the raw response body.
	Body []byte
	// URL is the final URL after redirects.
	URL string
	// Cookies are the cookies set by the response.
	Cookies []*http.Cookie
	// Proto is the protocol the server answered with, e.g. "HTTP/2.0".
	Proto string
}

// Status returns the status code.
func (r *Response) Status() int {
	return r.StatusCode
}

// IsSuccess returns true if the status code is 2xx.
func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// IsError returns true if the status code is 4xx or 5xx.
func (r *Response) IsError() bool {
	return r.StatusCode >= 400
}

// JSON decodes the body into v.
func (r *Response) JSON(v any) error {
	return json.Unmarshal(r.Body, v)
}

func newResponse(resp *http.Response, body []byte) *Response {
	out := &Response{
		StatusCode: resp.StatusCode,
		StatusText: http.StatusText(resp.StatusCode),
		Header:     resp.Header,
		Body:       body,
		Cookies:    resp.Cookies(),
		Proto:      resp.Proto,
	}
	if resp.Request != nil && resp.Request.URL != nil {
		out.URL = resp.Request.URL.String()
	}
	return out
}
