package ws

import (
	"net/http"

	"github.com/kbukum/wskit/httpclient"
)

// Response wraps the engine's response without altering it.
type Response struct {
	raw *httpclient.Response
}

// NewResponse wraps raw.
func NewResponse(raw *httpclient.Response) *Response {
	return &Response{raw: raw}
}

// Status returns the HTTP status code.
func (r *Response) Status() int {
	return r.raw.StatusCode
}

// StatusText returns the reason phrase for the status code.
func (r *Response) StatusText() string {
	return r.raw.StatusText
}

// IsSuccess reports a 2xx status.
func (r *Response) IsSuccess() bool {
	return r.raw.IsSuccess()
}

// Header returns the first value of name, or "". Lookup is case-insensitive.
func (r *Response) Header(name string) string {
	return r.raw.Header.Get(name)
}

// Headers returns all values of name.
func (r *Response) Headers(name string) []string {
	vals := r.raw.Header.Values(name)
	if vals == nil {
		return []string{}
	}
	return append([]string{}, vals...)
}

// AllHeaders returns a copy of every response header.
func (r *Response) AllHeaders() http.Header {
	return r.raw.Header.Clone()
}

// Body returns the raw body bytes.
func (r *Response) Body() []byte {
	return r.raw.Body
}

// BodyString returns the body as a string.
func (r *Response) BodyString() string {
	return string(r.raw.Body)
}

// JSON decodes the body into v.
func (r *Response) JSON(v any) error {
	return r.raw.JSON(v)
}

// Cookies returns the cookies set by the response.
func (r *Response) Cookies() []*http.Cookie {
	return r.raw.Cookies
}

// URI returns the final URL after redirects.
func (r *Response) URI() string {
	return r.raw.URL
}

// Underlying returns the engine response.
func (r *Response) Underlying() *httpclient.Response {
	return r.raw
}
