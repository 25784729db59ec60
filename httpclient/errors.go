package httpclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// ErrorCode classifies an engine failure. It doubles as the error metric label.
type ErrorCode int

const (
	ErrCodeTimeout    ErrorCode = iota // deadline hit or net timeout
	ErrCodeConnection                  // refused, DNS, TLS, reset
	ErrCodeAuth                        // 401, 403
	ErrCodeNotFound                    // 404
	ErrCodeRateLimit                   // 429
	ErrCodeValidation                  // other 4xx, or a request that could not be built
	ErrCodeServer                      // 5xx
	ErrCodeCanceled                    // caller cancelled
)

var errorCodeNames = [...]string{
	ErrCodeTimeout:    "timeout",
	ErrCodeConnection: "connection",
	ErrCodeAuth:       "auth",
	ErrCodeNotFound:   "not_found",
	ErrCodeRateLimit:  "rate_limit",
	ErrCodeValidation: "validation",
	ErrCodeServer:     "server",
	ErrCodeCanceled:   "canceled",
}

// String returns the code name.
func (c ErrorCode) String() string {
	if c < 0 || int(c) >= len(errorCodeNames) {
		return "unknown"
	}
	return errorCodeNames[c]
}

// Error is a classified engine failure. StatusCode and Body are set only
// for status errors; Err only for transport errors.
type Error struct {
	StatusCode int
	Code       ErrorCode
	Message    string
	Retryable  bool
	Body       []byte
	Err        error

	retryAfter time.Duration
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("httpclient: %s (HTTP %d): %s", e.Code, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("httpclient: %s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// ErrorKind is the metric label for this error.
func (e *Error) ErrorKind() string {
	return e.Code.String()
}

// RetryAfter is the delay requested by the server, zero when none was sent.
func (e *Error) RetryAfter() time.Duration {
	return e.retryAfter
}

// NewTimeoutError creates a timeout error.
func NewTimeoutError(err error) *Error {
	return &Error{Code: ErrCodeTimeout, Message: err.Error(), Retryable: true, Err: err}
}

// NewCanceledError creates an error for a caller-cancelled exchange.
func NewCanceledError(err error) *Error {
	return &Error{Code: ErrCodeCanceled, Message: err.Error(), Retryable: false, Err: err}
}

// NewConnectionError creates a connection error.
func NewConnectionError(err error) *Error {
	return &Error{Code: ErrCodeConnection, Message: err.Error(), Retryable: true, Err: err}
}

// NewValidationError creates an error for a request that could not be built.
func NewValidationError(msg string, err error) *Error {
	return &Error{Code: ErrCodeValidation, Message: msg, Retryable: false, Err: err}
}

// classifyTransport maps a net/http failure to an *Error. ctx is the
// exchange context; its state tells a deadline apart from cancellation.
func classifyTransport(ctx context.Context, err error) *Error {
	switch {
	case errors.Is(ctx.Err(), context.Canceled):
		return NewCanceledError(err)
	case errors.Is(ctx.Err(), context.DeadlineExceeded), isNetTimeout(err):
		return NewTimeoutError(err)
	default:
		return NewConnectionError(err)
	}
}

func isNetTimeout(err error) bool {
	var t interface{ Timeout() bool }
	return errors.As(err, &t) && t.Timeout()
}

// ClassifyStatusCode converts a non-2xx status into a typed error.
// Returns nil for 2xx and 3xx.
func ClassifyStatusCode(statusCode int, body []byte) *Error {
	e := &Error{
		StatusCode: statusCode,
		Message:    fmt.Sprintf("HTTP %d", statusCode),
		Body:       body,
	}
	switch {
	case statusCode < 400:
		return nil
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		e.Code = ErrCodeAuth
	case statusCode == http.StatusNotFound:
		e.Code = ErrCodeNotFound
	case statusCode == http.StatusTooManyRequests:
		e.Code, e.Retryable = ErrCodeRateLimit, true
	case statusCode < 500:
		e.Code = ErrCodeValidation
	default:
		e.Code, e.Retryable = ErrCodeServer, true
	}
	return e
}

// classifyResponse is ClassifyStatusCode plus the Retry-After header.
func classifyResponse(resp *Response) *Error {
	e := ClassifyStatusCode(resp.StatusCode, resp.Body)
	if e != nil {
		e.retryAfter = parseRetryAfter(resp.Header.Get("Retry-After"), time.Now())
	}
	return e
}

// parseRetryAfter accepts delta-seconds or an HTTP date.
func parseRetryAfter(v string, now time.Time) time.Duration {
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil && t.After(now) {
		return t.Sub(now)
	}
	return 0
}

func is(err error, code ErrorCode) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == code
}

// Is* report whether err is an *Error with the matching code.
func IsTimeout(err error) bool     { return is(err, ErrCodeTimeout) }
func IsCanceled(err error) bool    { return is(err, ErrCodeCanceled) }
func IsConnection(err error) bool  { return is(err, ErrCodeConnection) }
func IsAuth(err error) bool        { return is(err, ErrCodeAuth) }
func IsNotFound(err error) bool    { return is(err, ErrCodeNotFound) }
func IsRateLimit(err error) bool   { return is(err, ErrCodeRateLimit) }
func IsServerError(err error) bool { return is(err, ErrCodeServer) }

// IsRetryable reports whether err is an *Error marked retryable.
func IsRetryable(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Retryable
}
