package errors

import "fmt"

// AppError is a rejected request or an engine that cannot take work.
// Transport failures have their own type in httpclient.
type AppError struct {
	Code      ErrorCode `json:"code"`
	Message   string    `json:"message"`
	Retryable bool      `json:"retryable"`
	// HTTPStatus is the closest HTTP status, for callers that expose errors
	// over HTTP.
	HTTPStatus int            `json:"-"`
	Details    map[string]any `json:"details,omitempty"`
	Cause      error          `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
}

// Unwrap returns the underlying cause.
func (e *AppError) Unwrap() error { return e.Cause }

// WithCause records the underlying error. It returns e.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetail sets one detail. It returns e.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any, 1)
	}
	e.Details[key] = value
	return e
}

// WithDetails merges details into e. It returns e.
func (e *AppError) WithDetails(details map[string]any) *AppError {
	for k, v := range details {
		e.WithDetail(k, v)
	}
	return e
}

// New builds an AppError whose status and retryability follow code.
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		Retryable:  IsRetryableCode(code),
		HTTPStatus: code.HTTPStatus(),
	}
}

// ServiceUnavailable reports a component that is not accepting requests.
func ServiceUnavailable(service string) *AppError {
	return New(ErrCodeServiceUnavailable, service+" is not accepting requests").
		WithDetail("service", service)
}

// InvalidInput reports a value rejected for reason. An empty field leaves
// the "field" detail unset.
func InvalidInput(field, reason string) *AppError {
	err := New(ErrCodeInvalidInput, "invalid input: "+reason)
	if field != "" {
		err.WithDetail("field", field)
	}
	return err
}

// Validation reports one or more rejected fields summarized in message.
func Validation(message string) *AppError {
	return New(ErrCodeInvalidInput, message)
}

// MissingField reports that a required field was not set.
func MissingField(field string) *AppError {
	return New(ErrCodeMissingField, "missing required field: "+field).
		WithDetail("field", field)
}

// InvalidFormat reports that field does not match the expected format.
func InvalidFormat(field, expected string) *AppError {
	return New(ErrCodeInvalidFormat, fmt.Sprintf("invalid format for %s, expected %s", field, expected)).
		WithDetails(map[string]any{"field": field, "expected_format": expected})
}

// Unsupported reports a feature the engine does not implement.
func Unsupported(feature string) *AppError {
	return New(ErrCodeUnsupported, feature+" is not supported").
		WithDetail("feature", feature)
}
