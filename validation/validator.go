package validation

import (
	"fmt"
	"net/http"
	"sort"
	"strings"

	"golang.org/x/net/http/httpguts"

	"github.com/kbukum/wskit/errors"
)

// FieldError is one rejected field. A list of them is attached to the
// AppError details under "fields".
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Validator accumulates checks on a request before it is submitted.
// The zero value is ready to use.
type Validator struct {
	fields []FieldError
}

// New creates a new Validator.
func New() *Validator {
	return &Validator{}
}

// AddError records a validation error for field.
func (v *Validator) AddError(field, message string) {
	v.fields = append(v.fields, FieldError{Field: field, Message: message})
}

// HasErrors reports whether any error was recorded.
func (v *Validator) HasErrors() bool {
	return len(v.fields) > 0
}

// Errors returns the collected field errors in the order they were added.
func (v *Validator) Errors() []FieldError {
	return v.fields
}

// Err returns an errors.ErrCodeValidation AppError, or nil.
func (v *Validator) Err() error {
	if len(v.fields) == 0 {
		return nil
	}
	return fieldsError(v.fields)
}

// Required checks that value is not blank.
func (v *Validator) Required(field, value string) *Validator {
	if strings.TrimSpace(value) == "" {
		v.AddError(field, "is required")
	}
	return v
}

// HTTPMethod checks that value is an HTTP method token.
func (v *Validator) HTTPMethod(field, value string) *Validator {
	if !IsHTTPMethod(value) {
		v.AddError(field, fmt.Sprintf("invalid method %q", value))
	}
	return v
}

// AbsoluteURL checks that value is an absolute http or https URL.
func (v *Validator) AbsoluteURL(field, value string) *Validator {
	if !IsAbsoluteHTTPURL(value) {
		v.AddError(field, fmt.Sprintf("invalid url %q", value))
	}
	return v
}

// HeaderName checks that name is a valid header field name.
func (v *Validator) HeaderName(field, name string) *Validator {
	if !httpguts.ValidHeaderFieldName(name) {
		v.AddError(field, fmt.Sprintf("invalid header name %q", name))
	}
	return v
}

// HeaderValue rejects values net/http would refuse to send, such as ones
// containing CR or LF.
func (v *Validator) HeaderValue(field, name, value string) *Validator {
	if !httpguts.ValidHeaderFieldValue(value) {
		v.AddError(field, fmt.Sprintf("invalid value for header %q", name))
	}
	return v
}

// Headers checks every name and value of h, in name order.
func (v *Validator) Headers(field string, h http.Header) *Validator {
	names := make([]string, 0, len(h))
	for name := range h {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		v.HeaderName(field, name)
		for _, value := range h[name] {
			v.HeaderValue(field, name, value)
		}
	}
	return v
}

func fieldsError(fields []FieldError) *errors.AppError {
	msgs := make([]string, len(fields))
	for i, f := range fields {
		msgs[i] = f.Field + ": " + f.Message
	}
	return errors.Validation(strings.Join(msgs, "; ")).WithDetail("fields", fields)
}
