package errors

import stderrors "errors"

// Report is the JSON form of an AppError printed by command line tools.
type Report struct {
	Error ReportBody `json:"error"`
}

// ReportBody is the error payload inside a Report.
type ReportBody struct {
	Code      ErrorCode      `json:"code"`
	Message   string         `json:"message"`
	Retryable bool           `json:"retryable"`
	Details   map[string]any `json:"details,omitempty"`
	Cause     string         `json:"cause,omitempty"`
}

// ToReport converts the error into a Report.
func (e *AppError) ToReport() Report {
	r := Report{Error: ReportBody{
		Code:      e.Code,
		Message:   e.Message,
		Retryable: e.Retryable,
		Details:   e.Details,
	}}
	if e.Cause != nil {
		r.Error.Cause = e.Cause.Error()
	}
	return r
}

// AsAppError finds the first AppError in err's chain.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	ok := stderrors.As(err, &appErr)
	return appErr, ok
}

// IsAppError reports whether err wraps an AppError.
func IsAppError(err error) bool {
	_, ok := AsAppError(err)
	return ok
}

// HasCode reports whether err's chain holds an AppError with code.
func HasCode(err error, code ErrorCode) bool {
	appErr, ok := AsAppError(err)
	return ok && appErr.Code == code
}
