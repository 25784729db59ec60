package errors

import "net/http"

// ErrorCode is the machine-readable kind of an AppError.
type ErrorCode string

const (
	// ErrCodeServiceUnavailable: the engine is closed or not started.
	ErrCodeServiceUnavailable ErrorCode = "SERVICE_UNAVAILABLE"
	ErrCodeInvalidInput       ErrorCode = "INVALID_INPUT"
	ErrCodeMissingField       ErrorCode = "MISSING_FIELD"
	// ErrCodeInvalidFormat: a value could not be parsed, e.g. a URL.
	ErrCodeInvalidFormat ErrorCode = "INVALID_FORMAT"
	// ErrCodeUnsupported: a feature the engine cannot provide, such as an
	// authentication scheme it does not implement.
	ErrCodeUnsupported ErrorCode = "UNSUPPORTED"
)

type codeInfo struct {
	status    int
	retryable bool
}

var codes = map[ErrorCode]codeInfo{
	ErrCodeServiceUnavailable: {http.StatusServiceUnavailable, true},
	ErrCodeInvalidInput:       {http.StatusBadRequest, false},
	ErrCodeMissingField:       {http.StatusBadRequest, false},
	ErrCodeInvalidFormat:      {http.StatusBadRequest, false},
	ErrCodeUnsupported:        {http.StatusNotImplemented, false},
}

// IsRetryableCode reports whether resubmitting later may succeed.
func IsRetryableCode(code ErrorCode) bool {
	return codes[code].retryable
}

// HTTPStatus is the closest HTTP status for code, 500 for unknown codes.
func (c ErrorCode) HTTPStatus() int {
	if info, ok := codes[c]; ok {
		return info.status
	}
	return http.StatusInternalServerError
}
