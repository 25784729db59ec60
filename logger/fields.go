package logger

import "time"

// Field keys shared by wskit packages.
const (
	FieldService     = "service"
	FieldComponent   = "component"
	FieldTraceID     = "trace_id"
	FieldSpanID      = "span_id"
	FieldExecutionID = "execution_id"
	FieldOperation   = "operation"
	FieldMethod      = "method"
	FieldURL         = "url"
	FieldStatus      = "status"
	FieldError       = "error"
	FieldDuration    = "duration_ms"
)

// Fields pairs up alternating keys and values. Non-string keys and a
// trailing key without a value are dropped.
//
//	log.Debug("exchange done", logger.Fields(logger.FieldStatus, 200))
func Fields(kvs ...interface{}) map[string]interface{} {
	m := make(map[string]interface{}, len(kvs)/2)
	for i := 0; i+1 < len(kvs); i += 2 {
		if key, ok := kvs[i].(string); ok {
			m[key] = kvs[i+1]
		}
	}
	return m
}

// ErrorFields describes a failed operation.
func ErrorFields(op string, err error) map[string]interface{} {
	m := map[string]interface{}{FieldOperation: op}
	if err != nil {
		m[FieldError] = err.Error()
	}
	return m
}

// DurationFields describes a timed operation in milliseconds.
func DurationFields(op string, d time.Duration) map[string]interface{} {
	return map[string]interface{}{
		FieldOperation: op,
		FieldDuration:  d.Milliseconds(),
	}
}

// RequestFields describes an outbound request.
func RequestFields(method, url string) map[string]interface{} {
	return map[string]interface{}{
		FieldMethod: method,
		FieldURL:    url,
	}
}
