// Package errors defines AppError, the error wskit returns when it refuses
// work: an invalid request, an unsupported feature or a closed engine.
// Each code fixes the error's retryability and nearest HTTP status.
package errors
