// Package logger is wskit's zerolog wrapper.
//
// Programs call Init once with the "logging" config block. Library code asks
// for a component logger with Get and adds request context with WithContext,
// which picks up the execution id and the active OpenTelemetry span.
//
//	logging:
//	  level: debug
//	  format: json
//
//	log := logger.Get("httpclient").WithContext(ctx)
//	log.Debug("execution started", logger.RequestFields("GET", u))
package logger
