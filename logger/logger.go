package logger

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
)

// FormatPretty is an alias of the console format.
const FormatPretty = "pretty"

// Logger is a zerolog logger carrying the program name it was built for.
type Logger struct {
	zl      zerolog.Logger
	service string
}

// Init builds the global logger from cfg and drops cached component loggers.
func Init(cfg Config) {
	cfg.ApplyDefaults()
	SetGlobalLogger(New(&cfg, cfg.ServiceName))
}

// New creates a logger writing to the output named in cfg.
func New(cfg *Config, serviceName string) *Logger {
	return newLogger(cfg, serviceName, outputWriter(cfg.Output))
}

// NewWithWriter creates a JSON logger writing to w, without timestamps.
// Tests use it to capture output.
func NewWithWriter(w io.Writer, level, serviceName string) *Logger {
	return newLogger(&Config{Level: level, Format: "json"}, serviceName, w)
}

func newLogger(cfg *Config, serviceName string, out io.Writer) *Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}

	var zl zerolog.Logger
	switch strings.ToLower(cfg.Format) {
	case "console", FormatPretty:
		zl = zerolog.New(consoleWriter(cfg, serviceName, out))
	default:
		zl = zerolog.New(out)
		if serviceName != "" {
			zl = zl.With().Str(FieldService, serviceName).Logger()
		}
	}

	zc := zl.Level(level).With()
	if cfg.Timestamp {
		zc = zc.Timestamp()
	}
	if cfg.Caller {
		zc = zc.Caller()
	}
	return &Logger{zl: zc.Logger(), service: serviceName}
}

func consoleWriter(cfg *Config, serviceName string, out io.Writer) zerolog.ConsoleWriter {
	w := zerolog.ConsoleWriter{
		Out:        out,
		NoColor:    cfg.NoColor,
		TimeFormat: "15:04:05.000",
	}
	if serviceName != "" {
		w.FormatMessage = func(i interface{}) string {
			if i == nil {
				return serviceName + ":"
			}
			return fmt.Sprintf("%s: %s", serviceName, i)
		}
	}
	return w
}

func outputWriter(output string) io.Writer {
	if strings.EqualFold(output, "stdout") {
		return os.Stdout
	}
	return os.Stderr
}

type executionIDKey struct{}

// ContextWithExecutionID stores the id of an asynchronous execution. Loggers
// derived with WithContext carry it.
func ContextWithExecutionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, executionIDKey{}, id)
}

// ExecutionIDFromContext returns the execution id stored in ctx, if any.
func ExecutionIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(executionIDKey{}).(string)
	return id
}

// WithContext adds the execution id and the active span's trace and span ids.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	zc := l.zl.With()
	added := false
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		zc = zc.Str(FieldTraceID, sc.TraceID().String()).Str(FieldSpanID, sc.SpanID().String())
		added = true
	}
	if id := ExecutionIDFromContext(ctx); id != "" {
		zc = zc.Str(FieldExecutionID, id)
		added = true
	}
	if !added {
		return l
	}
	return &Logger{zl: zc.Logger(), service: l.service}
}

// WithComponent tags every entry with the component name.
func (l *Logger) WithComponent(name string) *Logger {
	return &Logger{zl: l.zl.With().Str(FieldComponent, name).Logger(), service: l.service}
}

// WithError attaches err under the "error" key.
func (l *Logger) WithError(err error) *Logger {
	return &Logger{zl: l.zl.With().Err(err).Logger(), service: l.service}
}

// Debug logs a debug message.
func (l *Logger) Debug(msg string, fields ...map[string]interface{}) {
	emit(l.zl.Debug(), msg, fields)
}

// Info logs an info message.
func (l *Logger) Info(msg string, fields ...map[string]interface{}) {
	emit(l.zl.Info(), msg, fields)
}

// Warn logs a warning message.
func (l *Logger) Warn(msg string, fields ...map[string]interface{}) {
	emit(l.zl.Warn(), msg, fields)
}

// Error logs an error message.
func (l *Logger) Error(msg string, fields ...map[string]interface{}) {
	emit(l.zl.Error(), msg, fields)
}

// emit is a no-op for disabled levels; zerolog returns a nil event then.
func emit(ev *zerolog.Event, msg string, fields []map[string]interface{}) {
	if ev == nil {
		return
	}
	for _, m := range fields {
		ev.Fields(m)
	}
	ev.Msg(msg)
}

var (
	globalMu sync.RWMutex
	global   *Logger
)

// SetGlobalLogger replaces the global logger. Component loggers obtained
// through Get are rebuilt from it on next use.
func SetGlobalLogger(l *Logger) {
	globalMu.Lock()
	global = l
	globalMu.Unlock()
	components.reset()
}

// GetGlobalLogger returns the global logger. Until Init runs it is an
// info-level console logger on stderr.
func GetGlobalLogger() *Logger {
	globalMu.RLock()
	l := global
	globalMu.RUnlock()
	if l != nil {
		return l
	}

	globalMu.Lock()
	defer globalMu.Unlock()
	if global == nil {
		cfg := Config{}
		cfg.ApplyDefaults()
		global = New(&cfg, "")
	}
	return global
}

// Debug logs a debug message with the global logger.
func Debug(msg string, fields ...map[string]interface{}) {
	GetGlobalLogger().Debug(msg, fields...)
}

// Info logs an info message with the global logger.
func Info(msg string, fields ...map[string]interface{}) {
	GetGlobalLogger().Info(msg, fields...)
}

// Warn logs a warning message with the global logger.
func Warn(msg string, fields ...map[string]interface{}) {
	GetGlobalLogger().Warn(msg, fields...)
}

// Error logs an error message with the global logger.
func Error(msg string, fields ...map[string]interface{}) {
	GetGlobalLogger().Error(msg, fields...)
}

// WithContext is GetGlobalLogger().WithContext(ctx).
func WithContext(ctx context.Context) *Logger {
	return GetGlobalLogger().WithContext(ctx)
}

// WithComponent is GetGlobalLogger().WithComponent(name).
func WithComponent(name string) *Logger {
	return GetGlobalLogger().WithComponent(name)
}
