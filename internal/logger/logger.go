package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

var (
	mu            sync.RWMutex
	defaultLogger *slog.Logger
)

// Initialize sets up the global logger writing to stdout.
func Initialize(level, format string) {
	SetOutput(os.Stdout, level, format)
}

// SetOutput replaces the global logger with one writing to w.
func SetOutput(w io.Writer, level, format string) {
	l := New(w, level, format)
	mu.Lock()
	defaultLogger = l
	mu.Unlock()
	slog.SetDefault(l)
}

// New builds a logger without touching the global one. Unknown levels fall back to info.
func New(w io.Writer, level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}
	var handler slog.Handler
	if strings.EqualFold(format, "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler).With("app", "water-scheduler")
}

func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// Get returns the global logger, creating an info/text one on first use.
func Get() *slog.Logger {
	mu.RLock()
	l := defaultLogger
	mu.RUnlock()
	if l != nil {
		return l
	}
	Initialize("info", "text")
	return Get()
}

func Debug(msg string, args ...any) { Get().Debug(msg, args...) }
func Info(msg string, args ...any) { Get().Info(msg, args...) }
func Warn(msg string, args ...any) { Get().Warn(msg, args...) }
func Error(msg string, args ...any) { Get().Error(msg, args...) }

type ctxKey struct{}

// WithAttrs returns a context whose logger carries args on every record, e.g. a request id.
func WithAttrs(ctx context.Context, args ...any) context.Context {
	return context.WithValue(ctx, ctxKey{}, FromContext(ctx).With(args...))
}

// FromContext returns the logger attached by WithAttrs, or the global one.
func FromContext(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok {
		return l
	}
	return Get()
}

// EnterMethod and ExitMethod trace the engine's call flow at debug level.
func EnterMethod(methodName string, args ...any) {
	Get().Debug("→ enter", append([]any{"method", methodName}, args...)...)
}

func ExitMethod(methodName string, args ...any) {
	Get().Debug("← exit", append([]any{"method", methodName}, args...)...)
}

func ExitMethodWithError(methodName string, err error, args ...any) {
	Get().Error("← exit with error", append([]any{"method", methodName, "error", err}, args...)...)
}

// DatabaseCall and DatabaseResult bracket one SQL statement.
func DatabaseCall(operation, table string, args ...any) {
	Get().Debug("→ db", append([]any{"operation", operation, "table", table}, args...)...)
}

func DatabaseResult(operation string, rowsAffected int64, err error, args ...any) {
	all := append([]any{"operation", operation, "rows_affected", rowsAffected}, args...)
	if err != nil {
		Get().Error("← db failed", append(all, "error", err)...)
		return
	}
	Get().Debug("← db ok", all...)
}

// ExternalServiceCall and ExternalServiceResult bracket a call to a notification sink.
func ExternalServiceCall(service, operation string, args ...any) {
	Get().Debug("→ external", append([]any{"service", service, "operation", operation}, args...)...)
}

func ExternalServiceResult(service, operation string, err error, args ...any) {
	all := append([]any{"service", service, "operation", operation}, args...)
	if err != nil {
		Get().Warn("← external failed", append(all, "error", err)...)
		return
	}
	Get().Debug("← external ok", all...)
}
