package log

import (
	"context"
	"log/slog"
	"net/http"
)

type ctxKey struct{}

// NewContext returns a copy of ctx carrying logger.
func NewContext(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, logger)
}

// FromContext returns the logger stored by NewContext, or one wrapping the
// slog default.
func FromContext(ctx context.Context) *Logger {
	if logger, ok := ctx.Value(ctxKey{}).(*Logger); ok {
		return logger
	}
	return &Logger{Logger: slog.Default(), component: "unknown"}
}

// enrich derives a logger for each request from the one already in its
// context and passes the request on with it.
func enrich(derive func(*Logger, *http.Request) *Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger := derive(FromContext(r.Context()), r)
			next.ServeHTTP(w, r.WithContext(NewContext(r.Context(), logger)))
		})
	}
}

// Middleware makes logger the request logger.
func Middleware(logger *Logger) func(http.Handler) http.Handler {
	return enrich(func(*Logger, *http.Request) *Logger { return logger })
}

// ComponentMiddleware tags the request logger with component.
func ComponentMiddleware(component string) func(http.Handler) http.Handler {
	return enrich(func(l *Logger, _ *http.Request) *Logger { return l.WithComponent(component) })
}

// RequestIDMiddleware tags the request logger with the ID extractRequestID
// finds on the request.
func RequestIDMiddleware(extractRequestID func(*http.Request) string) func(http.Handler) http.Handler {
	return enrich(func(l *Logger, r *http.Request) *Logger {
		return l.With(NewFields().WithRequestID(extractRequestID(r)).Args()...)
	})
}

// StructuredLogger writes the recurring records (request start and end,
// ledger changes, failures) with consistent keys.
type StructuredLogger struct {
	logger *Logger
}

func NewStructuredLogger(logger *Logger) *StructuredLogger {
	return &StructuredLogger{logger: logger}
}

func (sl *StructuredLogger) LogHTTPStart(ctx context.Context, r *http.Request, clientIP string) {
	fields := NewFields().
		WithRequest(r.Method, r.URL.Path, r.URL.RawQuery, r.UserAgent(), r.Referer()).
		WithClientIP(clientIP)
	sl.logger.DebugContext(ctx, "HTTP request started", fields.Args()...)
}

// LogHTTPEnd logs at warn for 4xx and error for 5xx responses.
func (sl *StructuredLogger) LogHTTPEnd(ctx context.Context, r *http.Request, statusCode int, durationMs int64, clientIP string) {
	level := slog.LevelInfo
	switch {
	case statusCode >= 500:
		level = slog.LevelError
	case statusCode >= 400:
		level = slog.LevelWarn
	}
	fields := NewFields().
		WithRequest(r.Method, r.URL.Path, r.URL.RawQuery, "", "").
		WithResponse(statusCode, durationMs).
		WithClientIP(clientIP)
	sl.logger.Log(ctx, level, "HTTP request completed", fields.Args()...)
}

func (sl *StructuredLogger) LogLedgerChange(ctx context.Context, op, entryID string, revision uint64) {
	fields := NewFields().
		WithComponent(ComponentLedger).
		WithOperation(op).
		WithEntryID(entryID).
		WithRevision(revision)
	sl.logger.InfoContext(ctx, "Ledger changed", fields.Args()...)
}

// LogError logs err with component and operation appended to fields.
func (sl *StructuredLogger) LogError(ctx context.Context, msg string, err error, component, operation string, fields Fields) {
	fields = fields.WithComponent(component).WithOperation(operation).WithError(err)
	sl.logger.ErrorContext(ctx, msg, fields.Args()...)
}
