// Package logger provides structured logging infrastructure for the application.
// This is part of the platform layer and contains no business logic.
package logger

import (
	"log/slog"
	"os"
	"strings"
)

// Logger wraps slog.Logger for structured logging
type Logger struct {
	*slog.Logger
}

// New creates a new logger based on environment. Development gets a text
// handler at debug level, which is where recovered pipeline failures
// (identity hashing, guard storage, absorbed duplicates) surface.
func New(env string) *Logger {
	var handler slog.Handler

	opts := &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}

	if strings.EqualFold(env, "development") {
		opts.Level = slog.LevelDebug
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return &Logger{Logger: slog.New(handler)}
}

// WithRequestID returns a logger annotated with the request id.
func (l *Logger) WithRequestID(requestID string) *Logger {
	return &Logger{Logger: l.With(slog.String("request_id", requestID))}
}

// HTTPRequest logs an HTTP request
func (l *Logger) HTTPRequest(method, path string, status int, latencyMs float64, clientIP string) {
	l.Info("http_request",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", status),
		slog.Float64("latency_ms", latencyMs),
		slog.String("client_ip", clientIP),
	)
}

// IdentityHashDropped logs a PII field that could not be normalized into a
// digest. Debug level only; the event still fires without the field.
func (l *Logger) IdentityHashDropped(field, reason string) {
	l.Debug("identity_hash_dropped",
		slog.String("field", field),
		slog.String("reason", reason),
	)
}

// GuardStorageError logs a guard store read/write failure. The guard itself
// degrades to "assume not yet fired", so this is a warning, not an error.
func (l *Logger) GuardStorageError(operation, key string, err error) {
	l.Warn("guard_storage_error",
		slog.String("operation", operation),
		slog.String("key", key),
		slog.String("error", err.Error()),
	)
}

// SinkError logs a failed push or forward of an envelope record.
func (l *Logger) SinkError(operation, eventName string, err error) {
	l.Error("sink_error",
		slog.String("operation", operation),
		slog.String("event", eventName),
		slog.String("error", err.Error()),
	)
}

// RateLimitExceeded logs rate limit events
func (l *Logger) RateLimitExceeded(clientIP, path string) {
	l.Warn("rate_limit_exceeded",
		slog.String("client_ip", clientIP),
		slog.String("path", path),
	)
}
