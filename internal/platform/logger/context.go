package logger

import (
	"context"
	"log/slog"
)

// contextKey is a private type for context keys defined in this package,
// preventing collisions with keys from other packages.
type contextKey int

const (
	loggerKey contextKey = iota
	requestIDKey
)

// WithLogger returns a new context carrying the provided logger.
// Panics if logger is nil: callers must always supply a real logger,
// use FromContextOrDefault on the read side for fallbacks.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	if logger == nil {
		panic("logger.WithLogger: nil logger")
	}
	return context.WithValue(ctx, loggerKey, logger)
}

// FromContext returns the logger stored in the context. If the context
// carries none it falls back to slog.Default, so the result is always usable.
func FromContext(ctx context.Context) *slog.Logger {
	if logger := loggerFromContext(ctx); logger != nil {
		return logger
	}
	return slog.Default()
}

// FromContextOrDefault returns the logger stored in the context if present,
// otherwise the provided default. If both are missing it falls back to
// slog.Default, so the result is always usable.
func FromContextOrDefault(ctx context.Context, def *slog.Logger) *slog.Logger {
	if logger := loggerFromContext(ctx); logger != nil {
		return logger
	}
	if def != nil {
		return def
	}
	return slog.Default()
}

// loggerFromContext is the raw lookup: the context's logger or nil.
func loggerFromContext(ctx context.Context) *slog.Logger {
	if ctx == nil {
		return nil
	}
	if logger, ok := ctx.Value(loggerKey).(*slog.Logger); ok {
		return logger
	}
	return nil
}

// WithRequestID returns a new context carrying the given request correlation ID.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// RequestIDFromContext returns the request correlation ID stored in the
// context, or the empty string if none is set.
func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}
