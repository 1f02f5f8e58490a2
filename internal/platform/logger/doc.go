// Package logger configures the process-wide slog logger: JSON output with
// the level taken from server configuration, a CI-aware handler that stamps
// workflow metadata onto records when running under CI, and helpers for
// carrying a request-scoped logger through a context.
package logger
