package shared

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/phrazzld/triage-api/internal/platform/logger"
	"github.com/phrazzld/triage-api/internal/redact"
)

// ErrorResponse is the JSON error body every endpoint returns.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    int    `json:"-"` // logged, never serialized
	TraceID string `json:"trace_id,omitempty"`
}

// ResponseOption customizes how an error response is logged.
type ResponseOption func(*responseOptions)

type responseOptions struct {
	elevateLogLevel bool
}

// WithElevatedLogLevel raises the log level of a 4xx response from DEBUG to
// WARN. Use it for client errors an operator should notice, such as repeated
// malformed restore payloads.
func WithElevatedLogLevel() ResponseOption {
	return func(o *responseOptions) { o.elevateLogLevel = true }
}

// RespondWithJSON writes data as a JSON response with the given status code.
func RespondWithJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.FromContext(r.Context()).Error("failed to encode JSON response",
			slog.String("error", err.Error()),
			slog.String("path", r.URL.Path))
	}
}

// RespondWithError writes a JSON error body carrying message and the
// request's trace ID. Use it when there is no underlying error worth
// logging; otherwise prefer RespondWithErrorAndLog.
func RespondWithError(w http.ResponseWriter, r *http.Request, status int, message string) {
	traceID := GetTraceID(r.Context())

	logger.FromContext(r.Context()).Debug("sending error response",
		slog.Int("status_code", status),
		slog.String("message", message),
		slog.String("trace_id", traceID),
		slog.String("path", r.URL.Path),
		slog.String("method", r.Method))

	RespondWithJSON(w, r, status, ErrorResponse{
		Error:   message,
		Code:    status,
		TraceID: traceID,
	})
}

// errorLogLevel picks the level an error response is logged at. Server
// errors are always ERROR. Rate limiting is WARN since it signals load
// problems. Other client errors stay at DEBUG unless the caller elevated
// them.
func errorLogLevel(status int, elevated bool) slog.Level {
	switch {
	case status >= http.StatusInternalServerError:
		return slog.LevelError
	case status == http.StatusTooManyRequests:
		return slog.LevelWarn
	case elevated && status >= http.StatusBadRequest:
		return slog.LevelWarn
	default:
		return slog.LevelDebug
	}
}

// RespondWithErrorAndLog writes a JSON error body with the sanitized
// userMessage and logs the underlying err. The client never sees the raw
// error string; it reaches the logs redacted, together with the trace ID
// for correlation.
func RespondWithErrorAndLog(
	w http.ResponseWriter,
	r *http.Request,
	status int,
	userMessage string,
	err error,
	opts ...ResponseOption,
) {
	var options responseOptions
	for _, opt := range opts {
		opt(&options)
	}

	traceID := GetTraceID(r.Context())
	attrs := []slog.Attr{
		slog.String("trace_id", traceID),
		slog.String("path", r.URL.Path),
		slog.String("method", r.Method),
		slog.Int("status_code", status),
		slog.String("user_message", userMessage),
	}
	if err != nil {
		attrs = append(attrs,
			slog.String("error", redact.Error(err)),
			slog.String("error_type", fmt.Sprintf("%T", err)))
	}

	logger.FromContext(r.Context()).LogAttrs(r.Context(),
		errorLogLevel(status, options.elevateLogLevel), "API error response", attrs...)

	RespondWithJSON(w, r, status, ErrorResponse{
		Error:   userMessage,
		Code:    status,
		TraceID: traceID,
	})
}
