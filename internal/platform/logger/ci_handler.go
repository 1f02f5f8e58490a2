package logger

import (
	"context"
	"io"
	"log/slog"
	"runtime"
	"time"
)

// CIHandler is a custom slog.Handler that adds CI environment metadata
// and source code location to log records.
type CIHandler struct {
	// The underlying handler (usually JSON)
	handler slog.Handler
	// CI metadata to add to every log record
	metadata map[string]string
	// Whether to add source location info
	addSource bool
}

// NewCIHandler creates a new CIHandler that wraps a JSON handler writing to
// out, adding CI metadata and source information to each log record.
func NewCIHandler(out io.Writer, opts *slog.HandlerOptions) *CIHandler {
	// Get common CI metadata
	metadata := getCIMetadata()

	// Create the base JSON handler
	var handlerOpts *slog.HandlerOptions
	if opts != nil {
		// Clone the options to avoid modifying the caller's options
		handlerOptsCopy := *opts
		handlerOpts = &handlerOptsCopy
	} else {
		handlerOpts = &slog.HandlerOptions{}
	}

	// Create the handler
	jsonHandler := slog.NewJSONHandler(out, handlerOpts)

	return &CIHandler{
		handler:   jsonHandler,
		metadata:  metadata,
		addSource: handlerOpts.AddSource,
	}
}

// Enabled implements the slog.Handler interface.
func (h *CIHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// WithAttrs implements the slog.Handler interface.
func (h *CIHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &CIHandler{
		handler:   h.handler.WithAttrs(attrs),
		metadata:  h.metadata,
		addSource: h.addSource,
	}
}

// WithGroup implements the slog.Handler interface.
func (h *CIHandler) WithGroup(name string) slog.Handler {
	return &CIHandler{
		handler:   h.handler.WithGroup(name),
		metadata:  h.metadata,
		addSource: h.addSource,
	}
}

// Handle implements the slog.Handler interface.
func (h *CIHandler) Handle(ctx context.Context, record slog.Record) error {
	// Clone the record to avoid modifying the original
	enhanced := record.Clone()

	// Add source information if enabled
	if h.addSource {
		pc, file, line, ok := runtime.Caller(4) // Adjust frames as needed
		if ok {
			// Get function name
			funcName := runtime.FuncForPC(pc).Name()

			// Add source info as structured attributes
			enhanced.AddAttrs(
				slog.String("source_file", file),
				slog.Int("source_line", line),
				slog.String("source_func", funcName),
			)
		}
	}

	// Add CI metadata as attributes
	for key, value := range h.metadata {
		enhanced.AddAttrs(slog.String(key, value))
	}

	// Add timestamp precision enhancement for test failure debugging
	nanoseconds := enhanced.Time.UnixNano() % int64(time.Second)
	enhanced.AddAttrs(slog.Int64("timestamp_nano", nanoseconds))

	// Forward the enhanced record to the underlying handler
	return h.handler.Handle(ctx, enhanced)
}
