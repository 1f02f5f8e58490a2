package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/phrazzld/triage-api/internal/events"
)

// Status is the externally visible classification pipeline status.
type Status struct {
	State     string `json:"state"`
	Queued    int    `json:"queued"`
	InFlight  int    `json:"in_flight"`
	LastError string `json:"last_error,omitempty"`
}

// StatusTracker derives the sticky part of the pipeline status from pipeline
// events: the most recent batch failure, cleared as soon as a new text is
// queued. Queue depth and flush counts are read live from the queue instead.
type StatusTracker struct {
	mu        sync.Mutex
	lastError string
	logger    *slog.Logger
}

// NewStatusTracker creates a tracker with no recorded failure.
// If logger is nil, a default logger will be used.
func NewStatusTracker(logger *slog.Logger) *StatusTracker {
	if logger == nil {
		logger = slog.Default()
	}
	return &StatusTracker{
		logger: logger.With(slog.String("component", "status_tracker")),
	}
}

// Ensure StatusTracker can subscribe to pipeline events
var _ events.EventHandler = (*StatusTracker)(nil)

// HandleEvent implements events.EventHandler.
func (t *StatusTracker) HandleEvent(ctx context.Context, event *events.PipelineEvent) error {
	switch event.Type {
	case events.EventTextQueued:
		t.mu.Lock()
		t.lastError = ""
		t.mu.Unlock()

	case events.EventBatchFailed:
		var payload events.BatchFailedPayload
		if err := event.UnmarshalPayload(&payload); err != nil {
			return fmt.Errorf("failed to unmarshal batch failure payload: %w", err)
		}
		t.mu.Lock()
		t.lastError = payload.Reason
		t.mu.Unlock()
		t.logger.Debug("recorded batch failure",
			slog.Int("batch_size", payload.BatchSize),
			slog.String("reason", payload.Reason))
	}
	return nil
}

// LastError returns the most recent batch failure reason, or the empty
// string if none occurred since the last queued text.
func (t *StatusTracker) LastError() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lastError
}
