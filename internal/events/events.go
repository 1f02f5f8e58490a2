package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event types emitted by the classification pipeline.
const (
	// EventTextQueued is emitted when a submitted text enters the batch queue.
	EventTextQueued = "text_queued"

	// EventBatchFlushStarted is emitted when the debounce window closes and a
	// batch snapshot is handed to the classifier.
	EventBatchFlushStarted = "batch_flush_started"

	// EventBatchMerged is emitted after a batch's validated results have been
	// merged into the task store and cache.
	EventBatchMerged = "batch_merged"

	// EventBatchFailed is emitted when a classifier call fails and its batch
	// is abandoned.
	EventBatchFailed = "batch_failed"
)

// TextQueuedPayload is the payload for EventTextQueued.
type TextQueuedPayload struct {
	Text        string `json:"text"`
	QueueLength int    `json:"queue_length"`
}

// BatchFlushStartedPayload is the payload for EventBatchFlushStarted.
type BatchFlushStartedPayload struct {
	Texts []string `json:"texts"`
}

// BatchMergedPayload is the payload for EventBatchMerged.
type BatchMergedPayload struct {
	Merged  int `json:"merged"`
	Dropped int `json:"dropped"`
}

// BatchFailedPayload is the payload for EventBatchFailed.
type BatchFailedPayload struct {
	BatchSize int    `json:"batch_size"`
	Reason    string `json:"reason"`
}

// PipelineEvent represents one observable step of the classification
// pipeline. It carries its payload as serialized JSON so subscribers do not
// depend on the emitting package.
type PipelineEvent struct {
	// ID is a unique identifier for this event
	ID uuid.UUID `json:"id"`

	// Type is one of the Event* constants
	Type string `json:"type"`

	// Payload contains the event-specific data serialized as JSON
	Payload json.RawMessage `json:"payload"`

	// CreatedAt is the timestamp when the event was created
	CreatedAt time.Time `json:"created_at"`
}

// UnmarshalPayload decodes the event payload into the provided structure.
func (e *PipelineEvent) UnmarshalPayload(v interface{}) error {
	return json.Unmarshal(e.Payload, v)
}

// NewPipelineEvent creates a new PipelineEvent with the specified type and payload.
func NewPipelineEvent(eventType string, payload interface{}) (*PipelineEvent, error) {
	// Serialize the payload to JSON
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return &PipelineEvent{
		ID:        uuid.New(),
		Type:      eventType,
		Payload:   payloadBytes,
		CreatedAt: time.Now(),
	}, nil
}

// EventHandler defines an interface for components that can handle events.
// Handlers are responsible for processing events and taking appropriate actions.
type EventHandler interface {
	// HandleEvent processes the given event within the provided context.
	// Returns an error if the event cannot be handled successfully.
	HandleEvent(ctx context.Context, event *PipelineEvent) error
}

// EventEmitter defines an interface for components that can emit events.
// This allows the pipeline to publish events without direct knowledge of handlers.
type EventEmitter interface {
	// EmitEvent publishes the given event to all registered handlers.
	// Returns an error if the event cannot be emitted.
	EmitEvent(ctx context.Context, event *PipelineEvent) error
}
