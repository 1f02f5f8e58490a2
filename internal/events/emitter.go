package events

import (
	"context"
	"log/slog"
	"sync"
)

// InMemoryEventEmitter dispatches pipeline events synchronously to every
// registered handler. The session registers its status tracker at
// construction; tests attach recorders the same way.
type InMemoryEventEmitter struct {
	mu       sync.RWMutex
	handlers []EventHandler
	logger   *slog.Logger
}

// NewInMemoryEventEmitter creates an emitter with no handlers registered.
func NewInMemoryEventEmitter(logger *slog.Logger) *InMemoryEventEmitter {
	return &InMemoryEventEmitter{
		logger: logger.With("component", "event_emitter"),
	}
}

// RegisterHandler subscribes a handler to every subsequently emitted event.
func (e *InMemoryEventEmitter) RegisterHandler(handler EventHandler) {
	e.mu.Lock()
	e.handlers = append(e.handlers, handler)
	count := len(e.handlers)
	e.mu.Unlock()

	e.logger.Debug("event handler registered", "handler_count", count)
}

// EmitEvent delivers the event to every handler in registration order. A
// failing handler does not stop delivery to the rest; the first error is
// returned once all handlers have run. The handler list is copied under the
// read lock so a registration during dispatch cannot race the iteration.
func (e *InMemoryEventEmitter) EmitEvent(ctx context.Context, event *PipelineEvent) error {
	e.mu.RLock()
	subscribed := make([]EventHandler, len(e.handlers))
	copy(subscribed, e.handlers)
	e.mu.RUnlock()

	e.logger.Debug("dispatching pipeline event",
		"event_id", event.ID,
		"event_type", event.Type,
		"handler_count", len(subscribed))

	var firstErr error
	for i, handler := range subscribed {
		if err := handler.HandleEvent(ctx, event); err != nil {
			e.logger.Error("event handler failed",
				"error", err,
				"handler_index", i,
				"event_id", event.ID,
				"event_type", event.Type)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
