package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/triage-api/internal/classify"
	"github.com/phrazzld/triage-api/internal/domain"
	"github.com/phrazzld/triage-api/internal/events"
	"github.com/phrazzld/triage-api/internal/pipeline"
	"github.com/phrazzld/triage-api/internal/store"
)

// Config carries the dependencies for a Session.
type Config struct {
	// Classifier resolves batches of task texts into quadrant triples.
	Classifier classify.Classifier

	// Decomposer breaks a task into suggested sub-tasks.
	Decomposer classify.Decomposer

	// Suggester picks the next task to prioritize.
	Suggester classify.Suggester

	// Snapshots persists the task list and classification cache.
	Snapshots store.SnapshotStore

	// Logger receives structured session logs. Defaults to slog.Default().
	Logger *slog.Logger

	// DebounceWindow is the quiet period before a batch flush.
	// Non-positive values fall back to pipeline.DefaultWindow.
	DebounceWindow time.Duration

	// TimerFactory overrides the debounce timer source. Tests use a manual
	// factory to drive timer expiry as a discrete event; nil means real
	// wall-clock timers.
	TimerFactory pipeline.TimerFactory
}

// Session owns all mutable pipeline state: the task list, the classification
// cache, the batch queue, and the current next-task advice. A single mutex
// serializes every state mutation, so the only concurrency that reaches the
// components is the triggering of asynchronous classifier calls; the user can
// keep adding, dragging, and deleting while any number of batches are in
// flight.
type Session struct {
	mu     sync.Mutex
	logger *slog.Logger

	tasks *TaskList
	cache *ClassificationCache
	queue *pipeline.BatchQueue

	classifier classify.Classifier
	decomposer classify.Decomposer
	suggester  classify.Suggester

	snapshots store.SnapshotStore
	emitter   *events.InMemoryEventEmitter
	status    *StatusTracker

	// advice is perishable: any task mutation clears it. adviceGen detects
	// mutations that happen while a suggestion request is in flight.
	advice    *classify.Suggestion
	adviceGen uint64
}

// New creates a Session with empty state. Call Load to restore persisted
// state before serving traffic.
func New(cfg Config) (*Session, error) {
	if cfg.Classifier == nil {
		return nil, fmt.Errorf("classifier is required")
	}
	if cfg.Decomposer == nil {
		return nil, fmt.Errorf("decomposer is required")
	}
	if cfg.Suggester == nil {
		return nil, fmt.Errorf("suggester is required")
	}
	if cfg.Snapshots == nil {
		return nil, fmt.Errorf("snapshot store is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "session"))

	s := &Session{
		logger:     logger,
		tasks:      NewTaskList(),
		cache:      NewClassificationCache(),
		classifier: cfg.Classifier,
		decomposer: cfg.Decomposer,
		suggester:  cfg.Suggester,
		snapshots:  cfg.Snapshots,
		emitter:    events.NewInMemoryEventEmitter(logger),
		status:     NewStatusTracker(logger),
	}
	s.queue = pipeline.NewBatchQueueWithTimer(cfg.DebounceWindow, s.flushBatch, logger, cfg.TimerFactory)
	s.emitter.RegisterHandler(s.status)

	return s, nil
}

// RegisterEventHandler subscribes an additional handler to pipeline events.
func (s *Session) RegisterEventHandler(handler events.EventHandler) {
	s.emitter.RegisterHandler(handler)
}

// Load initializes session state from durable storage. A non-empty boot
// fragment takes priority over the stored slot; malformed data in either is
// logged and ignored, falling back to an empty task list. Load never fails:
// a session always starts, at worst empty.
func (s *Session) Load(ctx context.Context, bootFragment string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if bootFragment != "" {
		tasks, err := DecodeFragment(bootFragment)
		if err != nil {
			s.logger.Warn("ignoring malformed boot fragment, starting with empty task list",
				slog.String("error", err.Error()))
		} else if err := s.tasks.Replace(tasks); err != nil {
			s.logger.Warn("ignoring invalid boot fragment, starting with empty task list",
				slog.String("error", err.Error()))
		} else {
			s.logger.Info("task list restored from fragment",
				slog.Int("task_count", len(tasks)))
		}
	} else {
		s.loadTaskSlotLocked(ctx)
	}

	s.loadCacheSlotLocked(ctx)
}

func (s *Session) loadTaskSlotLocked(ctx context.Context) {
	data, err := s.snapshots.Load(ctx, store.TaskSnapshotSlot)
	switch {
	case errors.Is(err, store.ErrSlotNotFound):
		s.logger.Debug("no stored task snapshot, starting with empty task list")
		return
	case err != nil:
		s.logger.Warn("failed to load task snapshot, starting with empty task list",
			slog.String("error", err.Error()))
		return
	}

	tasks, err := DecodeTasks(data)
	if err != nil {
		s.logger.Warn("ignoring malformed task snapshot, starting with empty task list",
			slog.String("error", err.Error()))
		return
	}
	if err := s.tasks.Replace(tasks); err != nil {
		s.logger.Warn("ignoring invalid task snapshot, starting with empty task list",
			slog.String("error", err.Error()))
		return
	}
	s.logger.Info("task list restored from snapshot slot",
		slog.Int("task_count", len(tasks)))
}

func (s *Session) loadCacheSlotLocked(ctx context.Context) {
	data, err := s.snapshots.Load(ctx, store.CacheSnapshotSlot)
	switch {
	case errors.Is(err, store.ErrSlotNotFound):
		s.logger.Debug("no stored cache snapshot, starting with empty cache")
		return
	case err != nil:
		s.logger.Warn("failed to load cache snapshot, starting with empty cache",
			slog.String("error", err.Error()))
		return
	}

	entries, err := DecodeCache(data)
	if err != nil {
		s.logger.Warn("ignoring malformed cache snapshot, starting with empty cache",
			slog.String("error", err.Error()))
		return
	}
	if err := s.cache.Replace(entries); err != nil {
		s.logger.Warn("ignoring invalid cache snapshot, starting with empty cache",
			slog.String("error", err.Error()))
		return
	}
	s.logger.Info("classification cache restored",
		slog.Int("entry_count", len(entries)))
}

// SubmitText is the new-task entry point. The text is trimmed; an empty
// result is rejected with domain.ErrEmptyTaskText. A cache hit creates the
// task immediately and returns it. A miss queues the text for batched
// classification and returns (nil, true, nil); the task appears once its
// batch is merged. Submitting a text that is already queued leaves the
// debounce window untouched and still reports queued.
func (s *Session) SubmitText(ctx context.Context, text string) (*domain.Task, bool, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, false, domain.ErrEmptyTaskText
	}

	s.mu.Lock()
	if triple, ok := s.cache.Lookup(trimmed); ok {
		task, err := domain.NewTask(trimmed, triple)
		if err != nil {
			s.mu.Unlock()
			return nil, false, err
		}
		if err := s.tasks.Add(*task); err != nil {
			s.mu.Unlock()
			return nil, false, err
		}
		s.invalidateAdviceLocked()
		s.persistTasksLocked(ctx)
		s.mu.Unlock()

		s.logger.Info("task added from cache",
			slog.String("task_id", task.ID.String()),
			slog.String("text", task.Text))
		return task, false, nil
	}

	accepted, err := s.queue.Submit(trimmed)
	s.mu.Unlock()
	if err != nil {
		if errors.Is(err, pipeline.ErrQueueClosed) {
			return nil, false, ErrSessionClosed
		}
		return nil, false, err
	}

	if accepted {
		queued, _ := s.queue.Stats()
		s.emit(ctx, events.EventTextQueued, events.TextQueuedPayload{
			Text:        trimmed,
			QueueLength: queued,
		})
	}
	return nil, true, nil
}

// flushBatch is the queue's flush callback. It runs on the debounce timer's
// goroutine; the session mutex is only taken for the merge, so mutations
// stay responsive during the classifier call.
func (s *Session) flushBatch(batch []string) {
	ctx := context.Background()

	s.emit(ctx, events.EventBatchFlushStarted, events.BatchFlushStartedPayload{Texts: batch})
	s.logger.Info("flushing classification batch",
		slog.Int("batch_size", len(batch)))

	results, err := s.classifier.Classify(ctx, batch)
	if err != nil {
		// Whole-batch abandon: the texts are dropped, nothing is retried.
		// The user re-types anything that still matters.
		s.logger.Warn("classification batch abandoned",
			slog.Int("batch_size", len(batch)),
			slog.String("error", err.Error()))
		s.emit(ctx, events.EventBatchFailed, events.BatchFailedPayload{
			BatchSize: len(batch),
			Reason:    err.Error(),
		})
		return
	}

	s.mergeBatch(ctx, batch, results)
}

// mergeBatch reconciles one batch's validated classifications into the task
// list and cache. Batches merge independently and in completion order, which
// is not necessarily flush order; each merge appends only its own tasks, so
// overlapping flushes are safe.
func (s *Session) mergeBatch(ctx context.Context, batch []string, results []classify.Result) {
	newTasks := make([]domain.Task, 0, len(results))
	for _, res := range results {
		task, err := domain.NewTask(res.Text, res.Quadrants)
		if err != nil {
			s.logger.Warn("dropping invalid classification result",
				slog.String("text", res.Text),
				slog.String("error", err.Error()))
			continue
		}
		newTasks = append(newTasks, *task)
	}

	s.mu.Lock()
	if err := s.tasks.AddBatch(newTasks); err != nil {
		s.mu.Unlock()
		s.logger.Error("batch rejected by task store",
			slog.Int("batch_size", len(batch)),
			slog.String("error", err.Error()))
		s.emit(ctx, events.EventBatchFailed, events.BatchFailedPayload{
			BatchSize: len(batch),
			Reason:    err.Error(),
		})
		return
	}
	for i := range newTasks {
		if err := s.cache.Put(newTasks[i].Text, newTasks[i].Quadrants); err != nil {
			s.logger.Warn("failed to memoize classification",
				slog.String("text", newTasks[i].Text),
				slog.String("error", err.Error()))
		}
	}
	s.invalidateAdviceLocked()
	s.persistTasksLocked(ctx)
	s.persistCacheLocked(ctx)
	s.mu.Unlock()

	dropped := len(batch) - len(newTasks)
	s.emit(ctx, events.EventBatchMerged, events.BatchMergedPayload{
		Merged:  len(newTasks),
		Dropped: dropped,
	})
	s.logger.Info("classification batch merged",
		slog.Int("merged", len(newTasks)),
		slog.Int("dropped", dropped))
}

// Tasks returns a copy of the current task list in insertion order.
func (s *Session) Tasks() []domain.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tasks.Tasks()
}

// RemoveTask deletes a task by id, reporting whether anything was removed.
// Removing an absent id is a no-op and leaves advice intact.
func (s *Session) RemoveTask(ctx context.Context, id uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.tasks.Remove(id) {
		return false
	}
	s.invalidateAdviceLocked()
	s.persistTasksLocked(ctx)
	return true
}

// ToggleCompleted flips a task's completion flag and returns the updated
// task. Reports false for an absent id.
func (s *Session) ToggleCompleted(ctx context.Context, id uuid.UUID) (domain.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.tasks.ToggleCompleted(id)
	if !ok {
		return domain.Task{}, false
	}
	s.invalidateAdviceLocked()
	s.persistTasksLocked(ctx)
	return task, true
}

// Reassign moves a task to a different quadrant within one matrix, as when
// the user drags a card between cells. The key must belong to the matrix.
func (s *Session) Reassign(ctx context.Context, id uuid.UUID, matrix domain.MatrixID, key domain.QuadrantKey) (domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, err := s.tasks.Reassign(id, matrix, key)
	if err != nil {
		return domain.Task{}, err
	}
	s.invalidateAdviceLocked()
	s.persistTasksLocked(ctx)
	return task, nil
}

// ClearCompleted removes every completed task and returns how many were
// removed.
func (s *Session) ClearCompleted(ctx context.Context) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := s.tasks.ClearCompleted()
	if removed == 0 {
		return 0
	}
	s.invalidateAdviceLocked()
	s.persistTasksLocked(ctx)
	return removed
}

// ShareFragment encodes the current task list as a URL-shareable fragment.
func (s *Session) ShareFragment() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return EncodeFragment(s.tasks.Tasks())
}

// Restore replaces the task list from a share fragment. Unlike Load, a
// malformed fragment is reported to the caller instead of being swallowed,
// since an explicit restore request deserves an explicit answer.
func (s *Session) Restore(ctx context.Context, fragment string) error {
	tasks, err := DecodeFragment(fragment)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.tasks.Replace(tasks); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedSnapshot, err)
	}
	s.invalidateAdviceLocked()
	s.persistTasksLocked(ctx)

	s.logger.Info("task list restored from fragment",
		slog.Int("task_count", len(tasks)))
	return nil
}

// Decompose asks the decomposition boundary for sub-task suggestions for the
// given task. The caller decides which suggestions to submit as new tasks;
// nothing is mutated here.
func (s *Session) Decompose(ctx context.Context, id uuid.UUID) ([]string, error) {
	s.mu.Lock()
	task, ok := s.tasks.Get(id)
	s.mu.Unlock()
	if !ok {
		return nil, ErrTaskNotFound
	}

	return s.decomposer.Decompose(ctx, task.Text)
}

// Suggest returns the held next-task advice, computing it from the current
// incomplete tasks when none is held. Advice produced against a task list
// that mutated while the suggestion call was in flight is returned to the
// caller but not retained.
func (s *Session) Suggest(ctx context.Context) (*classify.Suggestion, error) {
	s.mu.Lock()
	if s.advice != nil {
		advice := *s.advice
		s.mu.Unlock()
		return &advice, nil
	}
	gen := s.adviceGen
	incomplete := s.tasks.Incomplete()
	s.mu.Unlock()

	if len(incomplete) == 0 {
		return nil, ErrNoIncompleteTasks
	}

	texts := make([]string, len(incomplete))
	for i := range incomplete {
		texts[i] = incomplete[i].Text
	}

	suggestion, err := s.suggester.Suggest(ctx, texts)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	if s.adviceGen == gen {
		s.advice = suggestion
	}
	s.mu.Unlock()
	return suggestion, nil
}

// Status reports the pipeline's current externally visible state.
func (s *Session) Status() Status {
	queued, inFlight := s.queue.Stats()
	return Status{
		State:     s.queue.State().String(),
		Queued:    queued,
		InFlight:  inFlight,
		LastError: s.status.LastError(),
	}
}

// Close shuts down the batch queue, discarding queued texts and waiting for
// in-flight flushes to finish merging.
func (s *Session) Close() {
	s.queue.Close()
}

// invalidateAdviceLocked clears held advice and bumps the generation so a
// suggestion in flight is not retained. Callers must hold s.mu.
func (s *Session) invalidateAdviceLocked() {
	s.advice = nil
	s.adviceGen++
}

// persistTasksLocked mirrors the task list to its durable slot. Failures are
// logged, never propagated: the in-memory list stays authoritative and the
// next mutation rewrites the full snapshot. Callers must hold s.mu.
func (s *Session) persistTasksLocked(ctx context.Context) {
	data, err := EncodeTasks(s.tasks.Tasks())
	if err != nil {
		s.logger.Error("failed to encode task snapshot",
			slog.String("error", err.Error()))
		return
	}
	if err := s.snapshots.Save(ctx, store.TaskSnapshotSlot, data); err != nil {
		s.logger.Error("failed to persist task snapshot",
			slog.String("error", err.Error()))
	}
}

// persistCacheLocked mirrors the classification cache to its durable slot.
// Same failure policy as persistTasksLocked. Callers must hold s.mu.
func (s *Session) persistCacheLocked(ctx context.Context) {
	data, err := EncodeCache(s.cache.Entries())
	if err != nil {
		s.logger.Error("failed to encode cache snapshot",
			slog.String("error", err.Error()))
		return
	}
	if err := s.snapshots.Save(ctx, store.CacheSnapshotSlot, data); err != nil {
		s.logger.Error("failed to persist cache snapshot",
			slog.String("error", err.Error()))
	}
}

// emit publishes a pipeline event, logging instead of failing when event
// construction or a handler errors.
func (s *Session) emit(ctx context.Context, eventType string, payload interface{}) {
	event, err := events.NewPipelineEvent(eventType, payload)
	if err != nil {
		s.logger.Error("failed to create pipeline event",
			slog.String("event_type", eventType),
			slog.String("error", err.Error()))
		return
	}
	if err := s.emitter.EmitEvent(ctx, event); err != nil {
		s.logger.Warn("pipeline event handler error",
			slog.String("event_type", eventType),
			slog.String("error", err.Error()))
	}
}
