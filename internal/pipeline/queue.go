package pipeline

import (
	"log/slog"
	"sync"
	"time"
)

// DefaultWindow is the debounce window applied when no explicit window is
// configured. It amortizes one classifier call across quick successive task
// entries while staying short enough to feel immediate.
const DefaultWindow = 1500 * time.Millisecond

// State describes the queue's position in its debounce cycle.
type State int

const (
	// StateIdle means nothing is queued and no batch is in flight.
	StateIdle State = iota

	// StatePending means texts are queued and the debounce timer is armed.
	StatePending

	// StateFlushing means at least one batch is in flight and no new
	// debounce cycle has started since.
	StateFlushing
)

// String returns the lowercase name of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePending:
		return "pending"
	case StateFlushing:
		return "flushing"
	default:
		return "unknown"
	}
}

// FlushFunc receives a snapshot of the queued texts when the debounce window
// elapses. It runs on the timer's goroutine, so submitters are never blocked
// by a flush. The queue does not interpret the outcome; the callback owns
// classification, merging, and error handling.
type FlushFunc func(batch []string)

// BatchQueue collects pending task texts and flushes them as one batch after
// a quiet period. Submitting a new text refreshes the window; submitting a
// text already queued leaves the window untouched.
//
// Thread-safety: all methods are safe for concurrent use. The flush callback
// may run concurrently with itself when batches overlap.
type BatchQueue struct {
	mu       sync.Mutex
	window   time.Duration
	newTimer TimerFactory
	flush    FlushFunc
	logger   *slog.Logger

	queue    []string
	inQueue  map[string]struct{}
	timer    Timer
	seq      uint64 // invalidates stale timer callbacks after a refresh
	inFlight int
	closed   bool
	wg       sync.WaitGroup
}

// NewBatchQueue creates a queue with real wall-clock timers.
// Panics if flush is nil. A non-positive window falls back to DefaultWindow.
// If logger is nil, a default logger will be used.
func NewBatchQueue(window time.Duration, flush FlushFunc, logger *slog.Logger) *BatchQueue {
	return NewBatchQueueWithTimer(window, flush, logger, nil)
}

// NewBatchQueueWithTimer is NewBatchQueue with an injectable timer factory.
// Tests pass a manual factory to drive timer expiry as a discrete event.
// A nil factory falls back to time.AfterFunc.
func NewBatchQueueWithTimer(
	window time.Duration,
	flush FlushFunc,
	logger *slog.Logger,
	factory TimerFactory,
) *BatchQueue {
	if flush == nil {
		panic("flush callback cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if factory == nil {
		factory = realTimerFactory
	}
	if window <= 0 {
		window = DefaultWindow
	}

	return &BatchQueue{
		window:   window,
		newTimer: factory,
		flush:    flush,
		logger:   logger.With(slog.String("component", "batch_queue")),
		inQueue:  make(map[string]struct{}),
	}
}

// Submit adds a text to the queue and refreshes the debounce window.
// It reports false without touching the window when the text is already
// queued. Returns ErrQueueClosed after Close.
func (q *BatchQueue) Submit(text string) (bool, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false, ErrQueueClosed
	}

	if _, dup := q.inQueue[text]; dup {
		q.logger.Debug("text already queued, window unchanged",
			slog.String("text", text))
		return false, nil
	}

	q.queue = append(q.queue, text)
	q.inQueue[text] = struct{}{}
	q.armLocked()

	q.logger.Debug("text queued",
		slog.String("text", text),
		slog.Int("queue_length", len(q.queue)))
	return true, nil
}

// armLocked (re)starts the debounce timer. Callers must hold q.mu.
func (q *BatchQueue) armLocked() {
	if q.timer != nil {
		q.timer.Stop()
	}
	q.seq++
	seq := q.seq
	q.timer = q.newTimer(q.window, func() { q.fire(seq) })
}

// fire runs when a debounce timer elapses. A stale timer, one whose arming
// was superseded by a later Submit or by Close, is detected via seq and does
// nothing. Otherwise the queue contents are snapshotted as one batch and the
// flush callback runs on this goroutine.
func (q *BatchQueue) fire(seq uint64) {
	q.mu.Lock()
	if q.closed || seq != q.seq {
		q.mu.Unlock()
		return
	}
	q.timer = nil
	if len(q.queue) == 0 {
		q.mu.Unlock()
		return
	}

	batch := q.queue
	q.queue = nil
	q.inQueue = make(map[string]struct{})
	q.inFlight++
	q.wg.Add(1)
	q.logger.Debug("debounce window elapsed, flushing batch",
		slog.Int("batch_size", len(batch)))
	q.mu.Unlock()

	q.flush(batch)

	q.mu.Lock()
	q.inFlight--
	q.mu.Unlock()
	q.wg.Done()
}

// State reports the current debounce state. An armed timer wins over an
// in-flight batch because new submissions during a flush start a fresh,
// independent cycle.
func (q *BatchQueue) State() State {
	q.mu.Lock()
	defer q.mu.Unlock()

	switch {
	case q.timer != nil:
		return StatePending
	case q.inFlight > 0:
		return StateFlushing
	default:
		return StateIdle
	}
}

// Stats returns the number of queued texts and in-flight batches.
func (q *BatchQueue) Stats() (queued, inFlight int) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.queue), q.inFlight
}

// Close stops the timer, discards anything still queued, and waits for
// in-flight flushes to finish. Queued texts do not survive shutdown.
// Close is idempotent.
func (q *BatchQueue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	q.seq++
	if q.timer != nil {
		q.timer.Stop()
		q.timer = nil
	}
	dropped := len(q.queue)
	q.queue = nil
	q.inQueue = make(map[string]struct{})
	q.mu.Unlock()

	q.wg.Wait()

	if dropped > 0 {
		q.logger.Info("queue closed with unflushed texts",
			slog.Int("dropped", dropped))
	}
}
