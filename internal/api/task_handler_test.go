package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/triage-api/internal/api/shared"
	"github.com/phrazzld/triage-api/internal/classify"
	"github.com/phrazzld/triage-api/internal/pipeline"
	"github.com/phrazzld/triage-api/internal/platform/gemini"
	"github.com/phrazzld/triage-api/internal/session"
	"github.com/phrazzld/triage-api/internal/store"
)

// manualTimer is a pipeline.Timer whose expiry the test triggers explicitly.
type manualTimer struct {
	d       time.Duration
	fn      func()
	stopped bool
}

func (t *manualTimer) Stop() bool {
	wasActive := !t.stopped
	t.stopped = true
	return wasActive
}

// manualClock hands out manualTimers so tests can run the debounce window
// as a discrete event instead of sleeping through it.
type manualClock struct {
	mu     sync.Mutex
	timers []*manualTimer
}

func (c *manualClock) factory(d time.Duration, fn func()) pipeline.Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &manualTimer{d: d, fn: fn}
	c.timers = append(c.timers, t)
	return t
}

func (c *manualClock) fireLast() {
	c.mu.Lock()
	t := c.timers[len(c.timers)-1]
	c.mu.Unlock()
	t.fn()
}

// memorySnapshotStore is an in-memory store.SnapshotStore for handler tests.
type memorySnapshotStore struct {
	mu    sync.Mutex
	slots map[string][]byte
}

func newMemorySnapshotStore() *memorySnapshotStore {
	return &memorySnapshotStore{slots: make(map[string][]byte)}
}

func (m *memorySnapshotStore) Save(ctx context.Context, slot string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.slots[slot] = append([]byte(nil), data...)
	return nil
}

func (m *memorySnapshotStore) Load(ctx context.Context, slot string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.slots[slot]
	if !ok {
		return nil, store.ErrSlotNotFound
	}
	return append([]byte(nil), data...), nil
}

// apiFixture wires a real session with mocked model boundaries behind the
// same route table the server mounts.
type apiFixture struct {
	session *session.Session
	clock   *manualClock
	mock    *gemini.Mock
	router  *chi.Mux
}

func newTestFixture(t *testing.T) *apiFixture {
	t.Helper()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	clock := &manualClock{}
	mock := &gemini.Mock{}

	sess, err := session.New(session.Config{
		Classifier:     mock,
		Decomposer:     mock,
		Suggester:      mock,
		Snapshots:      newMemorySnapshotStore(),
		Logger:         log,
		DebounceWindow: 1500 * time.Millisecond,
		TimerFactory:   clock.factory,
	})
	require.NoError(t, err)
	t.Cleanup(sess.Close)

	taskHandler := NewTaskHandler(sess, log)
	adviceHandler := NewAdviceHandler(sess, log)
	shareHandler := NewShareHandler(sess, log)

	router := chi.NewRouter()
	router.Route("/api", func(r chi.Router) {
		r.Post("/tasks", taskHandler.SubmitTask)
		r.Get("/tasks", taskHandler.ListTasks)
		r.Delete("/tasks/completed", taskHandler.ClearCompleted)
		r.Delete("/tasks/{id}", taskHandler.DeleteTask)
		r.Post("/tasks/{id}/toggle", taskHandler.ToggleTask)
		r.Post("/tasks/{id}/move", taskHandler.MoveTask)
		r.Post("/tasks/{id}/decompose", adviceHandler.DecomposeTask)
		r.Get("/suggestion", adviceHandler.Suggestion)
		r.Get("/share", shareHandler.Share)
		r.Post("/restore", shareHandler.Restore)
		r.Get("/matrices", taskHandler.Matrices)
		r.Get("/classification/status", taskHandler.ClassificationStatus)
	})

	return &apiFixture{session: sess, clock: clock, mock: mock, router: router}
}

// do sends a request through the fixture's router. A nil body sends no
// payload; anything else is marshaled as JSON.
func (fx *apiFixture) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	fx.router.ServeHTTP(rr, req)
	return rr
}

// doRaw sends a request with a literal body, for malformed-payload cases.
func (fx *apiFixture) doRaw(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, reader)
	rr := httptest.NewRecorder()
	fx.router.ServeHTTP(rr, req)
	return rr
}

func decodeAs(t *testing.T, rr *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.NewDecoder(rr.Body).Decode(v))
}

// submitClassified pushes texts through the full submit-flush-merge cycle
// and returns the resulting task list.
func (fx *apiFixture) submitClassified(t *testing.T, texts ...string) []TaskResponse {
	t.Helper()

	for _, text := range texts {
		rr := fx.do(t, http.MethodPost, "/api/tasks", SubmitTaskRequest{Text: text})
		require.Equal(t, http.StatusAccepted, rr.Code, "expected text to queue: %s", text)
	}
	fx.clock.fireLast()

	var list TaskListResponse
	rr := fx.do(t, http.MethodGet, "/api/tasks", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	decodeAs(t, rr, &list)
	require.Len(t, list.Tasks, len(texts))
	return list.Tasks
}

func TestSubmitTask(t *testing.T) {
	t.Run("queues unknown text", func(t *testing.T) {
		fx := newTestFixture(t)

		rr := fx.do(t, http.MethodPost, "/api/tasks", SubmitTaskRequest{Text: "write the quarterly report"})
		require.Equal(t, http.StatusAccepted, rr.Code)

		var queued QueuedResponse
		decodeAs(t, rr, &queued)
		assert.True(t, queued.Queued)
		assert.Equal(t, "write the quarterly report", queued.Text)
		assert.Equal(t, "pending", queued.Status.State)
		assert.Equal(t, 1, queued.Status.Queued)

		// Nothing is on the list until the batch merges
		var list TaskListResponse
		rr = fx.do(t, http.MethodGet, "/api/tasks", nil)
		decodeAs(t, rr, &list)
		assert.Empty(t, list.Tasks)
	})

	t.Run("batch merges after debounce fires", func(t *testing.T) {
		fx := newTestFixture(t)

		fx.do(t, http.MethodPost, "/api/tasks", SubmitTaskRequest{Text: "buy groceries"})
		fx.do(t, http.MethodPost, "/api/tasks", SubmitTaskRequest{Text: "call the dentist"})
		fx.clock.fireLast()

		var list TaskListResponse
		rr := fx.do(t, http.MethodGet, "/api/tasks", nil)
		require.Equal(t, http.StatusOK, rr.Code)
		decodeAs(t, rr, &list)

		require.Len(t, list.Tasks, 2)
		assert.Equal(t, "buy groceries", list.Tasks[0].Text)
		assert.Equal(t, "call the dentist", list.Tasks[1].Text)
		// Mock default triple
		assert.Equal(t, QuadrantsResponse{A: "Q1", B: "R1", C: "S1"}, list.Tasks[0].Quadrants)
		assert.False(t, list.Tasks[0].Completed)
	})

	t.Run("creates immediately from cache", func(t *testing.T) {
		fx := newTestFixture(t)

		tasks := fx.submitClassified(t, "water the plants")
		firstID := tasks[0].ID

		rr := fx.do(t, http.MethodDelete, "/api/tasks/"+firstID, nil)
		require.Equal(t, http.StatusNoContent, rr.Code)

		// Same text again: cached triple, no queue round-trip
		rr = fx.do(t, http.MethodPost, "/api/tasks", SubmitTaskRequest{Text: "water the plants"})
		require.Equal(t, http.StatusCreated, rr.Code)

		var task TaskResponse
		decodeAs(t, rr, &task)
		assert.Equal(t, "water the plants", task.Text)
		assert.Equal(t, QuadrantsResponse{A: "Q1", B: "R1", C: "S1"}, task.Quadrants)
		assert.NotEqual(t, firstID, task.ID, "cache hit should mint a fresh task identity")
	})

	t.Run("rejects bad payloads", func(t *testing.T) {
		fx := newTestFixture(t)

		tests := []struct {
			name       string
			body       string
			wantStatus int
		}{
			{name: "no body", body: "", wantStatus: http.StatusBadRequest},
			{name: "malformed json", body: `{"text": }`, wantStatus: http.StatusBadRequest},
			{name: "missing text", body: `{}`, wantStatus: http.StatusBadRequest},
			{name: "whitespace only text", body: `{"text": "   "}`, wantStatus: http.StatusBadRequest},
		}

		for _, tc := range tests {
			t.Run(tc.name, func(t *testing.T) {
				rr := fx.doRaw(t, http.MethodPost, "/api/tasks", tc.body)
				assert.Equal(t, tc.wantStatus, rr.Code)

				var resp shared.ErrorResponse
				decodeAs(t, rr, &resp)
				assert.NotEmpty(t, resp.Error)
			})
		}
	})

	t.Run("whitespace text names the empty-text failure", func(t *testing.T) {
		fx := newTestFixture(t)

		rr := fx.doRaw(t, http.MethodPost, "/api/tasks", `{"text": "  \t "}`)
		require.Equal(t, http.StatusBadRequest, rr.Code)

		var resp shared.ErrorResponse
		decodeAs(t, rr, &resp)
		assert.Equal(t, "Task text cannot be empty", resp.Error)
	})
}

func TestListTasks_EmptyListIsJSONArray(t *testing.T) {
	fx := newTestFixture(t)

	rr := fx.do(t, http.MethodGet, "/api/tasks", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"tasks":[]`)
}

func TestDeleteTask(t *testing.T) {
	t.Run("removes task and is idempotent", func(t *testing.T) {
		fx := newTestFixture(t)
		tasks := fx.submitClassified(t, "first", "second")

		rr := fx.do(t, http.MethodDelete, "/api/tasks/"+tasks[0].ID, nil)
		assert.Equal(t, http.StatusNoContent, rr.Code)
		assert.Zero(t, rr.Body.Len())

		var list TaskListResponse
		decodeAs(t, fx.do(t, http.MethodGet, "/api/tasks", nil), &list)
		require.Len(t, list.Tasks, 1)
		assert.Equal(t, "second", list.Tasks[0].Text)

		// Deleting again is still 204
		rr = fx.do(t, http.MethodDelete, "/api/tasks/"+tasks[0].ID, nil)
		assert.Equal(t, http.StatusNoContent, rr.Code)
	})

	t.Run("rejects malformed id", func(t *testing.T) {
		fx := newTestFixture(t)

		rr := fx.do(t, http.MethodDelete, "/api/tasks/not-a-uuid", nil)
		assert.Equal(t, http.StatusBadRequest, rr.Code)

		var resp shared.ErrorResponse
		decodeAs(t, rr, &resp)
		assert.Equal(t, "Invalid task ID format", resp.Error)
	})
}

func TestToggleTask(t *testing.T) {
	t.Run("flips completion both ways", func(t *testing.T) {
		fx := newTestFixture(t)
		tasks := fx.submitClassified(t, "ship the release")

		rr := fx.do(t, http.MethodPost, "/api/tasks/"+tasks[0].ID+"/toggle", nil)
		require.Equal(t, http.StatusOK, rr.Code)

		var task TaskResponse
		decodeAs(t, rr, &task)
		assert.True(t, task.Completed)

		rr = fx.do(t, http.MethodPost, "/api/tasks/"+tasks[0].ID+"/toggle", nil)
		require.Equal(t, http.StatusOK, rr.Code)
		decodeAs(t, rr, &task)
		assert.False(t, task.Completed)
	})

	t.Run("unknown task is 404", func(t *testing.T) {
		fx := newTestFixture(t)

		rr := fx.do(t, http.MethodPost, "/api/tasks/"+uuid.NewString()+"/toggle", nil)
		assert.Equal(t, http.StatusNotFound, rr.Code)

		var resp shared.ErrorResponse
		decodeAs(t, rr, &resp)
		assert.Equal(t, "Task not found", resp.Error)
	})
}

func TestMoveTask(t *testing.T) {
	t.Run("reassigns within one matrix only", func(t *testing.T) {
		fx := newTestFixture(t)
		tasks := fx.submitClassified(t, "refactor the billing job")

		rr := fx.do(t, http.MethodPost, "/api/tasks/"+tasks[0].ID+"/move",
			MoveTaskRequest{Matrix: "B", Quadrant: "R4"})
		require.Equal(t, http.StatusOK, rr.Code)

		var task TaskResponse
		decodeAs(t, rr, &task)
		assert.Equal(t, QuadrantsResponse{A: "Q1", B: "R4", C: "S1"}, task.Quadrants)
	})

	t.Run("key from another matrix is rejected", func(t *testing.T) {
		fx := newTestFixture(t)
		tasks := fx.submitClassified(t, "refactor the billing job")

		rr := fx.do(t, http.MethodPost, "/api/tasks/"+tasks[0].ID+"/move",
			MoveTaskRequest{Matrix: "A", Quadrant: "R1"})
		require.Equal(t, http.StatusBadRequest, rr.Code)

		var resp shared.ErrorResponse
		decodeAs(t, rr, &resp)
		assert.Equal(t, "Quadrant key is outside the matrix domain", resp.Error)

		// Task placement is unchanged
		var list TaskListResponse
		decodeAs(t, fx.do(t, http.MethodGet, "/api/tasks", nil), &list)
		assert.Equal(t, QuadrantsResponse{A: "Q1", B: "R1", C: "S1"}, list.Tasks[0].Quadrants)
	})

	t.Run("unknown matrix fails validation", func(t *testing.T) {
		fx := newTestFixture(t)
		tasks := fx.submitClassified(t, "refactor the billing job")

		rr := fx.do(t, http.MethodPost, "/api/tasks/"+tasks[0].ID+"/move",
			MoveTaskRequest{Matrix: "D", Quadrant: "Q1"})
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("unknown task is 404", func(t *testing.T) {
		fx := newTestFixture(t)

		rr := fx.do(t, http.MethodPost, "/api/tasks/"+uuid.NewString()+"/move",
			MoveTaskRequest{Matrix: "A", Quadrant: "Q2"})
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("missing body is 400", func(t *testing.T) {
		fx := newTestFixture(t)
		tasks := fx.submitClassified(t, "refactor the billing job")

		rr := fx.doRaw(t, http.MethodPost, "/api/tasks/"+tasks[0].ID+"/move", "")
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestClearCompleted(t *testing.T) {
	fx := newTestFixture(t)
	tasks := fx.submitClassified(t, "one", "two", "three")

	fx.do(t, http.MethodPost, "/api/tasks/"+tasks[0].ID+"/toggle", nil)
	fx.do(t, http.MethodPost, "/api/tasks/"+tasks[2].ID+"/toggle", nil)

	rr := fx.do(t, http.MethodDelete, "/api/tasks/completed", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var cleared ClearCompletedResponse
	decodeAs(t, rr, &cleared)
	assert.Equal(t, 2, cleared.Removed)

	var list TaskListResponse
	decodeAs(t, fx.do(t, http.MethodGet, "/api/tasks", nil), &list)
	require.Len(t, list.Tasks, 1)
	assert.Equal(t, "two", list.Tasks[0].Text)

	// Second clear finds nothing
	rr = fx.do(t, http.MethodDelete, "/api/tasks/completed", nil)
	decodeAs(t, rr, &cleared)
	assert.Zero(t, cleared.Removed)
}

func TestClassificationStatus(t *testing.T) {
	t.Run("tracks queue through a cycle", func(t *testing.T) {
		fx := newTestFixture(t)

		var status session.Status
		decodeAs(t, fx.do(t, http.MethodGet, "/api/classification/status", nil), &status)
		assert.Equal(t, "idle", status.State)
		assert.Zero(t, status.Queued)

		fx.do(t, http.MethodPost, "/api/tasks", SubmitTaskRequest{Text: "triage inbox"})
		decodeAs(t, fx.do(t, http.MethodGet, "/api/classification/status", nil), &status)
		assert.Equal(t, "pending", status.State)
		assert.Equal(t, 1, status.Queued)

		fx.clock.fireLast()
		decodeAs(t, fx.do(t, http.MethodGet, "/api/classification/status", nil), &status)
		assert.Equal(t, "idle", status.State)
		assert.Zero(t, status.Queued)
		assert.Empty(t, status.LastError)
	})

	t.Run("surfaces the last batch failure", func(t *testing.T) {
		fx := newTestFixture(t)
		fx.mock.ClassifyFunc = func(ctx context.Context, texts []string) ([]classify.Result, error) {
			return nil, errors.New("upstream unavailable")
		}

		fx.do(t, http.MethodPost, "/api/tasks", SubmitTaskRequest{Text: "triage inbox"})
		fx.clock.fireLast()

		var status session.Status
		decodeAs(t, fx.do(t, http.MethodGet, "/api/classification/status", nil), &status)
		assert.Equal(t, "idle", status.State)
		assert.Equal(t, "upstream unavailable", status.LastError)
	})
}

func TestMatrices(t *testing.T) {
	fx := newTestFixture(t)

	rr := fx.do(t, http.MethodGet, "/api/matrices", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var resp MatrixListResponse
	decodeAs(t, rr, &resp)
	require.Len(t, resp.Matrices, 3)

	assert.Equal(t, "A", string(resp.Matrices[0].ID))
	assert.Equal(t, "Urgency × Importance", resp.Matrices[0].Title)
	assert.Equal(t, "Q1", string(resp.Matrices[0].Quadrants[0].Key))
	assert.Equal(t, "B", string(resp.Matrices[1].ID))
	assert.Equal(t, "C", string(resp.Matrices[2].ID))
}
