package api

import (
	"log/slog"
	"net/http"

	"github.com/phrazzld/triage-api/internal/api/shared"
	"github.com/phrazzld/triage-api/internal/domain"
	"github.com/phrazzld/triage-api/internal/platform/logger"
	"github.com/phrazzld/triage-api/internal/redact"
	"github.com/phrazzld/triage-api/internal/session"
)

// TaskHandler handles task-related HTTP requests
type TaskHandler struct {
	session *session.Session
	logger  *slog.Logger
}

// NewTaskHandler creates a new TaskHandler
func NewTaskHandler(sess *session.Session, logger *slog.Logger) *TaskHandler {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for TaskHandler")
	}

	return &TaskHandler{
		session: sess,
		logger:  logger.With(slog.String("component", "task_handler")),
	}
}

// SubmitTask handles POST /tasks requests.
// A text already in the classification cache becomes a task immediately
// (201 with the task); anything else is queued for batched classification
// (202 with the queue status).
func (h *TaskHandler) SubmitTask(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	var req SubmitTaskRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		log.Warn("invalid request format", slog.String("error", redact.Error(err)))
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := shared.ValidateRequest(req); err != nil {
		log.Warn("validation error", slog.String("error", redact.Error(err)))
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
		return
	}

	task, queued, err := h.session.SubmitText(r.Context(), req.Text)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to submit task")
		return
	}

	if queued {
		log.Debug("task text queued for classification", slog.String("text", req.Text))
		shared.RespondWithJSON(w, r, http.StatusAccepted, QueuedResponse{
			Queued: true,
			Text:   req.Text,
			Status: h.session.Status(),
		})
		return
	}

	log.Debug("task created from classification cache",
		slog.String("task_id", task.ID.String()))
	shared.RespondWithJSON(w, r, http.StatusCreated, taskToResponse(*task))
}

// ListTasks handles GET /tasks requests.
// Tasks are returned in submission order, oldest first.
func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	tasks := h.session.Tasks()
	shared.RespondWithJSON(w, r, http.StatusOK, TaskListResponse{Tasks: tasksToResponse(tasks)})
}

// DeleteTask handles DELETE /tasks/{id} requests.
// Deleting an absent task is a no-op; the response is 204 either way.
func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	id, ok := pathTaskID(w, r, log)
	if !ok {
		return
	}

	if removed := h.session.RemoveTask(r.Context(), id); removed {
		log.Debug("task deleted", slog.String("task_id", id.String()))
	} else {
		log.Debug("delete for absent task ignored", slog.String("task_id", id.String()))
	}
	w.WriteHeader(http.StatusNoContent)
}

// ToggleTask handles POST /tasks/{id}/toggle requests.
// It flips the task's completed flag and returns the updated task.
func (h *TaskHandler) ToggleTask(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	id, ok := pathTaskID(w, r, log)
	if !ok {
		return
	}

	task, ok := h.session.ToggleCompleted(r.Context(), id)
	if !ok {
		log.Debug("toggle for unknown task", slog.String("task_id", id.String()))
		HandleAPIError(w, r, session.ErrTaskNotFound, "")
		return
	}

	log.Debug("task completion toggled",
		slog.String("task_id", id.String()),
		slog.Bool("completed", task.Completed))
	shared.RespondWithJSON(w, r, http.StatusOK, taskToResponse(task))
}

// MoveTask handles POST /tasks/{id}/move requests.
// It reassigns the task to a different quadrant of one matrix, leaving its
// placement in the other two matrices untouched.
func (h *TaskHandler) MoveTask(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	id, ok := pathTaskID(w, r, log)
	if !ok {
		return
	}

	var req MoveTaskRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		log.Warn("invalid request format",
			slog.String("error", redact.Error(err)),
			slog.String("task_id", id.String()))
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := shared.ValidateRequest(req); err != nil {
		log.Warn("validation error",
			slog.String("error", redact.Error(err)),
			slog.String("task_id", id.String()))
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
		return
	}

	task, err := h.session.Reassign(
		r.Context(),
		id,
		domain.MatrixID(req.Matrix),
		domain.QuadrantKey(req.Quadrant),
	)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to move task")
		return
	}

	log.Debug("task reassigned",
		slog.String("task_id", id.String()),
		slog.String("matrix", req.Matrix),
		slog.String("quadrant", req.Quadrant))
	shared.RespondWithJSON(w, r, http.StatusOK, taskToResponse(task))
}

// ClearCompleted handles DELETE /tasks/completed requests.
// It removes every completed task and reports how many were removed.
func (h *TaskHandler) ClearCompleted(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	removed := h.session.ClearCompleted(r.Context())

	log.Debug("completed tasks cleared", slog.Int("removed", removed))
	shared.RespondWithJSON(w, r, http.StatusOK, ClearCompletedResponse{Removed: removed})
}

// ClassificationStatus handles GET /classification/status requests.
// It reports the debounce pipeline's current state, queue depth, in-flight
// batch count, and the last batch failure if one occurred.
func (h *TaskHandler) ClassificationStatus(w http.ResponseWriter, r *http.Request) {
	shared.RespondWithJSON(w, r, http.StatusOK, h.session.Status())
}

// Matrices handles GET /matrices requests.
// The three matrices are fixed; this endpoint exists so clients can render
// quadrant titles and labels without hardcoding them.
func (h *TaskHandler) Matrices(w http.ResponseWriter, r *http.Request) {
	all := domain.AllMatrices()
	shared.RespondWithJSON(w, r, http.StatusOK, MatrixListResponse{Matrices: all[:]})
}
