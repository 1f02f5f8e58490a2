package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/phrazzld/triage-api/internal/api/shared"
	"github.com/phrazzld/triage-api/internal/platform/logger"
	"github.com/phrazzld/triage-api/internal/session"
)

// AdviceHandler handles the LLM-backed advice endpoints: decomposing a task
// into subtasks and suggesting which task to tackle next.
type AdviceHandler struct {
	session *session.Session
	logger  *slog.Logger
}

// NewAdviceHandler creates a new AdviceHandler
func NewAdviceHandler(sess *session.Session, logger *slog.Logger) *AdviceHandler {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for AdviceHandler")
	}

	return &AdviceHandler{
		session: sess,
		logger:  logger.With(slog.String("component", "advice_handler")),
	}
}

// DecomposeTask handles POST /tasks/{id}/decompose requests.
// It returns subtask suggestions for the named task without mutating the
// task list; whether to submit the subtasks is the client's call.
func (h *AdviceHandler) DecomposeTask(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	id, ok := pathTaskID(w, r, log)
	if !ok {
		return
	}

	subtasks, err := h.session.Decompose(r.Context(), id)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to decompose task")
		return
	}

	log.Debug("task decomposed",
		slog.String("task_id", id.String()),
		slog.Int("subtask_count", len(subtasks)))
	shared.RespondWithJSON(w, r, http.StatusOK, DecomposeResponse{Subtasks: subtasks})
}

// Suggestion handles GET /suggestion requests.
// It names the incomplete task to tackle next with a one-line reason. The
// answer is cached inside the session until the task list changes, so
// repeated polling does not re-query the model.
func (h *AdviceHandler) Suggestion(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	suggestion, err := h.session.Suggest(r.Context())

	// Special case: nothing left to prioritize
	if errors.Is(err, session.ErrNoIncompleteTasks) {
		log.Debug("no incomplete tasks to prioritize")
		w.WriteHeader(http.StatusNoContent)
		return
	}

	if err != nil {
		HandleAPIError(w, r, err, "Failed to get suggestion")
		return
	}

	log.Debug("suggestion served", slog.String("task", suggestion.TaskText))
	shared.RespondWithJSON(w, r, http.StatusOK, SuggestionResponse{
		Task:   suggestion.TaskText,
		Reason: suggestion.Reason,
	})
}
