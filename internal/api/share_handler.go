package api

import (
	"log/slog"
	"net/http"

	"github.com/phrazzld/triage-api/internal/api/shared"
	"github.com/phrazzld/triage-api/internal/platform/logger"
	"github.com/phrazzld/triage-api/internal/redact"
	"github.com/phrazzld/triage-api/internal/session"
)

// ShareHandler handles snapshot sharing: exporting the task list as a URL
// fragment and restoring a list from one.
type ShareHandler struct {
	session *session.Session
	logger  *slog.Logger
}

// NewShareHandler creates a new ShareHandler
func NewShareHandler(sess *session.Session, logger *slog.Logger) *ShareHandler {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for ShareHandler")
	}

	return &ShareHandler{
		session: sess,
		logger:  logger.With(slog.String("component", "share_handler")),
	}
}

// Share handles GET /share requests.
// It encodes the current task list as a base64url fragment suitable for
// pasting after a # in a link.
func (h *ShareHandler) Share(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	fragment, err := h.session.ShareFragment()
	if err != nil {
		HandleAPIError(w, r, err, "Failed to encode share fragment")
		return
	}

	log.Debug("share fragment encoded", slog.Int("length", len(fragment)))
	shared.RespondWithJSON(w, r, http.StatusOK, ShareResponse{Fragment: fragment})
}

// Restore handles POST /restore requests.
// A valid fragment replaces the entire task list; a malformed one is
// rejected with 400 and leaves the list untouched.
func (h *ShareHandler) Restore(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	var req RestoreRequest
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

	if err := h.session.Restore(r.Context(), req.Fragment); err != nil {
		HandleAPIError(w, r, err, "Failed to restore task list")
		return
	}

	tasks := h.session.Tasks()
	log.Info("task list restored from fragment", slog.Int("task_count", len(tasks)))
	shared.RespondWithJSON(w, r, http.StatusOK, TaskListResponse{Tasks: tasksToResponse(tasks)})
}
