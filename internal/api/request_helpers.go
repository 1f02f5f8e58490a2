package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/triage-api/internal/api/shared"
)

// pathTaskID extracts the {id} path parameter and parses it as a task UUID.
// On failure it writes the 400 response itself and returns false, so
// handlers can bail out with a bare return.
func pathTaskID(w http.ResponseWriter, r *http.Request, log *slog.Logger) (uuid.UUID, bool) {
	raw := chi.URLParam(r, "id")
	if raw == "" {
		log.Warn("task ID not found in URL path")
		shared.RespondWithError(w, r, http.StatusBadRequest, "Task ID is required")
		return uuid.Nil, false
	}

	id, err := uuid.Parse(raw)
	if err != nil {
		log.Warn("invalid task ID format", slog.String("task_id", raw))
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid task ID format")
		return uuid.Nil, false
	}

	return id, true
}
