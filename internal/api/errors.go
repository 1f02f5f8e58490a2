package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/phrazzld/triage-api/internal/api/shared"
	"github.com/phrazzld/triage-api/internal/classify"
	"github.com/phrazzld/triage-api/internal/domain"
	"github.com/phrazzld/triage-api/internal/session"
)

// genericErrorMessage is what clients see when no specific mapping applies.
const genericErrorMessage = "An unexpected error occurred"

// MapErrorToStatusCode maps internal errors to appropriate HTTP status codes
// based on the error type. This prevents leaking internal error types or
// messages to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	// Not found errors
	case errors.Is(err, session.ErrTaskNotFound):
		return http.StatusNotFound

	// Bad request errors
	case errors.Is(err, domain.ErrEmptyTaskText),
		errors.Is(err, domain.ErrUnknownMatrix),
		errors.Is(err, domain.ErrKeyOutsideDomain),
		errors.Is(err, domain.ErrUnclassifiedTask),
		errors.Is(err, session.ErrMalformedSnapshot):
		return http.StatusBadRequest

	// Upstream classifier failures
	case errors.Is(err, classify.ErrContentBlocked):
		return http.StatusUnprocessableEntity
	case errors.Is(err, classify.ErrClassificationFailed),
		errors.Is(err, classify.ErrInvalidResponse):
		return http.StatusBadGateway

	// Shutdown
	case errors.Is(err, session.ErrSessionClosed):
		return http.StatusServiceUnavailable

	// Special cases
	case errors.Is(err, session.ErrNoIncompleteTasks):
		return http.StatusNoContent

	// Default: internal server error
	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-friendly error message
// based on the error type. This prevents leaking sensitive internal details.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return genericErrorMessage
	}

	switch {
	case errors.Is(err, session.ErrTaskNotFound):
		return "Task not found"

	case errors.Is(err, domain.ErrEmptyTaskText):
		return "Task text cannot be empty"

	case errors.Is(err, domain.ErrUnknownMatrix):
		return "Unknown matrix"

	case errors.Is(err, domain.ErrKeyOutsideDomain):
		return "Quadrant key is outside the matrix domain"

	case errors.Is(err, domain.ErrUnclassifiedTask):
		return "Task is missing a quadrant assignment"

	case errors.Is(err, session.ErrMalformedSnapshot):
		return "Malformed snapshot fragment"

	case errors.Is(err, classify.ErrContentBlocked):
		return "The classifier refused this content"

	case errors.Is(err, classify.ErrInvalidResponse):
		return "The classification service returned an unusable response"

	case errors.Is(err, classify.ErrClassificationFailed):
		return "The classification service is unavailable"

	case errors.Is(err, session.ErrSessionClosed):
		return "The service is shutting down"

	// No incomplete tasks is handled separately with StatusNoContent

	default:
		return genericErrorMessage
	}
}

// HandleAPIError maps err to a status code and sanitized message, then
// writes the JSON error response and logs the full error. A non-empty
// defaultMsg replaces the generic fallback message for unmapped errors,
// letting handlers say which operation failed without exposing the cause.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error, defaultMsg string) {
	status := MapErrorToStatusCode(err)
	if status == http.StatusNoContent {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	message := GetSafeErrorMessage(err)
	if message == genericErrorMessage && defaultMsg != "" {
		message = defaultMsg
	}

	// Malformed restore payloads are a 4xx but still worth operator
	// attention, so they log above the usual debug floor.
	if errors.Is(err, session.ErrMalformedSnapshot) {
		shared.RespondWithErrorAndLog(w, r, status, message, err, shared.WithElevatedLogLevel())
		return
	}

	shared.RespondWithErrorAndLog(w, r, status, message, err)
}

// SanitizeValidationError removes sensitive details from validation errors
// and returns a user-friendly message.
func SanitizeValidationError(err error) string {
	errMsg := err.Error()

	// Typical validator message:
	// "Key: 'SubmitTaskRequest.Text' Error:Field validation for 'Text' failed on the 'required' tag"
	if strings.Contains(errMsg, "Field validation") {
		parts := strings.Split(errMsg, "Error:")
		if len(parts) >= 2 {
			fieldParts := strings.Split(parts[1], "'")
			if len(fieldParts) >= 3 {
				field := fieldParts[1]
				var tag string
				if len(fieldParts) >= 5 {
					tag = fieldParts[3]
				}

				if tag != "" {
					return fmt.Sprintf("Invalid %s: %s", field, getValidationTagMessage(tag))
				}
				return fmt.Sprintf("Invalid %s", field)
			}
		}
	}

	return "Validation error"
}

// getValidationTagMessage maps validation tags to user-friendly error messages
func getValidationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "required field"
	case "min":
		return "too short"
	case "max":
		return "too long"
	case "oneof":
		return "invalid value"
	default:
		return "validation failed"
	}
}
