package gemini

import (
	"errors"

	"github.com/phrazzld/triage-api/internal/classify"
)

// The gateway maps every failure onto the classify package's boundary
// errors. These helpers let callers branch without importing the sentinel
// list.

// IsCallFailure checks if the given error represents a failed call to the
// Gemini API (transport error, timeout, cancellation).
func IsCallFailure(err error) bool {
	return errors.Is(err, classify.ErrClassificationFailed)
}

// IsInvalidResponse checks if the given error represents a reply that could
// not be parsed or failed validation.
func IsInvalidResponse(err error) bool {
	return errors.Is(err, classify.ErrInvalidResponse)
}

// IsContentBlocked checks if the given error represents a reply withheld by
// the model's safety filters.
func IsContentBlocked(err error) bool {
	return errors.Is(err, classify.ErrContentBlocked)
}
