package classify

import "errors"

// Common errors returned by the classify package
var (
	// ErrClassificationFailed is returned when the classifier call itself
	// fails (transport error, timeout, non-JSON reply). The whole batch is
	// abandoned and never retried; the user re-enters the texts to requeue.
	ErrClassificationFailed = errors.New("classifier call failed")

	// ErrInvalidResponse is returned when the LLM response cannot be parsed
	// or is malformed
	ErrInvalidResponse = errors.New("invalid response from language model")

	// ErrContentBlocked is returned when the LLM blocks the content due to safety filters
	ErrContentBlocked = errors.New("content blocked by language model safety filters")

	// ErrEmptyBatch is returned when Classify is invoked with no texts.
	// Empty batches are never submitted; the queue guards against this.
	ErrEmptyBatch = errors.New("classification batch is empty")

	// ErrInvalidConfig is returned when the classifier configuration is invalid
	ErrInvalidConfig = errors.New("invalid classifier configuration")
)
