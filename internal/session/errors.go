package session

import "errors"

var (
	// ErrTaskNotFound is returned when an operation names a task id that is
	// not in the list.
	ErrTaskNotFound = errors.New("task not found")

	// ErrNoIncompleteTasks is returned by Suggest when every task is
	// completed or the list is empty; there is nothing to prioritize.
	ErrNoIncompleteTasks = errors.New("no incomplete tasks to prioritize")

	// ErrMalformedSnapshot is returned when snapshot bytes or a share
	// fragment cannot be decoded into a valid task list or cache. Callers
	// treat it as "start empty", never as a fatal condition.
	ErrMalformedSnapshot = errors.New("malformed snapshot")

	// ErrSessionClosed is returned by operations invoked after Close.
	ErrSessionClosed = errors.New("session is closed")
)
