package domain

import (
	"errors"
	"strings"

	"github.com/google/uuid"
)

// Task-specific validation errors
var (
	// ErrEmptyTaskID is returned when a task ID is empty or nil.
	ErrEmptyTaskID = errors.New("task ID cannot be empty")

	// ErrEmptyTaskText is returned when a task's text is empty or whitespace.
	ErrEmptyTaskText = errors.New("task text cannot be empty")

	// ErrUnclassifiedTask is returned when a task is missing a quadrant key
	// for one or more matrices. A task must be fully classified before it
	// exists; hitting this error indicates a bug in the pipeline, not a
	// recoverable runtime condition.
	ErrUnclassifiedTask = errors.New("task is not fully classified")
)

// QuadrantSet is a task's assignment triple: exactly one quadrant key per
// matrix. Field order matters for snapshot serialization and must not change.
type QuadrantSet struct {
	A QuadrantKey `json:"A"`
	B QuadrantKey `json:"B"`
	C QuadrantKey `json:"C"`
}

// Key returns the key assigned for the given matrix.
func (q QuadrantSet) Key(id MatrixID) (QuadrantKey, error) {
	switch id {
	case MatrixA:
		return q.A, nil
	case MatrixB:
		return q.B, nil
	case MatrixC:
		return q.C, nil
	default:
		return "", ErrUnknownMatrix
	}
}

// Validate checks that every matrix has a key and that each key belongs to
// its matrix's domain. A missing key is reported as ErrUnclassifiedTask,
// a key from the wrong domain as ErrKeyOutsideDomain.
func (q QuadrantSet) Validate() error {
	keys := map[MatrixID]QuadrantKey{MatrixA: q.A, MatrixB: q.B, MatrixC: q.C}
	for _, id := range []MatrixID{MatrixA, MatrixB, MatrixC} {
		key := keys[id]
		if key == "" {
			return ErrUnclassifiedTask
		}
		if err := ValidateKey(id, key); err != nil {
			return err
		}
	}
	return nil
}

// Task is one entry in the triage list together with its assignment into all
// three matrices. Text is immutable after creation; an edit is modeled as
// delete plus re-add. Field order matters for snapshot serialization and
// must not change: id, text, completed, quadrants.
type Task struct {
	ID        uuid.UUID   `json:"id"`
	Text      string      `json:"text"`
	Completed bool        `json:"completed"`
	Quadrants QuadrantSet `json:"quadrants"`
}

// NewTask creates a fully classified Task with a fresh ID and completed set
// to false. The text is trimmed of leading and trailing whitespace.
// Returns an error if validation fails.
func NewTask(text string, quadrants QuadrantSet) (*Task, error) {
	task := &Task{
		ID:        uuid.New(),
		Text:      strings.TrimSpace(text),
		Completed: false,
		Quadrants: quadrants,
	}

	if err := task.Validate(); err != nil {
		return nil, err
	}

	return task, nil
}

// Validate checks if the Task has valid data.
// Returns an error if any field fails validation.
func (t *Task) Validate() error {
	if t.ID == uuid.Nil {
		return ErrEmptyTaskID
	}

	if strings.TrimSpace(t.Text) == "" {
		return ErrEmptyTaskText
	}

	return t.Quadrants.Validate()
}

// ToggleCompleted flips the task's completion flag.
func (t *Task) ToggleCompleted() {
	t.Completed = !t.Completed
}

// Reassign moves the task to a different quadrant within one matrix.
// The target key is validated against the matrix's domain first; on failure
// the task is left unchanged.
func (t *Task) Reassign(matrix MatrixID, key QuadrantKey) error {
	if err := ValidateKey(matrix, key); err != nil {
		return err
	}

	switch matrix {
	case MatrixA:
		t.Quadrants.A = key
	case MatrixB:
		t.Quadrants.B = key
	case MatrixC:
		t.Quadrants.C = key
	}
	return nil
}
