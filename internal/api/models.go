package api

import (
	"github.com/phrazzld/triage-api/internal/domain"
	"github.com/phrazzld/triage-api/internal/session"
)

// Common request/response structures

// SubmitTaskRequest defines the payload for submitting a new task text.
type SubmitTaskRequest struct {
	Text string `json:"text" validate:"required"`
}

// MoveTaskRequest defines the payload for reassigning a task's quadrant
// within one of the three matrices.
type MoveTaskRequest struct {
	Matrix   string `json:"matrix"   validate:"required,oneof=A B C"`
	Quadrant string `json:"quadrant" validate:"required"`
}

// RestoreRequest defines the payload for restoring a task list from a
// shared snapshot fragment.
type RestoreRequest struct {
	Fragment string `json:"fragment" validate:"required"`
}

// QuadrantsResponse carries a task's placement across the three matrices.
type QuadrantsResponse struct {
	A string `json:"A"`
	B string `json:"B"`
	C string `json:"C"`
}

// TaskResponse represents a classified task.
type TaskResponse struct {
	ID        string            `json:"id"`
	Text      string            `json:"text"`
	Completed bool              `json:"completed"`
	Quadrants QuadrantsResponse `json:"quadrants"`
}

// TaskListResponse wraps the ordered task list.
type TaskListResponse struct {
	Tasks []TaskResponse `json:"tasks"`
}

// QueuedResponse is returned when a submitted text is waiting for batched
// classification rather than being created from the cache.
type QueuedResponse struct {
	Queued bool           `json:"queued"`
	Text   string         `json:"text"`
	Status session.Status `json:"status"`
}

// ClearCompletedResponse reports how many completed tasks were removed.
type ClearCompletedResponse struct {
	Removed int `json:"removed"`
}

// DecomposeResponse carries the subtask suggestions for one task.
type DecomposeResponse struct {
	Subtasks []string `json:"subtasks"`
}

// SuggestionResponse names the submitted task text to tackle next.
type SuggestionResponse struct {
	Task   string `json:"task"`
	Reason string `json:"reason"`
}

// ShareResponse carries the URL-fragment encoding of the current task list.
type ShareResponse struct {
	Fragment string `json:"fragment"`
}

// MatrixListResponse lists the three fixed matrices with their quadrant
// domains, for clients that render the boards.
type MatrixListResponse struct {
	Matrices []domain.Matrix `json:"matrices"`
}

// taskToResponse converts a domain.Task to a TaskResponse.
func taskToResponse(task domain.Task) TaskResponse {
	return TaskResponse{
		ID:        task.ID.String(),
		Text:      task.Text,
		Completed: task.Completed,
		Quadrants: QuadrantsResponse{
			A: string(task.Quadrants.A),
			B: string(task.Quadrants.B),
			C: string(task.Quadrants.C),
		},
	}
}

// tasksToResponse converts a task slice preserving order. The result is
// never nil so the JSON list renders as [] rather than null.
func tasksToResponse(tasks []domain.Task) []TaskResponse {
	out := make([]TaskResponse, 0, len(tasks))
	for _, task := range tasks {
		out = append(out, taskToResponse(task))
	}
	return out
}
