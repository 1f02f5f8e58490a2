package session

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/phrazzld/triage-api/internal/domain"
)

// TaskList holds the canonical ordered list of classified tasks. It is not
// safe for concurrent use; the owning Session serializes access.
type TaskList struct {
	tasks []domain.Task
}

// NewTaskList creates an empty task list.
func NewTaskList() *TaskList {
	return &TaskList{}
}

// Add appends a task. A task with incomplete or invalid quadrant
// assignments is rejected: unclassified tasks never enter the list.
func (l *TaskList) Add(task domain.Task) error {
	if err := task.Validate(); err != nil {
		return err
	}
	l.tasks = append(l.tasks, task)
	return nil
}

// AddBatch appends all tasks or none of them. A single invalid task rejects
// the whole batch, so a partially merged batch can never be observed.
func (l *TaskList) AddBatch(tasks []domain.Task) error {
	for i := range tasks {
		if err := tasks[i].Validate(); err != nil {
			return fmt.Errorf("batch item %d: %w", i, err)
		}
	}
	l.tasks = append(l.tasks, tasks...)
	return nil
}

// Get returns the task with the given id.
func (l *TaskList) Get(id uuid.UUID) (domain.Task, bool) {
	for _, task := range l.tasks {
		if task.ID == id {
			return task, true
		}
	}
	return domain.Task{}, false
}

// Remove deletes the task with the given id, reporting whether anything was
// removed. Removing an absent id is a no-op.
func (l *TaskList) Remove(id uuid.UUID) bool {
	for i, task := range l.tasks {
		if task.ID == id {
			l.tasks = append(l.tasks[:i], l.tasks[i+1:]...)
			return true
		}
	}
	return false
}

// ToggleCompleted flips the completion flag of the task with the given id
// and returns the updated task. Reports false for an absent id.
func (l *TaskList) ToggleCompleted(id uuid.UUID) (domain.Task, bool) {
	for i := range l.tasks {
		if l.tasks[i].ID == id {
			l.tasks[i].ToggleCompleted()
			return l.tasks[i], true
		}
	}
	return domain.Task{}, false
}

// Reassign moves the task's assignment within one matrix to a new quadrant.
// The key must belong to that matrix's domain.
func (l *TaskList) Reassign(id uuid.UUID, matrix domain.MatrixID, key domain.QuadrantKey) (domain.Task, error) {
	for i := range l.tasks {
		if l.tasks[i].ID == id {
			if err := l.tasks[i].Reassign(matrix, key); err != nil {
				return domain.Task{}, err
			}
			return l.tasks[i], nil
		}
	}
	return domain.Task{}, ErrTaskNotFound
}

// ClearCompleted removes every completed task and returns how many were
// removed.
func (l *TaskList) ClearCompleted() int {
	kept := l.tasks[:0]
	removed := 0
	for _, task := range l.tasks {
		if task.Completed {
			removed++
			continue
		}
		kept = append(kept, task)
	}
	l.tasks = kept
	return removed
}

// Tasks returns a copy of the list in insertion order.
func (l *TaskList) Tasks() []domain.Task {
	out := make([]domain.Task, len(l.tasks))
	copy(out, l.tasks)
	return out
}

// Incomplete returns a copy of the tasks not yet completed, in order.
func (l *TaskList) Incomplete() []domain.Task {
	var out []domain.Task
	for _, task := range l.tasks {
		if !task.Completed {
			out = append(out, task)
		}
	}
	return out
}

// Len returns the number of tasks.
func (l *TaskList) Len() int {
	return len(l.tasks)
}

// Replace swaps the entire list contents, used when restoring a snapshot.
// Every incoming task must be valid; otherwise the list is left untouched.
func (l *TaskList) Replace(tasks []domain.Task) error {
	for i := range tasks {
		if err := tasks[i].Validate(); err != nil {
			return fmt.Errorf("snapshot item %d: %w", i, err)
		}
	}
	l.tasks = make([]domain.Task, len(tasks))
	copy(l.tasks, tasks)
	return nil
}
