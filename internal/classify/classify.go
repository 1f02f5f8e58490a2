package classify

import (
	"context"

	"github.com/phrazzld/triage-api/internal/domain"
)

// Result is one validated classification: a task text from the submitted
// batch together with its quadrant triple.
type Result struct {
	Text      string
	Quadrants domain.QuadrantSet
}

// Suggestion names one incomplete task the user should tackle next,
// with a short reason. It is perishable advice: any task mutation made
// after it is produced invalidates it.
type Suggestion struct {
	TaskText string `json:"taskText"`
	Reason   string `json:"reason"`
}

// Classifier defines the interface for the batch classification boundary.
// This interface separates the pipeline core from the external LLM service.
type Classifier interface {
	// Classify submits one batch of distinct task texts in a single call and
	// returns the validated (text, quadrants) pairs.
	//
	// Per-item validation is the implementation's responsibility: items whose
	// text does not match a submitted batch text, or whose quadrant keys fall
	// outside their matrix domains, are dropped with a warning rather than
	// failing the batch. A transport, parse, or safety failure abandons the
	// whole batch with an error; nothing is retried.
	Classify(ctx context.Context, texts []string) ([]Result, error)
}

// Decomposer defines the interface for the task-decomposition boundary.
type Decomposer interface {
	// Decompose breaks one task text into 3-5 suggested sub-task strings.
	// The caller decides which of them to resubmit as new tasks.
	Decompose(ctx context.Context, text string) ([]string, error)
}

// Suggester defines the interface for the next-task suggestion boundary.
type Suggester interface {
	// Suggest picks one task to prioritize from the given incomplete task
	// texts. The returned suggestion names one of the submitted texts.
	Suggest(ctx context.Context, texts []string) (*Suggestion, error)
}
