package gemini

import (
	"context"

	"github.com/phrazzld/triage-api/internal/classify"
	"github.com/phrazzld/triage-api/internal/domain"
)

// Mock implements the classify boundaries with configurable functions, for
// tests and offline wiring. A nil function falls back to a deterministic
// default: every text classifies into the first quadrant of each matrix,
// decomposition yields three generic steps, and the suggestion names the
// first submitted text.
type Mock struct {
	ClassifyFunc  func(ctx context.Context, texts []string) ([]classify.Result, error)
	DecomposeFunc func(ctx context.Context, text string) ([]string, error)
	SuggestFunc   func(ctx context.Context, texts []string) (*classify.Suggestion, error)
}

var (
	_ classify.Classifier = (*Mock)(nil)
	_ classify.Decomposer = (*Mock)(nil)
	_ classify.Suggester  = (*Mock)(nil)
)

// Classify implements classify.Classifier.
func (m *Mock) Classify(ctx context.Context, texts []string) ([]classify.Result, error) {
	if m.ClassifyFunc != nil {
		return m.ClassifyFunc(ctx, texts)
	}
	if len(texts) == 0 {
		return nil, classify.ErrEmptyBatch
	}
	results := make([]classify.Result, len(texts))
	for i, text := range texts {
		results[i] = classify.Result{
			Text:      text,
			Quadrants: domain.QuadrantSet{A: domain.KeyQ1, B: domain.KeyR1, C: domain.KeyS1},
		}
	}
	return results, nil
}

// Decompose implements classify.Decomposer.
func (m *Mock) Decompose(ctx context.Context, text string) ([]string, error) {
	if m.DecomposeFunc != nil {
		return m.DecomposeFunc(ctx, text)
	}
	if text == "" {
		return nil, domain.ErrEmptyTaskText
	}
	return []string{
		"plan: " + text,
		"do: " + text,
		"review: " + text,
	}, nil
}

// Suggest implements classify.Suggester.
func (m *Mock) Suggest(ctx context.Context, texts []string) (*classify.Suggestion, error) {
	if m.SuggestFunc != nil {
		return m.SuggestFunc(ctx, texts)
	}
	if len(texts) == 0 {
		return nil, classify.ErrEmptyBatch
	}
	return &classify.Suggestion{TaskText: texts[0], Reason: "oldest incomplete task"}, nil
}
