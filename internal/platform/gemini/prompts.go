package gemini

import (
	"bytes"
	"encoding/json"
	"fmt"
	"text/template"

	"github.com/phrazzld/triage-api/internal/domain"
)

// Prompt templates for the three exchanges. The request payload is embedded
// as JSON so the model sees the exact strings it must echo back, and the
// matrix domains are rendered from their definitions instead of being
// restated in prose.

const classifyPromptText = `You are the triage engine for a personal task list.
Assign every task below exactly one quadrant per matrix.

{{range .Matrices}}Matrix {{.ID}} ({{.Title}}), pick one of:
{{range .Quadrants}}  {{.Key}} = {{.Title}}: {{.Label}}
{{end}}
{{end}}Request:
{{.Request}}

Respond with JSON only, no prose, in exactly this shape:
{"classifications":[{"task":"<text copied verbatim from the request>","quadrants":{"A":"<Q key>","B":"<R key>","C":"<S key>"}}]}
Include one entry per request text. Copy each task text character for character.`

const decomposePromptText = `Break the following task into concrete sub-tasks.

Request:
{{.Request}}

Respond with JSON only, no prose, in exactly this shape:
{"subtasks":["<short actionable step>"]}
Return between {{.Min}} and {{.Max}} sub-tasks, each phrased so it could be
added to a task list as-is.`

const suggestPromptText = `From the following incomplete tasks, pick the single
task the user should tackle next, weighing urgency, importance, and momentum.

Request:
{{.Request}}

Respond with JSON only, no prose, in exactly this shape:
{"task":"<text copied verbatim from the request>","reason":"<one short sentence>"}
The task must be copied character for character from the request texts.`

var (
	classifyTemplate  = template.Must(template.New("classify").Parse(classifyPromptText))
	decomposeTemplate = template.Must(template.New("decompose").Parse(decomposePromptText))
	suggestTemplate   = template.Must(template.New("suggest").Parse(suggestPromptText))
)

type classifyPromptData struct {
	Matrices [3]domain.Matrix
	Request  string
}

type decomposePromptData struct {
	Request string
	Min     int
	Max     int
}

type suggestPromptData struct {
	Request string
}

func renderClassifyPrompt(texts []string) (string, error) {
	payload, err := json.Marshal(classificationRequest{Texts: texts})
	if err != nil {
		return "", fmt.Errorf("failed to encode classification request: %w", err)
	}

	var buf bytes.Buffer
	if err := classifyTemplate.Execute(&buf, classifyPromptData{
		Matrices: domain.AllMatrices(),
		Request:  string(payload),
	}); err != nil {
		return "", fmt.Errorf("failed to render classification prompt: %w", err)
	}
	return buf.String(), nil
}

func renderDecomposePrompt(text string) (string, error) {
	payload, err := json.Marshal(decompositionRequest{Task: text})
	if err != nil {
		return "", fmt.Errorf("failed to encode decomposition request: %w", err)
	}

	var buf bytes.Buffer
	if err := decomposeTemplate.Execute(&buf, decomposePromptData{
		Request: string(payload),
		Min:     minSubtasks,
		Max:     maxSubtasks,
	}); err != nil {
		return "", fmt.Errorf("failed to render decomposition prompt: %w", err)
	}
	return buf.String(), nil
}

func renderSuggestPrompt(texts []string) (string, error) {
	payload, err := json.Marshal(suggestionRequest{Texts: texts})
	if err != nil {
		return "", fmt.Errorf("failed to encode suggestion request: %w", err)
	}

	var buf bytes.Buffer
	if err := suggestTemplate.Execute(&buf, suggestPromptData{
		Request: string(payload),
	}); err != nil {
		return "", fmt.Errorf("failed to render suggestion prompt: %w", err)
	}
	return buf.String(), nil
}
