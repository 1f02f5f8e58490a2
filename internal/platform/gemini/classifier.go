package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/phrazzld/triage-api/internal/classify"
	"github.com/phrazzld/triage-api/internal/config"
	"github.com/phrazzld/triage-api/internal/domain"
	"github.com/phrazzld/triage-api/internal/platform/logger"
	"google.golang.org/genai"
)

// Decompositions outside this range fail validation.
const (
	minSubtasks = 3
	maxSubtasks = 5
)

// contentCaller is the single seam to the model API: one rendered prompt in,
// the JSON reply text out. The real implementation wraps the genai client;
// tests substitute a canned one.
type contentCaller interface {
	generate(ctx context.Context, prompt string) (string, error)
}

// Gateway implements classify.Classifier, classify.Decomposer, and
// classify.Suggester against the Gemini API. All three boundaries share one
// client, one timeout policy, and one failure vocabulary; none of them ever
// retries.
type Gateway struct {
	logger *slog.Logger
	cfg    config.LLMConfig
	caller contentCaller
}

// Compile-time checks that Gateway serves all three boundaries.
var (
	_ classify.Classifier = (*Gateway)(nil)
	_ classify.Decomposer = (*Gateway)(nil)
	_ classify.Suggester  = (*Gateway)(nil)
)

// NewGateway creates a Gateway from the given LLM configuration.
//
// Parameters:
//   - ctx: Context for client initialization
//   - logger: A structured logger for operation logging
//   - cfg: LLM configuration containing the API key, model name, and timeout
//
// Returns a properly initialized Gateway or an error wrapping
// classify.ErrInvalidConfig if the configuration is unusable.
func NewGateway(ctx context.Context, log *slog.Logger, cfg config.LLMConfig) (*Gateway, error) {
	if log == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("%w: gemini API key cannot be empty", classify.ErrInvalidConfig)
	}
	if cfg.ModelName == "" {
		return nil, fmt.Errorf("%w: model name cannot be empty", classify.ErrInvalidConfig)
	}
	if cfg.RequestTimeoutSeconds <= 0 {
		return nil, fmt.Errorf("%w: request timeout must be positive", classify.ErrInvalidConfig)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create gemini client: %v", classify.ErrInvalidConfig, err)
	}

	return &Gateway{
		logger: log.With(slog.String("component", "gemini_gateway")),
		cfg:    cfg,
		caller: &genaiCaller{client: client, model: cfg.ModelName},
	}, nil
}

// Classify submits one batch of distinct task texts in a single call and
// returns the validated (text, quadrants) pairs. Items that echo an unknown
// text, repeat a text, or carry out-of-domain quadrant keys are dropped with
// a warning; a transport, parse, or safety failure abandons the whole batch.
func (g *Gateway) Classify(ctx context.Context, texts []string) ([]classify.Result, error) {
	if len(texts) == 0 {
		return nil, classify.ErrEmptyBatch
	}
	log := logger.FromContextOrDefault(ctx, g.logger)

	prompt, err := renderClassifyPrompt(texts)
	if err != nil {
		return nil, err
	}

	ctx, cancel := g.requestContext(ctx)
	defer cancel()

	log.Debug("submitting classification batch",
		slog.Int("batch_size", len(texts)),
		slog.String("model", g.cfg.ModelName))

	raw, err := g.caller.generate(ctx, prompt)
	if err != nil {
		return nil, err
	}

	var parsed classificationResponse
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil, fmt.Errorf("%w: failed to parse classification reply: %v",
			classify.ErrInvalidResponse, err)
	}

	results := g.validateItems(log, texts, parsed.Classifications)
	log.Info("classification batch resolved",
		slog.Int("batch_size", len(texts)),
		slog.Int("resolved", len(results)),
		slog.Int("dropped", len(texts)-len(results)))
	return results, nil
}

// validateItems filters the reply down to items that echo a submitted text
// exactly once and carry a valid quadrant triple. Order follows the reply.
func (g *Gateway) validateItems(log *slog.Logger, texts []string, items []classificationItem) []classify.Result {
	resolved := make(map[string]bool, len(texts))
	for _, text := range texts {
		resolved[text] = false
	}

	results := make([]classify.Result, 0, len(items))
	for _, item := range items {
		seen, submitted := resolved[item.Task]
		if !submitted {
			log.Warn("dropping classification for text not in batch",
				slog.String("task", item.Task))
			continue
		}
		if seen {
			log.Warn("dropping repeated classification",
				slog.String("task", item.Task))
			continue
		}

		triple := domain.QuadrantSet{
			A: domain.QuadrantKey(item.Quadrants.A),
			B: domain.QuadrantKey(item.Quadrants.B),
			C: domain.QuadrantKey(item.Quadrants.C),
		}
		if err := triple.Validate(); err != nil {
			log.Warn("dropping classification with invalid quadrants",
				slog.String("task", item.Task),
				slog.String("error", err.Error()))
			continue
		}

		resolved[item.Task] = true
		results = append(results, classify.Result{Text: item.Task, Quadrants: triple})
	}
	return results
}

// Decompose breaks one task text into suggested sub-task strings. The reply
// must contain between 3 and 5 non-blank sub-tasks or the call fails with
// classify.ErrInvalidResponse.
func (g *Gateway) Decompose(ctx context.Context, text string) ([]string, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, domain.ErrEmptyTaskText
	}
	log := logger.FromContextOrDefault(ctx, g.logger)

	prompt, err := renderDecomposePrompt(trimmed)
	if err != nil {
		return nil, err
	}

	ctx, cancel := g.requestContext(ctx)
	defer cancel()

	raw, err := g.caller.generate(ctx, prompt)
	if err != nil {
		return nil, err
	}

	var parsed decompositionResponse
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil, fmt.Errorf("%w: failed to parse decomposition reply: %v",
			classify.ErrInvalidResponse, err)
	}

	subtasks := make([]string, 0, len(parsed.Subtasks))
	for _, subtask := range parsed.Subtasks {
		if s := strings.TrimSpace(subtask); s != "" {
			subtasks = append(subtasks, s)
		}
	}
	if len(subtasks) < minSubtasks || len(subtasks) > maxSubtasks {
		return nil, fmt.Errorf("%w: expected %d to %d sub-tasks, got %d",
			classify.ErrInvalidResponse, minSubtasks, maxSubtasks, len(subtasks))
	}

	log.Info("task decomposed",
		slog.Int("subtask_count", len(subtasks)))
	return subtasks, nil
}

// Suggest picks one task to prioritize from the given incomplete task texts.
// The reply must name one of the submitted texts verbatim and give a reason,
// or the call fails with classify.ErrInvalidResponse.
func (g *Gateway) Suggest(ctx context.Context, texts []string) (*classify.Suggestion, error) {
	if len(texts) == 0 {
		return nil, classify.ErrEmptyBatch
	}
	log := logger.FromContextOrDefault(ctx, g.logger)

	prompt, err := renderSuggestPrompt(texts)
	if err != nil {
		return nil, err
	}

	ctx, cancel := g.requestContext(ctx)
	defer cancel()

	raw, err := g.caller.generate(ctx, prompt)
	if err != nil {
		return nil, err
	}

	var parsed suggestionResponse
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil, fmt.Errorf("%w: failed to parse suggestion reply: %v",
			classify.ErrInvalidResponse, err)
	}

	submitted := false
	for _, text := range texts {
		if text == parsed.Task {
			submitted = true
			break
		}
	}
	if !submitted {
		return nil, fmt.Errorf("%w: suggested task %q is not in the submitted list",
			classify.ErrInvalidResponse, parsed.Task)
	}
	reason := strings.TrimSpace(parsed.Reason)
	if reason == "" {
		return nil, fmt.Errorf("%w: suggestion has no reason", classify.ErrInvalidResponse)
	}

	log.Info("next task suggested",
		slog.Int("candidate_count", len(texts)))
	return &classify.Suggestion{TaskText: parsed.Task, Reason: reason}, nil
}

// requestContext bounds a model call with the configured timeout.
func (g *Gateway) requestContext(ctx context.Context) (context.Context, context.CancelFunc) {
	timeout := time.Duration(g.cfg.RequestTimeoutSeconds) * time.Second
	return context.WithTimeout(ctx, timeout)
}

// genaiCaller is the production contentCaller backed by the genai client.
type genaiCaller struct {
	client *genai.Client
	model  string
}

func (c *genaiCaller) generate(ctx context.Context, prompt string) (string, error) {
	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt),
		&genai.GenerateContentConfig{
			ResponseMIMEType: "application/json",
		})
	if err != nil {
		return "", fmt.Errorf("%w: %v", classify.ErrClassificationFailed, err)
	}
	if resp == nil {
		return "", fmt.Errorf("%w: nil response", classify.ErrInvalidResponse)
	}
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return "", fmt.Errorf("%w: prompt blocked (%s)",
			classify.ErrContentBlocked, resp.PromptFeedback.BlockReason)
	}
	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("%w: no content generated", classify.ErrInvalidResponse)
	}
	if resp.Candidates[0].FinishReason == genai.FinishReasonSafety {
		return "", fmt.Errorf("%w: reply blocked by safety filters", classify.ErrContentBlocked)
	}
	if resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("%w: empty content in response", classify.ErrInvalidResponse)
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("%w: empty reply text", classify.ErrInvalidResponse)
	}
	return text, nil
}
