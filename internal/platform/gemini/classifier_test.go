package gemini

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/phrazzld/triage-api/internal/classify"
	"github.com/phrazzld/triage-api/internal/config"
	"github.com/phrazzld/triage-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeCaller satisfies contentCaller with a canned reply, recording every
// prompt it receives.
type fakeCaller struct {
	prompts []string
	reply   string
	err     error
	fn      func(ctx context.Context, prompt string) (string, error)
}

func (f *fakeCaller) generate(ctx context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	if f.fn != nil {
		return f.fn(ctx, prompt)
	}
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func newTestGateway(caller contentCaller) *Gateway {
	return &Gateway{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		cfg: config.LLMConfig{
			GeminiAPIKey:          "test-key",
			ModelName:             "gemini-test",
			RequestTimeoutSeconds: 5,
		},
		caller: caller,
	}
}

func TestNewGateway(t *testing.T) {
	t.Parallel()

	validCfg := config.LLMConfig{
		GeminiAPIKey:          "test-key",
		ModelName:             "gemini-test",
		RequestTimeoutSeconds: 30,
	}

	t.Run("nil_logger", func(t *testing.T) {
		t.Parallel()
		gw, err := NewGateway(context.Background(), nil, validCfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "logger cannot be nil")
		assert.Nil(t, gw)
	})

	tests := []struct {
		name    string
		mutate  func(*config.LLMConfig)
		wantErr string
	}{
		{name: "empty_api_key", mutate: func(c *config.LLMConfig) { c.GeminiAPIKey = "" }, wantErr: "API key"},
		{name: "empty_model_name", mutate: func(c *config.LLMConfig) { c.ModelName = "" }, wantErr: "model name"},
		{name: "zero_timeout", mutate: func(c *config.LLMConfig) { c.RequestTimeoutSeconds = 0 }, wantErr: "timeout"},
		{name: "negative_timeout", mutate: func(c *config.LLMConfig) { c.RequestTimeoutSeconds = -1 }, wantErr: "timeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := validCfg
			tt.mutate(&cfg)

			gw, err := NewGateway(context.Background(), newTestGateway(nil).logger, cfg)
			assert.ErrorIs(t, err, classify.ErrInvalidConfig)
			assert.Contains(t, err.Error(), tt.wantErr)
			assert.Nil(t, gw)
		})
	}

	t.Run("valid_config", func(t *testing.T) {
		t.Parallel()
		gw, err := NewGateway(context.Background(), newTestGateway(nil).logger, validCfg)
		require.NoError(t, err)
		require.NotNil(t, gw)
	})
}

func TestGateway_Classify(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("empty_batch", func(t *testing.T) {
		t.Parallel()
		caller := &fakeCaller{}
		_, err := newTestGateway(caller).Classify(ctx, nil)
		assert.ErrorIs(t, err, classify.ErrEmptyBatch)
		assert.Empty(t, caller.prompts)
	})

	t.Run("resolves_batch", func(t *testing.T) {
		t.Parallel()
		caller := &fakeCaller{reply: `{"classifications":[
			{"task":"買い物に行く","quadrants":{"A":"Q2","B":"R1","C":"S1"}},
			{"task":"walk the dog","quadrants":{"A":"Q3","B":"R2","C":"S3"}}]}`}
		gw := newTestGateway(caller)

		results, err := gw.Classify(ctx, []string{"買い物に行く", "walk the dog"})
		require.NoError(t, err)
		require.Len(t, results, 2)
		assert.Equal(t, "買い物に行く", results[0].Text)
		assert.Equal(t, domain.QuadrantSet{A: domain.KeyQ2, B: domain.KeyR1, C: domain.KeyS1}, results[0].Quadrants)
		assert.Equal(t, "walk the dog", results[1].Text)
		assert.Equal(t, domain.QuadrantSet{A: domain.KeyQ3, B: domain.KeyR2, C: domain.KeyS3}, results[1].Quadrants)

		// The prompt embeds the request texts and the quadrant domains.
		require.Len(t, caller.prompts, 1)
		prompt := caller.prompts[0]
		assert.Contains(t, prompt, "買い物に行く")
		assert.Contains(t, prompt, "walk the dog")
		assert.Contains(t, prompt, "Q1 = Do First")
		assert.Contains(t, prompt, "R1 = Sweet Spot")
		assert.Contains(t, prompt, "S1 = Quick Win")
	})

	t.Run("drops_text_not_in_batch", func(t *testing.T) {
		t.Parallel()
		caller := &fakeCaller{reply: `{"classifications":[
			{"task":"invented by the model","quadrants":{"A":"Q1","B":"R1","C":"S1"}},
			{"task":"real","quadrants":{"A":"Q1","B":"R1","C":"S1"}}]}`}

		results, err := newTestGateway(caller).Classify(ctx, []string{"real"})
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "real", results[0].Text)
	})

	t.Run("drops_out_of_domain_keys", func(t *testing.T) {
		t.Parallel()
		caller := &fakeCaller{reply: `{"classifications":[
			{"task":"good","quadrants":{"A":"Q1","B":"R1","C":"S1"}},
			{"task":"bad","quadrants":{"A":"R1","B":"R1","C":"S1"}},
			{"task":"worse","quadrants":{"A":"Q9","B":"R1","C":"S1"}}]}`}

		results, err := newTestGateway(caller).Classify(ctx, []string{"good", "bad", "worse"})
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "good", results[0].Text)
	})

	t.Run("drops_repeated_item", func(t *testing.T) {
		t.Parallel()
		caller := &fakeCaller{reply: `{"classifications":[
			{"task":"twice","quadrants":{"A":"Q1","B":"R1","C":"S1"}},
			{"task":"twice","quadrants":{"A":"Q4","B":"R4","C":"S4"}}]}`}

		results, err := newTestGateway(caller).Classify(ctx, []string{"twice"})
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, domain.KeyQ1, results[0].Quadrants.A, "the first valid item wins")
	})

	t.Run("missing_item_is_not_an_error", func(t *testing.T) {
		t.Parallel()
		caller := &fakeCaller{reply: `{"classifications":[
			{"task":"answered","quadrants":{"A":"Q1","B":"R1","C":"S1"}}]}`}

		results, err := newTestGateway(caller).Classify(ctx, []string{"answered", "ignored"})
		require.NoError(t, err)
		assert.Len(t, results, 1)
	})

	t.Run("transport_error_abandons_batch", func(t *testing.T) {
		t.Parallel()
		caller := &fakeCaller{err: fmt.Errorf("%w: connection reset", classify.ErrClassificationFailed)}

		results, err := newTestGateway(caller).Classify(ctx, []string{"a", "b"})
		assert.Nil(t, results)
		assert.ErrorIs(t, err, classify.ErrClassificationFailed)
		assert.True(t, IsCallFailure(err))
	})

	t.Run("unparseable_reply", func(t *testing.T) {
		t.Parallel()
		caller := &fakeCaller{reply: "I would classify these as follows..."}

		_, err := newTestGateway(caller).Classify(ctx, []string{"a"})
		assert.ErrorIs(t, err, classify.ErrInvalidResponse)
		assert.True(t, IsInvalidResponse(err))
	})

	t.Run("safety_block_propagates", func(t *testing.T) {
		t.Parallel()
		caller := &fakeCaller{err: fmt.Errorf("%w: reply blocked by safety filters", classify.ErrContentBlocked)}

		_, err := newTestGateway(caller).Classify(ctx, []string{"a"})
		assert.ErrorIs(t, err, classify.ErrContentBlocked)
		assert.True(t, IsContentBlocked(err))
	})

	t.Run("call_is_deadline_bounded", func(t *testing.T) {
		t.Parallel()
		caller := &fakeCaller{}
		caller.fn = func(callCtx context.Context, prompt string) (string, error) {
			deadline, ok := callCtx.Deadline()
			require.True(t, ok, "the configured request timeout must bound the call")
			assert.LessOrEqual(t, time.Until(deadline), 5*time.Second)
			return `{"classifications":[]}`, nil
		}

		results, err := newTestGateway(caller).Classify(ctx, []string{"a"})
		require.NoError(t, err)
		assert.Empty(t, results)
	})
}

func TestGateway_Decompose(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("empty_text", func(t *testing.T) {
		t.Parallel()
		caller := &fakeCaller{}
		_, err := newTestGateway(caller).Decompose(ctx, "   ")
		assert.ErrorIs(t, err, domain.ErrEmptyTaskText)
		assert.Empty(t, caller.prompts)
	})

	t.Run("returns_subtasks", func(t *testing.T) {
		t.Parallel()
		caller := &fakeCaller{reply: `{"subtasks":["book the venue"," send invites ","order food"]}`}
		gw := newTestGateway(caller)

		subtasks, err := gw.Decompose(ctx, "plan the party")
		require.NoError(t, err)
		assert.Equal(t, []string{"book the venue", "send invites", "order food"}, subtasks)

		require.Len(t, caller.prompts, 1)
		assert.Contains(t, caller.prompts[0], "plan the party")
	})

	t.Run("five_subtasks_allowed", func(t *testing.T) {
		t.Parallel()
		caller := &fakeCaller{reply: `{"subtasks":["a","b","c","d","e"]}`}
		subtasks, err := newTestGateway(caller).Decompose(ctx, "big job")
		require.NoError(t, err)
		assert.Len(t, subtasks, 5)
	})

	t.Run("too_few_subtasks", func(t *testing.T) {
		t.Parallel()
		caller := &fakeCaller{reply: `{"subtasks":["only","two"]}`}
		_, err := newTestGateway(caller).Decompose(ctx, "task")
		assert.ErrorIs(t, err, classify.ErrInvalidResponse)
	})

	t.Run("blank_subtasks_do_not_count", func(t *testing.T) {
		t.Parallel()
		caller := &fakeCaller{reply: `{"subtasks":["a","b","  ",""]}`}
		_, err := newTestGateway(caller).Decompose(ctx, "task")
		assert.ErrorIs(t, err, classify.ErrInvalidResponse)
	})

	t.Run("too_many_subtasks", func(t *testing.T) {
		t.Parallel()
		caller := &fakeCaller{reply: `{"subtasks":["a","b","c","d","e","f"]}`}
		_, err := newTestGateway(caller).Decompose(ctx, "task")
		assert.ErrorIs(t, err, classify.ErrInvalidResponse)
	})

	t.Run("unparseable_reply", func(t *testing.T) {
		t.Parallel()
		caller := &fakeCaller{reply: "1. book venue 2. send invites 3. order food"}
		_, err := newTestGateway(caller).Decompose(ctx, "task")
		assert.ErrorIs(t, err, classify.ErrInvalidResponse)
	})

	t.Run("transport_error", func(t *testing.T) {
		t.Parallel()
		caller := &fakeCaller{err: fmt.Errorf("%w: timeout", classify.ErrClassificationFailed)}
		_, err := newTestGateway(caller).Decompose(ctx, "task")
		assert.ErrorIs(t, err, classify.ErrClassificationFailed)
	})
}

func TestGateway_Suggest(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("empty_batch", func(t *testing.T) {
		t.Parallel()
		caller := &fakeCaller{}
		_, err := newTestGateway(caller).Suggest(ctx, nil)
		assert.ErrorIs(t, err, classify.ErrEmptyBatch)
		assert.Empty(t, caller.prompts)
	})

	t.Run("returns_suggestion", func(t *testing.T) {
		t.Parallel()
		caller := &fakeCaller{reply: `{"task":"file taxes","reason":"deadline is closest"}`}
		gw := newTestGateway(caller)

		suggestion, err := gw.Suggest(ctx, []string{"walk the dog", "file taxes"})
		require.NoError(t, err)
		assert.Equal(t, &classify.Suggestion{TaskText: "file taxes", Reason: "deadline is closest"}, suggestion)

		require.Len(t, caller.prompts, 1)
		assert.Contains(t, caller.prompts[0], "walk the dog")
		assert.Contains(t, caller.prompts[0], "file taxes")
	})

	t.Run("unlisted_task_rejected", func(t *testing.T) {
		t.Parallel()
		caller := &fakeCaller{reply: `{"task":"something else entirely","reason":"sounds fun"}`}
		_, err := newTestGateway(caller).Suggest(ctx, []string{"walk the dog"})
		assert.ErrorIs(t, err, classify.ErrInvalidResponse)
		assert.Contains(t, err.Error(), "something else entirely")
	})

	t.Run("blank_reason_rejected", func(t *testing.T) {
		t.Parallel()
		caller := &fakeCaller{reply: `{"task":"walk the dog","reason":"  "}`}
		_, err := newTestGateway(caller).Suggest(ctx, []string{"walk the dog"})
		assert.ErrorIs(t, err, classify.ErrInvalidResponse)
	})

	t.Run("unparseable_reply", func(t *testing.T) {
		t.Parallel()
		caller := &fakeCaller{reply: "You should definitely walk the dog first."}
		_, err := newTestGateway(caller).Suggest(ctx, []string{"walk the dog"})
		assert.ErrorIs(t, err, classify.ErrInvalidResponse)
	})

	t.Run("transport_error", func(t *testing.T) {
		t.Parallel()
		caller := &fakeCaller{err: fmt.Errorf("%w: 503", classify.ErrClassificationFailed)}
		_, err := newTestGateway(caller).Suggest(ctx, []string{"walk the dog"})
		assert.ErrorIs(t, err, classify.ErrClassificationFailed)
	})
}

func TestErrorHelpers(t *testing.T) {
	t.Parallel()

	wrapped := fmt.Errorf("outer: %w", classify.ErrClassificationFailed)
	assert.True(t, IsCallFailure(wrapped))
	assert.False(t, IsCallFailure(errors.New("unrelated")))
	assert.False(t, IsCallFailure(nil))

	assert.True(t, IsInvalidResponse(fmt.Errorf("x: %w", classify.ErrInvalidResponse)))
	assert.False(t, IsInvalidResponse(wrapped))

	assert.True(t, IsContentBlocked(fmt.Errorf("x: %w", classify.ErrContentBlocked)))
	assert.False(t, IsContentBlocked(wrapped))
}

func TestMockDefaults(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := &Mock{}

	results, err := m.Classify(ctx, []string{"a", "b"})
	require.NoError(t, err)
	require.Len(t, results, 2)
	for _, r := range results {
		assert.NoError(t, r.Quadrants.Validate())
	}

	subtasks, err := m.Decompose(ctx, "task")
	require.NoError(t, err)
	assert.Len(t, subtasks, 3)

	suggestion, err := m.Suggest(ctx, []string{"first", "second"})
	require.NoError(t, err)
	assert.Equal(t, "first", suggestion.TaskText)
	assert.NotEmpty(t, suggestion.Reason)
}

func TestMockOverrides(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	wantErr := errors.New("configured failure")
	m := &Mock{
		ClassifyFunc: func(ctx context.Context, texts []string) ([]classify.Result, error) {
			return nil, wantErr
		},
	}

	_, err := m.Classify(ctx, []string{"a"})
	assert.ErrorIs(t, err, wantErr)
}
