package suggestion

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/myrjola/fitsight/internal/fitness"
)

// reasoningEnricher rewrites the template-derived reasoning into friendlier
// prose using the OpenAI API. It only touches presentation text; ranking and
// plans are untouched so generation stays deterministic.
type reasoningEnricher struct {
	client openai.Client
	logger *slog.Logger
}

// newReasoningEnricher creates an enricher with the given API key.
func newReasoningEnricher(apiKey string, logger *slog.Logger) *reasoningEnricher {
	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &reasoningEnricher{
		client: client,
		logger: logger,
	}
}

// maxReasoningWords keeps the rewritten justification scannable in a card.
const maxReasoningWords = 40

// Enrich rewrites the suggestion's reasoning. Callers must treat errors as
// non-fatal and keep the original reasoning.
func (e *reasoningEnricher) Enrich(
	ctx context.Context,
	s WorkoutSuggestion,
	goal fitness.Goal,
) (string, error) {
	prompt := fmt.Sprintf(`Rewrite this workout recommendation justification as one friendly,
motivating sentence of at most %d words. Keep every factual claim, do not
invent new ones.

Workout: %s (%d minutes, difficulty %s)
User goal: %s, target %d minutes
Justification: %s`,
		maxReasoningWords,
		s.Name, s.EstimatedDuration, s.Difficulty,
		strings.ReplaceAll(string(goal.Type), "_", " "), goal.TargetDurationMinutes,
		s.Reasoning)

	completion, err := e.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModelGPT4o,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}

	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}
	content := strings.TrimSpace(completion.Choices[0].Message.Content)
	if content == "" {
		return "", fmt.Errorf("chat completion returned empty content")
	}
	return content, nil
}
