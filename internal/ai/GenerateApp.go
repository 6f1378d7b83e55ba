package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"prompt2app/internal/ai/prompts"
	"prompt2app/internal/metrics"
	"prompt2app/internal/types"
	"prompt2app/internal/utils"
)

// GenerateApp sends the prompt, embedded in the fixed instruction template, to
// the model and returns the HTML it produced. There is no retry: a failed call
// is reported once, wrapped in ErrGenerationFailed.
func (g *Generator) GenerateApp(ctx context.Context, input types.GenerateAppInput) (types.GenerateAppOutput, error) {
	if strings.TrimSpace(input.Prompt) == "" {
		return types.GenerateAppOutput{}, ErrEmptyPrompt
	}

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	start := time.Now()
	code, err := g.generate(ctx, input.Prompt)
	metrics.ObserveGeneration(g.model, err, time.Since(start))
	if err != nil {
		slog.Error("app generation failed", "model", g.model, "error", err)
		return types.GenerateAppOutput{}, err
	}

	slog.Info("app generated", "model", g.model, "bytes", len(code), "duration", time.Since(start))
	return types.GenerateAppOutput{Code: code}, nil
}

func (g *Generator) generate(ctx context.Context, userPrompt string) (string, error) {
	resp, err := g.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: g.model,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: prompts.SystemPrompt},
				{Role: openai.ChatMessageRoleUser, Content: prompts.BuildAppGenerationPrompt(userPrompt)},
			},
			ResponseFormat: &openai.ChatCompletionResponseFormat{
				Type: openai.ChatCompletionResponseFormatTypeJSONObject,
			},
			Temperature: g.temperature,
		},
	)
	if err != nil {
		return "", fmt.Errorf("%w: openai chat completion: %w", ErrGenerationFailed, err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: openai returned no choices", ErrGenerationFailed)
	}
	choice := resp.Choices[0]
	if choice.Message.Refusal != "" {
		return "", fmt.Errorf("%w: model declined: %s", ErrGenerationFailed, choice.Message.Refusal)
	}
	if choice.FinishReason == openai.FinishReasonContentFilter {
		return "", fmt.Errorf("%w: response blocked by content filter", ErrGenerationFailed)
	}

	code, err := utils.ExtractCode(choice.Message.Content)
	if err != nil {
		slog.Debug("unparseable model output", "model", g.model, "usage", resp.Usage)
		return "", fmt.Errorf("%w: %w", ErrGenerationFailed, err)
	}
	return code, nil
}

// IsGenerationFailure reports whether err came from a failed model call.
func IsGenerationFailure(err error) bool {
	return errors.Is(err, ErrGenerationFailed)
}
