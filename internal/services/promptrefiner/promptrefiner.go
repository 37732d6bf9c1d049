// Package promptrefiner rewords a prompt before it is handed to a fallback
// model. Different providers respond better to differently phrased prompts,
// so the fallback attempt gets an equivalent rewording rather than the
// verbatim original.
package promptrefiner

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"go.uber.org/zap"
)

const systemPrompt = `You rewrite image generation prompts. Rewrite the ` +
	`user's prompt so it keeps the same subject, style and composition but ` +
	`uses plain, concrete wording that diffusion models respond well to. ` +
	`Answer with the rewritten prompt only.`

type Refiner struct {
	client *openai.Client
	model  string
	logger *zap.Logger
}

func NewRefiner(apiKey string, model string, logger *zap.Logger) (*Refiner, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	return &Refiner{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
		logger: logger,
	}, nil
}

// Refine returns a reworded version of prompt. Refinement is best effort:
// on any failure the original prompt is returned so the fallback attempt is
// never blocked on the refiner.
func (r *Refiner) Refine(ctx context.Context, prompt string) string {
	completion, err := r.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: openai.F([]openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(prompt),
		}),
		Model:       openai.F(openai.ChatModel(r.model)),
		Temperature: openai.F(0.4),
	})
	if err != nil {
		r.logger.Warn("Prompt refinement failed, using original prompt", zap.Error(err))
		return prompt
	}

	if len(completion.Choices) == 0 || completion.Choices[0].Message.Content == "" {
		return prompt
	}

	return completion.Choices[0].Message.Content
}
