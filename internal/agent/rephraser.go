package agent

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"
)

// OpenAIRephraser rewords canned reply text through any OpenAI-compatible
// chat completion endpoint. It is deliberately narrow: no tools, no
// history, one short completion per call.
type OpenAIRephraser struct {
	client *openai.Client
	model  string
}

// OpenAIConfig configures the rephraser endpoint.
type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

func NewOpenAIRephraser(cfg OpenAIConfig) (*OpenAIRephraser, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = openai.GPT4oMini
	}

	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = cfg.BaseURL
	}

	return &OpenAIRephraser{
		client: openai.NewClientWithConfig(config),
		model:  cfg.Model,
	}, nil
}

const rephraseSystemPrompt = "You are a friendly onboarding assistant. " +
	"Rewrite the given message in a warm, concise tone. Keep every fact, " +
	"every option name and every question intact. Reply with the rewritten " +
	"message only."

func (r *OpenAIRephraser) Rephrase(ctx context.Context, text string) (string, error) {
	resp, err := r.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     r.model,
		MaxTokens: 256,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: rephraseSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
	})
	if err != nil {
		return "", fmt.Errorf("rephrase API error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("rephrase returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
