package ai

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"
)

// OpenAIGenerator generates answers through an OpenAI-compatible chat completions API.
type OpenAIGenerator struct {
	client      *openai.Client
	model       string
	temperature float32
}

func NewOpenAIGenerator(cfg GeneratorConfig) *OpenAIGenerator {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	model := cfg.Model
	if model == "" {
		model = openai.GPT4oMini
	}
	return &OpenAIGenerator{
		client:      openai.NewClientWithConfig(clientConfig),
		model:       model,
		temperature: cfg.Temperature,
	}
}

// Generate sends prompt as a single user message. A response without choices
// is reported as empty content.
func (g *OpenAIGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: g.temperature,
	})
	if err != nil {
		return "", fmt.Errorf("llm request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}
