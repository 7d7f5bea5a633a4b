package translate

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"github.com/pharmadocs/pi-extraction-service/internal/models"
)

// openAIProvider talks to OpenAI or any compatible endpoint.
type openAIProvider struct {
	client *openai.Client
	model  string
}

func newOpenAIProvider(cfg models.OpenAIConfig) *openAIProvider {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	model := cfg.Model
	if model == "" {
		model = openai.GPT4oMini
	}
	return &openAIProvider{
		client: openai.NewClientWithConfig(clientCfg),
		model:  model,
	}
}

func (p *openAIProvider) Name() string { return "openai" }

func (p *openAIProvider) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       p.model,
		Temperature: 0,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("openai completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
