// Package translate fills the Russian product-name and packing fields
// of a reconciled record using an AI provider. The assist is optional:
// with no provider configured the record ships with empty RU fields
// and the operator fills them in review.
package translate

import (
	"context"
	"fmt"

	"github.com/pharmadocs/pi-extraction-service/internal/models"
)

// Provider is a chat-style AI backend used for translation.
type Provider interface {
	Complete(ctx context.Context, prompt string) (string, error)
	Name() string
}

// NewProvider creates the configured provider, or nil when the assist
// is disabled.
func NewProvider(cfg models.TranslateConfig) (Provider, error) {
	switch cfg.Provider {
	case "":
		return nil, nil
	case "openai":
		if cfg.OpenAI.APIKey == "" {
			return nil, fmt.Errorf("translate provider openai requires an API key")
		}
		return newOpenAIProvider(cfg.OpenAI), nil
	case "gemini":
		if cfg.Gemini.APIKey == "" {
			return nil, fmt.Errorf("translate provider gemini requires an API key")
		}
		return newGeminiProvider(cfg.Gemini), nil
	default:
		return nil, fmt.Errorf("unknown translate provider: %s", cfg.Provider)
	}
}
