package provider

import (
	"context"
	"fmt"

	"github.com/MikeSquared-Agency/kai/internal/config"
)

// FromConfig builds the provider registered under name.
func FromConfig(ctx context.Context, name string, cfg config.Config) (Provider, error) {
	switch name {
	case "gemini":
		return NewGemini(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, cfg.GeminiBaseURL, cfg.ProviderTimeout)
	case "mistral":
		return NewMistral(cfg.MistralAPIKey, cfg.MistralModel, cfg.MistralBaseURL, cfg.ProviderTimeout)
	case "anthropic":
		return NewAnthropic(cfg.AnthropicAPIKey, cfg.AnthropicModel, cfg.AnthropicBaseURL, cfg.ProviderTimeout)
	default:
		return nil, fmt.Errorf("unknown provider %q", name)
	}
}
