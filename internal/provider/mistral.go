package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// Mistral talks to Mistral's OpenAI-compatible chat completions endpoint.
type Mistral struct {
	client openai.Client
	model  string
}

func NewMistral(apiKey, model, baseURL string, timeout time.Duration) (*Mistral, error) {
	if apiKey == "" {
		return nil, errors.New("mistral API key is required")
	}
	client := openai.NewClient(
		option.WithAPIKey(apiKey),
		option.WithBaseURL(baseURL),
		option.WithHTTPClient(&http.Client{Timeout: timeout}),
		option.WithMaxRetries(0),
	)
	return &Mistral{client: client, model: model}, nil
}

func (m *Mistral) Name() string { return "mistral" }

func (m *Mistral) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := m.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		Model: openai.ChatModel(m.model),
	})
	if err != nil {
		return "", wrap(m.Name(), fmt.Errorf("chat completion: %w", err))
	}
	if len(resp.Choices) == 0 {
		return "", wrap(m.Name(), errors.New("no choices in response"))
	}
	return clean(m.Name(), resp.Choices[0].Message.Content)
}
