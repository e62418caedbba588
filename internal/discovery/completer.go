// Package discovery implements the AI adapter that turns business
// information into a semantic framework. Every vendor is reached through
// its OpenAI-compatible chat completion endpoint.
package discovery

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/masahif/seoplanner/internal/planner"
)

// Completer sends one system/user prompt pair to a model and returns the
// text of the first choice
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// CompleterConfig selects a vendor and its generation settings
type CompleterConfig struct {
	Provider    string
	APIKey      string
	Model       string // catalog key or vendor model id
	Temperature float32
	MaxTokens   int
	BaseURL     string // overrides the catalog endpoint
}

// chatCompleter is the shared go-openai transport of every vendor
type chatCompleter struct {
	client      *openai.Client
	model       string
	temperature float32
	maxTokens   int
}

func newChatCompleter(cfg CompleterConfig, p Provider) chatCompleter {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	clientCfg.BaseURL = p.BaseURL
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}

	model := cfg.Model
	if m, ok := LookupModel(p.Name, model); ok {
		model = m.ID
	}
	if model == "" && len(p.Models) > 0 {
		model = p.Models[0].ID
	}

	return chatCompleter{
		client:      openai.NewClientWithConfig(clientCfg),
		model:       model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
	}
}

func (c chatCompleter) complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("failed to create completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

// OpenRouterCompleter talks to OpenRouter
type OpenRouterCompleter struct{ chatCompleter }

// Complete implements Completer
func (c *OpenRouterCompleter) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	return c.complete(ctx, systemPrompt, userPrompt)
}

// OpenAICompleter talks to OpenAI directly
type OpenAICompleter struct{ chatCompleter }

// Complete implements Completer
func (c *OpenAICompleter) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	return c.complete(ctx, systemPrompt, userPrompt)
}

// AnthropicCompleter talks to Anthropic's OpenAI-compatible endpoint
type AnthropicCompleter struct{ chatCompleter }

// Complete implements Completer
func (c *AnthropicCompleter) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	return c.complete(ctx, systemPrompt, userPrompt)
}

// GoogleCompleter talks to Gemini's OpenAI-compatible endpoint
type GoogleCompleter struct{ chatCompleter }

// Complete implements Completer
func (c *GoogleCompleter) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	return c.complete(ctx, systemPrompt, userPrompt)
}

// NewCompleter builds the completer of the configured vendor.
// An unknown provider or a missing key yields planner.ErrNoProvider.
func NewCompleter(cfg CompleterConfig) (Completer, error) {
	p, ok := LookupProvider(cfg.Provider)
	if !ok {
		return nil, fmt.Errorf("%w: unknown provider %q", planner.ErrNoProvider, cfg.Provider)
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("%w: no API key for %s", planner.ErrNoProvider, p.DisplayName)
	}

	base := newChatCompleter(cfg, p)
	switch p.Name {
	case OpenRouter:
		return &OpenRouterCompleter{base}, nil
	case OpenAI:
		return &OpenAICompleter{base}, nil
	case Anthropic:
		return &AnthropicCompleter{base}, nil
	case Google:
		return &GoogleCompleter{base}, nil
	}
	return nil, fmt.Errorf("%w: unsupported provider %q", planner.ErrNoProvider, p.Name)
}

// permanent reports whether a vendor error will not go away on retry
func permanent(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return clientError(apiErr.HTTPStatusCode)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return clientError(reqErr.HTTPStatusCode)
	}
	return false
}

func clientError(code int) bool {
	return code >= 400 && code < 500 && code != http.StatusTooManyRequests && code != http.StatusRequestTimeout
}
