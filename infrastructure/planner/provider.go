// Package planner provides the text-generation providers the classification
// pipeline and chat host dispatch to.
package planner

import (
	"context"
	"errors"
	"fmt"
)

// Chat roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ErrUnknownProvider indicates a provider name with no registered backend.
var ErrUnknownProvider = errors.New("unknown provider")

// Provider is one text-generation backend.
type Provider interface {
	// Complete sends a chat completion request and returns the response.
	Complete(ctx context.Context, req CompletionRequest) (CompletionResponse, error)

	// Name returns the provider name for logging and switching.
	Name() string
}

// Message is one chat turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionRequest is a chat completion request.
type CompletionRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature,omitempty"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
}

// CompletionResponse is a chat completion response.
type CompletionResponse struct {
	Model   string  `json:"model"`
	Message Message `json:"message"`
	Usage   Usage   `json:"usage"`
}

// Usage counts tokens consumed by a completion.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Config configures one provider backend.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout int // seconds
}

// New creates the named provider. OpenAI-compatible services (groq, mistral
// and the like) run through the openai backend with their own BaseURL.
func New(name string, cfg Config) (Provider, error) {
	switch name {
	case "ollama":
		return NewOllamaProvider(OllamaConfig{
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
			Timeout: cfg.Timeout,
		}), nil
	case "openai", "groq", "mistral":
		baseURL := cfg.BaseURL
		if baseURL == "" {
			switch name {
			case "groq":
				baseURL = "https://api.groq.com/openai"
			case "mistral":
				baseURL = "https://api.mistral.ai"
			}
		}
		return NewOpenAIProvider(OpenAIConfig{
			Name:    name,
			APIKey:  cfg.APIKey,
			BaseURL: baseURL,
			Model:   cfg.Model,
			Timeout: cfg.Timeout,
		}), nil
	case "anthropic":
		return NewAnthropicProvider(AnthropicConfig{
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
			Timeout: cfg.Timeout,
		}), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, name)
	}
}
