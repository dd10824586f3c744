package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Conversation roles carried in Request.History.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one prior conversation turn forwarded to a provider.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request is the normalized completion request. History holds the most
// recent turns in chronological order and Prompt is the new user message.
// CallerName is only a hint; providers that build their own persona text
// (the rule-based one) use it, the hosted ones rely on System instead.
type Request struct {
	System     string
	History    []Message
	Prompt     string
	CallerName string
}

// Provider produces a free-text completion for a request.
type Provider interface {
	Complete(ctx context.Context, req Request) (string, error)
	Name() string
}

// Config controls provider construction.
type Config struct {
	Mode            string
	OpenAIAPIKey    string
	OpenAIModel     string
	GeminiAPIKey    string
	GeminiModel     string
	AnthropicAPIKey string
	AnthropicModel  string
	Temperature     float64
	MaxTokens       int
}

func NewProvider(ctx context.Context, cfg Config) (Provider, error) {
	mode := strings.ToLower(strings.TrimSpace(cfg.Mode))
	if mode == "" {
		mode = "auto"
	}

	switch mode {
	case "auto":
		return newAutoProvider(ctx, cfg), nil
	case "openai":
		if strings.TrimSpace(cfg.OpenAIAPIKey) == "" {
			return nil, errors.New("OpenAI API key is required for openai mode")
		}
		return NewOpenAIProvider(cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.Temperature, cfg.MaxTokens), nil
	case "gemini":
		if strings.TrimSpace(cfg.GeminiAPIKey) == "" {
			return nil, errors.New("Gemini API key is required for gemini mode")
		}
		return NewGeminiProvider(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, cfg.Temperature, cfg.MaxTokens)
	case "anthropic":
		if strings.TrimSpace(cfg.AnthropicAPIKey) == "" {
			return nil, errors.New("Anthropic API key is required for anthropic mode")
		}
		return NewAnthropicProvider(cfg.AnthropicAPIKey, cfg.AnthropicModel, cfg.Temperature, cfg.MaxTokens), nil
	case "rules":
		return NewRuleBasedProvider(), nil
	default:
		return nil, fmt.Errorf("unsupported ai provider mode %q", cfg.Mode)
	}
}

// newAutoProvider selects the first provider with a configured credential.
// Precedence is OpenAI, then Gemini, then Anthropic, else the rule-based
// provider so the service always answers something.
func newAutoProvider(ctx context.Context, cfg Config) Provider {
	if strings.TrimSpace(cfg.OpenAIAPIKey) != "" {
		return NewOpenAIProvider(cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.Temperature, cfg.MaxTokens)
	}
	if strings.TrimSpace(cfg.GeminiAPIKey) != "" {
		if gp, err := NewGeminiProvider(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, cfg.Temperature, cfg.MaxTokens); err == nil {
			return gp
		}
	}
	if strings.TrimSpace(cfg.AnthropicAPIKey) != "" {
		return NewAnthropicProvider(cfg.AnthropicAPIKey, cfg.AnthropicModel, cfg.Temperature, cfg.MaxTokens)
	}
	return NewRuleBasedProvider()
}
