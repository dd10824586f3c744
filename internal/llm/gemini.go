package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// geminiHistoryWindow bounds how many prior turns are inlined into the
// flattened Gemini prompt.
const geminiHistoryWindow = 4

// GeminiProvider completes prompts through the Google Gemini API. Gemini
// receives the conversation as one flattened transcript prompt rather
// than structured chat turns.
type GeminiProvider struct {
	client      *genai.Client
	model       string
	temperature float32
	maxTokens   int32
}

func NewGeminiProvider(ctx context.Context, apiKey, model string, temperature float64, maxTokens int) (*GeminiProvider, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &GeminiProvider{
		client:      client,
		model:       model,
		temperature: float32(temperature),
		maxTokens:   int32(maxTokens),
	}, nil
}

func (p *GeminiProvider) Name() string { return "gemini" }

func (p *GeminiProvider) Complete(ctx context.Context, req Request) (string, error) {
	contents := []*genai.Content{
		genai.NewContentFromText(flattenGeminiPrompt(req), genai.RoleUser),
	}
	result, err := p.client.Models.GenerateContent(ctx, p.model, contents, &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(p.temperature),
		MaxOutputTokens: p.maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("gemini completion: %w", err)
	}
	text := strings.TrimSpace(result.Text())
	if text == "" {
		return "", errors.New("gemini completion returned no text")
	}
	return text, nil
}

func flattenGeminiPrompt(req Request) string {
	var b strings.Builder
	if req.System != "" {
		b.WriteString(req.System)
		b.WriteString("\n\n")
	}
	history := req.History
	if len(history) > geminiHistoryWindow {
		history = history[len(history)-geminiHistoryWindow:]
	}
	if len(history) > 0 {
		b.WriteString("Conversation History:\n")
		for _, m := range history {
			b.WriteString(titleRole(m.Role))
			b.WriteString(": ")
			b.WriteString(m.Content)
			b.WriteString("\n")
		}
	}
	b.WriteString("\nUser: ")
	b.WriteString(req.Prompt)
	b.WriteString("\nAssistant:")
	return b.String()
}

func titleRole(role string) string {
	if role == "" {
		return "User"
	}
	return strings.ToUpper(role[:1]) + role[1:]
}
