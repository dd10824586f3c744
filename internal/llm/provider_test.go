package llm

import (
	"context"
	"strings"
	"testing"
)

func TestNewProviderRejectsUnknownMode(t *testing.T) {
	_, err := NewProvider(context.Background(), Config{Mode: "oracle"})
	if err == nil {
		t.Fatal("NewProvider() error = nil, want unsupported mode error")
	}
	if !strings.Contains(err.Error(), "unsupported ai provider mode") {
		t.Fatalf("error = %v, want unsupported mode error", err)
	}
}

func TestNewProviderRulesMode(t *testing.T) {
	p, err := NewProvider(context.Background(), Config{Mode: "rules"})
	if err != nil {
		t.Fatalf("NewProvider() error = %v", err)
	}
	if p.Name() != "rules" {
		t.Fatalf("Name() = %q, want rules", p.Name())
	}
}

func TestNewProviderOpenAIModeRequiresKey(t *testing.T) {
	_, err := NewProvider(context.Background(), Config{Mode: "openai"})
	if err == nil {
		t.Fatal("NewProvider() error = nil, want missing key error")
	}
}

func TestNewProviderAnthropicMode(t *testing.T) {
	p, err := NewProvider(context.Background(), Config{
		Mode:            "anthropic",
		AnthropicAPIKey: "key",
		AnthropicModel:  "claude-3-5-sonnet-latest",
		Temperature:     0.7,
		MaxTokens:       500,
	})
	if err != nil {
		t.Fatalf("NewProvider() error = %v", err)
	}
	if p.Name() != "anthropic" {
		t.Fatalf("Name() = %q, want anthropic", p.Name())
	}
}

func TestNewProviderAutoPrefersOpenAI(t *testing.T) {
	p, err := NewProvider(context.Background(), Config{
		Mode:            "auto",
		OpenAIAPIKey:    "openai-key",
		AnthropicAPIKey: "anthropic-key",
		OpenAIModel:     "gpt-4o-mini",
	})
	if err != nil {
		t.Fatalf("NewProvider() error = %v", err)
	}
	if p.Name() != "openai" {
		t.Fatalf("Name() = %q, want openai", p.Name())
	}
}

func TestNewProviderAutoDefaultsToRules(t *testing.T) {
	p, err := NewProvider(context.Background(), Config{Mode: "auto"})
	if err != nil {
		t.Fatalf("NewProvider() error = %v", err)
	}
	if p.Name() != "rules" {
		t.Fatalf("Name() = %q, want rules", p.Name())
	}
}

func TestFlattenGeminiPromptBoundsHistory(t *testing.T) {
	req := Request{
		System: "Be helpful.",
		History: []Message{
			{Role: RoleUser, Content: "one"},
			{Role: RoleAssistant, Content: "two"},
			{Role: RoleUser, Content: "three"},
			{Role: RoleAssistant, Content: "four"},
			{Role: RoleUser, Content: "five"},
			{Role: RoleAssistant, Content: "six"},
		},
		Prompt: "what now?",
	}

	got := flattenGeminiPrompt(req)
	if !strings.HasPrefix(got, "Be helpful.\n\nConversation History:\n") {
		t.Fatalf("prompt prefix wrong: %q", got)
	}
	if strings.Contains(got, "one") || strings.Contains(got, "two") {
		t.Fatalf("history should keep only the last %d turns: %q", geminiHistoryWindow, got)
	}
	if !strings.Contains(got, "User: three\nAssistant: four\nUser: five\nAssistant: six\n") {
		t.Fatalf("history block wrong: %q", got)
	}
	if !strings.HasSuffix(got, "\nUser: what now?\nAssistant:") {
		t.Fatalf("prompt suffix wrong: %q", got)
	}
}

func TestFlattenGeminiPromptWithoutHistory(t *testing.T) {
	got := flattenGeminiPrompt(Request{System: "sys", Prompt: "hi"})
	want := "sys\n\n\nUser: hi\nAssistant:"
	if got != want {
		t.Fatalf("flattenGeminiPrompt() = %q, want %q", got, want)
	}
}
