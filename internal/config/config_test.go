package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	setCoreEnvEmpty(t)
	t.Setenv("APP_BIND_ADDR", ":9090")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.ProviderMode != "auto" {
		t.Fatalf("ProviderMode = %q, want %q", cfg.ProviderMode, "auto")
	}
	if cfg.OpenAIAPIKey != "" {
		t.Fatalf("OpenAIAPIKey = %q, want empty default", cfg.OpenAIAPIKey)
	}
	if cfg.Temperature != 0.7 {
		t.Fatalf("Temperature = %v, want 0.7", cfg.Temperature)
	}
	if cfg.MaxTokens != 500 {
		t.Fatalf("MaxTokens = %d, want 500", cfg.MaxTokens)
	}
	if cfg.HistoryWindow != 10 || cfg.PromptWindow != 6 {
		t.Fatalf("windows = %d/%d, want 10/6", cfg.HistoryWindow, cfg.PromptWindow)
	}
	if cfg.VoiceCharBudget != 500 {
		t.Fatalf("VoiceCharBudget = %d, want 500", cfg.VoiceCharBudget)
	}
	if len(cfg.AllowedOrigins) != 2 {
		t.Fatalf("AllowedOrigins = %v, want two local defaults", cfg.AllowedOrigins)
	}
}

func TestLoadUsesExplicitProviderSettings(t *testing.T) {
	setCoreEnvEmpty(t)
	t.Setenv("AI_PROVIDER", "anthropic")
	t.Setenv("ANTHROPIC_API_KEY", "sk-test")
	t.Setenv("AI_TEMPERATURE", "0.2")
	t.Setenv("AI_MAX_TOKENS", "256")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.ProviderMode != "anthropic" {
		t.Fatalf("ProviderMode = %q, want explicit value", cfg.ProviderMode)
	}
	if cfg.AnthropicAPIKey != "sk-test" {
		t.Fatalf("AnthropicAPIKey = %q, want explicit value", cfg.AnthropicAPIKey)
	}
	if cfg.Temperature != 0.2 {
		t.Fatalf("Temperature = %v, want 0.2", cfg.Temperature)
	}
	if cfg.MaxTokens != 256 {
		t.Fatalf("MaxTokens = %d, want 256", cfg.MaxTokens)
	}
}

func TestLoadSplitsAllowedOrigins(t *testing.T) {
	setCoreEnvEmpty(t)
	t.Setenv("APP_ALLOWED_ORIGINS", " https://campus.example.edu , http://localhost:3000 ,")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	want := []string{"https://campus.example.edu", "http://localhost:3000"}
	if len(cfg.AllowedOrigins) != len(want) {
		t.Fatalf("AllowedOrigins = %v, want %v", cfg.AllowedOrigins, want)
	}
	for i := range want {
		if cfg.AllowedOrigins[i] != want[i] {
			t.Fatalf("AllowedOrigins[%d] = %q, want %q", i, cfg.AllowedOrigins[i], want[i])
		}
	}
}

func TestLoadRejectsPromptWindowLargerThanHistory(t *testing.T) {
	setCoreEnvEmpty(t)
	t.Setenv("HISTORY_WINDOW", "4")
	t.Setenv("PROMPT_WINDOW", "8")

	if _, err := Load(); err == nil {
		t.Fatalf("Load() error = nil, want window validation error")
	}
}

func TestLoadRejectsBadTemperature(t *testing.T) {
	setCoreEnvEmpty(t)
	t.Setenv("AI_TEMPERATURE", "3.5")

	if _, err := Load(); err == nil {
		t.Fatalf("Load() error = nil, want temperature validation error")
	}
}

func setCoreEnvEmpty(t *testing.T) {
	t.Helper()
	keys := []string{
		"APP_BIND_ADDR",
		"APP_SHUTDOWN_TIMEOUT",
		"APP_SESSION_INACTIVITY_TIMEOUT",
		"APP_METRICS_NAMESPACE",
		"APP_ALLOW_ANY_ORIGIN",
		"APP_ALLOWED_ORIGINS",
		"BACKEND_API_KEY",
		"DATABASE_URL",
		"AI_PROVIDER",
		"OPENAI_API_KEY",
		"OPENAI_MODEL",
		"GEMINI_API_KEY",
		"GEMINI_MODEL",
		"ANTHROPIC_API_KEY",
		"ANTHROPIC_MODEL",
		"AI_TEMPERATURE",
		"AI_MAX_TOKENS",
		"AI_COMPLETION_TIMEOUT",
		"AI_COMPLETION_RETRIES",
		"ENABLE_CONVERSATION_MEMORY",
		"HISTORY_WINDOW",
		"PROMPT_WINDOW",
		"ENABLE_AGENT_ACTIONS",
		"ENABLE_VOICE_ASSISTANT",
		"VOICE_CHAR_BUDGET",
	}
	for _, key := range keys {
		t.Setenv(key, "")
	}
}
