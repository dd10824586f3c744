package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config contains all runtime settings for the campus assistant service.
type Config struct {
	BindAddr                 string
	ShutdownTimeout          time.Duration
	SessionInactivityTimeout time.Duration
	MetricsNamespace         string

	AllowAnyOrigin bool
	AllowedOrigins []string
	APIKey         string

	DatabaseURL string

	ProviderMode      string
	OpenAIAPIKey      string
	OpenAIModel       string
	GeminiAPIKey      string
	GeminiModel       string
	AnthropicAPIKey   string
	AnthropicModel    string
	Temperature       float64
	MaxTokens         int
	CompletionTimeout time.Duration
	CompletionRetries int

	ConversationMemory bool
	HistoryWindow      int
	PromptWindow       int

	AgentActions bool

	VoiceAssistant  bool
	VoiceCharBudget int
}

// Load reads environment variables and applies safe defaults.
func Load() (Config, error) {
	// A missing .env file is fine; deployments rely on the process environment.
	_ = godotenv.Load()

	cfg := Config{
		BindAddr:         envOrDefault("APP_BIND_ADDR", ":8001"),
		MetricsNamespace: envOrDefault("APP_METRICS_NAMESPACE", "campusai"),
		AllowAnyOrigin:   false,
		// Defaults cover the local web frontend and the local API gateway.
		AllowedOrigins: splitList(envOrDefault("APP_ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:5000")),
		APIKey:         stringsTrimSpace("BACKEND_API_KEY"),
		DatabaseURL:    stringsTrimSpace("DATABASE_URL"),

		ProviderMode:    envOrDefault("AI_PROVIDER", "auto"),
		OpenAIAPIKey:    stringsTrimSpace("OPENAI_API_KEY"),
		OpenAIModel:     envOrDefault("OPENAI_MODEL", "gpt-4o-mini"),
		GeminiAPIKey:    stringsTrimSpace("GEMINI_API_KEY"),
		GeminiModel:     envOrDefault("GEMINI_MODEL", "gemini-1.5-flash"),
		AnthropicAPIKey: stringsTrimSpace("ANTHROPIC_API_KEY"),
		AnthropicModel:  envOrDefault("ANTHROPIC_MODEL", "claude-3-5-sonnet-latest"),

		Temperature:       0.7,
		MaxTokens:         500,
		CompletionTimeout: 20 * time.Second,
		CompletionRetries: 1,

		ConversationMemory: true,
		HistoryWindow:      10,
		PromptWindow:       6,

		AgentActions: true,

		VoiceAssistant:  true,
		VoiceCharBudget: 500,

		ShutdownTimeout:          15 * time.Second,
		SessionInactivityTimeout: 2 * time.Minute,
	}
	var err error
	cfg.ShutdownTimeout, err = durationFromEnv("APP_SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.SessionInactivityTimeout, err = durationFromEnv("APP_SESSION_INACTIVITY_TIMEOUT", cfg.SessionInactivityTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.AllowAnyOrigin, err = boolFromEnv("APP_ALLOW_ANY_ORIGIN", cfg.AllowAnyOrigin)
	if err != nil {
		return Config{}, err
	}

	cfg.Temperature, err = floatFromEnv("AI_TEMPERATURE", cfg.Temperature)
	if err != nil {
		return Config{}, err
	}
	cfg.MaxTokens, err = intFromEnv("AI_MAX_TOKENS", cfg.MaxTokens)
	if err != nil {
		return Config{}, err
	}
	cfg.CompletionTimeout, err = durationFromEnv("AI_COMPLETION_TIMEOUT", cfg.CompletionTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.CompletionRetries, err = intFromEnv("AI_COMPLETION_RETRIES", cfg.CompletionRetries)
	if err != nil {
		return Config{}, err
	}

	cfg.ConversationMemory, err = boolFromEnv("ENABLE_CONVERSATION_MEMORY", cfg.ConversationMemory)
	if err != nil {
		return Config{}, err
	}
	cfg.HistoryWindow, err = intFromEnv("HISTORY_WINDOW", cfg.HistoryWindow)
	if err != nil {
		return Config{}, err
	}
	cfg.PromptWindow, err = intFromEnv("PROMPT_WINDOW", cfg.PromptWindow)
	if err != nil {
		return Config{}, err
	}

	cfg.AgentActions, err = boolFromEnv("ENABLE_AGENT_ACTIONS", cfg.AgentActions)
	if err != nil {
		return Config{}, err
	}
	cfg.VoiceAssistant, err = boolFromEnv("ENABLE_VOICE_ASSISTANT", cfg.VoiceAssistant)
	if err != nil {
		return Config{}, err
	}
	cfg.VoiceCharBudget, err = intFromEnv("VOICE_CHAR_BUDGET", cfg.VoiceCharBudget)
	if err != nil {
		return Config{}, err
	}

	if cfg.Temperature < 0 || cfg.Temperature > 2 {
		return Config{}, fmt.Errorf("AI_TEMPERATURE must be between 0 and 2")
	}
	if cfg.MaxTokens <= 0 {
		return Config{}, fmt.Errorf("AI_MAX_TOKENS must be positive")
	}
	if cfg.CompletionTimeout <= 0 {
		return Config{}, fmt.Errorf("AI_COMPLETION_TIMEOUT must be positive")
	}
	if cfg.CompletionRetries < 0 {
		return Config{}, fmt.Errorf("AI_COMPLETION_RETRIES must be >= 0")
	}
	if cfg.HistoryWindow <= 0 {
		return Config{}, fmt.Errorf("HISTORY_WINDOW must be positive")
	}
	if cfg.PromptWindow <= 0 || cfg.PromptWindow > cfg.HistoryWindow {
		return Config{}, fmt.Errorf("PROMPT_WINDOW must be positive and at most HISTORY_WINDOW")
	}
	if cfg.VoiceCharBudget <= 0 {
		return Config{}, fmt.Errorf("VOICE_CHAR_BUDGET must be positive")
	}
	if cfg.SessionInactivityTimeout < 5*time.Second {
		return Config{}, fmt.Errorf("APP_SESSION_INACTIVITY_TIMEOUT must be at least 5s")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func stringsTrimSpace(key string) string {
	return trimSpace(os.Getenv(key))
}

func trimSpace(v string) string {
	for len(v) > 0 && (v[0] == ' ' || v[0] == '\n' || v[0] == '\t' || v[0] == '\r') {
		v = v[1:]
	}
	for len(v) > 0 {
		c := v[len(v)-1]
		if c == ' ' || c == '\n' || c == '\t' || c == '\r' {
			v = v[:len(v)-1]
			continue
		}
		break
	}
	return v
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = trimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func durationFromEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := stringsTrimSpace(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return d, nil
}

func intFromEnv(key string, fallback int) (int, error) {
	v := stringsTrimSpace(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return n, nil
}

func floatFromEnv(key string, fallback float64) (float64, error) {
	v := stringsTrimSpace(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return f, nil
}

func boolFromEnv(key string, fallback bool) (bool, error) {
	v := strings.ToLower(stringsTrimSpace(key))
	if v == "" {
		return fallback, nil
	}
	switch v {
	case "1", "true", "t", "yes", "y", "on":
		return true, nil
	case "0", "false", "f", "no", "n", "off":
		return false, nil
	default:
		return false, fmt.Errorf("%s parse error: expected bool", key)
	}
}
