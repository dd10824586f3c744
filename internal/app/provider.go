package app

import (
	"context"
	"fmt"
	"log"

	"github.com/campuscompanion/campusai/internal/config"
	"github.com/campuscompanion/campusai/internal/llm"
	"github.com/campuscompanion/campusai/internal/observability"
)

type providerSetup struct {
	provider    llm.Provider
	primaryName string
}

// resolveProvider builds the configured completion provider and wraps it
// with rule-based degradation so a turn always gets an answer, even with
// no credentials at all.
func resolveProvider(ctx context.Context, cfg config.Config, metrics *observability.Metrics) (providerSetup, error) {
	primary, err := llm.NewProvider(ctx, llm.Config{
		Mode:            cfg.ProviderMode,
		OpenAIAPIKey:    cfg.OpenAIAPIKey,
		OpenAIModel:     cfg.OpenAIModel,
		GeminiAPIKey:    cfg.GeminiAPIKey,
		GeminiModel:     cfg.GeminiModel,
		AnthropicAPIKey: cfg.AnthropicAPIKey,
		AnthropicModel:  cfg.AnthropicModel,
		Temperature:     cfg.Temperature,
		MaxTokens:       cfg.MaxTokens,
	})
	if err != nil {
		return providerSetup{}, fmt.Errorf("ai provider init failed: %w", err)
	}

	fallback := llm.NewFallbackProvider(primary, llm.NewRuleBasedProvider(), cfg.CompletionTimeout, cfg.CompletionRetries)
	fallback.SetFallbackHook(func(err error) {
		metrics.ProviderCalls.WithLabelValues(primary.Name(), "fallback").Inc()
		log.Printf("ai provider %s degraded to rule-based: %v", primary.Name(), err)
	})
	return providerSetup{provider: fallback, primaryName: primary.Name()}, nil
}
