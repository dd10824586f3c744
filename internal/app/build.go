// Package app assembles the service from configuration: stores, AI
// provider, responders, chat router, voice assistant, sessions, and the
// HTTP API.
package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/campuscompanion/campusai/internal/agents"
	"github.com/campuscompanion/campusai/internal/campus"
	"github.com/campuscompanion/campusai/internal/classify"
	"github.com/campuscompanion/campusai/internal/config"
	"github.com/campuscompanion/campusai/internal/convo"
	"github.com/campuscompanion/campusai/internal/httpapi"
	"github.com/campuscompanion/campusai/internal/observability"
	"github.com/campuscompanion/campusai/internal/plans"
	"github.com/campuscompanion/campusai/internal/router"
	"github.com/campuscompanion/campusai/internal/session"
	"github.com/campuscompanion/campusai/internal/voice"
)

type BuildResult struct {
	Config    config.Config
	API       *httpapi.Server
	Sessions  *session.Manager
	Chat      *router.Router
	Registry  *agents.Registry
	Metrics   *observability.Metrics
	StoreMode string
	Provider  string

	// Cleanup should be called on shutdown to release external resources.
	Cleanup func() error
}

func Build(ctx context.Context, cfg config.Config) (*BuildResult, error) {
	metrics := observability.NewMetrics(cfg.MetricsNamespace)

	campusStore, err := campus.NewStore(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("campus store init failed: %w", err)
	}
	convoStore, err := convo.NewStore(ctx, cfg.DatabaseURL)
	if err != nil {
		_ = campusStore.Close()
		return nil, fmt.Errorf("conversation store init failed: %w", err)
	}
	planStore, err := plans.NewStore(ctx, cfg.DatabaseURL)
	if err != nil {
		_ = convoStore.Close()
		_ = campusStore.Close()
		return nil, fmt.Errorf("plan store init failed: %w", err)
	}

	storeMode := "inmemory"
	if strings.TrimSpace(cfg.DatabaseURL) != "" {
		storeMode = "postgres"
	}

	setup, err := resolveProvider(ctx, cfg, metrics)
	if err != nil {
		_ = planStore.Close()
		_ = convoStore.Close()
		_ = campusStore.Close()
		return nil, err
	}
	provider := setup.provider

	registry := agents.NewRegistry()
	if cfg.AgentActions {
		registry.Register(agents.KindStudyPlanner, agents.NewStudyPlanner(provider, campusStore, planStore))
		registry.Register(agents.KindAssignmentManager, agents.NewAssignmentManager(provider, campusStore))
		registry.Register(agents.KindReportGenerator, agents.NewReportGenerator(provider, campusStore))
		registry.Register(agents.KindHelpdeskManager, agents.NewHelpdeskManager(provider, campusStore))
	}

	var conversations convo.Store
	if cfg.ConversationMemory {
		conversations = convoStore
	}

	chat := router.New(router.Options{
		Provider:      provider,
		Classifier:    classify.NewKeywordClassifier(),
		Responders:    registry,
		Campus:        campusStore,
		Conversations: conversations,
		Metrics:       metrics,
		HistoryWindow: cfg.HistoryWindow,
		PromptWindow:  cfg.PromptWindow,
	})

	var voiceAssistant httpapi.VoiceAssistant
	if cfg.VoiceAssistant {
		voiceAssistant = voice.NewAssistant(chat, cfg.VoiceCharBudget)
	}

	sessions := session.NewManager(cfg.SessionInactivityTimeout)
	sessions.SetExpireHook(func(_ *session.Session) {
		metrics.SessionEvents.WithLabelValues("expired").Inc()
		metrics.ActiveSessions.Set(float64(sessions.ActiveCount()))
	})

	api := httpapi.New(cfg, httpapi.Info{
		StoreMode: storeMode,
		Provider:  setup.primaryName,
	}, sessions, chat, voiceAssistant, registry, metrics)

	cleanup := func() error {
		var errs []string
		if err := planStore.Close(); err != nil {
			errs = append(errs, err.Error())
		}
		if err := convoStore.Close(); err != nil {
			errs = append(errs, err.Error())
		}
		if err := campusStore.Close(); err != nil {
			errs = append(errs, err.Error())
		}
		if len(errs) > 0 {
			return fmt.Errorf("%s", strings.Join(errs, "; "))
		}
		return nil
	}

	return &BuildResult{
		Config:    cfg,
		API:       api,
		Sessions:  sessions,
		Chat:      chat,
		Registry:  registry,
		Metrics:   metrics,
		StoreMode: storeMode,
		Provider:  setup.primaryName,
		Cleanup:   cleanup,
	}, nil
}
