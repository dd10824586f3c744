package agents

import (
	"context"
	"errors"
	"log"

	"github.com/campuscompanion/campusai/internal/campus"
	"github.com/campuscompanion/campusai/internal/llm"
)

// Kind identifies a built-in responder.
type Kind string

const (
	KindStudyPlanner      Kind = "study_planner"
	KindAssignmentManager Kind = "assignment_manager"
	KindReportGenerator   Kind = "report_generator"
	KindHelpdeskManager   Kind = "helpdesk_manager"
)

// Request is one actionable message dispatched to a responder.
type Request struct {
	UserID  string
	Message string
	Context map[string]any
}

// Responder handles an actionable request end to end. Failures are
// reported inside the envelope as error actions, never as a bare error,
// so callers always have text to show the user.
type Responder interface {
	Name() string
	Process(ctx context.Context, req Request) Envelope
}

// Registry maps responder kinds to implementations.
type Registry struct {
	responders map[Kind]Responder
}

func NewRegistry() *Registry {
	return &Registry{responders: make(map[Kind]Responder)}
}

func (r *Registry) Register(kind Kind, responder Responder) {
	r.responders[kind] = responder
}

func (r *Registry) Lookup(kind Kind) (Responder, bool) {
	responder, ok := r.responders[kind]
	return responder, ok
}

// tolerate swallows store errors so a degraded database never kills a
// turn. Context cancellation still aborts.
func tolerate(ctx context.Context, err error, what string) error {
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if !errors.Is(err, campus.ErrNotFound) {
		log.Printf("%s: %v", what, err)
	}
	return nil
}

// generateText asks the provider for free text, degrading to the
// responder's canned fallback when the provider fails.
func generateText(ctx context.Context, provider llm.Provider, req llm.Request, fallback string) (string, error) {
	text, err := provider.Complete(ctx, req)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		log.Printf("ai generation error: %v", err)
		return fallback, nil
	}
	return text, nil
}

// logAction appends to the agent audit log. Failures only log; the turn
// outcome never depends on audit persistence.
func logAction(ctx context.Context, store campus.Store, agentName, action, userID string, details map[string]any) {
	err := store.AppendActionLog(ctx, campus.ActionLogEntry{
		AgentName: agentName,
		Action:    action,
		UserID:    userID,
		Details:   details,
	})
	if err != nil {
		log.Printf("append action log: %v", err)
	}
}
