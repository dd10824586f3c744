// Package router orchestrates one chat turn end to end: conversation
// resolution, history recall, intent classification, responder dispatch
// or conversational completion, and transcript persistence.
package router

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/campuscompanion/campusai/internal/agents"
	"github.com/campuscompanion/campusai/internal/campus"
	"github.com/campuscompanion/campusai/internal/classify"
	"github.com/campuscompanion/campusai/internal/convo"
	"github.com/campuscompanion/campusai/internal/llm"
	"github.com/campuscompanion/campusai/internal/observability"
	"github.com/campuscompanion/campusai/internal/policy"
)

// apologyText is the uniform reply for a turn that failed outright.
const apologyText = "I apologize, but I encountered an error. Please try again."

// clarifyText answers action-intent messages no responder claims.
const clarifyText = "I can help you with that! Could you provide more details?"

// Result is the outcome of one routed chat turn. On failure Context and
// ActionsTaken stay nil; the other fields always carry data.
type Result struct {
	Success        bool            `json:"success"`
	Response       string          `json:"response"`
	ConversationID string          `json:"conversation_id"`
	Context        map[string]any  `json:"context"`
	ActionsTaken   []agents.Action `json:"actions_taken"`
	Timestamp      time.Time       `json:"timestamp"`
}

// Options wires the router's collaborators. Conversations may be nil to
// disable transcript memory; Metrics may be nil in tests.
type Options struct {
	Provider      llm.Provider
	Classifier    classify.Classifier
	Responders    *agents.Registry
	Campus        campus.Store
	Conversations convo.Store
	Metrics       *observability.Metrics
	HistoryWindow int
	PromptWindow  int
}

type Router struct {
	provider      llm.Provider
	classifier    classify.Classifier
	responders    *agents.Registry
	campus        campus.Store
	conversations convo.Store
	metrics       *observability.Metrics
	historyWindow int
	promptWindow  int
}

func New(opts Options) *Router {
	historyWindow := opts.HistoryWindow
	if historyWindow <= 0 {
		historyWindow = 10
	}
	promptWindow := opts.PromptWindow
	if promptWindow <= 0 {
		promptWindow = 6
	}
	return &Router{
		provider:      opts.Provider,
		classifier:    opts.Classifier,
		responders:    opts.Responders,
		campus:        opts.Campus,
		conversations: opts.Conversations,
		metrics:       opts.Metrics,
		historyWindow: historyWindow,
		promptWindow:  promptWindow,
	}
}

// Route handles one user message. A blank conversationID starts a fresh
// conversation scoped to the caller. Failures collapse into a uniform
// apology result; Route never returns an error to keep handler code
// single-path.
func (r *Router) Route(ctx context.Context, userID, message string, extra map[string]any, conversationID string) Result {
	started := time.Now()
	defer func() {
		r.observeStage("route_total", time.Since(started))
	}()

	convID := conversationID
	if convID == "" {
		convID = userID + "_" + uuid.NewString()
	}

	history := r.loadHistory(ctx, userID, convID)
	fullContext := r.gatherContext(ctx, userID, extra)

	var (
		reply   string
		actions []agents.Action
		err     error
	)
	if r.classifier.ActionIntent(message) {
		r.countIntent("action")
		reply, actions, err = r.dispatchAction(ctx, userID, message, fullContext)
	} else {
		r.countIntent("conversation")
		reply, err = r.converse(ctx, message, history, fullContext)
		actions = []agents.Action{}
	}
	if err != nil {
		log.Printf("router: turn %s failed: %v", convID, err)
		return Result{
			Success:        false,
			Response:       apologyText,
			ConversationID: convID,
			Timestamp:      time.Now().UTC(),
		}
	}

	r.saveExchange(ctx, userID, convID, message, reply)

	return Result{
		Success:        true,
		Response:       reply,
		ConversationID: convID,
		Context:        fullContext,
		ActionsTaken:   actions,
		Timestamp:      time.Now().UTC(),
	}
}

// ClearHistory drops every stored conversation owned by the user.
func (r *Router) ClearHistory(ctx context.Context, userID string) error {
	if r.conversations == nil {
		return nil
	}
	return r.conversations.Clear(ctx, userID)
}

func (r *Router) dispatchAction(ctx context.Context, userID, message string, fullContext map[string]any) (string, []agents.Action, error) {
	target := r.classifier.Responder(message)
	kind, ok := responderKind(target)
	if !ok {
		return clarifyText, []agents.Action{}, nil
	}
	responder, ok := r.responders.Lookup(kind)
	if !ok {
		return clarifyText, []agents.Action{}, nil
	}

	started := time.Now()
	env := responder.Process(ctx, agents.Request{UserID: userID, Message: message, Context: fullContext})
	r.observeStage("responder", time.Since(started))
	if ctx.Err() != nil {
		return "", nil, ctx.Err()
	}

	if r.metrics != nil {
		outcome := "ok"
		if env.Errored() {
			outcome = "degraded"
		}
		r.metrics.ResponderDispatches.WithLabelValues(string(kind), outcome).Inc()
	}

	reply := env.Response
	if reply == "" {
		reply = "Action completed!"
	}
	return reply, env.ActionsPerformed, nil
}

func (r *Router) converse(ctx context.Context, message string, history []convo.Turn, fullContext map[string]any) (string, error) {
	req := llm.Request{
		System:     conversationSystemPrompt(fullContext),
		History:    promptHistory(history, r.promptWindow),
		Prompt:     message,
		CallerName: contextUserName(fullContext),
	}

	started := time.Now()
	reply, err := r.provider.Complete(ctx, req)
	elapsed := time.Since(started)
	r.observeStage("completion", elapsed)
	if r.metrics != nil {
		r.metrics.ObserveCompletionLatency(elapsed)
		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		r.metrics.ProviderCalls.WithLabelValues(r.provider.Name(), outcome).Inc()
	}
	if err != nil {
		return "", fmt.Errorf("conversational completion: %w", err)
	}
	return reply, nil
}

func (r *Router) loadHistory(ctx context.Context, userID, convID string) []convo.Turn {
	if r.conversations == nil {
		return nil
	}
	started := time.Now()
	turns, err := r.conversations.Window(ctx, userID, convID, r.historyWindow)
	r.observeStage("history_read", time.Since(started))
	if err != nil {
		log.Printf("router: load history %s: %v", convID, err)
		return nil
	}
	return turns
}

// saveExchange persists both turns of the exchange with PII masked.
// Persistence failure only logs; the user already has their reply.
func (r *Router) saveExchange(ctx context.Context, userID, convID, message, reply string) {
	if r.conversations == nil {
		return
	}
	started := time.Now()
	userText, userRedacted := policy.RedactPII(message)
	assistantText, assistantRedacted := policy.RedactPII(reply)
	now := time.Now().UTC()
	err := r.conversations.AppendExchange(ctx, userID, convID,
		convo.Turn{Role: llm.RoleUser, Content: userText, PIIRedacted: userRedacted, Timestamp: now},
		convo.Turn{Role: llm.RoleAssistant, Content: assistantText, PIIRedacted: assistantRedacted, Timestamp: now},
	)
	r.observeStage("history_write", time.Since(started))
	if err != nil {
		log.Printf("router: persist exchange %s: %v", convID, err)
	}
}

// gatherContext merges caller-supplied context with the user's profile
// and the current time. Directory failures degrade to profile-less
// context.
func (r *Router) gatherContext(ctx context.Context, userID string, extra map[string]any) map[string]any {
	fullContext := make(map[string]any, len(extra)+2)
	for k, v := range extra {
		fullContext[k] = v
	}

	user, err := r.campus.GetUser(ctx, userID)
	switch {
	case err == nil:
		fullContext["user"] = map[string]any{
			"name":       user.Name,
			"role":       user.Role,
			"department": user.Department,
			"year":       user.Year,
		}
	case !errors.Is(err, campus.ErrNotFound):
		log.Printf("router: fetch user %s: %v", userID, err)
	}

	fullContext["timestamp"] = time.Now().Format("January 02, 2006 at 3:04 PM")
	return fullContext
}

func conversationSystemPrompt(fullContext map[string]any) string {
	name := "Student"
	role := "student"
	if user, ok := fullContext["user"].(map[string]any); ok {
		if v, ok := user["name"].(string); ok && v != "" {
			name = v
		}
		if v, ok := user["role"].(string); ok && v != "" {
			role = v
		}
	}
	timestamp, _ := fullContext["timestamp"].(string)
	if timestamp == "" {
		timestamp = time.Now().Format("January 02, 2006 at 3:04 PM")
	}

	return fmt.Sprintf(`You are CampusCompanion AI, a helpful and friendly campus assistant.

Current Context:
- User: %s
- Role: %s
- Time: %s

Guidelines:
- Be conversational and natural (like ChatGPT)
- Don't repeat previous responses
- Provide helpful, accurate information
- If you don't know something, admit it
- Keep responses concise but informative
- Use emojis sparingly and appropriately`, name, role, timestamp)
}

func contextUserName(fullContext map[string]any) string {
	user, ok := fullContext["user"].(map[string]any)
	if !ok {
		return ""
	}
	name, _ := user["name"].(string)
	return name
}

// promptHistory bounds the transcript forwarded to the provider.
func promptHistory(turns []convo.Turn, window int) []llm.Message {
	if len(turns) > window {
		turns = turns[len(turns)-window:]
	}
	messages := make([]llm.Message, 0, len(turns))
	for _, turn := range turns {
		messages = append(messages, llm.Message{Role: turn.Role, Content: turn.Content})
	}
	return messages
}

func responderKind(target classify.Target) (agents.Kind, bool) {
	switch target {
	case classify.TargetStudyPlanner:
		return agents.KindStudyPlanner, true
	case classify.TargetAssignmentManager:
		return agents.KindAssignmentManager, true
	default:
		return "", false
	}
}

func (r *Router) observeStage(stage string, d time.Duration) {
	if r.metrics != nil {
		r.metrics.ObserveStage(stage, d)
	}
}

func (r *Router) countIntent(intent string) {
	if r.metrics != nil {
		r.metrics.IntentDecisions.WithLabelValues(intent).Inc()
	}
}
