// Package voice adapts chat turns for speech output: markdown is
// stripped, replies are capped to a speakable length, and every voice
// query runs as its own one-shot conversation.
package voice

import (
	"context"
	"strings"
	"time"

	"github.com/campuscompanion/campusai/internal/agents"
	"github.com/campuscompanion/campusai/internal/router"
)

const failureText = "I'm sorry, I couldn't process your voice request. Please try again."

// truncationSuffix invites a follow-up when a reply was cut short.
const truncationSuffix = "... Would you like more details?"

// Chat is the slice of the router the assistant drives.
type Chat interface {
	Route(ctx context.Context, userID, message string, extra map[string]any, conversationID string) router.Result
}

// Result is the speech-ready envelope returned to voice clients.
type Result struct {
	Success      bool            `json:"success"`
	Response     string          `json:"response"`
	ActionsTaken []agents.Action `json:"actions_taken"`
	VoiceEnabled bool            `json:"voice_enabled"`
	Timestamp    time.Time       `json:"timestamp"`
}

type Assistant struct {
	chat       Chat
	charBudget int
}

// NewAssistant wraps the chat router. charBudget bounds spoken replies;
// non-positive means 500.
func NewAssistant(chat Chat, charBudget int) *Assistant {
	if charBudget <= 0 {
		charBudget = 500
	}
	return &Assistant{chat: chat, charBudget: charBudget}
}

// HandleQuery answers one spoken query. Each query is a fresh
// conversation: voice clients have no thread to resume. The result stays
// successful even when the chat turn degraded to an apology; only a dead
// context fails the query.
func (a *Assistant) HandleQuery(ctx context.Context, userID, query string, extra map[string]any) Result {
	voiceContext := make(map[string]any, len(extra)+2)
	for k, v := range extra {
		voiceContext[k] = v
	}
	voiceContext["input_type"] = "voice"
	voiceContext["requires_concise_response"] = true

	chat := a.chat.Route(ctx, userID, query, voiceContext, "")
	if ctx.Err() != nil {
		return Result{
			Success:      false,
			Response:     failureText,
			VoiceEnabled: true,
			Timestamp:    time.Now().UTC(),
		}
	}

	actions := chat.ActionsTaken
	if actions == nil {
		actions = []agents.Action{}
	}

	return Result{
		Success:      true,
		Response:     FormatForVoice(chat.Response, a.charBudget),
		ActionsTaken: actions,
		VoiceEnabled: true,
		Timestamp:    time.Now().UTC(),
	}
}

// FormatForVoice strips markdown decoration and bounds the reply to
// charBudget characters. Hyphen removal is deliberately blunt; spoken
// output reads better without list dashes even at the cost of hyphenated
// words.
func FormatForVoice(text string, charBudget int) string {
	out := strings.ReplaceAll(text, "**", "")
	out = strings.ReplaceAll(out, "##", "")
	out = strings.ReplaceAll(out, "###", "")
	out = strings.ReplaceAll(out, "•", "")
	out = strings.ReplaceAll(out, "-", "")

	runes := []rune(out)
	if len(runes) > charBudget {
		out = string(runes[:charBudget]) + truncationSuffix
	}
	return out
}
