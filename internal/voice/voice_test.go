package voice

import (
	"context"
	"strings"
	"testing"

	"github.com/campuscompanion/campusai/internal/agents"
	"github.com/campuscompanion/campusai/internal/router"
)

type stubChat struct {
	result  router.Result
	lastID  string
	lastCtx map[string]any
	calls   int
}

func (c *stubChat) Route(_ context.Context, _ string, _ string, extra map[string]any, conversationID string) router.Result {
	c.calls++
	c.lastID = conversationID
	c.lastCtx = extra
	return c.result
}

func TestFormatForVoiceStripsMarkdown(t *testing.T) {
	in := "## Today\n**Plan:**\n• Review notes\n- Attend the co-op talk"
	got := FormatForVoice(in, 500)
	for _, banned := range []string{"**", "##", "•", "-"} {
		if strings.Contains(got, banned) {
			t.Errorf("formatted text still contains %q: %q", banned, got)
		}
	}
	if !strings.Contains(got, "coop talk") {
		t.Errorf("hyphen stripping changed: %q", got)
	}
}

func TestFormatForVoiceTruncates(t *testing.T) {
	long := strings.Repeat("a", 620)
	got := FormatForVoice(long, 500)
	if !strings.HasSuffix(got, "... Would you like more details?") {
		t.Fatalf("missing truncation suffix: %q", got[len(got)-40:])
	}
	if len([]rune(got)) != 500+len([]rune("... Would you like more details?")) {
		t.Errorf("truncated length = %d", len([]rune(got)))
	}
}

func TestFormatForVoiceLeavesShortTextAlone(t *testing.T) {
	if got := FormatForVoice("all clear", 500); got != "all clear" {
		t.Fatalf("got %q", got)
	}
}

func TestHandleQueryForcesVoiceContext(t *testing.T) {
	chat := &stubChat{result: router.Result{Success: true, Response: "ok", ActionsTaken: []agents.Action{}}}
	assistant := NewAssistant(chat, 500)

	assistant.HandleQuery(context.Background(), "u1", "what's on today", map[string]any{"campus": "north"})

	if chat.lastCtx["input_type"] != "voice" {
		t.Errorf("context = %v", chat.lastCtx)
	}
	if chat.lastCtx["requires_concise_response"] != true {
		t.Errorf("context = %v", chat.lastCtx)
	}
	if chat.lastCtx["campus"] != "north" {
		t.Errorf("caller context lost: %v", chat.lastCtx)
	}
	if chat.lastID != "" {
		t.Errorf("voice queries must start fresh conversations, got id %q", chat.lastID)
	}
}

func TestHandleQueryFormatsReply(t *testing.T) {
	chat := &stubChat{result: router.Result{
		Success:      true,
		Response:     "**Here's the plan:**\n• Step one",
		ActionsTaken: []agents.Action{{"type": "study_plan_created", "success": true}},
	}}
	assistant := NewAssistant(chat, 500)

	got := assistant.HandleQuery(context.Background(), "u1", "plan my week", nil)

	if !got.Success || !got.VoiceEnabled {
		t.Fatalf("result = %+v", got)
	}
	if strings.Contains(got.Response, "**") || strings.Contains(got.Response, "•") {
		t.Errorf("markdown leaked into voice reply: %q", got.Response)
	}
	if len(got.ActionsTaken) != 1 {
		t.Errorf("actions = %v", got.ActionsTaken)
	}
}

func TestHandleQueryStaysSuccessfulWhenChatDegrades(t *testing.T) {
	chat := &stubChat{result: router.Result{
		Success:  false,
		Response: "I apologize, but I encountered an error. Please try again.",
	}}
	assistant := NewAssistant(chat, 500)

	got := assistant.HandleQuery(context.Background(), "u1", "anything", nil)

	if !got.Success {
		t.Fatal("voice result should stay successful on a degraded chat turn")
	}
	if got.ActionsTaken == nil || len(got.ActionsTaken) != 0 {
		t.Errorf("actions = %v, want empty list", got.ActionsTaken)
	}
	if !strings.Contains(got.Response, "I apologize") {
		t.Errorf("response = %q", got.Response)
	}
}

func TestHandleQueryFailsOnDeadContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	chat := &stubChat{result: router.Result{Success: false, Response: "apology"}}
	assistant := NewAssistant(chat, 500)

	got := assistant.HandleQuery(ctx, "u1", "anything", nil)

	if got.Success {
		t.Fatal("dead context should fail the voice query")
	}
	if got.Response != "I'm sorry, I couldn't process your voice request. Please try again." {
		t.Errorf("response = %q", got.Response)
	}
	if got.ActionsTaken != nil {
		t.Errorf("actions = %v, want nil", got.ActionsTaken)
	}
}
