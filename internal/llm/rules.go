package llm

import (
	"context"
	"fmt"
	"strings"
)

var ruleGreetings = []string{"hello", "hi", "hey", "good morning", "good afternoon"}

// RuleBasedProvider produces deterministic canned replies. It serves two
// roles: the provider of last resort when no hosted credential is
// configured, and the degradation target when every hosted call fails.
type RuleBasedProvider struct{}

func NewRuleBasedProvider() *RuleBasedProvider { return &RuleBasedProvider{} }

func (p *RuleBasedProvider) Name() string { return "rules" }

func (p *RuleBasedProvider) Complete(ctx context.Context, req Request) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	default:
	}

	return buildRuleReply(req), nil
}

func buildRuleReply(req Request) string {
	lower := strings.ToLower(req.Prompt)

	for _, greeting := range ruleGreetings {
		if strings.Contains(lower, greeting) {
			name := strings.TrimSpace(req.CallerName)
			if name == "" {
				name = "there"
			}
			return fmt.Sprintf("Hello %s! 👋 How can I assist you today? I can help with courses, assignments, events, and more!", name)
		}
	}

	if strings.Contains(lower, "help") {
		return "I'm here to help! I can assist you with:\n\n" +
			"📚 **Academic:** Study plans, assignments, course information\n" +
			"🎯 **Campus Life:** Events, navigation, facilities\n" +
			"📊 **Information:** Timetables, faculty details, materials\n" +
			"🤖 **AI Features:** Intelligent agents, analytics, recommendations\n\n" +
			"What would you like help with?"
	}

	if strings.Contains(lower, "course") || strings.Contains(lower, "class") || strings.Contains(lower, "subject") {
		return "I can help you with course information, enrollment, and materials. What specific course information do you need?"
	}

	if strings.Contains(lower, "event") {
		return "Looking for campus events? I can show you upcoming events, help you register, and provide event details. What would you like to know?"
	}

	return fmt.Sprintf("I understand you're asking about: \"%s\"\n\n"+
		"I can help you with various campus-related queries. Could you provide more specific details or try asking about:\n"+
		"• Courses and enrollment\n"+
		"• Study materials and resources\n"+
		"• Campus events and activities\n"+
		"• Your timetable and schedule\n"+
		"• Assignments and deadlines\n\n"+
		"What would you like to know more about?", req.Prompt)
}
