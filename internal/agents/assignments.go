package agents

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/campuscompanion/campusai/internal/campus"
	"github.com/campuscompanion/campusai/internal/classify"
	"github.com/campuscompanion/campusai/internal/llm"
)

var (
	assignmentListVocabulary     = classify.Vocabulary{"list", "show", "what are", "my assignments"}
	assignmentGenerateVocabulary = classify.Vocabulary{"generate", "create", "write", "help me with"}
	assignmentHelpVocabulary     = classify.Vocabulary{"help", "stuck", "how to", "guide"}
)

// AssignmentManager tracks a student's assignments, prioritizes the
// pending ones, and drafts content or guidance on request.
type AssignmentManager struct {
	provider llm.Provider
	campus   campus.Store
}

func NewAssignmentManager(provider llm.Provider, campusStore campus.Store) *AssignmentManager {
	return &AssignmentManager{provider: provider, campus: campusStore}
}

func (a *AssignmentManager) Name() string { return "Assignment Manager Agent" }

func (a *AssignmentManager) Process(ctx context.Context, req Request) Envelope {
	env, err := a.respond(ctx, req)
	if err != nil {
		log.Printf("assignment manager: %v", err)
		return errorEnvelope(a.Name(), assignmentFallbackText(), err)
	}
	return env
}

func (a *AssignmentManager) respond(ctx context.Context, req Request) (Envelope, error) {
	switch {
	case assignmentListVocabulary.Matches(req.Message):
		return a.listAssignments(ctx, req)
	case assignmentGenerateVocabulary.Matches(req.Message):
		return a.generateContent(ctx, req)
	case assignmentHelpVocabulary.Matches(req.Message):
		return a.provideHelp(ctx, req)
	default:
		return a.overview(ctx, req)
	}
}

func (a *AssignmentManager) listAssignments(ctx context.Context, req Request) (Envelope, error) {
	assignments, err := a.campus.ListAssignments(ctx, req.UserID)
	if terr := tolerate(ctx, err, "assignment manager: fetch assignments"); terr != nil {
		return Envelope{}, terr
	}

	if len(assignments) == 0 {
		env := newEnvelope(a.Name(), "📝 You don't have any assignments yet. When assignments are added, I'll help you manage them!")
		env.Data = map[string]any{"assignments": []campus.Assignment{}}
		return env, nil
	}

	now := time.Now()
	pending := make([]campus.Assignment, 0, len(assignments))
	completed := 0
	overdue := 0
	for _, assignment := range assignments {
		switch assignment.Status {
		case "pending":
			pending = append(pending, assignment)
			if dueOrNow(assignment, now).Before(now) {
				overdue++
			}
		case "completed":
			completed++
		}
	}

	prioritized := prioritizeAssignments(pending, now)
	top := prioritized
	if len(top) > 10 {
		top = top[:10]
	}

	env := newEnvelope(a.Name(), assignmentDashboardText(len(assignments), len(pending), completed, overdue, prioritized, now))
	env.ActionsPerformed = []Action{
		{"type": "assignments_analyzed", "count": len(assignments), "success": true},
	}
	env.Analysis = map[string]any{
		"total":     len(assignments),
		"pending":   len(pending),
		"completed": completed,
		"overdue":   overdue,
	}
	env.Data = map[string]any{"assignments": top}
	return env, nil
}

func (a *AssignmentManager) generateContent(ctx context.Context, req Request) (Envelope, error) {
	reply, err := generateText(ctx, a.provider, llm.Request{
		System: `You are an expert academic assistant. Help students create high-quality assignment content.

Provide:
1. Outline/structure
2. Key points to cover
3. Research suggestions
4. Writing tips`,
		Prompt: req.Message,
	}, assignmentFallbackText())
	if err != nil {
		return Envelope{}, err
	}

	text := fmt.Sprintf(`✍️ **Assignment Content Generation**

%s

**📚 Additional Resources:**
• Check the materials section for relevant resources
• Review course materials for background information
• Ensure proper citations and references

**💡 Pro Tips:**
• Start with an outline
• Break down into sections
• Review and revise before submission

Need more specific help? Let me know!`, reply)

	env := newEnvelope(a.Name(), text)
	env.ActionsPerformed = []Action{
		{"type": "content_generated", "success": true},
	}
	return env, nil
}

func (a *AssignmentManager) provideHelp(ctx context.Context, req Request) (Envelope, error) {
	reply, err := generateText(ctx, a.provider, llm.Request{
		System: "You are a helpful academic tutor. Provide clear, step-by-step guidance for student queries.",
		Prompt: req.Message,
	}, assignmentFallbackText())
	if err != nil {
		return Envelope{}, err
	}

	env := newEnvelope(a.Name(), fmt.Sprintf("📖 **Assignment Help**\n\n%s", reply))
	env.ActionsPerformed = []Action{
		{"type": "help_provided", "success": true},
	}
	return env, nil
}

func (a *AssignmentManager) overview(ctx context.Context, req Request) (Envelope, error) {
	assignments, err := a.campus.ListAssignments(ctx, req.UserID)
	if terr := tolerate(ctx, err, "assignment manager: fetch assignments"); terr != nil {
		return Envelope{}, terr
	}

	text := fmt.Sprintf(`📚 **Assignment Management**

I can help you with:
• 📋 List and track your assignments
• ✍️ Generate assignment content and outlines
• 📖 Provide research and writing guidance
• ⏰ Manage deadlines and priorities

You currently have **%d assignments**.

What would you like help with?`, len(assignments))

	return newEnvelope(a.Name(), text), nil
}

// prioritizeAssignments orders pending assignments by due date, then
// priority. A missing due date sorts as due right now.
func prioritizeAssignments(pending []campus.Assignment, now time.Time) []campus.Assignment {
	prioritized := make([]campus.Assignment, len(pending))
	copy(prioritized, pending)
	sort.SliceStable(prioritized, func(i, j int) bool {
		di, dj := dueOrNow(prioritized[i], now), dueOrNow(prioritized[j], now)
		if !di.Equal(dj) {
			return di.Before(dj)
		}
		return priorityRank(prioritized[i].Priority) < priorityRank(prioritized[j].Priority)
	})
	return prioritized
}

func dueOrNow(a campus.Assignment, now time.Time) time.Time {
	if a.DueDate.IsZero() {
		return now
	}
	return a.DueDate
}

func priorityRank(priority string) int {
	switch priority {
	case "high":
		return 0
	case "low":
		return 2
	default:
		return 1
	}
}

func assignmentDashboardText(total, pending, completed, overdue int, prioritized []campus.Assignment, now time.Time) string {
	lines := make([]string, 0, 5)
	for i, assignment := range prioritized {
		if i == 5 {
			break
		}
		title := assignment.Title
		if title == "" {
			title = "Assignment"
		}
		priority := assignment.Priority
		if priority == "" {
			priority = "medium"
		}
		lines = append(lines, fmt.Sprintf("%d. **%s** - Due: %s (%s priority)",
			i+1, title, dueOrNow(assignment, now).Format("Jan 02, 2006"), priority))
	}

	return fmt.Sprintf(`📝 **Assignment Dashboard**

**📊 Overview:**
• Total Assignments: %d
• Pending: %d
• Completed: %d
• ⚠️ Overdue: %d

**🎯 Top Priority Assignments:**
%s

**💡 Recommendations:**
• Focus on overdue assignments first
• Allocate time for high-priority tasks
• Break down large assignments into smaller tasks

Need help with any specific assignment? Just ask!`,
		total, pending, completed, overdue, strings.Join(lines, "\n"))
}

func assignmentFallbackText() string {
	return `📝 **Assignment Manager**

I'm here to help you manage your assignments! I can:
• Track all your assignments and deadlines
• Help you prioritize your work
• Generate content and outlines
• Provide study tips and resources

What do you need help with today?`
}
