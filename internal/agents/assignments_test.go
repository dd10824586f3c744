package agents

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/campuscompanion/campusai/internal/campus"
	"github.com/campuscompanion/campusai/internal/llm"
)

func TestAssignmentDashboardPrioritizesPending(t *testing.T) {
	store := campus.NewInMemoryStore()
	now := time.Now()
	store.AddAssignment(campus.Assignment{UserID: "u1", Title: "Late lab report", Status: "pending", Priority: "high", DueDate: now.AddDate(0, 0, -1)})
	store.AddAssignment(campus.Assignment{UserID: "u1", Title: "Optional reading", Status: "pending", Priority: "low", DueDate: now.AddDate(0, 0, 1)})
	store.AddAssignment(campus.Assignment{UserID: "u1", Title: "Midterm essay", Status: "pending", Priority: "high", DueDate: now.AddDate(0, 0, 1)})
	store.AddAssignment(campus.Assignment{UserID: "u1", Title: "Orientation quiz", Status: "completed", Priority: "medium", DueDate: now.AddDate(0, 0, -3)})

	agent := NewAssignmentManager(stubProvider{}, store)
	env := agent.Process(context.Background(), Request{UserID: "u1", Message: "list my assignments"})

	if !env.Success {
		t.Fatal("envelope not successful")
	}
	analysis, ok := env.Analysis.(map[string]any)
	if !ok {
		t.Fatalf("analysis = %T", env.Analysis)
	}
	if analysis["total"] != 4 || analysis["pending"] != 3 || analysis["completed"] != 1 || analysis["overdue"] != 1 {
		t.Errorf("analysis = %v", analysis)
	}

	data := env.Data.(map[string]any)
	prioritized, ok := data["assignments"].([]campus.Assignment)
	if !ok || len(prioritized) != 3 {
		t.Fatalf("assignments = %v", data["assignments"])
	}
	wantOrder := []string{"Late lab report", "Midterm essay", "Optional reading"}
	for i, want := range wantOrder {
		if prioritized[i].Title != want {
			t.Errorf("prioritized[%d] = %q, want %q", i, prioritized[i].Title, want)
		}
	}

	for _, want := range []string{
		"• Total Assignments: 4",
		"• Pending: 3",
		"• Completed: 1",
		"• ⚠️ Overdue: 1",
		"1. **Late lab report** - Due: " + now.AddDate(0, 0, -1).Format("Jan 02, 2006") + " (high priority)",
	} {
		if !strings.Contains(env.Response, want) {
			t.Errorf("response missing %q:\n%s", want, env.Response)
		}
	}

	if len(env.ActionsPerformed) != 1 {
		t.Fatalf("actions = %v", env.ActionsPerformed)
	}
	action := env.ActionsPerformed[0]
	if action["type"] != "assignments_analyzed" || action["count"] != 4 {
		t.Errorf("action = %v", action)
	}
}

func TestAssignmentMissingDueDateSortsAsNow(t *testing.T) {
	now := time.Now()
	pending := []campus.Assignment{
		{Title: "Due tomorrow", DueDate: now.AddDate(0, 0, 1)},
		{Title: "No due date"},
		{Title: "Due yesterday", DueDate: now.AddDate(0, 0, -1)},
	}
	got := prioritizeAssignments(pending, now)
	wantOrder := []string{"Due yesterday", "No due date", "Due tomorrow"}
	for i, want := range wantOrder {
		if got[i].Title != want {
			t.Errorf("order[%d] = %q, want %q", i, got[i].Title, want)
		}
	}
}

func TestAssignmentListEmpty(t *testing.T) {
	agent := NewAssignmentManager(stubProvider{}, campus.NewInMemoryStore())
	env := agent.Process(context.Background(), Request{UserID: "u1", Message: "show my assignments"})

	want := "📝 You don't have any assignments yet. When assignments are added, I'll help you manage them!"
	if env.Response != want {
		t.Fatalf("response = %q", env.Response)
	}
	if len(env.ActionsPerformed) != 0 {
		t.Errorf("actions = %v, want none", env.ActionsPerformed)
	}
	data := env.Data.(map[string]any)
	assignments, ok := data["assignments"].([]campus.Assignment)
	if !ok || len(assignments) != 0 {
		t.Errorf("data assignments = %v, want empty list", data["assignments"])
	}
}

func TestAssignmentGenerateContent(t *testing.T) {
	var last llm.Request
	provider := &capturingProvider{text: "1. Introduction\n2. Analysis\n3. Conclusion", last: &last}
	agent := NewAssignmentManager(provider, campus.NewInMemoryStore())

	env := agent.Process(context.Background(), Request{UserID: "u1", Message: "generate an outline for my climate essay"})

	if !strings.Contains(last.System, "expert academic assistant") {
		t.Errorf("system prompt = %q", last.System)
	}
	if last.Prompt != "generate an outline for my climate essay" {
		t.Errorf("prompt = %q", last.Prompt)
	}
	for _, want := range []string{
		"✍️ **Assignment Content Generation**",
		"1. Introduction\n2. Analysis\n3. Conclusion",
		"• Start with an outline",
	} {
		if !strings.Contains(env.Response, want) {
			t.Errorf("response missing %q", want)
		}
	}
	if len(env.ActionsPerformed) != 1 || env.ActionsPerformed[0]["type"] != "content_generated" {
		t.Fatalf("actions = %v", env.ActionsPerformed)
	}
}

func TestAssignmentHelpKeyword(t *testing.T) {
	var last llm.Request
	provider := &capturingProvider{text: "Break the proof into lemmas.", last: &last}
	agent := NewAssignmentManager(provider, campus.NewInMemoryStore())

	env := agent.Process(context.Background(), Request{UserID: "u1", Message: "I'm stuck on question 3"})

	if !strings.Contains(last.System, "academic tutor") {
		t.Errorf("system prompt = %q", last.System)
	}
	if !strings.HasPrefix(env.Response, "📖 **Assignment Help**\n\nBreak the proof into lemmas.") {
		t.Errorf("response = %q", env.Response)
	}
	if len(env.ActionsPerformed) != 1 || env.ActionsPerformed[0]["type"] != "help_provided" {
		t.Fatalf("actions = %v", env.ActionsPerformed)
	}
}

func TestAssignmentOverviewCounts(t *testing.T) {
	store := campus.NewInMemoryStore()
	store.AddAssignment(campus.Assignment{UserID: "u1", Title: "Essay", Status: "pending"})
	store.AddAssignment(campus.Assignment{UserID: "u1", Title: "Quiz", Status: "completed"})
	store.AddAssignment(campus.Assignment{UserID: "other", Title: "Not mine", Status: "pending"})

	agent := NewAssignmentManager(stubProvider{}, store)
	env := agent.Process(context.Background(), Request{UserID: "u1", Message: "deadlines?"})

	if !strings.Contains(env.Response, "You currently have **2 assignments**.") {
		t.Errorf("response = %q", env.Response)
	}
	if len(env.ActionsPerformed) != 0 {
		t.Errorf("actions = %v, want none", env.ActionsPerformed)
	}
}

func TestAssignmentGenerationDegradesToFallback(t *testing.T) {
	agent := NewAssignmentManager(stubProvider{err: context.DeadlineExceeded}, campus.NewInMemoryStore())
	env := agent.Process(context.Background(), Request{UserID: "u1", Message: "write my lab intro"})

	if !env.Success {
		t.Fatal("degraded generation should still succeed")
	}
	if !strings.Contains(env.Response, "✍️ **Assignment Content Generation**") {
		t.Errorf("response lost the generation frame:\n%s", env.Response)
	}
	if !strings.Contains(env.Response, "I'm here to help you manage your assignments!") {
		t.Errorf("response missing fallback body:\n%s", env.Response)
	}
}
