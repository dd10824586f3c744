package agents

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/campuscompanion/campusai/internal/campus"
	"github.com/campuscompanion/campusai/internal/llm"
)

func TestHelpdeskCategorizePrefersContextDescription(t *testing.T) {
	var last llm.Request
	provider := &capturingProvider{text: "Category: Technical Issue\nPriority: High", last: &last}
	agent := NewHelpdeskManager(provider, campus.NewInMemoryStore())

	description := strings.Repeat("projector in room B12 flickers ", 5)
	env := agent.Process(context.Background(), Request{
		UserID:  "staff1",
		Message: "categorize this ticket",
		Context: map[string]any{"description": description},
	})

	if last.Prompt != description {
		t.Errorf("prompt = %q, want the context description", last.Prompt)
	}
	if !strings.Contains(last.System, "helpdesk categorization expert") {
		t.Errorf("system prompt = %q", last.System)
	}
	if !strings.Contains(env.Response, "**Ticket:** "+truncateRunes(description, 100)+"...") {
		t.Errorf("response missing truncated ticket text:\n%s", env.Response)
	}
	if len(env.ActionsPerformed) != 2 {
		t.Fatalf("actions = %v", env.ActionsPerformed)
	}
	if env.ActionsPerformed[0]["type"] != "ticket_categorized" || env.ActionsPerformed[1]["type"] != "priority_assigned" {
		t.Errorf("actions = %v", env.ActionsPerformed)
	}
}

func TestHelpdeskSolutionSuggestion(t *testing.T) {
	var last llm.Request
	provider := &capturingProvider{text: "1. Restart the access point.", last: &last}
	agent := NewHelpdeskManager(provider, campus.NewInMemoryStore())

	env := agent.Process(context.Background(), Request{UserID: "staff1", Message: "how do we fix the dorm wifi outage"})

	if !strings.Contains(last.System, "technical support expert") {
		t.Errorf("system prompt = %q", last.System)
	}
	for _, want := range []string{
		"💡 **Solution Suggestion**",
		"**Issue:** how do we fix the dorm wifi outage...",
		"1. Restart the access point.",
	} {
		if !strings.Contains(env.Response, want) {
			t.Errorf("response missing %q:\n%s", want, env.Response)
		}
	}
	if len(env.ActionsPerformed) != 1 || env.ActionsPerformed[0]["type"] != "solution_generated" {
		t.Fatalf("actions = %v", env.ActionsPerformed)
	}
}

func TestHelpdeskDashboardCounts(t *testing.T) {
	store := campus.NewInMemoryStore()
	store.AddTicket(campus.Ticket{Subject: "Login loop", Status: "open", Priority: "high"})
	store.AddTicket(campus.Ticket{Subject: "Broken link", Status: "open", Priority: "medium"})
	store.AddTicket(campus.Ticket{Subject: "Old request", Status: "resolved", Priority: "low"})

	agent := NewHelpdeskManager(stubProvider{}, store)
	env := agent.Process(context.Background(), Request{UserID: "staff1", Message: "show open tickets"})

	for _, want := range []string{
		"🎫 **Helpdesk Dashboard**",
		"• Total Tickets: 3",
		"• Open: 2",
		"• Resolved: 1",
		"• High Priority: 1",
		"• Medium Priority: 1",
		"• Low Priority: 1",
	} {
		if !strings.Contains(env.Response, want) {
			t.Errorf("response missing %q:\n%s", want, env.Response)
		}
	}

	analysis := env.Analysis.(map[string]any)
	if analysis["total"] != 3 || analysis["open"] != 2 || analysis["resolved"] != 1 {
		t.Errorf("analysis = %v", analysis)
	}
	data := env.Data.(map[string]any)
	if tickets, ok := data["tickets"].([]campus.Ticket); !ok || len(tickets) != 3 {
		t.Errorf("data tickets = %v", data["tickets"])
	}
	if len(env.ActionsPerformed) != 0 {
		t.Errorf("actions = %v, want none", env.ActionsPerformed)
	}
}

func TestHelpdeskDashboardZeroTickets(t *testing.T) {
	agent := NewHelpdeskManager(stubProvider{}, campus.NewInMemoryStore())
	env := agent.Process(context.Background(), Request{UserID: "staff1", Message: "list tickets"})

	if !strings.Contains(env.Response, "• Total Tickets: 0") {
		t.Errorf("empty queue should still render the dashboard:\n%s", env.Response)
	}
}

type brokenTicketStore struct {
	campus.Store
}

func (brokenTicketStore) ListTickets(context.Context, int) ([]campus.Ticket, error) {
	return nil, errors.New("tickets collection offline")
}

func TestHelpdeskTicketStoreError(t *testing.T) {
	agent := NewHelpdeskManager(stubProvider{}, brokenTicketStore{Store: campus.NewInMemoryStore()})
	env := agent.Process(context.Background(), Request{UserID: "staff1", Message: "list tickets"})

	if env.Response != "Currently, there are no tickets in the system." {
		t.Fatalf("response = %q", env.Response)
	}
	if !env.Success {
		t.Error("store failure should degrade, not fail")
	}
	data := env.Data.(map[string]any)
	if tickets, ok := data["tickets"].([]campus.Ticket); !ok || len(tickets) != 0 {
		t.Errorf("data tickets = %v", data["tickets"])
	}
}

func TestHelpdeskGeneralMenu(t *testing.T) {
	agent := NewHelpdeskManager(stubProvider{}, campus.NewInMemoryStore())
	env := agent.Process(context.Background(), Request{UserID: "staff1", Message: "what can you do"})

	if !strings.Contains(env.Response, "🎫 **Helpdesk Manager**") {
		t.Errorf("response = %q", env.Response)
	}
	if !strings.Contains(env.Response, "• 👥 Auto-assign tickets to staff") {
		t.Errorf("response missing menu line:\n%s", env.Response)
	}
	if len(env.ActionsPerformed) != 0 {
		t.Errorf("actions = %v, want none", env.ActionsPerformed)
	}
}
