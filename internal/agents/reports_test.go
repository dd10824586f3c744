package agents

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/campuscompanion/campusai/internal/campus"
	"github.com/campuscompanion/campusai/internal/llm"
)

func reportCampusStore() *campus.InMemoryStore {
	store := campus.NewInMemoryStore()
	store.AddUser(campus.User{ID: "s1", Role: "student", EnrolledCourses: []string{"c1", "c2"}})
	store.AddUser(campus.User{ID: "s2", Role: "student"})
	store.AddUser(campus.User{ID: "f1", Role: "faculty"})
	store.AddCourse(campus.Course{ID: "c1", Code: "CS101", Department: "Computer Science"})
	store.AddCourse(campus.Course{ID: "c2", Code: "CS201", Department: "Computer Science"})
	store.AddCourse(campus.Course{ID: "c3", Code: "GE100"})
	store.AddAssignment(campus.Assignment{UserID: "s1", Status: "completed"})
	store.AddAssignment(campus.Assignment{UserID: "s1", Status: "pending"})
	store.AddAssignment(campus.Assignment{UserID: "s2", Status: "completed"})
	store.AddAssignment(campus.Assignment{UserID: "s2", Status: "pending"})
	store.AddEvent(campus.Event{Title: "Hackathon", Status: "upcoming", StartsAt: time.Now().AddDate(0, 0, 3)})
	store.AddEvent(campus.Event{Title: "Career fair", Status: "upcoming", StartsAt: time.Now().AddDate(0, 0, 7)})
	store.AddEvent(campus.Event{Title: "Orientation", Status: "completed", StartsAt: time.Now().AddDate(0, 0, -30)})
	store.AddMaterial(campus.Material{Title: "Calculus notes"})
	store.AddMaterial(campus.Material{Title: "Physics lab guide"})
	return store
}

func TestReportStudentPerformance(t *testing.T) {
	store := reportCampusStore()
	var last llm.Request
	provider := &capturingProvider{text: "Cohort engagement is stable.", last: &last}

	agent := NewReportGenerator(provider, store)
	env := agent.Process(context.Background(), Request{UserID: "admin", Message: "student performance report"})

	if !env.Success {
		t.Fatal("envelope not successful")
	}
	if last.System != "" {
		t.Errorf("performance analysis should not send a system prompt, got %q", last.System)
	}
	if !strings.Contains(last.Prompt, "Total Students: 2") || !strings.Contains(last.Prompt, "Assignment Completion Rate: 50.0%") {
		t.Errorf("prompt = %q", last.Prompt)
	}

	for _, want := range []string{
		"📊 **Student Performance Report**",
		"• Total Students: 2",
		"• Active Students: 1",
		"• Average Courses per Student: 1.0",
		"• Assignment Completion Rate: 50.0%",
		"Cohort engagement is stable.",
	} {
		if !strings.Contains(env.Response, want) {
			t.Errorf("response missing %q:\n%s", want, env.Response)
		}
	}

	analysis := env.Analysis.(map[string]any)
	if analysis["total_students"] != 2 || analysis["active_students"] != 1 {
		t.Errorf("analysis = %v", analysis)
	}
	if rate, _ := analysis["completion_rate"].(float64); rate != 50 {
		t.Errorf("completion_rate = %v", analysis["completion_rate"])
	}

	if len(env.ActionsPerformed) != 1 || env.ActionsPerformed[0]["report_type"] != "student_performance" {
		t.Fatalf("actions = %v", env.ActionsPerformed)
	}

	logs := store.ActionLog()
	if len(logs) != 1 || logs[0].Action != "generate_report" || logs[0].UserID != "admin" {
		t.Fatalf("action log = %v", logs)
	}
}

func TestReportEngagement(t *testing.T) {
	store := reportCampusStore()
	agent := NewReportGenerator(stubProvider{}, store)

	env := agent.Process(context.Background(), Request{UserID: "admin", Message: "show me engagement numbers"})

	for _, want := range []string{
		"📊 **Engagement Analytics Report**",
		"• Total Events: 3",
		"• Upcoming Events: 2",
		"• Materials Available: 2",
	} {
		if !strings.Contains(env.Response, want) {
			t.Errorf("response missing %q:\n%s", want, env.Response)
		}
	}

	data := env.Data.(map[string]any)
	if data["events"] != 3 || data["materials"] != 2 {
		t.Errorf("data = %v", data)
	}
	if len(env.ActionsPerformed) != 1 || env.ActionsPerformed[0]["report_type"] != "engagement" {
		t.Fatalf("actions = %v", env.ActionsPerformed)
	}
	if logs := store.ActionLog(); len(logs) != 0 {
		t.Errorf("engagement report should not write the audit log, got %v", logs)
	}
}

func TestReportCourseAnalytics(t *testing.T) {
	agent := NewReportGenerator(stubProvider{}, reportCampusStore())
	env := agent.Process(context.Background(), Request{UserID: "admin", Message: "course analytics please"})

	for _, want := range []string{
		"📊 **Course Analytics Report**",
		"• Total Courses: 3",
		"• Departments: 2",
		"• Computer Science\n• Unknown",
	} {
		if !strings.Contains(env.Response, want) {
			t.Errorf("response missing %q:\n%s", want, env.Response)
		}
	}

	data := env.Data.(map[string]any)
	if data["courses"] != 3 || data["departments"] != 2 {
		t.Errorf("data = %v", data)
	}
}

func TestReportSystemOverview(t *testing.T) {
	agent := NewReportGenerator(stubProvider{}, reportCampusStore())
	env := agent.Process(context.Background(), Request{UserID: "admin", Message: "summary please"})

	for _, want := range []string{
		"📊 **System Overview Report**",
		"• Students: 2",
		"• Courses: 3",
		"• Events: 3",
		"• Study Materials: 2",
		"**✅ System Status:** All systems operational",
	} {
		if !strings.Contains(env.Response, want) {
			t.Errorf("response missing %q:\n%s", want, env.Response)
		}
	}
	if len(env.ActionsPerformed) != 1 || env.ActionsPerformed[0]["report_type"] != "overview" {
		t.Fatalf("actions = %v", env.ActionsPerformed)
	}
}
