package agents

import (
	"context"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/campuscompanion/campusai/internal/campus"
	"github.com/campuscompanion/campusai/internal/classify"
	"github.com/campuscompanion/campusai/internal/llm"
)

var (
	reportPerformanceVocabulary = classify.Vocabulary{"student", "performance", "grades"}
	reportEngagementVocabulary  = classify.Vocabulary{"engagement", "activity", "participation"}
	reportCourseVocabulary      = classify.Vocabulary{"course", "enrollment", "class"}
)

// ReportGenerator produces institution-wide analytics reports for
// administrators: performance, engagement, course analytics, and a
// system overview.
type ReportGenerator struct {
	provider llm.Provider
	campus   campus.Store
}

func NewReportGenerator(provider llm.Provider, campusStore campus.Store) *ReportGenerator {
	return &ReportGenerator{provider: provider, campus: campusStore}
}

func (a *ReportGenerator) Name() string { return "Report Generator Agent" }

func (a *ReportGenerator) Process(ctx context.Context, req Request) Envelope {
	env, err := a.respond(ctx, req)
	if err != nil {
		log.Printf("report generator: %v", err)
		return errorEnvelope(a.Name(), reportFallbackText(), err)
	}
	return env
}

func (a *ReportGenerator) respond(ctx context.Context, req Request) (Envelope, error) {
	switch {
	case reportPerformanceVocabulary.Matches(req.Message):
		return a.studentPerformance(ctx)
	case reportEngagementVocabulary.Matches(req.Message):
		return a.engagement(ctx)
	case reportCourseVocabulary.Matches(req.Message):
		return a.courseAnalytics(ctx)
	default:
		return a.systemOverview(ctx)
	}
}

func (a *ReportGenerator) studentPerformance(ctx context.Context) (Envelope, error) {
	students, err := a.campus.ListStudents(ctx, 1000)
	if terr := tolerate(ctx, err, "report generator: fetch students"); terr != nil {
		return Envelope{}, terr
	}
	courses, err := a.campus.ListCourses(ctx)
	if terr := tolerate(ctx, err, "report generator: fetch courses"); terr != nil {
		return Envelope{}, terr
	}
	assignments, err := a.campus.ListAllAssignments(ctx, 1000)
	if terr := tolerate(ctx, err, "report generator: fetch assignments"); terr != nil {
		return Envelope{}, terr
	}

	active := 0
	enrollments := 0
	for _, student := range students {
		if len(student.EnrolledCourses) > 0 {
			active++
		}
		enrollments += len(student.EnrolledCourses)
	}
	studentDenom := len(students)
	if studentDenom == 0 {
		studentDenom = 1
	}
	avgCourses := float64(enrollments) / float64(studentDenom)

	completedAssignments := 0
	for _, assignment := range assignments {
		if assignment.Status == "completed" {
			completedAssignments++
		}
	}
	assignmentDenom := len(assignments)
	if assignmentDenom == 0 {
		assignmentDenom = 1
	}
	completionRate := float64(completedAssignments) / float64(assignmentDenom) * 100

	prompt := fmt.Sprintf(`Analyze this student performance data and provide insights:

Total Students: %d
Active Students: %d
Avg Courses per Student: %.1f
Assignment Completion Rate: %.1f%%

Provide:
1. Key insights
2. Trends
3. Recommendations for improvement
4. Areas of concern`, len(students), active, avgCourses, completionRate)

	insights, err := generateText(ctx, a.provider, llm.Request{Prompt: prompt}, reportFallbackText())
	if err != nil {
		return Envelope{}, err
	}

	text := fmt.Sprintf(`📊 **Student Performance Report**

**📈 Key Metrics:**
• Total Students: %d
• Active Students: %d
• Average Courses per Student: %.1f
• Assignment Completion Rate: %.1f%%

**🔍 AI Insights:**
%s

**📅 Report Generated:** %s

This report provides a comprehensive overview of student performance across the institution.`,
		len(students), active, avgCourses, completionRate, insights, longTimestamp(time.Now()))

	logAction(ctx, a.campus, a.Name(), "generate_report", "admin", map[string]any{
		"report_type":       "student_performance",
		"students_analyzed": len(students),
	})

	env := newEnvelope(a.Name(), text)
	env.ActionsPerformed = []Action{
		{"type": "report_generated", "report_type": "student_performance", "success": true},
	}
	env.Analysis = map[string]any{
		"total_students":  len(students),
		"active_students": active,
		"completion_rate": completionRate,
	}
	env.Data = map[string]any{
		"students":    len(students),
		"courses":     len(courses),
		"assignments": len(assignments),
	}
	return env, nil
}

func (a *ReportGenerator) engagement(ctx context.Context) (Envelope, error) {
	events, err := a.campus.ListEvents(ctx)
	if terr := tolerate(ctx, err, "report generator: fetch events"); terr != nil {
		return Envelope{}, terr
	}
	materials, err := a.campus.SearchMaterials(ctx, "", 100)
	if terr := tolerate(ctx, err, "report generator: fetch materials"); terr != nil {
		return Envelope{}, terr
	}

	upcoming := 0
	for _, event := range events {
		if event.Status == "upcoming" {
			upcoming++
		}
	}

	text := fmt.Sprintf(`📊 **Engagement Analytics Report**

**🎯 Event Metrics:**
• Total Events: %d
• Upcoming Events: %d
• Materials Available: %d

**💡 Engagement Insights:**
• Students are actively participating in campus activities
• Study materials are being regularly accessed
• Event registration shows healthy engagement levels

**📅 Generated:** %s`,
		len(events), upcoming, len(materials), longDate(time.Now()))

	env := newEnvelope(a.Name(), text)
	env.ActionsPerformed = []Action{
		{"type": "report_generated", "report_type": "engagement", "success": true},
	}
	env.Data = map[string]any{
		"events":    len(events),
		"materials": len(materials),
	}
	return env, nil
}

func (a *ReportGenerator) courseAnalytics(ctx context.Context) (Envelope, error) {
	courses, err := a.campus.ListCourses(ctx)
	if terr := tolerate(ctx, err, "report generator: fetch courses"); terr != nil {
		return Envelope{}, terr
	}

	departmentSet := make(map[string]struct{})
	for _, course := range courses {
		department := course.Department
		if department == "" {
			department = "Unknown"
		}
		departmentSet[department] = struct{}{}
	}
	departments := make([]string, 0, len(departmentSet))
	for department := range departmentSet {
		departments = append(departments, department)
	}
	sort.Strings(departments)

	text := fmt.Sprintf(`📊 **Course Analytics Report**

**📚 Course Metrics:**
• Total Courses: %d
• Departments: %d
• Average Enrollment: Calculating...

**🎓 Department Breakdown:**
%s

**📅 Generated:** %s`,
		len(courses), len(departments), bulletLines(departments, len(departments)), longDate(time.Now()))

	env := newEnvelope(a.Name(), text)
	env.ActionsPerformed = []Action{
		{"type": "report_generated", "report_type": "course_analytics", "success": true},
	}
	env.Data = map[string]any{
		"courses":     len(courses),
		"departments": len(departments),
	}
	return env, nil
}

func (a *ReportGenerator) systemOverview(ctx context.Context) (Envelope, error) {
	counts, err := a.campus.Counts(ctx)
	if terr := tolerate(ctx, err, "report generator: fetch counts"); terr != nil {
		return Envelope{}, terr
	}

	text := fmt.Sprintf(`📊 **System Overview Report**

**🎓 Institution Snapshot:**
• Students: %d
• Courses: %d
• Events: %d
• Study Materials: %d

**✅ System Status:** All systems operational
**📅 Report Date:** %s

**💡 Quick Insights:**
• Platform is actively being used by students and faculty
• Content library is growing
• Engagement metrics show positive trends

For detailed analytics, request specific report types (student performance, engagement, or course analytics).`,
		counts.Students, counts.Courses, counts.Events, counts.Materials, longTimestamp(time.Now()))

	env := newEnvelope(a.Name(), text)
	env.ActionsPerformed = []Action{
		{"type": "report_generated", "report_type": "overview", "success": true},
	}
	env.Data = map[string]any{
		"students":  counts.Students,
		"courses":   counts.Courses,
		"events":    counts.Events,
		"materials": counts.Materials,
	}
	return env, nil
}

func reportFallbackText() string {
	return `📊 **Report Generator**

I can generate comprehensive reports including:
• Student Performance Analytics
• Engagement Metrics
• Course Analytics
• System Overview

What type of report would you like to generate?`
}
