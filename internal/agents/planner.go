package agents

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/campuscompanion/campusai/internal/campus"
	"github.com/campuscompanion/campusai/internal/llm"
	"github.com/campuscompanion/campusai/internal/plans"
)

// StudyPlanner turns a free-text academic goal into a phased study plan
// with recommended materials, persisting the plan for the dashboard.
type StudyPlanner struct {
	provider llm.Provider
	campus   campus.Store
	plans    plans.Store
}

func NewStudyPlanner(provider llm.Provider, campusStore campus.Store, planStore plans.Store) *StudyPlanner {
	return &StudyPlanner{provider: provider, campus: campusStore, plans: planStore}
}

func (a *StudyPlanner) Name() string { return "Study Planner Agent" }

func (a *StudyPlanner) Process(ctx context.Context, req Request) Envelope {
	env, err := a.createPlan(ctx, req)
	if err != nil {
		log.Printf("study planner: %v", err)
		return errorEnvelope(a.Name(), plannerFallbackText(req.Message), err)
	}
	return env
}

func (a *StudyPlanner) createPlan(ctx context.Context, req Request) (Envelope, error) {
	user, err := a.campus.GetUser(ctx, req.UserID)
	if terr := tolerate(ctx, err, "study planner: fetch user"); terr != nil {
		return Envelope{}, terr
	}

	courses, err := a.campus.ListCoursesByIDs(ctx, user.EnrolledCourses)
	if terr := tolerate(ctx, err, "study planner: fetch courses"); terr != nil {
		return Envelope{}, terr
	}

	assignments, err := a.campus.ListAssignments(ctx, req.UserID)
	if terr := tolerate(ctx, err, "study planner: fetch assignments"); terr != nil {
		return Envelope{}, terr
	}
	pending := 0
	for _, assignment := range assignments {
		if assignment.Status == "pending" {
			pending++
		}
	}

	analysis, err := a.analyzeGoal(ctx, req.Message, user, len(courses), pending)
	if err != nil {
		return Envelope{}, err
	}

	plan := buildPlanStructure(req.Message, analysis, time.Now())

	materials, err := a.findMaterials(ctx, req.Message)
	if err != nil {
		return Envelope{}, err
	}

	planID := a.savePlan(ctx, req.UserID, plan, materials)

	logAction(ctx, a.campus, a.Name(), "create_study_plan", req.UserID, map[string]any{
		"plan_id": planID,
		"goal":    req.Message,
		"phases":  len(plan.Phases),
	})

	recommendations := analysis.Recommendations
	if recommendations == nil {
		recommendations = []string{}
	}
	topMaterials := materials
	if len(topMaterials) > 5 {
		topMaterials = topMaterials[:5]
	}

	env := newEnvelope(a.Name(), plannerResponseText(plan, materials, analysis))
	env.ActionsPerformed = []Action{
		{"type": "study_plan_created", "plan_id": planID, "success": true},
		{"type": "materials_found", "count": len(materials), "success": true},
	}
	env.Analysis = analysis
	env.Data = map[string]any{
		"plan_id":    planID,
		"study_plan": plan,
		"materials":  topMaterials,
	}
	env.Recommendations = recommendations
	return env, nil
}

func (a *StudyPlanner) analyzeGoal(ctx context.Context, goal string, user campus.User, totalCourses, pendingAssignments int) (GoalAnalysis, error) {
	reply, err := generateText(ctx, a.provider, llm.Request{
		System: plannerAnalysisSystemPrompt(user, totalCourses, pendingAssignments),
		Prompt: fmt.Sprintf("Student Goal: %s\n\nAnalyze this study goal and provide structured guidance.", goal),
	}, plannerFallbackText(goal))
	if err != nil {
		return GoalAnalysis{}, err
	}
	return ParseGoalAnalysis(reply, goal), nil
}

func (a *StudyPlanner) findMaterials(ctx context.Context, query string) ([]plans.RecommendedMaterial, error) {
	found, err := a.campus.SearchMaterials(ctx, query, 50)
	if terr := tolerate(ctx, err, "study planner: search materials"); terr != nil {
		return nil, terr
	}

	recommended := make([]plans.RecommendedMaterial, 0, len(found))
	for _, m := range found {
		recommended = append(recommended, plans.RecommendedMaterial{
			Material:       m,
			RelevanceScore: 85,
			AIRecommended:  true,
		})
	}
	return recommended, nil
}

// savePlan persists the plan. Persistence failure downgrades to the
// sentinel "temp_id" so the reply can still reference a plan.
func (a *StudyPlanner) savePlan(ctx context.Context, userID string, plan plans.StudyPlan, materials []plans.RecommendedMaterial) string {
	record := plans.Record{
		ID:        uuid.NewString(),
		UserID:    userID,
		PlanType:  "study",
		Goal:      plan.Goal,
		Status:    "active",
		Plan:      plan,
		Materials: materials,
	}
	if err := a.plans.SavePlan(ctx, record); err != nil {
		log.Printf("study planner: save plan: %v", err)
		return "temp_id"
	}
	return record.ID
}

func buildPlanStructure(goal string, analysis GoalAnalysis, now time.Time) plans.StudyPlan {
	weeks := ParseDurationWeeks(analysis.EstimatedDuration)

	phases := make([]plans.Phase, 0, weeks)
	for week := 0; week < weeks; week++ {
		phase := plans.Phase{
			Name:      fmt.Sprintf("Week %d", week+1),
			Order:     week,
			Duration:  "1 week",
			StartDate: now.AddDate(0, 0, 7*week),
			EndDate:   now.AddDate(0, 0, 7*(week+1)),
		}
		for day := 0; day < 7; day++ {
			priority := "medium"
			if day < 3 {
				priority = "high"
			}
			phase.Tasks = append(phase.Tasks, plans.PlanTask{
				Title:          fmt.Sprintf("Day %d: Study Session", day+1),
				Description:    fmt.Sprintf("Focus on %s", goal),
				Type:           plans.TaskTypeStudy,
				EstimatedHours: 2,
				Deadline:       now.AddDate(0, 0, 7*week+day),
				Status:         "pending",
				Priority:       priority,
			})
		}
		phase.Tasks = append(phase.Tasks, plans.PlanTask{
			Title:          fmt.Sprintf("Week %d Assessment", week+1),
			Description:    fmt.Sprintf("Test your understanding of %s", goal),
			Type:           plans.TaskTypeAssessment,
			EstimatedHours: 1,
			Deadline:       phase.EndDate,
			Status:         "pending",
			Priority:       "high",
		})
		phases = append(phases, phase)
	}

	topics := analysis.KeyTopics
	if topics == nil {
		topics = []string{}
	}
	difficulty := analysis.DifficultyLevel
	if difficulty == "" {
		difficulty = "intermediate"
	}

	return plans.StudyPlan{
		Goal:          goal,
		Phases:        phases,
		TotalDuration: fmt.Sprintf("%d weeks", weeks),
		KeyTopics:     topics,
		Difficulty:    difficulty,
		CreatedAt:     now,
	}
}

func plannerAnalysisSystemPrompt(user campus.User, totalCourses, pendingAssignments int) string {
	department := user.Department
	if department == "" {
		department = "N/A"
	}
	year := "N/A"
	if user.Year > 0 {
		year = strconv.Itoa(user.Year)
	}

	return fmt.Sprintf(`You are an expert academic advisor. Analyze the student's study goal and provide insights.

Student Context:
- Department: %s
- Year: %s
- Enrolled Courses: %d
- Pending Assignments: %d

Provide analysis in JSON format:
{
    "goal_type": "exam_prep|skill_learning|course_completion|general_study",
    "difficulty_level": "beginner|intermediate|advanced",
    "estimated_duration": "number of weeks",
    "key_topics": ["topic1", "topic2"],
    "prerequisites": ["prereq1", "prereq2"],
    "recommendations": ["rec1", "rec2"]
}`, department, year, totalCourses, pendingAssignments)
}

func plannerResponseText(plan plans.StudyPlan, materials []plans.RecommendedMaterial, analysis GoalAnalysis) string {
	topics := analysis.KeyTopics
	if topics == nil {
		topics = []string{"Core concepts"}
	}

	titles := make([]string, 0, len(materials))
	for _, m := range materials {
		title := m.Title
		if title == "" {
			title = "Material"
		}
		titles = append(titles, title)
	}

	return fmt.Sprintf(`✅ **Study Plan Created Successfully!**

📚 **Goal:** %s
⏱️ **Duration:** %s
📊 **Difficulty:** %s

**📅 Plan Structure:**
• %d phases (weeks) of structured learning
• Daily study sessions (2 hours recommended)
• Weekly assessments to track progress

**🎯 Key Topics to Cover:**
%s

**📖 Study Materials Found:** %d resources
%s

**💡 AI Recommendations:**
%s

**🚀 Next Steps:**
1. Review your personalized plan in the dashboard
2. Access study materials from the resources section
3. Start with Week 1, Day 1 tasks
4. Track your progress regularly

Your study plan is ready! Let's achieve your academic goals together! 🎓`,
		plan.Goal,
		plan.TotalDuration,
		titleWord(plan.Difficulty),
		len(plan.Phases),
		bulletLines(topics, 5),
		len(materials),
		bulletLines(titles, 3),
		bulletLines(analysis.Recommendations, 3),
	)
}

func plannerFallbackText(goal string) string {
	return fmt.Sprintf(`📚 I've created a basic study plan for: %s

**Plan Overview:**
• Duration: 2 weeks
• Daily study sessions: 2 hours
• Weekly assessments
• Recommended materials will be provided

I'll help you stay on track with your studies! Check your dashboard for the complete plan.`, goal)
}
