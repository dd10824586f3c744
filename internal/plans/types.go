package plans

import (
	"time"

	"github.com/campuscompanion/campusai/internal/campus"
)

type TaskType string

const (
	TaskTypeStudy      TaskType = "study"
	TaskTypeAssessment TaskType = "assessment"
)

// PlanTask is a single scheduled activity inside a phase.
type PlanTask struct {
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	Type           TaskType  `json:"type"`
	EstimatedHours int       `json:"estimated_hours"`
	Deadline       time.Time `json:"deadline"`
	Status         string    `json:"status"`
	Priority       string    `json:"priority"`
}

// Phase is one week of a study plan: seven daily sessions plus a
// closing assessment.
type Phase struct {
	Name      string     `json:"name"`
	Order     int        `json:"order"`
	Duration  string     `json:"duration"`
	StartDate time.Time  `json:"start_date"`
	EndDate   time.Time  `json:"end_date"`
	Tasks     []PlanTask `json:"tasks"`
}

type StudyPlan struct {
	Goal          string    `json:"goal"`
	Phases        []Phase   `json:"phases"`
	TotalDuration string    `json:"total_duration"`
	KeyTopics     []string  `json:"key_topics"`
	Difficulty    string    `json:"difficulty"`
	CreatedAt     time.Time `json:"created_at"`
}

// RecommendedMaterial is a campus material annotated for the plan.
type RecommendedMaterial struct {
	campus.Material
	RelevanceScore int  `json:"relevance_score"`
	AIRecommended  bool `json:"ai_recommended"`
}

// Record is the persisted study-plan document.
type Record struct {
	ID        string                `json:"id"`
	UserID    string                `json:"user_id"`
	PlanType  string                `json:"plan_type"`
	Goal      string                `json:"goal"`
	Status    string                `json:"status"`
	Plan      StudyPlan             `json:"plan"`
	Materials []RecommendedMaterial `json:"materials"`
	CreatedAt time.Time             `json:"created_at"`
	UpdatedAt time.Time             `json:"updated_at"`
}
