package agents

import (
	"encoding/json"
	"strconv"
	"strings"
)

// GoalAnalysis is the structured study-goal analysis a model returns.
// Slice fields stay nil when the model omitted them; callers pick their
// own defaults per use.
type GoalAnalysis struct {
	GoalType          string   `json:"goal_type"`
	DifficultyLevel   string   `json:"difficulty_level"`
	EstimatedDuration string   `json:"estimated_duration"`
	KeyTopics         []string `json:"key_topics"`
	Prerequisites     []string `json:"prerequisites"`
	Recommendations   []string `json:"recommendations"`
}

// ExtractJSONBlock pulls the JSON object out of a model reply. Fenced
// blocks win, then the outermost brace pair, then the raw reply.
func ExtractJSONBlock(reply string) string {
	if strings.Contains(reply, "```json") {
		after := strings.SplitN(reply, "```json", 2)[1]
		return strings.TrimSpace(strings.SplitN(after, "```", 2)[0])
	}
	if strings.Contains(reply, "```") {
		return strings.TrimSpace(strings.SplitN(reply, "```", 3)[1])
	}
	if start := strings.Index(reply, "{"); start != -1 {
		if end := strings.LastIndex(reply, "}"); end >= start {
			return reply[start : end+1]
		}
		return ""
	}
	return reply
}

// ParseGoalAnalysis decodes analysis JSON from a model reply, falling
// back to a deterministic general-study analysis when the reply cannot
// be parsed as an object.
func ParseGoalAnalysis(reply, query string) GoalAnalysis {
	var analysis GoalAnalysis
	if err := json.Unmarshal([]byte(ExtractJSONBlock(reply)), &analysis); err != nil {
		return FallbackGoalAnalysis(query)
	}
	return analysis
}

// FallbackGoalAnalysis is the fixed analysis used when no model reply is
// usable. The query itself becomes the single key topic.
func FallbackGoalAnalysis(query string) GoalAnalysis {
	return GoalAnalysis{
		GoalType:          "general_study",
		DifficultyLevel:   "intermediate",
		EstimatedDuration: "2 weeks",
		KeyTopics:         []string{query},
		Prerequisites:     []string{},
		Recommendations: []string{
			"Start with fundamentals",
			"Practice regularly",
			"Review materials daily",
		},
	}
}

// ParseDurationWeeks reads the leading integer from a duration phrase
// like "3 weeks". Unparseable or non-positive values mean two weeks.
func ParseDurationWeeks(duration string) int {
	fields := strings.Fields(duration)
	if len(fields) == 0 {
		return 2
	}
	weeks, err := strconv.Atoi(fields[0])
	if err != nil || weeks < 1 {
		return 2
	}
	return weeks
}
