package agents

import (
	"reflect"
	"testing"
)

func TestExtractJSONBlockFencedJSON(t *testing.T) {
	reply := "Here is the analysis:\n```json\n{\"goal_type\": \"exam_prep\"}\n```\nGood luck!"
	got := ExtractJSONBlock(reply)
	want := `{"goal_type": "exam_prep"}`
	if got != want {
		t.Fatalf("ExtractJSONBlock = %q, want %q", got, want)
	}
}

func TestExtractJSONBlockBareFence(t *testing.T) {
	reply := "```\n{\"difficulty_level\": \"advanced\"}\n```"
	got := ExtractJSONBlock(reply)
	want := `{"difficulty_level": "advanced"}`
	if got != want {
		t.Fatalf("ExtractJSONBlock = %q, want %q", got, want)
	}
}

func TestExtractJSONBlockBracePair(t *testing.T) {
	reply := `Sure! {"estimated_duration": "4 weeks"} Let me know if you need more.`
	got := ExtractJSONBlock(reply)
	want := `{"estimated_duration": "4 weeks"}`
	if got != want {
		t.Fatalf("ExtractJSONBlock = %q, want %q", got, want)
	}
}

func TestExtractJSONBlockUnclosedBrace(t *testing.T) {
	if got := ExtractJSONBlock("the object { never closes"); got != "" {
		t.Fatalf("ExtractJSONBlock = %q, want empty", got)
	}
}

func TestExtractJSONBlockPlainReply(t *testing.T) {
	if got := ExtractJSONBlock("no structure at all"); got != "no structure at all" {
		t.Fatalf("ExtractJSONBlock = %q, want the raw reply", got)
	}
}

func TestParseGoalAnalysisReadsFields(t *testing.T) {
	reply := "```json\n" +
		`{"goal_type": "skill_learning", "difficulty_level": "beginner", "estimated_duration": "5 weeks", "key_topics": ["syntax", "tooling"], "prerequisites": ["none"], "recommendations": ["build something small"]}` +
		"\n```"
	got := ParseGoalAnalysis(reply, "learn go")
	if got.GoalType != "skill_learning" {
		t.Errorf("GoalType = %q, want skill_learning", got.GoalType)
	}
	if got.EstimatedDuration != "5 weeks" {
		t.Errorf("EstimatedDuration = %q, want 5 weeks", got.EstimatedDuration)
	}
	if !reflect.DeepEqual(got.KeyTopics, []string{"syntax", "tooling"}) {
		t.Errorf("KeyTopics = %v", got.KeyTopics)
	}
}

func TestParseGoalAnalysisFallsBack(t *testing.T) {
	got := ParseGoalAnalysis("I cannot answer in JSON, sorry.", "pass linear algebra")
	if got.GoalType != "general_study" || got.DifficultyLevel != "intermediate" {
		t.Fatalf("fallback analysis = %+v", got)
	}
	if got.EstimatedDuration != "2 weeks" {
		t.Errorf("EstimatedDuration = %q, want 2 weeks", got.EstimatedDuration)
	}
	if !reflect.DeepEqual(got.KeyTopics, []string{"pass linear algebra"}) {
		t.Errorf("KeyTopics = %v, want the query", got.KeyTopics)
	}
	if len(got.Recommendations) != 3 {
		t.Errorf("Recommendations = %v, want three defaults", got.Recommendations)
	}
}

func TestParseDurationWeeks(t *testing.T) {
	cases := []struct {
		in   string
		want int
	}{
		{"3 weeks", 3},
		{"6", 6},
		{"two weeks", 2},
		{"", 2},
		{"0 weeks", 2},
		{"-1 weeks", 2},
	}
	for _, tc := range cases {
		if got := ParseDurationWeeks(tc.in); got != tc.want {
			t.Errorf("ParseDurationWeeks(%q) = %d, want %d", tc.in, got, tc.want)
		}
	}
}
