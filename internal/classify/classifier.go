package classify

import "strings"

// Target identifies which responder should handle an actionable message.
type Target string

const (
	TargetStudyPlanner      Target = "study_planner"
	TargetAssignmentManager Target = "assignment_manager"
	TargetGeneral           Target = "general"
)

// Vocabulary is an ordered keyword list matched case-insensitively as
// substrings of the message.
type Vocabulary []string

func (v Vocabulary) Matches(message string) bool {
	lower := strings.ToLower(message)
	for _, kw := range v {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// Classifier decides whether a message asks the service to take an action
// and, if so, which responder should handle it.
type Classifier interface {
	ActionIntent(message string) bool
	Responder(message string) Target
}

// Any hit in the action vocabulary sends the turn to a responder instead
// of the conversational completion path.
var actionVocabulary = Vocabulary{
	"create", "generate", "make", "show me", "find", "search",
	"enroll", "register", "add", "schedule", "plan",
	"list my", "what are my", "get my",
}

// Responder vocabularies, checked in order. Study planning wins when a
// message matches both.
var (
	studyPlanVocabulary  = Vocabulary{"study plan", "learning plan", "schedule"}
	assignmentVocabulary = Vocabulary{"assignment", "homework", "task"}
)

// KeywordClassifier is the default Classifier. It gates on fixed keyword
// vocabularies, which keeps routing deterministic and independent of any
// model provider being reachable.
type KeywordClassifier struct{}

func NewKeywordClassifier() *KeywordClassifier { return &KeywordClassifier{} }

func (c *KeywordClassifier) ActionIntent(message string) bool {
	return actionVocabulary.Matches(message)
}

func (c *KeywordClassifier) Responder(message string) Target {
	if studyPlanVocabulary.Matches(message) {
		return TargetStudyPlanner
	}
	if assignmentVocabulary.Matches(message) {
		return TargetAssignmentManager
	}
	return TargetGeneral
}
