package agents

import "time"

// Action records one side effect or failure a responder produced.
type Action map[string]any

// Envelope is the uniform responder result. Success stays true even on
// internal failure; failures surface as an "error" action plus the
// responder's fallback text, so callers always have something to show.
type Envelope struct {
	Success          bool      `json:"success"`
	AgentName        string    `json:"agent_name"`
	Response         string    `json:"response"`
	ActionsPerformed []Action  `json:"actions_performed"`
	Analysis         any       `json:"analysis"`
	Data             any       `json:"data"`
	Recommendations  []string  `json:"recommendations"`
	Timestamp        time.Time `json:"timestamp"`
}

// newEnvelope builds the base envelope. ActionsPerformed is never nil so
// the JSON field is always an array.
func newEnvelope(agentName, response string) Envelope {
	return Envelope{
		Success:          true,
		AgentName:        agentName,
		Response:         response,
		ActionsPerformed: []Action{},
		Timestamp:        time.Now().UTC(),
	}
}

func errorEnvelope(agentName, response string, err error) Envelope {
	env := newEnvelope(agentName, response)
	env.ActionsPerformed = []Action{
		{"type": "error", "message": err.Error(), "success": false},
	}
	return env
}

// Errored reports whether the responder degraded to its fallback text.
func (e Envelope) Errored() bool {
	for _, action := range e.ActionsPerformed {
		if action["type"] == "error" {
			return true
		}
	}
	return false
}
