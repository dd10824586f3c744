package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/campuscompanion/campusai/internal/agents"
)

type agentRequest struct {
	Query   string         `json:"query"`
	UserID  string         `json:"user_id"`
	Context map[string]any `json:"context,omitempty"`
	// ActionType is accepted for wire compatibility; routing keys off
	// the query text.
	ActionType string `json:"action_type,omitempty"`
}

// agentHandler builds the invoke endpoint for one responder kind. The
// responder reports its own failures inside the envelope, so the handler
// only has validation errors to surface.
func (s *Server) agentHandler(kind agents.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req agentRequest
		if err := decodeJSON(r, &req); err != nil && !errors.Is(err, errEmptyBody) {
			respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
			return
		}
		if strings.TrimSpace(req.Query) == "" || strings.TrimSpace(req.UserID) == "" {
			respondError(w, http.StatusBadRequest, "invalid_request", "query and user_id are required")
			return
		}

		responder := s.lookupResponder(kind)
		if responder == nil {
			respondError(w, http.StatusNotImplemented, "unavailable", "agent not configured")
			return
		}

		env := responder.Process(r.Context(), agents.Request{
			UserID:  req.UserID,
			Message: req.Query,
			Context: req.Context,
		})
		respondJSON(w, http.StatusOK, env)
	}
}

func (s *Server) lookupResponder(kind agents.Kind) agents.Responder {
	if s.responders == nil {
		return nil
	}
	responder, ok := s.responders.Lookup(kind)
	if !ok {
		return nil
	}
	return responder
}

func (s *Server) handleTestAgents(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"agents": map[string]any{
			"student": map[string]string{
				"study_planner":      state(s.agentAvailable(agents.KindStudyPlanner), "operational", "unavailable"),
				"assignment_manager": state(s.agentAvailable(agents.KindAssignmentManager), "operational", "unavailable"),
			},
			"admin": map[string]string{
				"report_generator": state(s.agentAvailable(agents.KindReportGenerator), "operational", "unavailable"),
				"helpdesk_manager": state(s.agentAvailable(agents.KindHelpdeskManager), "operational", "unavailable"),
			},
		},
		"chatbot":         state(s.chat != nil, "operational", "unavailable"),
		"voice_assistant": state(s.voice != nil, "operational", "unavailable"),
	})
}
