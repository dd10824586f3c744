package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

type chatRequest struct {
	Message        string         `json:"message"`
	UserID         string         `json:"user_id"`
	Context        map[string]any `json:"context,omitempty"`
	ConversationID string         `json:"conversation_id,omitempty"`
}

type voiceRequest struct {
	Query    string         `json:"query"`
	UserID   string         `json:"user_id"`
	Context  map[string]any `json:"context,omitempty"`
	Language string         `json:"language,omitempty"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if s.chat == nil {
		respondError(w, http.StatusNotImplemented, "unavailable", "chat router not configured")
		return
	}
	var req chatRequest
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, errEmptyBody) {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if strings.TrimSpace(req.Message) == "" || strings.TrimSpace(req.UserID) == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "message and user_id are required")
		return
	}

	res := s.chat.Route(r.Context(), req.UserID, req.Message, req.Context, req.ConversationID)
	respondJSON(w, http.StatusOK, res)
}

func (s *Server) handleVoiceChat(w http.ResponseWriter, r *http.Request) {
	if s.voice == nil {
		respondError(w, http.StatusNotImplemented, "unavailable", "voice assistant not configured")
		return
	}
	var req voiceRequest
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, errEmptyBody) {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if strings.TrimSpace(req.Query) == "" || strings.TrimSpace(req.UserID) == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "query and user_id are required")
		return
	}
	if strings.TrimSpace(req.Language) == "" {
		req.Language = "en"
	}

	extra := make(map[string]any, len(req.Context)+1)
	for k, v := range req.Context {
		extra[k] = v
	}
	extra["language"] = req.Language

	res := s.voice.HandleQuery(r.Context(), req.UserID, req.Query, extra)
	respondJSON(w, http.StatusOK, res)
}

func (s *Server) handleClearHistory(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if strings.TrimSpace(userID) == "" {
		respondError(w, http.StatusBadRequest, "invalid_user_id", "missing user id")
		return
	}
	if s.chat == nil {
		respondError(w, http.StatusNotImplemented, "unavailable", "chat router not configured")
		return
	}

	if err := s.chat.ClearHistory(r.Context(), userID); err != nil {
		respondError(w, http.StatusInternalServerError, "clear_history_failed", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Chat history cleared",
	})
}
