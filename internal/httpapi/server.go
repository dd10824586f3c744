package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/gorilla/websocket"

	"github.com/campuscompanion/campusai/internal/agents"
	"github.com/campuscompanion/campusai/internal/config"
	"github.com/campuscompanion/campusai/internal/observability"
	"github.com/campuscompanion/campusai/internal/router"
	"github.com/campuscompanion/campusai/internal/session"
	"github.com/campuscompanion/campusai/internal/voice"
)

// Chat is the conversational surface behind the REST and websocket
// endpoints.
type Chat interface {
	Route(ctx context.Context, userID, message string, extra map[string]any, conversationID string) router.Result
	ClearHistory(ctx context.Context, userID string) error
}

// VoiceAssistant produces speech-formatted replies.
type VoiceAssistant interface {
	HandleQuery(ctx context.Context, userID, query string, extra map[string]any) voice.Result
}

// Info labels the running build for the identity and health endpoints.
type Info struct {
	Service   string
	Version   string
	StoreMode string
	Provider  string
}

type Server struct {
	cfg        config.Config
	info       Info
	sessions   *session.Manager
	chat       Chat
	voice      VoiceAssistant
	responders *agents.Registry
	metrics    *observability.Metrics
	upgrader   websocket.Upgrader
}

func New(cfg config.Config, info Info, sessions *session.Manager, chat Chat, voiceAssistant VoiceAssistant, responders *agents.Registry, metrics *observability.Metrics) *Server {
	if strings.TrimSpace(info.Service) == "" {
		info.Service = "CampusCompanion AI Service"
	}
	if strings.TrimSpace(info.Version) == "" {
		info.Version = "2.0.0"
	}
	return &Server{
		cfg:        cfg,
		info:       info,
		sessions:   sessions,
		chat:       chat,
		voice:      voiceAssistant,
		responders: responders,
		metrics:    metrics,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				// Only the same origin and the configured frontends may open
				// a websocket. Anything else could drive a student's chat
				// session from a foreign page.
				if cfg.AllowAnyOrigin {
					return true
				}
				origin := strings.TrimSpace(r.Header.Get("Origin"))
				if origin == "" {
					// Non-browser clients often omit Origin. Allow them.
					return true
				}
				u, err := url.Parse(origin)
				if err != nil {
					return false
				}
				if u.Scheme != "http" && u.Scheme != "https" {
					return false
				}
				if strings.EqualFold(u.Host, r.Host) {
					return true
				}
				for _, allowed := range cfg.AllowedOrigins {
					if strings.EqualFold(origin, allowed) {
						return true
					}
				}
				return false
			},
		},
	}
}

func (s *Server) Router() http.Handler {
	corsOptions := cors.Options{
		AllowedOrigins:   s.cfg.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-API-Key"},
		AllowCredentials: true,
		MaxAge:           300,
	}
	if s.cfg.AllowAnyOrigin {
		// Credentialed requests cannot be combined with a wildcard origin.
		corsOptions.AllowedOrigins = []string{"*"}
		corsOptions.AllowCredentials = false
	}

	r := chi.NewRouter()
	r.Use(cors.Handler(corsOptions))
	r.Use(s.countRequests)
	r.Use(s.recoverPanics)
	r.Use(s.requireAPIKey)

	r.Get("/", s.handleIdentity)
	r.Get("/health", s.handleHealth)
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		observability.MetricsHandler().ServeHTTP(w, r)
	})
	r.Get("/api/perf/latency", s.handlePerfLatency)

	r.Post("/api/chat", s.handleChat)
	r.Post("/api/chat/voice", s.handleVoiceChat)
	r.Delete("/api/chat/history/{userID}", s.handleClearHistory)
	r.Post("/api/chat/session", s.handleCreateSession)
	r.Delete("/api/chat/session/{sessionID}", s.handleEndSession)
	r.Get("/api/chat/ws", s.handleChatWS)

	r.Post("/api/agents/student/study-planner", s.agentHandler(agents.KindStudyPlanner))
	r.Post("/api/agents/student/assignment-manager", s.agentHandler(agents.KindAssignmentManager))
	r.Post("/api/agents/admin/report-generator", s.agentHandler(agents.KindReportGenerator))
	r.Post("/api/agents/admin/helpdesk-manager", s.agentHandler(agents.KindHelpdeskManager))
	r.Get("/api/test/agents", s.handleTestAgents)

	return r
}

func (s *Server) countRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.metrics == nil {
			next.ServeHTTP(w, r)
			return
		}
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		route := chi.RouteContext(r.Context()).RoutePattern()
		if route == "" {
			route = r.URL.Path
		}
		status := ww.Status()
		if status == 0 {
			// Hijacked websocket upgrades never report a status through
			// the wrapper.
			status = http.StatusOK
		}
		s.metrics.RequestsTotal.WithLabelValues(route, strconv.Itoa(status)).Inc()
	})
}

func (s *Server) recoverPanics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			log.Printf("panic serving %s %s: %v", r.Method, r.URL.Path, rec)
			respondJSON(w, http.StatusInternalServerError, map[string]any{
				"success": false,
				"error":   fmt.Sprint(rec),
				"message": "Internal server error",
			})
		}()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) requireAPIKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.cfg.APIKey != "" {
			// Requests without the header stay allowed so local tooling
			// keeps working; a wrong key is always rejected.
			key := r.Header.Get("X-API-Key")
			if key != "" && key != s.cfg.APIKey {
				respondError(w, http.StatusForbidden, "invalid_api_key", "Invalid API key")
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleIdentity(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":  "running",
		"service": s.info.Service,
		"version": s.info.Version,
		"message": "AI service is operational",
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":   "healthy",
		"database": orUnknown(s.info.StoreMode),
		"provider": orUnknown(s.info.Provider),
		"agents": map[string]string{
			"student_planner":    state(s.agentAvailable(agents.KindStudyPlanner), "active", "disabled"),
			"student_assignment": state(s.agentAvailable(agents.KindAssignmentManager), "active", "disabled"),
			"admin_report":       state(s.agentAvailable(agents.KindReportGenerator), "active", "disabled"),
			"admin_helpdesk":     state(s.agentAvailable(agents.KindHelpdeskManager), "active", "disabled"),
		},
		"chatbot":         state(s.chat != nil, "active", "disabled"),
		"voice_assistant": state(s.voice != nil, "active", "disabled"),
	})
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req session.CreateRequest
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, errEmptyBody) {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if strings.TrimSpace(req.UserID) == "" {
		req.UserID = "anonymous"
	}
	if req.Voice && s.voice == nil {
		respondError(w, http.StatusNotImplemented, "unavailable", "voice assistant not configured")
		return
	}

	sess := s.sessions.Create(req.UserID, req.Voice)
	if s.metrics != nil {
		s.metrics.ActiveSessions.Set(float64(s.sessions.ActiveCount()))
		s.metrics.SessionEvents.WithLabelValues("created").Inc()
	}

	respondJSON(w, http.StatusCreated, session.CreateResponse{
		SessionID:       sess.ID,
		UserID:          sess.UserID,
		Status:          sess.Status,
		Voice:           sess.Voice,
		StartedAt:       sess.StartedAt,
		LastActivityAt:  sess.LastActivityAt,
		InactivityTTLMS: s.cfg.SessionInactivityTimeout.Milliseconds(),
	})
}

func (s *Server) handleEndSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	if strings.TrimSpace(id) == "" {
		respondError(w, http.StatusBadRequest, "invalid_session_id", "missing session id")
		return
	}

	sess, err := s.sessions.End(id)
	if err != nil {
		respondError(w, http.StatusNotFound, "session_not_found", err.Error())
		return
	}
	if s.metrics != nil {
		s.metrics.ActiveSessions.Set(float64(s.sessions.ActiveCount()))
		s.metrics.SessionEvents.WithLabelValues("ended").Inc()
	}
	respondJSON(w, http.StatusOK, sess)
}

func (s *Server) agentAvailable(kind agents.Kind) bool {
	if s.responders == nil {
		return false
	}
	_, ok := s.responders.Lookup(kind)
	return ok
}

func state(ok bool, up, down string) string {
	if ok {
		return up
	}
	return down
}

func orUnknown(v string) string {
	if strings.TrimSpace(v) == "" {
		return "unknown"
	}
	return v
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

var errEmptyBody = errors.New("empty body")

func decodeJSON(r *http.Request, out any) error {
	if r.Body == nil {
		return errEmptyBody
	}
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(out); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "eof") {
			return errEmptyBody
		}
		return err
	}
	return nil
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, errorResponse{Error: message, Code: code})
}
