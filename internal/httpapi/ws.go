package httpapi

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/campuscompanion/campusai/internal/agents"
	"github.com/campuscompanion/campusai/internal/protocol"
	"github.com/campuscompanion/campusai/internal/session"
)

const (
	wsWriteTimeout = 10 * time.Second
	wsReadTimeout  = 120 * time.Second
	wsReadLimit    = 2 << 20
)

func (s *Server) handleChatWS(w http.ResponseWriter, r *http.Request) {
	sessionID := strings.TrimSpace(r.URL.Query().Get("session_id"))
	if sessionID == "" {
		respondError(w, http.StatusBadRequest, "missing_session_id", "query parameter session_id is required")
		return
	}
	if s.chat == nil {
		respondError(w, http.StatusNotImplemented, "unavailable", "chat router not configured")
		return
	}

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		respondError(w, http.StatusNotFound, "session_not_found", err.Error())
		return
	}
	if sess.Status != session.StatusActive {
		respondError(w, http.StatusNotFound, "session_not_found", "session has ended")
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	s.countSessionEvent("ws_connected")

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	inbound := make(chan any, 256)
	outbound := make(chan any, 256)

	runDone := make(chan struct{})
	go func() {
		defer close(runDone)
		s.runChatSession(ctx, sess, inbound, outbound)
	}()

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-outbound:
				if !ok {
					return
				}
				_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
				if err := conn.WriteJSON(msg); err != nil {
					cancel()
					return
				}
				if t, ok := messageTypeOf(msg); ok {
					s.countWSMessage("outbound", t)
				}
			}
		}
	}()

	conn.SetReadLimit(wsReadLimit)
	_ = conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
		return nil
	})

readLoop:
	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			break
		}
		// Any frame proves liveness, not just pongs.
		_ = conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
		if msgType != websocket.TextMessage {
			continue
		}
		parsed, err := protocol.ParseClientMessage(data)
		if err != nil {
			errEvent := protocol.ErrorEvent{
				Type:      protocol.TypeErrorEvent,
				SessionID: sessionID,
				Code:      "invalid_client_message",
				Source:    "gateway",
				Retryable: false,
				Detail:    err.Error(),
			}
			select {
			case outbound <- errEvent:
			default:
				// Keep websocket writes single-threaded; drop if the
				// outbound queue is saturated.
			}
			continue
		}

		if t, ok := messageTypeOf(parsed); ok {
			s.countWSMessage("inbound", t)
		}
		select {
		case <-ctx.Done():
			break readLoop
		case inbound <- parsed:
		}
	}

	cancel()
	close(inbound)
	<-runDone
	<-writerDone
	s.countSessionEvent("ws_disconnected")
}

// runChatSession serializes one connection's turns. Replies go through
// outbound so the writer goroutine stays the only socket writer.
func (s *Server) runChatSession(ctx context.Context, sess *session.Session, inbound <-chan any, outbound chan<- any) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-inbound:
			if !ok {
				return
			}
			switch m := msg.(type) {
			case protocol.ClientChat:
				s.serveWSChat(ctx, sess, m, outbound)
			case protocol.ClientControl:
				s.serveWSControl(ctx, sess, m, outbound)
			}
		}
	}
}

func (s *Server) serveWSChat(ctx context.Context, sess *session.Session, msg protocol.ClientChat, outbound chan<- any) {
	_ = s.sessions.Touch(sess.ID)

	reply := protocol.AssistantReply{
		Type:      protocol.TypeAssistantReply,
		SessionID: sess.ID,
		TSMs:      msg.TSMs,
	}

	if msg.Voice || sess.Voice {
		if s.voice == nil {
			send(ctx, outbound, protocol.ErrorEvent{
				Type:      protocol.TypeErrorEvent,
				SessionID: sess.ID,
				Code:      "voice_unavailable",
				Source:    "gateway",
				Retryable: false,
				Detail:    "voice assistant not configured",
			})
			return
		}
		res := s.voice.HandleQuery(ctx, msg.UserID, msg.Message, msg.Context)
		reply.Success = res.Success
		reply.Response = res.Response
		reply.ActionsTaken = wireActions(res.ActionsTaken)
		reply.Voice = true
	} else {
		res := s.chat.Route(ctx, msg.UserID, msg.Message, msg.Context, msg.ConversationID)
		reply.Success = res.Success
		reply.Response = res.Response
		reply.ConversationID = res.ConversationID
		reply.ActionsTaken = wireActions(res.ActionsTaken)
	}

	_ = s.sessions.RecordTurn(sess.ID, reply.ConversationID)
	send(ctx, outbound, reply)
}

func (s *Server) serveWSControl(ctx context.Context, sess *session.Session, msg protocol.ClientControl, outbound chan<- any) {
	_ = s.sessions.Touch(sess.ID)

	switch msg.Action {
	case "ping":
		send(ctx, outbound, protocol.SystemEvent{
			Type:      protocol.TypeSystemEvent,
			SessionID: sess.ID,
			Code:      "pong",
		})
	case "clear_history":
		if err := s.chat.ClearHistory(ctx, sess.UserID); err != nil {
			send(ctx, outbound, protocol.ErrorEvent{
				Type:      protocol.TypeErrorEvent,
				SessionID: sess.ID,
				Code:      "clear_history_failed",
				Source:    "memory",
				Retryable: true,
				Detail:    err.Error(),
			})
			return
		}
		send(ctx, outbound, protocol.SystemEvent{
			Type:      protocol.TypeSystemEvent,
			SessionID: sess.ID,
			Code:      "history_cleared",
		})
	case "end":
		if _, err := s.sessions.End(sess.ID); err == nil && s.metrics != nil {
			s.metrics.ActiveSessions.Set(float64(s.sessions.ActiveCount()))
			s.metrics.SessionEvents.WithLabelValues("ended").Inc()
		}
		send(ctx, outbound, protocol.SystemEvent{
			Type:      protocol.TypeSystemEvent,
			SessionID: sess.ID,
			Code:      "session_ended",
		})
	default:
		send(ctx, outbound, protocol.ErrorEvent{
			Type:      protocol.TypeErrorEvent,
			SessionID: sess.ID,
			Code:      "unsupported_control",
			Source:    "gateway",
			Retryable: false,
			Detail:    "unknown action " + msg.Action,
		})
	}
}

// send parks on the outbound queue instead of dropping replies; the
// writer drains it unless the connection is already gone.
func send(ctx context.Context, outbound chan<- any, msg any) {
	select {
	case <-ctx.Done():
	case outbound <- msg:
	}
}

func (s *Server) countSessionEvent(event string) {
	if s.metrics == nil {
		return
	}
	s.metrics.SessionEvents.WithLabelValues(event).Inc()
}

func (s *Server) countWSMessage(direction string, t protocol.MessageType) {
	if s.metrics == nil {
		return
	}
	s.metrics.WSMessages.WithLabelValues(direction, string(t)).Inc()
}

func messageTypeOf(v any) (protocol.MessageType, bool) {
	switch m := v.(type) {
	case protocol.ClientChat:
		return m.Type, true
	case protocol.ClientControl:
		return m.Type, true
	case protocol.AssistantReply:
		return m.Type, true
	case protocol.SystemEvent:
		return m.Type, true
	case protocol.ErrorEvent:
		return m.Type, true
	default:
		return "", false
	}
}

func wireActions(actions []agents.Action) []map[string]any {
	out := make([]map[string]any, 0, len(actions))
	for _, a := range actions {
		out = append(out, map[string]any(a))
	}
	return out
}
