package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

// MessageType identifies websocket payload variants.
type MessageType string

const (
	TypeClientChat     MessageType = "client_chat"
	TypeClientControl  MessageType = "client_control"
	TypeAssistantReply MessageType = "assistant_reply"
	TypeSystemEvent    MessageType = "system_event"
	TypeErrorEvent     MessageType = "error_event"
)

var ErrUnsupportedType = errors.New("unsupported message type")

type Envelope struct {
	Type MessageType `json:"type"`
}

// ClientChat is one user message sent over an established session.
// Voice asks for a speech-formatted reply. A blank ConversationID starts
// a new conversation.
type ClientChat struct {
	Type           MessageType    `json:"type"`
	SessionID      string         `json:"session_id"`
	UserID         string         `json:"user_id"`
	Message        string         `json:"message"`
	ConversationID string         `json:"conversation_id,omitempty"`
	Context        map[string]any `json:"context,omitempty"`
	Voice          bool           `json:"voice,omitempty"`
	TSMs           int64          `json:"ts_ms,omitempty"`
}

// ClientControl carries session commands: "ping", "clear_history", "end".
type ClientControl struct {
	Type      MessageType `json:"type"`
	SessionID string      `json:"session_id"`
	Action    string      `json:"action"`
}

// AssistantReply is one completed chat turn pushed back to the client.
type AssistantReply struct {
	Type           MessageType      `json:"type"`
	SessionID      string           `json:"session_id"`
	ConversationID string           `json:"conversation_id"`
	Success        bool             `json:"success"`
	Response       string           `json:"response"`
	ActionsTaken   []map[string]any `json:"actions_taken"`
	Voice          bool             `json:"voice,omitempty"`
	TSMs           int64            `json:"ts_ms"`
}

type SystemEvent struct {
	Type      MessageType `json:"type"`
	SessionID string      `json:"session_id"`
	Code      string      `json:"code"`
	Detail    string      `json:"detail,omitempty"`
}

type ErrorEvent struct {
	Type      MessageType `json:"type"`
	SessionID string      `json:"session_id"`
	Code      string      `json:"code"`
	Source    string      `json:"source"`
	Retryable bool        `json:"retryable"`
	Detail    string      `json:"detail"`
}

func ParseClientMessage(raw []byte) (any, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("invalid envelope: %w", err)
	}

	switch env.Type {
	case TypeClientChat:
		var msg ClientChat
		if err := json.Unmarshal(raw, &msg); err != nil {
			return nil, err
		}
		if msg.SessionID == "" || msg.UserID == "" || msg.Message == "" {
			return nil, errors.New("invalid client_chat")
		}
		return msg, nil
	case TypeClientControl:
		var msg ClientControl
		if err := json.Unmarshal(raw, &msg); err != nil {
			return nil, err
		}
		if msg.SessionID == "" || msg.Action == "" {
			return nil, errors.New("invalid client_control")
		}
		return msg, nil
	default:
		return nil, ErrUnsupportedType
	}
}
