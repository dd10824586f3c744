package convo

import (
	"context"
	"time"
)

// Turn is a single user or assistant message inside a conversation.
type Turn struct {
	Role        string    `json:"role"`
	Content     string    `json:"content"`
	PIIRedacted bool      `json:"pii_redacted,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// Store persists ordered conversation transcripts keyed by
// (userID, conversationID). Turns are append-only and immutable once
// written; reads return a bounded suffix, never the full history.
type Store interface {
	// AppendExchange atomically upserts the conversation record and
	// appends the user turn followed by the assistant turn. Concurrent
	// exchanges on the same key serialize; a pair never splits.
	AppendExchange(ctx context.Context, userID, conversationID string, userTurn, assistantTurn Turn) error
	// Window returns up to limit most recent turns in chronological order.
	Window(ctx context.Context, userID, conversationID string, limit int) ([]Turn, error)
	// Clear drops every conversation owned by userID.
	Clear(ctx context.Context, userID string) error
	Close() error
}
