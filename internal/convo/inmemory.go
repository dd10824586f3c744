package convo

import (
	"context"
	"sync"
	"time"
)

type convoKey struct {
	userID         string
	conversationID string
}

// InMemoryStore is a simple in-process conversation store for local/dev use.
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[convoKey][]Turn
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{records: make(map[convoKey][]Turn)}
}

func (s *InMemoryStore) AppendExchange(_ context.Context, userID, conversationID string, userTurn, assistantTurn Turn) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := convoKey{userID: userID, conversationID: conversationID}
	for _, turn := range []Turn{userTurn, assistantTurn} {
		if turn.Timestamp.IsZero() {
			turn.Timestamp = time.Now().UTC()
		}
		s.records[key] = append(s.records[key], turn)
	}
	return nil
}

func (s *InMemoryStore) Window(_ context.Context, userID, conversationID string, limit int) ([]Turn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	arr := s.records[convoKey{userID: userID, conversationID: conversationID}]
	if len(arr) == 0 {
		return nil, nil
	}
	if limit <= 0 || limit > len(arr) {
		limit = len(arr)
	}
	out := make([]Turn, 0, limit)
	for i := len(arr) - limit; i < len(arr); i++ {
		out = append(out, arr[i])
	}
	return out, nil
}

func (s *InMemoryStore) Clear(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key := range s.records {
		if key.userID == userID {
			delete(s.records, key)
		}
	}
	return nil
}

func (s *InMemoryStore) Close() error { return nil }
