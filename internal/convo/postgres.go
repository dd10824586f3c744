package convo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore persists conversation transcripts in PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, strings.TrimSpace(databaseURL))
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := initConvoSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	return &PostgresStore{pool: pool}, nil
}

func initConvoSchema(ctx context.Context, pool *pgxpool.Pool) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS conversations (
			user_id TEXT NOT NULL,
			conversation_id TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			PRIMARY KEY (user_id, conversation_id)
		);`,
		`CREATE TABLE IF NOT EXISTS conversation_turns (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			conversation_id TEXT NOT NULL,
			seq BIGSERIAL,
			role TEXT NOT NULL,
			content TEXT NOT NULL,
			pii_redacted BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);`,
		`CREATE INDEX IF NOT EXISTS idx_conversation_turns_key_seq ON conversation_turns (user_id, conversation_id, seq);`,
	}

	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init convo schema failed on %q: %w", stmt, err)
		}
	}
	return nil
}

func (s *PostgresStore) AppendExchange(ctx context.Context, userID, conversationID string, userTurn, assistantTurn Turn) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// The upsert row-locks the conversation for the rest of the
	// transaction, so concurrent exchanges on one key cannot interleave
	// their turn pairs.
	_, err = tx.Exec(ctx,
		`INSERT INTO conversations (user_id, conversation_id, created_at, updated_at)
		 VALUES ($1, $2, now(), now())
		 ON CONFLICT (user_id, conversation_id) DO UPDATE SET updated_at=now()`,
		userID, conversationID,
	)
	if err != nil {
		return fmt.Errorf("upsert conversation: %w", err)
	}

	for _, turn := range []Turn{userTurn, assistantTurn} {
		if turn.Timestamp.IsZero() {
			turn.Timestamp = time.Now().UTC()
		}
		_, err := tx.Exec(ctx,
			`INSERT INTO conversation_turns (id, user_id, conversation_id, role, content, pii_redacted, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			uuid.NewString(),
			userID,
			conversationID,
			turn.Role,
			turn.Content,
			turn.PIIRedacted,
			turn.Timestamp,
		)
		if err != nil {
			return fmt.Errorf("insert turn: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (s *PostgresStore) Window(ctx context.Context, userID, conversationID string, limit int) ([]Turn, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.pool.Query(ctx,
		`SELECT role, content, pii_redacted, created_at
		   FROM conversation_turns
		  WHERE user_id=$1 AND conversation_id=$2
		  ORDER BY seq DESC LIMIT $3`,
		userID, conversationID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query window: %w", err)
	}
	defer rows.Close()

	turns := make([]Turn, 0, limit)
	for rows.Next() {
		var t Turn
		if err := rows.Scan(&t.Role, &t.Content, &t.PIIRedacted, &t.Timestamp); err != nil {
			return nil, fmt.Errorf("scan turn row: %w", err)
		}
		turns = append(turns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate turn rows: %w", err)
	}

	// Reverse into chronological order for prompt coherence.
	for i, j := 0, len(turns)-1; i < j; i, j = i+1, j-1 {
		turns[i], turns[j] = turns[j], turns[i]
	}

	return turns, nil
}

func (s *PostgresStore) Clear(ctx context.Context, userID string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM conversation_turns WHERE user_id=$1`, userID); err != nil {
		return fmt.Errorf("delete turns: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM conversations WHERE user_id=$1`, userID); err != nil {
		return fmt.Errorf("delete conversations: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
