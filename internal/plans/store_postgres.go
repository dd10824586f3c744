package plans

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, strings.TrimSpace(databaseURL))
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := initPlanSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	return &PostgresStore{pool: pool}, nil
}

func initPlanSchema(ctx context.Context, pool *pgxpool.Pool) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS agentic_plans (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			plan_type TEXT NOT NULL DEFAULT 'study',
			goal TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL DEFAULT 'active',
			plan JSONB NOT NULL DEFAULT '{}',
			materials JSONB NOT NULL DEFAULT '[]',
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_agentic_plans_user_created ON agentic_plans (user_id, created_at DESC);`,
	}

	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init plan schema failed on %q: %w", stmt, err)
		}
	}
	return nil
}

func (s *PostgresStore) SavePlan(ctx context.Context, rec Record) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	rec.UpdatedAt = now

	planJSON, err := json.Marshal(rec.Plan)
	if err != nil {
		return fmt.Errorf("marshal plan: %w", err)
	}
	materials := rec.Materials
	if materials == nil {
		materials = []RecommendedMaterial{}
	}
	materialsJSON, err := json.Marshal(materials)
	if err != nil {
		return fmt.Errorf("marshal materials: %w", err)
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO agentic_plans (id, user_id, plan_type, goal, status, plan, materials, created_at, updated_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		 ON CONFLICT (id) DO UPDATE SET
			user_id=EXCLUDED.user_id,
			plan_type=EXCLUDED.plan_type,
			goal=EXCLUDED.goal,
			status=EXCLUDED.status,
			plan=EXCLUDED.plan,
			materials=EXCLUDED.materials,
			updated_at=EXCLUDED.updated_at`,
		rec.ID,
		rec.UserID,
		rec.PlanType,
		rec.Goal,
		rec.Status,
		planJSON,
		materialsJSON,
		rec.CreatedAt,
		rec.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert plan: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetPlan(ctx context.Context, planID string) (Record, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, user_id, plan_type, goal, status, plan, materials, created_at, updated_at
		   FROM agentic_plans WHERE id=$1`,
		planID,
	)
	rec, err := scanPlanRow(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return Record{}, ErrNotFound
		}
		return Record{}, fmt.Errorf("get plan: %w", err)
	}
	return rec, nil
}

func (s *PostgresStore) ListPlansByUser(ctx context.Context, userID string, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, user_id, plan_type, goal, status, plan, materials, created_at, updated_at
		   FROM agentic_plans WHERE user_id=$1 ORDER BY created_at DESC LIMIT $2`,
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list plans: %w", err)
	}
	defer rows.Close()

	out := make([]Record, 0, limit)
	for rows.Next() {
		rec, err := scanPlanRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan plan row: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate plan rows: %w", err)
	}
	return out, nil
}

func scanPlanRow(row pgx.Row) (Record, error) {
	var (
		rec           Record
		planJSON      []byte
		materialsJSON []byte
	)
	if err := row.Scan(
		&rec.ID,
		&rec.UserID,
		&rec.PlanType,
		&rec.Goal,
		&rec.Status,
		&planJSON,
		&materialsJSON,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	); err != nil {
		return Record{}, err
	}
	if err := json.Unmarshal(planJSON, &rec.Plan); err != nil {
		return Record{}, fmt.Errorf("unmarshal plan: %w", err)
	}
	if err := json.Unmarshal(materialsJSON, &rec.Materials); err != nil {
		return Record{}, fmt.Errorf("unmarshal materials: %w", err)
	}
	return rec, nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
