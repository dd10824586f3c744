package campus

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore serves campus records from PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, strings.TrimSpace(databaseURL))
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := initCampusSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	return &PostgresStore{pool: pool}, nil
}

func initCampusSchema(ctx context.Context, pool *pgxpool.Pool) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL DEFAULT '',
			email TEXT NOT NULL DEFAULT '',
			role TEXT NOT NULL DEFAULT 'student',
			department TEXT NOT NULL DEFAULT '',
			year INTEGER NOT NULL DEFAULT 0,
			enrolled_courses TEXT[] NOT NULL DEFAULT '{}',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);`,
		`CREATE TABLE IF NOT EXISTS courses (
			id TEXT PRIMARY KEY,
			code TEXT NOT NULL DEFAULT '',
			name TEXT NOT NULL DEFAULT '',
			department TEXT NOT NULL DEFAULT '',
			instructor TEXT NOT NULL DEFAULT '',
			capacity INTEGER NOT NULL DEFAULT 0,
			enrolled INTEGER NOT NULL DEFAULT 0
		);`,
		`CREATE TABLE IF NOT EXISTS assignments (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			course_id TEXT NOT NULL DEFAULT '',
			title TEXT NOT NULL DEFAULT '',
			description TEXT NOT NULL DEFAULT '',
			due_date TIMESTAMPTZ NOT NULL,
			priority TEXT NOT NULL DEFAULT 'medium',
			status TEXT NOT NULL DEFAULT 'pending',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);`,
		`CREATE INDEX IF NOT EXISTS idx_assignments_user_due ON assignments (user_id, due_date);`,
		`CREATE TABLE IF NOT EXISTS events (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL DEFAULT '',
			location TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL DEFAULT 'upcoming',
			starts_at TIMESTAMPTZ NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS materials (
			id TEXT PRIMARY KEY,
			course_id TEXT NOT NULL DEFAULT '',
			title TEXT NOT NULL DEFAULT '',
			description TEXT NOT NULL DEFAULT '',
			kind TEXT NOT NULL DEFAULT '',
			url TEXT NOT NULL DEFAULT '',
			tags TEXT[] NOT NULL DEFAULT '{}'
		);`,
		`CREATE TABLE IF NOT EXISTS tickets (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			subject TEXT NOT NULL DEFAULT '',
			description TEXT NOT NULL DEFAULT '',
			category TEXT NOT NULL DEFAULT 'general',
			priority TEXT NOT NULL DEFAULT 'medium',
			status TEXT NOT NULL DEFAULT 'open',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);`,
		`CREATE INDEX IF NOT EXISTS idx_tickets_status_created ON tickets (status, created_at DESC);`,
		`CREATE TABLE IF NOT EXISTS agent_logs (
			id TEXT PRIMARY KEY,
			agent_name TEXT NOT NULL,
			action_type TEXT NOT NULL,
			user_id TEXT NOT NULL,
			details JSONB NOT NULL DEFAULT '{}',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);`,
		`CREATE INDEX IF NOT EXISTS idx_agent_logs_user_created ON agent_logs (user_id, created_at);`,
	}

	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init campus schema failed on %q: %w", stmt, err)
		}
	}
	return nil
}

func (s *PostgresStore) GetUser(ctx context.Context, userID string) (User, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, name, email, role, department, year, enrolled_courses, created_at
		   FROM users WHERE id=$1`,
		userID,
	)
	var u User
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Role, &u.Department, &u.Year, &u.EnrolledCourses, &u.CreatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return User{}, ErrNotFound
		}
		return User{}, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (s *PostgresStore) ListStudents(ctx context.Context, limit int) ([]User, error) {
	if limit <= 0 {
		limit = 1000
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, email, role, department, year, enrolled_courses, created_at
		   FROM users WHERE role='student' ORDER BY created_at LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	defer rows.Close()

	out := make([]User, 0, limit)
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.Role, &u.Department, &u.Year, &u.EnrolledCourses, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan student row: %w", err)
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate student rows: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) ListCourses(ctx context.Context) ([]Course, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, code, name, department, instructor, capacity, enrolled FROM courses ORDER BY code`,
	)
	if err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	defer rows.Close()
	return scanCourses(rows)
}

func (s *PostgresStore) ListCoursesByIDs(ctx context.Context, ids []string) ([]Course, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, code, name, department, instructor, capacity, enrolled
		   FROM courses WHERE id = ANY($1) ORDER BY code`,
		ids,
	)
	if err != nil {
		return nil, fmt.Errorf("list courses by ids: %w", err)
	}
	defer rows.Close()
	return scanCourses(rows)
}

func scanCourses(rows pgx.Rows) ([]Course, error) {
	out := make([]Course, 0, 16)
	for rows.Next() {
		var c Course
		if err := rows.Scan(&c.ID, &c.Code, &c.Name, &c.Department, &c.Instructor, &c.Capacity, &c.Enrolled); err != nil {
			return nil, fmt.Errorf("scan course row: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate course rows: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) ListAssignments(ctx context.Context, userID string) ([]Assignment, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, user_id, course_id, title, description, due_date, priority, status, created_at
		   FROM assignments WHERE user_id=$1 ORDER BY due_date`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}
	defer rows.Close()
	return scanAssignments(rows)
}

func (s *PostgresStore) ListAllAssignments(ctx context.Context, limit int) ([]Assignment, error) {
	if limit <= 0 {
		limit = 1000
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, user_id, course_id, title, description, due_date, priority, status, created_at
		   FROM assignments ORDER BY due_date LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list all assignments: %w", err)
	}
	defer rows.Close()
	return scanAssignments(rows)
}

func scanAssignments(rows pgx.Rows) ([]Assignment, error) {
	out := make([]Assignment, 0, 16)
	for rows.Next() {
		var a Assignment
		if err := rows.Scan(&a.ID, &a.UserID, &a.CourseID, &a.Title, &a.Description, &a.DueDate, &a.Priority, &a.Status, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan assignment row: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate assignment rows: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) ListEvents(ctx context.Context) ([]Event, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, title, location, status, starts_at FROM events ORDER BY starts_at`,
	)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	out := make([]Event, 0, 16)
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.ID, &e.Title, &e.Location, &e.Status, &e.StartsAt); err != nil {
			return nil, fmt.Errorf("scan event row: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate event rows: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) SearchMaterials(ctx context.Context, query string, limit int) ([]Material, error) {
	if limit <= 0 {
		limit = 50
	}
	// An empty query yields the pattern "%%", which matches every material.
	pattern := "%" + strings.TrimSpace(query) + "%"
	rows, err := s.pool.Query(ctx,
		`SELECT id, course_id, title, description, kind, url, tags
		   FROM materials
		  WHERE title ILIKE $1
		     OR description ILIKE $1
		     OR EXISTS (SELECT 1 FROM unnest(tags) AS tag WHERE tag ILIKE $1)
		  ORDER BY title LIMIT $2`,
		pattern, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("search materials: %w", err)
	}
	defer rows.Close()

	out := make([]Material, 0, limit)
	for rows.Next() {
		var m Material
		if err := rows.Scan(&m.ID, &m.CourseID, &m.Title, &m.Description, &m.Kind, &m.URL, &m.Tags); err != nil {
			return nil, fmt.Errorf("scan material row: %w", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate material rows: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) ListTickets(ctx context.Context, limit int) ([]Ticket, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, user_id, subject, description, category, priority, status, created_at, updated_at
		   FROM tickets ORDER BY created_at DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list tickets: %w", err)
	}
	defer rows.Close()

	out := make([]Ticket, 0, limit)
	for rows.Next() {
		var t Ticket
		if err := rows.Scan(&t.ID, &t.UserID, &t.Subject, &t.Description, &t.Category, &t.Priority, &t.Status, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan ticket row: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ticket rows: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) Counts(ctx context.Context) (Counts, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT
			(SELECT COUNT(*) FROM users WHERE role='student'),
			(SELECT COUNT(*) FROM courses),
			(SELECT COUNT(*) FROM events),
			(SELECT COUNT(*) FROM materials),
			(SELECT COUNT(*) FROM assignments),
			(SELECT COUNT(*) FROM tickets)`,
	)
	var c Counts
	if err := row.Scan(&c.Students, &c.Courses, &c.Events, &c.Materials, &c.Assignments, &c.Tickets); err != nil {
		return Counts{}, fmt.Errorf("count entities: %w", err)
	}
	return c, nil
}

func (s *PostgresStore) AppendActionLog(ctx context.Context, entry ActionLogEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	if entry.Details == nil {
		entry.Details = map[string]any{}
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO agent_logs (id, agent_name, action_type, user_id, details, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		entry.ID,
		entry.AgentName,
		entry.Action,
		entry.UserID,
		entry.Details,
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("append action log: %w", err)
	}
	return nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
