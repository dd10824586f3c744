package campus

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("record not found")

// User is a directory entry for a student, faculty member, or admin.
type User struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Email           string    `json:"email"`
	Role            string    `json:"role"`
	Department      string    `json:"department"`
	Year            int       `json:"year"`
	EnrolledCourses []string  `json:"enrolled_courses"`
	CreatedAt       time.Time `json:"created_at"`
}

type Course struct {
	ID         string `json:"id"`
	Code       string `json:"code"`
	Name       string `json:"name"`
	Department string `json:"department"`
	Instructor string `json:"instructor"`
	Capacity   int    `json:"capacity"`
	Enrolled   int    `json:"enrolled"`
}

type Assignment struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	CourseID    string    `json:"course_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	DueDate     time.Time `json:"due_date"`
	Priority    string    `json:"priority"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

type Event struct {
	ID       string    `json:"id"`
	Title    string    `json:"title"`
	Location string    `json:"location"`
	Status   string    `json:"status"`
	StartsAt time.Time `json:"starts_at"`
}

type Material struct {
	ID          string   `json:"id"`
	CourseID    string   `json:"course_id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Kind        string   `json:"kind"`
	URL         string   `json:"url"`
	Tags        []string `json:"tags"`
}

type Ticket struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Subject     string    `json:"subject"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Priority    string    `json:"priority"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ActionLogEntry is one append-only audit record of an agent action.
type ActionLogEntry struct {
	ID        string         `json:"id"`
	AgentName string         `json:"agent_name"`
	Action    string         `json:"action_type"`
	UserID    string         `json:"user_id"`
	Details   map[string]any `json:"details"`
	CreatedAt time.Time      `json:"timestamp"`
}

// Counts is a point-in-time tally of directory entities.
type Counts struct {
	Students    int `json:"students"`
	Courses     int `json:"courses"`
	Events      int `json:"events"`
	Materials   int `json:"materials"`
	Assignments int `json:"assignments"`
	Tickets     int `json:"tickets"`
}

// Store provides read access to campus records plus the append-only
// agent audit log. Lookups tolerate missing records where noted.
type Store interface {
	GetUser(ctx context.Context, userID string) (User, error)
	ListStudents(ctx context.Context, limit int) ([]User, error)
	ListCourses(ctx context.Context) ([]Course, error)
	ListCoursesByIDs(ctx context.Context, ids []string) ([]Course, error)
	ListAssignments(ctx context.Context, userID string) ([]Assignment, error)
	ListAllAssignments(ctx context.Context, limit int) ([]Assignment, error)
	ListEvents(ctx context.Context) ([]Event, error)
	SearchMaterials(ctx context.Context, query string, limit int) ([]Material, error)
	ListTickets(ctx context.Context, limit int) ([]Ticket, error)
	Counts(ctx context.Context) (Counts, error)
	AppendActionLog(ctx context.Context, entry ActionLogEntry) error
	Close() error
}
