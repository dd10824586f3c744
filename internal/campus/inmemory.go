package campus

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemoryStore is a simple in-process campus store for local/dev use.
type InMemoryStore struct {
	mu          sync.RWMutex
	users       map[string]User
	courses     map[string]Course
	assignments []Assignment
	events      []Event
	materials   []Material
	tickets     []Ticket
	logs        []ActionLogEntry
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		users:   make(map[string]User),
		courses: make(map[string]Course),
	}
}

func (s *InMemoryStore) AddUser(u User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	s.users[u.ID] = u
}

func (s *InMemoryStore) AddCourse(c Course) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	s.courses[c.ID] = c
}

func (s *InMemoryStore) AddAssignment(a Assignment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	s.assignments = append(s.assignments, a)
}

func (s *InMemoryStore) AddEvent(e Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	s.events = append(s.events, e)
}

func (s *InMemoryStore) AddMaterial(m Material) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	s.materials = append(s.materials, m)
}

func (s *InMemoryStore) AddTicket(t Ticket) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	s.tickets = append(s.tickets, t)
}

func (s *InMemoryStore) GetUser(_ context.Context, userID string) (User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[userID]
	if !ok {
		return User{}, ErrNotFound
	}
	return u, nil
}

func (s *InMemoryStore) ListStudents(_ context.Context, limit int) ([]User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]User, 0, len(s.users))
	for _, u := range s.users {
		if u.Role == "student" {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *InMemoryStore) ListCourses(_ context.Context) ([]Course, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Course, 0, len(s.courses))
	for _, c := range s.courses {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (s *InMemoryStore) ListCoursesByIDs(_ context.Context, ids []string) ([]Course, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Course, 0, len(ids))
	for _, id := range ids {
		if c, ok := s.courses[id]; ok {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (s *InMemoryStore) ListAssignments(_ context.Context, userID string) ([]Assignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Assignment, 0, 8)
	for _, a := range s.assignments {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DueDate.Before(out[j].DueDate) })
	return out, nil
}

func (s *InMemoryStore) ListAllAssignments(_ context.Context, limit int) ([]Assignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Assignment, len(s.assignments))
	copy(out, s.assignments)
	sort.Slice(out, func(i, j int) bool { return out[i].DueDate.Before(out[j].DueDate) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *InMemoryStore) ListEvents(_ context.Context) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Event, len(s.events))
	copy(out, s.events)
	sort.Slice(out, func(i, j int) bool { return out[i].StartsAt.Before(out[j].StartsAt) })
	return out, nil
}

func (s *InMemoryStore) SearchMaterials(_ context.Context, query string, limit int) ([]Material, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if limit <= 0 {
		limit = 50
	}
	needle := strings.ToLower(strings.TrimSpace(query))
	out := make([]Material, 0, limit)
	for _, m := range s.materials {
		if needle == "" || materialMatches(m, needle) {
			out = append(out, m)
			if len(out) >= limit {
				break
			}
		}
	}
	return out, nil
}

func materialMatches(m Material, needle string) bool {
	if strings.Contains(strings.ToLower(m.Title), needle) {
		return true
	}
	if strings.Contains(strings.ToLower(m.Description), needle) {
		return true
	}
	for _, tag := range m.Tags {
		if strings.Contains(strings.ToLower(tag), needle) {
			return true
		}
	}
	return false
}

func (s *InMemoryStore) ListTickets(_ context.Context, limit int) ([]Ticket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if limit <= 0 {
		limit = 100
	}
	out := make([]Ticket, len(s.tickets))
	copy(out, s.tickets)
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *InMemoryStore) Counts(_ context.Context) (Counts, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c := Counts{
		Courses:     len(s.courses),
		Events:      len(s.events),
		Materials:   len(s.materials),
		Assignments: len(s.assignments),
		Tickets:     len(s.tickets),
	}
	for _, u := range s.users {
		if u.Role == "student" {
			c.Students++
		}
	}
	return c, nil
}

func (s *InMemoryStore) AppendActionLog(_ context.Context, entry ActionLogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	if entry.Details == nil {
		entry.Details = map[string]any{}
	}
	s.logs = append(s.logs, entry)
	return nil
}

// ActionLog returns a copy of the audit trail, oldest first.
func (s *InMemoryStore) ActionLog() []ActionLogEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ActionLogEntry, len(s.logs))
	copy(out, s.logs)
	return out
}

func (s *InMemoryStore) Close() error { return nil }
