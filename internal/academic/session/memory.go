package session

import (
	"context"
	"sort"
	"sync"
	"time"

	"rollcall/internal/academic/models"
	"rollcall/pkg/platform/sentinel"
)

// InMemory is a thread-safe map-backed Store for tests and local runs. The
// single mutex gives the same one-winner close semantics as the conditional
// UPDATE in the Postgres store.
type InMemory struct {
	mu     sync.Mutex
	byID   map[string]*models.Session
	bySlot map[slotKey]string
}

type slotKey struct {
	scheduleID  string
	sessionDate string
}

func NewInMemory() *InMemory {
	return &InMemory{
		byID:   make(map[string]*models.Session),
		bySlot: make(map[slotKey]string),
	}
}

func (m *InMemory) Create(_ context.Context, s *models.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := slotKey{s.ScheduleID, s.SessionDate}
	if _, exists := m.bySlot[key]; exists {
		return sentinel.ErrConflict
	}
	cp := *s
	m.byID[s.ID] = &cp
	m.bySlot[key] = s.ID
	return nil
}

func (m *InMemory) Close(_ context.Context, id string, closedAt time.Time) (*models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.byID[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if !s.IsOpen {
		return nil, sentinel.ErrInvalidState
	}
	s.IsOpen = false
	t := closedAt
	s.ClosedAt = &t
	cp := *s
	return &cp, nil
}

func (m *InMemory) FindByID(_ context.Context, id string) (*models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.byID[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *InMemory) ListBySchedule(_ context.Context, scheduleID string) ([]*models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*models.Session
	for _, s := range m.byID {
		if s.ScheduleID == scheduleID {
			cp := *s
			out = append(out, &cp)
		}
	}
	sortSessions(out)
	return out, nil
}

func (m *InMemory) ListOpen(_ context.Context) ([]*models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*models.Session
	for _, s := range m.byID {
		if s.IsOpen {
			cp := *s
			out = append(out, &cp)
		}
	}
	sortSessions(out)
	return out, nil
}

func sortSessions(ss []*models.Session) {
	sort.Slice(ss, func(i, j int) bool {
		if ss[i].SessionDate != ss[j].SessionDate {
			return ss[i].SessionDate < ss[j].SessionDate
		}
		return ss[i].OpenedAt.Before(ss[j].OpenedAt)
	})
}
