package attendance

import (
	"context"
	"sort"
	"sync"

	"rollcall/internal/academic/models"
	"rollcall/pkg/platform/sentinel"
)

// InMemory is a thread-safe map-backed Store for tests and local runs.
type InMemory struct {
	mu     sync.RWMutex
	byID   map[string]*models.Attendance
	byPair map[pairKey]string
}

type pairKey struct {
	sessionID string
	studentID string
}

func NewInMemory() *InMemory {
	return &InMemory{
		byID:   make(map[string]*models.Attendance),
		byPair: make(map[pairKey]string),
	}
}

func (m *InMemory) Create(_ context.Context, a *models.Attendance) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := pairKey{a.SessionID, a.StudentID}
	if _, exists := m.byPair[key]; exists {
		return sentinel.ErrConflict
	}
	cp := *a
	m.byID[a.ID] = &cp
	m.byPair[key] = a.ID
	return nil
}

func (m *InMemory) FindByID(_ context.Context, id string) (*models.Attendance, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	a, ok := m.byID[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *InMemory) ListBySession(_ context.Context, sessionID string) ([]*models.Attendance, error) {
	return m.filter(func(a *models.Attendance) bool { return a.SessionID == sessionID }), nil
}

func (m *InMemory) ListByStudent(_ context.Context, studentID string) ([]*models.Attendance, error) {
	return m.filter(func(a *models.Attendance) bool { return a.StudentID == studentID }), nil
}

func (m *InMemory) filter(keep func(*models.Attendance) bool) []*models.Attendance {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*models.Attendance
	for _, a := range m.byID {
		if keep(a) {
			cp := *a
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RecordedAt.Before(out[j].RecordedAt) })
	return out
}
