package store

import (
	"context"
	"sync"
	"time"

	"rollcall/internal/analytics/models"
)

// InMemory is an append-only slice-backed Store for tests.
type InMemory struct {
	mu   sync.RWMutex
	rows []*models.EventLog
	next int64
}

func NewInMemory() *InMemory {
	return &InMemory{}
}

func (m *InMemory) Append(_ context.Context, e *models.EventLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.next++
	cp := *e
	cp.ID = m.next
	cp.SavedAt = time.Now()
	m.rows = append(m.rows, &cp)
	e.ID = cp.ID
	e.SavedAt = cp.SavedAt
	return nil
}

func (m *InMemory) ListByType(_ context.Context, eventType string, limit int) ([]*models.EventLog, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*models.EventLog
	for i := len(m.rows) - 1; i >= 0 && (limit <= 0 || len(out) < limit); i-- {
		if m.rows[i].Type == eventType {
			cp := *m.rows[i]
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *InMemory) ListRecent(_ context.Context, limit int) ([]*models.EventLog, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*models.EventLog
	for i := len(m.rows) - 1; i >= 0 && (limit <= 0 || len(out) < limit); i-- {
		cp := *m.rows[i]
		out = append(out, &cp)
	}
	return out, nil
}

func (m *InMemory) CountByType(_ context.Context) (map[string]int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	counts := make(map[string]int64)
	for _, r := range m.rows {
		counts[r.Type]++
	}
	return counts, nil
}
