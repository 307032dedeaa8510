package replica

import (
	"context"
	"sync"

	"rollcall/internal/academic/models"
	"rollcall/pkg/platform/sentinel"
)

// InMemory mirrors the postgres replica semantics for tests and local runs.
type InMemory struct {
	mu   sync.RWMutex
	byID map[string]*models.StudentReplica
}

func NewInMemory() *InMemory {
	return &InMemory{byID: make(map[string]*models.StudentReplica)}
}

func (s *InMemory) Upsert(_ context.Context, r *models.StudentReplica) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	// NIM stays unique across distinct student ids.
	for id, existing := range s.byID {
		if existing.NIM != "" && existing.NIM == r.NIM && id != r.StudentID {
			return sentinel.ErrConflict
		}
	}
	copied := *r
	s.byID[r.StudentID] = &copied
	return nil
}

func (s *InMemory) UpsertDisplay(_ context.Context, r *models.StudentReplica) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.byID[r.StudentID]
	if !ok {
		copied := *r
		copied.NIM = ""
		s.byID[r.StudentID] = &copied
		return nil
	}
	existing.Name = r.Name
	existing.Major = r.Major
	existing.UpdatedAt = r.UpdatedAt
	return nil
}

func (s *InMemory) FindByID(_ context.Context, studentID string) (*models.StudentReplica, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.byID[studentID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copied := *r
	return &copied, nil
}

func (s *InMemory) FindByNIM(_ context.Context, nim string) (*models.StudentReplica, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if nim == "" {
		return nil, sentinel.ErrNotFound
	}
	for _, r := range s.byID {
		if r.NIM == nim {
			copied := *r
			return &copied, nil
		}
	}
	return nil, sentinel.ErrNotFound
}
