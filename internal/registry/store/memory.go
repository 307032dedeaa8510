package store

import (
	"context"
	"sort"
	"sync"

	"rollcall/internal/registry/models"
	"rollcall/pkg/platform/sentinel"
)

// InMemory keeps students in maps guarded by a mutex. It mirrors the
// postgres store's constraint behavior so services test without a database.
type InMemory struct {
	mu    sync.RWMutex
	byID  map[string]*models.Student
	byNIM map[string]string // nim -> id
}

func NewInMemory() *InMemory {
	return &InMemory{
		byID:  make(map[string]*models.Student),
		byNIM: make(map[string]string),
	}
}

func (s *InMemory) Create(_ context.Context, student *models.Student) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byNIM[student.NIM]; exists {
		return sentinel.ErrConflict
	}
	if _, exists := s.byID[student.ID]; exists {
		return sentinel.ErrConflict
	}
	copied := *student
	s.byID[student.ID] = &copied
	s.byNIM[student.NIM] = student.ID
	return nil
}

func (s *InMemory) Update(_ context.Context, student *models.Student) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.byID[student.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	existing.Name = student.Name
	existing.Major = student.Major
	existing.UpdatedAt = student.UpdatedAt
	return nil
}

func (s *InMemory) FindByID(_ context.Context, id string) (*models.Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	student, ok := s.byID[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copied := *student
	return &copied, nil
}

func (s *InMemory) FindByNIM(_ context.Context, nim string) (*models.Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byNIM[nim]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copied := *s.byID[id]
	return &copied, nil
}

func (s *InMemory) List(_ context.Context) ([]*models.Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	students := make([]*models.Student, 0, len(s.byID))
	for _, student := range s.byID {
		copied := *student
		students = append(students, &copied)
	}
	sort.Slice(students, func(i, j int) bool { return students[i].NIM < students[j].NIM })
	return students, nil
}
