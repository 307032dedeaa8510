package catalog

import (
	"context"
	"sync"

	"rollcall/internal/academic/models"
	"rollcall/pkg/platform/sentinel"
)

// InMemory mirrors the postgres catalog's constraint behavior.
type InMemory struct {
	mu        sync.RWMutex
	courses   map[string]*models.Course
	classes   map[string]*models.Class
	schedules map[string]*models.Schedule
}

func NewInMemory() *InMemory {
	return &InMemory{
		courses:   make(map[string]*models.Course),
		classes:   make(map[string]*models.Class),
		schedules: make(map[string]*models.Schedule),
	}
}

func (s *InMemory) CreateCourse(_ context.Context, c *models.Course) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.courses {
		if existing.Code == c.Code {
			return sentinel.ErrConflict
		}
	}
	copied := *c
	s.courses[c.ID] = &copied
	return nil
}

func (s *InMemory) UpdateCourse(_ context.Context, c *models.Course) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.courses[c.ID]; !ok {
		return sentinel.ErrNotFound
	}
	for id, existing := range s.courses {
		if existing.Code == c.Code && id != c.ID {
			return sentinel.ErrConflict
		}
	}
	copied := *c
	s.courses[c.ID] = &copied
	return nil
}

func (s *InMemory) DeleteCourse(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.courses[id]; !ok {
		return sentinel.ErrNotFound
	}
	for _, sched := range s.schedules {
		if sched.CourseID == id {
			return sentinel.ErrConflict
		}
	}
	delete(s.courses, id)
	return nil
}

func (s *InMemory) FindCourse(_ context.Context, id string) (*models.Course, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.courses[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copied := *c
	return &copied, nil
}

func (s *InMemory) ListCourses(_ context.Context) ([]*models.Course, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Course, 0, len(s.courses))
	for _, c := range s.courses {
		copied := *c
		out = append(out, &copied)
	}
	return out, nil
}

func (s *InMemory) CreateClass(_ context.Context, c *models.Class) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.classes {
		if existing.Semester == c.Semester && existing.Major == c.Major && existing.Group == c.Group {
			return sentinel.ErrConflict
		}
	}
	copied := *c
	s.classes[c.ID] = &copied
	return nil
}

func (s *InMemory) UpdateClass(_ context.Context, c *models.Class) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.classes[c.ID]; !ok {
		return sentinel.ErrNotFound
	}
	for id, existing := range s.classes {
		if existing.Semester == c.Semester && existing.Major == c.Major && existing.Group == c.Group && id != c.ID {
			return sentinel.ErrConflict
		}
	}
	copied := *c
	s.classes[c.ID] = &copied
	return nil
}

func (s *InMemory) DeleteClass(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.classes[id]; !ok {
		return sentinel.ErrNotFound
	}
	for _, sched := range s.schedules {
		if sched.ClassID == id {
			return sentinel.ErrConflict
		}
	}
	delete(s.classes, id)
	return nil
}

func (s *InMemory) FindClass(_ context.Context, id string) (*models.Class, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.classes[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copied := *c
	return &copied, nil
}

func (s *InMemory) ListClasses(_ context.Context) ([]*models.Class, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Class, 0, len(s.classes))
	for _, c := range s.classes {
		copied := *c
		out = append(out, &copied)
	}
	return out, nil
}

func (s *InMemory) CreateSchedule(_ context.Context, sched *models.Schedule) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.schedules {
		if existing.ClassID == sched.ClassID && existing.CourseID == sched.CourseID &&
			existing.DayOfWeek == sched.DayOfWeek && existing.StartTime == sched.StartTime {
			return sentinel.ErrConflict
		}
	}
	copied := *sched
	s.schedules[sched.ID] = &copied
	return nil
}

func (s *InMemory) UpdateSchedule(_ context.Context, sched *models.Schedule) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.schedules[sched.ID]; !ok {
		return sentinel.ErrNotFound
	}
	copied := *sched
	s.schedules[sched.ID] = &copied
	return nil
}

func (s *InMemory) DeleteSchedule(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.schedules[id]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.schedules, id)
	return nil
}

func (s *InMemory) FindSchedule(_ context.Context, id string) (*models.Schedule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sched, ok := s.schedules[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copied := *sched
	return &copied, nil
}

func (s *InMemory) ListSchedules(_ context.Context) ([]*models.Schedule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Schedule, 0, len(s.schedules))
	for _, sched := range s.schedules {
		copied := *sched
		out = append(out, &copied)
	}
	return out, nil
}

func (s *InMemory) ScheduleOwner(_ context.Context, scheduleID string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sched, ok := s.schedules[scheduleID]
	if !ok {
		return "", sentinel.ErrNotFound
	}
	course, ok := s.courses[sched.CourseID]
	if !ok {
		return "", sentinel.ErrNotFound
	}
	return course.LecturerID, nil
}
