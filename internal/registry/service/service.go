// Package service orchestrates student writes: commit locally, then publish
// the corresponding event. Publish failures are logged, never rolled back;
// that gap is an accepted property of the design.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"rollcall/internal/registry/models"
	"rollcall/internal/registry/store"
	dErrors "rollcall/pkg/domain-errors"
	"rollcall/pkg/events"
	"rollcall/pkg/platform/sentinel"
)

// Publisher is the slice of the event producer this service needs.
type Publisher interface {
	Publish(ctx context.Context, topic, key string, env events.Envelope) error
}

// Service owns the authoritative student lifecycle.
type Service struct {
	students  store.Store
	publisher Publisher
	logger    *slog.Logger
	now       func() time.Time
}

func New(students store.Store, publisher Publisher, logger *slog.Logger) *Service {
	return &Service{students: students, publisher: publisher, logger: logger, now: time.Now}
}

// AddStudentInput carries the fields of a new student.
type AddStudentInput struct {
	NIM   string
	Name  string
	Major string
}

// AddStudent commits a new student and publishes STUDENT_ADDED carrying the
// producer-measured processing latency.
func (s *Service) AddStudent(ctx context.Context, in AddStudentInput) (*models.Student, error) {
	in.NIM = strings.TrimSpace(in.NIM)
	in.Name = strings.TrimSpace(in.Name)
	in.Major = strings.TrimSpace(in.Major)
	if in.NIM == "" || in.Name == "" || in.Major == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "nim, name and major are required")
	}

	start := s.now()
	student := &models.Student{
		ID:        uuid.NewString(),
		NIM:       in.NIM,
		Name:      in.Name,
		Major:     in.Major,
		CreatedAt: start,
		UpdatedAt: start,
	}
	if err := s.students.Create(ctx, student); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "student with this nim already exists")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create student")
	}

	env, err := events.New(events.TypeStudentAdded, events.StudentAdded{
		ID:    student.ID,
		NIM:   student.NIM,
		Name:  student.Name,
		Major: student.Major,
	})
	if err == nil {
		env = env.WithLatency(s.now().Sub(start))
		err = s.publisher.Publish(ctx, events.TopicStudentEvents, student.ID, env)
	}
	if err != nil {
		// The row is committed; the event is lost until a replay repairs it.
		s.logger.ErrorContext(ctx, "student event lost",
			"type", events.TypeStudentAdded,
			"student_id", student.ID,
			"error", err,
		)
	}
	return student, nil
}

// UpdateStudentInput carries mutable display fields.
type UpdateStudentInput struct {
	Name  string
	Major string
}

// UpdateStudent commits changed display fields and publishes STUDENT_UPDATED.
func (s *Service) UpdateStudent(ctx context.Context, id string, in UpdateStudentInput) (*models.Student, error) {
	if id == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "student id is required")
	}
	in.Name = strings.TrimSpace(in.Name)
	in.Major = strings.TrimSpace(in.Major)
	if in.Name == "" && in.Major == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "no fields to update")
	}

	student, err := s.students.FindByID(ctx, id)
	if err != nil {
		return nil, wrapStudentErr(err)
	}
	if in.Name != "" {
		student.Name = in.Name
	}
	if in.Major != "" {
		student.Major = in.Major
	}
	student.UpdatedAt = s.now()

	if err := s.students.Update(ctx, student); err != nil {
		return nil, wrapStudentErr(err)
	}

	env, err := events.New(events.TypeStudentUpdated, events.StudentUpdated{
		ID:    student.ID,
		Name:  student.Name,
		Major: student.Major,
	})
	if err == nil {
		err = s.publisher.Publish(ctx, events.TopicStudentEvents, student.ID, env)
	}
	if err != nil {
		s.logger.ErrorContext(ctx, "student event lost",
			"type", events.TypeStudentUpdated,
			"student_id", student.ID,
			"error", err,
		)
	}
	return student, nil
}

// GetStudent looks up a student by id.
func (s *Service) GetStudent(ctx context.Context, id string) (*models.Student, error) {
	if id == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "student id is required")
	}
	student, err := s.students.FindByID(ctx, id)
	if err != nil {
		return nil, wrapStudentErr(err)
	}
	return student, nil
}

// GetStudentByNIM looks up a student by natural key.
func (s *Service) GetStudentByNIM(ctx context.Context, nim string) (*models.Student, error) {
	if nim == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "nim is required")
	}
	student, err := s.students.FindByNIM(ctx, nim)
	if err != nil {
		return nil, wrapStudentErr(err)
	}
	return student, nil
}

// ListStudents returns all students ordered by nim.
func (s *Service) ListStudents(ctx context.Context) ([]*models.Student, error) {
	students, err := s.students.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list students")
	}
	return students, nil
}

func wrapStudentErr(err error) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "student not found")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "student store failure")
}
