package catalog

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"rollcall/internal/academic/models"
	dErrors "rollcall/pkg/domain-errors"
	"rollcall/pkg/events"
	"rollcall/pkg/platform/sentinel"
)

// Publisher is the slice of the event producer the catalog needs.
type Publisher interface {
	Publish(ctx context.Context, topic, key string, env events.Envelope) error
}

// Service owns schedule-entity CRUD. Every committed mutation publishes the
// matching event; a lost event is logged, never rolled back.
type Service struct {
	store     Store
	publisher Publisher
	logger    *slog.Logger
	now       func() time.Time
}

func NewService(store Store, publisher Publisher, logger *slog.Logger) *Service {
	return &Service{store: store, publisher: publisher, logger: logger, now: time.Now}
}

// CourseInput carries course fields for create and update.
type CourseInput struct {
	Code       string
	Name       string
	Credits    int
	LecturerID string
}

func (s *Service) CreateCourse(ctx context.Context, in CourseInput) (*models.Course, error) {
	in.Code = strings.TrimSpace(in.Code)
	in.Name = strings.TrimSpace(in.Name)
	if in.Code == "" || in.Name == "" || in.Credits <= 0 || in.LecturerID == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "code, name, credits and lecturer_id are required")
	}

	now := s.now()
	course := &models.Course{
		ID:         uuid.NewString(),
		Code:       in.Code,
		Name:       in.Name,
		Credits:    in.Credits,
		LecturerID: in.LecturerID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.store.CreateCourse(ctx, course); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "course with this code already exists")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create course")
	}
	s.publish(ctx, events.TypeCourseAdded, course.ID, coursePayload(course))
	return course, nil
}

func (s *Service) UpdateCourse(ctx context.Context, id string, in CourseInput) (*models.Course, error) {
	course, err := s.store.FindCourse(ctx, id)
	if err != nil {
		return nil, wrapCatalogErr(err, "course")
	}
	if v := strings.TrimSpace(in.Code); v != "" {
		course.Code = v
	}
	if v := strings.TrimSpace(in.Name); v != "" {
		course.Name = v
	}
	if in.Credits > 0 {
		course.Credits = in.Credits
	}
	if in.LecturerID != "" {
		course.LecturerID = in.LecturerID
	}
	course.UpdatedAt = s.now()

	if err := s.store.UpdateCourse(ctx, course); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "course with this code already exists")
		}
		return nil, wrapCatalogErr(err, "course")
	}
	s.publish(ctx, events.TypeCourseUpdated, course.ID, coursePayload(course))
	return course, nil
}

func (s *Service) DeleteCourse(ctx context.Context, id string) error {
	if err := s.store.DeleteCourse(ctx, id); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return dErrors.New(dErrors.CodeConflict, "course still referenced by schedules")
		}
		return wrapCatalogErr(err, "course")
	}
	s.publish(ctx, events.TypeCourseDeleted, id, events.Deleted{ID: id})
	return nil
}

func (s *Service) GetCourse(ctx context.Context, id string) (*models.Course, error) {
	course, err := s.store.FindCourse(ctx, id)
	if err != nil {
		return nil, wrapCatalogErr(err, "course")
	}
	return course, nil
}

func (s *Service) ListCourses(ctx context.Context) ([]*models.Course, error) {
	out, err := s.store.ListCourses(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list courses")
	}
	return out, nil
}

// ClassInput carries class fields for create and update.
type ClassInput struct {
	Semester string
	Major    string
	Group    string
}

func (s *Service) CreateClass(ctx context.Context, in ClassInput) (*models.Class, error) {
	in.Semester = strings.TrimSpace(in.Semester)
	in.Major = strings.TrimSpace(in.Major)
	in.Group = strings.TrimSpace(in.Group)
	if in.Semester == "" || in.Major == "" || in.Group == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "semester, major and group are required")
	}

	now := s.now()
	class := &models.Class{
		ID:        uuid.NewString(),
		Semester:  in.Semester,
		Major:     in.Major,
		Group:     in.Group,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.CreateClass(ctx, class); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "class with this semester, major and group already exists")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create class")
	}
	s.publish(ctx, events.TypeClassAdded, class.ID, classPayload(class))
	return class, nil
}

func (s *Service) UpdateClass(ctx context.Context, id string, in ClassInput) (*models.Class, error) {
	class, err := s.store.FindClass(ctx, id)
	if err != nil {
		return nil, wrapCatalogErr(err, "class")
	}
	if v := strings.TrimSpace(in.Semester); v != "" {
		class.Semester = v
	}
	if v := strings.TrimSpace(in.Major); v != "" {
		class.Major = v
	}
	if v := strings.TrimSpace(in.Group); v != "" {
		class.Group = v
	}
	class.UpdatedAt = s.now()

	if err := s.store.UpdateClass(ctx, class); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "class with this semester, major and group already exists")
		}
		return nil, wrapCatalogErr(err, "class")
	}
	s.publish(ctx, events.TypeClassUpdated, class.ID, classPayload(class))
	return class, nil
}

func (s *Service) DeleteClass(ctx context.Context, id string) error {
	if err := s.store.DeleteClass(ctx, id); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return dErrors.New(dErrors.CodeConflict, "class still referenced by schedules")
		}
		return wrapCatalogErr(err, "class")
	}
	s.publish(ctx, events.TypeClassDeleted, id, events.Deleted{ID: id})
	return nil
}

func (s *Service) GetClass(ctx context.Context, id string) (*models.Class, error) {
	class, err := s.store.FindClass(ctx, id)
	if err != nil {
		return nil, wrapCatalogErr(err, "class")
	}
	return class, nil
}

func (s *Service) ListClasses(ctx context.Context) ([]*models.Class, error) {
	out, err := s.store.ListClasses(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list classes")
	}
	return out, nil
}

// ScheduleInput carries schedule fields for create and update.
type ScheduleInput struct {
	ClassID   string
	CourseID  string
	DayOfWeek string
	StartTime string
	EndTime   string
	Room      string
}

func (s *Service) CreateSchedule(ctx context.Context, in ScheduleInput) (*models.Schedule, error) {
	if in.ClassID == "" || in.CourseID == "" || in.DayOfWeek == "" || in.StartTime == "" || in.EndTime == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "class_id, course_id, day_of_week, start_time and end_time are required")
	}
	if _, err := s.store.FindClass(ctx, in.ClassID); err != nil {
		return nil, wrapCatalogErr(err, "class")
	}
	if _, err := s.store.FindCourse(ctx, in.CourseID); err != nil {
		return nil, wrapCatalogErr(err, "course")
	}

	now := s.now()
	sched := &models.Schedule{
		ID:        uuid.NewString(),
		ClassID:   in.ClassID,
		CourseID:  in.CourseID,
		DayOfWeek: in.DayOfWeek,
		StartTime: in.StartTime,
		EndTime:   in.EndTime,
		Room:      in.Room,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.CreateSchedule(ctx, sched); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "schedule slot already taken for this class")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create schedule")
	}
	s.publish(ctx, events.TypeScheduleAdded, sched.ID, schedulePayload(sched))
	return sched, nil
}

func (s *Service) UpdateSchedule(ctx context.Context, id string, in ScheduleInput) (*models.Schedule, error) {
	sched, err := s.store.FindSchedule(ctx, id)
	if err != nil {
		return nil, wrapCatalogErr(err, "schedule")
	}
	if in.DayOfWeek != "" {
		sched.DayOfWeek = in.DayOfWeek
	}
	if in.StartTime != "" {
		sched.StartTime = in.StartTime
	}
	if in.EndTime != "" {
		sched.EndTime = in.EndTime
	}
	if in.Room != "" {
		sched.Room = in.Room
	}
	sched.UpdatedAt = s.now()

	if err := s.store.UpdateSchedule(ctx, sched); err != nil {
		return nil, wrapCatalogErr(err, "schedule")
	}
	s.publish(ctx, events.TypeScheduleUpdated, sched.ID, schedulePayload(sched))
	return sched, nil
}

func (s *Service) DeleteSchedule(ctx context.Context, id string) error {
	if err := s.store.DeleteSchedule(ctx, id); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return dErrors.New(dErrors.CodeConflict, "schedule still referenced by sessions")
		}
		return wrapCatalogErr(err, "schedule")
	}
	s.publish(ctx, events.TypeScheduleDeleted, id, events.Deleted{ID: id})
	return nil
}

func (s *Service) GetSchedule(ctx context.Context, id string) (*models.Schedule, error) {
	sched, err := s.store.FindSchedule(ctx, id)
	if err != nil {
		return nil, wrapCatalogErr(err, "schedule")
	}
	return sched, nil
}

func (s *Service) ListSchedules(ctx context.Context) ([]*models.Schedule, error) {
	out, err := s.store.ListSchedules(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list schedules")
	}
	return out, nil
}

func (s *Service) publish(ctx context.Context, eventType, key string, payload any) {
	env, err := events.New(eventType, payload)
	if err == nil {
		err = s.publisher.Publish(ctx, events.TopicAcademicEvents, key, env)
	}
	if err != nil {
		s.logger.ErrorContext(ctx, "catalog event lost",
			"type", eventType,
			"key", key,
			"error", err,
		)
	}
}

func coursePayload(c *models.Course) events.Course {
	return events.Course{CourseID: c.ID, Code: c.Code, Name: c.Name, Credits: c.Credits, LecturerID: c.LecturerID}
}

func classPayload(c *models.Class) events.Class {
	return events.Class{ClassID: c.ID, Semester: c.Semester, Major: c.Major, Group: c.Group}
}

func schedulePayload(s *models.Schedule) events.Schedule {
	return events.Schedule{
		ScheduleID: s.ID,
		ClassID:    s.ClassID,
		CourseID:   s.CourseID,
		DayOfWeek:  s.DayOfWeek,
		StartTime:  s.StartTime,
		EndTime:    s.EndTime,
		Room:       s.Room,
	}
}

func wrapCatalogErr(err error, entity string) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.Newf(dErrors.CodeNotFound, "%s not found", entity)
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "catalog store failure")
}
