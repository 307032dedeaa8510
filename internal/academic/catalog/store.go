// Package catalog owns the schedule entities: courses, classes, and the
// class schedules that attendance sessions hang off.
package catalog

import (
	"context"

	"rollcall/internal/academic/models"
)

// Store is the catalog persistence boundary.
//
// Creates return sentinel.ErrConflict on unique-key collisions (course code;
// class semester/major/group; schedule class+course+slot). Deletes return
// sentinel.ErrConflict when dependent rows still reference the entity, and
// sentinel.ErrNotFound when it is absent.
//
// ScheduleOwner resolves schedule -> course -> lecturer in one lookup; it is
// the authorization join used by session transitions.
type Store interface {
	CreateCourse(ctx context.Context, c *models.Course) error
	UpdateCourse(ctx context.Context, c *models.Course) error
	DeleteCourse(ctx context.Context, id string) error
	FindCourse(ctx context.Context, id string) (*models.Course, error)
	ListCourses(ctx context.Context) ([]*models.Course, error)

	CreateClass(ctx context.Context, c *models.Class) error
	UpdateClass(ctx context.Context, c *models.Class) error
	DeleteClass(ctx context.Context, id string) error
	FindClass(ctx context.Context, id string) (*models.Class, error)
	ListClasses(ctx context.Context) ([]*models.Class, error)

	CreateSchedule(ctx context.Context, s *models.Schedule) error
	UpdateSchedule(ctx context.Context, s *models.Schedule) error
	DeleteSchedule(ctx context.Context, id string) error
	FindSchedule(ctx context.Context, id string) (*models.Schedule, error)
	ListSchedules(ctx context.Context) ([]*models.Schedule, error)

	ScheduleOwner(ctx context.Context, scheduleID string) (string, error)
}
