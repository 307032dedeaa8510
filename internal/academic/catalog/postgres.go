package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"rollcall/internal/academic/models"
	"rollcall/internal/platform/postgres"
	"rollcall/pkg/platform/sentinel"
)

// Postgres persists the catalog in the academic database.
type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func (s *Postgres) CreateCourse(ctx context.Context, c *models.Course) error {
	query := `
		INSERT INTO courses (id, code, name, credits, lecturer_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := s.pool.Exec(ctx, query,
		c.ID, c.Code, c.Name, c.Credits, c.LecturerID, c.CreatedAt, c.UpdatedAt)
	return writeErr("insert course", err)
}

func (s *Postgres) UpdateCourse(ctx context.Context, c *models.Course) error {
	query := `
		UPDATE courses SET code = $1, name = $2, credits = $3, lecturer_id = $4, updated_at = $5
		WHERE id = $6
	`
	tag, err := s.pool.Exec(ctx, query,
		c.Code, c.Name, c.Credits, c.LecturerID, c.UpdatedAt, c.ID)
	if err := writeErr("update course", err); err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Postgres) DeleteCourse(ctx context.Context, id string) error {
	return s.deleteRow(ctx, `DELETE FROM courses WHERE id = $1`, id, "delete course")
}

func (s *Postgres) FindCourse(ctx context.Context, id string) (*models.Course, error) {
	var c models.Course
	err := s.pool.QueryRow(ctx,
		`SELECT id, code, name, credits, lecturer_id, created_at, updated_at FROM courses WHERE id = $1`, id).
		Scan(&c.ID, &c.Code, &c.Name, &c.Credits, &c.LecturerID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, readErr("select course", err)
	}
	return &c, nil
}

func (s *Postgres) ListCourses(ctx context.Context) ([]*models.Course, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, code, name, credits, lecturer_id, created_at, updated_at FROM courses ORDER BY code`)
	if err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	defer rows.Close()

	var out []*models.Course
	for rows.Next() {
		var c models.Course
		if err := rows.Scan(&c.ID, &c.Code, &c.Name, &c.Credits, &c.LecturerID, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan course: %w", err)
		}
		out = append(out, &c)
	}
	return out, rows.Err()
}

func (s *Postgres) CreateClass(ctx context.Context, c *models.Class) error {
	query := `
		INSERT INTO classes (id, semester, major, group_name, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := s.pool.Exec(ctx, query, c.ID, c.Semester, c.Major, c.Group, c.CreatedAt, c.UpdatedAt)
	return writeErr("insert class", err)
}

func (s *Postgres) UpdateClass(ctx context.Context, c *models.Class) error {
	query := `
		UPDATE classes SET semester = $1, major = $2, group_name = $3, updated_at = $4
		WHERE id = $5
	`
	tag, err := s.pool.Exec(ctx, query, c.Semester, c.Major, c.Group, c.UpdatedAt, c.ID)
	if err := writeErr("update class", err); err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Postgres) DeleteClass(ctx context.Context, id string) error {
	return s.deleteRow(ctx, `DELETE FROM classes WHERE id = $1`, id, "delete class")
}

func (s *Postgres) FindClass(ctx context.Context, id string) (*models.Class, error) {
	var c models.Class
	err := s.pool.QueryRow(ctx,
		`SELECT id, semester, major, group_name, created_at, updated_at FROM classes WHERE id = $1`, id).
		Scan(&c.ID, &c.Semester, &c.Major, &c.Group, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, readErr("select class", err)
	}
	return &c, nil
}

func (s *Postgres) ListClasses(ctx context.Context) ([]*models.Class, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, semester, major, group_name, created_at, updated_at FROM classes ORDER BY semester, major, group_name`)
	if err != nil {
		return nil, fmt.Errorf("list classes: %w", err)
	}
	defer rows.Close()

	var out []*models.Class
	for rows.Next() {
		var c models.Class
		if err := rows.Scan(&c.ID, &c.Semester, &c.Major, &c.Group, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan class: %w", err)
		}
		out = append(out, &c)
	}
	return out, rows.Err()
}

func (s *Postgres) CreateSchedule(ctx context.Context, sched *models.Schedule) error {
	query := `
		INSERT INTO schedules (id, class_id, course_id, day_of_week, start_time, end_time, room, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := s.pool.Exec(ctx, query,
		sched.ID, sched.ClassID, sched.CourseID, sched.DayOfWeek,
		sched.StartTime, sched.EndTime, sched.Room, sched.CreatedAt, sched.UpdatedAt)
	return writeErr("insert schedule", err)
}

func (s *Postgres) UpdateSchedule(ctx context.Context, sched *models.Schedule) error {
	query := `
		UPDATE schedules SET day_of_week = $1, start_time = $2, end_time = $3, room = $4, updated_at = $5
		WHERE id = $6
	`
	tag, err := s.pool.Exec(ctx, query,
		sched.DayOfWeek, sched.StartTime, sched.EndTime, sched.Room, sched.UpdatedAt, sched.ID)
	if err := writeErr("update schedule", err); err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Postgres) DeleteSchedule(ctx context.Context, id string) error {
	return s.deleteRow(ctx, `DELETE FROM schedules WHERE id = $1`, id, "delete schedule")
}

func (s *Postgres) FindSchedule(ctx context.Context, id string) (*models.Schedule, error) {
	var sched models.Schedule
	err := s.pool.QueryRow(ctx,
		`SELECT id, class_id, course_id, day_of_week, start_time, end_time, COALESCE(room, ''), created_at, updated_at
		 FROM schedules WHERE id = $1`, id).
		Scan(&sched.ID, &sched.ClassID, &sched.CourseID, &sched.DayOfWeek,
			&sched.StartTime, &sched.EndTime, &sched.Room, &sched.CreatedAt, &sched.UpdatedAt)
	if err != nil {
		return nil, readErr("select schedule", err)
	}
	return &sched, nil
}

func (s *Postgres) ListSchedules(ctx context.Context) ([]*models.Schedule, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, class_id, course_id, day_of_week, start_time, end_time, COALESCE(room, ''), created_at, updated_at
		 FROM schedules ORDER BY day_of_week, start_time`)
	if err != nil {
		return nil, fmt.Errorf("list schedules: %w", err)
	}
	defer rows.Close()

	var out []*models.Schedule
	for rows.Next() {
		var sched models.Schedule
		if err := rows.Scan(&sched.ID, &sched.ClassID, &sched.CourseID, &sched.DayOfWeek,
			&sched.StartTime, &sched.EndTime, &sched.Room, &sched.CreatedAt, &sched.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan schedule: %w", err)
		}
		out = append(out, &sched)
	}
	return out, rows.Err()
}

// ScheduleOwner joins schedule -> course to find the owning lecturer.
func (s *Postgres) ScheduleOwner(ctx context.Context, scheduleID string) (string, error) {
	var lecturerID string
	err := s.pool.QueryRow(ctx, `
		SELECT c.lecturer_id
		FROM schedules sc
		JOIN courses c ON sc.course_id = c.id
		WHERE sc.id = $1
	`, scheduleID).Scan(&lecturerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", sentinel.ErrNotFound
		}
		return "", fmt.Errorf("select schedule owner: %w", err)
	}
	return lecturerID, nil
}

func (s *Postgres) deleteRow(ctx context.Context, query, id, op string) error {
	tag, err := s.pool.Exec(ctx, query, id)
	if err != nil {
		if postgres.IsForeignKeyViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	if tag.RowsAffected() == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func writeErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if postgres.IsUniqueViolation(err) {
		return sentinel.ErrConflict
	}
	return fmt.Errorf("%s: %w", op, err)
}

func readErr(op string, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return sentinel.ErrNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}
