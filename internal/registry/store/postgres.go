package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"rollcall/internal/platform/postgres"
	"rollcall/internal/registry/models"
	"rollcall/pkg/platform/sentinel"
)

// Postgres persists students in the registry database.
type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func (s *Postgres) Create(ctx context.Context, student *models.Student) error {
	query := `
		INSERT INTO students (id, nim, name, major, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := s.pool.Exec(ctx, query,
		student.ID, student.NIM, student.Name, student.Major,
		student.CreatedAt, student.UpdatedAt,
	)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert student: %w", err)
	}
	return nil
}

func (s *Postgres) Update(ctx context.Context, student *models.Student) error {
	query := `
		UPDATE students SET name = $1, major = $2, updated_at = $3
		WHERE id = $4
	`
	tag, err := s.pool.Exec(ctx, query,
		student.Name, student.Major, student.UpdatedAt, student.ID,
	)
	if err != nil {
		return fmt.Errorf("update student: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, id string) (*models.Student, error) {
	return s.findOne(ctx, `SELECT id, nim, name, major, created_at, updated_at FROM students WHERE id = $1`, id)
}

func (s *Postgres) FindByNIM(ctx context.Context, nim string) (*models.Student, error) {
	return s.findOne(ctx, `SELECT id, nim, name, major, created_at, updated_at FROM students WHERE nim = $1`, nim)
}

func (s *Postgres) findOne(ctx context.Context, query string, arg any) (*models.Student, error) {
	var student models.Student
	err := s.pool.QueryRow(ctx, query, arg).Scan(
		&student.ID, &student.NIM, &student.Name, &student.Major,
		&student.CreatedAt, &student.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("select student: %w", err)
	}
	return &student, nil
}

func (s *Postgres) List(ctx context.Context) ([]*models.Student, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, nim, name, major, created_at, updated_at FROM students ORDER BY nim`)
	if err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	defer rows.Close()

	var students []*models.Student
	for rows.Next() {
		var student models.Student
		if err := rows.Scan(
			&student.ID, &student.NIM, &student.Name, &student.Major,
			&student.CreatedAt, &student.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan student: %w", err)
		}
		students = append(students, &student)
	}
	return students, rows.Err()
}
