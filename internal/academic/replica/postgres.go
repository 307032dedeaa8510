package replica

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

// Postgres persists the student replica. The student_id primary key is the
// upsert conflict target; the nim unique constraint stays as a guard against
// a re-keyed natural key, which surfaces as ErrConflict and is skipped.
type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func (s *Postgres) Upsert(ctx context.Context, r *models.StudentReplica) error {
	query := `
		INSERT INTO student_replicas (student_id, nim, name, major, updated_at)
		VALUES ($1, NULLIF($2, ''), $3, $4, $5)
		ON CONFLICT (student_id) DO UPDATE SET
			nim = EXCLUDED.nim,
			name = EXCLUDED.name,
			major = EXCLUDED.major,
			updated_at = EXCLUDED.updated_at
	`
	_, err := s.pool.Exec(ctx, query, r.StudentID, r.NIM, r.Name, r.Major, r.UpdatedAt)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("upsert student replica: %w", err)
	}
	return nil
}

func (s *Postgres) UpsertDisplay(ctx context.Context, r *models.StudentReplica) error {
	// Does not touch nim: the natural key only arrives with the add event.
	query := `
		INSERT INTO student_replicas (student_id, nim, name, major, updated_at)
		VALUES ($1, NULL, $2, $3, $4)
		ON CONFLICT (student_id) DO UPDATE SET
			name = EXCLUDED.name,
			major = EXCLUDED.major,
			updated_at = EXCLUDED.updated_at
	`
	_, err := s.pool.Exec(ctx, query, r.StudentID, r.Name, r.Major, r.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert student replica display fields: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, studentID string) (*models.StudentReplica, error) {
	return s.findOne(ctx,
		`SELECT student_id, COALESCE(nim, ''), name, major, updated_at
		 FROM student_replicas WHERE student_id = $1`, studentID)
}

func (s *Postgres) FindByNIM(ctx context.Context, nim string) (*models.StudentReplica, error) {
	return s.findOne(ctx,
		`SELECT student_id, COALESCE(nim, ''), name, major, updated_at
		 FROM student_replicas WHERE nim = $1`, nim)
}

func (s *Postgres) findOne(ctx context.Context, query string, arg any) (*models.StudentReplica, error) {
	var r models.StudentReplica
	err := s.pool.QueryRow(ctx, query, arg).Scan(
		&r.StudentID, &r.NIM, &r.Name, &r.Major, &r.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("select student replica: %w", err)
	}
	return &r, nil
}
