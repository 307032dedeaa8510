package attendance

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

// Postgres stores attendance in the attendances table. The UNIQUE constraint
// on (session_id, student_id) is the duplicate guard; the service never takes
// an application-level lock.
type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func (p *Postgres) Create(ctx context.Context, a *models.Attendance) error {
	_, err := p.pool.Exec(ctx, `
		INSERT INTO attendances (id, session_id, student_id, status, recorded_at)
		VALUES ($1, $2, $3, $4, $5)`,
		a.ID, a.SessionID, a.StudentID, a.Status, a.RecordedAt,
	)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		if postgres.IsForeignKeyViolation(err) {
			return sentinel.ErrNotFound
		}
		return fmt.Errorf("insert attendance: %w", err)
	}
	return nil
}

func (p *Postgres) FindByID(ctx context.Context, id string) (*models.Attendance, error) {
	var a models.Attendance
	err := p.pool.QueryRow(ctx, `
		SELECT id, session_id, student_id, status, recorded_at
		FROM attendances WHERE id = $1`, id,
	).Scan(&a.ID, &a.SessionID, &a.StudentID, &a.Status, &a.RecordedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("query attendance: %w", err)
	}
	return &a, nil
}

func (p *Postgres) ListBySession(ctx context.Context, sessionID string) ([]*models.Attendance, error) {
	return p.list(ctx, `
		SELECT id, session_id, student_id, status, recorded_at
		FROM attendances WHERE session_id = $1
		ORDER BY recorded_at`, sessionID)
}

func (p *Postgres) ListByStudent(ctx context.Context, studentID string) ([]*models.Attendance, error) {
	return p.list(ctx, `
		SELECT id, session_id, student_id, status, recorded_at
		FROM attendances WHERE student_id = $1
		ORDER BY recorded_at`, studentID)
}

func (p *Postgres) list(ctx context.Context, query string, args ...any) ([]*models.Attendance, error) {
	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query attendances: %w", err)
	}
	defer rows.Close()

	var out []*models.Attendance
	for rows.Next() {
		var a models.Attendance
		if err := rows.Scan(&a.ID, &a.SessionID, &a.StudentID, &a.Status, &a.RecordedAt); err != nil {
			return nil, fmt.Errorf("scan attendance: %w", err)
		}
		out = append(out, &a)
	}
	return out, rows.Err()
}
