package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"rollcall/internal/academic/models"
	"rollcall/internal/platform/postgres"
	"rollcall/pkg/platform/sentinel"
)

// Postgres stores sessions in the sessions table. The UNIQUE constraint on
// (schedule_id, session_date) enforces one session per slot; the close
// transition is a single conditional UPDATE so concurrent closes race at the
// row lock and exactly one wins.
type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func (p *Postgres) Create(ctx context.Context, s *models.Session) error {
	_, err := p.pool.Exec(ctx, `
		INSERT INTO sessions (id, schedule_id, session_date, opened_at, is_open)
		VALUES ($1, $2, $3, $4, TRUE)`,
		s.ID, s.ScheduleID, s.SessionDate, s.OpenedAt,
	)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		if postgres.IsForeignKeyViolation(err) {
			return sentinel.ErrNotFound
		}
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

func (p *Postgres) Close(ctx context.Context, id string, closedAt time.Time) (*models.Session, error) {
	s := &models.Session{ID: id, ClosedAt: &closedAt}
	err := p.pool.QueryRow(ctx, `
		UPDATE sessions
		SET is_open = FALSE, closed_at = $2
		WHERE id = $1 AND is_open = TRUE
		RETURNING schedule_id, session_date, opened_at`,
		id, closedAt,
	).Scan(&s.ScheduleID, &s.SessionDate, &s.OpenedAt)
	if err == nil {
		return s, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("close session: %w", err)
	}

	// Zero rows: either the session is gone or it already closed.
	var exists bool
	if err := p.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM sessions WHERE id = $1)`, id,
	).Scan(&exists); err != nil {
		return nil, fmt.Errorf("close session: %w", err)
	}
	if !exists {
		return nil, sentinel.ErrNotFound
	}
	return nil, sentinel.ErrInvalidState
}

func (p *Postgres) FindByID(ctx context.Context, id string) (*models.Session, error) {
	return p.findOne(ctx, `
		SELECT id, schedule_id, session_date, opened_at, closed_at, is_open
		FROM sessions WHERE id = $1`, id)
}

func (p *Postgres) ListBySchedule(ctx context.Context, scheduleID string) ([]*models.Session, error) {
	return p.list(ctx, `
		SELECT id, schedule_id, session_date, opened_at, closed_at, is_open
		FROM sessions WHERE schedule_id = $1
		ORDER BY session_date, opened_at`, scheduleID)
}

func (p *Postgres) ListOpen(ctx context.Context) ([]*models.Session, error) {
	return p.list(ctx, `
		SELECT id, schedule_id, session_date, opened_at, closed_at, is_open
		FROM sessions WHERE is_open
		ORDER BY session_date, opened_at`)
}

func (p *Postgres) findOne(ctx context.Context, query string, args ...any) (*models.Session, error) {
	var s models.Session
	err := p.pool.QueryRow(ctx, query, args...).Scan(
		&s.ID, &s.ScheduleID, &s.SessionDate, &s.OpenedAt, &s.ClosedAt, &s.IsOpen,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("query session: %w", err)
	}
	return &s, nil
}

func (p *Postgres) list(ctx context.Context, query string, args ...any) ([]*models.Session, error) {
	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	var out []*models.Session
	for rows.Next() {
		var s models.Session
		if err := rows.Scan(&s.ID, &s.ScheduleID, &s.SessionDate, &s.OpenedAt, &s.ClosedAt, &s.IsOpen); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		out = append(out, &s)
	}
	return out, rows.Err()
}
