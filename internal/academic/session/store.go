package session

import (
	"context"
	"time"

	"rollcall/internal/academic/models"
)

// Store persists attendance sessions. Implementations return sentinel errors
// at the storage boundary; the service maps them to coded domain errors.
//
// Close is a conditional transition: it flips is_open only when the row is
// still open, and reports ErrInvalidState when the row exists but is already
// closed. Under concurrent closes exactly one caller observes success.
type Store interface {
	// Create inserts a new open session. A second open for the same
	// (schedule_id, session_date) pair returns sentinel.ErrConflict.
	Create(ctx context.Context, s *models.Session) error

	// Close marks the session closed. Returns sentinel.ErrNotFound when no
	// such session exists and sentinel.ErrInvalidState when it is already
	// closed. On success the passed session is updated in place.
	Close(ctx context.Context, id string, closedAt time.Time) (*models.Session, error)

	FindByID(ctx context.Context, id string) (*models.Session, error)
	ListBySchedule(ctx context.Context, scheduleID string) ([]*models.Session, error)
	ListOpen(ctx context.Context) ([]*models.Session, error)
}
