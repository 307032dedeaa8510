package attendance

import (
	"context"

	"rollcall/internal/academic/models"
)

// Store persists attendance records. The (session_id, student_id) pair is
// unique; a second record for the same pair returns sentinel.ErrConflict.
type Store interface {
	Create(ctx context.Context, a *models.Attendance) error
	FindByID(ctx context.Context, id string) (*models.Attendance, error)
	ListBySession(ctx context.Context, sessionID string) ([]*models.Attendance, error)
	ListByStudent(ctx context.Context, studentID string) ([]*models.Attendance, error)
}
