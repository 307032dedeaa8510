// Package store persists authoritative student rows. Implementations return
// sentinel errors; the service layer translates them into domain errors.
package store

import (
	"context"

	"rollcall/internal/registry/models"
)

// Store is the student persistence boundary.
//
// Create returns sentinel.ErrConflict when the NIM is already taken; the
// unique constraint, not application locking, is the concurrency control.
// Update and the finders return sentinel.ErrNotFound for absent rows.
type Store interface {
	Create(ctx context.Context, student *models.Student) error
	Update(ctx context.Context, student *models.Student) error
	FindByID(ctx context.Context, id string) (*models.Student, error)
	FindByNIM(ctx context.Context, nim string) (*models.Student, error)
	List(ctx context.Context) ([]*models.Student, error)
}
