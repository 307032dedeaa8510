// Package replica maintains the local projection of registry-owned students.
// Rows here are written only by the event consumer; request handlers read
// them and never mutate them.
package replica

import (
	"context"

	"rollcall/internal/academic/models"
)

// Store is the replica persistence boundary. Both writes are idempotent
// upserts keyed by the student id, so at-least-once redelivery and
// cross-partition reordering of independent keys never fault.
//
// Upsert records the full row including the natural key (STUDENT_ADDED).
// UpsertDisplay overwrites display fields only, inserting a row without a
// natural key when the add has not arrived yet (update-before-add
// inversion); it never clears a known NIM.
type Store interface {
	Upsert(ctx context.Context, r *models.StudentReplica) error
	UpsertDisplay(ctx context.Context, r *models.StudentReplica) error
	FindByID(ctx context.Context, studentID string) (*models.StudentReplica, error)
	FindByNIM(ctx context.Context, nim string) (*models.StudentReplica, error)
}
