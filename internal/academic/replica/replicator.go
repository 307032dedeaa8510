package replica

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"rollcall/internal/academic/models"
	"rollcall/internal/platform/kafka/consumer"
	"rollcall/pkg/events"
	"rollcall/pkg/platform/sentinel"
)

// Replicator folds student-events into the local replica. It implements
// consumer.Handler; every returned error means "log and skip", never "stop
// the loop" - the poll loop commits the offset regardless.
type Replicator struct {
	replicas Store
	logger   *slog.Logger
	now      func() time.Time
}

func NewReplicator(replicas Store, logger *slog.Logger) *Replicator {
	return &Replicator{replicas: replicas, logger: logger, now: time.Now}
}

// Handle applies one envelope. Both apply paths are idempotent upserts, so
// at-least-once redelivery and update-before-add reordering converge on the
// same row.
func (r *Replicator) Handle(ctx context.Context, msg *consumer.Message) error {
	env, err := events.Parse(msg.Value)
	if err != nil {
		return err
	}
	payload, err := env.Decode()
	if err != nil {
		return fmt.Errorf("trace %s: %w", env.TraceID, err)
	}

	switch p := payload.(type) {
	case *events.StudentAdded:
		err = r.replicas.Upsert(ctx, studentRow(p.ID, p.NIM, p.Name, p.Major, r.now()))
		if errors.Is(err, sentinel.ErrConflict) {
			// The natural key moved to a different id upstream. The replica
			// cannot decide which row wins; keep the existing one.
			r.logger.WarnContext(ctx, "replica nim collision, event dropped",
				"student_id", p.ID,
				"nim", p.NIM,
				"trace_id", env.TraceID,
			)
			return nil
		}
		if err != nil {
			return fmt.Errorf("apply %s: %w", env.Type, err)
		}
		r.logger.InfoContext(ctx, "student replicated",
			"student_id", p.ID,
			"nim", p.NIM,
			"trace_id", env.TraceID,
		)
	case *events.StudentUpdated:
		if err := r.replicas.UpsertDisplay(ctx, studentRow(p.ID, "", p.Name, p.Major, r.now())); err != nil {
			return fmt.Errorf("apply %s: %w", env.Type, err)
		}
		r.logger.InfoContext(ctx, "student replica updated",
			"student_id", p.ID,
			"trace_id", env.TraceID,
		)
	default:
		// A known event kind that does not concern the replica. Ignore it.
		r.logger.DebugContext(ctx, "event ignored by replicator",
			"type", env.Type,
			"trace_id", env.TraceID,
		)
	}
	return nil
}

func studentRow(id, nim, name, major string, now time.Time) *models.StudentReplica {
	return &models.StudentReplica{
		StudentID: id,
		NIM:       nim,
		Name:      name,
		Major:     major,
		UpdatedAt: now,
	}
}
