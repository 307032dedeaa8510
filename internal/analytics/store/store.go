package store

import (
	"context"

	"rollcall/internal/analytics/models"
)

// Store is the append-only event log.
type Store interface {
	Append(ctx context.Context, e *models.EventLog) error
	ListByType(ctx context.Context, eventType string, limit int) ([]*models.EventLog, error)
	ListRecent(ctx context.Context, limit int) ([]*models.EventLog, error)
	CountByType(ctx context.Context) (map[string]int64, error)
}
