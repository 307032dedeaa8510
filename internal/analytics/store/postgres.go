package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"rollcall/internal/analytics/models"
)

// Postgres appends to the event_logs table. No uniqueness constraints: the
// log keeps every delivery, duplicates included.
type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func (p *Postgres) Append(ctx context.Context, e *models.EventLog) error {
	err := p.pool.QueryRow(ctx, `
		INSERT INTO event_logs (topic, partition, "offset", type, trace_id, payload, produced_at, consumed_at, latency_ms, producer_latency_ms)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, saved_at`,
		e.Topic, e.Partition, e.Offset, e.Type, e.TraceID, e.Payload, e.ProducedAt, e.ConsumedAt, e.LatencyMS, e.ProducerLatencyMS,
	).Scan(&e.ID, &e.SavedAt)
	if err != nil {
		return fmt.Errorf("append event log: %w", err)
	}
	return nil
}

func (p *Postgres) ListByType(ctx context.Context, eventType string, limit int) ([]*models.EventLog, error) {
	return p.list(ctx, `
		SELECT id, topic, partition, "offset", type, trace_id, payload, produced_at, consumed_at, saved_at, latency_ms, producer_latency_ms
		FROM event_logs WHERE type = $1
		ORDER BY id DESC LIMIT $2`, eventType, clampLimit(limit))
}

func (p *Postgres) ListRecent(ctx context.Context, limit int) ([]*models.EventLog, error) {
	return p.list(ctx, `
		SELECT id, topic, partition, "offset", type, trace_id, payload, produced_at, consumed_at, saved_at, latency_ms, producer_latency_ms
		FROM event_logs
		ORDER BY id DESC LIMIT $1`, clampLimit(limit))
}

func (p *Postgres) CountByType(ctx context.Context) (map[string]int64, error) {
	rows, err := p.pool.Query(ctx, `SELECT type, COUNT(*) FROM event_logs GROUP BY type`)
	if err != nil {
		return nil, fmt.Errorf("count event logs: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var t string
		var n int64
		if err := rows.Scan(&t, &n); err != nil {
			return nil, fmt.Errorf("scan event log count: %w", err)
		}
		counts[t] = n
	}
	return counts, rows.Err()
}

func (p *Postgres) list(ctx context.Context, query string, args ...any) ([]*models.EventLog, error) {
	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query event logs: %w", err)
	}
	defer rows.Close()

	var out []*models.EventLog
	for rows.Next() {
		var e models.EventLog
		if err := rows.Scan(&e.ID, &e.Topic, &e.Partition, &e.Offset, &e.Type, &e.TraceID, &e.Payload, &e.ProducedAt, &e.ConsumedAt, &e.SavedAt, &e.LatencyMS, &e.ProducerLatencyMS); err != nil {
			return nil, fmt.Errorf("scan event log: %w", err)
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}

func clampLimit(limit int) int {
	if limit <= 0 || limit > 500 {
		return 500
	}
	return limit
}
