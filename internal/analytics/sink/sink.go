// Package sink appends every consumed event to the analytics log. It does not
// interpret payloads and does not deduplicate: the log is a faithful record of
// what was delivered, redeliveries included.
package sink

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"rollcall/internal/analytics/models"
	"rollcall/internal/analytics/store"
	"rollcall/internal/platform/kafka/consumer"
	"rollcall/pkg/events"
)

// Sink implements consumer.Handler for both event topics.
type Sink struct {
	logs   store.Store
	logger *slog.Logger
	now    func() time.Time
}

func New(logs store.Store, logger *slog.Logger) *Sink {
	return &Sink{logs: logs, logger: logger, now: time.Now}
}

// Handle parses the envelope and appends one log row. A malformed envelope is
// an error so the consume loop counts it and moves on; a storage failure is
// also an error, which costs us the row but never blocks the partition.
func (s *Sink) Handle(ctx context.Context, msg *consumer.Message) error {
	env, err := events.Parse(msg.Value)
	if err != nil {
		return fmt.Errorf("analytics sink: %w", err)
	}

	consumedAt := s.now()
	producedAt := time.UnixMilli(env.Timestamp)
	entry := &models.EventLog{
		Topic:      msg.Topic,
		Partition:  msg.Partition,
		Offset:     msg.Offset,
		Type:       env.Type,
		TraceID:    env.TraceID,
		Payload:    msg.Value,
		ProducedAt: producedAt,
		ConsumedAt: consumedAt,
		LatencyMS:  consumedAt.Sub(producedAt).Milliseconds(),

		ProducerLatencyMS: time.Duration(env.Latency).Milliseconds(),
	}
	if err := s.logs.Append(ctx, entry); err != nil {
		return fmt.Errorf("analytics sink: %w", err)
	}

	s.logger.DebugContext(ctx, "event logged",
		"topic", msg.Topic,
		"type", env.Type,
		"trace_id", env.TraceID,
		"latency_ms", entry.LatencyMS,
	)
	return nil
}
