// Package consumer runs a consumer-group poll loop over one topic.
//
// Delivery is whatever the broker gives us: at-least-once, ordered within a
// partition, unordered across partitions. Handlers must therefore be
// idempotent. A handler error never stops the loop or blocks the partition;
// the message is logged and skipped, and its offset is still committed.
package consumer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	"rollcall/internal/platform/metrics"
)

// Message is one broker delivery handed to a Handler.
type Message struct {
	Topic     string
	Partition int32
	Offset    int64
	Key       []byte
	Value     []byte
	Timestamp time.Time
}

// Handler processes one message at a time. Returning an error marks the
// message as skipped; it does not trigger redelivery.
type Handler interface {
	Handle(ctx context.Context, msg *Message) error
}

// Config identifies what to consume and as whom. Group must be stable across
// restarts so the broker resumes from the last committed offset.
type Config struct {
	Brokers []string
	Topic   string
	Group   string
	// FromBeginning starts a group with no committed offsets at the earliest
	// message instead of the latest. Used by the analytics cold-start
	// consumer to build the full event log.
	FromBeginning bool
}

// Consumer owns the group client and the poll loop.
type Consumer struct {
	client  *kgo.Client
	cfg     Config
	handler Handler
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func New(cfg Config, handler Handler, logger *slog.Logger, m *metrics.Metrics) (*Consumer, error) {
	opts := []kgo.Opt{
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.ConsumerGroup(cfg.Group),
		kgo.ConsumeTopics(cfg.Topic),
		kgo.DisableAutoCommit(),
	}
	if cfg.FromBeginning {
		opts = append(opts, kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()))
	}

	client, err := kgo.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("create consumer client for %s/%s: %w", cfg.Topic, cfg.Group, err)
	}
	return &Consumer{client: client, cfg: cfg, handler: handler, logger: logger, metrics: m}, nil
}

// Run polls until ctx is cancelled or the client is closed. Offsets are
// committed after each handled batch, giving at-least-once delivery across
// restarts.
func (c *Consumer) Run(ctx context.Context) error {
	c.logger.Info("consumer started",
		"topic", c.cfg.Topic,
		"group", c.cfg.Group,
		"from_beginning", c.cfg.FromBeginning,
	)
	for {
		fetches := c.client.PollFetches(ctx)
		if fetches.IsClientClosed() {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		fetches.EachError(func(topic string, partition int32, err error) {
			c.logger.ErrorContext(ctx, "fetch error",
				"topic", topic,
				"partition", partition,
				"error", err,
			)
		})

		fetches.EachRecord(func(record *kgo.Record) {
			c.metrics.EventConsumed(record.Topic, c.cfg.Group)
			msg := &Message{
				Topic:     record.Topic,
				Partition: record.Partition,
				Offset:    record.Offset,
				Key:       record.Key,
				Value:     record.Value,
				Timestamp: record.Timestamp,
			}
			if err := c.handler.Handle(ctx, msg); err != nil {
				// Poison messages must not stall the partition: log, count,
				// and move on. The offset below still commits.
				c.metrics.MalformedEvent(record.Topic, c.cfg.Group)
				c.logger.WarnContext(ctx, "message skipped",
					"topic", record.Topic,
					"partition", record.Partition,
					"offset", record.Offset,
					"error", err,
				)
			}
		})

		if err := c.client.CommitUncommittedOffsets(ctx); err != nil {
			c.logger.ErrorContext(ctx, "offset commit failed",
				"topic", c.cfg.Topic,
				"group", c.cfg.Group,
				"error", err,
			)
		}
	}
}

// Close tears down the group client, triggering a rebalance to the remaining
// group members.
func (c *Consumer) Close() {
	c.client.Close()
}
