// Package producer wraps the Kafka client behind an explicit connection
// handle. The handle is either Disconnected or Connected; Publish connects
// lazily on first use and attempts exactly one reconnect after a detected
// failure before declaring the publish lost.
//
// Publishing happens after the local write has committed, so a failure here
// is a silent replication gap by design: the error propagates to the caller
// for logging, but nothing is queued or retried beyond the single reconnect.
package producer

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	"rollcall/internal/platform/metrics"
	"rollcall/pkg/events"
	"rollcall/pkg/platform/sentinel"
)

const connectTimeout = 5 * time.Second

// Producer publishes envelopes to the broker.
type Producer struct {
	brokers []string
	logger  *slog.Logger
	metrics *metrics.Metrics

	mu     sync.Mutex
	client *kgo.Client // nil while disconnected
}

func New(brokers []string, logger *slog.Logger, m *metrics.Metrics) *Producer {
	return &Producer{brokers: brokers, logger: logger, metrics: m}
}

// Publish sends one envelope to topic, keyed for per-partition ordering.
// Events for the same entity share a key so the broker preserves their
// relative order within a partition.
func (p *Producer) Publish(ctx context.Context, topic, key string, env events.Envelope) error {
	value, err := env.Encode()
	if err != nil {
		return fmt.Errorf("encode envelope: %w", err)
	}

	record := &kgo.Record{Topic: topic, Key: []byte(key), Value: value}

	client, err := p.connected(ctx)
	if err == nil {
		err = client.ProduceSync(ctx, record).FirstErr()
	}
	if err != nil {
		// One reconnect attempt, then give up. The local commit already
		// happened; the caller logs the gap.
		p.disconnect()
		client, rerr := p.connected(ctx)
		if rerr == nil {
			rerr = client.ProduceSync(ctx, record).FirstErr()
		}
		if rerr != nil {
			p.disconnect()
			p.metrics.PublishFailed(topic)
			return fmt.Errorf("publish %s to %s: %v: %w", env.Type, topic, rerr, sentinel.ErrUnavailable)
		}
	}

	p.metrics.EventPublished(topic, env.Type)
	p.logger.InfoContext(ctx, "event published",
		"topic", topic,
		"type", env.Type,
		"trace_id", env.TraceID,
	)
	return nil
}

// connected returns the live client, dialing the broker if the handle is
// currently disconnected.
func (p *Producer) connected(ctx context.Context) (*kgo.Client, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.client != nil {
		return p.client, nil
	}

	client, err := kgo.NewClient(
		kgo.SeedBrokers(p.brokers...),
		kgo.RequiredAcks(kgo.AllISRAcks()),
	)
	if err != nil {
		return nil, fmt.Errorf("create producer client: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := client.Ping(pingCtx); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to broker: %w", err)
	}

	p.client = client
	p.logger.Info("kafka producer connected", "brokers", p.brokers)
	return client, nil
}

func (p *Producer) disconnect() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.client != nil {
		p.client.Close()
		p.client = nil
	}
}

// Close releases the broker connection.
func (p *Producer) Close() {
	p.disconnect()
}
