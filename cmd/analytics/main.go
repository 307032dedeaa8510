package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"rollcall/internal/analytics/sink"
	"rollcall/internal/analytics/store"
	"rollcall/internal/platform/config"
	"rollcall/internal/platform/kafka/consumer"
	"rollcall/internal/platform/logger"
	"rollcall/internal/platform/metrics"
	"rollcall/internal/platform/postgres"
	"rollcall/pkg/events"
)

// main wires the analytics log: one consumer per topic, both reading from the
// beginning on first start so the log covers the full event history.
func main() {
	cfg := config.AnalyticsFromEnv()
	log := logger.New("analytics")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := postgres.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("database connect failed", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	m := metrics.New(prometheus.NewRegistry())
	logs := sink.New(store.NewPostgres(pool), log)

	consumers := make([]*consumer.Consumer, 0, 2)
	for _, sub := range []struct {
		topic string
		group string
	}{
		{events.TopicStudentEvents, cfg.StudentGroup},
		{events.TopicAcademicEvents, cfg.AcademicGroup},
	} {
		c, err := consumer.New(consumer.Config{
			Brokers:       cfg.KafkaBrokers,
			Topic:         sub.topic,
			Group:         sub.group,
			FromBeginning: true,
		}, logs, log, m)
		if err != nil {
			log.Error("consumer setup failed", "topic", sub.topic, "error", err)
			os.Exit(1)
		}
		consumers = append(consumers, c)
	}

	group, ctx := errgroup.WithContext(ctx)
	for _, c := range consumers {
		group.Go(func() error {
			err := c.Run(ctx)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	}
	group.Go(func() error {
		<-ctx.Done()
		for _, c := range consumers {
			c.Close()
		}
		return nil
	})

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("analytics exited", "error", err)
		os.Exit(1)
	}
	log.Info("analytics stopped")
}
