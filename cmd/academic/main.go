package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"rollcall/internal/academic/attendance"
	"rollcall/internal/academic/catalog"
	"rollcall/internal/academic/handler"
	"rollcall/internal/academic/replica"
	"rollcall/internal/academic/session"
	"rollcall/internal/platform/config"
	"rollcall/internal/platform/httpserver"
	"rollcall/internal/platform/kafka"
	"rollcall/internal/platform/kafka/consumer"
	"rollcall/internal/platform/kafka/producer"
	"rollcall/internal/platform/logger"
	"rollcall/internal/platform/metrics"
	"rollcall/internal/platform/postgres"
	"rollcall/internal/platform/token"
	"rollcall/pkg/events"
)

// main wires the academic service: catalog and session/attendance APIs, the
// student replica consumer, and the academic event producer.
func main() {
	cfg := config.AcademicFromEnv()
	log := logger.New("academic")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := postgres.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("database connect failed", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := kafka.EnsureTopics(ctx, cfg.KafkaBrokers, 3, events.TopicStudentEvents, events.TopicAcademicEvents); err != nil {
		log.Warn("topic setup failed", "error", err)
	}

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	pub := producer.New(cfg.KafkaBrokers, log, m)
	defer pub.Close()

	catalogStore := catalog.NewPostgres(pool)
	replicaStore := replica.NewPostgres(pool)
	sessionStore := session.NewPostgres(pool)

	catalogSvc := catalog.NewService(catalogStore, pub, log)
	sessionSvc := session.NewService(sessionStore, catalogStore, pub, log)
	attendanceSvc := attendance.NewService(attendance.NewPostgres(pool), sessionStore, replicaStore, pub, log)

	replicaConsumer, err := consumer.New(consumer.Config{
		Brokers: cfg.KafkaBrokers,
		Topic:   events.TopicStudentEvents,
		Group:   cfg.ConsumerGroup,
	}, replica.NewReplicator(replicaStore, log), log, m)
	if err != nil {
		log.Error("replica consumer setup failed", "error", err)
		os.Exit(1)
	}

	verifier := token.NewVerifier(cfg.JWTSigningKey)

	router := chi.NewRouter()
	handler.New(catalogSvc, sessionSvc, attendanceSvc, verifier, log).Register(router)
	router.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	srv := httpserver.New(cfg.Addr, router)
	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		log.Info("academic listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		err := replicaConsumer.Run(ctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	group.Go(func() error {
		<-ctx.Done()
		replicaConsumer.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("academic exited", "error", err)
		os.Exit(1)
	}
	log.Info("academic stopped")
}
