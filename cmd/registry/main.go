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

	"rollcall/internal/platform/config"
	"rollcall/internal/platform/httpserver"
	"rollcall/internal/platform/kafka"
	"rollcall/internal/platform/kafka/producer"
	"rollcall/internal/platform/logger"
	"rollcall/internal/platform/metrics"
	"rollcall/internal/platform/postgres"
	"rollcall/internal/registry/handler"
	"rollcall/internal/registry/service"
	"rollcall/internal/registry/store"
	"rollcall/pkg/events"
)

// main wires the student registry: Postgres store, event producer, HTTP API.
// Business logic lives in internal/registry.
func main() {
	cfg := config.RegistryFromEnv()
	log := logger.New("registry")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := postgres.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("database connect failed", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := kafka.EnsureTopics(ctx, cfg.KafkaBrokers, 3, events.TopicStudentEvents); err != nil {
		// The producer reconnects lazily; a broker that is down at boot is not fatal.
		log.Warn("topic setup failed", "error", err)
	}

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	pub := producer.New(cfg.KafkaBrokers, log, m)
	defer pub.Close()

	students := service.New(store.NewPostgres(pool), pub, log)

	router := chi.NewRouter()
	handler.New(students, log).Register(router)
	router.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	srv := httpserver.New(cfg.Addr, router)
	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		log.Info("registry listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("registry exited", "error", err)
		os.Exit(1)
	}
	log.Info("registry stopped")
}
