package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/polyclinic-api/internal/config"
	"github.com/jwalitptl/polyclinic-api/internal/repository/postgres"
	"github.com/jwalitptl/polyclinic-api/pkg/logger"
	"github.com/jwalitptl/polyclinic-api/pkg/messaging/redis"
	"github.com/jwalitptl/polyclinic-api/pkg/metrics"
	"github.com/jwalitptl/polyclinic-api/pkg/worker"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	workerLogger := logger.NewLogger(nil)

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		workerLogger.Fatal(err, "failed to connect to database")
	}
	defer db.Close()

	broker, err := redis.NewRedisBroker(redis.Config{URL: cfg.Redis.URL}, &log.Logger)
	if err != nil {
		workerLogger.Fatal(err, "failed to create Redis broker")
	}
	defer broker.Close()

	outboxRepo := postgres.NewOutboxRepository(db)

	workerMetrics := metrics.New("polyclinic_worker")
	workerMetrics.Register(prometheus.DefaultRegisterer)

	processor := worker.NewOutboxProcessor(
		outboxRepo,
		broker,
		worker.OutboxProcessorConfig{
			BatchSize:    cfg.Outbox.BatchSize,
			PollInterval: cfg.OutboxPollInterval(),
		},
		workerLogger,
		workerMetrics,
	)

	setupHealthCheck(workerLogger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		workerLogger.Info("shutting down...")
		cancel()
	}()

	processor.Start(ctx)
}

func setupHealthCheck(workerLogger *logger.Logger) {
	mux := http.NewServeMux()
	mux.HandleFunc("/health/live", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.Handle("/metrics", promhttp.Handler())

	go func() {
		if err := http.ListenAndServe(":8081", mux); err != nil {
			workerLogger.Fatal(err, "health check server failed")
		}
	}()
}
