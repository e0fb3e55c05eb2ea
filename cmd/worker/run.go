package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/adverant/nexus/ocr-worker/internal/logging"
	"github.com/adverant/nexus/ocr-worker/internal/queue"
	"github.com/adverant/nexus/ocr-worker/internal/storage"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Consume OCR jobs from the queue",
	Long: `Start the queue worker. Jobs are read from the Redis list queue or from asynq
depending on QUEUE_BACKEND. Prometheus metrics and a health check are served
on METRICS_ADDR.`,
	Args: cobra.NoArgs,
	RunE: runWorker,
}

// consumer is implemented by both queue backends.
type consumer interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

func runWorker(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, appOptions{engines: true, notifier: true, actor: "worker"})
	if err != nil {
		return err
	}
	defer a.close()
	log := a.logger

	log.Info("OCR worker starting",
		"workerId", a.workerID,
		"queue", cfg.QueueName,
		"backend", cfg.QueueBackend,
		"concurrency", cfg.WorkerConcurrency)

	if a.notifier != nil {
		go func() {
			err := a.notifier.Subscribe(ctx, func(ctx context.Context, msg storage.VocabularyMessage) {
				if err := a.vocab.Refresh(ctx); err != nil {
					log.Warn("Vocabulary refresh failed", "reason", msg.Reason, "from", msg.Worker, "error", err)
					return
				}
				log.Info("Vocabulary refreshed", "reason", msg.Reason, "from", msg.Worker, "approved", len(a.vocab.ApprovedWords()))
			})
			if err != nil && ctx.Err() == nil {
				log.Warn("Vocabulary subscription ended", "error", err)
			}
		}()
	}

	var c consumer
	switch cfg.QueueBackend {
	case "asynq":
		c, err = queue.NewConsumer(&queue.ConsumerConfig{
			RedisURL:          cfg.RedisURL,
			QueueName:         cfg.QueueName,
			Concurrency:       cfg.WorkerConcurrency,
			Processor:         a.processor,
			ProcessingTimeout: int64(cfg.ProcessingTimeout),
			Logger:            log.Named("queue"),
		})
	default:
		c, err = queue.NewRedisConsumer(ctx, &queue.RedisConsumerConfig{
			RedisURL:          cfg.RedisURL,
			QueueName:         cfg.QueueName,
			Concurrency:       cfg.WorkerConcurrency,
			Processor:         a.processor,
			ProcessingTimeout: int64(cfg.ProcessingTimeout),
			Logger:            log.Named("queue"),
		})
	}
	if err != nil {
		return fmt.Errorf("failed to initialize queue consumer: %w", err)
	}

	srv := &http.Server{
		Addr:              cfg.MetricsAddr,
		Handler:           newMetricsMux(a.storage, log),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Metrics server failed", "addr", cfg.MetricsAddr, "error", err)
		}
	}()

	if err := c.Start(ctx); err != nil {
		return fmt.Errorf("failed to start queue consumer: %w", err)
	}
	log.Info("OCR worker ready, waiting for jobs", "metricsAddr", cfg.MetricsAddr)

	<-ctx.Done()
	log.Info("Shutdown signal received, draining")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.JobTimeout()+10*time.Second)
	defer cancel()

	if err := c.Stop(shutdownCtx); err != nil {
		log.Warn("Error stopping queue consumer", "error", err)
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("Error stopping metrics server", "error", err)
	}

	log.Info("Shutdown complete")
	return nil
}

// pinger is the health dependency of the worker.
type pinger interface {
	Ping(ctx context.Context) error
}

func newMetricsMux(sm *storage.StorageManager, log *logging.Logger) *http.ServeMux {
	var db pinger
	if sm != nil && sm.Postgres() != nil {
		db = sm.Postgres()
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", healthHandler(db, log))
	return mux
}

func healthHandler(db pinger, log *logging.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := map[string]string{"status": "ok"}
		code := http.StatusOK

		if db != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
			defer cancel()
			if err := db.Ping(ctx); err != nil {
				log.Warn("Health check failed", "dependency", "postgres", "error", err)
				status["status"] = "degraded"
				status["postgres"] = err.Error()
				code = http.StatusServiceUnavailable
			}
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		json.NewEncoder(w).Encode(status)
	}
}
