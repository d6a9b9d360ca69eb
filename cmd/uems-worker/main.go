package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"uems/internal/app"
	"uems/internal/config"
	"uems/internal/log"
	"uems/internal/metrics"
	"uems/internal/storage"
	"uems/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	cfg := config.Load()
	logger := app.NewLogger(cfg, log.ComponentWorker)

	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed",
			log.FieldError, err.Error(),
			log.FieldErrorType, log.ErrorTypeConfiguration)
		os.Exit(1)
	}
	if cfg.AMQPURL == "" {
		logger.Warn("AMQP_URL not set, running periodic warm-up only")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	m := metrics.NewMetrics()
	a, err := app.New(ctx, cfg, logger, app.Options{
		Metrics:     m,
		ConnectAMQP: true,
		RequireAMQP: true,
	})
	if err != nil {
		logger.Error("Failed to initialize worker", log.FieldError, err.Error())
		os.Exit(1)
	}
	defer a.Close()

	opts := []worker.Option{worker.WithLogger(logger)}
	if pruner, ok := a.Backend.Snapshots.(*storage.SnapshotRepository); ok {
		opts = append(opts, worker.WithPruner(pruner, cfg.SnapshotRetention))
	}
	rw := worker.NewRefreshWorker(a.Dashboard, cfg.RefreshInterval, opts...)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return rw.Run(gctx) })
	if a.AMQP != nil {
		g.Go(func() error {
			err := a.AMQP.Consume(gctx, rw.HandleRefresh)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	}

	metricsSrv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           promhttp.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	g.Go(func() error {
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return metricsSrv.Shutdown(shutdownCtx)
	})

	logger.Info("Starting uems-worker",
		"interval", cfg.RefreshInterval.String(),
		"amqp_enabled", a.AMQP != nil,
		"metrics_port", cfg.Port,
		log.FieldOperation, log.OpStartup)

	if err := g.Wait(); err != nil {
		logger.Error("Worker stopped with error", log.FieldError, err.Error())
		a.Close()
		os.Exit(1)
	}
	logger.Info("Worker stopped gracefully")
}
