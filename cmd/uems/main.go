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

	"uems/internal/app"
	"uems/internal/config"
	apphttp "uems/internal/http"
	"uems/internal/log"
	"uems/internal/metrics"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	cfg := config.Load()
	logger := app.NewLogger(cfg, log.ComponentApp)

	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed",
			log.FieldError, err.Error(),
			log.FieldErrorType, log.ErrorTypeConfiguration)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	m := metrics.NewMetrics()
	a, err := app.New(ctx, cfg, logger, app.Options{Metrics: m, ConnectAMQP: true})
	if err != nil {
		logger.Error("Failed to initialize application", log.FieldError, err.Error())
		os.Exit(1)
	}
	defer a.Close()

	checks := make(map[string]apphttp.ReadyCheck)
	for name, check := range a.ReadyChecks() {
		checks[name] = check
	}

	srv := apphttp.NewServer(":"+cfg.Port, a.Dashboard, apphttp.Options{
		Logger:       logger,
		Metrics:      m,
		RateLimitRPM: cfg.RateLimitRPM,
		ReadyChecks:  checks,
	})

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting uems server",
			"port", cfg.Port,
			"backend", cfg.DataBackend,
			"amqp_enabled", a.AMQP != nil,
			log.FieldOperation, log.OpStartup)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	case err := <-errCh:
		if err != nil {
			logger.Error("Server error", log.FieldError, err.Error(), "port", cfg.Port)
			a.Close()
			os.Exit(1)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", log.FieldError, err.Error(), log.FieldOperation, log.OpShutdown)
	}
	logger.Info("Server stopped gracefully")
}
