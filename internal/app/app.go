// Package app wires configuration into the loader, the dashboard service
// and the optional refresh publisher shared by every binary.
package app

import (
	"context"
	"errors"
	"fmt"

	"uems/internal/amqp"
	"uems/internal/backend"
	"uems/internal/cache"
	"uems/internal/config"
	"uems/internal/log"
	"uems/internal/metrics"
	"uems/internal/readings"
	"uems/internal/services"
	"uems/internal/views"
)

// App holds the long lived components built from a Config.
type App struct {
	Config    *config.Config
	Logger    *log.Logger
	Metrics   *metrics.Metrics
	Backend   *backend.BackendResult
	Cache     *cache.LRUCache[[]byte]
	Loader    *readings.Loader
	Dashboard *services.DashboardService
	// AMQP is nil when AMQP_URL is empty or the broker was unreachable.
	AMQP *amqp.Client

	caches *cache.Manager
}

// Options tune New.
type Options struct {
	Metrics *metrics.Metrics
	// ConnectAMQP dials the broker when AMQP_URL is set.
	ConnectAMQP bool
	// RequireAMQP turns a failed dial into an error instead of a warning.
	RequireAMQP bool
}

// NewLogger builds the process logger from LOG_LEVEL and LOG_FORMAT and
// installs it as the slog default.
func NewLogger(cfg *config.Config, component string) *log.Logger {
	logger := log.New(log.Config{
		Level:     log.ParseLevel(cfg.LogLevel),
		Format:    cfg.LogFormat,
		Component: component,
	})
	log.SetDefault(logger)
	return logger
}

// New builds the data backend, the readings cache and loader, and the
// dashboard service. Close releases what it opened.
func New(ctx context.Context, cfg *config.Config, logger *log.Logger, opts Options) (*App, error) {
	if logger == nil {
		logger = log.Discard()
	}
	m := opts.Metrics
	if m == nil {
		m = metrics.NewMetricsForTesting()
	}

	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("backend config: %w", err)
	}
	res, err := backend.NewFactory(logger, m).CreateBackend(ctx, bcfg)
	if err != nil {
		return nil, fmt.Errorf("create backend: %w", err)
	}

	a := &App{
		Config:  cfg,
		Logger:  logger,
		Metrics: m,
		Backend: res,
		Cache:   cache.NewLRUCache[[]byte](cfg.CacheSize, cfg.CacheTTL),
		caches:  cache.NewManager(logger),
	}
	a.caches.Register(a.Cache)
	if cfg.CacheTTL > 0 {
		a.caches.StartCleanup(cfg.CacheTTL)
	}

	loaderOpts := []readings.Option{
		readings.WithCache(a.Cache),
		readings.WithMetrics(m),
		readings.WithLogger(logger),
	}
	if res.Snapshots != nil {
		loaderOpts = append(loaderOpts, readings.WithSnapshots(res.Snapshots))
	}
	a.Loader = readings.NewLoader(res.Fetcher, loaderOpts...)

	if opts.ConnectAMQP && cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue,
			amqp.WithLogger(logger), amqp.WithMetrics(m))
		switch {
		case err == nil:
			a.AMQP = client
			logger.InfoContext(ctx, "Initialized AMQP client",
				"exchange", cfg.AMQPExchange,
				"queue", cfg.AMQPQueue)
		case opts.RequireAMQP:
			a.Close()
			return nil, fmt.Errorf("connect AMQP: %w", err)
		default:
			logger.WarnContext(ctx, "Failed to initialize AMQP client, continuing without refresh messages",
				log.FieldError, err.Error())
		}
	}

	var publisher services.RefreshPublisher
	if a.AMQP != nil {
		publisher = a.AMQP
	}
	a.Dashboard = services.NewDashboardService(views.Default(), a.Loader, publisher, logger)
	return a, nil
}

// ReadyChecks lists the dependencies whose failure makes the process not
// ready.
func (a *App) ReadyChecks() map[string]func(context.Context) error {
	checks := map[string]func(context.Context) error{}
	if a.Backend != nil && a.Backend.Check != nil {
		checks["snapshots"] = a.Backend.Check
	}
	if a.AMQP != nil {
		checks["amqp"] = a.AMQP.Healthy
	}
	return checks
}

// Close stops cache sweeping and closes the broker and snapshot store.
func (a *App) Close() error {
	a.caches.Stop()
	var errs []error
	if a.AMQP != nil {
		errs = append(errs, a.AMQP.Close())
	}
	errs = append(errs, a.Backend.Close())
	return errors.Join(errs...)
}
