package backend

import (
	"context"
	"fmt"

	"uems/internal/log"
	"uems/internal/metrics"
	"uems/internal/source"
	"uems/internal/source/httpapi"
	"uems/internal/source/memory"
	"uems/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger  *log.Logger
	metrics *metrics.Metrics
}

// NewFactory creates a new backend factory
func NewFactory(logger *log.Logger, m *metrics.Metrics) Factory {
	if logger == nil {
		logger = log.Discard()
	}
	return &DefaultFactory{
		logger:  logger.WithComponent(log.ComponentBackend),
		metrics: m,
	}
}

// CreateBackend picks the primary fetcher for config.Type and layers the
// snapshot store on top: recording when SnapshotsEnabled, serving the last
// good body when SnapshotFallback.
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var repo *storage.SnapshotRepository
	if config.usesStore() {
		var err error
		repo, err = storage.NewSnapshotRepository(config.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize snapshot store: %w", err)
		}
	}

	result := &BackendResult{}
	if repo != nil {
		result.Cleanup = repo.Close
		result.Check = repo.Ping
	}

	switch config.Type {
	case APIBackend:
		result.Fetcher = httpapi.NewClient(config.APIBaseURL, config.APITimeout, f.metrics, f.logger)
		f.logger.InfoContext(ctx, "Initialized metering API backend",
			"base_url", config.APIBaseURL,
			"timeout", config.APITimeout.String())
	case MemoryBackend:
		result.Fetcher = memory.NewFromDir(config.DataDirectory)
		f.logger.InfoContext(ctx, "Initialized memory backend", "data_directory", config.DataDirectory)
	case SnapshotBackend:
		result.Fetcher = repo
		f.logger.InfoContext(ctx, "Initialized snapshot backend", "db_path", config.SQLiteDBPath)
		return result, nil
	default:
		result.Close()
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}

	if config.SnapshotFallback {
		result.Fetcher = f.withFallback(ctx, result.Fetcher, repo)
	}
	if config.SnapshotsEnabled {
		result.Snapshots = repo
	}
	if repo != nil {
		f.logger.InfoContext(ctx, "Snapshot store attached",
			"db_path", config.SQLiteDBPath,
			"record", config.SnapshotsEnabled,
			"fallback", config.SnapshotFallback)
	}
	return result, nil
}

func (f *DefaultFactory) withFallback(ctx context.Context, primary source.Fetcher, repo *storage.SnapshotRepository) source.Fetcher {
	return &storage.FallbackFetcher{
		Primary:   primary,
		Snapshots: repo,
		OnFallback: func(path string, err error) {
			f.logger.WarnContext(ctx, "Serving stored snapshot",
				log.FieldEndpoint, path,
				log.FieldError, err.Error())
		},
	}
}
