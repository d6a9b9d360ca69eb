package backend

import (
	"context"
	"time"

	"uems/internal/readings"
	"uems/internal/source"
)

// CleanupFunc releases resources held by a backend.
type CleanupFunc func() error

// BackendResult is the wired data source for the loader.
type BackendResult struct {
	Fetcher source.Fetcher
	// Snapshots records successful fetches when set.
	Snapshots readings.SnapshotWriter
	// Check reports whether the snapshot store is reachable. Nil without one.
	Check   func(ctx context.Context) error
	Cleanup CleanupFunc
}

// Close runs Cleanup when there is one.
func (r *BackendResult) Close() error {
	if r == nil || r.Cleanup == nil {
		return nil
	}
	return r.Cleanup()
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// api
	APIBaseURL string
	APITimeout time.Duration

	// memory
	DataDirectory string

	// sqlite snapshots
	SQLiteDBPath     string
	SnapshotsEnabled bool
	SnapshotFallback bool
}

// BackendType represents the type of backend
type BackendType string

const (
	APIBackend      BackendType = "api"
	MemoryBackend   BackendType = "memory"
	SnapshotBackend BackendType = "snapshot"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case APIBackend, MemoryBackend, SnapshotBackend:
		return true
	default:
		return false
	}
}
