package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"

	"uems/internal/amqp"
	"uems/internal/log"
)

// Warmer resolves and re-loads the endpoints behind views.
type Warmer interface {
	RefreshPaths(viewID string) ([]string, error)
	Warm(ctx context.Context, paths []string) error
}

// SnapshotPruner drops snapshots older than a cutoff.
type SnapshotPruner interface {
	Prune(ctx context.Context, cutoff time.Time) (int64, error)
}

// RefreshWorker keeps the readings cache and the snapshot store fresh.
// It handles refresh messages and re-warms every view on an interval.
type RefreshWorker struct {
	warmer    Warmer
	pruner    SnapshotPruner
	retention time.Duration
	interval  time.Duration
	clock     clockwork.Clock
	logger    *log.Logger
}

// Option configures a RefreshWorker.
type Option func(*RefreshWorker)

// WithPruner prunes snapshots older than retention after each periodic warm.
func WithPruner(p SnapshotPruner, retention time.Duration) Option {
	return func(w *RefreshWorker) {
		w.pruner = p
		w.retention = retention
	}
}

func WithClock(c clockwork.Clock) Option {
	return func(w *RefreshWorker) { w.clock = c }
}

func WithLogger(logger *log.Logger) Option {
	return func(w *RefreshWorker) { w.logger = logger }
}

func NewRefreshWorker(warmer Warmer, interval time.Duration, opts ...Option) *RefreshWorker {
	w := &RefreshWorker{
		warmer:   warmer,
		interval: interval,
		clock:    clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.logger == nil {
		w.logger = log.Discard()
	}
	w.logger = w.logger.WithComponent(log.ComponentWorker)
	return w
}

// HandleRefresh re-loads the paths named in msg, or every endpoint of its
// view when the message carries none.
func (w *RefreshWorker) HandleRefresh(ctx context.Context, msg *amqp.RefreshMessage) error {
	paths := msg.Paths
	if len(paths) == 0 {
		var err error
		paths, err = w.warmer.RefreshPaths(msg.View)
		if err != nil {
			return fmt.Errorf("resolve paths for view %q: %w", msg.View, err)
		}
	}

	start := w.clock.Now()
	if err := w.warmer.Warm(ctx, paths); err != nil {
		return fmt.Errorf("warm view %q: %w", msg.View, err)
	}

	w.logger.InfoContext(ctx, "Refresh message handled",
		log.FieldView, msg.View,
		"paths", len(paths),
		"reason", msg.Reason,
		"queued_for", start.Sub(msg.Timestamp).Round(time.Millisecond).String(),
		log.FieldDuration, w.clock.Since(start).Milliseconds(),
		log.FieldOperation, log.OpRefresh)
	return nil
}

// WarmAll re-loads every endpoint of every view.
func (w *RefreshWorker) WarmAll(ctx context.Context) error {
	paths, err := w.warmer.RefreshPaths("")
	if err != nil {
		return fmt.Errorf("resolve paths: %w", err)
	}
	start := w.clock.Now()
	if err := w.warmer.Warm(ctx, paths); err != nil {
		return fmt.Errorf("warm all views: %w", err)
	}
	w.logger.InfoContext(ctx, "All views warmed",
		"paths", len(paths),
		log.FieldDuration, w.clock.Since(start).Milliseconds())
	return nil
}

// PruneSnapshots deletes snapshots past the retention window.
func (w *RefreshWorker) PruneSnapshots(ctx context.Context) (int64, error) {
	if w.pruner == nil || w.retention <= 0 {
		return 0, nil
	}
	n, err := w.pruner.Prune(ctx, w.clock.Now().Add(-w.retention))
	if err != nil {
		return 0, fmt.Errorf("prune snapshots: %w", err)
	}
	if n > 0 {
		w.logger.InfoContext(ctx, "Old snapshots pruned",
			"deleted", n,
			log.FieldOperation, log.OpSnapshot)
	}
	return n, nil
}

// Run warms every view once, then again on each tick until ctx is done.
// Failures are logged and retried on the next tick.
func (w *RefreshWorker) Run(ctx context.Context) error {
	w.periodic(ctx)

	ticker := w.clock.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.InfoContext(ctx, "Periodic warm-up stopped")
			return nil
		case <-ticker.Chan():
			w.periodic(ctx)
		}
	}
}

func (w *RefreshWorker) periodic(ctx context.Context) {
	if err := w.WarmAll(ctx); err != nil && ctx.Err() == nil {
		w.logger.ErrorContext(ctx, "Periodic warm-up failed",
			log.FieldError, err.Error())
	}
	if _, err := w.PruneSnapshots(ctx); err != nil && ctx.Err() == nil {
		w.logger.ErrorContext(ctx, "Snapshot pruning failed",
			log.FieldError, err.Error())
	}
}
