// Package readings loads metering rows from a source.Fetcher, with caching,
// NaN patching and all-or-nothing batch loads.
package readings

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"uems/internal/cache"
	"uems/internal/core"
	"uems/internal/log"
	"uems/internal/metrics"
	"uems/internal/source"
)

// SnapshotWriter records the last good body for a path.
type SnapshotWriter interface {
	Save(ctx context.Context, path string, body []byte, rows int) error
}

const (
	refreshConcurrency = 4
	sharedFetchTimeout = 30 * time.Second
)

// Loader fetches, patches and decodes readings.
type Loader struct {
	fetcher   source.Fetcher
	cache     *cache.LRUCache[[]byte]
	snapshots SnapshotWriter
	metrics   *metrics.Metrics
	logger    *log.Logger
	flight    singleflight.Group
}

// Option configures a Loader.
type Option func(*Loader)

// WithCache keeps patched bodies in c.
func WithCache(c *cache.LRUCache[[]byte]) Option {
	return func(l *Loader) { l.cache = c }
}

// WithSnapshots records every successful fetch.
func WithSnapshots(s SnapshotWriter) Option {
	return func(l *Loader) { l.snapshots = s }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(l *Loader) { l.metrics = m }
}

func WithLogger(logger *log.Logger) Option {
	return func(l *Loader) { l.logger = logger }
}

func NewLoader(f source.Fetcher, opts ...Option) *Loader {
	l := &Loader{fetcher: f}
	for _, opt := range opts {
		opt(l)
	}
	if l.metrics == nil {
		l.metrics = metrics.NewMetricsForTesting()
	}
	if l.logger == nil {
		l.logger = log.Discard()
	}
	l.logger = l.logger.WithComponent(log.ComponentReadings)
	return l
}

// Body returns the NaN-patched body for path, from cache when possible.
func (l *Loader) Body(ctx context.Context, path string) ([]byte, error) {
	if l.cache != nil {
		if body, ok := l.cache.Get(path); ok {
			l.metrics.CacheLookups.WithLabelValues("hit").Inc()
			return body, nil
		}
		l.metrics.CacheLookups.WithLabelValues("miss").Inc()
	}

	// The fetch is shared by every caller waiting on path, so it must not
	// end when the caller that started it goes away.
	ch := l.flight.DoChan(path, func() (any, error) {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sharedFetchTimeout)
		defer cancel()
		raw, err := l.fetcher.Fetch(fctx, path)
		if err != nil {
			return nil, err
		}
		body := PatchNaN(raw)
		if l.cache != nil {
			l.cache.Set(path, body)
		}
		l.record(fctx, path, body)
		return body, nil
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]byte), nil
	}
}

func (l *Loader) record(ctx context.Context, path string, body []byte) {
	if l.snapshots == nil {
		return
	}
	var probe []json.RawMessage
	rows := 0
	if json.Unmarshal(body, &probe) == nil {
		rows = len(probe)
	}
	if err := l.snapshots.Save(ctx, path, body, rows); err != nil {
		l.logger.WarnContext(ctx, "Snapshot not stored",
			log.FieldEndpoint, path,
			log.FieldOperation, log.OpSnapshot,
			log.FieldError, err.Error(),
			log.FieldErrorType, log.ErrorTypeDatabase)
		return
	}
	l.metrics.SnapshotsWritten.Inc()
}

// Load decodes the array of row objects served at path. A null body
// yields no rows.
func (l *Loader) Load(ctx context.Context, path string) ([]core.Row, error) {
	body, err := l.Body(ctx, path)
	if err != nil {
		return nil, err
	}
	rows, err := Decode(body)
	if err != nil {
		l.logger.WarnContext(ctx, "Readings not decodable",
			log.FieldEndpoint, path,
			log.FieldOperation, log.OpDecode,
			log.FieldError, err.Error())
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	l.logger.DebugContext(ctx, "Readings loaded",
		log.NewFields().WithEndpoint(path, len(rows)).WithOperation(log.OpLoad).ToSlice()...)
	return rows, nil
}

// Decode parses a JSON array of objects into rows.
func Decode(body []byte) ([]core.Row, error) {
	var rows []core.Row
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []core.Row{}
	}
	return rows, nil
}

// LoadJSON decodes the body at path into v.
func (l *Loader) LoadJSON(ctx context.Context, path string, v any) error {
	body, err := l.Body(ctx, path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// LoadAll loads every path concurrently. The first failure cancels the
// remaining fetches and the whole batch fails.
func (l *Loader) LoadAll(ctx context.Context, paths []string) (map[string][]core.Row, error) {
	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)

	var mu sync.Mutex
	out := make(map[string][]core.Row, len(paths))
	for _, p := range paths {
		g.Go(func() error {
			rows, err := l.Load(gctx, p)
			if err != nil {
				return fmt.Errorf("load %s: %w", p, err)
			}
			mu.Lock()
			out[p] = rows
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	l.logger.DebugContext(ctx, "Batch loaded",
		"paths", len(paths),
		log.FieldDuration, time.Since(start).Milliseconds())
	return out, nil
}

// Invalidate drops cached bodies for paths.
func (l *Loader) Invalidate(paths ...string) {
	if l.cache == nil {
		return
	}
	for _, p := range paths {
		l.cache.Delete(p)
	}
}

// Purge drops every cached body.
func (l *Loader) Purge() int {
	if l.cache == nil {
		return 0
	}
	return l.cache.Purge()
}

// Refresh invalidates paths and fetches their bodies again. Row and
// document endpoints are both warmed; nothing is decoded.
func (l *Loader) Refresh(ctx context.Context, paths []string) error {
	l.Invalidate(paths...)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(refreshConcurrency)
	for _, p := range paths {
		g.Go(func() error {
			if _, err := l.Body(gctx, p); err != nil {
				return fmt.Errorf("refresh %s: %w", p, err)
			}
			return nil
		})
	}
	return g.Wait()
}
