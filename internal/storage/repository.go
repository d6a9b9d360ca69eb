package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"uems/internal/source"

	_ "modernc.org/sqlite"
)

// Snapshot is the last successful body stored for an API path.
type Snapshot struct {
	Path       string
	Body       []byte
	RowCount   int
	FetchCount int
	FetchedAt  time.Time
}

// SnapshotRepository keeps the last good response per API path in sqlite.
// It doubles as a source.Fetcher for offline use.
type SnapshotRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewSnapshotRepository(dbPath string) (*SnapshotRepository, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// sqlite allows a single writer.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SnapshotRepository{db: db, now: time.Now}, nil
}

// Ping checks the database connection.
func (r *SnapshotRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SnapshotRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Save upserts the body for path.
func (r *SnapshotRepository) Save(ctx context.Context, path string, body []byte, rows int) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO snapshots (path, body, row_count, fetch_count, fetched_at)
		VALUES (?, ?, ?, 1, ?)
		ON CONFLICT(path) DO UPDATE SET
			body = excluded.body,
			row_count = excluded.row_count,
			fetch_count = snapshots.fetch_count + 1,
			fetched_at = excluded.fetched_at`,
		path, body, rows, r.now().UTC())
	if err != nil {
		return fmt.Errorf("save snapshot %s: %w", path, err)
	}
	return nil
}

// Get returns the snapshot for path or source.ErrNotFound.
func (r *SnapshotRepository) Get(ctx context.Context, path string) (Snapshot, error) {
	s := Snapshot{Path: path}
	err := r.db.QueryRowContext(ctx,
		`SELECT body, row_count, fetch_count, fetched_at FROM snapshots WHERE path = ?`, path).
		Scan(&s.Body, &s.RowCount, &s.FetchCount, &s.FetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Snapshot{}, fmt.Errorf("snapshot %s: %w", path, source.ErrNotFound)
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("get snapshot %s: %w", path, err)
	}
	return s, nil
}

// Fetch implements source.Fetcher from stored snapshots.
func (r *SnapshotRepository) Fetch(ctx context.Context, path string) ([]byte, error) {
	s, err := r.Get(ctx, path)
	if err != nil {
		return nil, err
	}
	return s.Body, nil
}

// List returns every snapshot without its body, ordered by path.
func (r *SnapshotRepository) List(ctx context.Context) ([]Snapshot, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT path, row_count, fetch_count, fetched_at FROM snapshots ORDER BY path`)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer rows.Close()

	var out []Snapshot
	for rows.Next() {
		var s Snapshot
		if err := rows.Scan(&s.Path, &s.RowCount, &s.FetchCount, &s.FetchedAt); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Prune deletes snapshots fetched before cutoff and returns how many went.
func (r *SnapshotRepository) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM snapshots WHERE fetched_at < ?`, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("prune snapshots: %w", err)
	}
	return res.RowsAffected()
}

// FallbackFetcher tries primary first and serves the stored snapshot when
// it fails. Missing snapshots surface the primary error.
type FallbackFetcher struct {
	Primary   source.Fetcher
	Snapshots *SnapshotRepository
	// OnFallback is called when a snapshot is served instead.
	OnFallback func(path string, err error)
}

func (f *FallbackFetcher) Fetch(ctx context.Context, path string) ([]byte, error) {
	body, err := f.Primary.Fetch(ctx, path)
	if err == nil {
		return body, nil
	}
	if ctx.Err() != nil {
		return nil, err
	}
	snap, serr := f.Snapshots.Get(ctx, path)
	if serr != nil {
		return nil, err
	}
	if f.OnFallback != nil {
		f.OnFallback(path, err)
	}
	return snap.Body, nil
}
