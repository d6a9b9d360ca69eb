package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"uems/internal/source"
)

func newTestRepo(t *testing.T) *SnapshotRepository {
	t.Helper()
	repo, err := NewSnapshotRepository(filepath.Join(t.TempDir(), "nested", "uems.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestSnapshotRepository_SaveAndGet(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, "/api/gas/automated", []byte(`[{"icp":"1"}]`), 1))
	require.NoError(t, repo.Save(ctx, "/api/gas/automated", []byte(`[{"icp":"1"},{"icp":"2"}]`), 2))

	snap, err := repo.Get(ctx, "/api/gas/automated")
	require.NoError(t, err)
	assert.Equal(t, `[{"icp":"1"},{"icp":"2"}]`, string(snap.Body))
	assert.Equal(t, 2, snap.RowCount)
	assert.Equal(t, 2, snap.FetchCount)
	assert.False(t, snap.FetchedAt.IsZero())

	body, err := repo.Fetch(ctx, "/api/gas/automated")
	require.NoError(t, err)
	assert.Equal(t, snap.Body, body)
}

func TestSnapshotRepository_Missing(t *testing.T) {
	repo := newTestRepo(t)
	_, err := repo.Fetch(context.Background(), "/api/cfi/rooms")
	assert.True(t, errors.Is(err, source.ErrNotFound))
}

func TestSnapshotRepository_ListAndPrune(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	old := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return old }
	require.NoError(t, repo.Save(ctx, "/api/mthw/meter", []byte(`[]`), 0))
	repo.now = func() time.Time { return old.Add(48 * time.Hour) }
	require.NoError(t, repo.Save(ctx, "/api/cfi/meter", []byte(`[]`), 0))

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "/api/cfi/meter", list[0].Path)
	assert.Nil(t, list[0].Body)

	n, err := repo.Prune(ctx, old.Add(24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	list, err = repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "/api/cfi/meter", list[0].Path)
}

func TestFallbackFetcher(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	require.NoError(t, repo.Save(ctx, "/api/lthw/manual", []byte(`[{"object_name":"X"}]`), 1))

	upstreamErr := &source.StatusError{Path: "/api/lthw/manual", Status: 503}
	var fellBack string
	f := &FallbackFetcher{
		Primary: source.FetcherFunc(func(context.Context, string) ([]byte, error) {
			return nil, upstreamErr
		}),
		Snapshots:  repo,
		OnFallback: func(path string, _ error) { fellBack = path },
	}

	body, err := f.Fetch(ctx, "/api/lthw/manual")
	require.NoError(t, err)
	assert.Equal(t, `[{"object_name":"X"}]`, string(body))
	assert.Equal(t, "/api/lthw/manual", fellBack)

	_, err = f.Fetch(ctx, "/api/lthw/automated")
	assert.ErrorIs(t, err, upstreamErr, "without a snapshot the upstream error is returned")
}
