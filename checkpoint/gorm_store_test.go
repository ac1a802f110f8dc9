package checkpoint

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGormStore(t *testing.T) *GormStore {
	t.Helper()
	store, err := NewGormStore(filepath.Join(t.TempDir(), "checkpoints.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestGormStore_SaveAndLoad(t *testing.T) {
	store := newTestGormStore(t)
	ctx := context.Background()
	snap := testSnapshot("run-1")

	require.NoError(t, store.Save(ctx, snap))

	loaded, err := store.Load(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, snap.RunID, loaded.RunID)
	assert.Equal(t, snap.Manager, loaded.Manager)
}

func TestGormStore_LoadReturnsLatestVersion(t *testing.T) {
	store := newTestGormStore(t)
	ctx := context.Background()

	for period := uint64(1); period <= 3; period++ {
		snap := testSnapshot("run-1")
		snap.Manager.Period = period
		require.NoError(t, store.Save(ctx, snap))
	}

	loaded, err := store.Load(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, uint64(3), loaded.Manager.Period)

	count, err := store.Versions(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, int64(3), count, "every version is kept")
}

func TestGormStore_RunsAreIsolated(t *testing.T) {
	store := newTestGormStore(t)
	ctx := context.Background()

	a := testSnapshot("run-a")
	a.Manager.Period = 7
	b := testSnapshot("run-b")
	b.Manager.Period = 11
	require.NoError(t, store.Save(ctx, a))
	require.NoError(t, store.Save(ctx, b))

	loaded, err := store.Load(ctx, "run-a")
	require.NoError(t, err)
	assert.Equal(t, uint64(7), loaded.Manager.Period)
}

func TestGormStore_LoadMissing(t *testing.T) {
	store := newTestGormStore(t)

	_, err := store.Load(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGormStore_DeleteRemovesAllVersions(t *testing.T) {
	store := newTestGormStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, testSnapshot("run-1")))
	require.NoError(t, store.Save(ctx, testSnapshot("run-1")))
	require.NoError(t, store.Delete(ctx, "run-1"))

	count, err := store.Versions(ctx, "run-1")
	require.NoError(t, err)
	assert.Zero(t, count)

	_, err = store.Load(ctx, "run-1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGormStore_RejectsInvalidSnapshot(t *testing.T) {
	store := newTestGormStore(t)
	assert.Error(t, store.Save(context.Background(), &Snapshot{}))
}
