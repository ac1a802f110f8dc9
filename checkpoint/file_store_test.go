package checkpoint

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFileStore(t *testing.T) *FileStore {
	t.Helper()
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestFileStore_SaveAndLoad(t *testing.T) {
	store := newTestFileStore(t)
	ctx := context.Background()
	snap := testSnapshot("run-1")

	require.NoError(t, store.Save(ctx, snap))

	loaded, err := store.Load(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, snap.RunID, loaded.RunID)
	assert.Equal(t, snap.Manager, loaded.Manager)
	assert.JSONEq(t, string(snap.Simulation), string(loaded.Simulation))
	assert.JSONEq(t, string(snap.Plugins["saver"]), string(loaded.Plugins["saver"]))
}

func TestFileStore_SaveReplacesLatest(t *testing.T) {
	store := newTestFileStore(t)
	ctx := context.Background()

	first := testSnapshot("run-1")
	first.Manager.Period = 10
	require.NoError(t, store.Save(ctx, first))

	second := testSnapshot("run-1")
	second.Manager.Period = 99
	require.NoError(t, store.Save(ctx, second))

	loaded, err := store.Load(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, uint64(99), loaded.Manager.Period)
}

func TestFileStore_LoadMissing(t *testing.T) {
	store := newTestFileStore(t)

	_, err := store.Load(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFileStore_LoadCorrupt(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	require.NoError(t, err)

	path := filepath.Join(dir, "checkpoints", "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	_, err = store.Load(context.Background(), "bad")
	assert.ErrorIs(t, err, ErrInvalidSnapshot)
}

func TestFileStore_Delete(t *testing.T) {
	store := newTestFileStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, testSnapshot("run-1")))
	require.NoError(t, store.Delete(ctx, "run-1"))

	_, err := store.Load(ctx, "run-1")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.NoError(t, store.Delete(ctx, "run-1"), "deleting a missing run is not an error")
}

func TestFileStore_RejectsInvalidSnapshot(t *testing.T) {
	store := newTestFileStore(t)
	assert.Error(t, store.Save(context.Background(), &Snapshot{}))
}

func TestFileStore_ClosedStore(t *testing.T) {
	store := newTestFileStore(t)
	require.NoError(t, store.Close())

	ctx := context.Background()
	assert.ErrorIs(t, store.Save(ctx, testSnapshot("run-1")), ErrStoreClosed)
	_, err := store.Load(ctx, "run-1")
	assert.ErrorIs(t, err, ErrStoreClosed)
	assert.ErrorIs(t, store.Delete(ctx, "run-1"), ErrStoreClosed)
}

func TestFileStore_NoTempFileLeftBehind(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	require.NoError(t, err)

	require.NoError(t, store.Save(context.Background(), testSnapshot("run-1")))

	entries, err := os.ReadDir(filepath.Join(dir, "checkpoints"))
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotContains(t, e.Name(), ".tmp")
	}
}
