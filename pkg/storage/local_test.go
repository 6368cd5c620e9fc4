package storage

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStoreRoundTrip(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	ctx := context.Background()
	data := []byte("file contents")

	require.NoError(t, store.Put(ctx, "1700000000000-abc123.txt", data, "text/plain"))

	got, err := store.Get(ctx, "1700000000000-abc123.txt")
	require.NoError(t, err)
	assert.Equal(t, data, got)

	r, err := store.GetReader(ctx, "1700000000000-abc123.txt")
	require.NoError(t, err)
	streamed, err := io.ReadAll(r)
	require.NoError(t, err)
	r.Close()
	assert.Equal(t, data, streamed)

	require.NoError(t, store.Delete(ctx, "1700000000000-abc123.txt"))

	_, err = store.Get(ctx, "1700000000000-abc123.txt")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLocalStoreRejectsTraversal(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	ctx := context.Background()
	assert.Error(t, store.Put(ctx, "../escape.txt", []byte("x"), "text/plain"))
	assert.Error(t, store.Put(ctx, "/abs/path.txt", []byte("x"), "text/plain"))
}

func TestLocalStoreDeleteMissing(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	assert.ErrorIs(t, store.Delete(context.Background(), "missing.txt"), ErrNotFound)
}
