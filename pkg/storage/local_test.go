package storage_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/batchmail/pkg/storage"
)

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, data, 0o600))
}

func TestLocal_Exists(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "images", "1.jpg"), []byte{0xFF, 0xD8, 0xFF})
	require.NoError(t, os.Mkdir(filepath.Join(dir, "images", "2.jpg"), 0o755))

	store := storage.NewLocal(dir)
	ctx := context.Background()

	t.Run("existing file", func(t *testing.T) {
		t.Parallel()
		ok, err := store.Exists(ctx, "images/1.jpg")
		require.NoError(t, err)
		require.True(t, ok)
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()
		ok, err := store.Exists(ctx, "images/3.jpg")
		require.NoError(t, err)
		require.False(t, ok)
	})

	t.Run("directory is not a file", func(t *testing.T) {
		t.Parallel()
		ok, err := store.Exists(ctx, "images/2.jpg")
		require.NoError(t, err)
		require.False(t, ok)
	})

	t.Run("empty key", func(t *testing.T) {
		t.Parallel()
		_, err := store.Exists(ctx, "")
		require.ErrorIs(t, err, storage.ErrInvalidKey)
	})

	t.Run("cancelled context", func(t *testing.T) {
		t.Parallel()
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := store.Exists(cctx, "images/1.jpg")
		require.ErrorIs(t, err, context.Canceled)
	})
}

func TestLocal_Get(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "list.txt"), []byte("a@example.com\nb@example.com\n"))

	t.Run("rooted", func(t *testing.T) {
		t.Parallel()
		data, err := storage.ReadAll(context.Background(), storage.NewLocal(dir), "list.txt")
		require.NoError(t, err)
		require.Equal(t, "a@example.com\nb@example.com\n", string(data))
	})

	t.Run("unrooted uses OS paths", func(t *testing.T) {
		t.Parallel()
		data, err := storage.ReadAll(context.Background(), storage.NewLocal(""), filepath.Join(dir, "list.txt"))
		require.NoError(t, err)
		require.NotEmpty(t, data)
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()
		_, err := storage.NewLocal(dir).Get(context.Background(), "nope.txt")
		require.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("traversal stays inside root", func(t *testing.T) {
		t.Parallel()
		outside := t.TempDir()
		writeFile(t, filepath.Join(outside, "secret.txt"), []byte("secret"))

		rel, err := filepath.Rel(dir, filepath.Join(outside, "secret.txt"))
		require.NoError(t, err)

		_, err = storage.NewLocal(dir).Get(context.Background(), filepath.ToSlash(rel))
		require.ErrorIs(t, err, storage.ErrNotFound)
	})
}
