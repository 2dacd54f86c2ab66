package routestore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileBackend_Contract(t *testing.T) {
	runBackendContract(t, func(t *testing.T) Backend {
		return NewFileBackend(filepath.Join(t.TempDir(), "routes.json"))
	})
}

func TestFileBackend(t *testing.T) {
	ctx := context.Background()

	t.Run("creates parent directories", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "dir", "routes.json")
		b := NewFileBackend(path)
		require.NoError(t, b.Save(ctx, []Route{{Slug: "a"}}))
		assert.FileExists(t, path)
		assert.Equal(t, path, b.Path())
	})

	t.Run("empty file loads as empty table", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "routes.json")
		require.NoError(t, os.WriteFile(path, nil, 0o600))

		routes, err := NewFileBackend(path).Load(ctx)
		require.NoError(t, err)
		assert.Empty(t, routes)
	})

	t.Run("corrupt file is an error", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "routes.json")
		require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

		_, err := NewFileBackend(path).Load(ctx)
		assert.Error(t, err)
	})

	t.Run("leaves no temp files behind", func(t *testing.T) {
		dir := t.TempDir()
		b := NewFileBackend(filepath.Join(dir, "routes.json"))
		require.NoError(t, b.Save(ctx, []Route{{Slug: "a"}}))
		require.NoError(t, b.Save(ctx, []Route{{Slug: "b"}}))

		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		assert.Len(t, entries, 1)
	})
}
