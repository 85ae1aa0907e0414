package fsutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindFilesByExtension(t *testing.T) {
	tempDir := t.TempDir()

	mustWrite := func(rel string) string {
		path := filepath.Join(tempDir, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte("x"), 0o600))
		return path
	}

	yamlA := mustWrite("a.yaml")
	ymlB := mustWrite("nested/b.yml")
	mustWrite("nested/ignore.json")

	t.Run("finds files across extensions recursively", func(t *testing.T) {
		files, err := FindFilesByExtension(tempDir, ".yaml", ".yml")
		require.NoError(t, err)
		assert.Equal(t, []string{yamlA, ymlB}, files)
	})

	t.Run("single extension", func(t *testing.T) {
		files, err := FindFilesByExtension(tempDir, ".yaml")
		require.NoError(t, err)
		assert.Equal(t, []string{yamlA}, files)
	})

	t.Run("missing root path returns an error", func(t *testing.T) {
		_, err := FindFilesByExtension(filepath.Join(tempDir, "does-not-exist"), ".yaml")
		assert.Error(t, err)
	})

	t.Run("no extensions panics", func(t *testing.T) {
		assert.Panics(t, func() {
			_, _ = FindFilesByExtension(tempDir)
		})
	})
}
