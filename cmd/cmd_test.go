package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(args ...string) error {
	return NewApp("bucketzip", "", "test", "").Run(args)
}

func TestPushThenArchive(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "store.db")
	src := filepath.Join(dir, "src")
	require.NoError(t, os.MkdirAll(filepath.Join(src, "2024"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "2024", "a.txt"), []byte("alpha"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(src, "2024", "b.txt"), []byte("beta"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(src, "readme.md"), []byte("# photos"), 0o644))

	global := []string{"bucketzip", "--log-level", "error", "--provider", "bolt", "--store", db}
	err := run(append(global, "push", "--dir", src, "--prefix", "photos/", "--jobs", "2", "docs")...)
	require.NoError(t, err)

	out := filepath.Join(dir, "photos.zip")
	err = run(append(global, "archive", "--prefix", "photos/2024/", "--relative", "-m", "deflate", "-o", out, "docs")...)
	require.NoError(t, err)

	r, err := zip.OpenReader(out)
	require.NoError(t, err)
	defer r.Close()
	require.Len(t, r.File, 2)
	assert.Equal(t, "a.txt", r.File[0].Name)
	assert.Equal(t, "b.txt", r.File[1].Name)
	assert.Equal(t, zip.Deflate, r.File[0].Method)
}

func TestCommandErrors(t *testing.T) {
	db := filepath.Join(t.TempDir(), "store.db")

	t.Run("missing bucket argument", func(t *testing.T) {
		err := run("bucketzip", "--log-level", "error", "archive")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "please specify a bucket")
	})

	t.Run("invalid log level", func(t *testing.T) {
		err := run("bucketzip", "--log-level", "loud", "list", "docs")
		assert.Error(t, err)
	})

	t.Run("unknown provider", func(t *testing.T) {
		err := run("bucketzip", "--log-level", "error", "--provider", "ftp", "list", "docs")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown provider")
	})

	t.Run("bad policy", func(t *testing.T) {
		err := run("bucketzip", "--log-level", "error", "--provider", "bolt", "--store", db,
			"archive", "--policy", "retry", "-o", filepath.Join(t.TempDir(), "x.zip"), "docs")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown failure policy")
	})
}
