package fs

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupBackend(t *testing.T) *Backend {
	t.Helper()

	backend, err := New(Config{BaseDir: t.TempDir()})
	require.NoError(t, err)
	return backend
}

func TestNewRequiresBaseDir(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
}

func TestUploadDownload(t *testing.T) {
	ctx := context.Background()
	backend := setupBackend(t)

	require.NoError(t, backend.Upload(ctx, "test-key", strings.NewReader("hello world"), "text/plain"))

	rc, err := backend.Download(ctx, "test-key")
	require.NoError(t, err)
	defer rc.Close()

	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(data))
}

func TestUploadNestedKey(t *testing.T) {
	ctx := context.Background()
	backend := setupBackend(t)

	require.NoError(t, backend.Upload(ctx, "assets/ab/rest_file.txt", strings.NewReader("data"), ""))

	rc, err := backend.Download(ctx, "assets/ab/rest_file.txt")
	require.NoError(t, err)
	rc.Close()
}

func TestDownloadMissing(t *testing.T) {
	backend := setupBackend(t)

	_, err := backend.Download(context.Background(), "missing")
	assert.Error(t, err)
}

func TestGetBlobMeta(t *testing.T) {
	ctx := context.Background()
	backend := setupBackend(t)

	require.NoError(t, backend.Upload(ctx, "test-key", strings.NewReader("hello world"), "text/plain"))

	meta, err := backend.GetBlobMeta(ctx, "test-key")
	require.NoError(t, err)
	assert.Equal(t, "test-key", meta.Key)
	assert.Equal(t, int64(11), meta.Size)
	assert.False(t, meta.UpdatedAt.IsZero())
}

func TestDeleteCleansEmptyDirectories(t *testing.T) {
	ctx := context.Background()
	baseDir := t.TempDir()

	backend, err := New(Config{BaseDir: baseDir})
	require.NoError(t, err)

	require.NoError(t, backend.Upload(ctx, "assets/ab/file.txt", strings.NewReader("data"), ""))
	require.NoError(t, backend.Delete(ctx, "assets/ab/file.txt"))

	_, err = os.Stat(filepath.Join(baseDir, "assets"))
	assert.True(t, os.IsNotExist(err))

	_, err = os.Stat(baseDir)
	assert.NoError(t, err)
}
