package memory

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUploadDownload(t *testing.T) {
	ctx := context.Background()
	backend := New()

	require.NoError(t, backend.Upload(ctx, "test-key", strings.NewReader("hello world"), "text/plain"))

	rc, err := backend.Download(ctx, "test-key")
	require.NoError(t, err)
	defer rc.Close()

	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(data))
}

func TestDownloadMissing(t *testing.T) {
	backend := New()

	_, err := backend.Download(context.Background(), "missing")
	assert.Error(t, err)
}

func TestGetBlobMeta(t *testing.T) {
	ctx := context.Background()
	backend := New()

	require.NoError(t, backend.Upload(ctx, "test-key", strings.NewReader("hello world"), "text/plain"))

	meta, err := backend.GetBlobMeta(ctx, "test-key")
	require.NoError(t, err)
	assert.Equal(t, "test-key", meta.Key)
	assert.Equal(t, int64(11), meta.Size)
	assert.Equal(t, "text/plain", meta.ContentType)
	assert.False(t, meta.UpdatedAt.IsZero())
}

func TestUploadDefaultsContentType(t *testing.T) {
	ctx := context.Background()
	backend := New()

	require.NoError(t, backend.Upload(ctx, "test-key", strings.NewReader("data"), ""))

	meta, err := backend.GetBlobMeta(ctx, "test-key")
	require.NoError(t, err)
	assert.Equal(t, "application/octet-stream", meta.ContentType)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	backend := New()

	require.NoError(t, backend.Upload(ctx, "test-key", strings.NewReader("data"), ""))
	require.NoError(t, backend.Delete(ctx, "test-key"))

	_, err := backend.Download(ctx, "test-key")
	assert.Error(t, err)

	assert.Error(t, backend.Delete(ctx, "test-key"))
}
