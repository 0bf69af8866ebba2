package assetdelivery_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/asset-delivery/pkg/assetdelivery"
	repomemory "github.com/tendant/asset-delivery/pkg/assetdelivery/repo/memory"
	memorystorage "github.com/tendant/asset-delivery/pkg/assetdelivery/storage/memory"
)

const helloWorldSHA256 = "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9"

func setupTestService(t *testing.T, extra ...assetdelivery.Option) assetdelivery.Service {
	t.Helper()

	options := []assetdelivery.Option{
		assetdelivery.WithRepository(repomemory.New()),
		assetdelivery.WithBlobStore("memory", memorystorage.New()),
	}
	options = append(options, extra...)

	svc, err := assetdelivery.New(options...)
	require.NoError(t, err)
	return svc
}

func ingestHelloWorld(t *testing.T, svc assetdelivery.Service) *assetdelivery.Asset {
	t.Helper()

	asset, err := svc.IngestAsset(context.Background(), assetdelivery.IngestAssetRequest{
		Reader:   strings.NewReader("hello world"),
		FileName: "test.txt",
		MimeType: "text/plain",
	})
	require.NoError(t, err)
	return asset
}

func TestIngestAsset(t *testing.T) {
	ctx := context.Background()
	svc := setupTestService(t)

	t.Run("computes hash and size", func(t *testing.T) {
		asset := ingestHelloWorld(t, svc)

		assert.NotEqual(t, uuid.Nil, asset.ID)
		assert.Equal(t, "test.txt", asset.FileName)
		assert.Equal(t, "text/plain", asset.MimeType)
		assert.Equal(t, int64(11), asset.SizeBytes)
		assert.Equal(t, helloWorldSHA256, asset.ETag)
	})

	t.Run("defaults mime type", func(t *testing.T) {
		asset, err := svc.IngestAsset(ctx, assetdelivery.IngestAssetRequest{
			Reader:   strings.NewReader("data"),
			FileName: "blob.bin",
		})
		require.NoError(t, err)
		assert.Equal(t, "application/octet-stream", asset.MimeType)
	})

	t.Run("distinct assets for identical content", func(t *testing.T) {
		first := ingestHelloWorld(t, svc)
		second := ingestHelloWorld(t, svc)

		assert.NotEqual(t, first.ID, second.ID)
		assert.Equal(t, first.ETag, second.ETag)
		assert.NotEqual(t, first.StorageKey, second.StorageKey)
	})

	t.Run("unknown backend leaves no record", func(t *testing.T) {
		_, err := svc.IngestAsset(ctx, assetdelivery.IngestAssetRequest{
			Reader:             strings.NewReader("data"),
			FileName:           "blob.bin",
			StorageBackendName: "missing",
		})
		require.Error(t, err)
		assert.ErrorIs(t, err, assetdelivery.ErrStorageBackendNotFound)
	})
}

func TestDownloadAsset(t *testing.T) {
	ctx := context.Background()
	svc := setupTestService(t)

	t.Run("round trip", func(t *testing.T) {
		asset := ingestHelloWorld(t, svc)

		got, rc, err := svc.DownloadAsset(ctx, asset.ID)
		require.NoError(t, err)
		defer rc.Close()

		data, err := io.ReadAll(rc)
		require.NoError(t, err)
		assert.Equal(t, "hello world", string(data))
		assert.Equal(t, asset.ETag, got.ETag)
	})

	t.Run("unknown id", func(t *testing.T) {
		_, _, err := svc.DownloadAsset(ctx, uuid.New())
		assert.ErrorIs(t, err, assetdelivery.ErrAssetNotFound)
	})
}

func TestPublishAsset(t *testing.T) {
	ctx := context.Background()
	svc := setupTestService(t)

	t.Run("snapshots current state", func(t *testing.T) {
		asset := ingestHelloWorld(t, svc)

		version, err := svc.PublishAsset(ctx, asset.ID)
		require.NoError(t, err)

		assert.Equal(t, asset.ID, version.AssetID)
		assert.Equal(t, asset.ETag, version.ETag)
		assert.Equal(t, asset.StorageKey, version.StorageKey)
		assert.Equal(t, asset.StorageBackendName, version.StorageBackendName)
	})

	t.Run("publish twice yields distinct versions", func(t *testing.T) {
		asset := ingestHelloWorld(t, svc)

		first, err := svc.PublishAsset(ctx, asset.ID)
		require.NoError(t, err)
		second, err := svc.PublishAsset(ctx, asset.ID)
		require.NoError(t, err)

		assert.NotEqual(t, first.ID, second.ID)
		assert.Equal(t, first.ETag, second.ETag)
		assert.Equal(t, first.StorageKey, second.StorageKey)
	})

	t.Run("unknown asset", func(t *testing.T) {
		_, err := svc.PublishAsset(ctx, uuid.New())
		assert.ErrorIs(t, err, assetdelivery.ErrAssetNotFound)
	})
}

func TestDownloadVersion(t *testing.T) {
	ctx := context.Background()
	svc := setupTestService(t)

	t.Run("serves published bytes", func(t *testing.T) {
		asset := ingestHelloWorld(t, svc)
		version, err := svc.PublishAsset(ctx, asset.ID)
		require.NoError(t, err)

		got, rc, err := svc.DownloadVersion(ctx, version.ID)
		require.NoError(t, err)
		defer rc.Close()

		data, err := io.ReadAll(rc)
		require.NoError(t, err)
		assert.Equal(t, "hello world", string(data))
		assert.Equal(t, version.ID, got.ID)
	})

	t.Run("unknown version", func(t *testing.T) {
		_, _, err := svc.DownloadVersion(ctx, uuid.New())
		assert.ErrorIs(t, err, assetdelivery.ErrVersionNotFound)
	})
}

func TestListVersions(t *testing.T) {
	ctx := context.Background()
	svc := setupTestService(t)

	asset := ingestHelloWorld(t, svc)

	versions, err := svc.ListVersions(ctx, asset.ID)
	require.NoError(t, err)
	assert.Empty(t, versions)

	_, err = svc.PublishAsset(ctx, asset.ID)
	require.NoError(t, err)
	_, err = svc.PublishAsset(ctx, asset.ID)
	require.NoError(t, err)

	versions, err = svc.ListVersions(ctx, asset.ID)
	require.NoError(t, err)
	assert.Len(t, versions, 2)

	_, err = svc.ListVersions(ctx, uuid.New())
	assert.ErrorIs(t, err, assetdelivery.ErrAssetNotFound)
}

func TestAccessTokens(t *testing.T) {
	ctx := context.Background()

	t.Run("issue and validate", func(t *testing.T) {
		svc := setupTestService(t)
		asset := ingestHelloWorld(t, svc)

		token, err := svc.IssueToken(ctx, asset.ID)
		require.NoError(t, err)
		assert.NotEmpty(t, token.Token)
		assert.Equal(t, asset.ID, token.AssetID)
		assert.Equal(t, assetdelivery.TokenTTL, token.ExpiresAt.Sub(token.CreatedAt))

		got, err := svc.ValidateToken(ctx, token.Token)
		require.NoError(t, err)
		assert.Equal(t, asset.ID, got.ID)
	})

	t.Run("tokens are unguessable and distinct", func(t *testing.T) {
		svc := setupTestService(t)
		asset := ingestHelloWorld(t, svc)

		first, err := svc.IssueToken(ctx, asset.ID)
		require.NoError(t, err)
		second, err := svc.IssueToken(ctx, asset.ID)
		require.NoError(t, err)

		assert.NotEqual(t, first.Token, second.Token)
		assert.GreaterOrEqual(t, len(first.Token), 43)
	})

	t.Run("unknown token", func(t *testing.T) {
		svc := setupTestService(t)
		_, err := svc.ValidateToken(ctx, "no-such-token")
		assert.ErrorIs(t, err, assetdelivery.ErrTokenNotFound)
	})

	t.Run("expired exactly at boundary", func(t *testing.T) {
		now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
		clock := &now
		svc := setupTestService(t, assetdelivery.WithClock(func() time.Time { return *clock }))

		asset := ingestHelloWorld(t, svc)
		token, err := svc.IssueToken(ctx, asset.ID)
		require.NoError(t, err)

		// One instant before expiry the token is still good.
		before := now.Add(assetdelivery.TokenTTL - time.Nanosecond)
		clock = &before
		_, err = svc.ValidateToken(ctx, token.Token)
		require.NoError(t, err)

		// At the expiry instant it is already rejected.
		at := now.Add(assetdelivery.TokenTTL)
		clock = &at
		_, err = svc.ValidateToken(ctx, token.Token)
		assert.ErrorIs(t, err, assetdelivery.ErrTokenExpired)
	})

	t.Run("issue for unknown asset", func(t *testing.T) {
		svc := setupTestService(t)
		_, err := svc.IssueToken(ctx, uuid.New())
		assert.ErrorIs(t, err, assetdelivery.ErrAssetNotFound)
	})
}

func TestDownloadPrivate(t *testing.T) {
	ctx := context.Background()
	svc := setupTestService(t)

	asset := ingestHelloWorld(t, svc)
	token, err := svc.IssueToken(ctx, asset.ID)
	require.NoError(t, err)

	got, rc, err := svc.DownloadPrivate(ctx, token.Token)
	require.NoError(t, err)
	defer rc.Close()

	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(data))
	assert.Equal(t, asset.ID, got.ID)
}

func TestPurgeExpiredTokens(t *testing.T) {
	ctx := context.Background()

	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	clock := &now
	svc := setupTestService(t, assetdelivery.WithClock(func() time.Time { return *clock }))

	asset := ingestHelloWorld(t, svc)

	stale, err := svc.IssueToken(ctx, asset.ID)
	require.NoError(t, err)

	later := now.Add(assetdelivery.TokenTTL / 2)
	clock = &later
	fresh, err := svc.IssueToken(ctx, asset.ID)
	require.NoError(t, err)

	purgeTime := now.Add(assetdelivery.TokenTTL)
	clock = &purgeTime
	deleted, err := svc.PurgeExpiredTokens(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	_, err = svc.ValidateToken(ctx, stale.Token)
	assert.ErrorIs(t, err, assetdelivery.ErrTokenNotFound)

	_, err = svc.ValidateToken(ctx, fresh.Token)
	require.NoError(t, err)
}

func TestServiceConstruction(t *testing.T) {
	t.Run("requires repository", func(t *testing.T) {
		_, err := assetdelivery.New(
			assetdelivery.WithBlobStore("memory", memorystorage.New()),
		)
		assert.Error(t, err)
	})

	t.Run("requires a blob store", func(t *testing.T) {
		_, err := assetdelivery.New(
			assetdelivery.WithRepository(repomemory.New()),
		)
		assert.Error(t, err)
	})
}

type failingStore struct{}

func (failingStore) Upload(ctx context.Context, key string, r io.Reader, mimeType string) error {
	return errors.New("upload failed")
}

func (failingStore) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	return nil, errors.New("download failed")
}

func (failingStore) GetBlobMeta(ctx context.Context, key string) (*assetdelivery.BlobMeta, error) {
	return nil, errors.New("meta failed")
}

func (failingStore) Delete(ctx context.Context, key string) error {
	return errors.New("delete failed")
}

func TestIngestStorageFailure(t *testing.T) {
	ctx := context.Background()
	repo := repomemory.New()

	svc, err := assetdelivery.New(
		assetdelivery.WithRepository(repo),
		assetdelivery.WithBlobStore("memory", failingStore{}),
	)
	require.NoError(t, err)

	_, err = svc.IngestAsset(ctx, assetdelivery.IngestAssetRequest{
		Reader:   strings.NewReader("hello world"),
		FileName: "test.txt",
	})
	require.Error(t, err)

	var storageErr *assetdelivery.StorageError
	assert.ErrorAs(t, err, &storageErr)
	assert.Equal(t, "upload", storageErr.Op)
}
