package assetdelivery

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"
)

// BlobStore defines the interface for storage backends. Backends are plain
// byte stores keyed by an opaque string; they carry no caching or eviction
// logic of their own.
type BlobStore interface {
	// Upload writes the reader's bytes at the given key with the given MIME type
	Upload(ctx context.Context, objectKey string, reader io.Reader, mimeType string) error

	// Download returns a reader over the bytes at the given key
	Download(ctx context.Context, objectKey string) (io.ReadCloser, error)

	// GetBlobMeta retrieves size and content-type metadata for a stored blob
	GetBlobMeta(ctx context.Context, objectKey string) (*BlobMeta, error)

	// Delete removes the bytes at the given key
	Delete(ctx context.Context, objectKey string) error
}

// BlobMeta contains metadata about a blob in storage
type BlobMeta struct {
	Key         string
	Size        int64
	ContentType string
	UpdatedAt   time.Time
}

// Repository defines the interface for asset, version and token persistence.
// Implementations must return ErrAssetNotFound, ErrVersionNotFound and
// ErrTokenNotFound for missing records so callers can classify failures.
type Repository interface {
	// Asset operations
	CreateAsset(ctx context.Context, asset *Asset) error
	GetAsset(ctx context.Context, id uuid.UUID) (*Asset, error)
	UpdateAsset(ctx context.Context, asset *Asset) error

	// Version operations. Versions are append-only: no update, no delete.
	CreateVersion(ctx context.Context, version *AssetVersion) error
	GetVersion(ctx context.Context, id uuid.UUID) (*AssetVersion, error)
	ListVersionsByAsset(ctx context.Context, assetID uuid.UUID) ([]*AssetVersion, error)

	// Token operations
	CreateToken(ctx context.Context, token *AccessToken) error
	GetToken(ctx context.Context, token string) (*AccessToken, error)
	DeleteExpiredTokens(ctx context.Context, before time.Time) (int64, error)
}
