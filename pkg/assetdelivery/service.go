package assetdelivery

import (
	"context"
	"io"

	"github.com/google/uuid"
)

// Service is the main interface for asset lifecycle, delivery and access
// token operations.
type Service interface {
	// Asset lifecycle
	IngestAsset(ctx context.Context, req IngestAssetRequest) (*Asset, error)
	GetAsset(ctx context.Context, id uuid.UUID) (*Asset, error)
	PublishAsset(ctx context.Context, assetID uuid.UUID) (*AssetVersion, error)

	// Delivery. Download operations resolve the record and open the blob in
	// one call; Get operations never touch the blob store, so HEAD and
	// conditional requests can be answered from the record alone.
	DownloadAsset(ctx context.Context, id uuid.UUID) (*Asset, io.ReadCloser, error)
	GetVersion(ctx context.Context, id uuid.UUID) (*AssetVersion, error)
	DownloadVersion(ctx context.Context, id uuid.UUID) (*AssetVersion, io.ReadCloser, error)
	ListVersions(ctx context.Context, assetID uuid.UUID) ([]*AssetVersion, error)

	// Access tokens
	IssueToken(ctx context.Context, assetID uuid.UUID) (*AccessToken, error)
	ValidateToken(ctx context.Context, token string) (*Asset, error)
	DownloadPrivate(ctx context.Context, token string) (*Asset, io.ReadCloser, error)
	PurgeExpiredTokens(ctx context.Context) (int64, error)
}
