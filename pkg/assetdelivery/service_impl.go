package assetdelivery

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/tendant/asset-delivery/pkg/assetdelivery/objectkey"
)

// TokenTTL is the fixed validity window for issued access tokens.
const TokenTTL = 5 * time.Minute

// service implements the Service interface
type service struct {
	repository     Repository
	blobStores     map[string]BlobStore
	defaultBackend string
	keyGenerator   objectkey.Generator
	now            func() time.Time
}

// Option represents a functional option for configuring the service
type Option func(*service)

// WithRepository sets the repository for the service
func WithRepository(repo Repository) Option {
	return func(s *service) {
		s.repository = repo
	}
}

// WithBlobStore adds a blob storage backend. The first backend registered
// becomes the default unless WithDefaultBackend overrides it.
func WithBlobStore(name string, store BlobStore) Option {
	return func(s *service) {
		if s.blobStores == nil {
			s.blobStores = make(map[string]BlobStore)
		}
		s.blobStores[name] = store
		if s.defaultBackend == "" {
			s.defaultBackend = name
		}
	}
}

// WithDefaultBackend selects which registered backend receives new assets
func WithDefaultBackend(name string) Option {
	return func(s *service) {
		s.defaultBackend = name
	}
}

// WithObjectKeyGenerator sets the storage key generation strategy
func WithObjectKeyGenerator(g objectkey.Generator) Option {
	return func(s *service) {
		s.keyGenerator = g
	}
}

// WithClock overrides the service's time source. Intended for tests that
// exercise token expiry boundaries.
func WithClock(now func() time.Time) Option {
	return func(s *service) {
		s.now = now
	}
}

// New creates a new service instance with the given options
func New(options ...Option) (Service, error) {
	s := &service{
		blobStores: make(map[string]BlobStore),
		now:        time.Now,
	}

	for _, option := range options {
		option(s)
	}

	if s.repository == nil {
		return nil, fmt.Errorf("repository is required")
	}
	if len(s.blobStores) == 0 {
		return nil, fmt.Errorf("at least one blob store is required")
	}
	if s.keyGenerator == nil {
		s.keyGenerator = objectkey.NewDefaultGenerator()
	}

	return s, nil
}

func (s *service) blobStore(name string) (BlobStore, error) {
	store, ok := s.blobStores[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrStorageBackendNotFound, name)
	}
	return store, nil
}

// Asset lifecycle

func (s *service) IngestAsset(ctx context.Context, req IngestAssetRequest) (*Asset, error) {
	data, err := io.ReadAll(req.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read asset bytes: %w", err)
	}

	mimeType := req.MimeType
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	backendName := req.StorageBackendName
	if backendName == "" {
		backendName = s.defaultBackend
	}
	store, err := s.blobStore(backendName)
	if err != nil {
		return nil, err
	}

	sum := sha256.Sum256(data)
	etag := hex.EncodeToString(sum[:])

	id := uuid.New()
	objectKey := s.keyGenerator.GenerateKey(id, req.FileName)

	// Blob write comes first: a failed write must not leave an asset record
	// behind. The reverse failure (record create after a successful write)
	// leaves an orphaned blob, which is acceptable garbage.
	if err := store.Upload(ctx, objectKey, bytes.NewReader(data), mimeType); err != nil {
		return nil, &StorageError{Backend: backendName, Key: objectKey, Op: "upload", Err: err}
	}

	asset := &Asset{
		ID:                 id,
		StorageBackendName: backendName,
		StorageKey:         objectKey,
		FileName:           req.FileName,
		MimeType:           mimeType,
		SizeBytes:          int64(len(data)),
		ETag:               etag,
		IsPrivate:          req.Private,
		CreatedAt:          s.now().UTC(),
	}

	if err := s.repository.CreateAsset(ctx, asset); err != nil {
		return nil, &AssetError{AssetID: id, Op: "create", Err: err}
	}

	return asset, nil
}

func (s *service) GetAsset(ctx context.Context, id uuid.UUID) (*Asset, error) {
	return s.repository.GetAsset(ctx, id)
}

func (s *service) PublishAsset(ctx context.Context, assetID uuid.UUID) (*AssetVersion, error) {
	asset, err := s.repository.GetAsset(ctx, assetID)
	if err != nil {
		return nil, err
	}

	// Each publish produces a fresh version id; concurrent publishes of the
	// same asset both succeed and never deduplicate.
	version := &AssetVersion{
		ID:                 uuid.New(),
		AssetID:            asset.ID,
		StorageBackendName: asset.StorageBackendName,
		StorageKey:         asset.StorageKey,
		ETag:               asset.ETag,
		CreatedAt:          s.now().UTC(),
	}

	if err := s.repository.CreateVersion(ctx, version); err != nil {
		return nil, &AssetError{AssetID: assetID, Op: "publish", Err: err}
	}

	return version, nil
}

// Delivery

func (s *service) DownloadAsset(ctx context.Context, id uuid.UUID) (*Asset, io.ReadCloser, error) {
	asset, err := s.repository.GetAsset(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	rc, err := s.open(ctx, asset.StorageBackendName, asset.StorageKey)
	if err != nil {
		return nil, nil, err
	}
	return asset, rc, nil
}

func (s *service) GetVersion(ctx context.Context, id uuid.UUID) (*AssetVersion, error) {
	return s.repository.GetVersion(ctx, id)
}

func (s *service) DownloadVersion(ctx context.Context, id uuid.UUID) (*AssetVersion, io.ReadCloser, error) {
	version, err := s.repository.GetVersion(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	rc, err := s.open(ctx, version.StorageBackendName, version.StorageKey)
	if err != nil {
		return nil, nil, err
	}
	return version, rc, nil
}

func (s *service) ListVersions(ctx context.Context, assetID uuid.UUID) ([]*AssetVersion, error) {
	if _, err := s.repository.GetAsset(ctx, assetID); err != nil {
		return nil, err
	}
	return s.repository.ListVersionsByAsset(ctx, assetID)
}

func (s *service) open(ctx context.Context, backendName, objectKey string) (io.ReadCloser, error) {
	store, err := s.blobStore(backendName)
	if err != nil {
		return nil, err
	}
	rc, err := store.Download(ctx, objectKey)
	if err != nil {
		return nil, &StorageError{Backend: backendName, Key: objectKey, Op: "download", Err: err}
	}
	return rc, nil
}

// Access tokens

func (s *service) IssueToken(ctx context.Context, assetID uuid.UUID) (*AccessToken, error) {
	asset, err := s.repository.GetAsset(ctx, assetID)
	if err != nil {
		return nil, err
	}

	value, err := generateTokenValue()
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	now := s.now().UTC()
	token := &AccessToken{
		Token:     value,
		AssetID:   asset.ID,
		ExpiresAt: now.Add(TokenTTL),
		CreatedAt: now,
	}

	if err := s.repository.CreateToken(ctx, token); err != nil {
		return nil, &AssetError{AssetID: assetID, Op: "issue_token", Err: err}
	}

	return token, nil
}

func (s *service) ValidateToken(ctx context.Context, token string) (*Asset, error) {
	record, err := s.repository.GetToken(ctx, token)
	if err != nil {
		return nil, err
	}

	if !record.ValidAt(s.now()) {
		return nil, ErrTokenExpired
	}

	// An asset referenced by a live token is never deleted, so a miss here
	// is a persistence fault rather than a client error.
	return s.repository.GetAsset(ctx, record.AssetID)
}

func (s *service) DownloadPrivate(ctx context.Context, token string) (*Asset, io.ReadCloser, error) {
	asset, err := s.ValidateToken(ctx, token)
	if err != nil {
		return nil, nil, err
	}

	rc, err := s.open(ctx, asset.StorageBackendName, asset.StorageKey)
	if err != nil {
		return nil, nil, err
	}
	return asset, rc, nil
}

func (s *service) PurgeExpiredTokens(ctx context.Context) (int64, error) {
	return s.repository.DeleteExpiredTokens(ctx, s.now())
}
