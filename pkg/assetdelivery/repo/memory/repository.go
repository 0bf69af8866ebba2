package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tendant/asset-delivery/pkg/assetdelivery"
)

// Repository implements assetdelivery.Repository using in-memory storage
type Repository struct {
	mu              sync.RWMutex
	assets          map[uuid.UUID]*assetdelivery.Asset
	versions        map[uuid.UUID]*assetdelivery.AssetVersion
	versionsByAsset map[uuid.UUID][]uuid.UUID // asset_id -> []version_id
	tokens          map[string]*assetdelivery.AccessToken
}

// New creates a new in-memory repository
func New() *Repository {
	return &Repository{
		assets:          make(map[uuid.UUID]*assetdelivery.Asset),
		versions:        make(map[uuid.UUID]*assetdelivery.AssetVersion),
		versionsByAsset: make(map[uuid.UUID][]uuid.UUID),
		tokens:          make(map[string]*assetdelivery.AccessToken),
	}
}

// Asset operations

func (r *Repository) CreateAsset(ctx context.Context, asset *assetdelivery.Asset) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Store a copy to avoid external modifications
	assetCopy := *asset
	r.assets[asset.ID] = &assetCopy

	return nil
}

func (r *Repository) GetAsset(ctx context.Context, id uuid.UUID) (*assetdelivery.Asset, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	asset, exists := r.assets[id]
	if !exists {
		return nil, assetdelivery.ErrAssetNotFound
	}

	// Return a copy to prevent external modifications
	assetCopy := *asset
	return &assetCopy, nil
}

func (r *Repository) UpdateAsset(ctx context.Context, asset *assetdelivery.Asset) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.assets[asset.ID]; !exists {
		return assetdelivery.ErrAssetNotFound
	}

	assetCopy := *asset
	r.assets[asset.ID] = &assetCopy

	return nil
}

// Version operations

func (r *Repository) CreateVersion(ctx context.Context, version *assetdelivery.AssetVersion) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.assets[version.AssetID]; !exists {
		return assetdelivery.ErrAssetNotFound
	}

	versionCopy := *version
	r.versions[version.ID] = &versionCopy
	r.versionsByAsset[version.AssetID] = append(r.versionsByAsset[version.AssetID], version.ID)

	return nil
}

func (r *Repository) GetVersion(ctx context.Context, id uuid.UUID) (*assetdelivery.AssetVersion, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	version, exists := r.versions[id]
	if !exists {
		return nil, assetdelivery.ErrVersionNotFound
	}

	versionCopy := *version
	return &versionCopy, nil
}

func (r *Repository) ListVersionsByAsset(ctx context.Context, assetID uuid.UUID) ([]*assetdelivery.AssetVersion, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	versionIDs, exists := r.versionsByAsset[assetID]
	if !exists {
		return []*assetdelivery.AssetVersion{}, nil
	}

	result := make([]*assetdelivery.AssetVersion, 0, len(versionIDs))
	for _, versionID := range versionIDs {
		if version, exists := r.versions[versionID]; exists {
			versionCopy := *version
			result = append(result, &versionCopy)
		}
	}

	// Sort by created_at descending
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	return result, nil
}

// Token operations

func (r *Repository) CreateToken(ctx context.Context, token *assetdelivery.AccessToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.assets[token.AssetID]; !exists {
		return assetdelivery.ErrAssetNotFound
	}

	tokenCopy := *token
	r.tokens[token.Token] = &tokenCopy

	return nil
}

func (r *Repository) GetToken(ctx context.Context, token string) (*assetdelivery.AccessToken, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	record, exists := r.tokens[token]
	if !exists {
		return nil, assetdelivery.ErrTokenNotFound
	}

	recordCopy := *record
	return &recordCopy, nil
}

func (r *Repository) DeleteExpiredTokens(ctx context.Context, before time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var deleted int64
	for value, record := range r.tokens {
		if !record.ExpiresAt.After(before) {
			delete(r.tokens, value)
			deleted++
		}
	}

	return deleted, nil
}
