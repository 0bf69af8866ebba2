package assetdelivery

import (
	"time"

	"github.com/google/uuid"
)

// Asset is a mutable content record. Its storage key points at the bytes
// currently held in the blob store, and ETag is always the SHA-256 of those
// bytes as of the last write.
type Asset struct {
	ID                 uuid.UUID `json:"id"`
	StorageBackendName string    `json:"storage_backend_name"`
	StorageKey         string    `json:"storage_key"`
	FileName           string    `json:"filename"`
	MimeType           string    `json:"mime_type"`
	SizeBytes          int64     `json:"size_bytes"`
	ETag               string    `json:"etag"`
	IsPrivate          bool      `json:"is_private"`
	CreatedAt          time.Time `json:"created_at"`
}

// AssetVersion is an immutable snapshot of an asset taken at publish time.
// The (StorageKey, ETag) pair never changes after creation, even if the
// originating asset is later re-ingested with new content.
type AssetVersion struct {
	ID                 uuid.UUID `json:"id"`
	AssetID            uuid.UUID `json:"asset_id"`
	StorageBackendName string    `json:"storage_backend_name"`
	StorageKey         string    `json:"storage_key"`
	ETag               string    `json:"etag"`
	CreatedAt          time.Time `json:"created_at"`
}

// AccessToken grants time-bounded read access to a single asset. The token
// string itself is the identity; it is drawn from a cryptographically secure
// random source.
type AccessToken struct {
	Token     string    `json:"token"`
	AssetID   uuid.UUID `json:"asset_id"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// ValidAt reports whether the token is still usable at the given instant.
// A token is valid only strictly before its expiration; at the expiration
// instant it is already expired.
func (t *AccessToken) ValidAt(now time.Time) bool {
	return now.Before(t.ExpiresAt)
}
