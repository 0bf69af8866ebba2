package assetdelivery

import "io"

// IngestAssetRequest contains parameters for ingesting a new asset.
type IngestAssetRequest struct {
	// Reader supplies the asset bytes. It is read in full; the SHA-256 of
	// the byte sequence becomes the asset's ETag.
	Reader io.Reader

	// FileName is the original filename as declared by the uploader.
	FileName string

	// MimeType is the declared media type. Defaults to
	// application/octet-stream when empty.
	MimeType string

	// StorageBackendName selects the blob store for the bytes. Defaults to
	// the service's default backend when empty.
	StorageBackendName string

	// Private marks the asset as reachable only through access tokens.
	Private bool
}
