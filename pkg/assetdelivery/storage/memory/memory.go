package memory

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/tendant/asset-delivery/pkg/assetdelivery"
)

// Backend is an in-memory implementation of the assetdelivery.BlobStore interface
type Backend struct {
	mu    sync.RWMutex
	blobs map[string]blob
}

type blob struct {
	data      []byte
	mimeType  string
	updatedAt time.Time
}

// New creates a new in-memory storage backend
func New() *Backend {
	return &Backend{
		blobs: make(map[string]blob),
	}
}

// Upload writes the reader's bytes at the given key
func (b *Backend) Upload(ctx context.Context, objectKey string, reader io.Reader, mimeType string) error {
	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.blobs[objectKey] = blob{data: data, mimeType: mimeType, updatedAt: time.Now()}
	return nil
}

// Download returns a reader over the stored bytes
func (b *Backend) Download(ctx context.Context, objectKey string) (io.ReadCloser, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	stored, exists := b.blobs[objectKey]
	if !exists {
		return nil, errors.New("object not found")
	}

	return io.NopCloser(bytes.NewReader(stored.data)), nil
}

// GetBlobMeta retrieves metadata for a stored blob
func (b *Backend) GetBlobMeta(ctx context.Context, objectKey string) (*assetdelivery.BlobMeta, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	stored, exists := b.blobs[objectKey]
	if !exists {
		return nil, errors.New("object not found")
	}

	return &assetdelivery.BlobMeta{
		Key:         objectKey,
		Size:        int64(len(stored.data)),
		ContentType: stored.mimeType,
		UpdatedAt:   stored.updatedAt,
	}, nil
}

// Delete removes the stored bytes
func (b *Backend) Delete(ctx context.Context, objectKey string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.blobs[objectKey]; !exists {
		return errors.New("object not found")
	}

	delete(b.blobs, objectKey)
	return nil
}
