// Package assetdelivery provides binary asset storage and delivery with
// HTTP cache semantics.
//
// The package is organized around three concerns:
//
//   - Asset lifecycle: ingest bytes into a blob store, compute a SHA-256
//     content hash (the ETag), and publish immutable versions that snapshot
//     an asset's storage key and hash.
//   - Delivery: resolve mutable assets, immutable versions, and token-gated
//     private assets, and stream their bytes back out.
//   - Access tokens: issue short-lived bearer tokens granting read access to
//     a single asset, and validate them against the clock.
//
// Storage backends (BlobStore) and persistence (Repository) are injected
// interfaces; in-memory implementations are provided for testing under
// repo/memory and storage/memory.
package assetdelivery
