package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/tendant/asset-delivery/pkg/assetdelivery"
)

// Cache-Control directives per resource class. These strings are contractual:
// downstream caches key their behavior off them.
const (
	// Mutable assets: shared caches may hold a response for an hour, but
	// private caches must revalidate after a minute.
	cacheControlMutable = "public, s-maxage=3600, max-age=60"

	// Immutable versions: cacheable for a year and flagged immutable so
	// clients never revalidate.
	cacheControlImmutable = "public, max-age=31536000, immutable"

	// Token-gated assets: no cache anywhere may store or reuse the response.
	cacheControlPrivate = "private, no-store, no-cache, must-revalidate"
)

// httpDate formats a timestamp as an HTTP-date (RFC 7231) in GMT
func httpDate(t time.Time) string {
	return t.UTC().Format(http.TimeFormat)
}

// etagMatches reports whether a client-supplied If-None-Match validator
// matches the current ETag. The comparison is a case-sensitive exact string
// match; an absent validator never matches.
func etagMatches(ifNoneMatch, etag string) bool {
	return ifNoneMatch != "" && ifNoneMatch == etag
}

// setAssetHeaders writes the validator and caching headers shared by the
// mutable GET and HEAD responses.
func setAssetHeaders(h http.Header, asset *assetdelivery.Asset) {
	h.Set("ETag", asset.ETag)
	h.Set("Cache-Control", cacheControlMutable)
	h.Set("Last-Modified", httpDate(asset.CreatedAt))
	h.Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", asset.FileName))
}

// setVersionHeaders writes the validator and caching headers shared by the
// immutable GET and HEAD responses.
func setVersionHeaders(h http.Header, version *assetdelivery.AssetVersion) {
	h.Set("ETag", version.ETag)
	h.Set("Cache-Control", cacheControlImmutable)
	h.Set("Last-Modified", httpDate(version.CreatedAt))
}

// setPrivateHeaders writes the headers for token-gated responses.
func setPrivateHeaders(h http.Header, asset *assetdelivery.Asset) {
	h.Set("ETag", asset.ETag)
	h.Set("Cache-Control", cacheControlPrivate)
	h.Set("Last-Modified", httpDate(asset.CreatedAt))
}
