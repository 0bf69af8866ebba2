package api

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"
	"github.com/tendant/asset-delivery/pkg/assetdelivery"
)

// maxUploadBytes caps multipart memory buffering for uploads (32 MB).
const maxUploadBytes = 32 << 20

// AssetsHandler serves the asset upload, delivery and token endpoints
type AssetsHandler struct {
	service assetdelivery.Service
}

func NewAssetsHandler(service assetdelivery.Service) *AssetsHandler {
	return &AssetsHandler{service: service}
}

// Routes returns the router for asset endpoints
func (h *AssetsHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/upload", h.UploadAsset)
	r.Get("/{asset_id}/download", h.DownloadAsset)
	r.Head("/{asset_id}/download", h.HeadAsset)
	r.Post("/{asset_id}/publish", h.PublishAsset)
	r.Get("/{asset_id}/versions", h.ListVersions)
	r.Get("/public/{version_id}", h.DownloadVersion)
	r.Head("/public/{version_id}", h.HeadVersion)
	r.Post("/{asset_id}/generate-token", h.GenerateToken)
	r.Get("/private/{token}", h.DownloadPrivate)
	return r
}

// UploadAssetResponse represents the response after ingesting an asset
type UploadAssetResponse struct {
	ID       string `json:"id"`
	FileName string `json:"filename"`
	ETag     string `json:"etag"`
	Size     int64  `json:"size"`
}

// PublishAssetResponse represents the response after publishing a version
type PublishAssetResponse struct {
	VersionID string `json:"version_id"`
	AssetID   string `json:"asset_id"`
	ETag      string `json:"etag"`
}

// GenerateTokenResponse represents the response after issuing an access token
type GenerateTokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// UploadAsset ingests a multipart file upload as a new asset
func (h *AssetsHandler) UploadAsset(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		slog.Error("Failed to parse multipart form", "error", err)
		writeErrorStatus(w, r, http.StatusBadRequest, "invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		slog.Error("Missing file field in upload", "error", err)
		writeErrorStatus(w, r, http.StatusBadRequest, "missing file field")
		return
	}
	defer file.Close()

	asset, err := h.service.IngestAsset(r.Context(), assetdelivery.IngestAssetRequest{
		Reader:   file,
		FileName: header.Filename,
		MimeType: header.Header.Get("Content-Type"),
	})
	if err != nil {
		slog.Error("Failed to ingest asset", "filename", header.Filename, "error", err)
		writeError(w, r, err)
		return
	}

	slog.Info("Asset ingested", "asset_id", asset.ID.String(), "size", asset.SizeBytes)
	render.JSON(w, r, UploadAssetResponse{
		ID:       asset.ID.String(),
		FileName: asset.FileName,
		ETag:     asset.ETag,
		Size:     asset.SizeBytes,
	})
}

// DownloadAsset serves a mutable asset by id with conditional-GET support
func (h *AssetsHandler) DownloadAsset(w http.ResponseWriter, r *http.Request) {
	assetID, ok := parseUUIDParam(w, r, "asset_id")
	if !ok {
		return
	}

	asset, err := h.service.GetAsset(r.Context(), assetID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if etagMatches(r.Header.Get("If-None-Match"), asset.ETag) {
		setAssetHeaders(w.Header(), asset)
		w.WriteHeader(http.StatusNotModified)
		return
	}

	asset, rc, err := h.service.DownloadAsset(r.Context(), assetID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	defer rc.Close()

	// Buffer the whole blob before writing anything so a storage read
	// failure never produces a partial body.
	data, err := io.ReadAll(rc)
	if err != nil {
		slog.Error("Failed to read blob", "asset_id", assetID.String(), "error", err)
		writeErrorStatus(w, r, http.StatusInternalServerError, "storage read failed")
		return
	}

	setAssetHeaders(w.Header(), asset)
	w.Header().Set("Content-Type", asset.MimeType)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// HeadAsset answers HEAD for a mutable asset from its record alone, never
// touching the blob store
func (h *AssetsHandler) HeadAsset(w http.ResponseWriter, r *http.Request) {
	assetID, ok := parseUUIDParam(w, r, "asset_id")
	if !ok {
		return
	}

	asset, err := h.service.GetAsset(r.Context(), assetID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	setAssetHeaders(w.Header(), asset)
	w.Header().Set("Content-Type", asset.MimeType)
	w.Header().Set("Content-Length", strconv.FormatInt(asset.SizeBytes, 10))
	w.WriteHeader(http.StatusOK)
}

// PublishAsset snapshots an asset's current storage key and hash into an
// immutable version
func (h *AssetsHandler) PublishAsset(w http.ResponseWriter, r *http.Request) {
	assetID, ok := parseUUIDParam(w, r, "asset_id")
	if !ok {
		return
	}

	version, err := h.service.PublishAsset(r.Context(), assetID)
	if err != nil {
		slog.Error("Failed to publish asset", "asset_id", assetID.String(), "error", err)
		writeError(w, r, err)
		return
	}

	slog.Info("Asset published", "asset_id", assetID.String(), "version_id", version.ID.String())
	render.JSON(w, r, PublishAssetResponse{
		VersionID: version.ID.String(),
		AssetID:   version.AssetID.String(),
		ETag:      version.ETag,
	})
}

// VersionResponse represents a published version in list responses
type VersionResponse struct {
	VersionID string    `json:"version_id"`
	AssetID   string    `json:"asset_id"`
	ETag      string    `json:"etag"`
	CreatedAt time.Time `json:"created_at"`
}

// ListVersions returns an asset's published versions, newest first
func (h *AssetsHandler) ListVersions(w http.ResponseWriter, r *http.Request) {
	assetID, ok := parseUUIDParam(w, r, "asset_id")
	if !ok {
		return
	}

	versions, err := h.service.ListVersions(r.Context(), assetID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	result := make([]VersionResponse, 0, len(versions))
	for _, version := range versions {
		result = append(result, VersionResponse{
			VersionID: version.ID.String(),
			AssetID:   version.AssetID.String(),
			ETag:      version.ETag,
			CreatedAt: version.CreatedAt,
		})
	}

	render.JSON(w, r, result)
}

// DownloadVersion serves an immutable published version by id
func (h *AssetsHandler) DownloadVersion(w http.ResponseWriter, r *http.Request) {
	versionID, ok := parseUUIDParam(w, r, "version_id")
	if !ok {
		return
	}

	version, rc, err := h.service.DownloadVersion(r.Context(), versionID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		slog.Error("Failed to read blob", "version_id", versionID.String(), "error", err)
		writeErrorStatus(w, r, http.StatusInternalServerError, "storage read failed")
		return
	}

	setVersionHeaders(w.Header(), version)
	// Versions do not retain the asset's declared media type
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// HeadVersion answers HEAD for an immutable version without a body
func (h *AssetsHandler) HeadVersion(w http.ResponseWriter, r *http.Request) {
	versionID, ok := parseUUIDParam(w, r, "version_id")
	if !ok {
		return
	}

	version, err := h.service.GetVersion(r.Context(), versionID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	setVersionHeaders(w.Header(), version)
	w.Header().Set("Content-Type", "application/octet-stream")
	w.WriteHeader(http.StatusOK)
}

// GenerateToken issues a short-lived access token for an asset
func (h *AssetsHandler) GenerateToken(w http.ResponseWriter, r *http.Request) {
	assetID, ok := parseUUIDParam(w, r, "asset_id")
	if !ok {
		return
	}

	token, err := h.service.IssueToken(r.Context(), assetID)
	if err != nil {
		slog.Error("Failed to issue token", "asset_id", assetID.String(), "error", err)
		writeError(w, r, err)
		return
	}

	slog.Info("Token issued", "asset_id", assetID.String(), "expires_at", token.ExpiresAt)
	render.JSON(w, r, GenerateTokenResponse{
		Token:     token.Token,
		ExpiresAt: token.ExpiresAt,
	})
}

// DownloadPrivate serves a token-gated asset, forbidding any caching
func (h *AssetsHandler) DownloadPrivate(w http.ResponseWriter, r *http.Request) {
	tokenValue := chi.URLParam(r, "token")

	asset, rc, err := h.service.DownloadPrivate(r.Context(), tokenValue)
	if err != nil {
		writeError(w, r, err)
		return
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		slog.Error("Failed to read blob", "asset_id", asset.ID.String(), "error", err)
		writeErrorStatus(w, r, http.StatusInternalServerError, "storage read failed")
		return
	}

	setPrivateHeaders(w.Header(), asset)
	w.Header().Set("Content-Type", asset.MimeType)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// parseUUIDParam extracts and parses a UUID URL parameter, writing a 404 on
// malformed input since a non-UUID id can never name a known resource.
func parseUUIDParam(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	raw := chi.URLParam(r, name)
	id, err := uuid.Parse(raw)
	if err != nil {
		writeErrorStatus(w, r, http.StatusNotFound, "not found")
		return uuid.Nil, false
	}
	return id, true
}

// writeError maps domain errors onto the contractual HTTP statuses
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, assetdelivery.ErrAssetNotFound):
		writeErrorStatus(w, r, http.StatusNotFound, "asset not found")
	case errors.Is(err, assetdelivery.ErrVersionNotFound):
		writeErrorStatus(w, r, http.StatusNotFound, "version not found")
	case errors.Is(err, assetdelivery.ErrTokenNotFound):
		writeErrorStatus(w, r, http.StatusUnauthorized, "invalid token")
	case errors.Is(err, assetdelivery.ErrTokenExpired):
		writeErrorStatus(w, r, http.StatusForbidden, "token expired")
	default:
		var storageErr *assetdelivery.StorageError
		if errors.As(err, &storageErr) {
			writeErrorStatus(w, r, http.StatusInternalServerError, "storage error")
			return
		}
		writeErrorStatus(w, r, http.StatusInternalServerError, "internal error")
	}
}

func writeErrorStatus(w http.ResponseWriter, r *http.Request, status int, reason string) {
	render.Status(r, status)
	render.JSON(w, r, map[string]string{"error": reason})
}
