// Package postgres implements assetdelivery.Repository on PostgreSQL via
// pgx. Expected schema:
//
//	CREATE TABLE assets (
//	    id UUID PRIMARY KEY,
//	    storage_backend_name TEXT NOT NULL,
//	    storage_key TEXT UNIQUE NOT NULL,
//	    filename TEXT NOT NULL,
//	    mime_type TEXT NOT NULL,
//	    size_bytes BIGINT NOT NULL,
//	    etag TEXT NOT NULL,
//	    is_private BOOLEAN NOT NULL DEFAULT FALSE,
//	    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
//	);
//
//	CREATE TABLE asset_versions (
//	    id UUID PRIMARY KEY,
//	    asset_id UUID NOT NULL REFERENCES assets(id),
//	    storage_backend_name TEXT NOT NULL,
//	    storage_key TEXT NOT NULL,
//	    etag TEXT NOT NULL,
//	    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
//	);
//
//	CREATE TABLE access_tokens (
//	    token TEXT PRIMARY KEY,
//	    asset_id UUID NOT NULL REFERENCES assets(id),
//	    expires_at TIMESTAMPTZ NOT NULL,
//	    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
//	);
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tendant/asset-delivery/pkg/assetdelivery"
)

// DBTX is an interface that allows us to use either a database connection or a transaction
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// Repository implements assetdelivery.Repository using PostgreSQL
type Repository struct {
	db DBTX
}

// New creates a new PostgreSQL repository
func New(db DBTX) *Repository {
	return &Repository{db: db}
}

// NewWithPool creates a new PostgreSQL repository with connection pool
func NewWithPool(pool *pgxpool.Pool) *Repository {
	return &Repository{db: pool}
}

// Error handling helper
func (r *Repository) handlePostgresError(operation string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			if strings.Contains(pgErr.ConstraintName, "storage_key") {
				return fmt.Errorf("storage key already exists")
			}
			return fmt.Errorf("duplicate entry")
		case "23503": // foreign_key_violation
			return fmt.Errorf("referenced asset not found")
		case "23502": // not_null_violation
			return fmt.Errorf("required field %s is missing", pgErr.ColumnName)
		case "42P01": // undefined_table
			return fmt.Errorf("table does not exist - database migration required")
		default:
			return fmt.Errorf("database error in %s: %s (code: %s)", operation, pgErr.Message, pgErr.Code)
		}
	}

	return fmt.Errorf("database error in %s: %w", operation, err)
}

// Asset operations

func (r *Repository) CreateAsset(ctx context.Context, asset *assetdelivery.Asset) error {
	query := `
		INSERT INTO assets (
			id, storage_backend_name, storage_key, filename, mime_type,
			size_bytes, etag, is_private, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.db.Exec(ctx, query,
		asset.ID, asset.StorageBackendName, asset.StorageKey, asset.FileName,
		asset.MimeType, asset.SizeBytes, asset.ETag, asset.IsPrivate, asset.CreatedAt)

	if err != nil {
		return r.handlePostgresError("create asset", err)
	}

	return nil
}

func (r *Repository) GetAsset(ctx context.Context, id uuid.UUID) (*assetdelivery.Asset, error) {
	query := `
		SELECT id, storage_backend_name, storage_key, filename, mime_type,
		       size_bytes, etag, is_private, created_at
		FROM assets WHERE id = $1`

	var asset assetdelivery.Asset
	err := r.db.QueryRow(ctx, query, id).Scan(
		&asset.ID, &asset.StorageBackendName, &asset.StorageKey, &asset.FileName,
		&asset.MimeType, &asset.SizeBytes, &asset.ETag, &asset.IsPrivate, &asset.CreatedAt)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, assetdelivery.ErrAssetNotFound
		}
		return nil, err
	}

	return &asset, nil
}

func (r *Repository) UpdateAsset(ctx context.Context, asset *assetdelivery.Asset) error {
	query := `
		UPDATE assets SET
			storage_backend_name = $2, storage_key = $3, filename = $4,
			mime_type = $5, size_bytes = $6, etag = $7, is_private = $8
		WHERE id = $1`

	tag, err := r.db.Exec(ctx, query,
		asset.ID, asset.StorageBackendName, asset.StorageKey, asset.FileName,
		asset.MimeType, asset.SizeBytes, asset.ETag, asset.IsPrivate)

	if err != nil {
		return r.handlePostgresError("update asset", err)
	}
	if tag.RowsAffected() == 0 {
		return assetdelivery.ErrAssetNotFound
	}

	return nil
}

// Version operations

func (r *Repository) CreateVersion(ctx context.Context, version *assetdelivery.AssetVersion) error {
	query := `
		INSERT INTO asset_versions (
			id, asset_id, storage_backend_name, storage_key, etag, created_at
		) VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.db.Exec(ctx, query,
		version.ID, version.AssetID, version.StorageBackendName,
		version.StorageKey, version.ETag, version.CreatedAt)

	if err != nil {
		return r.handlePostgresError("create version", err)
	}

	return nil
}

func (r *Repository) GetVersion(ctx context.Context, id uuid.UUID) (*assetdelivery.AssetVersion, error) {
	query := `
		SELECT id, asset_id, storage_backend_name, storage_key, etag, created_at
		FROM asset_versions WHERE id = $1`

	var version assetdelivery.AssetVersion
	err := r.db.QueryRow(ctx, query, id).Scan(
		&version.ID, &version.AssetID, &version.StorageBackendName,
		&version.StorageKey, &version.ETag, &version.CreatedAt)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, assetdelivery.ErrVersionNotFound
		}
		return nil, err
	}

	return &version, nil
}

func (r *Repository) ListVersionsByAsset(ctx context.Context, assetID uuid.UUID) ([]*assetdelivery.AssetVersion, error) {
	query := `
		SELECT id, asset_id, storage_backend_name, storage_key, etag, created_at
		FROM asset_versions WHERE asset_id = $1
		ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, assetID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var versions []*assetdelivery.AssetVersion
	for rows.Next() {
		var version assetdelivery.AssetVersion
		if err := rows.Scan(
			&version.ID, &version.AssetID, &version.StorageBackendName,
			&version.StorageKey, &version.ETag, &version.CreatedAt); err != nil {
			return nil, err
		}
		versions = append(versions, &version)
	}

	return versions, rows.Err()
}

// Token operations

func (r *Repository) CreateToken(ctx context.Context, token *assetdelivery.AccessToken) error {
	query := `
		INSERT INTO access_tokens (token, asset_id, expires_at, created_at)
		VALUES ($1, $2, $3, $4)`

	_, err := r.db.Exec(ctx, query,
		token.Token, token.AssetID, token.ExpiresAt, token.CreatedAt)

	if err != nil {
		return r.handlePostgresError("create token", err)
	}

	return nil
}

func (r *Repository) GetToken(ctx context.Context, token string) (*assetdelivery.AccessToken, error) {
	query := `
		SELECT token, asset_id, expires_at, created_at
		FROM access_tokens WHERE token = $1`

	var record assetdelivery.AccessToken
	err := r.db.QueryRow(ctx, query, token).Scan(
		&record.Token, &record.AssetID, &record.ExpiresAt, &record.CreatedAt)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, assetdelivery.ErrTokenNotFound
		}
		return nil, err
	}

	return &record, nil
}

func (r *Repository) DeleteExpiredTokens(ctx context.Context, before time.Time) (int64, error) {
	query := `DELETE FROM access_tokens WHERE expires_at <= $1`

	tag, err := r.db.Exec(ctx, query, before)
	if err != nil {
		return 0, r.handlePostgresError("delete expired tokens", err)
	}

	return tag.RowsAffected(), nil
}
