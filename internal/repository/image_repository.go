package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/anime-shed/image-discovery-go/pkg/models"
)

// PGImageRepository implements ImageRepository on Postgres
type PGImageRepository struct {
	DB *sql.DB
}

// NewPGImageRepository creates a Postgres-backed image repository
func NewPGImageRepository(db *sql.DB) ImageRepository {
	return &PGImageRepository{DB: db}
}

func (r *PGImageRepository) Create(ctx context.Context, record *models.ImageRecord) error {
	const query = `
INSERT INTO images (img_id, storage_uri, mime_type, size_bytes, sha256_hex, status, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.DB.ExecContext(ctx, query,
		record.ImgID,
		record.StorageURI,
		record.MimeType,
		record.SizeBytes,
		record.SHA256Hex,
		string(record.Status),
		record.CreatedAt,
		record.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert image %s: %w", record.ImgID, err)
	}
	return nil
}

func (r *PGImageRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status models.ImageStatus) error {
	const query = `UPDATE images SET status = $2, updated_at = now() WHERE img_id = $1`
	res, err := r.DB.ExecContext(ctx, query, id, string(status))
	if err != nil {
		return fmt.Errorf("update image %s: %w", id, err)
	}
	return requireOneRow(res)
}

func (r *PGImageRepository) Get(ctx context.Context, id uuid.UUID) (*models.ImageRecord, error) {
	const query = `
SELECT img_id, storage_uri, mime_type, size_bytes, sha256_hex, status, created_at, updated_at
FROM images WHERE img_id = $1`

	var (
		record models.ImageRecord
		status string
	)
	err := r.DB.QueryRowContext(ctx, query, id).Scan(
		&record.ImgID,
		&record.StorageURI,
		&record.MimeType,
		&record.SizeBytes,
		&record.SHA256Hex,
		&status,
		&record.CreatedAt,
		&record.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select image %s: %w", id, err)
	}
	record.Status = models.ImageStatus(status)
	return &record, nil
}

func (r *PGImageRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM images WHERE img_id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete image %s: %w", id, err)
	}
	return requireOneRow(res)
}

func requireOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
