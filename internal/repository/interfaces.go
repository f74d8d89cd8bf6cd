package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/anime-shed/image-discovery-go/pkg/models"
)

// ImageRepository defines data access for stored image records
type ImageRepository interface {
	// Create inserts a new record, normally in the pending state
	Create(ctx context.Context, record *models.ImageRecord) error

	// UpdateStatus moves a record to a new status and bumps updated_at
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.ImageStatus) error

	// Get returns the record regardless of status
	Get(ctx context.Context, id uuid.UUID) (*models.ImageRecord, error)

	// Delete removes the record
	Delete(ctx context.Context, id uuid.UUID) error
}

// PostRepository defines data access for posts
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	Get(ctx context.Context, id uuid.UUID) (*models.Post, error)

	// List returns posts newest first
	List(ctx context.Context, limit, offset int) ([]*models.Post, error)

	// ListBefore returns posts dated strictly before cutoff, newest first
	ListBefore(ctx context.Context, cutoff time.Time, limit int) ([]*models.Post, error)

	Delete(ctx context.Context, id uuid.UUID) error
}

// SearchRepository ranks posts against a free-text query
type SearchRepository interface {
	// Search returns matching post ids, best match first
	Search(ctx context.Context, query string, limit int) ([]uuid.UUID, error)

	// Related returns ids of posts matching text, excluding the given post
	Related(ctx context.Context, exclude uuid.UUID, text string, limit int) ([]uuid.UUID, error)
}
