package models

import (
	"time"

	"github.com/google/uuid"
)

// ImageStatus tracks an upload through its lifecycle.
type ImageStatus string

const (
	ImageStatusPending ImageStatus = "pending"
	ImageStatusStored  ImageStatus = "stored"
	ImageStatusFailed  ImageStatus = "failed"
)

// ImageRecord is the persisted metadata of an uploaded image.
type ImageRecord struct {
	ImgID      uuid.UUID   `json:"img_id"`
	StorageURI string      `json:"storage_uri"`
	MimeType   string      `json:"mime_type"`
	SizeBytes  int64       `json:"size_bytes"`
	SHA256Hex  string      `json:"sha256_hex"`
	Status     ImageStatus `json:"status"`
	SignedURL  string      `json:"signed_url,omitempty"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
}
