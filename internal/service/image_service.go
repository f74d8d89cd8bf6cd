package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/anime-shed/image-discovery-go/internal/analyzer"
	apperrors "github.com/anime-shed/image-discovery-go/internal/errors"
	"github.com/anime-shed/image-discovery-go/internal/logger"
	"github.com/anime-shed/image-discovery-go/internal/repository"
	"github.com/anime-shed/image-discovery-go/internal/storage"
	"github.com/anime-shed/image-discovery-go/pkg/models"
	"github.com/anime-shed/image-discovery-go/pkg/validation"
)

// ImageService stores uploaded images and their metadata.
type ImageService interface {
	SaveImage(ctx context.Context, data []byte, declaredMIME string) (*models.ImageRecord, error)
	GetImage(ctx context.Context, id uuid.UUID) (*models.ImageRecord, error)
	DeleteImage(ctx context.Context, id uuid.UUID) error
}

type imageService struct {
	repo         repository.ImageRepository
	store        storage.ObjectStore
	validator    *validation.ReferenceValidator
	bucket       string
	signedURLTTL time.Duration
	now          func() time.Time
}

// NewImageService creates an image service writing to bucket on store.
func NewImageService(repo repository.ImageRepository, store storage.ObjectStore, bucket string, signedURLTTL time.Duration) ImageService {
	return &imageService{
		repo:         repo,
		store:        store,
		validator:    validation.NewReferenceValidator(store.Scheme()),
		bucket:       bucket,
		signedURLTTL: signedURLTTL,
		now:          time.Now,
	}
}

// SaveImage records the image as pending, uploads it, then marks it stored.
// An upload failure leaves the row marked failed.
func (s *imageService) SaveImage(ctx context.Context, data []byte, declaredMIME string) (*models.ImageRecord, error) {
	if len(data) == 0 {
		return nil, apperrors.NewEmptyInputError("image file is empty")
	}
	mime := analyzer.SniffMIME(data)
	if !strings.HasPrefix(mime, "image/") {
		return nil, apperrors.NewNotAnImageError(mime)
	}

	id := uuid.New()
	ext := analyzer.ExtensionFor(mime)
	if ext == "" {
		ext = ".img"
	}
	sum := sha256.Sum256(data)
	now := s.now().UTC()
	ref := validation.Reference{Scheme: s.store.Scheme(), Bucket: s.bucket, Object: "images/" + id.String() + ext}

	record := &models.ImageRecord{
		ImgID:      id,
		StorageURI: ref.URI(),
		MimeType:   mime,
		SizeBytes:  int64(len(data)),
		SHA256Hex:  hex.EncodeToString(sum[:]),
		Status:     models.ImageStatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	log := logger.WithField("img_id", id.String()).WithField("declared_mime", declaredMIME).WithField("mime", mime)

	if err := s.repo.Create(ctx, record); err != nil {
		return nil, apperrors.NewInternalError("failed to record image", err)
	}

	if err := s.store.Upload(ctx, ref.Bucket, ref.Object, data, mime); err != nil {
		s.markFailed(ctx, id)
		log.WithError(err).Error("image upload failed")
		return nil, apperrors.NewNetworkError("failed to upload image", err)
	}

	if err := s.repo.UpdateStatus(ctx, id, models.ImageStatusStored); err != nil {
		s.markFailed(ctx, id)
		return nil, apperrors.NewNetworkError("failed to finalize image", err)
	}

	record.Status = models.ImageStatusStored
	log.WithField("size_bytes", record.SizeBytes).Info("image stored")
	return record, nil
}

func (s *imageService) markFailed(ctx context.Context, id uuid.UUID) {
	if err := s.repo.UpdateStatus(context.WithoutCancel(ctx), id, models.ImageStatusFailed); err != nil {
		logger.WithError(err).WithField("img_id", id.String()).Warn("failed to mark image as failed")
	}
}

// GetImage returns a stored image with a short-lived signed URL. Pending and
// failed images are reported as not found.
func (s *imageService) GetImage(ctx context.Context, id uuid.UUID) (*models.ImageRecord, error) {
	record, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, mapRepoError(err, "image")
	}
	if record.Status != models.ImageStatusStored {
		return nil, apperrors.NewNotFoundError("image not found", nil).WithDetails(id.String())
	}

	ref, err := s.validator.ParseReference(record.StorageURI)
	if err != nil {
		return nil, apperrors.NewInternalError("stored image has an invalid uri", err)
	}
	url, err := s.store.SignedURL(ctx, ref.Bucket, ref.Object, s.signedURLTTL)
	if err != nil {
		return nil, apperrors.NewNetworkError("failed to sign image url", err)
	}
	record.SignedURL = url
	return record, nil
}

// DeleteImage removes the object and its row. A failed object delete is
// logged and does not block the row delete.
func (s *imageService) DeleteImage(ctx context.Context, id uuid.UUID) error {
	record, err := s.repo.Get(ctx, id)
	if err != nil {
		return mapRepoError(err, "image")
	}

	if ref, err := s.validator.ParseReference(record.StorageURI); err == nil {
		if err := s.store.Delete(ctx, ref.Bucket, ref.Object); err != nil && !errors.Is(err, storage.ErrObjectNotFound) {
			logger.WithError(err).WithField("img_id", id.String()).Warn("failed to delete image object")
		}
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return mapRepoError(err, "image")
	}
	return nil
}

func mapRepoError(err error, what string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NewNotFoundError(what+" not found", err)
	}
	return apperrors.NewInternalError("failed to load "+what, err)
}
