package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/anime-shed/image-discovery-go/internal/errors"
	"github.com/anime-shed/image-discovery-go/internal/logger"
	"github.com/anime-shed/image-discovery-go/internal/repository"
	"github.com/anime-shed/image-discovery-go/pkg/models"
	"github.com/anime-shed/image-discovery-go/pkg/validation"
)

// RecentPostsLimit caps the recent posts listing.
const RecentPostsLimit = 100

// PostService manages posts.
type PostService interface {
	CreatePost(ctx context.Context, req models.CreatePostRequest) (*models.Post, error)
	GetPost(ctx context.Context, id uuid.UUID) (*models.Post, error)
	ListPosts(ctx context.Context, limit, offset int) ([]*models.Post, error)
	// RecentPosts lists posts older than the configured delay. It also
	// returns the cutoff and the time it was computed from.
	RecentPosts(ctx context.Context) (posts []*models.Post, before, now time.Time, err error)
	DeletePost(ctx context.Context, id uuid.UUID) error
}

type postService struct {
	repo     repository.PostRepository
	location LocationService
	delay    time.Duration
	now      func() time.Time
}

func NewPostService(repo repository.PostRepository, location LocationService, recentDelay time.Duration) PostService {
	return &postService{
		repo:     repo,
		location: location,
		delay:    recentDelay,
		now:      time.Now,
	}
}

func (s *postService) CreatePost(ctx context.Context, req models.CreatePostRequest) (*models.Post, error) {
	post, err := newPostFromRequest(req)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	post.PostID = uuid.New()
	post.Date = now
	post.UpdatedAt = now
	post.Location = s.location.Describe(ctx, post.Latitude, post.Longitude)

	if err := s.repo.Create(ctx, post); err != nil {
		return nil, apperrors.NewInternalError("failed to create post", err)
	}
	logger.WithField("post_id", post.PostID.String()).WithField("img_id", post.ImgID.String()).Info("post created")
	return post, nil
}

// newPostFromRequest validates and trims the request fields.
func newPostFromRequest(req models.CreatePostRequest) (*models.Post, error) {
	userID, err := parseUUID("user_id", req.UserID)
	if err != nil {
		return nil, err
	}
	imgID, err := parseUUID("img_id", req.ImgID)
	if err != nil {
		return nil, err
	}

	post := &models.Post{UserID: userID, ImgID: imgID}
	fields := []struct {
		name string
		raw  string
		dst  *string
	}{
		{"user_question", req.UserQuestion, &post.UserQuestion},
		{"object_label", req.ObjectLabel, &post.ObjectLabel},
		{"ai_answer", req.AIAnswer, &post.AIAnswer},
		{"ai_question", req.AIQuestion, &post.AIQuestion},
	}
	for _, f := range fields {
		v := strings.TrimSpace(f.raw)
		if v == "" {
			return nil, apperrors.NewValidationError(f.name+" is required", nil)
		}
		*f.dst = v
	}

	if req.Latitude == nil || req.Longitude == nil {
		return nil, apperrors.NewValidationError("latitude and longitude are required", nil)
	}
	if err := validation.ValidateCoordinates(*req.Latitude, *req.Longitude); err != nil {
		return nil, err
	}
	post.Latitude = *req.Latitude
	post.Longitude = *req.Longitude
	return post, nil
}

func parseUUID(name, raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil, apperrors.NewValidationError(name+" must be a uuid", err)
	}
	return id, nil
}

func (s *postService) GetPost(ctx context.Context, id uuid.UUID) (*models.Post, error) {
	post, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, mapRepoError(err, "post")
	}
	return post, nil
}

func (s *postService) ListPosts(ctx context.Context, limit, offset int) ([]*models.Post, error) {
	posts, err := s.repo.List(ctx, limit, offset)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list posts", err)
	}
	return posts, nil
}

func (s *postService) RecentPosts(ctx context.Context) ([]*models.Post, time.Time, time.Time, error) {
	now := s.now().UTC()
	before := now.Add(-s.delay)
	posts, err := s.repo.ListBefore(ctx, before, RecentPostsLimit)
	if err != nil {
		return nil, before, now, apperrors.NewInternalError("failed to list recent posts", err)
	}
	return posts, before, now, nil
}

func (s *postService) DeletePost(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return mapRepoError(err, "post")
	}
	return nil
}
