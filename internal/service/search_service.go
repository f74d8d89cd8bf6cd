package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	apperrors "github.com/anime-shed/image-discovery-go/internal/errors"
	"github.com/anime-shed/image-discovery-go/internal/repository"
	"github.com/anime-shed/image-discovery-go/pkg/models"
)

const hydrateConcurrency = 8

// SearchService answers free-text and related-post queries.
type SearchService interface {
	Search(ctx context.Context, query string, limit int) ([]*models.Post, error)
	Related(ctx context.Context, postID uuid.UUID, limit int) ([]*models.Post, error)
}

type searchService struct {
	index repository.SearchRepository
	posts repository.PostRepository
}

func NewSearchService(index repository.SearchRepository, posts repository.PostRepository) SearchService {
	return &searchService{index: index, posts: posts}
}

func (s *searchService) Search(ctx context.Context, query string, limit int) ([]*models.Post, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, apperrors.NewValidationError("q is required", nil)
	}
	ids, err := s.index.Search(ctx, query, limit)
	if err != nil {
		return nil, apperrors.NewInternalError("search failed", err)
	}
	return s.hydrate(ctx, ids)
}

// Related finds posts matching the object label of postID.
func (s *searchService) Related(ctx context.Context, postID uuid.UUID, limit int) ([]*models.Post, error) {
	post, err := s.posts.Get(ctx, postID)
	if err != nil {
		return nil, mapRepoError(err, "post")
	}
	ids, err := s.index.Related(ctx, postID, post.ObjectLabel, limit)
	if err != nil {
		return nil, apperrors.NewInternalError("related search failed", err)
	}
	return s.hydrate(ctx, ids)
}

// hydrate loads posts concurrently, keeping the order of ids. Ids that no
// longer resolve are dropped.
func (s *searchService) hydrate(ctx context.Context, ids []uuid.UUID) ([]*models.Post, error) {
	slots := make([]*models.Post, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(hydrateConcurrency)
	for i, id := range ids {
		g.Go(func() error {
			post, err := s.posts.Get(gctx, id)
			if errors.Is(err, repository.ErrNotFound) {
				return nil
			}
			if err != nil {
				return err
			}
			slots[i] = post
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, apperrors.NewInternalError("failed to load search results", err)
	}

	out := make([]*models.Post, 0, len(slots))
	for _, p := range slots {
		if p != nil {
			out = append(out, p)
		}
	}
	return out, nil
}
