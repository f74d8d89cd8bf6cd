package transport

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/anime-shed/image-discovery-go/internal/errors"
	"github.com/anime-shed/image-discovery-go/pkg/models"
	"github.com/anime-shed/image-discovery-go/pkg/validation"
)

const (
	defaultPostLimit    = 10
	defaultRelatedLimit = 5
	defaultSearchLimit  = 12
)

// createPost accepts JSON or form bodies.
func (h *handlers) createPost(c *gin.Context) {
	var req models.CreatePostRequest
	if err := c.ShouldBind(&req); err != nil {
		fail(c, apperrors.NewValidationError("invalid post body", err))
		return
	}
	post, err := h.svcs.Posts.CreatePost(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, models.PostResponse{Post: post})
}

func (h *handlers) getPost(c *gin.Context) {
	id, ok := pathUUID(c, "post_id")
	if !ok {
		return
	}
	post, err := h.svcs.Posts.GetPost(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, models.PostResponse{Post: post})
}

func (h *handlers) listPosts(c *gin.Context) {
	limit, offset, err := validation.ParsePaging(c.Query("limit"), c.Query("offset"), defaultPostLimit)
	if err != nil {
		fail(c, err)
		return
	}
	posts, err := h.svcs.Posts.ListPosts(c.Request.Context(), limit, offset)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, models.PostListResponse{Posts: posts, Limit: limit, Offset: offset})
}

func (h *handlers) recentPosts(c *gin.Context) {
	posts, before, now, err := h.svcs.Posts.RecentPosts(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, models.RecentPostsResponse{Posts: posts, Before: before, Now: now})
}

func (h *handlers) deletePost(c *gin.Context) {
	id, ok := pathUUID(c, "post_id")
	if !ok {
		return
	}
	if err := h.svcs.Posts.DeletePost(c.Request.Context(), id); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, models.DeleteResponse{Status: "deleted", PostID: id.String()})
}

func (h *handlers) relatedPosts(c *gin.Context) {
	id, ok := pathUUID(c, "post_id")
	if !ok {
		return
	}
	limit, err := validation.ParseLimit(c.Query("limit"), defaultRelatedLimit, validation.MaxPageLimit)
	if err != nil {
		fail(c, err)
		return
	}
	posts, err := h.svcs.Search.Related(c.Request.Context(), id, limit)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, models.SearchResponse{Posts: posts})
}

func (h *handlers) search(c *gin.Context) {
	limit, err := validation.ParseLimit(c.Query("limit"), defaultSearchLimit, validation.MaxPageLimit)
	if err != nil {
		fail(c, err)
		return
	}
	posts, err := h.svcs.Search.Search(c.Request.Context(), c.Query("q"), limit)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, models.SearchResponse{Posts: posts})
}
