package transport

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	apperrors "github.com/anime-shed/image-discovery-go/internal/errors"
	"github.com/anime-shed/image-discovery-go/pkg/models"
)

func (h *handlers) createImage(c *gin.Context) {
	data, declared, err := readFormFile(c, "img_file")
	if err != nil {
		fail(c, err)
		return
	}
	record, err := h.svcs.Images.SaveImage(c.Request.Context(), data, declared)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, models.ImageResponse{Image: record})
}

func (h *handlers) getImage(c *gin.Context) {
	id, ok := pathUUID(c, "img_id")
	if !ok {
		return
	}
	record, err := h.svcs.Images.GetImage(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, models.ImageResponse{Image: record})
}

func (h *handlers) deleteImage(c *gin.Context) {
	id, ok := pathUUID(c, "img_id")
	if !ok {
		return
	}
	if err := h.svcs.Images.DeleteImage(c.Request.Context(), id); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, models.DeleteResponse{Status: "deleted", ImgID: id.String()})
}

// pathUUID parses a uuid path parameter, failing the request with 400.
func pathUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	raw := c.Param(name)
	id, err := uuid.Parse(raw)
	if err != nil {
		fail(c, apperrors.NewValidationError(name+" must be a uuid", err).WithDetails(raw))
		return uuid.Nil, false
	}
	return id, true
}
