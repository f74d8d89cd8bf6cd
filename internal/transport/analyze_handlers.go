package transport

import (
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/anime-shed/image-discovery-go/internal/analyzer"
	apperrors "github.com/anime-shed/image-discovery-go/internal/errors"
	"github.com/anime-shed/image-discovery-go/internal/logger"
	"github.com/anime-shed/image-discovery-go/internal/service"
	"github.com/anime-shed/image-discovery-go/pkg/models"
	"github.com/anime-shed/image-discovery-go/pkg/validation"
)

// analyzeImage handles POST /v1/analyze. The image comes either as the
// multipart file "file" or as the storage reference "image_url".
func (h *handlers) analyzeImage(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.cfg.RequestTimeout)
	defer cancel()

	req := service.AnalysisRequest{AuxiliaryQuestion: c.PostForm("user_question")}

	fh, err := c.FormFile("file")
	switch {
	case err == nil:
		f, err := fh.Open()
		if err != nil {
			fail(c, apperrors.NewFetchFailedError("failed to read upload", err))
			return
		}
		defer f.Close()
		req.Source = analyzer.FromUpload(f, fh.Header.Get("Content-Type"))
	case errors.Is(err, http.ErrMissingFile):
		uri := strings.TrimSpace(c.PostForm("image_url"))
		if uri == "" {
			fail(c, apperrors.NewValidationError("either file or image_url is required", nil))
			return
		}
		req.Source = analyzer.FromReference(uri)
	default:
		fail(c, formError(err))
		return
	}

	result, err := h.svcs.Analysis.Analyze(ctx, req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, models.AnalyzeResponse{AIResponse: result})
}

// imageAnalyze handles POST /api/image_analyze: store the upload, then
// analyze it with optional location context.
func (h *handlers) imageAnalyze(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.cfg.RequestTimeout)
	defer cancel()

	data, declared, err := readFormFile(c, "img_file")
	if err != nil {
		fail(c, err)
		return
	}

	req := service.UploadAnalysisRequest{
		Data:         data,
		DeclaredMIME: declared,
		UserQuestion: c.PostForm("user_question"),
	}

	latRaw, lonRaw := c.PostForm("latitude"), c.PostForm("longitude")
	if latRaw != "" || lonRaw != "" {
		lat, lon, err := validation.ParseCoordinates(latRaw, lonRaw)
		if err != nil {
			logger.WithError(err).WithField("ip", c.ClientIP()).Warn("ignoring unusable coordinates")
		} else {
			req.Latitude, req.Longitude = &lat, &lon
		}
	}

	res, err := h.svcs.Discovery.AnalyzeUpload(ctx, req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, models.ImageAnalyzeResponse{
		ImgID:      res.Image.ImgID.String(),
		AIResponse: res.Analysis,
		Location:   res.Location,
	})
}

// readFormFile reads a required multipart file into memory.
func readFormFile(c *gin.Context, field string) ([]byte, string, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, "", apperrors.NewValidationError(field+" is required", nil)
		}
		return nil, "", formError(err)
	}
	f, err := fh.Open()
	if err != nil {
		return nil, "", apperrors.NewFetchFailedError("failed to read upload", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, "", apperrors.NewFetchFailedError("failed to read upload", err)
	}
	return data, fh.Header.Get("Content-Type"), nil
}

func formError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return toAppError(err)
	}
	if errors.Is(err, multipart.ErrMessageTooLarge) {
		return apperrors.NewTooLargeError("multipart form too large", err)
	}
	if errors.Is(err, http.ErrNotMultipart) {
		return apperrors.NewValidationError("request must be multipart/form-data", err)
	}
	return apperrors.NewValidationError("invalid form data", err)
}
