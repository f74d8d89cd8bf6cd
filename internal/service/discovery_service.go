package service

import (
	"context"
	"strings"

	"github.com/anime-shed/image-discovery-go/internal/analyzer"
	apperrors "github.com/anime-shed/image-discovery-go/internal/errors"
	"github.com/anime-shed/image-discovery-go/internal/logger"
	"github.com/anime-shed/image-discovery-go/pkg/models"
	"github.com/anime-shed/image-discovery-go/pkg/validation"
)

// UploadAnalysisRequest is an image to store and analyze in one step.
type UploadAnalysisRequest struct {
	Data         []byte
	DeclaredMIME string
	UserQuestion string
	Latitude     *float64
	Longitude    *float64
}

// UploadAnalysisResult carries the stored image and its analysis. Location
// is nil when no usable coordinates were supplied or no place name was found.
type UploadAnalysisResult struct {
	Image    *models.ImageRecord
	Analysis *models.StructuredAnalysis
	Location *string
}

// DiscoveryService stores an upload and analyzes it by its storage reference.
type DiscoveryService interface {
	AnalyzeUpload(ctx context.Context, req UploadAnalysisRequest) (*UploadAnalysisResult, error)
}

type discoveryService struct {
	images   ImageService
	location LocationService
	analysis ImageAnalysisService
}

func NewDiscoveryService(images ImageService, location LocationService, analysis ImageAnalysisService) DiscoveryService {
	return &discoveryService{images: images, location: location, analysis: analysis}
}

func (s *discoveryService) AnalyzeUpload(ctx context.Context, req UploadAnalysisRequest) (*UploadAnalysisResult, error) {
	question := strings.TrimSpace(req.UserQuestion)
	if question == "" {
		return nil, apperrors.NewValidationError("user_question is required", nil)
	}

	record, err := s.images.SaveImage(ctx, req.Data, req.DeclaredMIME)
	if err != nil {
		return nil, err
	}

	analysisReq := AnalysisRequest{
		Source:            analyzer.FromReference(record.StorageURI),
		AuxiliaryQuestion: question,
	}

	var location *string
	if req.Latitude != nil && req.Longitude != nil {
		if err := validation.ValidateCoordinates(*req.Latitude, *req.Longitude); err != nil {
			logger.WithError(err).WithField("img_id", record.ImgID.String()).Warn("ignoring invalid coordinates")
		} else {
			analysisReq.LocalTime = s.location.LocalTime(*req.Latitude, *req.Longitude)
			// An unresolved place stays out of both the response and the prompt.
			if name, ok := s.location.Lookup(ctx, *req.Latitude, *req.Longitude); ok {
				location = &name
				analysisReq.Location = name
			}
		}
	}

	result, err := s.analysis.Analyze(ctx, analysisReq)
	if err != nil {
		return nil, err
	}
	return &UploadAnalysisResult{Image: record, Analysis: result, Location: location}, nil
}
