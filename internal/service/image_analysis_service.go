package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/anime-shed/image-discovery-go/internal/analyzer"
	apperrors "github.com/anime-shed/image-discovery-go/internal/errors"
	"github.com/anime-shed/image-discovery-go/internal/model"
	"github.com/anime-shed/image-discovery-go/internal/observer"
	"github.com/anime-shed/image-discovery-go/internal/storage"
	"github.com/anime-shed/image-discovery-go/pkg/models"
)

// AnalysisRequest is one Analyze call. Everything but Source is optional.
type AnalysisRequest struct {
	Source            analyzer.ImageSource
	AuxiliaryQuestion string
	Location          string
	LocalTime         string
}

// ImageAnalysisService runs the analysis pipeline.
type ImageAnalysisService interface {
	Analyze(ctx context.Context, req AnalysisRequest) (*models.StructuredAnalysis, error)
}

// Pipeline groups the stage implementations used by Analyze.
type Pipeline struct {
	Acquirer   analyzer.ImageAcquirer
	Classifier analyzer.ImageClassifier
	Transcoder analyzer.ImageTranscoder
	Prompts    analyzer.PromptBuilder
	Invoker    analyzer.ModelInvoker
	Parser     analyzer.ResponseParser
}

// NewPipeline wires the default stage implementations.
func NewPipeline(store storage.ObjectStore, provider model.Provider, opts analyzer.Options) Pipeline {
	return Pipeline{
		Acquirer:   analyzer.NewImageAcquirer(store, opts.FetchTimeout),
		Classifier: analyzer.NewImageClassifier(),
		Transcoder: analyzer.NewImageTranscoder(opts.MaxImagePixels),
		Prompts:    analyzer.NewPromptBuilder(),
		Invoker:    analyzer.NewModelInvoker(provider, opts),
		Parser:     analyzer.NewResponseParser(),
	}
}

type imageAnalysisService struct {
	pipeline  Pipeline
	options   analyzer.Options
	publisher observer.Subject
}

// NewImageAnalysisService creates the orchestrator. publisher may be nil.
func NewImageAnalysisService(pipeline Pipeline, opts analyzer.Options, publisher observer.Subject) ImageAnalysisService {
	if publisher == nil {
		publisher = observer.NewEventPublisher()
	}
	return &imageAnalysisService{
		pipeline:  pipeline,
		options:   opts,
		publisher: publisher,
	}
}

// run carries the per-call state of one Analyze invocation.
type run struct {
	svc       *imageAnalysisService
	requestID string
	source    string
	stage     observer.Stage
	started   time.Time
}

func (r *run) enter(ctx context.Context, stage observer.Stage) {
	r.stage = stage
	r.svc.publisher.NotifyObservers(ctx, observer.AnalysisEvent{
		EventType: observer.StageEntered,
		RequestID: r.requestID,
		Source:    r.source,
		Stage:     stage,
	})
}

func (r *run) fail(ctx context.Context, err error) error {
	r.svc.publisher.NotifyObservers(ctx, observer.AnalysisEvent{
		EventType:      observer.AnalysisFailed,
		RequestID:      r.requestID,
		Source:         r.source,
		Stage:          r.stage,
		ProcessingTime: time.Since(r.started),
		ErrorType:      string(apperrors.TypeOf(err)),
		ErrorMessage:   err.Error(),
	})
	return err
}

// Analyze runs Acquiring, Classifying, PromptBuilding, Transcoding, Invoking
// and Parsing in order. The first failure ends the run; nothing is retried.
func (s *imageAnalysisService) Analyze(ctx context.Context, req AnalysisRequest) (*models.StructuredAnalysis, error) {
	r := &run{
		svc:       s,
		requestID: uuid.NewString(),
		source:    req.Source.String(),
		started:   time.Now(),
	}
	s.publisher.NotifyObservers(ctx, observer.AnalysisEvent{
		EventType: observer.AnalysisStarted,
		RequestID: r.requestID,
		Source:    r.source,
	})

	r.enter(ctx, observer.StageAcquiring)
	if err := checkContext(ctx); err != nil {
		return nil, r.fail(ctx, err)
	}
	raw, err := s.pipeline.Acquirer.Acquire(ctx, req.Source)
	if err != nil {
		return nil, r.fail(ctx, err)
	}

	r.enter(ctx, observer.StageClassifying)
	if _, err := s.pipeline.Classifier.Classify(raw); err != nil {
		return nil, r.fail(ctx, err)
	}

	r.enter(ctx, observer.StagePromptBuilding)
	prompt := s.pipeline.Prompts.Build(analyzer.PromptContext{
		AuxiliaryQuestion: req.AuxiliaryQuestion,
		Location:          req.Location,
		LocalTime:         req.LocalTime,
	})

	r.enter(ctx, observer.StageTranscoding)
	jpegBytes, err := s.pipeline.Transcoder.Transcode(raw, s.options.MaxImageLongEdge, s.options.JPEGQuality)
	if err != nil {
		return nil, r.fail(ctx, err)
	}

	r.enter(ctx, observer.StageInvoking)
	if err := checkContext(ctx); err != nil {
		return nil, r.fail(ctx, err)
	}
	invocation, err := s.pipeline.Invoker.Invoke(ctx, jpegBytes, prompt)
	if err != nil {
		return nil, r.fail(ctx, err)
	}
	s.publisher.NotifyObservers(ctx, observer.AnalysisEvent{
		EventType: observer.TransportSelected,
		RequestID: r.requestID,
		Source:    r.source,
		Stage:     observer.StageInvoking,
		Metadata: map[string]interface{}{
			"transport":  invocation.Decision.String(),
			"size_bytes": len(jpegBytes),
		},
	})

	r.enter(ctx, observer.StageParsing)
	result, err := s.pipeline.Parser.Parse(invocation.Text)
	if err != nil {
		return nil, r.fail(ctx, err)
	}
	result.GroundingURLs = analyzer.MergeGroundingURLs(result.GroundingURLs, invocation.GroundingURLs)

	r.stage = observer.StageDone
	s.publisher.NotifyObservers(ctx, observer.AnalysisEvent{
		EventType:      observer.AnalysisCompleted,
		RequestID:      r.requestID,
		Source:         r.source,
		Stage:          observer.StageDone,
		ProcessingTime: time.Since(r.started),
		Success:        true,
		Metadata: map[string]interface{}{
			"object_label":   result.ObjectLabel,
			"grounding_urls": len(result.GroundingURLs),
		},
	})
	return result, nil
}

// checkContext stops the pipeline before a network step once the caller
// has given up.
func checkContext(ctx context.Context) error {
	err := ctx.Err()
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return apperrors.NewTimeoutError("analysis deadline exceeded", err)
	}
	return apperrors.NewTimeoutError("analysis cancelled", err)
}
