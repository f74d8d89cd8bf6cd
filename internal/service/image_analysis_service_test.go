package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"testing"

	"github.com/anime-shed/image-discovery-go/internal/analyzer"
	apperrors "github.com/anime-shed/image-discovery-go/internal/errors"
	"github.com/anime-shed/image-discovery-go/internal/observer"
	"github.com/anime-shed/image-discovery-go/internal/storage"
)

const validAnswer = `{"object_label":"T","ai_answer":"D","ai_question":"Q"}`

func newTestService(t *testing.T, store storage.ObjectStore, provider *fakeProvider, opts analyzer.Options) (ImageAnalysisService, *recordingObserver) {
	t.Helper()
	rec := &recordingObserver{}
	pub := observer.NewEventPublisher()
	pub.Subscribe(rec)
	return NewImageAnalysisService(NewPipeline(store, provider, opts), opts, pub), rec
}

func blankPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func TestAnalyzeLargeUploadUsesUploadReference(t *testing.T) {
	provider := &fakeProvider{text: validAnswer}
	opts := analyzer.DefaultOptions().WithInlineThreshold(1)
	svc, rec := newTestService(t, nil, provider, opts)

	got, err := svc.Analyze(context.Background(), AnalysisRequest{
		Source: analyzer.FromUpload(bytes.NewReader(blankPNG(t, 4000, 3000)), "image/png"),
	})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if got.ObjectLabel != "T" || got.AIAnswer != "D" || got.AIQuestion != "Q" {
		t.Errorf("got %+v", got)
	}
	if got.GroundingURLs == nil || len(got.GroundingURLs) != 0 {
		t.Errorf("grounding urls = %#v, want empty non-nil", got.GroundingURLs)
	}

	calls := provider.Calls()
	if len(calls) != 2 || calls[0] != "upload" || calls[1] != "file_ref" {
		t.Errorf("provider calls = %v", calls)
	}

	selected := rec.ofType(observer.TransportSelected)
	if len(selected) != 1 || selected[0].Metadata["transport"] != "upload_reference" {
		t.Errorf("transport events = %+v", selected)
	}
	if n := len(rec.ofType(observer.AnalysisCompleted)); n != 1 {
		t.Errorf("completed events = %d", n)
	}
}

func TestAnalyzeSmallUploadStaysInline(t *testing.T) {
	provider := &fakeProvider{text: validAnswer}
	svc, rec := newTestService(t, nil, provider, analyzer.DefaultOptions())

	if _, err := svc.Analyze(context.Background(), AnalysisRequest{
		Source:            analyzer.FromUpload(bytes.NewReader(pngBytes(t, 64, 40)), ""),
		AuxiliaryQuestion: "what is this?",
	}); err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	calls := provider.Calls()
	if len(calls) != 1 || calls[0] != "inline" {
		t.Errorf("provider calls = %v", calls)
	}

	var stages []observer.Stage
	for _, e := range rec.ofType(observer.StageEntered) {
		stages = append(stages, e.Stage)
	}
	want := []observer.Stage{
		observer.StageAcquiring, observer.StageClassifying, observer.StagePromptBuilding,
		observer.StageTranscoding, observer.StageInvoking, observer.StageParsing,
	}
	if len(stages) != len(want) {
		t.Fatalf("stages = %v, want %v", stages, want)
	}
	for i := range want {
		if stages[i] != want[i] {
			t.Errorf("stage %d = %s, want %s", i, stages[i], want[i])
		}
	}
}

func TestAnalyzeReference(t *testing.T) {
	store := storage.NewMemoryStorage("mem")
	if err := store.Upload(context.Background(), "photos", "cat.png", pngBytes(t, 32, 32), "image/png"); err != nil {
		t.Fatal(err)
	}
	provider := &fakeProvider{text: "```json\n" + validAnswer + "\n```"}
	svc, _ := newTestService(t, store, provider, analyzer.DefaultOptions())

	got, err := svc.Analyze(context.Background(), AnalysisRequest{Source: analyzer.FromReference("mem://photos/cat.png")})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if got.ObjectLabel != "T" {
		t.Errorf("object_label = %q", got.ObjectLabel)
	}
}

func TestAnalyzeFailures(t *testing.T) {
	store := storage.NewMemoryStorage("mem")

	tests := []struct {
		name       string
		source     analyzer.ImageSource
		provider   *fakeProvider
		wantType   apperrors.ErrorType
		wantStage  observer.Stage
		wantCalled bool
	}{
		{
			name:      "empty upload",
			source:    analyzer.FromUpload(bytes.NewReader(nil), ""),
			provider:  &fakeProvider{text: validAnswer},
			wantType:  apperrors.ErrorTypeEmptyInput,
			wantStage: observer.StageAcquiring,
		},
		{
			name:      "wrong scheme",
			source:    analyzer.FromReference("gs://photos/cat.png"),
			provider:  &fakeProvider{text: validAnswer},
			wantType:  apperrors.ErrorTypeUnsupportedSource,
			wantStage: observer.StageAcquiring,
		},
		{
			name:      "prefix reference",
			source:    analyzer.FromReference("mem://photos/"),
			provider:  &fakeProvider{text: validAnswer},
			wantType:  apperrors.ErrorTypeInvalidReference,
			wantStage: observer.StageAcquiring,
		},
		{
			name:      "missing object",
			source:    analyzer.FromReference("mem://photos/none.png"),
			provider:  &fakeProvider{text: validAnswer},
			wantType:  apperrors.ErrorTypeFetchFailed,
			wantStage: observer.StageAcquiring,
		},
		{
			name:      "not an image",
			source:    analyzer.FromUpload(bytes.NewReader([]byte("%PDF-1.4 not an image")), "image/png"),
			provider:  &fakeProvider{text: validAnswer},
			wantType:  apperrors.ErrorTypeNotAnImage,
			wantStage: observer.StageClassifying,
		},
		{
			name:       "provider failure",
			source:     analyzer.FromUpload(bytes.NewReader(pngBytes(t, 16, 16)), ""),
			provider:   &fakeProvider{err: errors.New("quota exhausted")},
			wantType:   apperrors.ErrorTypeUpstreamError,
			wantStage:  observer.StageInvoking,
			wantCalled: true,
		},
		{
			name:       "prose answer",
			source:     analyzer.FromUpload(bytes.NewReader(pngBytes(t, 16, 16)), ""),
			provider:   &fakeProvider{text: "I think this is a cat."},
			wantType:   apperrors.ErrorTypeMalformedModelOutput,
			wantStage:  observer.StageParsing,
			wantCalled: true,
		},
		{
			name:       "missing field",
			source:     analyzer.FromUpload(bytes.NewReader(pngBytes(t, 16, 16)), ""),
			provider:   &fakeProvider{text: `{"object_label":"T","ai_answer":"D"}`},
			wantType:   apperrors.ErrorTypeMissingRequiredField,
			wantStage:  observer.StageParsing,
			wantCalled: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, rec := newTestService(t, store, tt.provider, analyzer.DefaultOptions())

			_, err := svc.Analyze(context.Background(), AnalysisRequest{Source: tt.source})
			if !apperrors.IsType(err, tt.wantType) {
				t.Fatalf("error = %v, want type %s", err, tt.wantType)
			}
			if called := len(tt.provider.Calls()) > 0; called != tt.wantCalled {
				t.Errorf("provider called = %v, want %v", called, tt.wantCalled)
			}

			failed := rec.ofType(observer.AnalysisFailed)
			if len(failed) != 1 {
				t.Fatalf("failed events = %d", len(failed))
			}
			if failed[0].Stage != tt.wantStage || failed[0].ErrorType != string(tt.wantType) {
				t.Errorf("failed event = stage %s type %s", failed[0].Stage, failed[0].ErrorType)
			}
			if n := len(rec.ofType(observer.AnalysisCompleted)); n != 0 {
				t.Errorf("completed events = %d", n)
			}
		})
	}
}

func TestAnalyzeCancelledContext(t *testing.T) {
	provider := &fakeProvider{text: validAnswer}
	svc, _ := newTestService(t, nil, provider, analyzer.DefaultOptions())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Analyze(ctx, AnalysisRequest{Source: analyzer.FromUpload(bytes.NewReader(pngBytes(t, 8, 8)), "")})
	if !apperrors.IsType(err, apperrors.ErrorTypeTimeout) {
		t.Fatalf("error = %v, want timeout", err)
	}
	if calls := provider.Calls(); len(calls) != 0 {
		t.Errorf("provider calls = %v", calls)
	}
}

func TestAnalyzeCancellationReportedConsistently(t *testing.T) {
	// Cancelled before the model call.
	svc, _ := newTestService(t, nil, &fakeProvider{text: validAnswer}, analyzer.DefaultOptions())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, before := svc.Analyze(ctx, AnalysisRequest{Source: analyzer.FromUpload(bytes.NewReader(pngBytes(t, 8, 8)), "")})

	// Cancelled while the provider was answering.
	provider := &fakeProvider{err: fmt.Errorf("generate: %w", context.Canceled)}
	svc, rec := newTestService(t, nil, provider, analyzer.DefaultOptions())
	_, during := svc.Analyze(context.Background(), AnalysisRequest{Source: analyzer.FromUpload(bytes.NewReader(pngBytes(t, 8, 8)), "")})

	for _, err := range []error{before, during} {
		appErr, ok := apperrors.As(err)
		if !ok {
			t.Fatalf("expected AppError, got %v", err)
		}
		if appErr.Type != apperrors.ErrorTypeTimeout || appErr.Message != "analysis cancelled" {
			t.Errorf("error = %s %q, want timeout %q", appErr.Type, appErr.Message, "analysis cancelled")
		}
		if apperrors.GetStatusCode(err) != 504 {
			t.Errorf("status = %d, want 504", apperrors.GetStatusCode(err))
		}
	}
	if failed := rec.ofType(observer.AnalysisFailed); len(failed) != 1 || failed[0].Stage != observer.StageInvoking {
		t.Errorf("failed events = %+v", failed)
	}
}
