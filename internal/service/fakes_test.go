package service

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/anime-shed/image-discovery-go/internal/model"
	"github.com/anime-shed/image-discovery-go/internal/observer"
	"github.com/anime-shed/image-discovery-go/internal/repository"
	"github.com/anime-shed/image-discovery-go/pkg/models"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 120, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

// fakeProvider answers every generation with a fixed text and records the
// call sequence.
type fakeProvider struct {
	mu    sync.Mutex
	text  string
	err   error
	calls []string
}

func (p *fakeProvider) record(call string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, call)
}

func (p *fakeProvider) Calls() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.calls...)
}

func (p *fakeProvider) GenerateInline(ctx context.Context, data []byte, mimeType, prompt string, opts model.GenerateOptions) (*model.Generation, error) {
	p.record("inline")
	if p.err != nil {
		return nil, p.err
	}
	return &model.Generation{Text: p.text}, nil
}

func (p *fakeProvider) UploadStagingFile(ctx context.Context, data []byte, mimeType, displayName string) (*model.FileHandle, error) {
	p.record("upload")
	return &model.FileHandle{Name: "files/staged", URI: "https://files.example/staged", MIMEType: mimeType}, nil
}

func (p *fakeProvider) GenerateWithFileRef(ctx context.Context, file *model.FileHandle, prompt string, opts model.GenerateOptions) (*model.Generation, error) {
	p.record("file_ref")
	if p.err != nil {
		return nil, p.err
	}
	return &model.Generation{Text: p.text}, nil
}

// recordingObserver keeps every event it receives.
type recordingObserver struct {
	mu     sync.Mutex
	events []observer.AnalysisEvent
}

func (o *recordingObserver) OnEvent(ctx context.Context, event observer.AnalysisEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.events = append(o.events, event)
}

func (o *recordingObserver) GetObserverName() string { return "recording" }

func (o *recordingObserver) ofType(t observer.EventType) []observer.AnalysisEvent {
	o.mu.Lock()
	defer o.mu.Unlock()
	var out []observer.AnalysisEvent
	for _, e := range o.events {
		if e.EventType == t {
			out = append(out, e)
		}
	}
	return out
}

type fakeImageRepo struct {
	mu        sync.Mutex
	records   map[uuid.UUID]models.ImageRecord
	createErr error
}

func newFakeImageRepo() *fakeImageRepo {
	return &fakeImageRepo{records: map[uuid.UUID]models.ImageRecord{}}
}

func (r *fakeImageRepo) Create(ctx context.Context, record *models.ImageRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	r.records[record.ImgID] = *record
	return nil
}

func (r *fakeImageRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status models.ImageStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[id]
	if !ok {
		return repository.ErrNotFound
	}
	rec.Status = status
	r.records[id] = rec
	return nil
}

func (r *fakeImageRepo) Get(ctx context.Context, id uuid.UUID) (*models.ImageRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &rec, nil
}

func (r *fakeImageRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.records[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.records, id)
	return nil
}

type fakePostRepo struct {
	mu    sync.Mutex
	posts map[uuid.UUID]models.Post
	err   error
}

func newFakePostRepo(posts ...*models.Post) *fakePostRepo {
	r := &fakePostRepo{posts: map[uuid.UUID]models.Post{}}
	for _, p := range posts {
		r.posts[p.PostID] = *p
	}
	return r
}

func (r *fakePostRepo) Create(ctx context.Context, post *models.Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.posts[post.PostID] = *post
	return nil
}

func (r *fakePostRepo) Get(ctx context.Context, id uuid.UUID) (*models.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	p, ok := r.posts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

func (r *fakePostRepo) sorted(keep func(models.Post) bool) []*models.Post {
	out := []*models.Post{}
	for _, p := range r.posts {
		if keep(p) {
			p := p
			out = append(out, &p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out
}

func (r *fakePostRepo) List(ctx context.Context, limit, offset int) ([]*models.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	all := r.sorted(func(models.Post) bool { return true })
	if offset >= len(all) {
		return []*models.Post{}, nil
	}
	all = all[offset:]
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (r *fakePostRepo) ListBefore(ctx context.Context, cutoff time.Time, limit int) ([]*models.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	all := r.sorted(func(p models.Post) bool { return p.Date.Before(cutoff) })
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (r *fakePostRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.posts[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.posts, id)
	return nil
}

type fakeSearchRepo struct {
	ids         []uuid.UUID
	lastQuery   string
	lastExclude uuid.UUID
}

func (r *fakeSearchRepo) Search(ctx context.Context, query string, limit int) ([]uuid.UUID, error) {
	r.lastQuery = query
	return r.ids, nil
}

func (r *fakeSearchRepo) Related(ctx context.Context, exclude uuid.UUID, text string, limit int) ([]uuid.UUID, error) {
	r.lastQuery = text
	r.lastExclude = exclude
	return r.ids, nil
}

type fakeLocation struct {
	name  string
	calls int
}

func (l *fakeLocation) Lookup(ctx context.Context, lat, lon float64) (string, bool) {
	l.calls++
	return l.name, l.name != ""
}

func (l *fakeLocation) Describe(ctx context.Context, lat, lon float64) string {
	if name, ok := l.Lookup(ctx, lat, lon); ok {
		return name
	}
	return UnknownLocation
}

func (l *fakeLocation) LocalTime(lat, lon float64) string { return "2024-05-01T21:00:00+09:00" }
