package usecase

import (
	"bytes"
	"context"
	"io"
	"sync"

	"github.com/docpipe/docpipe/internal/core/domain"
	"github.com/docpipe/docpipe/internal/core/ports"
)

type fakeStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
	saveErr error
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{objects: make(map[string][]byte)}
}

func (s *fakeStorage) Save(_ context.Context, key string, data io.Reader) (int64, error) {
	if s.saveErr != nil {
		return 0, s.saveErr
	}
	raw, err := io.ReadAll(data)
	if err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = raw
	return int64(len(raw)), nil
}

func (s *fakeStorage) Open(_ context.Context, key string) (io.ReadCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	raw, ok := s.objects[key]
	if !ok {
		return nil, domain.ErrDocumentNotFound
	}
	return io.NopCloser(bytes.NewReader(raw)), nil
}

type fakeQueue struct {
	mu         sync.Mutex
	published  []int64
	publishErr error
}

func (q *fakeQueue) PublishDocumentUploaded(_ context.Context, documentID int64) error {
	if q.publishErr != nil {
		return q.publishErr
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.published = append(q.published, documentID)
	return nil
}

func (q *fakeQueue) SubscribeDocumentUploaded(ctx context.Context, _ func(context.Context, int64) error) error {
	<-ctx.Done()
	return nil
}

type fakeContentExtractor struct {
	text     string
	strategy string
	err      error
	calls    int
}

func (e *fakeContentExtractor) Extract(_ context.Context, _ string, _ domain.FileType) (ports.Extraction, error) {
	e.calls++
	if e.err != nil {
		return ports.Extraction{}, e.err
	}
	return ports.Extraction{Text: e.text, Strategy: e.strategy}, nil
}

type fakeStructuredExtractor struct {
	data *domain.StructuredData
	err  error
}

func (e *fakeStructuredExtractor) ExtractStructured(_ context.Context, _ []byte, _ domain.FileType) (*domain.StructuredData, error) {
	if e.err != nil {
		return nil, e.err
	}
	return e.data, nil
}

type fakeClassifier struct {
	result   domain.Classification
	err      error
	lastText string
}

func (c *fakeClassifier) Classify(_ context.Context, text string) (domain.Classification, error) {
	c.lastText = text
	if c.err != nil {
		return domain.Classification{}, c.err
	}
	return c.result, nil
}

type fakeEntityExtractor struct {
	result domain.EntitySet
	err    error
	panics bool
}

func (e *fakeEntityExtractor) ExtractEntities(_ context.Context, _ string) (domain.EntitySet, error) {
	if e.panics {
		panic("entity extractor exploded")
	}
	if e.err != nil {
		return domain.EntitySet{}, e.err
	}
	return e.result, nil
}

type fakeLanguageDetector struct {
	result domain.LanguageGuess
	err    error
}

func (d *fakeLanguageDetector) DetectLanguage(_ context.Context, _ string) (domain.LanguageGuess, error) {
	if d.err != nil {
		return domain.LanguageGuess{}, d.err
	}
	return d.result, nil
}

type fakeEntityGraph struct {
	mu      sync.Mutex
	indexed int
	err     error
}

func (g *fakeEntityGraph) IndexEntities(_ context.Context, _ *domain.Document, _ domain.EntitySet) error {
	if g.err != nil {
		return g.err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.indexed++
	return nil
}
