package memstore

import (
	"context"
	"sync"
	"time"

	"github.com/docpipe/docpipe/internal/core/domain"
)

// Repository is an in-memory document store. It backs single-node
// deployments and test doubles; last-write-wins per id.
type Repository struct {
	mu   sync.RWMutex
	docs map[int64]*domain.Document
}

func New() *Repository {
	return &Repository{docs: make(map[int64]*domain.Document)}
}

func (r *Repository) Create(_ context.Context, doc *domain.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	copyDoc := cloneDocument(doc)
	r.docs[doc.ID] = copyDoc
	return nil
}

func (r *Repository) GetByID(_ context.Context, id int64) (*domain.Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	doc, ok := r.docs[id]
	if !ok {
		return nil, domain.ErrDocumentNotFound
	}
	return cloneDocument(doc), nil
}

func (r *Repository) UpdateStatus(_ context.Context, id int64, status domain.DocumentStatus, errMessage string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, ok := r.docs[id]
	if !ok {
		return domain.ErrDocumentNotFound
	}
	doc.Status = status
	doc.Error = errMessage
	doc.UpdatedAt = time.Now().UTC()
	return nil
}

// CompleteProcessing attaches the analysis and flips the document to
// processed under one lock, mirroring the single-UPDATE postgres write.
func (r *Repository) CompleteProcessing(_ context.Context, id int64, analysis *domain.AIAnalysis) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, ok := r.docs[id]
	if !ok {
		return domain.ErrDocumentNotFound
	}
	copyAnalysis := *analysis
	doc.Analysis = &copyAnalysis
	doc.Status = domain.StatusProcessed
	doc.Error = ""
	doc.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *Repository) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.docs[id]; !ok {
		return domain.ErrDocumentNotFound
	}
	delete(r.docs, id)
	return nil
}

// ClaimForProcessing is the per-document serialization point: only one
// caller can move a document out of uploaded/failed at a time.
func (r *Repository) ClaimForProcessing(_ context.Context, id int64) (*domain.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, ok := r.docs[id]
	if !ok {
		return nil, domain.ErrDocumentNotFound
	}
	switch doc.Status {
	case domain.StatusProcessing:
		return nil, domain.ErrConflict
	case domain.StatusUploaded, domain.StatusFailed:
		doc.Status = domain.StatusProcessing
		doc.Error = ""
		doc.UpdatedAt = time.Now().UTC()
		return cloneDocument(doc), nil
	default:
		// processed: handled by the caller as an idempotent no-op.
		return cloneDocument(doc), nil
	}
}

func cloneDocument(doc *domain.Document) *domain.Document {
	copyDoc := *doc
	if doc.Analysis != nil {
		copyAnalysis := *doc.Analysis
		copyDoc.Analysis = &copyAnalysis
	}
	return &copyDoc
}
