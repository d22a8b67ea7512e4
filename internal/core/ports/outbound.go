package ports

import (
	"context"
	"io"

	"github.com/docpipe/docpipe/internal/core/domain"
)

// DocumentRepository is the record store keyed by document id. Last-write-wins
// per id; no cross-document transactional guarantees are assumed.
type DocumentRepository interface {
	Create(ctx context.Context, doc *domain.Document) error
	GetByID(ctx context.Context, id int64) (*domain.Document, error)
	UpdateStatus(ctx context.Context, id int64, status domain.DocumentStatus, errMessage string) error

	// CompleteProcessing attaches the analysis and moves the document to
	// processed in one atomic write. A document never carries an analysis
	// without also being processed.
	CompleteProcessing(ctx context.Context, id int64, analysis *domain.AIAnalysis) error

	Delete(ctx context.Context, id int64) error

	// ClaimForProcessing atomically moves an uploaded or failed document to
	// processing. A document observed in processing yields ErrConflict; this
	// is the per-document serialization point for concurrent pipeline runs.
	ClaimForProcessing(ctx context.Context, id int64) (*domain.Document, error)
}

// SequenceGenerator hands out document ids. Ids are monotonically assigned
// and never reused, even after a delete.
type SequenceGenerator interface {
	Next(ctx context.Context) (int64, error)
}

// ObjectStorage stores source documents.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) (int64, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// MessageQueue publishes/consumes document analysis events.
type MessageQueue interface {
	PublishDocumentUploaded(ctx context.Context, documentID int64) error
	SubscribeDocumentUploaded(ctx context.Context, handler func(context.Context, int64) error) error
}

// Extraction is the content extractor output. Strategy records which
// extraction path produced the text (native parser, OCR, fallback decode).
type Extraction struct {
	Text     string
	Strategy string
}

// ContentExtractor converts stored raw bytes into plain UTF-8 text.
// An error here is the pipeline's single hard-fail path.
type ContentExtractor interface {
	Extract(ctx context.Context, storagePath string, fileType domain.FileType) (Extraction, error)
}

// StructuredExtractor parses tabular formats from raw bytes, independent of
// text extraction.
type StructuredExtractor interface {
	ExtractStructured(ctx context.Context, raw []byte, fileType domain.FileType) (*domain.StructuredData, error)
}

// Classifier assigns a document-type label from extracted text.
type Classifier interface {
	Classify(ctx context.Context, text string) (domain.Classification, error)
}

// EntityExtractor pulls dates, names, organizations, domain terms and
// numbers from extracted text.
type EntityExtractor interface {
	ExtractEntities(ctx context.Context, text string) (domain.EntitySet, error)
}

// LanguageDetector estimates the primary language. Advisory, never blocking.
type LanguageDetector interface {
	DetectLanguage(ctx context.Context, text string) (domain.LanguageGuess, error)
}

// OCRService is the pluggable external text recognizer for image formats.
type OCRService interface {
	Process(ctx context.Context, storagePath string, fileType domain.FileType) (string, error)
}

// EntityGraph indexes extracted entities into a graph store. Optional;
// indexing failures never fail a pipeline run.
type EntityGraph interface {
	IndexEntities(ctx context.Context, doc *domain.Document, entities domain.EntitySet) error
}
