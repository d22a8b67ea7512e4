package ports

import (
	"context"
	"io"

	"github.com/docpipe/docpipe/internal/core/domain"
)

// DocumentIngestor is the inbound contract for document upload validation
// and admission (the ingestion gate).
type DocumentIngestor interface {
	Upload(ctx context.Context, filename, declaredType string, body io.Reader) (*domain.Document, error)
}

// DocumentProcessor runs the analysis pipeline for a stored document and
// returns it in a terminal state.
type DocumentProcessor interface {
	ProcessByID(ctx context.Context, documentID int64) (*domain.Document, error)
}

// DocumentReader is the inbound read model for document state and results.
type DocumentReader interface {
	GetByID(ctx context.Context, id int64) (*domain.Document, error)
	GetAnalysis(ctx context.Context, id int64) (*domain.AIAnalysis, error)
}
