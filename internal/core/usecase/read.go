package usecase

import (
	"context"
	"errors"

	"github.com/docpipe/docpipe/internal/core/domain"
	"github.com/docpipe/docpipe/internal/core/ports"
)

// ReadDocumentUseCase serves document and analysis lookups.
type ReadDocumentUseCase struct {
	repo ports.DocumentRepository
}

func NewReadDocumentUseCase(repo ports.DocumentRepository) *ReadDocumentUseCase {
	return &ReadDocumentUseCase{repo: repo}
}

func (uc *ReadDocumentUseCase) GetByID(ctx context.Context, documentID int64) (*domain.Document, error) {
	return uc.repo.GetByID(ctx, documentID)
}

// GetAnalysis returns the aggregated analysis for a processed document.
// Documents without a stored analysis, including failed ones, surface
// ErrAnalysisNotFound.
func (uc *ReadDocumentUseCase) GetAnalysis(ctx context.Context, documentID int64) (*domain.AIAnalysis, error) {
	doc, err := uc.repo.GetByID(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if doc.Analysis == nil {
		return nil, domain.WrapError(domain.ErrAnalysisNotFound, "get analysis",
			errors.New("analysis is not available"))
	}
	return doc.Analysis, nil
}
