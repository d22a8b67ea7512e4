package usecase

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/docpipe/docpipe/internal/core/domain"
	"github.com/docpipe/docpipe/internal/core/ports"
)

// StageObserver receives timing and failure signals for individual pipeline
// stages. A nil observer disables observation.
type StageObserver interface {
	ObserveStage(stage string, duration time.Duration, err error)
}

// AnalyzeDocumentUseCase drives a document through the analysis pipeline:
// claim, extract, analyze, aggregate, persist. Content extraction is the only
// stage that fails the document. Every downstream stage degrades in place and
// the pipeline keeps going.
type AnalyzeDocumentUseCase struct {
	repo       ports.DocumentRepository
	storage    ports.ObjectStorage
	content    ports.ContentExtractor
	structured ports.StructuredExtractor
	classifier ports.Classifier
	entities   ports.EntityExtractor
	language   ports.LanguageDetector
	graph      ports.EntityGraph

	observer     StageObserver
	stageTimeout time.Duration
	previewChars int
	logger       *slog.Logger
}

type AnalyzeOptions struct {
	// EntityGraph mirrors extracted entities into a graph store. Optional.
	EntityGraph ports.EntityGraph
	// Observer records per-stage timings. Optional.
	Observer StageObserver
	// StageTimeout bounds each analysis stage. Defaults to 30s.
	StageTimeout time.Duration
	// PreviewChars bounds the stored text preview. Defaults to 500 runes.
	PreviewChars int
	Logger       *slog.Logger
}

func NewAnalyzeDocumentUseCase(
	repo ports.DocumentRepository,
	storage ports.ObjectStorage,
	content ports.ContentExtractor,
	structured ports.StructuredExtractor,
	classifier ports.Classifier,
	entities ports.EntityExtractor,
	language ports.LanguageDetector,
	options AnalyzeOptions,
) *AnalyzeDocumentUseCase {
	stageTimeout := options.StageTimeout
	if stageTimeout <= 0 {
		stageTimeout = 30 * time.Second
	}
	previewChars := options.PreviewChars
	if previewChars <= 0 {
		previewChars = 500
	}
	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &AnalyzeDocumentUseCase{
		repo:         repo,
		storage:      storage,
		content:      content,
		structured:   structured,
		classifier:   classifier,
		entities:     entities,
		language:     language,
		graph:        options.EntityGraph,
		observer:     options.Observer,
		stageTimeout: stageTimeout,
		previewChars: previewChars,
		logger:       logger,
	}
}

// ProcessByID runs the pipeline for one document. A document already in state
// processed is returned unchanged. A document held by another run surfaces
// ErrConflict. Extraction failure ends with status failed and a recorded
// error; the failed document is returned without a Go error because the
// outcome is a legitimate terminal state.
func (uc *AnalyzeDocumentUseCase) ProcessByID(ctx context.Context, documentID int64) (*domain.Document, error) {
	doc, err := uc.repo.ClaimForProcessing(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if doc.Status == domain.StatusProcessed {
		uc.logger.Info("document already processed, skipping", "document_id", documentID)
		return doc, nil
	}

	extraction, err := uc.extractContent(ctx, doc)
	if err != nil {
		return uc.markFailed(ctx, doc, err)
	}

	text := extraction.Text
	var structuredData *domain.StructuredData
	if doc.FileType.Tabular() {
		structuredData = uc.extractStructured(ctx, doc)
		if structuredData != nil && structuredData.Success {
			text = text + "\n\n" + structuredData.Summary()
		}
	}

	analysis := &domain.AIAnalysis{
		Classification: uc.classify(ctx, doc, text),
		Entities:       uc.extractEntities(ctx, doc, text),
		Language:       uc.detectLanguage(ctx, doc, text),
		StructuredData: structuredData,
		TextPreview:    previewOf(text, uc.previewChars),
		WordCount:      len(strings.Fields(text)),
		ProcessedAt:    time.Now().UTC(),
	}

	// Terminal persistence must survive a canceled request context. The
	// analysis and the processed status land in one repository write; if
	// that write fails, the run still ends in a terminal state via failed.
	persistCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), uc.stageTimeout)
	defer cancel()
	if err := uc.repo.CompleteProcessing(persistCtx, doc.ID, analysis); err != nil {
		return uc.markFailed(ctx, doc, fmt.Errorf("persist analysis: %w", err))
	}

	doc.Status = domain.StatusProcessed
	doc.Error = ""
	doc.Analysis = analysis
	doc.UpdatedAt = analysis.ProcessedAt

	uc.indexEntities(persistCtx, doc, analysis.Entities)

	uc.logger.Info("document processed",
		"document_id", doc.ID,
		"file_type", string(doc.FileType),
		"document_type", analysis.Classification.DocumentType,
		"entity_count", analysis.Entities.EntityCount,
		"word_count", analysis.WordCount,
	)
	return doc, nil
}

func (uc *AnalyzeDocumentUseCase) extractContent(ctx context.Context, doc *domain.Document) (ports.Extraction, error) {
	var extraction ports.Extraction
	err := uc.runStage(ctx, "extract_content", func(stageCtx context.Context) error {
		var stageErr error
		extraction, stageErr = uc.content.Extract(stageCtx, doc.StoragePath, doc.FileType)
		return stageErr
	})
	if err != nil {
		return ports.Extraction{}, domain.WrapError(domain.ErrExtraction, "extract content", err)
	}
	return extraction, nil
}

func (uc *AnalyzeDocumentUseCase) extractStructured(ctx context.Context, doc *domain.Document) *domain.StructuredData {
	var result *domain.StructuredData
	err := uc.runStage(ctx, "extract_structured", func(stageCtx context.Context) error {
		reader, err := uc.storage.Open(stageCtx, doc.StoragePath)
		if err != nil {
			return fmt.Errorf("open stored object: %w", err)
		}
		defer reader.Close()
		raw, err := io.ReadAll(reader)
		if err != nil {
			return fmt.Errorf("read stored object: %w", err)
		}
		result, err = uc.structured.ExtractStructured(stageCtx, raw, doc.FileType)
		return err
	})
	if err != nil {
		uc.logger.Warn("structured extraction degraded",
			"document_id", doc.ID, "error", err)
		if doc.FileType == domain.FileTypeText {
			// Plain text with no tabular shape simply has no structured data.
			return nil
		}
		return &domain.StructuredData{
			DataType: string(doc.FileType),
			Success:  false,
		}
	}
	return result
}

func (uc *AnalyzeDocumentUseCase) classify(ctx context.Context, doc *domain.Document, text string) domain.Classification {
	var result domain.Classification
	err := uc.runStage(ctx, "classify", func(stageCtx context.Context) error {
		var stageErr error
		result, stageErr = uc.classifier.Classify(stageCtx, text)
		return stageErr
	})
	if err != nil {
		uc.logger.Warn("classification degraded", "document_id", doc.ID, "error", err)
		return domain.Classification{DocumentType: "unknown", Confidence: 0, Success: false}
	}
	return result
}

func (uc *AnalyzeDocumentUseCase) extractEntities(ctx context.Context, doc *domain.Document, text string) domain.EntitySet {
	var result domain.EntitySet
	err := uc.runStage(ctx, "extract_entities", func(stageCtx context.Context) error {
		var stageErr error
		result, stageErr = uc.entities.ExtractEntities(stageCtx, text)
		return stageErr
	})
	if err != nil {
		uc.logger.Warn("entity extraction degraded", "document_id", doc.ID, "error", err)
		degraded := domain.EntitySet{
			Dates:         []string{},
			Names:         []string{},
			Organizations: []string{},
			Numbers:       []string{},
			DomainTerms:   []string{},
			Success:       false,
		}
		degraded.Recount()
		return degraded
	}
	result.Recount()
	return result
}

func (uc *AnalyzeDocumentUseCase) detectLanguage(ctx context.Context, doc *domain.Document, text string) domain.LanguageGuess {
	var result domain.LanguageGuess
	err := uc.runStage(ctx, "detect_language", func(stageCtx context.Context) error {
		var stageErr error
		result, stageErr = uc.language.DetectLanguage(stageCtx, text)
		return stageErr
	})
	if err != nil {
		uc.logger.Warn("language detection degraded", "document_id", doc.ID, "error", err)
		return domain.LanguageGuess{PrimaryLanguage: "en", Confidence: 0}
	}
	return result
}

func (uc *AnalyzeDocumentUseCase) indexEntities(ctx context.Context, doc *domain.Document, entities domain.EntitySet) {
	if uc.graph == nil || !entities.Success || entities.EntityCount == 0 {
		return
	}
	if err := uc.graph.IndexEntities(ctx, doc, entities); err != nil {
		uc.logger.Warn("entity graph indexing failed", "document_id", doc.ID, "error", err)
	}
}

// runStage bounds a stage with the configured timeout and converts panics
// into errors so a misbehaving analyzer degrades instead of killing the run.
func (uc *AnalyzeDocumentUseCase) runStage(ctx context.Context, stage string, fn func(context.Context) error) error {
	stageCtx, cancel := context.WithTimeout(ctx, uc.stageTimeout)
	defer cancel()

	start := time.Now()
	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("stage %s panicked: %v", stage, r)
			}
		}()
		return fn(stageCtx)
	}()
	if uc.observer != nil {
		uc.observer.ObserveStage(stage, time.Since(start), err)
	}
	return err
}

func (uc *AnalyzeDocumentUseCase) markFailed(ctx context.Context, doc *domain.Document, cause error) (*domain.Document, error) {
	uc.logger.Error("document processing failed",
		"document_id", doc.ID, "error", cause)

	failCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), uc.stageTimeout)
	defer cancel()
	if err := uc.repo.UpdateStatus(failCtx, doc.ID, domain.StatusFailed, cause.Error()); err != nil {
		return nil, fmt.Errorf("mark document %d failed: %w", doc.ID, err)
	}

	doc.Status = domain.StatusFailed
	doc.Error = cause.Error()
	doc.UpdatedAt = time.Now().UTC()
	return doc, nil
}

func previewOf(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit])
}
