package usecase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/docpipe/docpipe/internal/core/domain"
	"github.com/docpipe/docpipe/internal/core/ports"
)

// IngestDocumentUseCase is the ingestion gate: it validates an upload,
// assigns an id, persists the raw bytes and admits the document in state
// uploaded. Validation happens before an id is consumed so rejected uploads
// never burn sequence numbers.
type IngestDocumentUseCase struct {
	repo     ports.DocumentRepository
	storage  ports.ObjectStorage
	queue    ports.MessageQueue
	sequence ports.SequenceGenerator

	allowed  map[string]domain.FileType
	maxBytes int64
}

func NewIngestDocumentUseCase(
	repo ports.DocumentRepository,
	storage ports.ObjectStorage,
	queue ports.MessageQueue,
	sequence ports.SequenceGenerator,
	allowedExtensions []string,
	maxBytes int64,
) *IngestDocumentUseCase {
	allowed := make(map[string]domain.FileType, len(allowedExtensions))
	for _, ext := range allowedExtensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext != "" {
			allowed[ext] = fileTypeForExtension(ext)
		}
	}
	if maxBytes <= 0 {
		maxBytes = 32 << 20
	}
	return &IngestDocumentUseCase{
		repo:     repo,
		storage:  storage,
		queue:    queue,
		sequence: sequence,
		allowed:  allowed,
		maxBytes: maxBytes,
	}
}

func (uc *IngestDocumentUseCase) Upload(
	ctx context.Context,
	filename, declaredType string,
	body io.Reader,
) (*domain.Document, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	fileType, ok := uc.allowed[ext]
	if !ok {
		return nil, domain.WrapError(domain.ErrValidation, "upload",
			fmt.Errorf("extension %q is not allowed", ext))
	}

	raw, err := io.ReadAll(io.LimitReader(body, uc.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read upload body: %w", err)
	}
	if len(raw) == 0 {
		return nil, domain.WrapError(domain.ErrValidation, "upload",
			errors.New("empty file"))
	}
	if int64(len(raw)) > uc.maxBytes {
		return nil, domain.WrapError(domain.ErrValidation, "upload",
			fmt.Errorf("file exceeds %d bytes", uc.maxBytes))
	}

	// Declared content type is advisory only: the extension decides.
	if declaredType != "" && !declaredTypeMatches(declaredType, fileType) {
		slog.Warn("declared content type does not match extension",
			"filename", filename, "declared", declaredType, "file_type", string(fileType))
	}

	id, err := uc.sequence.Next(ctx)
	if err != nil {
		return nil, fmt.Errorf("assign document id: %w", err)
	}

	storageKey := fmt.Sprintf("%d_%s", id, sanitizeFilename(filename))
	size, err := uc.storage.Save(ctx, storageKey, bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("save to object storage: %w", err)
	}

	now := time.Now().UTC()
	doc := &domain.Document{
		ID:           id,
		Filename:     filename,
		FileType:     fileType,
		DeclaredType: declaredType,
		StoragePath:  storageKey,
		SizeBytes:    size,
		Status:       domain.StatusUploaded,
		UploadedAt:   now,
		UpdatedAt:    now,
	}

	if err := uc.repo.Create(ctx, doc); err != nil {
		return nil, fmt.Errorf("create document record: %w", err)
	}

	if uc.queue != nil {
		if err := uc.queue.PublishDocumentUploaded(ctx, doc.ID); err != nil {
			return nil, fmt.Errorf("publish analyze event: %w", err)
		}
	}

	return doc, nil
}

func fileTypeForExtension(ext string) domain.FileType {
	switch ext {
	case "pdf":
		return domain.FileTypePDF
	case "docx":
		return domain.FileTypeDOCX
	case "xlsx":
		return domain.FileTypeXLSX
	case "png", "jpg", "jpeg":
		return domain.FileTypeImage
	case "csv":
		return domain.FileTypeCSV
	case "txt":
		return domain.FileTypeText
	case "html", "htm":
		return domain.FileTypeHTML
	default:
		return domain.FileTypeUnknown
	}
}

func declaredTypeMatches(declaredType string, fileType domain.FileType) bool {
	declared := strings.ToLower(declaredType)
	switch fileType {
	case domain.FileTypePDF:
		return strings.Contains(declared, "pdf")
	case domain.FileTypeImage:
		return strings.HasPrefix(declared, "image/")
	case domain.FileTypeCSV:
		return strings.Contains(declared, "csv") || strings.HasPrefix(declared, "text/")
	case domain.FileTypeText:
		return strings.HasPrefix(declared, "text/")
	case domain.FileTypeHTML:
		return strings.Contains(declared, "html")
	case domain.FileTypeDOCX, domain.FileTypeXLSX:
		return strings.Contains(declared, "officedocument") || strings.Contains(declared, "zip")
	default:
		return true
	}
}

func sanitizeFilename(name string) string {
	base := filepath.Base(name)
	base = strings.ReplaceAll(base, " ", "_")
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r
		case r >= 'A' && r <= 'Z':
			return r
		case r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)
	if base == "" {
		return "document.bin"
	}
	return base
}
