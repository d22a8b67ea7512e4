package usecase

import (
	"context"
	"strings"
	"testing"

	"github.com/docpipe/docpipe/internal/core/domain"
	"github.com/docpipe/docpipe/internal/infrastructure/idgen"
	"github.com/docpipe/docpipe/internal/infrastructure/repository/memstore"
)

var allowedExtensions = []string{"pdf", "png", "jpg", "jpeg", "csv", "txt", "docx", "xlsx", "html"}

func newIngestFixture(t *testing.T) (*IngestDocumentUseCase, *memstore.Repository, *fakeStorage, *fakeQueue) {
	t.Helper()
	repo := memstore.New()
	storage := newFakeStorage()
	queue := &fakeQueue{}
	uc := NewIngestDocumentUseCase(repo, storage, queue, idgen.NewSequence(0), allowedExtensions, 1<<20)
	return uc, repo, storage, queue
}

func TestUploadStoresAndPublishes(t *testing.T) {
	uc, repo, storage, queue := newIngestFixture(t)

	body := "Invoice #42 due 2026-01-15"
	doc, err := uc.Upload(context.Background(), "invoice.txt", "text/plain", strings.NewReader(body))
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if doc.ID != 1 {
		t.Fatalf("expected first id 1, got %d", doc.ID)
	}
	if doc.Status != domain.StatusUploaded {
		t.Fatalf("expected status uploaded, got %s", doc.Status)
	}
	if doc.FileType != domain.FileTypeText {
		t.Fatalf("expected file type txt, got %s", doc.FileType)
	}
	if doc.SizeBytes != int64(len(body)) {
		t.Fatalf("expected size %d, got %d", len(body), doc.SizeBytes)
	}
	if doc.StoragePath != "1_invoice.txt" {
		t.Fatalf("unexpected storage key %q", doc.StoragePath)
	}
	if _, ok := storage.objects[doc.StoragePath]; !ok {
		t.Fatalf("stored object missing under %q", doc.StoragePath)
	}
	if len(queue.published) != 1 || queue.published[0] != doc.ID {
		t.Fatalf("expected publish for doc %d, got %v", doc.ID, queue.published)
	}

	stored, err := repo.GetByID(context.Background(), doc.ID)
	if err != nil {
		t.Fatalf("GetByID after upload: %v", err)
	}
	if stored.Status != domain.StatusUploaded {
		t.Fatalf("persisted status = %s, want uploaded", stored.Status)
	}
}

func TestUploadRejectsEmptyFile(t *testing.T) {
	uc, _, _, queue := newIngestFixture(t)

	_, err := uc.Upload(context.Background(), "empty.txt", "text/plain", strings.NewReader(""))
	if !domain.IsKind(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(queue.published) != 0 {
		t.Fatalf("rejected upload must not publish, got %v", queue.published)
	}

	// A rejected upload must not consume an id.
	doc, err := uc.Upload(context.Background(), "next.txt", "text/plain", strings.NewReader("ok"))
	if err != nil {
		t.Fatalf("Upload after rejection: %v", err)
	}
	if doc.ID != 1 {
		t.Fatalf("rejected upload consumed an id: next doc got %d", doc.ID)
	}
}

func TestUploadRejectsDisallowedExtension(t *testing.T) {
	uc, _, _, _ := newIngestFixture(t)

	_, err := uc.Upload(context.Background(), "payload.exe", "", strings.NewReader("MZ"))
	if !domain.IsKind(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	_, err = uc.Upload(context.Background(), "noextension", "", strings.NewReader("text"))
	if !domain.IsKind(err, domain.ErrValidation) {
		t.Fatalf("expected validation error for missing extension, got %v", err)
	}
}

func TestUploadRejectsOversizedFile(t *testing.T) {
	repo := memstore.New()
	uc := NewIngestDocumentUseCase(repo, newFakeStorage(), &fakeQueue{}, idgen.NewSequence(0), allowedExtensions, 16)

	_, err := uc.Upload(context.Background(), "big.txt", "text/plain", strings.NewReader(strings.Repeat("a", 17)))
	if !domain.IsKind(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestUploadSanitizesStorageKey(t *testing.T) {
	uc, _, storage, _ := newIngestFixture(t)

	doc, err := uc.Upload(context.Background(), "my report (final).txt", "text/plain", strings.NewReader("hello"))
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if doc.StoragePath != "1_my_report__final_.txt" {
		t.Fatalf("unexpected sanitized key %q", doc.StoragePath)
	}
	if _, ok := storage.objects[doc.StoragePath]; !ok {
		t.Fatalf("stored object missing under sanitized key")
	}
	// The original filename is preserved on the record.
	if doc.Filename != "my report (final).txt" {
		t.Fatalf("filename mangled: %q", doc.Filename)
	}
}

func TestUploadAssignsMonotonicIDs(t *testing.T) {
	uc, _, _, _ := newIngestFixture(t)

	var lastID int64
	for i := 0; i < 5; i++ {
		doc, err := uc.Upload(context.Background(), "doc.txt", "", strings.NewReader("content"))
		if err != nil {
			t.Fatalf("Upload %d: %v", i, err)
		}
		if doc.ID <= lastID {
			t.Fatalf("id %d not greater than previous %d", doc.ID, lastID)
		}
		lastID = doc.ID
	}
}
