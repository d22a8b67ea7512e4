package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/docpipe/docpipe/internal/core/domain"
)

func newRepoWithMock(t *testing.T) (*DocumentRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	return &DocumentRepository{db: db}, mock, func() { _ = db.Close() }
}

func documentColumns() []string {
	return []string{
		"id", "filename", "file_type", "declared_type", "storage_path",
		"size_bytes", "status", "error_message", "analysis", "uploaded_at", "updated_at",
	}
}

func TestGetByIDReturnsDomainNotFound(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectQuery("SELECT id, filename, file_type").
		WithArgs(int64(404)).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), 404)
	if !domain.IsKind(err, domain.ErrDocumentNotFound) {
		t.Fatalf("expected ErrDocumentNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestGetByIDUnmarshalsAnalysis(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	now := time.Now().UTC()
	analysisJSON := []byte(`{"classification":{"document_type":"invoice","confidence":0.8,"success":true},"entities":{"dates":["2024-01-01"],"names":[],"organizations":[],"domain_terms":[],"numbers":[],"entity_count":1,"success":true},"language":{"primary_language":"en","confidence":0.7},"text_preview":"p","word_count":3,"processing_timestamp":"2024-01-02T00:00:00Z"}`)

	rows := sqlmock.NewRows(documentColumns()).AddRow(
		int64(1), "invoice.pdf", "pdf", "application/pdf", "1_invoice.pdf",
		int64(2048), "processed", "", analysisJSON, now, now,
	)
	mock.ExpectQuery("SELECT id, filename, file_type").
		WithArgs(int64(1)).
		WillReturnRows(rows)

	doc, err := repo.GetByID(context.Background(), 1)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if doc.Analysis == nil {
		t.Fatalf("expected attached analysis")
	}
	if doc.Analysis.Classification.DocumentType != "invoice" {
		t.Fatalf("unexpected classification: %+v", doc.Analysis.Classification)
	}
	if doc.Analysis.Entities.EntityCount != 1 {
		t.Fatalf("unexpected entity count: %d", doc.Analysis.Entities.EntityCount)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestUpdateStatusReturnsDomainNotFoundWhenNoRowsAffected(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectExec("UPDATE documents").
		WithArgs(int64(404), string(domain.StatusProcessing), "", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateStatus(context.Background(), 404, domain.StatusProcessing, "")
	if !domain.IsKind(err, domain.ErrDocumentNotFound) {
		t.Fatalf("expected ErrDocumentNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestCompleteProcessingWritesAnalysisAndStatusTogether(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectExec("UPDATE documents").
		WithArgs(int64(3), sqlmock.AnyArg(), string(domain.StatusProcessed), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	analysis := &domain.AIAnalysis{
		Classification: domain.Classification{DocumentType: "invoice", Confidence: 0.5, Success: true},
	}
	if err := repo.CompleteProcessing(context.Background(), 3, analysis); err != nil {
		t.Fatalf("CompleteProcessing() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestCompleteProcessingReturnsDomainNotFoundWhenNoRowsAffected(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectExec("UPDATE documents").
		WithArgs(int64(404), sqlmock.AnyArg(), string(domain.StatusProcessed), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.CompleteProcessing(context.Background(), 404, &domain.AIAnalysis{})
	if !domain.IsKind(err, domain.ErrDocumentNotFound) {
		t.Fatalf("expected ErrDocumentNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestClaimForProcessingConflictWhenHeldByAnotherRun(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	now := time.Now().UTC()
	mock.ExpectQuery("UPDATE documents").
		WithArgs(int64(9), string(domain.StatusProcessing), sqlmock.AnyArg(),
			string(domain.StatusUploaded), string(domain.StatusFailed)).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery("SELECT id, filename, file_type").
		WithArgs(int64(9)).
		WillReturnRows(sqlmock.NewRows(documentColumns()).AddRow(
			int64(9), "a.txt", "txt", "", "9_a.txt",
			int64(5), "processing", "", nil, now, now,
		))

	_, err := repo.ClaimForProcessing(context.Background(), 9)
	if !domain.IsKind(err, domain.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestClaimForProcessingReturnsProcessedDocumentUnchanged(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	now := time.Now().UTC()
	mock.ExpectQuery("UPDATE documents").
		WithArgs(int64(2), string(domain.StatusProcessing), sqlmock.AnyArg(),
			string(domain.StatusUploaded), string(domain.StatusFailed)).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery("SELECT id, filename, file_type").
		WithArgs(int64(2)).
		WillReturnRows(sqlmock.NewRows(documentColumns()).AddRow(
			int64(2), "b.csv", "csv", "", "2_b.csv",
			int64(64), "processed", "", nil, now, now,
		))

	doc, err := repo.ClaimForProcessing(context.Background(), 2)
	if err != nil {
		t.Fatalf("ClaimForProcessing() error = %v", err)
	}
	if doc.Status != domain.StatusProcessed {
		t.Fatalf("expected processed passthrough, got %s", doc.Status)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
