package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/docpipe/docpipe/internal/core/domain"
)

type DocumentRepository struct {
	db *sql.DB
}

func NewDocumentRepository(db *sql.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (r *DocumentRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026082501)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE SEQUENCE IF NOT EXISTS document_id_seq;

CREATE TABLE IF NOT EXISTS documents (
	id BIGINT PRIMARY KEY,
	filename TEXT NOT NULL,
	file_type TEXT NOT NULL,
	declared_type TEXT,
	storage_path TEXT NOT NULL,
	size_bytes BIGINT NOT NULL DEFAULT 0,
	status TEXT NOT NULL,
	error_message TEXT,
	analysis JSONB,
	uploaded_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_documents_status ON documents(status);
CREATE INDEX IF NOT EXISTS idx_documents_uploaded_at ON documents(uploaded_at DESC);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

func (r *DocumentRepository) Create(ctx context.Context, doc *domain.Document) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO documents (
	id, filename, file_type, declared_type, storage_path, size_bytes, status, error_message, uploaded_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
`,
		doc.ID, doc.Filename, string(doc.FileType), doc.DeclaredType, doc.StoragePath,
		doc.SizeBytes, string(doc.Status), doc.Error, doc.UploadedAt, doc.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

func (r *DocumentRepository) GetByID(ctx context.Context, id int64) (*domain.Document, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, filename, file_type, declared_type, storage_path, size_bytes, status, error_message, analysis, uploaded_at, updated_at
FROM documents
WHERE id = $1
`, id)
	return scanDocument(row, id)
}

func (r *DocumentRepository) UpdateStatus(ctx context.Context, id int64, status domain.DocumentStatus, errMessage string) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE documents
SET status = $2, error_message = $3, updated_at = $4
WHERE id = $1
`, id, string(status), errMessage, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update document status: %w", err)
	}
	return requireRowAffected(res, "update document status", id)
}

// CompleteProcessing lands the terminal success state in a single UPDATE so
// a document can never be observed with an analysis but without processed
// status.
func (r *DocumentRepository) CompleteProcessing(ctx context.Context, id int64, analysis *domain.AIAnalysis) error {
	payload, err := json.Marshal(analysis)
	if err != nil {
		return fmt.Errorf("marshal analysis: %w", err)
	}
	res, err := r.db.ExecContext(ctx, `
UPDATE documents
SET analysis = $2, status = $3, error_message = '', updated_at = $4
WHERE id = $1
`, id, payload, string(domain.StatusProcessed), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("complete processing: %w", err)
	}
	return requireRowAffected(res, "complete processing", id)
}

func (r *DocumentRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	return requireRowAffected(res, "delete document", id)
}

// ClaimForProcessing relies on a conditional UPDATE so concurrent workers
// cannot both move the same document into processing.
func (r *DocumentRepository) ClaimForProcessing(ctx context.Context, id int64) (*domain.Document, error) {
	row := r.db.QueryRowContext(ctx, `
UPDATE documents
SET status = $2, error_message = '', updated_at = $3
WHERE id = $1 AND status IN ($4, $5)
RETURNING id, filename, file_type, declared_type, storage_path, size_bytes, status, error_message, analysis, uploaded_at, updated_at
`, id, string(domain.StatusProcessing), time.Now().UTC(), string(domain.StatusUploaded), string(domain.StatusFailed))

	doc, err := scanDocument(row, id)
	if err == nil {
		return doc, nil
	}
	if !domain.IsKind(err, domain.ErrDocumentNotFound) {
		return nil, err
	}

	// No claimable row: the document is missing, processed, or held by a
	// concurrent run. Disambiguate with a plain read.
	current, getErr := r.GetByID(ctx, id)
	if getErr != nil {
		return nil, getErr
	}
	if current.Status == domain.StatusProcessing {
		return nil, domain.WrapError(domain.ErrConflict, "claim for processing", fmt.Errorf("document %d held by another run", id))
	}
	return current, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner, id int64) (*domain.Document, error) {
	var doc domain.Document
	var fileType, status string
	var declaredType, errMessage sql.NullString
	var analysisRaw []byte

	err := row.Scan(
		&doc.ID, &doc.Filename, &fileType, &declaredType, &doc.StoragePath,
		&doc.SizeBytes, &status, &errMessage, &analysisRaw, &doc.UploadedAt, &doc.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrDocumentNotFound, "fetch document", fmt.Errorf("id %d", id))
		}
		return nil, fmt.Errorf("scan document: %w", err)
	}

	doc.FileType = domain.FileType(fileType)
	doc.Status = domain.DocumentStatus(status)
	doc.DeclaredType = declaredType.String
	doc.Error = errMessage.String

	if len(analysisRaw) > 0 {
		var analysis domain.AIAnalysis
		if err := json.Unmarshal(analysisRaw, &analysis); err != nil {
			return nil, fmt.Errorf("unmarshal analysis: %w", err)
		}
		doc.Analysis = &analysis
	}
	return &doc, nil
}

func requireRowAffected(res sql.Result, operation string, id int64) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", operation, err)
	}
	if affected == 0 {
		return domain.WrapError(domain.ErrDocumentNotFound, operation, fmt.Errorf("id %d", id))
	}
	return nil
}
