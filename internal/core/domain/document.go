package domain

import "time"

type DocumentStatus string

const (
	StatusUploaded   DocumentStatus = "uploaded"
	StatusProcessing DocumentStatus = "processing"
	StatusProcessed  DocumentStatus = "processed"
	StatusFailed     DocumentStatus = "failed"
)

// FileType is derived from the upload filename extension. The declared
// content type of an upload is advisory only and never overrides it.
type FileType string

const (
	FileTypePDF     FileType = "pdf"
	FileTypeDOCX    FileType = "docx"
	FileTypeXLSX    FileType = "xlsx"
	FileTypeImage   FileType = "image"
	FileTypeCSV     FileType = "csv"
	FileTypeText    FileType = "txt"
	FileTypeHTML    FileType = "html"
	FileTypeUnknown FileType = "unknown"
)

type Document struct {
	ID           int64          `json:"id"`
	Filename     string         `json:"filename"`
	FileType     FileType       `json:"file_type"`
	DeclaredType string         `json:"declared_type,omitempty"`
	StoragePath  string         `json:"storage_path"`
	SizeBytes    int64          `json:"size_bytes"`
	Status       DocumentStatus `json:"status"`
	Error        string         `json:"error,omitempty"`
	Analysis     *AIAnalysis    `json:"ai_analysis,omitempty"`
	UploadedAt   time.Time      `json:"uploaded_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// Terminal reports whether no further automatic transition applies.
func (s DocumentStatus) Terminal() bool {
	return s == StatusProcessed || s == StatusFailed
}

// Tabular reports whether the structured data pass applies to the type.
func (t FileType) Tabular() bool {
	return t == FileTypeCSV || t == FileTypeText || t == FileTypeXLSX
}
