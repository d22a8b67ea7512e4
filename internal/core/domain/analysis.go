package domain

import (
	"fmt"
	"strings"
	"time"
)

// AIAnalysis is the aggregated pipeline result. It is owned by its Document
// and only ever attached as a whole once all stages have been attempted;
// there is no partially written analysis.
type AIAnalysis struct {
	Classification Classification  `json:"classification"`
	Entities       EntitySet       `json:"entities"`
	Language       LanguageGuess   `json:"language"`
	StructuredData *StructuredData `json:"structured_data,omitempty"`
	TextPreview    string          `json:"text_preview"`
	WordCount      int             `json:"word_count"`
	ProcessedAt    time.Time       `json:"processing_timestamp"`
}

// Classification holds the document-type label for a document.
// Confidence is a raw fraction in [0,1], never a percentage.
type Classification struct {
	DocumentType string  `json:"document_type"`
	Confidence   float64 `json:"confidence"`
	Success      bool    `json:"success"`
}

type EntitySet struct {
	Dates         []string `json:"dates"`
	Names         []string `json:"names"`
	Organizations []string `json:"organizations"`
	DomainTerms   []string `json:"domain_terms"`
	Numbers       []string `json:"numbers"`
	EntityCount   int      `json:"entity_count"`
	Success       bool     `json:"success"`
}

// Recount recomputes EntityCount from the category lists. EntityCount must
// always equal the sum of category lengths after deduplication.
func (e *EntitySet) Recount() {
	e.EntityCount = len(e.Dates) + len(e.Names) + len(e.Organizations) +
		len(e.DomainTerms) + len(e.Numbers)
}

type LanguageGuess struct {
	PrimaryLanguage string  `json:"primary_language"`
	Confidence      float64 `json:"confidence"`
}

type StructuredData struct {
	DataType  string     `json:"data_type"`
	Headers   []string   `json:"headers"`
	Rows      [][]string `json:"-"`
	TotalRows int        `json:"total_rows"`
	Success   bool       `json:"success"`
}

// Summary renders a short human-readable description that the pipeline
// appends to extracted text before classification.
func (s *StructuredData) Summary() string {
	if s == nil || !s.Success {
		return ""
	}
	return fmt.Sprintf("Structured data (%s): %d rows with columns %s.",
		s.DataType, s.TotalRows, strings.Join(s.Headers, ", "))
}
