package structured

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/docpipe/docpipe/internal/core/domain"
)

// Extractor parses tabular content from raw bytes. It is independent of
// text extraction so it can succeed even when the text pass degrades.
type Extractor struct{}

func New() *Extractor {
	return &Extractor{}
}

func (e *Extractor) ExtractStructured(_ context.Context, raw []byte, fileType domain.FileType) (*domain.StructuredData, error) {
	switch fileType {
	case domain.FileTypeCSV:
		return parseCSV(raw, "csv")
	case domain.FileTypeText:
		if !looksLikeCSV(raw) {
			return nil, errors.New("text content is not csv-formatted")
		}
		return parseCSV(raw, "csv")
	case domain.FileTypeXLSX:
		return parseXLSX(raw)
	default:
		return nil, fmt.Errorf("no structured strategy for file type %s", fileType)
	}
}

func parseCSV(raw []byte, dataType string) (*domain.StructuredData, error) {
	reader := csv.NewReader(bytes.NewReader(raw))
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	if len(records) == 0 {
		return nil, errors.New("csv has no header row")
	}

	headers := records[0]
	data := &domain.StructuredData{
		DataType: dataType,
		Headers:  headers,
	}

	// Malformed rows (column count mismatch) are skipped, not fatal.
	for _, record := range records[1:] {
		if len(record) != len(headers) {
			continue
		}
		data.Rows = append(data.Rows, record)
	}
	data.TotalRows = len(data.Rows)
	if data.TotalRows == 0 {
		return nil, errors.New("csv has no valid data rows")
	}

	data.Success = true
	return data, nil
}

func parseXLSX(raw []byte) (*domain.StructuredData, error) {
	f, err := excelize.OpenReader(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("xlsx has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, errors.New("xlsx sheet has no header row")
	}

	headers := rows[0]
	data := &domain.StructuredData{
		DataType: "xlsx",
		Headers:  headers,
	}
	for _, row := range rows[1:] {
		if len(row) > len(headers) {
			continue
		}
		// Trailing empty cells are dropped by the reader; pad them back.
		for len(row) < len(headers) {
			row = append(row, "")
		}
		data.Rows = append(data.Rows, row)
	}
	data.TotalRows = len(data.Rows)
	if data.TotalRows == 0 {
		return nil, errors.New("xlsx sheet has no data rows")
	}

	data.Success = true
	return data, nil
}

// looksLikeCSV is a cheap sniff for CSV-formatted plain text: at least two
// lines with a consistent comma-separated shape.
func looksLikeCSV(raw []byte) bool {
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	if len(lines) < 2 {
		return false
	}
	first := strings.Count(lines[0], ",")
	if first == 0 {
		return false
	}
	matching := 0
	for _, line := range lines[1:] {
		if strings.Count(line, ",") == first {
			matching++
		}
	}
	return matching > 0
}
