package content

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/docpipe/docpipe/internal/core/domain"
	"github.com/docpipe/docpipe/internal/core/ports"
)

// Strategy names recorded on the extraction result.
const (
	StrategyPDFNative      = "pdf-native"
	StrategyDOCXNative     = "docx-native"
	StrategyXLSXNative     = "xlsx-native"
	StrategyHTMLNative     = "html-native"
	StrategyOCR            = "ocr"
	StrategyPlainDecode    = "plain-decode"
	StrategyCSVFlatten     = "csv-flatten"
	StrategyFallbackDecode = "fallback-decode"
)

// Extractor converts stored document bytes to plain text. Each file type
// has a primary strategy; parser failures degrade to a best-effort byte
// decode where that can produce usable text.
type Extractor struct {
	storage ports.ObjectStorage
	ocr     ports.OCRService
}

func NewExtractor(storage ports.ObjectStorage, ocr ports.OCRService) *Extractor {
	return &Extractor{storage: storage, ocr: ocr}
}

func (e *Extractor) Extract(ctx context.Context, storagePath string, fileType domain.FileType) (ports.Extraction, error) {
	if fileType == domain.FileTypeImage {
		return e.extractImage(ctx, storagePath, fileType)
	}

	raw, err := e.readAll(ctx, storagePath)
	if err != nil {
		return ports.Extraction{}, err
	}

	var (
		text     string
		strategy string
		primary  error
	)

	switch fileType {
	case domain.FileTypePDF:
		text, primary = extractPDF(raw)
		strategy = StrategyPDFNative
	case domain.FileTypeDOCX:
		text, primary = extractDOCX(raw)
		strategy = StrategyDOCXNative
	case domain.FileTypeXLSX:
		text, primary = extractXLSX(raw)
		strategy = StrategyXLSXNative
	case domain.FileTypeHTML:
		text, primary = extractHTML(raw)
		strategy = StrategyHTMLNative
	case domain.FileTypeCSV:
		text, primary = flattenCSV(raw)
		strategy = StrategyCSVFlatten
	case domain.FileTypeText:
		text, primary = decodePlain(raw)
		strategy = StrategyPlainDecode
	default:
		text, primary = decodePlain(raw)
		strategy = StrategyPlainDecode
	}

	if primary != nil {
		fallback, fbErr := fallbackDecode(raw)
		if fbErr != nil {
			return ports.Extraction{}, domain.WrapError(domain.ErrExtraction, "extract content",
				fmt.Errorf("%s: %w (fallback: %w)", strategy, primary, fbErr))
		}
		text = fallback
		strategy = StrategyFallbackDecode
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return ports.Extraction{}, domain.WrapError(domain.ErrExtraction, "extract content",
			errors.New("no text extracted"))
	}
	return ports.Extraction{Text: text, Strategy: strategy}, nil
}

func (e *Extractor) extractImage(ctx context.Context, storagePath string, fileType domain.FileType) (ports.Extraction, error) {
	if e.ocr == nil {
		return ports.Extraction{}, domain.WrapError(domain.ErrExtraction, "extract content",
			errors.New("ocr service not configured"))
	}
	text, err := e.ocr.Process(ctx, storagePath, fileType)
	if err != nil {
		return ports.Extraction{}, domain.WrapError(domain.ErrExtraction, "extract content", err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return ports.Extraction{}, domain.WrapError(domain.ErrExtraction, "extract content",
			errors.New("ocr returned no text"))
	}
	return ports.Extraction{Text: text, Strategy: StrategyOCR}, nil
}

func (e *Extractor) readAll(ctx context.Context, storagePath string) ([]byte, error) {
	reader, err := e.storage.Open(ctx, storagePath)
	if err != nil {
		return nil, domain.WrapError(domain.ErrExtraction, "extract content",
			fmt.Errorf("open source document: %w", err))
	}
	defer reader.Close()

	raw, err := io.ReadAll(reader)
	if err != nil {
		return nil, domain.WrapError(domain.ErrExtraction, "extract content",
			fmt.Errorf("read source document: %w", err))
	}
	return raw, nil
}

func decodePlain(raw []byte) (string, error) {
	if !utf8.Valid(raw) {
		return "", errors.New("not valid utf-8")
	}
	return string(raw), nil
}

// fallbackDecode salvages readable UTF-8 from arbitrary bytes. Content that
// is mostly binary is rejected instead of being surfaced as garbled text.
func fallbackDecode(raw []byte) (string, error) {
	cleaned := strings.ToValidUTF8(string(raw), "")

	var b strings.Builder
	printable := 0
	total := 0
	for _, r := range cleaned {
		total++
		if unicode.IsPrint(r) || unicode.IsSpace(r) {
			printable++
			b.WriteRune(r)
		}
	}
	if total == 0 || float64(printable)/float64(total) < 0.5 {
		return "", errors.New("content is not decodable text")
	}

	text := strings.TrimSpace(b.String())
	if text == "" {
		return "", errors.New("content is not decodable text")
	}
	return text, nil
}
