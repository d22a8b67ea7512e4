package entities

import (
	"context"
	"regexp"
	"strings"

	"github.com/docpipe/docpipe/internal/core/domain"
)

// Pattern-based entity extraction. Categories run independently; a category
// matching nothing never blocks the others.
var (
	datePatterns = []*regexp.Regexp{
		regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}\b`),
		regexp.MustCompile(`\b\d{1,2}[/.]\d{1,2}[/.]\d{2,4}\b`),
		regexp.MustCompile(`\b(?:Jan(?:uary)?|Feb(?:ruary)?|Mar(?:ch)?|Apr(?:il)?|May|Jun(?:e)?|Jul(?:y)?|Aug(?:ust)?|Sep(?:tember)?|Oct(?:ober)?|Nov(?:ember)?|Dec(?:ember)?)\s+\d{1,2},?\s+\d{4}\b`),
	}

	namePattern = regexp.MustCompile(`\b[A-Z][a-z]+\s+[A-Z][a-z]+\b`)

	orgPattern = regexp.MustCompile(`\b[A-Z][A-Za-z&.\s]{0,40}?\s(?:Inc|LLC|Ltd|Corp|Corporation|Company|Co|GmbH|AG|plc)\.?\b`)

	numberPattern = regexp.MustCompile(`\$?\b\d+(?:,\d{3})*(?:\.\d+)?%?`)

	domainVocabulary = []string{
		"invoice", "contract", "agreement", "revenue", "expenses", "profit",
		"payment", "balance", "budget", "forecast", "liability", "asset",
		"deadline", "milestone", "deliverable", "stakeholder", "compliance",
	}
)

type Extractor struct{}

func New() *Extractor {
	return &Extractor{}
}

func (e *Extractor) ExtractEntities(_ context.Context, text string) (domain.EntitySet, error) {
	set := domain.EntitySet{
		Dates:         []string{},
		Names:         []string{},
		Organizations: []string{},
		DomainTerms:   []string{},
		Numbers:       []string{},
		Success:       true,
	}
	if strings.TrimSpace(text) == "" {
		return set, nil
	}

	for _, p := range datePatterns {
		set.Dates = append(set.Dates, p.FindAllString(text, -1)...)
	}
	set.Dates = dedupe(set.Dates)

	set.Names = dedupe(namePattern.FindAllString(text, -1))
	set.Organizations = dedupe(orgPattern.FindAllString(text, -1))
	set.Numbers = dedupe(numberPattern.FindAllString(text, -1))

	lower := strings.ToLower(text)
	for _, term := range domainVocabulary {
		if strings.Contains(lower, term) {
			set.DomainTerms = append(set.DomainTerms, term)
		}
	}

	set.Recount()
	return set, nil
}

// dedupe removes exact-string repeats while preserving first-seen order.
func dedupe(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]bool, len(values))
	for _, v := range values {
		if seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
