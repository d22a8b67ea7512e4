package classifier

import (
	"context"
	"strings"

	"github.com/docpipe/docpipe/internal/core/domain"
)

// Keyword-scored document-type model. Each category counts occurrences of
// its keyword set in the lowercased text; the top score is normalized with
// score/(score+smoothing), which grows with keyword density and stays
// strictly below 1.0.
const smoothing = 3.0

// category order is the tie-break priority: more specific types first.
// Equal top scores resolve to the earlier category, never to map order.
var categories = []struct {
	name     string
	keywords []string
}{
	{"invoice", []string{"invoice", "invoice number", "amount due", "bill to", "payment due", "subtotal", "total due", "remit"}},
	{"contract", []string{"agreement", "contract", "party", "parties", "hereinafter", "terms and conditions", "hereby", "obligations", "termination clause"}},
	{"resume", []string{"resume", "curriculum vitae", "work experience", "education", "skills", "references", "employment history", "objective"}},
	{"financial_report", []string{"revenue", "expenses", "profit", "balance sheet", "cash flow", "fiscal", "quarterly", "earnings", "profit margin"}},
	{"report", []string{"report", "summary", "findings", "analysis", "conclusion", "introduction", "methodology", "results"}},
	{"letter", []string{"dear", "sincerely", "regards", "yours truly", "to whom it may concern"}},
}

type Classifier struct{}

func New() *Classifier {
	return &Classifier{}
}

func (c *Classifier) Classify(_ context.Context, text string) (domain.Classification, error) {
	if strings.TrimSpace(text) == "" {
		return domain.Classification{DocumentType: "unknown", Confidence: 0.0, Success: false}, nil
	}

	lower := strings.ToLower(text)

	best := -1
	bestScore := 0
	for i, cat := range categories {
		score := 0
		for _, kw := range cat.keywords {
			score += strings.Count(lower, kw)
		}
		// Strictly greater: ties keep the earlier, more specific category.
		if score > bestScore {
			best = i
			bestScore = score
		}
	}

	if best < 0 {
		return domain.Classification{DocumentType: "unknown", Confidence: 0.0, Success: false}, nil
	}

	confidence := float64(bestScore) / (float64(bestScore) + smoothing)
	return domain.Classification{
		DocumentType: categories[best].name,
		Confidence:   confidence,
		Success:      true,
	}, nil
}
