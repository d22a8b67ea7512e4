package classifier

import (
	"context"
	"strings"
	"testing"
)

func TestClassifyEmptyTextReturnsUnknown(t *testing.T) {
	c := New()

	for _, text := range []string{"", "   ", "\n\t"} {
		cls, err := c.Classify(context.Background(), text)
		if err != nil {
			t.Fatalf("Classify(%q) error = %v", text, err)
		}
		if cls.DocumentType != "unknown" || cls.Confidence != 0.0 || cls.Success {
			t.Fatalf("expected unknown/0.0/failure for empty text, got %+v", cls)
		}
	}
}

func TestClassifyInvoice(t *testing.T) {
	c := New()

	cls, err := c.Classify(context.Background(), "Invoice Number 42. Amount due: $100. Bill to: ACME Corp. Payment due on receipt.")
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if cls.DocumentType != "invoice" {
		t.Fatalf("expected invoice, got %s", cls.DocumentType)
	}
	if !cls.Success {
		t.Fatalf("expected success")
	}
}

func TestClassifyConfidenceBounds(t *testing.T) {
	c := New()

	texts := []string{
		"invoice",
		strings.Repeat("invoice amount due subtotal ", 50),
		"a plain sentence with no category words at all",
	}
	for _, text := range texts {
		cls, err := c.Classify(context.Background(), text)
		if err != nil {
			t.Fatalf("Classify() error = %v", err)
		}
		if cls.Confidence < 0.0 || cls.Confidence >= 1.0 {
			t.Fatalf("confidence out of [0,1) for %q: %v", text, cls.Confidence)
		}
	}
}

func TestClassifyConfidenceGrowsWithKeywordDensity(t *testing.T) {
	c := New()

	sparse, _ := c.Classify(context.Background(), "invoice")
	dense, _ := c.Classify(context.Background(), "invoice invoice amount due subtotal total due")
	if dense.Confidence <= sparse.Confidence {
		t.Fatalf("expected confidence to grow with density: sparse=%v dense=%v",
			sparse.Confidence, dense.Confidence)
	}
}

func TestClassifyTieBreakPrefersEarlierCategory(t *testing.T) {
	c := New()

	// One hit each for invoice and report: invoice wins by priority order.
	cls, err := c.Classify(context.Background(), "invoice findings")
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if cls.DocumentType != "invoice" {
		t.Fatalf("expected tie to resolve to invoice, got %s", cls.DocumentType)
	}
}

func TestClassifyNoKeywordsReturnsUnknown(t *testing.T) {
	c := New()

	cls, err := c.Classify(context.Background(), "zebra giraffe elephant")
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if cls.DocumentType != "unknown" || cls.Success {
		t.Fatalf("expected unknown for keyword-free text, got %+v", cls)
	}
}
