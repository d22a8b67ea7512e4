package entities

import (
	"context"
	"testing"
)

func TestExtractEntitiesCategories(t *testing.T) {
	e := New()

	text := "On 2024-03-15 John Smith signed the agreement with Acme Widgets Inc. " +
		"The invoice total was $12,500.00 due by April 1, 2024."
	set, err := e.ExtractEntities(context.Background(), text)
	if err != nil {
		t.Fatalf("ExtractEntities() error = %v", err)
	}
	if !set.Success {
		t.Fatalf("expected success")
	}
	if len(set.Dates) < 2 {
		t.Fatalf("expected ISO and written dates, got %v", set.Dates)
	}
	if len(set.Names) == 0 || set.Names[0] != "John Smith" {
		t.Fatalf("expected John Smith in names, got %v", set.Names)
	}
	if len(set.Organizations) == 0 {
		t.Fatalf("expected organization match, got %v", set.Organizations)
	}
	if len(set.DomainTerms) == 0 {
		t.Fatalf("expected domain terms (agreement, invoice), got %v", set.DomainTerms)
	}
	if len(set.Numbers) == 0 {
		t.Fatalf("expected numeric tokens, got %v", set.Numbers)
	}
}

func TestExtractEntitiesCountMatchesCategorySum(t *testing.T) {
	e := New()

	set, err := e.ExtractEntities(context.Background(),
		"Jane Doe paid $300 on 01/02/2024 for the contract.")
	if err != nil {
		t.Fatalf("ExtractEntities() error = %v", err)
	}
	sum := len(set.Dates) + len(set.Names) + len(set.Organizations) +
		len(set.DomainTerms) + len(set.Numbers)
	if set.EntityCount != sum {
		t.Fatalf("entity_count %d != category sum %d", set.EntityCount, sum)
	}
}

func TestExtractEntitiesDeduplicatesPreservingOrder(t *testing.T) {
	e := New()

	set, err := e.ExtractEntities(context.Background(),
		"Due 2024-01-31. Reminder: payment due 2024-01-31. First noted 2023-12-01.")
	if err != nil {
		t.Fatalf("ExtractEntities() error = %v", err)
	}
	if len(set.Dates) != 2 {
		t.Fatalf("expected duplicate date collapsed, got %v", set.Dates)
	}
	if set.Dates[0] != "2024-01-31" || set.Dates[1] != "2023-12-01" {
		t.Fatalf("expected first-seen order preserved, got %v", set.Dates)
	}
}

func TestExtractEntitiesEmptyText(t *testing.T) {
	e := New()

	set, err := e.ExtractEntities(context.Background(), "   ")
	if err != nil {
		t.Fatalf("ExtractEntities() error = %v", err)
	}
	if set.EntityCount != 0 || !set.Success {
		t.Fatalf("expected empty successful set, got %+v", set)
	}
}
