package idgen

import (
	"context"
	"sync"
	"testing"
)

func TestNextIsMonotonic(t *testing.T) {
	seq := NewSequence(0)

	prev := int64(0)
	for i := 0; i < 100; i++ {
		id, err := seq.Next(context.Background())
		if err != nil {
			t.Fatalf("Next() error = %v", err)
		}
		if id <= prev {
			t.Fatalf("expected monotonic ids, got %d after %d", id, prev)
		}
		prev = id
	}
}

func TestNextIsUniqueUnderConcurrency(t *testing.T) {
	seq := NewSequence(100)

	const n = 500
	ids := make(chan int64, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, _ := seq.Next(context.Background())
			ids <- id
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[int64]bool, n)
	for id := range ids {
		if id <= 100 {
			t.Fatalf("id %d not greater than seed", id)
		}
		if seen[id] {
			t.Fatalf("duplicate id %d", id)
		}
		seen[id] = true
	}
}
