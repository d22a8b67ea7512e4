package idgen

import (
	"context"
	"sync/atomic"
)

// Sequence is an in-process monotonic id generator. Ids are never reused:
// the counter only moves forward, including across document deletes.
type Sequence struct {
	last atomic.Int64
}

// NewSequence starts handing out ids strictly greater than seed.
func NewSequence(seed int64) *Sequence {
	s := &Sequence{}
	s.last.Store(seed)
	return s
}

func (s *Sequence) Next(context.Context) (int64, error) {
	return s.last.Add(1), nil
}
