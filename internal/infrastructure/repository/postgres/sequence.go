package postgres

import (
	"context"
	"database/sql"
	"fmt"
)

// Sequence assigns document ids from a database sequence so ids stay
// monotonic and unused across restarts and multiple api instances.
type Sequence struct {
	db *sql.DB
}

func NewSequence(db *sql.DB) *Sequence {
	return &Sequence{db: db}
}

func (s *Sequence) Next(ctx context.Context) (int64, error) {
	var id int64
	if err := s.db.QueryRowContext(ctx, `SELECT nextval('document_id_seq')`).Scan(&id); err != nil {
		return 0, fmt.Errorf("next document id: %w", err)
	}
	return id, nil
}
