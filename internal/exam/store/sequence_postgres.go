package store

import (
	"context"
	"database/sql"
	"fmt"

	"sebexam/internal/exam/models"
)

// PostgresSequences allocates exam numbers from a counter row per
// (exam type, year). The allocation is a single atomic upsert, so N
// concurrent registrations of the same type always receive N distinct
// sequence numbers — never the count-then-create race.
type PostgresSequences struct {
	db *sql.DB
}

// NewPostgresSequences constructs a PostgreSQL-backed sequence allocator.
func NewPostgresSequences(db *sql.DB) *PostgresSequences {
	return &PostgresSequences{db: db}
}

// Next increments and returns the counter for the exam type and year.
func (s *PostgresSequences) Next(ctx context.Context, examType models.ExamType, year int) (int, error) {
	var seq int
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO exam_sequences (exam_type, year, last_seq)
		VALUES ($1, $2, 1)
		ON CONFLICT (exam_type, year) DO UPDATE SET
			last_seq = exam_sequences.last_seq + 1
		RETURNING last_seq
	`, examType.String(), year).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("next exam sequence: %w", err)
	}
	return seq, nil
}
