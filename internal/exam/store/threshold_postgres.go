package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"sebexam/internal/exam/models"
)

// PostgresThresholds persists one pass-score record per exam type.
type PostgresThresholds struct {
	db *sql.DB
}

// NewPostgresThresholds constructs a PostgreSQL-backed threshold store.
func NewPostgresThresholds(db *sql.DB) *PostgresThresholds {
	return &PostgresThresholds{db: db}
}

// GetOrCreate returns the threshold for the exam type, creating the
// default record on first read. The no-op DO UPDATE makes the insert
// return the surviving row, so racing first-reads resolve to one record
// without an insert-check-retry loop.
func (s *PostgresThresholds) GetOrCreate(ctx context.Context, examType models.ExamType) (models.Threshold, error) {
	var threshold models.Threshold
	var examTypeRaw string
	var updatedAt sql.NullTime
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO exam_pass_scores (exam_type, pass_score, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (exam_type) DO UPDATE SET
			exam_type = EXCLUDED.exam_type
		RETURNING exam_type, pass_score, created_at, updated_at
	`, examType.String(), float64(models.DefaultPassScore), time.Now()).Scan(
		&examTypeRaw, &threshold.PassScore, &threshold.CreatedAt, &updatedAt,
	)
	if err != nil {
		return models.Threshold{}, fmt.Errorf("get or create pass score: %w", err)
	}
	threshold.ExamType = models.ExamType(examTypeRaw)
	if updatedAt.Valid {
		threshold.UpdatedAt = updatedAt.Time
	}
	return threshold, nil
}

// Set upserts the pass score for the exam type and bumps updated_at.
func (s *PostgresThresholds) Set(ctx context.Context, examType models.ExamType, passScore float64) (models.Threshold, error) {
	if err := models.ValidatePassScore(passScore); err != nil {
		return models.Threshold{}, err
	}
	now := time.Now()
	var threshold models.Threshold
	var examTypeRaw string
	var updatedAt sql.NullTime
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO exam_pass_scores (exam_type, pass_score, created_at, updated_at)
		VALUES ($1, $2, $3, $3)
		ON CONFLICT (exam_type) DO UPDATE SET
			pass_score = EXCLUDED.pass_score,
			updated_at = EXCLUDED.updated_at
		RETURNING exam_type, pass_score, created_at, updated_at
	`, examType.String(), passScore, now).Scan(
		&examTypeRaw, &threshold.PassScore, &threshold.CreatedAt, &updatedAt,
	)
	if err != nil {
		return models.Threshold{}, fmt.Errorf("set pass score: %w", err)
	}
	threshold.ExamType = models.ExamType(examTypeRaw)
	if updatedAt.Valid {
		threshold.UpdatedAt = updatedAt.Time
	}
	return threshold, nil
}

// List returns every configured threshold ordered by exam type.
func (s *PostgresThresholds) List(ctx context.Context) ([]models.Threshold, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT exam_type, pass_score, created_at, updated_at
		FROM exam_pass_scores
		ORDER BY exam_type
	`)
	if err != nil {
		return nil, fmt.Errorf("list pass scores: %w", err)
	}
	defer rows.Close()

	var out []models.Threshold
	for rows.Next() {
		var threshold models.Threshold
		var examTypeRaw string
		var updatedAt sql.NullTime
		if err := rows.Scan(&examTypeRaw, &threshold.PassScore, &threshold.CreatedAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan pass score: %w", err)
		}
		threshold.ExamType = models.ExamType(examTypeRaw)
		if updatedAt.Valid {
			threshold.UpdatedAt = updatedAt.Time
		}
		out = append(out, threshold)
	}
	return out, rows.Err()
}
