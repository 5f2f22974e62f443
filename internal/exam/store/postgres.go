package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"sebexam/internal/exam/models"
	"sebexam/internal/exam/scoring"
	"sebexam/pkg/platform/sentinel"
)

// Postgres persists exam records relationally: one row per exam, one row
// per trail entry. Trail tables are append-only; nothing ever updates or
// deletes an entry row while its exam exists.
type Postgres struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed exam store.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (s *Postgres) Create(ctx context.Context, exam *models.Exam) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO exams (id, exam_number, exam_type, exam_date, exam_status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, exam.ID, exam.ExamNumber, exam.Type.String(), exam.Date, exam.Status.String(), exam.CreatedAt, exam.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("create exam: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, id uuid.UUID) (*models.Exam, error) {
	exam, err := scanExam(s.db.QueryRowContext(ctx, `
		SELECT id, exam_number, exam_type, exam_date, exam_status, created_at, updated_at
		FROM exams
		WHERE id = $1
	`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find exam: %w", err)
	}
	if err := s.loadTrails(ctx, s.db, exam); err != nil {
		return nil, err
	}
	return exam, nil
}

// ApplyScoreUpdate locks the exam row, replays the aggregate from its
// trails, applies the update, and persists the new entries plus the
// derived status in the same transaction. Concurrent submissions for one
// record serialize on the row lock, so no composite is ever computed from
// a stale read.
func (s *Postgres) ApplyScoreUpdate(ctx context.Context, examID uuid.UUID, update scoring.Update, uploadedBy uuid.UUID, threshold float64, now time.Time) (*models.Exam, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin score update: %w", err)
	}
	defer tx.Rollback()

	exam, err := scanExam(tx.QueryRowContext(ctx, `
		SELECT id, exam_number, exam_type, exam_date, exam_status, created_at, updated_at
		FROM exams
		WHERE id = $1
		FOR UPDATE
	`, examID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("lock exam: %w", err)
	}
	if err := s.loadTrails(ctx, tx, exam); err != nil {
		return nil, err
	}

	if err := scoring.Apply(exam, update, uploadedBy, threshold, now); err != nil {
		return nil, err
	}

	for _, category := range models.InputCategories {
		if update.Score(category) == nil {
			continue
		}
		trail := *exam.Trail(category)
		if err := insertScoreEntry(ctx, tx, examID, category, len(trail), trail[len(trail)-1]); err != nil {
			return nil, err
		}
	}
	if err := insertScoreEntry(ctx, tx, examID, models.CategoryTotal, len(exam.TotalTrail), exam.TotalTrail[len(exam.TotalTrail)-1]); err != nil {
		return nil, err
	}
	if update.Remark != nil {
		entry := exam.Remarks[len(exam.Remarks)-1]
		_, err := tx.ExecContext(ctx, `
			INSERT INTO exam_remark_entries (exam_id, seq, remark, uploaded_by, uploaded_at)
			VALUES ($1, $2, $3, $4, $5)
		`, examID, len(exam.Remarks), entry.Remark, entry.UploadedBy, entry.UploadedAt)
		if err != nil {
			return nil, fmt.Errorf("append remark entry: %w", err)
		}
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE exams SET exam_status = $2, updated_at = $3 WHERE id = $1
	`, examID, exam.Status.String(), exam.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("update exam status: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit score update: %w", err)
	}
	return exam, nil
}

// UpdateStatus rewrites the stored verdict without appending to any
// trail. Used by the status refresh after threshold changes.
func (s *Postgres) UpdateStatus(ctx context.Context, examID uuid.UUID, status models.ExamStatus, now time.Time) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE exams SET exam_status = $2, updated_at = $3 WHERE id = $1
	`, examID, status.String(), now)
	if err != nil {
		return fmt.Errorf("update exam status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update exam status: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Postgres) CountByType(ctx context.Context, examType models.ExamType) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM exams WHERE exam_type = $1
	`, examType.String()).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count exams: %w", err)
	}
	return count, nil
}

func (s *Postgres) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM exams WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete exam: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete exam: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func insertScoreEntry(ctx context.Context, tx *sql.Tx, examID uuid.UUID, category models.ScoreCategory, seq int, entry models.ScoreEntry) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO exam_score_entries (exam_id, category, seq, score, uploaded_by, uploaded_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, examID, string(category), seq, entry.Score, entry.UploadedBy, entry.UploadedAt)
	if err != nil {
		return fmt.Errorf("append %s entry: %w", category, err)
	}
	return nil
}

func scanExam(row *sql.Row) (*models.Exam, error) {
	var exam models.Exam
	var examType, status string
	var examDate sql.NullTime
	if err := row.Scan(&exam.ID, &exam.ExamNumber, &examType, &examDate, &status, &exam.CreatedAt, &exam.UpdatedAt); err != nil {
		return nil, err
	}
	exam.Type = models.ExamType(examType)
	exam.Status = models.ExamStatus(status)
	if examDate.Valid {
		exam.Date = examDate.Time
	}
	return &exam, nil
}

func (s *Postgres) loadTrails(ctx context.Context, q querier, exam *models.Exam) error {
	rows, err := q.QueryContext(ctx, `
		SELECT category, score, uploaded_by, uploaded_at
		FROM exam_score_entries
		WHERE exam_id = $1
		ORDER BY category, seq
	`, exam.ID)
	if err != nil {
		return fmt.Errorf("load score trails: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var category string
		var entry models.ScoreEntry
		if err := rows.Scan(&category, &entry.Score, &entry.UploadedBy, &entry.UploadedAt); err != nil {
			return fmt.Errorf("scan score entry: %w", err)
		}
		switch models.ScoreCategory(category) {
		case models.CategoryTotal:
			exam.TotalTrail = append(exam.TotalTrail, entry)
		default:
			if trail := exam.Trail(models.ScoreCategory(category)); trail != nil {
				*trail = append(*trail, entry)
			}
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("load score trails: %w", err)
	}

	remarkRows, err := q.QueryContext(ctx, `
		SELECT remark, uploaded_by, uploaded_at
		FROM exam_remark_entries
		WHERE exam_id = $1
		ORDER BY seq
	`, exam.ID)
	if err != nil {
		return fmt.Errorf("load remark trail: %w", err)
	}
	defer remarkRows.Close()
	for remarkRows.Next() {
		var entry models.RemarkEntry
		if err := remarkRows.Scan(&entry.Remark, &entry.UploadedBy, &entry.UploadedAt); err != nil {
			return fmt.Errorf("scan remark entry: %w", err)
		}
		exam.Remarks = append(exam.Remarks, entry)
	}
	return remarkRows.Err()
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
