package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	exammodels "sebexam/internal/exam/models"
	"sebexam/internal/registrant/models"
	"sebexam/pkg/platform/sentinel"
)

// Postgres persists registrants. The registrant row carries a foreign key
// to its exam row; creation and deletion wrap both rows in a transaction
// so ownership stays exclusive.
type Postgres struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed registrant store.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

const registrantColumns = `
	id, surname, first_name, middle_name, date_of_birth, gender, email, phone,
	nin, staff_verification_number, present_rank, expected_rank,
	present_grade_level, expected_grade_level, present_step, cadre, mda,
	date_of_first_appointment, date_of_prev_appointment,
	date_of_present_appointment, date_of_confirmation, disability,
	qualifications, profile_passport, employee_passport, exam_id,
	created_at, updated_at`

// Create inserts the exam row and the registrant row in one transaction.
// A duplicate email (or exam number) rolls back both inserts and maps to
// sentinel.ErrAlreadyUsed.
func (s *Postgres) Create(ctx context.Context, registrant *models.Registrant, exam *exammodels.Exam) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create registrant: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO exams (id, exam_number, exam_type, exam_date, exam_status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, exam.ID, exam.ExamNumber, exam.Type.String(), nullTime(exam.Date), exam.Status.String(), exam.CreatedAt, exam.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("create exam for registrant: %w", err)
	}

	qualifications, err := json.Marshal(registrant.Qualifications)
	if err != nil {
		return fmt.Errorf("marshal qualifications: %w", err)
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO registrants (`+registrantColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
		        $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28)
	`,
		registrant.ID, registrant.Surname, registrant.FirstName, registrant.MiddleName,
		nullTime(registrant.DateOfBirth), registrant.Gender, registrant.Email, registrant.Phone,
		registrant.NIN, registrant.StaffVerificationNumber, registrant.PresentRank, registrant.ExpectedRank,
		registrant.PresentGradeLevel, registrant.ExpectedGradeLevel, registrant.PresentStep,
		registrant.Cadre, registrant.MDA,
		nullTime(registrant.DateOfFirstAppointment), nullTime(registrant.DateOfPrevAppointment),
		nullTime(registrant.DateOfPresentAppointment), nullTime(registrant.DateOfConfirmation),
		registrant.Disability, qualifications, registrant.ProfilePassport, registrant.EmployeePassport,
		registrant.ExamID, registrant.CreatedAt, registrant.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("create registrant: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create registrant: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, id uuid.UUID) (*models.Registrant, error) {
	registrant, err := scanRegistrant(s.db.QueryRowContext(ctx, `
		SELECT `+registrantColumns+` FROM registrants WHERE id = $1
	`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find registrant: %w", err)
	}
	return registrant, nil
}

func (s *Postgres) FindByEmail(ctx context.Context, email string) (*models.Registrant, error) {
	registrant, err := scanRegistrant(s.db.QueryRowContext(ctx, `
		SELECT `+registrantColumns+` FROM registrants WHERE lower(email) = lower($1)
	`, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find registrant by email: %w", err)
	}
	return registrant, nil
}

// Update persists biographical fields. The exam reference and created_at
// are deliberately excluded from the statement: the exam link is immutable.
func (s *Postgres) Update(ctx context.Context, registrant *models.Registrant) error {
	qualifications, err := json.Marshal(registrant.Qualifications)
	if err != nil {
		return fmt.Errorf("marshal qualifications: %w", err)
	}
	result, err := s.db.ExecContext(ctx, `
		UPDATE registrants SET
			surname = $2, first_name = $3, middle_name = $4, date_of_birth = $5,
			gender = $6, email = $7, phone = $8, nin = $9,
			staff_verification_number = $10, present_rank = $11, expected_rank = $12,
			present_grade_level = $13, expected_grade_level = $14, present_step = $15,
			cadre = $16, mda = $17, date_of_first_appointment = $18,
			date_of_prev_appointment = $19, date_of_present_appointment = $20,
			date_of_confirmation = $21, disability = $22, qualifications = $23,
			profile_passport = $24, updated_at = $25
		WHERE id = $1
	`,
		registrant.ID, registrant.Surname, registrant.FirstName, registrant.MiddleName,
		nullTime(registrant.DateOfBirth), registrant.Gender, registrant.Email, registrant.Phone,
		registrant.NIN, registrant.StaffVerificationNumber, registrant.PresentRank, registrant.ExpectedRank,
		registrant.PresentGradeLevel, registrant.ExpectedGradeLevel, registrant.PresentStep,
		registrant.Cadre, registrant.MDA,
		nullTime(registrant.DateOfFirstAppointment), nullTime(registrant.DateOfPrevAppointment),
		nullTime(registrant.DateOfPresentAppointment), nullTime(registrant.DateOfConfirmation),
		registrant.Disability, qualifications, registrant.ProfilePassport, registrant.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("update registrant: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update registrant: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the registrant and its owned exam record atomically.
func (s *Postgres) Delete(ctx context.Context, id uuid.UUID) (*models.Registrant, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin delete registrant: %w", err)
	}
	defer tx.Rollback()

	registrant, err := scanRegistrant(tx.QueryRowContext(ctx, `
		DELETE FROM registrants WHERE id = $1 RETURNING `+registrantColumns,
		id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("delete registrant: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM exams WHERE id = $1`, registrant.ExamID); err != nil {
		return nil, fmt.Errorf("delete owned exam: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit delete registrant: %w", err)
	}
	return registrant, nil
}

func (s *Postgres) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM registrants`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count registrants: %w", err)
	}
	return count, nil
}

// List returns one page of registrants joined with their exams, newest
// first, with the same search semantics as the in-memory store.
func (s *Postgres) List(ctx context.Context, query Query) ([]WithExam, int, error) {
	query = query.Normalize()

	where := `WHERE 1=1`
	args := []any{}
	if query.ExamType != "" {
		args = append(args, query.ExamType.String())
		where += fmt.Sprintf(` AND e.exam_type = $%d`, len(args))
	}
	if query.Status != "" {
		args = append(args, query.Status.String())
		where += fmt.Sprintf(` AND e.exam_status = $%d`, len(args))
	}
	if query.Search != "" {
		args = append(args, "%"+query.Search+"%")
		n := len(args)
		where += fmt.Sprintf(` AND (
			r.surname ILIKE $%[1]d OR r.first_name ILIKE $%[1]d OR r.middle_name ILIKE $%[1]d OR
			r.email ILIKE $%[1]d OR r.phone ILIKE $%[1]d OR r.staff_verification_number ILIKE $%[1]d OR
			r.mda ILIKE $%[1]d OR r.present_rank ILIKE $%[1]d OR r.expected_rank ILIKE $%[1]d OR
			r.cadre ILIKE $%[1]d OR e.exam_number ILIKE $%[1]d OR e.exam_type ILIKE $%[1]d OR
			e.exam_status ILIKE $%[1]d
		)`, n)
	}

	var total int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM registrants r
		LEFT JOIN exams e ON e.id = r.exam_id `+where, args...).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count listed registrants: %w", err)
	}

	args = append(args, query.Limit, query.Offset())
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT %s FROM registrants r
		LEFT JOIN exams e ON e.id = r.exam_id
		%s
		ORDER BY r.created_at DESC
		LIMIT $%d OFFSET $%d
	`, joinedColumns, where, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list registrants: %w", err)
	}
	defer rows.Close()

	out, err := s.collectJoined(ctx, rows)
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// ListWithExams returns every registrant joined with its exam, newest
// first. This feeds the statistics replay, so trails are fully loaded.
func (s *Postgres) ListWithExams(ctx context.Context, examType exammodels.ExamType) ([]WithExam, error) {
	where := ""
	args := []any{}
	if examType != "" {
		where = `WHERE e.exam_type = $1`
		args = append(args, examType.String())
	}
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT %s FROM registrants r
		JOIN exams e ON e.id = r.exam_id
		%s
		ORDER BY r.created_at DESC
	`, joinedColumns, where), args...)
	if err != nil {
		return nil, fmt.Errorf("list registrants with exams: %w", err)
	}
	defer rows.Close()
	return s.collectJoined(ctx, rows)
}

const joinedColumns = `
	r.id, r.surname, r.first_name, r.middle_name, r.date_of_birth, r.gender,
	r.email, r.phone, r.nin, r.staff_verification_number, r.present_rank,
	r.expected_rank, r.present_grade_level, r.expected_grade_level,
	r.present_step, r.cadre, r.mda, r.date_of_first_appointment,
	r.date_of_prev_appointment, r.date_of_present_appointment,
	r.date_of_confirmation, r.disability, r.qualifications,
	r.profile_passport, r.employee_passport, r.exam_id, r.created_at,
	r.updated_at,
	e.id, e.exam_number, e.exam_type, e.exam_date, e.exam_status,
	e.created_at, e.updated_at`

func (s *Postgres) collectJoined(ctx context.Context, rows *sql.Rows) ([]WithExam, error) {
	var out []WithExam
	examIndex := make(map[uuid.UUID]*exammodels.Exam)

	for rows.Next() {
		var item WithExam
		var qualifications []byte
		var dob, dofa, dopa, dopra, doc sql.NullTime
		var examID uuid.NullUUID
		var examNumber, examTypeRaw, examStatus sql.NullString
		var examDate, examCreated, examUpdated sql.NullTime

		err := rows.Scan(
			&item.Registrant.ID, &item.Registrant.Surname, &item.Registrant.FirstName,
			&item.Registrant.MiddleName, &dob, &item.Registrant.Gender,
			&item.Registrant.Email, &item.Registrant.Phone, &item.Registrant.NIN,
			&item.Registrant.StaffVerificationNumber, &item.Registrant.PresentRank,
			&item.Registrant.ExpectedRank, &item.Registrant.PresentGradeLevel,
			&item.Registrant.ExpectedGradeLevel, &item.Registrant.PresentStep,
			&item.Registrant.Cadre, &item.Registrant.MDA, &dofa, &dopra, &dopa, &doc,
			&item.Registrant.Disability, &qualifications,
			&item.Registrant.ProfilePassport, &item.Registrant.EmployeePassport,
			&item.Registrant.ExamID, &item.Registrant.CreatedAt, &item.Registrant.UpdatedAt,
			&examID, &examNumber, &examTypeRaw, &examDate, &examStatus,
			&examCreated, &examUpdated,
		)
		if err != nil {
			return nil, fmt.Errorf("scan registrant row: %w", err)
		}
		setTimes(&item.Registrant, dob, dofa, dopra, dopa, doc)
		if len(qualifications) > 0 {
			if err := json.Unmarshal(qualifications, &item.Registrant.Qualifications); err != nil {
				return nil, fmt.Errorf("unmarshal qualifications: %w", err)
			}
		}
		if examID.Valid {
			exam := &exammodels.Exam{
				ID:         examID.UUID,
				ExamNumber: examNumber.String,
				Type:       exammodels.ExamType(examTypeRaw.String),
				Status:     exammodels.ExamStatus(examStatus.String),
			}
			if examDate.Valid {
				exam.Date = examDate.Time
			}
			if examCreated.Valid {
				exam.CreatedAt = examCreated.Time
			}
			if examUpdated.Valid {
				exam.UpdatedAt = examUpdated.Time
			}
			item.Exam = exam
			examIndex[exam.ID] = exam
		}
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list registrants: %w", err)
	}

	if err := s.loadTrailsBulk(ctx, examIndex); err != nil {
		return nil, err
	}
	return out, nil
}

// loadTrailsBulk fills the trails of every exam in the index with one
// query per trail table.
func (s *Postgres) loadTrailsBulk(ctx context.Context, exams map[uuid.UUID]*exammodels.Exam) error {
	if len(exams) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, 0, len(exams))
	for id := range exams {
		ids = append(ids, id)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT exam_id, category, score, uploaded_by, uploaded_at
		FROM exam_score_entries
		WHERE exam_id = ANY($1)
		ORDER BY exam_id, category, seq
	`, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("load score trails: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var examID uuid.UUID
		var category string
		var entry exammodels.ScoreEntry
		if err := rows.Scan(&examID, &category, &entry.Score, &entry.UploadedBy, &entry.UploadedAt); err != nil {
			return fmt.Errorf("scan score entry: %w", err)
		}
		exam := exams[examID]
		if exam == nil {
			continue
		}
		if exammodels.ScoreCategory(category) == exammodels.CategoryTotal {
			exam.TotalTrail = append(exam.TotalTrail, entry)
		} else if trail := exam.Trail(exammodels.ScoreCategory(category)); trail != nil {
			*trail = append(*trail, entry)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("load score trails: %w", err)
	}

	remarkRows, err := s.db.QueryContext(ctx, `
		SELECT exam_id, remark, uploaded_by, uploaded_at
		FROM exam_remark_entries
		WHERE exam_id = ANY($1)
		ORDER BY exam_id, seq
	`, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("load remark trails: %w", err)
	}
	defer remarkRows.Close()
	for remarkRows.Next() {
		var examID uuid.UUID
		var entry exammodels.RemarkEntry
		if err := remarkRows.Scan(&examID, &entry.Remark, &entry.UploadedBy, &entry.UploadedAt); err != nil {
			return fmt.Errorf("scan remark entry: %w", err)
		}
		if exam := exams[examID]; exam != nil {
			exam.Remarks = append(exam.Remarks, entry)
		}
	}
	return remarkRows.Err()
}

func scanRegistrant(row *sql.Row) (*models.Registrant, error) {
	var registrant models.Registrant
	var qualifications []byte
	var dob, dofa, dopra, dopa, doc sql.NullTime
	err := row.Scan(
		&registrant.ID, &registrant.Surname, &registrant.FirstName, &registrant.MiddleName,
		&dob, &registrant.Gender, &registrant.Email, &registrant.Phone,
		&registrant.NIN, &registrant.StaffVerificationNumber, &registrant.PresentRank,
		&registrant.ExpectedRank, &registrant.PresentGradeLevel, &registrant.ExpectedGradeLevel,
		&registrant.PresentStep, &registrant.Cadre, &registrant.MDA,
		&dofa, &dopra, &dopa, &doc, &registrant.Disability, &qualifications,
		&registrant.ProfilePassport, &registrant.EmployeePassport, &registrant.ExamID,
		&registrant.CreatedAt, &registrant.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	setTimes(&registrant, dob, dofa, dopra, dopa, doc)
	if len(qualifications) > 0 {
		if err := json.Unmarshal(qualifications, &registrant.Qualifications); err != nil {
			return nil, fmt.Errorf("unmarshal qualifications: %w", err)
		}
	}
	return &registrant, nil
}

func setTimes(registrant *models.Registrant, dob, dofa, dopra, dopa, doc sql.NullTime) {
	if dob.Valid {
		registrant.DateOfBirth = dob.Time
	}
	if dofa.Valid {
		registrant.DateOfFirstAppointment = dofa.Time
	}
	if dopra.Valid {
		registrant.DateOfPrevAppointment = dopra.Time
	}
	if dopa.Valid {
		registrant.DateOfPresentAppointment = dopa.Time
	}
	if doc.Valid {
		registrant.DateOfConfirmation = doc.Time
	}
}

func nullTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t, Valid: true}
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
