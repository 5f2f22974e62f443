package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Exam is the aggregate root for one candidate's examination record.
//
// Invariants:
//   - ExamNumber is assigned exactly once, at creation, and never mutated
//   - Status is a pure function of the latest total-trail value and the
//     threshold for Type at write time; callers never set it directly
//   - Trails only grow; past entries are never edited or removed
//
// The aggregate is created by the registration workflow with every trail
// empty and Status pending, and mutated only through score updates applied
// by the scoring engine.
type Exam struct {
	ID         uuid.UUID  `json:"id"`
	ExamNumber string     `json:"examNumber"`
	Type       ExamType   `json:"examType"`
	Date       time.Time  `json:"examDate"`
	Status     ExamStatus `json:"examStatus"`

	GeneralPaperTrail      ScoreTrail  `json:"generalPaperScoreTrail"`
	ProfessionalPaperTrail ScoreTrail  `json:"professionalPaperScoreTrail"`
	InterviewTrail         ScoreTrail  `json:"interviewScoreTrail"`
	AppraisalTrail         ScoreTrail  `json:"appraisalScoreTrail"`
	SeniorityTrail         ScoreTrail  `json:"seniorityScoreTrail"`
	TotalTrail             ScoreTrail  `json:"totalScoreTrail"`
	Remarks                RemarkTrail `json:"remarkTrail"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewExam creates a fresh exam record with empty trails.
func NewExam(id uuid.UUID, examNumber string, examType ExamType, examDate time.Time, now time.Time) *Exam {
	return &Exam{
		ID:         id,
		ExamNumber: examNumber,
		Type:       examType,
		Date:       examDate,
		Status:     ExamStatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// Trail returns the trail for an input category. The total trail is
// addressed explicitly via TotalTrail, never through here, so the composite
// computation cannot feed on its own output.
func (e *Exam) Trail(category ScoreCategory) *ScoreTrail {
	switch category {
	case CategoryGeneralPaper:
		return &e.GeneralPaperTrail
	case CategoryProfessionalPaper:
		return &e.ProfessionalPaperTrail
	case CategoryInterview:
		return &e.InterviewTrail
	case CategoryAppraisal:
		return &e.AppraisalTrail
	case CategorySeniority:
		return &e.SeniorityTrail
	default:
		return nil
	}
}

// FormatExamNumber renders the board's exam-number format:
// SEB/{PREFIX}/{YEAR}/{seq:05d}.
func FormatExamNumber(examType ExamType, year int, seq int) (string, error) {
	prefix, err := examType.Prefix()
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("SEB/%s/%d/%05d", prefix, year, seq), nil
}
