// Package scoring computes composite scores and pass/fail verdicts from an
// exam record's score trails.
//
// The composite is the SUM of the latest value of each category trail that
// has at least one entry. The total trail is an output of this computation
// and never an input. A candidate with no scored category is pending
// regardless of threshold; once any category is scored (zero included) the
// verdict is passed iff composite >= threshold.
package scoring

import (
	"time"

	"github.com/google/uuid"

	"sebexam/internal/exam/models"
	dErrors "sebexam/pkg/domain-errors"
)

// Update carries the caller-provided fields of one score submission. Nil
// means "not submitted"; a pointer to zero is a real score of 0.
type Update struct {
	GeneralPaperScore      *float64 `json:"generalPaperScore,omitempty"`
	ProfessionalPaperScore *float64 `json:"professionalPaperScore,omitempty"`
	InterviewScore         *float64 `json:"interviewScore,omitempty"`
	AppraisalScore         *float64 `json:"appraisalScore,omitempty"`
	SeniorityScore         *float64 `json:"seniorityScore,omitempty"`
	Remark                 *string  `json:"remark,omitempty"`
}

// Score returns the submitted value for a category, if any.
func (u Update) Score(category models.ScoreCategory) *float64 {
	switch category {
	case models.CategoryGeneralPaper:
		return u.GeneralPaperScore
	case models.CategoryProfessionalPaper:
		return u.ProfessionalPaperScore
	case models.CategoryInterview:
		return u.InterviewScore
	case models.CategoryAppraisal:
		return u.AppraisalScore
	case models.CategorySeniority:
		return u.SeniorityScore
	default:
		return nil
	}
}

// Empty reports whether the update carries no scores and no remark.
func (u Update) Empty() bool {
	for _, category := range models.InputCategories {
		if u.Score(category) != nil {
			return false
		}
	}
	return u.Remark == nil
}

// Validate rejects out-of-range scores before anything is appended.
func (u Update) Validate() error {
	for _, category := range models.InputCategories {
		if score := u.Score(category); score != nil {
			if *score < 0 || *score > 100 {
				return dErrors.Newf(dErrors.CodeValidation, "%s score must be between 0 and 100", category)
			}
		}
	}
	return nil
}

// Composite folds the five category trails into the current composite
// score. hasAny is false only when every category trail is empty; an
// explicit zero counts as a score.
func Composite(exam *models.Exam) (composite float64, hasAny bool) {
	for _, category := range models.InputCategories {
		if latest, ok := exam.Trail(category).Latest(); ok {
			composite += latest
			hasAny = true
		}
	}
	if !hasAny {
		return 0, false
	}
	return composite, true
}

// StatusFor derives the verdict from a composite score. Partial
// submissions sum only what exists, so a single category clearing the
// threshold already reads as passed; callers needing a final verdict must
// wait until all relevant categories are in.
func StatusFor(composite float64, hasAny bool, threshold float64) models.ExamStatus {
	if !hasAny {
		return models.ExamStatusPending
	}
	if composite >= threshold {
		return models.ExamStatusPassed
	}
	return models.ExamStatusFailed
}

// Apply appends every submitted score and the remark to their trails,
// recomputes the composite, appends it to the total trail, and derives the
// new status against the supplied threshold. The caller persists the
// mutated aggregate as one atomic unit; Apply itself never partially
// applies — validation happens before the first append.
func Apply(exam *models.Exam, update Update, uploadedBy uuid.UUID, threshold float64, now time.Time) error {
	if err := update.Validate(); err != nil {
		return err
	}

	for _, category := range models.InputCategories {
		if score := update.Score(category); score != nil {
			exam.Trail(category).Append(*score, uploadedBy, now)
		}
	}
	if update.Remark != nil {
		exam.Remarks.Append(*update.Remark, uploadedBy, now)
	}

	composite, hasAny := Composite(exam)
	exam.TotalTrail.Append(composite, uploadedBy, now)
	exam.Status = StatusFor(composite, hasAny, threshold)
	exam.UpdatedAt = now
	return nil
}
