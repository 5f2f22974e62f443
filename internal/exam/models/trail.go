package models

import (
	"time"

	"github.com/google/uuid"
)

// ScoreCategory identifies one scoring dimension of an exam record.
type ScoreCategory string

const (
	CategoryGeneralPaper      ScoreCategory = "general_paper"
	CategoryProfessionalPaper ScoreCategory = "professional_paper"
	CategoryInterview         ScoreCategory = "interview"
	CategoryAppraisal         ScoreCategory = "appraisal"
	CategorySeniority         ScoreCategory = "seniority"

	// CategoryTotal is the derived composite trail. It is written by the
	// scoring engine after every update and never accepted as input.
	CategoryTotal ScoreCategory = "total"
)

// InputCategories are the categories callers may submit scores for,
// in the order they contribute to the composite.
var InputCategories = []ScoreCategory{
	CategoryGeneralPaper,
	CategoryProfessionalPaper,
	CategoryInterview,
	CategoryAppraisal,
	CategorySeniority,
}

// ScoreEntry is one attributed score submission. Entries are immutable
// once appended.
type ScoreEntry struct {
	Score      float64   `json:"score"`
	UploadedBy uuid.UUID `json:"uploadedBy"`
	UploadedAt time.Time `json:"uploadedAt"`
}

// RemarkEntry is one attributed remark submission, with the same
// append-only semantics as ScoreEntry.
type RemarkEntry struct {
	Remark     string    `json:"remark"`
	UploadedBy uuid.UUID `json:"uploadedBy"`
	UploadedAt time.Time `json:"uploadedAt"`
}

// ScoreTrail is the append-only history of one scoring category. The
// current value of the category is the last entry; an empty trail means
// the category has not been scored yet. No entry is ever edited or
// removed: the trail is the audit record of who changed what and when.
type ScoreTrail []ScoreEntry

// Append records a new submission at the end of the trail.
func (t *ScoreTrail) Append(score float64, uploadedBy uuid.UUID, at time.Time) {
	*t = append(*t, ScoreEntry{Score: score, UploadedBy: uploadedBy, UploadedAt: at})
}

// Latest returns the current value of the category. ok is false when the
// trail is empty. A recorded zero is a valid score and reports ok=true.
func (t ScoreTrail) Latest() (score float64, ok bool) {
	if len(t) == 0 {
		return 0, false
	}
	return t[len(t)-1].Score, true
}

// LatestEntry returns the most recent entry for audit display.
func (t ScoreTrail) LatestEntry() (ScoreEntry, bool) {
	if len(t) == 0 {
		return ScoreEntry{}, false
	}
	return t[len(t)-1], true
}

// RemarkTrail is the append-only history of remarks on an exam record.
type RemarkTrail []RemarkEntry

// Append records a new remark at the end of the trail.
func (t *RemarkTrail) Append(remark string, uploadedBy uuid.UUID, at time.Time) {
	*t = append(*t, RemarkEntry{Remark: remark, UploadedBy: uploadedBy, UploadedAt: at})
}

// Latest returns the current remark, or ok=false when none was recorded.
func (t RemarkTrail) Latest() (string, bool) {
	if len(t) == 0 {
		return "", false
	}
	return t[len(t)-1].Remark, true
}
