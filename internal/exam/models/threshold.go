package models

import (
	"time"

	dErrors "sebexam/pkg/domain-errors"
)

// DefaultPassScore is the threshold installed the first time a threshold
// for an exam type is read and no record exists yet.
const DefaultPassScore = 60

// Threshold is the configurable pass score for one exam type. One record
// exists per type, unique by ExamType.
type Threshold struct {
	ExamType  ExamType  `json:"examType"`
	PassScore float64   `json:"passScore"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ValidatePassScore enforces the [0,100] range for threshold values.
func ValidatePassScore(value float64) error {
	if value < 0 || value > 100 {
		return dErrors.New(dErrors.CodeValidation, "pass score must be between 0 and 100")
	}
	return nil
}
