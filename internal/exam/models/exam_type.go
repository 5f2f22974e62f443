package models

import (
	dErrors "sebexam/pkg/domain-errors"
)

// ExamType is the closed set of examinations the board runs. The type
// determines the exam-number prefix, the candidate pool, and which pass
// threshold applies.
type ExamType string

const (
	ExamTypePromotion    ExamType = "promotion"
	ExamTypeConversion   ExamType = "conversion"
	ExamTypeConfirmation ExamType = "confirmation"
)

// ExamTypes lists all valid exam types in canonical order.
var ExamTypes = []ExamType{ExamTypePromotion, ExamTypeConversion, ExamTypeConfirmation}

var examTypePrefixes = map[ExamType]string{
	ExamTypePromotion:    "PROM",
	ExamTypeConversion:   "CONV",
	ExamTypeConfirmation: "CONF",
}

// ParseExamType validates a raw string against the closed set.
func ParseExamType(raw string) (ExamType, error) {
	t := ExamType(raw)
	if _, ok := examTypePrefixes[t]; !ok {
		return "", dErrors.New(dErrors.CodeValidation, "Invalid exam type")
	}
	return t, nil
}

// Valid reports whether the exam type is one of the closed set.
func (t ExamType) Valid() bool {
	_, ok := examTypePrefixes[t]
	return ok
}

// Prefix returns the exam-number prefix for the type.
func (t ExamType) Prefix() (string, error) {
	prefix, ok := examTypePrefixes[t]
	if !ok {
		return "", dErrors.New(dErrors.CodeValidation, "Invalid exam type")
	}
	return prefix, nil
}

func (t ExamType) String() string {
	return string(t)
}

// ExamStatus is the verdict recorded on an exam record. It is always
// derived from the composite score and the type's threshold, never set
// directly by callers.
type ExamStatus string

const (
	ExamStatusPending ExamStatus = "pending"
	ExamStatusPassed  ExamStatus = "passed"
	ExamStatusFailed  ExamStatus = "failed"
)

// ParseExamStatus validates a raw status string.
func ParseExamStatus(raw string) (ExamStatus, error) {
	switch s := ExamStatus(raw); s {
	case ExamStatusPending, ExamStatusPassed, ExamStatusFailed:
		return s, nil
	default:
		return "", dErrors.New(dErrors.CodeValidation, "invalid exam status")
	}
}

func (s ExamStatus) String() string {
	return string(s)
}
