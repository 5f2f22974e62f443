// Package store persists registrants and their exclusively-owned exam
// records. Creation and deletion always touch the registrant/exam pair as
// one unit so no half-registered candidate survives a failure.
package store

import (
	exammodels "sebexam/internal/exam/models"
	"sebexam/internal/registrant/models"
	"sebexam/pkg/platform/sentinel"
)

// ErrNotFound keeps store-level 404s consistent across implementations.
var ErrNotFound = sentinel.ErrNotFound

// Query bounds and filters a registrant listing.
type Query struct {
	Page     int
	Limit    int
	Search   string
	ExamType exammodels.ExamType
	Status   exammodels.ExamStatus
}

// Normalize applies the listing bounds: limit defaults
// to 20 and caps at 100, page floors at 1.
func (q Query) Normalize() Query {
	if q.Limit <= 0 {
		q.Limit = 20
	}
	if q.Limit > 100 {
		q.Limit = 100
	}
	if q.Page < 1 {
		q.Page = 1
	}
	return q
}

// Offset returns the number of rows to skip for the page.
func (q Query) Offset() int {
	return (q.Page - 1) * q.Limit
}

// WithExam pairs a registrant with its loaded exam record for listing and
// statistics replay.
type WithExam struct {
	Registrant models.Registrant `json:"registrant"`
	Exam       *exammodels.Exam  `json:"exam"`
}
