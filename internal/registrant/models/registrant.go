package models

import (
	"time"

	"github.com/google/uuid"
)

// Qualification is one academic or professional qualification a
// registrant holds.
type Qualification struct {
	Qualification       string    `json:"qualification"`
	DateOfQualification time.Time `json:"dateOfQualification"`
}

// Registrant is a candidate registered for one board examination.
//
// Invariants:
//   - Email is unique across registrants
//   - ExamID is assigned at creation and never changes; score updates go
//     through the dedicated exam-update operation, never through the
//     general registrant update
//   - The registrant exclusively owns its exam record: deleting the
//     registrant deletes the exam
type Registrant struct {
	ID         uuid.UUID `json:"id"`
	Surname    string    `json:"surname"`
	FirstName  string    `json:"firstName"`
	MiddleName string    `json:"middleName,omitempty"`

	DateOfBirth             time.Time `json:"dateOfBirth,omitempty"`
	Gender                  string    `json:"gender"`
	Email                   string    `json:"email"`
	Phone                   string    `json:"phone"`
	NIN                     string    `json:"nin"`
	StaffVerificationNumber string    `json:"staffVerificationNumber,omitempty"`

	PresentRank        string `json:"presentRank"`
	ExpectedRank       string `json:"expectedRank,omitempty"`
	PresentGradeLevel  string `json:"presentGradeLevel,omitempty"`
	ExpectedGradeLevel string `json:"expectedGradeLevel,omitempty"`
	PresentStep        string `json:"presentStep,omitempty"`
	Cadre              string `json:"cadre"`
	MDA                string `json:"mda"`

	DateOfFirstAppointment   time.Time `json:"dateOfFirstAppointment,omitempty"`
	DateOfPrevAppointment    time.Time `json:"dateOfPrevAppointment,omitempty"`
	DateOfPresentAppointment time.Time `json:"dateOfPresentAppointment,omitempty"`
	DateOfConfirmation       time.Time `json:"dateOfConfirmation,omitempty"`

	Disability     bool            `json:"disability"`
	Qualifications []Qualification `json:"qualifications,omitempty"`

	// ProfilePassport is the picture uploaded at registration time;
	// EmployeePassport is the registry's on-file passport. Both appear on
	// the registration slip.
	ProfilePassport  string `json:"profilePassport,omitempty"`
	EmployeePassport string `json:"employeePassport,omitempty"`

	ExamID uuid.UUID `json:"examId"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
