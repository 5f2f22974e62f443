// Package nominalroll exposes read access to the civil-servant registry
// (the nominal roll). Registration is only open to people the roll knows
// about, so the workflow verifies every applicant against this package
// before an exam record is created.
package nominalroll

import (
	"context"

	"sebexam/pkg/platform/sentinel"
)

// ErrNotFound is returned when no civil servant matches the lookup key.
var ErrNotFound = sentinel.ErrNotFound

// CivilServant is one entry on the nominal roll. The roll is maintained
// upstream by the civil service commission; this service only reads it.
type CivilServant struct {
	NIN                     string `json:"nin"`
	StaffVerificationNumber string `json:"staffVerificationNumber"`
	Surname                 string `json:"surname"`
	FirstName               string `json:"firstName"`
	MiddleName              string `json:"middleName,omitempty"`
	Gender                  string `json:"gender,omitempty"`
	Rank                    string `json:"rank,omitempty"`
	GradeLevel              string `json:"gradeLevel,omitempty"`
	Cadre                   string `json:"cadre,omitempty"`
	MDA                     string `json:"mda,omitempty"`
	EmployeePassport        string `json:"employeePassport,omitempty"`
}

// Registry looks up civil servants by their two identity keys. Both
// lookups return ErrNotFound when the roll has no matching entry.
type Registry interface {
	FindByNIN(ctx context.Context, nin string) (*CivilServant, error)
	FindByServiceNumber(ctx context.Context, serviceNumber string) (*CivilServant, error)
}

// ValidateCrossMatch confirms that a NIN and a staff verification number
// identify the same person on the roll. It returns ErrNotFound when the
// NIN is unknown, and a nil record with nil error when the NIN exists but
// carries a different verification number.
func ValidateCrossMatch(ctx context.Context, registry Registry, nin, serviceNumber string) (*CivilServant, error) {
	servant, err := registry.FindByNIN(ctx, nin)
	if err != nil {
		return nil, err
	}
	if servant.StaffVerificationNumber != serviceNumber {
		return nil, nil
	}
	return servant, nil
}
