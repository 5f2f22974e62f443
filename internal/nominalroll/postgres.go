package nominalroll

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// PostgresRegistry reads the nominal roll from the commission's replica
// table. The table is written by an upstream sync job; this service never
// modifies it.
type PostgresRegistry struct {
	db *sql.DB
}

func NewPostgresRegistry(db *sql.DB) *PostgresRegistry {
	return &PostgresRegistry{db: db}
}

const civilServantColumns = `
	nin, staff_verification_number, surname, first_name, middle_name,
	gender, rank, grade_level, cadre, mda, employee_passport`

func (r *PostgresRegistry) FindByNIN(ctx context.Context, nin string) (*CivilServant, error) {
	return r.findBy(ctx, `nin = $1`, nin)
}

func (r *PostgresRegistry) FindByServiceNumber(ctx context.Context, serviceNumber string) (*CivilServant, error) {
	return r.findBy(ctx, `staff_verification_number = $1`, serviceNumber)
}

func (r *PostgresRegistry) findBy(ctx context.Context, predicate string, key string) (*CivilServant, error) {
	var servant CivilServant
	err := r.db.QueryRowContext(ctx, `
		SELECT `+civilServantColumns+` FROM civil_servants WHERE `+predicate,
		key).Scan(
		&servant.NIN, &servant.StaffVerificationNumber, &servant.Surname,
		&servant.FirstName, &servant.MiddleName, &servant.Gender,
		&servant.Rank, &servant.GradeLevel, &servant.Cadre, &servant.MDA,
		&servant.EmployeePassport,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("query nominal roll: %w", err)
	}
	return &servant, nil
}
