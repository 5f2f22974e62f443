package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"sebexam/internal/audit"
	exammodels "sebexam/internal/exam/models"
	"sebexam/internal/exam/scoring"
	"sebexam/internal/filestore"
	"sebexam/internal/registrant/models"
	"sebexam/internal/registrant/store"
	dErrors "sebexam/pkg/domain-errors"
)

// UpdateRegistrantInput carries a partial biographical update. Nil means
// "leave unchanged". HasExamPayload is set by the transport when the
// request body carried an exam object; scores have their own route.
type UpdateRegistrantInput struct {
	Surname                  *string
	FirstName                *string
	MiddleName               *string
	DateOfBirth              *time.Time
	Gender                   *string
	Email                    *string
	Phone                    *string
	PresentRank              *string
	ExpectedRank             *string
	PresentGradeLevel        *string
	ExpectedGradeLevel       *string
	PresentStep              *string
	Cadre                    *string
	MDA                      *string
	DateOfFirstAppointment   *time.Time
	DateOfPrevAppointment    *time.Time
	DateOfPresentAppointment *time.Time
	DateOfConfirmation       *time.Time
	Disability               *bool
	Qualifications           []models.Qualification

	HasExamPayload bool
	ProfilePicture *filestore.File
}

// UpdateRegistrant applies a biographical update. Exam payloads are
// rejected; score changes must go through the exam update route so the
// trails stay append-only. A failed picture upload here is logged and
// skipped, unlike at registration.
func (s *Service) UpdateRegistrant(ctx context.Context, id uuid.UUID, input UpdateRegistrantInput) (*models.Registrant, error) {
	registrant, err := s.registrants.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "Registrant not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "registrant lookup failed")
	}

	if input.HasExamPayload {
		return nil, dErrors.New(dErrors.CodeValidation, "Invalid route! Use update exam route")
	}

	applyPatch(registrant, input)

	if input.ProfilePicture != nil {
		url, err := s.uploader.Upload(ctx, registrant.Surname+" "+registrant.FirstName, *input.ProfilePicture)
		if err != nil {
			s.logger.WarnContext(ctx, "profile picture upload failed, keeping previous",
				"registrant_id", id, "error", err)
		} else {
			registrant.ProfilePassport = url
		}
	}

	registrant.UpdatedAt = s.now()
	if err := s.registrants.Update(ctx, registrant); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "Registrant not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "registrant update failed")
	}

	// Best-effort trace of the biographical change.
	_ = s.auditor.Emit(ctx, audit.Event{
		Action:       audit.ActionRegistrantUpdated,
		RegistrantID: registrant.ID,
	})
	return registrant, nil
}

func applyPatch(registrant *models.Registrant, input UpdateRegistrantInput) {
	setString := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	setTime := func(dst *time.Time, src *time.Time) {
		if src != nil {
			*dst = *src
		}
	}
	setString(&registrant.Surname, input.Surname)
	setString(&registrant.FirstName, input.FirstName)
	setString(&registrant.MiddleName, input.MiddleName)
	setTime(&registrant.DateOfBirth, input.DateOfBirth)
	setString(&registrant.Gender, input.Gender)
	setString(&registrant.Email, input.Email)
	setString(&registrant.Phone, input.Phone)
	setString(&registrant.PresentRank, input.PresentRank)
	setString(&registrant.ExpectedRank, input.ExpectedRank)
	setString(&registrant.PresentGradeLevel, input.PresentGradeLevel)
	setString(&registrant.ExpectedGradeLevel, input.ExpectedGradeLevel)
	setString(&registrant.PresentStep, input.PresentStep)
	setString(&registrant.Cadre, input.Cadre)
	setString(&registrant.MDA, input.MDA)
	setTime(&registrant.DateOfFirstAppointment, input.DateOfFirstAppointment)
	setTime(&registrant.DateOfPrevAppointment, input.DateOfPrevAppointment)
	setTime(&registrant.DateOfPresentAppointment, input.DateOfPresentAppointment)
	setTime(&registrant.DateOfConfirmation, input.DateOfConfirmation)
	if input.Disability != nil {
		registrant.Disability = *input.Disability
	}
	if input.Qualifications != nil {
		registrant.Qualifications = input.Qualifications
	}
}

// UpdateExam is the only path that mutates score trails. The threshold is
// resolved at write time, so a threshold change only affects later
// submissions.
func (s *Service) UpdateExam(ctx context.Context, registrantID uuid.UUID, update scoring.Update, uploadedBy uuid.UUID) (*exammodels.Exam, error) {
	start := s.now()
	defer s.metrics.ObserveScoreUpdate(start)

	registrant, err := s.registrants.FindByID(ctx, registrantID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "Registrant not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "registrant lookup failed")
	}
	if update.Empty() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "exam update payload missing")
	}

	exam, err := s.exams.FindByID(ctx, registrant.ExamID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "exam lookup failed")
	}

	threshold, err := s.thresholds.GetOrCreate(ctx, exam.Type)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "pass score lookup failed")
	}

	updated, err := s.exams.ApplyScoreUpdate(ctx, exam.ID, update, uploadedBy, threshold.PassScore, s.now())
	if err != nil {
		return nil, err
	}

	if err := s.auditor.Emit(ctx, audit.Event{
		Action:       audit.ActionExamScoresUpdated,
		ActorID:      uploadedBy,
		RegistrantID: registrant.ID,
		ExamID:       updated.ID,
		ExamNumber:   updated.ExamNumber,
		ExamType:     updated.Type.String(),
		Detail:       string(updated.Status),
	}); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "score update could not be audited")
	}

	s.metrics.ScoreUpdates.WithLabelValues(updated.Type.String()).Inc()
	return updated, nil
}
