// Package service implements the registration workflow: validating
// applicants against the nominal roll, allocating exam numbers, applying
// score updates and keeping the audit trail honest.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"sebexam/internal/audit"
	exammodels "sebexam/internal/exam/models"
	"sebexam/internal/exam/scoring"
	"sebexam/internal/filestore"
	"sebexam/internal/nominalroll"
	"sebexam/internal/registrant/metrics"
	"sebexam/internal/registrant/models"
	"sebexam/internal/registrant/store"
	"sebexam/internal/slip"
	dErrors "sebexam/pkg/domain-errors"
	"sebexam/pkg/platform/sentinel"
)

// RegistrantStore is the slice of the registrant store this service needs.
type RegistrantStore interface {
	Create(ctx context.Context, registrant *models.Registrant, exam *exammodels.Exam) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Registrant, error)
	FindByEmail(ctx context.Context, email string) (*models.Registrant, error)
	Update(ctx context.Context, registrant *models.Registrant) error
	Delete(ctx context.Context, id uuid.UUID) (*models.Registrant, error)
	List(ctx context.Context, query store.Query) ([]store.WithExam, int, error)
	ListWithExams(ctx context.Context, examType exammodels.ExamType) ([]store.WithExam, error)
}

// ExamStore is the exam persistence surface used by the workflow.
type ExamStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*exammodels.Exam, error)
	ApplyScoreUpdate(ctx context.Context, examID uuid.UUID, update scoring.Update, uploadedBy uuid.UUID, threshold float64, now time.Time) (*exammodels.Exam, error)
	UpdateStatus(ctx context.Context, examID uuid.UUID, status exammodels.ExamStatus, now time.Time) error
}

// SequenceStore allocates exam-number sequences.
type SequenceStore interface {
	Next(ctx context.Context, examType exammodels.ExamType, year int) (int, error)
}

// ThresholdStore resolves pass scores.
type ThresholdStore interface {
	GetOrCreate(ctx context.Context, examType exammodels.ExamType) (exammodels.Threshold, error)
}

// AuditPublisher records workflow events.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service orchestrates the registration workflow. Handlers stay thin;
// all business rules live here or in the scoring engine.
type Service struct {
	registrants RegistrantStore
	exams       ExamStore
	sequences   SequenceStore
	thresholds  ThresholdStore
	registry    nominalroll.Registry
	uploader    filestore.Uploader
	auditor     AuditPublisher
	slips       slip.Sender
	metrics     *metrics.Metrics
	logger      *slog.Logger

	now func() time.Time
}

// Deps bundles the service's collaborators.
type Deps struct {
	Registrants RegistrantStore
	Exams       ExamStore
	Sequences   SequenceStore
	Thresholds  ThresholdStore
	Registry    nominalroll.Registry
	Uploader    filestore.Uploader
	Auditor     AuditPublisher
	Slips       slip.Sender
	Metrics     *metrics.Metrics
	Logger      *slog.Logger
}

func New(deps Deps) *Service {
	return &Service{
		registrants: deps.Registrants,
		exams:       deps.Exams,
		sequences:   deps.Sequences,
		thresholds:  deps.Thresholds,
		registry:    deps.Registry,
		uploader:    deps.Uploader,
		auditor:     deps.Auditor,
		slips:       deps.Slips,
		metrics:     deps.Metrics,
		logger:      deps.Logger,
		now:         time.Now,
	}
}

// RegisterInput carries one registration request. ProfilePicture is
// optional; when present its upload failure aborts the registration.
type RegisterInput struct {
	Registrant     models.Registrant
	ExamType       string
	ExamDate       time.Time
	ProfilePicture *filestore.File
}

// Register validates the applicant against the nominal roll, allocates an
// exam number and creates the registrant/exam pair.
func (s *Service) Register(ctx context.Context, input RegisterInput) (*store.WithExam, error) {
	start := s.now()
	defer s.metrics.ObserveRegister(start)

	examType, err := exammodels.ParseExamType(input.ExamType)
	if err != nil {
		s.metrics.RegistrationFailures.WithLabelValues("invalid_exam_type").Inc()
		return nil, err
	}

	if _, err := s.registrants.FindByEmail(ctx, input.Registrant.Email); err == nil {
		s.metrics.RegistrationFailures.WithLabelValues("duplicate_email").Inc()
		return nil, dErrors.New(dErrors.CodeConflict, "User already registered")
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "registration lookup failed")
	}

	servant, err := s.verifyAgainstRoll(ctx, input.Registrant.NIN, input.Registrant.StaffVerificationNumber)
	if err != nil {
		s.metrics.RegistrationFailures.WithLabelValues("roll_verification").Inc()
		return nil, err
	}

	registrant := input.Registrant
	registrant.ID = uuid.New()
	registrant.EmployeePassport = servant.EmployeePassport

	if input.ProfilePicture != nil {
		url, err := s.uploader.Upload(ctx, registrant.Surname+" "+registrant.FirstName, *input.ProfilePicture)
		if err != nil {
			s.metrics.RegistrationFailures.WithLabelValues("picture_upload").Inc()
			return nil, dErrors.Wrap(err, dErrors.CodeValidation, "Profile picture upload failed")
		}
		registrant.ProfilePassport = url
	}

	now := s.now()
	seq, err := s.sequences.Next(ctx, examType, now.Year())
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "exam number allocation failed")
	}
	examNumber, err := exammodels.FormatExamNumber(examType, now.Year(), seq)
	if err != nil {
		return nil, err
	}

	exam := exammodels.NewExam(uuid.New(), examNumber, examType, input.ExamDate, now)
	registrant.ExamID = exam.ID
	registrant.CreatedAt = now
	registrant.UpdatedAt = now

	if err := s.registrants.Create(ctx, &registrant, exam); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			s.metrics.RegistrationFailures.WithLabelValues("duplicate_email").Inc()
			return nil, dErrors.New(dErrors.CodeConflict, "User already registered")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "registration failed")
	}

	if err := s.auditor.Emit(ctx, audit.Event{
		Action:       audit.ActionRegistrantRegistered,
		RegistrantID: registrant.ID,
		ExamID:       exam.ID,
		ExamNumber:   exam.ExamNumber,
		ExamType:     examType.String(),
	}); err != nil {
		// Fail closed: an unauditable registration must not stand.
		if _, delErr := s.registrants.Delete(ctx, registrant.ID); delErr != nil {
			s.logger.ErrorContext(ctx, "rollback after audit failure failed",
				"registrant_id", registrant.ID, "error", delErr)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "registration could not be audited")
	}

	s.metrics.Registrations.WithLabelValues(examType.String()).Inc()
	s.sendSlip(ctx, &registrant, exam)

	return &store.WithExam{Registrant: registrant, Exam: exam}, nil
}

// verifyAgainstRoll runs the identity ladder: NIN first, then service
// number, then a cross-match when both keys were supplied.
func (s *Service) verifyAgainstRoll(ctx context.Context, nin, serviceNumber string) (*nominalroll.CivilServant, error) {
	var servant *nominalroll.CivilServant

	if nin != "" {
		found, err := s.registry.FindByNIN(ctx, nin)
		if err != nil && !errors.Is(err, nominalroll.ErrNotFound) {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "Error validating registrant against civil servant database")
		}
		servant = found
	}
	if servant == nil && serviceNumber != "" {
		found, err := s.registry.FindByServiceNumber(ctx, serviceNumber)
		if err != nil && !errors.Is(err, nominalroll.ErrNotFound) {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "Error validating registrant against civil servant database")
		}
		servant = found
	}
	if nin != "" && serviceNumber != "" {
		matched, err := nominalroll.ValidateCrossMatch(ctx, s.registry, nin, serviceNumber)
		switch {
		case err != nil && !errors.Is(err, nominalroll.ErrNotFound):
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "Error validating registrant against civil servant database")
		case matched == nil:
			// Both keys supplied but they do not meet on one roll entry.
			// This outranks any single-key hit above.
			return nil, dErrors.New(dErrors.CodeBadRequest, "NIN and Staff Verification Number do not match in our records")
		default:
			servant = matched
		}
	}
	if servant == nil {
		return nil, dErrors.New(dErrors.CodeValidation, "Registrant not in nominal roll")
	}
	return servant, nil
}

func (s *Service) sendSlip(ctx context.Context, registrant *models.Registrant, exam *exammodels.Exam) {
	err := s.slips.Send(ctx, slip.Slip{
		FullName:   registrant.Surname + " " + registrant.FirstName,
		Email:      registrant.Email,
		ExamNumber: exam.ExamNumber,
		ExamType:   exam.Type.String(),
		ExamDate:   exam.Date,
		MDA:        registrant.MDA,
		IssuedAt:   s.now(),
	})
	if err != nil {
		s.metrics.SlipSendFailures.Inc()
		s.logger.WarnContext(ctx, "registration slip send failed",
			"registrant_id", registrant.ID, "exam_number", exam.ExamNumber, "error", err)
	}
}
