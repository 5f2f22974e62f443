package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"sebexam/internal/audit"
	exammodels "sebexam/internal/exam/models"
	"sebexam/internal/exam/scoring"
	examstore "sebexam/internal/exam/store"
	"sebexam/internal/filestore"
	"sebexam/internal/nominalroll"
	"sebexam/internal/registrant/metrics"
	"sebexam/internal/registrant/models"
	"sebexam/internal/registrant/service/mocks"
	"sebexam/internal/registrant/store"
	"sebexam/internal/slip"
	dErrors "sebexam/pkg/domain-errors"
)

// Shared across the package: promauto registers against the default
// registry, so the collectors must only be created once per test binary.
var testMetrics = metrics.New()

type ServiceSuite struct {
	suite.Suite
	ctx         context.Context
	exams       *examstore.InMemory
	registrants *store.InMemory
	thresholds  *examstore.InMemoryThresholds
	registry    *nominalroll.FakeRegistry
	uploader    *filestore.InMemoryUploader
	auditStore  *audit.InMemoryStore
	service     *Service
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.exams = examstore.NewInMemory()
	s.registrants = store.NewInMemory(s.exams)
	s.thresholds = examstore.NewInMemoryThresholds()
	s.registry = nominalroll.NewFakeRegistry(nominalroll.CivilServant{
		NIN:                     "12345678901",
		StaffVerificationNumber: "SVN-001",
		Surname:                 "Adeyemi",
		FirstName:               "Chinedu",
		EmployeePassport:        "https://media.local/roll/adeyemi.png",
	})
	s.uploader = filestore.NewInMemoryUploader()
	s.auditStore = audit.NewInMemoryStore()
	s.service = s.newService(s.registry, audit.NewPublisher(s.auditStore, slog.Default()))
}

func (s *ServiceSuite) newService(registry nominalroll.Registry, auditor AuditPublisher) *Service {
	return New(Deps{
		Registrants: s.registrants,
		Exams:       s.exams,
		Sequences:   examstore.NewInMemorySequences(),
		Thresholds:  s.thresholds,
		Registry:    registry,
		Uploader:    s.uploader,
		Auditor:     auditor,
		Slips:       slip.LogSender{Logger: slog.Default()},
		Metrics:     testMetrics,
		Logger:      slog.Default(),
	})
}

func (s *ServiceSuite) validInput() RegisterInput {
	return RegisterInput{
		Registrant: models.Registrant{
			Surname:                 "Adeyemi",
			FirstName:               "Chinedu",
			Email:                   "chinedu.adeyemi@example.gov.ng",
			Phone:                   "08030000000",
			NIN:                     "12345678901",
			StaffVerificationNumber: "SVN-001",
			PresentRank:             "Senior Officer",
			Cadre:                   "Administrative",
			MDA:                     "Ministry of Works",
		},
		ExamType: "promotion",
	}
}

func (s *ServiceSuite) TestRegisterHappyPath() {
	result, err := s.service.Register(s.ctx, s.validInput())
	s.Require().NoError(err)

	year := time.Now().Year()
	s.Equal(fmt.Sprintf("SEB/PROM/%d/00001", year), result.Exam.ExamNumber)
	s.Equal(exammodels.ExamStatusPending, result.Exam.Status)
	s.Empty(result.Exam.TotalTrail, "fresh exams carry no scores")
	s.Equal("https://media.local/roll/adeyemi.png", result.Registrant.EmployeePassport)

	events, err := s.auditStore.ListByRegistrant(s.ctx, result.Registrant.ID)
	s.Require().NoError(err)
	s.Require().Len(events, 1)
	s.Equal(audit.ActionRegistrantRegistered, events[0].Action)

	s.Run("numbers increase per type", func() {
		second := s.validInput()
		second.Registrant.Email = "second@example.gov.ng"
		result, err := s.service.Register(s.ctx, second)
		s.Require().NoError(err)
		s.Equal(fmt.Sprintf("SEB/PROM/%d/00002", year), result.Exam.ExamNumber)
	})
}

func (s *ServiceSuite) TestRegisterDuplicateEmail() {
	_, err := s.service.Register(s.ctx, s.validInput())
	s.Require().NoError(err)

	duplicate := s.validInput()
	_, err = s.service.Register(s.ctx, duplicate)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	s.Equal("User already registered", dErrors.MessageOf(err))
}

func (s *ServiceSuite) TestRegisterInvalidExamType() {
	input := s.validInput()
	input.ExamType = "recruitment"
	_, err := s.service.Register(s.ctx, input)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	s.Equal("Invalid exam type", dErrors.MessageOf(err))
}

func (s *ServiceSuite) TestRegisterNotOnRoll() {
	input := s.validInput()
	input.Registrant.NIN = "00000000000"
	input.Registrant.StaffVerificationNumber = ""
	_, err := s.service.Register(s.ctx, input)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	s.Equal("Registrant not in nominal roll", dErrors.MessageOf(err))
}

func (s *ServiceSuite) TestRegisterCrossMatchMismatch() {
	input := s.validInput()
	// Valid NIN, but a verification number belonging to nobody.
	input.Registrant.StaffVerificationNumber = "SVN-999"
	_, err := s.service.Register(s.ctx, input)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
	s.Equal("NIN and Staff Verification Number do not match in our records", dErrors.MessageOf(err))
}

func (s *ServiceSuite) TestRegisterServiceNumberFallback() {
	input := s.validInput()
	input.Registrant.NIN = ""
	result, err := s.service.Register(s.ctx, input)
	s.Require().NoError(err)
	s.Equal("https://media.local/roll/adeyemi.png", result.Registrant.EmployeePassport)
}

func (s *ServiceSuite) TestRegisterPictureUploadFatal() {
	s.uploader.FailWith(errors.New("media service down"))

	input := s.validInput()
	input.ProfilePicture = &filestore.File{Name: "me.png", Data: []byte{1}}
	_, err := s.service.Register(s.ctx, input)
	s.Require().Error(err)
	s.Equal("Profile picture upload failed", dErrors.MessageOf(err))

	// Nothing must have been persisted.
	_, err = s.registrants.FindByEmail(s.ctx, input.Registrant.Email)
	s.Require().ErrorIs(err, store.ErrNotFound)
}

func (s *ServiceSuite) TestRegisterRegistryOutage() {
	ctrl := gomock.NewController(s.T())
	registry := mocks.NewMockRegistry(ctrl)
	registry.EXPECT().FindByNIN(gomock.Any(), "12345678901").
		Return(nil, errors.New("connection refused")).AnyTimes()

	service := s.newService(registry, audit.NewPublisher(s.auditStore, slog.Default()))
	_, err := service.Register(s.ctx, s.validInput())
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	s.Equal("Error validating registrant against civil servant database", dErrors.MessageOf(err))
}

func (s *ServiceSuite) TestRegisterAuditFailureRollsBack() {
	ctrl := gomock.NewController(s.T())
	auditor := mocks.NewMockAuditPublisher(ctrl)
	auditor.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(errors.New("outbox down"))

	service := s.newService(s.registry, auditor)
	input := s.validInput()
	_, err := service.Register(s.ctx, input)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))

	_, err = s.registrants.FindByEmail(s.ctx, input.Registrant.Email)
	s.Require().ErrorIs(err, store.ErrNotFound, "unauditable registration must not stand")
}

func (s *ServiceSuite) register() *store.WithExam {
	result, err := s.service.Register(s.ctx, s.validInput())
	s.Require().NoError(err)
	return result
}

func (s *ServiceSuite) TestUpdateRegistrantRejectsExamPayload() {
	created := s.register()

	_, err := s.service.UpdateRegistrant(s.ctx, created.Registrant.ID, UpdateRegistrantInput{
		HasExamPayload: true,
	})
	s.Require().Error(err)
	s.Equal("Invalid route! Use update exam route", dErrors.MessageOf(err))
}

func (s *ServiceSuite) TestUpdateRegistrantPictureBestEffort() {
	created := s.register()
	s.uploader.FailWith(errors.New("media service down"))

	phone := "08099999999"
	updated, err := s.service.UpdateRegistrant(s.ctx, created.Registrant.ID, UpdateRegistrantInput{
		Phone:          &phone,
		ProfilePicture: &filestore.File{Name: "new.png", Data: []byte{1}},
	})
	s.Require().NoError(err, "picture failure must not abort a biographical update")
	s.Equal(phone, updated.Phone)
	s.Equal(created.Registrant.ProfilePassport, updated.ProfilePassport)
}

func (s *ServiceSuite) TestUpdateRegistrantNotFound() {
	_, err := s.service.UpdateRegistrant(s.ctx, uuid.New(), UpdateRegistrantInput{})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	s.Equal("Registrant not found", dErrors.MessageOf(err))
}

func scorePtr(v float64) *float64 { return &v }

func (s *ServiceSuite) TestUpdateExamAppliesScoresAndVerdict() {
	created := s.register()
	uploader := uuid.New()

	exam, err := s.service.UpdateExam(s.ctx, created.Registrant.ID, scoring.Update{
		GeneralPaperScore:      scorePtr(40),
		ProfessionalPaperScore: scorePtr(30),
	}, uploader)
	s.Require().NoError(err)

	s.Equal(exammodels.ExamStatusPassed, exam.Status, "70 meets the default threshold of 60")
	total, ok := exam.TotalTrail.Latest()
	s.Require().True(ok)
	s.Equal(70.0, total)
	s.Equal(uploader, exam.TotalTrail[len(exam.TotalTrail)-1].UploadedBy)

	events, err := s.auditStore.ListByRegistrant(s.ctx, created.Registrant.ID)
	s.Require().NoError(err)
	s.Equal(audit.ActionExamScoresUpdated, events[len(events)-1].Action)
}

func (s *ServiceSuite) TestUpdateExamEmptyPayload() {
	created := s.register()
	_, err := s.service.UpdateExam(s.ctx, created.Registrant.ID, scoring.Update{}, uuid.New())
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
}

func (s *ServiceSuite) TestUpdateExamUnknownRegistrant() {
	_, err := s.service.UpdateExam(s.ctx, uuid.New(), scoring.Update{GeneralPaperScore: scorePtr(10)}, uuid.New())
	s.Require().Error(err)
	s.Equal("Registrant not found", dErrors.MessageOf(err))
}

func (s *ServiceSuite) TestRefreshStatusesAfterThresholdChange() {
	created := s.register()
	_, err := s.service.UpdateExam(s.ctx, created.Registrant.ID, scoring.Update{
		GeneralPaperScore: scorePtr(55),
	}, uuid.New())
	s.Require().NoError(err)

	exam, err := s.exams.FindByID(s.ctx, created.Exam.ID)
	s.Require().NoError(err)
	s.Equal(exammodels.ExamStatusFailed, exam.Status)

	_, err = s.thresholds.Set(s.ctx, exammodels.ExamTypePromotion, 50)
	s.Require().NoError(err)

	changed, err := s.service.RefreshStatuses(s.ctx, exammodels.ExamTypePromotion)
	s.Require().NoError(err)
	s.Equal(1, changed)

	exam, err = s.exams.FindByID(s.ctx, created.Exam.ID)
	s.Require().NoError(err)
	s.Equal(exammodels.ExamStatusPassed, exam.Status)

	s.Run("second pass is a no-op", func() {
		changed, err := s.service.RefreshStatuses(s.ctx, exammodels.ExamTypePromotion)
		s.Require().NoError(err)
		s.Zero(changed)
	})
}

func (s *ServiceSuite) TestRefreshStatusesLeavesPendingAlone() {
	s.register()
	changed, err := s.service.RefreshStatuses(s.ctx, "")
	s.Require().NoError(err)
	s.Zero(changed, "unscored exams stay pending")
}

func (s *ServiceSuite) TestDeleteCascadesAndAudits() {
	created := s.register()

	deleted, err := s.service.Delete(s.ctx, created.Registrant.ID)
	s.Require().NoError(err)
	s.Equal(created.Registrant.ID, deleted.Registrant.ID)

	_, err = s.exams.FindByID(s.ctx, created.Exam.ID)
	s.Require().ErrorIs(err, examstore.ErrNotFound)

	events, err := s.auditStore.ListByRegistrant(s.ctx, created.Registrant.ID)
	s.Require().NoError(err)
	s.Equal(audit.ActionRegistrantDeleted, events[len(events)-1].Action)
}
