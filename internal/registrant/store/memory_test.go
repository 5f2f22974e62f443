package store_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	exammodels "sebexam/internal/exam/models"
	"sebexam/internal/exam/scoring"
	examstore "sebexam/internal/exam/store"
	"sebexam/internal/registrant/models"
	"sebexam/internal/registrant/store"
	"sebexam/pkg/platform/sentinel"
)

type RegistrantStoreSuite struct {
	suite.Suite
	exams *examstore.InMemory
	store *store.InMemory
	ctx   context.Context
}

func TestRegistrantStoreSuite(t *testing.T) {
	suite.Run(t, new(RegistrantStoreSuite))
}

func (s *RegistrantStoreSuite) SetupTest() {
	s.exams = examstore.NewInMemory()
	s.store = store.NewInMemory(s.exams)
	s.ctx = context.Background()
}

func (s *RegistrantStoreSuite) newPair(email string, examType exammodels.ExamType, seq int, created time.Time) (*models.Registrant, *exammodels.Exam) {
	examNumber, err := exammodels.FormatExamNumber(examType, created.Year(), seq)
	s.Require().NoError(err)
	exam := exammodels.NewExam(uuid.New(), examNumber, examType, time.Time{}, created)
	registrant := &models.Registrant{
		ID:          uuid.New(),
		Surname:     "Adeyemi",
		FirstName:   "Chinedu",
		Email:       email,
		Phone:       "08030000000",
		NIN:         "12345678901",
		PresentRank: "Senior Officer",
		Cadre:       "Administrative",
		MDA:         "Ministry of Works",
		ExamID:      exam.ID,
		CreatedAt:   created,
		UpdatedAt:   created,
	}
	return registrant, exam
}

func (s *RegistrantStoreSuite) TestCreateAndFind() {
	registrant, exam := s.newPair("chinedu@example.gov.ng", exammodels.ExamTypePromotion, 1, time.Now())
	s.Require().NoError(s.store.Create(s.ctx, registrant, exam))

	found, err := s.store.FindByID(s.ctx, registrant.ID)
	s.Require().NoError(err)
	s.Equal(registrant.Email, found.Email)
	s.Equal(exam.ID, found.ExamID)

	// The paired exam record must exist and start pending.
	storedExam, err := s.exams.FindByID(s.ctx, exam.ID)
	s.Require().NoError(err)
	s.Equal(exammodels.ExamStatusPending, storedExam.Status)
	s.Equal("SEB/PROM/"+fmt.Sprintf("%d", time.Now().Year())+"/00001", storedExam.ExamNumber)
}

func (s *RegistrantStoreSuite) TestDuplicateEmailRejected() {
	first, firstExam := s.newPair("shared@example.gov.ng", exammodels.ExamTypePromotion, 1, time.Now())
	s.Require().NoError(s.store.Create(s.ctx, first, firstExam))

	second, secondExam := s.newPair("SHARED@example.gov.ng", exammodels.ExamTypeConversion, 2, time.Now())
	err := s.store.Create(s.ctx, second, secondExam)
	s.Require().ErrorIs(err, sentinel.ErrAlreadyUsed)

	// The failed registration must not leave an orphan exam behind.
	_, err = s.exams.FindByID(s.ctx, secondExam.ID)
	s.Require().ErrorIs(err, examstore.ErrNotFound)
}

func (s *RegistrantStoreSuite) TestFindByEmailCaseInsensitive() {
	registrant, exam := s.newPair("Aisha.Bello@example.gov.ng", exammodels.ExamTypeConfirmation, 1, time.Now())
	s.Require().NoError(s.store.Create(s.ctx, registrant, exam))

	found, err := s.store.FindByEmail(s.ctx, "aisha.bello@EXAMPLE.gov.ng")
	s.Require().NoError(err)
	s.Equal(registrant.ID, found.ID)

	_, err = s.store.FindByEmail(s.ctx, "nobody@example.gov.ng")
	s.Require().ErrorIs(err, store.ErrNotFound)
}

func (s *RegistrantStoreSuite) TestUpdatePreservesExamLink() {
	registrant, exam := s.newPair("update@example.gov.ng", exammodels.ExamTypePromotion, 1, time.Now())
	s.Require().NoError(s.store.Create(s.ctx, registrant, exam))

	modified := *registrant
	modified.Phone = "08099999999"
	modified.ExamID = uuid.New() // must be ignored
	s.Require().NoError(s.store.Update(s.ctx, &modified))

	found, err := s.store.FindByID(s.ctx, registrant.ID)
	s.Require().NoError(err)
	s.Equal("08099999999", found.Phone)
	s.Equal(exam.ID, found.ExamID, "exam reference is immutable")
}

func (s *RegistrantStoreSuite) TestDeleteCascadesToExam() {
	registrant, exam := s.newPair("delete@example.gov.ng", exammodels.ExamTypePromotion, 1, time.Now())
	s.Require().NoError(s.store.Create(s.ctx, registrant, exam))

	deleted, err := s.store.Delete(s.ctx, registrant.ID)
	s.Require().NoError(err)
	s.Equal(registrant.ID, deleted.ID)

	_, err = s.store.FindByID(s.ctx, registrant.ID)
	s.Require().ErrorIs(err, store.ErrNotFound)
	_, err = s.exams.FindByID(s.ctx, exam.ID)
	s.Require().ErrorIs(err, examstore.ErrNotFound)

	_, err = s.store.Delete(s.ctx, registrant.ID)
	s.Require().ErrorIs(err, store.ErrNotFound)
}

func (s *RegistrantStoreSuite) TestListFiltersAndPaginates() {
	base := time.Now().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		registrant, exam := s.newPair(
			fmt.Sprintf("prom%d@example.gov.ng", i),
			exammodels.ExamTypePromotion, i+1, base.Add(time.Duration(i)*time.Minute))
		s.Require().NoError(s.store.Create(s.ctx, registrant, exam))
	}
	conv, convExam := s.newPair("conv@example.gov.ng", exammodels.ExamTypeConversion, 1, base.Add(time.Hour))
	conv.Surname = "Okonkwo"
	s.Require().NoError(s.store.Create(s.ctx, conv, convExam))

	s.Run("by exam type", func() {
		items, total, err := s.store.List(s.ctx, store.Query{ExamType: exammodels.ExamTypePromotion})
		s.Require().NoError(err)
		s.Equal(5, total)
		s.Len(items, 5)
		for _, item := range items {
			s.Equal(exammodels.ExamTypePromotion, item.Exam.Type)
		}
	})

	s.Run("newest first with paging", func() {
		page1, total, err := s.store.List(s.ctx, store.Query{Page: 1, Limit: 4})
		s.Require().NoError(err)
		s.Equal(6, total)
		s.Require().Len(page1, 4)
		s.Equal("conv@example.gov.ng", page1[0].Registrant.Email)

		page2, _, err := s.store.List(s.ctx, store.Query{Page: 2, Limit: 4})
		s.Require().NoError(err)
		s.Len(page2, 2)
	})

	s.Run("search matches surname", func() {
		items, total, err := s.store.List(s.ctx, store.Query{Search: "okonk"})
		s.Require().NoError(err)
		s.Equal(1, total)
		s.Require().Len(items, 1)
		s.Equal("Okonkwo", items[0].Registrant.Surname)
	})

	s.Run("search matches exam number", func() {
		items, _, err := s.store.List(s.ctx, store.Query{Search: "SEB/CONV"})
		s.Require().NoError(err)
		s.Require().Len(items, 1)
		s.Equal("conv@example.gov.ng", items[0].Registrant.Email)
	})
}

func (s *RegistrantStoreSuite) TestListWithExamsLoadsTrails() {
	registrant, exam := s.newPair("scored@example.gov.ng", exammodels.ExamTypePromotion, 1, time.Now())
	s.Require().NoError(s.store.Create(s.ctx, registrant, exam))

	general := 40.0
	_, err := s.exams.ApplyScoreUpdate(s.ctx, exam.ID, scoringUpdate(general), uuid.New(), 60, time.Now())
	s.Require().NoError(err)

	items, err := s.store.ListWithExams(s.ctx, "")
	s.Require().NoError(err)
	s.Require().Len(items, 1)
	score, ok := items[0].Exam.GeneralPaperTrail.Latest()
	s.Require().True(ok)
	s.Equal(40.0, score)
}

func scoringUpdate(general float64) scoring.Update {
	return scoring.Update{GeneralPaperScore: &general}
}
