//go:build integration

package store_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
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
	"sebexam/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.Postgres
	exams    *examstore.Postgres
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.store = store.NewPostgres(s.postgres.DB)
	s.exams = examstore.NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	ctx := context.Background()
	err := s.postgres.TruncateTables(ctx, "registrants", "exams")
	s.Require().NoError(err)
}

// newTestPair builds a registrant and its owned exam, ready for Create.
func newTestPair(email string) (*models.Registrant, *exammodels.Exam) {
	now := time.Now().UTC()
	exam := exammodels.NewExam(uuid.New(), "PROM/2026/"+uuid.NewString()[:8], exammodels.ExamTypePromotion, now.Add(30*24*time.Hour), now)
	registrant := &models.Registrant{
		ID:                      uuid.New(),
		Surname:                 "Danjuma",
		FirstName:               "Amina",
		Gender:                  "female",
		Email:                   email,
		Phone:                   "08030000000",
		NIN:                     uuid.NewString()[:11],
		StaffVerificationNumber: "SVN-" + uuid.NewString()[:8],
		PresentRank:             "Senior Officer",
		PresentGradeLevel:       "8",
		ExpectedGradeLevel:      "9",
		Cadre:                   "Administrative",
		MDA:                     "Head of Service",
		ExamID:                  exam.ID,
		CreatedAt:               now,
		UpdatedAt:               now,
	}
	return registrant, exam
}

func (s *PostgresStoreSuite) TestCreateAndFind() {
	ctx := context.Background()
	registrant, exam := newTestPair("amina.danjuma@example.gov")
	s.Require().NoError(s.store.Create(ctx, registrant, exam))

	found, err := s.store.FindByID(ctx, registrant.ID)
	s.Require().NoError(err)
	s.Equal(registrant.Email, found.Email)
	s.Equal(exam.ID, found.ExamID)

	// Email lookup ignores case.
	found, err = s.store.FindByEmail(ctx, "AMINA.DANJUMA@EXAMPLE.GOV")
	s.Require().NoError(err)
	s.Equal(registrant.ID, found.ID)
}

// TestDuplicateEmailRollsBackExam verifies the pair insert is one
// transaction: when the registrant insert hits the unique email index,
// the exam row inserted moments earlier must not survive.
func (s *PostgresStoreSuite) TestDuplicateEmailRollsBackExam() {
	ctx := context.Background()
	first, firstExam := newTestPair("taken@example.gov")
	s.Require().NoError(s.store.Create(ctx, first, firstExam))

	second, secondExam := newTestPair("TAKEN@example.gov")
	err := s.store.Create(ctx, second, secondExam)
	s.Require().ErrorIs(err, sentinel.ErrAlreadyUsed)

	_, err = s.exams.FindByID(ctx, secondExam.ID)
	s.ErrorIs(err, examstore.ErrNotFound)
}

// TestConcurrentDuplicateEmail verifies that racing registrations for the
// same email produce exactly one registrant.
func (s *PostgresStoreSuite) TestConcurrentDuplicateEmail() {
	ctx := context.Background()
	const goroutines = 20

	var wg sync.WaitGroup
	var successCount atomic.Int32
	var conflictCount atomic.Int32

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			registrant, exam := newTestPair("race@example.gov")
			err := s.store.Create(ctx, registrant, exam)
			if err == nil {
				successCount.Add(1)
			} else if errors.Is(err, sentinel.ErrAlreadyUsed) {
				conflictCount.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(1), successCount.Load(), "exactly one create should succeed")
	s.Equal(int32(goroutines-1), conflictCount.Load(), "all others should get conflict error")

	count, err := s.store.Count(ctx)
	s.Require().NoError(err)
	s.Equal(1, count)
}

func (s *PostgresStoreSuite) TestDeleteRemovesOwnedExam() {
	ctx := context.Background()
	registrant, exam := newTestPair("leaving@example.gov")
	s.Require().NoError(s.store.Create(ctx, registrant, exam))

	// Score the exam so trail entries exist, then confirm they go with it.
	score := 72.0
	_, err := s.exams.ApplyScoreUpdate(ctx, exam.ID, scoring.Update{GeneralPaperScore: &score}, uuid.New(), 60, time.Now().UTC())
	s.Require().NoError(err)

	deleted, err := s.store.Delete(ctx, registrant.ID)
	s.Require().NoError(err)
	s.Equal(registrant.Email, deleted.Email)

	_, err = s.store.FindByID(ctx, registrant.ID)
	s.ErrorIs(err, store.ErrNotFound)
	_, err = s.exams.FindByID(ctx, exam.ID)
	s.ErrorIs(err, examstore.ErrNotFound)

	var entries int
	err = s.postgres.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM exam_score_entries WHERE exam_id = $1`, exam.ID).Scan(&entries)
	s.Require().NoError(err)
	s.Zero(entries)
}

func (s *PostgresStoreSuite) TestListSearchAndPagination() {
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		registrant, exam := newTestPair(fmt.Sprintf("candidate%d@example.gov", i))
		registrant.Surname = fmt.Sprintf("Surname%d", i)
		if i == 4 {
			registrant.Surname = "Okonkwo"
		}
		s.Require().NoError(s.store.Create(ctx, registrant, exam))
		time.Sleep(5 * time.Millisecond) // distinct created_at ordering
	}

	items, total, err := s.store.List(ctx, store.Query{Page: 1, Limit: 2}.Normalize())
	s.Require().NoError(err)
	s.Equal(5, total)
	s.Len(items, 2)
	// Newest first.
	s.Equal("Okonkwo", items[0].Registrant.Surname)
	s.Require().NotNil(items[0].Exam)
	s.Equal(exammodels.ExamTypePromotion, items[0].Exam.Type)

	items, total, err = s.store.List(ctx, store.Query{Page: 1, Limit: 20, Search: "okonkwo"}.Normalize())
	s.Require().NoError(err)
	s.Equal(1, total)
	s.Require().Len(items, 1)
	s.True(strings.EqualFold("Okonkwo", items[0].Registrant.Surname))
}
