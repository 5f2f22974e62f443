package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	exammodels "sebexam/internal/exam/models"
	examstore "sebexam/internal/exam/store"
	"sebexam/internal/registrant/models"
	"sebexam/pkg/platform/sentinel"
)

// InMemory keeps registrants in a map and delegates exam rows to the
// in-memory exam store so create/delete stay paired the way the Postgres
// transaction pairs them.
type InMemory struct {
	mu          sync.RWMutex
	registrants map[uuid.UUID]models.Registrant
	exams       *examstore.InMemory
}

// NewInMemory constructs an in-memory registrant store backed by the
// given exam store.
func NewInMemory(exams *examstore.InMemory) *InMemory {
	return &InMemory{
		registrants: make(map[uuid.UUID]models.Registrant),
		exams:       exams,
	}
}

// Create persists the registrant/exam pair. Email uniqueness is enforced
// case-insensitively, matching the Postgres unique index on lower(email).
func (s *InMemory) Create(ctx context.Context, registrant *models.Registrant, exam *exammodels.Exam) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.registrants {
		if strings.EqualFold(existing.Email, registrant.Email) {
			return sentinel.ErrAlreadyUsed
		}
	}
	if err := s.exams.Create(ctx, exam); err != nil {
		return err
	}
	s.registrants[registrant.ID] = *registrant
	return nil
}

func (s *InMemory) FindByID(_ context.Context, id uuid.UUID) (*models.Registrant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	registrant, ok := s.registrants[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &registrant, nil
}

func (s *InMemory) FindByEmail(_ context.Context, email string) (*models.Registrant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, registrant := range s.registrants {
		if strings.EqualFold(registrant.Email, email) {
			r := registrant
			return &r, nil
		}
	}
	return nil, ErrNotFound
}

// Update persists biographical changes. The exam reference is immutable:
// whatever ExamID the caller passes, the stored one wins.
func (s *InMemory) Update(_ context.Context, registrant *models.Registrant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.registrants[registrant.ID]
	if !ok {
		return ErrNotFound
	}
	updated := *registrant
	updated.ExamID = existing.ExamID
	updated.CreatedAt = existing.CreatedAt
	s.registrants[registrant.ID] = updated
	return nil
}

// Delete removes the registrant and its owned exam record.
func (s *InMemory) Delete(ctx context.Context, id uuid.UUID) (*models.Registrant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	registrant, ok := s.registrants[id]
	if !ok {
		return nil, ErrNotFound
	}
	delete(s.registrants, id)
	_ = s.exams.Delete(ctx, registrant.ExamID)
	return &registrant, nil
}

func (s *InMemory) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.registrants), nil
}

// List returns one page of registrants, newest first, optionally filtered
// by a case-insensitive search over the searchable fields.
func (s *InMemory) List(ctx context.Context, query Query) ([]WithExam, int, error) {
	query = query.Normalize()

	all, err := s.ListWithExams(ctx, "")
	if err != nil {
		return nil, 0, err
	}

	filtered := all[:0:0]
	for _, item := range all {
		if query.ExamType != "" && (item.Exam == nil || item.Exam.Type != query.ExamType) {
			continue
		}
		if query.Status != "" && (item.Exam == nil || item.Exam.Status != query.Status) {
			continue
		}
		if query.Search != "" && !MatchesSearch(item, query.Search) {
			continue
		}
		filtered = append(filtered, item)
	}

	total := len(filtered)
	start := query.Offset()
	if start > total {
		start = total
	}
	end := start + query.Limit
	if end > total {
		end = total
	}
	return filtered[start:end], total, nil
}

// ListWithExams returns every registrant joined with its exam record,
// newest first, optionally filtered to one exam type.
func (s *InMemory) ListWithExams(ctx context.Context, examType exammodels.ExamType) ([]WithExam, error) {
	s.mu.RLock()
	registrants := make([]models.Registrant, 0, len(s.registrants))
	for _, registrant := range s.registrants {
		registrants = append(registrants, registrant)
	}
	s.mu.RUnlock()

	sort.Slice(registrants, func(i, j int) bool {
		return registrants[i].CreatedAt.After(registrants[j].CreatedAt)
	})

	out := make([]WithExam, 0, len(registrants))
	for _, registrant := range registrants {
		exam, err := s.exams.FindByID(ctx, registrant.ExamID)
		if err != nil {
			exam = nil
		}
		if examType != "" && (exam == nil || exam.Type != examType) {
			continue
		}
		out = append(out, WithExam{Registrant: registrant, Exam: exam})
	}
	return out, nil
}

// MatchesSearch reports whether the item matches the
// case-insensitive search over its biographical and exam identity fields.
func MatchesSearch(item WithExam, search string) bool {
	search = strings.ToLower(search)
	fields := []string{
		item.Registrant.Surname,
		item.Registrant.FirstName,
		item.Registrant.MiddleName,
		item.Registrant.Email,
		item.Registrant.Phone,
		item.Registrant.StaffVerificationNumber,
		item.Registrant.MDA,
		item.Registrant.PresentRank,
		item.Registrant.ExpectedRank,
		item.Registrant.Cadre,
	}
	if item.Exam != nil {
		fields = append(fields, item.Exam.ExamNumber, item.Exam.Type.String(), item.Exam.Status.String())
	}
	for _, field := range fields {
		if strings.Contains(strings.ToLower(field), search) {
			return true
		}
	}
	return false
}
