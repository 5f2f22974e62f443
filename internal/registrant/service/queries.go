package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"sebexam/internal/audit"
	exammodels "sebexam/internal/exam/models"
	"sebexam/internal/exam/scoring"
	"sebexam/internal/registrant/store"
	dErrors "sebexam/pkg/domain-errors"
)

// Find returns one registrant with its exam record.
func (s *Service) Find(ctx context.Context, id uuid.UUID) (*store.WithExam, error) {
	registrant, err := s.registrants.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "Registrant not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "registrant lookup failed")
	}
	exam, err := s.exams.FindByID(ctx, registrant.ExamID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "exam lookup failed")
	}
	return &store.WithExam{Registrant: *registrant, Exam: exam}, nil
}

// List returns one page of registrants with their exams.
func (s *Service) List(ctx context.Context, query store.Query) ([]store.WithExam, int, error) {
	items, total, err := s.registrants.List(ctx, query)
	if err != nil {
		return nil, 0, dErrors.Wrap(err, dErrors.CodeInternal, "registrant listing failed")
	}
	return items, total, nil
}

// Delete removes a registrant and its exam record.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) (*store.WithExam, error) {
	registrant, err := s.registrants.Delete(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "Registrant not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "registrant deletion failed")
	}

	if err := s.auditor.Emit(ctx, audit.Event{
		Action:       audit.ActionRegistrantDeleted,
		RegistrantID: registrant.ID,
		ExamID:       registrant.ExamID,
	}); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "deletion could not be audited")
	}
	return &store.WithExam{Registrant: *registrant}, nil
}

// ListByStatus pages through registrants whose recomputed verdict matches
// the requested status. The stored exam status is deliberately ignored so
// the listing stays correct after a threshold change; "incapacitated" is
// not a verdict at all and selects registrants with a disability instead.
func (s *Service) ListByStatus(ctx context.Context, status string, query store.Query) ([]store.WithExam, int, error) {
	query = query.Normalize()
	if query.ExamType != "" && !query.ExamType.Valid() {
		return nil, 0, dErrors.New(dErrors.CodeValidation, "Invalid exam type")
	}

	const incapacitated = "incapacitated"
	var want exammodels.ExamStatus
	if status != incapacitated {
		parsed, err := exammodels.ParseExamStatus(status)
		if err != nil {
			return nil, 0, err
		}
		want = parsed
	}

	items, err := s.registrants.ListWithExams(ctx, query.ExamType)
	if err != nil {
		return nil, 0, dErrors.Wrap(err, dErrors.CodeInternal, "registrant listing failed")
	}

	thresholds := make(map[exammodels.ExamType]float64)
	filtered := items[:0:0]
	for _, item := range items {
		if query.Search != "" && !store.MatchesSearch(item, query.Search) {
			continue
		}
		if status == incapacitated {
			if item.Registrant.Disability {
				filtered = append(filtered, item)
			}
			continue
		}
		if item.Exam == nil {
			continue
		}
		passScore, ok := thresholds[item.Exam.Type]
		if !ok {
			threshold, err := s.thresholds.GetOrCreate(ctx, item.Exam.Type)
			if err != nil {
				return nil, 0, dErrors.Wrap(err, dErrors.CodeInternal, "pass score lookup failed")
			}
			passScore = threshold.PassScore
			thresholds[item.Exam.Type] = passScore
		}
		composite, hasAny := scoring.Composite(item.Exam)
		if scoring.StatusFor(composite, hasAny, passScore) == want {
			filtered = append(filtered, item)
		}
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

// RefreshStatuses re-evaluates stored verdicts against the current
// thresholds. Trails are untouched; only the derived status moves. Exams
// with no scored category stay pending. Returns the number of records
// changed.
func (s *Service) RefreshStatuses(ctx context.Context, examType exammodels.ExamType) (int, error) {
	if examType != "" && !examType.Valid() {
		return 0, dErrors.New(dErrors.CodeValidation, "Invalid exam type")
	}

	items, err := s.registrants.ListWithExams(ctx, examType)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "registrant listing failed")
	}

	thresholds := make(map[exammodels.ExamType]float64)
	changed := 0
	for _, item := range items {
		if item.Exam == nil {
			continue
		}
		passScore, ok := thresholds[item.Exam.Type]
		if !ok {
			threshold, err := s.thresholds.GetOrCreate(ctx, item.Exam.Type)
			if err != nil {
				return changed, dErrors.Wrap(err, dErrors.CodeInternal, "pass score lookup failed")
			}
			passScore = threshold.PassScore
			thresholds[item.Exam.Type] = passScore
		}

		composite, hasAny := scoring.Composite(item.Exam)
		status := scoring.StatusFor(composite, hasAny, passScore)
		if status == item.Exam.Status {
			continue
		}
		if err := s.exams.UpdateStatus(ctx, item.Exam.ID, status, s.now()); err != nil {
			return changed, dErrors.Wrap(err, dErrors.CodeInternal, "status refresh failed")
		}
		changed++
	}
	return changed, nil
}
