package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"sebexam/internal/exam/models"
	"sebexam/internal/exam/scoring"
	"sebexam/pkg/platform/sentinel"
)

// InMemory keeps exam records in a map guarded by a mutex. It favors
// clarity over performance; score updates hold the write lock end to end,
// which gives the same atomicity the Postgres store gets from row locks.
type InMemory struct {
	mu    sync.RWMutex
	exams map[uuid.UUID]*models.Exam
}

// NewInMemory constructs an empty in-memory exam store.
func NewInMemory() *InMemory {
	return &InMemory{exams: make(map[uuid.UUID]*models.Exam)}
}

func (s *InMemory) Create(_ context.Context, exam *models.Exam) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.exams {
		if existing.ExamNumber == exam.ExamNumber {
			return sentinel.ErrAlreadyUsed
		}
	}
	s.exams[exam.ID] = cloneExam(exam)
	return nil
}

func (s *InMemory) FindByID(_ context.Context, id uuid.UUID) (*models.Exam, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	exam, ok := s.exams[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneExam(exam), nil
}

// ApplyScoreUpdate appends the submitted scores, the recomputed total, and
// the optional remark, then persists the derived status — all under one
// lock so concurrent submissions serialize.
func (s *InMemory) ApplyScoreUpdate(_ context.Context, examID uuid.UUID, update scoring.Update, uploadedBy uuid.UUID, threshold float64, now time.Time) (*models.Exam, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	exam, ok := s.exams[examID]
	if !ok {
		return nil, ErrNotFound
	}

	working := cloneExam(exam)
	if err := scoring.Apply(working, update, uploadedBy, threshold, now); err != nil {
		return nil, err
	}
	s.exams[examID] = working
	return cloneExam(working), nil
}

// UpdateStatus rewrites the stored verdict without touching any trail.
// Used by the status refresh that re-evaluates exams after a threshold
// change.
func (s *InMemory) UpdateStatus(_ context.Context, examID uuid.UUID, status models.ExamStatus, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	exam, ok := s.exams[examID]
	if !ok {
		return ErrNotFound
	}
	working := cloneExam(exam)
	working.Status = status
	working.UpdatedAt = now
	s.exams[examID] = working
	return nil
}

func (s *InMemory) CountByType(_ context.Context, examType models.ExamType) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, exam := range s.exams {
		if exam.Type == examType {
			count++
		}
	}
	return count, nil
}

func (s *InMemory) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.exams[id]; !ok {
		return ErrNotFound
	}
	delete(s.exams, id)
	return nil
}

func cloneExam(exam *models.Exam) *models.Exam {
	clone := *exam
	clone.GeneralPaperTrail = append(models.ScoreTrail(nil), exam.GeneralPaperTrail...)
	clone.ProfessionalPaperTrail = append(models.ScoreTrail(nil), exam.ProfessionalPaperTrail...)
	clone.InterviewTrail = append(models.ScoreTrail(nil), exam.InterviewTrail...)
	clone.AppraisalTrail = append(models.ScoreTrail(nil), exam.AppraisalTrail...)
	clone.SeniorityTrail = append(models.ScoreTrail(nil), exam.SeniorityTrail...)
	clone.TotalTrail = append(models.ScoreTrail(nil), exam.TotalTrail...)
	clone.Remarks = append(models.RemarkTrail(nil), exam.Remarks...)
	return &clone
}

// InMemorySequences allocates exam numbers from per-(type, year) counters.
type InMemorySequences struct {
	mu   sync.Mutex
	last map[sequenceKey]int
}

type sequenceKey struct {
	examType models.ExamType
	year     int
}

// NewInMemorySequences constructs an empty sequence allocator.
func NewInMemorySequences() *InMemorySequences {
	return &InMemorySequences{last: make(map[sequenceKey]int)}
}

// Next returns the next sequence number for the exam type and year. The
// counter only moves forward, so concurrent callers always receive
// distinct numbers.
func (s *InMemorySequences) Next(_ context.Context, examType models.ExamType, year int) (int, error) {
	if !examType.Valid() {
		return 0, sentinel.ErrNotFound
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	key := sequenceKey{examType: examType, year: year}
	s.last[key]++
	return s.last[key], nil
}

// InMemoryThresholds keeps one pass-score record per exam type.
type InMemoryThresholds struct {
	mu         sync.RWMutex
	thresholds map[models.ExamType]models.Threshold
	now        func() time.Time
}

// NewInMemoryThresholds constructs an empty threshold store.
func NewInMemoryThresholds() *InMemoryThresholds {
	return &InMemoryThresholds{
		thresholds: make(map[models.ExamType]models.Threshold),
		now:        time.Now,
	}
}

// GetOrCreate returns the threshold for the exam type, installing the
// default the first time the type is read. Double-checked under the write
// lock so racing first-reads create exactly one record.
func (s *InMemoryThresholds) GetOrCreate(_ context.Context, examType models.ExamType) (models.Threshold, error) {
	s.mu.RLock()
	threshold, ok := s.thresholds[examType]
	s.mu.RUnlock()
	if ok {
		return threshold, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if threshold, ok := s.thresholds[examType]; ok {
		return threshold, nil
	}
	threshold = models.Threshold{
		ExamType:  examType,
		PassScore: models.DefaultPassScore,
		CreatedAt: s.now(),
	}
	s.thresholds[examType] = threshold
	return threshold, nil
}

// Set upserts the threshold for the exam type.
func (s *InMemoryThresholds) Set(_ context.Context, examType models.ExamType, passScore float64) (models.Threshold, error) {
	if err := models.ValidatePassScore(passScore); err != nil {
		return models.Threshold{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	threshold, ok := s.thresholds[examType]
	if !ok {
		threshold = models.Threshold{ExamType: examType, CreatedAt: now}
	}
	threshold.PassScore = passScore
	threshold.UpdatedAt = now
	s.thresholds[examType] = threshold
	return threshold, nil
}

// List returns every configured threshold in canonical exam-type order.
func (s *InMemoryThresholds) List(_ context.Context) ([]models.Threshold, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Threshold, 0, len(s.thresholds))
	for _, examType := range models.ExamTypes {
		if threshold, ok := s.thresholds[examType]; ok {
			out = append(out, threshold)
		}
	}
	return out, nil
}
