// Package service aggregates exam outcomes across the whole candidate
// population: dashboard totals, status by grade level, the promotion
// matrix, and the per-exam-type pass/fail and score analyses.
//
// Every aggregation replays the scoring rules over the current trails
// instead of trusting the stored exam status, so the numbers stay honest
// after a threshold change even before statuses are refreshed. Where the
// stored status is reported it is labelled as such and kept alongside the
// recomputed figure rather than reconciled.
package service

import (
	"context"
	"log/slog"
	"math"

	"golang.org/x/sync/errgroup"

	exammodels "sebexam/internal/exam/models"
	"sebexam/internal/exam/scoring"
	"sebexam/internal/registrant/store"
	dErrors "sebexam/pkg/domain-errors"
)

// RegistrantStore provides the joined registrant+exam population the
// aggregations replay over.
type RegistrantStore interface {
	Count(ctx context.Context) (int, error)
	ListWithExams(ctx context.Context, examType exammodels.ExamType) ([]store.WithExam, error)
}

// ThresholdStore resolves the current pass score per exam type.
type ThresholdStore interface {
	GetOrCreate(ctx context.Context, examType exammodels.ExamType) (exammodels.Threshold, error)
}

type Service struct {
	registrants RegistrantStore
	thresholds  ThresholdStore
	logger      *slog.Logger
}

type Deps struct {
	Registrants RegistrantStore
	Thresholds  ThresholdStore
	Logger      *slog.Logger
}

func New(deps Deps) *Service {
	return &Service{
		registrants: deps.Registrants,
		thresholds:  deps.Thresholds,
		logger:      deps.Logger,
	}
}

// passScores loads the threshold for every exam type concurrently. The
// map is keyed by type so evaluation never falls back to a stale default.
func (s *Service) passScores(ctx context.Context) (map[exammodels.ExamType]float64, error) {
	g, ctx := errgroup.WithContext(ctx)

	scores := make([]float64, len(exammodels.ExamTypes))
	for i, examType := range exammodels.ExamTypes {
		g.Go(func() error {
			threshold, err := s.thresholds.GetOrCreate(ctx, examType)
			if err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "resolving pass score")
			}
			scores[i] = threshold.PassScore
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make(map[exammodels.ExamType]float64, len(exammodels.ExamTypes))
	for i, examType := range exammodels.ExamTypes {
		out[examType] = scores[i]
	}
	return out, nil
}

// verdict is one candidate's recomputed outcome.
type verdict struct {
	composite float64
	hasAny    bool
	status    exammodels.ExamStatus
}

// evaluate replays the scoring rules for one joined row against the
// candidate's own exam-type threshold.
func evaluate(item store.WithExam, passScores map[exammodels.ExamType]float64) verdict {
	composite, hasAny := scoring.Composite(item.Exam)
	threshold, ok := passScores[item.Exam.Type]
	if !ok {
		threshold = exammodels.DefaultPassScore
	}
	return verdict{
		composite: composite,
		hasAny:    hasAny,
		status:    scoring.StatusFor(composite, hasAny, threshold),
	}
}

// round2 rounds half-up to two decimal places. All exported rates and
// averages pass through here.
func round2(v float64) float64 {
	return math.Floor(v*100+0.5) / 100
}

// rate returns part/total as a percentage, rounded, and 0 for an empty
// population.
func rate(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return round2(float64(part) / float64(total) * 100)
}
