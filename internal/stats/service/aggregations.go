package service

import (
	"context"
	"strconv"

	"golang.org/x/sync/errgroup"

	exammodels "sebexam/internal/exam/models"
	"sebexam/internal/exam/scoring"
	"sebexam/internal/registrant/store"
	dErrors "sebexam/pkg/domain-errors"
)

// statusLevels is the grade-level range reported by StatusByLevel. Levels
// with no candidates still appear, zero-filled.
const statusLevels = 17

// promotionBands is the number of consecutive grade-level pairs in the
// promotion matrix, 1→2 through 15→16.
const promotionBands = 15

// Dashboard is the landing-page summary.
type Dashboard struct {
	TotalRegistrations     int `json:"totalRegistrations"`
	TotalPassed            int `json:"totalPassed"`
	TotalFailed            int `json:"totalFailed"`
	TotalPending           int `json:"totalPending"`
	TotalIncapacitated     int `json:"totalIncapacitated"`
	TotalPromotionExams    int `json:"totalPromotionExams"`
	TotalConversionExams   int `json:"totalConversionExams"`
	TotalConfirmationExams int `json:"totalConfirmationExams"`
}

// LevelStatus is one grade level's pass/fail/pending breakdown.
type LevelStatus struct {
	Level   string `json:"level"`
	Passed  int    `json:"passed"`
	Failed  int    `json:"failed"`
	Pending int    `json:"pending"`
}

// PromotionBand counts passed candidates moving between one pair of
// consecutive grade levels.
type PromotionBand struct {
	PresentGradeLevel  string `json:"presentGradeLevel"`
	ExpectedGradeLevel string `json:"expectedGradeLevel"`
	Count              int    `json:"count"`
}

// TypeAnalysis reports one exam type's pass/fail picture. PassedByScore
// recomputes against the current threshold; the ByStatus fields read the
// stored exam status. The two diverge when a threshold changes after
// scores were recorded, and both are reported as-is.
type TypeAnalysis struct {
	ExamType         string  `json:"examType"`
	PassScore        float64 `json:"passScore"`
	TotalCandidates  int     `json:"totalCandidates"`
	PassedByScore    int     `json:"passedByScore"`
	PassedByStatus   int     `json:"passedByStatus"`
	FailedByStatus   int     `json:"failedByStatus"`
	PendingByStatus  int     `json:"pendingByStatus"`
	AvgScore         float64 `json:"avgScore"`
	PassRateByScore  float64 `json:"passRateByScore"`
	PassRateByStatus float64 `json:"passRateByStatus"`
}

// TypeAverages reports per-category score averages for one exam type.
// Category averages cover only candidates with a latest value in that
// category; the composite average covers every scored candidate.
type TypeAverages struct {
	ExamType             string  `json:"examType"`
	AvgGeneralScore      float64 `json:"avgGeneralScore"`
	AvgProfessionalScore float64 `json:"avgProfessionalScore"`
	AvgInterviewScore    float64 `json:"avgInterviewScore"`
	AvgAppraisalScore    float64 `json:"avgAppraisalScore"`
	AvgSeniorityScore    float64 `json:"avgSeniorityScore"`
	AvgTotalScore        float64 `json:"avgTotalScore"`
	TotalCandidates      int     `json:"totalCandidates"`
	PassedCandidates     int     `json:"passedCandidates"`
	PassRate             float64 `json:"passRate"`
	PassScore            float64 `json:"passScore"`
}

// Dashboard computes the landing-page totals. Verdict counts are
// recomputed from trails so they track the current thresholds.
func (s *Service) Dashboard(ctx context.Context) (Dashboard, error) {
	passScores, err := s.passScores(ctx)
	if err != nil {
		return Dashboard{}, err
	}

	var out Dashboard

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		total, err := s.registrants.Count(gctx)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "counting registrants")
		}
		out.TotalRegistrations = total
		return nil
	})

	var items []store.WithExam
	g.Go(func() error {
		var err error
		items, err = s.registrants.ListWithExams(gctx, "")
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "listing registrants")
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return Dashboard{}, err
	}

	for _, item := range items {
		if item.Exam == nil {
			continue
		}
		if item.Registrant.Disability {
			out.TotalIncapacitated++
		}
		switch item.Exam.Type {
		case exammodels.ExamTypePromotion:
			out.TotalPromotionExams++
		case exammodels.ExamTypeConversion:
			out.TotalConversionExams++
		case exammodels.ExamTypeConfirmation:
			out.TotalConfirmationExams++
		}
		switch evaluate(item, passScores).status {
		case exammodels.ExamStatusPassed:
			out.TotalPassed++
		case exammodels.ExamStatusFailed:
			out.TotalFailed++
		default:
			out.TotalPending++
		}
	}
	return out, nil
}

// StatusByLevel buckets candidates by present grade level into
// recomputed pass/fail/pending counts. The result always has exactly 17
// entries for levels "1".."17". An empty examType covers all types.
func (s *Service) StatusByLevel(ctx context.Context, examType exammodels.ExamType) ([]LevelStatus, error) {
	if examType != "" && !examType.Valid() {
		return nil, dErrors.New(dErrors.CodeValidation, "Invalid exam type")
	}

	passScores, err := s.passScores(ctx)
	if err != nil {
		return nil, err
	}
	items, err := s.registrants.ListWithExams(ctx, examType)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "listing registrants")
	}

	byLevel := make(map[string]*LevelStatus, statusLevels)
	for _, item := range items {
		if item.Exam == nil {
			continue
		}
		level := item.Registrant.PresentGradeLevel
		bucket, ok := byLevel[level]
		if !ok {
			bucket = &LevelStatus{Level: level}
			byLevel[level] = bucket
		}
		switch evaluate(item, passScores).status {
		case exammodels.ExamStatusPassed:
			bucket.Passed++
		case exammodels.ExamStatusFailed:
			bucket.Failed++
		default:
			bucket.Pending++
		}
	}

	out := make([]LevelStatus, 0, statusLevels)
	for i := 1; i <= statusLevels; i++ {
		level := strconv.Itoa(i)
		if bucket, ok := byLevel[level]; ok {
			out = append(out, *bucket)
			continue
		}
		out = append(out, LevelStatus{Level: level})
	}
	return out, nil
}

// PromotionMatrix counts candidates whose recomputed status is passed by
// their (present, expected) grade-level pair. The result always has 15
// rows for the consecutive pairs 1→2 through 15→16, zero-filled.
func (s *Service) PromotionMatrix(ctx context.Context) ([]PromotionBand, error) {
	passScores, err := s.passScores(ctx)
	if err != nil {
		return nil, err
	}
	items, err := s.registrants.ListWithExams(ctx, "")
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "listing registrants")
	}

	counts := make(map[string]int)
	for _, item := range items {
		if item.Exam == nil {
			continue
		}
		if evaluate(item, passScores).status != exammodels.ExamStatusPassed {
			continue
		}
		key := item.Registrant.PresentGradeLevel + "-" + item.Registrant.ExpectedGradeLevel
		counts[key]++
	}

	out := make([]PromotionBand, 0, promotionBands)
	for i := 1; i <= promotionBands; i++ {
		present := strconv.Itoa(i)
		expected := strconv.Itoa(i + 1)
		out = append(out, PromotionBand{
			PresentGradeLevel:  present,
			ExpectedGradeLevel: expected,
			Count:              counts[present+"-"+expected],
		})
	}
	return out, nil
}

// PassFailAnalysis builds the per-type analysis, fanning out one
// goroutine per exam type. Rows are ordered by the canonical exam-type
// order.
func (s *Service) PassFailAnalysis(ctx context.Context) ([]TypeAnalysis, error) {
	passScores, err := s.passScores(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]TypeAnalysis, len(exammodels.ExamTypes))
	g, gctx := errgroup.WithContext(ctx)
	for i, examType := range exammodels.ExamTypes {
		g.Go(func() error {
			analysis, err := s.analyzeType(gctx, examType, passScores)
			if err != nil {
				return err
			}
			out[i] = analysis
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) analyzeType(ctx context.Context, examType exammodels.ExamType, passScores map[exammodels.ExamType]float64) (TypeAnalysis, error) {
	items, err := s.registrants.ListWithExams(ctx, examType)
	if err != nil {
		return TypeAnalysis{}, dErrors.Wrap(err, dErrors.CodeInternal, "listing registrants")
	}

	analysis := TypeAnalysis{
		ExamType:  examType.String(),
		PassScore: passScores[examType],
	}

	var compositeSum float64
	for _, item := range items {
		if item.Exam == nil {
			continue
		}
		analysis.TotalCandidates++
		v := evaluate(item, passScores)
		compositeSum += v.composite
		if v.status == exammodels.ExamStatusPassed {
			analysis.PassedByScore++
		}
		switch item.Exam.Status {
		case exammodels.ExamStatusPassed:
			analysis.PassedByStatus++
		case exammodels.ExamStatusFailed:
			analysis.FailedByStatus++
		default:
			analysis.PendingByStatus++
		}
	}

	if analysis.TotalCandidates > 0 {
		analysis.AvgScore = round2(compositeSum / float64(analysis.TotalCandidates))
	}
	analysis.PassRateByScore = rate(analysis.PassedByScore, analysis.TotalCandidates)
	analysis.PassRateByStatus = rate(analysis.PassedByStatus, analysis.TotalCandidates)
	return analysis, nil
}

// AverageScores reports per-category averages per exam type, enriched
// with the current threshold. Candidates with no scored category at all
// are excluded from the population.
func (s *Service) AverageScores(ctx context.Context) ([]TypeAverages, error) {
	passScores, err := s.passScores(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]TypeAverages, len(exammodels.ExamTypes))
	g, gctx := errgroup.WithContext(ctx)
	for i, examType := range exammodels.ExamTypes {
		g.Go(func() error {
			averages, err := s.averagesForType(gctx, examType, passScores)
			if err != nil {
				return err
			}
			out[i] = averages
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) averagesForType(ctx context.Context, examType exammodels.ExamType, passScores map[exammodels.ExamType]float64) (TypeAverages, error) {
	items, err := s.registrants.ListWithExams(ctx, examType)
	if err != nil {
		return TypeAverages{}, dErrors.Wrap(err, dErrors.CodeInternal, "listing registrants")
	}

	averages := TypeAverages{
		ExamType:  examType.String(),
		PassScore: passScores[examType],
	}

	type accumulator struct {
		sum   float64
		count int
	}
	byCategory := make(map[exammodels.ScoreCategory]*accumulator, len(exammodels.InputCategories))
	for _, category := range exammodels.InputCategories {
		byCategory[category] = &accumulator{}
	}
	var composite accumulator

	for _, item := range items {
		if item.Exam == nil {
			continue
		}
		score, hasAny := scoring.Composite(item.Exam)
		if !hasAny {
			continue
		}
		averages.TotalCandidates++
		composite.sum += score
		composite.count++
		for _, category := range exammodels.InputCategories {
			if latest, ok := item.Exam.Trail(category).Latest(); ok {
				acc := byCategory[category]
				acc.sum += latest
				acc.count++
			}
		}
		if item.Exam.Status == exammodels.ExamStatusPassed {
			averages.PassedCandidates++
		}
	}

	avg := func(acc *accumulator) float64 {
		if acc.count == 0 {
			return 0
		}
		return round2(acc.sum / float64(acc.count))
	}
	averages.AvgGeneralScore = avg(byCategory[exammodels.CategoryGeneralPaper])
	averages.AvgProfessionalScore = avg(byCategory[exammodels.CategoryProfessionalPaper])
	averages.AvgInterviewScore = avg(byCategory[exammodels.CategoryInterview])
	averages.AvgAppraisalScore = avg(byCategory[exammodels.CategoryAppraisal])
	averages.AvgSeniorityScore = avg(byCategory[exammodels.CategorySeniority])
	averages.AvgTotalScore = avg(&composite)
	averages.PassRate = rate(averages.PassedCandidates, averages.TotalCandidates)
	return averages, nil
}
