package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/mock/gomock"

	exammodels "sebexam/internal/exam/models"
	"sebexam/internal/exam/scoring"
	examstore "sebexam/internal/exam/store"
	"sebexam/internal/platform/metrics"
	"sebexam/internal/registrant/models"
	"sebexam/internal/registrant/store"
	"sebexam/internal/stats/handler/mocks"
	statsservice "sebexam/internal/stats/service"
)

//go:generate mockgen -source=handler.go -destination=mocks/stats-mocks.go -package=mocks Service

// promauto registers against the default registry, so the collectors
// must only be created once per test binary.
var testMetrics = metrics.New()

type fixture struct {
	router      http.Handler
	exams       *examstore.InMemory
	registrants *store.InMemory
	seq         int
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	exams := examstore.NewInMemory()
	registrants := store.NewInMemory(exams)
	svc := statsservice.New(statsservice.Deps{
		Registrants: registrants,
		Thresholds:  examstore.NewInMemoryThresholds(),
		Logger:      slog.Default(),
	})
	handler := New(svc, slog.Default(), testMetrics)

	router := chi.NewRouter()
	handler.Register(router)
	return &fixture{router: router, exams: exams, registrants: registrants}
}

// seed registers a candidate, optionally scoring the exam against the
// default threshold.
func (f *fixture) seed(t *testing.T, examType exammodels.ExamType, presentLevel string, scores *scoring.Update) {
	t.Helper()
	f.seq++
	now := time.Now().UTC()

	examNumber, err := exammodels.FormatExamNumber(examType, now.Year(), f.seq)
	if err != nil {
		t.Fatalf("failed to format exam number: %v", err)
	}
	exam := exammodels.NewExam(uuid.New(), examNumber, examType, now, now)
	if scores != nil {
		if err := scoring.Apply(exam, *scores, uuid.New(), exammodels.DefaultPassScore, now); err != nil {
			t.Fatalf("failed to apply scores: %v", err)
		}
	}

	registrant := &models.Registrant{
		ID:                uuid.New(),
		Surname:           "Candidate",
		FirstName:         fmt.Sprintf("Number%d", f.seq),
		Email:             fmt.Sprintf("candidate%d@example.gov.ng", f.seq),
		PresentGradeLevel: presentLevel,
		ExamID:            exam.ID,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := f.registrants.Create(context.Background(), registrant, exam); err != nil {
		t.Fatalf("failed to seed registrant: %v", err)
	}
}

func scored(general, professional float64) *scoring.Update {
	return &scoring.Update{GeneralPaperScore: &general, ProfessionalPaperScore: &professional}
}

func (f *fixture) get(t *testing.T, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func TestDashboardRoute(t *testing.T) {
	f := newFixture(t)
	f.seed(t, exammodels.ExamTypePromotion, "8", scored(40, 35))
	f.seed(t, exammodels.ExamTypeConversion, "6", scored(20, 10))
	f.seed(t, exammodels.ExamTypeConfirmation, "4", nil)

	rec := f.get(t, "/exam-api/registrants/dashboard")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for dashboard, got %d", rec.Code)
	}

	var resp struct {
		Data struct {
			TotalRegistrations   int `json:"totalRegistrations"`
			TotalPassed          int `json:"totalPassed"`
			TotalFailed          int `json:"totalFailed"`
			TotalPending         int `json:"totalPending"`
			TotalPromotionExams  int `json:"totalPromotionExams"`
			TotalConversionExams int `json:"totalConversionExams"`
		} `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode dashboard: %v", err)
	}
	if resp.Data.TotalRegistrations != 3 {
		t.Fatalf("expected 3 registrations, got %d", resp.Data.TotalRegistrations)
	}
	if resp.Data.TotalPassed != 1 || resp.Data.TotalFailed != 1 || resp.Data.TotalPending != 1 {
		t.Fatalf("unexpected verdict split: %+v", resp.Data)
	}
	if resp.Data.TotalPromotionExams != 1 || resp.Data.TotalConversionExams != 1 {
		t.Fatalf("unexpected per-type counts: %+v", resp.Data)
	}
}

func TestLevelsStatusRoute(t *testing.T) {
	f := newFixture(t)
	f.seed(t, exammodels.ExamTypePromotion, "8", scored(40, 35))
	f.seed(t, exammodels.ExamTypePromotion, "8", nil)

	rec := f.get(t, "/exam-api/registrants/levels-status?examType=promotion")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for levels-status, got %d", rec.Code)
	}
	var resp struct {
		Data []struct {
			Level   string `json:"level"`
			Passed  int    `json:"passed"`
			Pending int    `json:"pending"`
		} `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode levels: %v", err)
	}
	if len(resp.Data) != 17 {
		t.Fatalf("expected 17 levels, got %d", len(resp.Data))
	}
	for _, level := range resp.Data {
		if level.Level == "8" {
			if level.Passed != 1 || level.Pending != 1 {
				t.Fatalf("unexpected level 8 split: %+v", level)
			}
		}
	}

	rec = f.get(t, "/exam-api/registrants/levels-status?examType=recruitment")
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for unknown exam type, got %d", rec.Code)
	}
}

func TestPromotionStatsRoute(t *testing.T) {
	f := newFixture(t)
	f.seed(t, exammodels.ExamTypePromotion, "8", scored(40, 35))

	rec := f.get(t, "/exam-api/registrants/promotion-stats")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for promotion-stats, got %d", rec.Code)
	}
	var resp struct {
		Data []struct {
			PresentGradeLevel  string `json:"presentGradeLevel"`
			ExpectedGradeLevel string `json:"expectedGradeLevel"`
		} `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode promotion stats: %v", err)
	}
	if len(resp.Data) != 15 {
		t.Fatalf("expected 15 promotion bands, got %d", len(resp.Data))
	}
	if resp.Data[0].PresentGradeLevel != "1" || resp.Data[0].ExpectedGradeLevel != "2" {
		t.Fatalf("unexpected first band: %+v", resp.Data[0])
	}
}

func TestAnalysisRoutes(t *testing.T) {
	f := newFixture(t)
	f.seed(t, exammodels.ExamTypePromotion, "8", scored(40, 35))
	f.seed(t, exammodels.ExamTypeConversion, "6", scored(20, 10))

	rec := f.get(t, "/exam-api/registrants/analysis/pass-fail-by-type")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for pass-fail analysis, got %d", rec.Code)
	}
	var analysis struct {
		Data []struct {
			ExamType        string `json:"examType"`
			TotalCandidates int    `json:"totalCandidates"`
			PassedByScore   int    `json:"passedByScore"`
		} `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&analysis); err != nil {
		t.Fatalf("failed to decode analysis: %v", err)
	}
	if len(analysis.Data) != 3 {
		t.Fatalf("expected one entry per exam type, got %d", len(analysis.Data))
	}
	for _, entry := range analysis.Data {
		if entry.ExamType == "promotion" && entry.PassedByScore != 1 {
			t.Fatalf("expected promotion pass, got %+v", entry)
		}
	}

	rec = f.get(t, "/exam-api/registrants/analysis/scores-by-type")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for score averages, got %d", rec.Code)
	}
	var averages struct {
		Data []struct {
			ExamType        string  `json:"examType"`
			AvgTotalScore   float64 `json:"avgTotalScore"`
			TotalCandidates int     `json:"totalCandidates"`
		} `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&averages); err != nil {
		t.Fatalf("failed to decode averages: %v", err)
	}
	for _, entry := range averages.Data {
		if entry.ExamType == "conversion" && entry.AvgTotalScore != 30.0 {
			t.Fatalf("expected conversion average 30.0, got %v", entry.AvgTotalScore)
		}
	}
}

func TestAggregationFailureMapsToInternalError(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockService := mocks.NewMockService(ctrl)
	mockService.EXPECT().Dashboard(gomock.Any()).Return(statsservice.Dashboard{}, errors.New("store unavailable"))

	handler := New(mockService, slog.Default(), testMetrics)
	router := chi.NewRouter()
	handler.Register(router)

	req := httptest.NewRequest(http.MethodGet, "/exam-api/registrants/dashboard", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 when aggregation fails, got %d", rec.Code)
	}
	var resp struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode error envelope: %v", err)
	}
	if resp.Error == "" {
		t.Fatal("expected error code in envelope")
	}
}
