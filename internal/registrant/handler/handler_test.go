package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"sebexam/internal/audit"
	examstore "sebexam/internal/exam/store"
	"sebexam/internal/filestore"
	"sebexam/internal/jwttoken"
	"sebexam/internal/nominalroll"
	platformmetrics "sebexam/internal/platform/metrics"
	registrantmetrics "sebexam/internal/registrant/metrics"
	"sebexam/internal/registrant/service"
	"sebexam/internal/registrant/store"
	"sebexam/internal/slip"
)

// promauto registers against the default registry, so the collectors
// must only be created once per test binary.
var (
	testMetrics        = platformmetrics.New()
	testServiceMetrics = registrantmetrics.New()
)

const signingKey = "test-signing-key"

func newRouter(t *testing.T) http.Handler {
	t.Helper()

	exams := examstore.NewInMemory()
	registrants := store.NewInMemory(exams)
	registry := nominalroll.NewFakeRegistry(nominalroll.CivilServant{
		NIN:                     "12345678901",
		StaffVerificationNumber: "SVN-001",
		Surname:                 "Adeyemi",
		FirstName:               "Chinedu",
		GradeLevel:              "8",
	})

	svc := service.New(service.Deps{
		Registrants: registrants,
		Exams:       exams,
		Sequences:   examstore.NewInMemorySequences(),
		Thresholds:  examstore.NewInMemoryThresholds(),
		Registry:    registry,
		Uploader:    filestore.NewInMemoryUploader(),
		Auditor:     audit.NewPublisher(audit.NewInMemoryStore(), slog.Default()),
		Slips:       slip.LogSender{Logger: slog.Default()},
		Metrics:     testServiceMetrics,
		Logger:      slog.Default(),
	})

	jwtService := jwttoken.NewJWTService(signingKey, "sebexam", "sebexam-api")
	handler := New(svc, slog.Default(), testMetrics, jwttoken.NewJWTServiceAdapter(jwtService))

	router := chi.NewRouter()
	handler.Register(router)
	return router
}

func officerToken(t *testing.T) string {
	t.Helper()
	jwtService := jwttoken.NewJWTService(signingKey, "sebexam", "sebexam-api")
	token, err := jwtService.GenerateAccessToken(uuid.New(), "officer", time.Hour)
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}
	return token
}

func registerBody(email string) map[string]any {
	return map[string]any{
		"surname":                 "Adeyemi",
		"firstName":               "Chinedu",
		"email":                   email,
		"phone":                   "08030000000",
		"nin":                     "12345678901",
		"staffVerificationNumber": "SVN-001",
		"presentRank":             "Senior Officer",
		"cadre":                   "Administrative",
		"mda":                     "Ministry of Works",
		"examType":                "promotion",
	}
}

func doJSON(router http.Handler, method, path string, payload any, token string) *httptest.ResponseRecorder {
	var body *bytes.Reader
	if payload != nil {
		raw, _ := json.Marshal(payload)
		body = bytes.NewReader(raw)
	} else {
		body = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

type registrationResponse struct {
	Message string `json:"message"`
	Data    struct {
		Registrant struct {
			ID    uuid.UUID `json:"id"`
			Email string    `json:"email"`
		} `json:"registrant"`
		Exam struct {
			ExamNumber string `json:"examNumber"`
			ExamStatus string `json:"examStatus"`
		} `json:"exam"`
	} `json:"data"`
}

func register(t *testing.T, router http.Handler, email string) registrationResponse {
	t.Helper()
	rec := doJSON(router, http.MethodPost, "/exam-api/registrants/register", registerBody(email), "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 registering, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp registrationResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode registration response: %v", err)
	}
	return resp
}

func TestRegisterAndFetch(t *testing.T) {
	router := newRouter(t)

	resp := register(t, router, "chinedu.adeyemi@example.gov.ng")
	if resp.Message != "Successfully registered" {
		t.Fatalf("unexpected message %q", resp.Message)
	}
	if resp.Data.Registrant.ID == uuid.Nil {
		t.Fatal("expected registrant id in response")
	}
	if resp.Data.Exam.ExamNumber == "" {
		t.Fatal("expected allocated exam number in response")
	}
	if resp.Data.Exam.ExamStatus != "pending" {
		t.Fatalf("expected pending exam, got %q", resp.Data.Exam.ExamStatus)
	}

	rec := doJSON(router, http.MethodGet, "/exam-api/registrants/registrant/"+resp.Data.Registrant.ID.String(), nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 fetching registrant, got %d", rec.Code)
	}
	var fetched registrationResponse
	if err := json.NewDecoder(rec.Body).Decode(&fetched); err != nil {
		t.Fatalf("failed to decode fetch response: %v", err)
	}
	if fetched.Data.Registrant.Email != "chinedu.adeyemi@example.gov.ng" {
		t.Fatalf("unexpected email %q", fetched.Data.Registrant.Email)
	}
}

func TestRegisterRejectsServantNotOnRoll(t *testing.T) {
	router := newRouter(t)

	body := registerBody("unknown@example.gov.ng")
	body["nin"] = "99999999999"
	rec := doJSON(router, http.MethodPost, "/exam-api/registrants/register", body, "")
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for servant not on roll, got %d", rec.Code)
	}
}

func TestRegisterRejectsMissingFields(t *testing.T) {
	router := newRouter(t)

	body := registerBody("missing@example.gov.ng")
	delete(body, "surname")
	rec := doJSON(router, http.MethodPost, "/exam-api/registrants/register", body, "")
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for missing surname, got %d", rec.Code)
	}
}

func TestListPaginates(t *testing.T) {
	router := newRouter(t)
	for i := 0; i < 3; i++ {
		register(t, router, fmt.Sprintf("candidate%d@example.gov.ng", i))
	}

	rec := doJSON(router, http.MethodGet, "/exam-api/registrants/?page=1&limit=2", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 listing, got %d", rec.Code)
	}
	var resp struct {
		Data  []json.RawMessage `json:"data"`
		Total int               `json:"total"`
		Page  int               `json:"page"`
		Limit int               `json:"limit"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode list response: %v", err)
	}
	if resp.Total != 3 || len(resp.Data) != 2 || resp.Page != 1 || resp.Limit != 2 {
		t.Fatalf("unexpected paging: total=%d len=%d page=%d limit=%d", resp.Total, len(resp.Data), resp.Page, resp.Limit)
	}
}

func TestListByStatusRoute(t *testing.T) {
	router := newRouter(t)
	register(t, router, "pending@example.gov.ng")

	rec := doJSON(router, http.MethodGet, "/exam-api/registrants/status/pending", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for pending listing, got %d", rec.Code)
	}
	var resp struct {
		Total int `json:"total"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode status response: %v", err)
	}
	if resp.Total != 1 {
		t.Fatalf("expected 1 pending registrant, got %d", resp.Total)
	}

	rec = doJSON(router, http.MethodGet, "/exam-api/registrants/status/passed", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for passed listing, got %d", rec.Code)
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode status response: %v", err)
	}
	if resp.Total != 0 {
		t.Fatalf("expected no passed registrants, got %d", resp.Total)
	}

	rec = doJSON(router, http.MethodGet, "/exam-api/registrants/status/nonsense", nil, "")
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for unknown status, got %d", rec.Code)
	}
}

func TestMutationsRequireToken(t *testing.T) {
	router := newRouter(t)
	resp := register(t, router, "locked@example.gov.ng")
	id := resp.Data.Registrant.ID.String()

	rec := doJSON(router, http.MethodPut, "/exam-api/registrants/"+id, map[string]any{"surname": "Changed"}, "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}

	rec = doJSON(router, http.MethodPatch, "/exam-api/registrants/"+id+"/exam", map[string]any{"generalPaperScore": 70}, "not-a-token")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 with garbage token, got %d", rec.Code)
	}
}

func TestScoreUpdateWithToken(t *testing.T) {
	router := newRouter(t)
	resp := register(t, router, "scored@example.gov.ng")
	token := officerToken(t)

	rec := doJSON(router, http.MethodPatch, "/exam-api/registrants/"+resp.Data.Registrant.ID.String()+"/exam",
		map[string]any{"generalPaperScore": 40, "professionalPaperScore": 35}, token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 updating scores, got %d: %s", rec.Code, rec.Body.String())
	}
	var updated struct {
		Data struct {
			ExamStatus string `json:"examStatus"`
		} `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&updated); err != nil {
		t.Fatalf("failed to decode exam response: %v", err)
	}
	if updated.Data.ExamStatus != "passed" {
		t.Fatalf("expected passed at default threshold, got %q", updated.Data.ExamStatus)
	}
}

func TestUpdateRejectsExamPayload(t *testing.T) {
	router := newRouter(t)
	resp := register(t, router, "detour@example.gov.ng")
	token := officerToken(t)

	rec := doJSON(router, http.MethodPut, "/exam-api/registrants/"+resp.Data.Registrant.ID.String(),
		map[string]any{"surname": "Changed", "exam": map[string]any{"generalPaperScore": 99}}, token)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for exam payload on update route, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestDeleteRegistrant(t *testing.T) {
	router := newRouter(t)
	resp := register(t, router, "leaving@example.gov.ng")
	token := officerToken(t)
	id := resp.Data.Registrant.ID.String()

	rec := doJSON(router, http.MethodDelete, "/exam-api/registrants/"+id, nil, token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 deleting, got %d", rec.Code)
	}

	rec = doJSON(router, http.MethodGet, "/exam-api/registrants/registrant/"+id, nil, "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", rec.Code)
	}
}
