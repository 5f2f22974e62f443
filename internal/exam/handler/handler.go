// Package handler exposes the pass-score management endpoints.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"sebexam/internal/exam/models"
	"sebexam/internal/platform/metrics"
	"sebexam/internal/platform/middleware"
	"sebexam/internal/transport/http/shared"
	dErrors "sebexam/pkg/domain-errors"
)

// Service defines the pass-score operations the handler needs.
type Service interface {
	CreatePassScore(ctx context.Context, examType string, passScore float64) (models.Threshold, error)
	UpdatePassScore(ctx context.Context, examType string, passScore float64) (models.Threshold, error)
	GetPassScore(ctx context.Context, examType string) (models.Threshold, error)
	ListPassScores(ctx context.Context) ([]models.Threshold, error)
}

type Handler struct {
	service      Service
	logger       *slog.Logger
	metrics      *metrics.Metrics
	jwtValidator middleware.JWTValidator
}

func New(service Service, logger *slog.Logger, m *metrics.Metrics, jwtValidator middleware.JWTValidator) *Handler {
	return &Handler{service: service, logger: logger, metrics: m, jwtValidator: jwtValidator}
}

// Register mounts the pass-score routes. All of them require an officer
// token: thresholds decide verdicts.
func (h *Handler) Register(r chi.Router) {
	router := chi.NewRouter()
	router.Use(middleware.Timeout(15 * time.Second))
	router.Use(middleware.ContentTypeJSON)
	router.Use(middleware.Latency(h.metrics, "/exam-api/exams"))
	router.Use(middleware.RequireAuth(h.jwtValidator, h.logger))

	router.Post("/pass-score", h.handleCreatePassScore)
	router.Get("/pass-scores", h.handleListPassScores)
	router.Get("/pass-score/{examType}", h.handleGetPassScore)
	router.Put("/pass-score/{examType}", h.handleUpdatePassScore)

	r.Mount("/exam-api/exams", router)
}

type passScoreRequest struct {
	ExamType  string   `json:"examType"`
	PassScore *float64 `json:"passScore"`
}

func (h *Handler) handleCreatePassScore(w http.ResponseWriter, r *http.Request) {
	var req passScoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if req.PassScore == nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "passScore is required"))
		return
	}

	threshold, err := h.service.CreatePassScore(r.Context(), req.ExamType, *req.PassScore)
	if err != nil {
		h.logger.WarnContext(r.Context(), "create pass score failed",
			"exam_type", req.ExamType, "error", err,
			"request_id", middleware.GetRequestID(r.Context()))
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, map[string]any{"data": threshold})
}

func (h *Handler) handleUpdatePassScore(w http.ResponseWriter, r *http.Request) {
	var req passScoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if req.PassScore == nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "passScore is required"))
		return
	}

	threshold, err := h.service.UpdatePassScore(r.Context(), chi.URLParam(r, "examType"), *req.PassScore)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"data": threshold})
}

func (h *Handler) handleGetPassScore(w http.ResponseWriter, r *http.Request) {
	threshold, err := h.service.GetPassScore(r.Context(), chi.URLParam(r, "examType"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"data": threshold})
}

func (h *Handler) handleListPassScores(w http.ResponseWriter, r *http.Request) {
	thresholds, err := h.service.ListPassScores(r.Context())
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"data": thresholds})
}
