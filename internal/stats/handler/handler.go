// Package handler exposes the statistics endpoints nested under the
// registrant API surface.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	exammodels "sebexam/internal/exam/models"
	"sebexam/internal/platform/metrics"
	"sebexam/internal/platform/middleware"
	statsservice "sebexam/internal/stats/service"
	"sebexam/internal/transport/http/shared"
)

// Service defines the aggregations the handler needs.
type Service interface {
	Dashboard(ctx context.Context) (statsservice.Dashboard, error)
	StatusByLevel(ctx context.Context, examType exammodels.ExamType) ([]statsservice.LevelStatus, error)
	PromotionMatrix(ctx context.Context) ([]statsservice.PromotionBand, error)
	PassFailAnalysis(ctx context.Context) ([]statsservice.TypeAnalysis, error)
	AverageScores(ctx context.Context) ([]statsservice.TypeAverages, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func New(service Service, logger *slog.Logger, m *metrics.Metrics) *Handler {
	return &Handler{service: service, logger: logger, metrics: m}
}

// Register attaches the statistics routes. They live under the
// registrant prefix, so they are registered as explicit paths rather
// than a mount; static routes take precedence over the registrant
// router's wildcard.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(g chi.Router) {
		g.Use(middleware.Timeout(30 * time.Second))
		g.Use(middleware.Latency(h.metrics, "/exam-api/registrants/stats"))

		g.Get("/exam-api/registrants/dashboard", h.handleDashboard)
		g.Get("/exam-api/registrants/promotion-stats", h.handlePromotionMatrix)
		g.Get("/exam-api/registrants/levels-status", h.handleStatusByLevel)
		g.Get("/exam-api/registrants/analysis/pass-fail-by-type", h.handlePassFail)
		g.Get("/exam-api/registrants/analysis/scores-by-type", h.handleAverageScores)
	})
}

func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	dashboard, err := h.service.Dashboard(r.Context())
	if err != nil {
		h.fail(w, r, "dashboard", err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"data": dashboard})
}

func (h *Handler) handleStatusByLevel(w http.ResponseWriter, r *http.Request) {
	examType := exammodels.ExamType(r.URL.Query().Get("examType"))
	levels, err := h.service.StatusByLevel(r.Context(), examType)
	if err != nil {
		h.fail(w, r, "levels-status", err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"data": levels})
}

func (h *Handler) handlePromotionMatrix(w http.ResponseWriter, r *http.Request) {
	matrix, err := h.service.PromotionMatrix(r.Context())
	if err != nil {
		h.fail(w, r, "promotion-stats", err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"data": matrix})
}

func (h *Handler) handlePassFail(w http.ResponseWriter, r *http.Request) {
	analysis, err := h.service.PassFailAnalysis(r.Context())
	if err != nil {
		h.fail(w, r, "pass-fail-by-type", err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"data": analysis})
}

func (h *Handler) handleAverageScores(w http.ResponseWriter, r *http.Request) {
	averages, err := h.service.AverageScores(r.Context())
	if err != nil {
		h.fail(w, r, "scores-by-type", err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"data": averages})
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	h.logger.ErrorContext(r.Context(), "statistics aggregation failed",
		"op", op,
		"request_id", middleware.GetRequestID(r.Context()),
		"error", err,
	)
	shared.WriteError(w, err)
}
