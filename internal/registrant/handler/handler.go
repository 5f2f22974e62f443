// Package handler exposes the registrant API: registration, listing,
// biographical updates, the authenticated score-update route, and
// deletion.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	exammodels "sebexam/internal/exam/models"
	"sebexam/internal/exam/scoring"
	"sebexam/internal/filestore"
	"sebexam/internal/platform/metrics"
	"sebexam/internal/platform/middleware"
	"sebexam/internal/registrant/models"
	"sebexam/internal/registrant/service"
	"sebexam/internal/registrant/store"
	"sebexam/internal/transport/http/shared"
	dErrors "sebexam/pkg/domain-errors"
)

// maxUploadBytes bounds the multipart registration payload, picture
// included.
const maxUploadBytes = 10 << 20

// Service defines the registrant operations the handler needs.
type Service interface {
	Register(ctx context.Context, input service.RegisterInput) (*store.WithExam, error)
	Find(ctx context.Context, id uuid.UUID) (*store.WithExam, error)
	List(ctx context.Context, query store.Query) ([]store.WithExam, int, error)
	ListByStatus(ctx context.Context, status string, query store.Query) ([]store.WithExam, int, error)
	UpdateRegistrant(ctx context.Context, id uuid.UUID, input service.UpdateRegistrantInput) (*models.Registrant, error)
	UpdateExam(ctx context.Context, registrantID uuid.UUID, update scoring.Update, uploadedBy uuid.UUID) (*exammodels.Exam, error)
	Delete(ctx context.Context, id uuid.UUID) (*store.WithExam, error)
	RefreshStatuses(ctx context.Context, examType exammodels.ExamType) (int, error)
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

// Register mounts the registrant routes. Registration and reads are
// open; anything that mutates an existing record requires an officer
// token.
func (h *Handler) Register(r chi.Router) {
	router := chi.NewRouter()
	router.Use(middleware.Timeout(30 * time.Second))
	router.Use(middleware.ContentTypeJSON)
	router.Use(middleware.Latency(h.metrics, "/exam-api/registrants"))

	router.Post("/register", h.handleRegister)
	router.Get("/", h.handleList)
	router.Get("/registrant/{registrantID}", h.handleFind)
	router.Get("/status/{status}", h.handleListByStatus)

	router.Group(func(g chi.Router) {
		g.Use(middleware.RequireAuth(h.jwtValidator, h.logger))
		g.Put("/{registrantID}", h.handleUpdate)
		g.Patch("/{registrantID}/exam", h.handleUpdateExam)
		g.Delete("/{registrantID}", h.handleDelete)
		g.Post("/refresh-statuses", h.handleRefreshStatuses)
	})

	r.Mount("/exam-api/registrants", router)
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	input, err := h.decodeRegister(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	result, err := h.service.Register(r.Context(), *input)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, map[string]any{
		"message": "Successfully registered",
		"data":    result,
	})
}

func (h *Handler) handleFind(w http.ResponseWriter, r *http.Request) {
	id, err := registrantID(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	result, err := h.service.Find(r.Context(), id)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"data": result})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	query := listQuery(r)
	items, total, err := h.service.List(r.Context(), query)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, shared.Paginated{
		Data:  items,
		Total: total,
		Page:  query.Page,
		Limit: query.Limit,
	})
}

func (h *Handler) handleListByStatus(w http.ResponseWriter, r *http.Request) {
	query := listQuery(r)
	items, total, err := h.service.ListByStatus(r.Context(), chi.URLParam(r, "status"), query)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, shared.Paginated{
		Data:  items,
		Total: total,
		Page:  query.Page,
		Limit: query.Limit,
	})
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := registrantID(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	input, err := decodeUpdate(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	updated, err := h.service.UpdateRegistrant(r.Context(), id, *input)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"data": updated})
}

func (h *Handler) handleUpdateExam(w http.ResponseWriter, r *http.Request) {
	id, err := registrantID(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	var update scoring.Update
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	uploadedBy, err := uploaderFrom(r.Context())
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	exam, err := h.service.UpdateExam(r.Context(), id, update, uploadedBy)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"data": exam})
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := registrantID(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	deleted, err := h.service.Delete(r.Context(), id)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{
		"message": "Registrant deleted",
		"data":    deleted,
	})
}

func (h *Handler) handleRefreshStatuses(w http.ResponseWriter, r *http.Request) {
	examType := exammodels.ExamType(r.URL.Query().Get("examType"))
	changed, err := h.service.RefreshStatuses(r.Context(), examType)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{
		"data": map[string]int{"updated": changed},
	})
}

// uploaderFrom resolves the authenticated officer recorded against every
// trail entry.
func uploaderFrom(ctx context.Context) (uuid.UUID, error) {
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeUnauthorized, "missing credentials")
	}
	id, err := uuid.Parse(userID)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token subject")
	}
	return id, nil
}

func registrantID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "registrantID"))
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeBadRequest, "invalid registrant id")
	}
	return id, nil
}

func listQuery(r *http.Request) store.Query {
	values := r.URL.Query()
	page, _ := strconv.Atoi(values.Get("page"))
	limit, _ := strconv.Atoi(values.Get("limit"))
	return store.Query{
		Page:     page,
		Limit:    limit,
		Search:   values.Get("search"),
		ExamType: exammodels.ExamType(values.Get("exam.examType")),
		Status:   exammodels.ExamStatus(values.Get("exam.examStatus")),
	}.Normalize()
}

func isMultipart(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "multipart/form-data"
}

func pictureFrom(r *http.Request, field string) (*filestore.File, error) {
	file, header, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, dErrors.New(dErrors.CodeBadRequest, "unreadable profile picture")
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeBadRequest, "unreadable profile picture")
	}
	return &filestore.File{
		Name:        header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}
