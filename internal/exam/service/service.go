// Package service manages the configurable pass scores. Score application
// itself lives in the scoring engine and the exam store; this service only
// owns the thresholds the verdicts are computed against.
package service

import (
	"context"
	"fmt"
	"log/slog"

	"sebexam/internal/audit"
	"sebexam/internal/exam/models"
)

// ThresholdStore is the persistence surface for pass scores.
type ThresholdStore interface {
	GetOrCreate(ctx context.Context, examType models.ExamType) (models.Threshold, error)
	Set(ctx context.Context, examType models.ExamType, passScore float64) (models.Threshold, error)
	List(ctx context.Context) ([]models.Threshold, error)
}

// AuditPublisher records threshold changes.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

type Service struct {
	thresholds ThresholdStore
	auditor    AuditPublisher
	logger     *slog.Logger
}

func New(thresholds ThresholdStore, auditor AuditPublisher, logger *slog.Logger) *Service {
	return &Service{thresholds: thresholds, auditor: auditor, logger: logger}
}

// CreatePassScore installs a pass score for an exam type. Threshold
// changes never touch stored verdicts; they apply to later submissions.
func (s *Service) CreatePassScore(ctx context.Context, examType string, passScore float64) (models.Threshold, error) {
	return s.setPassScore(ctx, examType, passScore, audit.ActionPassScoreCreated)
}

// UpdatePassScore replaces the pass score for an exam type.
func (s *Service) UpdatePassScore(ctx context.Context, examType string, passScore float64) (models.Threshold, error) {
	return s.setPassScore(ctx, examType, passScore, audit.ActionPassScoreUpdated)
}

func (s *Service) setPassScore(ctx context.Context, rawType string, passScore float64, action audit.Action) (models.Threshold, error) {
	examType, err := models.ParseExamType(rawType)
	if err != nil {
		return models.Threshold{}, err
	}
	if err := models.ValidatePassScore(passScore); err != nil {
		return models.Threshold{}, err
	}

	threshold, err := s.thresholds.Set(ctx, examType, passScore)
	if err != nil {
		return models.Threshold{}, err
	}

	if err := s.auditor.Emit(ctx, audit.Event{
		Action:   action,
		ExamType: examType.String(),
		Detail:   fmt.Sprintf("pass score set to %g", passScore),
	}); err != nil {
		return models.Threshold{}, err
	}
	return threshold, nil
}

// GetPassScore returns the threshold for an exam type, installing the
// default the first time it is read.
func (s *Service) GetPassScore(ctx context.Context, rawType string) (models.Threshold, error) {
	examType, err := models.ParseExamType(rawType)
	if err != nil {
		return models.Threshold{}, err
	}
	return s.thresholds.GetOrCreate(ctx, examType)
}

// ListPassScores returns every configured threshold.
func (s *Service) ListPassScores(ctx context.Context) ([]models.Threshold, error) {
	return s.thresholds.List(ctx)
}
