package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/atknylmz/Urtim-server/internal/events"
	"github.com/atknylmz/Urtim-server/internal/models"
	"github.com/atknylmz/Urtim-server/internal/repositories"
	"github.com/atknylmz/Urtim-server/internal/validator"
)

const exportSheet = "Results"

var exportHeaders = []interface{}{"ID", "User", "Video ID", "Exam Title", "Score", "Created At"}

type examResultService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
	publisher events.EventPublisher
}

func NewExamResultService(repo repositories.Repository, logger *slog.Logger, validator *validator.Validator, publisher events.EventPublisher) ExamResultService {
	return &examResultService{
		repo:      repo,
		logger:    logger,
		validator: validator,
		publisher: publisher,
	}
}

func (s *examResultService) Record(ctx context.Context, req *ExamResultRequest) (*models.ExamResult, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	result := &models.ExamResult{
		User:      strings.TrimSpace(req.UserName),
		VideoID:   int64(req.VideoID),
		ExamTitle: strings.TrimSpace(req.ExamTitle),
		Score:     float64(*req.Score),
	}
	if err := s.repo.ExamResult().Create(ctx, result); err != nil {
		return nil, internal("failed to record exam result", err)
	}

	publishAfterCommit(ctx, s.publisher, s.logger, events.ExamResultRecorded, events.ExamResultRecordedPayload{
		ResultID: result.ID,
		VideoID:  result.VideoID,
		User:     result.User,
		Score:    result.Score,
	})

	s.logger.Info("Exam result recorded", "result_id", result.ID, "video_id", result.VideoID)
	return result, nil
}

func (s *examResultService) BestScores(ctx context.Context, userName string) ([]models.VideoBestScore, error) {
	userName = strings.TrimSpace(userName)
	if userName == "" {
		return nil, NewValidationError("userName is required")
	}
	scores, err := s.repo.ExamResult().BestScoresByUser(ctx, userName)
	if err != nil {
		return nil, internal("failed to load exam results", err)
	}
	if scores == nil {
		scores = []models.VideoBestScore{}
	}
	return scores, nil
}

func (s *examResultService) Export(ctx context.Context, w io.Writer) error {
	results, err := s.repo.ExamResult().List(ctx)
	if err != nil {
		return internal("failed to load exam results", err)
	}

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			s.logger.Warn("Failed to close workbook", "error", err)
		}
	}()

	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return internal("failed to prepare workbook", err)
	}
	if err := writeResultRows(f, results); err != nil {
		return internal("failed to build workbook", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	s.logger.Info("Exam results exported", "rows", len(results))
	return nil
}

func writeResultRows(f *excelize.File, results []models.ExamResult) error {
	if err := f.SetSheetRow(exportSheet, "A1", &exportHeaders); err != nil {
		return err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(exportSheet, "A1", "F1", bold); err != nil {
		return err
	}
	if err := f.SetColWidth(exportSheet, "B", "D", 24); err != nil {
		return err
	}

	for i, r := range results {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []interface{}{r.ID, r.User, r.VideoID, r.ExamTitle, r.Score, r.CreatedAt.UTC().Format(time.RFC3339)}
		if err := f.SetSheetRow(exportSheet, cell, &row); err != nil {
			return err
		}
	}
	return nil
}
