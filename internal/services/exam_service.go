package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/atknylmz/Urtim-server/internal/events"
	"github.com/atknylmz/Urtim-server/internal/models"
	"github.com/atknylmz/Urtim-server/internal/repositories"
	"github.com/atknylmz/Urtim-server/internal/validator"
)

type examService struct {
	repo          repositories.Repository
	logger        *slog.Logger
	validator     *validator.Validator
	publisher     events.EventPublisher
	publicBaseURL string
}

func NewExamService(repo repositories.Repository, logger *slog.Logger, validator *validator.Validator, publisher events.EventPublisher, publicBaseURL string) ExamService {
	return &examService{
		repo:          repo,
		logger:        logger,
		validator:     validator,
		publisher:     publisher,
		publicBaseURL: publicBaseURL,
	}
}

// examHeader is the exam row without its questions.
type examHeader struct {
	Title      string
	Author     string
	Tag        string
	Department string
}

func (s *examService) Create(ctx context.Context, req *ExamCreateRequest) (*ExamCreated, error) {
	s.logger.Info("Creating exam", "video_id", req.VideoID, "questions", len(req.Questions))

	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	videoID := int64(req.VideoID)
	header := examHeader{Title: req.ExamTitle, Author: req.Author, Tag: req.Tag, Department: req.Department}

	var exam *models.Exam
	err := s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		var err error
		exam, err = createExam(ctx, tx, videoID, header, req.Questions)
		return err
	})
	if err != nil {
		return nil, examError(err)
	}

	publishAfterCommit(ctx, s.publisher, s.logger, events.ExamCreated, events.ExamCreatedPayload{
		ExamID:        exam.ID,
		VideoID:       videoID,
		ExamTitle:     exam.ExamTitle,
		QuestionCount: len(req.Questions),
	})

	s.logger.Info("Exam created", "exam_id", exam.ID, "video_id", videoID)
	return &ExamCreated{Success: true, ExamID: exam.ID}, nil
}

// CreateWithVideo inserts the video, sets its URL and creates the exam in the
// same transaction, so a failing question also removes the video row.
func (s *examService) CreateWithVideo(ctx context.Context, req *VideoExamRequest) (*models.VideoExamResult, error) {
	s.logger.Info("Creating video with exam", "title", req.Form.Title, "questions", len(req.Form.Questions))

	if errs := s.validator.GetBusinessValidator().ValidateVideoExam(&req.Form, req.File != nil); len(errs) > 0 {
		return nil, errs
	}

	base := s.publicBaseURL
	if base == "" {
		base = req.BaseURL
	}
	header := examHeader{Title: req.Form.ExamTitle, Author: req.Form.Author, Tag: req.Form.Tag, Department: req.Form.Department}

	var (
		video *models.Video
		exam  *models.Exam
	)
	err := s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		video = newVideo(req.Form.Title, req.Form.Desc, req.Form.Uploader, req.Form.Tags, *req.File)
		if err := tx.Video().Create(ctx, video); err != nil {
			return err
		}
		video.URL = streamURL(base, video.ID)
		if err := tx.Video().SetURL(ctx, video.ID, video.URL); err != nil {
			return err
		}

		var err error
		exam, err = createExam(ctx, tx, video.ID, header, req.Form.Questions)
		return err
	})
	if err != nil {
		return nil, examError(err)
	}

	publishAfterCommit(ctx, s.publisher, s.logger, events.VideoUploaded, events.VideoUploadedPayload{
		VideoID:   video.ID,
		Title:     video.Title,
		Uploader:  video.Uploader,
		Tags:      video.Tags,
		SizeBytes: video.SizeBytes,
	})
	publishAfterCommit(ctx, s.publisher, s.logger, events.ExamCreated, events.ExamCreatedPayload{
		ExamID:        exam.ID,
		VideoID:       video.ID,
		ExamTitle:     exam.ExamTitle,
		QuestionCount: len(req.Form.Questions),
	})

	s.logger.Info("Video with exam created", "video_id", video.ID, "exam_id", exam.ID)
	return &models.VideoExamResult{VideoID: video.ID, ExamID: exam.ID, URL: video.URL}, nil
}

func (s *examService) GetByVideoID(ctx context.Context, videoID int64) (*models.ExamView, error) {
	exam, err := s.repo.Exam().GetByVideoID(ctx, videoID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrExamNotFound
		}
		return nil, internal("failed to load exam", err)
	}
	view := models.NewExamView(exam)
	return &view, nil
}

// createExam must run on a transaction-bound repository. The existence check
// happens inside the transaction; the unique index on exams.video_id is the
// backstop when two requests pass it at the same time.
func createExam(ctx context.Context, tx repositories.Repository, videoID int64, header examHeader, questions validator.QuestionList) (*models.Exam, error) {
	exists, err := tx.Video().Exists(ctx, videoID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrVideoNotFound
	}

	taken, err := tx.Exam().ExistsForVideo(ctx, videoID)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrExamExists
	}

	exam := &models.Exam{
		VideoID:    videoID,
		ExamTitle:  strings.TrimSpace(header.Title),
		Author:     strings.TrimSpace(header.Author),
		Tag:        strings.TrimSpace(header.Tag),
		Department: strings.TrimSpace(header.Department),
	}
	if err := tx.Exam().Create(ctx, exam); err != nil {
		return nil, err
	}

	for i, q := range questions {
		question := &models.Question{
			ExamID:       exam.ID,
			QuestionText: q.Q,
			AnswerText:   q.A,
		}
		if q.Image != nil {
			question.ImageURL = *q.Image
		}
		if err := tx.Question().Create(ctx, question); err != nil {
			return nil, fmt.Errorf("failed to insert question %d: %w", i+1, err)
		}
		exam.Questions = append(exam.Questions, *question)
	}

	if err := tx.Video().AppendTag(ctx, videoID, models.ExamTag); err != nil {
		return nil, err
	}
	return exam, nil
}

// examError maps errors surfaced from a rolled back exam transaction.
func examError(err error) error {
	var se *ServiceError
	if errors.As(err, &se) {
		return err
	}
	switch {
	case repositories.IsDuplicateError(err):
		return newError(KindConflict, ErrExamExists.Message, err)
	case repositories.IsNotFoundError(err):
		return newError(KindNotFound, ErrVideoNotFound.Message, err)
	}
	return internal("failed to create exam", err)
}
