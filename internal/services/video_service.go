package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/atknylmz/Urtim-server/internal/events"
	"github.com/atknylmz/Urtim-server/internal/models"
	"github.com/atknylmz/Urtim-server/internal/repositories"
	"github.com/atknylmz/Urtim-server/internal/streaming"
	"github.com/atknylmz/Urtim-server/internal/validator"
)

type videoService struct {
	repo          repositories.Repository
	logger        *slog.Logger
	validator     *validator.Validator
	publisher     events.EventPublisher
	publicBaseURL string
}

func NewVideoService(repo repositories.Repository, logger *slog.Logger, validator *validator.Validator, publisher events.EventPublisher, publicBaseURL string) VideoService {
	return &videoService{
		repo:          repo,
		logger:        logger,
		validator:     validator,
		publisher:     publisher,
		publicBaseURL: publicBaseURL,
	}
}

func (s *videoService) baseURL(requestBase string) string {
	if s.publicBaseURL != "" {
		return s.publicBaseURL
	}
	return requestBase
}

// Upload stores every file in one transaction. Each row gets its stream URL
// once its id is known.
func (s *videoService) Upload(ctx context.Context, req *VideoUploadRequest) ([]models.Video, error) {
	s.logger.Info("Uploading videos", "title", req.Form.Title, "files", len(req.Files))

	if errs := s.validator.GetBusinessValidator().ValidateVideoUpload(&req.Form, len(req.Files)); len(errs) > 0 {
		return nil, errs
	}

	tags := groupTags(req.Form.Group, req.Form.Tags)
	base := s.baseURL(req.BaseURL)

	saved := make([]models.Video, 0, len(req.Files))
	err := s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		for _, file := range req.Files {
			video := newVideo(req.Form.Title, req.Form.Desc, req.Form.Uploader, tags, file)
			if err := tx.Video().Create(ctx, video); err != nil {
				return err
			}
			video.URL = streamURL(base, video.ID)
			if err := tx.Video().SetURL(ctx, video.ID, video.URL); err != nil {
				return err
			}
			video.Content = nil
			saved = append(saved, *video)
		}
		return nil
	})
	if err != nil {
		return nil, internal("failed to save videos", err)
	}

	for _, v := range saved {
		publishAfterCommit(ctx, s.publisher, s.logger, events.VideoUploaded, events.VideoUploadedPayload{
			VideoID:   v.ID,
			Title:     v.Title,
			Uploader:  v.Uploader,
			Tags:      v.Tags,
			SizeBytes: v.SizeBytes,
		})
	}

	s.logger.Info("Videos uploaded", "count", len(saved))
	return saved, nil
}

func (s *videoService) List(ctx context.Context, baseURL string) ([]models.Video, error) {
	videos, err := s.repo.Video().List(ctx)
	if err != nil {
		return nil, internal("failed to list videos", err)
	}
	return s.fillURLs(videos, baseURL), nil
}

// fillURLs derives the stream link for rows stored before it was computed.
func (s *videoService) fillURLs(videos []models.Video, requestBase string) []models.Video {
	base := s.baseURL(requestBase)
	for i := range videos {
		if videos[i].URL == "" {
			videos[i].URL = streamURL(base, videos[i].ID)
		}
		if videos[i].Tags == nil {
			videos[i].Tags = []string{}
		}
	}
	if videos == nil {
		return []models.Video{}
	}
	return videos
}

func (s *videoService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Video().Delete(ctx, id); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrVideoNotFound
		}
		return internal("failed to delete video", err)
	}
	s.logger.Info("Video deleted", "video_id", id)
	return nil
}

func (s *videoService) Recommended(ctx context.Context, userID int64, baseURL string) ([]models.Video, error) {
	user, err := s.repo.User().GetByID(ctx, userID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrUserNotFound
		}
		return nil, internal("failed to load user", err)
	}

	needles := recommendationNeedles(user)
	if len(needles) == 0 {
		return []models.Video{}, nil
	}

	videos, err := s.repo.Video().FindByTags(ctx, needles)
	if err != nil {
		return nil, internal("failed to find recommended videos", err)
	}
	return s.fillURLs(videos, baseURL), nil
}

// Stream reads the length first, resolves the window against it, then issues
// a single read: the whole object without a range, only the window with one.
func (s *videoService) Stream(ctx context.Context, id int64, rangeHeader string) (*StreamResult, error) {
	meta, err := s.repo.Video().StreamMeta(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrVideoNotFound
		}
		return nil, internal("failed to read video metadata", err)
	}

	win, err := streaming.Resolve(rangeHeader, meta.Total)
	if err != nil {
		return nil, &RangeError{Total: meta.Total, Err: err}
	}

	var body []byte
	if win.Partial {
		body, err = s.repo.Video().ReadWindow(ctx, id, win.Offset(), win.Length())
	} else {
		_, body, err = s.repo.Video().ReadAll(ctx, id)
	}
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrVideoNotFound
		}
		return nil, internal("failed to read video content", err)
	}

	if int64(len(body)) != win.Length() || (win.Partial && len(body) == 0) {
		s.logger.Warn("Stored content does not match resolved window",
			"video_id", id, "want", win.Length(), "got", len(body))
		return nil, fmt.Errorf("window %s: %w", win.ContentRange(), ErrVideoChunkMissing)
	}

	return &StreamResult{Window: win, MimeType: meta.MimeType, Body: body}, nil
}

// IsRangeError reports whether err is a RangeError and returns it.
func IsRangeError(err error) (*RangeError, bool) {
	var re *RangeError
	ok := errors.As(err, &re)
	return re, ok
}
