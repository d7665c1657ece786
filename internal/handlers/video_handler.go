package handlers

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/atknylmz/Urtim-server/internal/metrics"
	"github.com/atknylmz/Urtim-server/internal/services"
	"github.com/atknylmz/Urtim-server/internal/streaming"
	"github.com/atknylmz/Urtim-server/internal/utils"
	"github.com/atknylmz/Urtim-server/internal/validator"
)

type VideoHandler struct {
	BaseHandler
	videoService   services.VideoService
	maxUploadBytes int64
}

func NewVideoHandler(videoService services.VideoService, logger utils.Logger, production bool, maxUploadBytes int64) *VideoHandler {
	return &VideoHandler{
		BaseHandler:    NewBaseHandler(logger, production),
		videoService:   videoService,
		maxUploadBytes: maxUploadBytes,
	}
}

// UploadVideos stores one or more files
// @Summary Upload videos
// @Tags videos
// @Accept multipart/form-data
// @Produce json
// @Success 201 {array} models.Video
// @Failure 400 {object} ErrorResponse
// @Failure 413 {object} ErrorResponse
// @Router /videos [post]
func (h *VideoHandler) UploadVideos(c *gin.Context) {
	form, ok := h.readMultipart(c)
	if !ok {
		return
	}

	files, err := readFiles(form.File["file"])
	if err != nil {
		h.badRequest(c, err)
		return
	}

	req := &services.VideoUploadRequest{
		Form: validator.VideoUploadForm{
			Title:    c.PostForm("title"),
			Uploader: c.PostForm("uploader"),
			Desc:     c.PostForm("desc"),
			Tags:     validator.CleanTags(c.PostFormArray("tags")),
			Group:    c.PostForm("group"),
		},
		Files:   files,
		BaseURL: requestBaseURL(c),
	}

	h.LogRequest(c, "Uploading videos", "files", len(files))

	videos, err := h.videoService.Upload(c.Request.Context(), req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, videos)
}

func (h *VideoHandler) ListVideos(c *gin.Context) {
	videos, err := h.videoService.List(c.Request.Context(), requestBaseURL(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, videos)
}

func (h *VideoHandler) DeleteVideo(c *gin.Context) {
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.videoService.Delete(c.Request.Context(), id); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "id": id})
}

// RecommendedVideos matches video tags against the user's tags and department.
func (h *VideoHandler) RecommendedVideos(c *gin.Context) {
	userID, ok := h.parseIDParam(c, "userId")
	if !ok {
		return
	}
	videos, err := h.videoService.Recommended(c.Request.Context(), userID, requestBaseURL(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, videos)
}

// StreamVideo serves the stored bytes, honoring a single "bytes=start-end?" range
// @Summary Stream video
// @Tags videos
// @Produce octet-stream
// @Param id path int true "Video ID"
// @Param Range header string false "bytes=<start>-<end?>"
// @Success 200 {file} binary
// @Success 206 {file} binary
// @Failure 404 {object} ErrorResponse
// @Failure 416 "Range not satisfiable"
// @Router /videos/{id}/stream [get]
func (h *VideoHandler) StreamVideo(c *gin.Context) {
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	res, err := h.videoService.Stream(c.Request.Context(), id, c.GetHeader("Range"))
	if err != nil {
		if re, ok := services.IsRangeError(err); ok {
			metrics.ObserveStream("unsatisfiable", 0)
			streaming.WriteUnsatisfiable(c.Writer, re.Total)
			return
		}
		if services.KindOf(err) == services.KindNotFound {
			metrics.ObserveStream("not_found", 0)
		}
		h.handleServiceError(c, err)
		return
	}

	if err := streaming.Serve(c.Writer, res.Window, res.MimeType, res.Body); err != nil {
		metrics.ObserveStream("aborted", 0)
		h.LogError(c, err, "Stream interrupted", "video_id", id)
		c.Abort()
		return
	}

	outcome := "full"
	if res.Window.Partial {
		outcome = "partial"
	}
	metrics.ObserveStream(outcome, res.Window.Length())
}

// readMultipart parses the request under the upload size limit. It writes the
// error response itself and returns false on failure.
func (h *VideoHandler) readMultipart(c *gin.Context) (*multipart.Form, bool) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)

	form, err := c.MultipartForm()
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{
				Error:   "validation_error",
				Message: fmt.Sprintf("upload exceeds %d MB", h.maxUploadBytes>>20),
			})
			return nil, false
		}
		h.badRequest(c, fmt.Errorf("invalid multipart form: %w", err))
		return nil, false
	}
	return form, true
}

func readFiles(headers []*multipart.FileHeader) ([]services.UploadedFile, error) {
	files := make([]services.UploadedFile, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", fh.Filename, err)
		}
		content, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", fh.Filename, err)
		}
		files = append(files, services.UploadedFile{
			Filename:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Content:     content,
		})
	}
	return files, nil
}
