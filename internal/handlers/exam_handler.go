package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/atknylmz/Urtim-server/internal/services"
	"github.com/atknylmz/Urtim-server/internal/utils"
	"github.com/atknylmz/Urtim-server/internal/validator"
)

type ExamHandler struct {
	BaseHandler
	examService services.ExamService
	uploads     *VideoHandler
}

func NewExamHandler(examService services.ExamService, uploads *VideoHandler, logger utils.Logger, production bool) *ExamHandler {
	return &ExamHandler{
		BaseHandler: NewBaseHandler(logger, production),
		examService: examService,
		uploads:     uploads,
	}
}

// CreateExam creates an exam with its questions for an existing video
// @Summary Create exam
// @Tags exams
// @Accept json
// @Produce json
// @Param exam body services.ExamCreateRequest true "Exam with questions"
// @Success 201 {object} services.ExamCreated
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /exams [post]
func (h *ExamHandler) CreateExam(c *gin.Context) {
	var req services.ExamCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	h.LogRequest(c, "Creating exam", "video_id", int64(req.VideoID))

	res, err := h.examService.Create(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

// CreateVideoExam uploads a video and creates its exam in one transaction
// @Summary Upload video with exam
// @Tags exams
// @Accept multipart/form-data
// @Produce json
// @Success 201 {object} models.VideoExamResult
// @Failure 400 {object} ErrorResponse
// @Router /video-exams [post]
func (h *ExamHandler) CreateVideoExam(c *gin.Context) {
	form, ok := h.uploads.readMultipart(c)
	if !ok {
		return
	}

	questions, err := validator.ParseQuestionList(c.PostForm("questions"))
	if err != nil {
		h.handleServiceError(c, validator.ValidationErrors{{
			Field:   "questions",
			Message: "must be a JSON array of questions",
			Rule:    "decode",
		}})
		return
	}

	files, err := readFiles(form.File["file"])
	if err != nil {
		h.badRequest(c, err)
		return
	}

	req := &services.VideoExamRequest{
		Form: validator.VideoExamForm{
			Title:      c.PostForm("title"),
			Uploader:   c.PostForm("uploader"),
			Desc:       c.PostForm("desc"),
			Tags:       validator.CleanTags(c.PostFormArray("tags")),
			ExamTitle:  c.PostForm("examTitle"),
			Author:     c.PostForm("author"),
			Tag:        c.PostForm("tag"),
			Department: c.PostForm("department"),
			Questions:  questions,
		},
		BaseURL: requestBaseURL(c),
	}
	if len(files) > 0 {
		req.File = &files[0]
	}

	h.LogRequest(c, "Creating video with exam", "questions", len(questions))

	res, err := h.examService.CreateWithVideo(c.Request.Context(), req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

func (h *ExamHandler) GetExam(c *gin.Context) {
	videoID, ok := h.parseIDParam(c, "videoId")
	if !ok {
		return
	}
	view, err := h.examService.GetByVideoID(c.Request.Context(), videoID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}
