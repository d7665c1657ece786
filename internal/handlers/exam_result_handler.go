package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/atknylmz/Urtim-server/internal/services"
	"github.com/atknylmz/Urtim-server/internal/utils"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type ExamResultHandler struct {
	BaseHandler
	resultService services.ExamResultService
}

func NewExamResultHandler(resultService services.ExamResultService, logger utils.Logger, production bool) *ExamResultHandler {
	return &ExamResultHandler{
		BaseHandler:   NewBaseHandler(logger, production),
		resultService: resultService,
	}
}

func (h *ExamResultHandler) RecordResult(c *gin.Context) {
	var req services.ExamResultRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	result, err := h.resultService.Record(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

// BestScores returns the best score per video for a user label
// @Summary Best scores by user
// @Tags exam-results
// @Produce json
// @Param userName path string true "User label, matched case-insensitively"
// @Success 200 {object} map[string]interface{}
// @Router /exam-results/user/{userName} [get]
func (h *ExamResultHandler) BestScores(c *gin.Context) {
	scores, err := h.resultService.BestScores(c.Request.Context(), c.Param("userName"))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": scores})
}

// ExportResults builds the workbook in memory so a failure still yields a JSON error.
func (h *ExamResultHandler) ExportResults(c *gin.Context) {
	var buf bytes.Buffer
	if err := h.resultService.Export(c.Request.Context(), &buf); err != nil {
		h.handleServiceError(c, err)
		return
	}

	filename := fmt.Sprintf("exam-results-%s.xlsx", time.Now().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}
