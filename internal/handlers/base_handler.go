package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/atknylmz/Urtim-server/internal/services"
	"github.com/atknylmz/Urtim-server/internal/utils"
	"github.com/atknylmz/Urtim-server/internal/validator"
)

// ErrorResponse is the body of every non-2xx JSON answer.
type ErrorResponse struct {
	Error   string      `json:"error"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

type BaseHandler struct {
	logger     utils.Logger
	production bool
}

func NewBaseHandler(logger utils.Logger, production bool) BaseHandler {
	return BaseHandler{logger: logger, production: production}
}

func (h *BaseHandler) LogRequest(c *gin.Context, msg string, args ...any) {
	utils.GetLogger(c, h.logger).Info(msg, args...)
}

func (h *BaseHandler) LogError(c *gin.Context, err error, msg string, args ...any) {
	utils.GetLogger(c, h.logger).Error(msg, append(args, "error", err)...)
}

// handleServiceError maps service errors onto status codes. Internal causes
// are only echoed outside production.
func (h *BaseHandler) handleServiceError(c *gin.Context, err error) {
	kind := services.KindOf(err)
	status := kind.HTTPStatus()

	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		c.JSON(status, ErrorResponse{
			Error:   kind.String(),
			Message: "Validation failed",
			Details: ve,
		})
		return
	}

	message := err.Error()
	var se *services.ServiceError
	if errors.As(err, &se) {
		message = se.Message
	}

	resp := ErrorResponse{Error: kind.String(), Message: message}
	if kind == services.KindInternal {
		h.LogError(c, err, "Request failed")
		resp.Message = "Internal server error"
		if !h.production {
			resp.Details = err.Error()
		}
	}
	c.JSON(status, resp)
}

// badRequest answers 400 for input that could not be decoded.
func (h *BaseHandler) badRequest(c *gin.Context, err error) {
	h.handleServiceError(c, validator.ToValidationErrors(err))
}

// parseIDParam writes 400 and returns false when the parameter is not a positive integer.
func (h *BaseHandler) parseIDParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   services.KindValidation.String(),
			Message: fmt.Sprintf("invalid %s", name),
		})
		return 0, false
	}
	return id, true
}

// requestBaseURL rebuilds scheme://host of the incoming request, honoring proxy headers.
func requestBaseURL(c *gin.Context) string {
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	if fwd := c.GetHeader("X-Forwarded-Proto"); fwd != "" {
		scheme = strings.TrimSpace(strings.Split(fwd, ",")[0])
	}
	host := c.Request.Host
	if fwd := c.GetHeader("X-Forwarded-Host"); fwd != "" {
		host = strings.TrimSpace(strings.Split(fwd, ",")[0])
	}
	return scheme + "://" + host
}
