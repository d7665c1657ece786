package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/atknylmz/Urtim-server/internal/services"
	"github.com/atknylmz/Urtim-server/internal/utils"
)

type GuestApplicationHandler struct {
	BaseHandler
	applicationService services.GuestApplicationService
}

func NewGuestApplicationHandler(applicationService services.GuestApplicationService, logger utils.Logger, production bool) *GuestApplicationHandler {
	return &GuestApplicationHandler{
		BaseHandler:        NewBaseHandler(logger, production),
		applicationService: applicationService,
	}
}

func (h *GuestApplicationHandler) Submit(c *gin.Context) {
	var req services.GuestApplicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	app, err := h.applicationService.Submit(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, app)
}

func (h *GuestApplicationHandler) List(c *gin.Context) {
	apps, err := h.applicationService.List(c.Request.Context())
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, apps)
}
