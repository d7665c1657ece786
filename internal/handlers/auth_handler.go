package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/atknylmz/Urtim-server/internal/services"
	"github.com/atknylmz/Urtim-server/internal/utils"
)

type AuthHandler struct {
	BaseHandler
	authService services.AuthService
}

func NewAuthHandler(authService services.AuthService, logger utils.Logger, production bool) *AuthHandler {
	return &AuthHandler{
		BaseHandler: NewBaseHandler(logger, production),
		authService: authService,
	}
}

// Login issues a token for email and password
// @Summary Login
// @Tags auth
// @Accept json
// @Produce json
// @Param credentials body services.LoginRequest true "email, password and optional panel role"
// @Success 200 {object} services.LoginResponse
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req services.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	resp, err := h.authService.Login(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
