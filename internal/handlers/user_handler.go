package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/atknylmz/Urtim-server/internal/services"
	"github.com/atknylmz/Urtim-server/internal/utils"
	"github.com/atknylmz/Urtim-server/internal/validator"
)

type UserHandler struct {
	BaseHandler
	userService services.UserService
}

func NewUserHandler(userService services.UserService, logger utils.Logger, production bool) *UserHandler {
	return &UserHandler{
		BaseHandler: NewBaseHandler(logger, production),
		userService: userService,
	}
}

// ===== ACCOUNTS =====

// CreateUser registers a new account
// @Summary Create user
// @Tags users
// @Accept json
// @Produce json
// @Param user body services.UserCreateRequest true "User"
// @Success 201 {object} models.UserResponse
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /users [post]
func (h *UserHandler) CreateUser(c *gin.Context) {
	var req services.UserCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	user, err := h.userService.Create(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.LogRequest(c, "User created", "user_id", user.ID)
	c.JSON(http.StatusCreated, user)
}

func (h *UserHandler) ListUsers(c *gin.Context) {
	users, err := h.userService.List(c.Request.Context())
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

func (h *UserHandler) UpdateUser(c *gin.Context) {
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	var req services.UserUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	user, err := h.userService.Update(c.Request.Context(), id, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// DeleteUser accepts either a numeric id or a username in the path.
func (h *UserHandler) DeleteUser(c *gin.Context) {
	key := strings.TrimSpace(c.Param("id"))
	if err := h.userService.Delete(c.Request.Context(), key); err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.LogRequest(c, "User deleted", "key", key)
	c.JSON(http.StatusOK, gin.H{"message": "user deleted"})
}

// ===== EDUCATION =====

func (h *UserHandler) GetEducation(c *gin.Context) {
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}
	edu, err := h.userService.GetEducation(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, edu)
}

func (h *UserHandler) PatchEducation(c *gin.Context) {
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	var req services.EducationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	edu, err := h.userService.UpdateEducation(c.Request.Context(), id, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "education updated", "user": edu})
}

func (h *UserHandler) GetEducationList(c *gin.Context) {
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}
	entries, err := h.userService.ListEducation(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

// PutEducationList replaces every education entry of the user.
// @Summary Replace education list
// @Tags users
// @Accept json
// @Produce json
// @Param id path int true "User ID"
// @Param entries body validator.EducationListRequest true "Entries"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Router /users/{id}/education-list [put]
func (h *UserHandler) PutEducationList(c *gin.Context) {
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	var req validator.EducationListRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	if req.Entries == nil {
		h.handleServiceError(c, validator.ValidationErrors{{
			Field:   "entries",
			Message: "entries must be an array",
			Rule:    "required",
		}})
		return
	}

	entries, err := h.userService.ReplaceEducation(c.Request.Context(), id, req.Entries)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "education list saved", "entries": entries})
}

// ===== WATCH TRACKING =====

func (h *UserHandler) GetWatched(c *gin.Context) {
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}
	watched, err := h.userService.Watched(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"watchedVideos": watched})
}

// PostWatched records a watch and answers 201 whether or not it was new.
// @Summary Mark video watched
// @Tags users
// @Accept json
// @Produce json
// @Param id path int true "User ID"
// @Param body body validator.WatchRequest true "Video"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /users/{id}/watched [post]
func (h *UserHandler) PostWatched(c *gin.Context) {
	watched, ok := h.markWatched(c)
	if !ok {
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "watch recorded", "watchedVideos": watched})
}

func (h *UserHandler) PatchWatched(c *gin.Context) {
	watched, ok := h.markWatched(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"watchedVideos": watched})
}

func (h *UserHandler) markWatched(c *gin.Context) ([]int64, bool) {
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return nil, false
	}

	var req validator.WatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return nil, false
	}

	watched, added, err := h.userService.MarkWatched(c.Request.Context(), id, int64(req.VideoID))
	if err != nil {
		h.handleServiceError(c, err)
		return nil, false
	}
	if added {
		h.LogRequest(c, "Video watched", "user_id", id, "video_id", int64(req.VideoID))
	}
	return watched, true
}

func (h *UserHandler) WatchedVideos(c *gin.Context) {
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}
	videos, err := h.userService.WatchedVideos(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"watchedVideos": videos})
}

func (h *UserHandler) WorkArea(c *gin.Context) {
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}
	area, err := h.userService.WorkArea(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"workArea": area})
}

func (h *UserHandler) Trainings(c *gin.Context) {
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}
	trainings, err := h.userService.Trainings(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"trainings": trainings})
}
