package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/atknylmz/Urtim-server/internal/metrics"
	"github.com/atknylmz/Urtim-server/internal/services"
	"github.com/atknylmz/Urtim-server/internal/utils"
)

type HandlerConfig struct {
	Production     bool
	MaxUploadBytes int64
	// UploadDir is served read-only under /uploads when set.
	UploadDir string
}

type HandlerManager struct {
	videoHandler            *VideoHandler
	examHandler             *ExamHandler
	examResultHandler       *ExamResultHandler
	userHandler             *UserHandler
	authHandler             *AuthHandler
	guestApplicationHandler *GuestApplicationHandler
	healthHandler           *HealthHandler
	authMiddleware          *AuthMiddleware
	uploadDir               string
}

func NewHandlerManager(serviceManager services.ServiceManager, logger utils.Logger, cfg HandlerConfig) *HandlerManager {
	videoHandler := NewVideoHandler(serviceManager.Video(), logger, cfg.Production, cfg.MaxUploadBytes)

	return &HandlerManager{
		videoHandler:            videoHandler,
		examHandler:             NewExamHandler(serviceManager.Exam(), videoHandler, logger, cfg.Production),
		examResultHandler:       NewExamResultHandler(serviceManager.ExamResult(), logger, cfg.Production),
		userHandler:             NewUserHandler(serviceManager.User(), logger, cfg.Production),
		authHandler:             NewAuthHandler(serviceManager.Auth(), logger, cfg.Production),
		guestApplicationHandler: NewGuestApplicationHandler(serviceManager.GuestApplication(), logger, cfg.Production),
		healthHandler:           NewHealthHandler(serviceManager, logger, cfg.Production),
		authMiddleware:          NewAuthMiddleware(serviceManager.Auth()),
		uploadDir:               cfg.UploadDir,
	}
}

// SetupRoutes mounts every API route under /api and again at the root for
// clients that still use relative URLs.
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	router.GET("/api/health", hm.healthHandler.Health)
	router.GET("/api/db/ping", hm.healthHandler.DBPing)
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	if hm.uploadDir != "" {
		router.Static("/uploads", hm.uploadDir)
	}

	hm.mount(router.Group("/api"))
	hm.mount(router.Group(""))

	router.NoRoute(NotFoundHandler)
}

func (hm *HandlerManager) mount(api *gin.RouterGroup) {
	auth := hm.authMiddleware

	videos := api.Group("/videos")
	{
		videos.POST("", hm.videoHandler.UploadVideos)
		videos.GET("", hm.videoHandler.ListVideos)
		videos.GET("/recommended/:userId", hm.videoHandler.RecommendedVideos)
		videos.GET("/:id/stream", hm.videoHandler.StreamVideo)
		videos.DELETE("/:id", hm.videoHandler.DeleteVideo)
	}

	api.POST("/video-exams", hm.examHandler.CreateVideoExam)

	exams := api.Group("/exams")
	{
		exams.POST("", hm.examHandler.CreateExam)
		exams.PUT("", hm.examHandler.CreateExam)
		exams.GET("/:videoId", hm.examHandler.GetExam)
	}

	results := api.Group("/exam-results")
	{
		results.POST("", hm.examResultHandler.RecordResult)
		results.GET("/user/:userName", hm.examResultHandler.BestScores)
		results.GET("/export", auth.RequireAuth(), auth.RequireAdmin(), hm.examResultHandler.ExportResults)
	}

	api.POST("/auth/login", hm.authHandler.Login)

	users := api.Group("/users")
	{
		users.POST("", hm.userHandler.CreateUser)

		// Administration
		users.GET("", auth.RequireAuth(), auth.RequireAdmin(), hm.userHandler.ListUsers)
		users.PUT("/:id", auth.RequireAuth(), auth.RequireAdmin(), hm.userHandler.UpdateUser)
		users.DELETE("/:id", auth.RequireAuth(), auth.RequireAdmin(), hm.userHandler.DeleteUser)

		// Owner-only sub-resources
		self := users.Group("/:id", auth.RequireAuth(), auth.RequireSelf("id"))
		{
			self.GET("/education", hm.userHandler.GetEducation)
			self.PATCH("/education", hm.userHandler.PatchEducation)
			self.GET("/education-list", hm.userHandler.GetEducationList)
			self.PUT("/education-list", hm.userHandler.PutEducationList)
			self.GET("/watched", hm.userHandler.GetWatched)
			self.POST("/watched", hm.userHandler.PostWatched)
			self.PATCH("/watched", hm.userHandler.PatchWatched)
			self.GET("/watched-videos", hm.userHandler.WatchedVideos)
			self.GET("/work-area", hm.userHandler.WorkArea)
			self.GET("/trainings", hm.userHandler.Trainings)
		}
	}

	guests := api.Group("/guest-applications")
	{
		guests.POST("", hm.guestApplicationHandler.Submit)
		guests.GET("", hm.guestApplicationHandler.List)
	}
}
