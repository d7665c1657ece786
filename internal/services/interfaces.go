package services

import (
	"context"
	"io"

	"github.com/atknylmz/Urtim-server/internal/models"
	"github.com/atknylmz/Urtim-server/internal/streaming"
	"github.com/atknylmz/Urtim-server/internal/utils"
	"github.com/atknylmz/Urtim-server/internal/validator"
)

// ===== REQUEST/RESPONSE DTOs =====

type (
	ExamCreateRequest       = validator.ExamCreateRequest
	ExamResultRequest       = validator.ExamResultRequest
	LoginRequest            = validator.LoginRequest
	UserCreateRequest       = validator.UserCreateRequest
	UserUpdateRequest       = validator.UserUpdateRequest
	EducationRequest        = validator.EducationRequest
	GuestApplicationRequest = validator.GuestApplicationRequest
)

// UploadedFile is one multipart file read into memory.
type UploadedFile struct {
	Filename    string
	ContentType string
	Content     []byte
}

type VideoUploadRequest struct {
	Form  validator.VideoUploadForm
	Files []UploadedFile
	// BaseURL is used for stream links when PUBLIC_BASE_URL is not set.
	BaseURL string
}

type VideoExamRequest struct {
	Form    validator.VideoExamForm
	File    *UploadedFile
	BaseURL string
}

// StreamResult is a resolved window together with exactly Window.Length() bytes.
type StreamResult struct {
	Window   streaming.Window
	MimeType string
	Body     []byte
}

type ExamCreated struct {
	Success bool  `json:"success"`
	ExamID  int64 `json:"examId"`
}

type LoginResponse struct {
	Message string        `json:"message"`
	Token   string        `json:"token"`
	User    LoginUserView `json:"user"`
}

type LoginUserView struct {
	ID        int64  `json:"id"`
	FullName  string `json:"fullName"`
	Email     string `json:"email"`
	Authority string `json:"authority"`
	Role      string `json:"role"`
	WorkArea  string `json:"workArea"`
}

// ===== SERVICES =====

type VideoService interface {
	Upload(ctx context.Context, req *VideoUploadRequest) ([]models.Video, error)
	List(ctx context.Context, baseURL string) ([]models.Video, error)
	Delete(ctx context.Context, id int64) error
	Recommended(ctx context.Context, userID int64, baseURL string) ([]models.Video, error)
	// Stream resolves rangeHeader and performs one read for the window.
	Stream(ctx context.Context, id int64, rangeHeader string) (*StreamResult, error)
}

type ExamService interface {
	// Create runs the composite exam creation in one transaction.
	Create(ctx context.Context, req *ExamCreateRequest) (*ExamCreated, error)
	// CreateWithVideo stores the video, its exam and questions atomically.
	CreateWithVideo(ctx context.Context, req *VideoExamRequest) (*models.VideoExamResult, error)
	GetByVideoID(ctx context.Context, videoID int64) (*models.ExamView, error)
}

type ExamResultService interface {
	Record(ctx context.Context, req *ExamResultRequest) (*models.ExamResult, error)
	BestScores(ctx context.Context, userName string) ([]models.VideoBestScore, error)
	// Export writes every result as an xlsx workbook.
	Export(ctx context.Context, w io.Writer) error
}

type UserService interface {
	Create(ctx context.Context, req *UserCreateRequest) (*models.UserResponse, error)
	List(ctx context.Context) ([]models.UserResponse, error)
	Update(ctx context.Context, id int64, req *UserUpdateRequest) (*models.UserResponse, error)
	Delete(ctx context.Context, idOrUsername string) error

	GetEducation(ctx context.Context, userID int64) (*models.Education, error)
	UpdateEducation(ctx context.Context, userID int64, req *EducationRequest) (*models.Education, error)
	ListEducation(ctx context.Context, userID int64) ([]models.UserEducation, error)
	ReplaceEducation(ctx context.Context, userID int64, entries []EducationRequest) ([]models.UserEducation, error)

	// MarkWatched is idempotent; added reports whether this call changed state.
	MarkWatched(ctx context.Context, userID, videoID int64) (watched []int64, added bool, err error)
	Watched(ctx context.Context, userID int64) ([]int64, error)
	WatchedVideos(ctx context.Context, userID int64) ([]models.WatchedVideo, error)
	WorkArea(ctx context.Context, userID int64) (string, error)
	Trainings(ctx context.Context, userID int64) ([]models.Training, error)
}

type AuthService interface {
	Login(ctx context.Context, req *LoginRequest) (*LoginResponse, error)
	VerifyToken(token string) (*utils.Claims, error)
}

type GuestApplicationService interface {
	Submit(ctx context.Context, req *GuestApplicationRequest) (*models.GuestApplication, error)
	List(ctx context.Context) ([]models.GuestApplication, error)
}

// ServiceManager builds and hands out the services.
type ServiceManager interface {
	Initialize(ctx context.Context) error
	Video() VideoService
	Exam() ExamService
	ExamResult() ExamResultService
	User() UserService
	Auth() AuthService
	GuestApplication() GuestApplicationService
	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}
