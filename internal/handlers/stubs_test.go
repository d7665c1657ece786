package handlers

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/atknylmz/Urtim-server/internal/models"
	"github.com/atknylmz/Urtim-server/internal/services"
	"github.com/atknylmz/Urtim-server/internal/streaming"
	"github.com/atknylmz/Urtim-server/internal/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testLogger() utils.Logger {
	return utils.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// ===== VIDEO =====

type stubVideoService struct {
	objects map[int64][]byte
	mime    string
}

func (s *stubVideoService) Upload(ctx context.Context, req *services.VideoUploadRequest) ([]models.Video, error) {
	out := make([]models.Video, 0, len(req.Files))
	for i, f := range req.Files {
		out = append(out, models.Video{ID: int64(i + 1), Title: req.Form.Title, MimeType: f.ContentType})
	}
	return out, nil
}

func (s *stubVideoService) List(ctx context.Context, baseURL string) ([]models.Video, error) {
	return []models.Video{}, nil
}

func (s *stubVideoService) Delete(ctx context.Context, id int64) error {
	if _, ok := s.objects[id]; !ok {
		return services.ErrVideoNotFound
	}
	delete(s.objects, id)
	return nil
}

func (s *stubVideoService) Recommended(ctx context.Context, userID int64, baseURL string) ([]models.Video, error) {
	return []models.Video{}, nil
}

func (s *stubVideoService) Stream(ctx context.Context, id int64, rangeHeader string) (*services.StreamResult, error) {
	content, ok := s.objects[id]
	if !ok {
		return nil, services.ErrVideoNotFound
	}
	total := int64(len(content))
	win, err := streaming.Resolve(rangeHeader, total)
	if err != nil {
		return nil, &services.RangeError{Total: total, Err: err}
	}
	return &services.StreamResult{
		Window:   win,
		MimeType: s.mime,
		Body:     content[win.Start : win.Start+win.Length()],
	}, nil
}

// ===== EXAM =====

type stubExamService struct {
	created []*services.ExamCreateRequest
	videoUp []*services.VideoExamRequest
	err     error
}

func (s *stubExamService) Create(ctx context.Context, req *services.ExamCreateRequest) (*services.ExamCreated, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.created = append(s.created, req)
	return &services.ExamCreated{Success: true, ExamID: int64(len(s.created))}, nil
}

func (s *stubExamService) CreateWithVideo(ctx context.Context, req *services.VideoExamRequest) (*models.VideoExamResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.videoUp = append(s.videoUp, req)
	return &models.VideoExamResult{VideoID: 1, ExamID: 1, URL: req.BaseURL + "/api/videos/1/stream"}, nil
}

func (s *stubExamService) GetByVideoID(ctx context.Context, videoID int64) (*models.ExamView, error) {
	return nil, services.ErrExamNotFound
}

// ===== USER =====

type stubUserService struct {
	mu      sync.Mutex
	watched map[int64][]int64
	videos  map[int64]bool
	entries []services.EducationRequest
}

func newStubUserService(videoIDs ...int64) *stubUserService {
	s := &stubUserService{watched: map[int64][]int64{}, videos: map[int64]bool{}}
	for _, id := range videoIDs {
		s.videos[id] = true
	}
	return s
}

func (s *stubUserService) Create(ctx context.Context, req *services.UserCreateRequest) (*models.UserResponse, error) {
	return &models.UserResponse{ID: 1, Username: req.Username}, nil
}

func (s *stubUserService) List(ctx context.Context) ([]models.UserResponse, error) {
	return []models.UserResponse{}, nil
}

func (s *stubUserService) Update(ctx context.Context, id int64, req *services.UserUpdateRequest) (*models.UserResponse, error) {
	return &models.UserResponse{ID: id}, nil
}

func (s *stubUserService) Delete(ctx context.Context, idOrUsername string) error {
	if idOrUsername == "" {
		return services.ErrInvalidID
	}
	return nil
}

func (s *stubUserService) GetEducation(ctx context.Context, userID int64) (*models.Education, error) {
	return &models.Education{}, nil
}

func (s *stubUserService) UpdateEducation(ctx context.Context, userID int64, req *services.EducationRequest) (*models.Education, error) {
	return &models.Education{School: req.School, Department: req.Department}, nil
}

func (s *stubUserService) ListEducation(ctx context.Context, userID int64) ([]models.UserEducation, error) {
	return []models.UserEducation{}, nil
}

func (s *stubUserService) ReplaceEducation(ctx context.Context, userID int64, entries []services.EducationRequest) ([]models.UserEducation, error) {
	s.entries = entries
	out := make([]models.UserEducation, 0, len(entries))
	for _, e := range entries {
		out = append(out, models.UserEducation{UserID: userID, School: e.School, Department: e.Department})
	}
	return out, nil
}

func (s *stubUserService) MarkWatched(ctx context.Context, userID, videoID int64) ([]int64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.videos[videoID] {
		return nil, false, services.ErrVideoNotFound
	}
	for _, id := range s.watched[userID] {
		if id == videoID {
			return append([]int64{}, s.watched[userID]...), false, nil
		}
	}
	s.watched[userID] = append(s.watched[userID], videoID)
	return append([]int64{}, s.watched[userID]...), true, nil
}

func (s *stubUserService) Watched(ctx context.Context, userID int64) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int64{}, s.watched[userID]...), nil
}

func (s *stubUserService) WatchedVideos(ctx context.Context, userID int64) ([]models.WatchedVideo, error) {
	return []models.WatchedVideo{}, nil
}

func (s *stubUserService) WorkArea(ctx context.Context, userID int64) (string, error) {
	return "Finance", nil
}

func (s *stubUserService) Trainings(ctx context.Context, userID int64) ([]models.Training, error) {
	return []models.Training{}, nil
}

// ===== AUTH =====

// stubAuth maps raw token strings to claims or errors.
type stubAuth struct {
	tokens map[string]*utils.Claims
	errs   map[string]error
}

func (s *stubAuth) Login(ctx context.Context, req *services.LoginRequest) (*services.LoginResponse, error) {
	return nil, services.ErrUserNotFound
}

func (s *stubAuth) VerifyToken(token string) (*utils.Claims, error) {
	if err, ok := s.errs[token]; ok {
		return nil, err
	}
	if c, ok := s.tokens[token]; ok {
		return c, nil
	}
	return nil, utils.ErrTokenInvalid
}

func newStubAuth() *stubAuth {
	return &stubAuth{
		tokens: map[string]*utils.Claims{
			"user-7":  {UserID: 7, Username: "ayse", Authority: "user"},
			"admin-1": {UserID: 1, Username: "root", Authority: "admin"},
		},
		errs: map[string]error{
			"expired": utils.ErrTokenExpired,
		},
	}
}

// ===== RESULTS / GUESTS =====

type stubExamResultService struct{}

func (stubExamResultService) Record(ctx context.Context, req *services.ExamResultRequest) (*models.ExamResult, error) {
	return &models.ExamResult{ID: 1}, nil
}

func (stubExamResultService) BestScores(ctx context.Context, userName string) ([]models.VideoBestScore, error) {
	return []models.VideoBestScore{}, nil
}

func (stubExamResultService) Export(ctx context.Context, w io.Writer) error {
	_, err := w.Write([]byte("PK"))
	return err
}

type stubGuestService struct{}

func (stubGuestService) Submit(ctx context.Context, req *services.GuestApplicationRequest) (*models.GuestApplication, error) {
	return &models.GuestApplication{ID: 1}, nil
}

func (stubGuestService) List(ctx context.Context) ([]models.GuestApplication, error) {
	return []models.GuestApplication{}, nil
}

// ===== SERVICE MANAGER =====

type stubServiceManager struct {
	video   *stubVideoService
	exam    *stubExamService
	user    *stubUserService
	auth    *stubAuth
	pingErr error
}

func newStubServiceManager() *stubServiceManager {
	return &stubServiceManager{
		video: &stubVideoService{objects: map[int64][]byte{1: []byte("0123456789")}, mime: "video/mp4"},
		exam:  &stubExamService{},
		user:  newStubUserService(1, 2),
		auth:  newStubAuth(),
	}
}

func (m *stubServiceManager) Initialize(ctx context.Context) error   { return nil }
func (m *stubServiceManager) Video() services.VideoService           { return m.video }
func (m *stubServiceManager) Exam() services.ExamService             { return m.exam }
func (m *stubServiceManager) ExamResult() services.ExamResultService { return stubExamResultService{} }
func (m *stubServiceManager) User() services.UserService             { return m.user }
func (m *stubServiceManager) Auth() services.AuthService             { return m.auth }
func (m *stubServiceManager) HealthCheck(ctx context.Context) error  { return m.pingErr }
func (m *stubServiceManager) Shutdown(ctx context.Context) error     { return nil }
func (m *stubServiceManager) GuestApplication() services.GuestApplicationService {
	return stubGuestService{}
}

func newTestRouter(sm *stubServiceManager) *gin.Engine {
	router := gin.New()
	hm := NewHandlerManager(sm, testLogger(), HandlerConfig{MaxUploadBytes: 1 << 20})
	hm.SetupRoutes(router)
	return router
}

func doRequest(router http.Handler, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func bearer(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode body %q: %v", rec.Body.String(), err)
	}
	return out
}
