package services

import (
	"context"
	"log/slog"
	"strings"

	"github.com/lib/pq"

	"github.com/atknylmz/Urtim-server/internal/events"
	"github.com/atknylmz/Urtim-server/internal/metrics"
	"github.com/atknylmz/Urtim-server/internal/models"
	"github.com/atknylmz/Urtim-server/internal/repositories"
	"github.com/atknylmz/Urtim-server/internal/validator"
)

type userService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
	publisher events.EventPublisher
}

func NewUserService(repo repositories.Repository, logger *slog.Logger, validator *validator.Validator, publisher events.EventPublisher) UserService {
	return &userService{
		repo:      repo,
		logger:    logger,
		validator: validator,
		publisher: publisher,
	}
}

// ===== ACCOUNT CRUD =====

func (s *userService) Create(ctx context.Context, req *UserCreateRequest) (*models.UserResponse, error) {
	s.logger.Info("Creating user", "username", req.Username)

	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	username := strings.TrimSpace(req.Username)
	email := strings.TrimSpace(req.Email)

	taken, err := s.repo.User().ExistsByUsernameOrEmail(ctx, username, email, 0)
	if err != nil {
		return nil, internal("failed to check user uniqueness", err)
	}
	if taken {
		return nil, ErrUserExists
	}

	user := &models.User{
		FullName:      strings.TrimSpace(req.FullName),
		Role:          strings.TrimSpace(req.Role),
		WorkArea:      strings.TrimSpace(req.WorkArea),
		Authority:     models.NormalizeAuthority(req.Authority),
		Username:      username,
		Email:         email,
		PasswordPlain: req.Password,
		Tags:          pq.StringArray(validator.CleanTags(req.Tags)),
		School:        req.School,
		Department:    req.Department,
		WatchedVideos: pq.Int64Array{},
	}
	if err := s.repo.User().Create(ctx, user); err != nil {
		if repositories.IsDuplicateError(err) {
			return nil, ErrUserExists
		}
		return nil, internal("failed to create user", err)
	}

	s.logger.Info("User created", "user_id", user.ID)
	resp := models.NewUserResponse(user)
	return &resp, nil
}

func (s *userService) List(ctx context.Context) ([]models.UserResponse, error) {
	users, err := s.repo.User().List(ctx)
	if err != nil {
		return nil, internal("failed to list users", err)
	}
	out := make([]models.UserResponse, 0, len(users))
	for i := range users {
		out = append(out, models.NewUserResponse(&users[i]))
	}
	return out, nil
}

// Update writes only the fields present in req. An empty password is ignored.
func (s *userService) Update(ctx context.Context, id int64, req *UserUpdateRequest) (*models.UserResponse, error) {
	if errs := s.validator.GetBusinessValidator().ValidateUserUpdate(req); len(errs) > 0 {
		if req.IsEmpty() {
			return nil, ErrNoFieldsToUpdate
		}
		return nil, errs
	}

	update := toUserUpdate(req)
	if update.Username != nil || update.Email != nil {
		taken, err := s.repo.User().ExistsByUsernameOrEmail(ctx, deref(update.Username), deref(update.Email), id)
		if err != nil {
			return nil, internal("failed to check user uniqueness", err)
		}
		if taken {
			return nil, ErrUserExists
		}
	}

	user, err := s.repo.User().Update(ctx, id, update)
	if err != nil {
		switch {
		case repositories.IsNotFoundError(err):
			return nil, ErrUserNotFound
		case repositories.IsDuplicateError(err):
			return nil, ErrUserExists
		}
		return nil, internal("failed to update user", err)
	}

	s.logger.Info("User updated", "user_id", id)
	resp := models.NewUserResponse(user)
	return &resp, nil
}

func toUserUpdate(req *UserUpdateRequest) repositories.UserUpdate {
	update := repositories.UserUpdate{
		FullName:   trimmed(req.FullName),
		Role:       req.Role,
		WorkArea:   req.WorkArea,
		Username:   trimmed(req.Username),
		Email:      trimmed(req.Email),
		School:     req.School,
		Department: req.Department,
	}
	if req.Authority != nil {
		a := models.NormalizeAuthority(*req.Authority)
		update.Authority = &a
	}
	if req.Password != nil && *req.Password != "" {
		update.Password = req.Password
	}
	if req.Tags != nil {
		tags := []string(validator.CleanTags(*req.Tags))
		update.Tags = &tags
	}
	return update
}

func (s *userService) Delete(ctx context.Context, idOrUsername string) error {
	key := strings.TrimSpace(idOrUsername)
	if key == "" {
		return ErrInvalidID
	}
	if err := s.repo.User().DeleteByIDOrUsername(ctx, key); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrUserNotFound
		}
		return internal("failed to delete user", err)
	}
	s.logger.Info("User deleted", "key", key)
	return nil
}

// ===== EDUCATION =====

func (s *userService) GetEducation(ctx context.Context, userID int64) (*models.Education, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &models.Education{School: user.School, Department: user.Department}, nil
}

func (s *userService) UpdateEducation(ctx context.Context, userID int64, req *EducationRequest) (*models.Education, error) {
	school, department := req.School, req.Department
	user, err := s.repo.User().Update(ctx, userID, repositories.UserUpdate{School: &school, Department: &department})
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrUserNotFound
		}
		return nil, internal("failed to update education", err)
	}
	return &models.Education{School: user.School, Department: user.Department}, nil
}

func (s *userService) ListEducation(ctx context.Context, userID int64) ([]models.UserEducation, error) {
	entries, err := s.repo.Education().ListByUser(ctx, userID)
	if err != nil {
		return nil, internal("failed to list education", err)
	}
	if entries == nil {
		entries = []models.UserEducation{}
	}
	return entries, nil
}

// ReplaceEducation drops entries missing school or department, then replaces
// the whole list in one transaction.
func (s *userService) ReplaceEducation(ctx context.Context, userID int64, entries []EducationRequest) ([]models.UserEducation, error) {
	clean := make([]models.UserEducation, 0, len(entries))
	for _, e := range entries {
		school := strings.TrimSpace(e.School)
		department := strings.TrimSpace(e.Department)
		if school == "" || department == "" {
			continue
		}
		clean = append(clean, models.UserEducation{UserID: userID, School: school, Department: department})
	}

	err := s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		if _, err := tx.User().GetByID(ctx, userID); err != nil {
			return err
		}
		return tx.Education().ReplaceForUser(ctx, userID, clean)
	})
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrUserNotFound
		}
		return nil, internal("failed to save education", err)
	}

	s.logger.Info("Education list replaced", "user_id", userID, "entries", len(clean))
	return s.ListEducation(ctx, userID)
}

// ===== VIEWING HISTORY =====

// MarkWatched checks the video and updates the watched array and the view log
// in one transaction. Repeating the call leaves the state unchanged.
func (s *userService) MarkWatched(ctx context.Context, userID, videoID int64) ([]int64, bool, error) {
	if videoID <= 0 {
		return nil, false, NewValidationError("videoId is required")
	}

	var result *repositories.MembershipResult
	err := s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		exists, err := tx.Video().Exists(ctx, videoID)
		if err != nil {
			return err
		}
		if !exists {
			return ErrVideoNotFound
		}

		result, err = tx.Membership().EnsureMember(ctx, repositories.WatchedVideos, userID, videoID)
		return err
	})
	if err != nil {
		switch {
		case KindOf(err) == KindNotFound:
			return nil, false, err
		case repositories.IsNotFoundError(err):
			return nil, false, ErrUserNotFound
		}
		return nil, false, internal("failed to record watch", err)
	}

	added := result.Added || result.Logged
	metrics.ObserveWatch(added)
	if added {
		publishAfterCommit(ctx, s.publisher, s.logger, events.VideoWatched, events.VideoWatchedPayload{
			UserID:  userID,
			VideoID: videoID,
		})
	}

	members := result.Members
	if members == nil {
		members = []int64{}
	}
	return members, added, nil
}

func (s *userService) Watched(ctx context.Context, userID int64) ([]int64, error) {
	members, err := s.repo.Membership().Members(ctx, repositories.WatchedVideos, userID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrUserNotFound
		}
		return nil, internal("failed to load watched videos", err)
	}
	return members, nil
}

func (s *userService) WatchedVideos(ctx context.Context, userID int64) ([]models.WatchedVideo, error) {
	videos, err := s.repo.User().WatchedVideos(ctx, userID)
	if err != nil {
		return nil, internal("failed to load watched videos", err)
	}
	return videos, nil
}

func (s *userService) WorkArea(ctx context.Context, userID int64) (string, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return "", err
	}
	return user.WorkArea, nil
}

func (s *userService) Trainings(ctx context.Context, userID int64) ([]models.Training, error) {
	trainings, err := s.repo.User().Trainings(ctx, userID)
	if err != nil {
		return nil, internal("failed to load trainings", err)
	}
	return trainings, nil
}

func (s *userService) getUser(ctx context.Context, userID int64) (*models.User, error) {
	user, err := s.repo.User().GetByID(ctx, userID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrUserNotFound
		}
		return nil, internal("failed to load user", err)
	}
	return user, nil
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
