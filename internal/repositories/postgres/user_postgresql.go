package postgres

import (
	"context"
	"fmt"
	"strconv"

	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/atknylmz/Urtim-server/internal/models"
	"github.com/atknylmz/Urtim-server/internal/repositories"
)

type UserPostgreSQL struct {
	db *gorm.DB
}

func NewUserPostgreSQL(db *gorm.DB) repositories.UserRepository {
	return &UserPostgreSQL{db: db}
}

func (u *UserPostgreSQL) Create(ctx context.Context, user *models.User) error {
	if user.Tags == nil {
		user.Tags = pq.StringArray{}
	}
	if user.WatchedVideos == nil {
		user.WatchedVideos = pq.Int64Array{}
	}
	if err := u.db.WithContext(ctx).Create(user).Error; err != nil {
		return wrapDuplicate(err, "failed to create user")
	}
	return nil
}

func (u *UserPostgreSQL) GetByID(ctx context.Context, id int64) (*models.User, error) {
	var user models.User
	if err := u.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, translateNotFound(err, "user", id)
	}
	return &user, nil
}

func (u *UserPostgreSQL) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := u.db.WithContext(ctx).Where("lower(email) = lower(?)", email).First(&user).Error; err != nil {
		return nil, translateNotFound(err, "user with email", email)
	}
	return &user, nil
}

func (u *UserPostgreSQL) List(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := u.db.WithContext(ctx).Order("id ASC").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

func (u *UserPostgreSQL) ExistsByUsernameOrEmail(ctx context.Context, username, email string, excludeID int64) (bool, error) {
	if username == "" && email == "" {
		return false, nil
	}

	query := u.db.WithContext(ctx).Model(&models.User{})
	switch {
	case username != "" && email != "":
		query = query.Where("username = ? OR lower(email) = lower(?)", username, email)
	case username != "":
		query = query.Where("username = ?", username)
	default:
		query = query.Where("lower(email) = lower(?)", email)
	}
	if excludeID > 0 {
		query = query.Where("id <> ?", excludeID)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check user uniqueness: %w", err)
	}
	return count > 0, nil
}

// Update writes only the fields present in update.
func (u *UserPostgreSQL) Update(ctx context.Context, id int64, update repositories.UserUpdate) (*models.User, error) {
	fields := userUpdateColumns(update)
	if len(fields) == 0 {
		return u.GetByID(ctx, id)
	}

	var user models.User
	result := u.db.WithContext(ctx).
		Model(&user).
		Clauses(clause.Returning{}).
		Where("id = ?", id).
		Updates(fields)
	if result.Error != nil {
		return nil, wrapDuplicate(result.Error, "failed to update user")
	}
	if result.RowsAffected == 0 {
		return nil, repositories.NotFound("user", id)
	}
	return &user, nil
}

func userUpdateColumns(update repositories.UserUpdate) map[string]interface{} {
	fields := map[string]interface{}{}
	if update.FullName != nil {
		fields["full_name"] = *update.FullName
	}
	if update.Role != nil {
		fields["role"] = *update.Role
	}
	if update.WorkArea != nil {
		fields["work_area"] = *update.WorkArea
	}
	if update.Authority != nil {
		fields["authority"] = string(*update.Authority)
	}
	if update.Username != nil {
		fields["username"] = *update.Username
	}
	if update.Email != nil {
		fields["email"] = *update.Email
	}
	if update.Password != nil {
		fields["password_plain"] = *update.Password
	}
	if update.Tags != nil {
		fields["tags"] = pq.StringArray(*update.Tags)
	}
	if update.School != nil {
		fields["school"] = *update.School
	}
	if update.Department != nil {
		fields["department"] = *update.Department
	}
	return fields
}

func (u *UserPostgreSQL) DeleteByIDOrUsername(ctx context.Context, key string) error {
	query := u.db.WithContext(ctx)
	if id, err := strconv.ParseInt(key, 10, 64); err == nil {
		query = query.Where("id = ?", id)
	} else {
		query = query.Where("username = ?", key)
	}

	result := query.Delete(&models.User{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete user: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return repositories.NotFound("user", key)
	}
	return nil
}

func (u *UserPostgreSQL) WatchedVideos(ctx context.Context, userID int64) ([]models.WatchedVideo, error) {
	var rows []models.WatchedVideo
	if err := u.db.WithContext(ctx).
		Table("user_video_views AS uv").
		Select(`v.id, v.title, v.description, v.uploader, v.tags, v.url, v.mime_type,
		        v.size_bytes, v.created_at, uv.watched_at`).
		Joins("JOIN videos v ON v.id = uv.video_id").
		Where("uv.user_id = ?", userID).
		Order("uv.watched_at DESC").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list watched videos: %w", err)
	}
	if rows == nil {
		rows = []models.WatchedVideo{}
	}
	return rows, nil
}

// Trainings joins exam results by the user's full name; results carry no user id.
func (u *UserPostgreSQL) Trainings(ctx context.Context, userID int64) ([]models.Training, error) {
	var rows []models.Training
	if err := u.db.WithContext(ctx).
		Table("user_video_views AS uv").
		Select(`v.id, v.title, v.tags, MAX(er.score)::float8 AS score, MAX(uv.watched_at) AS watched_at`).
		Joins("JOIN videos v ON v.id = uv.video_id").
		Joins("JOIN users u ON u.id = uv.user_id").
		Joins(`LEFT JOIN exam_results er ON er.video_id = v.id AND lower(er."user") = lower(u.full_name)`).
		Where("uv.user_id = ?", userID).
		Group("v.id, v.title, v.tags").
		Order("MAX(uv.watched_at) DESC").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list trainings: %w", err)
	}
	if rows == nil {
		rows = []models.Training{}
	}
	return rows, nil
}
