package repositories

import (
	"context"

	"github.com/atknylmz/Urtim-server/internal/models"
)

// VideoRepository is the binary object store for uploaded videos.
type VideoRepository interface {
	// Create inserts metadata and content; video.ID is set on return.
	Create(ctx context.Context, video *models.Video) error
	SetURL(ctx context.Context, id int64, url string) error
	// List and GetByID never load content.
	List(ctx context.Context) ([]models.Video, error)
	GetByID(ctx context.Context, id int64) (*models.Video, error)
	Exists(ctx context.Context, id int64) (bool, error)
	Delete(ctx context.Context, id int64) error

	// StreamMeta returns mime type and content length without transferring content.
	StreamMeta(ctx context.Context, id int64) (*models.StreamMeta, error)
	ReadAll(ctx context.Context, id int64) (*models.StreamMeta, []byte, error)
	// ReadWindow returns at most length bytes starting at the 1-based offset.
	ReadWindow(ctx context.Context, id int64, offset, length int64) ([]byte, error)

	// AppendTag adds tag unless already present, keeping existing order.
	AppendTag(ctx context.Context, id int64, tag string) error
	// FindByTags matches lower-cased needles against tags by equality or substring.
	FindByTags(ctx context.Context, needles []string) ([]models.Video, error)
}

type ExamRepository interface {
	ExistsForVideo(ctx context.Context, videoID int64) (bool, error)
	Create(ctx context.Context, exam *models.Exam) error
	// GetByVideoID loads the exam with its questions in id order.
	GetByVideoID(ctx context.Context, videoID int64) (*models.Exam, error)
}

type QuestionRepository interface {
	Create(ctx context.Context, question *models.Question) error
}

type ExamResultRepository interface {
	Create(ctx context.Context, result *models.ExamResult) error
	BestScoresByUser(ctx context.Context, userLabel string) ([]models.VideoBestScore, error)
	List(ctx context.Context) ([]models.ExamResult, error)
}

// UserUpdate is a sparse update; nil fields are left untouched.
type UserUpdate struct {
	FullName   *string
	Role       *string
	WorkArea   *string
	Authority  *models.Authority
	Username   *string
	Email      *string
	Password   *string
	Tags       *[]string
	School     *string
	Department *string
}

func (u UserUpdate) IsEmpty() bool {
	return u.FullName == nil && u.Role == nil && u.WorkArea == nil && u.Authority == nil &&
		u.Username == nil && u.Email == nil && u.Password == nil && u.Tags == nil &&
		u.School == nil && u.Department == nil
}

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id int64) (*models.User, error)
	// GetByEmail matches case-insensitively.
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
	// ExistsByUsernameOrEmail ignores the row with excludeID (0 excludes nothing).
	ExistsByUsernameOrEmail(ctx context.Context, username, email string, excludeID int64) (bool, error)
	Update(ctx context.Context, id int64, update UserUpdate) (*models.User, error)
	// DeleteByIDOrUsername treats a numeric key as id, anything else as username.
	DeleteByIDOrUsername(ctx context.Context, key string) error

	WatchedVideos(ctx context.Context, userID int64) ([]models.WatchedVideo, error)
	Trainings(ctx context.Context, userID int64) ([]models.Training, error)
}

type EducationRepository interface {
	ListByUser(ctx context.Context, userID int64) ([]models.UserEducation, error)
	// ReplaceForUser deletes all entries of the user, then inserts entries.
	ReplaceForUser(ctx context.Context, userID int64, entries []models.UserEducation) error
}

// MembershipSpec names a denormalized id array on an owner row and the
// append-only log table that records each (owner, member) pair once.
type MembershipSpec struct {
	OwnerTable      string
	ArrayColumn     string
	LogTable        string
	LogOwnerColumn  string
	LogMemberColumn string
}

// WatchedVideos links users.watched_videos with user_video_views.
var WatchedVideos = MembershipSpec{
	OwnerTable:      "users",
	ArrayColumn:     "watched_videos",
	LogTable:        "user_video_views",
	LogOwnerColumn:  "user_id",
	LogMemberColumn: "video_id",
}

type MembershipResult struct {
	Members []int64
	// Added is true when the array changed.
	Added bool
	// Logged is true when a new log row was written.
	Logged bool
}

type MembershipRepository interface {
	// EnsureMember locks the owner row, adds member to the array when missing and
	// inserts the log row with insert-or-ignore. Repeated calls are no-ops.
	EnsureMember(ctx context.Context, spec MembershipSpec, ownerID, memberID int64) (*MembershipResult, error)
	Members(ctx context.Context, spec MembershipSpec, ownerID int64) ([]int64, error)
}

type GuestApplicationRepository interface {
	Create(ctx context.Context, app *models.GuestApplication) error
	// List returns newest first.
	List(ctx context.Context) ([]models.GuestApplication, error)
}
