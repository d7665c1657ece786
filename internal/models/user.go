package models

import (
	"strings"
	"time"

	"github.com/lib/pq"
)

type Authority string

const (
	AuthorityAdmin Authority = "admin"
	AuthorityUser  Authority = "user"
)

// NormalizeAuthority maps anything other than "admin" to "user".
func NormalizeAuthority(v string) Authority {
	if strings.EqualFold(strings.TrimSpace(v), string(AuthorityAdmin)) {
		return AuthorityAdmin
	}
	return AuthorityUser
}

// User.WatchedVideos is only changed through the membership updater so it
// always agrees with user_video_views.
type User struct {
	ID            int64          `json:"id" gorm:"primaryKey"`
	FullName      string         `json:"full_name" gorm:"not null"`
	Role          string         `json:"role"`
	WorkArea      string         `json:"work_area"`
	Authority     Authority      `json:"authority"`
	Username      string         `json:"username" gorm:"uniqueIndex;not null"`
	Email         string         `json:"email" gorm:"uniqueIndex"`
	PasswordPlain string         `json:"-" gorm:"column:password_plain"`
	Tags          pq.StringArray `json:"tags" gorm:"type:text[]"`
	School        string         `json:"school"`
	Department    string         `json:"department"`
	WatchedVideos pq.Int64Array  `json:"watched_videos" gorm:"type:integer[]"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) IsAdmin() bool {
	return u.Authority == AuthorityAdmin
}

type UserVideoView struct {
	ID        int64     `json:"id" gorm:"primaryKey"`
	UserID    int64     `json:"user_id" gorm:"uniqueIndex:user_video_views_user_id_video_id_key,priority:1"`
	VideoID   int64     `json:"video_id" gorm:"uniqueIndex:user_video_views_user_id_video_id_key,priority:2"`
	WatchedAt time.Time `json:"watched_at" gorm:"default:now()"`
}

func (UserVideoView) TableName() string {
	return "user_video_views"
}

type UserEducation struct {
	ID         int64     `json:"id" gorm:"primaryKey"`
	UserID     int64     `json:"user_id" gorm:"index"`
	School     string    `json:"school"`
	Department string    `json:"department"`
	CreatedAt  time.Time `json:"created_at"`
}

func (UserEducation) TableName() string {
	return "user_education"
}

// WatchedVideo is a video joined with the time the user first watched it.
type WatchedVideo struct {
	ID          int64          `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Uploader    string         `json:"uploader"`
	Tags        pq.StringArray `json:"tags" gorm:"type:text[]"`
	URL         string         `json:"url"`
	MimeType    string         `json:"mime_type"`
	SizeBytes   int64          `json:"size_bytes"`
	CreatedAt   time.Time      `json:"created_at"`
	WatchedAt   time.Time      `json:"watched_at"`
}

// Training is a watched video with the best exam score, nil when no result exists.
type Training struct {
	ID        int64          `json:"id"`
	Title     string         `json:"title"`
	Tags      pq.StringArray `json:"tags" gorm:"type:text[]"`
	Score     *float64       `json:"score"`
	WatchedAt time.Time      `json:"watched_at"`
}
