package models

import (
	"time"

	"github.com/lib/pq"
)

// ExamTag is appended to a video's tags once an exam exists for it.
const ExamTag = "SINAVLI"

// Video holds the uploaded file bytes alongside its metadata.
// Content is immutable after insert and SizeBytes always equals len(Content).
type Video struct {
	ID          int64          `json:"id" gorm:"primaryKey"`
	Title       string         `json:"title" gorm:"not null"`
	Description string         `json:"description" gorm:"column:description"`
	Uploader    string         `json:"uploader"`
	Tags        pq.StringArray `json:"tags" gorm:"type:text[]"`
	Filename    string         `json:"filename"`
	MimeType    string         `json:"mime_type"`
	SizeBytes   int64          `json:"size_bytes"`
	Content     []byte         `json:"-" gorm:"type:bytea"`
	URL         string         `json:"url" gorm:"column:url"`
	CreatedAt   time.Time      `json:"created_at"`
}

func (Video) TableName() string {
	return "videos"
}

// HasTag reports whether tag is already present (exact match).
func (v *Video) HasTag(tag string) bool {
	for _, t := range v.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// StreamMeta is what a ranged read needs to know before touching the bytes.
type StreamMeta struct {
	MimeType string `json:"mime_type"`
	Total    int64  `json:"total"`
}
