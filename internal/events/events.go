package events

import (
	"context"
	"time"
)

type EventType string

const (
	VideoUploaded      EventType = "video.uploaded"
	ExamCreated        EventType = "exam.created"
	VideoWatched       EventType = "video.watched"
	ExamResultRecorded EventType = "exam_result.recorded"
)

type Event struct {
	ID         string      `json:"id"`
	Type       EventType   `json:"type"`
	OccurredAt time.Time   `json:"occurred_at"`
	Payload    interface{} `json:"payload"`
}

// EventPublisher is called after commit. Failures are reported, never retried.
type EventPublisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

type VideoUploadedPayload struct {
	VideoID   int64    `json:"video_id"`
	Title     string   `json:"title"`
	Uploader  string   `json:"uploader"`
	Tags      []string `json:"tags"`
	SizeBytes int64    `json:"size_bytes"`
}

type ExamCreatedPayload struct {
	ExamID        int64  `json:"exam_id"`
	VideoID       int64  `json:"video_id"`
	ExamTitle     string `json:"exam_title"`
	QuestionCount int    `json:"question_count"`
}

type VideoWatchedPayload struct {
	UserID  int64 `json:"user_id"`
	VideoID int64 `json:"video_id"`
}

type ExamResultRecordedPayload struct {
	ResultID int64   `json:"result_id"`
	VideoID  int64   `json:"video_id"`
	User     string  `json:"user"`
	Score    float64 `json:"score"`
}
