package models

import "time"

type Exam struct {
	ID         int64      `json:"id" gorm:"primaryKey"`
	VideoID    int64      `json:"video_id" gorm:"not null;uniqueIndex:exams_video_id_unique"`
	ExamTitle  string     `json:"exam_title" gorm:"column:exam_title;not null"`
	Author     string     `json:"author"`
	Tag        string     `json:"tag"`
	Department string     `json:"department"`
	CreatedAt  time.Time  `json:"created_at"`
	Questions  []Question `json:"questions,omitempty" gorm:"foreignKey:ExamID;constraint:OnDelete:CASCADE"`
}

func (Exam) TableName() string {
	return "exams"
}

// Question rows are displayed in id order, which is insertion order.
type Question struct {
	ID           int64  `json:"id" gorm:"primaryKey"`
	ExamID       int64  `json:"exam_id" gorm:"not null;index"`
	QuestionText string `json:"question_text" gorm:"column:question_text;not null"`
	AnswerText   string `json:"answer_text" gorm:"column:answer_text"`
	ImageURL     string `json:"image_url" gorm:"column:image_url"`
}

func (Question) TableName() string {
	return "questions"
}

// ExamResult is append-only. User is a free-text label matched case-insensitively.
type ExamResult struct {
	ID        int64     `json:"id" gorm:"primaryKey"`
	User      string    `json:"user" gorm:"column:user;not null"`
	VideoID   int64     `json:"video_id"`
	ExamTitle string    `json:"exam_title"`
	Score     float64   `json:"score" gorm:"type:numeric"`
	CreatedAt time.Time `json:"created_at"`
}

func (ExamResult) TableName() string {
	return "exam_results"
}

// VideoBestScore is the maximum score a user reached for one video.
type VideoBestScore struct {
	VideoID int64   `json:"video_id"`
	Score   float64 `json:"score"`
}
