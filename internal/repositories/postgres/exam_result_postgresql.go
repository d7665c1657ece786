package postgres

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/atknylmz/Urtim-server/internal/models"
	"github.com/atknylmz/Urtim-server/internal/repositories"
)

type ExamResultPostgreSQL struct {
	db *gorm.DB
}

func NewExamResultPostgreSQL(db *gorm.DB) repositories.ExamResultRepository {
	return &ExamResultPostgreSQL{db: db}
}

func (r *ExamResultPostgreSQL) Create(ctx context.Context, result *models.ExamResult) error {
	if err := r.db.WithContext(ctx).Create(result).Error; err != nil {
		return fmt.Errorf("failed to create exam result: %w", err)
	}
	return nil
}

func (r *ExamResultPostgreSQL) BestScoresByUser(ctx context.Context, userLabel string) ([]models.VideoBestScore, error) {
	var scores []models.VideoBestScore
	if err := r.db.WithContext(ctx).
		Model(&models.ExamResult{}).
		Select(`video_id, MAX(score)::float8 AS score`).
		Where(`lower("user") = ?`, strings.ToLower(strings.TrimSpace(userLabel))).
		Group("video_id").
		Order("video_id ASC").
		Scan(&scores).Error; err != nil {
		return nil, fmt.Errorf("failed to read exam results: %w", err)
	}
	if scores == nil {
		scores = []models.VideoBestScore{}
	}
	return scores, nil
}

func (r *ExamResultPostgreSQL) List(ctx context.Context) ([]models.ExamResult, error) {
	var results []models.ExamResult
	if err := r.db.WithContext(ctx).Order("created_at DESC, id DESC").Find(&results).Error; err != nil {
		return nil, fmt.Errorf("failed to list exam results: %w", err)
	}
	return results, nil
}
