package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/atknylmz/Urtim-server/internal/cache"
	"github.com/atknylmz/Urtim-server/internal/models"
	"github.com/atknylmz/Urtim-server/internal/repositories"
)

type ExamPostgreSQL struct {
	db           *gorm.DB
	cacheManager *cache.CacheManager
}

func NewExamPostgreSQL(db *gorm.DB, cacheManager *cache.CacheManager) repositories.ExamRepository {
	return &ExamPostgreSQL{
		db:           db,
		cacheManager: cacheManager,
	}
}

// ExistsForVideo runs inside the creating transaction. It locks the parent
// video row first so concurrent creators for one video queue behind each
// other; the unique index on exams.video_id backs it up.
func (e *ExamPostgreSQL) ExistsForVideo(ctx context.Context, videoID int64) (bool, error) {
	var locked []int64
	if err := e.db.WithContext(ctx).Model(&models.Video{}).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", videoID).
		Pluck("id", &locked).Error; err != nil {
		return false, fmt.Errorf("failed to lock video: %w", err)
	}

	var count int64
	if err := e.db.WithContext(ctx).Model(&models.Exam{}).Where("video_id = ?", videoID).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check exam: %w", err)
	}
	return count > 0, nil
}

// Create inserts only the exam row; questions are written one by one by the caller.
func (e *ExamPostgreSQL) Create(ctx context.Context, exam *models.Exam) error {
	if err := e.db.WithContext(ctx).Omit("Questions").Create(exam).Error; err != nil {
		return wrapDuplicate(err, "failed to create exam")
	}
	return nil
}

func (e *ExamPostgreSQL) GetByVideoID(ctx context.Context, videoID int64) (*models.Exam, error) {
	var exam models.Exam
	err := e.cacheManager.Exam.CacheOrExecute(ctx, cache.ExamByVideoKey(videoID), &exam, cache.ExamCacheConfig.TTL, func() (interface{}, error) {
		var row models.Exam
		if err := e.db.WithContext(ctx).
			Preload("Questions", func(db *gorm.DB) *gorm.DB {
				return db.Order("id ASC")
			}).
			Where("video_id = ?", videoID).
			First(&row).Error; err != nil {
			return nil, translateNotFound(err, "exam for video", videoID)
		}
		return &row, nil
	})
	if err != nil {
		return nil, err
	}
	return &exam, nil
}
