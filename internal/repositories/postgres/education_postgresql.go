package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/atknylmz/Urtim-server/internal/models"
	"github.com/atknylmz/Urtim-server/internal/repositories"
)

type EducationPostgreSQL struct {
	db *gorm.DB
}

func NewEducationPostgreSQL(db *gorm.DB) repositories.EducationRepository {
	return &EducationPostgreSQL{db: db}
}

func (e *EducationPostgreSQL) ListByUser(ctx context.Context, userID int64) ([]models.UserEducation, error) {
	var entries []models.UserEducation
	if err := e.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("failed to list education: %w", err)
	}
	return entries, nil
}

// ReplaceForUser is only atomic when called on a transaction-bound repository.
func (e *EducationPostgreSQL) ReplaceForUser(ctx context.Context, userID int64, entries []models.UserEducation) error {
	db := e.db.WithContext(ctx)
	if err := db.Where("user_id = ?", userID).Delete(&models.UserEducation{}).Error; err != nil {
		return fmt.Errorf("failed to clear education: %w", err)
	}
	if len(entries) == 0 {
		return nil
	}
	for i := range entries {
		entries[i].UserID = userID
	}
	if err := db.Create(&entries).Error; err != nil {
		return fmt.Errorf("failed to insert education: %w", err)
	}
	return nil
}
