package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/atknylmz/Urtim-server/internal/models"
	"github.com/atknylmz/Urtim-server/internal/repositories"
)

type GuestApplicationPostgreSQL struct {
	db *gorm.DB
}

func NewGuestApplicationPostgreSQL(db *gorm.DB) repositories.GuestApplicationRepository {
	return &GuestApplicationPostgreSQL{db: db}
}

func (g *GuestApplicationPostgreSQL) Create(ctx context.Context, app *models.GuestApplication) error {
	if err := g.db.WithContext(ctx).Create(app).Error; err != nil {
		return wrapDuplicate(err, "failed to create guest application")
	}
	return nil
}

func (g *GuestApplicationPostgreSQL) List(ctx context.Context) ([]models.GuestApplication, error) {
	var apps []models.GuestApplication
	if err := g.db.WithContext(ctx).Order("created_at DESC, id DESC").Find(&apps).Error; err != nil {
		return nil, fmt.Errorf("failed to list guest applications: %w", err)
	}
	return apps, nil
}
