package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/atknylmz/Urtim-server/internal/cache"
	"github.com/atknylmz/Urtim-server/internal/models"
	"github.com/atknylmz/Urtim-server/internal/repositories"
)

type VideoPostgreSQL struct {
	db           *gorm.DB
	cacheManager *cache.CacheManager
}

func NewVideoPostgreSQL(db *gorm.DB, cacheManager *cache.CacheManager) repositories.VideoRepository {
	return &VideoPostgreSQL{
		db:           db,
		cacheManager: cacheManager,
	}
}

func (v *VideoPostgreSQL) Create(ctx context.Context, video *models.Video) error {
	video.SizeBytes = int64(len(video.Content))
	if video.MimeType == "" {
		video.MimeType = defaultMimeType
	}
	if video.Tags == nil {
		video.Tags = pq.StringArray{}
	}
	if err := v.db.WithContext(ctx).Create(video).Error; err != nil {
		return fmt.Errorf("failed to create video: %w", err)
	}
	return nil
}

func (v *VideoPostgreSQL) SetURL(ctx context.Context, id int64, url string) error {
	result := v.db.WithContext(ctx).Model(&models.Video{}).Where("id = ?", id).Update("url", url)
	if result.Error != nil {
		return fmt.Errorf("failed to set video url: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return repositories.NotFound("video", id)
	}
	return nil
}

func (v *VideoPostgreSQL) List(ctx context.Context) ([]models.Video, error) {
	var videos []models.Video
	if err := v.db.WithContext(ctx).
		Select(videoMetaColumns).
		Order("id DESC").
		Find(&videos).Error; err != nil {
		return nil, fmt.Errorf("failed to list videos: %w", err)
	}
	return videos, nil
}

func (v *VideoPostgreSQL) GetByID(ctx context.Context, id int64) (*models.Video, error) {
	var video models.Video
	if err := v.db.WithContext(ctx).Select(videoMetaColumns).First(&video, id).Error; err != nil {
		return nil, translateNotFound(err, "video", id)
	}
	return &video, nil
}

func (v *VideoPostgreSQL) Exists(ctx context.Context, id int64) (bool, error) {
	var count int64
	if err := v.db.WithContext(ctx).Model(&models.Video{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check video: %w", err)
	}
	return count > 0, nil
}

// Delete cascades to exams, questions, results and views through foreign keys.
// The id leaves every watched array in the same transaction.
func (v *VideoPostgreSQL) Delete(ctx context.Context, id int64) error {
	spec := repositories.WatchedVideos
	owner := clause.Table{Name: spec.OwnerTable}
	array := clause.Column{Name: spec.ArrayColumn}

	err := v.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("UPDATE ? SET ? = array_remove(?, CAST(? AS integer)) WHERE CAST(? AS integer) = ANY(?)",
			owner, array, array, id, id, array).Error; err != nil {
			return fmt.Errorf("failed to detach watched video: %w", err)
		}

		result := tx.Delete(&models.Video{}, id)
		if result.Error != nil {
			return fmt.Errorf("failed to delete video: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return repositories.NotFound("video", id)
		}
		return nil
	})
	if err != nil {
		return err
	}

	cache.InvalidateVideoCache(ctx, v.cacheManager, id)
	return nil
}

// StreamMeta is served from cache when possible; octet_length avoids moving the bytes.
func (v *VideoPostgreSQL) StreamMeta(ctx context.Context, id int64) (*models.StreamMeta, error) {
	var meta models.StreamMeta
	err := v.cacheManager.Video.CacheOrExecute(ctx, cache.VideoMetaKey(id), &meta, cache.VideoMetaCacheConfig.TTL, func() (interface{}, error) {
		var row models.StreamMeta
		result := v.db.WithContext(ctx).Raw(
			`SELECT COALESCE(mime_type, ?) AS mime_type, COALESCE(octet_length(content), 0) AS total
			   FROM videos WHERE id = ?`, defaultMimeType, id).
			Scan(&row)
		if result.Error != nil {
			return nil, fmt.Errorf("failed to read video meta: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return nil, repositories.NotFound("video", id)
		}
		return &row, nil
	})
	if err != nil {
		return nil, err
	}
	return &meta, nil
}

func (v *VideoPostgreSQL) ReadAll(ctx context.Context, id int64) (*models.StreamMeta, []byte, error) {
	var row struct {
		MimeType string
		Total    int64
		Content  []byte
	}
	result := v.db.WithContext(ctx).Raw(
		`SELECT COALESCE(mime_type, ?) AS mime_type, COALESCE(octet_length(content), 0) AS total, content
		   FROM videos WHERE id = ?`, defaultMimeType, id).
		Scan(&row)
	if result.Error != nil {
		return nil, nil, fmt.Errorf("failed to read video: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, nil, repositories.NotFound("video", id)
	}
	return &models.StreamMeta{MimeType: row.MimeType, Total: row.Total}, row.Content, nil
}

// ReadWindow uses substring on bytea, whose offsets are 1-based.
func (v *VideoPostgreSQL) ReadWindow(ctx context.Context, id int64, offset, length int64) ([]byte, error) {
	if offset < 1 || length < 1 {
		return nil, fmt.Errorf("invalid window offset=%d length=%d", offset, length)
	}

	var chunk []byte
	row := v.db.WithContext(ctx).Raw(
		`SELECT substring(content FROM ? FOR ?) FROM videos WHERE id = ?`, offset, length, id).Row()
	if err := row.Scan(&chunk); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repositories.NotFound("video", id)
		}
		return nil, fmt.Errorf("failed to read video window: %w", err)
	}
	return chunk, nil
}

func (v *VideoPostgreSQL) AppendTag(ctx context.Context, id int64, tag string) error {
	result := v.db.WithContext(ctx).Model(&models.Video{}).Where("id = ?", id).
		Update("tags", gorm.Expr(
			`CASE WHEN CAST(? AS text) = ANY(COALESCE(tags, '{}'::text[])) THEN tags
			      ELSE array_append(COALESCE(tags, '{}'::text[]), CAST(? AS text)) END`, tag, tag))
	if result.Error != nil {
		return fmt.Errorf("failed to tag video: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return repositories.NotFound("video", id)
	}
	return nil
}

func (v *VideoPostgreSQL) FindByTags(ctx context.Context, needles []string) ([]models.Video, error) {
	if len(needles) == 0 {
		return []models.Video{}, nil
	}

	patterns := make(pq.StringArray, len(needles))
	for i, n := range needles {
		patterns[i] = "%" + n + "%"
	}

	var videos []models.Video
	if err := v.db.WithContext(ctx).
		Select(videoMetaColumns).
		Where(`EXISTS (SELECT 1 FROM unnest(COALESCE(videos.tags, '{}'::text[])) t
		               WHERE lower(t) = ANY(?) OR lower(t) LIKE ANY(?))`,
			pq.StringArray(needles), patterns).
		Order("id DESC").
		Find(&videos).Error; err != nil {
		return nil, fmt.Errorf("failed to find videos by tags: %w", err)
	}
	return videos, nil
}
