package postgres

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/atknylmz/Urtim-server/internal/repositories"
)

// videoMetaColumns is every videos column except content.
var videoMetaColumns = []string{
	"id", "title", "description", "uploader", "tags", "filename",
	"mime_type", "size_bytes", "url", "created_at",
}

const defaultMimeType = "application/octet-stream"

// translateNotFound turns gorm.ErrRecordNotFound into repositories.ErrNotFound.
func translateNotFound(err error, entity string, key any) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return repositories.NotFound(entity, key)
	}
	return err
}

// wrapDuplicate tags unique violations so services can map them to conflicts.
func wrapDuplicate(err error, what string) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%s: %w", what, repositories.ErrDuplicate)
	}
	return fmt.Errorf("%s: %w", what, err)
}
