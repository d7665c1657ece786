package cache

import (
	"context"
	"fmt"
	"log/slog"
)

// SafeInvalidatePattern logs instead of failing the caller.
func SafeInvalidatePattern(ctx context.Context, helper *CacheHelper, pattern string) {
	if err := helper.InvalidatePattern(ctx, pattern); err != nil {
		slog.ErrorContext(ctx, "Failed to invalidate cache pattern",
			"error", err,
			"pattern", pattern)
	}
}

// SafeDelete logs instead of failing the caller.
func SafeDelete(ctx context.Context, helper *CacheHelper, keys ...string) {
	if err := helper.Delete(ctx, keys...); err != nil {
		slog.ErrorContext(ctx, "Failed to delete cache keys",
			"error", err,
			"keys", keys)
	}
}

func VideoMetaKey(videoID int64) string {
	return fmt.Sprintf("meta:%d", videoID)
}

func ExamByVideoKey(videoID int64) string {
	return fmt.Sprintf("video:%d:exam", videoID)
}

// examKeysForVideo matches every exam cache entry scoped to one video.
func examKeysForVideo(videoID int64) string {
	return fmt.Sprintf("video:%d:*", videoID)
}

// InvalidateVideoCache drops everything derived from one video.
func InvalidateVideoCache(ctx context.Context, cm *CacheManager, videoID int64) {
	SafeDelete(ctx, cm.Video, VideoMetaKey(videoID))
	SafeInvalidatePattern(ctx, cm.Exam, examKeysForVideo(videoID))
}
