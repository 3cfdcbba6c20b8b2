package cache

import (
	"context"
	"fmt"
	"log/slog"
)

// SafeInvalidatePattern safely invalidates cache pattern with logging
func SafeInvalidatePattern(ctx context.Context, helper *CacheHelper, pattern string) {
	if err := helper.InvalidatePattern(ctx, pattern); err != nil {
		slog.ErrorContext(ctx, "Failed to invalidate cache pattern",
			"error", err,
			"pattern", pattern)
	}
}

// SafeDelete safely deletes cache keys with logging
func SafeDelete(ctx context.Context, helper *CacheHelper, keys ...string) {
	if err := helper.Delete(ctx, keys...); err != nil {
		slog.ErrorContext(ctx, "Failed to delete cache keys",
			"error", err,
			"keys", keys)
	}
}

// InvalidateAreaCache invalidates every cached view of one area config
func InvalidateAreaCache(ctx context.Context, cm *CacheManager, areaName string) {
	SafeDelete(ctx, cm.Area,
		fmt.Sprintf("name:%s", areaName),
		"list")
	SafeInvalidatePattern(ctx, cm.Stats, fmt.Sprintf("area:%s:*", areaName))
}

// InvalidateAchievementCache invalidates cached achievements for a student
func InvalidateAchievementCache(ctx context.Context, cm *CacheManager, studentID uint) {
	SafeInvalidatePattern(ctx, cm.Achievement, fmt.Sprintf("student:%d:*", studentID))
	SafeInvalidatePattern(ctx, cm.Stats, fmt.Sprintf("student:%d:*", studentID))
}
