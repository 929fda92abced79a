package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"
)

const (
	categoriesKey     = "categories:all"
	userStatsPrefix   = "user:%s:stats"
	userProfilePrefix = "user:%s:profile"

	// CategoriesTTL bounds staleness of the category list, including reviewCount.
	CategoriesTTL = time.Minute
	// UserStatsTTL bounds staleness of cached user statistics.
	UserStatsTTL = 2 * time.Minute
	// UserProfileTTL is how long a synced identity is trusted before the
	// users row is refreshed again.
	UserProfileTTL = 5 * time.Minute
)

// CategoriesKey is the cache key for the full category list.
func CategoriesKey() string {
	return categoriesKey
}

// UserStatsKey is the cache key for a user's review statistics.
func UserStatsKey(userID string) string {
	return fmt.Sprintf(userStatsPrefix, userID)
}

// UserProfileKey is the cache key for a user's synced profile.
func UserProfileKey(userID string) string {
	return fmt.Sprintf(userProfilePrefix, userID)
}

// Aside implements cache-aside for JSON-serializable values. Cache failures
// degrade to calling load directly; load errors are never cached.
func Aside[T any](ctx context.Context, key string, ttl time.Duration, load func(context.Context) (T, error)) (T, error) {
	if client != nil {
		if raw, err := client.Get(ctx, key).Bytes(); err == nil {
			var cached T
			if err := json.Unmarshal(raw, &cached); err == nil {
				return cached, nil
			}
		}
	}

	value, err := load(ctx)
	if err != nil {
		return value, err
	}

	if client != nil {
		if raw, err := json.Marshal(value); err == nil {
			if err := client.Set(ctx, key, raw, ttl).Err(); err != nil {
				log.Printf("cache set %s failed: %v", key, err)
			}
		}
	}
	return value, nil
}

// Invalidate removes keys from the cache. It is a no-op without Redis.
func Invalidate(ctx context.Context, keys ...string) {
	if client != nil && len(keys) > 0 {
		client.Del(ctx, keys...)
	}
}

// InvalidateUserStats drops the cached statistics for the given users.
func InvalidateUserStats(ctx context.Context, userIDs ...string) {
	keys := make([]string, 0, len(userIDs))
	for _, id := range userIDs {
		if id != "" {
			keys = append(keys, UserStatsKey(id))
		}
	}
	Invalidate(ctx, keys...)
}

// InvalidateCategories drops the cached category list.
func InvalidateCategories(ctx context.Context) {
	Invalidate(ctx, categoriesKey)
}
