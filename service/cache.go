// file: service/cache.go

package service

import (
	"context"
	"fmt"
	"go-session-api/logger"
	"time"

	"github.com/redis/go-redis/v9"
)

// ICacheClient defines the contract for a cache client.
// *redis.Client satisfies it.
type ICacheClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

func devicesCacheKey(userID int) string {
	return fmt.Sprintf("devices:%d", userID)
}

// invalidateDevices drops the cached device list of a user. A nil cache is
// allowed and means caching is disabled.
func invalidateDevices(ctx context.Context, cache ICacheClient, userID int) {
	if cache == nil {
		return
	}
	if err := cache.Del(ctx, devicesCacheKey(userID)).Err(); err != nil {
		logger.Log.WithError(err).WithField("user_id", userID).Warn("Failed to invalidate devices cache")
	}
}
