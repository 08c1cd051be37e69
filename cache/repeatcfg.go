package cache

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// repeatConfigKey builds the Redis key for a user's repeat slot settings.
func repeatConfigKey(userID int64) string {
	return fmt.Sprintf("repeatcfg:%d", userID)
}

// GetRepeatConfig returns the stored raw repeat configuration JSON for a
// user, or (nil, false, nil) when none has been saved yet. The caller
// normalizes; the cache stores what the user submitted.
func GetRepeatConfig(ctx context.Context, userID int64) ([]byte, bool, error) {
	if RedisClient == nil {
		return nil, false, fmt.Errorf("Redis client not initialized")
	}

	data, err := RedisClient.Get(ctx, repeatConfigKey(userID)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get repeat config: %w", err)
	}
	return data, true, nil
}

// SetRepeatConfig stores a user's repeat configuration JSON. No TTL:
// settings persist until overwritten.
func SetRepeatConfig(ctx context.Context, userID int64, data []byte) error {
	if RedisClient == nil {
		return fmt.Errorf("Redis client not initialized")
	}

	if err := RedisClient.Set(ctx, repeatConfigKey(userID), data, 0).Err(); err != nil {
		return fmt.Errorf("failed to store repeat config: %w", err)
	}
	return nil
}
