package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mattislub/Timed-Audio-Queue/model"

	"github.com/redis/go-redis/v9"
)

// listCacheTTL keeps cached listings short-lived; mutations also
// invalidate explicitly, the TTL just bounds staleness after a missed
// invalidation.
const listCacheTTL = 30 * time.Second

// recordingsKey builds the Redis key for a user's recordings listing.
func recordingsKey(userID int64) string {
	return fmt.Sprintf("recordings:%d", userID)
}

// GetRecordings returns the cached recordings listing for a user, or
// (nil, false, nil) on a cache miss.
func GetRecordings(ctx context.Context, userID int64) ([]*model.Recording, bool, error) {
	if RedisClient == nil {
		return nil, false, fmt.Errorf("Redis client not initialized")
	}

	data, err := RedisClient.Get(ctx, recordingsKey(userID)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get cached recordings: %w", err)
	}

	var recordings []*model.Recording
	if err := json.Unmarshal(data, &recordings); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal cached recordings: %w", err)
	}
	return recordings, true, nil
}

// SetRecordings stores a user's recordings listing.
func SetRecordings(ctx context.Context, userID int64, recordings []*model.Recording) error {
	if RedisClient == nil {
		return fmt.Errorf("Redis client not initialized")
	}

	data, err := json.Marshal(recordings)
	if err != nil {
		return fmt.Errorf("failed to marshal recordings: %w", err)
	}

	if err := RedisClient.Set(ctx, recordingsKey(userID), data, listCacheTTL).Err(); err != nil {
		return fmt.Errorf("failed to cache recordings: %w", err)
	}
	return nil
}

// InvalidateRecordings drops a user's cached listing after a mutation.
func InvalidateRecordings(ctx context.Context, userID int64) error {
	if RedisClient == nil {
		return fmt.Errorf("Redis client not initialized")
	}

	if err := RedisClient.Del(ctx, recordingsKey(userID)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate recordings cache: %w", err)
	}
	return nil
}
