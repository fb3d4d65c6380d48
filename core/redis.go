package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const recommendationKeyPrefix = "tripsense:rec:user:"

// NewRedisClient returns a configured go-redis client from URL (e.g., redis://localhost:6379/0).
func NewRedisClient(redisURL string) (*redis.Client, error) {
	if redisURL == "" {
		return nil, errors.New("empty redis url")
	}
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return client, nil
}

// RecommendationCache stores recommendation responses per user so repeated
// preference reads do not re-hit the external service. Entries expire with
// the configured TTL and are invalidated when the user's preferences change.
type RecommendationCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRecommendationCache(client *redis.Client, ttl time.Duration) *RecommendationCache {
	return &RecommendationCache{client: client, ttl: ttl}
}

// Get returns the cached recommendations for userID, or (nil, false) on miss.
func (c *RecommendationCache) Get(ctx context.Context, userID int64) (map[string]any, bool) {
	raw, err := c.client.Get(ctx, recommendationKey(userID)).Result()
	if err != nil {
		return nil, false
	}
	var recs map[string]any
	if err := json.Unmarshal([]byte(raw), &recs); err != nil {
		return nil, false
	}
	return recs, true
}

// Set caches recommendations for userID. Failures are swallowed: the cache
// is an optimization, never a correctness dependency.
func (c *RecommendationCache) Set(ctx context.Context, userID int64, recs map[string]any) {
	raw, err := json.Marshal(recs)
	if err != nil {
		return
	}
	_ = c.client.Set(ctx, recommendationKey(userID), raw, c.ttl).Err()
}

// Invalidate drops the cached entry for userID.
func (c *RecommendationCache) Invalidate(ctx context.Context, userID int64) {
	_ = c.client.Del(ctx, recommendationKey(userID)).Err()
}

func recommendationKey(userID int64) string {
	return fmt.Sprintf("%s%d", recommendationKeyPrefix, userID)
}
