package services

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisService provides the Redis-backed caching and rate limiting used by
// the API handlers: cached subscription status and per-user limits on meal
// plan generation.
type RedisService struct {
	client *redis.Client
}

// NewRedisService creates a Redis service over an existing client
func NewRedisService(client *redis.Client) *RedisService {
	return &RedisService{client: client}
}

// StoreSubscriptionStatus caches a serialized subscription status payload
func (r *RedisService) StoreSubscriptionStatus(userID, payload string, expireMinutes int) error {
	ctx := context.Background()
	key := fmt.Sprintf("subscription_status:%s", userID)
	expire := time.Duration(expireMinutes) * time.Minute
	return r.client.Set(ctx, key, payload, expire).Err()
}

// GetSubscriptionStatus returns the cached status payload for a user.
// A cache miss is returned as redis.Nil.
func (r *RedisService) GetSubscriptionStatus(userID string) (string, error) {
	ctx := context.Background()
	key := fmt.Sprintf("subscription_status:%s", userID)
	return r.client.Get(ctx, key).Result()
}

// InvalidateSubscriptionStatus drops the cached status after a webhook
// changes the underlying profile
func (r *RedisService) InvalidateSubscriptionStatus(userID string) error {
	ctx := context.Background()
	key := fmt.Sprintf("subscription_status:%s", userID)
	return r.client.Del(ctx, key).Err()
}

// SetRateLimit marks a user as rate limited for the given window
func (r *RedisService) SetRateLimit(scope, userID string, limitMinutes int) error {
	ctx := context.Background()
	key := fmt.Sprintf("rate_limit:%s:%s", scope, userID)
	expire := time.Duration(limitMinutes) * time.Minute
	return r.client.Set(ctx, key, "1", expire).Err()
}

// CheckRateLimit reports whether a user is currently rate limited
func (r *RedisService) CheckRateLimit(scope, userID string) (bool, error) {
	ctx := context.Background()
	key := fmt.Sprintf("rate_limit:%s:%s", scope, userID)

	exists, err := r.client.Exists(ctx, key).Result()
	if err != nil {
		return false, err
	}

	return exists > 0, nil
}
