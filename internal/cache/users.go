package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/redis/go-redis/v9"

	"github.com/mirari/uploader/internal/model"
)

const (
	// UserCachePrefix is the key prefix for user projections, keyed by user id.
	UserCachePrefix = "user:"
)

// UserCache holds denormalized user records so icon/banner updates are
// visible without a round-trip to the user service.
type UserCache interface {
	// Get returns the cached user, or (nil, nil) on a miss.
	Get(ctx context.Context, userID int64) (*model.UserProjection, error)

	// Put stores the user projection.
	Put(ctx context.Context, user *model.UserProjection) error

	// Patch applies fn to the cached user in place, if present.
	Patch(ctx context.Context, userID int64, fn func(*model.UserProjection)) error
}

// RedisUserCache implements UserCache with JSON values.
type RedisUserCache struct {
	client *redis.Client
}

func NewUserCache(client *redis.Client) UserCache {
	return &RedisUserCache{client: client}
}

func userKey(userID int64) string {
	return fmt.Sprintf("%s%d", UserCachePrefix, userID)
}

func (c *RedisUserCache) Get(ctx context.Context, userID int64) (*model.UserProjection, error) {
	raw, err := c.client.Get(ctx, userKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user projection: %w", err)
	}

	var user model.UserProjection
	if err := json.Unmarshal(raw, &user); err != nil {
		return nil, fmt.Errorf("decode user projection: %w", err)
	}
	return &user, nil
}

func (c *RedisUserCache) Put(ctx context.Context, user *model.UserProjection) error {
	raw, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode user projection: %w", err)
	}

	if err := c.client.Set(ctx, userKey(user.UserID), raw, 0).Err(); err != nil {
		log.Printf("[UserCache] Put FAILED: user=%d err=%v", user.UserID, err)
		return fmt.Errorf("put user projection: %w", err)
	}
	return nil
}

func (c *RedisUserCache) Patch(ctx context.Context, userID int64, fn func(*model.UserProjection)) error {
	user, err := c.Get(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return nil
	}

	fn(user)
	return c.Put(ctx, user)
}
