package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mirari/uploader/internal/model"
)

const (
	// PostCachePrefix is the key prefix for hydrated post projections,
	// keyed by external post id.
	PostCachePrefix = "post:"
)

// PostCache holds fully hydrated post projections. All writes are
// best-effort: callers log and continue on failure, readers fall back to SQL
// on a miss.
type PostCache interface {
	// Get returns the cached projection, or (nil, nil) on a miss.
	Get(ctx context.Context, postID string) (*model.PostProjection, error)

	// Put stores the projection.
	Put(ctx context.Context, post *model.PostProjection) error

	// Patch applies fn to the cached projection in place, if present.
	// A miss is not an error; the next read repopulates from SQL.
	Patch(ctx context.Context, postID string, fn func(*model.PostProjection)) error

	// Evict drops the entry, forcing the next read back to SQL.
	Evict(ctx context.Context, postID string) error
}

// RedisPostCache implements PostCache with JSON values.
type RedisPostCache struct {
	client *redis.Client
}

func NewPostCache(client *redis.Client) PostCache {
	return &RedisPostCache{client: client}
}

func postKey(postID string) string {
	return PostCachePrefix + postID
}

func (c *RedisPostCache) Get(ctx context.Context, postID string) (*model.PostProjection, error) {
	raw, err := c.client.Get(ctx, postKey(postID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get post projection: %w", err)
	}

	var post model.PostProjection
	if err := json.Unmarshal(raw, &post); err != nil {
		return nil, fmt.Errorf("decode post projection: %w", err)
	}
	return &post, nil
}

func (c *RedisPostCache) Put(ctx context.Context, post *model.PostProjection) error {
	raw, err := json.Marshal(post)
	if err != nil {
		return fmt.Errorf("encode post projection: %w", err)
	}

	if err := c.client.Set(ctx, postKey(post.PostID), raw, 0).Err(); err != nil {
		log.Printf("[PostCache] Put FAILED: post=%s err=%v", post.PostID, err)
		return fmt.Errorf("put post projection: %w", err)
	}
	return nil
}

func (c *RedisPostCache) Patch(ctx context.Context, postID string, fn func(*model.PostProjection)) error {
	startTime := time.Now()

	post, err := c.Get(ctx, postID)
	if err != nil {
		return err
	}
	if post == nil {
		// Last-writer-wins per key; nothing cached means nothing to patch.
		return nil
	}

	fn(post)
	if err := c.Put(ctx, post); err != nil {
		return err
	}

	log.Printf("[PostCache] Patch OK: post=%s duration=%v", postID, time.Since(startTime))
	return nil
}

func (c *RedisPostCache) Evict(ctx context.Context, postID string) error {
	if err := c.client.Del(ctx, postKey(postID)).Err(); err != nil {
		log.Printf("[PostCache] Evict FAILED: post=%s err=%v", postID, err)
		return fmt.Errorf("evict post projection: %w", err)
	}
	log.Printf("[PostCache] Evict OK: post=%s", postID)
	return nil
}
