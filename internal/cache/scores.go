package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/redis/go-redis/v9"

	"github.com/mirari/uploader/internal/model"
)

const (
	// ScoreCachePrefix keys score snapshots by external post id.
	ScoreCachePrefix = "score:"

	// VoteCachePrefix keys a user's vote by "{user_id}|{post_id}".
	VoteCachePrefix = "vote:"
)

// ScoreCache holds write-through score snapshots and per-user votes,
// populated after each vote commit.
type ScoreCache interface {
	// PutScore stores the aggregate snapshot for a post.
	PutScore(ctx context.Context, postID string, score model.InternalScore) error

	// PutVote stores a user's vote on a post as 1, -1 or 0.
	PutVote(ctx context.Context, userID int64, postID string, vote int) error
}

// RedisScoreCache implements ScoreCache.
type RedisScoreCache struct {
	client *redis.Client
}

func NewScoreCache(client *redis.Client) ScoreCache {
	return &RedisScoreCache{client: client}
}

func (c *RedisScoreCache) PutScore(ctx context.Context, postID string, score model.InternalScore) error {
	raw, err := json.Marshal(score)
	if err != nil {
		return fmt.Errorf("encode score: %w", err)
	}

	if err := c.client.Set(ctx, ScoreCachePrefix+postID, raw, 0).Err(); err != nil {
		log.Printf("[ScoreCache] PutScore FAILED: post=%s err=%v", postID, err)
		return fmt.Errorf("put score: %w", err)
	}
	return nil
}

func (c *RedisScoreCache) PutVote(ctx context.Context, userID int64, postID string, vote int) error {
	key := fmt.Sprintf("%s%d|%s", VoteCachePrefix, userID, postID)
	if err := c.client.Set(ctx, key, vote, 0).Err(); err != nil {
		log.Printf("[ScoreCache] PutVote FAILED: user=%d post=%s err=%v", userID, postID, err)
		return fmt.Errorf("put vote: %w", err)
	}
	return nil
}
