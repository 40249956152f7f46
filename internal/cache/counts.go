package cache

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/redis/go-redis/v9"
)

const (
	// CountKeyPrefix namespaces counter keys in Redis. The logical key is the
	// spec key: "_" (global), "@{user_id}", "{rating}", or "{tag}".
	CountKeyPrefix = "count:"

	// countRetries bounds retries on a failed seed or increment.
	countRetries = 3
)

// CountSeeder produces the canonical value for a counter key from SQL.
// Implemented by the post repository.
type CountSeeder interface {
	CountForKey(ctx context.Context, key string) (int64, error)
}

// CountCache is the denormalized counter store. Values never expire; a
// missing key is lazily seeded from SQL before any increment applies.
type CountCache interface {
	// Get returns the counter value, seeding it from SQL when absent.
	Get(ctx context.Context, key string) (int64, error)

	// Increment applies a delta to the counter, seeding it first when absent.
	// A decrement below zero still applies; the next forced seed corrects
	// transient skew.
	Increment(ctx context.Context, key string, delta int64) error
}

// RedisCountCache implements CountCache on Redis string counters.
type RedisCountCache struct {
	client *redis.Client
	seeder CountSeeder
}

func NewCountCache(client *redis.Client, seeder CountSeeder) CountCache {
	return &RedisCountCache{client: client, seeder: seeder}
}

func countKey(key string) string {
	return CountKeyPrefix + key
}

// Get returns the counter, seeding from SQL on a miss.
func (c *RedisCountCache) Get(ctx context.Context, key string) (int64, error) {
	if err := c.ensureSeeded(ctx, key); err != nil {
		return 0, err
	}

	value, err := c.client.Get(ctx, countKey(key)).Int64()
	if err != nil {
		return 0, fmt.Errorf("get counter: %w", err)
	}
	return value, nil
}

// Increment seeds the counter if absent, then applies the delta with a
// server-side atomic INCRBY.
func (c *RedisCountCache) Increment(ctx context.Context, key string, delta int64) error {
	if err := c.ensureSeeded(ctx, key); err != nil {
		return err
	}

	op := func() error {
		return c.client.IncrBy(ctx, countKey(key), delta).Err()
	}
	if err := retryN(ctx, op, countRetries); err != nil {
		log.Printf("[CountCache] Increment FAILED: key=%s delta=%d err=%v", key, delta, err)
		return fmt.Errorf("increment counter: %w", err)
	}

	log.Printf("[CountCache] Increment OK: key=%s delta=%d", key, delta)
	return nil
}

// ensureSeeded writes the SQL count under the key with SET NX, so a
// concurrent increment that seeded first is never overwritten.
func (c *RedisCountCache) ensureSeeded(ctx context.Context, key string) error {
	exists, err := c.client.Exists(ctx, countKey(key)).Result()
	if err != nil {
		return fmt.Errorf("check counter: %w", err)
	}
	if exists > 0 {
		return nil
	}

	seed, err := c.seeder.CountForKey(ctx, key)
	if err != nil {
		return fmt.Errorf("seed counter: %w", err)
	}

	op := func() error {
		// TTL 0: counters never expire.
		return c.client.SetNX(ctx, countKey(key), seed, 0).Err()
	}
	if err := retryN(ctx, op, countRetries); err != nil {
		log.Printf("[CountCache] Seed FAILED: key=%s err=%v", key, err)
		return fmt.Errorf("put counter seed: %w", err)
	}

	log.Printf("[CountCache] Seed OK: key=%s value=%d", key, seed)
	return nil
}

// retryN runs op with exponential backoff, retrying up to max times after
// the first attempt.
func retryN(ctx context.Context, op backoff.Operation, max uint64) error {
	policy := backoff.WithMaxRetries(backoff.NewExponentialBackOff(backoff.WithInitialInterval(50*time.Millisecond)), max)
	return backoff.Retry(op, backoff.WithContext(policy, ctx))
}
