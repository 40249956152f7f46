package cache

import (
	"context"
	"os"
	"sync"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockSeeder returns canned SQL counts and tracks seed calls.
type mockSeeder struct {
	mu     sync.Mutex
	counts map[string]int64
	calls  int
}

func (m *mockSeeder) CountForKey(ctx context.Context, key string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	return m.counts[key], nil
}

func setupTestRedis(t *testing.T) *redis.Client {
	redisURL := os.Getenv("TEST_REDIS_URL")
	if redisURL == "" {
		redisURL = "redis://localhost:6379"
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		t.Fatalf("Failed to parse Redis URL: %v", err)
	}

	// Use DB 1 for testing to avoid conflicts with dev data
	opts.DB = 1

	client := redis.NewClient(opts)

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("Redis not available, skipping test: %v", err)
	}

	client.FlushDB(ctx)
	t.Cleanup(func() {
		client.FlushDB(context.Background())
		client.Close()
	})

	return client
}

func TestCountCacheSeedsOnFirstRead(t *testing.T) {
	client := setupTestRedis(t)
	seeder := &mockSeeder{counts: map[string]int64{"_": 42}}
	counts := NewCountCache(client, seeder)
	ctx := context.Background()

	value, err := counts.Get(ctx, "_")
	require.NoError(t, err)
	assert.Equal(t, int64(42), value)
	assert.Equal(t, 1, seeder.calls)

	// Second read hits the cache, not SQL.
	value, err = counts.Get(ctx, "_")
	require.NoError(t, err)
	assert.Equal(t, int64(42), value)
	assert.Equal(t, 1, seeder.calls)
}

func TestCountCacheIncrementSeedsFirst(t *testing.T) {
	client := setupTestRedis(t)
	seeder := &mockSeeder{counts: map[string]int64{"@7": 5}}
	counts := NewCountCache(client, seeder)
	ctx := context.Background()

	require.NoError(t, counts.Increment(ctx, "@7", 1))

	value, err := counts.Get(ctx, "@7")
	require.NoError(t, err)
	assert.Equal(t, int64(6), value)
}

func TestCountCacheSeedDoesNotOverwrite(t *testing.T) {
	client := setupTestRedis(t)
	seeder := &mockSeeder{counts: map[string]int64{"canine": 100}}
	counts := NewCountCache(client, seeder)
	ctx := context.Background()

	// A concurrent writer seeded (and incremented) first; the later SET NX
	// must not clobber it.
	require.NoError(t, client.Set(ctx, countKey("canine"), 7, 0).Err())

	require.NoError(t, counts.Increment(ctx, "canine", 1))

	value, err := counts.Get(ctx, "canine")
	require.NoError(t, err)
	assert.Equal(t, int64(8), value)
}

func TestCountCacheDecrementBelowZeroStillApplies(t *testing.T) {
	client := setupTestRedis(t)
	seeder := &mockSeeder{counts: map[string]int64{"_": 0}}
	counts := NewCountCache(client, seeder)
	ctx := context.Background()

	require.NoError(t, counts.Increment(ctx, "_", -1))

	value, err := counts.Get(ctx, "_")
	require.NoError(t, err)
	assert.Equal(t, int64(-1), value, "transient skew is permitted until the next forced seed")
}

func TestCountCacheConcurrentIncrements(t *testing.T) {
	client := setupTestRedis(t)
	seeder := &mockSeeder{counts: map[string]int64{"_": 10}}
	counts := NewCountCache(client, seeder)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, counts.Increment(ctx, "_", 1))
		}()
	}
	wg.Wait()

	value, err := counts.Get(ctx, "_")
	require.NoError(t, err)
	assert.Equal(t, int64(30), value)
}
