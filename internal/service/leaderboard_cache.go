package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	"github.com/wellness-in-schools/video-library/internal/db/models"
)

// LeaderboardCache holds the most recent leaderboard snapshot.
type LeaderboardCache interface {
	// Load returns the snapshot, or ok=false when none is stored.
	Load(ctx context.Context) (entries []models.LeaderboardEntry, ok bool, err error)
	Store(ctx context.Context, entries []models.LeaderboardEntry) error
	Ping(ctx context.Context) error
}

// RedisLeaderboardCache stores the snapshot as one JSON value in Redis.
type RedisLeaderboardCache struct {
	redisClient *redis.Client
	key         string
	ttl         time.Duration
}

// NewRedisLeaderboardCache creates a RedisLeaderboardCache. A zero ttl keeps
// the snapshot until it is replaced.
func NewRedisLeaderboardCache(redisClient *redis.Client, key string, ttl time.Duration) *RedisLeaderboardCache {
	return &RedisLeaderboardCache{
		redisClient: redisClient,
		key:         key,
		ttl:         ttl,
	}
}

func (c *RedisLeaderboardCache) Load(ctx context.Context) ([]models.LeaderboardEntry, bool, error) {
	data, err := c.redisClient.Get(ctx, c.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read leaderboard snapshot: %w", err)
	}

	var entries []models.LeaderboardEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, false, fmt.Errorf("failed to decode leaderboard snapshot: %w", err)
	}
	return entries, true, nil
}

func (c *RedisLeaderboardCache) Store(ctx context.Context, entries []models.LeaderboardEntry) error {
	if entries == nil {
		entries = []models.LeaderboardEntry{}
	}
	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("failed to encode leaderboard snapshot: %w", err)
	}
	if err := c.redisClient.Set(ctx, c.key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store leaderboard snapshot: %w", err)
	}
	return nil
}

func (c *RedisLeaderboardCache) Ping(ctx context.Context) error {
	return c.redisClient.Ping(ctx).Err()
}

// NoopLeaderboardCache never holds a snapshot, so every read goes to the
// database.
type NoopLeaderboardCache struct{}

func (NoopLeaderboardCache) Load(context.Context) ([]models.LeaderboardEntry, bool, error) {
	return nil, false, nil
}

func (NoopLeaderboardCache) Store(context.Context, []models.LeaderboardEntry) error { return nil }

func (NoopLeaderboardCache) Ping(context.Context) error { return nil }
