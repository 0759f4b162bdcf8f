// Package cache provides durable storage for the active analysis report.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"subtext/internal/report"
)

// reportKey is the fixed key the single active report lives under.
// The session holds at most one report, so there is nothing else to key by.
const reportKey = "subtext:session:report"

// RedisStore persists the active report in Redis as a single JSON value.
type RedisStore struct {
	client *redis.Client
	key    string
}

// NewRedisStore creates a Redis-backed report cache.
func NewRedisStore(redisURL string) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return &RedisStore{client: client, key: reportKey}, nil
}

// NewRedisStoreWithClient creates a cache from an existing Redis client.
func NewRedisStoreWithClient(client *redis.Client) *RedisStore {
	return &RedisStore{client: client, key: reportKey}
}

// Save serializes and persists the report, overwriting any previous one.
func (s *RedisStore) Save(ctx context.Context, r report.Report) error {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if err := s.client.Set(ctx, s.key, data, 0).Err(); err != nil {
		return fmt.Errorf("save report: %w", err)
	}
	return nil
}

// Load returns the persisted report. The second return is false when no
// report is stored; simple absence is never an error. Corrupt stored
// data is returned as an error for the caller to absorb as absence.
func (s *RedisStore) Load(ctx context.Context) (report.Report, bool, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if err == redis.Nil {
		return report.Report{}, false, nil
	}
	if err != nil {
		return report.Report{}, false, fmt.Errorf("load report: %w", err)
	}

	r, err := report.Parse(data)
	if err != nil {
		return report.Report{}, false, fmt.Errorf("stored report unreadable: %w", err)
	}
	return r, true, nil
}

// Clear removes the persisted report. Idempotent.
func (s *RedisStore) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("clear report: %w", err)
	}
	return nil
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// Ping checks if Redis is reachable.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
