package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"screener_go/internal/domain"

	"github.com/redis/go-redis/v9"
)

const ratioKeyPrefix = "lsr:"

// RedisCache is a RatioCache backed by Redis, for deployments where
// the screener restarts often and the SQLite file is not available.
// Per-symbol keys make partial-overwrite data loss impossible.
type RedisCache struct {
	client *redis.Client
	expiry time.Duration
}

// NewRedisCache connects to Redis and verifies the connection. Keys
// expire at a multiple of the refresh TTL: staleness is enforced at
// read time, the Redis expiry only evicts symbols that stopped
// refreshing entirely, e.g. after a delisting.
func NewRedisCache(addr, password string, db int, refreshTTL time.Duration) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &RedisCache{client: client, expiry: ratioExpiry(refreshTTL)}, nil
}

// ratioExpiry bounds how long dead symbols linger. Well above the
// refresh TTL so a restart never finds an empty cache.
func ratioExpiry(refreshTTL time.Duration) time.Duration {
	return 12 * refreshTTL
}

// Put writes one symbol's ratio entry under its own key.
func (c *RedisCache) Put(ctx context.Context, symbol string, entry domain.RatioEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal ratio entry: %w", err)
	}

	key := ratioKeyPrefix + symbol
	if err := c.client.Set(ctx, key, data, c.expiry).Err(); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	return nil
}

// Load restores the whole ratio cache by scanning the key prefix.
func (c *RedisCache) Load(ctx context.Context) (map[string]domain.RatioEntry, error) {
	result := make(map[string]domain.RatioEntry)

	iter := c.client.Scan(ctx, 0, ratioKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()

		data, err := c.client.Get(ctx, key).Result()
		if err != nil {
			continue // Expired between scan and get
		}

		var entry domain.RatioEntry
		if err := json.Unmarshal([]byte(data), &entry); err != nil {
			continue
		}

		result[strings.TrimPrefix(key, ratioKeyPrefix)] = entry
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan ratio keys: %w", err)
	}

	return result, nil
}

// Close releases the Redis connection.
func (c *RedisCache) Close() error {
	return c.client.Close()
}
