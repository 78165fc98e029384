package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache provides JSON caching utilities
// SSOT: cache helpers live here only
type Cache struct {
	client *Client
	prefix string
}

// NewCache creates a new cache helper
func NewCache(client *Client, prefix string) *Cache {
	return &Cache{
		client: client,
		prefix: prefix,
	}
}

func (c *Cache) key(key string) string {
	return fmt.Sprintf("%s:cache:%s", c.prefix, key)
}

// Get retrieves a cached value
func (c *Cache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	if !c.client.Enabled() {
		return false, nil
	}

	data, err := c.client.Redis().Get(ctx, c.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("cache get failed: %w", err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("cache unmarshal failed: %w", err)
	}

	return true, nil
}

// Set stores a value in cache with TTL
func (c *Cache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if !c.client.Enabled() {
		return nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache marshal failed: %w", err)
	}

	return c.client.Redis().Set(ctx, c.key(key), data, ttl).Err()
}

// PushRecent prepends value to a capped list, keeping the newest keep entries
func (c *Cache) PushRecent(ctx context.Context, key string, value interface{}, keep int64, ttl time.Duration) error {
	if !c.client.Enabled() {
		return nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache marshal failed: %w", err)
	}

	full := c.key(key)
	pipe := c.client.Redis().TxPipeline()
	pipe.LPush(ctx, full, data)
	pipe.LTrim(ctx, full, 0, keep-1)
	if ttl > 0 {
		pipe.Expire(ctx, full, ttl)
	}
	_, err = pipe.Exec(ctx)
	return err
}

// Recent returns the raw JSON entries of a list written by PushRecent, newest first
func (c *Cache) Recent(ctx context.Context, key string, limit int64) ([]json.RawMessage, error) {
	if !c.client.Enabled() || limit <= 0 {
		return nil, nil
	}

	items, err := c.client.Redis().LRange(ctx, c.key(key), 0, limit-1).Result()
	if err != nil {
		return nil, fmt.Errorf("cache range failed: %w", err)
	}
	out := make([]json.RawMessage, len(items))
	for i, it := range items {
		out[i] = json.RawMessage(it)
	}
	return out, nil
}

// GetOrSet retrieves from cache or calls fn to populate it
func (c *Cache) GetOrSet(ctx context.Context, key string, dest interface{}, ttl time.Duration, fn func() (interface{}, error)) error {
	found, err := c.Get(ctx, key, dest)
	if err != nil {
		return err
	}
	if found {
		return nil
	}

	value, err := fn()
	if err != nil {
		return err
	}

	// a failed write still returns the fresh value
	_ = c.Set(ctx, key, value, ttl)

	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dest)
}

// Predefined TTLs
const (
	TTLShort = 1 * time.Minute // item snapshot
	TTLLong  = 1 * time.Hour   // item catalogue
	TTLDaily = 24 * time.Hour  // scan results
)

// LatestScanKey holds the most recent scan for a strategy
func LatestScanKey(strategyID string) string {
	return fmt.Sprintf("scan:latest:%s", strategyID)
}

// ScanKey holds one scan by run id
func ScanKey(runID string) string {
	return fmt.Sprintf("scan:run:%s", runID)
}

// RecentScansKey is the capped list of scan summaries for a strategy
func RecentScansKey(strategyID string) string {
	return fmt.Sprintf("scan:recent:%s", strategyID)
}

// SnapshotKey caches a provider's raw item snapshot
func SnapshotKey(source string) string {
	return fmt.Sprintf("snapshot:%s", source)
}
