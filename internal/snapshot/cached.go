package snapshot

import (
	"context"
	"time"

	"github.com/wonny/limitrade/internal/contracts"
	"github.com/wonny/limitrade/pkg/redis"
)

// CachedProvider memoizes another provider's snapshot in Redis for ttl.
// With Redis disabled every call goes straight to the inner provider.
type CachedProvider struct {
	inner  contracts.SnapshotProvider
	cache  *redis.Cache
	source string
	ttl    time.Duration
}

// NewCachedProvider wraps inner; source names the cache key
func NewCachedProvider(inner contracts.SnapshotProvider, cache *redis.Cache, source string, ttl time.Duration) *CachedProvider {
	return &CachedProvider{inner: inner, cache: cache, source: source, ttl: ttl}
}

// Snapshot implements contracts.SnapshotProvider
func (p *CachedProvider) Snapshot(ctx context.Context) ([]contracts.ItemSnapshot, error) {
	var items []contracts.ItemSnapshot
	err := p.cache.GetOrSet(ctx, redis.SnapshotKey(p.source), &items, p.ttl, func() (interface{}, error) {
		return p.inner.Snapshot(ctx)
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}
