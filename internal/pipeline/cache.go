package pipeline

import (
	"context"
	"encoding/json"
	"time"

	"github.com/wonny/limitrade/internal/contracts"
	"github.com/wonny/limitrade/pkg/redis"
)

const recentScansKept = 50

// ScanSummary is the compact entry kept in the recent-scans list
type ScanSummary struct {
	RunID        string    `json:"run_id"`
	StartedAt    time.Time `json:"started_at"`
	Profile      string    `json:"profile"`
	Risk         float64   `json:"risk"`
	Combinations int       `json:"combinations"`
	Alerts       int       `json:"alerts"`
}

// CachePublisher mirrors scans into Redis. With Redis disabled it does nothing.
type CachePublisher struct {
	cache      *redis.Cache
	strategyID string
	ttl        time.Duration
}

// NewCachePublisher creates a publisher keyed by strategy id
func NewCachePublisher(cache *redis.Cache, strategyID string, ttl time.Duration) *CachePublisher {
	if ttl <= 0 {
		ttl = redis.TTLDaily
	}
	return &CachePublisher{cache: cache, strategyID: strategyID, ttl: ttl}
}

// Publish implements contracts.ScanPublisher
func (p *CachePublisher) Publish(ctx context.Context, result *contracts.ScanResult) error {
	if err := p.cache.Set(ctx, redis.LatestScanKey(p.strategyID), result, p.ttl); err != nil {
		return err
	}
	if err := p.cache.Set(ctx, redis.ScanKey(result.RunID), result, p.ttl); err != nil {
		return err
	}
	summary := ScanSummary{
		RunID:        result.RunID,
		StartedAt:    result.StartedAt,
		Profile:      result.Profile,
		Risk:         result.Risk.Value,
		Combinations: len(result.Combinations),
		Alerts:       result.Alerts,
	}
	return p.cache.PushRecent(ctx, redis.RecentScansKey(p.strategyID), summary, recentScansKept, p.ttl)
}

// Recent returns up to limit scan summaries, newest first
func (p *CachePublisher) Recent(ctx context.Context, limit int64) ([]ScanSummary, error) {
	raw, err := p.cache.Recent(ctx, redis.RecentScansKey(p.strategyID), limit)
	if err != nil {
		return nil, err
	}
	out := make([]ScanSummary, 0, len(raw))
	for _, r := range raw {
		var s ScanSummary
		if err := json.Unmarshal(r, &s); err != nil {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

// Latest returns the cached latest scan, or nil on a miss
func (p *CachePublisher) Latest(ctx context.Context) (*contracts.ScanResult, error) {
	var result contracts.ScanResult
	found, err := p.cache.Get(ctx, redis.LatestScanKey(p.strategyID), &result)
	if err != nil || !found {
		return nil, err
	}
	return &result, nil
}
