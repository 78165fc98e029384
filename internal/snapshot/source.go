package snapshot

import (
	"fmt"

	"github.com/wonny/limitrade/internal/contracts"
	"github.com/wonny/limitrade/pkg/config"
	"github.com/wonny/limitrade/pkg/httputil"
	"github.com/wonny/limitrade/pkg/logger"
	"github.com/wonny/limitrade/pkg/redis"
)

// NewProvider picks the market source named in cfg.
// repo is required only for the postgres source; limiter may be nil.
func NewProvider(cfg config.MarketConfig, repo *Repository, limiter *redis.RateLimiter, log *logger.Logger) (contracts.SnapshotProvider, error) {
	switch cfg.Source {
	case config.SourceFile:
		return NewFileProvider(cfg.File), nil
	case config.SourceRolimons:
		client := httputil.New(log).WithRPS(cfg.RolimonsRPS, 1)
		if limiter != nil {
			client = client.WithRateLimiter(limiter, redis.RolimonsRateLimit)
		}
		return NewRolimonsProvider(client, cfg.RolimonsBaseURL, log), nil
	case config.SourcePostgres:
		if repo == nil {
			return nil, fmt.Errorf("market source %q needs a database", cfg.Source)
		}
		return repo, nil
	default:
		return nil, fmt.Errorf("unknown market source %q", cfg.Source)
	}
}
