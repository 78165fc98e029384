package commands

import (
	"context"
	"fmt"

	"github.com/wonny/limitrade/internal/contracts"
	"github.com/wonny/limitrade/internal/notify"
	"github.com/wonny/limitrade/internal/pipeline"
	"github.com/wonny/limitrade/internal/snapshot"
	"github.com/wonny/limitrade/internal/strategyconfig"
	"github.com/wonny/limitrade/pkg/config"
	"github.com/wonny/limitrade/pkg/database"
	"github.com/wonny/limitrade/pkg/httputil"
	"github.com/wonny/limitrade/pkg/logger"
	"github.com/wonny/limitrade/pkg/redis"
)

// keyPrefix namespaces every redis key this service writes
const keyPrefix = "limitrade"

// app holds the shared dependencies of the scan and api commands.
// db and repo are nil without DATABASE_URL; redis is a no-op client when disabled.
type app struct {
	cfg      *config.Config
	log      *logger.Logger
	store    *strategyconfig.Store
	strategy []byte

	db    *database.DB
	repo  *snapshot.Repository
	redis *redis.Client
	cache *redis.Cache
}

// newApp loads configuration and opens storage in dependency order
func newApp(ctx context.Context, cfg *config.Config, log *logger.Logger) (*app, error) {
	// 1. Strategy
	strategyCfg, data, err := loadStrategy(cfg.StrategyFile)
	if err != nil {
		return nil, err
	}
	store, err := strategyconfig.NewStore(strategyCfg)
	if err != nil {
		return nil, fmt.Errorf("strategy store: %w", err)
	}
	for _, w := range strategyconfig.Warn(strategyCfg) {
		log.WithField("code", w.Code).Warn(w.Message)
	}

	a := &app{cfg: cfg, log: log, store: store, strategy: data}

	// 2. PostgreSQL (optional)
	if cfg.Database.URL != "" {
		db, err := database.New(ctx, cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("connect to database: %w", err)
		}
		if err := db.Migrate(ctx, snapshot.Schema); err != nil {
			db.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
		a.db = db
		a.repo = snapshot.NewRepository(db.Pool)
		log.Info("Connected to database")
	}

	// 3. Redis (no-op when disabled)
	rc, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	a.redis = rc
	a.cache = redis.NewCache(rc, keyPrefix)
	if rc.Enabled() {
		log.Info("Connected to redis")
	}

	return a, nil
}

// Close releases storage connections
func (a *app) Close() {
	if a.redis != nil {
		a.redis.Close()
	}
	if a.db != nil {
		a.db.Close()
	}
}

// provider builds the configured market source, cached in redis when enabled
func (a *app) provider() (contracts.SnapshotProvider, error) {
	var limiter *redis.RateLimiter
	if a.redis.Enabled() {
		limiter = redis.NewRateLimiter(a.redis, keyPrefix)
	}
	p, err := snapshot.NewProvider(a.cfg.Market, a.repo, limiter, a.log)
	if err != nil {
		return nil, err
	}
	if a.redis.Enabled() && a.cfg.Market.Source != config.SourcePostgres {
		return snapshot.NewCachedProvider(p, a.cache, a.cfg.Market.Source, redis.TTLShort), nil
	}
	return p, nil
}

// cachePublisher stores scan results in redis under the strategy id
func (a *app) cachePublisher() *pipeline.CachePublisher {
	return pipeline.NewCachePublisher(a.cache, a.store.Config().Meta.StrategyID, a.cfg.Redis.ScanTTL)
}

// scanner wires the pipeline with every configured sink
func (a *app) scanner(notifyEnabled bool, extra ...contracts.ScanPublisher) (*pipeline.Scanner, error) {
	provider, err := a.provider()
	if err != nil {
		return nil, err
	}

	publishers := []contracts.ScanPublisher{a.cachePublisher()}
	opts := []pipeline.Option{}
	if a.repo != nil {
		publishers = append(publishers, a.repo)
		opts = append(opts, pipeline.WithRecorder(a.repo))
	}
	publishers = append(publishers, extra...)
	opts = append(opts, pipeline.WithPublishers(publishers...))

	if discord := a.discord(); notifyEnabled && discord != nil {
		opts = append(opts, pipeline.WithNotifier(discord))
	}

	return pipeline.NewScanner(provider, a.store, a.log, opts...), nil
}

// discord returns the webhook gateway, or nil when no webhook is configured
func (a *app) discord() *notify.Discord {
	if a.cfg.Discord.WebhookURL == "" {
		return nil
	}
	return notify.NewDiscord(httputil.New(a.log), a.cfg.Discord.WebhookURL, a.cfg.Discord.RoleID, a.store, a.log)
}

// latestStored loads the most recent persisted scan, database first
func (a *app) latestStored(ctx context.Context) *contracts.ScanResult {
	if a.repo != nil {
		result, err := a.repo.LatestScan(ctx)
		if err != nil {
			a.log.WithError(err).Warn("Failed to load latest scan from database")
		} else if result != nil {
			return result
		}
	}
	result, err := a.cachePublisher().Latest(ctx)
	if err != nil {
		a.log.WithError(err).Warn("Failed to load latest scan from redis")
		return nil
	}
	return result
}
