package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wonny/limitrade/internal/combination"
	"github.com/wonny/limitrade/internal/contracts"
	"github.com/wonny/limitrade/internal/forecast"
	"github.com/wonny/limitrade/internal/scoring"
	"github.com/wonny/limitrade/internal/strategyconfig"
	"github.com/wonny/limitrade/pkg/logger"
)

// Scanner runs one full scan pass: snapshot, forecast, score, combine, publish, alert.
// SSOT: scan orchestration happens only here
type Scanner struct {
	provider   contracts.SnapshotProvider
	recorder   contracts.SnapshotRecorder
	store      *strategyconfig.Store
	engine     *scoring.Engine
	generator  *combination.Generator
	publishers []contracts.ScanPublisher
	notifier   contracts.Notifier
	logger     *logger.Logger

	// mu serializes scans and every forecaster access; the forecaster itself is not locked
	mu         sync.Mutex
	forecaster *forecast.Forecaster
	previous   []contracts.ItemSnapshot

	latestMu sync.RWMutex
	latest   *contracts.ScanResult

	now   func() time.Time
	newID func() string
}

// Option customizes a Scanner
type Option func(*Scanner)

// WithRecorder persists every snapshot and diffs against the stored previous batch
func WithRecorder(r contracts.SnapshotRecorder) Option {
	return func(s *Scanner) { s.recorder = r }
}

// WithPublishers adds sinks that receive every completed scan
func WithPublishers(p ...contracts.ScanPublisher) Option {
	return func(s *Scanner) { s.publishers = append(s.publishers, p...) }
}

// WithNotifier sets the alert gateway
func WithNotifier(n contracts.Notifier) Option {
	return func(s *Scanner) { s.notifier = n }
}

// NewScanner wires a scanner around the active strategy store.
// The forecaster is sized from the store's forecast section at construction.
func NewScanner(provider contracts.SnapshotProvider, store *strategyconfig.Store, log *logger.Logger, opts ...Option) *Scanner {
	if log == nil {
		log = logger.NewNop()
	}
	s := &Scanner{
		provider:   provider,
		store:      store,
		engine:     scoring.NewEngine(log),
		generator:  combination.NewGenerator(log.Zerolog()),
		forecaster: forecast.New(store.Config().Forecast, log.Zerolog()),
		logger:     log,
		now:        time.Now,
		newID:      uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Scan runs one pass. Publisher and notifier failures are logged and do not fail the scan.
func (s *Scanner) Scan(ctx context.Context) (*contracts.ScanResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg := s.store.Config()
	if cfg.Scan.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Scan.Timeout)
		defer cancel()
	}

	profile, err := cfg.ResolveProfile()
	if err != nil {
		return nil, fmt.Errorf("resolve profile: %w", err)
	}
	profileHash, err := strategyconfig.Hash(cfg)
	if err != nil {
		return nil, fmt.Errorf("hash strategy: %w", err)
	}

	result := &contracts.ScanResult{
		RunID:       s.newID(),
		StartedAt:   s.now().UTC(),
		Profile:     profile.Name,
		ProfileHash: profileHash,
	}

	s.logger.WithFields(map[string]interface{}{
		"run_id":  result.RunID,
		"profile": profile.Name,
	}).Info("Starting scan")

	// 1. Snapshot
	items, err := s.provider.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}

	// 2. Forecast against the previous batch; a batch already seen adds no point
	prev, stored := s.previousSnapshots(ctx, items)
	if len(prev) > 0 && !sameBatch(prev, items) {
		s.forecaster.Update(forecast.BuildAggregate(prev, items, result.StartedAt))
	}
	result.Risk = s.forecaster.Current()

	// 3. Score
	scored, err := s.engine.ScoreItems(items, profile, result.Risk.Value)
	if err != nil {
		return nil, fmt.Errorf("score: %w", err)
	}
	result.TopPicks = scoring.Pool(scored, cfg.Scan.TopPicks)

	// 4. Combinations; a pool that cannot be searched leaves the scan without combinations
	combos, err := s.generator.Find(scoring.Pool(scored, cfg.PoolSize()), cfg.Combinations)
	switch {
	case err == nil:
		result.Combinations = combos
	case errors.Is(err, contracts.ErrEmptyInput), errors.Is(err, contracts.ErrPoolTooLarge):
		s.logger.WithFields(map[string]interface{}{
			"run_id": result.RunID,
			"error":  err.Error(),
		}).Warn("Combination search skipped")
		result.Combinations = []contracts.TradeCombination{}
	default:
		return nil, fmt.Errorf("combinations: %w", err)
	}

	result.Metrics = BuildMetrics(items, result.Risk, string(s.forecaster.State()))

	// 5. Remember this batch for the next diff
	s.previous = items
	if s.recorder != nil && !stored {
		if err := s.recorder.SaveSnapshots(ctx, items); err != nil {
			s.logger.WithError(err).Warn("Failed to save snapshots")
		}
	}

	// 6. Alerts
	if s.notifier != nil {
		sent, err := s.notifier.Notify(ctx, result)
		if err != nil {
			s.logger.WithError(err).Warn("Alert delivery failed")
		}
		result.Alerts = sent
	}

	result.FinishedAt = s.now().UTC()
	s.setLatest(result)

	if summary, ok := s.notifier.(contracts.SummaryNotifier); ok {
		if err := summary.Summary(ctx, result); err != nil {
			s.logger.WithError(err).Warn("Scan summary delivery failed")
		}
	}

	// 7. Publish
	for _, p := range s.publishers {
		if err := p.Publish(ctx, result); err != nil {
			s.logger.WithError(err).Warn("Failed to publish scan")
		}
	}

	s.logger.WithFields(map[string]interface{}{
		"run_id":       result.RunID,
		"items":        len(items),
		"combinations": len(result.Combinations),
		"alerts":       result.Alerts,
		"risk":         result.Risk.Value,
		"duration":     result.Duration().Seconds(),
	}).Info("Scan completed")

	return result, nil
}

// previousSnapshots prefers the recorder and falls back to the last in-process batch.
// stored reports that the recorder already holds items, as when it is also the provider.
func (s *Scanner) previousSnapshots(ctx context.Context, items []contracts.ItemSnapshot) (prev []contracts.ItemSnapshot, stored bool) {
	if s.recorder == nil {
		return s.previous, false
	}
	prev, err := s.recorder.PreviousSnapshots(ctx)
	if err != nil {
		s.logger.WithError(err).Warn("Failed to load previous snapshots")
		return s.previous, false
	}
	if sameBatch(prev, items) {
		return s.previous, true
	}
	if len(prev) == 0 {
		return s.previous, false
	}
	return prev, false
}

// sameBatch reports whether two sets carry the same non-zero batch time.
// Times compare at microsecond precision, the resolution Postgres keeps.
func sameBatch(a, b []contracts.ItemSnapshot) bool {
	if len(a) == 0 || len(b) == 0 || a[0].ScannedAt.IsZero() {
		return false
	}
	return a[0].ScannedAt.Truncate(time.Microsecond).Equal(b[0].ScannedAt.Truncate(time.Microsecond))
}

// UpdateForecast feeds one external aggregate point to the shared forecaster
func (s *Scanner) UpdateForecast(p contracts.AggregatePoint) (contracts.RiskIndex, forecast.State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	risk := s.forecaster.Update(p)
	return risk, s.forecaster.State()
}

// Risk returns the current risk index and forecaster state
func (s *Scanner) Risk() (contracts.RiskIndex, forecast.State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.forecaster.Current(), s.forecaster.State()
}

// Latest returns the most recent completed scan, or nil before the first one
func (s *Scanner) Latest() *contracts.ScanResult {
	s.latestMu.RLock()
	defer s.latestMu.RUnlock()
	return s.latest
}

// Seed installs a scan loaded from a cache or database as the latest result
func (s *Scanner) Seed(result *contracts.ScanResult) {
	if result == nil {
		return
	}
	s.setLatest(result)
}

func (s *Scanner) setLatest(result *contracts.ScanResult) {
	s.latestMu.Lock()
	defer s.latestMu.Unlock()
	s.latest = result
}
