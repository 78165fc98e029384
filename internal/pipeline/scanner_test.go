package pipeline

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/limitrade/internal/contracts"
	"github.com/wonny/limitrade/internal/forecast"
	"github.com/wonny/limitrade/internal/strategyconfig"
	"github.com/wonny/limitrade/pkg/config"
	"github.com/wonny/limitrade/pkg/logger"
	"github.com/wonny/limitrade/pkg/redis"
)

// steppingProvider returns the base set with every value scaled by the step factor
type steppingProvider struct {
	base  []contracts.ItemSnapshot
	steps []float64
	calls int
	err   error
}

func (p *steppingProvider) Snapshot(ctx context.Context) ([]contracts.ItemSnapshot, error) {
	if p.err != nil {
		return nil, p.err
	}
	factor := 1.0
	if p.calls < len(p.steps) {
		factor = p.steps[p.calls]
	}
	p.calls++
	out := make([]contracts.ItemSnapshot, len(p.base))
	for i, s := range p.base {
		s.Value = int64(float64(s.Value) * factor)
		out[i] = s
	}
	return out, nil
}

type recordingPublisher struct {
	results []*contracts.ScanResult
	err     error
}

func (r *recordingPublisher) Publish(ctx context.Context, result *contracts.ScanResult) error {
	r.results = append(r.results, result)
	return r.err
}

type fixedNotifier struct {
	sent int
	err  error
}

func (n fixedNotifier) Notify(ctx context.Context, result *contracts.ScanResult) (int, error) {
	return n.sent, n.err
}

type memoryRecorder struct {
	saved [][]contracts.ItemSnapshot
}

func (m *memoryRecorder) SaveSnapshots(ctx context.Context, items []contracts.ItemSnapshot) error {
	m.saved = append(m.saved, items)
	return nil
}

func (m *memoryRecorder) PreviousSnapshots(ctx context.Context) ([]contracts.ItemSnapshot, error) {
	if len(m.saved) == 0 {
		return nil, nil
	}
	return m.saved[len(m.saved)-1], nil
}

// storedMarket is a provider and recorder over one batch table keyed by batch time
type storedMarket struct {
	batches [][]contracts.ItemSnapshot
	saves   int
}

func (m *storedMarket) push(at time.Time, factor float64) {
	items := market()
	for i := range items {
		items[i].Value = int64(float64(items[i].Value) * factor)
		items[i].ScannedAt = at
	}
	m.batches = append(m.batches, items)
}

func (m *storedMarket) Snapshot(ctx context.Context) ([]contracts.ItemSnapshot, error) {
	return m.PreviousSnapshots(ctx)
}

func (m *storedMarket) PreviousSnapshots(ctx context.Context) ([]contracts.ItemSnapshot, error) {
	if len(m.batches) == 0 {
		return nil, nil
	}
	return m.batches[len(m.batches)-1], nil
}

func (m *storedMarket) SaveSnapshots(ctx context.Context, items []contracts.ItemSnapshot) error {
	for _, b := range m.batches {
		if b[0].ScannedAt.Equal(items[0].ScannedAt) {
			return errors.New("duplicate key value violates unique constraint")
		}
	}
	m.saves++
	m.batches = append(m.batches, items)
	return nil
}

type summaryNotifier struct {
	fixedNotifier
	summaries []string
}

func (n *summaryNotifier) Summary(ctx context.Context, result *contracts.ScanResult) error {
	n.summaries = append(n.summaries, result.RunID)
	return nil
}

func market() []contracts.ItemSnapshot {
	items := make([]contracts.ItemSnapshot, 0, 8)
	for i := 1; i <= 8; i++ {
		items = append(items, contracts.ItemSnapshot{
			ID:     int64(i),
			Name:   fmt.Sprintf("item-%d", i),
			RAP:    int64(900 * i),
			Value:  int64(1000 * i),
			Demand: contracts.DemandTier(i % 5),
			Trend:  contracts.TrendUp,
			Volume: int64(100 * i),
		})
	}
	return items
}

func newStore(t *testing.T, mutate func(c *strategyconfig.Config)) *strategyconfig.Store {
	t.Helper()
	cfg := strategyconfig.Default()
	cfg.Combinations.MinScore = 0
	cfg.Combinations.MinBalance = 0.5
	cfg.Forecast.MinSamples = 2
	if mutate != nil {
		mutate(cfg)
	}
	store, err := strategyconfig.NewStore(cfg)
	require.NoError(t, err)
	return store
}

func TestScanner_Scan(t *testing.T) {
	provider := &steppingProvider{base: market(), steps: []float64{1, 1.05, 1.1}}
	pub := &recordingPublisher{}
	rec := &memoryRecorder{}

	ids := 0
	s := NewScanner(provider, newStore(t, nil), logger.NewNop(),
		WithPublishers(pub),
		WithRecorder(rec),
		WithNotifier(fixedNotifier{sent: 2}),
	)
	s.newID = func() string { ids++; return fmt.Sprintf("run-%d", ids) }

	assert.Nil(t, s.Latest())

	first, err := s.Scan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "run-1", first.RunID)
	assert.Equal(t, "sniper", first.Profile)
	assert.Len(t, first.ProfileHash, 64)
	assert.Equal(t, contracts.NeutralRisk, first.Risk.Value, "no previous batch, no forecast update")
	assert.Len(t, first.TopPicks, 8)
	assert.Equal(t, 1, first.TopPicks[0].Rank)
	assert.NotEmpty(t, first.Combinations)
	assert.Equal(t, 2, first.Alerts)
	assert.Equal(t, 8, first.Metrics.TotalItems)
	assert.Equal(t, string(forecast.StateEmpty), first.Metrics.ForecastMode)
	assert.False(t, first.FinishedAt.Before(first.StartedAt))

	_, err = s.Scan(context.Background())
	require.NoError(t, err)
	third, err := s.Scan(context.Background())
	require.NoError(t, err)

	assert.Equal(t, string(forecast.StateReady), third.Metrics.ForecastMode)
	assert.Same(t, third, s.Latest())
	assert.Len(t, pub.results, 3)
	assert.Len(t, rec.saved, 3)

	risk, state := s.Risk()
	assert.Equal(t, forecast.StateReady, state)
	assert.Equal(t, third.Risk.Value, risk.Value)
}

func TestScanner_RecorderAsProvider(t *testing.T) {
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	db := &storedMarket{}
	db.push(start, 1)

	s := NewScanner(db, newStore(t, nil), logger.NewNop(), WithRecorder(db))

	for i := 0; i < 2; i++ {
		_, err := s.Scan(context.Background())
		require.NoError(t, err)
	}
	assert.Equal(t, 0, s.forecaster.Len(), "an unchanged batch adds no forecast point")
	assert.Equal(t, 0, db.saves, "a batch read from the recorder is not written back")

	db.push(start.Add(time.Hour), 1.1)
	_, err := s.Scan(context.Background())
	require.NoError(t, err)

	history := s.forecaster.History()
	require.Len(t, history, 1)
	assert.InDelta(t, 0.1, history[0].MeanValueChange, 0.01)
	assert.Equal(t, 0, db.saves)
}

func TestSameBatch(t *testing.T) {
	at := time.Date(2026, 3, 1, 0, 0, 0, 123456789, time.UTC)
	batch := func(ts time.Time) []contracts.ItemSnapshot {
		return []contracts.ItemSnapshot{{ID: 1, ScannedAt: ts}}
	}

	assert.True(t, sameBatch(batch(at), batch(at.Truncate(time.Microsecond))))
	assert.False(t, sameBatch(batch(at), batch(at.Add(time.Second))))
	assert.False(t, sameBatch(batch(time.Time{}), batch(time.Time{})))
	assert.False(t, sameBatch(nil, batch(at)))
}

func TestScanner_SummaryAfterEveryScan(t *testing.T) {
	n := &summaryNotifier{fixedNotifier: fixedNotifier{sent: 1}}
	s := NewScanner(&steppingProvider{base: market()}, newStore(t, nil), logger.NewNop(), WithNotifier(n))

	first, err := s.Scan(context.Background())
	require.NoError(t, err)
	second, err := s.Scan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{first.RunID, second.RunID}, n.summaries)
}

func TestScanner_SinkFailuresDoNotFailScan(t *testing.T) {
	provider := &steppingProvider{base: market()}
	s := NewScanner(provider, newStore(t, nil), logger.NewNop(),
		WithPublishers(&recordingPublisher{err: errors.New("down")}),
		WithNotifier(fixedNotifier{err: errors.New("webhook down")}),
	)

	result, err := s.Scan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, result.Alerts)
	assert.NotNil(t, s.Latest())
}

func TestScanner_ProviderFailure(t *testing.T) {
	provider := &steppingProvider{err: errors.New("offline")}
	s := NewScanner(provider, newStore(t, nil), logger.NewNop())

	_, err := s.Scan(context.Background())
	assert.Error(t, err)
	assert.Nil(t, s.Latest())
}

func TestScanner_EmptyMarket(t *testing.T) {
	s := NewScanner(&steppingProvider{}, newStore(t, nil), logger.NewNop())
	_, err := s.Scan(context.Background())
	assert.True(t, errors.Is(err, contracts.ErrEmptyInput))
}

func TestScanner_SmallPoolSkipsCombinations(t *testing.T) {
	provider := &steppingProvider{base: market()[:1]}
	s := NewScanner(provider, newStore(t, nil), logger.NewNop())

	result, err := s.Scan(context.Background())
	require.NoError(t, err)
	assert.Empty(t, result.Combinations)
	assert.Len(t, result.TopPicks, 1)
}

func TestScanner_ProfileSwitchAppliesToNextScan(t *testing.T) {
	store := newStore(t, nil)
	s := NewScanner(&steppingProvider{base: market()}, store, logger.NewNop())

	before, err := s.Scan(context.Background())
	require.NoError(t, err)

	_, err = store.SetProfile(strategyconfig.ProfileConfig{Mode: "conservative"})
	require.NoError(t, err)

	after, err := s.Scan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "conservative", after.Profile)
	assert.NotEqual(t, before.ProfileHash, after.ProfileHash)
}

func TestScanner_UpdateForecast(t *testing.T) {
	s := NewScanner(&steppingProvider{base: market()}, newStore(t, nil), logger.NewNop())

	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	var state forecast.State
	for i := 0; i < 3; i++ {
		_, state = s.UpdateForecast(contracts.AggregatePoint{
			Timestamp:       start.Add(time.Duration(i) * time.Hour),
			MeanValueChange: 0.01 * float64(i),
		})
	}
	assert.Equal(t, forecast.StateReady, state)
}

func TestCachePublisher_DisabledRedis(t *testing.T) {
	client, err := redis.New(context.Background(), config.RedisConfig{})
	require.NoError(t, err)
	p := NewCachePublisher(redis.NewCache(client, "test"), "default", 0)

	require.NoError(t, p.Publish(context.Background(), &contracts.ScanResult{RunID: "r"}))
	latest, err := p.Latest(context.Background())
	assert.NoError(t, err)
	assert.Nil(t, latest)
}
