package forecast

import (
	"math"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/limitrade/internal/contracts"
)

var t0 = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func point(i int, change float64) contracts.AggregatePoint {
	return contracts.AggregatePoint{
		Timestamp:       t0.Add(time.Duration(i) * 5 * time.Minute),
		MeanValueChange: change,
		MeanVolume:      100,
		UpCount:         3,
		DownCount:       2,
	}
}

func feed(f *Forecaster, series []float64) contracts.RiskIndex {
	var last contracts.RiskIndex
	for i, v := range series {
		last = f.Update(point(i, v))
	}
	return last
}

func firstMomentum(r contracts.RiskIndex) (contracts.ForecastWindow, bool) {
	for _, w := range r.Windows {
		if w.Source == sourceMomentum {
			return w, true
		}
	}
	return contracts.ForecastWindow{}, false
}

func TestForecaster_StateMachine(t *testing.T) {
	f := New(DefaultOptions(), zerolog.Nop())
	assert.Equal(t, StateEmpty, f.State())
	assert.Equal(t, contracts.NeutralRisk, f.Current().Value)

	for i := 0; i < 4; i++ {
		r := f.Update(point(i, 0.01))
		assert.Equal(t, StateWarming, f.State())
		assert.Equal(t, contracts.NeutralRisk, r.Value)
		assert.Empty(t, r.Windows)
	}

	r := f.Update(point(4, 0.02))
	assert.Equal(t, StateReady, f.State())
	assert.NotEmpty(t, r.Windows)

	f.Reset()
	assert.Equal(t, StateEmpty, f.State())
	assert.Zero(t, f.Len())

	f.Update(point(0, 0.01))
	assert.Equal(t, StateWarming, f.State())
}

func TestForecaster_IncreasingLessRiskyThanAlternating(t *testing.T) {
	increasing := []float64{0.005, 0.015, 0.025, 0.035, 0.045, 0.055}
	alternating := []float64{-0.02, 0.08, -0.02, 0.08, -0.02, 0.08}

	a := feed(New(DefaultOptions(), zerolog.Nop()), increasing)
	b := feed(New(DefaultOptions(), zerolog.Nop()), alternating)

	assert.Less(t, a.Value, b.Value)
	assert.GreaterOrEqual(t, a.Value, 0.0)
	assert.LessOrEqual(t, b.Value, 1.0)
}

func TestForecaster_BoundedOutputs(t *testing.T) {
	f := New(Options{Capacity: 8, MinSamples: 3}, zerolog.Nop())
	inputs := []float64{5, -7, math.NaN(), 0.3, math.Inf(1), -0.9, 0, 0.1, 0.2, math.Inf(-1)}

	for i, v := range inputs {
		p := point(i, v)
		p.MeanVolume = -50
		p.UpCount = -3
		r := f.Update(p)

		assert.GreaterOrEqual(t, r.Value, 0.0)
		assert.LessOrEqual(t, r.Value, 1.0)
		for _, w := range r.Windows {
			assert.GreaterOrEqual(t, w.Confidence, 0.0)
			assert.LessOrEqual(t, w.Confidence, 1.0)
			assert.Greater(t, w.Offset, time.Duration(0))
		}
	}

	for _, p := range f.History() {
		assert.GreaterOrEqual(t, p.MeanValueChange, -1.0)
		assert.LessOrEqual(t, p.MeanValueChange, 1.0)
		assert.GreaterOrEqual(t, p.MeanVolume, 0.0)
		assert.GreaterOrEqual(t, p.UpCount, 0)
	}
}

func TestForecaster_EvictsOldest(t *testing.T) {
	f := New(Options{Capacity: 5, MinSamples: 2}, zerolog.Nop())
	for i := 0; i < 12; i++ {
		f.Update(point(i, float64(i)/100))
	}

	hist := f.History()
	require.Len(t, hist, 5)
	assert.InDelta(t, 0.07, hist[0].MeanValueChange, 1e-12)
	assert.InDelta(t, 0.11, hist[4].MeanValueChange, 1e-12)
}

func TestForecaster_WindowOffsetsFollowScanInterval(t *testing.T) {
	f := New(DefaultOptions(), zerolog.Nop())
	r := feed(f, []float64{0.01, 0.012, 0.014, 0.016, 0.018, 0.02})

	var momentum []contracts.ForecastWindow
	for _, w := range r.Windows {
		if w.Source == sourceMomentum {
			momentum = append(momentum, w)
		}
	}
	require.Len(t, momentum, 3)
	assert.Equal(t, 5*time.Minute, momentum[0].Offset)
	assert.Equal(t, 15*time.Minute, momentum[1].Offset)
	assert.Equal(t, 30*time.Minute, momentum[2].Offset)
}

func TestForecaster_RisingTrendMoreFavorable(t *testing.T) {
	rising := feed(New(DefaultOptions(), zerolog.Nop()), []float64{0.0, 0.01, 0.02, 0.03, 0.04, 0.05})
	falling := feed(New(DefaultOptions(), zerolog.Nop()), []float64{0.05, 0.04, 0.03, 0.02, 0.01, 0.0})

	r, ok := firstMomentum(rising)
	require.True(t, ok)
	f, ok := firstMomentum(falling)
	require.True(t, ok)
	assert.Greater(t, r.Confidence, f.Confidence)
}

func TestCyclicWindow_DetectsPeriod(t *testing.T) {
	levels := []float64{0.0, 0.05, 0.0, -0.05, 0.0, 0.05, 0.0, -0.05, 0.0, 0.05, 0.0, -0.05}

	w, ok := cyclicWindow(levels, 0.5, 0.2, time.Hour)
	require.True(t, ok)
	assert.Equal(t, sourceCyclic, w.Source)
	// period 4; last cycle peaks at index 9, next peak at 13, two cycles past index 11
	assert.Equal(t, 2*time.Hour, w.Offset)
	assert.Greater(t, w.Confidence, 0.5)

	_, ok = cyclicWindow([]float64{0.01, 0.01, 0.01, 0.01, 0.01, 0.01}, 0.5, 0.2, time.Hour)
	assert.False(t, ok)
}

func TestRisk_FlatSeriesIsCalm(t *testing.T) {
	assert.Zero(t, Risk([]float64{0.02, 0.02, 0.02, 0.02}))
	assert.Equal(t, contracts.NeutralRisk, Risk([]float64{0.1}))
}

func TestRing(t *testing.T) {
	r := NewRing(3)
	assert.Equal(t, 3, r.Cap())
	assert.False(t, r.Push(point(0, 0.1)))
	assert.False(t, r.Push(point(1, 0.2)))
	assert.False(t, r.Push(point(2, 0.3)))
	assert.True(t, r.Push(point(3, 0.4)))

	assert.Equal(t, 3, r.Len())
	assert.InDelta(t, 0.2, r.At(0).MeanValueChange, 1e-12)
	assert.InDelta(t, 0.4, r.At(2).MeanValueChange, 1e-12)

	r.Reset()
	assert.Zero(t, r.Len())
	assert.Empty(t, r.Points())
}

func TestBuildAggregate(t *testing.T) {
	prev := []contracts.ItemSnapshot{
		{ID: 1, Value: 1000},
		{ID: 2, RAP: 200},
		{ID: 3, Value: 500},
	}
	curr := []contracts.ItemSnapshot{
		{ID: 1, Value: 1100, Volume: 10, Trend: contracts.TrendUp},
		{ID: 2, RAP: 180, Volume: 30, Trend: contracts.TrendDown},
		{ID: 4, Value: 50, Volume: 20, Trend: contracts.TrendUp},
	}

	p := BuildAggregate(prev, curr, t0)
	assert.Equal(t, t0, p.Timestamp)
	assert.InDelta(t, (0.1-0.1)/2, p.MeanValueChange, 1e-12)
	assert.InDelta(t, 20.0, p.MeanVolume, 1e-12)
	assert.Equal(t, 2, p.UpCount)
	assert.Equal(t, 1, p.DownCount)

	empty := BuildAggregate(nil, nil, t0)
	assert.Zero(t, empty.MeanValueChange)
	assert.Zero(t, empty.MeanVolume)
}
