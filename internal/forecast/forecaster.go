package forecast

import (
	"math"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/stat"

	"github.com/wonny/limitrade/internal/contracts"
)

// State is the forecaster lifecycle stage
type State string

const (
	StateEmpty   State = "empty"   // no history
	StateWarming State = "warming" // below MinSamples: neutral risk, no windows
	StateReady   State = "ready"
)

const (
	// riskScale maps combined dispersion onto [0,1]: 1 - exp(-d/riskScale)
	riskScale = 0.05
	// trendScale is the projected change at which momentum confidence saturates
	trendScale = 0.02

	// flatSteps is the step spread below which a series has no cycle to find
	flatSteps = 1e-9

	sourceMomentum = "momentum"
	sourceCyclic   = "cyclic"
)

// Options configures the forecaster
type Options struct {
	Capacity            int           `yaml:"capacity" json:"capacity"`
	MinSamples          int           `yaml:"min_samples" json:"min_samples"`
	Horizons            []int         `yaml:"horizons" json:"horizons"` // in scan cycles
	MinCycleCorrelation float64       `yaml:"min_cycle_correlation" json:"min_cycle_correlation"`
	DefaultInterval     time.Duration `yaml:"default_interval" json:"default_interval"`
}

// DefaultOptions returns 48 cycles of history, ready after 5
func DefaultOptions() Options {
	return Options{
		Capacity:            48,
		MinSamples:          5,
		Horizons:            []int{1, 3, 6},
		MinCycleCorrelation: 0.5,
		DefaultInterval:     time.Hour,
	}
}

func (o Options) normalized() Options {
	d := DefaultOptions()
	if o.MinSamples < 2 {
		o.MinSamples = d.MinSamples
	}
	if o.Capacity < o.MinSamples {
		o.Capacity = max(d.Capacity, o.MinSamples)
	}
	if len(o.Horizons) == 0 {
		o.Horizons = d.Horizons
	}
	if o.MinCycleCorrelation <= 0 || o.MinCycleCorrelation > 1 {
		o.MinCycleCorrelation = d.MinCycleCorrelation
	}
	if o.DefaultInterval <= 0 {
		o.DefaultInterval = d.DefaultInterval
	}
	return o
}

// Forecaster keeps a rolling history of aggregate points and derives the
// risk index and favorable trade windows from it.
// It does no locking; callers sharing one instance must serialize Update and Reset.
type Forecaster struct {
	opts  Options
	ring  *Ring
	state State
	last  contracts.RiskIndex
	log   zerolog.Logger
}

// New creates a forecaster in the Empty state
func New(opts Options, log zerolog.Logger) *Forecaster {
	opts = opts.normalized()
	return &Forecaster{
		opts:  opts,
		ring:  NewRing(opts.Capacity),
		state: StateEmpty,
		last:  contracts.Neutral(),
		log:   log.With().Str("component", "forecast").Logger(),
	}
}

// Update ingests one aggregate point and recomputes the risk index from scratch.
// Out-of-range fields are clamped, never rejected.
func (f *Forecaster) Update(p contracts.AggregatePoint) contracts.RiskIndex {
	evicted := f.ring.Push(p.Clamped())

	if f.ring.Len() < f.opts.MinSamples {
		f.state = StateWarming
		f.last = contracts.Neutral()
	} else {
		f.state = StateReady
		f.last = f.compute()
	}

	f.log.Debug().
		Str("state", string(f.state)).
		Int("samples", f.ring.Len()).
		Bool("evicted", evicted).
		Float64("risk", f.last.Value).
		Int("windows", len(f.last.Windows)).
		Msg("forecast updated")

	return f.Current()
}

// Current returns a copy of the latest risk index
func (f *Forecaster) Current() contracts.RiskIndex {
	out := contracts.RiskIndex{Value: f.last.Value, Windows: make([]contracts.ForecastWindow, len(f.last.Windows))}
	copy(out.Windows, f.last.Windows)
	return out
}

// State returns the lifecycle stage
func (f *Forecaster) State() State { return f.state }

// Len returns the number of points held
func (f *Forecaster) Len() int { return f.ring.Len() }

// History copies the held points, oldest first
func (f *Forecaster) History() []contracts.AggregatePoint { return f.ring.Points() }

// Options returns the effective options
func (f *Forecaster) Options() Options { return f.opts }

// Reset clears history and returns to Empty
func (f *Forecaster) Reset() {
	f.ring.Reset()
	f.state = StateEmpty
	f.last = contracts.Neutral()
	f.log.Info().Msg("forecast history reset")
}

func (f *Forecaster) compute() contracts.RiskIndex {
	points := f.ring.Points()
	levels := make([]float64, len(points))
	for i, p := range points {
		levels[i] = p.MeanValueChange
	}

	risk := Risk(levels)
	interval := meanInterval(points, f.opts.DefaultInterval)

	windows := momentumWindows(levels, points, f.opts.Horizons, risk, interval)
	if w, ok := cyclicWindow(levels, f.opts.MinCycleCorrelation, risk, interval); ok {
		windows = append(windows, w)
	}

	sort.Slice(windows, func(i, j int) bool {
		if windows[i].Offset != windows[j].Offset {
			return windows[i].Offset < windows[j].Offset
		}
		return windows[i].Source < windows[j].Source
	})

	return contracts.RiskIndex{Value: risk, Windows: windows}
}

// Risk maps the dispersion of a level series onto [0,1].
// Step-to-step swings count fully; spread of the levels themselves counts half.
func Risk(levels []float64) float64 {
	if len(levels) < 2 {
		return contracts.NeutralRisk
	}
	diffs := make([]float64, len(levels)-1)
	for i := 1; i < len(levels); i++ {
		diffs[i-1] = levels[i] - levels[i-1]
	}

	dispersion := 0.5 * stat.StdDev(levels, nil)
	if len(diffs) >= 2 {
		dispersion += stat.StdDev(diffs, nil)
	} else {
		dispersion += math.Abs(diffs[0])
	}
	if math.IsNaN(dispersion) {
		return contracts.NeutralRisk
	}
	return clamp01(1 - math.Exp(-dispersion/riskScale))
}

// momentumWindows projects a recency-weighted linear trend forward to each horizon
func momentumWindows(levels []float64, points []contracts.AggregatePoint, horizons []int, risk float64, interval time.Duration) []contracts.ForecastWindow {
	n := len(levels)
	xs := make([]float64, n)
	weights := make([]float64, n)
	for i := range levels {
		xs[i] = float64(i)
		weights[i] = float64(i + 1)
	}
	alpha, beta := stat.LinearRegression(xs, levels, weights, false)
	if math.IsNaN(alpha) || math.IsNaN(beta) {
		return []contracts.ForecastWindow{}
	}

	// market breadth nudges confidence the same way a rising trend does
	breadth := points[n-1].Breadth()

	windows := make([]contracts.ForecastWindow, 0, len(horizons))
	for _, h := range horizons {
		if h < 1 {
			continue
		}
		projected := alpha + beta*float64(n-1+h)
		favor := 0.5 + 0.4*math.Tanh(projected/trendScale) + 0.1*breadth
		decay := 1 / (1 + 0.1*float64(h))
		windows = append(windows, contracts.ForecastWindow{
			Offset:     time.Duration(h) * interval,
			Confidence: clamp01(favor * (1 - 0.5*risk) * decay),
			Source:     sourceMomentum,
		})
	}
	return windows
}

// cyclicWindow finds the strongest repeating lag in the step series and points
// at the next recurrence of the best level inside the last cycle.
// Working on steps keeps a plain trend from reading as a cycle.
func cyclicWindow(levels []float64, minCorr, risk float64, interval time.Duration) (contracts.ForecastWindow, bool) {
	n := len(levels)
	if n < 3 {
		return contracts.ForecastWindow{}, false
	}
	steps := make([]float64, n-1)
	for i := 1; i < n; i++ {
		steps[i-1] = levels[i] - levels[i-1]
	}

	// float noise on a plain trend would otherwise correlate at random
	if stat.StdDev(steps, nil) < flatSteps {
		return contracts.ForecastWindow{}, false
	}

	m := len(steps)
	bestLag, bestCorr := 0, minCorr
	for lag := 2; lag <= m/2 && m-lag >= 3; lag++ {
		c := stat.Correlation(steps[:m-lag], steps[lag:], nil)
		if math.IsNaN(c) {
			continue
		}
		if c >= bestCorr && (bestLag == 0 || c > bestCorr) {
			bestLag, bestCorr = lag, c
		}
	}
	if bestLag == 0 || bestLag >= n {
		return contracts.ForecastWindow{}, false
	}

	peak := n - bestLag
	for i := n - bestLag; i < n; i++ {
		if levels[i] > levels[peak] {
			peak = i
		}
	}
	ahead := peak + bestLag - (n - 1)

	return contracts.ForecastWindow{
		Offset:     time.Duration(ahead) * interval,
		Confidence: clamp01(bestCorr * (1 - 0.5*risk)),
		Source:     sourceCyclic,
	}, true
}

// meanInterval is the average gap between consecutive timestamps, or fallback
// when timestamps are missing or not increasing
func meanInterval(points []contracts.AggregatePoint, fallback time.Duration) time.Duration {
	if len(points) < 2 {
		return fallback
	}
	first, last := points[0].Timestamp, points[len(points)-1].Timestamp
	if first.IsZero() || !last.After(first) {
		return fallback
	}
	return last.Sub(first) / time.Duration(len(points)-1)
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
