package strategyconfig

import (
	"time"

	"github.com/wonny/limitrade/internal/combination"
	"github.com/wonny/limitrade/internal/contracts"
	"github.com/wonny/limitrade/internal/forecast"
)

// Config is the strategy file: active profile, search parameters, forecaster and alert settings
// SSOT: every tunable that changes what a scan produces lives here
type Config struct {
	Meta         Meta               `yaml:"meta" json:"meta"`
	Profile      ProfileConfig      `yaml:"profile" json:"profile"`
	Combinations combination.Params `yaml:"combinations" json:"combinations"`
	Forecast     forecast.Options   `yaml:"forecast" json:"forecast"`
	Alerts       Alerts             `yaml:"alerts" json:"alerts"`
	Scan         Scan               `yaml:"scan" json:"scan"`
}

// Meta identifies the strategy file
type Meta struct {
	StrategyID  string `yaml:"strategy_id" json:"strategy_id"`
	Description string `yaml:"description" json:"description"`
}

// ProfileConfig selects a canonical mode and optionally overrides its weights
type ProfileConfig struct {
	Mode    string          `yaml:"mode" json:"mode"`
	Name    string          `yaml:"name,omitempty" json:"name,omitempty"`
	Weights WeightOverrides `yaml:"weights,omitempty" json:"weights,omitempty"`
}

// Alerts decides which combinations reach the delivery gateway
type Alerts struct {
	Enabled       bool    `yaml:"enabled" json:"enabled"`
	MinGain       int64   `yaml:"min_gain" json:"min_gain"`
	MinConfidence float64 `yaml:"min_confidence" json:"min_confidence"`
	MaxRisk       string  `yaml:"max_risk" json:"max_risk"` // highest risk label still alerted
	MaxPerScan    int     `yaml:"max_per_scan" json:"max_per_scan"`
}

// Scan shapes one pipeline pass
type Scan struct {
	TopPicks int `yaml:"top_picks" json:"top_picks"`
	// Pool is how many top-ranked items feed the combination search; 0 uses combinations.pool_ceiling
	Pool    int           `yaml:"pool" json:"pool"`
	Timeout time.Duration `yaml:"timeout" json:"timeout"`
}

// Default returns the configuration used when no strategy file is given
func Default() *Config {
	return &Config{
		Meta: Meta{
			StrategyID:  "default",
			Description: "balanced sniper profile",
		},
		Profile:      ProfileConfig{Mode: string(ModeSniper)},
		Combinations: combination.DefaultParams(),
		Forecast:     forecast.DefaultOptions(),
		Alerts: Alerts{
			Enabled:       true,
			MinGain:       3500,
			MinConfidence: 0.9,
			MaxRisk:       contracts.RiskHigh,
			MaxPerScan:    5,
		},
		Scan: Scan{
			TopPicks: 10,
			Timeout:  2 * time.Minute,
		},
	}
}

// ResolveProfile builds the active profile from mode and overrides
func (c *Config) ResolveProfile() (contracts.StrategyProfile, error) {
	mode, err := ParseMode(c.Profile.Mode)
	if err != nil {
		return contracts.StrategyProfile{}, err
	}
	return Custom(mode, c.Profile.Name, c.Profile.Weights)
}

// PoolSize is how many ranked items the combination search receives
func (c *Config) PoolSize() int {
	if c.Scan.Pool > 0 && c.Scan.Pool <= c.Combinations.PoolCeiling {
		return c.Scan.Pool
	}
	return c.Combinations.PoolCeiling
}

// Clone returns a deep copy
func (c *Config) Clone() *Config {
	out := *c
	out.Forecast.Horizons = append([]int(nil), c.Forecast.Horizons...)
	out.Profile.Weights = cloneOverrides(c.Profile.Weights)
	return &out
}

func cloneOverrides(o WeightOverrides) WeightOverrides {
	dup := func(p *float64) *float64 {
		if p == nil {
			return nil
		}
		v := *p
		return &v
	}
	return WeightOverrides{
		ROI:        dup(o.ROI),
		Demand:     dup(o.Demand),
		Volume:     dup(o.Volume),
		Volatility: dup(o.Volatility),
		Engagement: dup(o.Engagement),
		Trait:      dup(o.Trait),
	}
}

// DecisionSnapshot records which configuration produced a scan, for reproducibility
type DecisionSnapshot struct {
	ConfigHash string    `json:"config_hash"`
	ConfigYAML string    `json:"config_yaml"`
	StrategyID string    `json:"strategy_id"`
	Profile    string    `json:"profile"`
	CreatedAt  time.Time `json:"created_at"`
}
