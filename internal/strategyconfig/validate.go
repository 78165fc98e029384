package strategyconfig

import (
	"fmt"
	"math"

	"github.com/wonny/limitrade/internal/combination"
	"github.com/wonny/limitrade/internal/contracts"
)

// ValidationError aborts loading
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Warning flags a recommended-range violation (non-fatal)
type Warning struct {
	Code    string
	Message string
}

var riskOrder = map[string]int{
	contracts.RiskLow:      0,
	contracts.RiskMedium:   1,
	contracts.RiskHigh:     2,
	contracts.RiskVeryHigh: 3,
}

// RiskAllowed reports whether label is at or below ceiling in risk order
func RiskAllowed(label, ceiling string) bool {
	l, ok := riskOrder[label]
	if !ok {
		return false
	}
	return l <= riskOrder[ceiling]
}

// Validate checks all required constraints
func Validate(cfg *Config) error {
	// === Meta ===
	if cfg.Meta.StrategyID == "" {
		return ValidationError{"meta.strategy_id", "required"}
	}

	// === Profile ===
	if _, err := cfg.ResolveProfile(); err != nil {
		return ValidationError{"profile", err.Error()}
	}

	// === Combinations ===
	if err := cfg.Combinations.Validate(); err != nil {
		return ValidationError{"combinations", err.Error()}
	}
	if cfg.Combinations.PoolCeiling > 64 {
		return ValidationError{"combinations.pool_ceiling", "must be <= 64"}
	}
	if cfg.Combinations.MaxPartitions != 0 && cfg.Combinations.MaxPartitions < 1000 {
		return ValidationError{"combinations.max_partitions", "must be 0 (default) or >= 1000"}
	}

	// === Forecast ===
	f := cfg.Forecast
	if f.MinSamples < 2 {
		return ValidationError{"forecast.min_samples", "must be >= 2"}
	}
	if f.Capacity < f.MinSamples {
		return ValidationError{"forecast.capacity", fmt.Sprintf("must be >= min_samples=%d", f.MinSamples)}
	}
	if len(f.Horizons) == 0 {
		return ValidationError{"forecast.horizons", "must not be empty"}
	}
	for i, h := range f.Horizons {
		if h < 1 {
			return ValidationError{fmt.Sprintf("forecast.horizons[%d]", i), "must be >= 1"}
		}
	}
	if f.MinCycleCorrelation <= 0 || f.MinCycleCorrelation > 1 {
		return ValidationError{"forecast.min_cycle_correlation", "must be in (0, 1]"}
	}
	if f.DefaultInterval <= 0 {
		return ValidationError{"forecast.default_interval", "must be > 0"}
	}

	// === Alerts ===
	a := cfg.Alerts
	if a.MinGain < 0 {
		return ValidationError{"alerts.min_gain", "must be >= 0"}
	}
	if math.IsNaN(a.MinConfidence) || a.MinConfidence < 0 || a.MinConfidence > 1 {
		return ValidationError{"alerts.min_confidence", "must be in [0, 1]"}
	}
	if _, ok := riskOrder[a.MaxRisk]; !ok {
		return ValidationError{"alerts.max_risk", fmt.Sprintf("must be one of Low, Medium, High, Very High, got %q", a.MaxRisk)}
	}
	if a.MaxPerScan < 0 {
		return ValidationError{"alerts.max_per_scan", "must be >= 0"}
	}

	// === Scan ===
	if cfg.Scan.TopPicks < 1 {
		return ValidationError{"scan.top_picks", "must be >= 1"}
	}
	if cfg.Scan.Pool < 0 {
		return ValidationError{"scan.pool", "must be >= 0"}
	}
	if cfg.Scan.Timeout < 0 {
		return ValidationError{"scan.timeout", "must be >= 0"}
	}

	return nil
}

// Warn checks recommended constraints (non-fatal)
func Warn(cfg *Config) []Warning {
	var warnings []Warning

	p := cfg.Combinations
	if n := combination.PartitionCount(cfg.PoolSize(), p.MinSide, p.MaxSide); n > DefaultPartitionWarn {
		warnings = append(warnings, Warning{
			Code:    "LARGE_SEARCH",
			Message: fmt.Sprintf("pool of %d with max_side=%d enumerates %d partitions", cfg.PoolSize(), p.MaxSide, n),
		})
	}

	if p.MinBalance < 0.5 {
		warnings = append(warnings, Warning{
			Code:    "LOOSE_BALANCE",
			Message: "min_balance < 0.5: lopsided trades will be suggested",
		})
	}

	if cfg.Alerts.Enabled && cfg.Alerts.MinConfidence < 0.5 {
		warnings = append(warnings, Warning{
			Code:    "NOISY_ALERTS",
			Message: "alerts.min_confidence < 0.5: most combinations will alert",
		})
	}

	if cfg.Alerts.MaxRisk == contracts.RiskVeryHigh {
		warnings = append(warnings, Warning{
			Code:    "RISKY_ALERTS",
			Message: "alerts.max_risk allows Very High risk trades",
		})
	}

	return warnings
}

// DefaultPartitionWarn is the partition count above which a search is flagged as slow
const DefaultPartitionWarn uint64 = 500_000
