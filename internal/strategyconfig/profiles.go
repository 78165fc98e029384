package strategyconfig

import (
	"fmt"
	"sort"
	"strings"

	"github.com/wonny/limitrade/internal/contracts"
)

// Mode names a canonical strategy profile
type Mode string

const (
	ModeSniper       Mode = "sniper"
	ModeAggressive   Mode = "aggressive"
	ModeConservative Mode = "conservative"
	ModeMomentum     Mode = "momentum"
)

// canonical weight vectors. Modes differ only here; the engine has no mode branches.
// SSOT: strategy mode → weight vector
var canonical = map[Mode]contracts.Weights{
	// ROI + volatility
	ModeSniper: {ROI: 0.35, Demand: 0.10, Volume: 0.10, Volatility: 0.30, Engagement: 0.05, Trait: 0.10},
	// volume + demand
	ModeAggressive: {ROI: 0.10, Demand: 0.30, Volume: 0.35, Volatility: 0.05, Engagement: 0.15, Trait: 0.05},
	// demand + volume, with the heaviest volatility weight of any mode
	ModeConservative: {ROI: 0.05, Demand: 0.30, Volume: 0.20, Volatility: 0.35, Engagement: 0.00, Trait: 0.10},
	// ROI + engagement
	ModeMomentum: {ROI: 0.30, Demand: 0.10, Volume: 0.10, Volatility: 0.05, Engagement: 0.30, Trait: 0.15},
}

// Modes returns the canonical mode names in sorted order
func Modes() []Mode {
	modes := make([]Mode, 0, len(canonical))
	for m := range canonical {
		modes = append(modes, m)
	}
	sort.Slice(modes, func(i, j int) bool { return modes[i] < modes[j] })
	return modes
}

// ParseMode accepts a mode name case-insensitively
func ParseMode(s string) (Mode, error) {
	m := Mode(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := canonical[m]; !ok {
		return "", &contracts.FieldError{
			Field:   "profile.mode",
			Message: fmt.Sprintf("unknown mode %q", s),
			Err:     contracts.ErrInvalidProfile,
		}
	}
	return m, nil
}

// Canonical returns the profile for a mode
func Canonical(m Mode) (contracts.StrategyProfile, error) {
	w, ok := canonical[m]
	if !ok {
		return contracts.StrategyProfile{}, &contracts.FieldError{
			Field:   "profile.mode",
			Message: fmt.Sprintf("unknown mode %q", m),
			Err:     contracts.ErrInvalidProfile,
		}
	}
	return contracts.StrategyProfile{Name: string(m), Weights: w}, nil
}

// WeightOverrides replaces any subset of a base profile's weights
type WeightOverrides struct {
	ROI        *float64 `yaml:"roi,omitempty" json:"roi,omitempty"`
	Demand     *float64 `yaml:"demand,omitempty" json:"demand,omitempty"`
	Volume     *float64 `yaml:"volume,omitempty" json:"volume,omitempty"`
	Volatility *float64 `yaml:"volatility,omitempty" json:"volatility,omitempty"`
	Engagement *float64 `yaml:"engagement,omitempty" json:"engagement,omitempty"`
	Trait      *float64 `yaml:"trait,omitempty" json:"trait,omitempty"`
}

// IsEmpty reports whether no weight is overridden
func (o WeightOverrides) IsEmpty() bool {
	return o.ROI == nil && o.Demand == nil && o.Volume == nil &&
		o.Volatility == nil && o.Engagement == nil && o.Trait == nil
}

// Apply returns w with the overridden fields replaced
func (o WeightOverrides) Apply(w contracts.Weights) contracts.Weights {
	set := func(dst *float64, src *float64) {
		if src != nil {
			*dst = *src
		}
	}
	set(&w.ROI, o.ROI)
	set(&w.Demand, o.Demand)
	set(&w.Volume, o.Volume)
	set(&w.Volatility, o.Volatility)
	set(&w.Engagement, o.Engagement)
	set(&w.Trait, o.Trait)
	return w
}

// Custom builds a profile from a canonical base plus overrides.
// The result is validated, so negative overrides fail with ErrInvalidProfile.
func Custom(base Mode, name string, o WeightOverrides) (contracts.StrategyProfile, error) {
	p, err := Canonical(base)
	if err != nil {
		return contracts.StrategyProfile{}, err
	}
	if !o.IsEmpty() {
		p.Weights = o.Apply(p.Weights)
		p.Name = name
		if p.Name == "" {
			p.Name = string(base) + "+custom"
		}
	}
	if err := p.Validate(); err != nil {
		return contracts.StrategyProfile{}, err
	}
	return p, nil
}
