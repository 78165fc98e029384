package contracts

import (
	"fmt"
	"math"
)

// Weights is the six-component weight vector of a strategy profile.
// Weights need not sum to 1; the scoring engine normalizes at use time.
type Weights struct {
	ROI        float64 `yaml:"roi" json:"roi"`
	Demand     float64 `yaml:"demand" json:"demand"`
	Volume     float64 `yaml:"volume" json:"volume"`
	Volatility float64 `yaml:"volatility" json:"volatility"`
	Engagement float64 `yaml:"engagement" json:"engagement"`
	Trait      float64 `yaml:"trait" json:"trait"`
}

var weightNames = [6]string{"roi", "demand", "volume", "volatility", "engagement", "trait"}

// Values returns the weights in sub-score order
func (w Weights) Values() [6]float64 {
	return [6]float64{w.ROI, w.Demand, w.Volume, w.Volatility, w.Engagement, w.Trait}
}

// Sum returns the total weight
func (w Weights) Sum() float64 {
	sum := 0.0
	for _, v := range w.Values() {
		sum += v
	}
	return sum
}

// Scale multiplies every weight by k
func (w Weights) Scale(k float64) Weights {
	return Weights{
		ROI:        w.ROI * k,
		Demand:     w.Demand * k,
		Volume:     w.Volume * k,
		Volatility: w.Volatility * k,
		Engagement: w.Engagement * k,
		Trait:      w.Trait * k,
	}
}

// StrategyProfile is a named weight vector. A scoring pass holds one copy by value.
type StrategyProfile struct {
	Name    string  `json:"name"`
	Weights Weights `json:"weights"`
}

// Validate rejects negative or non-finite weights
func (p StrategyProfile) Validate() error {
	for i, v := range p.Weights.Values() {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return &FieldError{
				Field:   "weights." + weightNames[i],
				Message: fmt.Sprintf("must be a finite value >= 0, got %v", v),
				Err:     ErrInvalidProfile,
			}
		}
	}
	return nil
}
