package contracts

import (
	"math"
	"time"
)

// NeutralRisk is reported while the forecaster has too little history
const NeutralRisk = 0.5

// AggregatePoint is one market-wide summary per scan cycle
// SSOT: scan → forecaster
type AggregatePoint struct {
	Timestamp       time.Time `json:"timestamp"`
	MeanValueChange float64   `json:"mean_value_change"` // relative, clamped to [-1,1]
	MeanVolume      float64   `json:"mean_volume"`
	UpCount         int       `json:"up_count"`
	DownCount       int       `json:"down_count"`
}

// Clamped returns a copy with every field forced into its domain
func (p AggregatePoint) Clamped() AggregatePoint {
	out := p
	out.MeanValueChange = clampFinite(p.MeanValueChange, -1, 1)
	out.MeanVolume = clampFinite(p.MeanVolume, 0, math.MaxFloat64)
	if out.UpCount < 0 {
		out.UpCount = 0
	}
	if out.DownCount < 0 {
		out.DownCount = 0
	}
	return out
}

// Breadth is (up - down) / (up + down), 0 when nothing moved
func (p AggregatePoint) Breadth() float64 {
	total := p.UpCount + p.DownCount
	if total == 0 {
		return 0
	}
	return float64(p.UpCount-p.DownCount) / float64(total)
}

func clampFinite(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ForecastWindow is a future offset paired with a confidence that trading then is favorable
type ForecastWindow struct {
	Offset     time.Duration `json:"offset"`
	Confidence float64       `json:"confidence"` // [0,1]
	Source     string        `json:"source"`     // "momentum" or "cyclic"
}

// RiskIndex is the forecaster's output for one pass
type RiskIndex struct {
	Value   float64          `json:"value"` // [0,1]
	Windows []ForecastWindow `json:"windows"`
}

// Neutral returns the risk index reported before enough history exists
func Neutral() RiskIndex {
	return RiskIndex{Value: NeutralRisk, Windows: []ForecastWindow{}}
}
