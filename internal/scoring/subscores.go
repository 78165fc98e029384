package scoring

import (
	"math"

	"github.com/wonny/limitrade/internal/contracts"
)

// Transform constants. Every transform is monotonic and lands in [0,1].
const (
	roiScale         = 2.0   // tanh(gap*2): a 50% value/RAP gap scores ~0.76
	volumeHalfLife   = 250.0 // volume at which the score reaches 1-1/e
	riskWeight       = 0.8   // share of the volatility score driven by market risk
	trendWeight      = 0.2   // share driven by the item's own trend
	hypeBoost        = 0.6
	premiumBoost     = 0.5
	projectedPenalty = 0.3
)

// tierPoints maps an ordered five-step tier onto [0,1]
var tierPoints = [5]float64{0.0, 0.2, 0.5, 0.8, 1.0}

// trendRiskMultiplier sharpens the risk penalty on a falling item and softens it on a rising one
func trendRiskMultiplier(t contracts.Trend) float64 {
	switch t {
	case contracts.TrendDown:
		return 1.5
	case contracts.TrendUp:
		return 0.5
	}
	return 1.0
}

func trendBias(t contracts.Trend) float64 {
	switch t {
	case contracts.TrendDown:
		return 0.0
	case contracts.TrendUp:
		return 1.0
	}
	return 0.5
}

// roiScore rewards value above RAP. Unvalued items and items at or above value score 0.
func roiScore(s contracts.ItemSnapshot) float64 {
	if s.Value == 0 || s.RAP == 0 {
		return 0
	}
	gap := float64(s.Value-s.RAP) / float64(s.RAP)
	if gap <= 0 {
		return 0
	}
	return clamp01(math.Tanh(gap * roiScale))
}

func demandScore(d contracts.DemandTier) float64 {
	return tierPoints[d]
}

// volumeScore saturates: 1 - exp(-volume/250)
func volumeScore(volume int64) float64 {
	return clamp01(1 - math.Exp(-float64(volume)/volumeHalfLife))
}

// volatilityScore is high when the market is calm, adjusted by the item's trend
func volatilityScore(risk float64, t contracts.Trend) float64 {
	calm := math.Max(0, 1-risk*trendRiskMultiplier(t))
	return clamp01(calm*riskWeight + trendBias(t)*trendWeight)
}

func engagementScore(s contracts.ItemSnapshot) float64 {
	score := 0.0
	if s.Hyped {
		score += hypeBoost
	}
	if s.Premium {
		score += premiumBoost
	}
	return math.Min(score, 1.0)
}

// traitScore follows rarity; projected items are trade-restricted and lose a fixed increment
func traitScore(s contracts.ItemSnapshot) float64 {
	score := tierPoints[s.Rarity]
	if s.Projected {
		score -= projectedPenalty
	}
	return clamp01(score)
}

// SubScoresFor computes the six sub-scores of a validated snapshot
func SubScoresFor(s contracts.ItemSnapshot, risk float64) contracts.SubScores {
	risk = normalizeRisk(risk)
	return contracts.SubScores{
		ROI:        roiScore(s),
		Demand:     demandScore(s.Demand),
		Volume:     volumeScore(s.Volume),
		Volatility: volatilityScore(risk, s.Trend),
		Engagement: engagementScore(s),
		Trait:      traitScore(s),
	}
}

// normalizeRisk clamps the risk scalar; NaN falls back to neutral
func normalizeRisk(risk float64) float64 {
	if math.IsNaN(risk) {
		return contracts.NeutralRisk
	}
	return clamp01(risk)
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
