package contracts

// SubScores is the per-component breakdown of an item's quality, each in [0,1]
type SubScores struct {
	ROI        float64 `json:"roi"`
	Demand     float64 `json:"demand"`
	Volume     float64 `json:"volume"`
	Volatility float64 `json:"volatility"`
	Engagement float64 `json:"engagement"`
	Trait      float64 `json:"trait"`
}

// Values returns the sub-scores in weight-vector order
func (s SubScores) Values() [6]float64 {
	return [6]float64{s.ROI, s.Demand, s.Volume, s.Volatility, s.Engagement, s.Trait}
}

// ScoredItem is a snapshot plus its scoring result for one pass
// SSOT: scoring pass → combination search
type ScoredItem struct {
	ItemSnapshot
	Scores    SubScores `json:"scores"`
	Composite float64   `json:"composite"` // [0,1]
	Rank      int       `json:"rank"`      // 1-based, no gaps
}
