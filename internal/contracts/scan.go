package contracts

import "time"

// MarketMetrics summarizes one scan of the market
type MarketMetrics struct {
	TotalItems   int           `json:"total_items"`
	TotalValue   int64         `json:"total_value"`
	AverageRAP   float64       `json:"average_rap"`
	TopGainers   []ItemSummary `json:"top_gainers"`
	TopLosers    []ItemSummary `json:"top_losers"`
	Trending     []ItemSummary `json:"trending"`
	RiskIndex    float64       `json:"risk_index"`
	ForecastMode string        `json:"forecast_mode"` // forecaster state at scan time
}

// ItemSummary is a compact item reference used in metrics
type ItemSummary struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Value int64  `json:"value"`
	RAP   int64  `json:"rap"`
	Gain  int64  `json:"gain"`
}

// ScanResult is the full output of one scan pass
// SSOT: pipeline → cache, API, websocket, alerts, repository
type ScanResult struct {
	RunID        string             `json:"run_id"`
	StartedAt    time.Time          `json:"started_at"`
	FinishedAt   time.Time          `json:"finished_at"`
	Profile      string             `json:"profile"`
	ProfileHash  string             `json:"profile_hash"`
	Risk         RiskIndex          `json:"risk"`
	TopPicks     []ScoredItem       `json:"top_picks"`
	Combinations []TradeCombination `json:"combinations"`
	Metrics      MarketMetrics      `json:"metrics"`
	Alerts       int                `json:"alerts"`
}

// Duration returns how long the scan took
func (r *ScanResult) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}
