package contracts

// Risk level labels attached to combinations for presentation
const (
	RiskLow      = "Low"
	RiskMedium   = "Medium"
	RiskHigh     = "High"
	RiskVeryHigh = "Very High"
)

// TradeCombination is a two-sided partition of scored items.
// The offer side is never worth more than the request side.
// SSOT: combination search → API, alerts, scan results
type TradeCombination struct {
	Offer         []int64 `json:"offer"`   // sorted ascending
	Request       []int64 `json:"request"` // sorted ascending
	OfferValue    int64   `json:"offer_value"`
	RequestValue  int64   `json:"request_value"`
	ValueDelta    int64   `json:"value_delta"` // request - offer, >= 0
	Score         float64 `json:"score"`       // mean composite across both sides
	BalanceRatio  float64 `json:"balance_ratio"`
	Hash          uint64  `json:"hash"` // deterministic identity of the participating items
	ProjectedGain int64   `json:"projected_gain"`
	ROIPercent    float64 `json:"roi_percent"`
	RiskLevel     string  `json:"risk_level"`

	// Names are filled by the generator for display only
	OfferNames   []string `json:"offer_names,omitempty"`
	RequestNames []string `json:"request_names,omitempty"`
}

// TotalValue is the combined value of both sides
func (c *TradeCombination) TotalValue() int64 {
	return c.OfferValue + c.RequestValue
}

// Contains reports whether id participates on either side
func (c *TradeCombination) Contains(id int64) bool {
	for _, x := range c.Offer {
		if x == id {
			return true
		}
	}
	for _, x := range c.Request {
		if x == id {
			return true
		}
	}
	return false
}
