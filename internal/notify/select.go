package notify

import (
	"github.com/wonny/limitrade/internal/contracts"
	"github.com/wonny/limitrade/internal/strategyconfig"
)

// Select returns the combinations that qualify for an alert, in ranked order.
// A combination alerts when its gain, confidence and risk label all pass the policy.
func Select(combos []contracts.TradeCombination, policy strategyconfig.Alerts) []contracts.TradeCombination {
	if !policy.Enabled {
		return nil
	}

	var out []contracts.TradeCombination
	for _, c := range combos {
		if policy.MaxPerScan > 0 && len(out) >= policy.MaxPerScan {
			break
		}
		if c.ProjectedGain < policy.MinGain {
			continue
		}
		if c.Score < policy.MinConfidence {
			continue
		}
		if !strategyconfig.RiskAllowed(c.RiskLevel, policy.MaxRisk) {
			continue
		}
		out = append(out, c)
	}
	return out
}

// Outlook buckets a confidence for display
func Outlook(confidence float64) string {
	switch {
	case confidence > 0.95:
		return "very strong"
	case confidence > 0.9:
		return "strong"
	case confidence > 0.8:
		return "moderate"
	default:
		return "weak"
	}
}
