package pipeline

import (
	"sort"

	"github.com/wonny/limitrade/internal/contracts"
)

const metricsListSize = 5

// BuildMetrics summarizes a snapshot set for one scan
func BuildMetrics(items []contracts.ItemSnapshot, risk contracts.RiskIndex, forecastMode string) contracts.MarketMetrics {
	m := contracts.MarketMetrics{
		TotalItems:   len(items),
		RiskIndex:    risk.Value,
		ForecastMode: forecastMode,
		TopGainers:   []contracts.ItemSummary{},
		TopLosers:    []contracts.ItemSummary{},
		Trending:     []contracts.ItemSummary{},
	}
	if len(items) == 0 {
		return m
	}

	var rapSum int64
	for _, s := range items {
		m.TotalValue += s.Value
		rapSum += s.RAP
	}
	m.AverageRAP = float64(rapSum) / float64(len(items))

	var gainers, losers, trending []contracts.ItemSummary
	for _, s := range items {
		sum := summarize(s)
		switch {
		case s.Value > 0 && sum.Gain > 0:
			gainers = append(gainers, sum)
		case s.Value > 0 && sum.Gain < 0:
			losers = append(losers, sum)
		}
		if s.Trend == contracts.TrendUp {
			trending = append(trending, sum)
		}
	}

	sort.Slice(gainers, func(i, j int) bool { return byGain(gainers[i], gainers[j], true) })
	sort.Slice(losers, func(i, j int) bool { return byGain(losers[i], losers[j], false) })
	sort.Slice(trending, func(i, j int) bool {
		if trending[i].Value != trending[j].Value {
			return trending[i].Value > trending[j].Value
		}
		return trending[i].ID < trending[j].ID
	})

	m.TopGainers = head(gainers)
	m.TopLosers = head(losers)
	m.Trending = head(trending)
	return m
}

func summarize(s contracts.ItemSnapshot) contracts.ItemSummary {
	return contracts.ItemSummary{ID: s.ID, Name: s.Name, Value: s.Value, RAP: s.RAP, Gain: s.Gain()}
}

func byGain(a, b contracts.ItemSummary, desc bool) bool {
	if a.Gain != b.Gain {
		if desc {
			return a.Gain > b.Gain
		}
		return a.Gain < b.Gain
	}
	return a.ID < b.ID
}

func head(list []contracts.ItemSummary) []contracts.ItemSummary {
	if len(list) > metricsListSize {
		list = list[:metricsListSize]
	}
	if list == nil {
		return []contracts.ItemSummary{}
	}
	return list
}
