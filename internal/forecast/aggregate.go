package forecast

import (
	"time"

	"github.com/wonny/limitrade/internal/contracts"
)

// BuildAggregate summarizes one scan against the previous one.
// Items missing from prev, or with no price on either side, do not count toward the value change.
func BuildAggregate(prev, curr []contracts.ItemSnapshot, at time.Time) contracts.AggregatePoint {
	before := make(map[int64]int64, len(prev))
	for _, s := range prev {
		before[s.ID] = price(s)
	}

	var (
		changeSum float64
		matched   int
		volumeSum int64
		up, down  int
	)
	for _, s := range curr {
		volumeSum += s.Volume
		switch s.Trend {
		case contracts.TrendUp:
			up++
		case contracts.TrendDown:
			down++
		}

		old, ok := before[s.ID]
		now := price(s)
		if !ok || old <= 0 || now <= 0 {
			continue
		}
		changeSum += float64(now-old) / float64(old)
		matched++
	}

	point := contracts.AggregatePoint{
		Timestamp: at,
		UpCount:   up,
		DownCount: down,
	}
	if matched > 0 {
		point.MeanValueChange = changeSum / float64(matched)
	}
	if len(curr) > 0 {
		point.MeanVolume = float64(volumeSum) / float64(len(curr))
	}
	return point.Clamped()
}

// price is the item's value, falling back to RAP for unvalued items
func price(s contracts.ItemSnapshot) int64 {
	if s.Value > 0 {
		return s.Value
	}
	return s.RAP
}
