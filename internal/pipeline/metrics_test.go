package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/wonny/limitrade/internal/contracts"
)

func TestBuildMetrics(t *testing.T) {
	items := []contracts.ItemSnapshot{
		{ID: 1, Name: "up-big", RAP: 100, Value: 300, Trend: contracts.TrendUp},
		{ID: 2, Name: "up-small", RAP: 100, Value: 150, Trend: contracts.TrendUp},
		{ID: 3, Name: "down", RAP: 500, Value: 200, Trend: contracts.TrendDown},
		{ID: 4, Name: "unvalued", RAP: 400, Value: 0},
	}

	m := BuildMetrics(items, contracts.RiskIndex{Value: 0.3}, "ready")

	assert.Equal(t, 4, m.TotalItems)
	assert.Equal(t, int64(650), m.TotalValue)
	assert.Equal(t, 275.0, m.AverageRAP)
	assert.Equal(t, 0.3, m.RiskIndex)
	assert.Equal(t, "ready", m.ForecastMode)

	if assert.Len(t, m.TopGainers, 2) {
		assert.Equal(t, int64(1), m.TopGainers[0].ID)
		assert.Equal(t, int64(200), m.TopGainers[0].Gain)
	}
	if assert.Len(t, m.TopLosers, 1, "unvalued items are neither gainers nor losers") {
		assert.Equal(t, int64(3), m.TopLosers[0].ID)
	}
	if assert.Len(t, m.Trending, 2) {
		assert.Equal(t, int64(1), m.Trending[0].ID)
	}
}

func TestBuildMetrics_Empty(t *testing.T) {
	m := BuildMetrics(nil, contracts.Neutral(), "empty")
	assert.Equal(t, 0, m.TotalItems)
	assert.NotNil(t, m.TopGainers)
	assert.NotNil(t, m.Trending)
}

func TestBuildMetrics_CapsLists(t *testing.T) {
	var items []contracts.ItemSnapshot
	for i := 1; i <= 9; i++ {
		items = append(items, contracts.ItemSnapshot{ID: int64(i), RAP: 10, Value: int64(10 + i), Trend: contracts.TrendUp})
	}
	m := BuildMetrics(items, contracts.Neutral(), "warming")
	assert.Len(t, m.TopGainers, metricsListSize)
	assert.Len(t, m.Trending, metricsListSize)
	assert.Equal(t, int64(9), m.TopGainers[0].ID)
}
