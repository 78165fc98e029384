package strategyconfig

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/limitrade/internal/contracts"
)

func TestCanonicalProfiles(t *testing.T) {
	require.Equal(t, []Mode{ModeAggressive, ModeConservative, ModeMomentum, ModeSniper}, Modes())

	for _, m := range Modes() {
		p, err := Canonical(m)
		require.NoError(t, err)
		assert.Equal(t, string(m), p.Name)
		assert.NoError(t, p.Validate())
		assert.InDelta(t, 1.0, p.Weights.Sum(), 1e-9, "mode %s", m)
	}

	// each mode leans where its name says
	sniper, _ := Canonical(ModeSniper)
	assert.Greater(t, sniper.Weights.ROI+sniper.Weights.Volatility, 0.5)
	aggressive, _ := Canonical(ModeAggressive)
	assert.Greater(t, aggressive.Weights.Volume+aggressive.Weights.Demand, 0.5)
	conservative, _ := Canonical(ModeConservative)
	for _, w := range []float64{conservative.Weights.ROI, conservative.Weights.Engagement, conservative.Weights.Trait} {
		assert.GreaterOrEqual(t, conservative.Weights.Volatility, w)
	}
	for _, m := range Modes() {
		if m == ModeConservative {
			continue
		}
		other, _ := Canonical(m)
		assert.Greater(t, conservative.Weights.Volatility, other.Weights.Volatility, "conservative vs %s", m)
	}
	momentum, _ := Canonical(ModeMomentum)
	assert.Greater(t, momentum.Weights.ROI+momentum.Weights.Engagement, 0.5)
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("  Momentum ")
	require.NoError(t, err)
	assert.Equal(t, ModeMomentum, m)

	_, err = ParseMode("turbo")
	assert.True(t, errors.Is(err, contracts.ErrInvalidProfile))
}

func TestCustom(t *testing.T) {
	zero := 0.0
	two := 2.0
	p, err := Custom(ModeSniper, "roi-heavy", WeightOverrides{ROI: &two, Trait: &zero})
	require.NoError(t, err)
	assert.Equal(t, "roi-heavy", p.Name)
	assert.Equal(t, 2.0, p.Weights.ROI)
	assert.Equal(t, 0.0, p.Weights.Trait)
	assert.Equal(t, 0.10, p.Weights.Demand)

	neg := -0.5
	_, err = Custom(ModeSniper, "", WeightOverrides{Demand: &neg})
	assert.True(t, errors.Is(err, contracts.ErrInvalidProfile))

	plain, err := Custom(ModeAggressive, "ignored", WeightOverrides{})
	require.NoError(t, err)
	assert.Equal(t, "aggressive", plain.Name)
}

func TestStore(t *testing.T) {
	store, err := NewStore(Default())
	require.NoError(t, err)

	before := store.Hash()
	p, err := store.Profile()
	require.NoError(t, err)
	assert.Equal(t, "sniper", p.Name)

	switched, err := store.SetProfile(ProfileConfig{Mode: "momentum"})
	require.NoError(t, err)
	assert.Equal(t, "momentum", switched.Name)
	assert.NotEqual(t, before, store.Hash())

	neg := -1.0
	_, err = store.SetProfile(ProfileConfig{Mode: "sniper", Weights: WeightOverrides{ROI: &neg}})
	assert.True(t, errors.Is(err, contracts.ErrInvalidProfile))

	current, err := store.Profile()
	require.NoError(t, err)
	assert.Equal(t, "momentum", current.Name, "failed update must not change the store")

	// callers get copies
	cfg := store.Config()
	cfg.Forecast.Horizons[0] = 99
	assert.NotEqual(t, 99, store.Config().Forecast.Horizons[0])

	bad := Default()
	bad.Meta.StrategyID = ""
	assert.Error(t, store.Replace(bad))
}
