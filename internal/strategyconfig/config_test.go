package strategyconfig

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/wonny/limitrade/internal/contracts"
)

const sampleYAML = `
meta:
  strategy_id: weekend_sniper
  description: tight balance, high confidence
profile:
  mode: conservative
  weights:
    volatility: 0.5
combinations:
  min_side: 1
  max_side: 3
  min_balance: 0.85
  min_score: 0.5
  top_k: 15
  pool_ceiling: 20
  max_partitions: 0
forecast:
  capacity: 96
  min_samples: 6
  horizons: [1, 2, 12]
  min_cycle_correlation: 0.6
  default_interval: 5m
alerts:
  enabled: true
  min_gain: 5000
  min_confidence: 0.85
  max_risk: Medium
  max_per_scan: 3
scan:
  top_picks: 20
  pool: 16
  timeout: 90s
`

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "strategy.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	cfg, yamlData, err := Load(writeFile(t, sampleYAML))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Meta.StrategyID != "weekend_sniper" {
		t.Errorf("expected strategy_id=weekend_sniper, got %s", cfg.Meta.StrategyID)
	}
	if cfg.Combinations.MaxSide != 3 || cfg.Combinations.PoolCeiling != 20 {
		t.Errorf("combinations not decoded: %+v", cfg.Combinations)
	}
	if cfg.Forecast.DefaultInterval != 5*time.Minute {
		t.Errorf("expected default_interval=5m, got %v", cfg.Forecast.DefaultInterval)
	}
	if cfg.Scan.Timeout != 90*time.Second || cfg.PoolSize() != 16 {
		t.Errorf("scan not decoded: %+v", cfg.Scan)
	}

	profile, err := cfg.ResolveProfile()
	if err != nil {
		t.Fatalf("ResolveProfile failed: %v", err)
	}
	if profile.Weights.Volatility != 0.5 || profile.Weights.Demand != 0.30 {
		t.Errorf("override not applied: %+v", profile.Weights)
	}

	hash, err := Hash(cfg)
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	if len(hash) != 64 {
		t.Errorf("expected 64 char hash, got %d", len(hash))
	}

	// same config, same hash
	hash2, _ := Hash(cfg)
	if hash != hash2 {
		t.Error("hash not deterministic")
	}

	snap, err := NewDecisionSnapshot(cfg, yamlData)
	if err != nil {
		t.Fatalf("NewDecisionSnapshot failed: %v", err)
	}
	if snap.ConfigHash != hash || snap.Profile != "conservative+custom" {
		t.Errorf("unexpected snapshot: %+v", snap)
	}
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	cfg, _, err := Load(writeFile(t, "meta:\n  strategy_id: minimal\n"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Profile.Mode != string(ModeSniper) {
		t.Errorf("expected default mode, got %q", cfg.Profile.Mode)
	}
	if cfg.Alerts.MinGain != 3500 || cfg.Alerts.MinConfidence != 0.9 {
		t.Errorf("expected default alerts, got %+v", cfg.Alerts)
	}
}

func TestLoad_UnknownFieldRejected(t *testing.T) {
	_, _, err := Load(writeFile(t, "meta:\n  strategy_id: x\n  strateg_id: typo\n"))
	if err == nil {
		t.Fatal("expected error for unknown field")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		field  string
	}{
		{"missing id", func(c *Config) { c.Meta.StrategyID = "" }, "meta.strategy_id"},
		{"unknown mode", func(c *Config) { c.Profile.Mode = "yolo" }, "profile"},
		{"negative override", func(c *Config) { v := -1.0; c.Profile.Weights.ROI = &v }, "profile"},
		{"balance above one", func(c *Config) { c.Combinations.MinBalance = 1.2 }, "combinations"},
		{"pool too wide", func(c *Config) { c.Combinations.PoolCeiling = 65 }, "combinations.pool_ceiling"},
		{"capacity below samples", func(c *Config) { c.Forecast.Capacity = 3 }, "forecast.capacity"},
		{"zero horizon", func(c *Config) { c.Forecast.Horizons = []int{1, 0} }, "forecast.horizons[1]"},
		{"bad risk label", func(c *Config) { c.Alerts.MaxRisk = "Extreme" }, "alerts.max_risk"},
		{"confidence above one", func(c *Config) { c.Alerts.MinConfidence = 1.5 }, "alerts.min_confidence"},
		{"no top picks", func(c *Config) { c.Scan.TopPicks = 0 }, "scan.top_picks"},
	}

	if err := Validate(Default()); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := Validate(cfg)

			var verr ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if verr.Field != tt.field {
				t.Errorf("expected field %s, got %s", tt.field, verr.Field)
			}
		})
	}
}

func TestWarn(t *testing.T) {
	cfg := Default()
	cfg.Combinations.MinBalance = 0.3
	cfg.Combinations.PoolCeiling = 40
	cfg.Combinations.MaxSide = 3
	cfg.Alerts.MaxRisk = contracts.RiskVeryHigh

	codes := map[string]bool{}
	for _, w := range Warn(cfg) {
		codes[w.Code] = true
	}
	for _, want := range []string{"LARGE_SEARCH", "LOOSE_BALANCE", "RISKY_ALERTS"} {
		if !codes[want] {
			t.Errorf("expected warning %s", want)
		}
	}

	if len(Warn(Default())) != 0 {
		t.Errorf("default config should not warn: %+v", Warn(Default()))
	}
}

func TestRiskAllowed(t *testing.T) {
	if !RiskAllowed(contracts.RiskMedium, contracts.RiskHigh) {
		t.Error("Medium should pass a High ceiling")
	}
	if RiskAllowed(contracts.RiskVeryHigh, contracts.RiskHigh) {
		t.Error("Very High should not pass a High ceiling")
	}
	if RiskAllowed("Unknown", contracts.RiskVeryHigh) {
		t.Error("unknown labels never pass")
	}
}
