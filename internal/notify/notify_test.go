package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/limitrade/internal/contracts"
	"github.com/wonny/limitrade/internal/strategyconfig"
	"github.com/wonny/limitrade/pkg/httputil"
	"github.com/wonny/limitrade/pkg/logger"
)

type staticPolicy struct{ cfg *strategyconfig.Config }

func (s staticPolicy) Config() *strategyconfig.Config { return s.cfg }

func combo(gain int64, score float64, risk string, request ...int64) contracts.TradeCombination {
	return contracts.TradeCombination{
		Offer:         []int64{1},
		Request:       request,
		OfferValue:    10000,
		RequestValue:  10000 + gain,
		ValueDelta:    gain,
		ProjectedGain: gain,
		ROIPercent:    float64(gain) / 100,
		Score:         score,
		RiskLevel:     risk,
		OfferNames:    []string{"Dominus"},
	}
}

func TestSelect(t *testing.T) {
	policy := strategyconfig.Default().Alerts
	combos := []contracts.TradeCombination{
		combo(5000, 0.95, contracts.RiskLow, 2),      // passes
		combo(1000, 0.99, contracts.RiskLow, 3),      // gain too small
		combo(5000, 0.50, contracts.RiskLow, 4),      // confidence too low
		combo(5000, 0.95, contracts.RiskVeryHigh, 5), // too risky
		combo(3500, 0.90, contracts.RiskHigh, 6),     // thresholds are inclusive
	}

	got := Select(combos, policy)
	require.Len(t, got, 2)
	assert.Equal(t, []int64{2}, got[0].Request)
	assert.Equal(t, []int64{6}, got[1].Request)

	policy.MaxPerScan = 1
	assert.Len(t, Select(combos, policy), 1)

	policy.Enabled = false
	assert.Empty(t, Select(combos, policy))
}

func TestOutlook(t *testing.T) {
	assert.Equal(t, "very strong", Outlook(0.96))
	assert.Equal(t, "strong", Outlook(0.92))
	assert.Equal(t, "moderate", Outlook(0.85))
	assert.Equal(t, "weak", Outlook(0.5))
}

type recorder struct {
	mu       sync.Mutex
	payloads []webhookPayload
	status   int
}

func (r *recorder) handler(w http.ResponseWriter, req *http.Request) {
	var p webhookPayload
	if err := json.NewDecoder(req.Body).Decode(&p); err == nil {
		r.mu.Lock()
		r.payloads = append(r.payloads, p)
		r.mu.Unlock()
	}
	w.WriteHeader(r.status)
}

func newDiscord(t *testing.T, rec *recorder, roleID string) *Discord {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(rec.handler))
	t.Cleanup(server.Close)

	client := httputil.New(logger.NewNop()).DisableRetry()
	d := NewDiscord(client, server.URL, roleID, staticPolicy{strategyconfig.Default()}, logger.NewNop())
	d.now = func() time.Time { return time.Unix(1700000000, 0) }
	return d
}

func TestDiscord_Notify(t *testing.T) {
	rec := &recorder{status: http.StatusNoContent}
	d := newDiscord(t, rec, "42")

	c := combo(5000, 0.96, contracts.RiskLow, 1365767)
	c.RequestNames = []string{"Valkyrie Helm"}
	result := &contracts.ScanResult{
		RunID:        "run-1",
		Profile:      "sniper",
		Combinations: []contracts.TradeCombination{c, combo(10, 0.1, contracts.RiskLow, 9)},
	}

	sent, err := d.Notify(context.Background(), result)
	require.NoError(t, err)
	assert.Equal(t, 1, sent)

	require.Len(t, rec.payloads, 1)
	p := rec.payloads[0]
	assert.Equal(t, "<@&42> New trade opportunity!", p.Content)
	require.Len(t, p.Embeds, 1)
	e := p.Embeds[0]
	assert.Equal(t, "https://www.rolimons.com/item/1365767", e.URL)
	assert.Contains(t, e.Description, "Dominus → Valkyrie Helm")
	assert.Contains(t, e.Description, "sniper")
	assert.Equal(t, colorGreen, e.Color)
	assert.Equal(t, "<t:1700000000:R>", e.Fields[2].Value)
}

func TestDiscord_NotifyFailureAndDisabled(t *testing.T) {
	rec := &recorder{status: http.StatusBadRequest}
	d := newDiscord(t, rec, "")

	result := &contracts.ScanResult{Combinations: []contracts.TradeCombination{combo(5000, 0.96, contracts.RiskLow, 2)}}
	sent, err := d.Notify(context.Background(), result)
	assert.Error(t, err)
	assert.Equal(t, 0, sent)

	off := NewDiscord(httputil.New(nil), "", "", staticPolicy{strategyconfig.Default()}, nil)
	sent, err = off.Notify(context.Background(), result)
	assert.NoError(t, err)
	assert.Equal(t, 0, sent)
}

func TestDiscord_Summary(t *testing.T) {
	rec := &recorder{status: http.StatusNoContent}
	d := newDiscord(t, rec, "42")

	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	result := &contracts.ScanResult{
		RunID:        "run-7",
		Profile:      "momentum",
		StartedAt:    start,
		FinishedAt:   start.Add(1500 * time.Millisecond),
		TopPicks:     make([]contracts.ScoredItem, 3),
		Combinations: []contracts.TradeCombination{combo(5000, 0.96, contracts.RiskLow, 2)},
		Alerts:       1,
		Risk:         contracts.RiskIndex{Value: 0.25},
		Metrics:      contracts.MarketMetrics{TotalItems: 120},
	}
	require.NoError(t, d.Summary(context.Background(), result))

	require.Len(t, rec.payloads, 1)
	p := rec.payloads[0]
	assert.Empty(t, p.Content, "summaries do not ping the role")
	e := p.Embeds[0]
	assert.Equal(t, "Market summary", e.Title)
	assert.Equal(t, colorBlue, e.Color)
	assert.Contains(t, e.Description, "run-7")
	values := map[string]string{}
	for _, f := range e.Fields {
		values[f.Name] = f.Value
	}
	assert.Equal(t, "120", values["Items scanned"])
	assert.Equal(t, "3", values["Top picks"])
	assert.Equal(t, "1", values["Trade combos"])
	assert.Equal(t, "0.25", values["Market risk"])
	assert.Equal(t, "1.5s", values["Duration"])
}

func TestDiscord_SystemAlert(t *testing.T) {
	rec := &recorder{status: http.StatusNoContent}
	d := newDiscord(t, rec, "")

	require.NoError(t, d.SystemAlert(context.Background(), "Scan error: offline", contracts.AlertError))
	require.NoError(t, d.SystemAlert(context.Background(), "started", "unknown"))
	require.Len(t, rec.payloads, 2)
	assert.Equal(t, "Scan error: offline", rec.payloads[0].Embeds[0].Description)
	assert.Equal(t, colorRed, rec.payloads[0].Embeds[0].Color)
	assert.Equal(t, colorBlue, rec.payloads[1].Embeds[0].Color)

	rec.status = http.StatusInternalServerError
	assert.Error(t, d.SystemAlert(context.Background(), "again", contracts.AlertWarning))

	off := NewDiscord(httputil.New(nil), "", "", staticPolicy{strategyconfig.Default()}, nil)
	assert.NoError(t, off.Summary(context.Background(), &contracts.ScanResult{}))
	assert.NoError(t, off.SystemAlert(context.Background(), "x", contracts.AlertInfo))
}

func TestJoinNames(t *testing.T) {
	assert.Equal(t, "A + B", joinNames([]string{"A", "B"}, []int64{1, 2}))
	assert.Equal(t, "#1 + #2", joinNames(nil, []int64{1, 2}))
}
