package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/limitrade/internal/contracts"
	"github.com/wonny/limitrade/internal/forecast"
	"github.com/wonny/limitrade/internal/pipeline"
	"github.com/wonny/limitrade/internal/strategyconfig"
	"github.com/wonny/limitrade/pkg/logger"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("wrap: %w", contracts.ErrInvalidProfile), http.StatusBadRequest},
		{&contracts.FieldError{Field: "rap", Err: contracts.ErrInvalidSnapshot}, http.StatusBadRequest},
		{contracts.ErrInvalidParams, http.StatusBadRequest},
		{strategyconfig.ValidationError{Field: "meta.strategy_id", Message: "required"}, http.StatusBadRequest},
		{fmt.Errorf("search: %w", contracts.ErrPoolTooLarge), http.StatusUnprocessableEntity},
		{contracts.ErrEmptyInput, http.StatusNotFound},
		{errors.New("disk on fire"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StatusFor(tt.err), "%v", tt.err)
	}
}

func TestClientID(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "10.1.2.3:5555"
	assert.Equal(t, "10.1.2.3", clientID(r))

	r.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	assert.Equal(t, "203.0.113.9", clientID(r))
}

func TestHub_StreamsLatestAndNewScans(t *testing.T) {
	hub := NewHub(logger.NewNop())
	require.NoError(t, hub.Publish(context.Background(), &contracts.ScanResult{RunID: "first"}))

	server := httptest.NewServer(http.HandlerFunc(hub.Stream))
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	read := func() contracts.ScanResult {
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, data, err := conn.ReadMessage()
		require.NoError(t, err)
		var r contracts.ScanResult
		require.NoError(t, json.Unmarshal(data, &r))
		return r
	}

	assert.Equal(t, "first", read().RunID, "new subscribers get the latest scan")

	require.Eventually(t, func() bool { return hub.Clients() == 1 }, time.Second, 10*time.Millisecond)
	require.NoError(t, hub.Publish(context.Background(), &contracts.ScanResult{RunID: "second"}))
	assert.Equal(t, "second", read().RunID)

	conn.Close()
	assert.Eventually(t, func() bool { return hub.Clients() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestHub_Close(t *testing.T) {
	hub := NewHub(nil)
	hub.Close()
	assert.Equal(t, 0, hub.Clients())
	assert.NoError(t, hub.Publish(context.Background(), &contracts.ScanResult{RunID: "x"}))
}

type idleScanner struct{}

func (idleScanner) Scan(ctx context.Context) (*contracts.ScanResult, error) {
	return nil, errors.New("not wired")
}
func (idleScanner) Latest() *contracts.ScanResult { return nil }
func (idleScanner) UpdateForecast(p contracts.AggregatePoint) (contracts.RiskIndex, forecast.State) {
	return contracts.Neutral(), forecast.StateWarming
}
func (idleScanner) Risk() (contracts.RiskIndex, forecast.State) {
	return contracts.Neutral(), forecast.StateEmpty
}

type stubCache struct {
	latest    *contracts.ScanResult
	summaries []pipeline.ScanSummary
	err       error
	limit     int64
}

func (c *stubCache) Latest(ctx context.Context) (*contracts.ScanResult, error) {
	return c.latest, c.err
}

func (c *stubCache) Recent(ctx context.Context, limit int64) ([]pipeline.ScanSummary, error) {
	c.limit = limit
	if c.err != nil {
		return nil, c.err
	}
	if int64(len(c.summaries)) > limit {
		return c.summaries[:limit], nil
	}
	return c.summaries, nil
}

func TestScanHandler_LatestFallsBackToCache(t *testing.T) {
	cache := &stubCache{latest: &contracts.ScanResult{RunID: "cached"}}
	h := NewScanHandler(idleScanner{}, cache, nil, logger.NewNop())

	rec := httptest.NewRecorder()
	h.Latest(rec, httptest.NewRequest(http.MethodGet, "/api/scan/latest", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"run_id":"cached"`)

	cache.latest = nil
	cache.err = errors.New("redis down")
	rec = httptest.NewRecorder()
	h.Latest(rec, httptest.NewRequest(http.MethodGet, "/api/scan/latest", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestScanHandler_Recent(t *testing.T) {
	cache := &stubCache{summaries: []pipeline.ScanSummary{{RunID: "c"}, {RunID: "b"}, {RunID: "a"}}}
	h := NewScanHandler(idleScanner{}, cache, nil, logger.NewNop())

	rec := httptest.NewRecorder()
	h.Recent(rec, httptest.NewRequest(http.MethodGet, "/api/scan/recent?limit=2", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Scans []pipeline.ScanSummary `json:"scans"`
		Count int                    `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 2, body.Count)
	assert.Equal(t, "c", body.Scans[0].RunID)

	rec = httptest.NewRecorder()
	h.Recent(rec, httptest.NewRequest(http.MethodGet, "/api/scan/recent?limit=500", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(maxRecentScans), cache.limit)

	rec = httptest.NewRecorder()
	h.Recent(rec, httptest.NewRequest(http.MethodGet, "/api/scan/recent?limit=zero", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	cache.err = errors.New("redis down")
	rec = httptest.NewRecorder()
	h.Recent(rec, httptest.NewRequest(http.MethodGet, "/api/scan/recent", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestScanHandler_RecentWithoutCache(t *testing.T) {
	h := NewScanHandler(idleScanner{}, nil, nil, logger.NewNop())

	rec := httptest.NewRecorder()
	h.Recent(rec, httptest.NewRequest(http.MethodGet, "/api/scan/recent", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"scans": [], "count": 0}`, rec.Body.String())
}
