package handlers

import (
	"context"

	"github.com/wonny/limitrade/internal/contracts"
	"github.com/wonny/limitrade/internal/forecast"
	"github.com/wonny/limitrade/internal/pipeline"
)

// Scanner is the slice of the scan pipeline the handlers use
type Scanner interface {
	Scan(ctx context.Context) (*contracts.ScanResult, error)
	Latest() *contracts.ScanResult
	UpdateForecast(p contracts.AggregatePoint) (contracts.RiskIndex, forecast.State)
	Risk() (contracts.RiskIndex, forecast.State)
}

// ScanCache serves scans persisted by this or an earlier process
type ScanCache interface {
	Latest(ctx context.Context) (*contracts.ScanResult, error)
	Recent(ctx context.Context, limit int64) ([]pipeline.ScanSummary, error)
}

// Pinger reports dependency health
type Pinger interface {
	Ping(ctx context.Context) error
}
