package jobs

import (
	"context"

	"github.com/wonny/limitrade/internal/contracts"
	"github.com/wonny/limitrade/pkg/logger"
)

// Scanner runs one scan pass
type Scanner interface {
	Scan(ctx context.Context) (*contracts.ScanResult, error)
}

// ScanJob triggers a market scan on a cron schedule
type ScanJob struct {
	scanner  Scanner
	schedule string
	alerter  contracts.SystemAlerter
	logger   *logger.Logger
}

// NewScanJob creates a scan job
func NewScanJob(scanner Scanner, schedule string, log *logger.Logger) *ScanJob {
	if log == nil {
		log = logger.NewNop()
	}
	return &ScanJob{scanner: scanner, schedule: schedule, logger: log}
}

// WithAlerter reports failed scans through a. A nil alerter is ignored.
func (j *ScanJob) WithAlerter(a contracts.SystemAlerter) *ScanJob {
	j.alerter = a
	return j
}

// Name returns the job name
func (j *ScanJob) Name() string {
	return "market_scan"
}

// Schedule returns the cron schedule
func (j *ScanJob) Schedule() string {
	return j.schedule
}

// Run executes one scan
func (j *ScanJob) Run(ctx context.Context) error {
	result, err := j.scanner.Scan(ctx)
	if err != nil {
		if j.alerter != nil {
			if alertErr := j.alerter.SystemAlert(ctx, "Scan error: "+err.Error(), contracts.AlertError); alertErr != nil {
				j.logger.WithError(alertErr).Warn("Failed to send scan failure alert")
			}
		}
		return err
	}

	j.logger.WithFields(map[string]interface{}{
		"run_id":       result.RunID,
		"combinations": len(result.Combinations),
		"alerts":       result.Alerts,
	}).Debug("Scheduled scan finished")
	return nil
}
