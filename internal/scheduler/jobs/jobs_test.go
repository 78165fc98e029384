package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/wonny/limitrade/internal/contracts"
)

type stubScanner struct {
	err   error
	calls int
}

func (s *stubScanner) Scan(ctx context.Context) (*contracts.ScanResult, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return &contracts.ScanResult{RunID: "r"}, nil
}

type stubPruner struct {
	keep time.Duration
	n    int64
}

func (p *stubPruner) PruneSnapshots(ctx context.Context, keep time.Duration) (int64, error) {
	p.keep = keep
	return p.n, nil
}

func TestScanJob(t *testing.T) {
	scanner := &stubScanner{}
	job := NewScanJob(scanner, "0 */5 * * * *", nil)

	assert.Equal(t, "market_scan", job.Name())
	assert.Equal(t, "0 */5 * * * *", job.Schedule())
	assert.NoError(t, job.Run(context.Background()))
	assert.Equal(t, 1, scanner.calls)

	scanner.err = errors.New("offline")
	assert.Error(t, job.Run(context.Background()))
}

type stubAlerter struct {
	messages []string
	levels   []string
	err      error
}

func (a *stubAlerter) SystemAlert(ctx context.Context, message, level string) error {
	a.messages = append(a.messages, message)
	a.levels = append(a.levels, level)
	return a.err
}

func TestScanJob_AlertsOnFailure(t *testing.T) {
	scanner := &stubScanner{}
	alerter := &stubAlerter{}
	job := NewScanJob(scanner, "@every 5m", nil).WithAlerter(alerter)

	assert.NoError(t, job.Run(context.Background()))
	assert.Empty(t, alerter.messages)

	scanner.err = errors.New("offline")
	assert.Error(t, job.Run(context.Background()))
	assert.Equal(t, []string{"Scan error: offline"}, alerter.messages)
	assert.Equal(t, []string{contracts.AlertError}, alerter.levels)

	// a failing alert still reports the scan error
	alerter.err = errors.New("webhook down")
	assert.EqualError(t, job.Run(context.Background()), "offline")
}

func TestSnapshotCleanupJob(t *testing.T) {
	pruner := &stubPruner{n: 3}
	job := NewSnapshotCleanupJob(pruner, 72*time.Hour, nil)

	assert.Equal(t, "snapshot_cleanup", job.Name())
	assert.NoError(t, job.Run(context.Background()))
	assert.Equal(t, 72*time.Hour, pruner.keep)
}
