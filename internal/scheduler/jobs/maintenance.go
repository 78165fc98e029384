package jobs

import (
	"context"
	"time"

	"github.com/wonny/limitrade/pkg/logger"
)

// SnapshotPruner deletes stored snapshot batches older than keep
type SnapshotPruner interface {
	PruneSnapshots(ctx context.Context, keep time.Duration) (int64, error)
}

// SnapshotCleanupJob trims the snapshot history
type SnapshotCleanupJob struct {
	pruner SnapshotPruner
	keep   time.Duration
	logger *logger.Logger
}

// NewSnapshotCleanupJob creates a new snapshot cleanup job
func NewSnapshotCleanupJob(pruner SnapshotPruner, keep time.Duration, log *logger.Logger) *SnapshotCleanupJob {
	if log == nil {
		log = logger.NewNop()
	}
	return &SnapshotCleanupJob{
		pruner: pruner,
		keep:   keep,
		logger: log,
	}
}

// Name returns the job name
func (j *SnapshotCleanupJob) Name() string {
	return "snapshot_cleanup"
}

// Schedule returns the cron schedule (hourly)
func (j *SnapshotCleanupJob) Schedule() string {
	return "0 0 * * * *"
}

// Run executes the cleanup
func (j *SnapshotCleanupJob) Run(ctx context.Context) error {
	j.logger.Debug("Starting scheduled snapshot cleanup")

	count, err := j.pruner.PruneSnapshots(ctx, j.keep)
	if err != nil {
		return err
	}

	if count > 0 {
		j.logger.WithField("removed", count).Info("Snapshot cleanup completed")
	}

	return nil
}
