package contracts

import "context"

// SnapshotProvider yields a point-in-time item set
// SSOT: the only way market data enters the system
type SnapshotProvider interface {
	Snapshot(ctx context.Context) ([]ItemSnapshot, error)
}

// SnapshotRecorder persists snapshots so later scans can diff against them
type SnapshotRecorder interface {
	SaveSnapshots(ctx context.Context, items []ItemSnapshot) error
	PreviousSnapshots(ctx context.Context) ([]ItemSnapshot, error)
}

// ScanPublisher receives each completed scan
type ScanPublisher interface {
	Publish(ctx context.Context, result *ScanResult) error
}

// Notifier delivers alerts for qualifying combinations
type Notifier interface {
	Notify(ctx context.Context, result *ScanResult) (int, error)
}

// SummaryNotifier reports every completed scan, qualifying or not
type SummaryNotifier interface {
	Summary(ctx context.Context, result *ScanResult) error
}

// System alert levels
const (
	AlertInfo    = "info"
	AlertSuccess = "success"
	AlertWarning = "warning"
	AlertError   = "error"
)

// SystemAlerter delivers operational messages such as scan failures
type SystemAlerter interface {
	SystemAlert(ctx context.Context, message, level string) error
}
