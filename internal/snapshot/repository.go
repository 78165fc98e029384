package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/limitrade/internal/contracts"
)

// Schema creates the tables the repository uses. Statements are idempotent.
var Schema = []string{
	`CREATE TABLE IF NOT EXISTS item_snapshots (
		scanned_at TIMESTAMPTZ NOT NULL,
		item_id    BIGINT      NOT NULL,
		name       TEXT        NOT NULL,
		rap        BIGINT      NOT NULL,
		value      BIGINT      NOT NULL,
		demand     SMALLINT    NOT NULL,
		trend      SMALLINT    NOT NULL,
		volume     BIGINT      NOT NULL,
		projected  BOOLEAN     NOT NULL,
		hyped      BOOLEAN     NOT NULL,
		rarity     SMALLINT    NOT NULL,
		premium    BOOLEAN     NOT NULL,
		PRIMARY KEY (scanned_at, item_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_item_snapshots_scanned_at ON item_snapshots (scanned_at DESC)`,
	`CREATE TABLE IF NOT EXISTS scan_results (
		run_id       UUID        PRIMARY KEY,
		started_at   TIMESTAMPTZ NOT NULL,
		finished_at  TIMESTAMPTZ NOT NULL,
		profile      TEXT        NOT NULL,
		profile_hash TEXT        NOT NULL,
		risk_index   DOUBLE PRECISION NOT NULL,
		combinations INT         NOT NULL,
		alerts       INT         NOT NULL,
		payload      JSONB       NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_scan_results_started_at ON scan_results (started_at DESC)`,
}

var snapshotColumns = []string{
	"scanned_at", "item_id", "name", "rap", "value", "demand", "trend",
	"volume", "projected", "hyped", "rarity", "premium",
}

// Repository handles snapshot and scan persistence
// SSOT: item_snapshots and scan_results are read and written here only
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// SaveSnapshots bulk-copies one snapshot batch. Items sharing a batch share its scanned_at.
func (r *Repository) SaveSnapshots(ctx context.Context, items []contracts.ItemSnapshot) error {
	if len(items) == 0 {
		return nil
	}
	batchAt := items[0].ScannedAt
	if batchAt.IsZero() {
		batchAt = time.Now().UTC()
	}

	_, err := r.pool.CopyFrom(ctx,
		pgx.Identifier{"item_snapshots"},
		snapshotColumns,
		pgx.CopyFromSlice(len(items), func(i int) ([]any, error) {
			s := items[i]
			return []any{
				batchAt, s.ID, s.Name, s.RAP, s.Value, int16(s.Demand), int16(s.Trend),
				s.Volume, s.Projected, s.Hyped, int16(s.Rarity), s.Premium,
			}, nil
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to save snapshots: %w", err)
	}
	return nil
}

// PreviousSnapshots returns the most recent stored batch, or nil when none exists
func (r *Repository) PreviousSnapshots(ctx context.Context) ([]contracts.ItemSnapshot, error) {
	query := `
		SELECT scanned_at, item_id, name, rap, value, demand, trend,
		       volume, projected, hyped, rarity, premium
		FROM item_snapshots
		WHERE scanned_at = (SELECT MAX(scanned_at) FROM item_snapshots)
		ORDER BY item_id
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots: %w", err)
	}
	defer rows.Close()

	var items []contracts.ItemSnapshot
	for rows.Next() {
		var s contracts.ItemSnapshot
		var demand, trend, rarity int16
		if err := rows.Scan(
			&s.ScannedAt, &s.ID, &s.Name, &s.RAP, &s.Value, &demand, &trend,
			&s.Volume, &s.Projected, &s.Hyped, &rarity, &s.Premium,
		); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		s.Demand = contracts.DemandTier(demand)
		s.Trend = contracts.Trend(trend)
		s.Rarity = contracts.RarityTier(rarity)
		items = append(items, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read snapshots: %w", err)
	}
	return items, nil
}

// Snapshot serves the latest stored batch, so Postgres can act as a market source
func (r *Repository) Snapshot(ctx context.Context) ([]contracts.ItemSnapshot, error) {
	items, err := r.PreviousSnapshots(ctx)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("no stored snapshots: %w", contracts.ErrEmptyInput)
	}
	return items, nil
}

// Publish stores a completed scan
func (r *Repository) Publish(ctx context.Context, result *contracts.ScanResult) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal scan result: %w", err)
	}

	query := `
		INSERT INTO scan_results (
			run_id, started_at, finished_at, profile, profile_hash,
			risk_index, combinations, alerts, payload
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (run_id) DO UPDATE SET
			finished_at = EXCLUDED.finished_at,
			alerts = EXCLUDED.alerts,
			payload = EXCLUDED.payload
	`

	_, err = r.pool.Exec(ctx, query,
		result.RunID, result.StartedAt, result.FinishedAt, result.Profile, result.ProfileHash,
		result.Risk.Value, len(result.Combinations), result.Alerts, payload,
	)
	if err != nil {
		return fmt.Errorf("failed to save scan result: %w", err)
	}
	return nil
}

// LatestScan returns the newest stored scan, or nil when none exists
func (r *Repository) LatestScan(ctx context.Context) (*contracts.ScanResult, error) {
	query := `
		SELECT payload
		FROM scan_results
		ORDER BY started_at DESC
		LIMIT 1
	`

	var payload []byte
	err := r.pool.QueryRow(ctx, query).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest scan: %w", err)
	}

	var result contracts.ScanResult
	if err := json.Unmarshal(payload, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal scan result: %w", err)
	}
	return &result, nil
}

// PruneSnapshots deletes batches older than keep
func (r *Repository) PruneSnapshots(ctx context.Context, keep time.Duration) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM item_snapshots WHERE scanned_at < $1`,
		time.Now().Add(-keep),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to prune snapshots: %w", err)
	}
	return tag.RowsAffected(), nil
}
