package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/wonny/limitrade/internal/contracts"
)

// FileProvider serves a snapshot stored as a JSON array of items
type FileProvider struct {
	path string
	now  func() time.Time
}

// NewFileProvider creates a provider reading path on every call
func NewFileProvider(path string) *FileProvider {
	return &FileProvider{path: path, now: time.Now}
}

// Snapshot implements contracts.SnapshotProvider
func (p *FileProvider) Snapshot(ctx context.Context) ([]contracts.ItemSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	items, err := ReadFile(p.path)
	if err != nil {
		return nil, err
	}
	stamp := p.now().UTC()
	for i := range items {
		if items[i].ScannedAt.IsZero() {
			items[i].ScannedAt = stamp
		}
	}
	return items, nil
}

// ReadFile decodes an item file. Both a bare array and {"items": [...]} are accepted.
func ReadFile(path string) ([]contracts.ItemSnapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read items file: %w", err)
	}
	return Decode(data)
}

// Decode parses item JSON in either accepted shape
func Decode(data []byte) ([]contracts.ItemSnapshot, error) {
	var items []contracts.ItemSnapshot
	if err := json.Unmarshal(data, &items); err == nil {
		return items, nil
	}

	var wrapped struct {
		Items []contracts.ItemSnapshot `json:"items"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return nil, fmt.Errorf("failed to decode items: %w", err)
	}
	return wrapped.Items, nil
}
