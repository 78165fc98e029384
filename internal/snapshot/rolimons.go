package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/wonny/limitrade/internal/contracts"
	"github.com/wonny/limitrade/pkg/httputil"
	"github.com/wonny/limitrade/pkg/logger"
)

const itemDetailsPath = "/items/v1/itemdetails"

// positions inside one itemdetails entry
const (
	colName = iota
	colAcronym
	colRAP
	colValue
	colDefaultValue
	colDemand
	colTrend
	colProjected
	colHyped
	colRare
	columnCount
)

// Rolimons trend codes
const (
	rolimonsLowering = 0
	rolimonsRaising  = 3
)

// RolimonsProvider fetches the public item-details catalogue
type RolimonsProvider struct {
	client  *httputil.Client
	baseURL string
	logger  *logger.Logger
	now     func() time.Time
}

// NewRolimonsProvider creates a provider. The client carries retry and rate limit policy.
func NewRolimonsProvider(client *httputil.Client, baseURL string, log *logger.Logger) *RolimonsProvider {
	if log == nil {
		log = logger.NewNop()
	}
	return &RolimonsProvider{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  log,
		now:     time.Now,
	}
}

type itemDetailsResponse struct {
	Success   bool                         `json:"success"`
	ItemCount int                          `json:"item_count"`
	Items     map[string][]json.RawMessage `json:"items"`
}

// Snapshot implements contracts.SnapshotProvider
func (p *RolimonsProvider) Snapshot(ctx context.Context) ([]contracts.ItemSnapshot, error) {
	var resp itemDetailsResponse
	if err := p.client.GetJSON(ctx, p.baseURL+itemDetailsPath, &resp); err != nil {
		return nil, fmt.Errorf("rolimons itemdetails: %w", err)
	}
	if !resp.Success {
		return nil, fmt.Errorf("rolimons itemdetails: success=false")
	}

	scannedAt := p.now().UTC()
	items := make([]contracts.ItemSnapshot, 0, len(resp.Items))
	skipped := 0
	for key, row := range resp.Items {
		item, err := decodeItem(key, row, scannedAt)
		if err != nil {
			skipped++
			p.logger.WithFields(map[string]interface{}{
				"item_id": key,
				"error":   err.Error(),
			}).Debug("Skipping malformed item")
			continue
		}
		items = append(items, item)
	}

	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })

	p.logger.WithFields(map[string]interface{}{
		"items":   len(items),
		"skipped": skipped,
	}).Info("Fetched Rolimons item details")

	return items, nil
}

func decodeItem(key string, row []json.RawMessage, scannedAt time.Time) (contracts.ItemSnapshot, error) {
	id, err := strconv.ParseInt(key, 10, 64)
	if err != nil {
		return contracts.ItemSnapshot{}, fmt.Errorf("bad id: %w", err)
	}
	if len(row) < columnCount {
		return contracts.ItemSnapshot{}, fmt.Errorf("expected %d columns, got %d", columnCount, len(row))
	}

	var name string
	if err := json.Unmarshal(row[colName], &name); err != nil {
		return contracts.ItemSnapshot{}, fmt.Errorf("name: %w", err)
	}

	ints := make([]int64, columnCount)
	// name and acronym are strings, the rest are integers
	for col := colRAP; col < columnCount; col++ {
		if err := json.Unmarshal(row[col], &ints[col]); err != nil {
			return contracts.ItemSnapshot{}, fmt.Errorf("column %d: %w", col, err)
		}
	}

	value := ints[colValue]
	if value < 0 {
		value = 0
	}
	rap := ints[colRAP]
	if rap < 0 {
		rap = 0
	}

	item := contracts.ItemSnapshot{
		ID:        id,
		Name:      name,
		RAP:       rap,
		Value:     value,
		Demand:    mapDemand(ints[colDemand]),
		Trend:     mapTrend(ints[colTrend]),
		Projected: ints[colProjected] == 1,
		Hyped:     ints[colHyped] == 1,
		Rarity:    contracts.RarityCommon,
		ScannedAt: scannedAt,
	}
	if ints[colRare] == 1 {
		item.Rarity = contracts.RarityRare
	}
	return item, item.Validate()
}

// mapDemand folds Rolimons -1..4 onto the tier scale; -1 (unassigned) and 0 are both none
func mapDemand(code int64) contracts.DemandTier {
	switch {
	case code <= 0:
		return contracts.DemandNone
	case code >= 4:
		return contracts.DemandAmazing
	default:
		return contracts.DemandTier(code)
	}
}

// mapTrend keeps only the directional codes; unstable, stable and fluctuating are all stable
func mapTrend(code int64) contracts.Trend {
	switch code {
	case rolimonsLowering:
		return contracts.TrendDown
	case rolimonsRaising:
		return contracts.TrendUp
	default:
		return contracts.TrendStable
	}
}
