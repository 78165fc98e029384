package contracts

import (
	"fmt"
	"strings"
	"time"
)

// DemandTier is the ordered demand classification of an item
type DemandTier int

const (
	DemandNone DemandTier = iota
	DemandLow
	DemandMedium
	DemandHigh
	DemandAmazing
)

var demandNames = [...]string{"none", "low", "medium", "high", "amazing"}

// Valid reports whether the tier is inside the defined enumeration
func (d DemandTier) Valid() bool {
	return d >= DemandNone && d <= DemandAmazing
}

func (d DemandTier) String() string {
	if !d.Valid() {
		return fmt.Sprintf("demand(%d)", int(d))
	}
	return demandNames[d]
}

// MarshalText encodes the tier by name
func (d DemandTier) MarshalText() ([]byte, error) {
	if !d.Valid() {
		return nil, fmt.Errorf("invalid demand tier %d", int(d))
	}
	return []byte(d.String()), nil
}

// UnmarshalText accepts the tier name ("very_high" is an alias of amazing)
func (d *DemandTier) UnmarshalText(text []byte) error {
	s := strings.ToLower(strings.TrimSpace(string(text)))
	if s == "very_high" {
		*d = DemandAmazing
		return nil
	}
	for i, name := range demandNames {
		if name == s {
			*d = DemandTier(i)
			return nil
		}
	}
	return fmt.Errorf("unknown demand tier %q", s)
}

// Trend is the direction an item's value is moving
type Trend int

const (
	TrendDown   Trend = -1
	TrendStable Trend = 0
	TrendUp     Trend = 1
)

// Valid reports whether the trend is inside the defined enumeration
func (t Trend) Valid() bool {
	return t >= TrendDown && t <= TrendUp
}

func (t Trend) String() string {
	switch t {
	case TrendDown:
		return "down"
	case TrendStable:
		return "stable"
	case TrendUp:
		return "up"
	}
	return fmt.Sprintf("trend(%d)", int(t))
}

// MarshalText encodes the trend by name
func (t Trend) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("invalid trend %d", int(t))
	}
	return []byte(t.String()), nil
}

// UnmarshalText accepts down, stable or up
func (t *Trend) UnmarshalText(text []byte) error {
	switch strings.ToLower(strings.TrimSpace(string(text))) {
	case "down":
		*t = TrendDown
	case "stable", "":
		*t = TrendStable
	case "up":
		*t = TrendUp
	default:
		return fmt.Errorf("unknown trend %q", string(text))
	}
	return nil
}

// RarityTier is the ordered rarity classification of an item
type RarityTier int

const (
	RarityCommon RarityTier = iota
	RarityUncommon
	RarityRare
	RarityEpic
	RarityLegendary
)

var rarityNames = [...]string{"common", "uncommon", "rare", "epic", "legendary"}

// Valid reports whether the tier is inside the defined enumeration
func (r RarityTier) Valid() bool {
	return r >= RarityCommon && r <= RarityLegendary
}

func (r RarityTier) String() string {
	if !r.Valid() {
		return fmt.Sprintf("rarity(%d)", int(r))
	}
	return rarityNames[r]
}

// MarshalText encodes the tier by name
func (r RarityTier) MarshalText() ([]byte, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("invalid rarity tier %d", int(r))
	}
	return []byte(r.String()), nil
}

// UnmarshalText accepts the tier name
func (r *RarityTier) UnmarshalText(text []byte) error {
	s := strings.ToLower(strings.TrimSpace(string(text)))
	for i, name := range rarityNames {
		if name == s {
			*r = RarityTier(i)
			return nil
		}
	}
	return fmt.Errorf("unknown rarity tier %q", s)
}

// ItemSnapshot is one tradeable item at one point in time.
// Snapshots are values: nothing downstream mutates them.
type ItemSnapshot struct {
	ID        int64      `json:"id"`
	Name      string     `json:"name"`
	RAP       int64      `json:"rap"`   // recent average price
	Value     int64      `json:"value"` // 0 means unvalued
	Demand    DemandTier `json:"demand"`
	Trend     Trend      `json:"trend"`
	Volume    int64      `json:"volume"` // trades over the lookback window
	Projected bool       `json:"projected"`
	Hyped     bool       `json:"hyped"`
	Rarity    RarityTier `json:"rarity"`
	Premium   bool       `json:"premium"`
	ScannedAt time.Time  `json:"scanned_at"`
}

// Validate checks the field domains the scoring engine relies on
func (s ItemSnapshot) Validate() error {
	switch {
	case s.RAP < 0:
		return invalidSnapshot(s.ID, "rap", "must be >= 0")
	case s.Value < 0:
		return invalidSnapshot(s.ID, "value", "must be >= 0")
	case s.Volume < 0:
		return invalidSnapshot(s.ID, "volume", "must be >= 0")
	case !s.Demand.Valid():
		return invalidSnapshot(s.ID, "demand", fmt.Sprintf("out of range: %d", int(s.Demand)))
	case !s.Rarity.Valid():
		return invalidSnapshot(s.ID, "rarity", fmt.Sprintf("out of range: %d", int(s.Rarity)))
	case !s.Trend.Valid():
		return invalidSnapshot(s.ID, "trend", fmt.Sprintf("out of range: %d", int(s.Trend)))
	}
	return nil
}

func invalidSnapshot(id int64, field, msg string) error {
	return &FieldError{
		Field:   fmt.Sprintf("item[%d].%s", id, field),
		Message: msg,
		Err:     ErrInvalidSnapshot,
	}
}

// Gain returns value minus RAP, positive when the market trades below value
func (s ItemSnapshot) Gain() int64 {
	return s.Value - s.RAP
}
