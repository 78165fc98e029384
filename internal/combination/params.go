package combination

import (
	"fmt"
	"math"

	"github.com/wonny/limitrade/internal/contracts"
)

const (
	// DefaultMaxPartitions bounds the unordered partitions one search may enumerate
	DefaultMaxPartitions uint64 = 2_000_000

	// HardMaxPartitions is the largest partition limit a caller may configure
	HardMaxPartitions uint64 = 50_000_000

	// maxPoolBits is the widest pool a uint64 subset mask can address
	maxPoolBits = 64
)

// Params controls one combination search
type Params struct {
	MinSide       int     `yaml:"min_side" json:"min_side"`
	MaxSide       int     `yaml:"max_side" json:"max_side"`
	MinBalance    float64 `yaml:"min_balance" json:"min_balance"` // (0,1]
	MinScore      float64 `yaml:"min_score" json:"min_score"`     // [0,1]
	TopK          int     `yaml:"top_k" json:"top_k"`
	PoolCeiling   int     `yaml:"pool_ceiling" json:"pool_ceiling"`
	MaxPartitions uint64  `yaml:"max_partitions" json:"max_partitions"` // 0 means DefaultMaxPartitions
}

// DefaultParams returns the search parameters used when nothing is configured
func DefaultParams() Params {
	return Params{
		MinSide:       1,
		MaxSide:       2,
		MinBalance:    0.9,
		MinScore:      0.4,
		TopK:          10,
		PoolCeiling:   24,
		MaxPartitions: DefaultMaxPartitions,
	}
}

// partitionLimit resolves the zero value to the default
func (p Params) partitionLimit() uint64 {
	if p.MaxPartitions == 0 {
		return DefaultMaxPartitions
	}
	return p.MaxPartitions
}

// CappedBy lowers the pool ceiling and partition limit of p to those of base
func (p Params) CappedBy(base Params) Params {
	if p.PoolCeiling > base.PoolCeiling {
		p.PoolCeiling = base.PoolCeiling
	}
	if p.partitionLimit() > base.partitionLimit() {
		p.MaxPartitions = base.partitionLimit()
	}
	return p
}

// Validate checks parameter ranges. Failures unwrap to ErrInvalidParams.
func (p Params) Validate() error {
	switch {
	case p.MinSide < 1:
		return invalidParam("min_side", fmt.Sprintf("must be >= 1, got %d", p.MinSide))
	case p.MaxSide < p.MinSide:
		return invalidParam("max_side", fmt.Sprintf("must be >= min_side (%d), got %d", p.MinSide, p.MaxSide))
	case math.IsNaN(p.MinBalance) || p.MinBalance <= 0 || p.MinBalance > 1:
		return invalidParam("min_balance", fmt.Sprintf("must be in (0, 1], got %v", p.MinBalance))
	case math.IsNaN(p.MinScore) || p.MinScore < 0 || p.MinScore > 1:
		return invalidParam("min_score", fmt.Sprintf("must be in [0, 1], got %v", p.MinScore))
	case p.TopK < 1:
		return invalidParam("top_k", fmt.Sprintf("must be >= 1, got %d", p.TopK))
	case p.PoolCeiling < 1:
		return invalidParam("pool_ceiling", fmt.Sprintf("must be >= 1, got %d", p.PoolCeiling))
	case p.MaxPartitions > HardMaxPartitions:
		return invalidParam("max_partitions", fmt.Sprintf("must be <= %d, got %d", HardMaxPartitions, p.MaxPartitions))
	}
	return nil
}

func invalidParam(field, msg string) error {
	return &contracts.FieldError{Field: field, Message: msg, Err: contracts.ErrInvalidParams}
}
