package combination

import (
	"container/heap"
	"encoding/binary"
	"fmt"
	"math"
	"math/bits"
	"sort"

	"github.com/cespare/xxhash/v2"
	"github.com/rs/zerolog"

	"github.com/wonny/limitrade/internal/contracts"
)

// lowVolume marks an item as illiquid for the risk label
const lowVolume = 50

// windowSlack widens the value window against float rounding
const windowSlack = 1e-9

// boundSlack keeps the score upper bound from pruning a tie lost to rounding
const boundSlack = 1e-9

// volatileScore marks an item as volatile when its volatility sub-score falls below it
const volatileScore = 0.3

// Generator searches a scored pool for balanced, high-scoring two-sided trades
// SSOT: trade combination search happens only here
type Generator struct {
	log zerolog.Logger
}

// NewGenerator creates a generator
func NewGenerator(log zerolog.Logger) *Generator {
	return &Generator{log: log.With().Str("component", "combination").Logger()}
}

// candidate is a surviving partition before materialization
type candidate struct {
	score   float64
	balance float64
	total   int64
	offer   []int64
	request []int64
	hash    uint64
}

// Find returns the top-K combinations of the scored pool, best first.
// A search that finds nothing returns an empty slice and no error.
func (g *Generator) Find(scored []contracts.ScoredItem, params Params) ([]contracts.TradeCombination, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if len(scored) == 0 {
		return nil, fmt.Errorf("find combinations: %w", contracts.ErrEmptyInput)
	}
	if len(scored) > params.PoolCeiling {
		return nil, fmt.Errorf("find combinations: %d items exceed pool ceiling %d: %w",
			len(scored), params.PoolCeiling, contracts.ErrPoolTooLarge)
	}
	if len(scored) > maxPoolBits {
		return nil, fmt.Errorf("find combinations: %d items exceed %d-item pool limit: %w",
			len(scored), maxPoolBits, contracts.ErrPoolTooLarge)
	}
	if len(scored) < 2*params.MinSide {
		return nil, fmt.Errorf("find combinations: %d items cannot fill two sides of %d: %w",
			len(scored), params.MinSide, contracts.ErrEmptyInput)
	}

	maxSide := params.MaxSide
	if maxSide > len(scored)-params.MinSide {
		maxSide = len(scored) - params.MinSide
	}
	partitions := PartitionCount(len(scored), params.MinSide, maxSide)
	if partitions == math.MaxUint64 {
		return nil, fmt.Errorf("find combinations: partition count of %d items overflows: %w",
			len(scored), contracts.ErrPoolTooLarge)
	}
	if partitions > params.partitionLimit() {
		return nil, fmt.Errorf("find combinations: %d partitions exceed limit %d: %w",
			partitions, params.partitionLimit(), contracts.ErrPoolTooLarge)
	}

	if err := validatePool(scored); err != nil {
		return nil, err
	}

	// pool positions follow item id so sums never depend on input order
	scored = append([]contracts.ScoredItem(nil), scored...)
	sort.Slice(scored, func(i, j int) bool { return scored[i].ID < scored[j].ID })

	values := make([]int64, len(scored))
	scores := make([]float64, len(scored))
	for i, s := range scored {
		values[i] = s.Value
		scores[i] = s.Composite
	}

	bySize := make([][]subset, maxSide+1)
	for k := params.MinSide; k <= maxSide; k++ {
		bySize[k] = subsetsOfSize(values, scores, k)
	}
	best := bestScoreSums(scores, maxSide)

	top := &topK{limit: params.TopK}
	examined := 0

	for a := params.MinSide; a <= maxSide; a++ {
		for b := a; b <= maxSide && a+b <= len(scored); b++ {
			ys := bySize[b]
			for _, x := range bySize[a] {
				if x.value <= 0 {
					continue
				}
				// no y of size b can lift this x over the score floor or into the current top-K
				bound := (x.scoreSum+best[b])/float64(a+b) + boundSlack
				if bound < params.MinScore || (top.full() && bound < top.worst().score) {
					continue
				}

				// window is slightly wide; the exact ratio check below decides
				lo := float64(x.value) * params.MinBalance * (1 - windowSlack)
				hi := float64(x.value) / params.MinBalance * (1 + windowSlack)
				start := sort.Search(len(ys), func(i int) bool { return float64(ys[i].value) >= lo })

				for _, y := range ys[start:] {
					if float64(y.value) > hi {
						break
					}
					examined++

					// structural
					if x.mask&y.mask != 0 {
						continue
					}
					if a == b && bits.TrailingZeros64(x.mask) > bits.TrailingZeros64(y.mask) {
						continue
					}
					// balance
					ratio := balanceRatio(x.value, y.value)
					if ratio < params.MinBalance {
						continue
					}
					// score
					score := meanScore(scores, x.mask|y.mask)
					if score < params.MinScore {
						continue
					}

					c := &candidate{
						score:   score,
						balance: ratio,
						total:   x.value + y.value,
					}
					c.offer, c.request = orient(scored, x, y)
					c.hash = identityHash(c.offer, c.request)
					top.offer(c)
				}
			}
		}
	}

	out := top.sorted()
	combos := make([]contracts.TradeCombination, len(out))
	index := make(map[int64]int, len(scored))
	for i, s := range scored {
		index[s.ID] = i
	}
	for i, c := range out {
		combos[i] = materialize(scored, index, c)
	}

	g.log.Debug().
		Int("pool", len(scored)).
		Uint64("partitions", partitions).
		Int("examined", examined).
		Int("returned", len(combos)).
		Msg("combination search completed")

	return combos, nil
}

// meanScore averages the composites of the masked items in pool order,
// so one item set yields the same float whichever side holds each item
func meanScore(scores []float64, mask uint64) float64 {
	n := bits.OnesCount64(mask)
	sum := 0.0
	for mask != 0 {
		sum += scores[bits.TrailingZeros64(mask)]
		mask &= mask - 1
	}
	return sum / float64(n)
}

func validatePool(scored []contracts.ScoredItem) error {
	seen := make(map[int64]struct{}, len(scored))
	var total int64
	for _, s := range scored {
		if err := s.Validate(); err != nil {
			return err
		}
		if s.Value > math.MaxInt64-total {
			return &contracts.FieldError{
				Field:   fmt.Sprintf("item[%d].value", s.ID),
				Message: "pool value total overflows int64",
				Err:     contracts.ErrInvalidSnapshot,
			}
		}
		total += s.Value
		if math.IsNaN(s.Composite) || s.Composite < 0 || s.Composite > 1 {
			return &contracts.FieldError{
				Field:   fmt.Sprintf("item[%d].composite", s.ID),
				Message: fmt.Sprintf("must be in [0, 1], got %v", s.Composite),
				Err:     contracts.ErrInvalidSnapshot,
			}
		}
		if _, dup := seen[s.ID]; dup {
			return &contracts.FieldError{
				Field:   fmt.Sprintf("item[%d].id", s.ID),
				Message: "duplicate identifier in pool",
				Err:     contracts.ErrInvalidSnapshot,
			}
		}
		seen[s.ID] = struct{}{}
	}
	return nil
}

// balanceRatio is smaller over larger; 0 when either side is worthless
func balanceRatio(a, b int64) float64 {
	if a <= 0 || b <= 0 {
		return 0
	}
	if a > b {
		a, b = b, a
	}
	return float64(a) / float64(b)
}

func idsOf(scored []contracts.ScoredItem, mask uint64) []int64 {
	ids := make([]int64, 0, bits.OnesCount64(mask))
	for mask != 0 {
		i := bits.TrailingZeros64(mask)
		ids = append(ids, scored[i].ID)
		mask &= mask - 1
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// orient puts the lower-valued side on offer. Equal values go by the smaller sorted id list.
func orient(scored []contracts.ScoredItem, x, y subset) (offer, request []int64) {
	xs, ys := idsOf(scored, x.mask), idsOf(scored, y.mask)
	switch {
	case x.value < y.value:
		return xs, ys
	case y.value < x.value:
		return ys, xs
	case compareIDs(xs, ys) <= 0:
		return xs, ys
	default:
		return ys, xs
	}
}

func compareIDs(a, b []int64) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	return len(a) - len(b)
}

// identityHash digests both sides so different partitions of the same items differ
func identityHash(offer, request []int64) uint64 {
	buf := make([]byte, 0, 8*(len(offer)+len(request))+1)
	for _, id := range offer {
		buf = binary.LittleEndian.AppendUint64(buf, uint64(id))
	}
	buf = append(buf, '|')
	for _, id := range request {
		buf = binary.LittleEndian.AppendUint64(buf, uint64(id))
	}
	return xxhash.Sum64(buf)
}

// better is the ranking order: score, balance, total value, identity hash, then ids
func better(a, b *candidate) bool {
	if a.score != b.score {
		return a.score > b.score
	}
	if a.balance != b.balance {
		return a.balance > b.balance
	}
	if a.total != b.total {
		return a.total > b.total
	}
	if a.hash != b.hash {
		return a.hash < b.hash
	}
	if c := compareIDs(a.offer, b.offer); c != 0 {
		return c < 0
	}
	return compareIDs(a.request, b.request) < 0
}

func materialize(scored []contracts.ScoredItem, index map[int64]int, c *candidate) contracts.TradeCombination {
	combo := contracts.TradeCombination{
		Offer:        c.offer,
		Request:      c.request,
		Score:        c.score,
		BalanceRatio: c.balance,
		Hash:         c.hash,
	}

	lowVol, volatile := 0, 0
	collect := func(ids []int64) (int64, []string) {
		var total int64
		names := make([]string, len(ids))
		for i, id := range ids {
			s := scored[index[id]]
			total += s.Value
			names[i] = s.Name
			if s.Volume < lowVolume {
				lowVol++
			}
			if s.Scores.Volatility < volatileScore {
				volatile++
			}
		}
		return total, names
	}
	combo.OfferValue, combo.OfferNames = collect(c.offer)
	combo.RequestValue, combo.RequestNames = collect(c.request)

	combo.ValueDelta = combo.RequestValue - combo.OfferValue
	combo.ProjectedGain = combo.ValueDelta
	if combo.OfferValue > 0 {
		combo.ROIPercent = float64(combo.ProjectedGain) / float64(combo.OfferValue) * 100
	}
	combo.RiskLevel = RiskLevel(combo.ROIPercent, volatile, lowVol)
	return combo
}

// RiskLevel labels a trade from its gain percentage and the count of volatile and illiquid items
func RiskLevel(gainPct float64, volatileItems, lowVolumeItems int) string {
	risk := 0.2
	switch {
	case gainPct > 30:
		risk += 0.3
	case gainPct > 20:
		risk += 0.2
	case gainPct > 10:
		risk += 0.1
	}
	risk += float64(volatileItems)*0.1 + float64(lowVolumeItems)*0.05

	switch {
	case risk < 0.3:
		return contracts.RiskLow
	case risk < 0.6:
		return contracts.RiskMedium
	case risk < 0.8:
		return contracts.RiskHigh
	default:
		return contracts.RiskVeryHigh
	}
}

// topK keeps the best limit candidates in a min-heap whose root is the worst kept
type topK struct {
	limit int
	items []*candidate
}

func (t *topK) Len() int           { return len(t.items) }
func (t *topK) Less(i, j int) bool { return better(t.items[j], t.items[i]) }
func (t *topK) Swap(i, j int)      { t.items[i], t.items[j] = t.items[j], t.items[i] }
func (t *topK) Push(x interface{}) { t.items = append(t.items, x.(*candidate)) }
func (t *topK) Pop() interface{} {
	old := t.items
	n := len(old)
	item := old[n-1]
	t.items = old[:n-1]
	return item
}

func (t *topK) full() bool { return len(t.items) >= t.limit }

func (t *topK) worst() *candidate { return t.items[0] }

func (t *topK) offer(c *candidate) {
	if !t.full() {
		heap.Push(t, c)
		return
	}
	if better(c, t.items[0]) {
		t.items[0] = c
		heap.Fix(t, 0)
	}
}

func (t *topK) sorted() []*candidate {
	out := append([]*candidate(nil), t.items...)
	sort.Slice(out, func(i, j int) bool { return better(out[i], out[j]) })
	return out
}
