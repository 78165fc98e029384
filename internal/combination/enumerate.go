package combination

import (
	"math"
	"math/bits"
	"sort"
)

// Binomial returns C(n, k), saturating at math.MaxUint64
func Binomial(n, k int) uint64 {
	if k < 0 || n < 0 || k > n {
		return 0
	}
	if k > n-k {
		k = n - k
	}
	result := uint64(1)
	for i := 1; i <= k; i++ {
		// result * (n-k+i) / i stays exact because result is C(n-k+i-1, i-1)
		hi, lo := bits.Mul64(result, uint64(n-k+i))
		if hi >= uint64(i) {
			return math.MaxUint64
		}
		q, _ := bits.Div64(hi, lo, uint64(i))
		result = q
	}
	return result
}

func satMul(a, b uint64) uint64 {
	hi, lo := bits.Mul64(a, b)
	if hi != 0 {
		return math.MaxUint64
	}
	return lo
}

func satAdd(a, b uint64) uint64 {
	sum, carry := bits.Add64(a, b, 0)
	if carry != 0 {
		return math.MaxUint64
	}
	return sum
}

// PartitionCount is the number of unordered two-sided partitions of disjoint
// subsets of an n-item pool with each side holding between minSide and maxSide items:
// sum over side sizes a, b of C(n,a)*C(n-a,b), halved because {X,Y} and {Y,X} are the same trade.
func PartitionCount(n, minSide, maxSide int) uint64 {
	total := uint64(0)
	for a := minSide; a <= maxSide; a++ {
		for b := minSide; b <= maxSide; b++ {
			total = satAdd(total, satMul(Binomial(n, a), Binomial(n-a, b)))
		}
	}
	if total == math.MaxUint64 {
		return total
	}
	return total / 2
}

// subset is one side candidate: a bitmask over pool positions with its totals
type subset struct {
	mask     uint64
	value    int64
	scoreSum float64
}

// subsetsOfSize lists every k-subset of the pool ordered by value, then mask.
func subsetsOfSize(values []int64, scores []float64, k int) []subset {
	n := len(values)
	out := make([]subset, 0, Binomial(n, k))

	var walk func(start int, depth int, mask uint64, value int64, score float64)
	walk = func(start int, depth int, mask uint64, value int64, score float64) {
		if depth == k {
			out = append(out, subset{mask: mask, value: value, scoreSum: score})
			return
		}
		for i := start; i <= n-(k-depth); i++ {
			walk(i+1, depth+1, mask|1<<uint(i), value+values[i], score+scores[i])
		}
	}
	walk(0, 0, 0, 0, 0)

	sort.Slice(out, func(i, j int) bool {
		if out[i].value != out[j].value {
			return out[i].value < out[j].value
		}
		return out[i].mask < out[j].mask
	})
	return out
}

// bestScoreSums[k] is the largest composite sum any k items of the pool can reach
func bestScoreSums(scores []float64, maxK int) []float64 {
	sorted := append([]float64(nil), scores...)
	sort.Sort(sort.Reverse(sort.Float64Slice(sorted)))

	best := make([]float64, maxK+1)
	for k := 1; k <= maxK && k <= len(sorted); k++ {
		best[k] = best[k-1] + sorted[k-1]
	}
	return best
}
