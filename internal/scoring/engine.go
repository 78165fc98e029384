package scoring

import (
	"fmt"
	"math"
	"sort"

	"github.com/wonny/limitrade/internal/contracts"
	"github.com/wonny/limitrade/pkg/logger"
)

// Engine turns item snapshots into ranked scored items
// SSOT: item scoring and ranking happen only here
type Engine struct {
	logger *logger.Logger
}

// NewEngine creates a scoring engine. A nil logger discards output.
func NewEngine(log *logger.Logger) *Engine {
	if log == nil {
		log = logger.NewNop()
	}
	return &Engine{logger: log}
}

// Score computes one scored item. Rank is left at 0; only a batch assigns ranks.
func (e *Engine) Score(s contracts.ItemSnapshot, profile contracts.StrategyProfile, risk float64) (contracts.ScoredItem, error) {
	if err := profile.Validate(); err != nil {
		return contracts.ScoredItem{}, err
	}
	if err := s.Validate(); err != nil {
		return contracts.ScoredItem{}, err
	}
	return score(s, profile.Weights, risk), nil
}

// ScoreItems scores a snapshot set and ranks it by composite descending, identifier ascending.
// The profile is taken by value so the whole pass sees one weight vector.
func (e *Engine) ScoreItems(snapshots []contracts.ItemSnapshot, profile contracts.StrategyProfile, risk float64) ([]contracts.ScoredItem, error) {
	if err := profile.Validate(); err != nil {
		return nil, err
	}
	if len(snapshots) == 0 {
		return nil, fmt.Errorf("score items: %w", contracts.ErrEmptyInput)
	}

	seen := make(map[int64]struct{}, len(snapshots))
	for _, s := range snapshots {
		if err := s.Validate(); err != nil {
			return nil, err
		}
		if _, dup := seen[s.ID]; dup {
			return nil, &contracts.FieldError{
				Field:   fmt.Sprintf("item[%d].id", s.ID),
				Message: "duplicate identifier in one snapshot set",
				Err:     contracts.ErrInvalidSnapshot,
			}
		}
		seen[s.ID] = struct{}{}
	}

	scored := make([]contracts.ScoredItem, len(snapshots))
	for i, s := range snapshots {
		scored[i] = score(s, profile.Weights, risk)
	}

	sort.Slice(scored, func(i, j int) bool {
		if scored[i].Composite != scored[j].Composite {
			return scored[i].Composite > scored[j].Composite
		}
		return scored[i].ID < scored[j].ID
	})

	for i := range scored {
		scored[i].Rank = i + 1
	}

	e.logger.WithFields(map[string]interface{}{
		"profile":   profile.Name,
		"items":     len(scored),
		"risk":      risk,
		"top_id":    scored[0].ID,
		"top_score": scored[0].Composite,
	}).Debug("Scoring completed")

	return scored, nil
}

func score(s contracts.ItemSnapshot, w contracts.Weights, risk float64) contracts.ScoredItem {
	sub := SubScoresFor(s, risk)
	return contracts.ScoredItem{
		ItemSnapshot: s,
		Scores:       sub,
		Composite:    Composite(sub, w),
	}
}

// Composite is the weight-normalized sum of the sub-scores.
// Weights are divided by the largest one first so any finite scale gives the same result.
// An all-zero weight vector falls back to the unweighted mean.
func Composite(sub contracts.SubScores, w contracts.Weights) float64 {
	values := sub.Values()
	weights := w.Values()

	largest := 0.0
	for _, v := range weights {
		largest = math.Max(largest, v)
	}

	sum := 0.0
	if largest == 0 {
		for _, v := range values {
			sum += v
		}
		return clamp01(sum / float64(len(values)))
	}

	total := 0.0
	for i, v := range values {
		rel := weights[i] / largest
		total += rel
		sum += rel * v
	}
	return clamp01(sum / total)
}

// Pool returns the n highest-ranked items of an already ranked slice
func Pool(scored []contracts.ScoredItem, n int) []contracts.ScoredItem {
	if n <= 0 {
		return []contracts.ScoredItem{}
	}
	if n > len(scored) {
		n = len(scored)
	}
	out := make([]contracts.ScoredItem, n)
	copy(out, scored[:n])
	return out
}
