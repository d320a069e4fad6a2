// Package difficulty implements the adaptive difficulty engine: the coarse
// learner tier (beginner/intermediate/advanced) and the fine-grained
// per-item difficulty score.
package difficulty

import (
	"fmt"

	revsched "github.com/example/revsched"
	"github.com/example/revsched/pkg/models"
)

// Tier thresholds on the blended performance score
const (
	PromoteThreshold = 0.8
	DemoteThreshold  = 0.4
)

// FastTierLatencyMs is the session-average latency under which the small
// speed bonus applies when evaluating a tier change.
const FastTierLatencyMs = 3000

// Per-item score latency thresholds
const (
	fastItemLatencyMs = 3000
	slowItemLatencyMs = 10000
)

// Adapter evaluates tier transitions from aggregate performance signals
type Adapter struct{}

// New returns a tier adapter
func New() *Adapter {
	return &Adapter{}
}

// NextTier evaluates one tier transition from session-aggregate signals.
// avgPerformance and errorRate are fractions in [0, 1]; avgLatencyMs is the
// session's mean response time. The tier moves at most one step per call,
// however extreme the score.
func (a *Adapter) NextTier(avgPerformance, avgLatencyMs, errorRate float64, current models.Tier) (models.Tier, error) {
	if avgPerformance < 0 || avgPerformance > 1 {
		return current, fmt.Errorf("difficulty: performance %.3f out of range [0, 1]: %w", avgPerformance, revsched.ErrInvalidInput)
	}
	if errorRate < 0 || errorRate > 1 {
		return current, fmt.Errorf("difficulty: error rate %.3f out of range [0, 1]: %w", errorRate, revsched.ErrInvalidInput)
	}
	if avgLatencyMs < 0 {
		return current, fmt.Errorf("difficulty: negative latency %.0fms: %w", avgLatencyMs, revsched.ErrInvalidInput)
	}
	if !current.Valid() {
		return current, fmt.Errorf("difficulty: unknown tier %q: %w", current, revsched.ErrInvalidInput)
	}

	score := PerformanceScore(avgPerformance, avgLatencyMs, errorRate)
	switch {
	case score > PromoteThreshold:
		return current.Promote(), nil
	case score < DemoteThreshold:
		return current.Demote(), nil
	default:
		return current, nil
	}
}

// PerformanceScore blends accuracy, error rate and speed into one signal.
// The weights are tuned constants, not a principled model.
func PerformanceScore(avgPerformance, avgLatencyMs, errorRate float64) float64 {
	score := avgPerformance*0.6 + (1-errorRate)*0.3
	if avgLatencyMs < FastTierLatencyMs {
		score += 0.1
	}
	return score
}

// UpdateItemScore moves an item's difficulty score after one answer. The
// score drifts up when the learner struggles and down when they succeed,
// always staying within [0.1, 0.9]. A drifted stored value outside that
// range is pulled back in by the final clamp.
func UpdateItemScore(currentScore float64, correct bool, latencyMs int) float64 {
	delta := 0.10
	if correct {
		delta = -0.05
	}
	switch {
	case latencyMs > 0 && latencyMs < fastItemLatencyMs:
		delta -= 0.02
	case latencyMs > slowItemLatencyMs:
		delta += 0.02
	}
	return clampScore(currentScore + delta)
}

func clampScore(s float64) float64 {
	if s < models.MinDifficultyScore {
		return models.MinDifficultyScore
	}
	if s > models.MaxDifficultyScore {
		return models.MaxDifficultyScore
	}
	return s
}
