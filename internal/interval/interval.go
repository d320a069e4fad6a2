// Package interval implements the leveled spaced-repetition interval
// calculator. It is a pure function of the review outcome; the caller owns
// computing next_review_at = now + interval days.
package interval

import (
	"fmt"
	"math"

	revsched "github.com/example/revsched"
	"github.com/example/revsched/pkg/models"
)

// Latency thresholds in milliseconds. Fast answers stretch the interval,
// slow answers shorten it.
const (
	FastLatencyMs = 2000
	SlowLatencyMs = 5000
)

// LatencyUnknown marks an answer whose response time was not measured
const LatencyUnknown = 0

// DefaultBaseIntervals is the base review interval in days for each mastery
// level 0-7.
var DefaultBaseIntervals = []int{0, 1, 3, 7, 14, 30, 90, 180}

// Model computes the next mastery level and review interval for an item
type Model struct {
	// BaseIntervals is indexed by mastery level. Overridable for
	// experimentation; must have one entry per level.
	BaseIntervals []int
}

// New returns a Model with the default base interval table
func New() *Model {
	return &Model{BaseIntervals: DefaultBaseIntervals}
}

// Next computes the mastery level and review interval that follow one answer.
// A correct answer moves the level up one step, an incorrect answer moves it
// down one step; the level never moves more than one step per review. The
// difficulty modifier is clamped to [0.5, 2.0] before use. latencyMs may be
// LatencyUnknown when the response time was not measured; a negative latency
// is rejected.
func (m *Model) Next(currentLevel int, correct bool, difficultyModifier float64, latencyMs int) (nextLevel, intervalDays int, err error) {
	if currentLevel < models.MinMasteryLevel || currentLevel > models.MaxMasteryLevel {
		return 0, 0, fmt.Errorf("interval: mastery level %d out of range [%d, %d]: %w",
			currentLevel, models.MinMasteryLevel, models.MaxMasteryLevel, revsched.ErrInvalidInput)
	}
	if latencyMs < 0 {
		return 0, 0, fmt.Errorf("interval: negative latency %dms: %w", latencyMs, revsched.ErrInvalidInput)
	}
	if len(m.BaseIntervals) != models.MaxMasteryLevel+1 {
		return 0, 0, fmt.Errorf("interval: base interval table has %d entries, want %d: %w",
			len(m.BaseIntervals), models.MaxMasteryLevel+1, revsched.ErrInvalidInput)
	}

	if correct {
		nextLevel = currentLevel + 1
		if nextLevel > models.MaxMasteryLevel {
			nextLevel = models.MaxMasteryLevel
		}
	} else {
		nextLevel = currentLevel - 1
		if nextLevel < models.MinMasteryLevel {
			nextLevel = models.MinMasteryLevel
		}
	}

	// Level 0 always means immediate re-exposure, whatever the modifiers say.
	if nextLevel == models.MinMasteryLevel {
		return nextLevel, 0, nil
	}

	days := float64(m.BaseIntervals[nextLevel]) * clampModifier(difficultyModifier) * latencyFactor(latencyMs)
	intervalDays = int(math.Round(days))
	if intervalDays < 0 {
		intervalDays = 0
	}
	return nextLevel, intervalDays, nil
}

func clampModifier(mod float64) float64 {
	if mod < models.MinDifficultyModifier {
		return models.MinDifficultyModifier
	}
	if mod > models.MaxDifficultyModifier {
		return models.MaxDifficultyModifier
	}
	return mod
}

// latencyFactor shortens the interval for slow answers and stretches it for
// fast ones.
func latencyFactor(latencyMs int) float64 {
	switch {
	case latencyMs == LatencyUnknown:
		return 1.0
	case latencyMs > SlowLatencyMs:
		return 0.8
	case latencyMs < FastLatencyMs:
		return 1.2
	default:
		return 1.0
	}
}
