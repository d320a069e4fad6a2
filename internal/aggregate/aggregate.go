// Package aggregate reduces a learner's raw progress records into the
// derived views the rest of the scheduler works from: collection-level
// statistics, weak areas and the difficulty profile. Everything here is a
// pure reduction over the input slice; nothing is persisted.
package aggregate

import (
	"sort"
	"time"

	"github.com/example/revsched/pkg/models"
)

// MasteredLevel is the mastery level at and above which an item counts as
// mastered.
const MasteredLevel = 6

// WeakAreaMaxLevel is the mean mastery level below which a topic counts as
// weak.
const WeakAreaMaxLevel = 3.0

// WeakAreaMinReviews excludes items too new to judge: an item contributes to
// weak-area detection only after more than this many reviews.
const WeakAreaMinReviews = 2

// MaxWeakAreas caps the weak-area list so downstream recommendation
// weighting stays stable.
const MaxWeakAreas = 3

// velocityWindow is the look-back for the mastered-this-week count
const velocityWindow = 7 * 24 * time.Hour

// Confidence score coefficients. Tunable constants; the 0.95 cap is an
// invariant, the rest is heuristic.
const (
	ConfidenceCap       = 0.95
	confidenceBase      = 0.3
	confidencePerItem   = 0.04
	confidenceItemCap   = 10
	confidenceRetention = 0.25
	retentionSaturation = 5.0
)

// Summarize reduces progress records to a LearnerAggregate. An empty input
// yields all zeros.
func Summarize(records []models.ItemProgress) models.LearnerAggregate {
	var agg models.LearnerAggregate
	agg.TotalItems = len(records)
	if agg.TotalItems == 0 {
		return agg
	}

	var streakSum int
	for _, p := range records {
		switch {
		case p.MasteryLevel >= MasteredLevel:
			agg.MasteredItems++
		case p.MasteryLevel == models.MinMasteryLevel:
			agg.NewItems++
		default:
			agg.LearningItems++
		}
		streakSum += p.SuccessStreak
	}
	agg.CompletionPercentage = float64(agg.MasteredItems) / float64(agg.TotalItems) * 100
	agg.AverageRetention = float64(streakSum) / float64(agg.TotalItems)
	return agg
}

// WeakAreas returns up to MaxWeakAreas topic IDs where the learner's mean
// mastery is low despite sufficient attempts, weakest first. topicOf maps an
// item ID to its topic; items it does not know are skipped.
func WeakAreas(records []models.ItemProgress, topicOf map[int64]int64) []int64 {
	type bucket struct {
		topicID  int64
		levelSum int
		count    int
	}
	buckets := make(map[int64]*bucket)
	for _, p := range records {
		if p.ReviewCount <= WeakAreaMinReviews {
			continue
		}
		topicID, ok := topicOf[p.ItemID]
		if !ok {
			continue
		}
		b := buckets[topicID]
		if b == nil {
			b = &bucket{topicID: topicID}
			buckets[topicID] = b
		}
		b.levelSum += p.MasteryLevel
		b.count++
	}

	var weak []*bucket
	for _, b := range buckets {
		if float64(b.levelSum)/float64(b.count) < WeakAreaMaxLevel {
			weak = append(weak, b)
		}
	}
	sort.Slice(weak, func(i, j int) bool {
		mi := float64(weak[i].levelSum) / float64(weak[i].count)
		mj := float64(weak[j].levelSum) / float64(weak[j].count)
		if mi != mj {
			return mi < mj
		}
		return weak[i].topicID < weak[j].topicID
	})

	if len(weak) > MaxWeakAreas {
		weak = weak[:MaxWeakAreas]
	}
	out := make([]int64, len(weak))
	for i, b := range weak {
		out[i] = b.topicID
	}
	return out
}

// LearningVelocity counts items that reached mastery within the past week
func LearningVelocity(records []models.ItemProgress, now time.Time) int {
	cutoff := now.Add(-velocityWindow)
	var n int
	for _, p := range records {
		if p.MasteryLevel >= MasteredLevel && p.LastReviewedAt != nil && p.LastReviewedAt.After(cutoff) {
			n++
		}
	}
	return n
}

// Confidence estimates how much the tier and weak-area signals can be
// trusted. It grows with the number of items tracked and the learner's
// average retention, and never exceeds ConfidenceCap.
func Confidence(totalItems int, averageRetention float64) float64 {
	items := float64(totalItems)
	if items > confidenceItemCap {
		items = confidenceItemCap
	}
	retention := averageRetention / retentionSaturation
	if retention > 1 {
		retention = 1
	}
	if retention < 0 {
		retention = 0
	}
	score := confidenceBase + confidencePerItem*items + confidenceRetention*retention
	if score > ConfidenceCap {
		score = ConfidenceCap
	}
	return score
}

// Profile assembles the full difficulty profile for one learner
func Profile(learnerID int64, records []models.ItemProgress, topicOf map[int64]int64, currentTier models.Tier, now time.Time) models.DifficultyProfile {
	agg := Summarize(records)
	return models.DifficultyProfile{
		LearnerID:        learnerID,
		CurrentTier:      currentTier,
		LearningVelocity: LearningVelocity(records, now),
		WeakAreas:        WeakAreas(records, topicOf),
		ConfidenceScore:  Confidence(agg.TotalItems, agg.AverageRetention),
	}
}
