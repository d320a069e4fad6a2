// Package recommend composes the prioritized list of items a learner should
// see next, blending overdue reviews, weak-area items and new items at the
// learner's current tier.
package recommend

import (
	"fmt"
	"math/rand"
	"sort"
	"time"

	revsched "github.com/example/revsched"
	"github.com/example/revsched/pkg/models"
)

// Scoring bonuses. These reproduce the tuned additive weights of the
// original engine; Score is the single place to swap them for a learned
// model later.
const (
	bonusTierMatch     = 0.3
	bonusNeedsWork     = 0.4
	bonusMaintenance   = -0.2
	bonusSlowLatency   = 0.2
	bonusWeakArea      = 0.5
	bonusHighFrequency = 0.2
	bonusSessionType   = 0.2
)

// Per-item mastery fractions steering the session-type bonus
const (
	reviewMasteryCeiling = 0.7 // review sessions favor items below this
	quizMasteryFloor     = 0.5 // quiz sessions favor items above this
)

// slowAvgLatencyMs marks an item the learner has been consistently slow on
const slowAvgLatencyMs = 5000

// needsWorkScore is the per-item difficulty score at and above which an item
// with enough reviews counts as needing improvement; maintenanceScore is the
// score at and below which a mastered item is in maintenance.
const (
	needsWorkScore   = 0.6
	maintenanceScore = 0.3
)

// Weight of the priority score versus profile confidence in the final order
const (
	priorityWeight   = 0.7
	confidenceWeight = 0.3
)

// Config configures a Generator. Zero values produce sensible defaults.
type Config struct {
	// FrequencyCutoff is the corpus frequency rank at or below which an
	// item earns the high-frequency bonus. Zero means 1000.
	FrequencyCutoff int
	// Rand is used to sample among new items before scoring. Nil disables
	// sampling jitter entirely, giving fully stable catalog order. Pass a
	// seeded source for reproducible jitter.
	Rand *rand.Rand
}

// Generator produces recommendation batches
type Generator struct {
	frequencyCutoff int
	rng             *rand.Rand
}

// New creates a Generator from the given config
func New(cfg Config) *Generator {
	cutoff := cfg.FrequencyCutoff
	if cutoff == 0 {
		cutoff = 1000
	}
	return &Generator{frequencyCutoff: cutoff, rng: cfg.Rand}
}

// Input is one recommendation request: the learner's full progress snapshot,
// the item catalog, and the current difficulty profile.
type Input struct {
	Profile     models.DifficultyProfile
	Progress    []models.ItemProgress
	Items       []models.Item
	SessionType models.SessionType
	TargetCount int
	Now         time.Time
}

// Recommend builds a prioritized batch of at most 2×TargetCount candidates:
// due items first, then weak-area items, then unseen items at the learner's
// tier, re-ranked by descending priority. Identical inputs (including the
// generator's seed) produce identical batches. An empty candidate set is a
// normal empty batch, not an error.
func (g *Generator) Recommend(in Input) (models.RecommendationBatch, error) {
	if in.TargetCount <= 0 {
		return models.RecommendationBatch{}, fmt.Errorf("recommend: target count %d must be positive: %w", in.TargetCount, revsched.ErrInvalidInput)
	}
	if !in.SessionType.Valid() {
		return models.RecommendationBatch{}, fmt.Errorf("recommend: unknown session type %q: %w", in.SessionType, revsched.ErrInvalidInput)
	}

	itemsByID := make(map[int64]models.Item, len(in.Items))
	for _, it := range in.Items {
		itemsByID[it.ID] = it
	}
	weakTopics := make(map[int64]bool, len(in.Profile.WeakAreas))
	for _, topicID := range in.Profile.WeakAreas {
		weakTopics[topicID] = true
	}

	type candidate struct {
		rec   models.Recommendation
		order int // stable input order for tie-breaking
	}
	var candidates []candidate
	seen := make(map[int64]bool)

	add := func(itemID int64, reason models.Reason, progress *models.ItemProgress) {
		if seen[itemID] {
			return
		}
		seen[itemID] = true
		item, ok := itemsByID[itemID]
		if !ok {
			// Progress for an item no longer in the catalog; skip it.
			return
		}
		candidates = append(candidates, candidate{
			rec: models.Recommendation{
				ItemID:   itemID,
				Reason:   reason,
				Priority: g.score(item, progress, in.Profile, weakTopics, in.SessionType),
			},
			order: len(candidates),
		})
	}

	// 1. Due items, most overdue first.
	progressByItem := make(map[int64]*models.ItemProgress, len(in.Progress))
	var due []*models.ItemProgress
	for i := range in.Progress {
		p := &in.Progress[i]
		progressByItem[p.ItemID] = p
		if p.Due(in.Now) {
			due = append(due, p)
		}
	}
	sort.SliceStable(due, func(i, j int) bool {
		return due[i].NextReviewAt.Before(due[j].NextReviewAt)
	})
	for _, p := range due {
		add(p.ItemID, models.ReasonDueForReview, p)
	}

	// 2. Seen items in weak topics that are not yet due.
	for i := range in.Progress {
		p := &in.Progress[i]
		item, ok := itemsByID[p.ItemID]
		if ok && weakTopics[item.TopicID] {
			add(p.ItemID, models.ReasonWeakArea, p)
		}
	}

	// 3. Unseen items whose intrinsic difficulty matches the current tier.
	var fresh []models.Item
	for _, it := range in.Items {
		if progressByItem[it.ID] == nil && models.TierForDifficulty(it.Difficulty) == in.Profile.CurrentTier {
			fresh = append(fresh, it)
		}
	}
	if g.rng != nil {
		g.rng.Shuffle(len(fresh), func(i, j int) {
			fresh[i], fresh[j] = fresh[j], fresh[i]
		})
	}
	for _, it := range fresh {
		add(it.ID, models.ReasonNewAtTier, nil)
	}

	confidence := in.Profile.ConfidenceScore
	sort.SliceStable(candidates, func(i, j int) bool {
		si := candidates[i].rec.Priority*priorityWeight + confidence*confidenceWeight
		sj := candidates[j].rec.Priority*priorityWeight + confidence*confidenceWeight
		if si != sj {
			return si > sj
		}
		return candidates[i].order < candidates[j].order
	})

	limit := 2 * in.TargetCount
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	batch := models.RecommendationBatch{
		LearnerID:   in.Profile.LearnerID,
		GeneratedAt: in.Now,
		Items:       make([]models.Recommendation, len(candidates)),
	}
	for i, c := range candidates {
		batch.Items[i] = c.rec
	}
	return batch, nil
}

// score accumulates the additive priority bonuses for one candidate and
// clamps the result to [0, 1]. progress is nil for unseen items.
func (g *Generator) score(item models.Item, progress *models.ItemProgress, profile models.DifficultyProfile, weakTopics map[int64]bool, sessionType models.SessionType) float64 {
	var score float64

	if models.TierForDifficulty(item.Difficulty) == profile.CurrentTier {
		score += bonusTierMatch
	}
	if weakTopics[item.TopicID] {
		score += bonusWeakArea
	}
	if item.FrequencyRank > 0 && item.FrequencyRank <= g.frequencyCutoff {
		score += bonusHighFrequency
	}

	var masteryFrac float64
	if progress != nil {
		masteryFrac = float64(progress.MasteryLevel) / float64(models.MaxMasteryLevel)
		if progress.ReviewCount > 2 && (progress.MasteryLevel < 3 || progress.DifficultyScore >= needsWorkScore) {
			score += bonusNeedsWork
		}
		if progress.MasteryLevel >= 6 && progress.DifficultyScore <= maintenanceScore {
			score += bonusMaintenance
		}
		if progress.AvgLatencyMs > slowAvgLatencyMs {
			score += bonusSlowLatency
		}
	}

	switch sessionType {
	case models.SessionReview:
		if masteryFrac < reviewMasteryCeiling {
			score += bonusSessionType
		}
	case models.SessionQuiz:
		if masteryFrac > quizMasteryFloor {
			score += bonusSessionType
		}
	}

	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}
