package models

import "time"

// Mastery level bounds. Level 0 means the item is new or was just missed;
// level 7 means fully mastered.
const (
	MinMasteryLevel = 0
	MaxMasteryLevel = 7
)

// Per-item difficulty modifier bounds. The modifier multiplies the base
// review interval.
const (
	MinDifficultyModifier = 0.5
	MaxDifficultyModifier = 2.0
)

// Per-item adaptive difficulty score bounds.
const (
	MinDifficultyScore = 0.1
	MaxDifficultyScore = 0.9
)

// ItemProgress tracks one learner's scheduling state for one item
type ItemProgress struct {
	ID                   int64      `json:"id" db:"id"`
	LearnerID            int64      `json:"learner_id" db:"learner_id"`
	ItemID               int64      `json:"item_id" db:"item_id"`
	MasteryLevel         int        `json:"mastery_level" db:"mastery_level"` // 0-7
	NextReviewAt         time.Time  `json:"next_review_at" db:"next_review_at"`
	LastReviewedAt       *time.Time `json:"last_reviewed_at" db:"last_reviewed_at"`
	ReviewCount          int        `json:"review_count" db:"review_count"`
	SuccessStreak        int        `json:"success_streak" db:"success_streak"`
	DifficultyModifier   float64    `json:"difficulty_modifier" db:"difficulty_modifier"` // [0.5, 2.0]
	DifficultyScore      float64    `json:"difficulty_score" db:"difficulty_score"`       // [0.1, 0.9]
	AvgLatencyMs         float64    `json:"avg_latency_ms" db:"avg_latency_ms"`
	PronunciationMastery int        `json:"pronunciation_mastery" db:"pronunciation_mastery"` // 0-100
	ContextualMastery    int        `json:"contextual_mastery" db:"contextual_mastery"`       // 0-100
	CreatedAt            time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at" db:"updated_at"`
}

// NewItemProgress returns the default record created on a learner's first
// exposure to an item: level 0, due immediately.
func NewItemProgress(learnerID, itemID int64, now time.Time) *ItemProgress {
	return &ItemProgress{
		LearnerID:          learnerID,
		ItemID:             itemID,
		MasteryLevel:       MinMasteryLevel,
		NextReviewAt:       now,
		DifficultyModifier: 1.0,
		DifficultyScore:    0.5,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
}

// Reset restores the record to first-exposure defaults. Records are never
// hard-deleted; a learner-initiated reset is the only way back to zero.
func (p *ItemProgress) Reset(now time.Time) {
	p.MasteryLevel = MinMasteryLevel
	p.NextReviewAt = now
	p.LastReviewedAt = nil
	p.ReviewCount = 0
	p.SuccessStreak = 0
	p.DifficultyModifier = 1.0
	p.DifficultyScore = 0.5
	p.AvgLatencyMs = 0
	p.PronunciationMastery = 0
	p.ContextualMastery = 0
	p.UpdatedAt = now
}

// Due reports whether the item is due for review at the given time
func (p *ItemProgress) Due(now time.Time) bool {
	return !p.NextReviewAt.After(now)
}
