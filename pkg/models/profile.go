package models

// LearnerAggregate summarizes a learner's per-item records. It is derived on
// demand and never persisted.
type LearnerAggregate struct {
	TotalItems           int     `json:"total_items"`
	MasteredItems        int     `json:"mastered_items"` // mastery level >= 6
	LearningItems        int     `json:"learning_items"` // 0 < level < 6
	NewItems             int     `json:"new_items"`      // level 0
	CompletionPercentage float64 `json:"completion_percentage"`
	AverageRetention     float64 `json:"average_retention"` // mean success streak
}

// DifficultyProfile captures a learner's current standing, recomputed each
// analysis cycle.
type DifficultyProfile struct {
	LearnerID        int64   `json:"learner_id"`
	CurrentTier      Tier    `json:"current_tier"`
	LearningVelocity int     `json:"learning_velocity"` // items mastered this week
	WeakAreas        []int64 `json:"weak_areas"`        // topic IDs, weakest first
	ConfidenceScore  float64 `json:"confidence_score"`  // [0, 0.95]
}
