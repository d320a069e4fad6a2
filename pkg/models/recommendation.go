package models

import "time"

// Reason explains why an item was recommended
type Reason string

const (
	ReasonDueForReview Reason = "due_for_review"
	ReasonWeakArea     Reason = "weak_area"
	ReasonNewAtTier    Reason = "new_at_tier"
)

// Recommendation is one scored candidate in a batch. Priority is used only
// for ordering and selection; it is never persisted as truth.
type Recommendation struct {
	ItemID   int64   `json:"item_id"`
	Reason   Reason  `json:"reason"`
	Priority float64 `json:"priority"` // [0, 1]
}

// RecommendationBatch is an ordered candidate list for one learner. It may
// hold up to twice the session target so the consumer can let the learner
// swap selections before committing.
type RecommendationBatch struct {
	LearnerID   int64            `json:"learner_id"`
	GeneratedAt time.Time        `json:"generated_at"`
	Items       []Recommendation `json:"items"`
}

// Contains reports whether the batch includes the given item
func (b *RecommendationBatch) Contains(itemID int64) bool {
	for _, r := range b.Items {
		if r.ItemID == itemID {
			return true
		}
	}
	return false
}
