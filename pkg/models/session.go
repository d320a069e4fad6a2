package models

import "time"

// SessionType represents different kinds of learning sessions
type SessionType string

const (
	SessionPractice SessionType = "practice"
	SessionQuiz     SessionType = "quiz"
	SessionReview   SessionType = "review"
)

// Valid reports whether st is one of the known session types
func (st SessionType) Valid() bool {
	switch st {
	case SessionPractice, SessionQuiz, SessionReview:
		return true
	}
	return false
}

// SessionState is the lifecycle state of a session
type SessionState string

const (
	SessionOpen      SessionState = "open"
	SessionCompleted SessionState = "completed"
	SessionAbandoned SessionState = "abandoned"
)

// SessionRecord is the persisted record of one learning session. Once the
// state reaches SessionCompleted the record is immutable.
type SessionRecord struct {
	ID                 string             `json:"id" db:"id"`
	LearnerID          int64              `json:"learner_id" db:"learner_id"`
	SessionType        SessionType        `json:"session_type" db:"session_type"`
	State              SessionState       `json:"state" db:"state"`
	InitialTier        Tier               `json:"initial_tier" db:"initial_tier"`
	FinalTier          Tier               `json:"final_tier" db:"final_tier"`
	ItemsPresented     []int64            `json:"items_presented"`
	PerformanceMetrics map[string]float64 `json:"performance_metrics"`
	StartedAt          time.Time          `json:"started_at" db:"started_at"`
	CompletedAt        *time.Time         `json:"completed_at" db:"completed_at"`
}

// AnswerEvent is one answer outcome reported by the consumer during an open
// session. PronunciationScore and ContextScore are optional 0-100 ratings.
type AnswerEvent struct {
	ItemID             int64 `json:"item_id"`
	Correct            bool  `json:"correct"`
	LatencyMs          int   `json:"latency_ms"`
	PronunciationScore *int  `json:"pronunciation_score,omitempty"`
	ContextScore       *int  `json:"context_score,omitempty"`
}

// SessionSummary is returned to the consumer when a session completes
type SessionSummary struct {
	SessionID      string              `json:"session_id"`
	Accuracy       float64             `json:"accuracy"`
	AvgLatencyMs   float64             `json:"avg_latency_ms"`
	InitialTier    Tier                `json:"initial_tier"`
	FinalTier      Tier                `json:"final_tier"`
	ItemsToRevisit []int64             `json:"items_to_revisit"`
	Warnings       []string            `json:"warnings,omitempty"`
	NextBatch      RecommendationBatch `json:"next_batch"`
}
