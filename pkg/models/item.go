package models

import "time"

// Item represents a vocabulary item in the catalog
type Item struct {
	ID            int64     `json:"id" db:"id"`
	Headword      string    `json:"headword" db:"headword"`
	Translation   string    `json:"translation" db:"translation"`
	TopicID       int64     `json:"topic_id" db:"topic_id"`
	Difficulty    int       `json:"difficulty" db:"difficulty"`         // 1-5 intrinsic difficulty
	FrequencyRank int       `json:"frequency_rank" db:"frequency_rank"` // 1 = most common, 0 = unknown
	Pronunciation string    `json:"pronunciation" db:"pronunciation"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}

// Topic groups items into a collection
type Topic struct {
	ID        int64     `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
