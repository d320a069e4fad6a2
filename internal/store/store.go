// Package store defines the persistence contracts the scheduler depends on
// and provides a sqlx-backed reference implementation (sqlite or postgres)
// plus an in-memory store for tests and demos.
//
// The scheduler owns no storage itself; these interfaces are its only I/O
// boundary. Upserts are last-write-wins on a single record, so at-least-once
// delivery of the same update is harmless.
package store

import (
	"time"

	"github.com/example/revsched/pkg/models"
)

// ProgressStore persists per-(learner, item) progress records
type ProgressStore interface {
	// Get returns the record for one learner and item, or ErrNotFound.
	Get(learnerID, itemID int64) (*models.ItemProgress, error)
	// Upsert inserts or overwrites the record (last-write-wins).
	Upsert(p *models.ItemProgress) error
	// ListDue returns records with next_review_at <= now, most overdue first.
	ListDue(learnerID int64, now time.Time) ([]models.ItemProgress, error)
	// ListAll returns every record for the learner.
	ListAll(learnerID int64) ([]models.ItemProgress, error)
	// Reset restores one record to first-exposure defaults. Records are
	// never deleted; this is the learner-initiated reset.
	Reset(learnerID, itemID int64, now time.Time) error
}

// SessionStore persists session records
type SessionStore interface {
	Create(rec *models.SessionRecord) error
	Update(rec *models.SessionRecord) error
	// Get returns the session by ID, or ErrNotFound.
	Get(id string) (*models.SessionRecord, error)
}

// Catalog is the read-mostly item catalog the recommender draws from
type Catalog interface {
	Items() ([]models.Item, error)
	// Item returns one catalog entry, or ErrNotFound.
	Item(id int64) (*models.Item, error)
	UpsertItem(item *models.Item) error
	Topics() ([]models.Topic, error)
	// EnsureTopic returns the ID for the named topic, creating it if needed.
	EnsureTopic(name string) (int64, error)
}
