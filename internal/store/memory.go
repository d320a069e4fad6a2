package store

import (
	"fmt"
	"sort"
	"sync"
	"time"

	revsched "github.com/example/revsched"
	"github.com/example/revsched/pkg/models"
)

// Memory is an in-memory store implementing ProgressStore, SessionStore and
// Catalog. It is safe for concurrent use and intended for tests and demos.
type Memory struct {
	mu        sync.RWMutex
	progress  map[progressKey]models.ItemProgress
	sessions  map[string]models.SessionRecord
	items     map[int64]models.Item
	topics    map[string]int64
	nextItem  int64
	nextTopic int64
}

type progressKey struct {
	learnerID int64
	itemID    int64
}

// NewMemory returns an empty in-memory store
func NewMemory() *Memory {
	return &Memory{
		progress: make(map[progressKey]models.ItemProgress),
		sessions: make(map[string]models.SessionRecord),
		items:    make(map[int64]models.Item),
		topics:   make(map[string]int64),
	}
}

// Get returns progress for a specific learner and item
func (m *Memory) Get(learnerID, itemID int64) (*models.ItemProgress, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.progress[progressKey{learnerID, itemID}]
	if !ok {
		return nil, fmt.Errorf("progress for learner %d item %d: %w", learnerID, itemID, revsched.ErrNotFound)
	}
	cp := p
	return &cp, nil
}

// Upsert inserts or overwrites a progress record
func (m *Memory) Upsert(p *models.ItemProgress) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.progress[progressKey{p.LearnerID, p.ItemID}] = *p
	return nil
}

// ListDue returns records due at the given time, most overdue first
func (m *Memory) ListDue(learnerID int64, now time.Time) ([]models.ItemProgress, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.ItemProgress
	for k, p := range m.progress {
		if k.learnerID == learnerID && p.Due(now) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].NextReviewAt.Equal(out[j].NextReviewAt) {
			return out[i].NextReviewAt.Before(out[j].NextReviewAt)
		}
		return out[i].ItemID < out[j].ItemID
	})
	return out, nil
}

// ListAll returns every progress record for the learner, ordered by item ID
func (m *Memory) ListAll(learnerID int64) ([]models.ItemProgress, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.ItemProgress
	for k, p := range m.progress {
		if k.learnerID == learnerID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ItemID < out[j].ItemID })
	return out, nil
}

// Reset restores one record to first-exposure defaults
func (m *Memory) Reset(learnerID, itemID int64, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := progressKey{learnerID, itemID}
	p, ok := m.progress[key]
	if !ok {
		return fmt.Errorf("progress for learner %d item %d: %w", learnerID, itemID, revsched.ErrNotFound)
	}
	p.Reset(now)
	m.progress[key] = p
	return nil
}

// Create inserts a new session record
func (m *Memory) Create(rec *models.SessionRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[rec.ID] = cloneSession(rec)
	return nil
}

// Update overwrites an existing session record
func (m *Memory) Update(rec *models.SessionRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[rec.ID]; !ok {
		return fmt.Errorf("session %s: %w", rec.ID, revsched.ErrNotFound)
	}
	m.sessions[rec.ID] = cloneSession(rec)
	return nil
}

// GetSession returns the session by ID
func (m *Memory) GetSession(id string) (*models.SessionRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("session %s: %w", id, revsched.ErrNotFound)
	}
	cp := cloneSession(&rec)
	return &cp, nil
}

// Sessions returns the SessionStore view of this store
func (m *Memory) Sessions() SessionStore {
	return memorySessions{m}
}

type memorySessions struct{ m *Memory }

func (w memorySessions) Create(rec *models.SessionRecord) error { return w.m.Create(rec) }
func (w memorySessions) Update(rec *models.SessionRecord) error { return w.m.Update(rec) }
func (w memorySessions) Get(id string) (*models.SessionRecord, error) {
	return w.m.GetSession(id)
}

func cloneSession(rec *models.SessionRecord) models.SessionRecord {
	out := *rec
	out.ItemsPresented = append([]int64(nil), rec.ItemsPresented...)
	if rec.PerformanceMetrics != nil {
		out.PerformanceMetrics = make(map[string]float64, len(rec.PerformanceMetrics))
		for k, v := range rec.PerformanceMetrics {
			out.PerformanceMetrics[k] = v
		}
	}
	if rec.CompletedAt != nil {
		t := *rec.CompletedAt
		out.CompletedAt = &t
	}
	return out
}

// Items returns the full catalog ordered by ID
func (m *Memory) Items() ([]models.Item, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Item, 0, len(m.items))
	for _, it := range m.items {
		out = append(out, it)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Item returns one catalog entry
func (m *Memory) Item(id int64) (*models.Item, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	it, ok := m.items[id]
	if !ok {
		return nil, fmt.Errorf("item %d: %w", id, revsched.ErrNotFound)
	}
	cp := it
	return &cp, nil
}

// UpsertItem inserts or updates a catalog entry
func (m *Memory) UpsertItem(item *models.Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if item.ID == 0 {
		m.nextItem++
		item.ID = m.nextItem
	} else if item.ID > m.nextItem {
		m.nextItem = item.ID
	}
	m.items[item.ID] = *item
	return nil
}

// Topics returns all topics ordered by name
func (m *Memory) Topics() ([]models.Topic, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Topic, 0, len(m.topics))
	for name, id := range m.topics {
		out = append(out, models.Topic{ID: id, Name: name})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// EnsureTopic returns the topic's ID, creating the topic if it is missing
func (m *Memory) EnsureTopic(name string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if id, ok := m.topics[name]; ok {
		return id, nil
	}
	m.nextTopic++
	m.topics[name] = m.nextTopic
	return m.nextTopic, nil
}
