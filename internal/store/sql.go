package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	revsched "github.com/example/revsched"
	"github.com/example/revsched/pkg/models"
)

// Config selects the backing database
type Config struct {
	// Type is "sqlite" or "postgres". Empty means sqlite.
	Type string
	// DSN is the file path for sqlite or the connection string for postgres.
	DSN string
}

// SQL implements ProgressStore, SessionStore and Catalog over sqlite or
// postgres.
type SQL struct {
	db     *sqlx.DB
	dbType string
}

// Open connects to the configured database and initializes the schema
func Open(cfg Config) (*SQL, error) {
	dbType := cfg.Type
	if dbType == "" {
		dbType = "sqlite"
	}

	var db *sqlx.DB
	var err error
	switch dbType {
	case "sqlite":
		db, err = sqlx.Connect("sqlite3", cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to sqlite: %w", err)
		}
		if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
			return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
		}
		// SQLite doesn't support multiple writers
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	case "postgres":
		db, err = sqlx.Connect("postgres", cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
	default:
		return nil, fmt.Errorf("store: unknown database type %q: %w", dbType, revsched.ErrInvalidInput)
	}

	s := &SQL{db: db, dbType: dbType}
	if err := s.initializeSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database connection
func (s *SQL) Close() error {
	return s.db.Close()
}

func (s *SQL) initializeSchema() error {
	autoincrement := "INTEGER PRIMARY KEY AUTOINCREMENT"
	if s.dbType == "postgres" {
		autoincrement = "BIGSERIAL PRIMARY KEY"
	}

	statements := []string{
		`CREATE TABLE IF NOT EXISTS topics (
			id ` + autoincrement + `,
			name TEXT NOT NULL UNIQUE,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS items (
			id ` + autoincrement + `,
			headword TEXT NOT NULL,
			translation TEXT NOT NULL DEFAULT '',
			topic_id BIGINT NOT NULL,
			difficulty INTEGER NOT NULL DEFAULT 1,
			frequency_rank INTEGER NOT NULL DEFAULT 0,
			pronunciation TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (topic_id) REFERENCES topics(id),
			UNIQUE(headword, topic_id)
		)`,
		`CREATE TABLE IF NOT EXISTS item_progress (
			id ` + autoincrement + `,
			learner_id BIGINT NOT NULL,
			item_id BIGINT NOT NULL,
			mastery_level INTEGER NOT NULL DEFAULT 0,
			next_review_at TIMESTAMP NOT NULL,
			last_reviewed_at TIMESTAMP,
			review_count INTEGER NOT NULL DEFAULT 0,
			success_streak INTEGER NOT NULL DEFAULT 0,
			difficulty_modifier REAL NOT NULL DEFAULT 1.0,
			difficulty_score REAL NOT NULL DEFAULT 0.5,
			avg_latency_ms REAL NOT NULL DEFAULT 0,
			pronunciation_mastery INTEGER NOT NULL DEFAULT 0,
			contextual_mastery INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (item_id) REFERENCES items(id),
			UNIQUE(learner_id, item_id)
		)`,
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			learner_id BIGINT NOT NULL,
			session_type TEXT NOT NULL,
			state TEXT NOT NULL,
			initial_tier TEXT NOT NULL,
			final_tier TEXT NOT NULL DEFAULT '',
			items_presented TEXT NOT NULL DEFAULT '[]',
			performance_metrics TEXT NOT NULL DEFAULT '{}',
			started_at TIMESTAMP NOT NULL,
			completed_at TIMESTAMP
		)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to initialize schema: %w", err)
		}
	}
	return nil
}

// --- ProgressStore ---

// Get returns progress for a specific learner and item
func (s *SQL) Get(learnerID, itemID int64) (*models.ItemProgress, error) {
	var p models.ItemProgress
	err := s.db.Get(&p, "SELECT * FROM item_progress WHERE learner_id = $1 AND item_id = $2", learnerID, itemID)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("progress for learner %d item %d: %w", learnerID, itemID, revsched.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get progress: %w", err)
	}
	return &p, nil
}

// Upsert inserts or overwrites a progress record (last-write-wins)
func (s *SQL) Upsert(p *models.ItemProgress) error {
	query := `
		INSERT INTO item_progress (
			learner_id, item_id, mastery_level, next_review_at, last_reviewed_at,
			review_count, success_streak, difficulty_modifier, difficulty_score,
			avg_latency_ms, pronunciation_mastery, contextual_mastery, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (learner_id, item_id) DO UPDATE SET
			mastery_level = excluded.mastery_level,
			next_review_at = excluded.next_review_at,
			last_reviewed_at = excluded.last_reviewed_at,
			review_count = excluded.review_count,
			success_streak = excluded.success_streak,
			difficulty_modifier = excluded.difficulty_modifier,
			difficulty_score = excluded.difficulty_score,
			avg_latency_ms = excluded.avg_latency_ms,
			pronunciation_mastery = excluded.pronunciation_mastery,
			contextual_mastery = excluded.contextual_mastery,
			updated_at = excluded.updated_at
	`
	_, err := s.db.Exec(query,
		p.LearnerID, p.ItemID, p.MasteryLevel, p.NextReviewAt, p.LastReviewedAt,
		p.ReviewCount, p.SuccessStreak, p.DifficultyModifier, p.DifficultyScore,
		p.AvgLatencyMs, p.PronunciationMastery, p.ContextualMastery, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert progress: %w", err)
	}
	return nil
}

// ListDue returns records due for review, most overdue first
func (s *SQL) ListDue(learnerID int64, now time.Time) ([]models.ItemProgress, error) {
	var out []models.ItemProgress
	query := `
		SELECT * FROM item_progress
		WHERE learner_id = $1 AND next_review_at <= $2
		ORDER BY next_review_at ASC
	`
	if err := s.db.Select(&out, query, learnerID, now); err != nil {
		return nil, fmt.Errorf("failed to list due items: %w", err)
	}
	return out, nil
}

// ListAll returns every progress record for the learner
func (s *SQL) ListAll(learnerID int64) ([]models.ItemProgress, error) {
	var out []models.ItemProgress
	query := "SELECT * FROM item_progress WHERE learner_id = $1 ORDER BY item_id ASC"
	if err := s.db.Select(&out, query, learnerID); err != nil {
		return nil, fmt.Errorf("failed to list progress: %w", err)
	}
	return out, nil
}

// Reset restores one record to first-exposure defaults
func (s *SQL) Reset(learnerID, itemID int64, now time.Time) error {
	p, err := s.Get(learnerID, itemID)
	if err != nil {
		return err
	}
	p.Reset(now)
	return s.Upsert(p)
}

// --- SessionStore ---

type sessionRow struct {
	ID                 string     `db:"id"`
	LearnerID          int64      `db:"learner_id"`
	SessionType        string     `db:"session_type"`
	State              string     `db:"state"`
	InitialTier        string     `db:"initial_tier"`
	FinalTier          string     `db:"final_tier"`
	ItemsPresented     string     `db:"items_presented"`
	PerformanceMetrics string     `db:"performance_metrics"`
	StartedAt          time.Time  `db:"started_at"`
	CompletedAt        *time.Time `db:"completed_at"`
}

func sessionToRow(rec *models.SessionRecord) (*sessionRow, error) {
	items, err := json.Marshal(rec.ItemsPresented)
	if err != nil {
		return nil, fmt.Errorf("failed to encode presented items: %w", err)
	}
	metrics := rec.PerformanceMetrics
	if metrics == nil {
		metrics = map[string]float64{}
	}
	m, err := json.Marshal(metrics)
	if err != nil {
		return nil, fmt.Errorf("failed to encode performance metrics: %w", err)
	}
	return &sessionRow{
		ID:                 rec.ID,
		LearnerID:          rec.LearnerID,
		SessionType:        string(rec.SessionType),
		State:              string(rec.State),
		InitialTier:        string(rec.InitialTier),
		FinalTier:          string(rec.FinalTier),
		ItemsPresented:     string(items),
		PerformanceMetrics: string(m),
		StartedAt:          rec.StartedAt,
		CompletedAt:        rec.CompletedAt,
	}, nil
}

func (r *sessionRow) toRecord() (*models.SessionRecord, error) {
	rec := &models.SessionRecord{
		ID:          r.ID,
		LearnerID:   r.LearnerID,
		SessionType: models.SessionType(r.SessionType),
		State:       models.SessionState(r.State),
		InitialTier: models.Tier(r.InitialTier),
		FinalTier:   models.Tier(r.FinalTier),
		StartedAt:   r.StartedAt,
		CompletedAt: r.CompletedAt,
	}
	if err := json.Unmarshal([]byte(r.ItemsPresented), &rec.ItemsPresented); err != nil {
		return nil, fmt.Errorf("failed to decode presented items: %w", err)
	}
	if err := json.Unmarshal([]byte(r.PerformanceMetrics), &rec.PerformanceMetrics); err != nil {
		return nil, fmt.Errorf("failed to decode performance metrics: %w", err)
	}
	return rec, nil
}

// Create inserts a new session record
func (s *SQL) Create(rec *models.SessionRecord) error {
	row, err := sessionToRow(rec)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO sessions (
			id, learner_id, session_type, state, initial_tier, final_tier,
			items_presented, performance_metrics, started_at, completed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err = s.db.Exec(query,
		row.ID, row.LearnerID, row.SessionType, row.State, row.InitialTier,
		row.FinalTier, row.ItemsPresented, row.PerformanceMetrics, row.StartedAt, row.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

// Update overwrites an existing session record
func (s *SQL) Update(rec *models.SessionRecord) error {
	row, err := sessionToRow(rec)
	if err != nil {
		return err
	}
	query := `
		UPDATE sessions SET
			state = $1,
			final_tier = $2,
			items_presented = $3,
			performance_metrics = $4,
			completed_at = $5
		WHERE id = $6
	`
	res, err := s.db.Exec(query, row.State, row.FinalTier, row.ItemsPresented, row.PerformanceMetrics, row.CompletedAt, row.ID)
	if err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("session %s: %w", rec.ID, revsched.ErrNotFound)
	}
	return nil
}

// GetSession returns the session by ID. Named to avoid colliding with the
// ProgressStore Get on the shared SQL receiver; use Sessions() for the
// SessionStore view.
func (s *SQL) GetSession(id string) (*models.SessionRecord, error) {
	var row sessionRow
	err := s.db.Get(&row, "SELECT * FROM sessions WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("session %s: %w", id, revsched.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return row.toRecord()
}

// Sessions returns the SessionStore view of this store
func (s *SQL) Sessions() SessionStore {
	return sqlSessions{s}
}

type sqlSessions struct{ s *SQL }

func (w sqlSessions) Create(rec *models.SessionRecord) error { return w.s.Create(rec) }
func (w sqlSessions) Update(rec *models.SessionRecord) error { return w.s.Update(rec) }
func (w sqlSessions) Get(id string) (*models.SessionRecord, error) {
	return w.s.GetSession(id)
}

// --- Catalog ---

// Items returns the full catalog ordered by ID
func (s *SQL) Items() ([]models.Item, error) {
	var out []models.Item
	if err := s.db.Select(&out, "SELECT * FROM items ORDER BY id ASC"); err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	return out, nil
}

// Item returns one catalog entry
func (s *SQL) Item(id int64) (*models.Item, error) {
	var item models.Item
	err := s.db.Get(&item, "SELECT * FROM items WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("item %d: %w", id, revsched.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get item: %w", err)
	}
	return &item, nil
}

// UpsertItem inserts or updates a catalog entry, keyed on (headword, topic)
func (s *SQL) UpsertItem(item *models.Item) error {
	query := `
		INSERT INTO items (headword, translation, topic_id, difficulty, frequency_rank, pronunciation, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		ON CONFLICT (headword, topic_id) DO UPDATE SET
			translation = excluded.translation,
			difficulty = excluded.difficulty,
			frequency_rank = excluded.frequency_rank,
			pronunciation = excluded.pronunciation,
			updated_at = CURRENT_TIMESTAMP
	`
	if _, err := s.db.Exec(query, item.Headword, item.Translation, item.TopicID, item.Difficulty, item.FrequencyRank, item.Pronunciation); err != nil {
		return fmt.Errorf("failed to upsert item: %w", err)
	}
	var id int64
	err := s.db.Get(&id, "SELECT id FROM items WHERE headword = $1 AND topic_id = $2", item.Headword, item.TopicID)
	if err != nil {
		return fmt.Errorf("failed to read back item id: %w", err)
	}
	item.ID = id
	return nil
}

// Topics returns all topics ordered by name
func (s *SQL) Topics() ([]models.Topic, error) {
	var out []models.Topic
	if err := s.db.Select(&out, "SELECT * FROM topics ORDER BY name ASC"); err != nil {
		return nil, fmt.Errorf("failed to list topics: %w", err)
	}
	return out, nil
}

// EnsureTopic returns the topic's ID, creating the topic if it is missing
func (s *SQL) EnsureTopic(name string) (int64, error) {
	var id int64
	err := s.db.Get(&id, "SELECT id FROM topics WHERE name = $1", name)
	if err == nil {
		return id, nil
	}
	if err != sql.ErrNoRows {
		return 0, fmt.Errorf("failed to look up topic: %w", err)
	}
	if _, err := s.db.Exec("INSERT INTO topics (name) VALUES ($1)", name); err != nil {
		return 0, fmt.Errorf("failed to create topic: %w", err)
	}
	if err := s.db.Get(&id, "SELECT id FROM topics WHERE name = $1", name); err != nil {
		return 0, fmt.Errorf("failed to read back topic id: %w", err)
	}
	return id, nil
}
