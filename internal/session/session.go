// Package session orchestrates learning sessions: it plans a recommendation
// batch, holds the batch stable for the session's duration, folds each
// answer into the progress store through the interval model and difficulty
// adapter, and finalizes the session record on completion.
package session

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	revsched "github.com/example/revsched"
	"github.com/example/revsched/internal/aggregate"
	"github.com/example/revsched/internal/difficulty"
	"github.com/example/revsched/internal/interval"
	"github.com/example/revsched/internal/logger"
	"github.com/example/revsched/internal/recommend"
	"github.com/example/revsched/internal/store"
	"github.com/example/revsched/pkg/models"
)

// DefaultTargetCount is the default number of items per session
const DefaultTargetCount = 15

// defaultRetries bounds how often a failed store write is retried before the
// update is dropped with a warning.
const defaultRetries = 3

// Weight of a new sample when folding pronunciation and context scores into
// their running mastery averages.
const sampleWeight = 0.3

// Config wires an Orchestrator. Progress, Sessions and Catalog are required;
// everything else has defaults.
type Config struct {
	Progress store.ProgressStore
	Sessions store.SessionStore
	Catalog  store.Catalog

	Interval  *interval.Model      // nil → interval.New()
	Adapter   *difficulty.Adapter  // nil → difficulty.New()
	Generator *recommend.Generator // nil → recommend.New(recommend.Config{})
	Logger    *logger.Logger       // nil → logger.Nop()

	TargetCount int           // zero → DefaultTargetCount
	Retries     int           // zero → 3
	RetryDelay  time.Duration // pause between write retries; zero → 50ms

	// Now overrides the clock, for tests.
	Now func() time.Time
}

// Orchestrator opens and closes sessions for any number of learners. Answer
// processing within one session is serialized; different learners' sessions
// proceed independently.
type Orchestrator struct {
	progress   store.ProgressStore
	sessions   store.SessionStore
	catalog    store.Catalog
	interval   *interval.Model
	adapter    *difficulty.Adapter
	gen        *recommend.Generator
	log        *logger.Logger
	target     int
	retries    int
	retryDelay time.Duration
	now        func() time.Time

	mu   sync.Mutex
	open map[string]*Session
}

// New creates an Orchestrator from the given config
func New(cfg Config) (*Orchestrator, error) {
	if cfg.Progress == nil || cfg.Sessions == nil || cfg.Catalog == nil {
		return nil, fmt.Errorf("session: progress, session and catalog stores are required: %w", revsched.ErrInvalidInput)
	}
	o := &Orchestrator{
		progress:   cfg.Progress,
		sessions:   cfg.Sessions,
		catalog:    cfg.Catalog,
		interval:   cfg.Interval,
		adapter:    cfg.Adapter,
		gen:        cfg.Generator,
		log:        cfg.Logger,
		target:     cfg.TargetCount,
		retries:    cfg.Retries,
		retryDelay: cfg.RetryDelay,
		now:        cfg.Now,
		open:       make(map[string]*Session),
	}
	if o.interval == nil {
		o.interval = interval.New()
	}
	if o.adapter == nil {
		o.adapter = difficulty.New()
	}
	if o.gen == nil {
		o.gen = recommend.New(recommend.Config{})
	}
	if o.log == nil {
		o.log = logger.Nop()
	}
	if o.target == 0 {
		o.target = DefaultTargetCount
	}
	if o.retries == 0 {
		o.retries = defaultRetries
	}
	if o.retryDelay == 0 {
		o.retryDelay = 50 * time.Millisecond
	}
	if o.now == nil {
		o.now = time.Now
	}
	return o, nil
}

// Plan runs one analysis cycle for a learner: it reads the full progress
// snapshot, derives the difficulty profile, and generates a recommendation
// batch for the next session. Planning is read-only and may run concurrently
// with other learners' sessions.
func (o *Orchestrator) Plan(learnerID int64, tier models.Tier, sessionType models.SessionType, targetCount int) (models.RecommendationBatch, models.DifficultyProfile, error) {
	if targetCount <= 0 {
		targetCount = o.target
	}
	if !tier.Valid() {
		tier = models.TierBeginner
	}

	records, err := o.progress.ListAll(learnerID)
	if err != nil {
		return models.RecommendationBatch{}, models.DifficultyProfile{}, fmt.Errorf("session: listing progress: %v: %w", err, revsched.ErrStoreUnavailable)
	}
	items, err := o.catalog.Items()
	if err != nil {
		return models.RecommendationBatch{}, models.DifficultyProfile{}, fmt.Errorf("session: listing catalog: %v: %w", err, revsched.ErrStoreUnavailable)
	}

	topicOf := make(map[int64]int64, len(items))
	for _, it := range items {
		topicOf[it.ID] = it.TopicID
	}
	now := o.now()
	profile := aggregate.Profile(learnerID, records, topicOf, tier, now)

	batch, err := o.gen.Recommend(recommend.Input{
		Profile:     profile,
		Progress:    records,
		Items:       items,
		SessionType: sessionType,
		TargetCount: targetCount,
		Now:         now,
	})
	if err != nil {
		return models.RecommendationBatch{}, profile, err
	}
	return batch, profile, nil
}

// Start opens a session over the given batch snapshot. The batch is not
// recomputed mid-session; the snapshot taken here is what the learner sees
// until the session completes.
func (o *Orchestrator) Start(learnerID int64, sessionType models.SessionType, batch models.RecommendationBatch, profile models.DifficultyProfile) (*Session, error) {
	if !sessionType.Valid() {
		return nil, fmt.Errorf("session: unknown session type %q: %w", sessionType, revsched.ErrInvalidInput)
	}
	if !profile.CurrentTier.Valid() {
		return nil, fmt.Errorf("session: unknown tier %q: %w", profile.CurrentTier, revsched.ErrInvalidInput)
	}

	now := o.now()
	presented := make([]int64, len(batch.Items))
	inBatch := make(map[int64]bool, len(batch.Items))
	for i, r := range batch.Items {
		presented[i] = r.ItemID
		inBatch[r.ItemID] = true
	}

	rec := models.SessionRecord{
		ID:             uuid.NewString(),
		LearnerID:      learnerID,
		SessionType:    sessionType,
		State:          models.SessionOpen,
		InitialTier:    profile.CurrentTier,
		ItemsPresented: presented,
		StartedAt:      now,
	}
	if err := o.withRetry("create session", func() error { return o.sessions.Create(&rec) }); err != nil {
		return nil, fmt.Errorf("session: creating record: %v: %w", err, revsched.ErrStoreUnavailable)
	}

	s := &Session{
		orch:         o,
		rec:          rec,
		batch:        batch,
		profile:      profile,
		inBatch:      inBatch,
		answered:     make(map[int64]bool, len(presented)),
		lastActivity: now,
	}
	o.mu.Lock()
	o.open[rec.ID] = s
	o.mu.Unlock()

	o.log.Info("session started",
		"session_id", rec.ID,
		"learner_id", learnerID,
		"type", sessionType,
		"items", len(presented),
	)
	return s, nil
}

// OpenCount returns the number of currently open sessions
func (o *Orchestrator) OpenCount() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.open)
}

// SweepIdle abandons open sessions with no activity for longer than the
// given window and returns how many were swept. Abandoned sessions reject
// further mutation exactly like completed ones.
func (o *Orchestrator) SweepIdle(olderThan time.Duration) int {
	cutoff := o.now().Add(-olderThan)

	o.mu.Lock()
	stale := make([]*Session, 0, len(o.open))
	for _, s := range o.open {
		stale = append(stale, s)
	}
	o.mu.Unlock()

	var swept int
	for _, s := range stale {
		if s.abandonIfIdle(cutoff) {
			swept++
		}
	}
	return swept
}

func (o *Orchestrator) removeOpen(id string) {
	o.mu.Lock()
	delete(o.open, id)
	o.mu.Unlock()
}

// withRetry runs op up to the configured attempt count, pausing between
// failures. The last error is returned if every attempt fails.
func (o *Orchestrator) withRetry(what string, op func() error) error {
	var err error
	for attempt := 1; attempt <= o.retries; attempt++ {
		if err = op(); err == nil {
			return nil
		}
		o.log.Warn("store operation failed",
			"op", what,
			"attempt", attempt,
			"error", err,
		)
		if attempt < o.retries {
			time.Sleep(o.retryDelay)
		}
	}
	return err
}

// Session is one open learning session. All mutation goes through its lock,
// so concurrent answer submissions are processed one at a time.
type Session struct {
	mu           sync.Mutex
	orch         *Orchestrator
	rec          models.SessionRecord
	batch        models.RecommendationBatch
	profile      models.DifficultyProfile
	inBatch      map[int64]bool
	answered     map[int64]bool
	totalAnswers int
	correct      int
	latencySum   float64
	revisit      []int64
	warnings     []string
	lastActivity time.Time
	completed    bool
	summary      models.SessionSummary
}

// ID returns the session identifier
func (s *Session) ID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rec.ID
}

// Batch returns the recommendation snapshot the session was opened with
func (s *Session) Batch() models.RecommendationBatch {
	return s.batch
}

// Profile returns the difficulty profile snapshot taken at session start
func (s *Session) Profile() models.DifficultyProfile {
	return s.profile
}

// Answer processes one answer event: the interval model advances the item's
// mastery level and due date, the difficulty adapter nudges the per-item
// score, and the result is persisted with bounded retry. A persistence
// failure is reported through the final summary's warnings, never by
// aborting the session. The updated progress record is returned.
//
// The session completes implicitly once every presented item has been
// answered.
func (s *Session) Answer(ev models.AnswerEvent) (*models.ItemProgress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.completed {
		return nil, fmt.Errorf("session %s: %w", s.rec.ID, revsched.ErrSessionCompleted)
	}
	if ev.LatencyMs < 0 {
		return nil, fmt.Errorf("session: negative latency %dms: %w", ev.LatencyMs, revsched.ErrInvalidInput)
	}
	if !s.inBatch[ev.ItemID] {
		return nil, fmt.Errorf("session: item %d was not presented in session %s: %w", ev.ItemID, s.rec.ID, revsched.ErrInvalidInput)
	}

	now := s.orch.now()
	s.lastActivity = now

	p, err := s.orch.progress.Get(s.rec.LearnerID, ev.ItemID)
	switch {
	case errors.Is(err, revsched.ErrNotFound):
		// First exposure.
		p = models.NewItemProgress(s.rec.LearnerID, ev.ItemID, now)
	case err != nil:
		s.warn(fmt.Sprintf("reading progress for item %d: %v", ev.ItemID, err))
		p = models.NewItemProgress(s.rec.LearnerID, ev.ItemID, now)
	}

	nextLevel, days, err := s.orch.interval.Next(p.MasteryLevel, ev.Correct, p.DifficultyModifier, ev.LatencyMs)
	if err != nil {
		return nil, err
	}

	p.MasteryLevel = nextLevel
	p.LastReviewedAt = &now
	p.NextReviewAt = now.AddDate(0, 0, days)
	p.ReviewCount++
	if ev.Correct {
		p.SuccessStreak++
	} else {
		p.SuccessStreak = 0
	}
	p.DifficultyScore = difficulty.UpdateItemScore(p.DifficultyScore, ev.Correct, ev.LatencyMs)
	p.AvgLatencyMs += (float64(ev.LatencyMs) - p.AvgLatencyMs) / float64(p.ReviewCount)
	if ev.PronunciationScore != nil {
		p.PronunciationMastery = foldMastery(p.PronunciationMastery, *ev.PronunciationScore, p.ReviewCount)
	}
	if ev.ContextScore != nil {
		p.ContextualMastery = foldMastery(p.ContextualMastery, *ev.ContextScore, p.ReviewCount)
	}
	p.UpdatedAt = now

	if err := s.orch.withRetry("upsert progress", func() error { return s.orch.progress.Upsert(p) }); err != nil {
		s.warn(fmt.Sprintf("persisting progress for item %d: %v", ev.ItemID, err))
	}

	s.totalAnswers++
	s.latencySum += float64(ev.LatencyMs)
	if ev.Correct {
		s.correct++
	} else {
		s.revisit = append(s.revisit, ev.ItemID)
	}
	s.answered[ev.ItemID] = true

	if len(s.answered) == len(s.inBatch) {
		s.finalize(now)
	}
	return p, nil
}

// Complete finalizes the session explicitly. Completing an already
// finalized session is an error; the first completion wins.
func (s *Session) Complete() (models.SessionSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.completed {
		return models.SessionSummary{}, fmt.Errorf("session %s: %w", s.rec.ID, revsched.ErrSessionCompleted)
	}
	s.finalize(s.orch.now())
	return s.summary, nil
}

// Summary returns the final summary once the session has completed.
// Open and abandoned sessions have no summary.
func (s *Session) Summary() (models.SessionSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rec.State != models.SessionCompleted {
		return models.SessionSummary{}, fmt.Errorf("session %s is not completed: %w", s.rec.ID, revsched.ErrInvalidInput)
	}
	return s.summary, nil
}

// finalize closes the session: it derives the final tier from the session's
// aggregate performance, persists the record, and plans the learner's next
// batch. Callers must hold s.mu.
func (s *Session) finalize(now time.Time) {
	s.completed = true

	var accuracy, avgLatency float64
	if s.totalAnswers > 0 {
		accuracy = float64(s.correct) / float64(s.totalAnswers)
		avgLatency = s.latencySum / float64(s.totalAnswers)
	}

	finalTier := s.rec.InitialTier
	if s.totalAnswers > 0 {
		tier, err := s.orch.adapter.NextTier(accuracy, avgLatency, 1-accuracy, s.rec.InitialTier)
		if err != nil {
			s.warn(fmt.Sprintf("evaluating tier transition: %v", err))
		} else {
			finalTier = tier
		}
	}

	s.rec.State = models.SessionCompleted
	s.rec.FinalTier = finalTier
	s.rec.CompletedAt = &now
	s.rec.PerformanceMetrics = map[string]float64{
		"accuracy":       accuracy,
		"avg_latency_ms": avgLatency,
		"answered":       float64(s.totalAnswers),
		"correct":        float64(s.correct),
	}
	if err := s.orch.withRetry("update session", func() error { return s.orch.sessions.Update(&s.rec) }); err != nil {
		s.warn(fmt.Sprintf("persisting session record: %v", err))
	}

	// Kick off the next analysis cycle so the learner's next session has a
	// fresh batch reflecting this one's outcomes.
	nextBatch, _, err := s.orch.Plan(s.rec.LearnerID, finalTier, s.rec.SessionType, 0)
	if err != nil {
		s.warn(fmt.Sprintf("planning next batch: %v", err))
	}

	s.summary = models.SessionSummary{
		SessionID:      s.rec.ID,
		Accuracy:       accuracy,
		AvgLatencyMs:   avgLatency,
		InitialTier:    s.rec.InitialTier,
		FinalTier:      finalTier,
		ItemsToRevisit: append([]int64(nil), s.revisit...),
		Warnings:       append([]string(nil), s.warnings...),
		NextBatch:      nextBatch,
	}

	s.orch.removeOpen(s.rec.ID)
	s.orch.log.Info("session completed",
		"session_id", s.rec.ID,
		"learner_id", s.rec.LearnerID,
		"accuracy", accuracy,
		"initial_tier", s.rec.InitialTier,
		"final_tier", finalTier,
	)
}

// abandonIfIdle closes the session as abandoned when its last activity is
// before the cutoff. Used by the idle sweep.
func (s *Session) abandonIfIdle(cutoff time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.completed || s.lastActivity.After(cutoff) {
		return false
	}
	s.completed = true
	now := s.orch.now()
	s.rec.State = models.SessionAbandoned
	s.rec.CompletedAt = &now
	if err := s.orch.withRetry("abandon session", func() error { return s.orch.sessions.Update(&s.rec) }); err != nil {
		s.orch.log.Warn("persisting abandoned session failed", "session_id", s.rec.ID, "error", err)
	}
	s.orch.removeOpen(s.rec.ID)
	s.orch.log.Info("session abandoned", "session_id", s.rec.ID, "learner_id", s.rec.LearnerID)
	return true
}

func (s *Session) warn(msg string) {
	s.warnings = append(s.warnings, msg)
	s.orch.log.Warn(msg, "session_id", s.rec.ID)
}

// foldMastery folds a new 0-100 sample into a running weighted average. The
// first sample sets the average directly.
func foldMastery(current, sample, reviewCount int) int {
	if sample < 0 {
		sample = 0
	}
	if sample > 100 {
		sample = 100
	}
	if reviewCount <= 1 || current == 0 {
		return sample
	}
	v := float64(current)*(1-sampleWeight) + float64(sample)*sampleWeight
	return int(v + 0.5)
}
