package recommend

import (
	"errors"
	"math/rand"
	"reflect"
	"testing"
	"time"

	revsched "github.com/example/revsched"
	"github.com/example/revsched/pkg/models"
)

var t0 = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

func item(id, topicID int64, difficulty, frequencyRank int) models.Item {
	return models.Item{ID: id, TopicID: topicID, Difficulty: difficulty, FrequencyRank: frequencyRank}
}

func dueProgress(itemID int64, overdueDays int) models.ItemProgress {
	return models.ItemProgress{
		LearnerID:    1,
		ItemID:       itemID,
		MasteryLevel: 2,
		ReviewCount:  3,
		NextReviewAt: t0.AddDate(0, 0, -overdueDays),
	}
}

func profile(tier models.Tier, weakAreas ...int64) models.DifficultyProfile {
	return models.DifficultyProfile{
		LearnerID:       1,
		CurrentTier:     tier,
		WeakAreas:       weakAreas,
		ConfidenceScore: 0.5,
	}
}

func TestRecommendEmptyInputs(t *testing.T) {
	g := New(Config{})
	batch, err := g.Recommend(Input{
		Profile:     profile(models.TierBeginner),
		SessionType: models.SessionPractice,
		TargetCount: 10,
		Now:         t0,
	})
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if len(batch.Items) != 0 {
		t.Errorf("empty candidate set should yield an empty batch, got %d items", len(batch.Items))
	}
}

func TestRecommendRejectsInvalidInput(t *testing.T) {
	g := New(Config{})
	_, err := g.Recommend(Input{Profile: profile(models.TierBeginner), SessionType: models.SessionPractice, TargetCount: 0, Now: t0})
	if !errors.Is(err, revsched.ErrInvalidInput) {
		t.Errorf("zero target: got %v, want ErrInvalidInput", err)
	}
	_, err = g.Recommend(Input{Profile: profile(models.TierBeginner), SessionType: "cram", TargetCount: 5, Now: t0})
	if !errors.Is(err, revsched.ErrInvalidInput) {
		t.Errorf("bad session type: got %v, want ErrInvalidInput", err)
	}
}

func TestRecommendDueItemsMostOverdueFirst(t *testing.T) {
	g := New(Config{})
	// Same topic and difficulty, so equal scores; the stable input order is
	// the due order, most overdue first.
	items := []models.Item{item(1, 10, 2, 0), item(2, 10, 2, 0), item(3, 10, 2, 0)}
	progress := []models.ItemProgress{
		dueProgress(1, 1),
		dueProgress(2, 5),
		dueProgress(3, 3),
	}
	batch, err := g.Recommend(Input{
		Profile:     profile(models.TierBeginner),
		Progress:    progress,
		Items:       items,
		SessionType: models.SessionPractice,
		TargetCount: 5,
		Now:         t0,
	})
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	gotOrder := []int64{batch.Items[0].ItemID, batch.Items[1].ItemID, batch.Items[2].ItemID}
	if !reflect.DeepEqual(gotOrder, []int64{2, 3, 1}) {
		t.Errorf("order = %v, want [2 3 1] (most overdue first)", gotOrder)
	}
	for _, r := range batch.Items {
		if r.Reason != models.ReasonDueForReview {
			t.Errorf("item %d reason = %s, want due_for_review", r.ItemID, r.Reason)
		}
	}
}

func TestRecommendReasons(t *testing.T) {
	g := New(Config{})
	items := []models.Item{
		item(1, 10, 2, 0), // due
		item(2, 20, 2, 0), // weak topic, seen but not due
		item(3, 10, 2, 0), // unseen at tier
		item(4, 10, 5, 0), // unseen, wrong tier: excluded
	}
	notDue := models.ItemProgress{LearnerID: 1, ItemID: 2, MasteryLevel: 2, ReviewCount: 3, NextReviewAt: t0.AddDate(0, 0, 3)}
	batch, err := g.Recommend(Input{
		Profile:     profile(models.TierBeginner, 20),
		Progress:    []models.ItemProgress{dueProgress(1, 2), notDue},
		Items:       items,
		SessionType: models.SessionPractice,
		TargetCount: 5,
		Now:         t0,
	})
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	reasons := make(map[int64]models.Reason)
	for _, r := range batch.Items {
		reasons[r.ItemID] = r.Reason
	}
	if reasons[1] != models.ReasonDueForReview {
		t.Errorf("item 1 reason = %s, want due_for_review", reasons[1])
	}
	if reasons[2] != models.ReasonWeakArea {
		t.Errorf("item 2 reason = %s, want weak_area", reasons[2])
	}
	if reasons[3] != models.ReasonNewAtTier {
		t.Errorf("item 3 reason = %s, want new_at_tier", reasons[3])
	}
	if _, ok := reasons[4]; ok {
		t.Error("item 4 is above the learner's tier and should be excluded")
	}
}

func TestRecommendTruncatesToTwiceTarget(t *testing.T) {
	g := New(Config{})
	var items []models.Item
	var progress []models.ItemProgress
	for i := int64(1); i <= 20; i++ {
		items = append(items, item(i, 10, 2, 0))
		progress = append(progress, dueProgress(i, int(i)))
	}
	batch, err := g.Recommend(Input{
		Profile:     profile(models.TierBeginner),
		Progress:    progress,
		Items:       items,
		SessionType: models.SessionPractice,
		TargetCount: 5,
		Now:         t0,
	})
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if len(batch.Items) != 10 {
		t.Errorf("batch size = %d, want 10 (2×target)", len(batch.Items))
	}
}

func TestRecommendDeterministicWithSeed(t *testing.T) {
	var items []models.Item
	for i := int64(1); i <= 30; i++ {
		items = append(items, item(i, 10, 2, 0))
	}
	in := Input{
		Profile:     profile(models.TierBeginner),
		Items:       items,
		SessionType: models.SessionPractice,
		TargetCount: 5,
		Now:         t0,
	}

	g1 := New(Config{Rand: rand.New(rand.NewSource(99))})
	g2 := New(Config{Rand: rand.New(rand.NewSource(99))})
	b1, err := g1.Recommend(in)
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	b2, err := g2.Recommend(in)
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if !reflect.DeepEqual(b1, b2) {
		t.Error("identical inputs and seed should produce identical batches")
	}
}

func TestRecommendWeakAreaOutranksPlainDue(t *testing.T) {
	g := New(Config{})
	items := []models.Item{item(1, 10, 2, 0), item(2, 20, 2, 0)}
	progress := []models.ItemProgress{
		dueProgress(1, 5), // plain due
		dueProgress(2, 1), // due and in a weak topic
	}
	batch, err := g.Recommend(Input{
		Profile:     profile(models.TierBeginner, 20),
		Progress:    progress,
		Items:       items,
		SessionType: models.SessionPractice,
		TargetCount: 5,
		Now:         t0,
	})
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if batch.Items[0].ItemID != 2 {
		t.Errorf("first item = %d, want 2 (weak-area bonus outweighs overdue order)", batch.Items[0].ItemID)
	}
}

func TestRecommendSessionTypeBonus(t *testing.T) {
	g := New(Config{})
	items := []models.Item{item(1, 10, 2, 0), item(2, 10, 2, 0)}
	low := models.ItemProgress{LearnerID: 1, ItemID: 1, MasteryLevel: 2, ReviewCount: 1, NextReviewAt: t0.AddDate(0, 0, -1)}
	high := models.ItemProgress{LearnerID: 1, ItemID: 2, MasteryLevel: 6, ReviewCount: 10, DifficultyScore: 0.5, NextReviewAt: t0.AddDate(0, 0, -1)}
	in := Input{
		Profile:     profile(models.TierBeginner),
		Progress:    []models.ItemProgress{low, high},
		Items:       items,
		TargetCount: 5,
		Now:         t0,
	}

	in.SessionType = models.SessionReview
	batch, err := g.Recommend(in)
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if batch.Items[0].ItemID != 1 {
		t.Errorf("review session: first item = %d, want 1 (low mastery favored)", batch.Items[0].ItemID)
	}

	in.SessionType = models.SessionQuiz
	batch, err = g.Recommend(in)
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if batch.Items[0].ItemID != 2 {
		t.Errorf("quiz session: first item = %d, want 2 (high mastery favored)", batch.Items[0].ItemID)
	}
}

func TestRecommendPriorityWithinBounds(t *testing.T) {
	g := New(Config{})
	items := []models.Item{item(1, 10, 2, 100)}
	p := models.ItemProgress{
		LearnerID: 1, ItemID: 1, MasteryLevel: 1, ReviewCount: 5,
		DifficultyScore: 0.8, AvgLatencyMs: 8000,
		NextReviewAt: t0.AddDate(0, 0, -10),
	}
	batch, err := g.Recommend(Input{
		Profile:     profile(models.TierBeginner, 10),
		Progress:    []models.ItemProgress{p},
		Items:       items,
		SessionType: models.SessionReview,
		TargetCount: 5,
		Now:         t0,
	})
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	// Every bonus fires at once; the priority must still be clamped to 1.
	if got := batch.Items[0].Priority; got < 0 || got > 1 {
		t.Errorf("priority = %.3f out of [0, 1]", got)
	}
}
