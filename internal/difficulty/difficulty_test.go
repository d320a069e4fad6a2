package difficulty

import (
	"errors"
	"testing"

	revsched "github.com/example/revsched"
	"github.com/example/revsched/pkg/models"
)

func TestNextTierPromotes(t *testing.T) {
	a := New()
	// 0.9*0.6 + 0.95*0.3 + 0.1 = 0.925 > 0.8
	tier, err := a.NextTier(0.9, 2000, 0.05, models.TierBeginner)
	if err != nil {
		t.Fatalf("NextTier: %v", err)
	}
	if tier != models.TierIntermediate {
		t.Errorf("tier = %s, want intermediate", tier)
	}
}

func TestNextTierDemotes(t *testing.T) {
	a := New()
	tier, err := a.NextTier(0.2, 8000, 0.8, models.TierAdvanced)
	if err != nil {
		t.Fatalf("NextTier: %v", err)
	}
	if tier != models.TierIntermediate {
		t.Errorf("tier = %s, want intermediate", tier)
	}
}

func TestNextTierUnchangedInMiddleBand(t *testing.T) {
	a := New()
	tier, err := a.NextTier(0.6, 4000, 0.4, models.TierIntermediate)
	if err != nil {
		t.Fatalf("NextTier: %v", err)
	}
	if tier != models.TierIntermediate {
		t.Errorf("tier = %s, want unchanged intermediate", tier)
	}
}

func TestNextTierNeverSkipsATier(t *testing.T) {
	a := New()
	// A perfect score from the bottom still only promotes one step.
	tier, err := a.NextTier(1.0, 100, 0, models.TierBeginner)
	if err != nil {
		t.Fatalf("NextTier: %v", err)
	}
	if tier != models.TierIntermediate {
		t.Errorf("tier = %s, want intermediate (single step)", tier)
	}
	// A catastrophic score from the top only demotes one step.
	tier, err = a.NextTier(0, 60000, 1.0, models.TierAdvanced)
	if err != nil {
		t.Fatalf("NextTier: %v", err)
	}
	if tier != models.TierIntermediate {
		t.Errorf("tier = %s, want intermediate (single step)", tier)
	}
}

func TestNextTierStaysAtBounds(t *testing.T) {
	a := New()
	tier, err := a.NextTier(1.0, 100, 0, models.TierAdvanced)
	if err != nil {
		t.Fatalf("NextTier: %v", err)
	}
	if tier != models.TierAdvanced {
		t.Errorf("tier = %s, want advanced (already at top)", tier)
	}
	tier, err = a.NextTier(0, 60000, 1.0, models.TierBeginner)
	if err != nil {
		t.Fatalf("NextTier: %v", err)
	}
	if tier != models.TierBeginner {
		t.Errorf("tier = %s, want beginner (already at bottom)", tier)
	}
}

func TestNextTierRejectsInvalidInput(t *testing.T) {
	a := New()
	cases := []struct {
		name              string
		perf, lat, errRte float64
		tier              models.Tier
	}{
		{"performance above 1", 1.5, 1000, 0, models.TierBeginner},
		{"negative performance", -0.1, 1000, 0, models.TierBeginner},
		{"error rate above 1", 0.5, 1000, 1.2, models.TierBeginner},
		{"negative latency", 0.5, -1, 0.1, models.TierBeginner},
		{"unknown tier", 0.5, 1000, 0.1, models.Tier("expert")},
	}
	for _, tc := range cases {
		if _, err := a.NextTier(tc.perf, tc.lat, tc.errRte, tc.tier); !errors.Is(err, revsched.ErrInvalidInput) {
			t.Errorf("%s: got %v, want ErrInvalidInput", tc.name, err)
		}
	}
}

func approx(a, b float64) bool {
	d := a - b
	return d < 1e-9 && d > -1e-9
}

func TestUpdateItemScoreMoves(t *testing.T) {
	// Incorrect and slow: +0.10 +0.02
	if got := UpdateItemScore(0.5, false, 12000); !approx(got, 0.62) {
		t.Errorf("incorrect slow: got %.2f, want 0.62", got)
	}
	// Correct and fast: -0.05 -0.02
	if got := UpdateItemScore(0.5, true, 1500); !approx(got, 0.43) {
		t.Errorf("correct fast: got %.2f, want 0.43", got)
	}
	// Correct at neutral latency: -0.05
	if got := UpdateItemScore(0.5, true, 5000); !approx(got, 0.45) {
		t.Errorf("correct neutral: got %.2f, want 0.45", got)
	}
}

func TestUpdateItemScoreStaysClamped(t *testing.T) {
	score := 0.5
	for i := 0; i < 50; i++ {
		score = UpdateItemScore(score, false, 15000)
		if score < models.MinDifficultyScore || score > models.MaxDifficultyScore {
			t.Fatalf("score %.3f escaped [0.1, 0.9] after %d incorrect answers", score, i+1)
		}
	}
	if score != models.MaxDifficultyScore {
		t.Errorf("score = %.3f, want saturated at 0.9", score)
	}
	for i := 0; i < 50; i++ {
		score = UpdateItemScore(score, true, 500)
		if score < models.MinDifficultyScore || score > models.MaxDifficultyScore {
			t.Fatalf("score %.3f escaped [0.1, 0.9] after %d correct answers", score, i+1)
		}
	}
	if score != models.MinDifficultyScore {
		t.Errorf("score = %.3f, want saturated at 0.1", score)
	}
}

func TestUpdateItemScoreClampsDriftedInput(t *testing.T) {
	if got := UpdateItemScore(5.0, true, 500); got != models.MaxDifficultyScore {
		t.Errorf("drifted input: got %.3f, want clamped to 0.9", got)
	}
	if got := UpdateItemScore(-2.0, false, 15000); got != models.MinDifficultyScore {
		t.Errorf("drifted input: got %.3f, want clamped to 0.1", got)
	}
}
