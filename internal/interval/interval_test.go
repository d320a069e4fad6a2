package interval

import (
	"errors"
	"testing"

	revsched "github.com/example/revsched"
	"github.com/example/revsched/pkg/models"
)

func TestNextCorrectFastAnswer(t *testing.T) {
	m := New()
	level, days, err := m.Next(3, true, 1.0, 1000)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if level != 4 {
		t.Errorf("level = %d, want 4", level)
	}
	// base[4]=14, fast factor 1.2 → round(16.8) = 17
	if days != 17 {
		t.Errorf("days = %d, want 17", days)
	}
}

func TestNextIncorrectSlowAnswer(t *testing.T) {
	m := New()
	level, days, err := m.Next(2, false, 1.0, 6000)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if level != 1 {
		t.Errorf("level = %d, want 1", level)
	}
	// base[1]=1, slow factor 0.8 → round(0.8) = 1
	if days != 1 {
		t.Errorf("days = %d, want 1", days)
	}
}

func TestNextLevelMovesAtMostOneStep(t *testing.T) {
	m := New()
	for level := models.MinMasteryLevel; level <= models.MaxMasteryLevel; level++ {
		up, _, err := m.Next(level, true, 1.0, 3000)
		if err != nil {
			t.Fatalf("Next(%d, correct): %v", level, err)
		}
		if up < level || up > level+1 {
			t.Errorf("correct at level %d moved to %d", level, up)
		}
		down, _, err := m.Next(level, false, 1.0, 3000)
		if err != nil {
			t.Fatalf("Next(%d, incorrect): %v", level, err)
		}
		if down > level || down < level-1 {
			t.Errorf("incorrect at level %d moved to %d", level, down)
		}
	}
}

func TestNextIntervalNeverNegative(t *testing.T) {
	m := New()
	for level := models.MinMasteryLevel; level <= models.MaxMasteryLevel; level++ {
		for _, correct := range []bool{true, false} {
			for _, latency := range []int{0, 500, 3000, 7000} {
				next, days, err := m.Next(level, correct, 0.5, latency)
				if err != nil {
					t.Fatalf("Next(%d, %v, %d): %v", level, correct, latency, err)
				}
				if days < 0 {
					t.Errorf("negative interval %d for level %d", days, level)
				}
				if next == 0 && days != 0 {
					t.Errorf("level 0 should mean immediate re-exposure, got %d days", days)
				}
			}
		}
	}
}

func TestNextLevelZeroIgnoresModifiers(t *testing.T) {
	m := New()
	// Incorrect at level 1 drops to level 0 regardless of a large modifier.
	level, days, err := m.Next(1, false, 2.0, 500)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if level != 0 || days != 0 {
		t.Errorf("got level=%d days=%d, want 0/0", level, days)
	}
}

func TestNextClampsModifier(t *testing.T) {
	m := New()
	// Modifier 10 must be clamped to 2.0: base[4]=14 → 28 days at neutral latency.
	_, days, err := m.Next(3, true, 10, 3000)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if days != 28 {
		t.Errorf("days = %d, want 28 (modifier clamped to 2.0)", days)
	}
	// Modifier 0 must be clamped to 0.5: 14 × 0.5 = 7.
	_, days, err = m.Next(3, true, 0, 3000)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if days != 7 {
		t.Errorf("days = %d, want 7 (modifier clamped to 0.5)", days)
	}
}

func TestNextUnknownLatency(t *testing.T) {
	m := New()
	_, days, err := m.Next(3, true, 1.0, LatencyUnknown)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if days != 14 {
		t.Errorf("days = %d, want 14 (no latency adjustment)", days)
	}
}

func TestNextRejectsInvalidInput(t *testing.T) {
	m := New()
	if _, _, err := m.Next(-1, true, 1.0, 1000); !errors.Is(err, revsched.ErrInvalidInput) {
		t.Errorf("level -1: got %v, want ErrInvalidInput", err)
	}
	if _, _, err := m.Next(8, true, 1.0, 1000); !errors.Is(err, revsched.ErrInvalidInput) {
		t.Errorf("level 8: got %v, want ErrInvalidInput", err)
	}
	if _, _, err := m.Next(3, true, 1.0, -5); !errors.Is(err, revsched.ErrInvalidInput) {
		t.Errorf("negative latency: got %v, want ErrInvalidInput", err)
	}
}

func TestNextRejectsShortIntervalTable(t *testing.T) {
	m := &Model{BaseIntervals: []int{0, 1, 2}}
	if _, _, err := m.Next(3, true, 1.0, 1000); !errors.Is(err, revsched.ErrInvalidInput) {
		t.Errorf("short table: got %v, want ErrInvalidInput", err)
	}
}

func TestNextCustomTable(t *testing.T) {
	m := &Model{BaseIntervals: []int{0, 2, 4, 8, 16, 32, 64, 128}}
	_, days, err := m.Next(0, true, 1.0, 3000)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if days != 2 {
		t.Errorf("days = %d, want 2 from custom table", days)
	}
}
