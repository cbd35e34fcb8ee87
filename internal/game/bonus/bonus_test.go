package bonus_test

import (
	"testing"

	"pgregory.net/rapid"

	"github.com/covenfall/covenfall/internal/game/bonus"
)

func newCalc(t *testing.T, p bonus.Policy) *bonus.Calculator {
	t.Helper()
	c, err := bonus.NewCalculator(p)
	if err != nil {
		t.Fatalf("NewCalculator: %v", err)
	}
	return c
}

func flatPolicy() bonus.Policy {
	return bonus.Policy{
		CoordinationPercent: 20,
		Stacking:            bonus.StackingFlat,
		ComebackPercent:     15,
		ComebackHPRatio:     0.35,
	}
}

func TestCoordination_FlatStacking(t *testing.T) {
	c := newCalc(t, flatPolicy())
	cases := []struct {
		participants int
		want         int
	}{
		{0, 0},
		{1, 0},
		{2, 20},
		{3, 20},
		{5, 20},
	}
	for _, tc := range cases {
		if got := c.Coordination(tc.participants); got != tc.want {
			t.Errorf("Coordination(%d) = %d, want %d", tc.participants, got, tc.want)
		}
	}
}

func TestCoordination_PerActorStacking(t *testing.T) {
	p := flatPolicy()
	p.Stacking = bonus.StackingPerActor
	c := newCalc(t, p)
	if got := c.Coordination(2); got != 20 {
		t.Errorf("Coordination(2) = %d, want 20", got)
	}
	if got := c.Coordination(4); got != 60 {
		t.Errorf("Coordination(4) = %d, want 60", got)
	}
}

func TestComeback_NeverForCorrupted(t *testing.T) {
	c := newCalc(t, flatPolicy())
	if got := c.Comeback(true, 1, 5, 10, 100); got != 0 {
		t.Errorf("corrupted comeback = %d, want 0", got)
	}
}

func TestComeback_Outnumbered(t *testing.T) {
	c := newCalc(t, flatPolicy())
	if got := c.Comeback(false, 2, 3, 200, 200); got != 15 {
		t.Errorf("outnumbered comeback = %d, want 15", got)
	}
	if got := c.Comeback(false, 3, 2, 200, 200); got != 0 {
		t.Errorf("majority comeback = %d, want 0", got)
	}
}

func TestComeback_HPDisadvantage(t *testing.T) {
	c := newCalc(t, flatPolicy())
	// 30% pooled HP is below the 0.35 ratio.
	if got := c.Comeback(false, 3, 2, 60, 200); got != 15 {
		t.Errorf("low-HP comeback = %d, want 15", got)
	}
	// Exactly at the ratio does not trigger.
	if got := c.Comeback(false, 3, 2, 70, 200); got != 0 {
		t.Errorf("at-ratio comeback = %d, want 0", got)
	}
}

// TestScale_SingleRounding: floor(base*1.2), not floor(base)*1.2 rounded
// twice. Secondary magnitudes must round the same way as the primary hit.
func TestScale_SingleRounding(t *testing.T) {
	if got := bonus.Scale(25, bonus.Multiplier(20)); got != 30 {
		t.Errorf("Scale(25, 1.2) = %d, want 30", got)
	}
	// 13 * 1.2 = 15.6 → 15 with one floor.
	if got := bonus.Scale(13, bonus.Multiplier(20)); got != 15 {
		t.Errorf("Scale(13, 1.2) = %d, want 15", got)
	}
}

// TestScale_MultiplicativeComposition: combined bonuses multiply before the
// single floor, matching how handlers apply them to primary and secondary
// magnitudes alike.
func TestScale_MultiplicativeComposition(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		base := rapid.IntRange(0, 1000).Draw(t, "base")
		coord := rapid.IntRange(0, 100).Draw(t, "coord")
		comeback := rapid.IntRange(0, 100).Draw(t, "comeback")

		factor := bonus.Multiplier(coord) * bonus.Multiplier(comeback)
		got := bonus.Scale(base, factor)
		want := int(float64(base) * (1 + float64(coord)/100) * (1 + float64(comeback)/100))
		if got != want {
			t.Fatalf("Scale(%d, %v) = %d, want %d", base, factor, got, want)
		}
		if got < base && coord >= 0 && comeback >= 0 {
			t.Fatalf("bonus reduced magnitude: %d -> %d", base, got)
		}
	})
}

func TestPolicy_Validate(t *testing.T) {
	bad := flatPolicy()
	bad.Stacking = "quadratic"
	if _, err := bonus.NewCalculator(bad); err == nil {
		t.Error("expected error for unknown stacking policy")
	}
	bad = flatPolicy()
	bad.ComebackHPRatio = 1.5
	if _, err := bonus.NewCalculator(bad); err == nil {
		t.Error("expected error for hp ratio > 1")
	}
}
