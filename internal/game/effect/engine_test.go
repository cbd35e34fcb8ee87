package effect_test

import (
	"testing"

	"go.uber.org/zap/zaptest"
	"pgregory.net/rapid"

	"github.com/covenfall/covenfall/internal/game/effect"
)

func newEngine(t *testing.T) *effect.Engine {
	t.Helper()
	return effect.NewEngine(zaptest.NewLogger(t))
}

func TestApply_OverwritesNotStacks(t *testing.T) {
	e := newEngine(t)
	e.Apply("a1", effect.Poison, 5, 3)
	e.Apply("a1", effect.Poison, 8, 2)

	if got := e.Magnitude("a1", effect.Poison); got != 8 {
		t.Errorf("Magnitude = %d, want 8 (overwrite, not stack)", got)
	}
	if got := e.Remaining("a1", effect.Poison); got != 2 {
		t.Errorf("Remaining = %d, want 2", got)
	}
}

func TestTick_DecrementsByExactlyOne(t *testing.T) {
	e := newEngine(t)
	e.Apply("a1", effect.Protected, 10, 3)

	e.Tick([]string{"a1"})
	if got := e.Remaining("a1", effect.Protected); got != 2 {
		t.Errorf("Remaining after 1 tick = %d, want 2", got)
	}
	e.Tick([]string{"a1"})
	if got := e.Remaining("a1", effect.Protected); got != 1 {
		t.Errorf("Remaining after 2 ticks = %d, want 1", got)
	}
}

// TestTick_RemovedTheRoundItReachesZero: a duration-1 effect survives until
// the tick pass, then is removed in that same pass, not before.
func TestTick_RemovedTheRoundItReachesZero(t *testing.T) {
	e := newEngine(t)
	e.Apply("a1", effect.Invisible, 1, 1)

	if !e.Has("a1", effect.Invisible) {
		t.Fatal("effect should be active before the tick pass")
	}
	events := e.Tick([]string{"a1"})
	if e.Has("a1", effect.Invisible) {
		t.Fatal("effect should be removed in the pass its duration reaches 0")
	}
	if len(events) != 1 || !events[0].Expired {
		t.Fatalf("expected one expiry event, got %+v", events)
	}
}

// TestTick_PoisonPulsesBeforeRemoval: the final poison tick fires in the same
// pass that removes the effect.
func TestTick_PoisonPulsesBeforeRemoval(t *testing.T) {
	e := newEngine(t)
	e.Apply("a1", effect.Poison, 4, 2)

	first := e.Tick([]string{"a1"})
	if len(first) != 1 || first[0].Damage != 4 || first[0].Expired {
		t.Fatalf("first tick: got %+v, want damage 4, not expired", first)
	}
	second := e.Tick([]string{"a1"})
	if len(second) != 1 || second[0].Damage != 4 || !second[0].Expired {
		t.Fatalf("second tick: got %+v, want damage 4 and expired", second)
	}
}

func TestTick_HealingOverTime(t *testing.T) {
	e := newEngine(t)
	e.Apply("a1", effect.HealingOverTime, 6, 3)

	events := e.Tick([]string{"a1"})
	if len(events) != 1 || events[0].Healing != 6 {
		t.Fatalf("got %+v, want healing pulse of 6", events)
	}
}

func TestTick_DeterministicOrder(t *testing.T) {
	e := newEngine(t)
	e.Apply("a2", effect.Poison, 1, 1)
	e.Apply("a1", effect.Poison, 1, 1)
	e.Apply("a1", effect.HealingOverTime, 2, 1)

	events := e.Tick([]string{"a1", "a2"})
	if len(events) != 3 {
		t.Fatalf("len = %d, want 3", len(events))
	}
	// a1's kinds sorted (healing_over_time < poison), then a2.
	if events[0].TargetID != "a1" || events[0].Kind != effect.HealingOverTime {
		t.Errorf("event 0 = %+v", events[0])
	}
	if events[1].TargetID != "a1" || events[1].Kind != effect.Poison {
		t.Errorf("event 1 = %+v", events[1])
	}
	if events[2].TargetID != "a2" {
		t.Errorf("event 2 = %+v", events[2])
	}
}

func TestRemoveAndClear(t *testing.T) {
	e := newEngine(t)
	e.Apply("a1", effect.Stunned, 1, 2)
	e.Apply("a1", effect.Protected, 5, 2)

	e.Remove("a1", effect.Stunned)
	if e.Has("a1", effect.Stunned) {
		t.Error("Stunned should be removed")
	}
	if !e.Has("a1", effect.Protected) {
		t.Error("Protected should survive an unrelated Remove")
	}

	e.Clear("a1")
	if e.Has("a1", effect.Protected) {
		t.Error("Clear should remove everything")
	}
}

func TestDamagePercentModifier(t *testing.T) {
	e := newEngine(t)
	e.Apply("a1", effect.Enraged, 50, 2)
	if got := e.DamagePercentModifier("a1"); got != 50 {
		t.Errorf("modifier = %d, want 50", got)
	}
	e.Apply("a1", effect.Weakened, 30, 2)
	if got := e.DamagePercentModifier("a1"); got != 20 {
		t.Errorf("modifier = %d, want 20", got)
	}
}

// TestTick_MonotoneRemaining: remaining turns strictly decrease by exactly 1
// per tick for any duration, and the effect is gone after exactly that many
// passes.
func TestTick_MonotoneRemaining(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		duration := rapid.IntRange(1, 20).Draw(t, "duration")
		e := effect.NewEngine(zaptest.NewLogger(t))
		e.Apply("a1", effect.Vulnerable, 25, duration)

		for i := 0; i < duration; i++ {
			if !e.Has("a1", effect.Vulnerable) {
				t.Fatalf("effect vanished after %d of %d ticks", i, duration)
			}
			want := duration - i
			if got := e.Remaining("a1", effect.Vulnerable); got != want {
				t.Fatalf("before tick %d: Remaining = %d, want %d", i, got, want)
			}
			e.Tick([]string{"a1"})
		}
		if e.Has("a1", effect.Vulnerable) {
			t.Fatalf("effect survived %d ticks", duration)
		}
	})
}
