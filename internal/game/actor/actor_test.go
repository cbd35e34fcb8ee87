package actor_test

import (
	"testing"

	"pgregory.net/rapid"

	"github.com/covenfall/covenfall/internal/game/actor"
	"github.com/covenfall/covenfall/internal/game/ability"
)

func TestNew_Defaults(t *testing.T) {
	a := actor.New("a1", "Mira", 100)
	if a.HP != 100 || a.MaxHP != 100 {
		t.Errorf("HP/MaxHP = %d/%d, want 100/100", a.HP, a.MaxHP)
	}
	if !a.Alive {
		t.Error("new actor should be alive")
	}
	if a.Role != actor.RoleLoyal {
		t.Errorf("Role = %v, want RoleLoyal", a.Role)
	}
	if a.DamageModifier != 1.0 {
		t.Errorf("DamageModifier = %v, want 1.0", a.DamageModifier)
	}
}

func TestApplyDamage_FloorsAtZero(t *testing.T) {
	a := actor.New("a1", "Mira", 30)
	a.ApplyDamage(50)
	if a.HP != 0 {
		t.Errorf("HP = %d, want 0", a.HP)
	}
	if !a.Alive {
		t.Error("ApplyDamage must not resolve death; orchestrator owns that")
	}
	if !a.IsDown() {
		t.Error("actor at 0 HP should be down")
	}
}

// TestHeal_Clamped: actual heal == min(requested, MaxHP-HP).
func TestHeal_Clamped(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		maxHP := rapid.IntRange(1, 500).Draw(t, "maxHP")
		hp := rapid.IntRange(0, maxHP).Draw(t, "hp")
		amount := rapid.IntRange(0, 1000).Draw(t, "amount")

		a := actor.New("a1", "Mira", maxHP)
		a.HP = hp
		healed := a.Heal(amount)

		if a.HP > a.MaxHP {
			t.Fatalf("HP %d exceeds MaxHP %d", a.HP, a.MaxHP)
		}
		want := amount
		if missing := maxHP - hp; want > missing {
			want = missing
		}
		if healed != want {
			t.Fatalf("Heal(%d) from %d/%d returned %d, want %d", amount, hp, maxHP, healed, want)
		}
	})
}

// TestDamageAfterArmor_Monotone: more armor never increases damage taken, and
// a successful hit always deals at least 1.
func TestDamageAfterArmor_Monotone(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		raw := rapid.IntRange(1, 500).Draw(t, "raw")
		armor := rapid.IntRange(0, 500).Draw(t, "armor")

		dmg := actor.DamageAfterArmor(raw, armor)
		if dmg < 1 {
			t.Fatalf("damage %d below floor of 1", dmg)
		}
		if dmg > raw {
			t.Fatalf("damage %d exceeds raw %d", dmg, raw)
		}
		if more := actor.DamageAfterArmor(raw, armor+1); more > dmg {
			t.Fatalf("armor %d -> %d dmg but armor %d -> %d dmg", armor, dmg, armor+1, more)
		}
	})
}

func TestCooldowns_TickDown(t *testing.T) {
	a := actor.New("a1", "Mira", 100)
	a.StartCooldown(ability.Type("strike"), 2)
	if !a.OnCooldown("strike") {
		t.Fatal("strike should be on cooldown")
	}
	a.TickCooldowns()
	if !a.OnCooldown("strike") {
		t.Fatal("strike should still be on cooldown after one tick")
	}
	a.TickCooldowns()
	if a.OnCooldown("strike") {
		t.Fatal("strike should be off cooldown after two ticks")
	}
}

func TestRole_Predicates(t *testing.T) {
	cases := []struct {
		role      actor.Role
		corrupted bool
		detected  bool
	}{
		{actor.RoleLoyal, false, false},
		{actor.RoleCorrupted, true, false},
		{actor.RoleCorruptedDetected, true, true},
	}
	for _, tc := range cases {
		if got := tc.role.IsCorrupted(); got != tc.corrupted {
			t.Errorf("%v.IsCorrupted() = %v, want %v", tc.role, got, tc.corrupted)
		}
		if got := tc.role.IsDetected(); got != tc.detected {
			t.Errorf("%v.IsDetected() = %v, want %v", tc.role, got, tc.detected)
		}
	}
}
