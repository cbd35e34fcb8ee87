package ability

import (
	"os"
	"path/filepath"
	"testing"
)

func TestWithScaledParamDoesNotMutateOriginal(t *testing.T) {
	def := &Definition{
		ID:       "strike",
		Category: CategoryAttack,
		Target:   TargetSingle,
		Params:   Params{"damage": 20, "duration": 2},
	}

	scaled := def.WithScaledParam("damage", 1.5)
	if got := scaled.ParamOr("damage", 0); got != 30 {
		t.Fatalf("scaled damage = %v, want 30", got)
	}
	if got := def.ParamOr("damage", 0); got != 20 {
		t.Fatalf("original damage = %v, want 20 (must not mutate)", got)
	}
	if got := scaled.ParamOr("duration", 0); got != 2 {
		t.Fatalf("unrelated param = %v, want 2", got)
	}
}

func TestPrimaryParam(t *testing.T) {
	tests := []struct {
		category Category
		want     string
	}{
		{CategoryAttack, "damage"},
		{CategoryHeal, "heal"},
		{CategoryDefense, "armor"},
		{CategorySpecial, "magnitude"},
		{CategoryRacial, "magnitude"},
	}
	for _, tt := range tests {
		d := &Definition{Category: tt.category}
		if got := d.PrimaryParam(); got != tt.want {
			t.Errorf("PrimaryParam(%s) = %q, want %q", tt.category, got, tt.want)
		}
	}
}

func TestValidateRejectsBadRecords(t *testing.T) {
	tests := []struct {
		name string
		def  Definition
	}{
		{"empty id", Definition{Category: CategoryAttack, Target: TargetSingle}},
		{"unknown category", Definition{ID: "x", Category: "melee", Target: TargetSingle}},
		{"unknown target", Definition{ID: "x", Category: CategoryAttack, Target: "everyone"}},
		{"negative cooldown", Definition{ID: "x", Category: CategoryAttack, Target: TargetSingle, Cooldown: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.def.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestUnlockedAtExcludesRacial(t *testing.T) {
	reg := NewRegistry()
	reg.Register(&Definition{ID: "strike", Category: CategoryAttack, Target: TargetSingle, MinLevel: 1})
	reg.Register(&Definition{ID: "smite", Category: CategoryAttack, Target: TargetSingle, MinLevel: 3})
	reg.Register(&Definition{ID: "second_wind", Category: CategoryRacial, Target: TargetSelf, MinLevel: 1})

	got := reg.UnlockedAt(2)
	if len(got) != 1 || got[0] != "strike" {
		t.Fatalf("UnlockedAt(2) = %v, want [strike]", got)
	}
	if got := reg.UnlockedAt(3); len(got) != 2 {
		t.Fatalf("UnlockedAt(3) = %v, want 2 abilities", got)
	}
}

func TestLoadDirectory(t *testing.T) {
	dir := t.TempDir()
	good := `id: strike
name: Strike
category: attack
target: single
params:
  damage: 20
`
	if err := os.WriteFile(filepath.Join(dir, "strike.yaml"), []byte(good), 0o644); err != nil {
		t.Fatal(err)
	}

	reg, err := LoadDirectory(dir)
	if err != nil {
		t.Fatalf("LoadDirectory: %v", err)
	}
	def, ok := reg.Get("strike")
	if !ok {
		t.Fatal("loaded registry missing strike")
	}
	if got := def.ParamOr("damage", 0); got != 20 {
		t.Fatalf("damage = %v, want 20", got)
	}
}

func TestLoadDirectoryRejectsUnknownFields(t *testing.T) {
	dir := t.TempDir()
	bad := `id: strike
name: Strike
category: attack
target: single
power: 20
`
	if err := os.WriteFile(filepath.Join(dir, "strike.yaml"), []byte(bad), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadDirectory(dir); err == nil {
		t.Fatal("unknown field should fail to load")
	}
}
