package handler

import (
	"strings"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/covenfall/covenfall/internal/game/ability"
	"github.com/covenfall/covenfall/internal/game/actor"
	"github.com/covenfall/covenfall/internal/game/corruption"
	"github.com/covenfall/covenfall/internal/game/effect"
	"github.com/covenfall/covenfall/internal/game/eventlog"
	"github.com/covenfall/covenfall/internal/game/monster"
	"github.com/covenfall/covenfall/internal/game/threat"
)

// fixedSource returns the same draw forever, pinning every probabilistic
// branch for a test.
type fixedSource struct{ v float64 }

func (f fixedSource) Intn(n int) int { return 0 }
func (f fixedSource) Float64() float64 { return f.v }

type fixture struct {
	ctx *Context
	log *eventlog.Log
	a   *actor.Actor
	b   *actor.Actor
}

func newFixture(t *testing.T, draw float64) *fixture {
	t.Helper()
	logger := zaptest.NewLogger(t)

	a := actor.New("a-1", "Aldric", 100)
	b := actor.New("b-1", "Brynn", 100)

	effects := effect.NewEngine(logger)
	tracker, err := threat.NewTracker(threat.Weights{
		MonsterDamage: 1.0, TotalDamage: 0.5, Healing: 0.8, Armor: 0.3,
	})
	if err != nil {
		t.Fatalf("NewTracker: %v", err)
	}
	corr, err := corruption.NewSystem(corruption.Tuning{
		BaseChance: 0.2, AreaModifier: 0.5, RandomModifier: 0.25, DetectionChance: 0.3,
	}, fixedSource{draw}, effects, logger)
	if err != nil {
		t.Fatalf("NewSystem: %v", err)
	}

	beast := monster.New(&monster.Template{ID: "grave-troll", Name: "grave troll", MaxHP: 200, Damage: 12})

	return &fixture{
		ctx: &Context{
			Actors:     map[string]*actor.Actor{a.ID: a, b.ID: b},
			Order:      []string{a.ID, b.ID},
			Monster:    beast,
			Effects:    effects,
			Threat:     tracker,
			Corruption: corr,
			Rng:        fixedSource{draw},
			Logger:     logger,
		},
		log: eventlog.New(),
		a:   a,
		b:   b,
	}
}

func attackDef(damage float64) *ability.Definition {
	return &ability.Definition{
		ID:       "strike",
		Name:     "Strike",
		Category: ability.CategoryAttack,
		Target:   ability.TargetSingle,
		Params:   ability.Params{"damage": damage},
	}
}

func TestAttackSingleDealsDamage(t *testing.T) {
	f := newFixture(t, 0.99)

	ok := AttackHandler(f.ctx, f.a, f.b, attackDef(20), f.log, Bonuses{})
	if !ok {
		t.Fatal("attack reported no effect")
	}
	if f.b.HP != 80 {
		t.Fatalf("target HP = %d, want 80", f.b.HP)
	}

	damage := 0
	for _, e := range f.log.Entries() {
		if e.Type == eventlog.TypeDamage && e.Public {
			damage++
		}
	}
	if damage != 1 {
		t.Fatalf("public damage entries = %d, want 1", damage)
	}
}

func TestAttackArmorFloorsAtOne(t *testing.T) {
	f := newFixture(t, 0.99)
	f.b.Armor = 50

	AttackHandler(f.ctx, f.a, f.b, attackDef(10), f.log, Bonuses{})
	if f.b.HP != 99 {
		t.Fatalf("target HP = %d, want 99 (minimum 1 through armor)", f.b.HP)
	}
}

func TestAttackVulnerableTargetTakesMore(t *testing.T) {
	f := newFixture(t, 0.99)
	f.ctx.Effects.Apply(f.b.ID, effect.Vulnerable, 50, 2)

	AttackHandler(f.ctx, f.a, f.b, attackDef(20), f.log, Bonuses{})
	if f.b.HP != 70 {
		t.Fatalf("target HP = %d, want 70 (20 * 1.5)", f.b.HP)
	}
}

func TestAttackBonusSingleRounding(t *testing.T) {
	f := newFixture(t, 0.99)

	// 13 * 1.2 = 15.6 floors once to 15, not 12*1.2 per stage.
	b := Bonuses{Participants: 2, CoordinationPercent: 20}
	AttackHandler(f.ctx, f.a, f.b, attackDef(13), f.log, b)
	if f.b.HP != 85 {
		t.Fatalf("target HP = %d, want 85", f.b.HP)
	}

	var transparency bool
	for _, e := range f.log.Entries() {
		if e.Type == eventlog.TypeSystem && e.TargetID == f.a.ID {
			transparency = true
		}
	}
	if !transparency {
		t.Fatal("missing private bonus transparency entry")
	}
}

func TestAttackInvisibleTargetFails(t *testing.T) {
	f := newFixture(t, 0.99)
	f.ctx.Effects.Apply(f.b.ID, effect.Invisible, 0, 2)

	if AttackHandler(f.ctx, f.a, f.b, attackDef(20), f.log, Bonuses{}) {
		t.Fatal("attack on invisible target should fail")
	}
	if f.b.HP != 100 {
		t.Fatalf("target HP = %d, want 100", f.b.HP)
	}
}

func TestAttackMonsterBuildsThreat(t *testing.T) {
	f := newFixture(t, 0.99)
	def := attackDef(30)
	def.Target = ability.TargetMonster

	AttackHandler(f.ctx, f.a, nil, def, f.log, Bonuses{})
	if f.ctx.Monster.HP != 170 {
		t.Fatalf("monster HP = %d, want 170", f.ctx.Monster.HP)
	}
	if f.ctx.Threat.Score(f.a.ID) <= 0 {
		t.Fatal("monster attack built no threat")
	}
}

func TestAttackSecondaryEffectApplied(t *testing.T) {
	f := newFixture(t, 0.99)
	def := attackDef(10)
	def.Effect = string(effect.Poison)
	def.Params["magnitude"] = 4
	def.Params["duration"] = 3

	AttackHandler(f.ctx, f.a, f.b, def, f.log, Bonuses{})
	if got := f.ctx.Effects.Magnitude(f.b.ID, effect.Poison); got != 4 {
		t.Fatalf("poison magnitude = %d, want 4", got)
	}
}

// TestAttackSecondaryEffectSharesBonusFactor: the poison rider scales by the
// same coordination factor as the primary hit, with one floor per magnitude.
func TestAttackSecondaryEffectSharesBonusFactor(t *testing.T) {
	f := newFixture(t, 0.99)
	def := attackDef(10)
	def.Effect = string(effect.Poison)
	def.Params["magnitude"] = 5
	def.Params["duration"] = 3

	b := Bonuses{Participants: 2, CoordinationPercent: 20}
	AttackHandler(f.ctx, f.a, f.b, def, f.log, b)

	// Primary: floor(10 * 1.2) = 12. Secondary: floor(5 * 1.2) = 6.
	if f.b.HP != 88 {
		t.Fatalf("target HP = %d, want 88", f.b.HP)
	}
	if got := f.ctx.Effects.Magnitude(f.b.ID, effect.Poison); got != 6 {
		t.Fatalf("poison magnitude = %d, want 6 (floor(5 * 1.2))", got)
	}
}

// TestAttackAreaBonusLinePerTarget: the area transparency entry carries each
// target's actual scaled value, vulnerability included.
func TestAttackAreaBonusLinePerTarget(t *testing.T) {
	f := newFixture(t, 0.99)
	f.ctx.Effects.Apply(f.b.ID, effect.Vulnerable, 50, 2)
	def := attackDef(10)
	def.Target = ability.TargetMulti

	b := Bonuses{Participants: 2, CoordinationPercent: 20}
	AttackHandler(f.ctx, f.a, nil, def, f.log, b)

	var line string
	for _, e := range f.log.Entries() {
		if e.Type == eventlog.TypeSystem && e.TargetID == f.a.ID {
			line = e.PrivateMessage
		}
	}
	// floor(10 * 1.2 * 1.5) = 18 for the vulnerable target.
	if !strings.Contains(line, "10 → 18") {
		t.Fatalf("bonus line = %q, want per-target 10 → 18", line)
	}
}

// TestHealPartyUsesAreaConversionModifier: party-wide heals roll corruption
// conversion at the reduced area chance, matching area attacks.
func TestHealPartyUsesAreaConversionModifier(t *testing.T) {
	// Draw 0.15 converts at the direct chance (0.2) but not at the area
	// chance (0.2 * 0.5).
	f := newFixture(t, 0.15)
	f.a.Role = actor.RoleCorrupted
	f.b.HP = 40
	def := &ability.Definition{
		ID: "rally", Name: "Rally",
		Category: ability.CategoryHeal,
		Target:   ability.TargetAllPlayers,
		Params:   ability.Params{"heal": 10},
	}

	if !HealHandler(f.ctx, f.a, nil, def, f.log, Bonuses{}) {
		t.Fatal("party heal reported no effect")
	}
	if f.b.HP != 50 {
		t.Fatalf("target HP = %d, want 50", f.b.HP)
	}
	if f.b.Role.IsCorrupted() {
		t.Fatal("area heal converted at the full contact chance")
	}
}

// TestRedirectCandidatesSkipInvisible: an invisible actor cannot receive an
// ultra-fail redirect; the stray hit lands on someone who can be struck.
func TestRedirectCandidatesSkipInvisible(t *testing.T) {
	f := newFixture(t, 0.99)
	f.ctx.Effects.Apply(f.b.ID, effect.Invisible, 0, 2)

	if got := f.ctx.RedirectCandidates(f.a.ID, false); len(got) != 0 {
		t.Fatalf("candidates = %v, want none while Brynn is veiled", got)
	}
	got := f.ctx.RedirectCandidates(f.a.ID, true)
	if len(got) != 1 || got[0] != monster.ID {
		t.Fatalf("candidates = %v, want only the monster", got)
	}
}

func TestAttackTriggersConversion(t *testing.T) {
	f := newFixture(t, 0.0) // every roll succeeds
	f.a.Role = actor.RoleCorrupted

	AttackHandler(f.ctx, f.a, f.b, attackDef(10), f.log, Bonuses{})
	if !f.b.Role.IsCorrupted() {
		t.Fatal("combat contact at draw 0.0 should convert the target")
	}
}

func TestHealRestoresAndBuildsThreat(t *testing.T) {
	f := newFixture(t, 0.99)
	f.b.HP = 40
	def := &ability.Definition{
		ID: "mend", Name: "Mend",
		Category: ability.CategoryHeal,
		Target:   ability.TargetSingle,
		Params:   ability.Params{"heal": 25},
	}

	if !HealHandler(f.ctx, f.a, f.b, def, f.log, Bonuses{}) {
		t.Fatal("heal reported no effect")
	}
	if f.b.HP != 65 {
		t.Fatalf("target HP = %d, want 65", f.b.HP)
	}
	if f.ctx.Threat.Score(f.a.ID) <= 0 {
		t.Fatal("healing built no threat")
	}
}

func TestHealCorruptedTargetSucceedsAtFaceValue(t *testing.T) {
	f := newFixture(t, 0.99) // detection roll fails
	f.b.HP = 40
	f.b.Role = actor.RoleCorrupted
	def := &ability.Definition{
		ID: "mend", Name: "Mend",
		Category: ability.CategoryHeal,
		Target:   ability.TargetSingle,
		Params:   ability.Params{"heal": 25},
	}

	HealHandler(f.ctx, f.a, f.b, def, f.log, Bonuses{})
	if f.b.HP != 65 {
		t.Fatalf("corrupted target HP = %d, want 65 (heal never shorted)", f.b.HP)
	}
	if f.b.Role.IsDetected() {
		t.Fatal("failed detection roll must not expose the target")
	}
}

func TestHealDetectionExposesCorrupted(t *testing.T) {
	f := newFixture(t, 0.0)
	f.b.HP = 40
	f.b.Role = actor.RoleCorrupted
	def := &ability.Definition{
		ID: "mend", Name: "Mend",
		Category: ability.CategoryHeal,
		Target:   ability.TargetSingle,
		Params:   ability.Params{"heal": 25},
	}

	HealHandler(f.ctx, f.a, f.b, def, f.log, Bonuses{})
	if !f.b.Role.IsDetected() {
		t.Fatal("detection roll at draw 0.0 should expose the target")
	}
}

func TestDefenseAppliesProtected(t *testing.T) {
	f := newFixture(t, 0.99)
	def := &ability.Definition{
		ID: "stoneward", Name: "Stoneward",
		Category: ability.CategoryDefense,
		Target:   ability.TargetSelf,
		Params:   ability.Params{"armor": 8, "duration": 2},
	}

	if !DefenseHandler(f.ctx, f.a, nil, def, f.log, Bonuses{}) {
		t.Fatal("defense reported no effect")
	}
	if got := f.ctx.EffectiveArmor(f.a); got != 8 {
		t.Fatalf("effective armor = %d, want 8", got)
	}
}

func TestEffectHandlerStuns(t *testing.T) {
	f := newFixture(t, 0.99)
	def := &ability.Definition{
		ID: "hammerblow", Name: "Hammerblow",
		Category: ability.CategorySpecial,
		Target:   ability.TargetSingle,
		Effect:   string(effect.Stunned),
		Params:   ability.Params{"duration": 1},
	}

	if !EffectHandler(f.ctx, f.a, f.b, def, f.log, Bonuses{}) {
		t.Fatal("effect handler reported no effect")
	}
	if !f.ctx.Effects.Has(f.b.ID, effect.Stunned) {
		t.Fatal("target not stunned")
	}
}

func TestEffectHandlerChanceMiss(t *testing.T) {
	f := newFixture(t, 0.99)
	def := &ability.Definition{
		ID: "hammerblow", Name: "Hammerblow",
		Category: ability.CategorySpecial,
		Target:   ability.TargetSingle,
		Effect:   string(effect.Stunned),
		Params:   ability.Params{"duration": 1, "chance": 0.5},
	}

	if EffectHandler(f.ctx, f.a, f.b, def, f.log, Bonuses{}) {
		t.Fatal("effect should miss at draw 0.99 vs chance 0.5")
	}
	if f.ctx.Effects.Has(f.b.ID, effect.Stunned) {
		t.Fatal("missed effect must not apply")
	}
}

func TestCommandMonsterForcesStrike(t *testing.T) {
	f := newFixture(t, 0.99)
	def := &ability.Definition{
		ID: CommandMonster, Name: "Bind the Beast",
		Category: ability.CategorySpecial,
		Target:   ability.TargetSingle,
		Params:   ability.Params{"multiplier": 1.5},
	}

	if !CommandMonsterHandler(f.ctx, f.a, f.b, def, f.log, Bonuses{}) {
		t.Fatal("command reported no effect")
	}
	forced := f.ctx.Monster.ConsumeForced()
	if forced == nil || forced.TargetID != f.b.ID || forced.Multiplier != 1.5 {
		t.Fatalf("forced strike = %+v, want target %s x1.5", forced, f.b.ID)
	}
}

func TestRegistryMissingHandlerIsNoOp(t *testing.T) {
	f := newFixture(t, 0.99)
	r := NewRegistry(zaptest.NewLogger(t))

	ok := r.ExecuteClass(f.ctx, f.a, f.b, attackDef(20), f.log, Bonuses{})
	if ok {
		t.Fatal("missing handler must report no effect")
	}
	if f.b.HP != 100 {
		t.Fatalf("target HP = %d, want 100", f.b.HP)
	}

	var fizzle bool
	for _, e := range f.log.Entries() {
		if e.Type == eventlog.TypeFailure && strings.Contains(e.PrivateMessage, "fizzles") {
			fizzle = true
		}
	}
	if !fizzle {
		t.Fatal("missing handler should log a private fizzle")
	}
}

func TestRegistryContainsPanic(t *testing.T) {
	f := newFixture(t, 0.99)
	r := NewRegistry(zaptest.NewLogger(t))
	r.RegisterClass("strike", func(ctx *Context, act, target *actor.Actor, def *ability.Definition, log *eventlog.Log, b Bonuses) bool {
		panic("handler bug")
	})

	ok := r.ExecuteClass(f.ctx, f.a, f.b, attackDef(20), f.log, Bonuses{})
	if ok {
		t.Fatal("panicking handler must report no effect")
	}

	var failure bool
	for _, e := range f.log.Entries() {
		if e.Type == eventlog.TypeFailure && e.TargetID == f.a.ID {
			failure = true
		}
	}
	if !failure {
		t.Fatal("contained panic should log a private failure for the actor")
	}
}

func TestBuildRegistryCoversAllDefinitions(t *testing.T) {
	reg := ability.NewRegistry()
	defs := []*ability.Definition{
		{ID: "strike", Name: "Strike", Category: ability.CategoryAttack, Target: ability.TargetSingle, Params: ability.Params{"damage": 20}},
		{ID: "mend", Name: "Mend", Category: ability.CategoryHeal, Target: ability.TargetSingle, Params: ability.Params{"heal": 25}},
		{ID: "stoneward", Name: "Stoneward", Category: ability.CategoryDefense, Target: ability.TargetSelf, Params: ability.Params{"armor": 8}},
		{ID: CommandMonster, Name: "Bind the Beast", Category: ability.CategorySpecial, Target: ability.TargetSingle, Params: ability.Params{"multiplier": 1.5}},
		{ID: "second_wind", Name: "Second Wind", Category: ability.CategoryRacial, Target: ability.TargetSelf, Params: ability.Params{"heal": 30}},
		{ID: "undying", Name: "Undying", Category: ability.CategoryRacial, Target: ability.TargetSelf, Params: ability.Params{"passive": 1, "heal": 20}},
	}
	for _, d := range defs {
		reg.Register(d)
	}

	r := BuildRegistry(reg, zaptest.NewLogger(t))
	for _, d := range defs {
		if d.Category == ability.CategoryRacial {
			if !r.HasRacial(d.ID) {
				t.Fatalf("no racial handler for %s", d.ID)
			}
		} else if !r.HasClass(d.ID) {
			t.Fatalf("no class handler for %s", d.ID)
		}
	}

	// The passive racial refuses deliberate invocation.
	f := newFixture(t, 0.99)
	if r.ExecuteRacial(f.ctx, f.a, nil, defs[5], f.log, Bonuses{}) {
		t.Fatal("passive racial must not fire on demand")
	}
}
