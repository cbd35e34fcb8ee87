package handler

import (
	"fmt"

	"github.com/covenfall/covenfall/internal/game/ability"
	"github.com/covenfall/covenfall/internal/game/actor"
	"github.com/covenfall/covenfall/internal/game/bonus"
	"github.com/covenfall/covenfall/internal/game/effect"
	"github.com/covenfall/covenfall/internal/game/eventlog"
	"github.com/covenfall/covenfall/internal/game/monster"
)

// AttackHandler resolves every attack-category ability: single-target,
// area, and monster-directed. The definition's damage parameter arrives
// already crit-scaled; coordination/comeback bonuses and the actor's own
// modifiers are combined into one factor with a single floor per magnitude.
func AttackHandler(ctx *Context, act *actor.Actor, target *actor.Actor, def *ability.Definition, log *eventlog.Log, b Bonuses) bool {
	switch def.Target {
	case ability.TargetMonster:
		return attackMonster(ctx, act, def, log, b)
	case ability.TargetMulti, ability.TargetAllPlayers:
		return attackArea(ctx, act, def, log, b)
	default:
		return attackSingle(ctx, act, target, def, log, b)
	}
}

// attackerFactor combines the actor's own damage modifiers with the round
// bonuses. Vulnerability on the victim is layered per target.
func attackerFactor(ctx *Context, act *actor.Actor, b Bonuses) float64 {
	return b.Factor() *
		act.DamageModifier *
		bonus.Multiplier(ctx.Effects.DamagePercentModifier(act.ID))
}

func attackSingle(ctx *Context, act *actor.Actor, target *actor.Actor, def *ability.Definition, log *eventlog.Log, b Bonuses) bool {
	if target == nil || !target.Alive {
		log.Private(eventlog.TypeFailure, act.ID, "Your target is no longer standing.")
		return false
	}
	if target.ID != act.ID && ctx.Effects.Has(target.ID, effect.Invisible) {
		log.Private(eventlog.TypeFailure, act.ID,
			fmt.Sprintf("You strike at where %s stood, but hit only air.", target.Name))
		return false
	}

	raw := int(def.ParamOr("damage", 0))
	if raw <= 0 {
		return false
	}

	factor := attackerFactor(ctx, act, b) *
		bonus.Multiplier(ctx.Effects.Magnitude(target.ID, effect.Vulnerable))
	scaled := bonus.Scale(raw, factor)
	if scaled < 1 {
		scaled = 1
	}
	logBonus(log, act, b, raw, scaled)

	dealt := actor.DamageAfterArmor(scaled, ctx.EffectiveArmor(target))
	target.ApplyDamage(dealt)
	ctx.Threat.Add(act.ID, 0, dealt, 0, 0)

	log.Append(&eventlog.Entry{
		Type:            eventlog.TypeDamage,
		Public:          true,
		AttackerID:      act.ID,
		TargetID:        target.ID,
		Message:         fmt.Sprintf("%s strikes %s for %d damage.", act.Name, target.Name, dealt),
		PrivateMessage:  fmt.Sprintf("%s hits you for %d damage.", act.Name, dealt),
		AttackerMessage: fmt.Sprintf("You hit %s for %d damage.", target.Name, dealt),
	})

	applySecondaryEffect(ctx, act, target.ID, def, log, b)
	modifier := 1.0
	if b.Redirected {
		modifier = ctx.Corruption.RandomModifier()
	}
	ctx.Corruption.AttemptConversion(act, target, log, modifier)
	return true
}

func attackArea(ctx *Context, act *actor.Actor, def *ability.Definition, log *eventlog.Log, b Bonuses) bool {
	raw := int(def.ParamOr("damage", 0))
	if raw <= 0 {
		return false
	}

	hit := false
	for _, target := range ctx.LivingActors() {
		if target.ID == act.ID {
			continue
		}
		factor := attackerFactor(ctx, act, b) *
			bonus.Multiplier(ctx.Effects.Magnitude(target.ID, effect.Vulnerable))
		scaled := bonus.Scale(raw, factor)
		if scaled < 1 {
			scaled = 1
		}
		// One transparency line per target; vulnerability differs per hit.
		logBonus(log, act, b, raw, scaled)
		dealt := actor.DamageAfterArmor(scaled, ctx.EffectiveArmor(target))
		target.ApplyDamage(dealt)
		ctx.Threat.Add(act.ID, 0, dealt, 0, 0)
		hit = true

		log.Append(&eventlog.Entry{
			Type:           eventlog.TypeDamage,
			Public:         true,
			AttackerID:     act.ID,
			TargetID:       target.ID,
			Message:        fmt.Sprintf("%s is caught in %s's %s for %d damage.", target.Name, act.Name, def.Name, dealt),
			PrivateMessage: fmt.Sprintf("%s's %s tears into you for %d damage.", act.Name, def.Name, dealt),
		})

		applySecondaryEffect(ctx, act, target.ID, def, log, b)
		ctx.Corruption.AttemptConversion(act, target, log, ctx.Corruption.AreaModifier())
	}
	return hit
}

func attackMonster(ctx *Context, act *actor.Actor, def *ability.Definition, log *eventlog.Log, b Bonuses) bool {
	if ctx.Monster == nil || ctx.Monster.IsDead() {
		log.Private(eventlog.TypeFailure, act.ID, "There is nothing left to fight.")
		return false
	}

	raw := int(def.ParamOr("damage", 0))
	if raw <= 0 {
		return false
	}

	scaled := bonus.Scale(raw, attackerFactor(ctx, act, b))
	if scaled < 1 {
		scaled = 1
	}
	logBonus(log, act, b, raw, scaled)

	dealt := ctx.Monster.TakeDamage(scaled)
	ctx.Threat.Add(act.ID, dealt, dealt, 0, ctx.EffectiveArmor(act))

	log.Append(&eventlog.Entry{
		Type:            eventlog.TypeDamage,
		Public:          true,
		AttackerID:      act.ID,
		Message:         fmt.Sprintf("%s wounds the %s for %d damage.", act.Name, ctx.Monster.Name, dealt),
		AttackerMessage: fmt.Sprintf("You wound the %s for %d damage.", ctx.Monster.Name, dealt),
	})

	applySecondaryEffect(ctx, act, "", def, log, b)
	return true
}

// applySecondaryEffect applies the definition's status effect, if any, with
// its magnitude scaled by the same bonus factor as the primary hit so
// secondary effects stay consistent with it. targetID "" means the monster.
func applySecondaryEffect(ctx *Context, act *actor.Actor, targetID string, def *ability.Definition, log *eventlog.Log, b Bonuses) {
	if def.Effect == "" {
		return
	}
	if chance := def.ParamOr("chance", 1.0); chance < 1.0 && !rollChance(ctx, chance) {
		return
	}

	kind := effect.Kind(def.Effect)
	magnitude := bonus.Scale(int(def.ParamOr("magnitude", 0)), b.Factor())
	duration := int(def.ParamOr("duration", 1))

	id := targetID
	name := "the " + monsterName(ctx)
	if id == "" {
		id = monsterEffectID(ctx)
		if id == "" {
			return
		}
	} else if t, ok := ctx.Actor(id); ok {
		name = t.Name
	}

	ctx.Effects.Apply(id, kind, magnitude, duration)
	log.Public(eventlog.TypeStatus,
		fmt.Sprintf("%s is afflicted with %s.", name, def.Effect))
}

// logBonus appends the private transparency line documenting a non-zero
// coordination/comeback adjustment.
func logBonus(log *eventlog.Log, act *actor.Actor, b Bonuses, before, after int) {
	if b.Zero() {
		return
	}
	log.Private(eventlog.TypeSystem, act.ID,
		fmt.Sprintf("Bonuses amplify your ability: %d → %d (coordination +%d%%, comeback +%d%%).",
			before, after, b.CoordinationPercent, b.ComebackPercent))
}

func rollChance(ctx *Context, p float64) bool {
	return ctx.Rng.Float64() < p
}

func monsterName(ctx *Context) string {
	if ctx.Monster == nil {
		return "monster"
	}
	return ctx.Monster.Name
}

func monsterEffectID(ctx *Context) string {
	if ctx.Monster == nil || ctx.Monster.IsDead() {
		return ""
	}
	return monster.ID
}
