package handler

import (
	"fmt"

	"github.com/covenfall/covenfall/internal/game/ability"
	"github.com/covenfall/covenfall/internal/game/actor"
	"github.com/covenfall/covenfall/internal/game/bonus"
	"github.com/covenfall/covenfall/internal/game/effect"
	"github.com/covenfall/covenfall/internal/game/eventlog"
)

// HealHandler resolves heal-category abilities. Healing on a corrupted
// target always succeeds at face value; exposure is left entirely to the
// corruption system's independent detection roll, so the heal amount itself
// never leaks the target's role.
func HealHandler(ctx *Context, act *actor.Actor, target *actor.Actor, def *ability.Definition, log *eventlog.Log, b Bonuses) bool {
	switch def.Target {
	case ability.TargetSelf:
		target = act
	case ability.TargetMulti, ability.TargetAllPlayers:
		return healParty(ctx, act, def, log, b)
	}
	if target == nil || !target.Alive {
		log.Private(eventlog.TypeFailure, act.ID, "There is no one there to mend.")
		return false
	}
	if target.ID != act.ID && ctx.Effects.Has(target.ID, effect.Invisible) {
		log.Private(eventlog.TypeFailure, act.ID,
			fmt.Sprintf("Your magic cannot find %s.", target.Name))
		return false
	}
	return healOne(ctx, act, target, def, log, b, true, 1.0)
}

func healParty(ctx *Context, act *actor.Actor, def *ability.Definition, log *eventlog.Log, b Bonuses) bool {
	healed := false
	for _, target := range ctx.LivingActors() {
		if healOne(ctx, act, target, def, log, b, false, ctx.Corruption.AreaModifier()) {
			healed = true
		}
	}
	if healed {
		raw := int(def.ParamOr("heal", 0))
		logBonus(log, act, b, raw, bonus.Scale(raw, b.Factor()))
	}
	return healed
}

// healOne applies one heal. convModifier scales the corruption conversion
// chance; party-wide heals pass the area modifier, direct heals 1.0.
func healOne(ctx *Context, act *actor.Actor, target *actor.Actor, def *ability.Definition, log *eventlog.Log, b Bonuses, transparency bool, convModifier float64) bool {
	raw := int(def.ParamOr("heal", 0))
	if raw <= 0 {
		return false
	}

	scaled := bonus.Scale(raw, b.Factor())
	if transparency {
		logBonus(log, act, b, raw, scaled)
	}

	actual := target.Heal(scaled)
	ctx.Threat.Add(act.ID, 0, 0, actual, 0)

	log.Append(&eventlog.Entry{
		Type:            eventlog.TypeHeal,
		Public:          true,
		AttackerID:      act.ID,
		TargetID:        target.ID,
		Message:         fmt.Sprintf("%s mends %s's wounds for %d.", act.Name, target.Name, actual),
		PrivateMessage:  fmt.Sprintf("%s restores %d of your health.", act.Name, actual),
		AttackerMessage: fmt.Sprintf("You restore %d of %s's health.", actual, target.Name),
	})

	if def.Effect == string(effect.HealingOverTime) {
		magnitude := bonus.Scale(int(def.ParamOr("magnitude", 0)), b.Factor())
		duration := int(def.ParamOr("duration", 1))
		ctx.Effects.Apply(target.ID, effect.HealingOverTime, magnitude, duration)
		log.Public(eventlog.TypeStatus,
			fmt.Sprintf("A lingering warmth settles over %s.", target.Name))
	}

	ctx.Corruption.AttemptDetection(act, target, actual, log)
	if target.ID != act.ID {
		ctx.Corruption.AttemptConversion(act, target, log, convModifier)
	}
	return true
}
