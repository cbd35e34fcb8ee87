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

// EffectHandler resolves special-category abilities whose entire mechanic is
// applying the definition's status effect. One handler covers stuns, hexes,
// veils, sanctuaries, and wards; the content table decides which, so new
// status abilities need data, not code.
func EffectHandler(ctx *Context, act *actor.Actor, target *actor.Actor, def *ability.Definition, log *eventlog.Log, b Bonuses) bool {
	if def.Effect == "" {
		log.Private(eventlog.TypeFailure, act.ID,
			fmt.Sprintf("Nothing happens. %s fizzles.", def.Name))
		return false
	}
	kind := effect.Kind(def.Effect)
	magnitude := bonus.Scale(int(def.ParamOr("magnitude", 0)), b.Factor())
	duration := int(def.ParamOr("duration", 1))

	if chance := def.ParamOr("chance", 1.0); chance < 1.0 && !rollChance(ctx, chance) {
		log.Append(&eventlog.Entry{
			Type:            eventlog.TypeFailure,
			Public:          true,
			AttackerID:      act.ID,
			Message:         fmt.Sprintf("%s's %s fails to take hold.", act.Name, def.Name),
			AttackerMessage: fmt.Sprintf("Your %s fails to take hold.", def.Name),
		})
		return false
	}

	switch def.Target {
	case ability.TargetMonster:
		if ctx.Monster == nil || ctx.Monster.IsDead() {
			log.Private(eventlog.TypeFailure, act.ID, "There is nothing left to ensnare.")
			return false
		}
		ctx.Effects.Apply(monster.ID, kind, magnitude, duration)
		log.Public(eventlog.TypeStatus,
			fmt.Sprintf("The %s is afflicted with %s by %s.", ctx.Monster.Name, def.Effect, act.Name))
		return true

	case ability.TargetMulti, ability.TargetAllPlayers:
		applied := false
		for _, t := range ctx.LivingActors() {
			if t.ID == act.ID && def.Target == ability.TargetMulti {
				continue
			}
			ctx.Effects.Apply(t.ID, kind, magnitude, duration)
			applied = true
		}
		if applied {
			log.Public(eventlog.TypeStatus,
				fmt.Sprintf("%s's %s washes over the party.", act.Name, def.Name))
		}
		return applied

	case ability.TargetSelf:
		target = act
		fallthrough
	default:
		if target == nil || !target.Alive {
			log.Private(eventlog.TypeFailure, act.ID, "Your target is no longer standing.")
			return false
		}
		if target.ID != act.ID && ctx.Effects.Has(target.ID, effect.Invisible) {
			log.Private(eventlog.TypeFailure, act.ID,
				fmt.Sprintf("Your magic cannot find %s.", target.Name))
			return false
		}
		ctx.Effects.Apply(target.ID, kind, magnitude, duration)
		log.Append(&eventlog.Entry{
			Type:           eventlog.TypeStatus,
			Public:         true,
			AttackerID:     act.ID,
			TargetID:       target.ID,
			Message:        fmt.Sprintf("%s is afflicted with %s by %s.", target.Name, def.Effect, act.Name),
			PrivateMessage: fmt.Sprintf("%s afflicts you with %s.", act.Name, def.Effect),
		})
		if target.ID != act.ID {
			ctx.Corruption.AttemptConversion(act, target, log, 1.0)
		}
		return true
	}
}

// CommandMonsterHandler resolves the monster-domination special: the monster
// is forced to strike the chosen actor next attack phase, at the
// definition's damage multiplier, overriding threat selection for that one
// strike.
func CommandMonsterHandler(ctx *Context, act *actor.Actor, target *actor.Actor, def *ability.Definition, log *eventlog.Log, b Bonuses) bool {
	if ctx.Monster == nil || ctx.Monster.IsDead() {
		log.Private(eventlog.TypeFailure, act.ID, "There is no beast left to command.")
		return false
	}
	if target == nil || !target.Alive {
		log.Private(eventlog.TypeFailure, act.ID, "Your chosen victim is no longer standing.")
		return false
	}
	if ctx.Effects.Has(target.ID, effect.Invisible) {
		log.Private(eventlog.TypeFailure, act.ID,
			fmt.Sprintf("The beast cannot see %s.", target.Name))
		return false
	}

	mult := def.ParamOr("multiplier", 1.0)
	ctx.Monster.ForceStrike(target.ID, mult)

	log.Append(&eventlog.Entry{
		Type:            eventlog.TypeMonster,
		Public:          true,
		AttackerID:      act.ID,
		TargetID:        target.ID,
		Message:         fmt.Sprintf("The %s's eyes glaze over. It turns toward %s.", ctx.Monster.Name, target.Name),
		AttackerMessage: fmt.Sprintf("The %s bends to your will. It will strike %s.", ctx.Monster.Name, target.Name),
	})
	return true
}
