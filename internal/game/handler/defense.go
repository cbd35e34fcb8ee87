package handler

import (
	"fmt"

	"github.com/covenfall/covenfall/internal/game/ability"
	"github.com/covenfall/covenfall/internal/game/actor"
	"github.com/covenfall/covenfall/internal/game/effect"
	"github.com/covenfall/covenfall/internal/game/eventlog"
)

// DefenseHandler resolves defense-category abilities by applying a Protected
// status carrying the armor value. Armor is not amplified by coordination or
// comeback bonuses; only critical outcomes scale it, and that scaling is
// already baked into the definition's armor parameter on arrival.
func DefenseHandler(ctx *Context, act *actor.Actor, target *actor.Actor, def *ability.Definition, log *eventlog.Log, b Bonuses) bool {
	if def.Target == ability.TargetSelf || target == nil {
		target = act
	}
	if !target.Alive {
		log.Private(eventlog.TypeFailure, act.ID, "Your ward finds no one to shelter.")
		return false
	}
	if target.ID != act.ID && ctx.Effects.Has(target.ID, effect.Invisible) {
		log.Private(eventlog.TypeFailure, act.ID,
			fmt.Sprintf("Your ward cannot find %s.", target.Name))
		return false
	}

	armor := int(def.ParamOr("armor", 0))
	if armor <= 0 {
		return false
	}
	duration := int(def.ParamOr("duration", 1))

	ctx.Effects.Apply(target.ID, effect.Protected, armor, duration)
	ctx.Threat.Add(act.ID, 0, 0, 0, armor)

	msg := fmt.Sprintf("%s raises a ward over %s (+%d armor).", act.Name, target.Name, armor)
	if target.ID == act.ID {
		msg = fmt.Sprintf("%s raises a ward over themselves (+%d armor).", act.Name, armor)
	}
	log.Append(&eventlog.Entry{
		Type:       eventlog.TypeDefense,
		Public:     true,
		AttackerID: act.ID,
		TargetID:   target.ID,
		Message:    msg,
	})
	return true
}
