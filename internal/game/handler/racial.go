package handler

import (
	"fmt"

	"github.com/covenfall/covenfall/internal/game/ability"
	"github.com/covenfall/covenfall/internal/game/actor"
	"github.com/covenfall/covenfall/internal/game/eventlog"
)

// PassiveHandler is bound to racial abilities that trigger on their own
// (resurrection passives resolved during death handling). Invoking one
// deliberately does nothing.
func PassiveHandler(ctx *Context, act *actor.Actor, target *actor.Actor, def *ability.Definition, log *eventlog.Log, b Bonuses) bool {
	log.Private(eventlog.TypeFailure, act.ID,
		fmt.Sprintf("%s stirs only at the brink of death. You cannot call on it.", def.Name))
	return false
}
