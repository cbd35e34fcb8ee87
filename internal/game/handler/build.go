package handler

import (
	"go.uber.org/zap"

	"github.com/covenfall/covenfall/internal/game/ability"
)

// CommandMonster is the one special ability whose mechanic is unique enough
// to need its own handler instead of the shared effect handler.
const CommandMonster ability.Type = "command_monster"

// BuildRegistry constructs the full dispatch table from the loaded ability
// content. Every attack shares AttackHandler, every heal HealHandler, and so
// on; a new ability added to the content table is dispatchable without a
// code change unless its mechanic is genuinely novel.
//
// Precondition: reg and logger must be non-nil.
// Postcondition: Every definition in reg has a bound handler.
func BuildRegistry(reg *ability.Registry, logger *zap.Logger) *Registry {
	r := NewRegistry(logger)
	for _, def := range reg.All() {
		fn := handlerFor(def)
		if def.Category == ability.CategoryRacial {
			r.RegisterRacial(def.ID, fn)
		} else {
			r.RegisterClass(def.ID, fn)
		}
	}
	return r
}

func handlerFor(def *ability.Definition) Func {
	if def.ID == CommandMonster {
		return CommandMonsterHandler
	}
	switch def.Category {
	case ability.CategoryAttack:
		return AttackHandler
	case ability.CategoryHeal:
		return HealHandler
	case ability.CategoryDefense:
		return DefenseHandler
	case ability.CategoryRacial:
		return racialHandlerFor(def)
	default:
		return EffectHandler
	}
}

// racialHandlerFor picks by mechanic: racial abilities reuse the class
// handlers their parameters imply, except death-triggered passives.
func racialHandlerFor(def *ability.Definition) Func {
	if def.ParamOr("passive", 0) > 0 {
		return PassiveHandler
	}
	if _, ok := def.Param("damage"); ok {
		return AttackHandler
	}
	if _, ok := def.Param("heal"); ok {
		return HealHandler
	}
	if _, ok := def.Param("armor"); ok {
		return DefenseHandler
	}
	return EffectHandler
}
