// Package handler implements the ability dispatch table: a typed registry
// mapping ability types to effect handlers, partitioned into class and racial
// tables, with bulk registration built from the ability content table.
package handler

import (
	"go.uber.org/zap"

	"github.com/covenfall/covenfall/internal/game/actor"
	"github.com/covenfall/covenfall/internal/game/bonus"
	"github.com/covenfall/covenfall/internal/game/corruption"
	"github.com/covenfall/covenfall/internal/game/effect"
	"github.com/covenfall/covenfall/internal/game/monster"
	"github.com/covenfall/covenfall/internal/game/threat"
)

// Source is the randomness surface handlers may draw from.
type Source interface {
	Intn(n int) int
	Float64() float64
}

// Context is the read/write surface handlers operate on. It is constructed
// once per round by the orchestrator and passed by reference; handlers never
// hold it past their own invocation.
type Context struct {
	// Actors maps actor ID to the live entity.
	Actors map[string]*actor.Actor
	// Order lists actor IDs in join order for deterministic enumeration.
	Order []string
	// Monster is the room's monster controller.
	Monster *monster.Monster
	// Effects is the status-effect engine.
	Effects *effect.Engine
	// Threat is the monster's aggro table.
	Threat *threat.Tracker
	// Corruption is the hidden-role system.
	Corruption *corruption.System
	// Rng is the injectable randomness for handler-level rolls.
	Rng Source
	// Logger is the room-scoped structured logger.
	Logger *zap.Logger
}

// Actor returns the live actor with the given ID.
//
// Postcondition: Returns (actor, true) if present, or (nil, false).
func (c *Context) Actor(id string) (*actor.Actor, bool) {
	a, ok := c.Actors[id]
	return a, ok
}

// LivingActors returns the living actors in join order.
func (c *Context) LivingActors() []*actor.Actor {
	var out []*actor.Actor
	for _, id := range c.Order {
		if a, ok := c.Actors[id]; ok && a.Alive {
			out = append(out, a)
		}
	}
	return out
}

// RedirectCandidates returns the IDs of living, visible actors other than
// excludeID, in join order, optionally including the monster. Used for
// ultra-fail retargeting; invisible actors are never valid redirect targets.
func (c *Context) RedirectCandidates(excludeID string, includeMonster bool) []string {
	var out []string
	for _, id := range c.Order {
		if id == excludeID {
			continue
		}
		if c.Effects.Has(id, effect.Invisible) {
			continue
		}
		if a, ok := c.Actors[id]; ok && a.Alive {
			out = append(out, id)
		}
	}
	if includeMonster && c.Monster != nil && !c.Monster.IsDead() {
		out = append(out, monster.ID)
	}
	return out
}

// EffectiveArmor returns an actor's armor including defensive effects.
func (c *Context) EffectiveArmor(a *actor.Actor) int {
	return a.Armor + c.Effects.ArmorBonus(a.ID)
}

// Bonuses carries the per-action coordination and comeback percentages
// computed by the orchestrator before dispatch.
type Bonuses struct {
	// Participants is the number of actors acting on the action's target
	// this round (including the acting actor).
	Participants int
	// CoordinationPercent is the coordination bonus; 0 when acting alone.
	CoordinationPercent int
	// ComebackPercent is the comeback bonus; 0 for the corrupted faction.
	ComebackPercent int
	// Redirected marks an ultra-fail retarget; corruption contact through a
	// redirected hit rolls at the reduced random-trigger modifier.
	Redirected bool
}

// Factor returns the combined multiplicative bonus factor. Applied once to
// the primary magnitude and once to each secondary magnitude, with a single
// floor per magnitude.
func (b Bonuses) Factor() float64 {
	return bonus.Multiplier(b.CoordinationPercent) * bonus.Multiplier(b.ComebackPercent)
}

// Zero reports whether no bonus applies.
func (b Bonuses) Zero() bool {
	return b.CoordinationPercent == 0 && b.ComebackPercent == 0
}
