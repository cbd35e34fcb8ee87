// Package actor defines the player entity owned by a game room and mutated
// exclusively by the round-resolution engine.
package actor

import (
	"github.com/covenfall/covenfall/internal/game/ability"
)

// Actor is one player entity in a room. Actors are created at game join and
// destroyed at room teardown; all mutation happens inside round processing,
// which the owning room serialises.
type Actor struct {
	// ID uniquely identifies the actor (a UUID assigned at join).
	ID string
	// Name is the display name shown in event log messages.
	Name string
	// Race is the race ID granting the racial ability.
	Race string
	// HP is current hit points; 0 means down.
	HP int
	// MaxHP is the hit point ceiling for healing.
	MaxHP int
	// Armor is base armor before defensive status effects.
	Armor int
	// DamageModifier scales all damage the actor deals; 1.0 is neutral.
	DamageModifier float64
	// Alive is false once a death has been resolved (not merely HP == 0,
	// which may still be cancelled by an undying racial override).
	Alive bool
	// Role is the hidden corruption state.
	Role Role
	// Abilities is the set of unlocked ability types.
	Abilities map[ability.Type]bool
	// Cooldowns maps ability type to rounds remaining before reuse.
	Cooldowns map[ability.Type]int
	// RacialAbility is the race-granted ability type; empty if none.
	RacialAbility ability.Type
	// RacialUses is the number of racial ability uses remaining.
	RacialUses int
	// RacialCooldown is rounds remaining before the racial ability may fire.
	RacialCooldown int
	// Submitted is true once the actor has queued an action this round.
	Submitted bool
}

// New creates a living, loyal actor with the given identity and hit points.
//
// Precondition: id and name must be non-empty; maxHP must be > 0.
// Postcondition: HP == MaxHP, Alive, RoleLoyal, DamageModifier == 1.0.
func New(id, name string, maxHP int) *Actor {
	return &Actor{
		ID:             id,
		Name:           name,
		HP:             maxHP,
		MaxHP:          maxHP,
		DamageModifier: 1.0,
		Alive:          true,
		Role:           RoleLoyal,
		Abilities:      make(map[ability.Type]bool),
		Cooldowns:      make(map[ability.Type]int),
	}
}

// ApplyDamage reduces HP by amount, flooring at zero.
//
// Precondition: amount must be >= 0.
// Postcondition: HP >= 0. The Alive flag is NOT cleared here; death is
// resolved by the orchestrator so racial overrides can intervene.
func (a *Actor) ApplyDamage(amount int) {
	a.HP -= amount
	if a.HP < 0 {
		a.HP = 0
	}
}

// Heal raises HP by amount, clamped to MaxHP, and returns the HP actually
// restored.
//
// Precondition: amount must be >= 0.
// Postcondition: HP <= MaxHP; returned value == min(amount, MaxHP-oldHP).
func (a *Actor) Heal(amount int) int {
	missing := a.MaxHP - a.HP
	if amount > missing {
		amount = missing
	}
	a.HP += amount
	return amount
}

// IsDown reports whether the actor is at zero HP but not yet resolved dead.
func (a *Actor) IsDown() bool {
	return a.Alive && a.HP <= 0
}

// Unlock adds the ability type to the actor's unlocked set.
func (a *Actor) Unlock(t ability.Type) {
	a.Abilities[t] = true
}

// Knows reports whether the actor has unlocked the ability type.
func (a *Actor) Knows(t ability.Type) bool {
	return a.Abilities[t]
}

// OnCooldown reports whether the ability type is still cooling down.
func (a *Actor) OnCooldown(t ability.Type) bool {
	return a.Cooldowns[t] > 0
}

// StartCooldown records a cooldown of the given rounds for the ability type.
// A rounds value <= 0 is a no-op.
func (a *Actor) StartCooldown(t ability.Type, rounds int) {
	if rounds > 0 {
		a.Cooldowns[t] = rounds
	}
}

// TickCooldowns decrements every active cooldown by one round, removing
// entries that reach zero. Called once per round by the orchestrator.
//
// Postcondition: every remaining cooldown value is > 0.
func (a *Actor) TickCooldowns() {
	for t, remaining := range a.Cooldowns {
		remaining--
		if remaining <= 0 {
			delete(a.Cooldowns, t)
		} else {
			a.Cooldowns[t] = remaining
		}
	}
	if a.RacialCooldown > 0 {
		a.RacialCooldown--
	}
}

// DamageAfterArmor computes the damage dealt by a successful hit after flat
// armor reduction. The result is monotonically non-increasing in armor and
// never drops below 1 for a positive raw hit.
//
// Precondition: raw must be > 0; armor must be >= 0.
// Postcondition: 1 <= result <= raw.
func DamageAfterArmor(raw, armor int) int {
	reduced := raw - armor
	if reduced < 1 {
		return 1
	}
	return reduced
}
