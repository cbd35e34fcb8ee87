package effect

import (
	"sort"

	"go.uber.org/zap"
)

// Instance is one applied effect on one target.
//
// Invariant: Remaining is monotonically non-increasing per round; the effect
// is removed in the same tick pass in which Remaining reaches zero.
type Instance struct {
	Kind Kind
	// Magnitude is captured at apply time and never re-reads the caster's
	// live modifiers (a poison keeps hurting at its original strength even
	// if the caster's buffs expire).
	Magnitude int
	// Remaining is the number of round ticks left, including the current one.
	Remaining int
}

// TickEvent records one effect tick during the per-round pass: a periodic
// damage/heal pulse, an expiry, or both in the same pass.
type TickEvent struct {
	TargetID string
	Kind     Kind
	// Damage is the poison pulse dealt this tick; 0 for non-damaging kinds.
	Damage int
	// Healing is the heal-over-time pulse this tick; 0 for non-healing kinds.
	Healing int
	// Expired is true when the effect was removed in this pass.
	Expired bool
}

// Engine stores active effects per target ID (actors and the monster alike).
// It is not safe for concurrent use; the owning room serialises all access
// through round processing.
type Engine struct {
	sets   map[string]map[Kind]*Instance
	logger *zap.Logger
}

// NewEngine creates an empty effect Engine.
//
// Precondition: logger must be non-nil.
func NewEngine(logger *zap.Logger) *Engine {
	return &Engine{
		sets:   make(map[string]map[Kind]*Instance),
		logger: logger,
	}
}

// Apply sets the effect of the given kind on targetID. Re-applying a kind the
// target already has overwrites magnitude and duration rather than stacking.
//
// Precondition: targetID must be non-empty; duration must be >= 1.
// Postcondition: Has(targetID, kind) is true with the new magnitude/duration.
func (e *Engine) Apply(targetID string, kind Kind, magnitude, duration int) {
	set, ok := e.sets[targetID]
	if !ok {
		set = make(map[Kind]*Instance)
		e.sets[targetID] = set
	}
	set[kind] = &Instance{Kind: kind, Magnitude: magnitude, Remaining: duration}
	e.logger.Debug("effect applied",
		zap.String("target", targetID),
		zap.String("kind", string(kind)),
		zap.Int("magnitude", magnitude),
		zap.Int("duration", duration),
	)
}

// Has reports whether targetID currently has an effect of the given kind.
func (e *Engine) Has(targetID string, kind Kind) bool {
	_, ok := e.sets[targetID][kind]
	return ok
}

// Magnitude returns the magnitude of the effect of the given kind on
// targetID, or 0 when absent.
func (e *Engine) Magnitude(targetID string, kind Kind) int {
	if inst, ok := e.sets[targetID][kind]; ok {
		return inst.Magnitude
	}
	return 0
}

// Remaining returns the rounds left for the effect, or 0 when absent.
func (e *Engine) Remaining(targetID string, kind Kind) int {
	if inst, ok := e.sets[targetID][kind]; ok {
		return inst.Remaining
	}
	return 0
}

// Remove deletes the effect of the given kind from targetID.
// Removing an absent effect is a no-op.
//
// Postcondition: Has(targetID, kind) is false.
func (e *Engine) Remove(targetID string, kind Kind) {
	if set, ok := e.sets[targetID]; ok {
		delete(set, kind)
		if len(set) == 0 {
			delete(e.sets, targetID)
		}
	}
}

// Clear removes every effect from targetID (used at death resolution).
func (e *Engine) Clear(targetID string) {
	delete(e.sets, targetID)
}

// Active returns the kinds currently applied to targetID, sorted for
// deterministic iteration.
func (e *Engine) Active(targetID string) []Kind {
	set := e.sets[targetID]
	out := make([]Kind, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ArmorBonus returns the bonus armor granted by defensive effects on targetID.
//
// Postcondition: Returns >= 0.
func (e *Engine) ArmorBonus(targetID string) int {
	return e.Magnitude(targetID, Protected)
}

// DamagePercentModifier returns the net percentage adjustment to damage dealt
// by targetID from enrage and weaken effects. +50 means half again as much
// damage, -30 means 30% less.
func (e *Engine) DamagePercentModifier(targetID string) int {
	return e.Magnitude(targetID, Enraged) - e.Magnitude(targetID, Weakened)
}

// Tick decrements every effect's Remaining by exactly one, emitting periodic
// damage/heal pulses and expiries. Effects reaching zero are removed in the
// same pass, emitting their final pulse immediately before removal. Targets
// are processed in the order given; kinds within a target in sorted order,
// keeping the event stream deterministic for replay.
//
// Precondition: order lists every target ID that should tick this round.
// Postcondition: every surviving effect's Remaining decreased by exactly 1;
// every expired effect appears in the result with Expired == true.
func (e *Engine) Tick(order []string) []TickEvent {
	var events []TickEvent
	for _, targetID := range order {
		set, ok := e.sets[targetID]
		if !ok {
			continue
		}
		for _, kind := range e.Active(targetID) {
			inst := set[kind]
			inst.Remaining--

			ev := TickEvent{TargetID: targetID, Kind: kind}
			if kind.TicksDamage() {
				ev.Damage = inst.Magnitude
			}
			if kind.TicksHealing() {
				ev.Healing = inst.Magnitude
			}
			if inst.Remaining <= 0 {
				ev.Expired = true
				delete(set, kind)
			}
			if ev.Damage > 0 || ev.Healing > 0 || ev.Expired {
				events = append(events, ev)
			}
		}
		if len(set) == 0 {
			delete(e.sets, targetID)
		}
	}
	return events
}
