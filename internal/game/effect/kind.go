// Package effect implements the timed status-effect engine: applying,
// storing, ticking down, and expiring effects on actors and the monster.
package effect

// Kind identifies one status-effect kind.
type Kind string

const (
	// Poison deals its magnitude as damage once per round tick.
	Poison Kind = "poison"
	// Stunned skips the actor's queued action for the round.
	Stunned Kind = "stunned"
	// Invisible makes direct-target abilities aimed at the actor fail.
	Invisible Kind = "invisible"
	// Vulnerable increases damage taken by magnitude percent.
	Vulnerable Kind = "vulnerable"
	// Protected grants magnitude bonus armor.
	Protected Kind = "protected"
	// Enraged increases damage dealt by magnitude percent.
	Enraged Kind = "enraged"
	// SpiritGuard absorbs the next death, leaving the actor at 1 HP.
	SpiritGuard Kind = "spirit_guard"
	// Sanctuary blocks corruption conversion attempts on the actor.
	Sanctuary Kind = "sanctuary"
	// Weakened reduces damage dealt by magnitude percent.
	Weakened Kind = "weakened"
	// HealingOverTime restores its magnitude as healing once per round tick.
	HealingOverTime Kind = "healing_over_time"
	// DetectionWard raises corruption-detection chance against the target.
	DetectionWard Kind = "detection_ward"
)

// TicksDamage reports whether the kind deals its magnitude as damage on tick.
func (k Kind) TicksDamage() bool {
	return k == Poison
}

// TicksHealing reports whether the kind restores its magnitude on tick.
func (k Kind) TicksHealing() bool {
	return k == HealingOverTime
}
