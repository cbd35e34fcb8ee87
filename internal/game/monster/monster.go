package monster

// Monster is the single live monster instance in a room. It is not an actor:
// it has no hidden role, no abilities, and is mutated only during round
// processing.
type Monster struct {
	// TemplateID is the source template's ID.
	TemplateID string
	// Name is copied from the template for display.
	Name string
	// HP is current hit points.
	HP int
	// MaxHP is the hit point ceiling.
	MaxHP int
	// BaseDamage is the template damage before aging.
	BaseDamage int
	// Age is the number of completed aging phases.
	Age int

	aging  []AgingStep
	mult   float64
	forced *ForcedStrike
	fallen bool
}

// ForcedStrike is a controlled-monster override: the next attack strikes
// TargetID at Multiplier times the monster's current damage, bypassing the
// threat table entirely for that single attack.
type ForcedStrike struct {
	TargetID   string
	Multiplier float64
}

// State is the public view of the monster for round results.
type State struct {
	Name   string  `json:"name"`
	HP     int     `json:"hp"`
	MaxHP  int     `json:"maxHp"`
	Age    int     `json:"age"`
	Damage int     `json:"damage"`
	Rage   float64 `json:"rage"`
}

// ID is the effect-engine target key for the room monster. Only one monster
// exists per room, so a fixed key suffices.
const ID = "__monster__"

// New creates a live Monster from tmpl.
//
// Precondition: tmpl must be non-nil and validated.
// Postcondition: HP == tmpl.MaxHP; damage multiplier is 1.0 at age 0.
func New(tmpl *Template) *Monster {
	return &Monster{
		TemplateID: tmpl.ID,
		Name:       tmpl.Name,
		HP:         tmpl.MaxHP,
		MaxHP:      tmpl.MaxHP,
		BaseDamage: tmpl.Damage,
		aging:      tmpl.Aging,
		mult:       1.0,
	}
}

// TakeDamage reduces HP by amount, flooring at zero, and returns the damage
// actually absorbed.
//
// Precondition: amount must be >= 0.
// Postcondition: HP >= 0; returned value == min(amount, oldHP).
func (m *Monster) TakeDamage(amount int) int {
	if amount > m.HP {
		amount = m.HP
	}
	m.HP -= amount
	return amount
}

// IsDead reports whether the monster has zero hit points.
func (m *Monster) IsDead() bool {
	return m.HP <= 0
}

// NoteDeath records that the monster's death has been observed.
//
// Postcondition: Returns true only on the first call after HP reaches zero,
// so the death event enters the log exactly once per match.
func (m *Monster) NoteDeath() bool {
	if !m.IsDead() || m.fallen {
		return false
	}
	m.fallen = true
	return true
}

// AgeUp advances the age counter by one round and recomputes the damage
// multiplier from the template's aging curve.
//
// Postcondition: Returns the new multiplier and true when it changed.
func (m *Monster) AgeUp() (float64, bool) {
	m.Age++
	newMult := 1.0
	for _, step := range m.aging {
		if m.Age >= step.Round {
			newMult = step.Multiplier
		}
	}
	changed := newMult != m.mult
	m.mult = newMult
	return m.mult, changed
}

// CurrentDamage returns the aged attack damage: floor(base * multiplier).
func (m *Monster) CurrentDamage() int {
	return int(float64(m.BaseDamage) * m.mult)
}

// ForceStrike arms a controlled-monster override for the next attack.
//
// Precondition: targetID must be non-empty; multiplier must be > 0.
// Postcondition: the next ConsumeForced returns this override exactly once.
func (m *Monster) ForceStrike(targetID string, multiplier float64) {
	m.forced = &ForcedStrike{TargetID: targetID, Multiplier: multiplier}
}

// ConsumeForced returns and clears the armed override, or nil when none.
func (m *Monster) ConsumeForced() *ForcedStrike {
	f := m.forced
	m.forced = nil
	return f
}

// Snapshot returns the public view of the monster.
func (m *Monster) Snapshot() State {
	return State{
		Name:   m.Name,
		HP:     m.HP,
		MaxHP:  m.MaxHP,
		Age:    m.Age,
		Damage: m.CurrentDamage(),
		Rage:   m.mult,
	}
}
