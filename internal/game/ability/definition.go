// Package ability defines the externally supplied ability content tables
// consumed by the round-resolution engine. Definitions are loaded from YAML
// and held immutable in a Registry; the engine never mutates a shared
// Definition (critical-hit scaling works on a shallow per-call copy).
package ability

import (
	"fmt"
)

// Type identifies one ability kind, e.g. "strike" or "mend".
type Type string

// Category partitions abilities by their broad mechanic.
type Category string

const (
	CategoryAttack  Category = "attack"
	CategoryHeal    Category = "heal"
	CategoryDefense Category = "defense"
	CategorySpecial Category = "special"
	CategoryRacial  Category = "racial"
)

// TargetShape describes who an ability may be aimed at.
type TargetShape string

const (
	TargetSelf       TargetShape = "self"
	TargetSingle     TargetShape = "single"
	TargetMulti      TargetShape = "multi"
	TargetAllPlayers TargetShape = "all_players"
	TargetMonster    TargetShape = "monster"
)

// Params is the free-form numeric parameter bag of a definition.
// Well-known keys: "damage", "heal", "duration", "chance", "armor",
// "magnitude", "multiplier", "uses".
type Params map[string]float64

// Definition is one immutable ability content record.
type Definition struct {
	ID          Type        `yaml:"id"`
	Name        string      `yaml:"name"`
	Description string      `yaml:"description"`
	Category    Category    `yaml:"category"`
	Target      TargetShape `yaml:"target"`
	// Cooldown is the number of rounds an actor must wait between uses; 0 = none.
	Cooldown int `yaml:"cooldown"`
	// MinLevel is the party level at which the ability unlocks.
	MinLevel int `yaml:"min_level"`
	// Effect names the status-effect kind this ability applies, if any.
	Effect string `yaml:"effect"`
	// Hook names an optional Lua on_cast script executed after the handler.
	Hook   string `yaml:"hook"`
	Params Params `yaml:"params"`
}

// Param returns the named numeric parameter.
//
// Postcondition: Returns (value, true) if present, or (0, false) otherwise.
func (d *Definition) Param(key string) (float64, bool) {
	v, ok := d.Params[key]
	return v, ok
}

// ParamOr returns the named parameter, or fallback when absent.
func (d *Definition) ParamOr(key string, fallback float64) float64 {
	if v, ok := d.Params[key]; ok {
		return v
	}
	return fallback
}

// PrimaryParam returns the parameter key that critical-outcome scaling
// applies to, chosen by category.
func (d *Definition) PrimaryParam() string {
	switch d.Category {
	case CategoryAttack:
		return "damage"
	case CategoryHeal:
		return "heal"
	case CategoryDefense:
		return "armor"
	default:
		return "magnitude"
	}
}

// WithScaledParam returns a shallow copy of d whose key parameter is
// multiplied by factor. The receiver and its Params map are never mutated;
// the copy carries a fresh map so critical-hit scaling stays confined to a
// single handler invocation.
//
// Precondition: factor > 0.
// Postcondition: d is unchanged; the returned copy's key == d's key * factor
// when the key exists, and the copy is otherwise identical to d.
func (d *Definition) WithScaledParam(key string, factor float64) *Definition {
	cp := *d
	cp.Params = make(Params, len(d.Params))
	for k, v := range d.Params {
		cp.Params[k] = v
	}
	if v, ok := cp.Params[key]; ok {
		cp.Params[key] = v * factor
	}
	return &cp
}

// Validate checks the record's structural invariants after loading.
//
// Postcondition: Returns nil iff ID, Category, and Target are all valid.
func (d *Definition) Validate() error {
	if d.ID == "" {
		return fmt.Errorf("ability: id must not be empty")
	}
	switch d.Category {
	case CategoryAttack, CategoryHeal, CategoryDefense, CategorySpecial, CategoryRacial:
	default:
		return fmt.Errorf("ability %q: unknown category %q", d.ID, d.Category)
	}
	switch d.Target {
	case TargetSelf, TargetSingle, TargetMulti, TargetAllPlayers, TargetMonster:
	default:
		return fmt.Errorf("ability %q: unknown target shape %q", d.ID, d.Target)
	}
	if d.Cooldown < 0 {
		return fmt.Errorf("ability %q: cooldown must be >= 0, got %d", d.ID, d.Cooldown)
	}
	if d.MinLevel < 0 {
		return fmt.Errorf("ability %q: min_level must be >= 0, got %d", d.ID, d.MinLevel)
	}
	return nil
}
