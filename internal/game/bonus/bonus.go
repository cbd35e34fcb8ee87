// Package bonus computes the multiplicative coordination and comeback
// bonuses layered on top of base ability effects. Both are expressed as
// percentages and combined into a single float multiplier by the handler so
// that rounding happens exactly once per magnitude.
package bonus

import "fmt"

// Stacking policies for coordination with more than two participants.
const (
	// StackingFlat awards the configured percentage once, regardless of how
	// many extra actors pile onto the target.
	StackingFlat = "flat"
	// StackingPerActor awards the configured percentage once per participant
	// beyond the first.
	StackingPerActor = "per_actor"
)

// Policy holds the configured bonus tuning.
type Policy struct {
	// CoordinationPercent is the damage/healing bonus when two or more actors
	// act on the same target in one round.
	CoordinationPercent int `mapstructure:"coordination_percent"`
	// Stacking selects how coordination scales past two participants.
	Stacking string `mapstructure:"stacking"`
	// ComebackPercent is the flat bonus for the disadvantaged loyal faction.
	ComebackPercent int `mapstructure:"comeback_percent"`
	// ComebackHPRatio triggers comeback when the loyal faction's pooled HP
	// fraction drops below it.
	ComebackHPRatio float64 `mapstructure:"comeback_hp_ratio"`
}

// Validate checks policy invariants.
func (p Policy) Validate() error {
	if p.CoordinationPercent < 0 {
		return fmt.Errorf("bonus: coordination_percent must be >= 0, got %d", p.CoordinationPercent)
	}
	if p.Stacking != StackingFlat && p.Stacking != StackingPerActor {
		return fmt.Errorf("bonus: stacking must be %q or %q, got %q", StackingFlat, StackingPerActor, p.Stacking)
	}
	if p.ComebackPercent < 0 {
		return fmt.Errorf("bonus: comeback_percent must be >= 0, got %d", p.ComebackPercent)
	}
	if p.ComebackHPRatio < 0 || p.ComebackHPRatio > 1 {
		return fmt.Errorf("bonus: comeback_hp_ratio must be in [0, 1], got %v", p.ComebackHPRatio)
	}
	return nil
}

// Calculator applies the configured Policy.
type Calculator struct {
	policy Policy
}

// NewCalculator creates a Calculator.
//
// Precondition: policy must validate.
func NewCalculator(policy Policy) (*Calculator, error) {
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	return &Calculator{policy: policy}, nil
}

// Coordination returns the percentage bonus for an action whose target is
// being acted on by participants actors this round.
//
// Postcondition: Returns 0 when participants < 2.
func (c *Calculator) Coordination(participants int) int {
	if participants < 2 {
		return 0
	}
	if c.policy.Stacking == StackingPerActor {
		return c.policy.CoordinationPercent * (participants - 1)
	}
	return c.policy.CoordinationPercent
}

// Comeback returns the percentage bonus for a non-corrupted actor when the
// loyal faction is outnumbered or HP-disadvantaged. The corrupted faction
// never receives a comeback bonus.
//
// Precondition: loyalMaxHP >= 0; counts >= 0.
// Postcondition: Returns 0 for corrupted actors.
func (c *Calculator) Comeback(corrupted bool, loyalAlive, corruptedAlive, loyalHP, loyalMaxHP int) int {
	if corrupted {
		return 0
	}
	if loyalAlive < corruptedAlive {
		return c.policy.ComebackPercent
	}
	if loyalMaxHP > 0 && float64(loyalHP)/float64(loyalMaxHP) < c.policy.ComebackHPRatio {
		return c.policy.ComebackPercent
	}
	return 0
}

// Multiplier converts a percentage bonus to its multiplicative factor.
func Multiplier(percent int) float64 {
	return 1.0 + float64(percent)/100.0
}

// Scale applies a combined float multiplier to a base magnitude with a single
// floor, so floor(base*1.2) is computed rather than floor(base)*1.2 rounded
// twice.
//
// Precondition: base >= 0; factor >= 0.
func Scale(base int, factor float64) int {
	return int(float64(base) * factor)
}
