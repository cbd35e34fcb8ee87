// Package outcome implements the weighted random outcome classification for
// every ability use: one uniform draw partitioned into ultra-fail, fail,
// critical, and normal bands, with ultra-fail target redirection.
package outcome

import "fmt"

// Tier is the 4-tier ability outcome.
type Tier int

const (
	TierUltraFail Tier = iota
	TierFail
	TierCrit
	TierNormal
)

// String returns a human-readable tier label.
func (t Tier) String() string {
	switch t {
	case TierUltraFail:
		return "ultra-fail"
	case TierFail:
		return "fail"
	case TierCrit:
		return "critical"
	case TierNormal:
		return "normal"
	default:
		return "unknown"
	}
}

// Chances holds the configured probability bands. The bands partition the
// [0, 1) draw space in order: [0, UltraFail) ultra-fail, then Fail, then
// Crit, with the remainder normal.
type Chances struct {
	UltraFail float64 `mapstructure:"ultra_fail"`
	Fail      float64 `mapstructure:"fail"`
	Crit      float64 `mapstructure:"crit"`
}

// Validate checks the band invariants.
//
// Postcondition: Returns nil iff every chance is >= 0 and their sum is <= 1.
func (c Chances) Validate() error {
	if c.UltraFail < 0 || c.Fail < 0 || c.Crit < 0 {
		return fmt.Errorf("outcome chances must be >= 0, got %+v", c)
	}
	if sum := c.UltraFail + c.Fail + c.Crit; sum > 1 {
		return fmt.Errorf("outcome chances must sum to <= 1, got %v", sum)
	}
	return nil
}

// Source is the subset of rng.Source used by the resolver.
// A local interface keeps the package decoupled from the rng implementation.
type Source interface {
	Intn(n int) int
	Float64() float64
}

// Result is the resolved outcome for one ability use.
type Result struct {
	// Tier is the classified outcome band.
	Tier Tier
	// Multiplier scales the ability's primary numeric parameter for this
	// single invocation. 1.0 except on crit and ultra-fail, where it carries
	// the critical multiplier. Carried here, never on the actor, so it
	// cannot leak into a later action in the same round.
	Multiplier float64
	// TargetID is the final target after any ultra-fail redirection.
	TargetID string
	// Redirected is true when an ultra-fail picked a new target.
	Redirected bool
}

// Resolver classifies ability-use draws into outcome tiers.
type Resolver struct {
	chances  Chances
	critMult float64
}

// NewResolver creates a Resolver with the given bands and critical multiplier.
//
// Precondition: chances must validate; critMult must be >= 1.
func NewResolver(chances Chances, critMult float64) (*Resolver, error) {
	if err := chances.Validate(); err != nil {
		return nil, err
	}
	if critMult < 1 {
		return nil, fmt.Errorf("critical multiplier must be >= 1, got %v", critMult)
	}
	return &Resolver{chances: chances, critMult: critMult}, nil
}

// Classify maps a uniform draw in [0, 1) to its outcome tier. The four bands
// partition the draw space with no gaps or overlaps.
//
// Precondition: 0 <= draw < 1.
func (r *Resolver) Classify(draw float64) Tier {
	switch {
	case draw < r.chances.UltraFail:
		return TierUltraFail
	case draw < r.chances.UltraFail+r.chances.Fail:
		return TierFail
	case draw < r.chances.UltraFail+r.chances.Fail+r.chances.Crit:
		return TierCrit
	default:
		return TierNormal
	}
}

// Resolve draws one random value, classifies it, and computes the final
// target. On ultra-fail, a random alternate target is chosen from alternates;
// when alternates is empty the original target is kept. On crit and
// ultra-fail the Result carries the critical multiplier.
//
// Precondition: src must be non-nil; alternates must already exclude the
// acting actor and any invalid targets.
// Postcondition: exactly one Float64 draw is consumed, plus one Intn draw
// iff the tier is ultra-fail and alternates is non-empty. On ultra-fail with
// a non-empty alternates list, Result.TargetID != originalTarget whenever
// alternates excludes it.
func (r *Resolver) Resolve(src Source, originalTarget string, alternates []string) Result {
	tier := r.Classify(src.Float64())

	res := Result{Tier: tier, Multiplier: 1.0, TargetID: originalTarget}
	switch tier {
	case TierCrit:
		res.Multiplier = r.critMult
	case TierUltraFail:
		res.Multiplier = r.critMult
		if len(alternates) > 0 {
			res.TargetID = alternates[src.Intn(len(alternates))]
			res.Redirected = res.TargetID != originalTarget
		}
	}
	return res
}

// CritMultiplier returns the configured critical multiplier.
func (r *Resolver) CritMultiplier() float64 {
	return r.critMult
}
