// Package threat implements the monster's aggro table: per-actor accumulated
// threat from weighted combat contributions, used only to choose the
// monster's retaliation target.
package threat

import "fmt"

// Weights holds the configured contribution weights for the four threat
// components.
type Weights struct {
	MonsterDamage float64 `mapstructure:"monster_damage"`
	TotalDamage   float64 `mapstructure:"total_damage"`
	Healing       float64 `mapstructure:"healing"`
	Armor         float64 `mapstructure:"armor"`
}

// Validate checks that no weight is negative.
func (w Weights) Validate() error {
	if w.MonsterDamage < 0 || w.TotalDamage < 0 || w.Healing < 0 || w.Armor < 0 {
		return fmt.Errorf("threat weights must be >= 0, got %+v", w)
	}
	return nil
}

// Candidate is one living, targetable actor offered to SelectTarget.
type Candidate struct {
	ID string
	HP int
}

// Tracker accumulates threat per actor. Not safe for concurrent use; the
// owning room serialises round processing.
type Tracker struct {
	weights Weights
	scores  map[string]float64
}

// NewTracker creates an empty Tracker with the given weights.
//
// Precondition: weights must validate.
func NewTracker(weights Weights) (*Tracker, error) {
	if err := weights.Validate(); err != nil {
		return nil, err
	}
	return &Tracker{weights: weights, scores: make(map[string]float64)}, nil
}

// Add accumulates threat for actorID from the four weighted components.
//
// Precondition: all component values must be >= 0.
func (t *Tracker) Add(actorID string, monsterDamage, totalDamage, healingDone, effectiveArmor int) {
	t.scores[actorID] += t.weights.MonsterDamage*float64(monsterDamage) +
		t.weights.TotalDamage*float64(totalDamage) +
		t.weights.Healing*float64(healingDone) +
		t.weights.Armor*float64(effectiveArmor)
}

// Score returns the accumulated threat for actorID, or 0 if untracked.
func (t *Tracker) Score(actorID string) float64 {
	return t.scores[actorID]
}

// Decay multiplies every score by factor. Used by the room's per-round decay
// policy; factor 0 clears the table.
//
// Precondition: 0 <= factor <= 1.
func (t *Tracker) Decay(factor float64) {
	if factor <= 0 {
		t.scores = make(map[string]float64)
		return
	}
	for id := range t.scores {
		t.scores[id] *= factor
	}
}

// Remove drops actorID from the table (death or leave).
func (t *Tracker) Remove(actorID string) {
	delete(t.scores, actorID)
}

// SelectTarget picks the monster's next target from candidates: highest
// accumulated threat wins, ties broken by lowest current HP, remaining ties
// by the earliest candidate in the given order (the room passes a
// deterministic ordering).
//
// Precondition: candidates must already exclude dead and invisible actors.
// Postcondition: Returns the chosen ID, or "" when candidates is empty.
func (t *Tracker) SelectTarget(candidates []Candidate) string {
	best := -1
	for i, c := range candidates {
		if best < 0 {
			best = i
			continue
		}
		bs, cs := t.scores[candidates[best].ID], t.scores[c.ID]
		switch {
		case cs > bs:
			best = i
		case cs == bs && c.HP < candidates[best].HP:
			best = i
		}
	}
	if best < 0 {
		return ""
	}
	return candidates[best].ID
}
