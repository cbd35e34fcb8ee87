// Package corruption implements the hidden-role mechanic: probabilistic
// conversion on combat contact, anti-detection healing with independent
// detection rolls, and the faction win condition.
package corruption

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/covenfall/covenfall/internal/game/actor"
	"github.com/covenfall/covenfall/internal/game/effect"
	"github.com/covenfall/covenfall/internal/game/eventlog"
)

// Faction labels for the win condition.
const (
	FactionLoyal     = "loyal"
	FactionCorrupted = "corrupted"
)

// Tuning holds the configured corruption probabilities.
type Tuning struct {
	// BaseChance is the conversion probability on a direct trigger.
	BaseChance float64 `mapstructure:"base_chance"`
	// AreaModifier scales BaseChance for area-effect triggers.
	AreaModifier float64 `mapstructure:"area_modifier"`
	// RandomModifier scales BaseChance for monster-directed/random triggers.
	RandomModifier float64 `mapstructure:"random_modifier"`
	// DetectionChance is the independent per-heal chance of exposing a
	// corrupted heal target.
	DetectionChance float64 `mapstructure:"detection_chance"`
}

// Validate checks probability invariants.
func (t Tuning) Validate() error {
	if t.BaseChance < 0 || t.BaseChance > 1 {
		return fmt.Errorf("corruption: base_chance must be in [0, 1], got %v", t.BaseChance)
	}
	if t.AreaModifier < 0 || t.RandomModifier < 0 {
		return fmt.Errorf("corruption: modifiers must be >= 0, got %+v", t)
	}
	if t.DetectionChance < 0 || t.DetectionChance > 1 {
		return fmt.Errorf("corruption: detection_chance must be in [0, 1], got %v", t.DetectionChance)
	}
	return nil
}

// Source is the subset of rng.Source needed for corruption rolls.
type Source interface {
	Float64() float64
}

// System tracks the hidden-role mechanics for one room.
type System struct {
	tuning  Tuning
	src     Source
	effects *effect.Engine
	logger  *zap.Logger
}

// NewSystem creates a System.
//
// Precondition: tuning must validate; src, effects, and logger must be non-nil.
func NewSystem(tuning Tuning, src Source, effects *effect.Engine, logger *zap.Logger) (*System, error) {
	if err := tuning.Validate(); err != nil {
		return nil, err
	}
	return &System{tuning: tuning, src: src, effects: effects, logger: logger}, nil
}

// AreaModifier returns the configured area-effect chance modifier.
func (s *System) AreaModifier() float64 { return s.tuning.AreaModifier }

// RandomModifier returns the configured random-trigger chance modifier.
func (s *System) RandomModifier() float64 { return s.tuning.RandomModifier }

// AttemptConversion rolls for converting target to the corrupted faction on a
// combat-contact trigger from source. modifier scales the base chance; pass
// 1.0 for direct triggers, or AreaModifier/RandomModifier for reduced ones.
// Sanctuary on the target blocks the attempt outright without a roll.
//
// Precondition: log must be non-nil; modifier must be >= 0.
// Postcondition: Returns true iff target flipped from loyal to corrupted.
// Already-corrupted, dead, and nil targets are never converted.
func (s *System) AttemptConversion(source, target *actor.Actor, log *eventlog.Log, modifier float64) bool {
	if source == nil || target == nil || !target.Alive {
		return false
	}
	if !source.Role.IsCorrupted() || target.Role.IsCorrupted() {
		return false
	}
	if s.effects.Has(target.ID, effect.Sanctuary) {
		return false
	}

	chance := s.tuning.BaseChance * modifier
	if s.src.Float64() >= chance {
		return false
	}

	target.Role = actor.RoleCorrupted
	log.Private(eventlog.TypeCorruption, target.ID,
		"A cold whisper settles into your bones. You now serve the coven.")
	log.Append(&eventlog.Entry{
		Type:            eventlog.TypeCorruption,
		AttackerID:      source.ID,
		TargetID:        target.ID,
		AttackerMessage: fmt.Sprintf("Your touch has corrupted %s.", target.Name),
	})
	s.logger.Debug("corruption spread",
		zap.String("source", source.ID),
		zap.String("target", target.ID),
		zap.Float64("chance", chance),
	)
	return true
}

// AttemptDetection rolls the independent detection check after a heal landed
// on a corrupted target. The heal itself always succeeds at face value (the
// anti-detection policy); detection only ever fires when actual healing was
// applied, so a full-HP corrupted target leaks nothing. A detection ward on
// the target adds its magnitude, in percent, to the detection chance.
//
// Precondition: log must be non-nil; actualHeal >= 0.
// Postcondition: Returns true iff target was newly marked detected.
func (s *System) AttemptDetection(healer, target *actor.Actor, actualHeal int, log *eventlog.Log) bool {
	if target == nil || actualHeal <= 0 {
		return false
	}
	if !target.Role.IsCorrupted() || target.Role.IsDetected() {
		return false
	}

	chance := s.tuning.DetectionChance
	if ward := s.effects.Magnitude(target.ID, effect.DetectionWard); ward > 0 {
		chance += float64(ward) / 100.0
	}
	if s.src.Float64() >= chance {
		return false
	}

	s.MarkDetected(target, log)
	if healer != nil {
		log.Append(&eventlog.Entry{
			Type:            eventlog.TypeCorruption,
			AttackerID:      healer.ID,
			TargetID:        target.ID,
			AttackerMessage: fmt.Sprintf("As your magic knits %s's wounds, it recoils from something rotten underneath.", target.Name),
		})
	}
	return true
}

// MarkDetected exposes a corrupted actor. A no-op for loyal or
// already-detected actors.
//
// Postcondition: target.Role is RoleCorruptedDetected iff it was corrupted.
func (s *System) MarkDetected(target *actor.Actor, log *eventlog.Log) {
	if target == nil || !target.Role.IsCorrupted() || target.Role.IsDetected() {
		return
	}
	target.Role = actor.RoleCorruptedDetected
	log.Public(eventlog.TypeCorruption,
		fmt.Sprintf("%s's shadow twists wrongly. The corruption in them stands revealed!", target.Name))
	s.logger.Info("corruption detected", zap.String("target", target.ID))
}

// CorruptedCount returns the number of living corrupted actors.
func CorruptedCount(actors []*actor.Actor) int {
	n := 0
	for _, a := range actors {
		if a.Alive && a.Role.IsCorrupted() {
			n++
		}
	}
	return n
}

// Winner evaluates the faction win condition as a pure function of the
// living corrupted and total counts.
//
// Postcondition: Returns (FactionLoyal, true) when no living actor is
// corrupted and at least one lives; (FactionCorrupted, true) when every
// living actor is corrupted; ("", false) otherwise.
func Winner(corruptedAlive, totalAlive int) (string, bool) {
	if totalAlive == 0 {
		return "", false
	}
	if corruptedAlive == 0 {
		return FactionLoyal, true
	}
	if corruptedAlive == totalAlive {
		return FactionCorrupted, true
	}
	return "", false
}
