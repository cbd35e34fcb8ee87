// Package round implements the round orchestrator: the phase state machine
// that consumes queued actions and resolves one complete round against the
// room's actors, monster, effects, threat, and corruption state.
package round

import (
	"fmt"
	"strings"

	"github.com/covenfall/covenfall/internal/game/ability"
	"github.com/covenfall/covenfall/internal/game/actor"
	"github.com/covenfall/covenfall/internal/game/bonus"
	"github.com/covenfall/covenfall/internal/game/corruption"
	"github.com/covenfall/covenfall/internal/game/effect"
	"github.com/covenfall/covenfall/internal/game/eventlog"
	"github.com/covenfall/covenfall/internal/game/monster"
	"github.com/covenfall/covenfall/internal/game/outcome"
	"github.com/covenfall/covenfall/internal/game/threat"
)

// PendingAction is one queued player action, held only until its round
// resolves. Seq is the submission sequence number; resolution order follows
// it, never a re-sort.
type PendingAction struct {
	ActorID  string
	Ability  ability.Type
	TargetID string
	Racial   bool
	Seq      int
}

// LevelUp reports a party level change produced by the level-check phase.
type LevelUp struct {
	Old int
	New int
}

// Result is the output of one resolved round.
type Result struct {
	// Round is the round number that was just resolved.
	Round int
	// Level is the party level after the level-check phase.
	Level int
	// Events is the ordered narrative log for the round.
	Events []eventlog.Entry
	// LevelUp is non-nil when the party levelled this round.
	LevelUp *LevelUp
	// Winner is corruption.FactionLoyal or FactionCorrupted, or empty while
	// the match continues.
	Winner string
	// Monster is the monster's public state after the round.
	Monster monster.State
}

// State is one room's mutable engine state. The owning room serialises all
// access; nothing here is safe for concurrent use.
type State struct {
	Actors     map[string]*actor.Actor
	Order      []string
	Monster    *monster.Monster
	Effects    *effect.Engine
	Threat     *threat.Tracker
	Corruption *corruption.System
	// Round is the next round number to resolve, starting at 1.
	Round int
	// Level is the current party level, starting at 1.
	Level int
}

// LivingActors returns the living actors in join order.
func (s *State) LivingActors() []*actor.Actor {
	var out []*actor.Actor
	for _, id := range s.Order {
		if a, ok := s.Actors[id]; ok && a.Alive {
			out = append(out, a)
		}
	}
	return out
}

// LevelPolicy configures party leveling.
type LevelPolicy struct {
	// Breakpoints are the round numbers at which the party level rises, in
	// ascending order. Crossing the Nth breakpoint puts the party at level
	// N+1.
	Breakpoints []int `mapstructure:"breakpoints"`
	// HPGrowth is the max-HP gain per actor per level gained.
	HPGrowth int `mapstructure:"hp_growth"`
}

// LevelForRound returns the party level implied by the round counter.
func (p LevelPolicy) LevelForRound(round int) int {
	level := 1
	for _, bp := range p.Breakpoints {
		if round >= bp {
			level++
		}
	}
	return level
}

// Tuning aggregates every configured constant the orchestrator needs.
type Tuning struct {
	Outcome        outcome.Chances   `mapstructure:"outcome"`
	CritMultiplier float64           `mapstructure:"crit_multiplier"`
	Bonus          bonus.Policy      `mapstructure:"bonus"`
	Corruption     corruption.Tuning `mapstructure:"corruption"`
	Threat         threat.Weights    `mapstructure:"threat"`
	// ThreatDecay multiplies every threat score once per round; 1.0 disables
	// decay.
	ThreatDecay float64     `mapstructure:"threat_decay"`
	Level       LevelPolicy `mapstructure:"level"`
}

// Validate aggregates every tuning violation into one error.
func (t Tuning) Validate() error {
	var violations []string
	if err := t.Outcome.Validate(); err != nil {
		violations = append(violations, err.Error())
	}
	if t.CritMultiplier < 1 {
		violations = append(violations, fmt.Sprintf("crit_multiplier must be >= 1, got %v", t.CritMultiplier))
	}
	if err := t.Bonus.Validate(); err != nil {
		violations = append(violations, err.Error())
	}
	if err := t.Corruption.Validate(); err != nil {
		violations = append(violations, err.Error())
	}
	if err := t.Threat.Validate(); err != nil {
		violations = append(violations, err.Error())
	}
	if t.ThreatDecay < 0 || t.ThreatDecay > 1 {
		violations = append(violations, fmt.Sprintf("threat_decay must be in [0, 1], got %v", t.ThreatDecay))
	}
	if t.Level.HPGrowth < 0 {
		violations = append(violations, fmt.Sprintf("level.hp_growth must be >= 0, got %d", t.Level.HPGrowth))
	}
	for i := 1; i < len(t.Level.Breakpoints); i++ {
		if t.Level.Breakpoints[i] <= t.Level.Breakpoints[i-1] {
			violations = append(violations, "level.breakpoints must be strictly ascending")
			break
		}
	}
	if len(violations) > 0 {
		return fmt.Errorf("invalid round tuning: %s", strings.Join(violations, "; "))
	}
	return nil
}
