package round

import (
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/covenfall/covenfall/internal/game/ability"
	"github.com/covenfall/covenfall/internal/game/actor"
	"github.com/covenfall/covenfall/internal/game/bonus"
	"github.com/covenfall/covenfall/internal/game/corruption"
	"github.com/covenfall/covenfall/internal/game/effect"
	"github.com/covenfall/covenfall/internal/game/eventlog"
	"github.com/covenfall/covenfall/internal/game/handler"
	"github.com/covenfall/covenfall/internal/game/monster"
	"github.com/covenfall/covenfall/internal/game/outcome"
	"github.com/covenfall/covenfall/internal/game/threat"
)

// HookCast is the live round context handed to a scripted on_cast hook.
// The maps and pointers reference in-flight round state; the runner executes
// synchronously inside the resolution pass and must not retain them.
type HookCast struct {
	ActorID  string
	TargetID string
	Ability  ability.Type
	Actors   map[string]*actor.Actor
	Effects  *effect.Engine
	Log      *eventlog.Log
}

// HookRunner runs optional per-ability scripted hooks after a successful
// dispatch. Hook failures are the runner's to contain; the orchestrator only
// logs them.
type HookRunner interface {
	OnCast(hook string, cast HookCast) error
}

// Orchestrator resolves rounds. It is stateless across rounds; all mutable
// room state lives in State and is passed to ResolveRound.
type Orchestrator struct {
	abilities *ability.Registry
	handlers  *handler.Registry
	resolver  *outcome.Resolver
	bonuses   *bonus.Calculator
	tuning    Tuning
	hooks     HookRunner
	logger    *zap.Logger
}

// NewOrchestrator creates an Orchestrator.
//
// Precondition: abilities, handlers, and logger must be non-nil; tuning must
// validate. hooks may be nil when scripting is disabled.
func NewOrchestrator(abilities *ability.Registry, handlers *handler.Registry, tuning Tuning, hooks HookRunner, logger *zap.Logger) (*Orchestrator, error) {
	if err := tuning.Validate(); err != nil {
		return nil, err
	}
	resolver, err := outcome.NewResolver(tuning.Outcome, tuning.CritMultiplier)
	if err != nil {
		return nil, err
	}
	calc, err := bonus.NewCalculator(tuning.Bonus)
	if err != nil {
		return nil, err
	}
	return &Orchestrator{
		abilities: abilities,
		handlers:  handlers,
		resolver:  resolver,
		bonuses:   calc,
		tuning:    tuning,
		hooks:     hooks,
		logger:    logger,
	}, nil
}

// ResolveRound runs the full phase machine once:
//
//	RacialActions -> MonsterAging -> PlayerActions -> MonsterAttack ->
//	StatusTick -> PendingDeathResolution -> LevelCheck -> WinCheck
//
// Actions resolve in submission order. A panic escaping any phase aborts only
// this round: every actor's Submitted flag is cleared so the room returns to
// action collection, a system error event is appended, and the error is
// returned. Side effects already applied by earlier actions in the failed
// round are not rolled back.
//
// Precondition: st and src must be non-nil; the caller serialises all access
// to st.
// Postcondition: on success, st.Round advanced (unless a winner ended the
// match), cooldowns ticked, and every Submitted flag cleared.
func (o *Orchestrator) ResolveRound(st *State, actions []PendingAction, src handler.Source) (res *Result, err error) {
	log := eventlog.New()

	defer func() {
		if rec := recover(); rec != nil {
			o.logger.Error("round resolution aborted",
				zap.Int("round", st.Round),
				zap.Any("panic", rec),
			)
			for _, a := range st.Actors {
				a.Submitted = false
			}
			log.Public(eventlog.TypeSystem,
				"A surge of wild magic disrupts the round. Choose your actions again.")
			res = o.result(st, log, nil, "")
			err = fmt.Errorf("round %d aborted: %v", st.Round, rec)
		}
	}()

	sort.SliceStable(actions, func(i, j int) bool { return actions[i].Seq < actions[j].Seq })

	ctx := &handler.Context{
		Actors:     st.Actors,
		Order:      st.Order,
		Monster:    st.Monster,
		Effects:    st.Effects,
		Threat:     st.Threat,
		Corruption: st.Corruption,
		Rng:        src,
		Logger:     o.logger,
	}
	targets := o.targetCounts(st, actions)

	// RacialActions
	for _, act := range actions {
		if act.Racial {
			o.resolveRacial(ctx, st, act, targets, log, src)
		}
	}

	// MonsterAging
	if st.Monster != nil && !st.Monster.IsDead() {
		if mult, changed := st.Monster.AgeUp(); changed {
			log.Public(eventlog.TypeMonster,
				fmt.Sprintf("The %s grows more ferocious. Its blows land harder.", st.Monster.Name))
			o.logger.Debug("monster aged",
				zap.Int("round", st.Round),
				zap.Float64("multiplier", mult),
			)
		}
	}

	// PlayerActions
	for _, act := range actions {
		if !act.Racial {
			o.resolvePlayer(ctx, st, act, targets, log, src)
		}
	}

	// MonsterAttack
	o.monsterAttack(ctx, st, log)

	// StatusTick
	o.statusTick(st, log)

	// PendingDeathResolution
	o.resolveDeaths(st, log)

	// LevelCheck
	levelUp := o.levelCheck(st, log)

	// WinCheck
	winner := o.winCheck(st, log)

	st.Threat.Decay(o.tuning.ThreatDecay)
	for _, a := range st.Actors {
		a.Submitted = false
		if a.Alive {
			a.TickCooldowns()
		}
	}
	result := o.result(st, log, levelUp, winner)
	if winner == "" {
		st.Round++
	}
	return result, nil
}

func (o *Orchestrator) result(st *State, log *eventlog.Log, levelUp *LevelUp, winner string) *Result {
	res := &Result{
		Round:   st.Round,
		Level:   st.Level,
		Events:  log.Entries(),
		LevelUp: levelUp,
		Winner:  winner,
	}
	if st.Monster != nil {
		res.Monster = st.Monster.Snapshot()
	}
	return res
}

// targetCounts tallies how many submitted actions aim at each entity this
// round; the coordination bonus reads these counts.
func (o *Orchestrator) targetCounts(st *State, actions []PendingAction) map[string]int {
	counts := make(map[string]int)
	for _, act := range actions {
		id := act.TargetID
		if id == "" {
			id = act.ActorID
		}
		counts[id]++
	}
	return counts
}

// actionableActor runs the common gate for both action phases: the actor must
// exist, be alive, and not be stunned. Stun consumes the queued action with a
// public note and no dispatch.
func (o *Orchestrator) actionableActor(st *State, act PendingAction, log *eventlog.Log) (*actor.Actor, bool) {
	a, ok := st.Actors[act.ActorID]
	if !ok || !a.Alive {
		return nil, false
	}
	if st.Effects.Has(a.ID, effect.Stunned) {
		log.Public(eventlog.TypeStatus,
			fmt.Sprintf("%s is stunned and cannot act.", a.Name))
		return nil, false
	}
	return a, true
}

func (o *Orchestrator) resolveRacial(ctx *handler.Context, st *State, act PendingAction, targets map[string]int, log *eventlog.Log, src handler.Source) {
	a, ok := o.actionableActor(st, act, log)
	if !ok {
		return
	}
	if a.RacialAbility == "" || a.RacialAbility != act.Ability {
		log.Private(eventlog.TypeFailure, a.ID, "Your blood carries no such gift.")
		return
	}
	if a.RacialUses <= 0 {
		log.Private(eventlog.TypeFailure, a.ID, "That gift is spent.")
		return
	}
	if a.RacialCooldown > 0 {
		log.Private(eventlog.TypeFailure, a.ID, "Your gift has not yet recovered.")
		return
	}
	def, ok := o.abilities.Get(act.Ability)
	if !ok {
		o.logger.Error("unknown racial ability at dispatch",
			zap.String("ability", string(act.Ability)),
			zap.String("actor", a.ID),
		)
		log.Private(eventlog.TypeFailure, a.ID, "Nothing happens.")
		return
	}

	if o.dispatch(ctx, st, a, act, def, targets, log, src, true) {
		a.RacialUses--
		a.RacialCooldown = def.Cooldown
	}
}

func (o *Orchestrator) resolvePlayer(ctx *handler.Context, st *State, act PendingAction, targets map[string]int, log *eventlog.Log, src handler.Source) {
	a, ok := o.actionableActor(st, act, log)
	if !ok {
		return
	}
	def, ok := o.abilities.Get(act.Ability)
	if !ok {
		o.logger.Error("unknown ability at dispatch",
			zap.String("ability", string(act.Ability)),
			zap.String("actor", a.ID),
		)
		log.Private(eventlog.TypeFailure, a.ID, "Nothing happens.")
		return
	}
	if !a.Knows(def.ID) {
		log.Private(eventlog.TypeFailure, a.ID,
			fmt.Sprintf("You have not yet learned %s.", def.Name))
		return
	}
	if a.OnCooldown(def.ID) {
		log.Private(eventlog.TypeFailure, a.ID,
			fmt.Sprintf("%s is still recovering.", def.Name))
		return
	}

	if o.dispatch(ctx, st, a, act, def, targets, log, src, false) {
		a.StartCooldown(def.ID, def.Cooldown)
	}
}

// dispatch runs one action through the outcome resolver, bonus calculator,
// and handler registry, writing the announcement first so an ultra-fail
// retarget can rewrite it in place.
func (o *Orchestrator) dispatch(ctx *handler.Context, st *State, a *actor.Actor, act PendingAction, def *ability.Definition, targets map[string]int, log *eventlog.Log, src handler.Source, racial bool) bool {
	announcement := log.Public(eventlog.TypeAction, o.announce(st, a, def, act.TargetID))
	announcement.AttackerID = a.ID
	announcement.TargetID = act.TargetID

	// Alternates exclude the original target so an ultra-fail redirect
	// always lands somewhere new when anywhere new exists.
	var alternates []string
	for _, id := range ctx.RedirectCandidates(a.ID, def.Category == ability.CategoryAttack) {
		if id != act.TargetID {
			alternates = append(alternates, id)
		}
	}
	res := o.resolver.Resolve(src, act.TargetID, alternates)

	switch res.Tier {
	case outcome.TierFail:
		log.Private(eventlog.TypeFailure, a.ID,
			fmt.Sprintf("Your %s falters and fails.", def.Name))
		return false
	case outcome.TierCrit:
		announcement.Message += " A surge of power courses through the attempt!"
	case outcome.TierUltraFail:
		if res.Redirected {
			announcement.Message = o.announce(st, a, def, res.TargetID) +
				" The magic twists wildly astray!"
			announcement.TargetID = res.TargetID
		}
	}

	if res.Multiplier != 1.0 {
		def = def.WithScaledParam(def.PrimaryParam(), res.Multiplier)
	}
	if res.Redirected && res.TargetID == monster.ID && def.Target != ability.TargetMonster {
		cp := *def
		cp.Target = ability.TargetMonster
		def = &cp
	}

	var target *actor.Actor
	if t, ok := st.Actors[res.TargetID]; ok {
		target = t
	}

	b := handler.Bonuses{
		Participants: targets[res.TargetID],
		Redirected:   res.Redirected,
	}
	b.CoordinationPercent = o.bonuses.Coordination(b.Participants)
	b.ComebackPercent = o.comeback(st, a)

	var ok bool
	if racial {
		ok = o.handlers.ExecuteRacial(ctx, a, target, def, log, b)
	} else {
		ok = o.handlers.ExecuteClass(ctx, a, target, def, log, b)
	}

	if ok && def.Hook != "" && o.hooks != nil {
		cast := HookCast{
			ActorID:  a.ID,
			TargetID: res.TargetID,
			Ability:  def.ID,
			Actors:   st.Actors,
			Effects:  ctx.Effects,
			Log:      log,
		}
		if err := o.hooks.OnCast(def.Hook, cast); err != nil {
			o.logger.Warn("ability hook failed",
				zap.String("hook", def.Hook),
				zap.String("ability", string(def.ID)),
				zap.Error(err),
			)
		}
	}
	return ok
}

func (o *Orchestrator) announce(st *State, a *actor.Actor, def *ability.Definition, targetID string) string {
	switch {
	case targetID == monster.ID:
		name := "the monster"
		if st.Monster != nil {
			name = "the " + st.Monster.Name
		}
		return fmt.Sprintf("%s uses %s on %s.", a.Name, def.Name, name)
	case targetID == "" || targetID == a.ID:
		return fmt.Sprintf("%s uses %s.", a.Name, def.Name)
	default:
		name := targetID
		if t, ok := st.Actors[targetID]; ok {
			name = t.Name
		}
		return fmt.Sprintf("%s uses %s on %s.", a.Name, def.Name, name)
	}
}

// comeback computes the actor's comeback percentage from the current faction
// balance. The hidden-role census stays server-side; only the bonus value
// surfaces, and only in private transparency lines.
func (o *Orchestrator) comeback(st *State, a *actor.Actor) int {
	var loyalAlive, corruptedAlive, loyalHP, loyalMaxHP int
	for _, other := range st.LivingActors() {
		if other.Role.IsCorrupted() {
			corruptedAlive++
			continue
		}
		loyalAlive++
		loyalHP += other.HP
		loyalMaxHP += other.MaxHP
	}
	return o.bonuses.Comeback(a.Role.IsCorrupted(), loyalAlive, corruptedAlive, loyalHP, loyalMaxHP)
}

// monsterAttack resolves the monster's retaliation: a forced-strike override
// if one was set this round, otherwise the top of the threat table.
func (o *Orchestrator) monsterAttack(ctx *handler.Context, st *State, log *eventlog.Log) {
	m := st.Monster
	if m == nil || m.IsDead() {
		return
	}
	if st.Effects.Has(monster.ID, effect.Stunned) {
		log.Public(eventlog.TypeMonster,
			fmt.Sprintf("The %s is stunned and thrashes harmlessly.", m.Name))
		return
	}

	multiplier := 1.0
	var target *actor.Actor
	if forced := m.ConsumeForced(); forced != nil {
		if t, ok := st.Actors[forced.TargetID]; ok && t.Alive {
			target = t
			multiplier = forced.Multiplier
		}
	}
	if target == nil {
		var candidates []threat.Candidate
		for _, a := range st.LivingActors() {
			if st.Effects.Has(a.ID, effect.Invisible) {
				continue
			}
			candidates = append(candidates, threat.Candidate{ID: a.ID, HP: a.HP})
		}
		if len(candidates) == 0 {
			log.Public(eventlog.TypeMonster,
				fmt.Sprintf("The %s snaps at shadows, finding no one.", m.Name))
			return
		}
		if t, ok := st.Actors[st.Threat.SelectTarget(candidates)]; ok {
			target = t
		}
	}
	if target == nil {
		return
	}

	raw := bonus.Scale(m.CurrentDamage(),
		multiplier*bonus.Multiplier(st.Effects.DamagePercentModifier(monster.ID)))
	if raw < 1 {
		raw = 1
	}
	dealt := actor.DamageAfterArmor(raw, ctx.EffectiveArmor(target))
	target.ApplyDamage(dealt)

	log.Append(&eventlog.Entry{
		Type:           eventlog.TypeMonster,
		Public:         true,
		TargetID:       target.ID,
		Message:        fmt.Sprintf("The %s savages %s for %d damage.", m.Name, target.Name, dealt),
		PrivateMessage: fmt.Sprintf("The %s savages you for %d damage.", m.Name, dealt),
	})
}

// statusTick runs the once-per-round effect tick over every actor and the
// monster, applying DoT/HoT pulses as they are emitted.
func (o *Orchestrator) statusTick(st *State, log *eventlog.Log) {
	order := append(append([]string{}, st.Order...), monster.ID)
	for _, ev := range st.Effects.Tick(order) {
		name, apply := o.tickTarget(st, ev.TargetID)
		if apply == nil {
			continue
		}
		if ev.Damage > 0 {
			apply(-ev.Damage)
			log.Public(eventlog.TypeStatus,
				fmt.Sprintf("%s suffers %d %s damage.", name, ev.Damage, ev.Kind))
		}
		if ev.Healing > 0 {
			apply(ev.Healing)
			log.Public(eventlog.TypeStatus,
				fmt.Sprintf("%s regains %d health from %s.", name, ev.Healing, prettyKind(ev.Kind)))
		}
		if ev.Expired {
			log.Public(eventlog.TypeStatus,
				fmt.Sprintf("The %s on %s fades.", prettyKind(ev.Kind), name))
		}
	}
}

// tickTarget returns the display name and an HP-delta applier for a tick
// target, or nil when the target no longer exists.
func (o *Orchestrator) tickTarget(st *State, id string) (string, func(delta int)) {
	if id == monster.ID {
		if st.Monster == nil || st.Monster.IsDead() {
			return "", nil
		}
		m := st.Monster
		return "The " + m.Name, func(delta int) {
			if delta < 0 {
				m.TakeDamage(-delta)
			}
		}
	}
	a, ok := st.Actors[id]
	if !ok || !a.Alive {
		return "", nil
	}
	return a.Name, func(delta int) {
		if delta < 0 {
			a.ApplyDamage(-delta)
		} else {
			a.Heal(delta)
		}
	}
}

func prettyKind(k effect.Kind) string {
	switch k {
	case effect.HealingOverTime:
		return "lingering warmth"
	case effect.DetectionWard:
		return "detection ward"
	case effect.SpiritGuard:
		return "spirit guard"
	default:
		return string(k)
	}
}

// resolveDeaths settles every actor at zero HP: a spirit guard or an unspent
// death-triggered racial cancels the death once, otherwise the actor falls
// and their effects and threat are cleared.
func (o *Orchestrator) resolveDeaths(st *State, log *eventlog.Log) {
	for _, id := range st.Order {
		a, ok := st.Actors[id]
		if !ok || !a.Alive || !a.IsDown() {
			continue
		}

		if st.Effects.Has(a.ID, effect.SpiritGuard) {
			st.Effects.Remove(a.ID, effect.SpiritGuard)
			a.HP = 1
			log.Public(eventlog.TypeStatus,
				fmt.Sprintf("A spirit guard pulls %s back from the brink.", a.Name))
			continue
		}

		if def, found := o.abilities.Get(a.RacialAbility); found &&
			def.ParamOr("passive", 0) > 0 && a.RacialUses > 0 {
			a.RacialUses--
			a.HP = int(def.ParamOr("heal", 1))
			if a.HP < 1 {
				a.HP = 1
			}
			log.Public(eventlog.TypeStatus,
				fmt.Sprintf("%s refuses to die. Their eyes open once more.", a.Name))
			continue
		}

		a.Alive = false
		st.Effects.Clear(a.ID)
		st.Threat.Remove(a.ID)
		log.Append(&eventlog.Entry{
			Type:     eventlog.TypeDeath,
			Public:   true,
			TargetID: a.ID,
			Message:  fmt.Sprintf("%s has fallen.", a.Name),
		})
	}

	if st.Monster != nil && st.Monster.NoteDeath() {
		log.Public(eventlog.TypeDeath,
			fmt.Sprintf("The %s collapses, finally slain.", st.Monster.Name))
	}
}

// levelCheck raises the party level when the round counter crosses a
// configured breakpoint, growing max HP and unlocking abilities whose
// definitions declare a minimum level.
func (o *Orchestrator) levelCheck(st *State, log *eventlog.Log) *LevelUp {
	level := o.tuning.Level.LevelForRound(st.Round)
	if level <= st.Level {
		return nil
	}
	up := &LevelUp{Old: st.Level, New: level}
	gained := level - st.Level
	st.Level = level

	unlocked := o.abilities.UnlockedAt(level)
	for _, a := range st.LivingActors() {
		a.MaxHP += o.tuning.Level.HPGrowth * gained
		a.HP += o.tuning.Level.HPGrowth * gained
		for _, t := range unlocked {
			a.Unlock(t)
		}
	}
	log.Public(eventlog.TypeLevel,
		fmt.Sprintf("The party reaches level %d. New strength flows through you.", level))
	return up
}

// winCheck evaluates the faction win condition over the living actors.
func (o *Orchestrator) winCheck(st *State, log *eventlog.Log) string {
	living := st.LivingActors()
	winner, done := corruption.Winner(corruption.CorruptedCount(living), len(living))
	if !done {
		return ""
	}
	switch winner {
	case corruption.FactionLoyal:
		log.Public(eventlog.TypeWin, "The corruption is purged. The loyal prevail.")
	case corruption.FactionCorrupted:
		log.Public(eventlog.TypeWin, "The last candle gutters out. The coven claims them all.")
	}
	return winner
}
