// Package room implements game rooms: independent units of engine state with
// serialized action submission and round resolution. Rooms never share
// mutable state, so distinct rooms resolve in parallel freely.
package room

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/covenfall/covenfall/internal/game/ability"
	"github.com/covenfall/covenfall/internal/game/actor"
	"github.com/covenfall/covenfall/internal/game/corruption"
	"github.com/covenfall/covenfall/internal/game/effect"
	"github.com/covenfall/covenfall/internal/game/eventlog"
	"github.com/covenfall/covenfall/internal/game/monster"
	"github.com/covenfall/covenfall/internal/game/race"
	"github.com/covenfall/covenfall/internal/game/rng"
	"github.com/covenfall/covenfall/internal/game/round"
	"github.com/covenfall/covenfall/internal/game/threat"
)

var (
	ErrRoomStarted    = errors.New("room: match already started")
	ErrRoomNotStarted = errors.New("room: match not started")
	ErrRoomFinished   = errors.New("room: match finished")
	ErrUnknownActor   = errors.New("room: unknown actor")
	ErrActorDown      = errors.New("room: actor is down")
	ErrUnknownRace    = errors.New("room: unknown race")
	ErrNoActors       = errors.New("room: no actors joined")
)

// Recorder persists match history best-effort. Failures are logged and never
// affect round resolution.
type Recorder interface {
	StartMatch(ctx context.Context, roomID, monsterID string) error
	SaveRound(ctx context.Context, roomID string, roundNum int, events []eventlog.Entry) error
	FinishMatch(ctx context.Context, roomID, winner string, rounds int) error
}

// Room owns one match's engine state. All exported methods serialise on the
// room mutex; round resolution runs as one uninterrupted pass under it.
type Room struct {
	mu sync.Mutex

	id        string
	logger    *zap.Logger
	orc       *round.Orchestrator
	abilities *ability.Registry
	races     map[string]*race.Race
	src       rng.Source
	recorder  Recorder

	st       *round.State
	pending  map[string]round.PendingAction
	seq      int
	started  bool
	finished bool
	winner   string
}

// New creates an empty room around a monster template.
//
// Precondition: orc, tmpl, abilities, src, and logger must be non-nil;
// recorder may be nil.
func New(orc *round.Orchestrator, tmpl *monster.Template, abilities *ability.Registry, races map[string]*race.Race, tuning round.Tuning, src rng.Source, recorder Recorder, logger *zap.Logger) (*Room, error) {
	id := uuid.NewString()
	logger = logger.With(zap.String("room", id))

	effects := effect.NewEngine(logger)
	tracker, err := threat.NewTracker(tuning.Threat)
	if err != nil {
		return nil, err
	}
	corr, err := corruption.NewSystem(tuning.Corruption, src, effects, logger)
	if err != nil {
		return nil, err
	}

	return &Room{
		id:        id,
		logger:    logger,
		orc:       orc,
		abilities: abilities,
		races:     races,
		src:       src,
		recorder:  recorder,
		st: &round.State{
			Actors:     make(map[string]*actor.Actor),
			Monster:    monster.New(tmpl),
			Effects:    effects,
			Threat:     tracker,
			Corruption: corr,
			Round:      1,
			Level:      1,
		},
		pending: make(map[string]round.PendingAction),
	}, nil
}

// ID returns the room's UUID.
func (r *Room) ID() string { return r.id }

// Join adds a new actor before the match starts and returns its assigned ID.
//
// Precondition: name must be non-empty; raceID must name a loaded race.
func (r *Room) Join(name, raceID string, maxHP int) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.started {
		return "", ErrRoomStarted
	}
	rc, ok := r.races[raceID]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownRace, raceID)
	}

	a := actor.New(uuid.NewString(), name, maxHP)
	a.Race = raceID
	a.Armor = rc.BonusArmor
	a.RacialAbility = rc.Ability
	a.RacialUses = rc.Uses
	for _, t := range r.abilities.UnlockedAt(r.st.Level) {
		a.Unlock(t)
	}

	r.st.Actors[a.ID] = a
	r.st.Order = append(r.st.Order, a.ID)
	r.logger.Info("actor joined",
		zap.String("actor", a.ID),
		zap.String("race", raceID),
	)
	return a.ID, nil
}

// Leave removes an actor. Mid-match, the actor is marked dead rather than
// deleted so the event log and win condition stay coherent.
func (r *Room) Leave(actorID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.st.Actors[actorID]
	if !ok {
		return ErrUnknownActor
	}
	if r.started {
		a.Alive = false
		r.st.Effects.Clear(a.ID)
		r.st.Threat.Remove(a.ID)
		delete(r.pending, a.ID)
		return nil
	}
	delete(r.st.Actors, actorID)
	for i, id := range r.st.Order {
		if id == actorID {
			r.st.Order = append(r.st.Order[:i], r.st.Order[i+1:]...)
			break
		}
	}
	return nil
}

// Start closes the roster and begins the match, secretly corrupting one
// random actor as the hidden seed of the coven.
func (r *Room) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.started {
		return ErrRoomStarted
	}
	if len(r.st.Order) == 0 {
		return ErrNoActors
	}

	seed := r.st.Order[r.src.Intn(len(r.st.Order))]
	r.st.Actors[seed].Role = actor.RoleCorrupted
	r.started = true
	r.logger.Info("match started", zap.Int("actors", len(r.st.Order)))

	if r.recorder != nil {
		if err := r.recorder.StartMatch(ctx, r.id, r.st.Monster.TemplateID); err != nil {
			r.logger.Warn("match record not started", zap.Error(err))
		}
	}
	return nil
}

// Submit queues one action for the coming round. One slot per actor,
// last-write-wins until the round closes. An attack aimed at a target that is
// invisible at submission time is redirected to the monster; other
// categories are rejected so the player can re-aim.
//
// Postcondition: on success the actor's Submitted flag is set and the
// returned bool reports whether every living actor has now submitted.
func (r *Room) Submit(actorID string, abilityID ability.Type, targetID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.started {
		return false, ErrRoomNotStarted
	}
	if r.finished {
		return false, ErrRoomFinished
	}
	a, ok := r.st.Actors[actorID]
	if !ok {
		return false, ErrUnknownActor
	}
	if !a.Alive {
		return false, ErrActorDown
	}
	def, ok := r.abilities.Get(abilityID)
	if !ok {
		return false, fmt.Errorf("room: unknown ability %q", abilityID)
	}

	targetID = r.normaliseTarget(def, actorID, targetID)
	if t, ok := r.st.Actors[targetID]; ok && t.ID != actorID &&
		r.st.Effects.Has(t.ID, effect.Invisible) {
		if def.Category == ability.CategoryAttack {
			targetID = monster.ID
		} else {
			return false, fmt.Errorf("room: target %q cannot be seen", t.Name)
		}
	}

	r.seq++
	r.pending[actorID] = round.PendingAction{
		ActorID:  actorID,
		Ability:  abilityID,
		TargetID: targetID,
		Racial:   def.Category == ability.CategoryRacial,
		Seq:      r.seq,
	}
	a.Submitted = true
	return r.allSubmittedLocked(), nil
}

func (r *Room) normaliseTarget(def *ability.Definition, actorID, targetID string) string {
	switch def.Target {
	case ability.TargetSelf:
		return actorID
	case ability.TargetMonster:
		return monster.ID
	default:
		return targetID
	}
}

// AllSubmitted reports whether every living actor has queued an action.
func (r *Room) AllSubmitted() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.allSubmittedLocked()
}

func (r *Room) allSubmittedLocked() bool {
	any := false
	for _, a := range r.st.Actors {
		if !a.Alive {
			continue
		}
		any = true
		if !a.Submitted {
			return false
		}
	}
	return any
}

// Resolve runs the queued round, whether or not every actor submitted (the
// forced entry point for submission deadlines). The round runs as a single
// uninterrupted pass under the room mutex.
func (r *Room) Resolve(ctx context.Context) (*round.Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.started {
		return nil, ErrRoomNotStarted
	}
	if r.finished {
		return nil, ErrRoomFinished
	}

	actions := make([]round.PendingAction, 0, len(r.pending))
	for _, act := range r.pending {
		actions = append(actions, act)
	}
	r.pending = make(map[string]round.PendingAction)

	res, err := r.orc.ResolveRound(r.st, actions, r.src)
	if err != nil {
		// Round aborted; actors were reset for resubmission.
		return res, err
	}

	if r.recorder != nil {
		if rerr := r.recorder.SaveRound(ctx, r.id, res.Round, res.Events); rerr != nil {
			r.logger.Warn("round not archived", zap.Int("round", res.Round), zap.Error(rerr))
		}
	}
	if res.Winner != "" {
		r.finished = true
		r.winner = res.Winner
		if r.recorder != nil {
			if rerr := r.recorder.FinishMatch(ctx, r.id, res.Winner, res.Round); rerr != nil {
				r.logger.Warn("match record not finished", zap.Error(rerr))
			}
		}
	}
	return res, nil
}

// Finished returns the match outcome, if any.
func (r *Room) Finished() (winner string, done bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.winner, r.finished
}

// ActorView is one actor as seen by the room. Corrupted roles surface only
// once detected; the hidden census never leaks through the public view.
type ActorView struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Race     string `json:"race"`
	HP       int    `json:"hp"`
	MaxHP    int    `json:"maxHp"`
	Alive    bool   `json:"alive"`
	Detected bool   `json:"detected"`
}

// View is a snapshot of the room visible to everyone in it.
type View struct {
	RoomID  string        `json:"roomId"`
	Round   int           `json:"round"`
	Level   int           `json:"level"`
	Actors  []ActorView   `json:"actors"`
	Monster monster.State `json:"monster"`
	Winner  string        `json:"winner,omitempty"`
}

// PrivateView extends an actor's public view with their own secrets.
type PrivateView struct {
	View
	Role      string         `json:"role"`
	Abilities []ability.Type `json:"abilities"`
	Effects   []effect.Kind  `json:"effects"`
}

// PublicView snapshots the room without any hidden-role information.
func (r *Room) PublicView() View {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.viewLocked()
}

func (r *Room) viewLocked() View {
	v := View{
		RoomID: r.id,
		Round:  r.st.Round,
		Level:  r.st.Level,
		Winner: r.winner,
	}
	if r.st.Monster != nil {
		v.Monster = r.st.Monster.Snapshot()
	}
	for _, id := range r.st.Order {
		a := r.st.Actors[id]
		v.Actors = append(v.Actors, ActorView{
			ID:       a.ID,
			Name:     a.Name,
			Race:     a.Race,
			HP:       a.HP,
			MaxHP:    a.MaxHP,
			Alive:    a.Alive,
			Detected: a.Role.IsDetected(),
		})
	}
	return v
}

// PrivateViewFor snapshots the room for one actor, including their hidden
// role and active effects.
func (r *Room) PrivateViewFor(actorID string) (PrivateView, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.st.Actors[actorID]
	if !ok {
		return PrivateView{}, ErrUnknownActor
	}
	pv := PrivateView{
		View:    r.viewLocked(),
		Role:    a.Role.String(),
		Effects: r.st.Effects.Active(a.ID),
	}
	for t := range a.Abilities {
		pv.Abilities = append(pv.Abilities, t)
	}
	sort.Slice(pv.Abilities, func(i, j int) bool { return pv.Abilities[i] < pv.Abilities[j] })
	return pv, nil
}
