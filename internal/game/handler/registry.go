package handler

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/covenfall/covenfall/internal/game/ability"
	"github.com/covenfall/covenfall/internal/game/actor"
	"github.com/covenfall/covenfall/internal/game/eventlog"
)

// Func is the fixed effect-handler signature. target is nil for self- and
// monster-directed abilities. The boolean return reports whether the ability
// had any game effect; it drives bookkeeping, never retries.
type Func func(ctx *Context, act *actor.Actor, target *actor.Actor, def *ability.Definition, log *eventlog.Log, b Bonuses) bool

// Registry is the dispatch table from ability type to handler, partitioned
// into class-ability and racial-ability tables.
type Registry struct {
	class  map[ability.Type]Func
	racial map[ability.Type]Func
	logger *zap.Logger
}

// NewRegistry creates an empty Registry.
//
// Precondition: logger must be non-nil.
func NewRegistry(logger *zap.Logger) *Registry {
	return &Registry{
		class:  make(map[ability.Type]Func),
		racial: make(map[ability.Type]Func),
		logger: logger,
	}
}

// RegisterClass binds a class-ability type to its handler, overwriting any
// existing binding.
//
// Precondition: fn must be non-nil.
func (r *Registry) RegisterClass(t ability.Type, fn Func) {
	r.class[t] = fn
}

// RegisterRacial binds a racial-ability type to its handler.
//
// Precondition: fn must be non-nil.
func (r *Registry) RegisterRacial(t ability.Type, fn Func) {
	r.racial[t] = fn
}

// HasClass reports whether a class handler is bound for t.
func (r *Registry) HasClass(t ability.Type) bool {
	_, ok := r.class[t]
	return ok
}

// HasRacial reports whether a racial handler is bound for t.
func (r *Registry) HasRacial(t ability.Type) bool {
	_, ok := r.racial[t]
	return ok
}

// ExecuteClass dispatches a class ability through its handler. A missing
// handler is a configuration error: logged, the action becomes a no-op
// failure, and no error propagates. A panicking handler is contained at this
// boundary, attributed to the actor as a generic failure, and never aborts
// the rest of the round.
//
// Precondition: act, def, and log must be non-nil.
// Postcondition: Returns true iff the handler ran and reported an effect.
func (r *Registry) ExecuteClass(ctx *Context, act *actor.Actor, target *actor.Actor, def *ability.Definition, log *eventlog.Log, b Bonuses) bool {
	return r.execute(r.class, "class", ctx, act, target, def, log, b)
}

// ExecuteRacial dispatches a racial ability with the same containment
// guarantees as ExecuteClass.
func (r *Registry) ExecuteRacial(ctx *Context, act *actor.Actor, target *actor.Actor, def *ability.Definition, log *eventlog.Log, b Bonuses) bool {
	return r.execute(r.racial, "racial", ctx, act, target, def, log, b)
}

func (r *Registry) execute(table map[ability.Type]Func, kind string, ctx *Context, act *actor.Actor, target *actor.Actor, def *ability.Definition, log *eventlog.Log, b Bonuses) (ok bool) {
	fn, found := table[def.ID]
	if !found {
		r.logger.Error("no handler registered for ability",
			zap.String("kind", kind),
			zap.String("ability", string(def.ID)),
			zap.String("actor", act.ID),
		)
		log.Private(eventlog.TypeFailure, act.ID,
			fmt.Sprintf("Nothing happens. %s fizzles.", def.Name))
		return false
	}

	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("handler panic contained",
				zap.String("ability", string(def.ID)),
				zap.String("actor", act.ID),
				zap.Any("panic", rec),
			)
			log.Private(eventlog.TypeFailure, act.ID,
				"Something went wrong as you unleashed your ability. Its power dissipates harmlessly.")
			ok = false
		}
	}()

	return fn(ctx, act, target, def, log, b)
}
