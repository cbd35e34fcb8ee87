package scripting

import (
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// RegisterModules registers the engine.* Lua tables into L.
//
// Modules backed by Manager callback fields tolerate nil callbacks: getters
// return nil and mutators become no-ops, so content scripts can be loaded
// and unit-tested without a live game wired in.
//
// Precondition: L must be from NewSandboxedState.
// Postcondition: The engine global is defined in L.
func (m *Manager) RegisterModules(L *lua.LState) {
	engine := L.NewTable()
	L.SetGlobal("engine", engine)

	L.SetField(engine, "log", m.logModule(L))
	L.SetField(engine, "rng", m.rngModule(L))
	L.SetField(engine, "actor", m.actorModule(L))
	L.SetField(engine, "combat", m.combatModule(L))
	L.SetField(engine, "world", m.worldModule(L))
}

// logModule exposes engine.log.{debug,info,warn,error}(msg).
func (m *Manager) logModule(L *lua.LState) *lua.LTable {
	tbl := L.NewTable()
	scripted := m.logger.With(zap.String("source", "script"))
	for name, log := range map[string]func(string, ...zap.Field){
		"debug": scripted.Debug,
		"info":  scripted.Info,
		"warn":  scripted.Warn,
		"error": scripted.Error,
	} {
		log := log
		L.SetField(tbl, name, L.NewFunction(func(ls *lua.LState) int {
			log(ls.CheckString(1))
			return 0
		}))
	}
	return tbl
}

// rngModule exposes engine.rng.chance(p) and engine.rng.pick(n).
// Draws go through the Manager's roller so hook randomness shows up in the
// same audit trail as engine draws.
func (m *Manager) rngModule(L *lua.LState) *lua.LTable {
	tbl := L.NewTable()
	L.SetField(tbl, "chance", L.NewFunction(func(ls *lua.LState) int {
		p := float64(ls.CheckNumber(1))
		ls.Push(lua.LBool(m.roller.Chance(p)))
		return 1
	}))
	L.SetField(tbl, "pick", L.NewFunction(func(ls *lua.LState) int {
		n := ls.CheckInt(1)
		if n <= 0 {
			ls.ArgError(1, "pick requires a positive bound")
			return 0
		}
		ls.Push(lua.LNumber(m.roller.Intn(n) + 1))
		return 1
	}))
	return tbl
}

// actorModule exposes read-only participant snapshots:
// engine.actor.get(id), engine.actor.hp(id), engine.actor.name(id).
func (m *Manager) actorModule(L *lua.LState) *lua.LTable {
	tbl := L.NewTable()
	L.SetField(tbl, "get", L.NewFunction(func(ls *lua.LState) int {
		info := m.lookupActor(ls.CheckString(1))
		if info == nil {
			ls.Push(lua.LNil)
			return 1
		}
		ls.Push(actorToTable(ls, info))
		return 1
	}))
	L.SetField(tbl, "hp", L.NewFunction(func(ls *lua.LState) int {
		info := m.lookupActor(ls.CheckString(1))
		if info == nil {
			ls.Push(lua.LNil)
			return 1
		}
		ls.Push(lua.LNumber(info.HP))
		return 1
	}))
	L.SetField(tbl, "name", L.NewFunction(func(ls *lua.LState) int {
		info := m.lookupActor(ls.CheckString(1))
		if info == nil {
			ls.Push(lua.LNil)
			return 1
		}
		ls.Push(lua.LString(info.Name))
		return 1
	}))
	return tbl
}

// combatModule exposes the mutating callbacks:
// engine.combat.apply_effect(id, kind, magnitude, duration),
// engine.combat.damage(id, amount), engine.combat.heal(id, amount).
// Each returns true on success, false when the callback is absent or fails.
func (m *Manager) combatModule(L *lua.LState) *lua.LTable {
	tbl := L.NewTable()
	L.SetField(tbl, "apply_effect", L.NewFunction(func(ls *lua.LState) int {
		fn := m.applyEffectFn()
		if fn == nil {
			ls.Push(lua.LFalse)
			return 1
		}
		err := fn(
			ls.CheckString(1),
			ls.CheckString(2),
			ls.CheckInt(3),
			ls.CheckInt(4),
		)
		ls.Push(lua.LBool(err == nil))
		return 1
	}))
	L.SetField(tbl, "damage", L.NewFunction(func(ls *lua.LState) int {
		fn := m.dealDamageFn()
		if fn == nil {
			ls.Push(lua.LFalse)
			return 1
		}
		err := fn(ls.CheckString(1), ls.CheckInt(2))
		ls.Push(lua.LBool(err == nil))
		return 1
	}))
	L.SetField(tbl, "heal", L.NewFunction(func(ls *lua.LState) int {
		fn := m.healActorFn()
		if fn == nil {
			ls.Push(lua.LFalse)
			return 1
		}
		err := fn(ls.CheckString(1), ls.CheckInt(2))
		ls.Push(lua.LBool(err == nil))
		return 1
	}))
	return tbl
}

// worldModule exposes engine.world.announce(actor_id, text), which appends a
// public line to the log of the room the actor is in.
func (m *Manager) worldModule(L *lua.LState) *lua.LTable {
	tbl := L.NewTable()
	L.SetField(tbl, "announce", L.NewFunction(func(ls *lua.LState) int {
		if fn := m.announceFn(); fn != nil {
			fn(ls.CheckString(1), ls.CheckString(2))
		}
		return 0
	}))
	return tbl
}

// The accessor funcs below prefer the per-cast binding over the static
// callbacks. Module closures only run while the hook mutex is held, so
// reading bound here is race-free.

func (m *Manager) lookupActor(id string) *ActorInfo {
	if m.bound != nil && m.bound.GetActor != nil {
		return m.bound.GetActor(id)
	}
	if m.GetActor == nil {
		return nil
	}
	return m.GetActor(id)
}

func (m *Manager) applyEffectFn() func(string, string, int, int) error {
	if m.bound != nil && m.bound.ApplyEffect != nil {
		return m.bound.ApplyEffect
	}
	return m.ApplyEffect
}

func (m *Manager) dealDamageFn() func(string, int) error {
	if m.bound != nil && m.bound.DealDamage != nil {
		return m.bound.DealDamage
	}
	return m.DealDamage
}

func (m *Manager) healActorFn() func(string, int) error {
	if m.bound != nil && m.bound.HealActor != nil {
		return m.bound.HealActor
	}
	return m.HealActor
}

func (m *Manager) announceFn() func(string, string) {
	if m.bound != nil && m.bound.Announce != nil {
		return m.bound.Announce
	}
	return m.Announce
}

func actorToTable(L *lua.LState, info *ActorInfo) *lua.LTable {
	tbl := L.NewTable()
	L.SetField(tbl, "id", lua.LString(info.ID))
	L.SetField(tbl, "name", lua.LString(info.Name))
	L.SetField(tbl, "hp", lua.LNumber(info.HP))
	L.SetField(tbl, "max_hp", lua.LNumber(info.MaxHP))
	L.SetField(tbl, "armor", lua.LNumber(info.Armor))
	L.SetField(tbl, "alive", lua.LBool(info.Alive))
	effects := L.NewTable()
	for i, e := range info.Effects {
		L.RawSetInt(effects, i+1, lua.LString(e))
	}
	L.SetField(tbl, "effects", effects)
	return tbl
}
