package scripting

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/covenfall/covenfall/internal/game/ability"
	"github.com/covenfall/covenfall/internal/game/rng"
)

// ActorInfo is a snapshot of a participant's state passed to Lua hooks.
type ActorInfo struct {
	ID      string
	Name    string
	HP      int
	MaxHP   int
	Armor   int
	Alive   bool
	Effects []string
}

// Manager owns a single sandboxed LState holding all content hook scripts
// and dispatches ability on_cast hooks into it.
//
// The LState is single-threaded; the mutex serializes all hook calls.
// Manager is safe for concurrent OnCast after Load completes.
type Manager struct {
	mu     sync.Mutex
	state  *lua.LState
	cancel func()
	roller *rng.Roller
	logger *zap.Logger

	// Injected after construction. nil = no-op in engine.* modules.
	// A Binding passed to OnCastBound overrides these for one hook call.
	GetActor    func(id string) *ActorInfo
	ApplyEffect func(actorID, kind string, magnitude, duration int) error
	DealDamage  func(actorID string, amount int) error
	HealActor   func(actorID string, amount int) error
	Announce    func(actorID, text string)

	bound *Binding
}

// Binding is the game surface for a single hook invocation. The round layer
// rebinds per cast so engine.* modules act on the resolving room's live state.
type Binding struct {
	GetActor    func(id string) *ActorInfo
	ApplyEffect func(actorID, kind string, magnitude, duration int) error
	DealDamage  func(actorID string, amount int) error
	HealActor   func(actorID string, amount int) error
	Announce    func(actorID, text string)
}

// NewManager creates a Manager with no scripts loaded.
//
// Precondition: roller and logger must be non-nil; panics otherwise.
// Postcondition: Returns a non-nil Manager; OnCast is a no-op until Load.
func NewManager(roller *rng.Roller, logger *zap.Logger) *Manager {
	if roller == nil {
		panic("scripting: NewManager called with nil roller")
	}
	if logger == nil {
		panic("scripting: NewManager called with nil logger")
	}
	return &Manager{
		roller: roller,
		logger: logger,
	}
}

// Load creates a sandboxed VM, registers the engine.* modules, then executes
// every *.lua file under scriptDir in lexicographic order. Calling Load again
// replaces the previous VM, so content scripts can be reloaded in place.
//
// Precondition: scriptDir must be a readable directory.
// Postcondition: Hook globals defined by the scripts are callable via OnCast.
func (m *Manager) Load(scriptDir string, instLimit int) error {
	L, cancel := NewSandboxedState(instLimit)
	m.RegisterModules(L)

	entries, err := os.ReadDir(scriptDir)
	if err != nil {
		cancel()
		L.Close()
		return fmt.Errorf("scripting: reading script dir %q: %w", scriptDir, err)
	}

	var luaFiles []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".lua" {
			luaFiles = append(luaFiles, filepath.Join(scriptDir, e.Name()))
		}
	}
	sort.Strings(luaFiles)

	for _, path := range luaFiles {
		if err := L.DoFile(path); err != nil {
			cancel()
			L.Close()
			return fmt.Errorf("scripting: loading %q: %w", path, err)
		}
	}

	m.mu.Lock()
	if m.state != nil {
		m.cancel()
		m.state.Close()
	}
	m.state = L
	m.cancel = cancel
	m.mu.Unlock()

	m.logger.Info("hook scripts loaded",
		zap.String("dir", scriptDir),
		zap.Int("files", len(luaFiles)),
	)
	return nil
}

// OnCast runs the named hook with the casting actor, final target, and
// ability identifier. A hook that is not defined, or a Manager with no
// scripts loaded, is a silent no-op. Lua runtime errors are returned to the
// caller and never panic.
//
// Postcondition: The VM stack is balanced regardless of hook outcome.
func (m *Manager) OnCast(hook string, actorID, targetID string, abilityID ability.Type) error {
	_, err := m.CallHook(hook,
		lua.LString(actorID),
		lua.LString(targetID),
		lua.LString(string(abilityID)),
	)
	return err
}

// OnCastBound runs the hook with b overriding the Manager's static callbacks
// for the duration of the call. The override lives under the same mutex that
// serializes hook execution, so concurrent casts from different rooms never
// see each other's binding.
func (m *Manager) OnCastBound(hook string, actorID, targetID string, abilityID ability.Type, b Binding) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bound = &b
	defer func() { m.bound = nil }()
	_, err := m.callHookLocked(hook,
		lua.LString(actorID),
		lua.LString(targetID),
		lua.LString(string(abilityID)),
	)
	return err
}

// CallHook calls the named Lua global function with args. Returns (LNil, nil)
// if the hook is not defined or no VM is loaded.
//
// Precondition: args must be valid lua.LValue instances.
// Postcondition: Returns the first return value of the hook, or LNil.
func (m *Manager) CallHook(hook string, args ...lua.LValue) (lua.LValue, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callHookLocked(hook, args...)
}

func (m *Manager) callHookLocked(hook string, args ...lua.LValue) (lua.LValue, error) {
	if m.state == nil {
		m.logger.Info("hook called with no scripts loaded",
			zap.String("hook", hook),
		)
		return lua.LNil, nil
	}

	fn := m.state.GetGlobal(hook)
	if fn == lua.LNil {
		return lua.LNil, nil
	}

	if err := m.state.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, args...); err != nil {
		m.logger.Warn("hook runtime error",
			zap.String("hook", hook),
			zap.Error(err),
		)
		return lua.LNil, fmt.Errorf("scripting: hook %q: %w", hook, err)
	}

	ret := m.state.Get(-1)
	m.state.Pop(1)
	return ret, nil
}

// Close releases the VM. Subsequent OnCast calls are no-ops.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != nil {
		m.cancel()
		m.state.Close()
		m.state = nil
		m.cancel = nil
	}
}
