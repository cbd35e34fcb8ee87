package room

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/covenfall/covenfall/internal/game/ability"
	"github.com/covenfall/covenfall/internal/game/monster"
	"github.com/covenfall/covenfall/internal/game/race"
	"github.com/covenfall/covenfall/internal/game/rng"
	"github.com/covenfall/covenfall/internal/game/round"
)

var ErrRoomNotFound = errors.New("room: not found")

// Deps are the shared collaborators every room is built from. The
// orchestrator and content registries are immutable after startup, so rooms
// share them freely.
type Deps struct {
	Orchestrator *round.Orchestrator
	Abilities    *ability.Registry
	Races        map[string]*race.Race
	Monsters     map[string]*monster.Template
	Tuning       round.Tuning
	Recorder     Recorder
	// NewSource builds the per-room randomness source; nil means the
	// crypto-backed default. Tests inject seeded sources here.
	NewSource func() rng.Source
	Logger    *zap.Logger
}

// Manager owns the live rooms, keyed by room UUID.
type Manager struct {
	mu    sync.RWMutex
	deps  Deps
	rooms map[string]*Room
}

// NewManager creates a Manager.
//
// Precondition: deps.Orchestrator, deps.Abilities, and deps.Logger must be
// non-nil.
func NewManager(deps Deps) *Manager {
	if deps.NewSource == nil {
		deps.NewSource = rng.NewCryptoSource
	}
	return &Manager{deps: deps, rooms: make(map[string]*Room)}
}

// Create builds a new room around the named monster template and registers
// it.
func (m *Manager) Create(monsterID string) (*Room, error) {
	tmpl, ok := m.deps.Monsters[monsterID]
	if !ok {
		return nil, fmt.Errorf("room: unknown monster template %q", monsterID)
	}
	src := rng.NewLoggedRoller(m.deps.NewSource(), m.deps.Logger)
	r, err := New(m.deps.Orchestrator, tmpl, m.deps.Abilities, m.deps.Races, m.deps.Tuning, src, m.deps.Recorder, m.deps.Logger)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.rooms[r.ID()] = r
	m.mu.Unlock()

	m.deps.Logger.Info("room created",
		zap.String("room", r.ID()),
		zap.String("monster", monsterID),
	)
	return r, nil
}

// Get returns the room with the given ID.
func (m *Manager) Get(id string) (*Room, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.rooms[id]
	if !ok {
		return nil, ErrRoomNotFound
	}
	return r, nil
}

// Remove tears the room down.
func (m *Manager) Remove(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rooms, id)
}

// IDs returns the live room IDs, sorted.
func (m *Manager) IDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.rooms))
	for id := range m.rooms {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
