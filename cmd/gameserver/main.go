// Command gameserver runs the Covenfall round-resolution engine: content
// loading, room management, scripted ability hooks, and match archival.
// Transport is embedded by the deployment; this binary hosts the engine and
// drives round resolution on the configured cadence.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/covenfall/covenfall/internal/config"
	"github.com/covenfall/covenfall/internal/game/ability"
	"github.com/covenfall/covenfall/internal/game/effect"
	"github.com/covenfall/covenfall/internal/game/eventlog"
	"github.com/covenfall/covenfall/internal/game/handler"
	"github.com/covenfall/covenfall/internal/game/monster"
	"github.com/covenfall/covenfall/internal/game/race"
	"github.com/covenfall/covenfall/internal/game/rng"
	"github.com/covenfall/covenfall/internal/game/room"
	"github.com/covenfall/covenfall/internal/game/round"
	"github.com/covenfall/covenfall/internal/observability"
	"github.com/covenfall/covenfall/internal/scripting"
	"github.com/covenfall/covenfall/internal/server"
	"github.com/covenfall/covenfall/internal/storage/postgres"
)

// castHooks bridges resolved casts to the Lua manager, binding the resolving
// room's live state for the duration of each hook call.
type castHooks struct {
	mgr *scripting.Manager
}

func (h *castHooks) OnCast(hook string, cast round.HookCast) error {
	b := scripting.Binding{
		GetActor: func(id string) *scripting.ActorInfo {
			a, ok := cast.Actors[id]
			if !ok {
				return nil
			}
			kinds := cast.Effects.Active(id)
			effects := make([]string, 0, len(kinds))
			for _, k := range kinds {
				effects = append(effects, string(k))
			}
			return &scripting.ActorInfo{
				ID:      a.ID,
				Name:    a.Name,
				HP:      a.HP,
				MaxHP:   a.MaxHP,
				Armor:   a.Armor,
				Alive:   a.Alive,
				Effects: effects,
			}
		},
		ApplyEffect: func(actorID, kind string, magnitude, duration int) error {
			if _, ok := cast.Actors[actorID]; !ok {
				return fmt.Errorf("unknown actor %q", actorID)
			}
			cast.Effects.Apply(actorID, effect.Kind(kind), magnitude, duration)
			return nil
		},
		DealDamage: func(actorID string, amount int) error {
			a, ok := cast.Actors[actorID]
			if !ok {
				return fmt.Errorf("unknown actor %q", actorID)
			}
			a.ApplyDamage(amount)
			return nil
		},
		HealActor: func(actorID string, amount int) error {
			a, ok := cast.Actors[actorID]
			if !ok {
				return fmt.Errorf("unknown actor %q", actorID)
			}
			a.Heal(amount)
			return nil
		},
		Announce: func(actorID, text string) {
			cast.Log.Public(eventlog.TypeSystem, text)
		},
	}
	return h.mgr.OnCastBound(hook, cast.ActorID, cast.TargetID, cast.Ability, b)
}

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	flag.Parse()

	ctx := context.Background()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	contentDir := cfg.Server.ContentDir

	// Load content tables.
	contentStart := time.Now()
	abilities, err := ability.LoadDirectory(filepath.Join(contentDir, "abilities"))
	if err != nil {
		logger.Fatal("loading abilities", zap.Error(err))
	}
	monsters, err := monster.LoadTemplates(filepath.Join(contentDir, "monsters"))
	if err != nil {
		logger.Fatal("loading monster templates", zap.Error(err))
	}
	races, err := race.LoadRaces(filepath.Join(contentDir, "races"))
	if err != nil {
		logger.Fatal("loading races", zap.Error(err))
	}
	if _, ok := monsters[cfg.Server.DefaultMonster]; !ok {
		logger.Fatal("default monster template not found",
			zap.String("monster", cfg.Server.DefaultMonster),
		)
	}
	logger.Info("content loaded",
		zap.Int("abilities", len(abilities.All())),
		zap.Int("monsters", len(monsters)),
		zap.Int("races", len(races)),
		zap.Duration("elapsed", time.Since(contentStart)),
	)

	handlers := handler.BuildRegistry(abilities, logger)
	roller := rng.NewLoggedRoller(rng.NewCryptoSource(), logger)

	// Initialise scripted ability hooks.
	var hooks round.HookRunner
	var scriptMgr *scripting.Manager
	if cfg.Server.ScriptingEnabled {
		scriptsDir := filepath.Join(contentDir, "scripts")
		if info, statErr := os.Stat(scriptsDir); statErr == nil && info.IsDir() {
			scriptStart := time.Now()
			scriptMgr = scripting.NewManager(roller, logger)
			if err := scriptMgr.Load(scriptsDir, 0); err != nil {
				logger.Fatal("loading hook scripts", zap.Error(err))
			}
			defer scriptMgr.Close()
			hooks = &castHooks{mgr: scriptMgr}
			logger.Info("scripting initialized",
				zap.String("dir", scriptsDir),
				zap.Duration("elapsed", time.Since(scriptStart)),
			)
		} else {
			logger.Warn("script directory not found, hooks disabled",
				zap.String("dir", scriptsDir),
			)
		}
	}

	orc, err := round.NewOrchestrator(abilities, handlers, cfg.Engine, hooks, logger)
	if err != nil {
		logger.Fatal("building orchestrator", zap.Error(err))
	}

	// Connect to PostgreSQL for the match archive.
	dbStart := time.Now()
	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		logger.Fatal("connecting to database", zap.Error(err))
	}
	logger.Info("database connected",
		zap.String("host", cfg.Database.Host),
		zap.Duration("elapsed", time.Since(dbStart)),
	)
	matchRepo := postgres.NewMatchRepository(pool.DB())

	rooms := room.NewManager(room.Deps{
		Orchestrator: orc,
		Abilities:    abilities,
		Races:        races,
		Monsters:     monsters,
		Tuning:       cfg.Engine,
		Recorder:     matchRepo,
		Logger:       logger,
	})

	interval := cfg.Server.RoundDuration
	if interval <= 0 {
		interval = 6 * time.Second
	}

	lifecycle := server.NewLifecycle(logger)

	resolverStop := make(chan struct{})
	lifecycle.Add("resolver", &server.FuncService{
		StartFn: func() error {
			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					resolveReadyRooms(ctx, rooms, logger)
				case <-resolverStop:
					return nil
				}
			}
		},
		StopFn: func() { close(resolverStop) },
	})

	healthStop := make(chan struct{})
	lifecycle.Add("postgres", &server.FuncService{
		StartFn: func() error {
			ticker := time.NewTicker(30 * time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					if err := pool.Health(ctx, 5*time.Second); err != nil {
						logger.Warn("database health check failed", zap.Error(err))
					}
				case <-healthStop:
					return nil
				}
			}
		},
		StopFn: func() {
			close(healthStop)
			pool.Close()
		},
	})

	logger.Info("game server initialized",
		zap.Duration("startup", time.Since(start)),
		zap.String("default_monster", cfg.Server.DefaultMonster),
		zap.Duration("round_interval", interval),
	)

	if err := lifecycle.Run(ctx); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}

// resolveReadyRooms resolves every room whose living actors have all
// submitted, and culls rooms whose match has finished.
func resolveReadyRooms(ctx context.Context, rooms *room.Manager, logger *zap.Logger) {
	for _, id := range rooms.IDs() {
		r, err := rooms.Get(id)
		if err != nil {
			continue
		}
		if _, done := r.Finished(); done {
			rooms.Remove(id)
			continue
		}
		if !r.AllSubmitted() {
			continue
		}
		if _, err := r.Resolve(ctx); err != nil {
			logger.Warn("round aborted",
				zap.String("room", id),
				zap.Error(err),
			)
		}
	}
}
