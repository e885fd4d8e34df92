// Package main provides the combat server binary: it wires the combat core
// to PostgreSQL persistence and runs it under lifecycle management.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"go.uber.org/zap"

	"github.com/emberwild/emberwild/internal/config"
	"github.com/emberwild/emberwild/internal/game/actor"
	"github.com/emberwild/emberwild/internal/game/battle"
	"github.com/emberwild/emberwild/internal/game/combat"
	"github.com/emberwild/emberwild/internal/game/dice"
	"github.com/emberwild/emberwild/internal/game/event"
	"github.com/emberwild/emberwild/internal/game/item"
	"github.com/emberwild/emberwild/internal/game/status"
	"github.com/emberwild/emberwild/internal/observability"
	"github.com/emberwild/emberwild/internal/server"
	"github.com/emberwild/emberwild/internal/storage/postgres"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	weaponsDir := flag.String("weapons-dir", "", "path to weapon YAML definitions directory (overrides config)")
	flag.Parse()

	ctx := context.Background()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	if *weaponsDir != "" {
		cfg.Combat.WeaponsDir = *weaponsDir
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	var rollSrc dice.Source
	if cfg.Combat.RollSeed != 0 {
		rollSrc = dice.NewSeededSource(cfg.Combat.RollSeed)
		logger.Warn("using seeded roll source, battles are replayable",
			zap.Int64("seed", cfg.Combat.RollSeed))
	} else {
		rollSrc = dice.NewCryptoSource()
	}
	if cfg.Combat.LogRolls {
		rollSrc = dice.NewLoggedSource(rollSrc, observability.ComponentLogger(logger, "dice"))
	}

	// Load weapon definitions.
	weaponStart := time.Now()
	weapons, err := item.LoadWeapons(cfg.Combat.WeaponsDir)
	if err != nil {
		logger.Fatal("loading weapon definitions", zap.Error(err))
	}
	registry := item.NewRegistry()
	for _, w := range weapons {
		if err := registry.RegisterWeapon(w); err != nil {
			logger.Fatal("registering weapon", zap.String("id", w.ID), zap.Error(err))
		}
	}
	logger.Info("loaded weapon definitions",
		zap.Int("count", len(weapons)),
		zap.Duration("elapsed", time.Since(weaponStart)),
	)

	// Connect to PostgreSQL for actor and battle persistence.
	dbStart := time.Now()
	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		logger.Fatal("connecting to database", zap.Error(err))
	}
	logger.Info("database connected",
		zap.String("host", cfg.Database.Host),
		zap.Duration("elapsed", time.Since(dbStart)),
	)

	actors := postgres.NewActorRepository(pool.DB())

	sink := event.NewLogSink(observability.ComponentLogger(logger, "combat"))
	statuses := status.NewEngine(actors, sink, observability.ComponentLogger(logger, "status"))
	loadout := actor.NewLoadout()
	resolver := combat.NewResolver(actors, loadout, statuses, nil, rollSrc, sink, observability.ComponentLogger(logger, "resolver"))
	battleMgr := battle.NewManager(actors, statuses, observability.ComponentLogger(logger, "battle"))

	// A kill drops the victim out of whatever battle is running at their
	// location.
	resolver.OnDeath(func(actorID string) {
		a, err := actors.Get(ctx, actorID)
		if err != nil {
			logger.Warn("death hook lookup failed", zap.String("actor", actorID), zap.Error(err))
			return
		}
		s, ok := battleMgr.SessionAt(a.Location)
		if !ok {
			return
		}
		if err := battleMgr.MarkParticipantDead(s.ID, actorID); err != nil {
			logger.Warn("marking participant dead failed",
				zap.String("session", s.ID),
				zap.String("actor", actorID),
				zap.Error(err))
		}
	})

	logger.Info("combat server initialized",
		zap.String("server", cfg.Server.Name),
		zap.Duration("startup", time.Since(start)),
	)

	// Wire lifecycle: the database health loop is the only long-running
	// service until a transport is attached.
	lifecycle := server.NewLifecycle(logger)

	healthInterval := cfg.Server.HealthInterval
	if healthInterval <= 0 {
		healthInterval = 30 * time.Second
	}
	healthStop := make(chan struct{})
	lifecycle.Add("postgres", &server.FuncService{
		StartFn: func() error {
			ticker := time.NewTicker(healthInterval)
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

	if err := lifecycle.Run(ctx); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}
