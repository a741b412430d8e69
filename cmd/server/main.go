// Package main is the entry point for the cartera portfolio analytics
// service. It loads configuration, opens the databases, wires the analytics
// modules behind an HTTP API, and schedules background cache maintenance.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/Romequinco/cartera/internal/config"
	"github.com/Romequinco/cartera/internal/database"
	"github.com/Romequinco/cartera/internal/modules/calculations"
	"github.com/Romequinco/cartera/internal/modules/diversification"
	"github.com/Romequinco/cartera/internal/modules/markowitz"
	"github.com/Romequinco/cartera/internal/modules/statistics"
	"github.com/Romequinco/cartera/internal/returns"
	"github.com/Romequinco/cartera/internal/scheduler"
	"github.com/Romequinco/cartera/internal/server"
	"github.com/Romequinco/cartera/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallbackLog := logger.New(logger.Config{Level: "info", Pretty: true})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})
	log.Info().Msg("Starting cartera")

	returnsDB, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, "returns.db"),
		Profile: database.ProfileStandard,
		Name:    "returns",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open returns database")
	}
	defer returnsDB.Close()

	cacheDB, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, "cache.db"),
		Profile: database.ProfileCache,
		Name:    "cache",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open cache database")
	}
	defer cacheDB.Close()

	for _, db := range []*database.DB{returnsDB, cacheDB} {
		if err := db.Migrate(); err != nil {
			log.Fatal().Err(err).Str("database", db.Name()).Msg("Migration failed")
		}
	}

	srv := server.New(server.Config{
		Log:       log,
		Config:    cfg,
		ReturnsDB: returnsDB,
		CacheDB:   cacheDB,
	})

	sched := scheduler.New(log)
	cache := calculations.NewCache(cacheDB, log)
	store := returns.NewStore(returnsDB)

	pruneJob := scheduler.NewCachePruneJob(cache, log)
	if err := sched.AddJob("@hourly", pruneJob); err != nil {
		log.Fatal().Err(err).Msg("Failed to register cache prune job")
	}

	// Warm the analytics caches before markets open.
	warmupJob := scheduler.NewWarmupJob(
		store, cache,
		statistics.NewEstimator(log),
		diversification.NewSimulator(log),
		markowitz.NewOptimizer(log),
		cfg.RiskFreeRate,
		cfg.SimSeed,
		cfg.SimCount,
		log,
	)
	if err := sched.AddJob("0 30 6 * * *", warmupJob); err != nil {
		log.Fatal().Err(err).Msg("Failed to register warmup job")
	}
	sched.Start()
	defer sched.Stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()
	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server shutdown failed")
	}

	log.Info().Msg("Shutdown complete")
}
