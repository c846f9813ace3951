// Package main is the entry point for the HRP allocation service: a small
// HTTP server that stores daily price history and computes Hierarchical
// Risk Parity portfolio weights over it, on demand or on a cron schedule.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dmelis/hrpfolio/internal/config"
	"github.com/dmelis/hrpfolio/internal/database"
	"github.com/dmelis/hrpfolio/internal/modules/calculations"
	"github.com/dmelis/hrpfolio/internal/modules/history"
	"github.com/dmelis/hrpfolio/internal/modules/optimization"
	"github.com/dmelis/hrpfolio/internal/scheduler"
	"github.com/dmelis/hrpfolio/internal/server"
	"github.com/dmelis/hrpfolio/pkg/logger"
)

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func main() {
	// Load configuration first to get the log level.
	cfg, err := config.Load()
	if err != nil {
		fallbackLog := logger.New(logger.Config{Level: "info", Pretty: true})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: true,
	})
	logger.SetGlobalLogger(log)

	log.Info().Msg("Starting hrpfolio")

	// history.db holds price time series; cache.db holds ephemeral
	// calculation results and may be lost without harm.
	historyDB, err := database.New(database.Config{
		Path:    cfg.HistoryDBPath(),
		Profile: database.ProfileStandard,
		Name:    "history",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open history database")
	}
	defer historyDB.Close()

	cacheDB, err := database.New(database.Config{
		Path:    cfg.CacheDBPath(),
		Profile: database.ProfileCache,
		Name:    "cache",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open cache database")
	}
	defer cacheDB.Close()

	store, err := history.NewStore(historyDB.Conn(), log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize history store")
	}

	cache, err := calculations.NewCache(cacheDB.Conn(), log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize calculation cache")
	}

	// Risk metric and linkage method are validated here, at startup, so a
	// misconfigured service never comes up half-working.
	optimizer, err := optimization.NewHRPOptimizer(cfg.RiskMetric, cfg.LinkageMethod, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid optimizer configuration")
	}

	service := optimization.NewService(optimizer, store, cache, cfg.LookbackDays, log)

	sched := scheduler.New(log)

	cleanup := calculations.NewCleanupJob(cache, log)
	if err := sched.AddJob("@daily", cleanup); err != nil {
		log.Fatal().Err(err).Msg("Failed to register cache cleanup job")
	}
	// Clear out entries that expired while the service was down.
	if err := sched.RunNow(cleanup); err != nil {
		log.Warn().Err(err).Msg("Initial cache cleanup failed")
	}

	// Optional cron-driven re-optimization over the stored universe.
	if cfg.RefreshSchedule != "" {
		if err := sched.AddJob(cfg.RefreshSchedule, optimization.NewRefreshJob(service, log)); err != nil {
			log.Fatal().Err(err).Str("schedule", cfg.RefreshSchedule).Msg("Invalid refresh schedule")
		}
	}

	sched.Start()
	defer sched.Stop()

	srv := server.New(server.Config{
		Port:             cfg.Port,
		DevMode:          cfg.DevMode,
		Log:              log,
		OptimizerHandler: optimization.NewHandler(service, log),
		HistoryHandler:   history.NewHandler(store, log),
		SystemHandlers:   server.NewSystemHandlers(getEnv("VERSION", "dev"), log),
	})

	go func() {
		if err := srv.Start(); err != nil {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}
