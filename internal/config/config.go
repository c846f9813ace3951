// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	DataDir         string // Base directory for the databases (always absolute)
	Port            int
	DevMode         bool
	LogLevel        string
	RiskMetric      string // variance | semivariance | shrinkage | shrinkage-ledoitwolf | shrinkage-oas
	LinkageMethod   string // single | complete | average | weighted | centroid | median | ward
	LookbackDays    int    // price history window for scheduled runs
	RefreshSchedule string // cron expression for the refresh job, empty disables it
}

// Load reads configuration from environment variables (.env file supported)
func Load() (*Config, error) {
	_ = godotenv.Load()

	dataDir := getEnv("HRP_DATA_DIR", "./data")
	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}
	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:         absDataDir,
		Port:            getEnvAsInt("GO_PORT", 8001),
		DevMode:         getEnvAsBool("DEV_MODE", false),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		RiskMetric:      getEnv("HRP_RISK_METRIC", "variance"),
		LinkageMethod:   getEnv("HRP_LINKAGE_METHOD", "single"),
		LookbackDays:    getEnvAsInt("HRP_LOOKBACK_DAYS", 252),
		RefreshSchedule: getEnv("HRP_REFRESH_SCHEDULE", ""),
	}

	return cfg, nil
}

// HistoryDBPath returns the path of the price history database.
func (c *Config) HistoryDBPath() string {
	return filepath.Join(c.DataDir, "history.db")
}

// CacheDBPath returns the path of the calculation cache database.
func (c *Config) CacheDBPath() string {
	return filepath.Join(c.DataDir, "cache.db")
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return fallback
}
