package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("HRP_DATA_DIR", t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8001, cfg.Port)
	assert.False(t, cfg.DevMode)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "variance", cfg.RiskMetric)
	assert.Equal(t, "single", cfg.LinkageMethod)
	assert.Equal(t, 252, cfg.LookbackDays)
	assert.Empty(t, cfg.RefreshSchedule)
	assert.True(t, filepath.IsAbs(cfg.DataDir))
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("HRP_DATA_DIR", t.TempDir())
	t.Setenv("GO_PORT", "9000")
	t.Setenv("DEV_MODE", "true")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("HRP_RISK_METRIC", "shrinkage-oas")
	t.Setenv("HRP_LINKAGE_METHOD", "ward")
	t.Setenv("HRP_LOOKBACK_DAYS", "60")
	t.Setenv("HRP_REFRESH_SCHEDULE", "0 6 * * *")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Port)
	assert.True(t, cfg.DevMode)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "shrinkage-oas", cfg.RiskMetric)
	assert.Equal(t, "ward", cfg.LinkageMethod)
	assert.Equal(t, 60, cfg.LookbackDays)
	assert.Equal(t, "0 6 * * *", cfg.RefreshSchedule)
}

func TestLoad_BadNumbersFallBack(t *testing.T) {
	t.Setenv("HRP_DATA_DIR", t.TempDir())
	t.Setenv("GO_PORT", "not-a-port")
	t.Setenv("HRP_LOOKBACK_DAYS", "soon")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8001, cfg.Port)
	assert.Equal(t, 252, cfg.LookbackDays)
}

func TestDBPaths(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("HRP_DATA_DIR", dir)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(cfg.DataDir, "history.db"), cfg.HistoryDBPath())
	assert.Equal(t, filepath.Join(cfg.DataDir, "cache.db"), cfg.CacheDBPath())
}
