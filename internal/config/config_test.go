package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
server:
  port: 9090
  host: "0.0.0.0"

dataset:
  source: "local"
  data_dir: "./test-data"
  events_file: "data1.csv"
  reference_month: "2025-06"

redis:
  enabled: true
  addr: "localhost:6380"
  ttl_seconds: 120

estimator:
  min_budget: 4000
  min_cpas: 2.5
`
	err := os.WriteFile(configPath, []byte(configContent), 0644)
	require.NoError(t, err)

	cfg, err := Load(configPath)
	require.NoError(t, err)

	// Explicit values
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, "local", cfg.Dataset.Source)
	assert.Equal(t, "./test-data", cfg.Dataset.DataDir)
	assert.Equal(t, "data1.csv", cfg.Dataset.EventsFile)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, "localhost:6380", cfg.Redis.Addr)
	assert.Equal(t, 120, cfg.Redis.TTLSeconds)
	assert.Equal(t, 4000.0, cfg.Estimator.MinBudget)
	assert.Equal(t, 2.5, cfg.Estimator.MinCPAS)

	// Defaults fill the gaps
	assert.Equal(t, "job_quality.csv", cfg.Dataset.QualityFile)
	assert.Equal(t, "budget_log.csv", cfg.Dataset.BudgetLogFile)
	assert.Equal(t, 7, cfg.Estimator.MinWindowDays)
	assert.Equal(t, 15.0, cfg.Estimator.MaxCPAS)
	assert.Equal(t, 50000.0, cfg.Estimator.MaxApplyStartsPer30)
	assert.Equal(t, 50000.0, cfg.Estimator.SimplePathThreshold)
}

func TestLoadDefaults(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("server:\n  port: 0\n"), 0644))

	cfg, err := Load(configPath)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "localhost", cfg.Server.Host)
	assert.Equal(t, "localhost:8080", cfg.Server.Addr())
	assert.Equal(t, "2025-06", cfg.Dataset.ReferenceMonth)

	start, err := cfg.Dataset.ReferenceMonthStart()
	require.NoError(t, err)
	assert.Equal(t, 2025, start.Year())
	assert.Equal(t, 6, int(start.Month()))
	assert.Equal(t, 1, start.Day())
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	assert.Error(t, err)
}

func TestLoadFromEnvOverrides(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("server:\n  port: 9090\n"), 0644))

	t.Setenv("PORT", "7070")
	t.Setenv("DATA_DIR", "/srv/campaign-data")
	t.Setenv("REDIS_ADDR", "redis.internal:6379")

	cfg, err := LoadFromEnv(configPath)
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "/srv/campaign-data", cfg.Dataset.DataDir)
	assert.Equal(t, "redis.internal:6379", cfg.Redis.Addr)
	assert.True(t, cfg.Redis.Enabled)
}
