package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 15, cfg.Fetch.TimeoutSecs)
	assert.Equal(t, 8000, cfg.Fetch.MaxPageChars)
	assert.InDelta(t, 1.0, cfg.Fetch.RequestsPerSec, 0.001)
	assert.Equal(t, "llm", cfg.Niche.Strategy)
	assert.Equal(t, 60, cfg.Niche.Threshold)
	assert.Equal(t, 25, cfg.Niche.SampleSize)
	assert.Equal(t, 40, cfg.Niche.Scoring["multi_platform_mentions"])
	assert.Equal(t, 60, cfg.Niche.Scoring["site_appears_active"])
	assert.Equal(t, -60, cfg.Niche.Scoring["site_appears_inactive"])
	assert.Equal(t, -20, cfg.Niche.Scoring["no_multi_platform_mentions"])
	assert.Contains(t, cfg.Niche.Description, "Carpet cleaning")
	assert.Equal(t, "claude-haiku-4-5-20251001", cfg.Anthropic.Model)
	assert.Equal(t, 60, cfg.Anthropic.TimeoutSecs)
}

func TestLoadFromYAML(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
store:
  driver: postgres
  database_url: postgres://localhost/leads
niche:
  strategy: heuristic
  threshold: 30
  sample_size: 100
fetch:
  timeout_secs: 10
log:
  level: debug
  format: console
`
	require.NoError(t, os.WriteFile("config.yaml", []byte(yaml), 0o644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "postgres://localhost/leads", cfg.Store.DatabaseURL)
	assert.Equal(t, "heuristic", cfg.Niche.Strategy)
	assert.Equal(t, 30, cfg.Niche.Threshold)
	assert.Equal(t, 100, cfg.Niche.SampleSize)
	assert.Equal(t, 10, cfg.Fetch.TimeoutSecs)
	assert.Equal(t, "debug", cfg.Log.Level)
	// Untouched defaults survive a partial file.
	assert.Equal(t, 8000, cfg.Fetch.MaxPageChars)
	assert.Equal(t, 40, cfg.Niche.Scoring["multi_platform_mentions"])
}

func TestInitLogger(t *testing.T) {
	require.NoError(t, InitLogger(LogConfig{Level: "debug", Format: "console"}))
	assert.NotNil(t, zap.L())

	require.NoError(t, InitLogger(LogConfig{Level: "warn", Format: "json"}))

	err := InitLogger(LogConfig{Level: "nope", Format: "json"})
	require.Error(t, err)
}
