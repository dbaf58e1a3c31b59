package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(old) })
}

func TestLoad_Defaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "https://api.open.fec.gov/v1", cfg.FEC.BaseURL)
	assert.Equal(t, "https://lda.senate.gov/api/v1", cfg.Lobbying.BaseURL)
	assert.Equal(t, 3, cfg.Resilience.MaxRetries)
	assert.Equal(t, 5, cfg.Resilience.FailureThreshold)
	assert.Equal(t, 60, cfg.Resilience.RecoveryTimeoutS)
	assert.Len(t, cfg.Grants.Foundations, 3)
	assert.Len(t, cfg.Filings.CIKs, 3)

	// Missing credentials are a defined state, not an error.
	assert.Empty(t, cfg.FEC.APIKey)
	assert.Empty(t, cfg.Grants.APIKey)
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	content := []byte(`
store:
  driver: sqlite
  sqlite_path: /tmp/test.db
fec:
  api_key: test-key
  max_pages: 5
log:
  level: debug
  format: console
`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), content, 0o644))
	chdir(t, dir)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "test-key", cfg.FEC.APIKey)
	assert.Equal(t, 5, cfg.FEC.MaxPages)
	assert.Equal(t, "debug", cfg.Log.Level)
	// Untouched defaults survive.
	assert.Equal(t, 100, cfg.FEC.PageSize)
}

func TestLoad_BadConfigFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("store: ["), 0o644))
	chdir(t, dir)

	_, err := Load()
	assert.Error(t, err)
}

func TestInitLogger(t *testing.T) {
	require.NoError(t, InitLogger(LogConfig{Level: "warn", Format: "json"}))
	require.NoError(t, InitLogger(LogConfig{Level: "debug", Format: "console"}))
	assert.Error(t, InitLogger(LogConfig{Level: "nope", Format: "json"}))
}
