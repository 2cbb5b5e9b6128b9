package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "mysql", cfg.Database.Driver)
	assert.Equal(t, 300*time.Second, cfg.Auth.DefaultTimeout)
	assert.Equal(t, 900*time.Second, cfg.Auth.MaxTimeout)
	assert.Equal(t, 2, cfg.Runner.MaxConcurrent)
	assert.Equal(t, 30*time.Minute, cfg.Runner.RunTimeout)
	assert.False(t, cfg.LLM.Enabled)
	assert.Empty(t, cfg.APIKey)
}

func TestLoadConfig_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
database:
  driver: sqlite
  path: /tmp/runs.db
auth:
  default_timeout: 60s
  max_timeout: 120s
llm:
  enabled: true
runner:
  workers: 4
api_key: secret
`), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "/tmp/runs.db", cfg.Database.Path)
	assert.Equal(t, 60*time.Second, cfg.Auth.DefaultTimeout)
	assert.Equal(t, 120*time.Second, cfg.Auth.MaxTimeout)
	assert.True(t, cfg.LLM.Enabled)
	assert.Equal(t, 4, cfg.Runner.Workers)
	assert.Equal(t, "secret", cfg.APIKey)
}

func TestLoadConfig_DefaultTimeoutAboveMax(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("auth:\n  default_timeout: 20m\n  max_timeout: 10m\n"), 0o644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}
