package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestLoadOrCreateConfigFromPath_CreatesDefaults(t *testing.T) {
	t.Parallel()
	configPath := filepath.Join(t.TempDir(), "config.yaml")

	cfg, err := LoadOrCreateConfigFromPath(configPath)
	require.NoError(t, err)
	assert.Equal(t, 256, cfg.MaxToolCount)
	assert.Equal(t, 32, cfg.ExecutionContextCapacity)
	assert.Equal(t, 256, cfg.BytecodeStackDepth)
	assert.Equal(t, 100_000, cfg.BytecodeStepBudget)
	assert.True(t, cfg.AuthStrictMode)
	assert.FileExists(t, configPath)
}

func TestLoadOrCreateConfigFromPath_LoadsExisting(t *testing.T) {
	t.Parallel()
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	want := &Config{MaxToolCount: 10, ExecutionContextCapacity: 4, AuthStrictMode: false}
	data, err := yaml.Marshal(want)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(configPath, data, 0o600))

	got, err := LoadOrCreateConfigFromPath(configPath)
	require.NoError(t, err)
	assert.Equal(t, 10, got.MaxToolCount)
	assert.Equal(t, 4, got.ExecutionContextCapacity)
	assert.False(t, got.AuthStrictMode)
}

func TestUpdateConfigAtPath(t *testing.T) {
	t.Parallel()
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	_, err := LoadOrCreateConfigFromPath(configPath)
	require.NoError(t, err)

	err = UpdateConfigAtPath(configPath, func(c *Config) {
		c.MaxToolCount = 42
	})
	require.NoError(t, err)

	got, err := LoadOrCreateConfigFromPath(configPath)
	require.NoError(t, err)
	assert.Equal(t, 42, got.MaxToolCount)
}

func TestPathProvider(t *testing.T) {
	t.Parallel()
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	provider := NewPathProvider(configPath)

	cfg, err := provider.LoadOrCreateConfig()
	require.NoError(t, err)
	assert.Equal(t, 256, cfg.MaxToolCount)

	require.NoError(t, provider.UpdateConfig(func(c *Config) {
		c.HTTPListenAddr = "127.0.0.1:9000"
	}))

	got := provider.GetConfig()
	assert.Equal(t, "127.0.0.1:9000", got.HTTPListenAddr)
}

func TestPathProvider_GetConfigFallsBackOnError(t *testing.T) {
	t.Parallel()
	// A directory where a file is expected causes a read error; GetConfig
	// must fall back to defaults rather than panic or return nil.
	dir := t.TempDir()
	provider := NewPathProvider(dir)
	cfg := provider.GetConfig()
	assert.NotNil(t, cfg)
	assert.Equal(t, 256, cfg.MaxToolCount)
}
