package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.Equal(t, 50*time.Millisecond, cfg.TickInterval())
	require.Equal(t, 50*time.Millisecond, cfg.ScriptBudget())
	require.Equal(t, 20*time.Minute, cfg.SessionIdleTimeout())
	require.Equal(t, 5*time.Second, cfg.RulesQueryTimeout())
	require.Equal(t, filepath.Join(".textworld", "world.db"), cfg.StorePath())
}

func TestConfigSaveLoadRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg := DefaultConfig()
	cfg.Tick.Interval = "100ms"
	cfg.Session.ListenAddr = ":4000"
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 100*time.Millisecond, loaded.TickInterval())
	require.Equal(t, ":4000", loaded.Session.ListenAddr)
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	loaded, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	require.Equal(t, DefaultConfig().Tick.Interval, loaded.Tick.Interval)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("TEXTWORLD_DB_PATH", "/tmp/override.db")
	t.Setenv("TEXTWORLD_LOG_LEVEL", "debug")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	require.Equal(t, "/tmp/override.db", cfg.Store.Path)
	require.Equal(t, "debug", cfg.Logging.Level)
	require.True(t, cfg.Logging.DebugMode)
}

func TestStorePathAbsoluteIsNotJoinedWithDataDir(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Store.Path = "/var/lib/textworld/world.db"
	require.Equal(t, "/var/lib/textworld/world.db", cfg.StorePath())
}
