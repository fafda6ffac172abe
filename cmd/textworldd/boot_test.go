package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"textworld/internal/types"
	"textworld/internal/world"
)

func TestLoadConfigDataDirFlagOverridesDefault(t *testing.T) {
	t.Chdir(t.TempDir())

	orig := dataDir
	dataDir = t.TempDir()
	defer func() { dataDir = orig }()

	cfg, err := loadConfig()
	require.NoError(t, err)
	require.Equal(t, dataDir, cfg.DataDir)
}

func TestOpenWorldBootstrapsSpawnRoomOnEmptyStore(t *testing.T) {
	t.Chdir(t.TempDir())

	orig := dataDir
	dataDir = t.TempDir()
	defer func() { dataDir = orig }()

	cfg, err := loadConfig()
	require.NoError(t, err)

	st, w, host, err := openWorld(cfg)
	require.NoError(t, err)
	defer st.Close()

	require.NotZero(t, w.SpawnRoom)
	_, ok := w.Room(w.SpawnRoom)
	require.True(t, ok)
	require.NotNil(t, host)
}

func TestOpenWorldReloadsCompiledScripts(t *testing.T) {
	t.Chdir(t.TempDir())

	orig := dataDir
	dataDir = t.TempDir()
	defer func() { dataDir = orig }()

	cfg, err := loadConfig()
	require.NoError(t, err)

	st, w, host, err := openWorld(cfg)
	require.NoError(t, err)

	room := w.SpawnRoom
	src := `
package main

import "textworld/internal/script/api/api"

func Handle(SELF api.Self, EVENT api.Event, WORLD api.World) bool {
	return true
}
`
	require.NoError(t, host.Compile("greeter", src))
	w.Attach(world.Attachment{Entity: room, Phase: types.PhasePre, Script: "greeter"})
	require.NoError(t, st.SaveTick(context.Background(), w, host))
	require.NoError(t, st.Close())

	st2, _, host2, err := openWorld(cfg)
	require.NoError(t, err)
	defer st2.Close()

	require.Contains(t, host2.CompiledNames(), "greeter")
}
