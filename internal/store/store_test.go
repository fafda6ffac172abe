package store_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"textworld/internal/script"
	"textworld/internal/store"
	"textworld/internal/types"
	"textworld/internal/world"
)

const guardScript = `
package main

import "textworld/internal/script/api/api"

func Handle(SELF api.Self, EVENT api.Event, WORLD api.World) bool {
	return true
}
`

func TestSaveTickThenLoadRoundTrips(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "world.db")
	s, err := store.Open(dbPath)
	require.NoError(t, err)
	defer s.Close()

	w := world.New()
	room := w.CreateRoom("a dusty room")
	w.SetSpawnRoom(room)
	beyond := w.CreateRoom("beyond the door")
	require.NoError(t, w.AddExit(room, types.North, beyond))
	require.NoError(t, w.AddExit(beyond, types.South, room))

	actor := w.CreatePlayer("alice", "hash", room)
	proto := w.CreatePrototype("ball", "a red ball", []string{"red", "ball"}, 0)
	obj, err := w.CreateObject(proto, room)
	require.NoError(t, err)
	require.NoError(t, w.SetNameOverride(obj, "shiny red ball"))
	w.Attach(world.Attachment{Entity: room, Phase: types.PhasePre, Script: "guard", Trigger: types.TriggerMove})

	host := script.NewHost()
	require.NoError(t, host.Compile("guard", guardScript))

	require.NoError(t, s.SaveTick(context.Background(), w, host))

	loaded, loadedScripts, err := s.Load()
	require.NoError(t, err)

	require.Equal(t, host.Sources(), loadedScripts)

	r, ok := loaded.Room(room)
	require.True(t, ok)
	require.Equal(t, "a dusty room", r.Description)
	require.Equal(t, beyond, r.Exits[types.North])

	p, ok := loaded.Player(actor)
	require.True(t, ok)
	require.Equal(t, "alice", p.Username)
	require.Equal(t, room, p.CurrentRoom)

	name, err := loaded.Effective(obj, "name")
	require.NoError(t, err)
	require.Equal(t, "shiny red ball", name)

	_, objects := loaded.RoomContents(room)
	require.Equal(t, []types.EntityID{obj}, objects)

	atts := loaded.AllAttachments()
	require.Len(t, atts, 1)
	require.Equal(t, "guard", atts[0].Script)

	require.Equal(t, room, loaded.SpawnRoom)
}

func TestSaveTickRetriesThenFailsAsStoreError(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "world.db")
	s, err := store.Open(dbPath)
	require.NoError(t, err)
	s.Close() // force every subsequent write to fail

	w := world.New()
	err = s.SaveTick(context.Background(), w, script.NewHost())
	require.Error(t, err)
	_, ok := err.(*types.StoreError)
	require.True(t, ok)
}
