package script_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"textworld/internal/event"
	"textworld/internal/script"
	"textworld/internal/types"
	"textworld/internal/world"
)

const sayHello = `
package main

import "textworld/internal/script/api/api"

func Handle(SELF api.Self, EVENT api.Event, WORLD api.World) bool {
	SELF.Emote("waves")
	return true
}
`

const denyGet = `
package main

import "textworld/internal/script/api/api"

func Handle(SELF api.Self, EVENT api.Event, WORLD api.World) bool {
	if EVENT.IsGet() {
		SELF.Deny()
		return false
	}
	return true
}
`

func TestInvokeRunsScriptAndCollectsEmits(t *testing.T) {
	h := script.NewHost()
	require.NoError(t, h.Compile("greeter", sayHello))

	w := world.New()
	room := w.CreateRoom("a room")
	w.SetSpawnRoom(room)
	actor := w.CreatePlayer("alice", "h", room)

	ev := event.New(types.TriggerLook, actor)
	res, err := h.Invoke(context.Background(), "greeter", actor, ev, w, room, nil)
	require.NoError(t, err)
	require.True(t, res.Allow)
	require.Len(t, res.Emits, 1)
	require.Equal(t, script.EmitEmote, res.Emits[0].Kind)
}

func TestInvokeVetoSetsAllowFalse(t *testing.T) {
	h := script.NewHost()
	require.NoError(t, h.Compile("guard", denyGet))

	w := world.New()
	room := w.CreateRoom("a room")
	w.SetSpawnRoom(room)
	actor := w.CreatePlayer("alice", "h", room)

	ev := event.New(types.TriggerGet, actor)
	res, err := h.Invoke(context.Background(), "guard", actor, ev, w, room, nil)
	require.NoError(t, err)
	require.False(t, res.Allow)
}

func TestCompileRejectsForbiddenImport(t *testing.T) {
	h := script.NewHost()
	err := h.Compile("bad", `
package main

import "os"

func Handle(SELF api.Self, EVENT api.Event, WORLD api.World) bool {
	os.Exit(1)
	return true
}
`)
	require.Error(t, err)
}
