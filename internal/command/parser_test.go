package command_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"textworld/internal/command"
	"textworld/internal/types"
	"textworld/internal/world"
)

func TestParseAliases(t *testing.T) {
	w := world.New()
	room := w.CreateRoom("room")
	w.SetSpawnRoom(room)
	actor := w.CreatePlayer("alice", "h", room)
	p := command.New()

	i := p.Parse(actor, "'hello there", w)
	require.Equal(t, command.KindSay, i.Kind)
	require.Equal(t, "hello there", i.Text)

	i = p.Parse(actor, ";waves", w)
	require.Equal(t, command.KindEmote, i.Kind)
	require.Equal(t, "waves", i.Text)
}

func TestParseMovement(t *testing.T) {
	w := world.New()
	room := w.CreateRoom("room")
	w.SetSpawnRoom(room)
	actor := w.CreatePlayer("alice", "h", room)
	p := command.New()

	i := p.Parse(actor, "north", w)
	require.Equal(t, command.KindMove, i.Kind)
	require.Equal(t, types.North, i.Direction)
}

func TestImmortalGate(t *testing.T) {
	w := world.New()
	room := w.CreateRoom("room")
	w.SetSpawnRoom(room)
	mortal := w.CreatePlayer("bob", "h", room)
	p := command.New()

	i := p.Parse(mortal, "shutdown", w)
	require.Equal(t, command.KindNotPermitted, i.Kind)
	require.Error(t, i.Err)
}

func TestGetResolvesTarget(t *testing.T) {
	w := world.New()
	room := w.CreateRoom("room")
	w.SetSpawnRoom(room)
	actor := w.CreatePlayer("alice", "h", room)
	proto := w.CreatePrototype("ball", "a red ball", []string{"red", "ball"}, 0)
	obj, err := w.CreateObject(proto, room)
	require.NoError(t, err)

	p := command.New()
	i := p.Parse(actor, "get red", w)
	require.Equal(t, command.KindGet, i.Kind)
	require.NoError(t, i.Err)
	require.Equal(t, obj, i.Target)
}

func TestGetResolutionFailureStillYieldsIntent(t *testing.T) {
	w := world.New()
	room := w.CreateRoom("room")
	w.SetSpawnRoom(room)
	actor := w.CreatePlayer("alice", "h", room)

	p := command.New()
	i := p.Parse(actor, "get nonexistent", w)
	require.Equal(t, command.KindGet, i.Kind)
	require.Error(t, i.Err)
}
