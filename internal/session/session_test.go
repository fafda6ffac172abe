package session_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"textworld/internal/session"
	"textworld/internal/types"
)

func TestEnqueueDrainInbound(t *testing.T) {
	s := session.New("s1", 2, 2)
	require.True(t, s.Enqueue("look"))
	require.True(t, s.Enqueue("north"))
	require.Equal(t, []string{"look", "north"}, s.DrainInbound())
	require.Empty(t, s.DrainInbound())
}

func TestEnqueueDropsOnFullQueue(t *testing.T) {
	s := session.New("s1", 1, 1)
	require.True(t, s.Enqueue("look"))
	require.False(t, s.Enqueue("north"))
	require.Equal(t, []string{"look"}, s.DrainInbound())
}

func TestSendDropsOldestWhenOutboundFull(t *testing.T) {
	s := session.New("s1", 1, 1)
	s.Send("first", false)
	s.Send("second", false)
	lines := s.DrainOutbound()
	require.Len(t, lines, 1)
	require.Equal(t, "second", lines[0].Segments[0].Text)
}

func TestSensitivePromptAppliesOnceToNextPrompt(t *testing.T) {
	s := session.New("s1", 4, 4)
	s.SetSensitivePrompt()
	s.Send("not a prompt", false)
	s.Send("password:", true)
	s.Send("next prompt", true)

	lines := s.DrainOutbound()
	require.Len(t, lines, 3)
	require.False(t, lines[0].Sensitive)
	require.True(t, lines[1].Sensitive)
	require.False(t, lines[2].Sensitive)
}

func TestBindAuthenticated(t *testing.T) {
	s := session.New("s1", 1, 1)
	require.False(t, s.Authenticated())
	s.Bind(types.EntityID(42))
	require.True(t, s.Authenticated())
	require.Equal(t, types.EntityID(42), s.Player)
}

func TestCloseIdempotent(t *testing.T) {
	s := session.New("s1", 1, 1)
	require.False(t, s.Closed())
	s.Close()
	s.Close()
	require.True(t, s.Closed())
}
