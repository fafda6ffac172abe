package session_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"textworld/internal/logging"
	"textworld/internal/pipeline"
	"textworld/internal/rules"
	"textworld/internal/scheduler"
	"textworld/internal/script"
	"textworld/internal/session"
	"textworld/internal/world"
)

func TestGatewayRegisterAndDrainIntake(t *testing.T) {
	g := session.NewGateway()
	s := g.Register(4, 4)
	require.Equal(t, 1, g.Count())

	s.Enqueue("look")
	s.Enqueue("north")

	lines := g.DrainIntake()
	require.Len(t, lines, 2)
	require.Equal(t, "look", lines[0].Line)
	require.Same(t, s, lines[0].Session)
}

func TestGatewayBindAndSendTo(t *testing.T) {
	w := newAuthWorld(t)
	reg, err := session.Register(w, "alice", "hunter2")
	require.NoError(t, err)

	g := session.NewGateway()
	s := g.Register(4, 4)
	g.Bind(s, reg.Player)

	found, ok := g.SessionForPlayer(reg.Player)
	require.True(t, ok)
	require.Same(t, s, found)

	g.SendTo(reg.Player, "welcome back")
	out := g.FlushOutbound()
	require.Len(t, out[s], 1)
}

func TestGatewaySendToUnknownPlayerIsNoop(t *testing.T) {
	g := session.NewGateway()
	g.SendTo(999, "nobody home")
	out := g.FlushOutbound()
	require.Empty(t, out)
}

func TestGatewayUnregisterRemovesPlayerBinding(t *testing.T) {
	w := newAuthWorld(t)
	reg, err := session.Register(w, "alice", "hunter2")
	require.NoError(t, err)

	g := session.NewGateway()
	s := g.Register(4, 4)
	g.Bind(s, reg.Player)
	g.Unregister(s)

	_, ok := g.SessionForPlayer(reg.Player)
	require.False(t, ok)
	require.Equal(t, 0, g.Count())
}

func TestGatewayIdleSessions(t *testing.T) {
	w := newAuthWorld(t)
	reg, err := session.Register(w, "alice", "hunter2")
	require.NoError(t, err)

	g := session.NewGateway()
	s := g.Register(4, 4)
	g.Bind(s, reg.Player)

	require.Empty(t, g.IdleSessions(time.Hour))
	require.Len(t, g.IdleSessions(0), 1)
}

func TestGatewayDisconnectRunsDeparture(t *testing.T) {
	w := newAuthWorld(t)
	room := w.SpawnRoom
	other := w.CreatePlayer("bob", "h", room)
	_ = other

	reg, err := session.Register(w, "alice", "hunter2")
	require.NoError(t, err)

	host := script.NewHost()
	sched := scheduler.New()
	checker, err := rules.NewChecker()
	require.NoError(t, err)
	audit, err := logging.NewAuditLog(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { audit.Close() })
	p := pipeline.New(w, host, sched, checker, audit)

	g := session.NewGateway()
	s := g.Register(4, 4)
	g.Bind(s, reg.Player)

	messages := g.Disconnect(context.Background(), p, s, room)
	require.Empty(t, messages) // no post-scripts attached, but must not panic
	require.True(t, s.Closed())
	require.Equal(t, 0, g.Count())
}
