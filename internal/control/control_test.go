package control

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"textworld/internal/config"
	"textworld/internal/logging"
	"textworld/internal/script"
	"textworld/internal/script/api"
	"textworld/internal/session"
	"textworld/internal/store"
	"textworld/internal/world"
)

// newTestLoop builds a Loop against a fresh on-disk store and an empty
// world, the same way cmd/textworldd's openWorld does, minus the
// config-file/data-dir plumbing.
func newTestLoop(t *testing.T) (*Loop, *session.Gateway, *world.World) {
	t.Helper()

	cfg := config.DefaultConfig()
	cfg.DataDir = t.TempDir()
	cfg.Script.ScriptDir = ""

	st, err := store.Open(filepath.Join(cfg.DataDir, "world.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	w := world.New()
	room := w.CreateRoom("a dusty room")
	w.SetSpawnRoom(room)

	audit, err := logging.NewAuditLog(cfg.DataDir)
	require.NoError(t, err)
	t.Cleanup(func() { audit.Close() })

	gateway := session.NewGateway()
	loop, err := New(cfg, w, script.NewHost(), st, gateway, audit)
	require.NoError(t, err)

	return loop, gateway, w
}

// captured records every batch of outbound lines delivered to a session,
// standing in for cmd/textworldd's socket writer.
type captured struct {
	lines map[*session.Session][]session.OutboundLine
}

func newCaptured() *captured { return &captured{lines: map[*session.Session][]session.OutboundLine{}} }

func (c *captured) deliver(s *session.Session, lines []session.OutboundLine) {
	c.lines[s] = append(c.lines[s], lines...)
}

func (c *captured) textFor(s *session.Session) string {
	var out string
	for _, line := range c.lines[s] {
		for _, seg := range line.Segments {
			if seg.Type == session.SegmentText {
				out += seg.Text
			}
		}
	}
	return out
}

func drive(loop *Loop, s *session.Session, line string) {
	s.Enqueue(line)
	loop.runTick(context.Background(), time.Now())
}

func TestNewAccountRegistrationThenLoginReachesPlay(t *testing.T) {
	loop, gateway, w := newTestLoop(t)
	out := newCaptured()
	loop.SetDeliver(out.deliver)

	s := gateway.Register(8, 64)

	drive(loop, s, "alice")
	drive(loop, s, "hunter2")
	drive(loop, s, "hunter2")

	require.True(t, s.Authenticated())
	_, ok := w.FindPlayerByUsername("alice")
	require.True(t, ok)
}

func TestExistingAccountWrongPasswordStaysUnauthenticated(t *testing.T) {
	loop, gateway, w := newTestLoop(t)
	out := newCaptured()
	loop.SetDeliver(out.deliver)

	hash, err := bcrypt.GenerateFromPassword([]byte("correct-horse"), bcrypt.DefaultCost)
	require.NoError(t, err)
	w.CreatePlayer("bob", string(hash), w.SpawnRoom)

	s := gateway.Register(8, 64)
	drive(loop, s, "bob")
	drive(loop, s, "wrong-password")

	require.False(t, s.Authenticated())
	require.Contains(t, out.textFor(s), "Invalid username or password")
}

func TestAuthenticatedCommandRoutesThroughPipeline(t *testing.T) {
	loop, gateway, w := newTestLoop(t)
	out := newCaptured()
	loop.SetDeliver(out.deliver)

	room := w.SpawnRoom
	proto := w.CreatePrototype("ball", "a red ball", []string{"red", "ball"}, 0)
	_, err := w.CreateObject(proto, room)
	require.NoError(t, err)

	s := gateway.Register(8, 64)
	drive(loop, s, "carol")
	drive(loop, s, "s3cr3t")
	drive(loop, s, "s3cr3t")
	require.True(t, s.Authenticated())

	drive(loop, s, "get ball")

	require.Contains(t, out.textFor(s), "ball")
}

func TestDisconnectIsStagedNotAppliedSynchronously(t *testing.T) {
	loop, gateway, _ := newTestLoop(t)
	out := newCaptured()
	loop.SetDeliver(out.deliver)

	s := gateway.Register(8, 64)
	drive(loop, s, "dave")
	drive(loop, s, "pw")
	drive(loop, s, "pw")
	require.True(t, s.Authenticated())

	// MarkDisconnected only stages the session; the world-touching evict
	// must not happen until the next tick drains it.
	gateway.MarkDisconnected(s)
	require.Equal(t, 1, gateway.Count())

	loop.runTick(context.Background(), time.Now())

	require.Equal(t, 0, gateway.Count())
	_, stillBound := gateway.SessionForPlayer(s.Player)
	require.False(t, stillBound)
}

func TestShutdownSendsGoodbyeToEverySession(t *testing.T) {
	loop, gateway, _ := newTestLoop(t)
	out := newCaptured()
	loop.SetDeliver(out.deliver)

	gateway.Register(8, 64)

	require.NoError(t, loop.shutdown())
	for s := range out.lines {
		require.Contains(t, out.textFor(s), "Goodbye")
	}
	require.NotEmpty(t, out.lines)
}

func TestRepeatingTimerFiresThroughPipeline(t *testing.T) {
	loop, gateway, w := newTestLoop(t)
	out := newCaptured()
	loop.SetDeliver(out.deliver)

	room := w.SpawnRoom
	s := gateway.Register(8, 64)
	drive(loop, s, "erin")
	drive(loop, s, "pw1234")
	drive(loop, s, "pw1234")
	require.True(t, s.Authenticated())

	_ = room
	loop.sched.SetTimer(time.Now(), s.Player, "tick", time.Millisecond, true)
	loop.runTick(context.Background(), time.Now().Add(2*time.Millisecond))

	fires := loop.sched.Tick(time.Now().Add(4 * time.Millisecond))
	require.Len(t, fires, 1)
	require.Equal(t, "tick", fires[0].Name)
}

// TestFSMTickIsDrivenEachTick is the blocking half of spec.md §4.6 step 2:
// runTick must drive every EntitiesWithFSM() entity's top frame, not just
// fire due timers.
func TestFSMTickIsDrivenEachTick(t *testing.T) {
	loop, gateway, _ := newTestLoop(t)
	out := newCaptured()
	loop.SetDeliver(out.deliver)

	s := gateway.Register(8, 64)
	drive(loop, s, "frank")
	drive(loop, s, "pw1234")
	drive(loop, s, "pw1234")
	require.True(t, s.Authenticated())

	var ticks int
	def := api.NewBuilder().AddState("idle", api.StateHandlers{
		OnTick: func(self api.Self, data map[string]interface{}) string {
			ticks++
			return ""
		},
	}).Build()
	loop.sched.PushFSM(s.Player, def)

	loop.runTick(context.Background(), time.Now())
	require.Equal(t, 1, ticks)

	loop.runTick(context.Background(), time.Now())
	require.Equal(t, 2, ticks)
}
