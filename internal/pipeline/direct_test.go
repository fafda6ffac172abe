package pipeline_test

import (
	"context"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"

	"textworld/internal/command"
	"textworld/internal/logging"
	"textworld/internal/pipeline"
	"textworld/internal/rules"
	"textworld/internal/scheduler"
	"textworld/internal/script"
	"textworld/internal/types"
	"textworld/internal/world"
)

func newImmortalTestPipeline(t *testing.T) (*pipeline.Pipeline, *world.World, types.EntityID) {
	t.Helper()
	w := world.New()
	room := w.CreateRoom("the hall of administration")
	w.SetSpawnRoom(room)
	actor := w.CreatePlayer("god", "h", room)
	require.NoError(t, w.GrantPlayerFlag(actor, types.FlagImmortal))

	host := script.NewHost()
	sched := scheduler.New()
	checker, err := rules.NewChecker()
	require.NoError(t, err)
	audit, err := logging.NewAuditLog(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { audit.Close() })
	return pipeline.New(w, host, sched, checker, audit), w, actor
}

// TestAdminRejectsMutationWhenImmortalFlagWasRevokedSinceParse checks that
// Pipeline.admin consults rules.Checker.IsImmortal at execution time, not
// just command.Parser's gate at parse time: an intent built while the
// actor was immortal must still be rejected if the flag is gone by the
// time it executes.
func TestAdminRejectsMutationWhenImmortalFlagWasRevokedSinceParse(t *testing.T) {
	p, w, actor := newImmortalTestPipeline(t)
	parser := command.New()

	intent := parser.Parse(actor, "room new a back room", w)
	require.Equal(t, command.KindAdmin, intent.Kind)

	require.NoError(t, w.RevokePlayerFlag(actor, types.FlagImmortal))

	msgs, err := p.Process(context.Background(), intent)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	require.Equal(t, "You aren't permitted to do that.", msgs[0].Text)
}

func TestAdminRoomDeleteCascadesAndFreesTheId(t *testing.T) {
	p, w, actor := newImmortalTestPipeline(t)
	parser := command.New()

	doomed := w.CreateRoom("a doomed room")

	msgs, err := p.Process(context.Background(), parser.Parse(actor, "room delete "+strconv.FormatUint(uint64(doomed), 10), w))
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	require.Contains(t, msgs[0].Text, "Deleted room")
	require.False(t, w.Exists(doomed))
}

// TestAdminPlayerDeleteCascadesInventory is spec.md §3: removing a player
// cascades inventory deletions.
func TestAdminPlayerDeleteCascadesInventory(t *testing.T) {
	p, w, actor := newImmortalTestPipeline(t)
	parser := command.New()

	room := w.CreateRoom("a cell for bob")
	bob := w.CreatePlayer("bob", "h", room)
	proto := w.CreatePrototype("coin", "a copper coin", []string{"coin"}, 0)
	obj, err := w.CreateObject(proto, room)
	require.NoError(t, err)
	require.NoError(t, w.Move(obj, bob))

	msgs, err := p.Process(context.Background(), parser.Parse(actor, "player bob delete", w))
	require.NoError(t, err)
	require.Contains(t, msgs[0].Text, "Deleted player")
	require.False(t, w.Exists(bob))
	require.False(t, w.Exists(obj), "deleting a player must cascade-delete its inventory")
}

func TestAdminPlayerGrantAndRevokeFlag(t *testing.T) {
	p, w, actor := newImmortalTestPipeline(t)
	parser := command.New()

	room := w.CreateRoom("a cell for bob")
	bob := w.CreatePlayer("bob", "h", room)

	_, err := p.Process(context.Background(), parser.Parse(actor, "player bob grant immortal", w))
	require.NoError(t, err)
	pl, ok := w.Player(bob)
	require.True(t, ok)
	require.True(t, pl.Flags.Has(types.FlagImmortal))

	_, err = p.Process(context.Background(), parser.Parse(actor, "player bob revoke immortal", w))
	require.NoError(t, err)
	pl, ok = w.Player(bob)
	require.True(t, ok)
	require.False(t, pl.Flags.Has(types.FlagImmortal))
}
