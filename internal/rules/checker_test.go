package rules_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"textworld/internal/rules"
	"textworld/internal/script"
	"textworld/internal/types"
	"textworld/internal/world"
)

func TestIsImmortalGrantsAdministerOnlyWithFlag(t *testing.T) {
	checker, err := rules.NewChecker()
	require.NoError(t, err)

	ok, err := checker.IsImmortal(context.Background(), 0)
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = checker.IsImmortal(context.Background(), types.FlagImmortal)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestSweepCleanWorldHasNoViolations(t *testing.T) {
	checker, err := rules.NewChecker()
	require.NoError(t, err)

	w := world.New()
	room := w.CreateRoom("a quiet clearing")
	w.SetSpawnRoom(room)

	violations, err := checker.Sweep(context.Background(), w, script.NewHost())
	require.NoError(t, err)
	require.Empty(t, violations)
}

func TestSweepFlagsMissingSpawnRoom(t *testing.T) {
	checker, err := rules.NewChecker()
	require.NoError(t, err)

	w := world.New()

	violations, err := checker.Sweep(context.Background(), w, script.NewHost())
	require.NoError(t, err)
	require.NotEmpty(t, violations)

	found := false
	for _, v := range violations {
		if v.Message == "no spawn room configured" {
			found = true
		}
	}
	require.True(t, found)
}

func TestSweepFlagsDanglingAttachment(t *testing.T) {
	checker, err := rules.NewChecker()
	require.NoError(t, err)

	w := world.New()
	room := w.CreateRoom("a quiet clearing")
	w.SetSpawnRoom(room)
	w.Attach(world.Attachment{
		Entity: room,
		Phase:  types.PhasePre,
		Script: "missing_script",
	})

	violations, err := checker.Sweep(context.Background(), w, script.NewHost())
	require.NoError(t, err)
	require.NotEmpty(t, violations)
}

func TestSweepAttachedAndCompiledIsNotDangling(t *testing.T) {
	checker, err := rules.NewChecker()
	require.NoError(t, err)

	w := world.New()
	room := w.CreateRoom("a quiet clearing")
	w.SetSpawnRoom(room)
	w.Attach(world.Attachment{
		Entity: room,
		Phase:  types.PhasePre,
		Script: "present_script",
	})

	host := script.NewHost()
	require.NoError(t, host.Compile("present_script", `
package main

import "textworld/internal/script/api/api"

func Handle(SELF api.Self, EVENT api.Event, WORLD api.World) bool {
	return true
}
`))

	violations, err := checker.Sweep(context.Background(), w, host)
	require.NoError(t, err)
	require.Empty(t, violations)
}
