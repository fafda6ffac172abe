package scheduler_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"textworld/internal/script/api"
	"textworld/internal/scheduler"
	"textworld/internal/types"
)

// TestRepeatingTimerSurvivesThreeTicks drives a repeating timer over three
// simulated seconds and checks it keeps firing (spec.md §8).
func TestRepeatingTimerSurvivesThreeTicks(t *testing.T) {
	s := scheduler.New()
	entity := types.EntityID(1)
	start := time.Unix(0, 0)
	s.SetTimer(start, entity, "pulse", time.Second, true)

	var fires int
	now := start
	for i := 0; i < 3; i++ {
		now = now.Add(time.Second)
		fired := s.Tick(now)
		for _, f := range fired {
			if f.Entity == entity && f.Name == "pulse" {
				fires++
			}
		}
	}
	require.Equal(t, 3, fires)
}

func TestOneShotTimerRemovedAfterFiring(t *testing.T) {
	s := scheduler.New()
	entity := types.EntityID(1)
	start := time.Unix(0, 0)
	s.SetTimer(start, entity, "once", time.Second, false)

	fired := s.Tick(start.Add(time.Second))
	require.Len(t, fired, 1)

	fired = s.Tick(start.Add(2 * time.Second))
	require.Empty(t, fired)
}

func TestFSMPushPopOnlyTopReceives(t *testing.T) {
	s := scheduler.New()
	entity := types.EntityID(1)

	var outerTicks, innerTicks int
	outer := api.NewBuilder().AddState("idle", api.StateHandlers{
		OnTick: func(self api.Self, data map[string]interface{}) string {
			outerTicks++
			return ""
		},
	}).Build()
	inner := api.NewBuilder().AddState("busy", api.StateHandlers{
		OnTick: func(self api.Self, data map[string]interface{}) string {
			innerTicks++
			return ""
		},
	}).Build()

	s.PushFSM(entity, outer)
	h, data, ok := s.TopHandlers(entity)
	require.True(t, ok)
	h.OnTick(nil, data)
	require.Equal(t, 1, outerTicks)

	s.PushFSM(entity, inner)
	h, data, ok = s.TopHandlers(entity)
	require.True(t, ok)
	h.OnTick(nil, data)
	require.Equal(t, 1, innerTicks)
	require.Equal(t, 1, outerTicks, "pushing a frame must stop the outer frame from ticking")

	s.PopFSM(entity)
	h, data, ok = s.TopHandlers(entity)
	require.True(t, ok)
	h.OnTick(nil, data)
	require.Equal(t, 2, outerTicks)
}
