package event

import (
	"testing"

	"github.com/stretchr/testify/require"

	"textworld/internal/types"
)

func TestNewEventStartsWithActionAllowed(t *testing.T) {
	e := New(types.TriggerGet, types.EntityID(1))

	require.True(t, e.AllowAction)
	require.Equal(t, types.EntityID(1), e.Actor)
	require.True(t, e.IsGet())
	require.False(t, e.IsDrop())
}

func TestTriggerPredicatesMatchOnlyTheirOwnTrigger(t *testing.T) {
	cases := []struct {
		trigger types.Trigger
		check   func(Event) bool
	}{
		{types.TriggerMove, Event.IsMove},
		{types.TriggerEmote, Event.IsEmote},
		{types.TriggerSay, Event.IsSay},
		{types.TriggerGet, Event.IsGet},
		{types.TriggerDrop, Event.IsDrop},
		{types.TriggerLook, Event.IsLook},
		{types.TriggerLookAt, Event.IsLookAt},
		{types.TriggerSend, Event.IsSend},
		{types.TriggerTimer, Event.IsTimer},
	}

	for _, tc := range cases {
		e := New(tc.trigger, types.EntityID(0))
		require.True(t, tc.check(e), "expected %s predicate to match its own trigger", tc.trigger)

		for _, other := range cases {
			if other.trigger == tc.trigger {
				continue
			}
			require.False(t, other.check(e), "expected %s predicate to reject trigger %s", other.trigger, tc.trigger)
		}
	}
}

func TestMoveEventCarriesOriginAndDestination(t *testing.T) {
	e := New(types.TriggerMove, types.EntityID(1))
	e.HasMove = true
	e.Origin = types.EntityID(10)
	e.Destination = types.EntityID(20)
	e.Locus = e.Origin

	require.True(t, e.HasMove)
	require.Equal(t, types.EntityID(10), e.Origin)
	require.Equal(t, types.EntityID(20), e.Destination)
}
