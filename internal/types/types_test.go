package types

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseDirectionAcceptsFullNamesAndAliases(t *testing.T) {
	d, ok := ParseDirection("north")
	require.True(t, ok)
	require.Equal(t, North, d)

	d, ok = ParseDirection("n")
	require.True(t, ok)
	require.Equal(t, North, d)

	_, ok = ParseDirection("sideways")
	require.False(t, ok)
}

func TestDirectionOppositeIsSymmetric(t *testing.T) {
	for _, d := range []Direction{North, South, East, West, Up, Down} {
		require.Equal(t, d, d.Opposite().Opposite())
	}
	require.Equal(t, South, North.Opposite())
	require.Equal(t, Down, Up.Opposite())
}

func TestFlagsSetHasClear(t *testing.T) {
	var f Flags
	require.False(t, f.Has(FlagImmortal))

	f = f.Set(FlagImmortal)
	require.True(t, f.Has(FlagImmortal))
	require.False(t, f.Has(FlagFixed))

	f = f.Set(FlagFixed)
	require.True(t, f.Has(FlagImmortal))
	require.True(t, f.Has(FlagFixed))

	f = f.Clear(FlagImmortal)
	require.False(t, f.Has(FlagImmortal))
	require.True(t, f.Has(FlagFixed))
}

func TestEntityIDString(t *testing.T) {
	require.Equal(t, "#42", EntityID(42).String())
}

func TestKindString(t *testing.T) {
	require.Equal(t, "room", KindRoom.String())
	require.Equal(t, "object", KindObject.String())
	require.Equal(t, "player", KindPlayer.String())
	require.Equal(t, "prototype", KindPrototype.String())
	require.Equal(t, "unknown", Kind(255).String())
}

func TestErrorMessagesIncludeContext(t *testing.T) {
	require.Contains(t, (&ParseError{Input: "xyzzy", Message: "unknown verb"}).Error(), "xyzzy")
	require.Contains(t, (&ResolutionError{Keyword: "sword"}).Error(), "sword")
	require.Contains(t, (&PermissionError{Command: "shutdown"}).Error(), "shutdown")
	require.Contains(t, (&NotFound{ID: EntityID(7)}).Error(), "#7")
	require.Contains(t, (&AlreadyContained{Object: EntityID(9)}).Error(), "#9")
}

func TestRuntimeScriptErrorUnwraps(t *testing.T) {
	cause := &NotFound{ID: EntityID(1)}
	err := &RuntimeScriptError{Script: "greeter", Entity: EntityID(2), Cause: cause}

	require.ErrorIs(t, err, cause)
	require.Contains(t, err.Error(), "greeter")
}

func TestStoreErrorUnwraps(t *testing.T) {
	cause := &InvariantError{Message: "two containers"}
	err := &StoreError{Cause: cause}

	require.ErrorIs(t, err, cause)
}
