package tui

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"
)

type fakeSource struct{ snap Snapshot }

func (f fakeSource) Status() Snapshot { return f.snap }

func TestViewRendersTickSessionsAndRate(t *testing.T) {
	m := New(fakeSource{}, time.Millisecond).(model)

	now := time.Now()
	m, _ = m.Update(pollMsg(Snapshot{Tick: 1, At: now, Sessions: 2}))
	m, _ = m.Update(pollMsg(Snapshot{Tick: 3, At: now.Add(time.Second), Sessions: 2}))

	view := m.View()
	require.Contains(t, view, "tick:")
	require.Contains(t, view, "3")
	require.Contains(t, view, "sessions:")
	require.Contains(t, view, "2")
	require.Equal(t, 0, m.last.Violations)
}

func TestViewHighlightsViolations(t *testing.T) {
	m := New(fakeSource{}, time.Millisecond).(model)
	m, _ = m.Update(pollMsg(Snapshot{Tick: 1, At: time.Now(), Violations: 2}))

	view := m.View()
	require.Contains(t, view, "violations:")
	require.Contains(t, view, "2")
}

func TestQuitKeyReturnsQuitCommand(t *testing.T) {
	m := New(fakeSource{}, time.Millisecond).(model)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	require.NotNil(t, cmd)
}
