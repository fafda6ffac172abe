// Package tui is a read-only local operator console: live tick rate,
// connected session count, and invariant-sweep violations, polled from
// the control loop's published Snapshot. It is a local terminal surface,
// distinct from the out-of-scope web console. Grounded on the teacher's
// cmd/nerd/ui page models (Init/Update/View over a polled data source),
// trimmed to one page since there's only one thing to show.
package tui

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// StatusSource is the subset of control.Loop the TUI depends on, kept as
// an interface so tests can supply a fake snapshot sequence.
type StatusSource interface {
	Status() Snapshot
}

// Snapshot mirrors control.Snapshot; duplicated here so this package
// doesn't need to import internal/control, matching the
// config<->logging duplication pattern used elsewhere in this repo.
type Snapshot struct {
	Tick       uint64
	At         time.Time
	Sessions   int
	Violations int
}

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
)

type pollMsg Snapshot

type model struct {
	source      StatusSource
	last        Snapshot
	pollEvery   time.Duration
	lastTickAt  time.Time
	ticksPerSec float64
}

// New builds the operator TUI's root model.
func New(source StatusSource, pollEvery time.Duration) tea.Model {
	return model{source: source, pollEvery: pollEvery}
}

func (m model) Init() tea.Cmd {
	return m.pollCmd()
}

func (m model) pollCmd() tea.Cmd {
	return tea.Tick(m.pollEvery, func(time.Time) tea.Msg {
		return pollMsg(m.source.Status())
	})
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "q" || msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	case pollMsg:
		snap := Snapshot(msg)
		if !m.lastTickAt.IsZero() && snap.Tick > m.last.Tick {
			elapsed := snap.At.Sub(m.lastTickAt).Seconds()
			if elapsed > 0 {
				m.ticksPerSec = float64(snap.Tick-m.last.Tick) / elapsed
			}
		}
		m.lastTickAt = snap.At
		m.last = snap
		return m, m.pollCmd()
	}
	return m, nil
}

func (m model) View() string {
	v := titleStyle.Render("textworldd — operator status") + "\n\n"
	v += labelStyle.Render("tick:       ") + fmt.Sprintf("%d\n", m.last.Tick)
	v += labelStyle.Render("rate:       ") + fmt.Sprintf("%.1f/s\n", m.ticksPerSec)
	v += labelStyle.Render("sessions:   ") + fmt.Sprintf("%d\n", m.last.Sessions)
	if m.last.Violations > 0 {
		v += labelStyle.Render("violations: ") + warnStyle.Render(fmt.Sprintf("%d", m.last.Violations)) + "\n"
	} else {
		v += labelStyle.Render("violations: ") + "0\n"
	}
	v += "\n" + labelStyle.Render("press q to quit")
	return v
}
