// Package session binds connected users to player entities (spec.md §4.7):
// one bounded inbound queue and one bounded outbound queue per connection,
// drained and flushed by the control loop once per tick so the I/O tasks
// that own actual sockets never touch the world directly. Grounded on
// other_examples/249e56be_Mikko-Finell-mine-and-die's Hub — a mutex-guarded
// pendingCommands slice staged by I/O goroutines and drained at tick start
// — generalized here to one channel pair per session instead of one shared
// slice, since an outbound queue per session is also needed for fan-out.
package session

import (
	"sync"

	"textworld/internal/types"
)

// Session is one connected user. Player is 0 until authentication
// succeeds; a Session with Player == 0 is still in the login prompt.
type Session struct {
	ID     string
	mu     sync.Mutex
	Player types.EntityID

	inbound  chan string
	outbound chan OutboundLine

	sensitiveNext bool // next Send's is_prompt line should suppress client echo
	closed        bool
}

// New creates a session with the given bounded queue sizes. A full inbound
// queue drops the newest line (spec.md §4.7: "overflow beyond a cap is
// dropped with a warning"); a full outbound queue drops the oldest rather
// than block the simulation task, since the simulation must never suspend
// on a stalled socket (spec.md §5).
func New(id string, inboundSize, outboundSize int) *Session {
	return &Session{
		ID:       id,
		inbound:  make(chan string, inboundSize),
		outbound: make(chan OutboundLine, outboundSize),
	}
}

// Enqueue stages one inbound line from the I/O task. Returns false if the
// queue was full and the line was dropped.
func (s *Session) Enqueue(line string) bool {
	select {
	case s.inbound <- line:
		return true
	default:
		return false
	}
}

// DrainInbound removes and returns every currently queued inbound line
// without blocking. Called once per tick by the control loop.
func (s *Session) DrainInbound() []string {
	var lines []string
	for {
		select {
		case line := <-s.inbound:
			lines = append(lines, line)
		default:
			return lines
		}
	}
}

// SetSensitivePrompt marks the next prompt line Send-ed as sensitive (the
// client must suppress local echo — password entry or change).
func (s *Session) SetSensitivePrompt() {
	s.mu.Lock()
	s.sensitiveNext = true
	s.mu.Unlock()
}

// Send queues one structured outbound line. If the outbound queue is full,
// the oldest queued line is dropped to make room — a session that cannot
// keep up loses history, not liveness.
func (s *Session) Send(text string, isPrompt bool) {
	s.mu.Lock()
	sensitive := false
	if isPrompt && s.sensitiveNext {
		sensitive = true
		s.sensitiveNext = false
	}
	s.mu.Unlock()

	line := OutboundLine{Segments: ParseMarkup(text), IsPrompt: isPrompt, Sensitive: sensitive}
	select {
	case s.outbound <- line:
	default:
		select {
		case <-s.outbound:
		default:
		}
		select {
		case s.outbound <- line:
		default:
		}
	}
}

// DrainOutbound removes and returns every queued outbound line without
// blocking. The I/O task calls this after each tick's flush.
func (s *Session) DrainOutbound() []OutboundLine {
	var lines []OutboundLine
	for {
		select {
		case line := <-s.outbound:
			lines = append(lines, line)
		default:
			return lines
		}
	}
}

// Bind attaches a player entity once login succeeds.
func (s *Session) Bind(player types.EntityID) {
	s.mu.Lock()
	s.Player = player
	s.mu.Unlock()
}

// Authenticated reports whether Bind has been called.
func (s *Session) Authenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Player != 0
}

// Close marks the session closed; idempotent.
func (s *Session) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}

// Closed reports whether Close has been called.
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
