package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"textworld/internal/logging"
	"textworld/internal/pipeline"
	"textworld/internal/types"
)

// Gateway is the control loop's single point of contact with connected
// clients: it owns every live Session, keyed both by connection id and by
// bound player, and is the only thing an I/O task (the TCP accept loop)
// touches directly. The simulation task drains and flushes it once per
// tick; it never hands a *world.World to an I/O goroutine.
type Gateway struct {
	mu       sync.Mutex
	sessions map[string]*Session
	byPlayer map[types.EntityID]*Session
	lastSeen map[string]time.Time

	disconnectMu sync.Mutex
	disconnected []*Session

	log *logging.Logger
}

func NewGateway() *Gateway {
	return &Gateway{
		sessions: map[string]*Session{},
		byPlayer: map[types.EntityID]*Session{},
		lastSeen: map[string]time.Time{},
		log:      logging.Get(logging.CategorySession),
	}
}

// MarkDisconnected is the only thing an I/O task calls when its socket
// read fails or the client hangs up. It never touches the world: it just
// stages the session for the simulation task to process at the next tick,
// the same way inbound lines are staged.
func (g *Gateway) MarkDisconnected(s *Session) {
	g.disconnectMu.Lock()
	g.disconnected = append(g.disconnected, s)
	g.disconnectMu.Unlock()
}

// DrainDisconnected removes and returns every session staged by
// MarkDisconnected since the last call. The control loop calls this once
// per tick, after DrainIntake.
func (g *Gateway) DrainDisconnected() []*Session {
	g.disconnectMu.Lock()
	defer g.disconnectMu.Unlock()
	out := g.disconnected
	g.disconnected = nil
	return out
}

// Register creates and tracks a new unauthenticated session for an
// incoming connection, returning it for the I/O task to read/write
// against.
func (g *Gateway) Register(inboundSize, outboundSize int) *Session {
	s := New(uuid.NewString(), inboundSize, outboundSize)
	g.mu.Lock()
	g.sessions[s.ID] = s
	g.lastSeen[s.ID] = time.Now()
	g.mu.Unlock()
	return s
}

// Bind associates a session with the player entity that just authenticated.
func (g *Gateway) Bind(s *Session, player types.EntityID) {
	s.Bind(player)
	g.mu.Lock()
	g.byPlayer[player] = s
	g.mu.Unlock()
}

// SessionForPlayer looks up the live session bound to a player, if any —
// used to route outbound messages and to find who to evict on idle.
func (g *Gateway) SessionForPlayer(player types.EntityID) (*Session, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	s, ok := g.byPlayer[player]
	return s, ok
}

// Touch records that a session produced input this tick, resetting its
// idle clock.
func (g *Gateway) Touch(s *Session) {
	g.mu.Lock()
	g.lastSeen[s.ID] = time.Now()
	g.mu.Unlock()
}

// Unregister drops a session from the registry. Called once its socket has
// closed and any departure handling has run.
func (g *Gateway) Unregister(s *Session) {
	g.mu.Lock()
	delete(g.sessions, s.ID)
	delete(g.lastSeen, s.ID)
	if s.Player != 0 && g.byPlayer[s.Player] == s {
		delete(g.byPlayer, s.Player)
	}
	g.mu.Unlock()
}

// DrainIntake removes every queued inbound line from every session,
// tagged with the session that produced it. Called once at the start of
// each tick.
type InboundLine struct {
	Session *Session
	Line    string
}

func (g *Gateway) DrainIntake() []InboundLine {
	g.mu.Lock()
	sessions := make([]*Session, 0, len(g.sessions))
	for _, s := range g.sessions {
		sessions = append(sessions, s)
	}
	g.mu.Unlock()

	var out []InboundLine
	for _, s := range sessions {
		for _, line := range s.DrainInbound() {
			out = append(out, InboundLine{Session: s, Line: line})
			g.Touch(s)
		}
	}
	return out
}

// SendTo queues text for a player's session, if they are connected. It is
// a no-op if the player has no live session (e.g. the recipient logged
// out between the event firing and the flush).
func (g *Gateway) SendTo(player types.EntityID, text string) {
	s, ok := g.SessionForPlayer(player)
	if !ok {
		return
	}
	s.Send(text, false)
}

// SendPrompt queues a prompt line, honoring a pending sensitive flag.
func (g *Gateway) SendPrompt(s *Session, text string) {
	s.Send(text, true)
}

// FlushOutbound drains every session's outbound queue for the I/O tasks to
// write to their sockets. Called once per tick, after post-scripts and the
// scheduler have run.
func (g *Gateway) FlushOutbound() map[*Session][]OutboundLine {
	g.mu.Lock()
	sessions := make([]*Session, 0, len(g.sessions))
	for _, s := range g.sessions {
		sessions = append(sessions, s)
	}
	g.mu.Unlock()

	out := make(map[*Session][]OutboundLine, len(sessions))
	for _, s := range sessions {
		if lines := s.DrainOutbound(); len(lines) > 0 {
			out[s] = lines
		}
	}
	return out
}

// IdleSessions returns connected, authenticated sessions that have been
// silent longer than idleTimeout — candidates for the control loop's
// idle-eviction sweep (spec.md §4.7: preserve in-memory until a
// configurable idle period, then persist and evict).
func (g *Gateway) IdleSessions(idleTimeout time.Duration) []*Session {
	now := time.Now()
	g.mu.Lock()
	defer g.mu.Unlock()
	var idle []*Session
	for id, s := range g.sessions {
		if s.Player == 0 {
			continue
		}
		if now.Sub(g.lastSeen[id]) >= idleTimeout {
			idle = append(idle, s)
		}
	}
	return idle
}

// Disconnect runs a session's departure event through the pipeline and
// removes it from the registry. room is the player's location at the time
// of disconnect, or 0 if they never finished authenticating.
func (g *Gateway) Disconnect(ctx context.Context, p *pipeline.Pipeline, s *Session, room types.EntityID) []pipeline.Message {
	var messages []pipeline.Message
	if s.Player != 0 && room != 0 {
		messages = p.RunDeparture(ctx, s.Player, room)
	}
	s.Close()
	g.Unregister(s)
	return messages
}

// Count returns the number of currently registered sessions, for the
// operator console.
func (g *Gateway) Count() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.sessions)
}

// AllSessions returns every currently registered session, for broadcasts
// like the shutdown goodbye message.
func (g *Gateway) AllSessions() []*Session {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]*Session, 0, len(g.sessions))
	for _, s := range g.sessions {
		out = append(out, s)
	}
	return out
}
