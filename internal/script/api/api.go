// Package api is the explicit HostBindings surface the scripting runtime
// consumes: SELF, EVENT and WORLD as seen from inside an attached script.
// Kept free of reflective auto-binding (design notes §9): every method a
// script can call is declared here and wired into the yaegi interpreter by
// hand in internal/script/symbols.go.
package api

import (
	"time"

	"textworld/internal/event"
	"textworld/internal/types"
)

// Event is the read-only EVENT binding.
type Event = event.Event

// Self is the SELF binding: the entity a script is attached to.
type Self interface {
	ID() types.EntityID

	Emote(text string)
	Message(text string)
	Say(text string)
	Send(recipient types.EntityID, text string)
	Whisper(text string)

	EmoteAfter(d time.Duration, text string)
	MessageAfter(d time.Duration, text string)
	SayAfter(d time.Duration, text string)
	SendAfter(d time.Duration, recipient types.EntityID, text string)
	WhisperAfter(d time.Duration, text string)

	Timer(name string, d time.Duration)
	TimerRepeating(name string, d time.Duration)

	Get(key string) (interface{}, bool)
	Set(key string, value interface{})
	Remove(key string)

	PushFSM(b *Builder)
	PopFSM()

	// Deny vetoes the pending action. Only meaningful during pre-dispatch;
	// a no-op otherwise.
	Deny()
}

// World is the WORLD binding: read-only classifiers/accessors plus the one
// mutator, ObjectNew.
type World interface {
	IsPlayer(id types.EntityID) bool
	IsRoom(id types.EntityID) bool
	IsObject(id types.EntityID) bool

	Name(id types.EntityID) string
	Description(id types.EntityID) string
	Keywords(id types.EntityID) []string
	Location(id types.EntityID) types.EntityID
	Container(id types.EntityID) types.EntityID
	Contents(room types.EntityID) []types.EntityID
	Players(room types.EntityID) []types.EntityID

	// ObjectNew drops a new object of prototypeID into the caller's
	// current room and runs its init scripts immediately (spec.md §9c).
	ObjectNew(prototypeID types.EntityID) (types.EntityID, error)
}

// StateHandlers are the callbacks a script registers for one FSM state.
// Either may be nil. A non-empty returned state name transitions the
// machine; an empty one leaves it unchanged.
type StateHandlers struct {
	OnTick  func(self Self, data map[string]interface{}) string
	OnEvent func(self Self, ev Event, data map[string]interface{}) string
}

// Builder accumulates named states for SELF.push_fsm. Scripts call
// api.NewBuilder() to obtain one, then AddState per state.
type Builder struct {
	order  []string
	states map[string]StateHandlers
	start  string
}

func NewBuilder() *Builder {
	return &Builder{states: map[string]StateHandlers{}}
}

// AddState registers handlers for name. The first state added becomes the
// machine's initial state.
func (b *Builder) AddState(name string, h StateHandlers) *Builder {
	if _, exists := b.states[name]; !exists {
		b.order = append(b.order, name)
		if b.start == "" {
			b.start = name
		}
	}
	b.states[name] = h
	return b
}

// Build finalizes the state table into an immutable Def.
func (b *Builder) Build() *Def {
	states := make(map[string]StateHandlers, len(b.states))
	for k, v := range b.states {
		states[k] = v
	}
	return &Def{states: states, start: b.start}
}

// Def is an immutable FSM definition shared by every frame built from the
// same Builder.
type Def struct {
	states map[string]StateHandlers
	start  string
}

func (d *Def) StartState() string { return d.start }
func (d *Def) Handlers(state string) (StateHandlers, bool) {
	h, ok := d.states[state]
	return h, ok
}
