package script

import (
	"time"

	"textworld/internal/script/api"
	"textworld/internal/types"
)

// EmitKind tags the sort of line a script asked SELF to produce.
type EmitKind string

const (
	EmitEmote   EmitKind = "emote"
	EmitMessage EmitKind = "message"
	EmitSay     EmitKind = "say"
	EmitSend    EmitKind = "send"
	EmitWhisper EmitKind = "whisper"
)

// Emit is one SELF.* call recorded during a script invocation. At is zero
// for the immediate forms and the scheduled fire time for the *_after
// forms; the caller (pipeline/control) is responsible for honoring it.
type Emit struct {
	Kind      EmitKind
	Recipient types.EntityID
	Text      string
	At        time.Time
}

// TimerRequest is a SELF.timer/timer_repeating call recorded during an
// invocation, applied by the caller after the script returns.
type TimerRequest struct {
	Name     string
	Delay    time.Duration
	Repeat   bool
}

// FSMOp is a staged push_fsm/pop_fsm call. Per spec.md §4.6 these apply
// only after the current callback returns, never mid-execution; selfBinding
// just records them and the host applies them post-invocation.
type FSMOp struct {
	Push bool
	Def  *api.Def
}

// selfBinding is the concrete api.Self the host hands to a script. Emits,
// timer requests and FSM ops are staged into its slices rather than applied
// immediately; the caller applies them after the script returns, whether or
// not it denied, and a script that errors has none of them applied.
// Get/Set/Remove act on the shared script-data map directly.
type selfBinding struct {
	entity types.EntityID
	data   map[string]interface{} // host's per-entity script-data store, shared by reference

	emits  []Emit
	timers []TimerRequest
	fsmOps []FSMOp
	denied bool
}

func newSelfBinding(entity types.EntityID, data map[string]interface{}) *selfBinding {
	return &selfBinding{entity: entity, data: data}
}

func (s *selfBinding) ID() types.EntityID { return s.entity }

func (s *selfBinding) Emote(text string)   { s.emits = append(s.emits, Emit{Kind: EmitEmote, Text: text}) }
func (s *selfBinding) Message(text string) { s.emits = append(s.emits, Emit{Kind: EmitMessage, Text: text}) }
func (s *selfBinding) Say(text string)     { s.emits = append(s.emits, Emit{Kind: EmitSay, Text: text}) }
func (s *selfBinding) Send(recipient types.EntityID, text string) {
	s.emits = append(s.emits, Emit{Kind: EmitSend, Recipient: recipient, Text: text})
}
func (s *selfBinding) Whisper(text string) { s.emits = append(s.emits, Emit{Kind: EmitWhisper, Text: text}) }

func (s *selfBinding) EmoteAfter(d time.Duration, text string) {
	s.emits = append(s.emits, Emit{Kind: EmitEmote, Text: text, At: time.Now().Add(d)})
}
func (s *selfBinding) MessageAfter(d time.Duration, text string) {
	s.emits = append(s.emits, Emit{Kind: EmitMessage, Text: text, At: time.Now().Add(d)})
}
func (s *selfBinding) SayAfter(d time.Duration, text string) {
	s.emits = append(s.emits, Emit{Kind: EmitSay, Text: text, At: time.Now().Add(d)})
}
func (s *selfBinding) SendAfter(d time.Duration, recipient types.EntityID, text string) {
	s.emits = append(s.emits, Emit{Kind: EmitSend, Recipient: recipient, Text: text, At: time.Now().Add(d)})
}
func (s *selfBinding) WhisperAfter(d time.Duration, text string) {
	s.emits = append(s.emits, Emit{Kind: EmitWhisper, Text: text, At: time.Now().Add(d)})
}

func (s *selfBinding) Timer(name string, d time.Duration) {
	s.timers = append(s.timers, TimerRequest{Name: name, Delay: d})
}
func (s *selfBinding) TimerRepeating(name string, d time.Duration) {
	s.timers = append(s.timers, TimerRequest{Name: name, Delay: d, Repeat: true})
}

func (s *selfBinding) Get(key string) (interface{}, bool) {
	v, ok := s.data[key]
	return v, ok
}
func (s *selfBinding) Set(key string, value interface{}) { s.data[key] = value }
func (s *selfBinding) Remove(key string)                 { delete(s.data, key) }

func (s *selfBinding) PushFSM(b *api.Builder) {
	s.fsmOps = append(s.fsmOps, FSMOp{Push: true, Def: b.Build()})
}
func (s *selfBinding) PopFSM() { s.fsmOps = append(s.fsmOps, FSMOp{Push: false}) }

func (s *selfBinding) Deny() { s.denied = true }
