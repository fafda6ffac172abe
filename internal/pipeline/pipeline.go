package pipeline

import (
	"context"
	"time"

	"textworld/internal/command"
	"textworld/internal/event"
	"textworld/internal/logging"
	"textworld/internal/rules"
	"textworld/internal/scheduler"
	"textworld/internal/script"
	"textworld/internal/types"
	"textworld/internal/world"
)

// maxReentrantDepth bounds WORLD.object_new's re-entry into Init dispatch
// (spec.md §9c): a script that spawns an object whose own init script
// spawns another object, and so on, stops after this many levels rather
// than recursing without limit.
const maxReentrantDepth = 8

// Pipeline is the control loop's per-tick dispatcher: it turns intents into
// pre-dispatch → system effect → post-dispatch, honoring the veto law.
type Pipeline struct {
	w       *world.World
	host    *script.Host
	sched   *scheduler.Scheduler
	checker *rules.Checker
	log     *logging.Logger
	audit   *logging.AuditLog

	depth   int
	delayed []delayedMessage
}

type delayedMessage struct {
	at  time.Time
	msg Message
}

// Host exposes the script host for callers (control loop, admin commands)
// that need to compile or forget scripts outside of dispatch.
func (p *Pipeline) Host() *script.Host { return p.host }

func New(w *world.World, host *script.Host, sched *scheduler.Scheduler, checker *rules.Checker, audit *logging.AuditLog) *Pipeline {
	return &Pipeline{
		w:       w,
		host:    host,
		sched:   sched,
		checker: checker,
		log:     logging.Get(logging.CategoryPipeline),
		audit:   audit,
	}
}

// Process runs one parsed intent through the full pipeline and returns the
// outbound messages it produced.
func (p *Pipeline) Process(ctx context.Context, i command.Intent) ([]Message, error) {
	if i.Err != nil {
		switch i.Kind {
		case command.KindUnknown:
			return []Message{{Recipient: i.Actor, Text: "I don't understand that."}}, nil
		case command.KindNotPermitted:
			p.audit.Record(logging.AuditEvent{Type: logging.AuditPermissionDenied, Actor: i.Actor.String(), Message: i.Raw})
			return []Message{{Recipient: i.Actor, Text: "You aren't permitted to do that."}}, nil
		}
	}

	if i.Kind == command.KindAdmin || i.Kind == command.KindTeleport || i.Kind == command.KindShutdown || i.Kind == command.KindWho {
		return p.processDirect(ctx, i), nil
	}

	ev, ok := buildEvent(p.w, i)
	if !ok {
		return p.processDirect(ctx, i), nil
	}

	var messages []Message

	preQueue := collectScope(p.w, i.Actor, ev.Locus, types.PhasePre, ev.Trigger)
	for _, entry := range preQueue {
		res, err := p.invoke(ctx, entry, ev)
		if err != nil {
			p.log.Warn("pre-dispatch %s on entity %s: %v", entry.attachment.Script, entry.entity, err)
			continue
		}
		messages = append(messages, res.messages...)
		if !res.allow {
			ev.AllowAction = false
		}
	}

	if ev.AllowAction {
		out, err := applySystemEffect(p.w, i, ev)
		if err != nil {
			return messages, err
		}
		messages = append(messages, out...)

		postLocus := ev.Locus
		if ev.HasMove && ev.Destination != 0 {
			postLocus = ev.Destination
		}
		postQueue := collectScope(p.w, i.Actor, postLocus, types.PhasePost, ev.Trigger)
		for _, entry := range postQueue {
			res, err := p.invoke(ctx, entry, ev)
			if err != nil {
				p.log.Warn("post-dispatch %s on entity %s: %v", entry.attachment.Script, entry.entity, err)
				continue
			}
			messages = append(messages, res.messages...)
		}
	} else {
		messages = append(messages, Message{Recipient: i.Actor, Text: "You can't do that."})
	}

	messages = append(messages, p.RunFSMEvent(ctx, i.Actor, ev)...)

	return messages, nil
}

type invokeResult struct {
	allow    bool
	messages []Message
}

// invoke runs one attachment's script and applies its staged timer/FSM
// requests immediately; delayed *_after messages are queued for FlushDue.
func (p *Pipeline) invoke(ctx context.Context, entry dispatchEntry, ev event.Event) (invokeResult, error) {
	room := locusOf(p.w, entry.entity)
	res, err := p.host.Invoke(ctx, entry.attachment.Script, entry.entity, ev, p.w, room, p.spawnInit)
	if err != nil {
		if _, ok := err.(*types.RuntimeScriptError); ok {
			p.audit.Record(logging.AuditEvent{Type: logging.AuditScriptRuntime, Subject: entry.attachment.Script, Message: err.Error()})
			return invokeResult{allow: true}, nil // RuntimeScriptError: veto treated as not set (spec.md §7)
		}
		return invokeResult{}, err
	}

	now := time.Now()
	var messages []Message
	for _, em := range res.Emits {
		for _, msg := range convertEmit(p.w, entry.entity, em) {
			if em.At.IsZero() {
				messages = append(messages, msg)
			} else {
				p.delayed = append(p.delayed, delayedMessage{at: em.At, msg: msg})
			}
		}
	}
	for _, t := range res.Timers {
		p.sched.SetTimer(now, entry.entity, t.Name, t.Delay, t.Repeat)
	}
	for _, op := range res.FSMOps {
		if op.Push {
			p.sched.PushFSM(entry.entity, op.Def)
		} else {
			p.sched.PopFSM(entry.entity)
		}
	}
	return invokeResult{allow: res.Allow, messages: messages}, nil
}

// spawnInit is WORLD.object_new's reentrant hook: it runs the new object's
// init scripts immediately, bounded by maxReentrantDepth.
func (p *Pipeline) spawnInit(id types.EntityID) {
	if p.depth >= maxReentrantDepth {
		p.log.Warn("object_new init suppressed: call depth %d exceeds %d", p.depth, maxReentrantDepth)
		return
	}
	p.depth++
	defer func() { p.depth-- }()
	p.RunInit(context.Background(), id)
}

// RunInit directly invokes an entity's init scripts. Init is a direct
// invocation, not a dispatched event (spec.md §9b): there is no pre/post
// split and no veto.
func (p *Pipeline) RunInit(ctx context.Context, entity types.EntityID) []Message {
	var messages []Message
	ev := event.New(types.TriggerInit, entity)
	for _, a := range p.w.EffectiveAttachments(entity, types.PhaseInit, "", types.TriggerInit) {
		res, err := p.invoke(ctx, dispatchEntry{entity: entity, attachment: a}, ev)
		if err != nil {
			p.log.Warn("init %s on entity %s: %v", a.Script, entity, err)
			continue
		}
		messages = append(messages, res.messages...)
	}
	return messages
}

// RunDeparture dispatches a player's disconnect as a post-only Move event
// scoped to the room they were standing in, so post-scripts (e.g. a room
// announcing who just left) observe it the same way they observe a normal
// exit. There is no pre-dispatch and no veto: a dropped connection cannot
// be refused.
func (p *Pipeline) RunDeparture(ctx context.Context, entity types.EntityID, room types.EntityID) []Message {
	ev := event.New(types.TriggerMove, entity)
	ev.Origin = room
	ev.Locus = room
	var messages []Message
	for _, entry := range collectScope(p.w, entity, room, types.PhasePost, types.TriggerMove) {
		res, err := p.invoke(ctx, entry, ev)
		if err != nil {
			p.log.Warn("departure dispatch %s on entity %s: %v", entry.attachment.Script, entity, err)
			continue
		}
		messages = append(messages, res.messages...)
	}
	return messages
}

// FlushDue drains delayed *_after messages whose fire time has passed.
// The control loop calls this once per tick.
func (p *Pipeline) FlushDue(now time.Time) []Message {
	var due []Message
	var remaining []delayedMessage
	for _, d := range p.delayed {
		if now.Before(d.at) {
			remaining = append(remaining, d)
			continue
		}
		due = append(due, d.msg)
	}
	p.delayed = remaining
	return due
}

// RunTimer dispatches a fired timer as a Timer event to the owning
// entity's timer-phase attachments registered under name (timers are not
// room-observable). There is no pre/system/post split and no veto.
func (p *Pipeline) RunTimer(ctx context.Context, entity types.EntityID, name string) []Message {
	ev := event.New(types.TriggerTimer, entity)
	ev.TimerName = name
	var messages []Message
	for _, a := range p.w.EffectiveAttachments(entity, types.PhaseTimer, name, types.TriggerTimer) {
		res, err := p.invoke(ctx, dispatchEntry{entity: entity, attachment: a}, ev)
		if err != nil {
			p.log.Warn("timer %s on entity %s: %v", name, entity, err)
			continue
		}
		messages = append(messages, res.messages...)
	}
	messages = append(messages, p.RunFSMEvent(ctx, entity, ev)...)
	return messages
}

// RunFSMTick drives entity's top FSM frame's OnTick callback (spec.md §4.6
// step 2), applying any state transition and staged push/pop only after the
// callback returns. The control loop calls this once per tick for every
// EntitiesWithFSM() entity; entities with no active frame, or whose top
// state has no OnTick, are no-ops.
func (p *Pipeline) RunFSMTick(ctx context.Context, entity types.EntityID) []Message {
	handlers, data, ok := p.sched.TopHandlers(entity)
	if !ok {
		return nil
	}
	res, next, err := p.host.InvokeTick(ctx, entity, handlers.OnTick, data)
	if err != nil {
		p.log.Warn("fsm on_tick for entity %s: %v", entity, err)
		return nil
	}
	return p.applyFSMResult(entity, res, next)
}

// RunFSMEvent delivers ev to entity's top FSM frame's OnEvent callback.
// Per spec.md §4.6, "only the top frame receives events/timers": this runs
// alongside, not instead of, the entity's normal attached-script dispatch.
func (p *Pipeline) RunFSMEvent(ctx context.Context, entity types.EntityID, ev event.Event) []Message {
	handlers, data, ok := p.sched.TopHandlers(entity)
	if !ok {
		return nil
	}
	res, next, err := p.host.InvokeEvent(ctx, entity, handlers.OnEvent, ev, data)
	if err != nil {
		p.log.Warn("fsm on_event for entity %s: %v", entity, err)
		return nil
	}
	return p.applyFSMResult(entity, res, next)
}

// applyFSMResult converts an FSM callback's staged emits into messages and
// applies its timer/transition/push-pop requests, in that order, so a
// push_fsm during the callback lands on top of the (possibly just
// transitioned) frame it was called on, matching invoke's script handling.
func (p *Pipeline) applyFSMResult(entity types.EntityID, res script.Result, next string) []Message {
	now := time.Now()
	var messages []Message
	for _, em := range res.Emits {
		for _, msg := range convertEmit(p.w, entity, em) {
			if em.At.IsZero() {
				messages = append(messages, msg)
			} else {
				p.delayed = append(p.delayed, delayedMessage{at: em.At, msg: msg})
			}
		}
	}
	for _, t := range res.Timers {
		p.sched.SetTimer(now, entity, t.Name, t.Delay, t.Repeat)
	}
	p.sched.Transition(entity, next)
	for _, op := range res.FSMOps {
		if op.Push {
			p.sched.PushFSM(entity, op.Def)
		} else {
			p.sched.PopFSM(entity)
		}
	}
	return messages
}

func locusOf(w *world.World, entity types.EntityID) types.EntityID {
	v, err := w.Lookup(entity)
	if err != nil {
		return 0
	}
	switch v.Kind {
	case types.KindRoom:
		return entity
	case types.KindPlayer, types.KindObject:
		return v.Location
	default:
		return 0
	}
}

// convertEmit turns a staged SELF.* call into outbound messages. Say and
// Emote are room-observable and fan out to every player in entity's locus;
// Send/Whisper/Message are private to a single recipient.
func convertEmit(w *world.World, entity types.EntityID, em script.Emit) []Message {
	name := actorName(w, entity)
	switch em.Kind {
	case script.EmitSend:
		return []Message{{Recipient: em.Recipient, Text: name + " sends: " + em.Text}}
	case script.EmitSay:
		return broadcastRoom(w, locusOf(w, entity), name+" says, \""+em.Text+"\"")
	case script.EmitEmote:
		return broadcastRoom(w, locusOf(w, entity), name+" "+em.Text)
	case script.EmitWhisper, script.EmitMessage:
		return []Message{{Recipient: entity, Text: em.Text}}
	default:
		return []Message{{Recipient: entity, Text: em.Text}}
	}
}
