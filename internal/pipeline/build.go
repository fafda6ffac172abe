// Package pipeline implements the deterministic per-tick action pipeline:
// pre-script dispatch, system effect, post-script dispatch (spec.md §4.4).
// It is the one package that wires command, event, world, script and
// scheduler together; nothing downstream of it calls back into it.
package pipeline

import (
	"textworld/internal/command"
	"textworld/internal/event"
	"textworld/internal/types"
	"textworld/internal/world"
)

var kindToTrigger = map[command.Kind]types.Trigger{
	command.KindSay:       types.TriggerSay,
	command.KindEmote:     types.TriggerEmote,
	command.KindMe:        types.TriggerEmote,
	command.KindSend:      types.TriggerSend,
	command.KindGet:       types.TriggerGet,
	command.KindDrop:      types.TriggerDrop,
	command.KindMove:      types.TriggerMove,
	command.KindLook:      types.TriggerLook,
	command.KindLookAt:    types.TriggerLookAt,
	command.KindExits:     types.TriggerExits,
	command.KindInventory: types.TriggerInventory,
}

// buildEvent turns a parsed Intent into the Event the pipeline dispatches.
// Resolution failures still produce an event (ResolutionOK=false) so
// scripts can observe a missed get/drop/look, per spec.md §4.3.
func buildEvent(w *world.World, i command.Intent) (event.Event, bool) {
	trigger, ok := kindToTrigger[i.Kind]
	if !ok {
		return event.Event{}, false
	}
	ev := event.New(trigger, i.Actor)

	actorRoom := playerRoom(w, i.Actor)
	ev.Locus = actorRoom
	ev.Origin = actorRoom

	switch i.Kind {
	case command.KindGet, command.KindDrop, command.KindLookAt:
		ev.TargetKeyword = i.TargetKeyword
		if i.Err == nil {
			ev.Target = i.Target
			ev.HasTarget = true
			ev.ResolutionOK = true
		}
	case command.KindMove:
		ev.Direction = i.Direction
		ev.HasMove = true
		if room, ok := w.Room(actorRoom); ok {
			if dest, ok := room.Exits[i.Direction]; ok {
				ev.Destination = dest
			}
		}
	case command.KindSay, command.KindEmote, command.KindMe:
		ev.Text = i.Text
	case command.KindSend:
		ev.Text = i.Text
		if i.Err == nil {
			ev.Recipient = i.Recipient
			ev.HasSend = true
			ev.ResolutionOK = true
		}
	}
	return ev, true
}

func playerRoom(w *world.World, id types.EntityID) types.EntityID {
	p, ok := w.Player(id)
	if !ok {
		return 0
	}
	return p.CurrentRoom
}
