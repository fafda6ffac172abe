package pipeline

import (
	"fmt"
	"sort"

	"textworld/internal/command"
	"textworld/internal/event"
	"textworld/internal/types"
	"textworld/internal/world"
)

// Message is one outbound line the session gateway delivers to Recipient.
type Message struct {
	Recipient types.EntityID
	Text      string
}

// applySystemEffect performs the engine's built-in behavior for i, as a set
// of world mutations plus outbound messages (spec.md §4.4 step 3). It is
// never called when a pre-script vetoed the action.
func applySystemEffect(w *world.World, i command.Intent, ev event.Event) ([]Message, error) {
	room := playerRoom(w, i.Actor)

	switch i.Kind {
	case command.KindSay:
		return broadcastRoom(w, room, fmt.Sprintf("%s says, \"%s\"", actorName(w, i.Actor), i.Text)), nil

	case command.KindEmote, command.KindMe:
		return broadcastRoom(w, room, fmt.Sprintf("%s %s", actorName(w, i.Actor), i.Text)), nil

	case command.KindSend:
		if !ev.ResolutionOK {
			return []Message{{Recipient: i.Actor, Text: "They aren't here."}}, nil
		}
		return []Message{
			{Recipient: i.Recipient, Text: fmt.Sprintf("%s whispers, \"%s\"", actorName(w, i.Actor), i.Text)},
			{Recipient: i.Actor, Text: fmt.Sprintf("You whisper to %s, \"%s\"", actorName(w, i.Recipient), i.Text)},
		}, nil

	case command.KindGet:
		if !ev.ResolutionOK {
			return []Message{{Recipient: i.Actor, Text: "You don't see that here."}}, nil
		}
		if err := w.Move(i.Target, i.Actor); err != nil {
			return []Message{{Recipient: i.Actor, Text: "You can't take that."}}, nil
		}
		name, _ := w.Effective(i.Target, "name")
		return append([]Message{{Recipient: i.Actor, Text: fmt.Sprintf("You take the %s.", name)}},
			broadcastRoomExcept(w, room, i.Actor, fmt.Sprintf("%s takes the %s.", actorName(w, i.Actor), name))...), nil

	case command.KindDrop:
		if !ev.ResolutionOK {
			return []Message{{Recipient: i.Actor, Text: "You aren't carrying that."}}, nil
		}
		if err := w.Move(i.Target, room); err != nil {
			return []Message{{Recipient: i.Actor, Text: "You can't drop that."}}, nil
		}
		name, _ := w.Effective(i.Target, "name")
		return append([]Message{{Recipient: i.Actor, Text: fmt.Sprintf("You drop the %s.", name)}},
			broadcastRoomExcept(w, room, i.Actor, fmt.Sprintf("%s drops the %s.", actorName(w, i.Actor), name))...), nil

	case command.KindInventory:
		items := w.Inventory(i.Actor)
		if len(items) == 0 {
			return []Message{{Recipient: i.Actor, Text: "You are carrying nothing."}}, nil
		}
		text := "You are carrying: "
		for n, id := range items {
			if n > 0 {
				text += ", "
			}
			name, _ := w.Effective(id, "name")
			text += fmt.Sprintf("%v", name)
		}
		return []Message{{Recipient: i.Actor, Text: text}}, nil

	case command.KindMove:
		if ev.Destination == 0 {
			return []Message{{Recipient: i.Actor, Text: "You can't go that way."}}, nil
		}
		leaveMsg := broadcastRoomExcept(w, room, i.Actor, fmt.Sprintf("%s leaves %s.", actorName(w, i.Actor), i.Direction))
		if err := w.MovePlayer(i.Actor, ev.Destination); err != nil {
			return []Message{{Recipient: i.Actor, Text: "You can't go that way."}}, nil
		}
		enterMsg := broadcastRoomExcept(w, ev.Destination, i.Actor, fmt.Sprintf("%s arrives.", actorName(w, i.Actor)))
		out := append(leaveMsg, enterMsg...)
		return append(out, describeRoom(w, i.Actor, ev.Destination)...), nil

	case command.KindLook:
		return describeRoom(w, i.Actor, room), nil

	case command.KindLookAt:
		if !ev.ResolutionOK {
			return []Message{{Recipient: i.Actor, Text: "You don't see that here."}}, nil
		}
		v, err := w.Lookup(i.Target)
		if err != nil {
			return []Message{{Recipient: i.Actor, Text: "You don't see that here."}}, nil
		}
		return []Message{{Recipient: i.Actor, Text: v.Description}}, nil

	case command.KindExits:
		r, ok := w.Room(room)
		if !ok || len(r.Exits) == 0 {
			return []Message{{Recipient: i.Actor, Text: "There are no obvious exits."}}, nil
		}
		dirs := make([]types.Direction, 0, len(r.Exits))
		for dir := range r.Exits {
			dirs = append(dirs, dir)
		}
		sort.Slice(dirs, func(a, b int) bool { return dirs[a] < dirs[b] })
		text := "Obvious exits: "
		for n, dir := range dirs {
			if n > 0 {
				text += ", "
			}
			text += dir.String()
		}
		return []Message{{Recipient: i.Actor, Text: text}}, nil

	default:
		return nil, nil
	}
}

func actorName(w *world.World, id types.EntityID) string {
	v, err := w.Lookup(id)
	if err != nil {
		return "someone"
	}
	return v.Name
}

func broadcastRoom(w *world.World, room types.EntityID, text string) []Message {
	var out []Message
	for _, p := range w.RoomPlayers(room) {
		out = append(out, Message{Recipient: p, Text: text})
	}
	return out
}

func broadcastRoomExcept(w *world.World, room, exclude types.EntityID, text string) []Message {
	var out []Message
	for _, p := range w.RoomPlayers(room) {
		if p == exclude {
			continue
		}
		out = append(out, Message{Recipient: p, Text: text})
	}
	return out
}

func describeRoom(w *world.World, viewer, room types.EntityID) []Message {
	r, ok := w.Room(room)
	if !ok {
		return nil
	}
	text := r.Description
	players, objects := w.RoomContents(room)
	for _, p := range players {
		if p == viewer {
			continue
		}
		text += "\n" + actorName(w, p) + " is here."
	}
	for _, o := range objects {
		name, _ := w.Effective(o, "name")
		text += fmt.Sprintf("\nA %v is here.", name)
	}
	return []Message{{Recipient: viewer, Text: text}}
}
