package world

import (
	"fmt"

	"textworld/internal/types"
)

// RemoveObject deletes object outright: removes it from its container and
// detaches every script bound to it.
func (w *World) RemoveObject(id types.EntityID) error {
	if _, ok := w.objects[id]; !ok {
		return &types.NotFound{ID: id}
	}
	w.removeFromContainer(id)
	w.detachAllForEntity(id)
	delete(w.objects, id)
	delete(w.kinds, id)
	return nil
}

// RemoveRoom deletes room, teleporting its occupants to spawn, deleting the
// objects it held, dropping every exit that referenced it (its own and
// other rooms' incoming exits), and detaching its scripts.
func (w *World) RemoveRoom(id types.EntityID) error {
	if _, ok := w.rooms[id]; !ok {
		return &types.NotFound{ID: id}
	}
	if id == w.SpawnRoom {
		return fmt.Errorf("cannot remove the spawn room")
	}

	for _, player := range w.RoomPlayers(id) {
		if err := w.MovePlayer(player, w.SpawnRoom); err != nil {
			return err
		}
	}
	for objID := range w.roomObjects[id] {
		if err := w.RemoveObject(objID); err != nil {
			return err
		}
	}
	delete(w.roomObjects, id)
	delete(w.roomPlayers, id)

	for other, room := range w.rooms {
		for dir, target := range room.Exits {
			if target == id {
				delete(room.Exits, dir)
			}
		}
		_ = other
	}

	w.detachAllForEntity(id)
	delete(w.rooms, id)
	delete(w.kinds, id)
	return nil
}

// RemovePlayer deletes player and its inventory.
func (w *World) RemovePlayer(id types.EntityID) error {
	p, ok := w.players[id]
	if !ok {
		return &types.NotFound{ID: id}
	}
	for objID := range w.playerInventory[id] {
		if err := w.RemoveObject(objID); err != nil {
			return err
		}
	}
	delete(w.playerInventory, id)
	w.removeRoomPlayer(p.CurrentRoom, id)
	w.detachAllForEntity(id)
	delete(w.players, id)
	delete(w.kinds, id)
	return nil
}

// RemovePrototype deletes a prototype. It is forbidden while any object
// still references it.
func (w *World) RemovePrototype(id types.EntityID) error {
	if _, ok := w.prototypes[id]; !ok {
		return &types.NotFound{ID: id}
	}
	for _, o := range w.objects {
		if o.PrototypeID == id {
			return fmt.Errorf("prototype %s still referenced by an object", id)
		}
	}
	w.detachAllForEntity(id)
	delete(w.prototypes, id)
	delete(w.kinds, id)
	return nil
}

// AddExit wires a one-way exit. Callers that want a reciprocal exit must
// call AddExit twice, once per direction — the invariant in spec.md §3
// is explicit that the reverse link is never implied automatically.
func (w *World) AddExit(from types.EntityID, dir types.Direction, to types.EntityID) error {
	room, ok := w.rooms[from]
	if !ok {
		return &types.NotFound{ID: from}
	}
	if _, ok := w.rooms[to]; !ok {
		return &types.NotFound{ID: to}
	}
	room.Exits[dir] = to
	return nil
}
