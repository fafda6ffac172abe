package world

import "textworld/internal/types"

// The Load* constructors and accessors below exist for internal/store: they
// let a fresh World be rebuilt with the same entity ids it was saved with,
// rather than reallocating ids via the ordinary Create* constructors.

// SetNextID ensures subsequent allocations continue past the highest id a
// reload restored. Call once, after every Load* call, before any new Create*.
func (w *World) SetNextID(highest types.EntityID) {
	if highest > w.nextID {
		w.nextID = highest
	}
}

func (w *World) LoadRoom(id types.EntityID, description string) {
	w.kinds[id] = types.KindRoom
	w.rooms[id] = NewRoom(description)
}

func (w *World) LoadRegion(id RegionID, name string) {
	w.regions[id] = name
}

func (w *World) LoadRoomRegion(room types.EntityID, region RegionID) {
	if r, ok := w.rooms[room]; ok {
		r.Regions[region] = struct{}{}
	}
}

func (w *World) LoadExit(from types.EntityID, dir types.Direction, to types.EntityID) {
	if r, ok := w.rooms[from]; ok {
		r.Exits[dir] = to
	}
}

func (w *World) LoadPrototype(id types.EntityID, name, description string, keywords []string, flags types.Flags) {
	w.kinds[id] = types.KindPrototype
	w.prototypes[id] = &Prototype{Name: name, Description: description, Keywords: keywords, Flags: flags}
}

func (w *World) LoadObject(id, proto types.EntityID, inherit bool, name, description *string, flags *types.Flags, keywords *[]string, container types.EntityID) {
	w.kinds[id] = types.KindObject
	w.objects[id] = &Object{PrototypeID: proto, InheritScripts: inherit, Name: name, Description: description, Flags: flags, Keywords: keywords}
	if container != 0 {
		w.objectContainer[id] = container
		switch w.kinds[container] {
		case types.KindRoom:
			if w.roomObjects[container] == nil {
				w.roomObjects[container] = map[types.EntityID]struct{}{}
			}
			w.roomObjects[container][id] = struct{}{}
		case types.KindPlayer:
			if w.playerInventory[container] == nil {
				w.playerInventory[container] = map[types.EntityID]struct{}{}
			}
			w.playerInventory[container][id] = struct{}{}
		}
	}
}

func (w *World) LoadPlayer(id types.EntityID, username, passwordHash, description string, flags types.Flags, room types.EntityID) {
	w.kinds[id] = types.KindPlayer
	w.players[id] = &Player{Username: username, PasswordHash: passwordHash, Description: description, Flags: flags, CurrentRoom: room}
	w.addRoomPlayer(room, id)
}

func (w *World) LoadAttachment(a Attachment) {
	w.Attach(a)
}

// AllPrototypes returns every prototype id in stable ascending order.
func (w *World) AllPrototypes() []types.EntityID {
	ids := make([]types.EntityID, 0, len(w.prototypes))
	for id := range w.prototypes {
		ids = append(ids, id)
	}
	sortIDs(ids)
	return ids
}

// AllObjects returns every object id in stable ascending order.
func (w *World) AllObjects() []types.EntityID {
	ids := make([]types.EntityID, 0, len(w.objects))
	for id := range w.objects {
		ids = append(ids, id)
	}
	sortIDs(ids)
	return ids
}

// AllAttachments returns every attachment across every entity, grouped by
// owner in stable id order, then insertion order within an owner.
func (w *World) AllAttachments() []Attachment {
	var out []Attachment
	ids := make([]types.EntityID, 0, len(w.attachments))
	for id := range w.attachments {
		ids = append(ids, id)
	}
	sortIDs(ids)
	for _, id := range ids {
		out = append(out, w.attachments[id]...)
	}
	return out
}

// Regions returns a copy of every region id and name. The result is a map,
// so its iteration order is not defined.
func (w *World) Regions() map[RegionID]string {
	out := make(map[RegionID]string, len(w.regions))
	for id, name := range w.regions {
		out[id] = name
	}
	return out
}

// RoomRegions returns the region ids a room belongs to.
func (w *World) RoomRegions(room types.EntityID) []RegionID {
	r, ok := w.rooms[room]
	if !ok {
		return nil
	}
	out := make([]RegionID, 0, len(r.Regions))
	for id := range r.Regions {
		out = append(out, id)
	}
	return out
}
