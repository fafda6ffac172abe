package world

import (
	"sort"

	"textworld/internal/types"
)

// World is the single owned in-memory structure passed by mutable reference
// into the action pipeline. There is no shared global state: every
// simulation-task component takes a *World explicitly.
type World struct {
	nextID types.EntityID

	kinds      map[types.EntityID]types.Kind
	rooms      map[types.EntityID]*Room
	prototypes map[types.EntityID]*Prototype
	objects    map[types.EntityID]*Object
	players    map[types.EntityID]*Player
	regions    map[RegionID]string

	// containment
	objectContainer map[types.EntityID]types.EntityID // object -> room or player
	roomObjects     map[types.EntityID]map[types.EntityID]struct{}
	playerInventory map[types.EntityID]map[types.EntityID]struct{}
	roomPlayers     map[types.EntityID]map[types.EntityID]struct{}

	attachments map[types.EntityID][]Attachment
	attachSeen  map[attachKey]struct{}

	SpawnRoom types.EntityID
}

// New returns an empty World. SpawnRoom must be set once a spawn room
// exists (typically immediately, via CreateRoom + SetSpawnRoom).
func New() *World {
	return &World{
		kinds:           map[types.EntityID]types.Kind{},
		rooms:           map[types.EntityID]*Room{},
		prototypes:      map[types.EntityID]*Prototype{},
		objects:         map[types.EntityID]*Object{},
		players:         map[types.EntityID]*Player{},
		regions:         map[RegionID]string{},
		objectContainer: map[types.EntityID]types.EntityID{},
		roomObjects:     map[types.EntityID]map[types.EntityID]struct{}{},
		playerInventory: map[types.EntityID]map[types.EntityID]struct{}{},
		roomPlayers:     map[types.EntityID]map[types.EntityID]struct{}{},
		attachments:     map[types.EntityID][]Attachment{},
		attachSeen:      map[attachKey]struct{}{},
	}
}

func (w *World) allocID() types.EntityID {
	w.nextID++
	return w.nextID
}

// SetSpawnRoom records the fallback room used by deletion cascades.
func (w *World) SetSpawnRoom(id types.EntityID) { w.SpawnRoom = id }

// CreateRoom allocates a new room entity.
func (w *World) CreateRoom(description string) types.EntityID {
	id := w.allocID()
	w.kinds[id] = types.KindRoom
	w.rooms[id] = NewRoom(description)
	return id
}

// CreatePrototype allocates a new prototype entity.
func (w *World) CreatePrototype(name, description string, keywords []string, flags types.Flags) types.EntityID {
	id := w.allocID()
	w.kinds[id] = types.KindPrototype
	w.prototypes[id] = &Prototype{Name: name, Description: description, Keywords: keywords, Flags: flags}
	return id
}

// CreateObject allocates a new object referencing proto and drops it into
// room. Used by the `object new <proto>` command and WORLD.object_new.
func (w *World) CreateObject(proto types.EntityID, room types.EntityID) (types.EntityID, error) {
	if _, ok := w.prototypes[proto]; !ok {
		return 0, &types.NotFound{ID: proto}
	}
	id := w.allocID()
	w.kinds[id] = types.KindObject
	w.objects[id] = &Object{PrototypeID: proto, InheritScripts: true}
	if err := w.Move(id, room); err != nil {
		return 0, err
	}
	return id, nil
}

// CreatePlayer allocates a new player entity in room.
func (w *World) CreatePlayer(username, passwordHash string, room types.EntityID) types.EntityID {
	id := w.allocID()
	w.kinds[id] = types.KindPlayer
	w.players[id] = &Player{Username: username, PasswordHash: passwordHash, CurrentRoom: room}
	w.addRoomPlayer(room, id)
	return id
}

// Kind returns the entity's kind, or false if it does not exist.
func (w *World) Kind(id types.EntityID) (types.Kind, bool) {
	k, ok := w.kinds[id]
	return k, ok
}

func (w *World) Room(id types.EntityID) (*Room, bool)           { r, ok := w.rooms[id]; return r, ok }
func (w *World) Prototype(id types.EntityID) (*Prototype, bool) { p, ok := w.prototypes[id]; return p, ok }
func (w *World) Object(id types.EntityID) (*Object, bool)       { o, ok := w.objects[id]; return o, ok }
func (w *World) Player(id types.EntityID) (*Player, bool)       { p, ok := w.players[id]; return p, ok }

// Exists reports whether id names any live entity.
func (w *World) Exists(id types.EntityID) bool {
	_, ok := w.kinds[id]
	return ok
}

// AllPlayers returns every player id in stable ascending order.
func (w *World) AllPlayers() []types.EntityID {
	ids := make([]types.EntityID, 0, len(w.players))
	for id := range w.players {
		ids = append(ids, id)
	}
	sortIDs(ids)
	return ids
}

// AllRooms returns every room id in stable ascending order.
func (w *World) AllRooms() []types.EntityID {
	ids := make([]types.EntityID, 0, len(w.rooms))
	for id := range w.rooms {
		ids = append(ids, id)
	}
	sortIDs(ids)
	return ids
}

func sortIDs(ids []types.EntityID) {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
}
