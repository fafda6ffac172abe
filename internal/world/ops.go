package world

import (
	"strings"

	"textworld/internal/types"
)

// EntityView is a read-only projection used by the parser, pipeline and
// script bindings to describe an entity without leaking component structs.
type EntityView struct {
	ID          types.EntityID
	Kind        types.Kind
	Name        string
	Description string
	Keywords    []string
	Location    types.EntityID // room (objects, players) or 0
}

// Lookup resolves an entity id into a view, regardless of kind.
func (w *World) Lookup(id types.EntityID) (EntityView, error) {
	kind, ok := w.kinds[id]
	if !ok {
		return EntityView{}, &types.NotFound{ID: id}
	}
	v := EntityView{ID: id, Kind: kind}
	switch kind {
	case types.KindRoom:
		r := w.rooms[id]
		v.Name = "room"
		v.Description = r.Description
	case types.KindPrototype:
		p := w.prototypes[id]
		v.Name, v.Description, v.Keywords = p.Name, p.Description, p.Keywords
	case types.KindObject:
		v.Name, _ = w.effectiveName(id)
		v.Description, _ = w.effectiveDescription(id)
		v.Keywords, _ = w.effectiveKeywords(id)
		v.Location = w.objectContainer[id]
	case types.KindPlayer:
		p := w.players[id]
		v.Name = p.Username
		v.Description = p.Description
		v.Location = p.CurrentRoom
	}
	return v, nil
}

// Effective returns an object's effective field value: the override if
// non-nil, else the prototype's value. field is one of "name",
// "description", "keywords", "flags".
func (w *World) Effective(id types.EntityID, field string) (interface{}, error) {
	switch field {
	case "name":
		return w.effectiveName(id)
	case "description":
		return w.effectiveDescription(id)
	case "keywords":
		return w.effectiveKeywords(id)
	case "flags":
		return w.effectiveFlags(id)
	default:
		return nil, &types.NotFound{ID: id}
	}
}

func (w *World) effectiveName(id types.EntityID) (string, error) {
	o, proto, err := w.objectAndProto(id)
	if err != nil {
		return "", err
	}
	if o.Name != nil {
		return *o.Name, nil
	}
	return proto.Name, nil
}

func (w *World) effectiveDescription(id types.EntityID) (string, error) {
	o, proto, err := w.objectAndProto(id)
	if err != nil {
		return "", err
	}
	if o.Description != nil {
		return *o.Description, nil
	}
	return proto.Description, nil
}

// effectiveKeywords implements the no-union law: the override list wins in
// full when present, otherwise the prototype's list is used as-is.
func (w *World) effectiveKeywords(id types.EntityID) ([]string, error) {
	o, proto, err := w.objectAndProto(id)
	if err != nil {
		return nil, err
	}
	if o.Keywords != nil {
		return *o.Keywords, nil
	}
	return proto.Keywords, nil
}

func (w *World) effectiveFlags(id types.EntityID) (types.Flags, error) {
	o, proto, err := w.objectAndProto(id)
	if err != nil {
		return 0, err
	}
	if o.Flags != nil {
		return *o.Flags, nil
	}
	return proto.Flags, nil
}

func (w *World) objectAndProto(id types.EntityID) (*Object, *Prototype, error) {
	o, ok := w.objects[id]
	if !ok {
		return nil, nil, &types.NotFound{ID: id}
	}
	proto, ok := w.prototypes[o.PrototypeID]
	if !ok {
		return nil, nil, &types.NotFound{ID: o.PrototypeID}
	}
	return o, proto, nil
}

// RoomContents lists the players and non-subtle objects in room. Objects
// are returned in stable id order; subtle objects are omitted (they remain
// addressable by keyword via ResolveTarget).
func (w *World) RoomContents(room types.EntityID) (players []types.EntityID, objects []types.EntityID) {
	for id := range w.roomPlayers[room] {
		players = append(players, id)
	}
	sortIDs(players)
	for id := range w.roomObjects[room] {
		flags, err := w.effectiveFlags(id)
		if err == nil && flags.Has(types.FlagSubtle) {
			continue
		}
		objects = append(objects, id)
	}
	sortIDs(objects)
	return players, objects
}

// RoomObjects lists every object in room, including subtle ones, in stable
// id order. Unlike RoomContents this is for internal dispatch scope
// (spec.md §4.4 step 2b: a subtle object's attachments still observe events
// in its locus), not for player-facing listings.
func (w *World) RoomObjects(room types.EntityID) []types.EntityID {
	objects := make([]types.EntityID, 0, len(w.roomObjects[room]))
	for id := range w.roomObjects[room] {
		objects = append(objects, id)
	}
	sortIDs(objects)
	return objects
}

// ResolveTarget searches the actor's inventory, then their current room's
// objects (case-insensitive partial keyword match), then the room's players
// (exact-case name match, used by `send`). Inventory wins over room; within
// a set, the lowest stable id wins.
func (w *World) ResolveTarget(actor types.EntityID, keyword string) (types.EntityID, error) {
	player, ok := w.players[actor]
	if !ok {
		return 0, &types.NotFound{ID: actor}
	}

	if id, ok := w.matchKeyword(w.playerInventory[actor], keyword); ok {
		return id, nil
	}
	if id, ok := w.matchKeyword(w.roomObjects[player.CurrentRoom], keyword); ok {
		return id, nil
	}
	if id, ok := w.matchPlayerName(player.CurrentRoom, keyword); ok {
		return id, nil
	}
	return 0, &types.ResolutionError{Keyword: keyword}
}

func (w *World) matchKeyword(set map[types.EntityID]struct{}, keyword string) (types.EntityID, bool) {
	ids := make([]types.EntityID, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sortIDs(ids)
	lower := strings.ToLower(keyword)
	for _, id := range ids {
		kws, err := w.effectiveKeywords(id)
		if err != nil {
			continue
		}
		for _, kw := range kws {
			if strings.Contains(strings.ToLower(kw), lower) {
				return id, true
			}
		}
	}
	return 0, false
}

// FindPlayerByUsername looks up a player by login name across the whole
// world, not just one room's visible set — internal/session's auth step
// needs this before the player has a room to be observable in.
func (w *World) FindPlayerByUsername(username string) (types.EntityID, bool) {
	for _, id := range w.AllPlayers() {
		if w.players[id].Username == username {
			return id, true
		}
	}
	return 0, false
}

func (w *World) matchPlayerName(room types.EntityID, name string) (types.EntityID, bool) {
	ids := make([]types.EntityID, 0, len(w.roomPlayers[room]))
	for id := range w.roomPlayers[room] {
		ids = append(ids, id)
	}
	sortIDs(ids)
	for _, id := range ids {
		if w.players[id].Username == name {
			return id, true
		}
	}
	return 0, false
}

// Move relocates an object atomically: removed from its current container
// (if any) before being inserted into to. to must be a room or a player.
func (w *World) Move(object types.EntityID, to types.EntityID) error {
	toKind, ok := w.kinds[to]
	if !ok {
		return &types.NotFound{ID: to}
	}
	if _, ok := w.objects[object]; !ok {
		return &types.NotFound{ID: object}
	}
	if toKind != types.KindRoom && toKind != types.KindPlayer {
		return &types.AlreadyContained{Object: object}
	}

	w.removeFromContainer(object)

	switch toKind {
	case types.KindRoom:
		if w.roomObjects[to] == nil {
			w.roomObjects[to] = map[types.EntityID]struct{}{}
		}
		w.roomObjects[to][object] = struct{}{}
	case types.KindPlayer:
		if w.playerInventory[to] == nil {
			w.playerInventory[to] = map[types.EntityID]struct{}{}
		}
		w.playerInventory[to][object] = struct{}{}
	default:
		return &types.AlreadyContained{Object: object}
	}
	w.objectContainer[object] = to
	return nil
}

func (w *World) removeFromContainer(object types.EntityID) {
	prev, had := w.objectContainer[object]
	if !had {
		return
	}
	if set, ok := w.roomObjects[prev]; ok {
		delete(set, object)
	}
	if set, ok := w.playerInventory[prev]; ok {
		delete(set, object)
	}
	delete(w.objectContainer, object)
}

// Container returns the room or player currently holding object.
func (w *World) Container(object types.EntityID) (types.EntityID, bool) {
	c, ok := w.objectContainer[object]
	return c, ok
}

// MovePlayer updates a player's location. The caller (pipeline) is
// responsible for emitting the enter/leave events this implies.
func (w *World) MovePlayer(player types.EntityID, to types.EntityID) error {
	p, ok := w.players[player]
	if !ok {
		return &types.NotFound{ID: player}
	}
	if _, ok := w.rooms[to]; !ok {
		return &types.NotFound{ID: to}
	}
	w.removeRoomPlayer(p.CurrentRoom, player)
	p.CurrentRoom = to
	w.addRoomPlayer(to, player)
	return nil
}

func (w *World) addRoomPlayer(room, player types.EntityID) {
	if w.roomPlayers[room] == nil {
		w.roomPlayers[room] = map[types.EntityID]struct{}{}
	}
	w.roomPlayers[room][player] = struct{}{}
}

func (w *World) removeRoomPlayer(room, player types.EntityID) {
	if set, ok := w.roomPlayers[room]; ok {
		delete(set, player)
	}
}

// Inventory returns a player's held objects in stable id order.
func (w *World) Inventory(player types.EntityID) []types.EntityID {
	ids := make([]types.EntityID, 0, len(w.playerInventory[player]))
	for id := range w.playerInventory[player] {
		ids = append(ids, id)
	}
	sortIDs(ids)
	return ids
}

// RoomPlayers returns the players currently in room, in stable id order.
func (w *World) RoomPlayers(room types.EntityID) []types.EntityID {
	ids := make([]types.EntityID, 0, len(w.roomPlayers[room]))
	for id := range w.roomPlayers[room] {
		ids = append(ids, id)
	}
	sortIDs(ids)
	return ids
}
