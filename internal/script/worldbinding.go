package script

import (
	"textworld/internal/types"
	"textworld/internal/world"
)

// worldBinding adapts *world.World to the api.World surface a script sees.
// ObjectNew is the one mutator; everything else is read-only.
type worldBinding struct {
	w       *world.World
	room    types.EntityID // current room of the invoking entity, for ObjectNew
	onSpawn func(id types.EntityID)
}

func (b *worldBinding) IsPlayer(id types.EntityID) bool {
	k, ok := b.w.Kind(id)
	return ok && k == types.KindPlayer
}

func (b *worldBinding) IsRoom(id types.EntityID) bool {
	k, ok := b.w.Kind(id)
	return ok && k == types.KindRoom
}

func (b *worldBinding) IsObject(id types.EntityID) bool {
	k, ok := b.w.Kind(id)
	return ok && k == types.KindObject
}

func (b *worldBinding) Name(id types.EntityID) string {
	v, err := b.w.Lookup(id)
	if err != nil {
		return ""
	}
	return v.Name
}

func (b *worldBinding) Description(id types.EntityID) string {
	v, err := b.w.Lookup(id)
	if err != nil {
		return ""
	}
	return v.Description
}

func (b *worldBinding) Keywords(id types.EntityID) []string {
	v, err := b.w.Lookup(id)
	if err != nil {
		return nil
	}
	return v.Keywords
}

func (b *worldBinding) Location(id types.EntityID) types.EntityID {
	v, err := b.w.Lookup(id)
	if err != nil {
		return 0
	}
	return v.Location
}

func (b *worldBinding) Container(id types.EntityID) types.EntityID {
	c, _ := b.w.Container(id)
	return c
}

func (b *worldBinding) Contents(room types.EntityID) []types.EntityID {
	_, objects := b.w.RoomContents(room)
	return objects
}

func (b *worldBinding) Players(room types.EntityID) []types.EntityID {
	return b.w.RoomPlayers(room)
}

// ObjectNew creates an object of prototypeID in the invoking entity's
// current room and signals onSpawn so the host can run its init scripts
// immediately, re-entering dispatch at a bounded call depth (spec.md §9c).
func (b *worldBinding) ObjectNew(prototypeID types.EntityID) (types.EntityID, error) {
	id, err := b.w.CreateObject(prototypeID, b.room)
	if err != nil {
		return 0, err
	}
	if b.onSpawn != nil {
		b.onSpawn(id)
	}
	return id, nil
}
