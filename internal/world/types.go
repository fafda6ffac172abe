// Package world holds the in-memory entity-component store: rooms, objects,
// players and prototypes, their containment indexes, and the single-level
// prototype inheritance resolver. The World is owned exclusively by the
// control loop's simulation task (spec.md §5); every exported method
// assumes single-threaded, synchronous access.
package world

import "textworld/internal/types"

// RegionID identifies a named region a room can belong to. Regions are a
// flat lookup table, not an entity kind.
type RegionID uint64

// Room is the component set for a KindRoom entity.
type Room struct {
	Description string
	Exits       map[types.Direction]types.EntityID
	Regions     map[RegionID]struct{}
}

func NewRoom(description string) *Room {
	return &Room{Description: description, Exits: map[types.Direction]types.EntityID{}, Regions: map[RegionID]struct{}{}}
}

// Prototype is the component set for a KindPrototype entity.
type Prototype struct {
	Name        string
	Description string
	Keywords    []string
	Flags       types.Flags
}

// Object is the component set for a KindObject entity. Nil override fields
// fall back to the prototype's value; see Effective.
type Object struct {
	PrototypeID    types.EntityID
	InheritScripts bool

	Name        *string
	Description *string
	Keywords    *[]string
	Flags       *types.Flags
}

// Player is the component set for a KindPlayer entity.
type Player struct {
	Username     string
	PasswordHash string
	Description  string
	Flags        types.Flags
	CurrentRoom  types.EntityID
}

// Attachment binds a named script to an entity under a dispatch phase. The
// tuple (Entity, Phase, TimerName, Script, Trigger) is unique; the same
// script may repeat on an entity only with a different phase, timer name or
// trigger.
type Attachment struct {
	Entity    types.EntityID
	Phase     types.Phase
	TimerName string
	Script    string
	Trigger   types.Trigger
}

func (a Attachment) key() attachKey {
	return attachKey{a.Entity, a.Phase, a.TimerName, a.Script, a.Trigger}
}

type attachKey struct {
	entity    types.EntityID
	phase     types.Phase
	timerName string
	script    string
	trigger   types.Trigger
}
