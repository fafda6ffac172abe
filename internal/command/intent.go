// Package command tokenizes a player's input line into an ActionIntent and
// resolves any target keyword against the actor's observable context
// (spec.md §4.3). It does not mutate the world.
package command

import "textworld/internal/types"

// Kind tags the family of action a parsed line requests.
type Kind string

const (
	KindSay       Kind = "say"
	KindEmote     Kind = "emote"
	KindSend      Kind = "send"
	KindMe        Kind = "me"
	KindGet       Kind = "get"
	KindDrop      Kind = "drop"
	KindInventory Kind = "inventory"
	KindMove      Kind = "move"
	KindTeleport  Kind = "teleport"
	KindLook      Kind = "look"
	KindLookAt    Kind = "look_at"
	KindExits     Kind = "exits"
	KindWho       Kind = "who"
	KindShutdown  Kind = "shutdown"
	KindAdmin     Kind = "admin" // object/player/room/prototype/script subcommands
	KindUnknown   Kind = "unknown"

	KindNotPermitted   Kind = "not_permitted"
	KindResolutionFail Kind = "resolution_fail"
)

// Intent is the parser's output: a tagged, partially-resolved action ready
// for the pipeline. Err, when non-nil, is one of the typed errors from
// internal/types (ParseError, ResolutionError, PermissionError); the
// pipeline still constructs an Event for ResolutionError so scripts can
// observe failed attempts, per spec.md §4.3/§7.
type Intent struct {
	Kind  Kind
	Actor types.EntityID
	Raw   string

	Text          string // say/emote/me text; admin subverb line remainder
	Target        types.EntityID
	TargetKeyword string
	Direction     types.Direction
	Recipient     types.EntityID

	// Admin carries the tokenized admin command (object/player/room/
	// prototype/script) for KindAdmin intents; Verb is "object", "player",
	// "room", "prototype", or "script".
	Admin *AdminCommand

	Err error
}

// AdminCommand is the tokenized immortal-only command surface.
type AdminCommand struct {
	Verb string
	Args []string
}
