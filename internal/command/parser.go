package command

import (
	"strconv"
	"strings"

	"textworld/internal/types"
	"textworld/internal/world"
)

// immortalOnly lists the first tokens that require the immortal flag.
var immortalOnly = map[string]bool{
	"teleport": true, "shutdown": true,
	"object": true, "player": true, "room": true, "prototype": true, "script": true,
}

// Parser tokenizes player input lines into Intents.
type Parser struct{}

func New() *Parser { return &Parser{} }

// Parse tokenizes line on behalf of actor, resolving targets against w.
func (p *Parser) Parse(actor types.EntityID, line string, w *world.World) Intent {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return Intent{Kind: KindUnknown, Actor: actor, Raw: line, Err: &types.ParseError{Input: line, Message: "empty command"}}
	}

	trimmed = applyAlias(trimmed)

	fields := strings.SplitN(trimmed, " ", 2)
	verb := strings.ToLower(fields[0])
	rest := ""
	if len(fields) > 1 {
		rest = strings.TrimSpace(fields[1])
	}

	if immortalOnly[verb] && !p.isImmortal(actor, w) {
		return Intent{Kind: KindNotPermitted, Actor: actor, Raw: line, Err: &types.PermissionError{Command: verb}}
	}

	switch verb {
	case "say":
		return Intent{Kind: KindSay, Actor: actor, Raw: line, Text: rest}
	case "emote":
		return Intent{Kind: KindEmote, Actor: actor, Raw: line, Text: rest}
	case "me":
		return Intent{Kind: KindMe, Actor: actor, Raw: line, Text: rest}
	case "send":
		return p.parseSend(actor, line, rest, w)
	case "get":
		return p.parseTargeted(actor, line, KindGet, rest, w)
	case "drop":
		return p.parseTargeted(actor, line, KindDrop, rest, w)
	case "inventory", "i", "inv":
		return Intent{Kind: KindInventory, Actor: actor, Raw: line}
	case "look", "l":
		if rest == "" {
			return Intent{Kind: KindLook, Actor: actor, Raw: line}
		}
		keyword := strings.TrimPrefix(rest, "at ")
		return p.parseTargeted(actor, line, KindLookAt, keyword, w)
	case "exits":
		return Intent{Kind: KindExits, Actor: actor, Raw: line}
	case "who":
		return Intent{Kind: KindWho, Actor: actor, Raw: line}
	case "shutdown":
		return Intent{Kind: KindShutdown, Actor: actor, Raw: line}
	case "teleport":
		return p.parseTeleport(actor, line, rest)
	case "object", "player", "room", "prototype", "script":
		return Intent{Kind: KindAdmin, Actor: actor, Raw: line, Admin: &AdminCommand{Verb: verb, Args: strings.Fields(rest)}, Text: rest}
	}

	if dir, ok := types.ParseDirection(verb); ok {
		return Intent{Kind: KindMove, Actor: actor, Raw: line, Direction: dir}
	}

	return Intent{Kind: KindUnknown, Actor: actor, Raw: line, Err: &types.ParseError{Input: line, Message: "unrecognized command"}}
}

func applyAlias(s string) string {
	switch {
	case strings.HasPrefix(s, "'"):
		return "say " + strings.TrimSpace(s[1:])
	case strings.HasPrefix(s, ";"):
		return "emote " + strings.TrimSpace(s[1:])
	default:
		return s
	}
}

func (p *Parser) isImmortal(actor types.EntityID, w *world.World) bool {
	pl, ok := w.Player(actor)
	if !ok {
		return false
	}
	return pl.Flags.Has(types.FlagImmortal)
}

// parseTargeted resolves a single keyword argument for get/drop/look-at.
// On resolution failure the intent still carries its Kind and the
// ResolutionError, so the pipeline can still construct an event for
// scripts to observe the miss (spec.md §4.3).
func (p *Parser) parseTargeted(actor types.EntityID, line string, kind Kind, keyword string, w *world.World) Intent {
	if keyword == "" {
		return Intent{Kind: kind, Actor: actor, Raw: line, Err: &types.ParseError{Input: line, Message: "missing target"}}
	}
	target, err := w.ResolveTarget(actor, keyword)
	if err != nil {
		return Intent{Kind: kind, Actor: actor, Raw: line, TargetKeyword: keyword, Err: err}
	}
	return Intent{Kind: kind, Actor: actor, Raw: line, Target: target, TargetKeyword: keyword}
}

func (p *Parser) parseSend(actor types.EntityID, line, rest string, w *world.World) Intent {
	fields := strings.SplitN(rest, " ", 2)
	if len(fields) < 2 || fields[0] == "" {
		return Intent{Kind: KindSend, Actor: actor, Raw: line, Err: &types.ParseError{Input: line, Message: "usage: send <player> <text>"}}
	}
	target, err := w.ResolveTarget(actor, fields[0])
	if err != nil {
		return Intent{Kind: KindSend, Actor: actor, Raw: line, TargetKeyword: fields[0], Text: fields[1], Err: err}
	}
	return Intent{Kind: KindSend, Actor: actor, Raw: line, Recipient: target, Text: fields[1]}
}

func (p *Parser) parseTeleport(actor types.EntityID, line, rest string) Intent {
	n, err := strconv.ParseUint(rest, 10, 64)
	if err != nil {
		return Intent{Kind: KindTeleport, Actor: actor, Raw: line, Err: &types.ParseError{Input: line, Message: "usage: teleport <room-id>"}}
	}
	return Intent{Kind: KindTeleport, Actor: actor, Raw: line, Target: types.EntityID(n)}
}
