package pipeline

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"textworld/internal/command"
	"textworld/internal/logging"
	"textworld/internal/types"
	"textworld/internal/world"
)

// processDirect handles the kinds that never go through event dispatch:
// immortal world-editing (object/player/room/prototype/script), teleport,
// shutdown and who. These mutate the world directly and surface their
// result only to the acting immortal.
func (p *Pipeline) processDirect(ctx context.Context, i command.Intent) []Message {
	switch i.Kind {
	case command.KindWho:
		return []Message{{Recipient: i.Actor, Text: p.who()}}
	case command.KindShutdown:
		return []Message{{Recipient: i.Actor, Text: "Shutdown requested."}}
	case command.KindTeleport:
		if !p.w.Exists(i.Target) {
			return []Message{{Recipient: i.Actor, Text: "No such room."}}
		}
		if err := p.w.MovePlayer(i.Actor, i.Target); err != nil {
			return []Message{{Recipient: i.Actor, Text: err.Error()}}
		}
		return []Message{{Recipient: i.Actor, Text: fmt.Sprintf("Teleported to %s.", i.Target)}}
	case command.KindAdmin:
		return p.admin(ctx, i)
	default:
		return nil
	}
}

func (p *Pipeline) who() string {
	ids := p.w.AllPlayers()
	if len(ids) == 0 {
		return "No one is connected."
	}
	text := "Connected: "
	for n, id := range ids {
		if n > 0 {
			text += ", "
		}
		text += actorName(p.w, id)
	}
	return text
}

// admin re-checks the acting player's immortal status through the
// declarative rules.Checker before mutating shared state, rather than
// trusting command.Parser's own Flags.Has gate a second time (defense in
// depth for the one command family that edits the live world directly).
func (p *Pipeline) admin(ctx context.Context, i command.Intent) []Message {
	a := i.Admin
	actor := i.Actor
	usage := func(msg string) []Message { return []Message{{Recipient: actor, Text: msg}} }

	pl, ok := p.w.Player(actor)
	if !ok {
		return usage("not found")
	}
	allowed, err := p.checker.IsImmortal(ctx, pl.Flags)
	if err != nil {
		p.log.Error("immortal check for %s: %v", actor, err)
		return usage("permission check failed")
	}
	if !allowed {
		p.audit.Record(logging.AuditEvent{Type: logging.AuditPermissionDenied, Actor: actor.String(), Message: i.Raw})
		return usage("You aren't permitted to do that.")
	}

	switch a.Verb {
	case "object":
		return p.adminObject(actor, a.Args, usage)
	case "room":
		return p.adminRoom(actor, a.Args, usage)
	case "prototype":
		return p.adminPrototype(actor, a.Args, usage)
	case "script":
		return p.adminScript(actor, a.Args, usage)
	case "player":
		return p.adminPlayer(actor, a.Args, usage)
	default:
		return usage("unknown admin verb")
	}
}

func (p *Pipeline) adminObject(actor types.EntityID, args []string, usage func(string) []Message) []Message {
	if len(args) == 0 {
		return usage("usage: object new <prototype-id> | object <id> delete | object <id> name|description|keywords <value> | object <id> inherit <field>")
	}
	if args[0] == "new" {
		if len(args) < 2 {
			return usage("usage: object new <prototype-id>")
		}
		protoID, err := parseID(args[1])
		if err != nil {
			return usage(err.Error())
		}
		room := playerRoom(p.w, actor)
		id, err := p.w.CreateObject(protoID, room)
		if err != nil {
			return usage(err.Error())
		}
		msgs := p.RunInit(context.Background(), id)
		return append(usage(fmt.Sprintf("Created object %s.", id)), msgs...)
	}

	id, err := parseID(args[0])
	if err != nil {
		return usage(err.Error())
	}
	if len(args) < 2 {
		return usage("usage: object <id> delete | object <id> name|description|keywords <value> | object <id> inherit <field>")
	}
	field := args[1]

	if field == "delete" {
		return p.removeEntity(id, "object", p.w.RemoveObject, usage)
	}

	rest := strings.Join(args[2:], " ")
	if field == "inherit" {
		if len(args) < 3 {
			return usage("usage: object <id> inherit <field>")
		}
		return p.clearOverride(actor, id, args[2], usage)
	}
	return p.setOverride(actor, id, field, rest, usage)
}

// removeEntity deletes id via remove (one of world's cascade-aware
// Remove{Object,Room,Prototype,Player} methods), then drops its scheduler
// and script-host state (spec.md §4.6: "removing an entity cancels all its
// timers and clears its FSM stack").
func (p *Pipeline) removeEntity(id types.EntityID, kind string, remove func(types.EntityID) error, usage func(string) []Message) []Message {
	if err := remove(id); err != nil {
		return usage(err.Error())
	}
	p.sched.RemoveEntity(id)
	p.host.RemoveEntity(id)
	return usage(fmt.Sprintf("Deleted %s %s.", kind, id))
}

func (p *Pipeline) setOverride(actor, id types.EntityID, field, value string, usage func(string) []Message) []Message {
	var err error
	switch field {
	case "name":
		err = p.w.SetNameOverride(id, value)
	case "description":
		err = p.w.SetDescriptionOverride(id, value)
	case "keywords":
		err = p.w.SetKeywordsOverride(id, strings.Split(value, ","))
	default:
		return usage("unknown field: " + field)
	}
	if err != nil {
		return usage(err.Error())
	}
	return usage(fmt.Sprintf("Set %s on %s.", field, id))
}

func (p *Pipeline) clearOverride(actor, id types.EntityID, field string, usage func(string) []Message) []Message {
	var err error
	switch field {
	case "name":
		err = p.w.ClearNameOverride(id)
	case "description":
		err = p.w.ClearDescriptionOverride(id)
	case "keywords":
		err = p.w.ClearKeywordsOverride(id)
	default:
		return usage("unknown field: " + field)
	}
	if err != nil {
		return usage(err.Error())
	}
	return usage(fmt.Sprintf("Cleared %s override on %s; falls back to prototype.", field, id))
}

func (p *Pipeline) adminRoom(actor types.EntityID, args []string, usage func(string) []Message) []Message {
	if len(args) == 0 {
		return usage("usage: room new <description> | room delete <id> | room exit <direction> <target-room-id>")
	}
	switch args[0] {
	case "new":
		desc := strings.Join(args[1:], " ")
		id := p.w.CreateRoom(desc)
		return usage(fmt.Sprintf("Created room %s.", id))
	case "delete":
		if len(args) < 2 {
			return usage("usage: room delete <id>")
		}
		id, err := parseID(args[1])
		if err != nil {
			return usage(err.Error())
		}
		return p.removeEntity(id, "room", p.w.RemoveRoom, usage)
	case "exit":
		if len(args) < 3 {
			return usage("usage: room exit <direction> <target-room-id>")
		}
		dir, ok := types.ParseDirection(args[1])
		if !ok {
			return usage("unknown direction: " + args[1])
		}
		target, err := parseID(args[2])
		if err != nil {
			return usage(err.Error())
		}
		from := playerRoom(p.w, actor)
		if err := p.w.AddExit(from, dir, target); err != nil {
			return usage(err.Error())
		}
		return usage(fmt.Sprintf("Exit %s from %s to %s created.", dir, from, target))
	default:
		return usage("unknown room subcommand")
	}
}

func (p *Pipeline) adminPrototype(actor types.EntityID, args []string, usage func(string) []Message) []Message {
	if len(args) == 0 {
		return usage("usage: prototype new <name> <description> [keyword,keyword...] | prototype delete <id>")
	}
	if args[0] == "delete" {
		if len(args) < 2 {
			return usage("usage: prototype delete <id>")
		}
		id, err := parseID(args[1])
		if err != nil {
			return usage(err.Error())
		}
		return p.removeEntity(id, "prototype", p.w.RemovePrototype, usage)
	}
	if len(args) < 3 || args[0] != "new" {
		return usage("usage: prototype new <name> <description> [keyword,keyword...] | prototype delete <id>")
	}
	name, desc := args[1], args[2]
	var keywords []string
	if len(args) > 3 {
		keywords = strings.Split(args[3], ",")
	}
	id := p.w.CreatePrototype(name, desc, keywords, 0)
	return usage(fmt.Sprintf("Created prototype %s.", id))
}

// adminPlayer handles `player <username> description <text> | grant|revoke
// <flag> | delete`, the named immortal family spec.md §6 lists but leaves
// ungrammared. Players are addressed by username, not id, matching how
// `send`/`who` already name them.
func (p *Pipeline) adminPlayer(actor types.EntityID, args []string, usage func(string) []Message) []Message {
	if len(args) < 2 {
		return usage("usage: player <username> description <text> | player <username> grant|revoke <flag> | player <username> delete")
	}
	username := args[0]
	target, ok := p.w.FindPlayerByUsername(username)
	if !ok {
		return usage("not found")
	}

	switch args[1] {
	case "description":
		if len(args) < 3 {
			return usage("usage: player <username> description <text>")
		}
		if err := p.w.SetPlayerDescription(target, strings.Join(args[2:], " ")); err != nil {
			return usage(err.Error())
		}
		return usage(fmt.Sprintf("Set description on %s.", username))
	case "grant", "revoke":
		if len(args) < 3 {
			return usage("usage: player <username> " + args[1] + " <flag>")
		}
		flag, ok := types.ParseFlag(args[2])
		if !ok {
			return usage("bad flag")
		}
		var err error
		action := "Granted"
		if args[1] == "grant" {
			err = p.w.GrantPlayerFlag(target, flag)
		} else {
			action = "Revoked"
			err = p.w.RevokePlayerFlag(target, flag)
		}
		if err != nil {
			return usage(err.Error())
		}
		return usage(fmt.Sprintf("%s %s on %s.", action, args[2], username))
	case "delete":
		return p.removeEntity(target, "player", p.w.RemovePlayer, usage)
	default:
		return usage("unknown player subcommand")
	}
}

func (p *Pipeline) adminScript(actor types.EntityID, args []string, usage func(string) []Message) []Message {
	if len(args) < 2 {
		return usage("usage: script attach-pre|attach-post|attach-init|attach-timer|detach <entity-id> ...")
	}
	verb := args[0]
	entity, err := parseID(args[1])
	if err != nil {
		return usage(err.Error())
	}

	switch verb {
	case "attach-pre", "attach-post":
		if len(args) < 4 {
			return usage("usage: script " + verb + " <entity-id> <trigger> <script-name>")
		}
		phase := types.PhasePre
		if verb == "attach-post" {
			phase = types.PhasePost
		}
		att := world.Attachment{Entity: entity, Phase: phase, Script: args[3], Trigger: types.Trigger(args[2])}
		p.w.Attach(att)
		return usage(fmt.Sprintf("Attached %s to %s (%s, %s).", args[3], entity, verb, args[2]))
	case "attach-init":
		if len(args) < 3 {
			return usage("usage: script attach-init <entity-id> <script-name>")
		}
		att := world.Attachment{Entity: entity, Phase: types.PhaseInit, Script: args[2], Trigger: types.TriggerInit}
		p.w.Attach(att)
		return usage(fmt.Sprintf("Attached %s to %s (init).", args[2], entity))
	case "attach-timer":
		if len(args) < 4 {
			return usage("usage: script attach-timer <entity-id> <timer-name> <script-name>")
		}
		att := world.Attachment{Entity: entity, Phase: types.PhaseTimer, TimerName: args[2], Script: args[3], Trigger: types.TriggerTimer}
		p.w.Attach(att)
		return usage(fmt.Sprintf("Attached %s to %s (timer %s).", args[3], entity, args[2]))
	case "detach":
		if len(args) < 4 {
			return usage("usage: script detach <entity-id> <phase> <trigger-or-timer-name> <script-name>")
		}
		phase := parsePhase(args[2])
		trigger := types.TriggerTimer
		timerName := ""
		if phase == types.PhaseTimer {
			timerName = args[3]
		} else if len(args) > 4 {
			trigger = types.Trigger(args[3])
		}
		att := world.Attachment{Entity: entity, Phase: phase, TimerName: timerName, Script: args[len(args)-1], Trigger: trigger}
		p.w.Detach(att)
		return usage(fmt.Sprintf("Detached %s from %s.", args[len(args)-1], entity))
	case "forget":
		p.host.Forget(args[1])
		return usage(fmt.Sprintf("Forgot compiled script %s.", args[1]))
	default:
		return usage("unknown script subcommand")
	}
}

func parsePhase(s string) types.Phase {
	switch s {
	case "post":
		return types.PhasePost
	case "init":
		return types.PhaseInit
	case "timer":
		return types.PhaseTimer
	default:
		return types.PhasePre
	}
}

func parseID(s string) (types.EntityID, error) {
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid id: %s", s)
	}
	return types.EntityID(n), nil
}
