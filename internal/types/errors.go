package types

import "fmt"

// ParseError is an unrecognized command or bad arguments. No event is
// emitted; the message surfaces directly to the acting player.
type ParseError struct {
	Input   string
	Message string
}

func (e *ParseError) Error() string { return fmt.Sprintf("parse error: %s (input %q)", e.Message, e.Input) }

// ResolutionError is a target keyword that did not resolve against the
// actor's observable context. An event MAY still be emitted so scripts can
// observe the failed attempt.
type ResolutionError struct {
	Keyword string
}

func (e *ResolutionError) Error() string { return fmt.Sprintf("no target matches %q", e.Keyword) }

// PermissionError is an immortal-only command issued by a non-immortal
// actor.
type PermissionError struct {
	Command string
}

func (e *PermissionError) Error() string { return fmt.Sprintf("not permitted: %s", e.Command) }

// CompileError is persisted on a Script when its source fails to compile.
// Attachments of a script in this state no-op rather than veto.
type CompileError struct {
	Line     int
	Position int
	Message  string
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("compile error at %d:%d: %s", e.Line, e.Position, e.Message)
}

// RuntimeScriptError is recorded per-entity per-script when an attached
// script's execution aborts. The pipeline continues; the script's veto is
// treated as not set.
type RuntimeScriptError struct {
	Script string
	Entity EntityID
	Cause  error
}

func (e *RuntimeScriptError) Error() string {
	return fmt.Sprintf("script %q on %s: %v", e.Script, e.Entity, e.Cause)
}
func (e *RuntimeScriptError) Unwrap() error { return e.Cause }

// InvariantError signals a bug in the engine itself (e.g. an object found
// in two containers). It is fatal to the tick that discovered it; the
// engine must not let it corrupt the store.
type InvariantError struct {
	Message string
}

func (e *InvariantError) Error() string { return fmt.Sprintf("invariant violation: %s", e.Message) }

// StoreError wraps a failed end-of-tick write. The control loop retries
// with backoff before halting intake.
type StoreError struct {
	Cause error
}

func (e *StoreError) Error() string { return fmt.Sprintf("store error: %v", e.Cause) }
func (e *StoreError) Unwrap() error { return e.Cause }

// NotFound is returned by World.Lookup for an unknown id.
type NotFound struct {
	ID EntityID
}

func (e *NotFound) Error() string { return fmt.Sprintf("entity %s not found", e.ID) }

// AlreadyContained is a diagnostic-only error: World.Move refuses to break
// the one-container invariant. The engine must never produce the state
// that triggers it.
type AlreadyContained struct {
	Object EntityID
}

func (e *AlreadyContained) Error() string {
	return fmt.Sprintf("object %s already has a container", e.Object)
}
