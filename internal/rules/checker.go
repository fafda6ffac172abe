// Package rules holds the engine's two checks (spec.md §4.7/§8):
// immortal-command permission, evaluated declaratively through
// google/mangle, and the end-of-tick invariant sweep, written as plain Go.
// Grounded on internal/mangle/engine.go's
// NewEngine/LoadSchemaString/AddFact/Query surface — the differential
// fact-store layer that package also offers has no user here.
package rules

import (
	"context"
	"fmt"

	"textworld/internal/mangle"
	"textworld/internal/script"
	"textworld/internal/types"
	"textworld/internal/world"
)

// Checker holds a loaded mangle engine. A tick's worth of facts is loaded,
// queried, then cleared — the engine is not a long-lived fact accumulator.
type Checker struct {
	engine *mangle.Engine
}

func NewChecker() (*Checker, error) {
	engine, err := mangle.NewEngine(mangle.DefaultConfig())
	if err != nil {
		return nil, fmt.Errorf("new mangle engine: %w", err)
	}
	if err := engine.LoadSchemaString(schema); err != nil {
		return nil, fmt.Errorf("load rules schema: %w", err)
	}
	return &Checker{engine: engine}, nil
}

// IsImmortal asks the declarative layer whether flags grant admin command
// access. Mirrors command.Parser's direct Flags.Has check; kept as a
// separate, independently-testable authority the control loop's admin
// surface can consult before mutating shared state over the network.
func (c *Checker) IsImmortal(ctx context.Context, flags types.Flags) (bool, error) {
	c.engine.Clear() // Clear wipes facts only; schema decls/rules survive (engine.go's Clear)
	if flags.Has(types.FlagImmortal) {
		if err := c.engine.AddFact("is_immortal", "p"); err != nil {
			return false, err
		}
	}
	res, err := c.engine.Query(ctx, "may_administer(/p)")
	if err != nil {
		return false, err
	}
	return len(res.Bindings) > 0, nil
}

// Sweep runs the end-of-tick invariant checks from spec.md §8: every
// attachment points at a compiled script, the spawn room still exists, and
// every object has a container. Container uniqueness and timer non-repeat
// survival are not checked here: they are structural guarantees of
// internal/world's and internal/scheduler's own indexes (a map keyed by
// object id cannot hold two containers for one object). Dangling-attachment
// detection is a plain set difference,
// not a Mangle query — see schema.go for why.
func (c *Checker) Sweep(ctx context.Context, w *world.World, host *script.Host) ([]*types.InvariantError, error) {
	compiled := make(map[string]struct{})
	for _, name := range host.CompiledNames() {
		compiled[name] = struct{}{}
	}

	var violations []*types.InvariantError
	for _, a := range w.AllAttachments() {
		if _, ok := compiled[a.Script]; !ok {
			violations = append(violations, &types.InvariantError{
				Message: fmt.Sprintf("attachment on %v references uncompiled script %v", a.Entity, a.Script),
			})
		}
	}

	if w.SpawnRoom == 0 {
		violations = append(violations, &types.InvariantError{Message: "no spawn room configured"})
	} else if _, ok := w.Room(w.SpawnRoom); !ok {
		violations = append(violations, &types.InvariantError{Message: "spawn room no longer exists"})
	}

	for _, obj := range w.AllObjects() {
		if _, ok := w.Container(obj); !ok {
			violations = append(violations, &types.InvariantError{
				Message: fmt.Sprintf("object %d has no container", obj),
			})
		}
	}

	return violations, nil
}
