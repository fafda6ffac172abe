package world

import "textworld/internal/types"

// SetNameOverride sets an object's name override; ClearNameOverride removes it.
func (w *World) SetNameOverride(id types.EntityID, name string) error {
	o, ok := w.objects[id]
	if !ok {
		return &types.NotFound{ID: id}
	}
	o.Name = &name
	return nil
}

// ClearNameOverride restores prototype fallback for name.
func (w *World) ClearNameOverride(id types.EntityID) error {
	o, ok := w.objects[id]
	if !ok {
		return &types.NotFound{ID: id}
	}
	o.Name = nil
	return nil
}

func (w *World) SetDescriptionOverride(id types.EntityID, desc string) error {
	o, ok := w.objects[id]
	if !ok {
		return &types.NotFound{ID: id}
	}
	o.Description = &desc
	return nil
}

func (w *World) ClearDescriptionOverride(id types.EntityID) error {
	o, ok := w.objects[id]
	if !ok {
		return &types.NotFound{ID: id}
	}
	o.Description = nil
	return nil
}

func (w *World) SetKeywordsOverride(id types.EntityID, keywords []string) error {
	o, ok := w.objects[id]
	if !ok {
		return &types.NotFound{ID: id}
	}
	o.Keywords = &keywords
	return nil
}

func (w *World) ClearKeywordsOverride(id types.EntityID) error {
	o, ok := w.objects[id]
	if !ok {
		return &types.NotFound{ID: id}
	}
	o.Keywords = nil
	return nil
}

func (w *World) SetFlagsOverride(id types.EntityID, flags types.Flags) error {
	o, ok := w.objects[id]
	if !ok {
		return &types.NotFound{ID: id}
	}
	o.Flags = &flags
	return nil
}

func (w *World) ClearFlagsOverride(id types.EntityID) error {
	o, ok := w.objects[id]
	if !ok {
		return &types.NotFound{ID: id}
	}
	o.Flags = nil
	return nil
}

// SetPlayerDescription updates a player's description. Players have no
// prototype to fall back to, so this writes the field directly rather than
// through an override.
func (w *World) SetPlayerDescription(id types.EntityID, desc string) error {
	p, ok := w.players[id]
	if !ok {
		return &types.NotFound{ID: id}
	}
	p.Description = desc
	return nil
}

// GrantPlayerFlag sets flag on a player, used by the admin surface's
// `player <username> grant <flag>`.
func (w *World) GrantPlayerFlag(id types.EntityID, flag types.Flags) error {
	p, ok := w.players[id]
	if !ok {
		return &types.NotFound{ID: id}
	}
	p.Flags = p.Flags.Set(flag)
	return nil
}

// RevokePlayerFlag clears flag on a player.
func (w *World) RevokePlayerFlag(id types.EntityID, flag types.Flags) error {
	p, ok := w.players[id]
	if !ok {
		return &types.NotFound{ID: id}
	}
	p.Flags = p.Flags.Clear(flag)
	return nil
}
