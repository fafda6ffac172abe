package world

import "textworld/internal/types"

// Attach records a, skipping the call if its (entity, phase, timerName,
// script, trigger) tuple already exists. Attachments accumulate in
// insertion order, which the pipeline relies on for deterministic dispatch
// within a single entity.
func (w *World) Attach(a Attachment) bool {
	key := a.key()
	if _, dup := w.attachSeen[key]; dup {
		return false
	}
	w.attachSeen[key] = struct{}{}
	w.attachments[a.Entity] = append(w.attachments[a.Entity], a)
	return true
}

// Detach removes a single matching attachment, if present.
func (w *World) Detach(a Attachment) bool {
	key := a.key()
	if _, ok := w.attachSeen[key]; !ok {
		return false
	}
	delete(w.attachSeen, key)
	list := w.attachments[a.Entity]
	for i, existing := range list {
		if existing.key() == key {
			w.attachments[a.Entity] = append(list[:i], list[i+1:]...)
			break
		}
	}
	return true
}

// AttachmentsFor returns the attachments on entity matching phase and
// trigger (and, for PhaseTimer, timerName), in attachment-insertion order.
func (w *World) AttachmentsFor(entity types.EntityID, phase types.Phase, timerName string, trigger types.Trigger) []Attachment {
	var out []Attachment
	for _, a := range w.attachments[entity] {
		if a.Phase != phase || a.Trigger != trigger {
			continue
		}
		if phase == types.PhaseTimer && a.TimerName != timerName {
			continue
		}
		out = append(out, a)
	}
	return out
}

// DetachAllForScript removes every attachment referencing script, across
// every entity. Used when a script is deleted.
func (w *World) DetachAllForScript(script string) {
	for entity, list := range w.attachments {
		kept := list[:0]
		for _, a := range list {
			if a.Script == script {
				delete(w.attachSeen, a.key())
				continue
			}
			kept = append(kept, a)
		}
		w.attachments[entity] = kept
	}
}

// detachAllForEntity drops every attachment owned by entity, used by
// deletion cascades.
func (w *World) detachAllForEntity(entity types.EntityID) {
	for _, a := range w.attachments[entity] {
		delete(w.attachSeen, a.key())
	}
	delete(w.attachments, entity)
}

// EffectiveAttachments is AttachmentsFor widened by inheritance: an object
// with InheritScripts set also picks up its prototype's matching
// attachments, appended after its own (object-level attachments run
// first, so an object can still observe-then-veto ahead of its
// prototype's handler).
func (w *World) EffectiveAttachments(entity types.EntityID, phase types.Phase, timerName string, trigger types.Trigger) []Attachment {
	out := w.AttachmentsFor(entity, phase, timerName, trigger)
	obj, ok := w.objects[entity]
	if !ok || !obj.InheritScripts {
		return out
	}
	return append(out, w.AttachmentsFor(obj.PrototypeID, phase, timerName, trigger)...)
}
