package pipeline

import (
	"textworld/internal/types"
	"textworld/internal/world"
)

// dispatchEntry is one (entity, attachment) pair in the explicit dispatch
// queue. Design notes §9 call for an explicit queue over recursion so veto
// can short-circuit cleanly; collectScope builds that queue up front.
type dispatchEntry struct {
	entity     types.EntityID
	attachment world.Attachment
}

// collectScope gathers the scripts that observe an event at phase/trigger
// in room, in the deterministic order spec.md §4.4 requires: actor-attached
// → room-attached → objects in stable id order; within a single entity,
// attachment-insertion order (already guaranteed by EffectiveAttachments).
func collectScope(w *world.World, actor, room types.EntityID, phase types.Phase, trigger types.Trigger) []dispatchEntry {
	var queue []dispatchEntry

	for _, a := range w.EffectiveAttachments(actor, phase, "", trigger) {
		queue = append(queue, dispatchEntry{entity: actor, attachment: a})
	}
	for _, a := range w.EffectiveAttachments(room, phase, "", trigger) {
		queue = append(queue, dispatchEntry{entity: room, attachment: a})
	}
	for _, obj := range w.RoomObjects(room) {
		for _, a := range w.EffectiveAttachments(obj, phase, "", trigger) {
			queue = append(queue, dispatchEntry{entity: obj, attachment: a})
		}
	}
	return queue
}
