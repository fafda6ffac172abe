// Package scheduler owns per-entity timers and FSM stacks (spec.md §4.6).
// It is driven once per tick by the control loop and never calls back into
// scripts itself; it hands the caller fired timer names and due FSM frames
// to invoke.
package scheduler

import (
	"time"

	"textworld/internal/script/api"
	"textworld/internal/types"
)

type timerEntry struct {
	due      time.Time
	interval time.Duration
	repeat   bool
}

type frame struct {
	def   *api.Def
	state string
	data  map[string]interface{}
}

// Scheduler tracks timers and FSM stacks for every entity. It is not
// goroutine-safe; the control loop owns it exclusively, same as World.
type Scheduler struct {
	timers map[types.EntityID]map[string]*timerEntry
	stacks map[types.EntityID][]*frame
}

func New() *Scheduler {
	return &Scheduler{
		timers: map[types.EntityID]map[string]*timerEntry{},
		stacks: map[types.EntityID][]*frame{},
	}
}

// SetTimer creates or replaces the named timer on entity. Re-arming a
// timer with the same (entity, name) pair resets its deadline and
// overwrites whether it repeats (spec.md §8: non-repeat removal).
func (s *Scheduler) SetTimer(now time.Time, entity types.EntityID, name string, d time.Duration, repeat bool) {
	bucket, ok := s.timers[entity]
	if !ok {
		bucket = map[string]*timerEntry{}
		s.timers[entity] = bucket
	}
	bucket[name] = &timerEntry{due: now.Add(d), interval: d, repeat: repeat}
}

// CancelTimer removes a timer, if present.
func (s *Scheduler) CancelTimer(entity types.EntityID, name string) {
	if bucket, ok := s.timers[entity]; ok {
		delete(bucket, name)
		if len(bucket) == 0 {
			delete(s.timers, entity)
		}
	}
}

// Fire is one timer that came due this tick.
type Fire struct {
	Entity types.EntityID
	Name   string
}

// Tick advances every timer and returns those that fired. One-shot timers
// are removed; repeating timers are rescheduled from now.
func (s *Scheduler) Tick(now time.Time) []Fire {
	var fired []Fire
	for entity, bucket := range s.timers {
		for name, t := range bucket {
			if now.Before(t.due) {
				continue
			}
			fired = append(fired, Fire{Entity: entity, Name: name})
			if t.repeat {
				t.due = now.Add(t.interval)
			} else {
				delete(bucket, name)
			}
		}
		if len(bucket) == 0 {
			delete(s.timers, entity)
		}
	}
	return fired
}

// RemoveEntity drops all timer and FSM state for a deleted entity.
func (s *Scheduler) RemoveEntity(entity types.EntityID) {
	delete(s.timers, entity)
	delete(s.stacks, entity)
}

// PushFSM pushes def onto entity's stack, starting at def's initial state.
// Per spec.md §4.6 this is applied by the caller only after the script
// invocation that requested it has returned, never mid-callback.
func (s *Scheduler) PushFSM(entity types.EntityID, def *api.Def) {
	s.stacks[entity] = append(s.stacks[entity], &frame{
		def:   def,
		state: def.StartState(),
		data:  map[string]interface{}{},
	})
}

// PopFSM pops the top frame, if any.
func (s *Scheduler) PopFSM(entity types.EntityID) {
	stack := s.stacks[entity]
	if len(stack) == 0 {
		return
	}
	s.stacks[entity] = stack[:len(stack)-1]
	if len(s.stacks[entity]) == 0 {
		delete(s.stacks, entity)
	}
}

// TopHandlers returns the handlers for the entity's current FSM state.
// Only the top frame ever receives ticks or events.
func (s *Scheduler) TopHandlers(entity types.EntityID) (api.StateHandlers, map[string]interface{}, bool) {
	stack := s.stacks[entity]
	if len(stack) == 0 {
		return api.StateHandlers{}, nil, false
	}
	top := stack[len(stack)-1]
	h, ok := top.def.Handlers(top.state)
	if !ok {
		return api.StateHandlers{}, nil, false
	}
	return h, top.data, true
}

// Transition moves the entity's top frame to next, if non-empty.
func (s *Scheduler) Transition(entity types.EntityID, next string) {
	if next == "" {
		return
	}
	stack := s.stacks[entity]
	if len(stack) == 0 {
		return
	}
	stack[len(stack)-1].state = next
}

// EntitiesWithFSM lists entities that currently have a non-empty FSM stack,
// for the control loop to drive OnTick.
func (s *Scheduler) EntitiesWithFSM() []types.EntityID {
	out := make([]types.EntityID, 0, len(s.stacks))
	for id := range s.stacks {
		out = append(out, id)
	}
	return out
}
