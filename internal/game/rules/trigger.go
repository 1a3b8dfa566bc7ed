package rules

import (
	"github.com/cardclash/battle-sim/internal/game/cards"
	"github.com/cardclash/battle-sim/internal/game/effects"
)

// PendingTrigger is a triggered effect waiting to resolve. Source is a
// snapshot of the card taken when the trigger fired, so it stays valid after
// the card leaves the field.
type PendingTrigger struct {
	Source  cards.Card
	OwnerID string
	Spec    effects.Spec
	Cause   string
}

// TriggerQueue is the FIFO work list triggered effects resolve from. Triggers
// resolve in the order they were queued.
type TriggerQueue struct {
	items []PendingTrigger
}

// NewTriggerQueue creates an empty queue.
func NewTriggerQueue() *TriggerQueue {
	return &TriggerQueue{items: make([]PendingTrigger, 0, 8)}
}

// Push appends a trigger.
func (q *TriggerQueue) Push(t PendingTrigger) {
	q.items = append(q.items, t)
}

// PushAll queues every effect of source with the given trigger.
func (q *TriggerQueue) PushAll(source cards.Card, ownerID string, trigger effects.Trigger, cause string) int {
	specs := source.EffectsFor(trigger)
	for _, spec := range specs {
		q.Push(PendingTrigger{Source: source, OwnerID: ownerID, Spec: spec, Cause: cause})
	}
	return len(specs)
}

// Pop removes the oldest trigger.
func (q *TriggerQueue) Pop() (PendingTrigger, bool) {
	if len(q.items) == 0 {
		return PendingTrigger{}, false
	}
	t := q.items[0]
	q.items = q.items[1:]
	return t, true
}

// Len returns the number of queued triggers.
func (q *TriggerQueue) Len() int { return len(q.items) }

// IsEmpty reports whether nothing is queued.
func (q *TriggerQueue) IsEmpty() bool { return len(q.items) == 0 }
