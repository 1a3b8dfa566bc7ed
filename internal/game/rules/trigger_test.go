package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardclash/battle-sim/internal/game/cards"
	"github.com/cardclash/battle-sim/internal/game/effects"
)

func TestTriggerQueueIsFIFO(t *testing.T) {
	q := NewTriggerQueue()
	a := cards.Card{InstanceID: "a", Effects: []effects.Spec{
		{Type: effects.Damage, Trigger: effects.OnDeath, Scope: effects.EnemyPlayer, Value: 1},
		{Type: effects.Heal, Trigger: effects.OnPlay, Scope: effects.AllyPlayer, Value: 2},
		{Type: effects.Draw, Trigger: effects.OnDeath, Scope: effects.AllyPlayer, Value: 1},
	}}
	b := cards.Card{InstanceID: "b", Effects: []effects.Spec{
		{Type: effects.Damage, Trigger: effects.OnDeath, Scope: effects.AllCreatures, Value: 1},
	}}

	assert.Equal(t, 2, q.PushAll(a, "p1", effects.OnDeath, "combat"))
	assert.Equal(t, 1, q.PushAll(b, "p2", effects.OnDeath, "combat"))
	require.Equal(t, 3, q.Len())

	var order []string
	for !q.IsEmpty() {
		item, ok := q.Pop()
		require.True(t, ok)
		order = append(order, item.Source.InstanceID+":"+string(item.Spec.Type))
	}
	assert.Equal(t, []string{"a:damage", "a:draw", "b:damage"}, order)

	_, ok := q.Pop()
	assert.False(t, ok)
}
