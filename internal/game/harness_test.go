package game

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/cardclash/battle-sim/internal/game/cards"
	"github.com/cardclash/battle-sim/internal/game/effects"
	"github.com/cardclash/battle-sim/internal/game/targeting"
)

func newTestEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	return NewEngine(zaptest.NewLogger(t, zaptest.Level(zap.InfoLevel)), opts...)
}

func creature(id string, cost, atk, hp int, kws ...cards.Keyword) cards.Card {
	return cards.Card{
		TemplateID: id,
		Name:       id,
		Kind:       cards.Creature,
		Faction:    cards.Neutral,
		Cost:       cost,
		Attack:     atk,
		Health:     hp,
		Keywords:   kws,
	}
}

func withEffects(c cards.Card, specs ...effects.Spec) cards.Card {
	c.Effects = append(c.Effects, specs...)
	return c
}

func spell(id string, cost int, specs ...effects.Spec) cards.Card {
	return cards.Card{TemplateID: id, Name: id, Kind: cards.Spell, Faction: cards.Neutral, Cost: cost, Effects: specs}
}

// sampleCards covers every keyword, effect type and trigger.
func sampleCards() map[string]cards.Card {
	list := []cards.Card{
		creature("footman", 1, 1, 2),
		creature("squire", 2, 2, 2, cards.Formation, cards.Guard),
		creature("raider", 3, 4, 2, cards.Charge),
		withEffects(creature("ghoul", 2, 2, 1, cards.Echo),
			effects.Deal(1).To(effects.EnemyPlayer).On(effects.OnDeath).Build()),
		creature("shade", 3, 3, 2, cards.Stealth),
		creature("leech", 4, 3, 4, cards.Lifesteal),
		withEffects(creature("banner", 4, 2, 4),
			effects.NewBuilder(effects.BuffAttack, 1).To(effects.AllyCreatures).On(effects.Static).Build()),
		withEffects(creature("medic", 3, 2, 3),
			effects.Restore(2).To(effects.AllyPlayer).On(effects.TurnEnd).Build()),
		withEffects(creature("mourner", 2, 1, 3),
			effects.NewBuilder(effects.BuffAttack, 1).To(effects.Self).On(effects.OnAllyDeath).Build()),
		spell("bolt", 2, effects.Deal(3).To(effects.EnemyCreatures).Take(1, effects.PickLowestHealth).OnKill(2).Build()),
		spell("fireball", 4, effects.Deal(4).To(effects.EnemyPlayer).Build()),
		spell("scout", 1, effects.NewBuilder(effects.DeckSearch, 0).To(effects.OwnDeck).
			Where(targeting.Equals(targeting.RuleCardType, "creature")).Build()),
		spell("plague", 3, effects.NewBuilder(effects.Poison, 1).To(effects.EnemyCreatures).Build()),
		spell("hex", 2, effects.NewBuilder(effects.Silence, 2).To(effects.EnemyCreatures).Take(1, effects.PickHighestAttack).Build()),
		spell("mark", 1,
			effects.NewBuilder(effects.Brand, 0).To(effects.EnemyCreatures).Take(1, effects.PickRandom).Build(),
			effects.NewBuilder(effects.Draw, 1).To(effects.AllyPlayer).Build()),
		spell("ritual", 2, effects.NewBuilder(effects.Destroy, 0).To(effects.EnemyCreatures).Take(1, effects.PickFirst).
			Where(targeting.Equals(targeting.RuleBranded, true)).Build()),
		spell("rally", 2, effects.NewBuilder(effects.BuffHealth, 2).To(effects.AllyCreatures).For(effects.DurationTurn).Build()),
		spell("surge", 1, effects.NewBuilder(effects.GainEnergy, 2).To(effects.AllyPlayer).Build()),
	}
	out := make(map[string]cards.Card, len(list))
	for _, c := range list {
		out[c.TemplateID] = c
	}
	return out
}

type mapSource map[string]cards.Card

func (m mapSource) Card(id string) (cards.Card, error) {
	c, ok := m[id]
	if !ok {
		return cards.Card{}, fmt.Errorf("unknown template %q", id)
	}
	return c.Clone(), nil
}

func sampleDeck(ids ...string) []cards.Card {
	all := sampleCards()
	if len(ids) == 0 {
		ids = []string{
			"footman", "footman", "squire", "squire", "raider", "ghoul", "ghoul", "shade",
			"leech", "banner", "medic", "mourner", "bolt", "bolt", "fireball", "scout",
			"plague", "hex", "mark", "ritual", "rally", "surge",
		}
	}
	deck := make([]cards.Card, 0, len(ids))
	for _, id := range ids {
		deck = append(deck, all[id])
	}
	return deck
}

func newSampleGame(t *testing.T, e *Engine, seed string) *GameState {
	t.Helper()
	s, err := e.CreateInitialGameState("game-"+seed, sampleDeck(), sampleDeck(),
		cards.Necromancer, cards.Knight, cards.Aggressive, cards.Balanced, seed)
	require.NoError(t, err)
	return s
}

// stepAll runs a game to completion and returns every intermediate state,
// starting with s.
func stepAll(t *testing.T, e *Engine, s *GameState) []*GameState {
	t.Helper()
	states := []*GameState{s}
	for i := 0; i < 5000 && !s.IsFinished(); i++ {
		next, err := e.ProcessGameStep(s)
		require.NoError(t, err)
		states = append(states, next)
		s = next
	}
	require.True(t, s.IsFinished(), "game did not finish")
	return states
}

// emptyBoard returns a game with empty decks and hands, for hand-placed
// scenarios.
func emptyBoard(t *testing.T, e *Engine) *GameState {
	t.Helper()
	s, err := e.CreateInitialGameState("board", nil, nil, cards.Neutral, cards.Neutral, cards.Balanced, cards.Balanced, "board")
	require.NoError(t, err)
	return s
}

// place puts a creature straight onto a field without journaling. Only for
// scenario setup.
func place(s *GameState, playerID string, c cards.Card) string {
	p := s.Players[playerID]
	if c.InstanceID == "" {
		c.InstanceID = fmt.Sprintf("%s-%s-%d", playerID, c.TemplateID, len(p.Field)+len(p.Graveyard))
	}
	p.Field = append(p.Field, cards.NewFieldCard(c, len(p.Field), 0))
	return c.InstanceID
}

func fieldCard(t *testing.T, s *GameState, instanceID string) cards.FieldCard {
	t.Helper()
	owner, idx, ok := s.findField(instanceID)
	require.True(t, ok, "creature %s not on field", instanceID)
	return s.Players[owner].Field[idx]
}
