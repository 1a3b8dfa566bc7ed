package game

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardclash/battle-sim/internal/game/cards"
	"github.com/cardclash/battle-sim/internal/game/effects"
	"github.com/cardclash/battle-sim/internal/game/rules"
	"github.com/cardclash/battle-sim/internal/game/status"
	"github.com/cardclash/battle-sim/internal/game/targeting"
)

func chainBolt() effects.Spec {
	return effects.Deal(3).To(effects.EnemyCreatures).Take(1, effects.PickFirst).OnKill(2).Build()
}

func damageEntries(log []GameAction) []rules.EffectTriggerData {
	var out []rules.EffectTriggerData
	for _, a := range ActionsOfType(log, rules.ActionEffectTrigger) {
		d := a.Data.(rules.EffectTriggerData)
		if d.EffectType == string(effects.Damage) {
			out = append(out, d)
		}
	}
	return out
}

func TestChainDamageTwoDefenders(t *testing.T) {
	e := newTestEngine(t)
	s := emptyBoard(t, e)
	first := place(s, Player2, creature("wall", 2, 1, 3))
	second := place(s, Player2, creature("wall", 2, 1, 3))

	require.NoError(t, e.ExecuteCardEffect(s, chainBolt(), spell("bolt", 2), Player1))

	hits := damageEntries(s.ActionLog)
	require.Len(t, hits, 2)
	assert.Equal(t, first, hits[0].TargetID)
	assert.Equal(t, 0, hits[0].ChainDepth)
	assert.Equal(t, 3, hits[0].Value)
	assert.Equal(t, second, hits[1].TargetID)
	assert.Equal(t, 1, hits[1].ChainDepth)
	assert.Equal(t, 2, hits[1].Value)

	require.NoError(t, e.EvaluatePendingDeaths(s, "test", ""))
	field := s.Players[Player2].Field
	require.Len(t, field, 1)
	assert.Equal(t, second, field[0].InstanceID)
	assert.Equal(t, 1, field[0].CurrentHealth)
	assert.Len(t, ActionsOfType(s.ActionLog, rules.ActionCreatureDestroyed), 1)
}

func TestChainDamageSingleDefender(t *testing.T) {
	e := newTestEngine(t)
	s := emptyBoard(t, e)
	place(s, Player2, creature("wall", 2, 1, 3))

	require.NoError(t, e.ExecuteCardEffect(s, chainBolt(), spell("bolt", 2), Player1))
	assert.Len(t, damageEntries(s.ActionLog), 1)
}

func TestChainDamageNoDefenders(t *testing.T) {
	e := newTestEngine(t)
	s := emptyBoard(t, e)

	require.NoError(t, e.ExecuteCardEffect(s, chainBolt(), spell("bolt", 2), Player1))
	assert.Empty(t, s.ActionLog)
}

func TestChainStopsAtMaxDepth(t *testing.T) {
	r := DefaultRules()
	r.MaxChainDepth = 1
	e := newTestEngine(t, WithRules(r))
	s := emptyBoard(t, e)
	for i := 0; i < 4; i++ {
		place(s, Player2, creature("wall", 1, 1, 1))
	}
	spec := effects.Deal(1).To(effects.EnemyCreatures).Take(1, effects.PickFirst).
		Then(effects.Chain{Condition: effects.ChainOnKill, Value: 1, Repeat: true}).Build()

	require.NoError(t, e.ExecuteCardEffect(s, spec, spell("zap", 1), Player1))
	hits := damageEntries(s.ActionLog)
	require.Len(t, hits, 2)
	assert.Equal(t, 1, hits[1].ChainDepth)
}

func TestExecuteCardEffectRejectsInvalidSpec(t *testing.T) {
	e := newTestEngine(t)
	s := emptyBoard(t, e)

	err := e.ExecuteCardEffect(s, effects.Spec{Type: effects.Draw, Scope: effects.EnemyCreatures}, spell("odd", 1), Player1)
	assert.True(t, errors.Is(err, ErrInvalidEffect))

	err = e.ExecuteCardEffect(s, effects.Deal(1).To(effects.EnemyPlayer).Build(), spell("odd", 1), "nobody")
	assert.True(t, errors.Is(err, ErrUnknownPlayer))
	assert.Empty(t, s.ActionLog)
}

func TestPlayerEffects(t *testing.T) {
	e := newTestEngine(t)
	s := emptyBoard(t, e)
	s.Players[Player1].Life = 25
	s.Players[Player1].MaxEnergy = 5

	require.NoError(t, e.ExecuteCardEffect(s, effects.Deal(4).To(effects.EnemyPlayer).Build(), spell("fireball", 4), Player1))
	require.NoError(t, e.ExecuteCardEffect(s, effects.Restore(10).To(effects.AllyPlayer).Build(), spell("mend", 2), Player1))
	require.NoError(t, e.ExecuteCardEffect(s, effects.NewBuilder(effects.GainEnergy, 9).To(effects.AllyPlayer).Build(), spell("surge", 1), Player1))

	assert.Equal(t, 26, s.Players[Player2].Life)
	assert.Equal(t, e.Rules().StartingLife, s.Players[Player1].Life, "heal is capped at starting life")
	assert.Equal(t, 5, s.Players[Player1].Energy, "energy is capped at max energy")

	entries := ActionsOfType(s.ActionLog, rules.ActionEffectTrigger)
	require.Len(t, entries, 3)
	assert.Equal(t, rules.TargetPlayer, entries[0].Data.(rules.EffectTriggerData).TargetKind)
	assert.Equal(t, 26, entries[0].Data.(rules.EffectTriggerData).Result)
}

func TestDrawEffectLogsBeforeDraws(t *testing.T) {
	e := newTestEngine(t)
	s, err := e.CreateInitialGameState("draw", sampleDeck(), sampleDeck(), cards.Mage, cards.Mage, cards.Tempo, cards.Tempo, "draw")
	require.NoError(t, err)
	hand := len(s.Players[Player1].Hand)

	require.NoError(t, e.ExecuteCardEffect(s, effects.NewBuilder(effects.Draw, 2).To(effects.AllyPlayer).Build(), spell("study", 2), Player1))

	require.Len(t, s.ActionLog, 3)
	assert.Equal(t, rules.ActionEffectTrigger, s.ActionLog[0].Type)
	assert.Equal(t, rules.ActionCardDraw, s.ActionLog[1].Type)
	assert.Equal(t, rules.ActionCardDraw, s.ActionLog[2].Type)
	assert.Len(t, s.Players[Player1].Hand, hand+2)
}

func TestDeckSearchUsesChooser(t *testing.T) {
	var offered []int
	last := func(_ *RNG, n int) int {
		offered = append(offered, n)
		return n - 1
	}
	e := newTestEngine(t, WithChooser(last))
	deck := sampleDeck("fireball", "footman", "bolt", "raider", "squire")
	s, err := e.CreateInitialGameState("search", deck, nil, cards.Mage, cards.Mage, cards.Tempo, cards.Tempo, "search")
	require.NoError(t, err)
	p := s.Players[Player1]
	p.Deck = append(p.Hand, p.Deck...)
	p.Hand = []cards.Card{}

	spec := effects.NewBuilder(effects.DeckSearch, 0).To(effects.OwnDeck).
		Where(targeting.Equals(targeting.RuleCardType, "creature")).Take(2, effects.PickRandom).Build()
	require.NoError(t, e.ExecuteCardEffect(s, spec, spell("scout", 1), Player1))

	require.Len(t, p.Hand, 2)
	for _, c := range p.Hand {
		assert.True(t, c.IsCreature())
	}
	assert.Equal(t, []int{3, 2}, offered, "search draws without replacement")
	assert.Len(t, p.Deck, 3)
	assert.Len(t, ActionsOfType(s.ActionLog, rules.ActionEffectTrigger), 2)
}

func TestDeckSearchNoOpWhenHandFullOrNoMatch(t *testing.T) {
	e := newTestEngine(t)
	s, err := e.CreateInitialGameState("search-noop", sampleDeck("fireball", "bolt", "footman"), nil,
		cards.Mage, cards.Mage, cards.Tempo, cards.Tempo, "noop")
	require.NoError(t, err)
	p := s.Players[Player1]
	spec := effects.NewBuilder(effects.DeckSearch, 0).To(effects.OwnDeck).
		Where(targeting.Equals(targeting.RuleCardType, "creature")).Build()

	p.Deck = append(p.Deck, p.Hand...)
	p.Hand = []cards.Card{}
	for i := range p.Deck {
		if p.Deck[i].IsCreature() {
			p.Deck = append(p.Deck[:i], p.Deck[i+1:]...)
			break
		}
	}
	require.NoError(t, e.ExecuteCardEffect(s, spec, spell("scout", 1), Player1))
	assert.Empty(t, p.Hand)

	for i := 0; i < e.Rules().MaxHand; i++ {
		p.Hand = append(p.Hand, creature("filler", 1, 1, 1))
	}
	p.Deck = append(p.Deck, creature("footman", 1, 1, 2))
	require.NoError(t, e.ExecuteCardEffect(s, spec, spell("scout", 1), Player1))
	assert.Len(t, p.Hand, e.Rules().MaxHand)
	assert.Empty(t, s.ActionLog)
}

func TestBuffDurations(t *testing.T) {
	e := newTestEngine(t)
	s := emptyBoard(t, e)
	id := place(s, Player1, creature("footman", 1, 1, 2))

	permanent := effects.NewBuilder(effects.BuffAttack, 2).To(effects.AllyCreatures).Build()
	temporary := effects.NewBuilder(effects.BuffHealth, 3).To(effects.AllyCreatures).For(effects.DurationTurn).Build()
	require.NoError(t, e.ExecuteCardEffect(s, permanent, spell("drill", 1), Player1))
	require.NoError(t, e.ExecuteCardEffect(s, temporary, spell("rally", 1), Player1))

	fc := fieldCard(t, s, id)
	assert.Equal(t, 3, fc.EffectiveAttack())
	assert.Equal(t, 5, fc.CurrentHealth)
	assert.Equal(t, 5, fc.MaxHealth())

	require.NoError(t, e.cleanup(s))
	fc = fieldCard(t, s, id)
	assert.Equal(t, 3, fc.EffectiveAttack(), "permanent buff survives cleanup")
	assert.Equal(t, 2, fc.CurrentHealth, "turn buff expires at cleanup")
}

func TestPermanentBuffsLeaveTheCardUntouched(t *testing.T) {
	e := newTestEngine(t)
	s := emptyBoard(t, e)
	id := place(s, Player2, creature("wall", 1, 1, 3))

	for _, spec := range []effects.Spec{
		effects.NewBuilder(effects.BuffAttack, 5).To(effects.EnemyCreatures).Build(),
		effects.NewBuilder(effects.BuffHealth, 4).To(effects.EnemyCreatures).Build(),
	} {
		require.NoError(t, e.ExecuteCardEffect(s, spec, spell("blessing", 1), Player1))
	}
	fc := fieldCard(t, s, id)
	assert.Equal(t, 6, fc.EffectiveAttack())
	assert.Equal(t, 7, fc.MaxHealth())
	assert.Equal(t, 7, fc.CurrentHealth)
	assert.Equal(t, 1, fc.Attack, "printed attack")
	assert.Equal(t, 3, fc.Card.Health, "printed health")

	require.NoError(t, e.cleanup(s))
	assert.Equal(t, 6, fieldCard(t, s, id).EffectiveAttack())

	destroy := effects.NewBuilder(effects.Destroy, 0).To(effects.EnemyCreatures).Build()
	require.NoError(t, e.ExecuteCardEffect(s, destroy, spell("doom", 1), Player1))
	require.NoError(t, e.EvaluatePendingDeaths(s, "test", ""))

	grave := s.Players[Player2].Graveyard
	require.Len(t, grave, 1)
	assert.Equal(t, id, grave[0].InstanceID)
	assert.Equal(t, 1, grave[0].Attack)
	assert.Equal(t, 3, grave[0].Health)
}

func TestHealIsCappedAtMaxHealth(t *testing.T) {
	e := newTestEngine(t)
	s := emptyBoard(t, e)
	id := place(s, Player1, creature("footman", 1, 1, 4))
	s.Players[Player1].Field[0].CurrentHealth = 1

	require.NoError(t, e.ExecuteCardEffect(s, effects.Restore(10).To(effects.AllyCreatures).Build(), spell("mend", 1), Player1))
	assert.Equal(t, 4, fieldCard(t, s, id).CurrentHealth)
}

func TestStatusEffects(t *testing.T) {
	e := newTestEngine(t)
	s := emptyBoard(t, e)
	s.CurrentPlayer = Player2
	sneak := place(s, Player2, creature("shade", 3, 3, 3, cards.Stealth))

	require.NoError(t, e.ExecuteCardEffect(s, effects.NewBuilder(effects.Brand, 0).To(effects.EnemyCreatures).Build(), spell("mark", 1), Player1))
	require.NoError(t, e.ExecuteCardEffect(s, effects.NewBuilder(effects.Poison, 1).To(effects.EnemyCreatures).Build(), spell("plague", 3), Player1))
	require.NoError(t, e.ExecuteCardEffect(s, effects.NewBuilder(effects.Silence, 1).To(effects.EnemyCreatures).Build(), spell("hex", 2), Player1))

	fc := fieldCard(t, s, sneak)
	assert.True(t, fc.HasStatus(string(status.Branded)))
	assert.True(t, fc.StatusEffects.Has(status.Poison))
	assert.True(t, fc.IsSilenced)
	assert.False(t, fc.IsStealthed, "silence removes stealth")
	assert.False(t, fc.Has(cards.Stealth))

	require.NoError(t, e.statusTick(s))
	fc = fieldCard(t, s, sneak)
	assert.Equal(t, 2, fc.CurrentHealth, "poison ticks on its owner's turn")
	assert.False(t, fc.IsSilenced, "one-tick silence expires")
	assert.True(t, fc.StatusEffects.Has(status.Poison), "poison is permanent by default")
	assert.True(t, fc.HasStatus(string(status.Branded)))

	ticks := 0
	for _, a := range ActionsOfType(s.ActionLog, rules.ActionEffectTrigger) {
		if a.Data.(rules.EffectTriggerData).Trigger == string(rules.StageStatusTick) {
			ticks++
		}
	}
	assert.Equal(t, 1, ticks)
}

func TestDestroyBrandedOnly(t *testing.T) {
	e := newTestEngine(t)
	s := emptyBoard(t, e)
	plain := place(s, Player2, creature("footman", 1, 1, 2))
	marked := place(s, Player2, creature("squire", 2, 2, 2))
	s.Players[Player2].Field[1].StatusEffects = s.Players[Player2].Field[1].StatusEffects.Add(status.New(status.Branded, 1, 0))

	ritual := sampleCards()["ritual"]
	require.NoError(t, e.ExecuteCardEffect(s, ritual.Effects[0], ritual, Player1))
	require.NoError(t, e.EvaluatePendingDeaths(s, "test", ""))

	field := s.Players[Player2].Field
	require.Len(t, field, 1)
	assert.Equal(t, plain, field[0].InstanceID)
	d := ActionsOfType(s.ActionLog, rules.ActionCreatureDestroyed)
	require.Len(t, d, 1)
	assert.Equal(t, marked, d[0].Data.(rules.CreatureDestroyedData).InstanceID)
}

func TestAurasFollowTheSource(t *testing.T) {
	e := newTestEngine(t)
	s := emptyBoard(t, e)
	banner := sampleCards()["banner"]
	ally := place(s, Player1, creature("footman", 1, 1, 1))
	src := place(s, Player1, banner)
	enemy := place(s, Player2, creature("footman", 1, 1, 2))
	require.NoError(t, e.recomputeAuras(s))

	assert.Equal(t, 2, fieldCard(t, s, ally).EffectiveAttack())
	assert.Equal(t, 2, fieldCard(t, s, src).EffectiveAttack(), "aura excludes its source")
	assert.Equal(t, 1, fieldCard(t, s, enemy).EffectiveAttack())

	require.NoError(t, e.ExecuteCardEffect(s, effects.NewBuilder(effects.Silence, 0).To(effects.AllyCreatures).
		Where(targeting.FilterRule{Type: targeting.RuleProperty, Property: "name", Value: "banner"}).Build(), spell("hush", 1), Player1))
	assert.Equal(t, 1, fieldCard(t, s, ally).EffectiveAttack(), "silenced source stops its aura")
}

func TestHealthAuraLossCanKill(t *testing.T) {
	e := newTestEngine(t)
	s := emptyBoard(t, e)
	totem := withEffects(creature("totem", 3, 0, 1),
		effects.NewBuilder(effects.BuffHealth, 2).To(effects.AllyCreatures).On(effects.Static).Build())
	src := place(s, Player1, totem)
	ally := place(s, Player1, creature("footman", 1, 1, 1))
	require.NoError(t, e.recomputeAuras(s))
	s.Players[Player1].Field[1].CurrentHealth = 2

	require.NoError(t, e.ExecuteCardEffect(s, effects.NewBuilder(effects.Destroy, 0).To(effects.AllyCreatures).Take(1, effects.PickFirst).Build(), spell("cull", 1), Player1))
	require.NoError(t, e.EvaluatePendingDeaths(s, "test", ""))

	assert.Empty(t, s.Players[Player1].Field)
	var removed []string
	for _, a := range ActionsOfType(s.ActionLog, rules.ActionCreatureDestroyed) {
		removed = append(removed, a.Data.(rules.CreatureDestroyedData).InstanceID)
	}
	assert.Equal(t, []string{src, ally}, removed)
	require.NoError(t, AssertNoLingeringDeadCreatures(s))
}
