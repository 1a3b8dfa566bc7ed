package integration

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/cardclash/battle-sim/internal/archive"
	"github.com/cardclash/battle-sim/internal/catalog"
	"github.com/cardclash/battle-sim/internal/game"
	"github.com/cardclash/battle-sim/internal/game/rules"
)

type matchEnv struct {
	engine  *game.Engine
	catalog *catalog.Catalog
}

func newMatchEnv(t testing.TB) *matchEnv {
	cat, err := catalog.Starter()
	require.NoError(t, err)
	return &matchEnv{engine: game.NewEngine(zaptest.NewLogger(t)), catalog: cat}
}

func (m *matchEnv) play(t testing.TB, gameID, deck1, deck2, seed string) *game.GameState {
	t.Helper()
	d1, cards1, err := m.catalog.BuildDeck(deck1)
	require.NoError(t, err)
	d2, cards2, err := m.catalog.BuildDeck(deck2)
	require.NoError(t, err)
	state, err := m.engine.CreateInitialGameState(gameID, cards1, cards2, d1.Faction, d2.Faction, d1.Tactics, d2.Tactics, seed)
	require.NoError(t, err)

	for steps := 0; !state.IsFinished(); steps++ {
		require.Less(t, steps, 10000, "game did not finish")
		next, err := m.engine.ProcessGameStep(state)
		require.NoError(t, err)
		require.NoError(t, game.AssertNoLingeringDeadCreatures(next))
		require.LessOrEqual(t, len(game.ActionsOfType(next.ActionLog[len(state.ActionLog):], rules.ActionPhaseChange)), 1)
		state = next
	}
	require.NoError(t, game.VerifySequence(state.ActionLog))
	return state
}

func TestStarterPairingsFinish(t *testing.T) {
	m := newMatchEnv(t)
	decks := m.catalog.DeckNames()
	for _, a := range decks {
		for _, b := range decks {
			for _, seed := range []string{"alpha", "beta"} {
				name := fmt.Sprintf("%s-vs-%s-%s", a, b, seed)
				t.Run(name, func(t *testing.T) {
					state := m.play(t, name, a, b, seed)
					require.NotNil(t, state.Result)
					over, ok := game.Summary(state.ActionLog)
					require.True(t, ok)
					assert.Equal(t, state.Result.Winner, over.Winner)

					rebuilt, err := game.ReconstructStateAtSequence(state, state.LastSequence())
					require.NoError(t, err)
					want, err := game.Checksum(state)
					require.NoError(t, err)
					got, err := game.Checksum(rebuilt)
					require.NoError(t, err)
					assert.Equal(t, want, got)
				})
			}
		}
	}
}

func TestMatchesAreDeterministic(t *testing.T) {
	first := newMatchEnv(t).play(t, "det", "necromancer", "mage", "same-seed")
	second := newMatchEnv(t).play(t, "det", "necromancer", "mage", "same-seed")

	a, err := game.Checksum(first)
	require.NoError(t, err)
	b, err := game.Checksum(second)
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Equal(t, first.ActionLog, second.ActionLog)
}

func TestArchivedReplayRebuilds(t *testing.T) {
	m := newMatchEnv(t)
	state := m.play(t, "archived", "knight", "necromancer", "archive")
	replay, err := m.engine.NewReplay(state)
	require.NoError(t, err)

	ctx := context.Background()
	sink := archive.NewFileSink(t.TempDir(), true)
	store := archive.New(zaptest.NewLogger(t), sink)
	_, err = store.Store(ctx, replay)
	require.NoError(t, err)

	ids, err := sink.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"archived"}, ids)

	loaded, err := sink.Load(ctx, "archived")
	require.NoError(t, err)
	rebuilt, err := newMatchEnv(t).engine.RebuildFromReplay(loaded, m.catalog)
	require.NoError(t, err)
	assert.Equal(t, state.Result, rebuilt.Result)

	mid := rebuilt.LastSequence() / 2
	fromLive, err := game.ReconstructStateAtSequence(state, mid)
	require.NoError(t, err)
	fromReplay, err := game.ReconstructStateAtSequence(rebuilt, mid)
	require.NoError(t, err)
	a, err := game.Checksum(fromLive)
	require.NoError(t, err)
	b, err := game.Checksum(fromReplay)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}
