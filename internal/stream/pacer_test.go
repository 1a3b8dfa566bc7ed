package stream

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/cardclash/battle-sim/internal/catalog"
	"github.com/cardclash/battle-sim/internal/game"
)

func newMatch(t *testing.T, e *game.Engine, seed string) *game.GameState {
	t.Helper()
	cat, err := catalog.Starter()
	require.NoError(t, err)
	d1, deck1, err := cat.BuildDeck("knight")
	require.NoError(t, err)
	d2, deck2, err := cat.BuildDeck("mage")
	require.NoError(t, err)
	s, err := e.CreateInitialGameState("stream-"+seed, deck1, deck2, d1.Faction, d2.Faction, d1.Tactics, d2.Tactics, seed)
	require.NoError(t, err)
	return s
}

func TestPacerRunEmitsEveryAction(t *testing.T) {
	e := game.NewEngine(zaptest.NewLogger(t))
	start := newMatch(t, e, "pacer")
	p := NewPacer(e, 0, 10000, zaptest.NewLogger(t))

	var frames []Frame
	final, err := p.Run(context.Background(), start, func(f Frame) error {
		frames = append(frames, f)
		return nil
	})
	require.NoError(t, err)
	require.True(t, final.IsFinished())
	require.NotEmpty(t, frames)

	var seqs []int
	for i, f := range frames {
		if i == len(frames)-1 {
			assert.Equal(t, FrameGameOver, f.Type)
			require.NotNil(t, f.Result)
		} else {
			assert.Equal(t, FrameStep, f.Type)
		}
		assert.Len(t, f.Players, 2)
		for _, a := range f.Actions {
			assert.Nil(t, a.Patches)
			seqs = append(seqs, a.Sequence)
		}
	}
	require.Len(t, seqs, len(final.ActionLog)-len(start.ActionLog))
	for i, s := range seqs {
		assert.Equal(t, len(start.ActionLog)+i, s)
	}
	assert.NotEmpty(t, final.ActionLog[len(final.ActionLog)-1].Patches, "live log keeps its journal")
}

func TestPacerStopsOnCancel(t *testing.T) {
	e := game.NewEngine(zaptest.NewLogger(t))
	start := newMatch(t, e, "cancel")
	p := NewPacer(e, time.Millisecond, 10000, nil)

	ctx, cancel := context.WithCancel(context.Background())
	steps := 0
	last, err := p.Run(ctx, start, func(Frame) error {
		steps++
		if steps == 3 {
			cancel()
		}
		return nil
	})
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 3, steps)
	assert.False(t, last.IsFinished())
}

func TestPacerStopsOnEmitError(t *testing.T) {
	e := game.NewEngine(zaptest.NewLogger(t))
	boom := errors.New("client gone")
	p := NewPacer(e, 0, 10000, nil)
	_, err := p.Run(context.Background(), newMatch(t, e, "emit"), func(Frame) error { return boom })
	require.ErrorIs(t, err, boom)
}

func TestPacerStepLimit(t *testing.T) {
	e := game.NewEngine(zaptest.NewLogger(t))
	p := NewPacer(e, 0, 2, nil)
	last, err := p.Run(context.Background(), newMatch(t, e, "limit"), func(Frame) error { return nil })
	require.Error(t, err)
	assert.False(t, last.IsFinished())
}

func TestPacerReplayMatchesLiveLog(t *testing.T) {
	e := game.NewEngine(zaptest.NewLogger(t))
	final, err := e.RunToCompletion(newMatch(t, e, "replay"), 10000)
	require.NoError(t, err)

	p := NewPacer(e, 0, 10000, nil)
	var frames []Frame
	require.NoError(t, p.Replay(context.Background(), final, func(f Frame) error {
		frames = append(frames, f)
		return nil
	}))

	n := 0
	for _, f := range frames {
		for _, a := range f.Actions {
			assert.Equal(t, n, a.Sequence)
			n++
		}
	}
	assert.Equal(t, len(final.ActionLog), n)

	last := frames[len(frames)-1]
	assert.Equal(t, FrameGameOver, last.Type)
	assert.Equal(t, NewFrame(FrameGameOver, final, nil).Players, last.Players)
}
