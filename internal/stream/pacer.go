// Package stream drives matches step by step on a timer and pushes the new
// log entries to WebSocket clients.
package stream

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/cardclash/battle-sim/internal/game"
	"github.com/cardclash/battle-sim/internal/game/rules"
)

// Frame types.
const (
	FrameStep     = "step"
	FrameGameOver = "game_over"
	FrameError    = "error"
	FrameStarted  = "started"
)

// PlayerView is the public summary of one player in a frame.
type PlayerView struct {
	ID        string `json:"id"`
	Life      int    `json:"life"`
	Energy    int    `json:"energy"`
	MaxEnergy int    `json:"maxEnergy"`
	Hand      int    `json:"hand"`
	Deck      int    `json:"deck"`
	Field     int    `json:"field"`
	Graveyard int    `json:"graveyard"`
}

// Frame is one message sent to a client: the actions logged by one step
// plus a summary of the resulting state.
type Frame struct {
	Type          string            `json:"type"`
	GameID        string            `json:"gameId,omitempty"`
	Turn          int               `json:"turn,omitempty"`
	Phase         rules.Phase       `json:"phase,omitempty"`
	CurrentPlayer string            `json:"currentPlayer,omitempty"`
	Players       []PlayerView      `json:"players,omitempty"`
	Actions       []game.GameAction `json:"actions,omitempty"`
	Result        *game.Result      `json:"result,omitempty"`
	Error         string            `json:"error,omitempty"`
}

// NewFrame summarises state and attaches actions.
func NewFrame(frameType string, state *game.GameState, actions []game.GameAction) Frame {
	f := Frame{
		Type:          frameType,
		GameID:        state.GameID,
		Turn:          state.TurnNumber,
		Phase:         state.Phase,
		CurrentPlayer: state.CurrentPlayer,
		Actions:       withoutPatches(actions),
		Result:        state.Result,
	}
	for _, pid := range state.PlayerOrder {
		p := state.Players[pid]
		f.Players = append(f.Players, PlayerView{
			ID:        p.ID,
			Life:      p.Life,
			Energy:    p.Energy,
			MaxEnergy: p.MaxEnergy,
			Hand:      len(p.Hand),
			Deck:      len(p.Deck),
			Field:     len(p.Field),
			Graveyard: len(p.Graveyard),
		})
	}
	return f
}

// withoutPatches drops the state journal, which clients have no use for.
func withoutPatches(actions []game.GameAction) []game.GameAction {
	if actions == nil {
		return nil
	}
	out := make([]game.GameAction, len(actions))
	for i, a := range actions {
		a.Patches = nil
		out[i] = a
	}
	return out
}

// Emit receives frames. An error stops the pacer.
type Emit func(Frame) error

// Pacer calls ProcessGameStep on an interval. Cancelling the context stops
// it between steps.
type Pacer struct {
	engine   *game.Engine
	interval time.Duration
	maxSteps int
	logger   *zap.Logger
}

// NewPacer creates a pacer. A zero interval steps as fast as the consumer
// accepts frames.
func NewPacer(engine *game.Engine, interval time.Duration, maxSteps int, logger *zap.Logger) *Pacer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pacer{engine: engine, interval: interval, maxSteps: maxSteps, logger: logger}
}

// Run steps state until it finishes, the context ends or emit fails. It
// returns the last state reached.
func (p *Pacer) Run(ctx context.Context, state *game.GameState, emit Emit) (*game.GameState, error) {
	var ticker *time.Ticker
	if p.interval > 0 {
		ticker = time.NewTicker(p.interval)
		defer ticker.Stop()
	}

	for step := 0; !state.IsFinished(); step++ {
		if step >= p.maxSteps {
			return state, fmt.Errorf("game %s unfinished after %d steps", state.GameID, p.maxSteps)
		}
		if err := ctx.Err(); err != nil {
			return state, err
		}
		if ticker != nil {
			select {
			case <-ctx.Done():
				return state, ctx.Err()
			case <-ticker.C:
			}
		}

		next, err := p.engine.ProcessGameStep(state)
		if err != nil {
			return state, err
		}
		frameType := FrameStep
		if next.IsFinished() {
			frameType = FrameGameOver
		}
		if err := emit(NewFrame(frameType, next, next.ActionLog[len(state.ActionLog):])); err != nil {
			return next, err
		}
		state = next
	}

	p.logger.Debug("pacer finished",
		zap.String("game_id", state.GameID),
		zap.Int("actions", len(state.ActionLog)),
	)
	return state, nil
}

// Replay emits a recorded log in step-sized chunks: each chunk ends at a
// phase change or at the end of the log.
func (p *Pacer) Replay(ctx context.Context, state *game.GameState, emit Emit) error {
	log := state.ActionLog
	var ticker *time.Ticker
	if p.interval > 0 {
		ticker = time.NewTicker(p.interval)
		defer ticker.Stop()
	}

	start := 0
	for i, a := range log {
		last := i == len(log)-1
		if a.Type != rules.ActionPhaseChange && !last {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if ticker != nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
			}
		}

		snapshot, err := game.ReconstructStateAtSequence(state, i)
		if err != nil {
			return err
		}
		frameType := FrameStep
		if last && snapshot.IsFinished() {
			frameType = FrameGameOver
		}
		if err := emit(NewFrame(frameType, snapshot, log[start:i+1])); err != nil {
			return err
		}
		start = i + 1
	}
	return nil
}
