package game

import (
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/cardclash/battle-sim/internal/game/rules"
)

// GameAction is one entry of the append-only action log. Sequence equals
// the entry's index in the log.
type GameAction struct {
	Sequence  int              `json:"sequence"`
	PlayerID  string           `json:"playerId"`
	Type      rules.ActionType `json:"type"`
	Data      rules.Payload    `json:"data"`
	Timestamp time.Time        `json:"timestamp"`
	Patches   []Patch          `json:"patches,omitempty"`
}

// UnmarshalJSON decodes Data into the payload type registered for Type.
func (a *GameAction) UnmarshalJSON(b []byte) error {
	var aux struct {
		Sequence  int              `json:"sequence"`
		PlayerID  string           `json:"playerId"`
		Type      rules.ActionType `json:"type"`
		Data      json.RawMessage  `json:"data"`
		Timestamp time.Time        `json:"timestamp"`
		Patches   []Patch          `json:"patches,omitempty"`
	}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	data, err := rules.DecodePayload(aux.Type, aux.Data)
	if err != nil {
		return fmt.Errorf("action %d: %w", aux.Sequence, err)
	}
	*a = GameAction{
		Sequence:  aux.Sequence,
		PlayerID:  aux.PlayerID,
		Type:      aux.Type,
		Data:      data,
		Timestamp: aux.Timestamp,
		Patches:   aux.Patches,
	}
	return nil
}

// Clock stamps the action with the given sequence.
type Clock func(sequence int) time.Time

// LogicalClock derives timestamps from the sequence alone so logs are
// byte-identical across runs.
func LogicalClock(sequence int) time.Time {
	return time.UnixMilli(int64(sequence)).UTC()
}

// logAction appends payload to the log and attaches the staged patches.
func (e *Engine) logAction(s *GameState, playerID string, payload rules.Payload) {
	seq := len(s.ActionLog)
	action := GameAction{
		Sequence:  seq,
		PlayerID:  playerID,
		Type:      payload.ActionType(),
		Data:      payload,
		Timestamp: e.clock(seq),
		Patches:   s.pending,
	}
	s.pending = nil
	s.ActionLog = append(s.ActionLog, action)

	e.logger.Debug("action logged",
		zap.String("game_id", s.GameID),
		zap.Int("sequence", seq),
		zap.String("type", string(action.Type)),
		zap.String("player_id", playerID),
		zap.Int("patches", len(action.Patches)),
	)
}

// ActionsOfType filters the log, mostly for tests and reporting.
func ActionsOfType(log []GameAction, t rules.ActionType) []GameAction {
	var out []GameAction
	for _, a := range log {
		if a.Type == t {
			out = append(out, a)
		}
	}
	return out
}

// VerifySequence checks that every entry's sequence equals its index.
func VerifySequence(log []GameAction) error {
	for i, a := range log {
		if a.Sequence != i {
			return fmt.Errorf("%w: entry %d has sequence %d", ErrSequenceGap, i, a.Sequence)
		}
	}
	return nil
}
