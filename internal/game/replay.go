package game

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/cardclash/battle-sim/internal/game/cards"
	"github.com/cardclash/battle-sim/internal/game/rules"
)

// ReplayVersion is the artifact format version.
const ReplayVersion = 1

// ReconstructStateAtSequence folds the log of state over its initial
// snapshot up to and including sequence. Sequence -1 yields the initial
// snapshot. It never modifies state.
func ReconstructStateAtSequence(state *GameState, sequence int) (*GameState, error) {
	if state == nil || state.initial == nil {
		return nil, fmt.Errorf("%w: state has no initial snapshot", ErrInvariantViolation)
	}
	return foldLog(state.initial, state.ActionLog, sequence)
}

func foldLog(initial *GameState, log []GameAction, sequence int) (*GameState, error) {
	if sequence < -1 || sequence >= len(log) {
		return nil, fmt.Errorf("sequence %d outside log of %d entries", sequence, len(log))
	}
	out := initial.Clone()
	out.initial = initial
	out.pending = nil
	for i := 0; i <= sequence; i++ {
		action := log[i]
		if action.Sequence != i {
			return nil, fmt.Errorf("%w: entry %d has sequence %d", ErrSequenceGap, i, action.Sequence)
		}
		for _, p := range action.Patches {
			if err := p.apply(out); err != nil {
				return nil, fmt.Errorf("replay sequence %d: %w", i, err)
			}
		}
	}
	if sequence >= 0 {
		out.ActionLog = make([]GameAction, sequence+1)
		copy(out.ActionLog, log[:sequence+1])
	}
	return out, nil
}

// ReplayPlayer identifies a participant and the deck they submitted.
type ReplayPlayer struct {
	ID      string        `json:"id"`
	Faction cards.Faction `json:"faction"`
	Tactics cards.Tactics `json:"tactics"`
	Deck    []string      `json:"deck"`
}

// ReplaySummary is the final outcome of a replayed game.
type ReplaySummary struct {
	Winner     string         `json:"winner,omitempty"`
	Reason     string         `json:"reason,omitempty"`
	TotalTurns int            `json:"totalTurns"`
	FinalLife  map[string]int `json:"finalLife"`
}

// Replay is the persisted artifact of a match. The initial state is rebuilt
// from the deck template ids, seed and rules, then the log is folded over it.
type Replay struct {
	Version   int            `json:"version"`
	GameID    string         `json:"gameId"`
	Seed      string         `json:"seed"`
	Rules     Rules          `json:"rules"`
	Players   []ReplayPlayer `json:"players"`
	ActionLog []GameAction   `json:"actionLog"`
	Summary   ReplaySummary  `json:"summary"`
	Checksum  string         `json:"checksum"`
}

// NewReplay captures state as a replay artifact.
func (e *Engine) NewReplay(state *GameState) (*Replay, error) {
	checksum, err := Checksum(state)
	if err != nil {
		return nil, err
	}
	r := &Replay{
		Version:   ReplayVersion,
		GameID:    state.GameID,
		Seed:      state.RandomSeed,
		Rules:     e.rules,
		ActionLog: append([]GameAction(nil), state.ActionLog...),
		Summary:   ReplaySummary{TotalTurns: state.TurnNumber, FinalLife: make(map[string]int, 2)},
		Checksum:  checksum,
	}
	for _, pid := range state.PlayerOrder {
		p := state.Players[pid]
		r.Players = append(r.Players, ReplayPlayer{
			ID:      p.ID,
			Faction: p.Faction,
			Tactics: p.Tactics,
			Deck:    cloneStrings(p.DeckList),
		})
		r.Summary.FinalLife[pid] = p.Life
	}
	if state.Result != nil {
		r.Summary.Winner = state.Result.Winner
		r.Summary.Reason = state.Result.Reason
		r.Summary.TotalTurns = state.Result.TotalTurns
	}
	return r, nil
}

// CardSource resolves template ids to cards.
type CardSource interface {
	Card(templateID string) (cards.Card, error)
}

// RebuildFromReplay recreates the initial state of r and folds its log. The
// result is checked against the recorded checksum.
func (e *Engine) RebuildFromReplay(r *Replay, source CardSource) (*GameState, error) {
	if r.Version != ReplayVersion {
		return nil, fmt.Errorf("unsupported replay version: %d", r.Version)
	}
	if len(r.Players) != 2 {
		return nil, fmt.Errorf("replay %s has %d players", r.GameID, len(r.Players))
	}
	decks := make([][]cards.Card, 2)
	for i, p := range r.Players {
		for _, id := range p.Deck {
			c, err := source.Card(id)
			if err != nil {
				return nil, fmt.Errorf("replay %s player %s: %w", r.GameID, p.ID, err)
			}
			decks[i] = append(decks[i], c)
		}
	}

	rebuild := *e
	rebuild.rules = r.Rules
	initial, err := rebuild.CreateInitialGameState(r.GameID, decks[0], decks[1],
		r.Players[0].Faction, r.Players[1].Faction, r.Players[0].Tactics, r.Players[1].Tactics, r.Seed)
	if err != nil {
		return nil, fmt.Errorf("rebuild replay %s: %w", r.GameID, err)
	}
	state, err := foldLog(initial.initial, r.ActionLog, len(r.ActionLog)-1)
	if err != nil {
		return nil, fmt.Errorf("rebuild replay %s: %w", r.GameID, err)
	}
	if r.Checksum != "" {
		sum, err := Checksum(state)
		if err != nil {
			return nil, err
		}
		if sum != r.Checksum {
			return nil, fmt.Errorf("%w: replay %s checksum mismatch: recorded=%s rebuilt=%s", ErrInvariantViolation, r.GameID, r.Checksum, sum)
		}
	}
	return state, nil
}

// Encode writes r as JSON, gzip-compressed when compress is set.
func (r *Replay) Encode(w io.Writer, compress bool) error {
	if compress {
		gz := gzip.NewWriter(w)
		if err := json.NewEncoder(gz).Encode(r); err != nil {
			gz.Close()
			return fmt.Errorf("failed to encode replay: %w", err)
		}
		return gz.Close()
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("failed to encode replay: %w", err)
	}
	return nil
}

// DecodeReplay reads a replay written by Encode.
func DecodeReplay(rd io.Reader, compressed bool) (*Replay, error) {
	if compressed {
		gz, err := gzip.NewReader(rd)
		if err != nil {
			return nil, fmt.Errorf("failed to create gzip reader: %w", err)
		}
		defer gz.Close()
		rd = gz
	}
	var r Replay
	if err := json.NewDecoder(rd).Decode(&r); err != nil {
		return nil, fmt.Errorf("failed to decode replay: %w", err)
	}
	if err := VerifySequence(r.ActionLog); err != nil {
		return nil, err
	}
	return &r, nil
}

// ReplayFileName returns the file name a replay is saved under.
func ReplayFileName(gameID string, compress bool) string {
	if compress {
		return gameID + ".replay.json.gz"
	}
	return gameID + ".replay.json"
}

// SaveReplayFile writes r into directory and returns the file path.
func SaveReplayFile(directory string, r *Replay, compress bool) (string, error) {
	if err := os.MkdirAll(directory, 0o755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}
	path := filepath.Join(directory, ReplayFileName(r.GameID, compress))
	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()
	if err := r.Encode(file, compress); err != nil {
		return "", err
	}
	return path, nil
}

// LoadReplayFile reads a replay saved by SaveReplayFile.
func LoadReplayFile(path string) (*Replay, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()
	return DecodeReplay(file, strings.HasSuffix(path, ".gz"))
}

// Summary reports the game over payload of a finished log, if any.
func Summary(log []GameAction) (rules.GameOverData, bool) {
	for i := len(log) - 1; i >= 0; i-- {
		if d, ok := log[i].Data.(rules.GameOverData); ok {
			return d, true
		}
	}
	return rules.GameOverData{}, false
}
