package game

import (
	"fmt"

	"github.com/cardclash/battle-sim/internal/game/cards"
	"github.com/cardclash/battle-sim/internal/game/rules"
)

// PlayerState holds one player's resources and zones. Field positions are
// slice indices.
type PlayerState struct {
	ID        string            `json:"id"`
	Life      int               `json:"life"`
	Energy    int               `json:"energy"`
	MaxEnergy int               `json:"maxEnergy"`
	Fatigue   int               `json:"fatigue"`
	Faction   cards.Faction     `json:"faction"`
	Tactics   cards.Tactics     `json:"tactics"`
	DeckList  []string          `json:"deckList"`
	Deck      []cards.Card      `json:"deck"`
	Hand      []cards.Card      `json:"hand"`
	Field     []cards.FieldCard `json:"field"`
	Graveyard []cards.Card      `json:"graveyard"`
}

// Result is set once the game is decided. Winner is empty on a draw.
type Result struct {
	Winner     string `json:"winner,omitempty"`
	Reason     string `json:"reason"`
	TotalTurns int    `json:"totalTurns"`
}

// Result reasons.
const (
	ReasonLifeDepleted = "life_depleted"
	ReasonBothDefeated = "both_defeated"
	ReasonTurnLimit    = "turn_limit"
)

// GameState is the root aggregate of a match. ProcessGameStep never mutates
// the state it is given.
type GameState struct {
	GameID           string                  `json:"gameId"`
	RandomSeed       string                  `json:"randomSeed"`
	RNGState         uint64                  `json:"rngState"`
	TurnNumber       int                     `json:"turnNumber"`
	Phase            rules.Phase             `json:"phase"`
	CurrentPlayer    string                  `json:"currentPlayer"`
	PlayerOrder      [2]string               `json:"playerOrder"`
	Players          map[string]*PlayerState `json:"players"`
	ActionLog        []GameAction            `json:"actionLog"`
	PendingAttackers []string                `json:"pendingAttackers,omitempty"`
	Result           *Result                 `json:"result,omitempty"`

	// initial is the snapshot the log folds over. It is shared and never
	// mutated.
	initial *GameState
	// pending holds patches applied since the last logged action.
	pending []Patch
}

// Player returns the state of playerID.
func (s *GameState) Player(playerID string) (*PlayerState, error) {
	p, ok := s.Players[playerID]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPlayer, playerID)
	}
	return p, nil
}

// OpponentOf returns the id of the other player.
func (s *GameState) OpponentOf(playerID string) string {
	if s.PlayerOrder[0] == playerID {
		return s.PlayerOrder[1]
	}
	return s.PlayerOrder[0]
}

// ownerRank orders players for deterministic tie breaks.
func (s *GameState) ownerRank(playerID string) int {
	if s.PlayerOrder[0] == playerID {
		return 0
	}
	return 1
}

// LastSequence returns the sequence of the newest log entry, or -1.
func (s *GameState) LastSequence() int {
	return len(s.ActionLog) - 1
}

// InitialSnapshot returns a copy of the state the action log starts from.
func (s *GameState) InitialSnapshot() *GameState {
	if s.initial == nil {
		return nil
	}
	return s.initial.Clone()
}

// IsFinished reports whether the game has a result.
func (s *GameState) IsFinished() bool {
	return s.Result != nil
}

// findField locates a creature by instance id on either field.
func (s *GameState) findField(instanceID string) (playerID string, index int, ok bool) {
	for _, pid := range s.PlayerOrder {
		for i, fc := range s.Players[pid].Field {
			if fc.InstanceID == instanceID {
				return pid, i, true
			}
		}
	}
	return "", -1, false
}

func (s *GameState) PlayerTactics(playerID string) cards.Tactics {
	if p, ok := s.Players[playerID]; ok {
		return p.Tactics
	}
	return cards.Balanced
}

func (s *GameState) PlayerFaction(playerID string) cards.Faction {
	if p, ok := s.Players[playerID]; ok {
		return p.Faction
	}
	return cards.Neutral
}

func (s *GameState) GraveyardSize(playerID string) int {
	if p, ok := s.Players[playerID]; ok {
		return len(p.Graveyard)
	}
	return 0
}

func (s *GameState) FieldSize(playerID string) int {
	if p, ok := s.Players[playerID]; ok {
		return len(p.Field)
	}
	return 0
}

// Clone returns a deep copy. Logged actions are immutable and shared.
func (s *GameState) Clone() *GameState {
	if s == nil {
		return nil
	}
	out := *s
	if s.Players != nil {
		out.Players = make(map[string]*PlayerState, len(s.Players))
		for id, p := range s.Players {
			out.Players[id] = p.Clone()
		}
	}
	if s.ActionLog != nil {
		out.ActionLog = make([]GameAction, len(s.ActionLog))
		copy(out.ActionLog, s.ActionLog)
	}
	out.PendingAttackers = cloneStrings(s.PendingAttackers)
	if s.Result != nil {
		r := *s.Result
		out.Result = &r
	}
	if s.pending != nil {
		out.pending = make([]Patch, len(s.pending))
		copy(out.pending, s.pending)
	}
	return &out
}

// Clone returns a deep copy of the player.
func (p *PlayerState) Clone() *PlayerState {
	out := *p
	out.DeckList = cloneStrings(p.DeckList)
	out.Deck = cloneCards(p.Deck)
	out.Hand = cloneCards(p.Hand)
	out.Graveyard = cloneCards(p.Graveyard)
	if p.Field != nil {
		out.Field = make([]cards.FieldCard, len(p.Field))
		for i, fc := range p.Field {
			out.Field[i] = fc.Clone()
		}
	}
	return &out
}

func cloneCards(in []cards.Card) []cards.Card {
	if in == nil {
		return nil
	}
	out := make([]cards.Card, len(in))
	for i, c := range in {
		out[i] = c.Clone()
	}
	return out
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
